package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anjanakv868/invoice-po-matching-tool/internal/document"
	"github.com/anjanakv868/invoice-po-matching-tool/internal/extraction"
	"github.com/anjanakv868/invoice-po-matching-tool/internal/reconcile"
)

// Analyzer is the extraction step, satisfied by *extraction.Client
type Analyzer interface {
	Analyze(ctx context.Context, payload extraction.Payload) (extraction.AnalysisResult, error)
}

// Outcome is everything one run produces
type Outcome struct {
	// Path is the extraction path that was taken
	Path     extraction.ContentKind
	Analysis extraction.AnalysisResult
	Store    *reconcile.Store
	Verdict  reconcile.Verdict
	// ExtractionErr is set when the oracle failed or answered badly; the
	// records are then defaults but the outcome is still usable
	ExtractionErr error
}

// Pipeline runs the two-tier extraction and the match evaluation
type Pipeline struct {
	analyzer Analyzer
}

// New creates a Pipeline
func New(analyzer Analyzer) *Pipeline {
	return &Pipeline{analyzer: analyzer}
}

// Run extracts text from both documents and falls back to first-page images
// when either yields none. The oracle is called once. The returned error is
// non-nil only when rendering fails, which aborts the run.
func (p *Pipeline) Run(ctx context.Context, invoice, po document.Blob) (*Outcome, error) {
	payload, err := BuildPayload(invoice, po)
	if err != nil {
		return nil, err
	}

	analysis, err := p.analyzer.Analyze(ctx, payload)
	if err != nil {
		slog.Warn("Extraction failed, continuing with empty records", "path", payload.Kind, "error", err)
	}

	store := reconcile.NewStore(analysis.Invoice, analysis.PO)
	outcome := &Outcome{
		Path:          payload.Kind,
		Analysis:      analysis,
		Store:         store,
		Verdict:       store.Evaluate(),
		ExtractionErr: err,
	}

	slog.Info("Analysis complete",
		"path", outcome.Path,
		"status", outcome.Verdict.Status,
		"invoice", invoice.Filename,
		"po", po.Filename,
	)
	return outcome, nil
}

// BuildPayload picks the text path when both documents have usable text and
// the image path otherwise
func BuildPayload(invoice, po document.Blob) (extraction.Payload, error) {
	invoiceText := document.ExtractText(invoice)
	poText := document.ExtractText(po)
	if invoiceText != "" && poText != "" {
		return extraction.BuildTextPayload(invoiceText, poText), nil
	}

	slog.Info("Text extraction unusable, falling back to images",
		"invoice_has_text", invoiceText != "",
		"po_has_text", poText != "",
	)

	invoiceImage, err := document.RenderFirstPage(invoice)
	if err != nil {
		return extraction.Payload{}, fmt.Errorf("preparing invoice: %w", err)
	}
	poImage, err := document.RenderFirstPage(po)
	if err != nil {
		return extraction.Payload{}, fmt.Errorf("preparing purchase order: %w", err)
	}

	return extraction.BuildImagePayload(invoiceImage, poImage), nil
}
