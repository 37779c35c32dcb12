package matching

import (
	"time"

	"github.com/anjanakv868/invoice-po-matching-tool/internal/extraction"
	"github.com/anjanakv868/invoice-po-matching-tool/internal/reconcile"
)

// Session is one analysis of an invoice/purchase-order pair and the user's
// edits to it. Sessions never share records.
type Session struct {
	ID   string                 `json:"id"`
	Path extraction.ContentKind `json:"path"`

	// Invoice and PO are the current, possibly edited, records
	Invoice extraction.InvoiceRecord `json:"invoice"`
	PO      extraction.PORecord      `json:"po"`
	Verdict reconcile.Verdict        `json:"verdict"`

	// Analysis is the oracle's answer as extracted, never edited
	Analysis extraction.AnalysisResult `json:"analysis"`
	Warnings []string                  `json:"warnings,omitempty"`
	Error    *SessionError             `json:"error,omitempty"`

	InvoiceFile StoredFile `json:"invoice_file"`
	POFile      StoredFile `json:"po_file"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoredFile points at an uploaded document in Storage
type StoredFile struct {
	Filename    string `json:"filename"`
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
}

// SessionError describes a non-fatal extraction failure
type SessionError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Raw     string `json:"raw,omitempty"`
}

// store loads the session's records into a reconcile.Store
func (s *Session) store() *reconcile.Store {
	return reconcile.NewStore(s.Invoice, s.PO)
}
