package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/anjanakv868/invoice-po-matching-tool/internal/document"
	"github.com/anjanakv868/invoice-po-matching-tool/internal/extraction"
	"github.com/anjanakv868/invoice-po-matching-tool/internal/pipeline"
	"github.com/anjanakv868/invoice-po-matching-tool/internal/reconcile"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

const (
	exitOK = iota
	exitFailure
	exitUsage
)

// report is what gets printed for one run
type report struct {
	Path     extraction.ContentKind   `json:"path"`
	Invoice  extraction.InvoiceRecord `json:"invoice_data"`
	PO       extraction.PORecord      `json:"po_data"`
	Verdict  reconcile.Verdict        `json:"verdict"`
	Reasons  []string                 `json:"reasons,omitempty"`
	Warnings []string                 `json:"warnings,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one comparison and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	fs := ff.NewFlagSet("match")
	var (
		oracleType    = fs.StringLong("oracle", "gemini", "Oracle type: 'gemini' or 'ollama'")
		geminiKey     = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY / GOOGLE_API_KEY)")
		geminiModel   = fs.StringLong("gemini-model", extraction.DefaultGeminiModel, "Google Gemini model name")
		ollamaURL     = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel   = fs.StringLong("ollama-model", "llava", "Ollama vision model name")
		oracleTimeout = fs.DurationLong("oracle-timeout", 2*time.Minute, "Upper bound for the analysis, 0 for none")
		verbose       = fs.BoolLong("verbose", "Log progress to stderr")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, args,
		ff.WithEnvVarPrefix("INVOICE_MATCHER"),
	); err != nil {
		fmt.Fprintf(stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	if *showVersion {
		fmt.Fprintln(stdout, version)
		return exitOK
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	paths := fs.GetArgs()
	if len(paths) != 2 {
		fmt.Fprintf(stderr, "usage: match [flags] <invoice> <purchase-order>\n\n%s\n", ffhelp.Flags(fs))
		return exitUsage
	}

	invoice, err := loadBlob(paths[0])
	if err != nil {
		slog.Error("Failed to read invoice", "error", err)
		return exitFailure
	}
	po, err := loadBlob(paths[1])
	if err != nil {
		slog.Error("Failed to read purchase order", "error", err)
		return exitFailure
	}

	apiKey := *geminiKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}

	ctx := context.Background()
	oracle, err := extraction.NewOracle(ctx, extraction.OracleConfig{
		Backend:     *oracleType,
		GeminiKey:   apiKey,
		GeminiModel: *geminiModel,
		OllamaURL:   *ollamaURL,
		OllamaModel: *ollamaModel,
	})
	if err != nil {
		slog.Error("Failed to initialize oracle", "error", err)
		return exitFailure
	}
	defer oracle.Close()

	if *oracleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *oracleTimeout)
		defer cancel()
	}

	outcome, err := pipeline.New(extraction.NewClient(oracle)).Run(ctx, invoice, po)
	if err != nil {
		slog.Error("Failed to analyze documents", "error", err)
		return exitFailure
	}

	current, currentPO := outcome.Store.Get()
	out := report{
		Path:     outcome.Path,
		Invoice:  current,
		PO:       currentPO,
		Verdict:  outcome.Verdict,
		Reasons:  outcome.Verdict.Reasons(),
		Warnings: outcome.Analysis.Warnings,
	}
	if outcome.ExtractionErr != nil {
		out.Error = outcome.ExtractionErr.Error()
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		slog.Error("Error encoding report", "error", err)
		return exitFailure
	}
	return exitOK
}

func loadBlob(path string) (document.Blob, error) {
	f, err := os.Open(path)
	if err != nil {
		return document.Blob{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return document.ReadBlob(path, document.MIMETypeFromFilename(path), f)
}
