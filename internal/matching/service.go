package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anjanakv868/invoice-po-matching-tool/internal/document"
	"github.com/anjanakv868/invoice-po-matching-tool/internal/extraction"
	"github.com/anjanakv868/invoice-po-matching-tool/internal/pipeline"
	"github.com/anjanakv868/invoice-po-matching-tool/internal/reconcile"
)

// Preview bounds for rendered first pages
const (
	previewMaxWidth  = 1200
	previewMaxHeight = 1600
)

// ErrUnknownDocument is returned when a preview names neither "invoice" nor "po"
var ErrUnknownDocument = errors.New("document must be \"invoice\" or \"po\"")

// Runner executes one analysis run, satisfied by *pipeline.Pipeline
type Runner interface {
	Run(ctx context.Context, invoice, po document.Blob) (*pipeline.Outcome, error)
}

// IDGenerator generates unique session IDs
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// uuidGenerator generates random UUIDs
type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service manages analysis sessions
type Service struct {
	db          DB
	runner      Runner
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, runner Runner, storage Storage) *Service {
	return NewServiceWithDeps(db, runner, storage, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, runner Runner, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		runner:      runner,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	// Keep only alphanumeric, spaces, hyphens, and underscores
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpace       = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpace.ReplaceAllString(base, " ")

	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "document"
	}

	return base + ext
}

// Analyze runs the pipeline on an uploaded pair and starts a new session.
// Extraction failures still produce a session (with default records and
// Error set); render failures abort and nothing is kept.
func (s *Service) Analyze(ctx context.Context, invoice, po document.Blob) (*Session, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	invoiceFile, err := s.saveBlob(id, "invoice", invoice)
	if err != nil {
		return nil, err
	}
	poFile, err := s.saveBlob(id, "po", po)
	if err != nil {
		s.storage.Delete(invoiceFile.Path)
		return nil, err
	}

	cleanup := func() {
		s.storage.Delete(invoiceFile.Path)
		s.storage.Delete(poFile.Path)
	}

	outcome, err := s.runner.Run(ctx, invoice, po)
	if err != nil {
		slog.Error("Failed to analyze documents",
			"invoice", invoice.Filename,
			"po", po.Filename,
			"error", err,
		)
		cleanup()
		return nil, fmt.Errorf("analyzing documents: %w", err)
	}

	invoiceRecord, poRecord := outcome.Store.Get()
	session := &Session{
		ID:          id,
		Path:        outcome.Path,
		Invoice:     invoiceRecord,
		PO:          poRecord,
		Verdict:     outcome.Verdict,
		Analysis:    outcome.Analysis,
		Warnings:    outcome.Analysis.Warnings,
		Error:       sessionError(outcome.ExtractionErr),
		InvoiceFile: invoiceFile,
		POFile:      poFile,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveSession(session); err != nil {
		cleanup()
		return nil, fmt.Errorf("saving session to database: %w", err)
	}

	return session, nil
}

func (s *Service) saveBlob(id, role string, blob document.Blob) (StoredFile, error) {
	path, err := s.storage.Save(fmt.Sprintf("%s_%s_%s", id, role, sanitizeFilename(blob.Filename)), blob.Bytes())
	if err != nil {
		return StoredFile{}, fmt.Errorf("saving %s file: %w", role, err)
	}
	return StoredFile{
		Filename:    blob.Filename,
		Path:        path,
		ContentType: blob.MIMEType,
	}, nil
}

func sessionError(err error) *SessionError {
	if err == nil {
		return nil
	}
	var extractionErr *extraction.Error
	if errors.As(err, &extractionErr) {
		return &SessionError{
			Kind:    extractionErr.Code(),
			Message: extractionErr.Error(),
			Raw:     extractionErr.Raw,
		}
	}
	return &SessionError{Kind: "unknown", Message: err.Error()}
}

// GetSession retrieves a session by ID
func (s *Service) GetSession(id string) (*Session, error) {
	session, err := s.db.GetSession(id)
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return session, nil
}

// EditRecords applies partial edits to the session's records. The verdict is
// left alone until Evaluate is called.
func (s *Service) EditRecords(id string, invoiceEdits, poEdits reconcile.Edits) (*Session, error) {
	session, err := s.db.UpdateSession(id, func(session *Session) error {
		store := session.store()
		store.ApplyEdits(invoiceEdits, poEdits)
		session.Invoice, session.PO = store.Get()
		session.UpdatedAt = s.timeSource.Now()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("editing session: %w", err)
	}
	return session, nil
}

// Evaluate recomputes the verdict from the session's current records
func (s *Service) Evaluate(id string) (*Session, error) {
	session, err := s.db.UpdateSession(id, func(session *Session) error {
		session.Verdict = session.store().Evaluate()
		session.UpdatedAt = s.timeSource.Now()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("evaluating session: %w", err)
	}
	return session, nil
}

// DeleteSession removes a session and its uploaded documents
func (s *Service) DeleteSession(id string) error {
	session, err := s.db.GetSession(id)
	if err != nil {
		return fmt.Errorf("getting session for deletion: %w", err)
	}

	for _, f := range []StoredFile{session.InvoiceFile, session.POFile} {
		if err := s.storage.Delete(f.Path); err != nil {
			slog.Warn("Failed to delete file", "filename", f.Path, "error", err)
		}
	}

	if err := s.db.DeleteSession(id); err != nil {
		return fmt.Errorf("deleting session from database: %w", err)
	}
	return nil
}

// Preview renders the first page of one of the session's documents as a PNG thumbnail
func (s *Service) Preview(id, doc string) ([]byte, error) {
	session, err := s.db.GetSession(id)
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}

	var file StoredFile
	switch doc {
	case "invoice":
		file = session.InvoiceFile
	case "po":
		file = session.POFile
	default:
		return nil, ErrUnknownDocument
	}

	data, err := s.storage.Get(file.Path)
	if err != nil {
		return nil, fmt.Errorf("getting %s file: %w", doc, err)
	}

	blob, err := document.NewBlob(file.Filename, file.ContentType, data)
	if err != nil {
		return nil, err
	}

	img, err := document.RenderFirstPage(blob)
	if err != nil {
		return nil, err
	}

	return document.Thumbnail(img, previewMaxWidth, previewMaxHeight)
}
