package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/anjanakv868/invoice-po-matching-tool/internal/document"
	"github.com/anjanakv868/invoice-po-matching-tool/internal/reconcile"
)

// maxFormSize caps an upload of both documents
const maxFormSize = int64(50 << 20) // 50MB

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// jsonError writes {"error": message} with the given status
func jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// writeJSON encodes v as the response body
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, document.ErrUnsupportedFormat), errors.Is(err, ErrUnknownDocument):
		return http.StatusBadRequest
	case errors.Is(err, document.ErrRender):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// serviceError logs unexpected failures and writes the mapped status
func serviceError(w http.ResponseWriter, action string, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		slog.Error("Error "+action, "error", err)
		jsonError(w, "Internal server error", code)
		return
	}
	jsonError(w, err.Error(), code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// readUpload reads one named document from a parsed multipart form
func readUpload(r *http.Request, field string) (document.Blob, error) {
	f, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return document.Blob{}, fmt.Errorf("no %s file was provided", field)
		}
		return document.Blob{}, fmt.Errorf("reading %s file: %w", field, err)
	}
	defer f.Close()

	if header.Size > maxFormSize {
		return document.Blob{}, fmt.Errorf("%s file is too large. Maximum size is 50MB", field)
	}

	return document.ReadBlob(header.Filename, header.Header.Get("Content-Type"), f)
}

// handleCreateAnalysis runs the pipeline on an uploaded invoice and purchase order
func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		jsonError(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	invoice, err := readUpload(r, "invoice")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	po, err := readUpload(r, "po")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if s.options.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.options.AnalysisTimeout)
		defer cancel()
	}

	session, err := s.service.Analyze(ctx, invoice, po)
	if err != nil {
		serviceError(w, "analyzing documents", err)
		return
	}

	slog.Info("Session created",
		"session", session.ID,
		"path", session.Path,
		"status", session.Verdict.Status,
	)
	writeJSON(w, http.StatusCreated, session)
}

// handleGetAnalysis returns a single session
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	session, err := s.service.GetSession(r.PathValue("id"))
	if err != nil {
		serviceError(w, "getting session", err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// recordEdits is the body of an edit request
type recordEdits struct {
	Invoice reconcile.Edits `json:"invoice"`
	PO      reconcile.Edits `json:"po"`
}

// handleEditRecords applies partial edits without re-evaluating
func (s *Server) handleEditRecords(w http.ResponseWriter, r *http.Request) {
	var req recordEdits
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := s.service.EditRecords(r.PathValue("id"), req.Invoice, req.PO)
	if err != nil {
		serviceError(w, "editing records", err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// handleEvaluate recalculates the verdict from the current records
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	session, err := s.service.Evaluate(r.PathValue("id"))
	if err != nil {
		serviceError(w, "evaluating session", err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// handleExportJSON downloads the extracted analysis
func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, err := s.service.ExportJSON(id)
	if err != nil {
		serviceError(w, "exporting json", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="analysis-%s.json"`, id))
	w.Write(data)
}

// handleExportXLSX downloads the session as a workbook
func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, err := s.service.ExportXLSX(id)
	if err != nil {
		serviceError(w, "exporting workbook", err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="analysis-%s.xlsx"`, id))
	w.Write(data)
}

// handlePreview returns a PNG thumbnail of a document's first page
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.Preview(r.PathValue("id"), r.PathValue("doc"))
	if err != nil {
		serviceError(w, "rendering preview", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}

// handleDeleteAnalysis deletes a session and its documents
func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteSession(r.PathValue("id")); err != nil {
		serviceError(w, "deleting session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
