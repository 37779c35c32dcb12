package document

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText returns the plain text of a PDF, one page per line group.
// Pages without text are skipped. Image documents, unreadable PDFs and
// whitespace-only output all yield "", which callers treat as "text unusable".
func ExtractText(b Blob) string {
	if b.Kind != KindPDF {
		return ""
	}

	text, err := pdfText(b.data)
	if err != nil {
		slog.Warn("Text extraction failed", "filename", b.Filename, "error", err)
		return ""
	}
	return text
}

func pdfText(data []byte) (text string, err error) {
	// the PDF reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			slog.Debug("Skipping page without extractable text", "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		pages = append(pages, pageText)
	}

	return strings.TrimSpace(strings.Join(pages, "\n")), nil
}
