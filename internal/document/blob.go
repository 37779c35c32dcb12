package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for uploads that are not PDF, PNG, JPEG or HEIC
var ErrUnsupportedFormat = errors.New("unsupported document format. Supported formats: PDF, PNG, JPEG, HEIC")

// Kind is the declared media kind of a document
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
)

// Blob is an uploaded document. The bytes are fully buffered so a blob can be
// read for text extraction and again for rendering.
type Blob struct {
	Filename string
	Kind     Kind
	MIMEType string
	data     []byte
}

// NewBlob classifies data as a PDF or raster image. The content type is a hint;
// the file signature wins when the two disagree.
func NewBlob(filename, contentType string, data []byte) (Blob, error) {
	mimeType := detectMIMEType(filename, contentType, data)

	var kind Kind
	switch mimeType {
	case "application/pdf":
		kind = KindPDF
	case "image/png", "image/jpeg", "image/heic", "image/heif":
		kind = KindImage
	default:
		return Blob{}, fmt.Errorf("%s (%s): %w", filename, mimeType, ErrUnsupportedFormat)
	}

	return Blob{
		Filename: filename,
		Kind:     kind,
		MIMEType: mimeType,
		data:     data,
	}, nil
}

// ReadBlob buffers r in memory and classifies it
func ReadBlob(filename, contentType string, r io.Reader) (Blob, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Blob{}, fmt.Errorf("reading %s: %w", filename, err)
	}
	return NewBlob(filename, contentType, data)
}

// Bytes returns the buffered document bytes
func (b Blob) Bytes() []byte {
	return b.data
}

// Reader returns a fresh reader over the document bytes
func (b Blob) Reader() *bytes.Reader {
	return bytes.NewReader(b.data)
}

// Size returns the document size in bytes
func (b Blob) Size() int {
	return len(b.data)
}

func detectMIMEType(filename, contentType string, data []byte) string {
	if isHEICFormat(data) {
		return "image/heic"
	}

	sniffed := http.DetectContentType(data)
	switch {
	case strings.HasPrefix(sniffed, "application/pdf"):
		return "application/pdf"
	case sniffed == "image/png", sniffed == "image/jpeg":
		return sniffed
	}

	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "image/jpg" {
		mimeType = "image/jpeg"
	}
	if mimeType != "" && mimeType != "application/octet-stream" {
		return mimeType
	}

	return MIMETypeFromFilename(filename)
}

// MIMETypeFromFilename maps a file extension to a MIME type
func MIMETypeFromFilename(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// isHEICFormat checks for an ftyp box with a HEIC-family brand
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}
