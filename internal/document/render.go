package document

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// RenderDPI is the resolution used to rasterize PDF pages for visual extraction
const RenderDPI = 300

// ErrRender marks a document that could not be turned into an image
var ErrRender = errors.New("render failed")

// RenderError is returned when a document cannot be rendered. It is fatal for
// the current analysis run since there is no further fallback.
type RenderError struct {
	Filename string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering %s: %v", e.Filename, e.Err)
}

func (e *RenderError) Unwrap() []error {
	return []error{ErrRender, e.Err}
}

// Image is a raster image ready to be sent to the oracle
type Image struct {
	Data     []byte
	MIMEType string
}

// Format returns the short format name ("png", "jpeg")
func (i Image) Format() string {
	switch i.MIMEType {
	case "image/jpeg":
		return "jpeg"
	default:
		return "png"
	}
}

// RenderFirstPage returns a raster image of the document's first page.
// PNG and JPEG documents are returned unchanged, HEIC is converted to PNG and
// PDFs are rasterized at RenderDPI.
func RenderFirstPage(b Blob) (Image, error) {
	switch {
	case b.MIMEType == "image/png" || b.MIMEType == "image/jpeg":
		return Image{Data: b.data, MIMEType: b.MIMEType}, nil
	case b.Kind == KindImage:
		pngData, err := heicToPNG(b.data)
		if err != nil {
			return Image{}, &RenderError{Filename: b.Filename, Err: err}
		}
		return Image{Data: pngData, MIMEType: "image/png"}, nil
	case b.Kind == KindPDF:
		pngData, err := pdfToImage(b.data)
		if err != nil {
			return Image{}, &RenderError{Filename: b.Filename, Err: err}
		}
		return Image{Data: pngData, MIMEType: "image/png"}, nil
	default:
		return Image{}, &RenderError{Filename: b.Filename, Err: ErrUnsupportedFormat}
	}
}

// pdfToImage converts the first page of a PDF to a PNG image
func pdfToImage(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	img, err := doc.ImageDPI(0, RenderDPI)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}

	return encodePNG(img)
}

// heicToPNG decodes HEIC/HEIF (common on iPhones), which the standard image package doesn't support
func heicToPNG(data []byte) ([]byte, error) {
	img, err := heic.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
	}
	return encodePNG(img)
}

// Thumbnail scales img down to fit within maxWidth x maxHeight for previews.
// Images that already fit are re-encoded as PNG without scaling.
func Thumbnail(img Image, maxWidth, maxHeight int) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	bounds := src.Bounds()
	if bounds.Dx() > maxWidth || bounds.Dy() > maxHeight {
		src = imaging.Fit(src, maxWidth, maxHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}
