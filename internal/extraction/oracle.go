package extraction

import (
	"context"

	"github.com/anjanakv868/invoice-po-matching-tool/internal/document"
)

// Part is one piece of oracle input: either a text block or an image
type Part struct {
	Text  string
	Image *document.Image
}

// TextPart wraps a text block
func TextPart(text string) Part {
	return Part{Text: text}
}

// ImagePart wraps a raster image
func ImagePart(img document.Image) Part {
	return Part{Image: &img}
}

// IsImage reports whether the part carries an image
func (p Part) IsImage() bool {
	return p.Image != nil
}

// Request is a single call to the oracle
type Request struct {
	Instruction string
	Parts       []Part
	Temperature float32
}

// Oracle is a generative model treated as text-in/text-out
type Oracle interface {
	// Generate sends the request and returns the model's raw text answer
	Generate(ctx context.Context, req Request) (string, error)
	// Close releases resources held by the oracle
	Close() error
}
