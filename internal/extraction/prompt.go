package extraction

import (
	"fmt"

	"github.com/anjanakv868/invoice-po-matching-tool/internal/document"
)

// ContentKind selects which extraction path a payload belongs to
type ContentKind string

const (
	ContentText  ContentKind = "text"
	ContentImage ContentKind = "image"
)

// analysisPrompt is shared by both paths. The %[1]s and %[2]s verbs are filled
// per content kind; the output schema is identical for both.
const analysisPrompt = `
You are an expert accounts payable specialist. Your task is to extract key information from %[1]s.

From the INVOICE %[2]s, extract:
- Invoice Number
- Date
- Vendor Name
- A list of all line items. Each item should have a 'description', 'quantity', and 'price'.
- Total Amount

From the PURCHASE ORDER %[2]s, extract:
- PO Number
- Date
- Vendor Name
- A list of all ordered items. Each item should have a 'description', 'quantity', and 'price'.
- Total Amount

Return your findings ONLY as a single, minified JSON object. The JSON structure must be:
{
  "invoice_data": {
    "invoice_no": "...", "date": "...", "vendor": "...",
    "items": [{"description": "...", "quantity": 1, "price": 0.00}],
    "total": 0.00
  },
  "po_data": {
    "po_no": "...", "date": "...", "vendor": "...",
    "items": [{"description": "...", "quantity": 1, "price": 0.00}],
    "total": 0.00
  }
}
`

// Instruction renders the prompt for a content kind
func Instruction(kind ContentKind) string {
	switch kind {
	case ContentImage:
		return fmt.Sprintf(analysisPrompt, "the provided document images (the invoice first, then the purchase order)", "image")
	default:
		return fmt.Sprintf(analysisPrompt, "the following text content from an invoice and a purchase order", "text")
	}
}

// Payload is the ordered oracle input for one analysis run
type Payload struct {
	Kind        ContentKind
	Instruction string
	Parts       []Part
}

// BuildTextPayload packages the extracted text of both documents
func BuildTextPayload(invoiceText, poText string) Payload {
	return Payload{
		Kind:        ContentText,
		Instruction: Instruction(ContentText),
		Parts: []Part{
			TextPart("\n--- INVOICE TEXT ---\n" + invoiceText),
			TextPart("\n--- PO TEXT ---\n" + poText),
		},
	}
}

// BuildImagePayload packages the rendered first page of both documents
func BuildImagePayload(invoiceImage, poImage document.Image) Payload {
	return Payload{
		Kind:        ContentImage,
		Instruction: Instruction(ContentImage),
		Parts: []Part{
			ImagePart(invoiceImage),
			ImagePart(poImage),
		},
	}
}

// Request turns the payload into an oracle call with deterministic sampling
func (p Payload) Request() Request {
	return Request{
		Instruction: p.Instruction,
		Parts:       p.Parts,
		Temperature: 0,
	}
}
