package extraction

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anjanakv868/invoice-po-matching-tool/internal/document"
)

// schemaBlock returns the JSON structure section of a rendered prompt
func schemaBlock(prompt string) string {
	return prompt[strings.Index(prompt, "The JSON structure must be:"):]
}

var _ = Describe("Instruction", func() {
	It("should request the same schema for both content kinds", func() {
		Expect(schemaBlock(Instruction(ContentText))).To(Equal(schemaBlock(Instruction(ContentImage))))
	})

	It("should describe the text path", func() {
		prompt := Instruction(ContentText)
		Expect(prompt).To(ContainSubstring("From the INVOICE text"))
		Expect(prompt).To(ContainSubstring("From the PURCHASE ORDER text"))
	})

	It("should describe the image path", func() {
		prompt := Instruction(ContentImage)
		Expect(prompt).To(ContainSubstring("From the INVOICE image"))
		Expect(prompt).To(ContainSubstring("document images"))
	})

	It("should name every schema key", func() {
		prompt := Instruction(ContentText)
		for _, key := range []string{"invoice_data", "po_data", "invoice_no", "po_no", "date", "vendor", "items", "description", "quantity", "price", "total"} {
			Expect(prompt).To(ContainSubstring(`"` + key + `"`))
		}
	})
})

var _ = Describe("BuildTextPayload", func() {
	It("should label each document", func() {
		payload := BuildTextPayload("INV-1 Acme", "PO-1 Acme")
		Expect(payload.Kind).To(Equal(ContentText))
		Expect(payload.Parts).To(Equal([]Part{
			TextPart("\n--- INVOICE TEXT ---\nINV-1 Acme"),
			TextPart("\n--- PO TEXT ---\nPO-1 Acme"),
		}))
	})
})

var _ = Describe("BuildImagePayload", func() {
	It("should put the invoice image first", func() {
		invoice := document.Image{Data: []byte("a"), MIMEType: "image/png"}
		po := document.Image{Data: []byte("b"), MIMEType: "image/png"}

		payload := BuildImagePayload(invoice, po)
		Expect(payload.Kind).To(Equal(ContentImage))
		Expect(payload.Parts).To(HaveLen(2))
		Expect(*payload.Parts[0].Image).To(Equal(invoice))
		Expect(*payload.Parts[1].Image).To(Equal(po))
	})
})
