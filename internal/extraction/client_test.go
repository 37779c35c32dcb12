package extraction

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anjanakv868/invoice-po-matching-tool/internal/document"
)

// fakeOracle replays a scripted answer and records every request
type fakeOracle struct {
	answer   string
	err      error
	requests []Request
}

func (f *fakeOracle) Generate(ctx context.Context, req Request) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeOracle) Close() error {
	return nil
}

var _ = Describe("Client", func() {
	var (
		oracle  *fakeOracle
		client  *Client
		payload Payload
		result  AnalysisResult
		err     error
	)

	BeforeEach(func() {
		oracle = &fakeOracle{answer: sampleAnswer}
		client = NewClient(oracle)
		payload = BuildTextPayload("invoice text", "po text")
	})

	JustBeforeEach(func() {
		result, err = client.Analyze(context.Background(), payload)
	})

	When("the oracle answers with valid JSON", func() {
		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return the parsed records", func() {
			Expect(result.Invoice.Vendor).To(Equal("Acme Co"))
			Expect(result.PO.PONo).To(Equal("PO-42"))
		})

		It("should call the oracle exactly once", func() {
			Expect(oracle.requests).To(HaveLen(1))
		})

		It("should request deterministic sampling", func() {
			Expect(oracle.requests[0].Temperature).To(BeZero())
		})

		It("should pass the payload through in order", func() {
			req := oracle.requests[0]
			Expect(req.Instruction).To(Equal(Instruction(ContentText)))
			Expect(req.Parts).To(HaveLen(2))
			Expect(req.Parts[0].Text).To(ContainSubstring("invoice text"))
			Expect(req.Parts[1].Text).To(ContainSubstring("po text"))
		})
	})

	When("the answer is fenced", func() {
		var unfenced AnalysisResult

		BeforeEach(func() {
			oracle.answer = "```json\n" + sampleAnswer + "\n```"
			var unfencedErr error
			unfenced, unfencedErr = NewClient(&fakeOracle{answer: sampleAnswer}).Analyze(context.Background(), payload)
			Expect(unfencedErr).NotTo(HaveOccurred())
		})

		It("should parse identically to the unfenced answer", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(unfenced))
		})
	})

	When("the answer is fenced without a language tag", func() {
		BeforeEach(func() {
			oracle.answer = "```\n" + sampleAnswer + "\n```"
		})

		It("should parse the answer", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Invoice.InvoiceNo).To(Equal("INV-001"))
		})
	})

	When("the answer is malformed JSON", func() {
		BeforeEach(func() {
			oracle.answer = `{"invoice_data":{"vendor":"Acme Co",},}`
		})

		It("returns ErrMalformedResponse", func() {
			Expect(err).To(MatchError(ErrMalformedResponse))
		})

		It("should keep the raw answer", func() {
			var extractionErr *Error
			Expect(errors.As(err, &extractionErr)).To(BeTrue())
			Expect(extractionErr.Raw).To(Equal(oracle.answer))
			Expect(extractionErr.Code()).To(Equal("malformed_response"))
		})

		It("should return default records", func() {
			Expect(result.Invoice.Vendor).To(Equal(Unknown))
			Expect(result.Invoice.Total).To(BeZero())
			Expect(result.Invoice.Items).To(BeEmpty())
			Expect(result.PO.Vendor).To(Equal(Unknown))
			Expect(result.PO.Total).To(BeZero())
			Expect(result.PO.Items).To(BeEmpty())
		})

		It("should not retry", func() {
			Expect(oracle.requests).To(HaveLen(1))
		})
	})

	When("the answer is a bare null", func() {
		BeforeEach(func() {
			oracle.answer = "```json\nnull\n```"
		})

		It("returns ErrMalformedResponse", func() {
			Expect(err).To(MatchError(ErrMalformedResponse))
		})

		It("should return default records", func() {
			Expect(result).To(Equal(EmptyResult()))
		})
	})

	When("the answer is empty", func() {
		BeforeEach(func() {
			oracle.answer = "  \n "
		})

		It("returns ErrEmptyResponse", func() {
			Expect(err).To(MatchError(ErrEmptyResponse))
			Expect(err).NotTo(MatchError(ErrMalformedResponse))
		})

		It("should return default records", func() {
			Expect(result).To(Equal(EmptyResult()))
		})
	})

	When("the oracle call fails", func() {
		var setupErr error

		BeforeEach(func() {
			setupErr = errors.New("quota exceeded")
			oracle.err = setupErr
		})

		It("returns ErrOracleFailure", func() {
			Expect(err).To(MatchError(ErrOracleFailure))
		})

		It("should surface the underlying error", func() {
			Expect(err).To(MatchError(setupErr))
			Expect(err.Error()).To(ContainSubstring("quota exceeded"))
		})

		It("should return default records", func() {
			Expect(result).To(Equal(EmptyResult()))
		})

		It("should not retry", func() {
			Expect(oracle.requests).To(HaveLen(1))
		})
	})

	When("the payload carries images", func() {
		BeforeEach(func() {
			payload = BuildImagePayload(
				document.Image{Data: []byte("invoice-png"), MIMEType: "image/png"},
				document.Image{Data: []byte("po-jpeg"), MIMEType: "image/jpeg"},
			)
		})

		It("should send the image instruction and both images", func() {
			req := oracle.requests[0]
			Expect(req.Instruction).To(Equal(Instruction(ContentImage)))
			Expect(req.Parts).To(HaveLen(2))
			Expect(req.Parts[0].IsImage()).To(BeTrue())
			Expect(req.Parts[0].Image.Data).To(Equal([]byte("invoice-png")))
			Expect(req.Parts[1].Image.Format()).To(Equal("jpeg"))
		})
	})
})
