package extraction

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/anjanakv868/invoice-po-matching-tool/internal/document"
)

var _ = Describe("Ollama", func() {
	var (
		server   *ghttp.Server
		oracle   *Ollama
		received ollamaChatRequest
		answer   string
		err      error
		req      Request
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		received = ollamaChatRequest{}
		var newErr error
		oracle, newErr = NewOllama(server.URL(), "llava")
		Expect(newErr).NotTo(HaveOccurred())
		req = BuildTextPayload("invoice text", "po text").Request()
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		answer, err = oracle.Generate(context.Background(), req)
	})

	When("the server answers", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
				ghttp.VerifyContentType("application/json"),
				func(w http.ResponseWriter, r *http.Request) {
					body, readErr := io.ReadAll(r.Body)
					Expect(readErr).NotTo(HaveOccurred())
					Expect(json.Unmarshal(body, &received)).To(Succeed())
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
					Message: ollamaMessage{Role: "assistant", Content: sampleAnswer},
					Done:    true,
				}),
			))
		})

		It("should return the message content", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(Equal(sampleAnswer))
		})

		It("should send the instruction as the system message", func() {
			Expect(received.Messages).To(HaveLen(2))
			Expect(received.Messages[0].Role).To(Equal("system"))
			Expect(received.Messages[0].Content).To(Equal(Instruction(ContentText)))
		})

		It("should send both documents in the user message", func() {
			Expect(received.Messages[1].Content).To(ContainSubstring("--- INVOICE TEXT ---"))
			Expect(received.Messages[1].Content).To(ContainSubstring("--- PO TEXT ---"))
		})

		It("should request temperature 0 without streaming", func() {
			Expect(received.Options.Temperature).To(BeZero())
			Expect(received.Stream).To(BeFalse())
			Expect(received.Model).To(Equal("llava"))
		})
	})

	When("the request carries images", func() {
		BeforeEach(func() {
			req = BuildImagePayload(
				document.Image{Data: []byte("invoice"), MIMEType: "image/png"},
				document.Image{Data: []byte("po"), MIMEType: "image/png"},
			).Request()

			server.AppendHandlers(ghttp.CombineHandlers(
				func(w http.ResponseWriter, r *http.Request) {
					Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{Message: ollamaMessage{Content: "{}"}}),
			))
		})

		It("should attach them base64-encoded in order", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(received.Messages[1].Images).To(Equal([]string{
				base64.StdEncoding.EncodeToString([]byte("invoice")),
				base64.StdEncoding.EncodeToString([]byte("po")),
			}))
			Expect(received.Messages[1].Content).NotTo(BeEmpty())
		})
	})

	When("the server returns an error status", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusServiceUnavailable, "model loading"))
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("503"))
			Expect(err.Error()).To(ContainSubstring("model loading"))
		})
	})

	When("the server returns invalid JSON", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, "not json"))
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("NewGemini", func() {
	It("returns ErrConfiguration without an API key", func() {
		_, err := NewGemini(context.Background(), "", "")
		Expect(err).To(MatchError(ErrConfiguration))
	})
})

var _ = Describe("NewOracle", func() {
	It("should build an Ollama oracle", func() {
		oracle, err := NewOracle(context.Background(), OracleConfig{Backend: "ollama"})
		Expect(err).NotTo(HaveOccurred())
		Expect(oracle).To(BeAssignableToTypeOf(&Ollama{}))
	})

	It("returns ErrConfiguration for a missing Gemini key", func() {
		oracle, err := NewOracle(context.Background(), OracleConfig{Backend: "gemini"})
		Expect(err).To(MatchError(ErrConfiguration))
		Expect(oracle).To(BeNil())
	})

	It("returns ErrConfiguration for unknown backends", func() {
		_, err := NewOracle(context.Background(), OracleConfig{Backend: "tesseract"})
		Expect(err).To(MatchError(ErrConfiguration))
	})
})
