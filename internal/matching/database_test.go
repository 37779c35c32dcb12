package matching

import (
	"errors"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anjanakv868/invoice-po-matching-tool/internal/extraction"
	"github.com/anjanakv868/invoice-po-matching-tool/internal/reconcile"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir  string
		db      *BoltDB
		session *Session
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		db, err = NewBoltDB(filepath.Join(tmpDir, "test.db"))
		Expect(err).NotTo(HaveOccurred())

		invoice := extraction.NewInvoiceRecord()
		invoice.Vendor = "Acme Co"
		invoice.Items = []extraction.LineItem{{Description: "Widget", Quantity: 2, Price: 25}}
		session = &Session{
			ID:        "test-id",
			Path:      extraction.ContentImage,
			Invoice:   invoice,
			PO:        extraction.NewPORecord(),
			Verdict:   reconcile.Verdict{Status: reconcile.NeedsReview, VendorMismatch: true},
			Warnings:  []string{"/invoice_data/total: expected number"},
			Error:     &SessionError{Kind: "empty_response", Message: "empty"},
			CreatedAt: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			UpdatedAt: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		}
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("SaveSession and GetSession", func() {
		It("should round-trip the session", func() {
			Expect(db.SaveSession(session)).To(Succeed())

			got, err := db.GetSession("test-id")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(session))
		})

		It("returns ErrSessionNotFound for unknown IDs", func() {
			_, err := db.GetSession("missing")
			Expect(err).To(MatchError(ErrSessionNotFound))
		})
	})

	Describe("UpdateSession", func() {
		BeforeEach(func() {
			Expect(db.SaveSession(session)).To(Succeed())
		})

		It("should persist the changes", func() {
			updated, err := db.UpdateSession("test-id", func(s *Session) error {
				s.PO.Vendor = "Acme Co"
				return nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.PO.Vendor).To(Equal("Acme Co"))

			got, err := db.GetSession("test-id")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.PO.Vendor).To(Equal("Acme Co"))
		})

		When("fn returns an error", func() {
			It("returns the error and keeps the stored session", func() {
				setupErr := errors.New("rejected")
				_, err := db.UpdateSession("test-id", func(s *Session) error {
					s.PO.Vendor = "changed"
					return setupErr
				})
				Expect(err).To(MatchError(setupErr))

				got, err := db.GetSession("test-id")
				Expect(err).NotTo(HaveOccurred())
				Expect(got.PO.Vendor).To(Equal(extraction.Unknown))
			})
		})

		It("returns ErrSessionNotFound for unknown IDs", func() {
			_, err := db.UpdateSession("missing", func(s *Session) error { return nil })
			Expect(err).To(MatchError(ErrSessionNotFound))
		})
	})

	Describe("DeleteSession", func() {
		It("should remove the session", func() {
			Expect(db.SaveSession(session)).To(Succeed())
			Expect(db.DeleteSession("test-id")).To(Succeed())

			_, err := db.GetSession("test-id")
			Expect(err).To(MatchError(ErrSessionNotFound))
		})

		It("returns ErrSessionNotFound for unknown IDs", func() {
			Expect(db.DeleteSession("missing")).To(MatchError(ErrSessionNotFound))
		})
	})

	Describe("NewBoltDB", func() {
		It("should reopen existing sessions", func() {
			Expect(db.SaveSession(session)).To(Succeed())
			Expect(db.Close()).To(Succeed())

			var err error
			db, err = NewBoltDB(filepath.Join(tmpDir, "test.db"))
			Expect(err).NotTo(HaveOccurred())

			got, err := db.GetSession("test-id")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Invoice.Items).To(HaveLen(1))
		})

		It("returns the error for an unusable path", func() {
			_, err := NewBoltDB(filepath.Join(tmpDir, "missing", "dir", "test.db"))
			Expect(err).To(HaveOccurred())
		})
	})
})
