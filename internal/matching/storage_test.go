package matching

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(filepath.Join(tmpDir, "uploads"))
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		It("should write the file and return its name", func() {
			path, err := storage.Save("session_invoice.pdf", []byte("pdf bytes"))
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal("session_invoice.pdf"))

			data, err := os.ReadFile(filepath.Join(tmpDir, "uploads", "session_invoice.pdf"))
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("pdf bytes")))
		})

		It("should keep files inside the base directory", func() {
			path, err := storage.Save("../../escape.pdf", []byte("x"))
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal("escape.pdf"))
			Expect(filepath.Join(tmpDir, "uploads", "escape.pdf")).To(BeARegularFile())
		})
	})

	Describe("Get", func() {
		It("should return saved data", func() {
			_, err := storage.Save("po.png", []byte("png bytes"))
			Expect(err).NotTo(HaveOccurred())

			data, err := storage.Get("po.png")
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("png bytes")))
		})

		It("returns the error for missing files", func() {
			_, err := storage.Get("missing.png")
			Expect(err).To(MatchError(ContainSubstring("reading document missing.png")))
			Expect(errors.Is(err, fs.ErrNotExist)).To(BeTrue())
		})

		It("should read back a session document by key only", func() {
			key, err := storage.Save("abc_invoice_march.pdf", []byte("pdf bytes"))
			Expect(err).NotTo(HaveOccurred())

			data, err := storage.Get("/elsewhere/" + key)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("pdf bytes")))
		})
	})

	Describe("Delete", func() {
		It("should remove the file", func() {
			_, err := storage.Save("po.png", []byte("png bytes"))
			Expect(err).NotTo(HaveOccurred())

			Expect(storage.Delete("po.png")).To(Succeed())
			Expect(filepath.Join(tmpDir, "uploads", "po.png")).NotTo(BeAnExistingFile())
		})

		It("returns the error for missing files", func() {
			Expect(storage.Delete("missing.png")).NotTo(Succeed())
		})
	})
})
