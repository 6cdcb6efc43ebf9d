package storage_test

import (
	"io"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kambejat/undiziwa/internal/storage"
)

func TestStorage(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Storage Suite")
}

var _ = Describe("LocalFileStore", func() {
	var store *storage.LocalFileStore

	BeforeEach(func() {
		var err error
		store, err = storage.NewLocalFileStore(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save and Open", func() {
		It("should round-trip the content", func() {
			ref, err := store.Save("certificate.pdf", strings.NewReader("scanned bytes"))
			Expect(err).NotTo(HaveOccurred())
			Expect(ref).To(ContainSubstring("certificate.pdf"))

			rc, err := store.Open(ref)
			Expect(err).NotTo(HaveOccurred())
			defer rc.Close()

			content, err := io.ReadAll(rc)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal("scanned bytes"))
		})

		It("should issue distinct references for identical names", func() {
			first, err := store.Save("scan.png", strings.NewReader("a"))
			Expect(err).NotTo(HaveOccurred())
			second, err := store.Save("scan.png", strings.NewReader("b"))
			Expect(err).NotTo(HaveOccurred())

			Expect(first).NotTo(Equal(second))
		})

		It("should strip path components from uploaded names", func() {
			ref, err := store.Save("../../etc/passwd", strings.NewReader("x"))
			Expect(err).NotTo(HaveOccurred())

			Expect(ref).NotTo(ContainSubstring(".."))
			Expect(ref).NotTo(ContainSubstring("/"))
			Expect(store.Exists(ref)).To(BeTrue())
		})
	})

	Describe("Open", func() {
		It("should answer a dangling reference with ErrNotFound", func() {
			_, err := store.Open("never-saved.pdf")

			Expect(err).To(MatchError(storage.ErrNotFound))
		})
	})

	Describe("Delete", func() {
		It("should remove the file", func() {
			ref, err := store.Save("scan.png", strings.NewReader("a"))
			Expect(err).NotTo(HaveOccurred())

			Expect(store.Delete(ref)).NotTo(HaveOccurred())
			Expect(store.Exists(ref)).To(BeFalse())
		})

		It("should tolerate a missing file", func() {
			Expect(store.Delete("already-gone.pdf")).NotTo(HaveOccurred())
		})

		It("should tolerate an empty reference", func() {
			Expect(store.Delete("")).NotTo(HaveOccurred())
		})
	})
})
