package photo

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeIndex is an in-memory Index.
type fakeIndex struct {
	entries []IndexEntry
	err     error
}

func (f *fakeIndex) Photos(_ context.Context) ([]IndexEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

var _ = Describe("LocalSource", func() {
	var (
		index  *fakeIndex
		source *LocalSource
		ctx    context.Context
	)

	BeforeEach(func() {
		index = &fakeIndex{}
		source = NewLocalSource(index)
		ctx = context.Background()
	})

	Describe("album matching", func() {
		BeforeEach(func() {
			index.entries = []IndexEntry{
				{Path: "/photos/Family/a.jpg", Bucket: "Family", AddedAt: 100},
				{Path: "/photos/holiday/b.jpg", Bucket: "holiday", AddedAt: 200},
				{Path: "/dcim/family_photos/c.jpg", Bucket: "Camera", AddedAt: 300},
			}
		})

		It("matches the bucket name case-insensitively", func() {
			refs, err := source.Resolve(ctx, AlbumQuery{Album: "family"})
			Expect(err).NotTo(HaveOccurred())
			Expect(refs).To(HaveLen(1))
			Expect(refs[0].URI).To(Equal("/photos/Family/a.jpg"))
		})

		It("matches a path segment with normalized separators", func() {
			refs, err := source.Resolve(ctx, AlbumQuery{Album: "Family Photos"})
			Expect(err).NotTo(HaveOccurred())
			Expect(refs).To(HaveLen(1))
			Expect(refs[0].URI).To(Equal("/dcim/family_photos/c.jpg"))
		})

		It("returns an empty result, not an error, for an unknown album", func() {
			refs, err := source.Resolve(ctx, AlbumQuery{Album: "nope"})
			Expect(err).NotTo(HaveOccurred())
			Expect(refs).To(BeEmpty())
		})
	})

	It("orders results newest first", func() {
		index.entries = []IndexEntry{
			{Path: "/p/Album/old.jpg", Bucket: "Album", AddedAt: 100},
			{Path: "/p/Album/new.jpg", Bucket: "Album", AddedAt: 300},
			{Path: "/p/Album/mid.jpg", Bucket: "Album", AddedAt: 200},
		}
		refs, err := source.Resolve(ctx, AlbumQuery{Album: "Album"})
		Expect(err).NotTo(HaveOccurred())
		Expect([]string{refs[0].Filename, refs[1].Filename, refs[2].Filename}).
			To(Equal([]string{"new.jpg", "mid.jpg", "old.jpg"}))
	})

	Describe("date filtering", func() {
		var (
			day   time.Time
			start int64
			end   int64
		)

		BeforeEach(func() {
			day = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)
			s, e := DayBounds(day)
			start, end = s.Unix(), e.Unix()
		})

		query := func() AlbumQuery {
			return AlbumQuery{Album: "Album", Day: &day}
		}

		It("excludes a photo added one second before the day starts", func() {
			index.entries = []IndexEntry{{Path: "/p/Album/x.jpg", Bucket: "Album", AddedAt: start - 1}}
			refs, err := source.Resolve(ctx, query())
			Expect(err).NotTo(HaveOccurred())
			Expect(refs).To(BeEmpty())
		})

		It("includes a photo added exactly at the start of the day", func() {
			index.entries = []IndexEntry{{Path: "/p/Album/x.jpg", Bucket: "Album", AddedAt: start}}
			refs, err := source.Resolve(ctx, query())
			Expect(err).NotTo(HaveOccurred())
			Expect(refs).To(HaveLen(1))
		})

		It("includes a photo added during the last second of the day", func() {
			index.entries = []IndexEntry{{Path: "/p/Album/x.jpg", Bucket: "Album", AddedAt: end - 1}}
			refs, err := source.Resolve(ctx, query())
			Expect(err).NotTo(HaveOccurred())
			Expect(refs).To(HaveLen(1))
		})

		It("excludes a photo added exactly at the end of the day", func() {
			index.entries = []IndexEntry{{Path: "/p/Album/x.jpg", Bucket: "Album", AddedAt: end}}
			refs, err := source.Resolve(ctx, query())
			Expect(err).NotTo(HaveOccurred())
			Expect(refs).To(BeEmpty())
		})
	})
})

var _ = Describe("Supported", func() {
	It("accepts a declared raster content type", func() {
		Expect(Supported(Ref{ContentType: "image/jpeg"})).To(BeTrue())
	})

	It("rejects a declared video content type", func() {
		Expect(Supported(Ref{ContentType: "video/mp4"})).To(BeFalse())
	})

	It("falls back to the filename extension", func() {
		Expect(Supported(Ref{Filename: "IMG_0001.HEIC"})).To(BeTrue())
		Expect(Supported(Ref{Filename: "notes.txt"})).To(BeFalse())
	})

	It("accepts PDFs", func() {
		Expect(Supported(Ref{ContentType: "application/pdf"})).To(BeTrue())
	})
})
