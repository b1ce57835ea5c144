package photo

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("RemoteSource", func() {
	var (
		server *ghttp.Server
		source *RemoteSource
		ctx    context.Context
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		source = NewRemoteSource(server.URL(), "test-token")
		ctx = context.Background()
	})

	AfterEach(func() {
		server.Close()
	})

	albums := `{"albums": [
		{"id": "a1", "title": "Vacation"},
		{"id": "a2", "title": "Family"}
	]}`

	When("the album exists", func() {
		BeforeEach(func() {
			server.AppendHandlers(
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/albums"),
					ghttp.VerifyHeaderKV("Authorization", "Bearer test-token"),
					ghttp.RespondWith(http.StatusOK, albums),
				),
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("POST", "/mediaItems:search"),
					ghttp.VerifyJSONRepresenting(map[string]interface{}{
						"albumId":  "a2",
						"pageSize": 100,
					}),
					ghttp.RespondWith(http.StatusOK, `{
						"mediaItems": [
							{"id": "m1", "mimeType": "image/jpeg", "baseUrl": "https://cdn.example/m1", "filename": "m1.jpg"},
							{"id": "m2", "mimeType": "video/mp4", "baseUrl": "https://cdn.example/m2", "filename": "m2.mp4"}
						],
						"nextPageToken": "page2"
					}`),
				),
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("POST", "/mediaItems:search"),
					ghttp.VerifyJSONRepresenting(map[string]interface{}{
						"albumId":   "a2",
						"pageSize":  100,
						"pageToken": "page2",
					}),
					ghttp.RespondWith(http.StatusOK, `{
						"mediaItems": [
							{"id": "m3", "mimeType": "image/png", "baseUrl": "https://cdn.example/m3", "filename": "m3.png"}
						]
					}`),
				),
			)
		})

		It("matches the title case-insensitively and pages through the album", func() {
			refs, err := source.Resolve(ctx, AlbumQuery{Album: "family"})
			Expect(err).NotTo(HaveOccurred())
			Expect(refs).To(HaveLen(2))
			Expect(server.ReceivedRequests()).To(HaveLen(3))
		})

		It("keeps only images and returns direct-download URIs", func() {
			refs, err := source.Resolve(ctx, AlbumQuery{Album: "Family"})
			Expect(err).NotTo(HaveOccurred())
			Expect(refs[0].ID).To(Equal("m1"))
			Expect(refs[0].URI).To(Equal("https://cdn.example/m1=d"))
			Expect(refs[1].ID).To(Equal("m3"))
		})
	})

	When("no album title matches", func() {
		BeforeEach(func() {
			server.AppendHandlers(
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/albums"),
					ghttp.RespondWith(http.StatusOK, albums),
				),
			)
		})

		It("fails with ErrAlbumNotFound", func() {
			_, err := source.Resolve(ctx, AlbumQuery{Album: "Missing"})
			Expect(err).To(MatchError(ErrAlbumNotFound))
		})
	})

	When("the backend rejects the request", func() {
		BeforeEach(func() {
			server.AppendHandlers(
				ghttp.RespondWith(http.StatusUnauthorized, ""),
			)
		})

		It("surfaces the failure", func() {
			_, err := source.Resolve(ctx, AlbumQuery{Album: "Family"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Open", func() {
		It("downloads the photo bytes with the bearer token", func() {
			server.AppendHandlers(
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/download"),
					ghttp.VerifyHeaderKV("Authorization", "Bearer test-token"),
					ghttp.RespondWith(http.StatusOK, "image-bytes"),
				),
			)

			data, err := source.Open(ctx, Ref{URI: server.URL() + "/download"})
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("image-bytes")))
		})
	})
})
