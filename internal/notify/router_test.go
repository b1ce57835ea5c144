package notify

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/calegria/photoclerk/internal/record"
)

// mockChat records chat deliveries.
type mockChat struct {
	texts     []string
	photos    []string // captions
	textErr   error
	photoErr  error
}

func (m *mockChat) SendText(_ context.Context, text string) error {
	if m.textErr != nil {
		return m.textErr
	}
	m.texts = append(m.texts, text)
	return nil
}

func (m *mockChat) SendPhoto(_ context.Context, _ []byte, caption string) error {
	if m.photoErr != nil {
		return m.photoErr
	}
	m.photos = append(m.photos, caption)
	return nil
}

// mockEmail records email deliveries.
type mockEmail struct {
	sent    int
	sendErr error
}

func (m *mockEmail) SendPhoto(_ context.Context, _ []byte, _, _ string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent++
	return nil
}

// mockDB serves canned receipts for the daily-summary lookup.
type mockDB struct {
	receipts []*record.Receipt
}

func (m *mockDB) AppendReceipt(r *record.Receipt) error            { m.receipts = append(m.receipts, r); return nil }
func (m *mockDB) AppendDetection(*record.PersonDetection) error    { return nil }
func (m *mockDB) ReceiptsForDay(time.Time) ([]*record.Receipt, error) { return m.receipts, nil }
func (m *mockDB) ListReceipts() ([]*record.Receipt, error)         { return m.receipts, nil }
func (m *mockDB) Clear() error                                     { m.receipts = nil; return nil }
func (m *mockDB) Close() error                                     { return nil }

var _ = Describe("Router", func() {
	var (
		chat    *mockChat
		email   *mockEmail
		db      *mockDB
		router  *Router
		slept   []time.Duration
		now     time.Time
		ctx     context.Context
		image   []byte
	)

	newRouter := func(maxPhotos int) *Router {
		return NewRouterWithDeps(chat, email, db, "Teo", maxPhotos,
			func() time.Time { return now },
			func(_ context.Context, d time.Duration) { slept = append(slept, d) })
	}

	BeforeEach(func() {
		chat = &mockChat{}
		email = &mockEmail{}
		db = &mockDB{}
		slept = nil
		now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
		ctx = context.Background()
		image = []byte("png-bytes")
		router = newRouter(0)
	})

	receipt := func(store string) *record.Receipt {
		return &record.Receipt{
			ID:         "r-" + store,
			CapturedAt: now,
			Store:      store,
			TotalCents: 1050,
			Items:      []record.Item{{Name: "Milk", Quantity: 1, UnitPriceCents: 1050}},
		}
	}

	Describe("receipt routing", func() {
		It("sends a formatted receipt message and its photo to chat", func() {
			outcome := router.Route(ctx, receipt("STORE A"), nil, image)

			Expect(chat.texts).To(HaveLen(1))
			Expect(chat.texts[0]).To(ContainSubstring("STORE A"))
			Expect(chat.texts[0]).To(ContainSubstring("$10.50"))
			Expect(chat.texts[0]).To(ContainSubstring("Milk"))
			Expect(chat.photos).To(HaveLen(1))
			Expect(outcome.Delivered).To(Equal(2))
			Expect(outcome.Failed).To(BeZero())
		})

		It("skips receipts without items", func() {
			empty := &record.Receipt{ID: "r0", CapturedAt: now}
			outcome := router.Route(ctx, empty, nil, image)

			Expect(chat.texts).To(BeEmpty())
			Expect(outcome.Delivered).To(BeZero())
		})

		When("more than one receipt exists for the day", func() {
			BeforeEach(func() {
				db.receipts = []*record.Receipt{receipt("STORE A"), receipt("STORE B")}
			})

			It("additionally sends a daily summary", func() {
				router.Route(ctx, receipt("STORE A"), nil, image)

				Expect(chat.texts).To(HaveLen(2))
				Expect(chat.texts[1]).To(ContainSubstring("Daily Purchase Summary"))
				Expect(chat.texts[1]).To(ContainSubstring("Total Receipts: 2"))
				Expect(chat.texts[1]).To(ContainSubstring("$21.00"))
			})
		})

		When("only one receipt exists for the day", func() {
			BeforeEach(func() {
				db.receipts = []*record.Receipt{receipt("STORE A")}
			})

			It("sends no summary", func() {
				router.Route(ctx, receipt("STORE A"), nil, image)
				Expect(chat.texts).To(HaveLen(1))
			})
		})
	})

	Describe("person routing", func() {
		matched := &record.PersonDetection{ID: "d1", Matched: true, Confidence: 0.8}

		It("delivers the photo to both email and chat", func() {
			outcome := router.Route(ctx, nil, matched, image)

			Expect(email.sent).To(Equal(1))
			Expect(chat.photos).To(HaveLen(1))
			Expect(chat.photos[0]).To(ContainSubstring("Teo"))
			Expect(outcome.Delivered).To(Equal(2))
		})

		It("still attempts chat when email fails", func() {
			email.sendErr = errors.New("smtp down")
			outcome := router.Route(ctx, nil, matched, image)

			Expect(chat.photos).To(HaveLen(1))
			Expect(outcome.Delivered).To(Equal(1))
			Expect(outcome.Failed).To(Equal(1))
		})

		It("does nothing for an unmatched detection", func() {
			outcome := router.Route(ctx, nil, &record.PersonDetection{ID: "d2"}, image)

			Expect(email.sent).To(BeZero())
			Expect(chat.photos).To(BeEmpty())
			Expect(outcome.Delivered).To(BeZero())
		})
	})

	Describe("SendPhotoBatch", func() {
		fetchOK := func(_ context.Context) ([]byte, error) { return []byte("img"), nil }
		fetchErr := func(_ context.Context) ([]byte, error) { return nil, errors.New("gone") }

		It("paces consecutive deliveries", func() {
			router.SendPhotoBatch(ctx, "caption", []func(context.Context) ([]byte, error){fetchOK, fetchOK, fetchOK})

			Expect(chat.photos).To(HaveLen(3))
			Expect(slept).To(HaveLen(2))
		})

		It("continues past individual failures and reports aggregate counts", func() {
			outcome := router.SendPhotoBatch(ctx, "caption", []func(context.Context) ([]byte, error){fetchOK, fetchErr, fetchOK})

			Expect(outcome.Delivered).To(Equal(2))
			Expect(outcome.Failed).To(Equal(1))
		})

		It("caps the batch at the configured photo limit", func() {
			router = newRouter(2)
			outcome := router.SendPhotoBatch(ctx, "caption", []func(context.Context) ([]byte, error){fetchOK, fetchOK, fetchOK})

			Expect(outcome.Delivered).To(Equal(2))
			Expect(chat.photos).To(HaveLen(2))
		})

		It("stops early when the context is cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			outcome := router.SendPhotoBatch(cancelled, "caption", []func(context.Context) ([]byte, error){fetchOK, fetchOK})

			Expect(outcome.Delivered).To(BeZero())
		})
	})

	Describe("DailySummary", func() {
		It("lists per-store visit counts and top items", func() {
			receipts := []*record.Receipt{
				{Store: "A", TotalCents: 500, Items: []record.Item{{Name: "Milk", Quantity: 2}}},
				{Store: "A", TotalCents: 300, Items: []record.Item{{Name: "Bread", Quantity: 1}}},
				{Store: "B", TotalCents: 200, Items: []record.Item{{Name: "Milk", Quantity: 1}}},
			}
			summary := DailySummary(receipts, now)

			Expect(summary).To(ContainSubstring("A: 2 receipt(s)"))
			Expect(summary).To(ContainSubstring("B: 1 receipt(s)"))
			Expect(summary).To(ContainSubstring("Milk: 3 item(s)"))
			Expect(summary).To(ContainSubstring("Total Spent: $10.00"))
		})

		It("caps the item list at five, ties broken by encounter order", func() {
			items := []record.Item{
				{Name: "i1", Quantity: 1}, {Name: "i2", Quantity: 1}, {Name: "i3", Quantity: 1},
				{Name: "i4", Quantity: 1}, {Name: "i5", Quantity: 1}, {Name: "i6", Quantity: 1},
			}
			summary := DailySummary([]*record.Receipt{{Store: "A", Items: items}}, now)

			Expect(summary).To(ContainSubstring("i5"))
			Expect(summary).NotTo(ContainSubstring("i6"))
		})
	})
})
