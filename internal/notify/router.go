package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/calegria/photoclerk/internal/record"
)

// defaultPace is the delay inserted between consecutive deliveries in a
// batch send, to stay under destination rate limits.
const defaultPace = 500 * time.Millisecond

// Outcome counts the delivery attempts of one routing call.
type Outcome struct {
	Delivered int
	Failed    int
}

func (o *Outcome) add(err error, destination, kind string) {
	if err != nil {
		slog.Warn("Delivery failed", "destination", destination, "kind", kind, "error", err)
		o.Failed++
		return
	}
	o.Delivered++
}

// Merge folds another outcome into this one.
func (o *Outcome) Merge(other Outcome) {
	o.Delivered += other.Delivered
	o.Failed += other.Failed
}

// Router decides which messages and photos go to which destination.
// Deliveries are independent: one destination failing never suppresses
// the attempt at another. Failures are counted, never returned as errors.
type Router struct {
	chat       ChatSender
	email      EmailSender
	db         record.DB
	personName string
	pace       time.Duration
	maxPhotos  int
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration)
}

// NewRouter creates a Router with wall-clock time and real pacing.
func NewRouter(chat ChatSender, email EmailSender, db record.DB, personName string, maxPhotos int) *Router {
	return &Router{
		chat:       chat,
		email:      email,
		db:         db,
		personName: personName,
		pace:       defaultPace,
		maxPhotos:  maxPhotos,
		now:        time.Now,
		sleep:      sleepContext,
	}
}

// NewRouterWithDeps creates a Router with injected time and sleep for
// tests.
func NewRouterWithDeps(chat ChatSender, email EmailSender, db record.DB, personName string, maxPhotos int,
	now func() time.Time, sleep func(ctx context.Context, d time.Duration)) *Router {
	r := NewRouter(chat, email, db, personName, maxPhotos)
	r.now = now
	r.sleep = sleep
	return r
}

func sleepContext(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// Route delivers the results of one processed photo. Either argument may
// be nil when the photo produced no such result.
func (r *Router) Route(ctx context.Context, receipt *record.Receipt, detection *record.PersonDetection, image []byte) Outcome {
	var outcome Outcome

	if receipt != nil && len(receipt.Items) > 0 {
		outcome.add(r.chat.SendText(ctx, receiptMessage(receipt)), "chat", "receipt")
		if len(image) > 0 {
			outcome.add(r.chat.SendPhoto(ctx, image, "Receipt image"), "chat", "receipt-photo")
		}

		today, err := r.db.ReceiptsForDay(r.now())
		if err != nil {
			slog.Warn("Loading receipts for daily summary", "error", err)
		} else if len(today) > 1 {
			outcome.add(r.chat.SendText(ctx, DailySummary(today, r.now())), "chat", "daily-summary")
		}
	}

	if detection != nil && detection.Matched {
		caption := fmt.Sprintf("New photo of %s", r.personName)
		outcome.add(r.email.SendPhoto(ctx, image, "photo.png", caption), "email", "person-photo")
		outcome.add(r.chat.SendPhoto(ctx, image, caption), "chat", "person-photo")
	}

	return outcome
}

// SendPhotoBatch delivers a sequence of photos to the chat destination
// with a pacing delay between consecutive calls. Individual failures do
// not stop the batch. A positive maxPhotos caps how many are attempted.
func (r *Router) SendPhotoBatch(ctx context.Context, caption string, photos []func(ctx context.Context) ([]byte, error)) Outcome {
	var outcome Outcome

	if r.maxPhotos > 0 && len(photos) > r.maxPhotos {
		slog.Info("Capping photo batch", "requested", len(photos), "cap", r.maxPhotos)
		photos = photos[:r.maxPhotos]
	}

	for i, fetch := range photos {
		if ctx.Err() != nil {
			slog.Info("Photo batch cancelled", "sent", outcome.Delivered, "failed", outcome.Failed)
			break
		}
		if i > 0 {
			r.sleep(ctx, r.pace)
		}

		image, err := fetch(ctx)
		if err != nil {
			outcome.add(err, "chat", "batch-photo")
			continue
		}
		outcome.add(r.chat.SendPhoto(ctx, image, caption), "chat", "batch-photo")
	}

	return outcome
}

// receiptMessage formats a single receipt for the chat destination.
func receiptMessage(receipt *record.Receipt) string {
	var items strings.Builder
	for _, item := range receipt.Items {
		fmt.Fprintf(&items, "• %s: $%.2f\n", item.Name, record.Dollars(item.UnitPriceCents))
	}

	store := receipt.Store
	if store == "" {
		store = "Unknown Store"
	}
	date := receipt.Date
	if date == "" {
		date = receipt.CapturedAt.UTC().Format("Jan 02, 2006 15:04")
	}

	return fmt.Sprintf(
		"🧾 <b>New Receipt Detected!</b>\n\n"+
			"🏪 <b>Store:</b> %s\n"+
			"📅 <b>Date:</b> %s\n"+
			"💰 <b>Total:</b> $%.2f\n\n"+
			"📋 <b>Items (%d):</b>\n%s",
		store, date, record.Dollars(receipt.TotalCents), len(receipt.Items), items.String())
}

// DailySummary formats the daily summary: receipt count, total spent,
// per-store visit counts and the top five items by aggregate quantity.
// Ordering ties are broken by encounter order.
func DailySummary(receipts []*record.Receipt, now time.Time) string {
	totalCents := 0
	storeOrder := make([]string, 0)
	storeCounts := make(map[string]int)
	itemOrder := make([]string, 0)
	itemCounts := make(map[string]int)

	for _, receipt := range receipts {
		totalCents += receipt.TotalCents

		store := receipt.Store
		if store == "" {
			store = "Unknown Store"
		}
		if _, ok := storeCounts[store]; !ok {
			storeOrder = append(storeOrder, store)
		}
		storeCounts[store]++

		for _, item := range receipt.Items {
			if _, ok := itemCounts[item.Name]; !ok {
				itemOrder = append(itemOrder, item.Name)
			}
			itemCounts[item.Name] += item.Quantity
		}
	}

	sort.SliceStable(itemOrder, func(i, j int) bool {
		return itemCounts[itemOrder[i]] > itemCounts[itemOrder[j]]
	})
	if len(itemOrder) > 5 {
		itemOrder = itemOrder[:5]
	}

	var stores strings.Builder
	for _, store := range storeOrder {
		fmt.Fprintf(&stores, "• %s: %d receipt(s)\n", store, storeCounts[store])
	}
	var items strings.Builder
	for _, name := range itemOrder {
		fmt.Fprintf(&items, "• %s: %d item(s)\n", name, itemCounts[name])
	}

	return fmt.Sprintf(
		"📊 <b>Daily Purchase Summary - %s</b>\n\n"+
			"📋 <b>Overview:</b>\n"+
			"• Total Receipts: %d\n"+
			"• Total Spent: $%.2f\n\n"+
			"🏪 <b>Stores Visited:</b>\n%s\n"+
			"🛒 <b>Top Items:</b>\n%s",
		now.UTC().Format("Jan 02, 2006"), len(receipts), record.Dollars(totalCents),
		stores.String(), items.String())
}
