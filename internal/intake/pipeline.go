package intake

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/calegria/photoclerk/internal/analysis"
	"github.com/calegria/photoclerk/internal/notify"
	"github.com/calegria/photoclerk/internal/photo"
	"github.com/calegria/photoclerk/internal/record"
	"github.com/calegria/photoclerk/internal/vision"
)

// Status is the terminal state of one batch run.
type Status string

const (
	// StatusSucceeded: every processed photo completed without internal
	// error.
	StatusSucceeded Status = "succeeded"
	// StatusPartiallyFailed: some photos completed, others errored.
	StatusPartiallyFailed Status = "partially_failed"
	// StatusFailed: no photo was processed.
	StatusFailed Status = "failed"
)

// progressEvery is how often (in completed photos) a long batch reports
// progress.
const progressEvery = 10

// BatchResult accumulates the counters of one pipeline run. It is owned
// exclusively by that run.
type BatchResult struct {
	Processed        int
	Skipped          int
	Failed           int
	Receipts         int
	PersonMatches    int
	Delivered        int
	DeliveryFailures int
	Status           Status
}

// Summary renders the human-readable final status of the batch.
func (r *BatchResult) Summary() string {
	switch r.Status {
	case StatusSucceeded:
		return fmt.Sprintf("Processed %d photo(s): %d receipt(s), %d person match(es), %d delivered (%d delivery failures)",
			r.Processed, r.Receipts, r.PersonMatches, r.Delivered, r.DeliveryFailures)
	case StatusPartiallyFailed:
		return fmt.Sprintf("Processed %d photo(s) with %d failure(s): %d receipt(s), %d person match(es), %d delivered",
			r.Processed, r.Failed, r.Receipts, r.PersonMatches, r.Delivered)
	default:
		return fmt.Sprintf("No photos processed (%d skipped, %d failed)", r.Skipped, r.Failed)
	}
}

// IDGenerator generates unique IDs for receipts and detections.
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time.
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Pipeline drives per-photo intake: load, classify, extract, match,
// record, route. Photos within a batch are independent and processed by
// a bounded pool of workers; one photo's failure never aborts the batch.
type Pipeline struct {
	source     photo.Source
	engine     vision.Engine
	classifier *analysis.Classifier
	extractor  *analysis.Extractor
	matcher    *analysis.PersonMatcher
	db         record.DB
	archive    record.Archive
	router     *notify.Router
	workers    int
	idGen      IDGenerator
	timeSource TimeSource
}

// NewPipeline creates a Pipeline with UUID IDs and wall-clock time.
func NewPipeline(source photo.Source, engine vision.Engine, db record.DB, archive record.Archive, router *notify.Router, workers int) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		source:     source,
		engine:     engine,
		classifier: analysis.NewClassifier(),
		extractor:  analysis.NewExtractor(),
		matcher:    analysis.NewPersonMatcher(),
		db:         db,
		archive:    archive,
		router:     router,
		workers:    workers,
		idGen:      &uuidGenerator{},
		timeSource: &defaultTimeSource{},
	}
}

// NewPipelineWithDeps creates a Pipeline with custom ID and time sources
// for testing.
func NewPipelineWithDeps(source photo.Source, engine vision.Engine, db record.DB, archive record.Archive, router *notify.Router, workers int,
	idGen IDGenerator, timeSource TimeSource) *Pipeline {
	p := NewPipeline(source, engine, db, archive, router, workers)
	p.idGen = idGen
	p.timeSource = timeSource
	return p
}

type itemKind int

const (
	itemOK itemKind = iota
	itemSkipped
	itemFailed
)

type itemResult struct {
	kind    itemKind
	receipt bool
	matched bool
	outcome notify.Outcome
}

// Run processes a batch of photos and returns its accumulated result.
// A single photo is the one-element case. Cancelling ctx stops the batch:
// in-flight photos finish, unstarted ones are recorded as failures, and
// already-recorded results are kept.
func (p *Pipeline) Run(ctx context.Context, photos []photo.Ref) *BatchResult {
	result := &BatchResult{}

	results := make(chan itemResult, len(photos))
	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup

	for _, ref := range photos {
		wg.Add(1)
		go func(ref photo.Ref) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				slog.Warn("Photo not processed, batch cancelled", "photo", ref.ID)
				results <- itemResult{kind: itemFailed}
				return
			}
			results <- p.processOne(ctx, ref)
		}(ref)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for item := range results {
		completed++
		switch item.kind {
		case itemOK:
			result.Processed++
		case itemSkipped:
			result.Skipped++
		case itemFailed:
			result.Failed++
		}
		if item.receipt {
			result.Receipts++
		}
		if item.matched {
			result.PersonMatches++
		}
		result.Delivered += item.outcome.Delivered
		result.DeliveryFailures += item.outcome.Failed

		if completed%progressEvery == 0 {
			slog.Info("Batch progress", "completed", completed, "total", len(photos))
		}
	}

	switch {
	case result.Processed == 0:
		result.Status = StatusFailed
	case result.Failed > 0:
		result.Status = StatusPartiallyFailed
	default:
		result.Status = StatusSucceeded
	}

	slog.Info("Batch finished", "status", result.Status, "processed", result.Processed,
		"skipped", result.Skipped, "failed", result.Failed)
	return result
}

// processOne handles a single photo. Collaborator errors (load, OCR,
// face detection) degrade to "no signal" for that photo; only internal
// errors and panics mark the item failed.
func (p *Pipeline) processOne(ctx context.Context, ref photo.Ref) (item itemResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic while processing photo", "photo", ref.ID, "panic", r)
			item = itemResult{kind: itemFailed}
		}
	}()

	if !photo.Supported(ref) {
		slog.Info("Skipping unsupported photo", "photo", ref.ID, "content_type", ref.ContentType)
		return itemResult{kind: itemSkipped}
	}

	image := p.loadImage(ctx, ref)

	text := ""
	faces := 0
	if image != nil {
		var err error
		text, err = p.engine.RecognizeText(ctx, image)
		if err != nil {
			slog.Warn("Text recognition failed", "photo", ref.ID, "error", err)
			text = ""
		}
		faces, err = p.engine.CountFaces(ctx, image)
		if err != nil {
			slog.Warn("Face counting failed", "photo", ref.ID, "error", err)
			faces = 0
		}
	}

	now := p.timeSource.Now()
	capturedAt := ref.AddedAt
	if capturedAt.IsZero() {
		capturedAt = now
	}

	var receipt *record.Receipt
	if p.classifier.IsReceipt(text) {
		receipt = p.buildReceipt(ref, text, capturedAt, now)
		p.archiveImage(receipt, ref, image)
		if err := p.db.AppendReceipt(receipt); err != nil {
			slog.Error("Recording receipt", "photo", ref.ID, "error", err)
			return itemResult{kind: itemFailed}
		}
	}

	signal := p.matcher.Match(faces)
	detection := &record.PersonDetection{
		ID:         p.idGen.Generate(),
		PhotoID:    ref.ID,
		CapturedAt: capturedAt,
		Matched:    signal.Matched,
		Confidence: signal.Confidence,
		CreatedAt:  now,
	}
	if err := p.db.AppendDetection(detection); err != nil {
		slog.Error("Recording detection", "photo", ref.ID, "error", err)
		return itemResult{kind: itemFailed}
	}

	outcome := p.router.Route(ctx, receipt, detection, image)

	return itemResult{
		kind:    itemOK,
		receipt: receipt != nil,
		matched: detection.Matched,
		outcome: outcome,
	}
}

// loadImage fetches and normalizes the photo to PNG. Any failure is
// absorbed: the photo is still processed, just without signals.
func (p *Pipeline) loadImage(ctx context.Context, ref photo.Ref) []byte {
	data, err := p.source.Open(ctx, ref)
	if err != nil {
		slog.Warn("Loading photo failed", "photo", ref.ID, "error", err)
		return nil
	}
	image, err := photo.ToPNG(data, ref.ContentType)
	if err != nil {
		slog.Warn("Converting photo failed", "photo", ref.ID, "error", err)
		return nil
	}
	return image
}

func (p *Pipeline) buildReceipt(ref photo.Ref, text string, capturedAt, now time.Time) *record.Receipt {
	data := p.extractor.Extract(text)

	items := make([]record.Item, 0, len(data.Items))
	for _, item := range data.Items {
		items = append(items, record.Item{
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: record.Cents(item.UnitPrice),
		})
	}

	return &record.Receipt{
		ID:         p.idGen.Generate(),
		PhotoID:    ref.ID,
		CapturedAt: capturedAt,
		Items:      items,
		TotalCents: record.Cents(data.Total),
		Store:      data.Store,
		Date:       data.Date,
		CreatedAt:  now,
	}
}

// archiveImage keeps a copy of the accepted receipt photo. Archive
// failures are logged, not fatal; the receipt record survives without
// its image.
func (p *Pipeline) archiveImage(receipt *record.Receipt, ref photo.Ref, image []byte) {
	if p.archive == nil || image == nil {
		return
	}
	name := ref.Filename
	if name == "" {
		name = "receipt.png"
	}
	path, err := p.archive.Save(fmt.Sprintf("%s_%s", receipt.ID, name), image)
	if err != nil {
		slog.Warn("Archiving receipt image", "photo", ref.ID, "error", err)
		return
	}
	receipt.ArchivePath = path
}
