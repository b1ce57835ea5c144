package record

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	receiptBucket   = "receipts"
	detectionBucket = "detections"
)

// DB is the repository the intake pipeline appends results to. Appends
// must tolerate concurrent callers.
type DB interface {
	// AppendReceipt stores a receipt.
	AppendReceipt(receipt *Receipt) error

	// AppendDetection stores a person-detection verdict.
	AppendDetection(detection *PersonDetection) error

	// ReceiptsForDay returns the receipts captured on the UTC calendar
	// day of t.
	ReceiptsForDay(t time.Time) ([]*Receipt, error)

	// ListReceipts returns all receipts.
	ListReceipts() ([]*Receipt, error)

	// Clear removes all stored receipts and detections.
	Clear() error

	// Close closes the database.
	Close() error
}

// BoltDB implements DB on a bbolt file.
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB opens (or creates) the database at path.
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(receiptBucket)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(detectionBucket)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// AppendReceipt stores a receipt keyed by its ID.
func (b *BoltDB) AppendReceipt(receipt *Receipt) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(receipt)
		if err != nil {
			return fmt.Errorf("marshaling receipt: %w", err)
		}
		return tx.Bucket([]byte(receiptBucket)).Put([]byte(receipt.ID), data)
	})
}

// AppendDetection stores a detection keyed by its ID.
func (b *BoltDB) AppendDetection(detection *PersonDetection) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(detection)
		if err != nil {
			return fmt.Errorf("marshaling detection: %w", err)
		}
		return tx.Bucket([]byte(detectionBucket)).Put([]byte(detection.ID), data)
	})
}

// ReceiptsForDay returns receipts whose capture time falls on the UTC
// calendar day of t.
func (b *BoltDB) ReceiptsForDay(t time.Time) ([]*Receipt, error) {
	all, err := b.ListReceipts()
	if err != nil {
		return nil, err
	}
	day := t.UTC().Format("2006-01-02")
	receipts := make([]*Receipt, 0)
	for _, receipt := range all {
		if receipt.CapturedAt.UTC().Format("2006-01-02") == day {
			receipts = append(receipts, receipt)
		}
	}
	return receipts, nil
}

// ListReceipts returns all receipts.
func (b *BoltDB) ListReceipts() ([]*Receipt, error) {
	receipts := make([]*Receipt, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(receiptBucket)).ForEach(func(k, v []byte) error {
			var receipt Receipt
			if err := json.Unmarshal(v, &receipt); err != nil {
				return fmt.Errorf("unmarshaling receipt: %w", err)
			}
			receipts = append(receipts, &receipt)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return receipts, nil
}

// Clear drops and recreates both buckets.
func (b *BoltDB) Clear() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{receiptBucket, detectionBucket} {
			if err := tx.DeleteBucket([]byte(name)); err != nil {
				return fmt.Errorf("dropping bucket %s: %w", name, err)
			}
			if _, err := tx.CreateBucket([]byte(name)); err != nil {
				return fmt.Errorf("recreating bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

// Close closes the database.
func (b *BoltDB) Close() error {
	return b.db.Close()
}
