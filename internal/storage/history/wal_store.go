// Package history keeps an append-only audit log of DCA runs. It is never read back to
// decide what to trade.
package history

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/krakendca/internal/domain"
)

const (
	defaultHistoryDir = "./wal/history"
	segmentLimit      = 1000
	maxSegments       = 100
	keyPrefix         = "dca_run_"
)

// RecordType what a record describes.
type RecordType string

const (
	RecordOrder   RecordType = "order"
	RecordBalance RecordType = "balance"
)

// Record one entry of the run history.
type Record struct {
	RunID    string                  `json:"run_id"`
	Time     time.Time               `json:"time"`
	Type     RecordType              `json:"type"`
	Result   *domain.OrderResult     `json:"result,omitempty"`
	Snapshot *domain.BalanceSnapshot `json:"snapshot,omitempty"`
}

// NewOrderRecord wraps a strategy outcome.
func NewOrderRecord(runID string, at time.Time, r domain.OrderResult) Record {
	return Record{RunID: runID, Time: at, Type: RecordOrder, Result: &r}
}

// NewBalanceRecord wraps a balance gate snapshot.
func NewBalanceRecord(runID string, s domain.BalanceSnapshot) Record {
	return Record{RunID: runID, Time: s.Timestamp, Type: RecordBalance, Snapshot: &s}
}

// IndexedRecord record with its WAL index.
type IndexedRecord struct {
	Index  uint64
	Record Record
}

// WALStore persists run records in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore opens (or creates) the history under dir.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultHistoryDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "history_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init run history WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save appends rec. RunID and Type are required.
func (s *WALStore) Save(rec Record) error {
	if s == nil || s.wal == nil {
		return errors.New("run history store is not initialized")
	}
	if rec.RunID == "" {
		return fmt.Errorf("run history record run id is required")
	}
	if rec.Type == "" {
		return fmt.Errorf("run history record type is required")
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal run history record")
	}

	key := fmt.Sprintf("%s%s_%s", keyPrefix, rec.RunID, rec.Type)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// RecordsAfter returns all records written after the provided WAL index.
func (s *WALStore) RecordsAfter(index uint64) ([]IndexedRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("run history store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]IndexedRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, ok := s.wal.Get(idx)
		if !ok || !strings.HasPrefix(key, keyPrefix) {
			continue
		}
		var rec Record
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, errors.Wrap(err, "decode run history record")
		}
		records = append(records, IndexedRecord{Index: idx, Record: rec})
	}

	return records, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("run history store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}

// Dump writes every record after index to w, one JSON object per line, and returns how
// many were written.
func (s *WALStore) Dump(w io.Writer, index uint64) (int, error) {
	records, err := s.RecordsAfter(index)
	if err != nil {
		return 0, err
	}

	enc := json.NewEncoder(w)
	for _, r := range records {
		line := struct {
			Index uint64 `json:"index"`
			Record
		}{Index: r.Index, Record: r.Record}
		if err := enc.Encode(line); err != nil {
			return 0, errors.Wrap(err, "write run history record")
		}
	}
	return len(records), nil
}

// Discard is used when history is disabled.
type Discard struct{}

// Save drops rec.
func (Discard) Save(Record) error { return nil }
