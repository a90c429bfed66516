package importer

import (
	"log/slog"

	"github.com/spideyz0r/hx/pkg/history"
)

// DefaultBatchSize is the number of records buffered before a flush
const DefaultBatchSize = 1000

// BulkSaver persists a batch of records atomically
type BulkSaver interface {
	SaveBulk(hs []*history.History) ([]int64, error)
}

// BatchLoader is a Loader that buffers records and saves them in batches
type BatchLoader struct {
	saver    BulkSaver
	capacity int
	buffer   []*history.History
	count    int
}

// NewBatchLoader creates a loader flushing every capacity records. A
// capacity below one uses DefaultBatchSize.
func NewBatchLoader(saver BulkSaver, capacity int) *BatchLoader {
	if capacity < 1 {
		capacity = DefaultBatchSize
	}

	return &BatchLoader{
		saver:    saver,
		capacity: capacity,
		buffer:   make([]*history.History, 0, capacity),
	}
}

// Push buffers h and flushes once the buffer is full
func (l *BatchLoader) Push(h *history.History) error {
	l.buffer = append(l.buffer, h)
	if len(l.buffer) >= l.capacity {
		return l.Flush()
	}
	return nil
}

// Flush saves the buffered records. On failure the batch is dropped and a
// *LoadError is returned.
func (l *BatchLoader) Flush() error {
	if len(l.buffer) == 0 {
		return nil
	}

	ids, err := l.saver.SaveBulk(l.buffer)
	l.buffer = make([]*history.History, 0, l.capacity)
	if err != nil {
		slog.Error("failed to save import batch", "error", err)
		return &LoadError{Err: err}
	}

	l.count += len(ids)
	slog.Debug("saved import batch", "records", len(ids), "total", l.count)
	return nil
}

// Count returns the number of records persisted so far
func (l *BatchLoader) Count() int {
	return l.count
}

// Pending returns the number of buffered, unsaved records
func (l *BatchLoader) Pending() int {
	return len(l.buffer)
}
