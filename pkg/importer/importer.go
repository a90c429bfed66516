// Package importer reads existing shell history files into the store.
package importer

import (
	"errors"
	"fmt"

	"github.com/spideyz0r/hx/pkg/history"
)

// ErrNoHistoryFile is returned when no history file can be located
var ErrNoHistoryFile = errors.New("no history file found")

// Loader receives imported records
type Loader interface {
	Push(h *history.History) error
}

// Importer parses one history source and hands every command to a Loader
type Importer interface {
	Name() string
	Load(loader Loader) error
}

// LoadError reports that imported records could not be persisted. It aborts
// the import.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to persist imported history: %v", e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Run loads every record from imp into saver in batches of batchSize and
// returns the number of persisted records. Batches committed before a
// failure stay committed.
func Run(imp Importer, saver BulkSaver, batchSize int) (int, error) {
	loader := NewBatchLoader(saver, batchSize)

	if err := imp.Load(loader); err != nil {
		return loader.Count(), fmt.Errorf("failed to import %s history: %w", imp.Name(), err)
	}

	if err := loader.Flush(); err != nil {
		return loader.Count(), fmt.Errorf("failed to import %s history: %w", imp.Name(), err)
	}

	return loader.Count(), nil
}
