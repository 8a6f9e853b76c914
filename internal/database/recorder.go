package database

import (
	"context"

	"github.com/nao1215/webspider/internal/model"
)

// Recorder persists resource events into the CrawlDB.
// It satisfies the spider package's Recorder interface, wiring the
// crawl engine to storage without either package importing the other's
// internals.
type Recorder struct {
	db *CrawlDB
}

// NewRecorder creates a Recorder backed by the given database.
func NewRecorder(db *CrawlDB) *Recorder {
	return &Recorder{db: db}
}

// Record stores one resource event.
func (r *Recorder) Record(ctx context.Context, runID string, res *model.Resource) error {
	_, err := r.db.InsertResource(ctx, runID, res)
	return err
}
