package spider

import (
	"context"

	"github.com/nao1215/webspider/internal/model"
)

// Recorder receives exactly one Resource per completed task, success or
// failure. The database package provides the persistent implementation;
// reports are built from what the recorder collected.
//
// Record runs on the worker that finished the task, so implementations
// should return quickly or buffer internally. A Record error is logged
// and never fails the task.
type Recorder interface {
	Record(ctx context.Context, runID string, res *model.Resource) error
}

// NopRecorder discards every resource. It is the default when no
// persistence is configured.
type NopRecorder struct{}

// Record implements Recorder by doing nothing.
func (NopRecorder) Record(context.Context, string, *model.Resource) error {
	return nil
}
