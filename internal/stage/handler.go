package stage

import (
	"context"

	"ytproc/internal/queue"
)

// Handler is one step of the processing pipeline. Prepare validates the item
// and records initial progress, Execute performs the work and fills in artifact
// paths, HealthCheck reports whether the stage's external dependencies are
// available.
type Handler interface {
	Prepare(context.Context, *queue.Item) error
	Execute(context.Context, *queue.Item) error
	HealthCheck(context.Context) Health
}
