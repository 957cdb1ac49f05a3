package worker

import (
	"context"
	"log"

	"github.com/ironsheep/pixel-cleanup/internal/raster"
)

// Fallback prefers a Transport for large inputs and falls back to a Local
// executor when the transport is missing, unavailable or fails. An
// OperationError from the transport is the task's own result and is
// returned as is.
type Fallback struct {
	transport Transport
	local     *Local

	// MinPixels is the smallest input, in pixels, sent to the transport.
	// Smaller inputs always run locally.
	MinPixels int
}

// NewFallback combines transport and local. transport may be nil.
func NewFallback(transport Transport, local *Local, minPixels int) *Fallback {
	return &Fallback{transport: transport, local: local, MinPixels: minPixels}
}

// Execute runs task on the transport when it qualifies and otherwise, or
// after a transport failure, on the local executor. A transport failure is
// logged and never returned; errors raised by the task are returned
// without a local retry. If ctx is already done after the transport
// returns, its error is returned instead of running locally.
func (f *Fallback) Execute(ctx context.Context, task Task, progress raster.ProgressFunc) (*raster.Buffer, error) {
	if f.offload(task) {
		out, err := f.transport.Execute(ctx, task, progress)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if IsOperationError(err) {
			return nil, err
		}
		log.Printf("Warning: worker execution of %s failed, running locally: %v", task.Operation, err)
	}
	return f.local.Execute(ctx, task, progress)
}

func (f *Fallback) offload(task Task) bool {
	if f.transport == nil || task.Input == nil {
		return false
	}
	if task.Input.Len() < f.MinPixels {
		return false
	}
	return f.transport.IsAvailable()
}
