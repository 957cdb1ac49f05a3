package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/ironsheep/pixel-cleanup/internal/raster"
)

var (
	// ErrUnknownOperation is returned for a task naming no registered function.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrUnavailable is returned by a transport that cannot accept work.
	ErrUnavailable = errors.New("worker transport unavailable")
)

// Task is one operation call.
type Task struct {
	Operation string
	Input     *raster.Buffer
	// Payload carries the operation's options. Its type is specific to
	// the operation.
	Payload any
}

// Func implements one operation. It must not modify src.
type Func func(src *raster.Buffer, payload any, progress raster.ProgressFunc) (*raster.Buffer, error)

// Registry maps operation names to their implementations.
type Registry map[string]Func

// Lookup returns the function registered for op.
func (r Registry) Lookup(op string) (Func, error) {
	fn, ok := r[op]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
	return fn, nil
}

// OperationError is an error produced by the task itself: a bad payload, a
// missing input or an error returned by its Func. Running the same task on
// another executor would fail the same way.
type OperationError struct {
	Operation string
	Err       error
}

func (e *OperationError) Error() string { return e.Err.Error() }

func (e *OperationError) Unwrap() error { return e.Err }

// IsOperationError reports whether err came from the task rather than from
// the executor running it.
func IsOperationError(err error) bool {
	var opErr *OperationError
	return errors.As(err, &opErr)
}

// Executor runs tasks.
type Executor interface {
	Execute(ctx context.Context, task Task, progress raster.ProgressFunc) (*raster.Buffer, error)
}

// Transport is an executor that runs tasks somewhere other than the
// calling goroutine and may be unavailable.
type Transport interface {
	Executor
	IsAvailable() bool
	Init() error
}

// Local runs tasks synchronously in the calling goroutine.
type Local struct {
	registry Registry
}

// NewLocal returns an executor over registry.
func NewLocal(registry Registry) *Local {
	return &Local{registry: registry}
}

// Execute runs the task to completion. ctx is not consulted.
func (l *Local) Execute(_ context.Context, task Task, progress raster.ProgressFunc) (*raster.Buffer, error) {
	return run(l.registry, task, progress)
}

func run(registry Registry, task Task, progress raster.ProgressFunc) (*raster.Buffer, error) {
	if task.Input == nil {
		return nil, &OperationError{Operation: task.Operation, Err: fmt.Errorf("%s: nil input buffer", task.Operation)}
	}
	fn, err := registry.Lookup(task.Operation)
	if err != nil {
		return nil, &OperationError{Operation: task.Operation, Err: err}
	}
	out, err := fn(task.Input, task.Payload, progress)
	if err != nil {
		return nil, &OperationError{Operation: task.Operation, Err: err}
	}
	return out, nil
}
