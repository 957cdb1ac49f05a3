package cleaner

import (
	"context"
	"errors"
	"fmt"

	"github.com/ironsheep/pixel-cleanup/internal/cleanup"
	"github.com/ironsheep/pixel-cleanup/internal/raster"
	"github.com/ironsheep/pixel-cleanup/internal/worker"
)

// Stage names a pipeline step.
type Stage string

// Pipeline stages in execution order.
const (
	StageStrayPixels Stage = "stray-pixels"
	StageColors      Stage = "colors"
	StageEdges       Stage = "edges"
	StageSmoothing   Stage = "smoothing"
	StageOutline     Stage = "outline"
)

// ErrUnknownStage is returned when Skip names a stage that does not exist.
var ErrUnknownStage = errors.New("unknown stage")

// Options selects a preset and per-stage overrides.
type Options struct {
	Preset Preset `json:"preset,omitempty"`

	StrayPixels *cleanup.StrayOptions   `json:"stray_pixels,omitempty"`
	Colors      *cleanup.ColorOptions   `json:"colors,omitempty"`
	Edges       *cleanup.CrispOptions   `json:"edges,omitempty"`
	Smoothing   *cleanup.SmoothOptions  `json:"smoothing,omitempty"`
	Outline     *cleanup.OutlineOptions `json:"outline,omitempty"`

	// Skip disables stages even when the preset enables them.
	Skip []Stage `json:"skip,omitempty"`

	// Progress receives overall pipeline progress. Optional.
	Progress raster.ProgressFunc `json:"-"`
}

// StageError reports the pipeline stage that failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Cleaner runs the pipeline through an executor.
type Cleaner struct {
	exec worker.Executor
}

// New returns a Cleaner using exec. A nil exec runs every stage in the
// calling goroutine.
func New(exec worker.Executor) *Cleaner {
	if exec == nil {
		exec = worker.NewLocal(Registry())
	}
	return &Cleaner{exec: exec}
}

// CleanLogo runs the pipeline in the calling goroutine.
func CleanLogo(src *raster.Buffer, opts Options) (*raster.Buffer, error) {
	return New(nil).Clean(context.Background(), src, opts)
}

type plannedStage struct {
	stage     Stage
	operation string
	payload   any
}

// Plan resolves opts into the stages that will run, in order.
func Plan(opts Options) ([]Stage, error) {
	planned, err := plan(opts)
	if err != nil {
		return nil, err
	}
	stages := make([]Stage, len(planned))
	for i, p := range planned {
		stages[i] = p.stage
	}
	return stages, nil
}

func plan(opts Options) ([]plannedStage, error) {
	base, err := lookupPreset(opts.Preset)
	if err != nil {
		return nil, err
	}

	if opts.StrayPixels != nil {
		base.strays = opts.StrayPixels
	}
	if opts.Colors != nil {
		base.colors = opts.Colors
	}
	if opts.Edges != nil {
		base.edges = opts.Edges
	}
	if opts.Smoothing != nil {
		base.smoothing = opts.Smoothing
	}
	if opts.Outline != nil {
		base.outline = opts.Outline
	}

	all := []plannedStage{
		{StageStrayPixels, OpRemoveStrayPixels, base.strays},
		{StageColors, OpReduceColors, base.colors},
		{StageEdges, OpCrispenEdges, base.edges},
		{StageSmoothing, OpSmoothEdges, base.smoothing},
		{StageOutline, OpPerfectOutline, base.outline},
	}

	skip := make(map[Stage]bool, len(opts.Skip))
	for _, s := range opts.Skip {
		if !isStage(s, all) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStage, s)
		}
		skip[s] = true
	}
	stages := make([]plannedStage, 0, len(all))
	for _, p := range all {
		if skip[p.stage] || isNil(p.payload) {
			continue
		}
		stages = append(stages, p)
	}
	return stages, nil
}

func isStage(s Stage, all []plannedStage) bool {
	for _, p := range all {
		if p.stage == s {
			return true
		}
	}
	return false
}

// isNil reports whether a typed options pointer stored in an interface is nil.
func isNil(v any) bool {
	switch o := v.(type) {
	case *cleanup.StrayOptions:
		return o == nil
	case *cleanup.ColorOptions:
		return o == nil
	case *cleanup.CrispOptions:
		return o == nil
	case *cleanup.SmoothOptions:
		return o == nil
	case *cleanup.OutlineOptions:
		return o == nil
	}
	return v == nil
}

func (s stageOptions) enabled() []Stage {
	stages := make([]Stage, 0, 5)
	if s.strays != nil {
		stages = append(stages, StageStrayPixels)
	}
	if s.colors != nil {
		stages = append(stages, StageColors)
	}
	if s.edges != nil {
		stages = append(stages, StageEdges)
	}
	if s.smoothing != nil {
		stages = append(stages, StageSmoothing)
	}
	if s.outline != nil {
		stages = append(stages, StageOutline)
	}
	return stages
}

// Clean runs the resolved stages over src and returns the final buffer.
// src is never modified. If no stage is enabled the result is a copy of src.
func (c *Cleaner) Clean(ctx context.Context, src *raster.Buffer, opts Options) (*raster.Buffer, error) {
	stages, err := plan(opts)
	if err != nil {
		return nil, err
	}

	out := src.Clone()
	n := float64(len(stages))
	for i, st := range stages {
		done := float64(i)
		progress := func(percent float64, label string) {
			opts.Progress.Report((done+percent/100)/n*100, string(st.stage)+": "+label)
		}
		opts.Progress.Report(done/n*100, string(st.stage))

		next, err := c.exec.Execute(ctx, worker.Task{
			Operation: st.operation,
			Input:     out,
			Payload:   st.payload,
		}, progress)
		if err != nil {
			return nil, &StageError{Stage: st.stage, Err: err}
		}
		out = next
	}
	opts.Progress.Report(100, "done")
	return out, nil
}
