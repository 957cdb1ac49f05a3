package cleaner

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/pixel-cleanup/internal/cleanup"
	"github.com/ironsheep/pixel-cleanup/internal/morphology"
	"github.com/ironsheep/pixel-cleanup/internal/raster"
	"github.com/ironsheep/pixel-cleanup/internal/worker"
)

// Operation names understood by Registry.
const (
	OpRemoveStrayPixels = "remove-stray-pixels"
	OpReduceColors      = "reduce-colors"
	OpCrispenEdges      = "crispen-edges"
	OpSmoothEdges       = "smooth-edges"
	OpNormalizeLines    = "normalize-lines"
	OpPerfectOutline    = "perfect-outline"
	OpMorphology        = "morphology"
	OpQuantize          = "quantize"
)

// ErrBadPayload is returned when a task payload has the wrong type.
var ErrBadPayload = errors.New("bad payload")

// MorphologyPayload is the payload of OpMorphology.
type MorphologyPayload struct {
	Operation  string           `json:"operation"`
	KernelSize int              `json:"kernel_size"`
	Predicate  raster.Predicate `json:"-"`
}

// QuantizePayload is the payload of OpQuantize, a shortcut for
// reduce-colors in quantize mode.
type QuantizePayload struct {
	NColors int   `json:"n_colors"`
	Seed    int64 `json:"seed,omitempty"`
}

// Registry returns every cleanup operation keyed by operation name.
// Payloads may be the options value, a pointer to it, nil for defaults, or
// its JSON encoding as json.RawMessage.
func Registry() worker.Registry {
	return worker.Registry{
		OpRemoveStrayPixels: func(src *raster.Buffer, payload any, _ raster.ProgressFunc) (*raster.Buffer, error) {
			opts, err := decode[cleanup.StrayOptions](OpRemoveStrayPixels, payload)
			if err != nil {
				return nil, err
			}
			return cleanup.RemoveStrayPixels(src, opts)
		},
		OpReduceColors: func(src *raster.Buffer, payload any, progress raster.ProgressFunc) (*raster.Buffer, error) {
			opts, err := decode[cleanup.ColorOptions](OpReduceColors, payload)
			if err != nil {
				return nil, err
			}
			if opts.Progress == nil {
				opts.Progress = progress
			}
			return cleanup.ReduceColorNoise(src, opts)
		},
		OpCrispenEdges: func(src *raster.Buffer, payload any, _ raster.ProgressFunc) (*raster.Buffer, error) {
			opts, err := decode[cleanup.CrispOptions](OpCrispenEdges, payload)
			if err != nil {
				return nil, err
			}
			return cleanup.CrispenEdges(src, opts)
		},
		OpSmoothEdges: func(src *raster.Buffer, payload any, _ raster.ProgressFunc) (*raster.Buffer, error) {
			opts, err := decode[cleanup.SmoothOptions](OpSmoothEdges, payload)
			if err != nil {
				return nil, err
			}
			return cleanup.SmoothEdges(src, opts)
		},
		OpNormalizeLines: func(src *raster.Buffer, payload any, _ raster.ProgressFunc) (*raster.Buffer, error) {
			opts, err := decode[cleanup.LineOptions](OpNormalizeLines, payload)
			if err != nil {
				return nil, err
			}
			return cleanup.NormalizeLines(src, opts)
		},
		OpPerfectOutline: func(src *raster.Buffer, payload any, _ raster.ProgressFunc) (*raster.Buffer, error) {
			opts, err := decode[cleanup.OutlineOptions](OpPerfectOutline, payload)
			if err != nil {
				return nil, err
			}
			return cleanup.PerfectOutline(src, opts)
		},
		OpMorphology: func(src *raster.Buffer, payload any, _ raster.ProgressFunc) (*raster.Buffer, error) {
			p, err := decode[MorphologyPayload](OpMorphology, payload)
			if err != nil {
				return nil, err
			}
			if p.KernelSize == 0 {
				p.KernelSize = 3
			}
			return morphology.Apply(p.Operation, src, p.KernelSize, raster.OrDefault(p.Predicate))
		},
		OpQuantize: func(src *raster.Buffer, payload any, progress raster.ProgressFunc) (*raster.Buffer, error) {
			p, err := decode[QuantizePayload](OpQuantize, payload)
			if err != nil {
				return nil, err
			}
			return cleanup.ReduceColorNoise(src, cleanup.ColorOptions{
				Mode:     cleanup.ColorQuantize,
				Colors:   p.NColors,
				Seed:     p.Seed,
				Progress: progress,
			})
		},
	}
}

func decode[T any](op string, payload any) (T, error) {
	var v T
	switch p := payload.(type) {
	case nil:
		return v, nil
	case T:
		return p, nil
	case *T:
		if p != nil {
			v = *p
		}
		return v, nil
	case json.RawMessage:
		if err := json.Unmarshal(p, &v); err != nil {
			return v, fmt.Errorf("%w: %s: %v", ErrBadPayload, op, err)
		}
		return v, nil
	default:
		return v, fmt.Errorf("%w: %s does not accept %T", ErrBadPayload, op, payload)
	}
}
