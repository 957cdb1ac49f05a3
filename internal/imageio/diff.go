package imageio

import (
	"math"

	"github.com/ironsheep/pixel-cleanup/internal/colormodel"
	"github.com/ironsheep/pixel-cleanup/internal/raster"
)

// DiffResult summarises how far a cleaned buffer moved from its source.
type DiffResult struct {
	TotalPixels   int `json:"total_pixels"`
	ChangedPixels int `json:"changed_pixels"`

	// AlphaChanged counts pixels whose visibility flipped across the
	// alpha >= 128 line.
	AlphaChanged int `json:"alpha_changed"`

	// MeanDeltaE averages the Delta-E of pixels opaque in both buffers.
	MeanDeltaE float64 `json:"mean_delta_e"`

	SimilarityScore float64 `json:"similarity_score"`

	// Bounds covers every changed pixel; nil when nothing changed.
	Bounds *raster.Rect `json:"bounds,omitempty"`
}

// Compare measures the differences between before and after, which must
// have the same dimensions.
func Compare(before, after *raster.Buffer) (*DiffResult, error) {
	if err := before.SameSize(after); err != nil {
		return nil, err
	}

	res := &DiffResult{TotalPixels: before.Len()}
	var sumDeltaE float64
	opaqueBoth := 0

	for y := 0; y < before.Height; y++ {
		for x := 0; x < before.Width; x++ {
			a, b := before.At(x, y), after.At(x, y)
			if a == b {
				continue
			}
			res.ChangedPixels++
			if res.Bounds == nil {
				res.Bounds = &raster.Rect{MinX: x, MinY: y, MaxX: x, MaxY: y}
			} else {
				res.Bounds.MinX = min(res.Bounds.MinX, x)
				res.Bounds.MaxX = max(res.Bounds.MaxX, x)
				res.Bounds.MaxY = y
			}

			aOn, bOn := a.A >= 128, b.A >= 128
			if aOn != bOn {
				res.AlphaChanged++
			}
			if aOn && bOn {
				sumDeltaE += colormodel.DeltaERGB(a, b)
				opaqueBoth++
			}
		}
	}

	if opaqueBoth > 0 {
		res.MeanDeltaE = math.Round(sumDeltaE/float64(opaqueBoth)*100) / 100
	}
	if res.TotalPixels > 0 {
		similarity := 1.0 - float64(res.ChangedPixels)/float64(res.TotalPixels)
		res.SimilarityScore = math.Round(similarity*1000) / 1000
	}
	return res, nil
}
