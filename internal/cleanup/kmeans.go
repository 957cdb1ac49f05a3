package cleanup

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/pixel-cleanup/internal/colormodel"
	"github.com/ironsheep/pixel-cleanup/internal/raster"
)

// convergenceDeltaE stops k-means once the mean centroid shift drops below it.
const convergenceDeltaE = 0.5

// quantize reduces the opaque colours of src to at most opts.Colors
// clusters using k-means in L*a*b*.
//
// Clustering runs over the unique opaque colours weighted by their pixel
// counts, which is equivalent to clustering every pixel. Initial centroids
// are distinct existing colours picked by a generator seeded from
// opts.Seed, so the output is reproducible. Colours that differ only in
// alpha count as one, since clustering ignores alpha.
func quantize(src *raster.Buffer, opts ColorOptions) *raster.Buffer {
	unique := uniqueRGB(colormodel.ExtractUniqueColors(src))
	if len(unique) == 0 {
		opts.Progress.Report(100, "quantize")
		return src.Clone()
	}

	points := make([]colormodel.Lab, len(unique))
	weights := make([]float64, len(unique))
	for i, u := range unique {
		points[i] = colormodel.ColorToLab(u.Color)
		weights[i] = float64(u.Count)
	}

	k := opts.Colors
	if k > len(unique) {
		k = len(unique)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	perm := rng.Perm(len(unique))
	centroids := make([]colormodel.Lab, k)
	for i := 0; i < k; i++ {
		centroids[i] = points[perm[i]]
	}

	assign := make([]int, len(points))
	shifts := make([]float64, k)
	for iter := 0; iter < opts.MaxIterations; iter++ {
		for i, p := range points {
			assign[i] = nearestCentroid(p, centroids)
		}

		sums := make([]colormodel.Lab, k)
		totals := make([]float64, k)
		for i, p := range points {
			c := assign[i]
			w := weights[i]
			sums[c].L += p.L * w
			sums[c].A += p.A * w
			sums[c].B += p.B * w
			totals[c] += w
		}

		for c := range centroids {
			if totals[c] == 0 {
				// Empty cluster keeps its centroid.
				shifts[c] = 0
				continue
			}
			next := colormodel.Lab{
				L: sums[c].L / totals[c],
				A: sums[c].A / totals[c],
				B: sums[c].B / totals[c],
			}
			shifts[c] = colormodel.DeltaE(centroids[c], next)
			centroids[c] = next
		}

		opts.Progress.Report(float64(iter+1)/float64(opts.MaxIterations)*100, fmt.Sprintf("quantize iteration %d", iter+1))
		if stat.Mean(shifts, nil) < convergenceDeltaE {
			break
		}
	}

	centroidRGB := make([]raster.Color, k)
	for i, c := range centroids {
		centroidRGB[i] = colormodel.LabToRGB(c)
	}

	out := src.Clone()
	cache := make(map[raster.Color]raster.Color)
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i+3] == 0 {
			continue
		}
		c := raster.Color{R: out.Pix[i], G: out.Pix[i+1], B: out.Pix[i+2]}
		r, ok := cache[c]
		if !ok {
			r = centroidRGB[nearestCentroid(colormodel.ColorToLab(c), centroids)]
			cache[c] = r
		}
		out.Pix[i], out.Pix[i+1], out.Pix[i+2] = r.R, r.G, r.B
	}
	opts.Progress.Report(100, "quantize")
	return out
}

// uniqueRGB merges entries that share R, G and B, summing their counts.
// The first entry of each colour keeps its position.
func uniqueRGB(colors []colormodel.ColorCount) []colormodel.ColorCount {
	index := make(map[raster.Color]int, len(colors))
	out := make([]colormodel.ColorCount, 0, len(colors))
	for _, c := range colors {
		key := raster.Color{R: c.Color.R, G: c.Color.G, B: c.Color.B, A: 255}
		if i, ok := index[key]; ok {
			out[i].Count += c.Count
			continue
		}
		index[key] = len(out)
		out = append(out, colormodel.ColorCount{Color: key, Count: c.Count})
	}
	return out
}

func nearestCentroid(p colormodel.Lab, centroids []colormodel.Lab) int {
	best := 0
	bestDist := math.Inf(1)
	for i, c := range centroids {
		if d := colormodel.DeltaE(p, c); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
