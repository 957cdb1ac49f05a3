package raster

// Predicate classifies a sample as foreground ("ink") or background.
type Predicate func(r, g, b, a uint8) bool

// AlphaAtLeast returns a predicate that accepts samples whose alpha is at
// least threshold.
func AlphaAtLeast(threshold uint8) Predicate {
	return func(_, _, _, a uint8) bool {
		return a >= threshold
	}
}

// DefaultPredicate treats alpha >= 128 as foreground.
var DefaultPredicate = AlphaAtLeast(128)

// OrDefault returns pred, or DefaultPredicate when pred is nil.
func OrDefault(pred Predicate) Predicate {
	if pred == nil {
		return DefaultPredicate
	}
	return pred
}

// ProgressFunc receives advisory progress updates: percent in [0, 100] and
// an optional stage label. It must not influence the result of the
// operation reporting it.
type ProgressFunc func(percent float64, stage string)

// Report calls f if it is non-nil.
func (f ProgressFunc) Report(percent float64, stage string) {
	if f != nil {
		f(percent, stage)
	}
}
