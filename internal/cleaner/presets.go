package cleaner

import (
	"errors"
	"fmt"

	"github.com/ironsheep/pixel-cleanup/internal/cleanup"
)

// Preset names a bundle of per-stage defaults.
type Preset string

// Presets. The literal names are part of the public contract.
const (
	LogoMinimal    Preset = "logo-minimal"
	LogoStandard   Preset = "logo-standard"
	LogoAggressive Preset = "logo-aggressive"
	IconAppStore   Preset = "icon-app-store"
	GameAsset      Preset = "game-asset"
	PrintReady     Preset = "print-ready"
)

// ErrUnknownPreset is returned for a preset name not listed above.
var ErrUnknownPreset = errors.New("unknown preset")

// PresetInfo describes a preset for listings.
type PresetInfo struct {
	Name        Preset  `json:"name"`
	Description string  `json:"description"`
	Stages      []Stage `json:"stages"`
}

type presetDef struct {
	description string
	stages      stageOptions
}

// stageOptions holds one optional options value per stage.
type stageOptions struct {
	strays    *cleanup.StrayOptions
	colors    *cleanup.ColorOptions
	edges     *cleanup.CrispOptions
	smoothing *cleanup.SmoothOptions
	outline   *cleanup.OutlineOptions
}

var presetOrder = []Preset{LogoMinimal, LogoStandard, LogoAggressive, IconAppStore, GameAsset, PrintReady}

// presets returns fresh copies so callers can never alter the defaults.
func presets() map[Preset]presetDef {
	return map[Preset]presetDef{
		LogoMinimal: {
			description: "Remove specks and binarize alpha; colours are left alone",
			stages: stageOptions{
				strays: &cleanup.StrayOptions{MinSize: 2},
				edges:  &cleanup.CrispOptions{Method: cleanup.CrispThreshold},
			},
		},
		LogoStandard: {
			description: "Remove specks, merge near-duplicate colours, crisp edges and close one-pixel gaps",
			stages: stageOptions{
				strays:  &cleanup.StrayOptions{MinSize: 4},
				colors:  &cleanup.ColorOptions{Mode: cleanup.ColorAutoClean, Threshold: 10},
				edges:   &cleanup.CrispOptions{Method: cleanup.CrispThreshold},
				outline: &cleanup.OutlineOptions{CloseGaps: true, MaxGapSize: 1},
			},
		},
		LogoAggressive: {
			description: "Heavy cleanup for noisy scans: large specks, wide colour merging, smoothed and straightened outlines",
			stages: stageOptions{
				strays:    &cleanup.StrayOptions{MinSize: 8},
				colors:    &cleanup.ColorOptions{Mode: cleanup.ColorAutoClean, Threshold: 20},
				edges:     &cleanup.CrispOptions{Method: cleanup.CrispThreshold},
				smoothing: &cleanup.SmoothOptions{Preset: cleanup.SmoothStandard},
				outline: &cleanup.OutlineOptions{
					CloseGaps:       true,
					MaxGapSize:      2,
					StraightenLines: true,
					SmoothCurves:    true,
				},
			},
		},
		IconAppStore: {
			description: "Tight colours and sharp corners for app icons",
			stages: stageOptions{
				strays:    &cleanup.StrayOptions{MinSize: 4},
				colors:    &cleanup.ColorOptions{Mode: cleanup.ColorAutoClean, Threshold: 8},
				edges:     &cleanup.CrispOptions{Method: cleanup.CrispThreshold},
				smoothing: &cleanup.SmoothOptions{Preset: cleanup.SmoothSubtle},
				outline:   &cleanup.OutlineOptions{CloseGaps: true, MaxGapSize: 1, SharpenCorners: true},
			},
		},
		GameAsset: {
			description: "Quantize to 16 colours and apply pixel-perfect line cleanup",
			stages: stageOptions{
				strays:    &cleanup.StrayOptions{MinSize: 2},
				colors:    &cleanup.ColorOptions{Mode: cleanup.ColorQuantize, Colors: 16},
				edges:     &cleanup.CrispOptions{Method: cleanup.CrispThreshold},
				smoothing: &cleanup.SmoothOptions{Preset: cleanup.SmoothPixelPerfect},
			},
		},
		PrintReady: {
			description: "Conservative alpha cutoff with smooth edges and curves for print",
			stages: stageOptions{
				strays:    &cleanup.StrayOptions{MinSize: 6},
				colors:    &cleanup.ColorOptions{Mode: cleanup.ColorAutoClean, Threshold: 12},
				edges:     &cleanup.CrispOptions{Method: cleanup.CrispThreshold, AlphaThreshold: 160},
				smoothing: &cleanup.SmoothOptions{Preset: cleanup.SmoothSmooth},
				outline:   &cleanup.OutlineOptions{CloseGaps: true, MaxGapSize: 2, SmoothCurves: true},
			},
		},
	}
}

func lookupPreset(p Preset) (stageOptions, error) {
	if p == "" {
		return stageOptions{}, nil
	}
	def, ok := presets()[p]
	if !ok {
		return stageOptions{}, fmt.Errorf("%w: %q", ErrUnknownPreset, p)
	}
	return def.stages, nil
}

// Presets lists every preset in a stable order.
func Presets() []PresetInfo {
	defs := presets()
	infos := make([]PresetInfo, 0, len(presetOrder))
	for _, p := range presetOrder {
		def := defs[p]
		infos = append(infos, PresetInfo{
			Name:        p,
			Description: def.description,
			Stages:      def.stages.enabled(),
		})
	}
	return infos
}

// IsValidPreset reports whether p names a preset.
func IsValidPreset(p Preset) bool {
	_, ok := presets()[p]
	return ok
}
