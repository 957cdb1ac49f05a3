package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func alphaThresholdProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Pixels with alpha at or above this value are foreground. Default 128",
		"minimum":     1,
		"maximum":     255,
	}
}

// withOutput adds the properties shared by every image-producing tool.
func withOutput(props map[string]interface{}) map[string]interface{} {
	props["output_path"] = map[string]interface{}{
		"type":        "string",
		"description": "Optional path to write the result to. The format follows the extension (.png, .bmp, .tif, .jpg, .gif)",
	}
	props["preview_scale"] = map[string]interface{}{
		"type":        "integer",
		"description": "Enlarge the returned preview by this integer factor (nearest neighbour, max 32). Default 1",
		"minimum":     0,
		"maximum":     32,
	}
	props["preview_grid"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Draw a pixel grid on the preview when preview_scale is 4 or more",
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format, unique opaque colour count and counts of transparent and semi-transparent pixels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "pixel_unique_colors",
			Description: "List the distinct opaque colours of an image, most frequent first. Useful to spot near-duplicate colours before cleanup.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of colours returned. Default 32",
						"default":     32,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "pixel_find_components",
			Description: "Find connected regions of foreground pixels and return their sizes and bounding boxes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"connectivity": map[string]interface{}{
						"type":        "integer",
						"description": "4 (edge neighbours) or 8 (edge and corner neighbours). Default 8",
						"enum":        []int{4, 8},
					},
					"alpha_threshold": alphaThresholdProperty(),
					"min_size": map[string]interface{}{
						"type":        "integer",
						"description": "Only report components with at least this many pixels",
					},
					"max_results": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of components returned. Default 100",
						"default":     100,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "pixel_find_contours",
			Description: "Trace the outer boundaries of foreground shapes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":            pathProperty(),
					"alpha_threshold": alphaThresholdProperty(),
					"include_points": map[string]interface{}{
						"type":        "boolean",
						"description": "Include every boundary point in the result",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "pixel_compare",
			Description: "Compare two images of the same size: changed pixels, alpha flips, mean Delta-E and the bounding box of the changes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"other_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image to compare against",
					},
				},
				"required": []string{"path", "other_path"},
			},
		},

		// Cleanup operations
		{
			Name:        "pixel_remove_strays",
			Description: "Remove or recolour isolated pixel clusters smaller than min_size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withOutput(map[string]interface{}{
					"path": pathProperty(),
					"min_size": map[string]interface{}{
						"type":        "integer",
						"description": "Smallest cluster kept. Default 4",
					},
					"mode": map[string]interface{}{
						"type":        "string",
						"description": "delete clears strays, merge recolours them with the nearest surrounding colour. Default delete",
						"enum":        []string{"delete", "merge"},
					},
					"merge_radius": map[string]interface{}{
						"type":        "integer",
						"description": "How far around a stray merge looks for a colour. Default 2",
					},
					"alpha_threshold": alphaThresholdProperty(),
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "pixel_reduce_colors",
			Description: "Reduce colour noise: merge near-identical colours (auto-clean), snap to a palette (palette-lock) or cluster to N colours (quantize).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withOutput(map[string]interface{}{
					"path": pathProperty(),
					"mode": map[string]interface{}{
						"type":        "string",
						"description": "Reduction mode. Default auto-clean",
						"enum":        []string{"auto-clean", "palette-lock", "quantize"},
					},
					"threshold": map[string]interface{}{
						"type":        "number",
						"description": "auto-clean grouping distance. Default 10",
					},
					"metric": map[string]interface{}{
						"type":        "string",
						"description": "Colour distance metric. Default lab",
						"enum":        []string{"lab", "rgb"},
					},
					"palette": map[string]interface{}{
						"type":        "array",
						"description": "Hex colours for palette-lock (e.g. [\"#FF0000\", \"#FFFFFF\"])",
						"items":       map[string]interface{}{"type": "string"},
					},
					"colors": map[string]interface{}{
						"type":        "integer",
						"description": "Number of colours for quantize. Default 8",
					},
					"seed": map[string]interface{}{
						"type":        "integer",
						"description": "k-means seed for quantize. Default 1",
					},
					"max_iterations": map[string]interface{}{
						"type":        "integer",
						"description": "k-means iteration limit. Default 20",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "pixel_crispen_edges",
			Description: "Remove soft anti-aliased edges: hard alpha threshold, erosion of the fringe, or colour decontamination against a known background.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withOutput(map[string]interface{}{
					"path": pathProperty(),
					"method": map[string]interface{}{
						"type":        "string",
						"description": "Default threshold",
						"enum":        []string{"threshold", "erode", "decontaminate"},
					},
					"alpha_threshold": alphaThresholdProperty(),
					"kernel_size": map[string]interface{}{
						"type":        "integer",
						"description": "Odd erosion kernel size. Default 3",
					},
					"background": map[string]interface{}{
						"type":        "string",
						"description": "Hex background colour, required for decontaminate",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "pixel_smooth_edges",
			Description: "Soften staircase artefacts on diagonal edges, or remove L-corners from one-pixel lines with the pixel-perfect preset.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withOutput(map[string]interface{}{
					"path": pathProperty(),
					"preset": map[string]interface{}{
						"type":        "string",
						"description": "Default standard",
						"enum":        []string{"subtle", "standard", "smooth", "pixel-perfect"},
					},
					"strength": map[string]interface{}{
						"type":        "integer",
						"description": "Blend percentage overriding the preset (1-100)",
					},
					"alpha_threshold": alphaThresholdProperty(),
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "pixel_normalize_lines",
			Description: "Make stroke thickness uniform by thinning thick strokes and thickening thin ones along their skeleton.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withOutput(map[string]interface{}{
					"path": pathProperty(),
					"target_width": map[string]interface{}{
						"type":        "integer",
						"description": "Desired stroke width in pixels. Default 1",
					},
					"alpha_threshold": alphaThresholdProperty(),
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "pixel_perfect_outline",
			Description: "Repair shape outlines: close small gaps, straighten nearly straight runs, smooth jagged curves and sharpen rounded corners. Each stage must be enabled.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withOutput(map[string]interface{}{
					"path":             pathProperty(),
					"close_gaps":       map[string]interface{}{"type": "boolean"},
					"max_gap_size":     map[string]interface{}{"type": "integer", "description": "Default 2"},
					"straighten_lines": map[string]interface{}{"type": "boolean"},
					"snap_angles": map[string]interface{}{
						"type":        "array",
						"description": "Allowed line directions in degrees. Default [0, 45, 90, 135]",
						"items":       map[string]interface{}{"type": "number"},
					},
					"snap_tolerance":   map[string]interface{}{"type": "number", "description": "Degrees. Default 10"},
					"segment_length":   map[string]interface{}{"type": "integer", "description": "Contour steps per straightened segment. Default 4"},
					"smooth_curves":    map[string]interface{}{"type": "boolean"},
					"smooth_strength":  map[string]interface{}{"type": "integer", "description": "1-100. Default 50"},
					"sharpen_corners":  map[string]interface{}{"type": "boolean"},
					"corner_threshold": map[string]interface{}{"type": "number", "description": "Degrees. Default 30"},
					"alpha_threshold":  alphaThresholdProperty(),
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "pixel_morphology",
			Description: "Apply a binary morphology operator to the foreground shape, preserving pixel colours.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withOutput(map[string]interface{}{
					"path": pathProperty(),
					"operation": map[string]interface{}{
						"type": "string",
						"enum": []string{"erode", "dilate", "open", "close"},
					},
					"kernel_size": map[string]interface{}{
						"type":        "integer",
						"description": "Odd square kernel size. Default 3",
					},
					"alpha_threshold": alphaThresholdProperty(),
				}),
				"required": []string{"path", "operation"},
			},
		},

		// Pipeline
		{
			Name:        "pixel_clean_logo",
			Description: "Run the full cleanup pipeline (strays, colours, edges, smoothing, outline) using a preset, with optional per-stage overrides.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withOutput(map[string]interface{}{
					"path": pathProperty(),
					"preset": map[string]interface{}{
						"type": "string",
						"enum": []string{"logo-minimal", "logo-standard", "logo-aggressive", "icon-app-store", "game-asset", "print-ready"},
					},
					"stray_pixels": map[string]interface{}{"type": "object", "description": "Overrides for the stray pixel stage (see pixel_remove_strays)"},
					"colors":       map[string]interface{}{"type": "object", "description": "Overrides for the colour stage (see pixel_reduce_colors)"},
					"edges":        map[string]interface{}{"type": "object", "description": "Overrides for the edge stage (see pixel_crispen_edges)"},
					"smoothing":    map[string]interface{}{"type": "object", "description": "Overrides for the smoothing stage (see pixel_smooth_edges)"},
					"outline":      map[string]interface{}{"type": "object", "description": "Overrides for the outline stage (see pixel_perfect_outline)"},
					"skip": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "string", "enum": []string{"stray-pixels", "colors", "edges", "smoothing", "outline"}},
					},
					"palette": map[string]interface{}{
						"type":        "array",
						"description": "Hex colours; switches the colour stage to palette-lock",
						"items":       map[string]interface{}{"type": "string"},
					},
					"background": map[string]interface{}{
						"type":        "string",
						"description": "Hex colour; switches the edge stage to decontaminate",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "pixel_list_presets",
			Description: "List the pipeline presets and the stages each one enables.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}
