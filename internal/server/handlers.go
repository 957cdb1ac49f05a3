package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/ironsheep/pixel-cleanup/internal/cleaner"
	"github.com/ironsheep/pixel-cleanup/internal/cleanup"
	"github.com/ironsheep/pixel-cleanup/internal/colormodel"
	"github.com/ironsheep/pixel-cleanup/internal/components"
	"github.com/ironsheep/pixel-cleanup/internal/contour"
	"github.com/ironsheep/pixel-cleanup/internal/imageio"
	"github.com/ironsheep/pixel-cleanup/internal/raster"
	"github.com/ironsheep/pixel-cleanup/internal/worker"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "pixel_clean_logo").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		if s.cfg.Debug() {
			log.Printf("Tool %s failed: %v", params.Name, err)
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler unmarshals its arguments, loads the source image from
// the cache and either analyses it or runs one cleanup operation through
// the server's executor.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image information
	case "image_load":
		return s.handleImageLoad(args)
	case "pixel_unique_colors":
		return s.handleUniqueColors(args)
	case "pixel_find_components":
		return s.handleFindComponents(args)
	case "pixel_find_contours":
		return s.handleFindContours(args)
	case "pixel_compare":
		return s.handleCompare(args)

	// Cleanup operations
	case "pixel_remove_strays":
		return s.handleRemoveStrays(args)
	case "pixel_reduce_colors":
		return s.handleReduceColors(args)
	case "pixel_crispen_edges":
		return s.handleCrispenEdges(args)
	case "pixel_smooth_edges":
		return s.handleSmoothEdges(args)
	case "pixel_normalize_lines":
		return s.handleNormalizeLines(args)
	case "pixel_perfect_outline":
		return s.handlePerfectOutline(args)
	case "pixel_morphology":
		return s.handleMorphology(args)

	// Pipeline
	case "pixel_clean_logo":
		return s.handleCleanLogo(args)
	case "pixel_list_presets":
		return cleaner.Presets(), nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Shared arguments and results ===

// outputArgs are accepted by every tool that produces an image.
type outputArgs struct {
	// OutputPath, when set, receives the result. The format follows the
	// file extension.
	OutputPath string `json:"output_path"`

	PreviewScale int  `json:"preview_scale"`
	PreviewGrid  bool `json:"preview_grid"`
}

// ImageResult is returned by every tool that produces an image.
type ImageResult struct {
	*imageio.Result

	OutputPath string `json:"output_path,omitempty"`

	// Changes summarises the difference from the source image.
	Changes *imageio.DiffResult `json:"changes"`
}

// predicate returns the alpha predicate for threshold, or nil for the
// default when threshold is 0.
func predicate(threshold uint8) raster.Predicate {
	if threshold == 0 {
		return nil
	}
	return raster.AlphaAtLeast(threshold)
}

// runOperation loads path, runs op through the executor and finishes the
// result.
func (s *Server) runOperation(path, op string, payload any, out outputArgs) (*ImageResult, error) {
	src, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	dst, err := s.exec.Execute(context.Background(), worker.Task{
		Operation: op,
		Input:     src,
		Payload:   payload,
	}, nil)
	if err != nil {
		return nil, err
	}
	return s.finish(src, dst, out)
}

// finish saves dst when requested and renders the preview and change
// summary.
func (s *Server) finish(src, dst *raster.Buffer, out outputArgs) (*ImageResult, error) {
	if out.OutputPath != "" {
		if err := imageio.Save(dst, out.OutputPath); err != nil {
			return nil, err
		}
		// A later load of the output must see the new file
		s.cache.Evict(out.OutputPath)
	}

	changes, err := imageio.Compare(src, dst)
	if err != nil {
		return nil, err
	}
	preview, err := imageio.Encode(dst, imageio.PreviewOptions{
		Scale: out.PreviewScale,
		Grid:  out.PreviewGrid,
	})
	if err != nil {
		return nil, err
	}
	return &ImageResult{
		Result:     preview,
		OutputPath: out.OutputPath,
		Changes:    changes,
	}, nil
}

// === Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.cache.LoadInfo(a.Path)
}

type uniqueColorsArgs struct {
	Path  string `json:"path"`
	Limit int    `json:"limit"`
}

// UniqueColor is one histogram entry of pixel_unique_colors.
type UniqueColor struct {
	Hex   string       `json:"hex"`
	Color raster.Color `json:"color"`
	Count int          `json:"count"`
}

// UniqueColorsResult is the result of pixel_unique_colors.
type UniqueColorsResult struct {
	TotalUnique int           `json:"total_unique"`
	Colors      []UniqueColor `json:"colors"`
	Truncated   bool          `json:"truncated"`
}

func (s *Server) handleUniqueColors(args json.RawMessage) (interface{}, error) {
	var a uniqueColorsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Limit <= 0 {
		a.Limit = 32
	}
	buf, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	counts := colormodel.ExtractUniqueColors(buf)
	result := &UniqueColorsResult{
		TotalUnique: len(counts),
		Colors:      make([]UniqueColor, 0, min(len(counts), a.Limit)),
	}
	for i, cc := range counts {
		if i == a.Limit {
			result.Truncated = true
			break
		}
		result.Colors = append(result.Colors, UniqueColor{
			Hex:   colormodel.Hex(cc.Color),
			Color: cc.Color,
			Count: cc.Count,
		})
	}
	return result, nil
}

type findComponentsArgs struct {
	Path           string `json:"path"`
	Connectivity   int    `json:"connectivity"`
	AlphaThreshold uint8  `json:"alpha_threshold"`
	MinSize        int    `json:"min_size"`
	MaxResults     int    `json:"max_results"`
}

// ComponentsResult is the result of pixel_find_components.
type ComponentsResult struct {
	// Count is the number of components of at least MinSize pixels.
	Count      int                    `json:"count"`
	Components []components.Component `json:"components"`
	Truncated  bool                   `json:"truncated"`
}

func (s *Server) handleFindComponents(args json.RawMessage) (interface{}, error) {
	var a findComponentsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Connectivity == 0 {
		a.Connectivity = int(components.Eight)
	}
	if a.MaxResults <= 0 {
		a.MaxResults = 100
	}
	buf, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	comps, err := components.Find(buf, predicate(a.AlphaThreshold), components.Connectivity(a.Connectivity))
	if err != nil {
		return nil, err
	}

	result := &ComponentsResult{Components: make([]components.Component, 0)}
	for _, c := range comps {
		if c.Size < a.MinSize {
			continue
		}
		result.Count++
		if len(result.Components) == a.MaxResults {
			result.Truncated = true
			continue
		}
		result.Components = append(result.Components, c)
	}
	return result, nil
}

type findContoursArgs struct {
	Path           string `json:"path"`
	AlphaThreshold uint8  `json:"alpha_threshold"`
	IncludePoints  bool   `json:"include_points"`
}

// ContourSummary describes one traced boundary.
type ContourSummary struct {
	Closed bool           `json:"closed"`
	Length int            `json:"length"`
	Bounds raster.Rect    `json:"bounds"`
	Points []raster.Point `json:"points,omitempty"`
}

// ContoursResult is the result of pixel_find_contours.
type ContoursResult struct {
	Count    int              `json:"count"`
	Contours []ContourSummary `json:"contours"`
}

func (s *Server) handleFindContours(args json.RawMessage) (interface{}, error) {
	var a findContoursArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.AlphaThreshold == 0 {
		a.AlphaThreshold = 128
	}
	buf, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	contours := contour.FromBuffer(buf, a.AlphaThreshold)
	result := &ContoursResult{
		Count:    len(contours),
		Contours: make([]ContourSummary, 0, len(contours)),
	}
	for _, c := range contours {
		sum := ContourSummary{Closed: c.Closed, Length: len(c.Points)}
		if len(c.Points) > 0 {
			p0 := c.Points[0]
			sum.Bounds = raster.Rect{MinX: p0.X, MinY: p0.Y, MaxX: p0.X, MaxY: p0.Y}
			for _, p := range c.Points[1:] {
				sum.Bounds.MinX = min(sum.Bounds.MinX, p.X)
				sum.Bounds.MinY = min(sum.Bounds.MinY, p.Y)
				sum.Bounds.MaxX = max(sum.Bounds.MaxX, p.X)
				sum.Bounds.MaxY = max(sum.Bounds.MaxY, p.Y)
			}
		}
		if a.IncludePoints {
			sum.Points = c.Points
		}
		result.Contours = append(result.Contours, sum)
	}
	return result, nil
}

type compareArgs struct {
	Path      string `json:"path"`
	OtherPath string `json:"other_path"`
}

func (s *Server) handleCompare(args json.RawMessage) (interface{}, error) {
	var a compareArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	before, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	after, err := s.cache.Load(a.OtherPath)
	if err != nil {
		return nil, err
	}
	return imageio.Compare(before, after)
}

// === Cleanup Operation Handlers ===

type removeStraysArgs struct {
	Path           string `json:"path"`
	AlphaThreshold uint8  `json:"alpha_threshold"`
	cleanup.StrayOptions
	outputArgs
}

func (s *Server) handleRemoveStrays(args json.RawMessage) (interface{}, error) {
	var a removeStraysArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	a.StrayOptions.Predicate = predicate(a.AlphaThreshold)
	return s.runOperation(a.Path, cleaner.OpRemoveStrayPixels, a.StrayOptions, a.outputArgs)
}

type reduceColorsArgs struct {
	Path string `json:"path"`
	cleanup.ColorOptions

	// Palette holds hex colours; it shadows ColorOptions.Palette.
	Palette []string `json:"palette"`

	outputArgs
}

func (s *Server) handleReduceColors(args json.RawMessage) (interface{}, error) {
	var a reduceColorsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Palette) > 0 {
		palette, err := colormodel.ParsePalette(a.Palette)
		if err != nil {
			return nil, err
		}
		a.ColorOptions.Palette = palette
	}
	return s.runOperation(a.Path, cleaner.OpReduceColors, a.ColorOptions, a.outputArgs)
}

type crispenEdgesArgs struct {
	Path string `json:"path"`
	cleanup.CrispOptions

	// Background is a hex colour; it shadows CrispOptions.Background.
	Background string `json:"background"`

	outputArgs
}

func (s *Server) handleCrispenEdges(args json.RawMessage) (interface{}, error) {
	var a crispenEdgesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Background != "" {
		bg, err := colormodel.ParseHex(a.Background)
		if err != nil {
			return nil, err
		}
		a.CrispOptions.Background = &bg
	}
	return s.runOperation(a.Path, cleaner.OpCrispenEdges, a.CrispOptions, a.outputArgs)
}

type smoothEdgesArgs struct {
	Path           string `json:"path"`
	AlphaThreshold uint8  `json:"alpha_threshold"`
	cleanup.SmoothOptions
	outputArgs
}

func (s *Server) handleSmoothEdges(args json.RawMessage) (interface{}, error) {
	var a smoothEdgesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	a.SmoothOptions.Predicate = predicate(a.AlphaThreshold)
	return s.runOperation(a.Path, cleaner.OpSmoothEdges, a.SmoothOptions, a.outputArgs)
}

type normalizeLinesArgs struct {
	Path           string `json:"path"`
	AlphaThreshold uint8  `json:"alpha_threshold"`
	cleanup.LineOptions
	outputArgs
}

func (s *Server) handleNormalizeLines(args json.RawMessage) (interface{}, error) {
	var a normalizeLinesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	a.LineOptions.Predicate = predicate(a.AlphaThreshold)
	return s.runOperation(a.Path, cleaner.OpNormalizeLines, a.LineOptions, a.outputArgs)
}

type perfectOutlineArgs struct {
	Path           string `json:"path"`
	AlphaThreshold uint8  `json:"alpha_threshold"`
	cleanup.OutlineOptions
	outputArgs
}

func (s *Server) handlePerfectOutline(args json.RawMessage) (interface{}, error) {
	var a perfectOutlineArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	a.OutlineOptions.Predicate = predicate(a.AlphaThreshold)
	return s.runOperation(a.Path, cleaner.OpPerfectOutline, a.OutlineOptions, a.outputArgs)
}

type morphologyArgs struct {
	Path           string `json:"path"`
	Operation      string `json:"operation"`
	KernelSize     int    `json:"kernel_size"`
	AlphaThreshold uint8  `json:"alpha_threshold"`
	outputArgs
}

func (s *Server) handleMorphology(args json.RawMessage) (interface{}, error) {
	var a morphologyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.runOperation(a.Path, cleaner.OpMorphology, cleaner.MorphologyPayload{
		Operation:  a.Operation,
		KernelSize: a.KernelSize,
		Predicate:  predicate(a.AlphaThreshold),
	}, a.outputArgs)
}

// === Pipeline Handlers ===

type cleanLogoArgs struct {
	Path string `json:"path"`
	cleaner.Options

	// Palette switches the colour stage to palette-lock with these hex
	// colours.
	Palette []string `json:"palette"`

	// Background switches the edge stage to decontaminate against this
	// hex colour.
	Background string `json:"background"`

	outputArgs
}

// CleanLogoResult is the result of pixel_clean_logo.
type CleanLogoResult struct {
	*ImageResult
	Stages []cleaner.Stage `json:"stages"`
}

func (s *Server) handleCleanLogo(args json.RawMessage) (interface{}, error) {
	var a cleanLogoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	opts := a.Options

	if len(a.Palette) > 0 {
		palette, err := colormodel.ParsePalette(a.Palette)
		if err != nil {
			return nil, err
		}
		colors := cleanup.ColorOptions{}
		if opts.Colors != nil {
			colors = *opts.Colors
		}
		colors.Mode = cleanup.ColorPaletteLock
		colors.Palette = palette
		opts.Colors = &colors
	}
	if a.Background != "" {
		bg, err := colormodel.ParseHex(a.Background)
		if err != nil {
			return nil, err
		}
		edges := cleanup.CrispOptions{}
		if opts.Edges != nil {
			edges = *opts.Edges
		}
		edges.Method = cleanup.CrispDecontaminate
		edges.Background = &bg
		opts.Edges = &edges
	}
	if s.cfg.Debug() {
		opts.Progress = func(percent float64, stage string) {
			log.Printf("clean_logo %s: %3.0f%% %s", a.Path, percent, stage)
		}
	}

	stages, err := cleaner.Plan(opts)
	if err != nil {
		return nil, err
	}
	src, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	dst, err := s.cleaner.Clean(context.Background(), src, opts)
	if err != nil {
		return nil, err
	}
	res, err := s.finish(src, dst, a.outputArgs)
	if err != nil {
		return nil, err
	}
	return &CleanLogoResult{ImageResult: res, Stages: stages}, nil
}
