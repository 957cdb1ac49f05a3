package server

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/pixel-cleanup/internal/cleaner"
	"github.com/ironsheep/pixel-cleanup/internal/imageio"
	"github.com/ironsheep/pixel-cleanup/internal/raster"
)

var (
	red  = raster.Color{R: 255, A: 255}
	blue = raster.Color{B: 255, A: 255}
)

// newTestServer returns a server whose pool is stopped when the test ends.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := New()
	t.Cleanup(s.Close)
	return s
}

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	tmpFile, err := os.CreateTemp(t.TempDir(), "handler-test-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()

	if err := png.Encode(tmpFile, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}

	return tmpFile.Name()
}

// writeBuffer saves buf as a PNG in a temp dir and returns its path.
func writeBuffer(t *testing.T, buf *raster.Buffer) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.png")
	if err := imageio.Save(buf, path); err != nil {
		t.Fatalf("failed to save image: %v", err)
	}
	return path
}

// createLogo builds a 16x16 image with a red 8x8 square, two near-reds
// inside it and two stray red dots.
func createLogo() *raster.Buffer {
	b := raster.New(16, 16)
	for y := 4; y <= 11; y++ {
		for x := 4; x <= 11; x++ {
			b.Set(x, y, red)
		}
	}
	b.Set(6, 6, raster.Color{R: 250, G: 5, B: 5, A: 255})
	b.Set(9, 8, raster.Color{R: 252, G: 2, B: 2, A: 255})
	b.Set(1, 1, red)
	b.Set(14, 14, red)
	return b
}

// callTool sends a tools/call request through handleRequest.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()
	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// decodeContent unmarshals the text content of a successful tool response.
func decodeContent(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("content: got %#v", result["content"])
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v, want text", content[0]["type"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("failed to decode tool result: %v\n%s", err, text)
	}
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 100, 80, color.RGBA{255, 0, 0, 255})

	var info imageio.Info
	decodeContent(t, callTool(t, s, "image_load", map[string]interface{}{"path": imgPath}), &info)

	if info.Width != 100 || info.Height != 80 {
		t.Errorf("size: got %dx%d, want 100x80", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("format: got %s, want png", info.Format)
	}
	if info.UniqueColors != 1 {
		t.Errorf("unique colors: got %d, want 1", info.UniqueColors)
	}
}

func TestHandleToolsCall_NonExistentFile(t *testing.T) {
	s := newTestServer(t)

	resp := callTool(t, s, "image_load", map[string]interface{}{"path": "/nonexistent/path/image.png"})

	if resp.Error == nil {
		t.Fatal("Expected error for non-existent file")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
	if resp.Error.Message != "Tool execution failed" {
		t.Errorf("Message: got %s", resp.Error.Message)
	}
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	s := newTestServer(t)

	resp := callTool(t, s, "nonexistent_tool", map[string]interface{}{})

	if resp.Error == nil {
		t.Fatal("Expected error for unknown tool")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`{invalid json}`),
	}

	resp := s.handleRequest(req)

	if resp.Error == nil {
		t.Fatal("Expected error for invalid params")
	}
	if resp.Error.Code != -32602 {
		t.Errorf("Error code: got %d, want -32602", resp.Error.Code)
	}
}

func TestHandleToolsCall_UniqueColors(t *testing.T) {
	s := newTestServer(t)
	buf := raster.New(4, 2)
	for x := 0; x < 4; x++ {
		buf.Set(x, 0, red)
	}
	buf.Set(0, 1, blue)
	imgPath := writeBuffer(t, buf)

	var result UniqueColorsResult
	decodeContent(t, callTool(t, s, "pixel_unique_colors", map[string]interface{}{
		"path":  imgPath,
		"limit": 1,
	}), &result)

	if result.TotalUnique != 2 {
		t.Errorf("total unique: got %d, want 2", result.TotalUnique)
	}
	if !result.Truncated || len(result.Colors) != 1 {
		t.Fatalf("expected one colour and truncation, got %+v", result)
	}
	if result.Colors[0].Hex != "#FF0000" || result.Colors[0].Count != 4 {
		t.Errorf("top colour: got %+v, want #FF0000 x4", result.Colors[0])
	}
}

func TestHandleToolsCall_FindComponents(t *testing.T) {
	s := newTestServer(t)
	buf := raster.New(10, 10)
	for y := 1; y <= 3; y++ {
		for x := 1; x <= 3; x++ {
			buf.Set(x, y, red)
		}
	}
	buf.Set(8, 8, blue)
	imgPath := writeBuffer(t, buf)

	var all ComponentsResult
	decodeContent(t, callTool(t, s, "pixel_find_components", map[string]interface{}{"path": imgPath}), &all)
	if all.Count != 2 {
		t.Fatalf("count: got %d, want 2", all.Count)
	}
	if all.Components[0].Size != 9 {
		t.Errorf("first component size: got %d, want 9", all.Components[0].Size)
	}
	if b := all.Components[0].Bounds; b != (raster.Rect{MinX: 1, MinY: 1, MaxX: 3, MaxY: 3}) {
		t.Errorf("first component bounds: got %+v", b)
	}

	var big ComponentsResult
	decodeContent(t, callTool(t, s, "pixel_find_components", map[string]interface{}{
		"path":     imgPath,
		"min_size": 2,
	}), &big)
	if big.Count != 1 || len(big.Components) != 1 {
		t.Errorf("min_size 2: got %+v", big)
	}

	resp := callTool(t, s, "pixel_find_components", map[string]interface{}{
		"path":         imgPath,
		"connectivity": 6,
	})
	if resp.Error == nil {
		t.Error("Expected error for connectivity 6")
	}
}

func TestHandleToolsCall_FindContours(t *testing.T) {
	s := newTestServer(t)
	buf := raster.New(8, 8)
	for y := 2; y <= 5; y++ {
		for x := 2; x <= 5; x++ {
			buf.Set(x, y, red)
		}
	}
	imgPath := writeBuffer(t, buf)

	var result ContoursResult
	decodeContent(t, callTool(t, s, "pixel_find_contours", map[string]interface{}{
		"path":           imgPath,
		"include_points": true,
	}), &result)

	if result.Count != 1 {
		t.Fatalf("count: got %d, want 1", result.Count)
	}
	c := result.Contours[0]
	if !c.Closed {
		t.Error("square outline should be closed")
	}
	if c.Length != 12 || len(c.Points) != 12 {
		t.Errorf("length: got %d (%d points), want 12", c.Length, len(c.Points))
	}
	if c.Bounds != (raster.Rect{MinX: 2, MinY: 2, MaxX: 5, MaxY: 5}) {
		t.Errorf("bounds: got %+v", c.Bounds)
	}
}

func TestHandleToolsCall_RemoveStraysWritesOutput(t *testing.T) {
	s := newTestServer(t)
	imgPath := writeBuffer(t, createLogo())
	outPath := filepath.Join(t.TempDir(), "clean.png")

	var result ImageResult
	decodeContent(t, callTool(t, s, "pixel_remove_strays", map[string]interface{}{
		"path":        imgPath,
		"min_size":    4,
		"output_path": outPath,
	}), &result)

	if result.OutputPath != outPath {
		t.Errorf("output_path: got %s", result.OutputPath)
	}
	if result.Changes == nil || result.Changes.ChangedPixels != 2 || result.Changes.AlphaChanged != 2 {
		t.Errorf("changes: got %+v, want 2 changed pixels", result.Changes)
	}

	saved, err := s.cache.Load(outPath)
	if err != nil {
		t.Fatalf("failed to load output: %v", err)
	}
	if saved.At(1, 1) != raster.Transparent || saved.At(14, 14) != raster.Transparent {
		t.Error("strays should be cleared in the saved output")
	}
	if saved.At(4, 4) != red {
		t.Errorf("square pixel: got %+v, want red", saved.At(4, 4))
	}

	// The source file is untouched
	src, err := s.cache.Load(imgPath)
	if err != nil {
		t.Fatal(err)
	}
	if src.At(1, 1) != red {
		t.Error("source image must not change")
	}
}

func TestHandleToolsCall_OutputEvictsCache(t *testing.T) {
	s := newTestServer(t)
	imgPath := writeBuffer(t, createLogo())

	if _, err := s.cache.Load(imgPath); err != nil {
		t.Fatal(err)
	}

	// Overwrite the source in place, then reload it
	var result ImageResult
	decodeContent(t, callTool(t, s, "pixel_remove_strays", map[string]interface{}{
		"path":        imgPath,
		"output_path": imgPath,
	}), &result)

	reloaded, err := s.cache.Load(imgPath)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.At(1, 1) != raster.Transparent {
		t.Error("cache should not serve the image from before the overwrite")
	}
}

func TestHandleToolsCall_ReduceColorsPalette(t *testing.T) {
	s := newTestServer(t)
	buf := raster.New(4, 1)
	buf.Set(0, 0, raster.Color{R: 240, G: 10, B: 10, A: 255})
	buf.Set(1, 0, raster.Color{R: 10, G: 10, B: 230, A: 255})
	buf.Set(2, 0, raster.Color{R: 255, G: 20, B: 0, A: 255})
	imgPath := writeBuffer(t, buf)
	outPath := filepath.Join(t.TempDir(), "out.png")

	var result ImageResult
	decodeContent(t, callTool(t, s, "pixel_reduce_colors", map[string]interface{}{
		"path":        imgPath,
		"mode":        "palette-lock",
		"palette":     []string{"#FF0000", "#0000FF"},
		"output_path": outPath,
	}), &result)

	out, err := s.cache.Load(outPath)
	if err != nil {
		t.Fatal(err)
	}
	want := []raster.Color{red, blue, red, raster.Transparent}
	for x, c := range want {
		if got := out.At(x, 0); got != c {
			t.Errorf("pixel %d: got %+v, want %+v", x, got, c)
		}
	}
}

func TestHandleToolsCall_ReduceColorsErrors(t *testing.T) {
	s := newTestServer(t)
	imgPath := writeBuffer(t, createLogo())

	tests := []struct {
		name     string
		args     map[string]interface{}
		wantData string
	}{
		{"missing palette", map[string]interface{}{"mode": "palette-lock"}, "palette"},
		{"bad hex", map[string]interface{}{"mode": "palette-lock", "palette": []string{"#GG0000"}}, "palette entry 0"},
		{"unknown mode", map[string]interface{}{"mode": "posterize"}, "posterize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.args["path"] = imgPath
			resp := callTool(t, s, "pixel_reduce_colors", tt.args)
			if resp.Error == nil {
				t.Fatal("Expected error")
			}
			if resp.Error.Code != -32000 {
				t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
			}
			data, _ := resp.Error.Data.(string)
			if !strings.Contains(data, tt.wantData) {
				t.Errorf("Error data %q should mention %q", data, tt.wantData)
			}
		})
	}
}

func TestHandleToolsCall_CrispenEdgesDecontaminate(t *testing.T) {
	s := newTestServer(t)
	buf := raster.New(2, 1)
	buf.Set(0, 0, raster.Color{R: 255, G: 128, B: 128, A: 128})
	buf.Set(1, 0, raster.Color{R: 255, A: 40})
	imgPath := writeBuffer(t, buf)
	outPath := filepath.Join(t.TempDir(), "out.png")

	var result ImageResult
	decodeContent(t, callTool(t, s, "pixel_crispen_edges", map[string]interface{}{
		"path":        imgPath,
		"method":      "decontaminate",
		"background":  "#FFFFFF",
		"output_path": outPath,
	}), &result)

	out, err := s.cache.Load(outPath)
	if err != nil {
		t.Fatal(err)
	}
	c := out.At(0, 0)
	if c.A != 255 || c.R != 255 || c.G > 2 || c.B > 2 {
		t.Errorf("decontaminated pixel: got %+v, want opaque red", c)
	}
	if out.At(1, 0) != raster.Transparent {
		t.Errorf("faint pixel: got %+v, want transparent", out.At(1, 0))
	}

	resp := callTool(t, s, "pixel_crispen_edges", map[string]interface{}{
		"path":   imgPath,
		"method": "decontaminate",
	})
	if resp.Error == nil {
		t.Error("decontaminate without a background should fail")
	}
}

func TestHandleToolsCall_MorphologyPreview(t *testing.T) {
	s := newTestServer(t)
	buf := raster.New(5, 5)
	buf.Set(2, 2, red)
	imgPath := writeBuffer(t, buf)

	var result ImageResult
	decodeContent(t, callTool(t, s, "pixel_morphology", map[string]interface{}{
		"path":          imgPath,
		"operation":     "dilate",
		"kernel_size":   3,
		"preview_scale": 4,
		"preview_grid":  true,
	}), &result)

	if result.Result == nil {
		t.Fatal("missing preview")
	}
	if result.Width != 20 || result.Height != 20 {
		t.Errorf("preview size: got %dx%d, want 20x20", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("mime type: got %s", result.MimeType)
	}
	if result.Changes.ChangedPixels != 8 {
		t.Errorf("changed pixels: got %d, want 8", result.Changes.ChangedPixels)
	}

	resp := callTool(t, s, "pixel_morphology", map[string]interface{}{
		"path":        imgPath,
		"operation":   "dilate",
		"kernel_size": 4,
	})
	if resp.Error == nil {
		t.Error("even kernel should fail")
	}
}

func TestHandleToolsCall_CleanLogo(t *testing.T) {
	s := newTestServer(t)
	imgPath := writeBuffer(t, createLogo())
	outPath := filepath.Join(t.TempDir(), "logo.png")

	var result CleanLogoResult
	decodeContent(t, callTool(t, s, "pixel_clean_logo", map[string]interface{}{
		"path":        imgPath,
		"preset":      "logo-standard",
		"output_path": outPath,
	}), &result)

	wantStages := []cleaner.Stage{cleaner.StageStrayPixels, cleaner.StageColors, cleaner.StageEdges, cleaner.StageOutline}
	if len(result.Stages) != len(wantStages) {
		t.Fatalf("stages: got %v, want %v", result.Stages, wantStages)
	}
	for i := range wantStages {
		if result.Stages[i] != wantStages[i] {
			t.Errorf("stage %d: got %s, want %s", i, result.Stages[i], wantStages[i])
		}
	}

	var info imageio.Info
	decodeContent(t, callTool(t, s, "image_load", map[string]interface{}{"path": outPath}), &info)
	if info.UniqueColors != 1 {
		t.Errorf("unique colors after cleanup: got %d, want 1", info.UniqueColors)
	}
	if info.SoftPixels != 0 {
		t.Errorf("soft pixels after cleanup: got %d, want 0", info.SoftPixels)
	}
}

func TestHandleToolsCall_CleanLogoOverrides(t *testing.T) {
	s := newTestServer(t)
	imgPath := writeBuffer(t, createLogo())
	outPath := filepath.Join(t.TempDir(), "logo.png")

	var result CleanLogoResult
	decodeContent(t, callTool(t, s, "pixel_clean_logo", map[string]interface{}{
		"path":        imgPath,
		"preset":      "logo-minimal",
		"palette":     []string{"#0000FF"},
		"skip":        []string{"stray-pixels"},
		"output_path": outPath,
	}), &result)

	for _, st := range result.Stages {
		if st == cleaner.StageStrayPixels {
			t.Error("skipped stage should not run")
		}
	}

	out, err := s.cache.Load(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if out.At(1, 1) != blue {
		t.Errorf("stray with palette lock: got %+v, want blue", out.At(1, 1))
	}
	if out.At(6, 6) != blue {
		t.Errorf("square pixel: got %+v, want blue", out.At(6, 6))
	}
}

func TestHandleToolsCall_CleanLogoUnknownPreset(t *testing.T) {
	s := newTestServer(t)
	imgPath := writeBuffer(t, createLogo())

	resp := callTool(t, s, "pixel_clean_logo", map[string]interface{}{
		"path":   imgPath,
		"preset": "logo-fancy",
	})
	if resp.Error == nil {
		t.Fatal("Expected error for unknown preset")
	}
	data, _ := resp.Error.Data.(string)
	if !strings.Contains(data, "unknown preset") {
		t.Errorf("Error data: got %q", data)
	}
}

func TestHandleToolsCall_CleanLogoUnknownSkip(t *testing.T) {
	s := newTestServer(t)
	imgPath := writeBuffer(t, createLogo())

	resp := callTool(t, s, "pixel_clean_logo", map[string]interface{}{
		"path":   imgPath,
		"preset": "logo-standard",
		"skip":   []string{"colour"},
	})
	if resp.Error == nil {
		t.Fatal("Expected error for a misspelled stage")
	}
	data, _ := resp.Error.Data.(string)
	if !strings.Contains(data, "unknown stage") || !strings.Contains(data, "colour") {
		t.Errorf("Error data: got %q", data)
	}
}

func TestHandleToolsCall_CleanLogoThroughPool(t *testing.T) {
	pooled := NewWithConfig(Config{Workers: 2, OffloadPixels: 1})
	defer pooled.Close()
	local := NewWithConfig(Config{Workers: -1})
	defer local.Close()

	imgPath := writeBuffer(t, createLogo())
	args := map[string]interface{}{"path": imgPath, "preset": "logo-aggressive"}

	var a, b CleanLogoResult
	decodeContent(t, callTool(t, pooled, "pixel_clean_logo", args), &a)
	decodeContent(t, callTool(t, local, "pixel_clean_logo", args), &b)

	if a.ImageBase64 != b.ImageBase64 {
		t.Error("pool and local execution should produce identical images")
	}
}

func TestHandleToolsCall_Compare(t *testing.T) {
	s := newTestServer(t)
	before := createLogo()
	after := before.Clone()
	after.Clear(1, 1)
	after.Set(4, 4, blue)
	beforePath := writeBuffer(t, before)
	afterPath := writeBuffer(t, after)

	var diff imageio.DiffResult
	decodeContent(t, callTool(t, s, "pixel_compare", map[string]interface{}{
		"path":       beforePath,
		"other_path": afterPath,
	}), &diff)

	if diff.ChangedPixels != 2 || diff.AlphaChanged != 1 {
		t.Errorf("got %+v, want 2 changed and 1 alpha flip", diff)
	}
	if diff.Bounds == nil || *diff.Bounds != (raster.Rect{MinX: 1, MinY: 1, MaxX: 4, MaxY: 4}) {
		t.Errorf("bounds: got %+v", diff.Bounds)
	}
}

func TestHandleToolsCall_ListPresets(t *testing.T) {
	s := newTestServer(t)

	var presets []cleaner.PresetInfo
	decodeContent(t, callTool(t, s, "pixel_list_presets", map[string]interface{}{}), &presets)

	if len(presets) != 6 {
		t.Fatalf("got %d presets, want 6", len(presets))
	}
	if presets[0].Name != cleaner.LogoMinimal {
		t.Errorf("first preset: got %s", presets[0].Name)
	}
}

func TestExecuteTool_AllTools(t *testing.T) {
	s := newTestServer(t)
	imgPath := writeBuffer(t, createLogo())

	// Test each tool to ensure executeTool correctly dispatches
	toolTests := []struct {
		name string
		args map[string]interface{}
	}{
		{"image_load", map[string]interface{}{"path": imgPath}},
		{"pixel_unique_colors", map[string]interface{}{"path": imgPath}},
		{"pixel_find_components", map[string]interface{}{"path": imgPath}},
		{"pixel_find_contours", map[string]interface{}{"path": imgPath}},
		{"pixel_compare", map[string]interface{}{"path": imgPath, "other_path": imgPath}},
		{"pixel_remove_strays", map[string]interface{}{"path": imgPath, "mode": "merge"}},
		{"pixel_reduce_colors", map[string]interface{}{"path": imgPath, "mode": "quantize", "colors": 2}},
		{"pixel_crispen_edges", map[string]interface{}{"path": imgPath, "method": "erode"}},
		{"pixel_smooth_edges", map[string]interface{}{"path": imgPath, "preset": "pixel-perfect"}},
		{"pixel_normalize_lines", map[string]interface{}{"path": imgPath, "target_width": 3}},
		{"pixel_perfect_outline", map[string]interface{}{"path": imgPath, "close_gaps": true, "smooth_curves": true}},
		{"pixel_morphology", map[string]interface{}{"path": imgPath, "operation": "open"}},
		{"pixel_clean_logo", map[string]interface{}{"path": imgPath, "preset": "game-asset"}},
		{"pixel_list_presets", map[string]interface{}{}},
	}

	for _, tt := range toolTests {
		t.Run(tt.name, func(t *testing.T) {
			argsJSON, _ := json.Marshal(tt.args)
			result, err := s.executeTool(tt.name, argsJSON)
			if err != nil {
				t.Fatalf("executeTool(%s) failed: %v", tt.name, err)
			}
			if result == nil {
				t.Errorf("executeTool(%s) returned nil result", tt.name)
			}
		})
	}
}

func TestExecuteTool_UnknownTool(t *testing.T) {
	s := newTestServer(t)

	_, err := s.executeTool("unknown_tool", json.RawMessage(`{}`))
	if err == nil {
		t.Error("executeTool should fail for unknown tool")
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	s := newTestServer(t)

	_, err := s.executeTool("image_load", json.RawMessage(`{invalid`))
	if err == nil {
		t.Error("executeTool should fail for invalid JSON")
	}
}
