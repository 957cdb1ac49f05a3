package imageio

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/bmp"

	"github.com/ironsheep/pixel-cleanup/internal/raster"
)

var (
	red  = raster.Color{R: 255, A: 255}
	soft = raster.Color{G: 200, A: 100}
)

// decodePreview parses the base64 PNG of an Encode result.
func decodePreview(t *testing.T, b64 string) *raster.Buffer {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode image: %v", err)
	}
	return raster.FromImage(img)
}

func createTestBuffer() *raster.Buffer {
	b := raster.New(6, 4)
	for y := 1; y <= 2; y++ {
		for x := 1; x <= 3; x++ {
			b.Set(x, y, red)
		}
	}
	b.Set(5, 3, soft)
	return b
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.png")
	src := createTestBuffer()
	if err := Save(src, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	cache := NewCache()
	got, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(src.Pix, got.Pix); diff != "" {
		t.Errorf("pixels changed on round trip (-want +got):\n%s", diff)
	}

	again, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if again != got {
		t.Error("second Load did not come from the cache")
	}

	cache.Evict(path)
	fresh, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load after Evict failed: %v", err)
	}
	if fresh == got {
		t.Error("Evict did not drop the entry")
	}
}

func TestLoad_BMP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sprite.bmp")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	opaque := raster.New(3, 2)
	opaque.Set(1, 1, red)
	for i := 3; i < len(opaque.Pix); i += 4 {
		opaque.Pix[i] = 255
	}
	if err := bmp.Encode(f, opaque.ToNRGBA()); err != nil {
		f.Close()
		t.Fatalf("bmp.Encode failed: %v", err)
	}
	f.Close()

	info, err := NewCache().LoadInfo(path)
	if err != nil {
		t.Fatalf("LoadInfo failed: %v", err)
	}
	want := Info{Width: 3, Height: 2, Format: "bmp", UniqueColors: 2, FileSizeBytes: info.FileSizeBytes}
	if diff := cmp.Diff(want, *info); diff != "" {
		t.Errorf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadInfo_Alpha(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.png")
	if err := Save(createTestBuffer(), path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := NewCache().LoadInfo(path)
	if err != nil {
		t.Fatalf("LoadInfo failed: %v", err)
	}
	if info.Format != "png" {
		t.Errorf("format: got %q, want png", info.Format)
	}
	if info.UniqueColors != 1 {
		t.Errorf("unique colors: got %d, want 1", info.UniqueColors)
	}
	if info.TransparentPixels != 17 || info.SoftPixels != 1 {
		t.Errorf("alpha counts: got %d transparent, %d soft; want 17, 1", info.TransparentPixels, info.SoftPixels)
	}
}

func TestLoad_Errors(t *testing.T) {
	cache := NewCache()
	if _, err := cache.Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "junk.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := cache.Load(path); err == nil {
		t.Error("expected error for undecodable file")
	}
}

func TestCache_Concurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.png")
	if err := Save(createTestBuffer(), path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	cache := NewCache()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				t.Errorf("Load failed: %v", err)
			}
			if i%4 == 0 {
				cache.Clear()
			}
		}(i)
	}
	wg.Wait()
}

func TestEncode(t *testing.T) {
	src := createTestBuffer()

	tests := []struct {
		name       string
		opts       PreviewOptions
		wantWidth  int
		wantHeight int
	}{
		{"native", PreviewOptions{}, 6, 4},
		{"scale 1", PreviewOptions{Scale: 1}, 6, 4},
		{"scale 4", PreviewOptions{Scale: 4}, 24, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Encode(src, tt.opts)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if res.Width != tt.wantWidth || res.Height != tt.wantHeight {
				t.Errorf("size: got %dx%d, want %dx%d", res.Width, res.Height, tt.wantWidth, tt.wantHeight)
			}
			if res.MimeType != "image/png" {
				t.Errorf("mime type: got %q", res.MimeType)
			}

			decoded := decodePreview(t, res.ImageBase64)
			scale := max(tt.opts.Scale, 1)
			for y := 0; y < src.Height; y++ {
				for x := 0; x < src.Width; x++ {
					if got, want := decoded.At(x*scale, y*scale), src.At(x, y); got != want {
						t.Errorf("pixel (%d,%d): got %+v, want %+v", x, y, got, want)
					}
				}
			}
		})
	}
}

func TestEncode_Grid(t *testing.T) {
	gridColor := raster.Color{R: 1, G: 2, B: 3, A: 255}
	res, err := Encode(createTestBuffer(), PreviewOptions{Scale: 4, Grid: true, GridColor: &gridColor})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded := decodePreview(t, res.ImageBase64)

	if got := decoded.At(4, 1); got != gridColor {
		t.Errorf("grid line: got %+v, want %+v", got, gridColor)
	}
	if got := decoded.At(5, 5); got != red {
		t.Errorf("pixel interior: got %+v, want %+v", got, red)
	}
}

func TestEncode_InvalidScale(t *testing.T) {
	if _, err := Encode(createTestBuffer(), PreviewOptions{Scale: MaxPreviewScale + 1}); err == nil {
		t.Error("expected error for oversized scale")
	}
}

func TestCompare(t *testing.T) {
	before := createTestBuffer()
	after := before.Clone()
	after.Clear(5, 3)
	after.Set(2, 1, raster.Color{R: 250, G: 5, B: 5, A: 255})
	after.Set(0, 0, red)

	got, err := Compare(before, after)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	if got.TotalPixels != 24 || got.ChangedPixels != 3 {
		t.Errorf("counts: got %d/%d, want 3/24", got.ChangedPixels, got.TotalPixels)
	}
	// (5,3) was below the alpha line already, so only (0,0) flips.
	if got.AlphaChanged != 1 {
		t.Errorf("alpha changed: got %d, want 1", got.AlphaChanged)
	}
	if got.MeanDeltaE <= 0 || got.MeanDeltaE > 5 {
		t.Errorf("mean Delta-E: got %v, want a small positive value", got.MeanDeltaE)
	}
	wantBounds := &raster.Rect{MinX: 0, MinY: 0, MaxX: 5, MaxY: 3}
	if diff := cmp.Diff(wantBounds, got.Bounds); diff != "" {
		t.Errorf("bounds mismatch (-want +got):\n%s", diff)
	}
	if got.SimilarityScore != 0.875 {
		t.Errorf("similarity: got %v, want 0.875", got.SimilarityScore)
	}
}

func TestCompare_Identical(t *testing.T) {
	b := createTestBuffer()
	got, err := Compare(b, b.Clone())
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if got.ChangedPixels != 0 || got.Bounds != nil || got.SimilarityScore != 1 {
		t.Errorf("identical buffers: got %+v", got)
	}
}

func TestCompare_SizeMismatch(t *testing.T) {
	if _, err := Compare(raster.New(2, 2), raster.New(3, 2)); err == nil {
		t.Error("expected error for mismatched sizes")
	}
}
