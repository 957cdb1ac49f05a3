package imageio

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/pixel-cleanup/internal/colormodel"
	"github.com/ironsheep/pixel-cleanup/internal/raster"
)

// Cache keeps decoded buffers by path so repeated tool calls on the same
// file skip disk I/O and decoding.
//
// Cache is safe for concurrent use. Entries stay until Evict or Clear.
// Buffers handed out by Load are shared: callers must treat them as
// read-only, which every cleanup operation does.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	buf    *raster.Buffer
	format string
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

// Load returns the buffer for path, decoding the file on first use.
func (c *Cache) Load(path string) (*raster.Buffer, error) {
	e, err := c.load(path)
	if err != nil {
		return nil, err
	}
	return e.buf, nil
}

func (c *Cache) load(path string) (entry, error) {
	c.mu.RLock()
	if e, ok := c.entries[path]; ok {
		c.mu.RUnlock()
		return e, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return entry{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return entry{}, fmt.Errorf("failed to decode image: %w", err)
	}

	e := entry{buf: raster.FromImage(img), format: format}
	c.mu.Lock()
	c.entries[path] = e
	c.mu.Unlock()
	return e, nil
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Evict drops the entry for path, if any. The next Load rereads the file,
// which is how callers pick up a file rewritten on disk.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// Info describes a loaded image.
type Info struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is the decoder name reported by image.Decode, e.g. "png".
	Format string `json:"format"`

	// UniqueColors counts distinct opaque colours (alpha >= 128).
	UniqueColors int `json:"unique_colors"`

	// TransparentPixels counts samples with alpha 0; SoftPixels those
	// with alpha strictly between 0 and 255.
	TransparentPixels int `json:"transparent_pixels"`
	SoftPixels        int `json:"soft_pixels"`

	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadInfo loads path through the cache and summarises it.
func (c *Cache) LoadInfo(path string) (*Info, error) {
	e, err := c.load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	info := &Info{
		Width:         e.buf.Width,
		Height:        e.buf.Height,
		Format:        e.format,
		UniqueColors:  len(colormodel.ExtractUniqueColors(e.buf)),
		FileSizeBytes: stat.Size(),
	}
	for i := 3; i < len(e.buf.Pix); i += 4 {
		switch a := e.buf.Pix[i]; {
		case a == 0:
			info.TransparentPixels++
		case a < 255:
			info.SoftPixels++
		}
	}
	return info, nil
}
