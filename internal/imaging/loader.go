package imaging

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
	"golang.org/x/sync/singleflight"
)

// Source is a decoded image file.
//
// Intensity grids derived from it are computed once per gray model and
// handed out to every caller, so they must be treated as read-only, like
// any other Image.
type Source struct {
	// Path is the path the file was opened with.
	Path string

	// Format is the decoder that read the file: "png", "jpeg", "gif",
	// "bmp", "tiff" or "webp". It comes from the file contents, not the
	// extension.
	Format string

	// Image is the decoded image.
	Image image.Image

	// FileSizeBytes is the size of the file on disk.
	FileSizeBytes int64

	mu    sync.Mutex
	grids map[string]*Image
}

// Bounds returns the bounds of the decoded image.
func (s *Source) Bounds() image.Rectangle {
	return s.Image.Bounds()
}

// Intensity returns the float intensity grid for the given gray model
// ("luma" or "lightness"), converting on first use.
func (s *Source) Intensity(model string) (*Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g, ok := s.grids[model]; ok {
		return g, nil
	}
	g, err := FromImage(s.Image, model)
	if err != nil {
		return nil, err
	}
	if s.grids == nil {
		s.grids = make(map[string]*Image)
	}
	s.grids[model] = g
	return g, nil
}

// ImageInfo describes a decoded image file.
type ImageInfo struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`

	// ColorDepth is "16-bit" for 16-bit-per-channel images, "8-bit"
	// otherwise.
	ColorDepth string `json:"color_depth"`

	HasAlpha      bool  `json:"has_alpha"`
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// Info reports the dimensions, format and pixel layout of the source.
func (s *Source) Info() ImageInfo {
	hasAlpha := false
	colorDepth := "8-bit"
	switch s.Image.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	}

	b := s.Bounds()
	return ImageInfo{
		Width:         b.Dx(),
		Height:        b.Dy(),
		Format:        s.Format,
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		FileSizeBytes: s.FileSizeBytes,
	}
}

// Dimensions is the width and height of an image.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Dimensions returns the width and height of the source.
func (s *Source) Dimensions() Dimensions {
	b := s.Bounds()
	return Dimensions{Width: b.Dx(), Height: b.Dy()}
}

// ImageCache keeps decoded image files, and the intensity grids derived
// from them, keyed by the exact path string they were opened with.
//
// Concurrent Open calls for the same uncached path decode the file once.
// Entries stay until Evict is called.
type ImageCache struct {
	mu      sync.RWMutex
	sources map[string]*Source
	loads   singleflight.Group
}

// NewImageCache creates an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		sources: make(map[string]*Source),
	}
}

// Open returns the cached source for path, decoding the file on first use.
func (c *ImageCache) Open(path string) (*Source, error) {
	c.mu.RLock()
	src, ok := c.sources[path]
	c.mu.RUnlock()
	if ok {
		return src, nil
	}

	v, err, _ := c.loads.Do(path, func() (interface{}, error) {
		src, err := decodeFile(path)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.sources[path] = src
		c.mu.Unlock()
		return src, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Source), nil
}

// Evict drops path from the cache. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.sources, path)
	c.mu.Unlock()
}

func decodeFile(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return &Source{
		Path:          path,
		Format:        format,
		Image:         img,
		FileSizeBytes: stat.Size(),
	}, nil
}
