// Package image loads source imagery from disk or HTTP(S) and writes results.
package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "golang.org/x/image/bmp"  // Register BMP format
	_ "golang.org/x/image/tiff" // Register TIFF format (GeoTIFF exports)
	_ "golang.org/x/image/webp" // Register WebP format

	httputil "github.com/jmylchreest/landtint/internal/util/http"
)

// Loader handles loading images from various sources.
type Loader interface {
	// Load loads an image from the given path.
	Load(path string) (image.Image, error)
}

// FileLoader loads images from the local filesystem.
type FileLoader struct{}

// NewFileLoader creates a new FileLoader instance.
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load loads an image from a file path.
// Supported formats: JPEG, PNG, GIF, WebP, TIFF, BMP.
func (l *FileLoader) Load(path string) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("image path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image (format: %s): %w", format, err)
	}

	return img, nil
}

// Decode decodes an image held in memory, e.g. an HTTP upload.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("image data is empty")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, format, fmt.Errorf("failed to decode image (format: %s): %w", format, err)
	}
	return img, format, nil
}

// ErrTooManyPixels is returned by DecodeLimited when an image's declared
// dimensions exceed the pixel budget.
var ErrTooManyPixels = errors.New("image has too many pixels")

// DecodeLimited decodes data like Decode, but first reads the header and
// rejects images with more than maxPixels pixels. maxPixels <= 0 disables the
// check.
func DecodeLimited(data []byte, maxPixels int64) (image.Image, string, error) {
	if maxPixels > 0 && len(data) > 0 {
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, format, fmt.Errorf("failed to decode image config (format: %s): %w", format, err)
		}
		if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > maxPixels {
			return nil, format, fmt.Errorf("%w: %dx%d exceeds %d", ErrTooManyPixels, cfg.Width, cfg.Height, maxPixels)
		}
	}
	return Decode(data)
}

// IsURL reports whether path is an HTTP(S) URL.
func IsURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// ValidateImagePath checks that path is an HTTP(S) URL or a local file in a
// supported format. URLs are not fetched here to avoid double-fetching.
func ValidateImagePath(path string) error {
	if path == "" {
		return fmt.Errorf("image path cannot be empty")
	}
	if IsURL(path) {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("image file not found: %s", path)
		}
		return fmt.Errorf("failed to access image path: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	if _, _, err := image.DecodeConfig(file); err != nil {
		return fmt.Errorf("unsupported or invalid image format: %w", err)
	}
	return nil
}

// SupportedImageExtensions returns a list of supported image file extensions.
func SupportedImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".tif", ".tiff", ".bmp"}
}

// IsImageFile checks if a file has a supported image extension.
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(SupportedImageExtensions(), ext)
}

// GetImageDimensions returns the width and height of an image without fully loading it.
func GetImageDimensions(path string) (width, height int, err error) {
	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image config: %w", err)
	}

	return config.Width, config.Height, nil
}

// SmartLoader loads images from both local files and HTTP(S) URLs.
type SmartLoader struct {
	fileLoader *FileLoader
	fetch      httputil.FetchOptions
}

// NewSmartLoader creates a new SmartLoader instance.
func NewSmartLoader() *SmartLoader {
	return &SmartLoader{
		fileLoader: NewFileLoader(),
	}
}

// Load loads an image from either a local file path or HTTP(S) URL.
func (l *SmartLoader) Load(path string) (image.Image, error) {
	if IsURL(path) {
		return l.LoadURL(context.Background(), path)
	}
	return l.fileLoader.Load(path)
}

// LoadURL fetches and decodes an image from an HTTP(S) URL.
func (l *SmartLoader) LoadURL(ctx context.Context, url string) (image.Image, error) {
	data, err := httputil.Fetch(ctx, url, l.fetch)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image from URL: %w", err)
	}

	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// AnalysisPath returns the default dashboard path for a source image:
// the source path with its extension replaced by "_analysis.png".
func AnalysisPath(source string) string {
	base := strings.TrimSuffix(source, filepath.Ext(source))
	return base + "_analysis.png"
}

// SavePNG encodes img as PNG at path, creating parent directories.
func SavePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil { // #nosec G301 - Output directory needs standard permissions
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path) // #nosec G304 - User-specified output path
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}

	encErr := png.Encode(file, img)
	closeErr := file.Close()
	if encErr != nil {
		return fmt.Errorf("failed to encode PNG: %w", encErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close image file: %w", closeErr)
	}
	return nil
}

// EncodePNG encodes img as PNG in memory.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
