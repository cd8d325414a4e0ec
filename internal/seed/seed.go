// Package seed derives the k-means seed for an analysis so that repeated runs
// over the same scene produce the same segmentation.
package seed

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jmylchreest/landtint/internal/image"
	"github.com/jmylchreest/landtint/internal/segment"
)

// Mode determines how the seed is derived.
type Mode string

const (
	// ModeContent hashes the decoded pixels (default).
	ModeContent Mode = "content"
	// ModeFilepath hashes the absolute source path or URL.
	ModeFilepath Mode = "filepath"
	// ModeManual uses a user-provided value.
	ModeManual Mode = "manual"
	// ModeRandom draws a fresh seed on every run.
	ModeRandom Mode = "random"
)

// Config holds seed settings.
type Config struct {
	Mode  Mode
	Value *int64 // only used by ModeManual
}

// Resolve returns the seed for an analysis of img loaded from source.
func Resolve(img *segment.Image, source string, cfg Config) (int64, error) {
	switch cfg.Mode {
	case ModeContent, "":
		return FromContent(img)
	case ModeFilepath:
		return FromPath(source)
	case ModeManual:
		if cfg.Value == nil {
			return 0, fmt.Errorf("seed value is required for manual seed mode")
		}
		return *cfg.Value, nil
	case ModeRandom:
		return Random(), nil
	default:
		return 0, fmt.Errorf("unknown seed mode: %s", cfg.Mode)
	}
}

// FromContent hashes the image dimensions and every pixel. Identical pixel
// data yields the same seed regardless of file name or encoding.
func FromContent(img *segment.Image) (int64, error) {
	if img == nil || len(img.Pix) == 0 {
		return 0, fmt.Errorf("image is required for content seed mode")
	}

	hasher := sha256.New()
	var dims [8]byte
	binary.LittleEndian.PutUint32(dims[0:4], uint32(img.Width))  // #nosec G115 -- dimensions are positive
	binary.LittleEndian.PutUint32(dims[4:8], uint32(img.Height)) // #nosec G115 -- dimensions are positive
	hasher.Write(dims[:])
	hasher.Write(img.Pix)

	return sum64(hasher.Sum(nil)), nil
}

// FromPath hashes the absolute path of source. URLs are hashed as given.
func FromPath(source string) (int64, error) {
	if source == "" {
		return 0, fmt.Errorf("image path is required for filepath seed mode")
	}

	key := source
	if !image.IsURL(source) {
		if abs, err := filepath.Abs(source); err == nil {
			key = abs
		}
	}

	h := sha256.Sum256([]byte(key))
	return sum64(h[:]), nil
}

// Random returns a non-deterministic seed.
func Random() int64 {
	return rand.Int64() // #nosec G404 -- seed selection, not security sensitive
}

func sum64(hash []byte) int64 {
	return int64(binary.LittleEndian.Uint64(hash[:8])) // #nosec G115 -- hash truncation
}

// ValidModes returns the accepted seed modes.
func ValidModes() []Mode {
	return []Mode{ModeContent, ModeFilepath, ModeManual, ModeRandom}
}

// ParseMode converts a string to a Mode.
func ParseMode(s string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(ValidModes(), mode) {
		return mode, nil
	}
	return "", fmt.Errorf("invalid seed mode: %s (valid: content, filepath, manual, random)", s)
}
