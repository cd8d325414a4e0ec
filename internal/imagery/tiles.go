// Package imagery fetches satellite imagery for a coordinate by downloading
// and stitching web-mercator map tiles.
package imagery

import (
	"context"
	"fmt"
	goimage "image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/landtint/internal/image"
	"github.com/jmylchreest/landtint/internal/security"
	"github.com/jmylchreest/landtint/internal/util/imagecache"
)

const (
	// WorldImageryURL is the Esri World Imagery tile endpoint.
	WorldImageryURL = "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}"

	// DefaultZoom matches the map view the imagery is usually captured at.
	DefaultZoom = 13

	// MaxZoom is the deepest zoom level accepted.
	MaxZoom = 19

	// MaxRadius bounds the tile grid to (2*MaxRadius+1)^2 tiles.
	MaxRadius = 4

	// maxMercatorLat is the latitude limit of the web-mercator projection.
	maxMercatorLat = 85.05112878
)

// Tile identifies one web-mercator tile.
type Tile struct {
	X, Y, Z int
}

// URL expands a tile template containing {z}, {x} and {y}.
func (t Tile) URL(template string) string {
	r := strings.NewReplacer(
		"{z}", strconv.Itoa(t.Z),
		"{x}", strconv.Itoa(t.X),
		"{y}", strconv.Itoa(t.Y),
	)
	return r.Replace(template)
}

// ValidateCoordinates checks latitude and longitude ranges.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %v", lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %v", lon)
	}
	return nil
}

// TileAt returns the tile containing the coordinate at the given zoom.
// Latitudes beyond the mercator limit are clamped.
func TileAt(lat, lon float64, zoom int) (Tile, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return Tile{}, err
	}
	if zoom < 0 || zoom > MaxZoom {
		return Tile{}, fmt.Errorf("zoom must be between 0 and %d, got %d", MaxZoom, zoom)
	}

	lat = max(-maxMercatorLat, min(maxMercatorLat, lat))
	n := 1 << zoom
	latRad := lat * math.Pi / 180

	x := int(math.Floor((lon + 180) / 360 * float64(n)))
	y := int(math.Floor((1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * float64(n)))

	return Tile{X: min(max(x, 0), n-1), Y: min(max(y, 0), n-1), Z: zoom}, nil
}

// FileName returns the conventional file name for imagery at a coordinate.
func FileName(lat, lon float64) string {
	return fmt.Sprintf("satellite-%.4f-%.4f.png", lat, lon)
}

// Options configures a Fetcher.
type Options struct {
	// TemplateURL is the tile URL template. Defaults to WorldImageryURL.
	TemplateURL string

	Zoom int

	// Radius is the number of tiles fetched on each side of the centre tile.
	Radius int

	Cache imagecache.CacheOptions

	// AllowPrivateHosts skips the HTTPS/public-host check on the template.
	AllowPrivateHosts bool

	Logger hclog.Logger
}

// Fetcher downloads and stitches tiles.
type Fetcher struct {
	opts   Options
	loader *image.FileLoader
	logger hclog.Logger
}

// NewFetcher validates opts and returns a Fetcher.
func NewFetcher(opts Options) (*Fetcher, error) {
	if opts.TemplateURL == "" {
		opts.TemplateURL = WorldImageryURL
	}
	for _, p := range []string{"{z}", "{x}", "{y}"} {
		if !strings.Contains(opts.TemplateURL, p) {
			return nil, fmt.Errorf("tile URL template must contain %s", p)
		}
	}
	if !opts.AllowPrivateHosts {
		probe := Tile{}.URL(opts.TemplateURL)
		if err := security.ValidateHTTPURL(probe); err != nil {
			return nil, fmt.Errorf("invalid tile URL template: %w", err)
		}
	}
	if opts.Radius < 0 || opts.Radius > MaxRadius {
		return nil, fmt.Errorf("radius must be between 0 and %d, got %d", MaxRadius, opts.Radius)
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Fetcher{opts: opts, loader: image.NewFileLoader(), logger: logger}, nil
}

// Fetch returns the stitched imagery centred on the coordinate's tile.
// Columns wrap around the antimeridian; rows beyond the poles are skipped.
func (f *Fetcher) Fetch(ctx context.Context, lat, lon float64) (goimage.Image, error) {
	centre, err := TileAt(lat, lon, f.opts.Zoom)
	if err != nil {
		return nil, err
	}

	n := 1 << centre.Z
	r := f.opts.Radius
	minRow := max(centre.Y-r, 0)
	maxRow := min(centre.Y+r, n-1)
	cols := min(2*r+1, n)
	rows := maxRow - minRow + 1

	f.logger.Debug("fetching tiles", "lat", lat, "lon", lon, "zoom", centre.Z,
		"centre_x", centre.X, "centre_y", centre.Y, "cols", cols, "rows", rows)

	var canvas *goimage.NRGBA
	tileW, tileH := 0, 0
	for row := range rows {
		for col := range cols {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			t := Tile{
				X: ((centre.X-r+col)%n + n) % n,
				Y: minRow + row,
				Z: centre.Z,
			}
			img, err := f.fetchTile(ctx, t)
			if err != nil {
				return nil, err
			}
			if canvas == nil {
				tileW, tileH = img.Bounds().Dx(), img.Bounds().Dy()
				canvas = imaging.New(tileW*cols, tileH*rows, color.Black)
			}
			if img.Bounds().Dx() != tileW || img.Bounds().Dy() != tileH {
				img = imaging.Resize(img, tileW, tileH, imaging.Lanczos)
			}
			canvas = imaging.Paste(canvas, img, goimage.Pt(col*tileW, row*tileH))
		}
	}

	return canvas, nil
}

func (f *Fetcher) fetchTile(ctx context.Context, t Tile) (goimage.Image, error) {
	url := t.URL(f.opts.TemplateURL)
	path, err := imagecache.DownloadAndCache(ctx, url, f.opts.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tile %d/%d/%d: %w", t.Z, t.Y, t.X, err)
	}
	img, err := f.loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load tile %d/%d/%d: %w", t.Z, t.Y, t.X, err)
	}
	f.logger.Trace("tile ready", "z", t.Z, "x", t.X, "y", t.Y, "path", path)
	return img, nil
}
