package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/landtint/internal/analysis"
	"github.com/jmylchreest/landtint/internal/imagery"
	"github.com/jmylchreest/landtint/internal/image"
	"github.com/jmylchreest/landtint/internal/seed"
	"github.com/jmylchreest/landtint/internal/segment"
	"github.com/jmylchreest/landtint/internal/util/imagecache"
)

// clusterFlags are shared by analyse and serve.
type clusterFlags struct {
	clusters      int
	maxIterations int
	epsilon       float64
	restarts      int
	workers       int
	seedMode      string
	seed          int64
	masks         int
}

func (f *clusterFlags) register(fs *pflag.FlagSet) {
	fs.IntVarP(&f.clusters, "clusters", "k", segment.DefaultClusters, "number of colour clusters (K)")
	fs.IntVar(&f.maxIterations, "max-iterations", segment.DefaultMaxIterations, "maximum k-means iterations per restart")
	fs.Float64Var(&f.epsilon, "epsilon", segment.DefaultEpsilon, "convergence threshold on total squared centroid movement")
	fs.IntVar(&f.restarts, "restarts", segment.DefaultRestarts, "independent k-means restarts; lowest inertia wins")
	fs.IntVar(&f.workers, "workers", 0, "restarts run concurrently (default: GOMAXPROCS)")
	fs.StringVar(&f.seedMode, "seed-mode", string(seed.ModeContent), "seed mode (content, filepath, manual, random)")
	fs.Int64Var(&f.seed, "seed", 0, "seed value; implies --seed-mode manual")
	fs.IntVar(&f.masks, "masks", segment.DefaultMaskCount, "number of largest clusters to extract masks for")
}

// options converts the flags into analysis options.
func (f *clusterFlags) options(fs *pflag.FlagSet, logger hclog.Logger) (analysis.Options, error) {
	mode, err := seed.ParseMode(f.seedMode)
	if err != nil {
		return analysis.Options{}, err
	}
	seedCfg := seed.Config{Mode: mode}
	if fs.Changed("seed") {
		if fs.Changed("seed-mode") && mode != seed.ModeManual {
			return analysis.Options{}, fmt.Errorf("--seed requires --seed-mode manual, got %s", mode)
		}
		v := f.seed
		seedCfg = seed.Config{Mode: seed.ModeManual, Value: &v}
	}
	if f.epsilon < 0 {
		return analysis.Options{}, fmt.Errorf("epsilon must not be negative, got %v", f.epsilon)
	}
	if f.maxIterations < 1 || f.restarts < 1 {
		return analysis.Options{}, fmt.Errorf("max-iterations and restarts must be at least 1")
	}

	opts := analysis.DefaultOptions()
	opts.Seed = seedCfg
	opts.Logger = logger
	opts.Segment.Clusters = f.clusters
	opts.Segment.MaskCount = f.masks
	opts.Segment.Cluster.MaxIterations = f.maxIterations
	opts.Segment.Cluster.Epsilon = f.epsilon
	opts.Segment.Cluster.Restarts = f.restarts
	if f.workers > 0 {
		opts.Segment.Cluster.Workers = f.workers
	}
	return opts, nil
}

// imageryFlags select imagery by coordinate. Shared by fetch and analyse.
type imageryFlags struct {
	lat, lon float64
	zoom     int
	radius   int
	cacheDir string
	tileURL  string
	fetchDir string
}

func (f *imageryFlags) register(fs *pflag.FlagSet) {
	fs.Float64Var(&f.lat, "lat", 0, "latitude of the scene centre (-90 to 90)")
	fs.Float64Var(&f.lon, "lon", 0, "longitude of the scene centre (-180 to 180)")
	fs.IntVar(&f.zoom, "zoom", imagery.DefaultZoom, "tile zoom level")
	fs.IntVar(&f.radius, "radius", 1, "tiles fetched on each side of the centre tile")
	fs.StringVar(&f.cacheDir, "cache-dir", "", "tile cache directory (default: user cache dir)")
	fs.StringVar(&f.tileURL, "tile-url", imagery.WorldImageryURL, "tile URL template with {z}, {y} and {x}")
	fs.StringVar(&f.fetchDir, "fetch-dir", ".", "directory the stitched imagery is written to")
}

// requested reports whether a coordinate was given.
func (f *imageryFlags) requested(fs *pflag.FlagSet) bool {
	return fs.Changed("lat") || fs.Changed("lon")
}

// fetch downloads and stitches imagery and returns the path it was saved to.
func (f *imageryFlags) fetch(ctx context.Context, fs *pflag.FlagSet, logger hclog.Logger) (string, error) {
	if !fs.Changed("lat") || !fs.Changed("lon") {
		return "", fmt.Errorf("both --lat and --lon are required")
	}
	if err := imagery.ValidateCoordinates(f.lat, f.lon); err != nil {
		return "", err
	}

	fetcher, err := imagery.NewFetcher(imagery.Options{
		TemplateURL: f.tileURL,
		Zoom:        f.zoom,
		Radius:      f.radius,
		Cache:       imagecache.CacheOptions{CacheDir: f.cacheDir},
		Logger:      logger.Named("imagery"),
	})
	if err != nil {
		return "", err
	}

	img, err := fetcher.Fetch(ctx, f.lat, f.lon)
	if err != nil {
		return "", fmt.Errorf("failed to fetch imagery: %w", err)
	}

	path := filepath.Join(f.fetchDir, imagery.FileName(f.lat, f.lon))
	if err := image.SavePNG(path, img); err != nil {
		return "", fmt.Errorf("failed to save imagery: %w", err)
	}
	logger.Info("saved imagery", "path", path, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return path, nil
}
