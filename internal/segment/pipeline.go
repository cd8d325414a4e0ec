package segment

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
)

const (
	// DefaultClusters is the K used when the caller does not pick one.
	DefaultClusters = 4

	// DefaultMaskCount is how many of the largest clusters get masks.
	DefaultMaskCount = 3
)

// Options configures a full pipeline run.
type Options struct {
	Clusters  int
	Seed      int64
	MaskCount int
	Cluster   Config
	Logger    hclog.Logger
}

// DefaultOptions returns options matching the command-line defaults.
func DefaultOptions() Options {
	return Options{
		Clusters:  DefaultClusters,
		MaskCount: DefaultMaskCount,
		Cluster:   DefaultConfig(),
	}
}

// Result holds everything one pipeline run produced.
type Result struct {
	Image      *Image
	Clustering *Clustering
	Segmented  *Image
	Coverage   *Coverage
	Masks      []*ClusterMask
	Report     *Report
	Seed       int64
}

// Run clusters img and derives the segmented image, coverage, masks for the
// largest clusters and the report.
func Run(ctx context.Context, img *Image, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if opts.MaskCount < 0 {
		opts.MaskCount = 0
	}

	samples, err := Samples(img)
	if err != nil {
		return nil, err
	}
	logger.Debug("built samples", "width", img.Width, "height", img.Height, "samples", len(samples))

	cfg := opts.Cluster
	if cfg.Logger == nil {
		cfg.Logger = logger.Named("kmeans")
	}
	clustering, err := NewClusterer(cfg).Cluster(ctx, samples, opts.Clusters, opts.Seed)
	if err != nil {
		return nil, err
	}

	segmented, err := Reconstruct(clustering.Labels, clustering.Centroids, img.Height, img.Width)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct segmented image: %w", err)
	}

	coverage, err := AnalyzeCoverage(clustering.Labels, clustering.K())
	if err != nil {
		return nil, fmt.Errorf("failed to analyse coverage: %w", err)
	}

	masks := make([]*ClusterMask, 0, opts.MaskCount)
	for _, id := range coverage.Top(opts.MaskCount) {
		m, err := ExtractMask(clustering.Labels, img, id, clustering.K())
		if err != nil {
			return nil, fmt.Errorf("failed to extract mask for cluster %d: %w", id, err)
		}
		masks = append(masks, m)
	}

	report := Assemble(coverage, clustering).WithSpread(samples, clustering)
	for _, c := range report.Clusters {
		logger.Debug("cluster", "id", c.ClusterID, "percentage", c.Percentage,
			"pixels", c.PixelCount, "colour", c.Color.String())
	}

	return &Result{
		Image:      img,
		Clustering: clustering,
		Segmented:  segmented,
		Coverage:   coverage,
		Masks:      masks,
		Report:     report,
		Seed:       opts.Seed,
	}, nil
}
