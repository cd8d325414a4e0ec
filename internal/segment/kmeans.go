package segment

import (
	"context"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/landtint/internal/colour"
)

const (
	// DefaultMaxIterations bounds the number of assign/update rounds per restart.
	DefaultMaxIterations = 100

	// DefaultEpsilon is the total squared centroid movement below which a run
	// is considered converged.
	DefaultEpsilon = 0.2

	// DefaultRestarts is the number of independent runs; the lowest inertia wins.
	DefaultRestarts = 10
)

// Config controls the k-means clusterer.
type Config struct {
	MaxIterations int
	Epsilon       float64
	Restarts      int

	// Workers bounds how many restarts run at once. 1 runs them sequentially.
	Workers int

	Logger hclog.Logger
}

// DefaultConfig returns the default clustering configuration.
func DefaultConfig() Config {
	return Config{
		MaxIterations: DefaultMaxIterations,
		Epsilon:       DefaultEpsilon,
		Restarts:      DefaultRestarts,
		Workers:       runtime.GOMAXPROCS(0),
	}
}

// Centroid is a cluster's mean colour at full precision.
type Centroid [3]float64

// RGB rounds the centroid to the nearest 8-bit colour.
func (c Centroid) RGB() colour.RGB {
	return colour.RGB{
		R: roundChannel(c[0]),
		G: roundChannel(c[1]),
		B: roundChannel(c[2]),
	}
}

// Pixel returns the rounded centroid as a raw pixel.
func (c Centroid) Pixel() [3]uint8 {
	return [3]uint8{roundChannel(c[0]), roundChannel(c[1]), roundChannel(c[2])}
}

func roundChannel(v float64) uint8 {
	return uint8(math.Round(max(0, min(255, v))))
}

// Clustering is the result of a k-means run. Labels[i] indexes Centroids.
//
// Labels come from the last assignment step and Centroids from the update
// that followed it. A cluster emptied in that final round is reseeded at a
// sample still labelled with another cluster, so its centroid has no pixels
// and its coverage is zero.
type Clustering struct {
	Labels     []int
	Centroids  []Centroid
	Inertia    float64
	Iterations int
	Converged  bool

	// Restart is the index of the run that produced this result.
	Restart int
}

// K returns the number of clusters.
func (c *Clustering) K() int {
	return len(c.Centroids)
}

// Clusterer runs Lloyd's k-means with random restarts.
type Clusterer struct {
	cfg    Config
	logger hclog.Logger
}

// NewClusterer creates a Clusterer, filling unset fields from DefaultConfig.
func NewClusterer(cfg Config) *Clusterer {
	def := DefaultConfig()
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	if cfg.Epsilon < 0 {
		cfg.Epsilon = def.Epsilon
	}
	if cfg.Restarts <= 0 {
		cfg.Restarts = def.Restarts
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Clusterer{cfg: cfg, logger: logger}
}

// Config returns the effective configuration.
func (c *Clusterer) Config() Config {
	return c.cfg
}

// Cluster partitions samples into k clusters. The same seed, samples and k
// always produce the same Clustering.
func (c *Clusterer) Cluster(ctx context.Context, samples SampleSet, k int, seed int64) (*Clustering, error) {
	if k < 1 || k > len(samples) {
		return nil, wrapf(ErrInvalidClusterCount, "k must be between 1 and %d, got %d", len(samples), k)
	}

	restarts := c.cfg.Restarts
	results := make([]*Clustering, restarts)
	errs := make([]error, restarts)

	sem := make(chan struct{}, min(c.cfg.Workers, restarts))
	var wg sync.WaitGroup
	for r := range restarts {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				errs[r] = err
				return
			}
			rng := rand.New(rand.NewPCG(uint64(seed), uint64(r))) // #nosec G404 -- reproducible clustering, not security sensitive
			results[r], errs[r] = c.run(ctx, samples, k, rng)
		}(r)
	}
	wg.Wait()

	// Reduce by restart index so worker scheduling cannot change the winner.
	var best *Clustering
	for r, res := range results {
		if errs[r] != nil {
			return nil, errs[r]
		}
		res.Restart = r
		c.logger.Trace("restart finished", "restart", r, "inertia", res.Inertia,
			"iterations", res.Iterations, "converged", res.Converged)
		if best == nil || res.Inertia < best.Inertia {
			best = res
		}
	}

	if !best.Converged {
		c.logger.Debug("k-means did not converge", "k", k, "restart", best.Restart,
			"max_iterations", c.cfg.MaxIterations)
	}
	c.logger.Debug("k-means complete", "k", k, "samples", len(samples), "restarts", restarts,
		"best_restart", best.Restart, "inertia", best.Inertia, "iterations", best.Iterations)

	return best, nil
}

// run performs one restart.
func (c *Clusterer) run(ctx context.Context, samples SampleSet, k int, rng *rand.Rand) (*Clustering, error) {
	centroids := initCentroids(samples, k, rng)
	labels := make([]int, len(samples))

	converged := false
	iterations := 0
	for iterations < c.cfg.MaxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		assign(samples, centroids, labels)
		next := updateCentroids(samples, labels, centroids)

		movement := 0.0
		for j := range centroids {
			movement += sqDist(centroids[j], next[j])
		}
		centroids = next
		iterations++

		if movement < c.cfg.Epsilon {
			converged = true
			break
		}
	}

	inertia := 0.0
	for i, s := range samples {
		inertia += sqDist(s, centroids[labels[i]])
	}

	return &Clustering{
		Labels:     labels,
		Centroids:  centroids,
		Inertia:    inertia,
		Iterations: iterations,
		Converged:  converged,
	}, nil
}

// initCentroids picks k samples with pairwise distinct colours. If the set has
// fewer than k distinct colours the remaining centroids repeat existing ones;
// those clusters stay empty.
func initCentroids(samples SampleSet, k int, rng *rand.Rand) []Centroid {
	n := len(samples)
	centroids := make([]Centroid, 0, k)
	seen := make(map[Sample]struct{}, k)

	take := func(s Sample) bool {
		if _, dup := seen[s]; dup {
			return false
		}
		seen[s] = struct{}{}
		centroids = append(centroids, Centroid(s))
		return true
	}

	maxAttempts := 32 * k
	for attempt := 0; len(centroids) < k && attempt < maxAttempts; attempt++ {
		take(samples[rng.IntN(n)])
	}

	// Too many collisions: sweep from a random offset for unseen colours.
	if len(centroids) < k {
		start := rng.IntN(n)
		for off := 0; off < n && len(centroids) < k; off++ {
			take(samples[(start+off)%n])
		}
	}

	for len(centroids) < k {
		centroids = append(centroids, Centroid(samples[rng.IntN(n)]))
	}
	return centroids
}

// assign labels every sample with its nearest centroid, lowest id on ties.
func assign(samples SampleSet, centroids []Centroid, labels []int) {
	for i, s := range samples {
		nearest := 0
		minDist := math.Inf(1)
		for j, c := range centroids {
			if d := sqDist(s, c); d < minDist {
				minDist = d
				nearest = j
			}
		}
		labels[i] = nearest
	}
}

// updateCentroids returns the mean of each cluster. An empty cluster is
// reseeded at the sample farthest from its own cluster mean; each sample is
// used for at most one reseed per update. If every sample sits exactly on its
// mean the empty centroid keeps its previous position.
func updateCentroids(samples SampleSet, labels []int, prev []Centroid) []Centroid {
	k := len(prev)
	sums := make([][3]float64, k)
	counts := make([]int, k)
	for i, s := range samples {
		l := labels[i]
		sums[l][0] += s[0]
		sums[l][1] += s[1]
		sums[l][2] += s[2]
		counts[l]++
	}

	next := make([]Centroid, k)
	var empty []int
	for j := range k {
		if counts[j] == 0 {
			empty = append(empty, j)
			continue
		}
		n := float64(counts[j])
		next[j] = Centroid{sums[j][0] / n, sums[j][1] / n, sums[j][2] / n}
	}
	if len(empty) == 0 {
		return next
	}

	used := make(map[int]struct{}, len(empty))
	for _, j := range empty {
		far := -1
		farDist := 0.0
		for i, s := range samples {
			if _, ok := used[i]; ok {
				continue
			}
			if d := sqDist(s, next[labels[i]]); d > farDist {
				farDist = d
				far = i
			}
		}
		if far < 0 {
			next[j] = prev[j]
			continue
		}
		used[far] = struct{}{}
		next[j] = Centroid(samples[far])
	}
	return next
}
