package segment

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/jmylchreest/landtint/internal/colour"
)

// ReportEntry is one row of the final report.
type ReportEntry struct {
	ClusterID  int
	PixelCount int
	Percentage float64
	Color      colour.RGB

	// Spread is the RMS distance of the cluster's pixels from its centroid.
	// Zero when the report was assembled without samples.
	Spread float64
}

// Report is the ordered summary handed to serialisers and renderers.
type Report struct {
	Clusters   []ReportEntry
	Inertia    float64
	Iterations int
	Converged  bool
}

// Assemble pairs each coverage entry with its centroid colour, keeping the
// coverage order.
func Assemble(cov *Coverage, cl *Clustering) *Report {
	rep := &Report{
		Clusters:   make([]ReportEntry, len(cov.Entries)),
		Inertia:    cl.Inertia,
		Iterations: cl.Iterations,
		Converged:  cl.Converged,
	}
	for i, e := range cov.Entries {
		rep.Clusters[i] = ReportEntry{
			ClusterID:  e.ClusterID,
			PixelCount: e.PixelCount,
			Percentage: e.Percentage,
			Color:      cl.Centroids[e.ClusterID].RGB(),
		}
	}
	return rep
}

// WithSpread fills in each entry's RMS distance to its full-precision centroid.
func (r *Report) WithSpread(samples SampleSet, cl *Clustering) *Report {
	dists := make([][]float64, cl.K())
	for i, s := range samples {
		l := cl.Labels[i]
		dists[l] = append(dists[l], sqDist(s, cl.Centroids[l]))
	}
	for i := range r.Clusters {
		d := dists[r.Clusters[i].ClusterID]
		if len(d) == 0 {
			continue
		}
		r.Clusters[i].Spread = math.Sqrt(stat.Mean(d, nil))
	}
	return r
}
