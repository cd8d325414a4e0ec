package segment

import (
	"context"
	"testing"
)

func TestAssemble(t *testing.T) {
	cl := &Clustering{
		Labels:     []int{1, 1, 0},
		Centroids:  []Centroid{{10, 20, 30}, {200.6, 0, 0}},
		Inertia:    12.5,
		Iterations: 3,
		Converged:  true,
	}
	cov, err := AnalyzeCoverage(cl.Labels, cl.K())
	if err != nil {
		t.Fatalf("AnalyzeCoverage() error = %v", err)
	}

	rep := Assemble(cov, cl)
	if len(rep.Clusters) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(rep.Clusters))
	}
	if rep.Clusters[0].ClusterID != 1 || rep.Clusters[0].Color.R != 201 {
		t.Errorf("Expected cluster 1 first with R=201, got %+v", rep.Clusters[0])
	}
	if rep.Clusters[1].ClusterID != 0 || rep.Clusters[1].Color.B != 30 {
		t.Errorf("Expected cluster 0 second with B=30, got %+v", rep.Clusters[1])
	}
	if !rep.Converged || rep.Iterations != 3 || rep.Inertia != 12.5 {
		t.Errorf("Expected diagnostics to be carried over, got %+v", rep)
	}
}

func TestReportSpread(t *testing.T) {
	img := newTestImage([][][3]uint8{
		{{0, 0, 0}, {0, 0, 6}, {250, 250, 250}},
	})
	res, err := Run(context.Background(), img, testOptions(2))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, c := range res.Report.Clusters {
		switch c.PixelCount {
		case 2:
			if c.Spread != 3 {
				t.Errorf("Expected spread 3 for the dark cluster, got %f", c.Spread)
			}
		case 1:
			if c.Spread != 0 {
				t.Errorf("Expected spread 0 for the single pixel cluster, got %f", c.Spread)
			}
		}
	}
}
