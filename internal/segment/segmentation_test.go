package segment

import (
	"context"
	"errors"
	"testing"
)

func TestReconstruct(t *testing.T) {
	centroids := []Centroid{{10.4, 20.6, 30}, {200, 100.5, 0}}
	labels := []int{0, 1, 1, 0, 0, 1}

	out, err := Reconstruct(labels, centroids, 2, 3)
	if err != nil {
		t.Fatalf("Reconstruct() error = %v", err)
	}
	if out.Width != 3 || out.Height != 2 {
		t.Fatalf("Expected 3x2, got %dx%d", out.Width, out.Height)
	}
	if got := out.At(0, 0); got != [3]uint8{10, 21, 30} {
		t.Errorf("Expected (10,21,30), got %v", got)
	}
	if got := out.At(1, 2); got != [3]uint8{200, 101, 0} {
		t.Errorf("Expected (200,101,0), got %v", got)
	}
}

func TestReconstructErrors(t *testing.T) {
	centroids := []Centroid{{0, 0, 0}}
	if _, err := Reconstruct([]int{0, 0, 0}, centroids, 2, 2); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch, got %v", err)
	}
	if _, err := Reconstruct([]int{0, 1}, centroids, 1, 2); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for out-of-range label, got %v", err)
	}
}

func TestSegmentedUsesOnlyCentroidColours(t *testing.T) {
	img := landscapeImage(20, 20)
	res, err := Run(context.Background(), img, testOptions(4))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.Segmented.Width != img.Width || res.Segmented.Height != img.Height {
		t.Fatalf("Expected segmented shape %dx%d, got %dx%d", img.Width, img.Height, res.Segmented.Width, res.Segmented.Height)
	}

	palette := map[[3]uint8]bool{}
	for _, c := range res.Clustering.Centroids {
		palette[c.Pixel()] = true
	}
	for r := range img.Height {
		for c := range img.Width {
			px := res.Segmented.At(r, c)
			if !palette[px] {
				t.Fatalf("pixel (%d,%d) colour %v is not a centroid", r, c, px)
			}
			if want := res.Clustering.Centroids[res.Clustering.Labels[r*img.Width+c]].Pixel(); px != want {
				t.Fatalf("pixel (%d,%d): expected %v, got %v", r, c, want, px)
			}
		}
	}
}
