package segment

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// CoverageEntry is one cluster's share of the image.
type CoverageEntry struct {
	ClusterID  int
	PixelCount int
	Percentage float64
}

// Coverage holds every cluster's entry ranked by percentage descending, ties
// broken by ascending cluster id.
type Coverage struct {
	Total   int
	Entries []CoverageEntry
}

// AnalyzeCoverage counts the pixels in each of the k clusters and ranks them.
func AnalyzeCoverage(labels []int, k int) (*Coverage, error) {
	if len(labels) == 0 {
		return nil, wrapf(ErrEmptyAssignment, "no labels to analyse")
	}
	if k < 1 {
		return nil, wrapf(ErrInvalidClusterCount, "k must be at least 1, got %d", k)
	}

	counts := make([]int, k)
	for i, l := range labels {
		if l < 0 || l >= k {
			return nil, wrapf(ErrShapeMismatch, "label %d at index %d outside [0, %d)", l, i, k)
		}
		counts[l]++
	}

	n := len(labels)
	entries := make([]CoverageEntry, k)
	for j, c := range counts {
		entries[j] = CoverageEntry{
			ClusterID:  j,
			PixelCount: c,
			Percentage: 100 * float64(c) / float64(n),
		}
	}

	// Counts share the denominator, so ordering on them is exact.
	slices.SortStableFunc(entries, func(a, b CoverageEntry) int {
		if c := cmp.Compare(b.PixelCount, a.PixelCount); c != 0 {
			return c
		}
		return cmp.Compare(a.ClusterID, b.ClusterID)
	})

	return &Coverage{Total: n, Entries: entries}, nil
}

// Entry returns the entry for a cluster id.
func (c *Coverage) Entry(clusterID int) (CoverageEntry, bool) {
	for _, e := range c.Entries {
		if e.ClusterID == clusterID {
			return e, true
		}
	}
	return CoverageEntry{}, false
}

// PixelTotal sums the pixel counts; it always equals Total.
func (c *Coverage) PixelTotal() int {
	total := 0
	for _, e := range c.Entries {
		total += e.PixelCount
	}
	return total
}

// PercentTotal sums the percentages, which is 100 within rounding error.
func (c *Coverage) PercentTotal() float64 {
	pct := make([]float64, len(c.Entries))
	for i, e := range c.Entries {
		pct[i] = e.Percentage
	}
	return floats.Sum(pct)
}

// Top returns the ids of up to n highest-ranked clusters.
func (c *Coverage) Top(n int) []int {
	n = max(0, min(n, len(c.Entries)))
	ids := make([]int, n)
	for i := range n {
		ids[i] = c.Entries[i].ClusterID
	}
	return ids
}
