// Package report serialises analysis results as JSON documents and
// human-readable text.
package report

import (
	"encoding/json"

	"github.com/jmylchreest/landtint/internal/segment"
)

// Cluster is one cluster in a serialised report.
type Cluster struct {
	ClusterID  int     `json:"cluster_id"`
	Percentage float64 `json:"percentage"`
	ColorRGB   []int   `json:"color_rgb"`
	Hex        string  `json:"hex"`
	PixelCount int     `json:"pixel_count"`
	Spread     float64 `json:"spread,omitempty"`
}

// Document is the JSON shape written by the CLI and returned by the server.
type Document struct {
	Success     bool      `json:"success"`
	Source      string    `json:"source,omitempty"`
	OutputImage string    `json:"output_image,omitempty"`
	Clusters    []Cluster `json:"clusters"`

	K          int     `json:"k"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Seed       int64   `json:"seed"`
	Inertia    float64 `json:"inertia"`
	Iterations int     `json:"iterations"`
	Converged  bool    `json:"converged"`
}

// Meta carries details that are not part of the segmentation result.
type Meta struct {
	Source      string
	OutputImage string
}

// Build converts a pipeline result into a Document, keeping the ranked order.
func Build(res *segment.Result, meta Meta) *Document {
	rep := res.Report
	doc := &Document{
		Success:     true,
		Source:      meta.Source,
		OutputImage: meta.OutputImage,
		Clusters:    make([]Cluster, len(rep.Clusters)),
		K:           res.Clustering.K(),
		Width:       res.Image.Width,
		Height:      res.Image.Height,
		Seed:        res.Seed,
		Inertia:     rep.Inertia,
		Iterations:  rep.Iterations,
		Converged:   rep.Converged,
	}
	for i, c := range rep.Clusters {
		doc.Clusters[i] = Cluster{
			ClusterID:  c.ClusterID,
			Percentage: c.Percentage,
			ColorRGB:   c.Color.Ints(),
			Hex:        c.Color.Hex(),
			PixelCount: c.PixelCount,
			Spread:     c.Spread,
		}
	}
	return doc
}

// JSON returns the indented JSON encoding of doc.
func (d *Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
