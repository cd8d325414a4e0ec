package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jmylchreest/landtint/internal/colour"
)

// TextOptions controls the text rendering.
type TextOptions struct {
	// Preview adds an ANSI colour swatch to each row.
	Preview bool

	// Verbose appends clustering diagnostics.
	Verbose bool
}

// WriteText writes the summary lines followed by a coverage table.
func WriteText(w io.Writer, doc *Document, opts TextOptions) error {
	var b strings.Builder

	if doc.Source != "" {
		fmt.Fprintf(&b, "Image: %s (%dx%d)\n", doc.Source, doc.Width, doc.Height)
	}
	fmt.Fprintf(&b, "Clusters: %d\n\n", doc.K)

	for _, c := range doc.Clusters {
		fmt.Fprintf(&b, "Cluster %d: %.2f%% -> RGB (%d, %d, %d)\n",
			c.ClusterID, c.Percentage, c.ColorRGB[0], c.ColorRGB[1], c.ColorRGB[2])
	}
	b.WriteString("\n")

	headers := []string{"Rank", "Cluster", "Pixels", "Coverage", "Hex"}
	if opts.Preview {
		headers = append(headers, "Colour")
	}
	table := NewTable(headers)
	table.AlignRight(0, 1, 2, 3)
	for i, c := range doc.Clusters {
		row := []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(c.ClusterID),
			strconv.Itoa(c.PixelCount),
			fmt.Sprintf("%.2f%%", c.Percentage),
			c.Hex,
		}
		if opts.Preview {
			rgb := colour.RGB{R: uint8(c.ColorRGB[0]), G: uint8(c.ColorRGB[1]), B: uint8(c.ColorRGB[2])} // #nosec G115 -- channels come from a colour.RGB
			row = append(row, colour.ColourPreview(rgb, 8))
		}
		table.AddRow(row)
	}
	b.WriteString(table.Render())

	if opts.Verbose {
		fmt.Fprintf(&b, "\nSeed: %d\nInertia: %.2f\nIterations: %d\nConverged: %t\n",
			doc.Seed, doc.Inertia, doc.Iterations, doc.Converged)
	}
	if doc.OutputImage != "" {
		fmt.Fprintf(&b, "\nAnalysis image: %s\n", doc.OutputImage)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
