// Package dashboard renders an analysis result as a single composite PNG:
// the original image, the segmented image, a coverage bar chart and masks of
// the largest clusters.
package dashboard

import (
	"fmt"
	goimage "image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/jmylchreest/landtint/internal/colour"
	"github.com/jmylchreest/landtint/internal/segment"
)

const (
	columns     = 3
	rows        = 2
	margin      = 16
	titleHeight = 32
	titleSize   = 16
	borderWidth = 4

	// MaxMaskPanels is the number of mask panels in the bottom row.
	MaxMaskPanels = 3
)

// Options controls panel geometry.
type Options struct {
	PanelWidth  int
	PanelHeight int
}

// DefaultOptions returns the standard panel size.
func DefaultOptions() Options {
	return Options{PanelWidth: 360, PanelHeight: 280}
}

type layout struct {
	pw, ph int
}

func (l layout) size() (int, int) {
	return columns*l.pw + (columns+1)*margin, rows*(titleHeight+l.ph) + (rows+1)*margin
}

// cell returns the panel area of slot i, numbered row-major.
func (l layout) cell(i int) goimage.Rectangle {
	col, row := i%columns, i/columns
	x := margin + col*(l.pw+margin)
	y := margin + row*(titleHeight+l.ph+margin) + titleHeight
	return goimage.Rect(x, y, x+l.pw, y+l.ph)
}

// Render composes the dashboard for res.
func Render(res *segment.Result, opts Options) (*goimage.NRGBA, error) {
	if res == nil || res.Image == nil || res.Segmented == nil || res.Report == nil {
		return nil, fmt.Errorf("incomplete analysis result")
	}
	def := DefaultOptions()
	if opts.PanelWidth <= 0 {
		opts.PanelWidth = def.PanelWidth
	}
	if opts.PanelHeight <= 0 {
		opts.PanelHeight = def.PanelHeight
	}

	face, err := loadFont()
	if err != nil {
		return nil, err
	}

	l := layout{pw: opts.PanelWidth, ph: opts.PanelHeight}
	w, h := l.size()
	canvas := imaging.New(w, h, color.White)
	text := newLabeler(face, canvas)

	titled := func(slot int, title string, panel goimage.Image) {
		r := l.cell(slot)
		if panel != nil {
			canvas = imaging.Paste(canvas, panel, centred(r, panel.Bounds()))
		}
		text.dst = canvas
		text.centred(title, titleSize, color.Black, r.Min.X+r.Dx()/2, r.Min.Y-10)
	}

	titled(0, "Original", fit(res.Image.ToRGBA(), l.pw, l.ph))
	titled(1, fmt.Sprintf("Segmented (K=%d)", res.Clustering.K()), fit(res.Segmented.ToRGBA(), l.pw, l.ph))
	titled(2, "Coverage per cluster", barChart(text, res.Report, l.pw, l.ph))

	for i, m := range res.Masks {
		if i >= MaxMaskPanels {
			break
		}
		entry, ok := res.Coverage.Entry(m.ClusterID)
		if !ok {
			return nil, fmt.Errorf("no coverage entry for cluster %d", m.ClusterID)
		}
		border := res.Clustering.Centroids[m.ClusterID].RGB()
		inner := fit(m.Image.ToRGBA(), l.pw-2*borderWidth, l.ph-2*borderWidth)
		b := inner.Bounds()
		framed := imaging.New(b.Dx()+2*borderWidth, b.Dy()+2*borderWidth, border.RGBA())
		framed = imaging.Paste(framed, inner, goimage.Pt(borderWidth, borderWidth))
		titled(columns+i, fmt.Sprintf("Cluster %d (%.1f%%)", m.ClusterID, entry.Percentage), framed)
	}

	return canvas, nil
}

// fit scales img to fill a w x h box keeping its aspect ratio. Upscaling uses
// nearest neighbour so cluster colours stay exact.
func fit(img goimage.Image, w, h int) *goimage.NRGBA {
	b := img.Bounds()
	ratio := min(float64(w)/float64(b.Dx()), float64(h)/float64(b.Dy()))
	nw := max(1, int(float64(b.Dx())*ratio))
	nh := max(1, int(float64(b.Dy())*ratio))
	filter := imaging.Lanczos
	if ratio >= 1 {
		filter = imaging.NearestNeighbor
	}
	return imaging.Resize(img, nw, nh, filter)
}

func centred(area, img goimage.Rectangle) goimage.Point {
	return goimage.Pt(area.Min.X+(area.Dx()-img.Dx())/2, area.Min.Y+(area.Dy()-img.Dy())/2)
}

// textColour picks black or white for text drawn on c.
func textColour(c colour.RGB) color.Color {
	return c.Contrasting().RGBA()
}
