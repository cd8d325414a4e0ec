package dashboard

import (
	"fmt"
	goimage "image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"

	"github.com/jmylchreest/landtint/internal/segment"
)

const (
	chartLeft   = 44
	chartRight  = 8
	chartTop    = 20
	chartBottom = 28
	labelSize   = 11
)

// barChart draws one bar per cluster in report order, coloured by centroid.
func barChart(text *labeler, rep *segment.Report, w, h int) *goimage.NRGBA {
	panel := imaging.New(w, h, color.White)
	prev := text.dst
	text.dst = panel
	defer func() { text.dst = prev }()

	plot := goimage.Rect(chartLeft, chartTop, w-chartRight, h-chartBottom)
	if plot.Dx() <= 0 || plot.Dy() <= 0 || len(rep.Clusters) == 0 {
		return panel
	}

	top := 10.0
	for _, c := range rep.Clusters {
		top = max(top, math.Ceil(c.Percentage/10)*10)
	}

	// Axes and y ticks.
	fill(panel, goimage.Rect(plot.Min.X-1, plot.Min.Y, plot.Min.X, plot.Max.Y+1), color.Black)
	fill(panel, goimage.Rect(plot.Min.X-1, plot.Max.Y, plot.Max.X, plot.Max.Y+1), color.Black)
	for _, v := range []float64{0, top / 2, top} {
		y := plot.Max.Y - int(v/top*float64(plot.Dy()))
		fill(panel, goimage.Rect(plot.Min.X-5, y, plot.Min.X-1, y+1), color.Black)
		label := fmt.Sprintf("%.0f%%", v)
		text.draw(label, labelSize, color.Black, plot.Min.X-8-text.width(label, labelSize), y+4)
	}

	slot := plot.Dx() / len(rep.Clusters)
	barW := max(1, slot*3/5)
	for i, c := range rep.Clusters {
		x0 := plot.Min.X + i*slot + (slot-barW)/2
		bh := int(math.Round(c.Percentage / top * float64(plot.Dy())))
		bar := goimage.Rect(x0, plot.Max.Y-bh, x0+barW, plot.Max.Y)
		if bh > 0 {
			fill(panel, bar, color.Black)
			fill(panel, bar.Inset(1), c.Color.RGBA())
		}

		cx := x0 + barW/2
		pct := fmt.Sprintf("%.1f%%", c.Percentage)
		if bh > labelSize+6 && barW > text.width(pct, labelSize)+4 {
			text.centred(pct, labelSize, textColour(c.Color), cx, bar.Min.Y+labelSize+2)
		} else {
			text.centred(pct, labelSize, color.Black, cx, bar.Min.Y-4)
		}
		text.centred(fmt.Sprintf("Cluster %d", c.ClusterID), labelSize, color.Black, cx, plot.Max.Y+labelSize+6)
	}
	return panel
}

func fill(dst draw.Image, r goimage.Rectangle, c color.Color) {
	draw.Draw(dst, r, goimage.NewUniform(c), goimage.Point{}, draw.Src)
}
