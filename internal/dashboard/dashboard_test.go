package dashboard

import (
	"context"
	goimage "image"
	"image/color"
	"testing"

	"github.com/jmylchreest/landtint/internal/segment"
)

// twoColourResult analyses a 4x2 image: 6 red pixels and 2 blue.
func twoColourResult(t *testing.T) *segment.Result {
	t.Helper()
	img := segment.NewImage(4, 2)
	for r := range 2 {
		for c := range 4 {
			if r == 1 && c >= 2 {
				img.Set(r, c, [3]uint8{0, 0, 200})
			} else {
				img.Set(r, c, [3]uint8{200, 0, 0})
			}
		}
	}
	opts := segment.DefaultOptions()
	opts.Clusters = 2
	opts.Seed = 3
	res, err := segment.Run(context.Background(), img, opts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return res
}

func rgbAt(img goimage.Image, x, y int) [3]uint8 {
	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	return [3]uint8{c.R, c.G, c.B}
}

func TestRenderLayout(t *testing.T) {
	res := twoColourResult(t)
	opts := DefaultOptions()
	out, err := Render(res, opts)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	l := layout{pw: opts.PanelWidth, ph: opts.PanelHeight}
	w, h := l.size()
	if out.Bounds().Dx() != w || out.Bounds().Dy() != h {
		t.Fatalf("Expected %dx%d dashboard, got %v", w, h, out.Bounds())
	}

	red := [3]uint8{200, 0, 0}
	blue := [3]uint8{0, 0, 200}

	// The 4x2 image scales by 90 to 360x180 and is centred vertically.
	seg := l.cell(1)
	top := seg.Min.Y + (seg.Dy()-180)/2
	if got := rgbAt(out, seg.Min.X+10, top+10); got != red {
		t.Errorf("Expected segmented top-left to be red, got %v", got)
	}
	if got := rgbAt(out, seg.Min.X+350, top+170); got != blue {
		t.Errorf("Expected segmented bottom-right to be blue, got %v", got)
	}

	// Second mask panel is the blue cluster, framed in blue.
	mask := l.cell(4)
	framedH := 176 + 2*borderWidth
	mtop := mask.Min.Y + (mask.Dy()-framedH)/2
	if got := rgbAt(out, mask.Min.X+1, mtop+1); got != blue {
		t.Errorf("Expected blue mask border, got %v", got)
	}
	if got := rgbAt(out, mask.Min.X+borderWidth+5, mtop+borderWidth+5); got != [3]uint8{0, 0, 0} {
		t.Errorf("Expected pixels outside the cluster to be black, got %v", got)
	}

	// K=2 leaves the last mask slot empty.
	empty := l.cell(5)
	if got := rgbAt(out, empty.Min.X+empty.Dx()/2, empty.Min.Y+empty.Dy()/2); got != [3]uint8{255, 255, 255} {
		t.Errorf("Expected unused slot to stay white, got %v", got)
	}
}

func TestBarChart(t *testing.T) {
	face, err := loadFont()
	if err != nil {
		t.Fatalf("loadFont() error = %v", err)
	}
	rep := &segment.Report{Clusters: []segment.ReportEntry{
		{ClusterID: 1, Percentage: 75},
		{ClusterID: 0, Percentage: 25},
	}}
	rep.Clusters[0].Color.G = 180
	rep.Clusters[1].Color.B = 180

	panel := barChart(newLabeler(face, nil), rep, 300, 200)

	// Plot spans x 44..292, two slots of 124; first bar is 74 wide.
	// Sample just above the x axis, clear of the percentage labels.
	x0 := chartLeft + (124-74)/2
	y := 200 - chartBottom - 3
	if got := rgbAt(panel, x0+10, y); got != [3]uint8{0, 180, 0} {
		t.Errorf("Expected first bar in its centroid colour, got %v", got)
	}
	if got := rgbAt(panel, x0+124+10, y); got != [3]uint8{0, 0, 180} {
		t.Errorf("Expected second bar in its centroid colour, got %v", got)
	}
	if got := rgbAt(panel, x0, y); got != [3]uint8{0, 0, 0} {
		t.Errorf("Expected black bar edge, got %v", got)
	}
}

func TestRenderIncomplete(t *testing.T) {
	if _, err := Render(&segment.Result{}, DefaultOptions()); err == nil {
		t.Error("Expected error for incomplete result")
	}
}
