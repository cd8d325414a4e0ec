package dashboard

import (
	"fmt"
	goimage "image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

var loadFont = sync.OnceValues(func() (*truetype.Font, error) {
	f, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return f, nil
})

// labeler draws text onto an image.
type labeler struct {
	font *truetype.Font
	dst  draw.Image
}

func newLabeler(f *truetype.Font, dst draw.Image) *labeler {
	return &labeler{font: f, dst: dst}
}

func (l *labeler) width(text string, size float64) int {
	face := truetype.NewFace(l.font, &truetype.Options{Size: size, DPI: 72})
	defer face.Close()
	return font.MeasureString(face, text).Ceil()
}

// draw renders text with its baseline starting at (x, y).
func (l *labeler) draw(text string, size float64, c color.Color, x, y int) {
	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(l.font)
	ctx.SetFontSize(size)
	ctx.SetClip(l.dst.Bounds())
	ctx.SetDst(l.dst)
	ctx.SetSrc(goimage.NewUniform(c))
	ctx.SetHinting(font.HintingFull)
	// DrawString only fails when no font is set.
	_, _ = ctx.DrawString(text, freetype.Pt(x, y))
}

// centred renders text horizontally centred on cx.
func (l *labeler) centred(text string, size float64, c color.Color, cx, y int) {
	l.draw(text, size, c, cx-l.width(text, size)/2, y)
}
