// Package segment clusters the colours of an image with k-means and derives
// segmented images, coverage statistics, masks and reports from the result.
package segment

import (
	goimage "image"
	"image/color"
)

// Image is an H x W grid of 3-channel pixels stored row-major.
// Channel order is RGB for images produced by FromImage.
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewImage allocates a zeroed 3-channel image.
func NewImage(width, height int) *Image {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Image{
		Width:    width,
		Height:   height,
		Channels: 3,
		Pix:      make([]uint8, width*height*3),
	}
}

// FromImage converts a decoded image into an RGB Image. Alpha is dropped.
func FromImage(src goimage.Image) *Image {
	if src == nil {
		return NewImage(0, 0)
	}
	bounds := src.Bounds()
	img := NewImage(bounds.Dx(), bounds.Dy())

	// Fast paths for the common decoder outputs.
	switch s := src.(type) {
	case *goimage.RGBA:
		for y := 0; y < img.Height; y++ {
			row := s.Pix[y*s.Stride : y*s.Stride+img.Width*4]
			for x := 0; x < img.Width; x++ {
				o := (y*img.Width + x) * 3
				p := row[x*4 : x*4+4]
				if p[3] == 255 {
					img.Pix[o], img.Pix[o+1], img.Pix[o+2] = p[0], p[1], p[2]
					continue
				}
				// Premultiplied; translucent pixels need un-premultiplying.
				c := color.NRGBAModel.Convert(color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}).(color.NRGBA)
				img.Pix[o], img.Pix[o+1], img.Pix[o+2] = c.R, c.G, c.B
			}
		}
		return img
	case *goimage.NRGBA:
		for y := 0; y < img.Height; y++ {
			row := s.Pix[y*s.Stride : y*s.Stride+img.Width*4]
			for x := 0; x < img.Width; x++ {
				o := (y*img.Width + x) * 3
				img.Pix[o] = row[x*4]
				img.Pix[o+1] = row[x*4+1]
				img.Pix[o+2] = row[x*4+2]
			}
		}
		return img
	}

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			c := color.NRGBAModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			o := (y*img.Width + x) * 3
			img.Pix[o] = c.R
			img.Pix[o+1] = c.G
			img.Pix[o+2] = c.B
		}
	}
	return img
}

// Len returns the number of pixels.
func (m *Image) Len() int {
	return m.Width * m.Height
}

// At returns the pixel at row r, column c.
func (m *Image) At(r, c int) [3]uint8 {
	o := (r*m.Width + c) * 3
	return [3]uint8{m.Pix[o], m.Pix[o+1], m.Pix[o+2]}
}

// Set writes the pixel at row r, column c.
func (m *Image) Set(r, c int, px [3]uint8) {
	o := (r*m.Width + c) * 3
	m.Pix[o] = px[0]
	m.Pix[o+1] = px[1]
	m.Pix[o+2] = px[2]
}

// ToRGBA converts the image to an opaque *image.RGBA for encoding and drawing.
func (m *Image) ToRGBA() *goimage.RGBA {
	out := goimage.NewRGBA(goimage.Rect(0, 0, m.Width, m.Height))
	for i := 0; i < m.Len(); i++ {
		out.Pix[i*4] = m.Pix[i*3]
		out.Pix[i*4+1] = m.Pix[i*3+1]
		out.Pix[i*4+2] = m.Pix[i*3+2]
		out.Pix[i*4+3] = 255
	}
	return out
}

// validate checks the structural invariants every core stage relies on.
func (m *Image) validate() error {
	switch {
	case m == nil:
		return wrapf(ErrInvalidImage, "image is nil")
	case m.Width <= 0 || m.Height <= 0:
		return wrapf(ErrInvalidImage, "image is empty (%dx%d)", m.Width, m.Height)
	case m.Channels != 3:
		return wrapf(ErrInvalidImage, "expected 3 channels, got %d", m.Channels)
	case len(m.Pix) != m.Width*m.Height*3:
		return wrapf(ErrInvalidImage, "pixel buffer has %d bytes, expected %d", len(m.Pix), m.Width*m.Height*3)
	}
	return nil
}
