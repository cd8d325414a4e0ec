// Generates landscape.png, a synthetic aerial scene for trying the analysis
// by hand: water, forest, farmland and a built-up block with mild noise.
//
//	go run ./testdata/generate_test_image.go
package main

import (
	"image"
	"image/color"
	"image/png"
	"log"
	"math/rand/v2"
	"os"
)

type region struct {
	rect image.Rectangle
	base color.RGBA
}

func main() {
	const width, height = 480, 320
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// Painted in order; later regions overwrite earlier ones.
	regions := []region{
		{image.Rect(0, 0, width, height), color.RGBA{R: 74, G: 112, B: 52, A: 255}},  // forest
		{image.Rect(0, 0, 160, height), color.RGBA{R: 32, G: 74, B: 120, A: 255}},    // water
		{image.Rect(240, 0, width, 160), color.RGBA{R: 190, G: 170, B: 110, A: 255}}, // farmland
		{image.Rect(320, 200, 440, 300), color.RGBA{R: 150, G: 150, B: 155, A: 255}}, // built-up
		{image.Rect(160, 140, 240, 180), color.RGBA{R: 32, G: 74, B: 120, A: 255}},   // pond
	}

	rng := rand.New(rand.NewPCG(7, 11))
	for _, r := range regions {
		for y := r.rect.Min.Y; y < r.rect.Max.Y; y++ {
			for x := r.rect.Min.X; x < r.rect.Max.X; x++ {
				img.SetRGBA(x, y, jitter(r.base, rng))
			}
		}
	}

	f, err := os.Create("landscape.png")
	if err != nil {
		log.Fatalf("failed to create landscape.png: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		log.Fatalf("failed to encode PNG: %v", err)
	}
	log.Printf("wrote landscape.png (%dx%d)", width, height)
}

// jitter adds up to +/-8 of noise per channel.
func jitter(c color.RGBA, rng *rand.Rand) color.RGBA {
	n := func(v uint8) uint8 {
		return uint8(max(0, min(255, int(v)+rng.IntN(17)-8)))
	}
	return color.RGBA{R: n(c.R), G: n(c.G), B: n(c.B), A: 255}
}
