package segment

import "fmt"

// Sample is one pixel colour in floating point.
type Sample [3]float64

// SampleSet is the flattened, row-major list of pixel colours. Index i maps to
// pixel (i / W, i % W).
type SampleSet []Sample

// Samples flattens an image into a SampleSet. Each sample is a copy converted
// to float64 so distance computations cannot overflow or clip.
func Samples(img *Image) (SampleSet, error) {
	if err := img.validate(); err != nil {
		return nil, err
	}

	samples := make(SampleSet, img.Len())
	for i := range samples {
		o := i * 3
		samples[i] = Sample{
			float64(img.Pix[o]),
			float64(img.Pix[o+1]),
			float64(img.Pix[o+2]),
		}
	}
	return samples, nil
}

// sqDist returns the squared Euclidean distance between two colours.
func sqDist(a, b [3]float64) float64 {
	d0 := a[0] - b[0]
	d1 := a[1] - b[1]
	d2 := a[2] - b[2]
	return d0*d0 + d1*d1 + d2*d2
}

// wrapf attaches context to one of the package's sentinel errors.
func wrapf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
