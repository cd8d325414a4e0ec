package segment

// Reconstruct builds the segmented image: pixel (r, c) takes the rounded
// colour of centroids[labels[r*width+c]].
func Reconstruct(labels []int, centroids []Centroid, height, width int) (*Image, error) {
	if height <= 0 || width <= 0 {
		return nil, wrapf(ErrInvalidImage, "image is empty (%dx%d)", width, height)
	}
	if len(labels) != height*width {
		return nil, wrapf(ErrShapeMismatch, "assignment has %d labels, image has %d pixels", len(labels), height*width)
	}

	palette := make([][3]uint8, len(centroids))
	for j, c := range centroids {
		palette[j] = c.Pixel()
	}

	out := NewImage(width, height)
	for i, l := range labels {
		if l < 0 || l >= len(palette) {
			return nil, wrapf(ErrShapeMismatch, "label %d at index %d outside [0, %d)", l, i, len(palette))
		}
		px := palette[l]
		o := i * 3
		out.Pix[o] = px[0]
		out.Pix[o+1] = px[1]
		out.Pix[o+2] = px[2]
	}
	return out, nil
}
