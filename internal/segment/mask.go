package segment

// Mask marks the pixels that belong to one cluster.
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// At reports whether pixel (r, c) is in the mask.
func (m *Mask) At(r, c int) bool {
	return m.Bits[r*m.Width+c]
}

// ClusterMask pairs a cluster's mask with the original image restricted to it.
type ClusterMask struct {
	ClusterID int
	Mask      *Mask
	Image     *Image
}

// ExtractMask returns the mask of pixels labelled clusterID and a copy of img
// with every other pixel zeroed. Pixels inside the mask keep their original
// colour rather than the centroid colour.
func ExtractMask(labels []int, img *Image, clusterID, k int) (*ClusterMask, error) {
	if clusterID < 0 || clusterID >= k {
		return nil, wrapf(ErrInvalidClusterID, "cluster id %d outside [0, %d)", clusterID, k)
	}
	if err := img.validate(); err != nil {
		return nil, err
	}
	if len(labels) != img.Len() {
		return nil, wrapf(ErrShapeMismatch, "assignment has %d labels, image has %d pixels", len(labels), img.Len())
	}

	mask := &Mask{Width: img.Width, Height: img.Height, Bits: make([]bool, len(labels))}
	masked := NewImage(img.Width, img.Height)
	for i, l := range labels {
		if l != clusterID {
			continue
		}
		mask.Bits[i] = true
		o := i * 3
		copy(masked.Pix[o:o+3], img.Pix[o:o+3])
	}

	return &ClusterMask{ClusterID: clusterID, Mask: mask, Image: masked}, nil
}
