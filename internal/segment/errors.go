package segment

import "errors"

var (
	// ErrInvalidImage is returned for empty or malformed input images.
	ErrInvalidImage = errors.New("invalid image")

	// ErrInvalidClusterCount is returned when K is outside [1, sample count].
	ErrInvalidClusterCount = errors.New("invalid cluster count")

	// ErrShapeMismatch is returned when an assignment does not line up with
	// the image it is applied to.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrEmptyAssignment is returned when coverage is requested for zero pixels.
	ErrEmptyAssignment = errors.New("empty assignment")

	// ErrInvalidClusterID is returned for mask requests outside [0, K).
	ErrInvalidClusterID = errors.New("invalid cluster id")
)
