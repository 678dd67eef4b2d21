package scoring

import "errors"

var (
	// ErrInvalidFloor is returned when the acceptance floor is outside [0, 15].
	ErrInvalidFloor = errors.New("acceptance floor must be within [0, 15]")
)
