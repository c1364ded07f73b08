package metrics

import (
	"errors"
)

// ErrWriteTextfile is returned when the textfile export fails.
var ErrWriteTextfile = errors.New("metrics textfile write failed")
