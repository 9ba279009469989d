package vecstore

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks failures caused by missing or inconsistent configuration
// rather than by a collaborator. They are not worth retrying.
var ErrConfiguration = errors.New("configuration error")

// ErrDimensionMismatch indicates two vectors, or two snapshot rows, have different dimensions.
var ErrDimensionMismatch = fmt.Errorf("%w: embedding dimension mismatch", ErrConfiguration)
