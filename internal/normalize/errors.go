package normalize

import (
	"errors"
	"fmt"
)

// ErrNormalization marks a raw snapshot that cannot become a domain snapshot.
var ErrNormalization = errors.New("normalization failed")

// NormalizationError names the field that made the snapshot unusable.
type NormalizationError struct {
	Field  string
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrNormalization, e.Field, e.Reason)
}

func (e *NormalizationError) Is(target error) bool {
	return target == ErrNormalization
}
