package payload

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedPayload marks bytes that are not a decodable retrieve reply.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrIncompletePayload marks a well-formed reply missing a required field.
	ErrIncompletePayload = errors.New("incomplete payload")
)

// IncompleteError lists the required fields that were absent.
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%s: missing %s", ErrIncompletePayload, strings.Join(e.Missing, ", "))
}

// Is lets errors.Is(err, ErrIncompletePayload) match.
func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncompletePayload
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedPayload, fmt.Sprintf(format, args...))
}
