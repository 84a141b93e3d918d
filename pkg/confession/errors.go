package confession

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when a deletion code, id or audio key does not
// resolve to a live confession. Handlers surface it as a 404 so that clients
// can show "invalid code" instead of a generic failure.
var ErrNotFound = errors.New("confession not found")

// ErrKeyExists is returned by AudioStorage.Write when the key is already
// taken. Keys are UUIDs, so hitting this indicates a serious bug rather than
// a retry case.
var ErrKeyExists = errors.New("audio key already exists")

// ValidationError marks missing or empty required input. Handlers surface it
// as a 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
