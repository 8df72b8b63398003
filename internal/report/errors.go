package report

import "github.com/rotisserie/eris"

// ValidationError rejects a report request before any work is done.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"error"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validation failures. Build returns these values, so errors.Is matches them.
var (
	ErrMissingCity   = &ValidationError{Field: "city", Message: "missing city"}
	ErrMissingSector = &ValidationError{Field: "sector", Message: "missing sector"}
)

// ErrSuperseded is returned by Session.Submit when a newer submission replaced
// the one in flight.
var ErrSuperseded = eris.New("report: superseded by a newer submission")
