package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repo and service functions when the requested
// event (or installation) does not exist for the team.
// Chat boundaries map this to a "couldn't find" message.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. unparseable day, malformed time, missing argument).
var ErrValidation = errors.New("validation error")

// ErrPastDate is returned by the date resolver when the input parses to a day
// that is today or earlier. It wraps ErrValidation so callers that only care
// about "bad input" can match either.
var ErrPastDate = fmt.Errorf("%w: date must be in the future", ErrValidation)

// ErrConflict is returned by the event repo when an insert violates the
// one-event-per-day unique index for the team.
var ErrConflict = errors.New("conflict")

// ErrNotAuthor is returned by the event repo when a delete is attempted by a
// user other than the event's author. The event is left untouched.
var ErrNotAuthor = errors.New("not the event author")

// ErrInvalidTime is returned when an event time is not a valid HH:MM time of
// day. It wraps ErrValidation.
var ErrInvalidTime = fmt.Errorf("%w: time must look like 18:30", ErrValidation)
