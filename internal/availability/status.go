package availability

import (
	"errors"
	"strings"
)

// Status is the normalized availability of a name at one source.
type Status string

const (
	StatusAvailable Status = "available"
	StatusTaken     Status = "taken"
	StatusUnknown   Status = "unknown"
	StatusError     Status = "error"
)

// ErrRejected marks input a provider refuses to look up at all (for example
// a domain label longer than 63 octets). It is the only outcome that
// normalizes to StatusError.
var ErrRejected = errors.New("availability: input rejected by provider")

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusTaken, StatusUnknown, StatusError:
		return true
	}
	return false
}

// ParseStatus is lenient: anything unrecognised is unknown.
func ParseStatus(raw string) Status {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return StatusUnknown
	}
	return s
}

// Outcome is what a probe reports before normalization.
type Outcome struct {
	Status Status
	Meta   map[string]string
	Err    error
}

// Normalize folds any probe outcome into one of the four statuses. A nil
// outcome means the probe never ran.
func Normalize(o *Outcome) Status {
	if o == nil {
		return StatusUnknown
	}
	if o.Err != nil {
		if errors.Is(o.Err, ErrRejected) {
			return StatusError
		}
		return StatusUnknown
	}
	if !o.Status.Valid() {
		return StatusUnknown
	}
	return o.Status
}
