package signal

import (
	"errors"
	"fmt"
)

// ErrUnrecognizedValue indicates a command payload outside the accepted
// vocabulary. It is recovered locally: no state change, no echo.
var ErrUnrecognizedValue = errors.New("unrecognized target value")

// State is the actuator state an echo reports: On or Off.
type State bool

const (
	On  State = true
	Off State = false
)

// String returns the wire form of the state, which is also the accepted
// command vocabulary.
func (s State) String() string {
	if s == On {
		return "true"
	}
	return "false"
}

// ParseState maps a command payload onto a State. The vocabulary is exactly
// the two literals "true" and "false" — case-sensitive, full-string byte
// match. This is deliberately not a general boolean parser: "True", "1" and
// friends are unrecognised.
func ParseState(payload string) (State, error) {
	switch payload {
	case "true":
		return On, nil
	case "false":
		return Off, nil
	default:
		return Off, fmt.Errorf("%w: %q", ErrUnrecognizedValue, payload)
	}
}
