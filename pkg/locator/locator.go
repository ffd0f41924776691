// Package locator validates the connection-endpoint strings handed to the
// transport layer before a session is opened.
package locator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidLocator indicates a locator string that does not match the
// required wire format. It is fatal at startup: a node must not open a
// session against an endpoint it cannot parse.
var ErrInvalidLocator = errors.New("invalid locator format")

// locatorPattern matches "tcp/<ip>:<port>#iface=<name>". The check is
// purely syntactic: octets are one to three digits and are NOT range
// checked, so "tcp/999.1.1.1:7447#iface=eth0" is accepted. This mirrors
// the behaviour of the firmware this node replaces and is intentional;
// tightening it is a product decision, not a bug fix.
var locatorPattern = regexp.MustCompile(`^tcp/([0-9]{1,3}\.){3}[0-9]{1,3}:[0-9]+#iface=[a-zA-Z0-9_-]+$`)

// Validate checks a locator string against the required format.
// The empty string is accepted: callers treat it as "use default scouting"
// and never hand it to the transport as a connect endpoint.
func Validate(loc string) error {
	if loc == "" {
		return nil
	}
	if !locatorPattern.MatchString(loc) {
		return fmt.Errorf("%w: %q (want tcp/<ip>:<port>#iface=<name>)", ErrInvalidLocator, loc)
	}
	return nil
}

// Endpoint extracts the "<ip>:<port>" part of a valid locator, suitable for
// dialing. It returns false for the empty string or a malformed locator.
func Endpoint(loc string) (string, bool) {
	if Validate(loc) != nil || loc == "" {
		return "", false
	}
	rest := strings.TrimPrefix(loc, "tcp/")
	hostPort, _, found := strings.Cut(rest, "#")
	if !found {
		return "", false
	}
	return hostPort, true
}
