package session

import (
	"fmt"
	"regexp"
)

// Session names become directory and socket names, and are passed to
// odysiad as a flag value, so they may not start with a hyphen.
var nameRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// ValidateName checks that name is usable as a session name.
func ValidateName(name string) error {
	if !nameRegexp.MatchString(name) {
		return fmt.Errorf("invalid session name %q: want 1-64 of [a-z0-9_-], starting with a letter or digit", name)
	}
	return nil
}
