package directory

import (
	"errors"
	"fmt"
)

// NonexistentRoleError is returned by operations requiring a role record that
// does not exist.
type NonexistentRoleError struct {
	Name string
}

func (e *NonexistentRoleError) Error() string {
	return fmt.Sprintf("role %q does not exist", e.Name)
}

// IsNonexistentRole reports whether err is a NonexistentRoleError.
func IsNonexistentRole(err error) bool {
	var nre *NonexistentRoleError
	return errors.As(err, &nre)
}

// ErrUnimplemented is returned by operations the directory refuses to
// support: role identity and membership are owned by the external
// authenticator and must not be mutated through this service.
var ErrUnimplemented = errors.New("operation not supported by the role directory")
