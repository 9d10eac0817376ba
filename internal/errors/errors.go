// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by errors that report a resource missing upstream or in a store.
var ErrNotFound = errors.New("not found")

// ErrInvalidRepoFormat is returned when a repository string is not in 'owner/name' format.
type ErrInvalidRepoFormat struct {
	Repo string
}

func (e *ErrInvalidRepoFormat) Error() string {
	return fmt.Sprintf("invalid repository format: %q, expected 'owner/name'", e.Repo)
}

// ErrUnknownJob is returned when a configured sync job name is not recognised.
type ErrUnknownJob struct {
	Name string
}

func (e *ErrUnknownJob) Error() string {
	return fmt.Sprintf("unknown sync job: %q", e.Name)
}
