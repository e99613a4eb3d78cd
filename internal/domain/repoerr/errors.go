// Package repoerr holds the sentinels every storage backend maps its driver
// errors to.
package repoerr

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
