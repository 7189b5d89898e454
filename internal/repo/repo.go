package repo

import "errors"

// Storage-level failures. The service layer re-maps these into the auth
// error taxonomy; they never reach handlers directly.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)
