package app

import "errors"

// ErrNotFound reports a missing task.
var ErrNotFound = errors.New("not found")
