package domain

import "errors"

var (
	ErrInvalidID     = errors.New("invalid id")
	ErrEmptyTask     = errors.New("task needs a title or a description")
	ErrInvalidFilter = errors.New("invalid filter")
)
