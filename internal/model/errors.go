package model

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrNameRequired    = errors.New("name is required")
	ErrInvalidColor    = errors.New("invalid color format, expected hex like #fff or #ffffff")
	ErrDuplicateName   = errors.New("name already exists")
	ErrInvalidPriority = errors.New("priority must be one of low, medium, high")
	ErrInvalidEstimate = errors.New("estimated pomodoros must not be negative")
	ErrTitleRequired   = errors.New("title is required")
)
