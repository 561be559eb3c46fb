package models

import (
	"errors"
)

// custom error types (generic types found in apperror package)

// choice
// transformed by controllers to Bad Request (400)
var (
	ErrUserIDMissing     = errors.New("user id is required")
	ErrLocationIDMissing = errors.New("location id is required")
	ErrInvalidRating     = errors.New("ratings must be numbers between 1 and 10")
)
