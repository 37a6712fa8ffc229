package service

import (
	"errors"
	"fmt"

	"playcafe/internal/database"
	"playcafe/internal/lifecycle"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrRateLimited          = errors.New("too many attempts")
	ErrTransitionNotAllowed = lifecycle.ErrTransitionNotAllowed
	ErrNotFound             = database.ErrNotFound
	ErrConflict             = database.ErrConcurrentModification
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
