package services

import (
	"errors"

	"github.com/lantern-eats/api/internal/repositories"
)

// Sentinel errors shared across services. Wrapped variants carry contextual
// detail; callers match with errors.Is.
var (
	ErrInvalidInput = errors.New("services: invalid input")

	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrAccountExists      = errors.New("auth: account already exists")

	ErrCategoryNotFound  = errors.New("catalog: category not found")
	ErrCategoryNameTaken = errors.New("catalog: category name already in use")
	ErrCategoryInUse     = errors.New("catalog: category still has dishes")
	ErrDishNotFound      = errors.New("catalog: dish not found")

	ErrOrderNotFound       = errors.New("order: not found")
	ErrOrderEmpty          = errors.New("order: at least one item is required")
	ErrDishUnavailable     = errors.New("order: dish unavailable")
	ErrPriceMismatch       = errors.New("order: price mismatch")
	ErrInvalidStatus       = errors.New("order: invalid status value")
	ErrOrderNotCancellable = errors.New("order: status does not permit cancellation")

	ErrStorageUnavailable = errors.New("services: storage unavailable")
)

func isNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

func isConflict(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}
