package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// Submission rejections. Expected outcomes, surfaced to the user
	// and never logged as failures.
	ErrAlreadySubmitted   = errors.New("prediction already submitted")
	ErrMatchLocked        = errors.New("match is locked for predictions")
	ErrDailyQuotaExceeded = errors.New("daily prediction quota exceeded")
)
