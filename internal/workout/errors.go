package workout

import "errors"

var (
	ErrMissingOwner      = errors.New("owner id required")
	ErrInvalidName       = errors.New("name must be between 3 and 300 characters")
	ErrInvalidType       = errors.New("activity type must be between 3 and 50 characters")
	ErrInvalidSort       = errors.New("invalid sort field or order")
	ErrInvalidPagination = errors.New("page and limit must be positive and limit within the allowed maximum")
	ErrNotFound          = errors.New("workout not found")
	ErrPersistence       = errors.New("failed to store workout")
	ErrQueryFailed       = errors.New("failed to query workouts")
)
