package service

import "errors"

var (
	// ErrNotFound covers both missing rows and rows owned by another user.
	ErrNotFound = errors.New("not found")
	// ErrForbiddenPath is returned for storage paths outside
	// inspections/<inspection_id>/<file name>.
	ErrForbiddenPath   = errors.New("storage path not allowed")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image too large")
)
