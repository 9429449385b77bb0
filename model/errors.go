package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrEventDoesNotExist = fmt.Errorf("event do not exist: %w", ErrNotFound)
	ErrDraftDoesNotExist = fmt.Errorf("draft do not exist: %w", ErrNotFound)
	ErrStoreFailure      = errors.New("store failure")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInvalidMode       = errors.New("invalid mode")
)
