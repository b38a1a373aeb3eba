package model

import (
	"errors"
	"fmt"
)

// Error taxonomy. Resource-specific errors below wrap one of these so
// handlers can map them with errors.Is.
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrOperationFailed  = errors.New("operation failed")
)

var (
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrPostNotFound    = fmt.Errorf("post %w", ErrNotFound)
	ErrCommentNotFound = fmt.Errorf("comment %w", ErrNotFound)
	ErrProfileNotFound = fmt.Errorf("profile %w", ErrNotFound)

	ErrCannotFollowSelf = fmt.Errorf("%w: cannot follow yourself", ErrInvalidOperation)
	ErrTargetRequired   = fmt.Errorf("%w: target id is required", ErrInvalidOperation)
	ErrBatchTooLarge    = fmt.Errorf("%w: too many ids in one batch", ErrInvalidOperation)
	ErrUserExists       = fmt.Errorf("%w: user already exists", ErrInvalidOperation)

	ErrNotPostOwner    = fmt.Errorf("%w: not the owner of this post", ErrForbidden)
	ErrNotCommentOwner = fmt.Errorf("%w: not the owner of this comment", ErrForbidden)
	ErrNotProfileOwner = fmt.Errorf("%w: can only edit your own profile", ErrForbidden)
)

// Failed marks err as a store-level failure while keeping it inspectable.
func Failed(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrOperationFailed, err)
}
