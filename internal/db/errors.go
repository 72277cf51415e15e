package db

import "errors"

// Domain-level database error sentinels.
var (
	// User errors
	ErrUserNotFound = errors.New("user not found")

	// Profile errors
	ErrProfileNotFound = errors.New("profile not found")

	// Photo errors
	ErrPhotoNotFound = errors.New("photo not found")

	// Info request errors
	ErrRequestNotFound   = errors.New("info request not found")
	ErrRequestNotPending = errors.New("info request is no longer pending")
	ErrPendingExists     = errors.New("requester already has a pending request")
	ErrSelfRequest       = errors.New("cannot request your own information")

	// Share token errors
	ErrTokenNotFound = errors.New("share token not found")
	ErrTokenSpent    = errors.New("share token already redeemed or expired")
)
