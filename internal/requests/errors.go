package requests

import "errors"

// Workflow error sentinels. Handlers map these onto the HTTP surface;
// clients must be able to tell a conflict ("wait for a response") apart from
// a validation failure, so each kind gets its own sentinel.
var (
	ErrTargetNotFound      = errors.New("target user not found")
	ErrSelfRequest         = errors.New("cannot request your own information")
	ErrEmptyScope          = errors.New("request must ask for at least one share kind")
	ErrActiveRequestExists = errors.New("you already have a pending request")
	ErrCooldownActive      = errors.New("please wait before requesting this member again")

	ErrRequestNotFound  = errors.New("request not found")
	ErrNotRequestTarget = errors.New("request is addressed to another user")
	ErrAlreadyProcessed = errors.New("request has already been processed")
	ErrRequestExpired   = errors.New("request has expired")
	ErrEmptyGrant       = errors.New("granted scope shares nothing that was requested")

	// ErrTokenInvalid deliberately merges unknown, spent and expired tokens
	// so the public endpoint never reveals which one it was.
	ErrTokenInvalid = errors.New("this link is no longer valid")
)
