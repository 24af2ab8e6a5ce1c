package models

import "errors"

// Sentinel errors for the follow state machine and messaging stores.
// Controllers map these onto HTTP statuses; callers can distinguish
// "already in desired state" (conflict) from "state not found".
var (
	ErrSelfFollow       = errors.New("cannot follow yourself")
	ErrDuplicateRequest = errors.New("follow request already pending")
	ErrRequestNotFound  = errors.New("follow request not found")
	ErrAlreadyFollowing = errors.New("already following user")
	ErrFollowNotFound   = errors.New("follow relationship not found")
	ErrSelfConversation = errors.New("conversation requires two distinct users")
	ErrEmptyMessage     = errors.New("message text is required")
)
