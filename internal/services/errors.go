package services

import "errors"

// Kinds. Handlers map these to HTTP status codes; every specific error below
// wraps exactly one of them.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a domain error carrying a client-safe message and its kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func invalid(message string) error {
	return newError(ErrInvalidInput, message)
}

var (
	ErrInvalidCredentials  = newError(ErrUnauthorized, "invalid email or password")
	ErrInvalidToken        = newError(ErrUnauthorized, "invalid or expired token")
	ErrAccountDisabled     = newError(ErrForbidden, "account is suspended or deleted")
	ErrEmailTaken          = newError(ErrConflict, "email is already registered")
	ErrUsernameTaken       = newError(ErrConflict, "username is already taken")
	ErrUserNotFound        = newError(ErrNotFound, "user not found")
	ErrLastAdmin           = newError(ErrConflict, "the last admin cannot be removed")
	ErrSelfModification    = newError(ErrForbidden, "admins cannot demote, suspend or delete themselves")
	ErrAdminProtected      = newError(ErrForbidden, "admins cannot delete other admins")
	ErrGoogleDisabled      = newError(ErrNotFound, "google login is not configured")
	ErrEmailNotVerified    = newError(ErrUnauthorized, "google account email is not verified")
	ErrConnectionSelf      = newError(ErrInvalidInput, "cannot connect with yourself")
	ErrConnectionExists    = newError(ErrConflict, "a connection already exists between these users")
	ErrConnectionNotFound  = newError(ErrNotFound, "connection not found")
	ErrConnectionNotActor  = newError(ErrForbidden, "only the addressee can respond to this request")
	ErrConnectionResolved  = newError(ErrConflict, "connection request is no longer pending")
	ErrMessageSelf         = newError(ErrInvalidInput, "cannot message yourself")
	ErrMessageLength       = newError(ErrInvalidInput, "message must be between 1 and 5000 characters")
	ErrEventNotFound       = newError(ErrNotFound, "event not found")
	ErrEventFull           = newError(ErrConflict, "event is at capacity")
	ErrEventPast           = newError(ErrConflict, "event has already ended")
	ErrNotOwner            = newError(ErrForbidden, "you do not own this resource")
	ErrInventoryNotFound   = newError(ErrNotFound, "inventory item not found")
	ErrGemstoneNotFound    = newError(ErrNotFound, "gemstone not found")
	ErrInsufficientStock   = newError(ErrConflict, "insufficient stock")
	ErrOwnGemstone         = newError(ErrInvalidInput, "you cannot buy your own gemstone")
	ErrCartItemNotFound    = newError(ErrNotFound, "cart item not found")
	ErrEmptyCart           = newError(ErrInvalidInput, "cart is empty")
	ErrOrderNotFound       = newError(ErrNotFound, "order not found")
	ErrInvalidTransition   = newError(ErrConflict, "order status transition is not allowed")
	ErrListingNotFound     = newError(ErrNotFound, "listing not found")
	ErrListingInactive     = newError(ErrConflict, "listing is no longer active")
	ErrGroupNotFound       = newError(ErrNotFound, "group purchase not found")
	ErrGroupClosed         = newError(ErrConflict, "group purchase is closed")
	ErrNotParticipant      = newError(ErrNotFound, "you have not joined this group purchase")
	ErrAPIKeyNotFound      = newError(ErrNotFound, "api key not found")
	ErrInvalidAPIKey       = newError(ErrUnauthorized, "invalid or revoked api key")
	ErrIdempotencyConflict = newError(ErrConflict, "a request with this idempotency key is still in progress")
)
