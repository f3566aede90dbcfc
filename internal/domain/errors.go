package domain

import "errors"

// Sentinel errors the store layer translates driver failures into.
// Handlers match them with errors.Is to pick status codes.
var (
	// ErrDuplicateSubscriber means an insert-if-absent found the email
	// already enrolled. The existing record is untouched.
	ErrDuplicateSubscriber = errors.New("email already subscribed")

	// ErrSubscriberNotFound means an unsubscribe deleted nothing.
	ErrSubscriberNotFound = errors.New("email is not subscribed")
)
