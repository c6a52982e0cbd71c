package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches every *NotFoundError via errors.Is.
	ErrNotFound = errors.New("not found")

	ErrInvalidOutcome = errors.New("invalid delivery outcome")
	ErrNotFailed      = errors.New("only failed messages can be resent")
	ErrAlreadyResent  = errors.New("message was already resent")
	ErrNoConversation = errors.New("no conversation selected")
)

// NotFoundError is returned when an operation references an id the stores do
// not know. It signals a desynchronized caller and must not be swallowed.
type NotFoundError struct {
	Kind string // "conversation", "message" or "token"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) true for any NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func conversationNotFound(id string) error {
	return &NotFoundError{Kind: "conversation", ID: id}
}

func messageNotFound(id string) error {
	return &NotFoundError{Kind: "message", ID: id}
}
