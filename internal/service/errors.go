package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced profile, channel or video
	// is absent.
	ErrNotFound = errors.New("not found")

	// ErrLimitExceeded is returned when a profile already owns the maximum
	// number of channels.
	ErrLimitExceeded = errors.New("channel limit exceeded")

	// ErrDuplicateReport is returned when a profile reports the same video
	// twice.
	ErrDuplicateReport = errors.New("video already reported by this profile")

	// ErrHandleExhausted is returned when handle allocation gives up after
	// the bounded number of attempts.
	ErrHandleExhausted = errors.New("handle allocation attempts exhausted")
)

// BannedWordError rejects a channel name or description containing a term
// from the banned-word list. The first matching term is reported.
type BannedWordError struct {
	Field string
	Term  string
}

func (e *BannedWordError) Error() string {
	return fmt.Sprintf("%s contains a banned term: %s", e.Field, e.Term)
}
