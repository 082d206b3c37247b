package atomid

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIdentity is returned for owner identities that are not 32-byte base58 keys.
	ErrInvalidIdentity = errors.New("invalid identity")
	// ErrMalformedAccount is returned when account data does not fit the record layout.
	ErrMalformedAccount = errors.New("malformed account")
	// ErrExternalReadFailure wraps errors surfaced by the ledger RPC.
	ErrExternalReadFailure = errors.New("external read failure")
)

// InsufficientRankError is returned by RequireMinRank when the owner's rank is too low.
type InsufficientRankError struct {
	Required Rank
	Current  Rank
}

func (e *InsufficientRankError) Error() string {
	return fmt.Sprintf("insufficient AtomID rank: required %d, current %d", e.Required, e.Current)
}

func malformedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedAccount, fmt.Sprintf(format, args...))
}
