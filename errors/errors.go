// Package errors defines the pool client error taxonomy and retry helpers.
//
// Precondition violations (NotMember, AlreadyMember, NoOpCategoryChange,
// OutOfOrderEra) are rejected synchronously before any remote call is made.
// StaleSnapshot and NotReady describe the degraded read-side conditions of a
// registry whose last hydration failed or that has never hydrated at all.
package errors

import (
	sdkerrors "cosmossdk.io/errors"
)

// Codespace namespaces all registered pool client errors.
const Codespace = "poolclient"

// Error codes for the pool client
const (
	BaseErrorCode uint32 = 1
)

var (
	// ErrNotMember is returned when an operation requires pool membership
	// and the identity is not currently a member.
	ErrNotMember = sdkerrors.Register(Codespace, BaseErrorCode+1, "validator is not a pool member")

	// ErrAlreadyMember is returned when a join intent targets an identity
	// that is already registered in the pool.
	ErrAlreadyMember = sdkerrors.Register(Codespace, BaseErrorCode+2, "validator is already a pool member")

	// ErrNoOpCategoryChange is returned when a recategorize intent names the
	// identity's current category.
	ErrNoOpCategoryChange = sdkerrors.Register(Codespace, BaseErrorCode+3, "new category equals current category")

	// ErrInvalidCategory is returned when a category value is outside the
	// closed stake/parliamentary/merit set.
	ErrInvalidCategory = sdkerrors.Register(Codespace, BaseErrorCode+4, "unknown validator category")

	// ErrOutOfOrderEra is returned when a selection history append carries an
	// era index at or below an earlier recorded entry. The history is left
	// unchanged.
	ErrOutOfOrderEra = sdkerrors.Register(Codespace, BaseErrorCode+5, "selection era index is out of order")

	// ErrStaleSnapshot reports that the most recent hydration failed and the
	// registry is serving the last good snapshot. Recoverable; self-heals on
	// the next successful poll.
	ErrStaleSnapshot = sdkerrors.Register(Codespace, BaseErrorCode+6, "hydration failed, serving cached snapshot")

	// ErrNotReady reports that no hydration has ever succeeded, so the
	// registry has no data to serve.
	ErrNotReady = sdkerrors.Register(Codespace, BaseErrorCode+7, "registry has not completed an initial hydration")

	// ErrProviderUnavailable wraps chain state provider failures (transport,
	// timeout, decode) observed during hydration or intent submission.
	ErrProviderUnavailable = sdkerrors.Register(Codespace, BaseErrorCode+8, "chain state provider unavailable")

	// ErrForeignSigner is returned when an intent names an identity the
	// configured signer cannot sign for.
	ErrForeignSigner = sdkerrors.Register(Codespace, BaseErrorCode+9, "intent identity does not match configured signer")
)

// IsPrecondition reports whether err is one of the synchronous local
// precondition violations that must never reach the chain.
func IsPrecondition(err error) bool {
	return sdkerrors.IsOf(err,
		ErrNotMember,
		ErrAlreadyMember,
		ErrNoOpCategoryChange,
		ErrInvalidCategory,
		ErrOutOfOrderEra,
	)
}

// IsRetryable reports whether err is a transient provider-side failure worth
// retrying. Local precondition violations and degraded-read conditions are
// never retryable.
func IsRetryable(err error) bool {
	return sdkerrors.IsOf(err, ErrProviderUnavailable)
}
