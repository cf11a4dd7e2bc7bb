package dao

import "errors"

// Sentinel errors. Every one of them aborts the whole operation; callers match
// with errors.Is so the UI can tell "already voted" from "not authorized".
var (
	ErrUnauthorized                  = errors.New("okinoko: caller is not the owner")
	ErrNotTransferable               = errors.New("okinoko: receipt balance is not transferable")
	ErrInvalidSupportValue           = errors.New("okinoko: support must be 0, 1 or 2")
	ErrAlreadyVotedOnProposal        = errors.New("okinoko: already voted on proposal")
	ErrAmountExceedsAvailableRewards = errors.New("okinoko: amount exceeds available rewards")
	ErrInsufficientBalance           = errors.New("okinoko: insufficient balance")
	ErrInvalidOwnerAddress           = errors.New("okinoko: invalid owner address")
	ErrOwnerAlreadyHasInstance       = errors.New("okinoko: owner already has an instance")
	ErrInstanceNotRecognized         = errors.New("okinoko: instance not recognized")
	ErrAlreadyResolved               = errors.New("okinoko: proposal already resolved")
	ErrAlreadyClaimed                = errors.New("okinoko: stake already claimed")
	ErrArithmetic                    = errors.New("okinoko: arithmetic overflow or underflow")

	ErrZeroAmount        = errors.New("okinoko: amount must be greater than zero")
	ErrInvalidSide       = errors.New("okinoko: side must be 0 (against) or 1 (for)")
	ErrInvalidOutcome    = errors.New("okinoko: outcome must be 1 (for won) or 2 (against won)")
	ErrStakeSideConflict = errors.New("okinoko: existing stake is on the other side")
	ErrNotResolved       = errors.New("okinoko: proposal not resolved")
	ErrNoStake           = errors.New("okinoko: no stake on proposal")
	ErrOwnerMismatch     = errors.New("okinoko: recorded owner does not match")
	ErrReentrantCall     = errors.New("okinoko: re-entrant call rejected")
	ErrInstanceNotFound  = errors.New("okinoko: instance not found")
	ErrCorruptRecord     = errors.New("okinoko: corrupt record")
	ErrInvalidPayload    = errors.New("okinoko: invalid payload")
	ErrUnknownAction     = errors.New("okinoko: unknown action")
)
