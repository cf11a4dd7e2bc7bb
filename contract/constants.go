package contract

// -----------------------------------------------------------------------------
// Validation Limits
// -----------------------------------------------------------------------------

const (
	// MaxReasonLength limits the free text attached to a vote.
	MaxReasonLength = 500
	// MaxPageSize caps a single List page.
	MaxPageSize = 1000
)

// -----------------------------------------------------------------------------
// Addressing
// -----------------------------------------------------------------------------

// InstanceAddressPrefix is followed by the 1-based creation sequence.
const InstanceAddressPrefix = "contract:ledger-"
