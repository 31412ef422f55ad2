package xrp402

import "context"

// SchemeNetworkFacilitator is implemented by facilitator-side payment
// mechanisms. A mechanism owns the full verification and settlement
// pipeline for one scheme on one ledger family; the Facilitator registry
// routes requests to it by (scheme, network).
type SchemeNetworkFacilitator interface {
	Scheme() string

	// CaipFamily returns the network family pattern this mechanism
	// supports, e.g. "xrpl:*".
	CaipFamily() string

	// GetExtra returns mechanism-specific extra data for the supported
	// kinds endpoint (fee schedule, facilitator fee account, allowlists).
	// Returns nil when there is nothing to advertise.
	GetExtra(network Network) map[string]interface{}

	// GetSigners returns signer addresses used by this mechanism for a
	// given network. A relay-only mechanism that submits pre-signed
	// instructions returns an empty slice.
	GetSigners(network Network) []string

	Verify(ctx context.Context, payload PaymentPayload, requirements PaymentRequirements) (*VerifyResponse, error)
	Settle(ctx context.Context, payload PaymentPayload, requirements PaymentRequirements) (*SettleResponse, error)
}
