package xrpl

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	xrp402 "github.com/ScavieFae/xrp402"
)

// ExactXrplFacilitator implements the SchemeNetworkFacilitator interface
// for exact payments on XRPL networks. It validates pre-signed payment
// instructions against requirements and relays them to the ledger; it
// holds no keys and never custodies funds.
type ExactXrplFacilitator struct {
	codec  Codec
	ledger Ledger
	cfg    Config
	log    *zap.Logger
}

// NewExactXrplFacilitator creates a new ExactXrplFacilitator. A nil
// ledger yields a verification-only mechanism: the offline stage runs,
// the network stage is skipped, and Settle reports the missing
// connection as an error.
func NewExactXrplFacilitator(codec Codec, ledger Ledger, cfg Config, log *zap.Logger) *ExactXrplFacilitator {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExactXrplFacilitator{
		codec:  codec,
		ledger: ledger,
		cfg:    cfg.withDefaults(),
		log:    log,
	}
}

// Scheme returns the scheme identifier
func (f *ExactXrplFacilitator) Scheme() string {
	return SchemeExact
}

// CaipFamily returns the network family pattern this mechanism supports
func (f *ExactXrplFacilitator) CaipFamily() string {
	return CaipFamilyXRPL
}

// GetExtra advertises the fee schedule, fee account and MPT allowlist for
// the supported kinds endpoint. This reads static configuration only.
func (f *ExactXrplFacilitator) GetExtra(network xrp402.Network) map[string]interface{} {
	extra := map[string]interface{}{}

	fees := map[string]interface{}{}
	if f.cfg.FeeSchedule.NativeDrops != "" {
		fees["native"] = f.cfg.FeeSchedule.NativeDrops
	}
	if f.cfg.FeeSchedule.IssuedDrops != "" {
		fees["issued"] = f.cfg.FeeSchedule.IssuedDrops
	}
	if f.cfg.FeeSchedule.MPTDrops != "" {
		fees["mpt"] = f.cfg.FeeSchedule.MPTDrops
	}
	if len(fees) > 0 {
		extra["feeSchedule"] = fees
	}
	if f.cfg.FeeAccount != "" {
		extra["feeAccount"] = f.cfg.FeeAccount
	}
	if len(f.cfg.MPTAllowlist) > 0 {
		allowlist := make([]interface{}, len(f.cfg.MPTAllowlist))
		for i, id := range f.cfg.MPTAllowlist {
			allowlist[i] = id
		}
		extra["mptAllowlist"] = allowlist
	}

	if len(extra) == 0 {
		return nil
	}
	return extra
}

// GetSigners returns no addresses: this mechanism only relays pre-signed
// instructions.
func (f *ExactXrplFacilitator) GetSigners(network xrp402.Network) []string {
	return []string{}
}

// Verify verifies a payment payload against requirements. All expected
// rejection modes come back as an invalid VerifyResponse with a stable
// reason; the error return is reserved for infrastructure trouble.
func (f *ExactXrplFacilitator) Verify(
	ctx context.Context,
	payload xrp402.PaymentPayload,
	requirements xrp402.PaymentRequirements,
) (*xrp402.VerifyResponse, error) {
	if payload.Accepted.Scheme != SchemeExact {
		return &xrp402.VerifyResponse{IsValid: false, InvalidReason: ReasonInvalidScheme}, nil
	}
	if payload.Accepted.Network != requirements.Network {
		return &xrp402.VerifyResponse{IsValid: false, InvalidReason: ReasonNetworkMismatch}, nil
	}

	parsed, err := PayloadFromMap(payload.Payload)
	if err != nil {
		return &xrp402.VerifyResponse{IsValid: false, InvalidReason: ReasonInvalidPayload}, nil
	}

	if _, failure := VerifyOffline(f.codec, parsed, &requirements, f.cfg); failure != nil {
		return &xrp402.VerifyResponse{IsValid: false, InvalidReason: failure.Reason}, nil
	}

	if failure := VerifyFee(f.codec, parsed, f.cfg); failure != nil {
		return &xrp402.VerifyResponse{IsValid: false, InvalidReason: failure.Reason}, nil
	}

	if f.ledger != nil {
		if failure := VerifyWithLedger(ctx, f.ledger, parsed, &requirements, f.cfg, f.log); failure != nil {
			return &xrp402.VerifyResponse{IsValid: false, InvalidReason: failure.Reason}, nil
		}
	}

	return &xrp402.VerifyResponse{
		IsValid: true,
		Payer:   parsed.Authorization.Account,
	}, nil
}

// Settle re-verifies the payment against current ledger state, submits
// the signed blob, and awaits finality. The instruction never reaches the
// ledger when re-verification fails. When the payload carries a
// facilitator-fee instruction for a paid tier, the fee is submitted
// best-effort strictly after the primary settlement succeeds; its outcome
// never changes the returned result.
func (f *ExactXrplFacilitator) Settle(
	ctx context.Context,
	payload xrp402.PaymentPayload,
	requirements xrp402.PaymentRequirements,
) (*xrp402.SettleResponse, error) {
	verified, err := f.Verify(ctx, payload, requirements)
	if err != nil {
		return &xrp402.SettleResponse{Success: false, Network: requirements.Network}, err
	}
	if !verified.IsValid {
		return &xrp402.SettleResponse{
			Success:     false,
			ErrorReason: verified.InvalidReason,
			Network:     requirements.Network,
		}, nil
	}

	if f.ledger == nil {
		return &xrp402.SettleResponse{
			Success:     false,
			ErrorReason: ReasonLedgerUnavailable,
			Network:     requirements.Network,
		}, fmt.Errorf("settle requires a ledger connection")
	}

	parsed, err := PayloadFromMap(payload.Payload)
	if err != nil {
		return &xrp402.SettleResponse{
			Success:     false,
			ErrorReason: ReasonInvalidPayload,
			Network:     requirements.Network,
		}, nil
	}

	primary := SubmitAndAwait(ctx, f.ledger, parsed.SignedTxBlob, requirements.Network, parsed.Authorization.Account, f.cfg, f.log)

	if primary.Success && parsed.FacilitatorFee != nil {
		if advertised := f.cfg.FeeSchedule.ForKind(parsed.Authorization.Amount.Kind()); advertised != "" {
			settleFee(ctx, f.ledger, parsed.FacilitatorFee, requirements.Network, f.cfg, f.log)
		}
	}

	return primary, nil
}
