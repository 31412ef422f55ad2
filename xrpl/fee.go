package xrpl

import (
	"context"

	"go.uber.org/zap"

	xrp402 "github.com/ScavieFae/xrp402"
)

// VerifyFee checks the facilitator-fee instruction against the advertised
// fee schedule. It runs during verification, before anything is
// submitted.
//
// When the tier's advertised fee is zero or unset the check passes
// unconditionally, whether or not fee fields are present. When the tier
// charges a fee: a facilitator receiving account must be configured (a
// missing one is a configuration gap, not the client's fault, but still a
// rejection), the fee instruction must be present, decode, verify, match
// its own claims, pay the configured account the exact advertised amount,
// and be signed by the same payer as the primary payment.
func VerifyFee(codec Codec, payload *ExactXrplPayload, cfg Config) *CheckFailure {
	advertised := cfg.FeeSchedule.ForKind(payload.Authorization.Amount.Kind())
	if advertised == "" {
		return nil
	}

	if cfg.FeeAccount == "" {
		return fail(ReasonFeeNotConfigured)
	}

	fee := payload.FacilitatorFee
	if fee == nil {
		return fail(ReasonFeePaymentRequired)
	}

	tx, err := codec.Decode(fee.SignedTxBlob)
	if err != nil {
		return fail(ReasonInvalidFeeTransaction)
	}
	if tx.TransactionType != "Payment" || tx.Amount.Kind() != AmountNative {
		return fail(ReasonInvalidFeeTransaction)
	}
	if err := codec.ValidateTransaction(tx); err != nil {
		return fail(ReasonInvalidFeeTransaction)
	}

	valid, err := codec.VerifySignature(fee.SignedTxBlob)
	if err != nil || !valid {
		return fail(ReasonInvalidFeeSignature)
	}

	// Claimed fee fields must match the decoded fee transaction.
	claim := &fee.Authorization
	if tx.Account != claim.Account || tx.Destination != claim.Destination {
		return fail(ReasonFeeMismatch)
	}
	if cmp, err := compareDrops(tx.Amount.Drops(), claim.Drops); err != nil || cmp != 0 {
		return fail(ReasonFeeMismatch)
	}
	if claim.TicketSequence != 0 {
		if !tx.UsesTicket() || tx.TicketSequence != claim.TicketSequence {
			return fail(ReasonFeeMismatch)
		}
	} else if tx.TicketSequence != 0 || tx.Sequence != claim.Sequence {
		return fail(ReasonFeeMismatch)
	}

	if claim.Destination != cfg.FeeAccount {
		return fail(ReasonFeeMismatch)
	}

	// The advertised fee is exact, not a minimum.
	if cmp, err := compareDrops(claim.Drops, advertised); err != nil || cmp != 0 {
		return fail(ReasonFeeMismatch)
	}

	// Same payer signs both instructions.
	if claim.Account != payload.Authorization.Account {
		return fail(ReasonFeeMismatch)
	}

	return nil
}

// settleFee submits the facilitator-fee instruction after the primary
// settlement has succeeded. It is strictly best-effort: the fee blob is
// used exactly once, never retried, and any failure is absorbed by the
// facilitator. Nothing here ever alters the primary result the caller
// receives. Fee submission strictly follows confirmed primary success,
// so the client cannot end up charged without the resource.
func settleFee(ctx context.Context, ledger Ledger, fee *FeePayload, network xrp402.Network, cfg Config, log *zap.Logger) {
	result := SubmitAndAwait(ctx, ledger, fee.SignedTxBlob, network, fee.Authorization.Account, cfg, log)
	if result.Success {
		log.Info("facilitator fee collected",
			zap.String("hash", result.Transaction),
			zap.String("payer", fee.Authorization.Account),
			zap.String("drops", fee.Authorization.Drops))
		return
	}

	// Recorded for observability only; the loss is the facilitator's.
	log.Warn("facilitator fee collection failed",
		zap.String("reason", result.ErrorReason),
		zap.String("hash", result.Transaction),
		zap.String("payer", fee.Authorization.Account),
		zap.String("drops", fee.Authorization.Drops))
}
