package xrpl

import (
	"context"
	"math/big"

	"go.uber.org/zap"

	xrp402 "github.com/ScavieFae/xrp402"
)

// VerifyWithLedger runs the network verification stage. Each check is
// individually soft-failing: when a lookup errors, the check logs and
// passes instead of rejecting. A verify-time RPC hiccup must not reject
// an otherwise valid payment; settlement re-verifies against live state
// and surfaces a real problem as a hard failure there.
func VerifyWithLedger(ctx context.Context, ledger Ledger, payload *ExactXrplPayload, requirements *xrp402.PaymentRequirements, cfg Config, log *zap.Logger) *CheckFailure {
	auth := &payload.Authorization

	if failure := CheckBalanceAndReplay(ctx, ledger, auth, cfg, log); failure != nil {
		return failure
	}

	if failure := CheckExpiry(ctx, ledger, auth, cfg, log); failure != nil {
		return failure
	}

	switch auth.Amount.Kind() {
	case AmountIssued:
		if failure := CheckDestinationTrustLine(ctx, ledger, auth, log); failure != nil {
			return failure
		}
	case AmountMPT:
		if failure := CheckMPTIssuance(ctx, ledger, auth.Amount.IssuanceID(), log); failure != nil {
			return failure
		}
		if failure := CheckMPTHolder(ctx, ledger, auth, log); failure != nil {
			return failure
		}
		if failure := CheckMPTDestination(ctx, ledger, auth, log); failure != nil {
			return failure
		}
	}

	return nil
}

// CheckBalanceAndReplay checks that the source account can fund the
// instruction and that its replay handle is still live. For native
// payments the balance must cover amount + network fee + reserve; for
// issued and MPT payments only fee + reserve come out of the XRP balance.
func CheckBalanceAndReplay(ctx context.Context, ledger Ledger, auth *ExactXrplAuthorization, cfg Config, log *zap.Logger) *CheckFailure {
	account, err := ledger.AccountInfo(ctx, auth.Account)
	if err != nil {
		log.Debug("account lookup failed, passing balance check",
			zap.String("account", auth.Account), zap.Error(err))
		return nil
	}

	required := []string{auth.Fee, cfg.ReserveDrops}
	if auth.Amount.Kind() == AmountNative {
		required = append(required, auth.Amount.Drops())
	}
	need, err := addDrops(required...)
	if err != nil {
		return fail(ReasonInvalidPayload)
	}

	balance, ok := new(big.Int).SetString(account.Balance, 10)
	if !ok {
		log.Debug("unparseable account balance, passing balance check",
			zap.String("account", auth.Account), zap.String("balance", account.Balance))
		return nil
	}
	if balance.Cmp(need) < 0 {
		return fail(ReasonInsufficientBalance)
	}

	if auth.UsesTicket() {
		tickets, err := ledger.AccountTickets(ctx, auth.Account)
		if err != nil {
			log.Debug("ticket lookup failed, passing replay check",
				zap.String("account", auth.Account), zap.Error(err))
			return nil
		}
		for _, ticket := range tickets {
			if ticket == auth.TicketSequence {
				return nil
			}
		}
		return fail(ReasonTicketNotFound)
	}

	if account.Sequence != auth.Sequence {
		return fail(ReasonSequenceMismatch)
	}
	return nil
}

// CheckExpiry requires a present LastLedgerSequence to leave at least the
// configured buffer beyond the current ledger index. Instruction without
// an expiry (valid for ticket-based payments) skip the check.
func CheckExpiry(ctx context.Context, ledger Ledger, auth *ExactXrplAuthorization, cfg Config, log *zap.Logger) *CheckFailure {
	if auth.LastLedgerSequence == 0 {
		return nil
	}

	index, err := ledger.LedgerIndex(ctx)
	if err != nil {
		log.Debug("ledger index lookup failed, passing expiry check", zap.Error(err))
		return nil
	}

	if auth.LastLedgerSequence <= index+cfg.ExpiryBuffer {
		return fail(ReasonPaymentExpired)
	}
	return nil
}

// CheckDestinationTrustLine requires the destination of an issued-asset
// payment to hold an open, unfrozen trust line to the issuer with a
// positive limit.
func CheckDestinationTrustLine(ctx context.Context, ledger Ledger, auth *ExactXrplAuthorization, log *zap.Logger) *CheckFailure {
	line, err := ledger.TrustLine(ctx, auth.Destination, auth.Amount.Issuer(), auth.Amount.Currency())
	if err != nil {
		log.Debug("trust line lookup failed, passing trust check",
			zap.String("destination", auth.Destination), zap.Error(err))
		return nil
	}
	if line == nil {
		return fail(ReasonNoTrustLine)
	}
	if line.Frozen {
		return fail(ReasonTrustLineFrozen)
	}
	if cmp, err := compareDecimal(line.Limit, "0"); err != nil || cmp <= 0 {
		return fail(ReasonNoTrustLine)
	}
	return nil
}

// CheckMPTIssuance requires the issuance to exist and to be transferable.
// This facilitator submits on the payer's behalf, so a non-transferable
// issuance can never settle.
func CheckMPTIssuance(ctx context.Context, ledger Ledger, issuanceID string, log *zap.Logger) *CheckFailure {
	issuance, err := ledger.MPTokenIssuance(ctx, issuanceID)
	if err != nil {
		log.Debug("mpt issuance lookup failed, passing issuance check",
			zap.String("issuance", issuanceID), zap.Error(err))
		return nil
	}
	if issuance == nil {
		return fail(ReasonMPTIssuanceNotFound)
	}
	if !issuance.CanTransfer || issuance.Locked {
		return fail(ReasonMPTNotTransferable)
	}
	return nil
}

// CheckMPTHolder requires the source to hold an authorized, unlocked MPT
// balance covering the claimed amount.
func CheckMPTHolder(ctx context.Context, ledger Ledger, auth *ExactXrplAuthorization, log *zap.Logger) *CheckFailure {
	holding, err := ledger.MPToken(ctx, auth.Account, auth.Amount.IssuanceID())
	if err != nil {
		log.Debug("mpt holder lookup failed, passing holder check",
			zap.String("account", auth.Account), zap.Error(err))
		return nil
	}
	if holding == nil || !holding.Authorized || holding.Locked {
		return fail(ReasonMPTUnauthorizedHolder)
	}
	if cmp, err := compareDecimal(holding.Amount, auth.Amount.Value()); err != nil || cmp < 0 {
		return fail(ReasonInsufficientBalance)
	}
	return nil
}

// CheckMPTDestination requires the destination to hold an authorized,
// unlocked entry for the issuance.
func CheckMPTDestination(ctx context.Context, ledger Ledger, auth *ExactXrplAuthorization, log *zap.Logger) *CheckFailure {
	holding, err := ledger.MPToken(ctx, auth.Destination, auth.Amount.IssuanceID())
	if err != nil {
		log.Debug("mpt destination lookup failed, passing destination check",
			zap.String("destination", auth.Destination), zap.Error(err))
		return nil
	}
	if holding == nil || !holding.Authorized || holding.Locked {
		return fail(ReasonMPTUnauthorizedDestination)
	}
	return nil
}
