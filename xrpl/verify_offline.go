package xrpl

import (
	"regexp"
	"strings"

	xrp402 "github.com/ScavieFae/xrp402"
)

// NativeAssetID is the requirements asset identifier for XRP.
const NativeAssetID = "XRP"

// An MPT issuance ID is a 192-bit identifier, hex encoded.
var mptIssuanceIDPattern = regexp.MustCompile(`^[0-9A-Fa-f]{48}$`)

// IsMPTIssuanceID reports whether an asset identifier names an MPT
// issuance rather than the native asset or an issuer address.
func IsMPTIssuanceID(asset string) bool {
	return mptIssuanceIDPattern.MatchString(asset)
}

// VerifyOffline runs the offline verification stage: a fixed-order,
// short-circuiting sequence of checks over the payload and requirements
// with no ledger access. On pass it returns the decoded transaction for
// the network stage to reuse. Every failure mode is a reason, never a
// panic or error across the pipeline boundary.
func VerifyOffline(codec Codec, payload *ExactXrplPayload, requirements *xrp402.PaymentRequirements, cfg Config) (*Transaction, *CheckFailure) {
	tx, err := codec.Decode(payload.SignedTxBlob)
	if err != nil {
		return nil, fail(ReasonInvalidTransactionBlob)
	}

	if failure := CheckStructure(codec, tx); failure != nil {
		return nil, failure
	}

	if failure := CheckSignature(codec, payload.SignedTxBlob); failure != nil {
		return nil, failure
	}

	if failure := CheckAuthorization(tx, &payload.Authorization); failure != nil {
		return nil, failure
	}

	if failure := CheckDestination(&payload.Authorization, requirements); failure != nil {
		return nil, failure
	}

	if failure := CheckAmountSufficiency(payload.Authorization.Amount, requirements.Amount); failure != nil {
		return nil, failure
	}

	if failure := CheckAssetMatch(payload.Authorization.Amount, requirements); failure != nil {
		return nil, failure
	}

	if failure := CheckNotPartial(tx); failure != nil {
		return nil, failure
	}

	if failure := CheckMPTAllowlist(payload.Authorization.Amount, cfg); failure != nil {
		return nil, failure
	}

	return tx, nil
}

// CheckStructure validates the decoded record: the codec's structural
// rules plus the instruction type this mechanism relays.
func CheckStructure(codec Codec, tx *Transaction) *CheckFailure {
	if tx.TransactionType != "Payment" {
		return fail(ReasonInvalidTransactionStructure)
	}
	if err := codec.ValidateTransaction(tx); err != nil {
		return fail(ReasonInvalidTransactionStructure)
	}
	return nil
}

// CheckSignature verifies the signature over the signed blob. An
// unverifiable signature (the check itself erroring) is rejected the same
// as an invalid one; signature trouble is never soft-failed.
func CheckSignature(codec Codec, blob string) *CheckFailure {
	valid, err := codec.VerifySignature(blob)
	if err != nil || !valid {
		return fail(ReasonInvalidSignature)
	}
	return nil
}

// CheckAuthorization cross-checks every claimed authorization field
// against the decoded transaction. The blob is what gets submitted, so a
// claim that disagrees with it is always a hard failure regardless of
// which other fields agree.
func CheckAuthorization(tx *Transaction, auth *ExactXrplAuthorization) *CheckFailure {
	if tx.Account != auth.Account {
		return fail(ReasonAuthorizationMismatch)
	}
	if tx.Destination != auth.Destination {
		return fail(ReasonAuthorizationMismatch)
	}

	feeCmp, err := compareDrops(tx.Fee, auth.Fee)
	if err != nil || feeCmp != 0 {
		return fail(ReasonAuthorizationMismatch)
	}

	if !tx.Amount.Equal(auth.Amount) {
		return fail(ReasonAuthorizationMismatch)
	}

	if auth.UsesTicket() {
		// A claimed ticket requires the decoded sequence to be the
		// ticket sentinel.
		if !tx.UsesTicket() || tx.TicketSequence != auth.TicketSequence {
			return fail(ReasonAuthorizationMismatch)
		}
	} else {
		if tx.TicketSequence != 0 || tx.Sequence != auth.Sequence {
			return fail(ReasonAuthorizationMismatch)
		}
	}

	if auth.LastLedgerSequence != 0 && tx.LastLedgerSequence != auth.LastLedgerSequence {
		return fail(ReasonAuthorizationMismatch)
	}

	return nil
}

// CheckDestination requires the authorized destination to be the
// requirements' pay-to account.
func CheckDestination(auth *ExactXrplAuthorization, requirements *xrp402.PaymentRequirements) *CheckFailure {
	if auth.Destination != requirements.PayTo {
		return fail(ReasonDestinationMismatch)
	}
	return nil
}

// CheckAmountSufficiency requires the authorized amount to be at least
// the required minimum under the variant-appropriate comparison.
func CheckAmountSufficiency(amount Amount, minimum string) *CheckFailure {
	sufficient, err := amount.MeetsMinimum(minimum)
	if err != nil {
		return fail(ReasonInvalidPayload)
	}
	if !sufficient {
		return fail(ReasonInsufficientAmount)
	}
	return nil
}

// CheckAssetMatch requires the amount's variant and identifying fields to
// match the requirements' asset identifier. An asset-type mismatch is
// rejected, never coerced.
func CheckAssetMatch(amount Amount, requirements *xrp402.PaymentRequirements) *CheckFailure {
	asset := requirements.Asset
	switch {
	case asset == NativeAssetID:
		if amount.Kind() != AmountNative {
			return fail(ReasonAssetMismatch)
		}
	case IsMPTIssuanceID(asset):
		if amount.Kind() != AmountMPT || !strings.EqualFold(amount.IssuanceID(), asset) {
			return fail(ReasonAssetMismatch)
		}
	default:
		// Issuer address; the currency code travels in Extra.
		if amount.Kind() != AmountIssued || amount.Issuer() != asset {
			return fail(ReasonAssetMismatch)
		}
		if currency, ok := requirements.Extra["currency"].(string); ok && currency != amount.Currency() {
			return fail(ReasonAssetMismatch)
		}
	}
	return nil
}

// CheckNotPartial rejects instructions carrying the partial-delivery
// flag. A partial payment can deliver less than its stated amount, which
// defeats amount sufficiency checking; this is a hard business rule.
func CheckNotPartial(tx *Transaction) *CheckFailure {
	if tx.IsPartialPayment() {
		return fail(ReasonPartialPaymentNotAllowed)
	}
	return nil
}

// CheckMPTAllowlist rejects MPT payments whose issuance is not in the
// per-network allowlist. The allowlist is local configuration; this check
// never touches the ledger and never soft-fails.
func CheckMPTAllowlist(amount Amount, cfg Config) *CheckFailure {
	if amount.Kind() != AmountMPT {
		return nil
	}
	if !cfg.MPTAllowed(amount.IssuanceID()) {
		return fail(ReasonMPTNotAllowlisted)
	}
	return nil
}
