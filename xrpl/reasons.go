package xrpl

// Stable reason codes surfaced in VerifyResponse.InvalidReason and
// SettleResponse.ErrorReason. Nothing in the pipeline throws for an
// expected business outcome; every rejection is one of these strings.
const (
	ReasonInvalidPayload              = "invalid_payload"
	ReasonInvalidScheme               = "invalid_scheme"
	ReasonNetworkMismatch             = "network_mismatch"
	ReasonInvalidTransactionBlob      = "invalid_transaction_blob"
	ReasonInvalidTransactionStructure = "invalid_transaction_structure"
	ReasonInvalidSignature            = "invalid_signature"
	ReasonAuthorizationMismatch       = "authorization_mismatch"
	ReasonDestinationMismatch         = "destination_mismatch"
	ReasonInsufficientAmount          = "insufficient_amount"
	ReasonAssetMismatch               = "asset_mismatch"
	ReasonPartialPaymentNotAllowed    = "partial_payment_not_allowed"
	ReasonInsufficientBalance         = "insufficient_balance"
	ReasonSequenceMismatch            = "sequence_mismatch"
	ReasonTicketNotFound              = "ticket_not_found"
	ReasonPaymentExpired              = "payment_expired"
	ReasonNoTrustLine                 = "no_trust_line"
	ReasonTrustLineFrozen             = "trust_line_frozen"
	ReasonMPTNotAllowlisted           = "mpt_not_allowlisted"
	ReasonMPTIssuanceNotFound         = "mpt_issuance_not_found"
	ReasonMPTNotTransferable          = "mpt_not_transferable"
	ReasonMPTUnauthorizedHolder       = "mpt_unauthorized_holder"
	ReasonMPTUnauthorizedDestination  = "mpt_unauthorized_destination"
	ReasonFeePaymentRequired          = "fee_payment_required"
	ReasonFeeNotConfigured            = "facilitator_fee_not_configured"
	ReasonFeeMismatch                 = "fee_mismatch"
	ReasonInvalidFeeTransaction       = "invalid_fee_transaction"
	ReasonInvalidFeeSignature         = "invalid_fee_signature"
	ReasonSettlementTimeout           = "settlement_timeout"
	ReasonLedgerUnavailable           = "ledger_unavailable"
)

// CheckFailure is the failing outcome of a single verification check.
// A nil *CheckFailure means the check passed.
type CheckFailure struct {
	Reason string
}

func fail(reason string) *CheckFailure {
	return &CheckFailure{Reason: reason}
}

// appliedFailureReasons maps engine result codes of instructions that were
// accepted into a candidate ledger but whose effect did not take hold onto
// stable reasons. Codes without a mapping surface as the raw code.
var appliedFailureReasons = map[string]string{
	"tecUNFUNDED_PAYMENT":  ReasonInsufficientBalance,
	"tecINSUFFICIENT_FUNDS": ReasonInsufficientBalance,
	"tecPATH_DRY":          ReasonNoTrustLine,
	"tecPATH_PARTIAL":      ReasonInsufficientBalance,
	"tecNO_LINE":           ReasonNoTrustLine,
	"tecNO_AUTH":           ReasonMPTUnauthorizedDestination,
	"tecFROZEN":            ReasonTrustLineFrozen,
	"tecLOCKED":            ReasonMPTUnauthorizedHolder,
	"tecNO_DST":            ReasonDestinationMismatch,
	"tecNO_DST_INSUF_XRP":  ReasonDestinationMismatch,
	"tecEXPIRED":           ReasonPaymentExpired,
	"tecNO_PERMISSION":     ReasonMPTNotTransferable,
}

// permanentFailureReasons maps engine result codes that permanently reject
// an instruction at submission time.
var permanentFailureReasons = map[string]string{
	"tefPAST_SEQ":   ReasonSequenceMismatch,
	"tefNO_TICKET":  ReasonTicketNotFound,
	"tefMAX_LEDGER": ReasonPaymentExpired,
	"tefALREADY":    "already_submitted",
	"tefBAD_AUTH":   ReasonInvalidSignature,
}

// mappedReason resolves an engine result code to a stable reason, falling
// back to the raw code.
func mappedReason(table map[string]string, code string) string {
	if reason, ok := table[code]; ok {
		return reason
	}
	return code
}
