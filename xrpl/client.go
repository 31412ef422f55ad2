package xrpl

import "context"

// Codec is the offline half of the ledger client capability: decoding a
// signed blob into a structural record, validating that record, and
// checking the signature over the blob. No network access is involved;
// every verification pipeline run uses these unconditionally.
type Codec interface {
	// Decode parses a signed transaction blob into a structural record.
	Decode(blob string) (*Transaction, error)

	// ValidateTransaction checks that a decoded record is structurally
	// legal for its transaction type (required fields present, field
	// combinations allowed).
	ValidateTransaction(tx *Transaction) error

	// VerifySignature checks the signature over the signed blob.
	// A false return means the signature does not verify; an error means
	// the check itself could not be performed.
	VerifySignature(blob string) (bool, error)
}

// Ledger is the network half of the ledger client capability. Callers in
// the verification pipeline treat every error from these methods as
// "cannot confirm" and soft-pass; the settlement engine treats them as
// hard failures.
type Ledger interface {
	// AccountInfo returns the current state of an account.
	AccountInfo(ctx context.Context, account string) (*AccountState, error)

	// AccountTickets returns the ticket sequence numbers currently
	// reserved by an account.
	AccountTickets(ctx context.Context, account string) ([]uint32, error)

	// LedgerIndex returns the latest validated ledger index.
	LedgerIndex(ctx context.Context) (uint32, error)

	// TrustLine returns the trust line held by account toward issuer for
	// the given currency, or (nil, nil) when the account verifiably holds
	// no such line.
	TrustLine(ctx context.Context, account, issuer, currency string) (*TrustLine, error)

	// MPTokenIssuance returns the issuance metadata for an MPT issuance
	// ID, or (nil, nil) when the issuance verifiably does not exist.
	MPTokenIssuance(ctx context.Context, issuanceID string) (*MPTokenIssuance, error)

	// MPToken returns the holding entry of an account for an issuance, or
	// (nil, nil) when the account verifiably holds no such entry.
	MPToken(ctx context.Context, account, issuanceID string) (*MPToken, error)

	// Submit submits a signed transaction blob and returns the engine's
	// preliminary result.
	Submit(ctx context.Context, blob string) (*SubmitResult, error)

	// Tx queries a transaction by hash. Transactions not yet visible
	// return an error; polling treats that as "keep waiting".
	Tx(ctx context.Context, hash string) (*TxStatus, error)
}

// Client is the full ledger client capability.
type Client interface {
	Codec
	Ledger
}

// AccountState is the slice of account root state the pipeline needs.
type AccountState struct {
	Account  string
	Balance  string // drops
	Sequence uint32
}

// TrustLine describes a trust relationship between an account and an
// issuer for one currency.
type TrustLine struct {
	Account  string
	Issuer   string
	Currency string
	Balance  string
	Limit    string
	Frozen   bool
}

// MPTokenIssuance describes an MPT issuance.
type MPTokenIssuance struct {
	IssuanceID  string
	Issuer      string
	CanTransfer bool
	Locked      bool
}

// MPToken describes an account's holding of an MPT issuance.
type MPToken struct {
	Account    string
	IssuanceID string
	Amount     string
	Authorized bool
	Locked     bool
}

// SubmitResult is the engine's immediate response to a submission.
// EngineResult is the preliminary result code (e.g. "tesSUCCESS",
// "tecPATH_DRY"); Hash identifies the transaction when the engine
// accepted it as a candidate.
type SubmitResult struct {
	EngineResult        string
	EngineResultMessage string
	Hash                string
}

// TxStatus is the status of a submitted transaction.
type TxStatus struct {
	Hash      string
	Validated bool
	Result    string // final result code, meaningful once Validated
	Account   string // the paying account, when available
}
