package xrpl

import (
	"context"
	"fmt"
)

// mockClient implements Client for tests. Decoding is driven by a blob
// registry; ledger answers come from configurable state with sensible
// healthy defaults. Call counters let tests assert on submission counts.
type mockClient struct {
	transactions map[string]*Transaction

	validateErr    error
	signatureValid map[string]bool
	signatureErr   error

	account    *AccountState
	accountErr error

	tickets    []uint32
	ticketsErr error

	ledgerIndex    uint32
	ledgerIndexErr error

	trustLines   map[string]*TrustLine
	trustLineErr error

	issuances   map[string]*MPTokenIssuance
	issuanceErr error

	holdings   map[string]*MPToken
	holdingErr error

	submitResults  map[string]*SubmitResult
	submitErr      error
	submitCalls    int
	submittedBlobs []string

	txStatuses []*TxStatus
	txErr      error
	txCalls    int
}

func newMockClient() *mockClient {
	return &mockClient{
		transactions:   make(map[string]*Transaction),
		signatureValid: make(map[string]bool),
		trustLines:     make(map[string]*TrustLine),
		issuances:      make(map[string]*MPTokenIssuance),
		holdings:       make(map[string]*MPToken),
		submitResults:  make(map[string]*SubmitResult),
		ledgerIndex:    100,
	}
}

// register wires a blob to its decoded record with a valid signature.
func (m *mockClient) register(blob string, tx *Transaction) {
	m.transactions[blob] = tx
	m.signatureValid[blob] = true
}

func (m *mockClient) Decode(blob string) (*Transaction, error) {
	tx, ok := m.transactions[blob]
	if !ok {
		return nil, fmt.Errorf("unknown blob %q", blob)
	}
	copied := *tx
	return &copied, nil
}

func (m *mockClient) ValidateTransaction(tx *Transaction) error {
	return m.validateErr
}

func (m *mockClient) VerifySignature(blob string) (bool, error) {
	if m.signatureErr != nil {
		return false, m.signatureErr
	}
	return m.signatureValid[blob], nil
}

func (m *mockClient) AccountInfo(ctx context.Context, account string) (*AccountState, error) {
	if m.accountErr != nil {
		return nil, m.accountErr
	}
	if m.account != nil {
		return m.account, nil
	}
	return &AccountState{Account: account, Balance: "100000000", Sequence: 7}, nil
}

func (m *mockClient) AccountTickets(ctx context.Context, account string) ([]uint32, error) {
	if m.ticketsErr != nil {
		return nil, m.ticketsErr
	}
	return m.tickets, nil
}

func (m *mockClient) LedgerIndex(ctx context.Context) (uint32, error) {
	if m.ledgerIndexErr != nil {
		return 0, m.ledgerIndexErr
	}
	return m.ledgerIndex, nil
}

func trustLineKey(account, issuer, currency string) string {
	return account + "|" + issuer + "|" + currency
}

func (m *mockClient) TrustLine(ctx context.Context, account, issuer, currency string) (*TrustLine, error) {
	if m.trustLineErr != nil {
		return nil, m.trustLineErr
	}
	return m.trustLines[trustLineKey(account, issuer, currency)], nil
}

func (m *mockClient) MPTokenIssuance(ctx context.Context, issuanceID string) (*MPTokenIssuance, error) {
	if m.issuanceErr != nil {
		return nil, m.issuanceErr
	}
	return m.issuances[issuanceID], nil
}

func holdingKey(account, issuanceID string) string {
	return account + "|" + issuanceID
}

func (m *mockClient) MPToken(ctx context.Context, account, issuanceID string) (*MPToken, error) {
	if m.holdingErr != nil {
		return nil, m.holdingErr
	}
	return m.holdings[holdingKey(account, issuanceID)], nil
}

func (m *mockClient) Submit(ctx context.Context, blob string) (*SubmitResult, error) {
	m.submitCalls++
	m.submittedBlobs = append(m.submittedBlobs, blob)
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	if result, ok := m.submitResults[blob]; ok {
		return result, nil
	}
	return &SubmitResult{EngineResult: "tesSUCCESS", Hash: "HASH_" + blob}, nil
}

// Tx replays configured statuses in order, repeating the last one.
func (m *mockClient) Tx(ctx context.Context, hash string) (*TxStatus, error) {
	m.txCalls++
	if m.txErr != nil {
		return nil, m.txErr
	}
	if len(m.txStatuses) == 0 {
		return &TxStatus{Hash: hash, Validated: true, Result: "tesSUCCESS"}, nil
	}
	idx := m.txCalls - 1
	if idx >= len(m.txStatuses) {
		idx = len(m.txStatuses) - 1
	}
	status := m.txStatuses[idx]
	status.Hash = hash
	return status, nil
}
