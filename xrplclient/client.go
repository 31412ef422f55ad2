// Package xrplclient implements the ledger client capability against a
// rippled-compatible node: the JSON-RPC API for ledger queries and
// submission, and the XRPL binary codec for offline decode and signature
// checking.
package xrplclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	binarycodec "github.com/Peersyst/xrpl-go/binary-codec"
	"github.com/Peersyst/xrpl-go/keypairs"
	"go.uber.org/zap"

	"github.com/ScavieFae/xrp402/xrpl"
)

// MPToken ledger entry flags.
const (
	lsfMPTLocked      uint32 = 0x00000001
	lsfMPTCanTransfer uint32 = 0x00000020
)

// Client talks to a single rippled node over HTTP JSON-RPC. It is safe
// for concurrent use; every call is an independent request/response
// exchange.
type Client struct {
	url        string
	httpClient *http.Client
	log        *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithLogger sets the client logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client for the given JSON-RPC endpoint.
func New(url string, opts ...Option) *Client {
	c := &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ xrpl.Client = (*Client)(nil)

// ============================================================================
// Codec
// ============================================================================

// Decode parses a signed transaction blob into a structural record.
func (c *Client) Decode(blob string) (*xrpl.Transaction, error) {
	fields, err := binarycodec.Decode(blob)
	if err != nil {
		return nil, fmt.Errorf("decode transaction blob: %w", err)
	}
	return transactionFromFields(fields)
}

// ValidateTransaction checks structural legality of a decoded record.
func (c *Client) ValidateTransaction(tx *xrpl.Transaction) error {
	if tx.TransactionType == "" {
		return fmt.Errorf("missing TransactionType")
	}
	if tx.Account == "" {
		return fmt.Errorf("missing Account")
	}
	if tx.Fee == "" {
		return fmt.Errorf("missing Fee")
	}
	if tx.SigningPubKey == "" || tx.TxnSignature == "" {
		return fmt.Errorf("transaction is not signed")
	}
	if tx.TransactionType == "Payment" && tx.Destination == "" {
		return fmt.Errorf("payment missing Destination")
	}
	if tx.Sequence == 0 && tx.TicketSequence == 0 {
		return fmt.Errorf("transaction carries neither Sequence nor TicketSequence")
	}
	if tx.Sequence != 0 && tx.TicketSequence != 0 {
		return fmt.Errorf("transaction carries both Sequence and TicketSequence")
	}
	return nil
}

// VerifySignature checks the single signature over the signed blob.
func (c *Client) VerifySignature(blob string) (bool, error) {
	fields, err := binarycodec.Decode(blob)
	if err != nil {
		return false, fmt.Errorf("decode transaction blob: %w", err)
	}

	pubKey, _ := fields["SigningPubKey"].(string)
	signature, _ := fields["TxnSignature"].(string)
	if pubKey == "" || signature == "" {
		return false, nil
	}

	signingData, err := binarycodec.EncodeForSigning(fields)
	if err != nil {
		return false, fmt.Errorf("encode for signing: %w", err)
	}

	return keypairs.Validate(signingData, pubKey, signature)
}

// transactionFromFields maps decoded canonical fields onto the
// structural record the pipeline consumes.
func transactionFromFields(fields map[string]interface{}) (*xrpl.Transaction, error) {
	tx := &xrpl.Transaction{}

	tx.TransactionType, _ = fields["TransactionType"].(string)
	tx.Account, _ = fields["Account"].(string)
	tx.Destination, _ = fields["Destination"].(string)
	tx.Fee, _ = fields["Fee"].(string)
	tx.SigningPubKey, _ = fields["SigningPubKey"].(string)
	tx.TxnSignature, _ = fields["TxnSignature"].(string)

	var err error
	if tx.Sequence, err = uint32Field(fields, "Sequence"); err != nil {
		return nil, err
	}
	if tx.TicketSequence, err = uint32Field(fields, "TicketSequence"); err != nil {
		return nil, err
	}
	if tx.LastLedgerSequence, err = uint32Field(fields, "LastLedgerSequence"); err != nil {
		return nil, err
	}
	if tx.Flags, err = uint32Field(fields, "Flags"); err != nil {
		return nil, err
	}

	// DeliverMax is the canonical name; Amount is its alias.
	rawAmount, present := fields["DeliverMax"]
	if !present {
		rawAmount, present = fields["Amount"]
	}
	if present {
		amount, err := xrpl.AmountFromInterface(normalizeAmount(rawAmount))
		if err != nil {
			return nil, fmt.Errorf("decode amount: %w", err)
		}
		tx.Amount = amount
	}

	return tx, nil
}

// normalizeAmount lowers decoded amount object keys to the JSON wire
// casing the amount model expects.
func normalizeAmount(raw interface{}) interface{} {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return raw
	}
	out := make(map[string]interface{}, len(obj))
	for key, value := range obj {
		switch key {
		case "currency", "Currency":
			out["currency"] = value
		case "issuer", "Issuer":
			out["issuer"] = value
		case "value", "Value":
			out["value"] = value
		case "mpt_issuance_id", "MPTokenIssuanceID":
			out["mpt_issuance_id"] = value
		default:
			out[key] = value
		}
	}
	return out
}

func uint32Field(fields map[string]interface{}, key string) (uint32, error) {
	raw, present := fields[key]
	if !present || raw == nil {
		return 0, nil
	}
	switch num := raw.(type) {
	case float64:
		return uint32(num), nil
	case int:
		return uint32(num), nil
	case int64:
		return uint32(num), nil
	case uint32:
		return num, nil
	case uint64:
		return uint32(num), nil
	case json.Number:
		parsed, err := num.Int64()
		if err != nil {
			return 0, fmt.Errorf("invalid %s field: %w", key, err)
		}
		return uint32(parsed), nil
	default:
		return 0, fmt.Errorf("invalid %s field type %T", key, raw)
	}
}

// ============================================================================
// Ledger
// ============================================================================

type rpcRequest struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params,omitempty"`
}

type rpcEnvelope struct {
	Result json.RawMessage `json:"result"`
}

type rpcStatus struct {
	Status       string `json:"status"`
	ErrorCode    string `json:"error"`
	ErrorMessage string `json:"error_message"`
}

// errEntryNotFound distinguishes a definitive "no such entry" answer from
// transport trouble; the former maps to (nil, nil) results.
type rpcError struct {
	Code    string
	Message string
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rippled error %s: %s", e.Code, e.Message)
}

func (e *rpcError) notFound() bool {
	switch e.Code {
	case "actNotFound", "entryNotFound", "objectNotFound", "txnNotFound":
		return true
	}
	return false
}

// call performs one JSON-RPC exchange and unmarshals the result object.
func (c *Client) call(ctx context.Context, method string, params map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(rpcRequest{Method: method, Params: []interface{}{params}})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", method, resp.StatusCode)
	}

	var envelope rpcEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}

	var status rpcStatus
	if err := json.Unmarshal(envelope.Result, &status); err != nil {
		return fmt.Errorf("decode %s status: %w", method, err)
	}
	if status.Status == "error" {
		return &rpcError{Code: status.ErrorCode, Message: status.ErrorMessage}
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

// AccountInfo returns the validated state of an account.
func (c *Client) AccountInfo(ctx context.Context, account string) (*xrpl.AccountState, error) {
	var result struct {
		AccountData struct {
			Account  string `json:"Account"`
			Balance  string `json:"Balance"`
			Sequence uint32 `json:"Sequence"`
		} `json:"account_data"`
	}
	err := c.call(ctx, "account_info", map[string]interface{}{
		"account":      account,
		"ledger_index": "validated",
	}, &result)
	if err != nil {
		return nil, err
	}
	return &xrpl.AccountState{
		Account:  result.AccountData.Account,
		Balance:  result.AccountData.Balance,
		Sequence: result.AccountData.Sequence,
	}, nil
}

// AccountTickets returns the ticket sequences reserved by an account.
func (c *Client) AccountTickets(ctx context.Context, account string) ([]uint32, error) {
	var result struct {
		AccountObjects []struct {
			TicketSequence uint32 `json:"TicketSequence"`
		} `json:"account_objects"`
	}
	err := c.call(ctx, "account_objects", map[string]interface{}{
		"account":      account,
		"type":         "ticket",
		"ledger_index": "validated",
	}, &result)
	if err != nil {
		return nil, err
	}
	tickets := make([]uint32, 0, len(result.AccountObjects))
	for _, obj := range result.AccountObjects {
		tickets = append(tickets, obj.TicketSequence)
	}
	return tickets, nil
}

// LedgerIndex returns the latest validated ledger index.
func (c *Client) LedgerIndex(ctx context.Context) (uint32, error) {
	var result struct {
		LedgerIndex uint32 `json:"ledger_index"`
	}
	err := c.call(ctx, "ledger", map[string]interface{}{
		"ledger_index": "validated",
	}, &result)
	if err != nil {
		return 0, err
	}
	return result.LedgerIndex, nil
}

// TrustLine returns account's trust line toward issuer for a currency,
// or (nil, nil) when the account verifiably holds none.
func (c *Client) TrustLine(ctx context.Context, account, issuer, currency string) (*xrpl.TrustLine, error) {
	var result struct {
		Lines []struct {
			Account      string `json:"account"`
			Currency     string `json:"currency"`
			Balance      string `json:"balance"`
			Limit        string `json:"limit"`
			FreezePeer   bool   `json:"freeze_peer"`
			Freeze       bool   `json:"freeze"`
			NoRipplePeer bool   `json:"no_ripple_peer"`
		} `json:"lines"`
	}
	err := c.call(ctx, "account_lines", map[string]interface{}{
		"account":      account,
		"peer":         issuer,
		"ledger_index": "validated",
	}, &result)
	if err != nil {
		var rpcErr *rpcError
		if asRPCError(err, &rpcErr) && rpcErr.notFound() {
			return nil, nil
		}
		return nil, err
	}
	for _, line := range result.Lines {
		if line.Currency != currency {
			continue
		}
		return &xrpl.TrustLine{
			Account:  account,
			Issuer:   issuer,
			Currency: line.Currency,
			Balance:  line.Balance,
			Limit:    line.Limit,
			Frozen:   line.Freeze || line.FreezePeer,
		}, nil
	}
	return nil, nil
}

// MPTokenIssuance returns issuance metadata, or (nil, nil) when the
// issuance verifiably does not exist.
func (c *Client) MPTokenIssuance(ctx context.Context, issuanceID string) (*xrpl.MPTokenIssuance, error) {
	var result struct {
		Node struct {
			Issuer string `json:"Issuer"`
			Flags  uint32 `json:"Flags"`
		} `json:"node"`
	}
	err := c.call(ctx, "ledger_entry", map[string]interface{}{
		"mpt_issuance": issuanceID,
		"ledger_index": "validated",
	}, &result)
	if err != nil {
		var rpcErr *rpcError
		if asRPCError(err, &rpcErr) && rpcErr.notFound() {
			return nil, nil
		}
		return nil, err
	}
	return &xrpl.MPTokenIssuance{
		IssuanceID:  issuanceID,
		Issuer:      result.Node.Issuer,
		CanTransfer: result.Node.Flags&lsfMPTCanTransfer != 0,
		Locked:      result.Node.Flags&lsfMPTLocked != 0,
	}, nil
}

// MPToken returns an account's holding entry for an issuance, or
// (nil, nil) when the account verifiably holds none. Holding an MPToken
// entry is itself the opt-in, so existing entries report as authorized;
// issuer-side lockout shows up through the Locked flag.
func (c *Client) MPToken(ctx context.Context, account, issuanceID string) (*xrpl.MPToken, error) {
	var result struct {
		AccountObjects []struct {
			IssuanceID string `json:"MPTokenIssuanceID"`
			MPTAmount  string `json:"MPTAmount"`
			Flags      uint32 `json:"Flags"`
		} `json:"account_objects"`
	}
	err := c.call(ctx, "account_objects", map[string]interface{}{
		"account":      account,
		"type":         "mptoken",
		"ledger_index": "validated",
	}, &result)
	if err != nil {
		var rpcErr *rpcError
		if asRPCError(err, &rpcErr) && rpcErr.notFound() {
			return nil, nil
		}
		return nil, err
	}
	for _, obj := range result.AccountObjects {
		if obj.IssuanceID != issuanceID {
			continue
		}
		amount := obj.MPTAmount
		if amount == "" {
			amount = "0"
		}
		return &xrpl.MPToken{
			Account:    account,
			IssuanceID: issuanceID,
			Amount:     amount,
			Authorized: true,
			Locked:     obj.Flags&lsfMPTLocked != 0,
		}, nil
	}
	return nil, nil
}

// Submit submits a signed blob and returns the engine's preliminary
// result.
func (c *Client) Submit(ctx context.Context, blob string) (*xrpl.SubmitResult, error) {
	var result struct {
		EngineResult        string `json:"engine_result"`
		EngineResultMessage string `json:"engine_result_message"`
		TxJSON              struct {
			Hash string `json:"hash"`
		} `json:"tx_json"`
	}
	err := c.call(ctx, "submit", map[string]interface{}{
		"tx_blob": blob,
	}, &result)
	if err != nil {
		return nil, err
	}
	c.log.Debug("submitted transaction",
		zap.String("engineResult", result.EngineResult),
		zap.String("hash", result.TxJSON.Hash))
	return &xrpl.SubmitResult{
		EngineResult:        result.EngineResult,
		EngineResultMessage: result.EngineResultMessage,
		Hash:                result.TxJSON.Hash,
	}, nil
}

// Tx queries a transaction by hash. Not-yet-visible transactions return
// an error; settlement polling treats that as "keep waiting".
func (c *Client) Tx(ctx context.Context, hash string) (*xrpl.TxStatus, error) {
	var result struct {
		Hash      string `json:"hash"`
		Account   string `json:"Account"`
		Validated bool   `json:"validated"`
		Meta      struct {
			TransactionResult string `json:"TransactionResult"`
		} `json:"meta"`
	}
	err := c.call(ctx, "tx", map[string]interface{}{
		"transaction": hash,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &xrpl.TxStatus{
		Hash:      hash,
		Validated: result.Validated,
		Result:    result.Meta.TransactionResult,
		Account:   result.Account,
	}, nil
}

func asRPCError(err error, target **rpcError) bool {
	rpcErr, ok := err.(*rpcError)
	if ok {
		*target = rpcErr
	}
	return ok
}
