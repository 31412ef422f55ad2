package xrplclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ScavieFae/xrp402/xrpl"
)

// fakeRippled serves canned JSON-RPC results keyed by method name. Values
// are the raw "result" objects; a missing method answers with an error
// result.
type fakeRippled struct {
	results  map[string]string
	requests []string
}

func (f *fakeRippled) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.requests = append(f.requests, req.Method)

		result, ok := f.results[req.Method]
		if !ok {
			result = `{"status": "error", "error": "unknownCmd", "error_message": "unknown method"}`
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result": ` + result + `}`))
	}
}

func newFakeClient(t *testing.T, results map[string]string) (*Client, *fakeRippled) {
	t.Helper()
	fake := &fakeRippled{results: results}
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)
	return New(server.URL), fake
}

func TestAccountInfo(t *testing.T) {
	ctx := context.Background()

	t.Run("maps account data", func(t *testing.T) {
		client, _ := newFakeClient(t, map[string]string{
			"account_info": `{"status": "success", "account_data": {"Account": "rPayer", "Balance": "25000000", "Sequence": 42}}`,
		})

		state, err := client.AccountInfo(ctx, "rPayer")
		assert.NoError(t, err)
		assert.Equal(t, "rPayer", state.Account)
		assert.Equal(t, "25000000", state.Balance)
		assert.Equal(t, uint32(42), state.Sequence)
	})

	t.Run("node error surfaces as an error", func(t *testing.T) {
		client, _ := newFakeClient(t, map[string]string{
			"account_info": `{"status": "error", "error": "actNotFound", "error_message": "Account not found."}`,
		})

		_, err := client.AccountInfo(ctx, "rMissing")
		assert.Error(t, err)
	})
}

func TestAccountTickets(t *testing.T) {
	client, _ := newFakeClient(t, map[string]string{
		"account_objects": `{"status": "success", "account_objects": [{"TicketSequence": 55}, {"TicketSequence": 56}]}`,
	})

	tickets, err := client.AccountTickets(context.Background(), "rPayer")
	assert.NoError(t, err)
	assert.Equal(t, []uint32{55, 56}, tickets)
}

func TestLedgerIndex(t *testing.T) {
	client, _ := newFakeClient(t, map[string]string{
		"ledger": `{"status": "success", "ledger_index": 91234567}`,
	})

	index, err := client.LedgerIndex(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, uint32(91234567), index)
}

func TestTrustLine(t *testing.T) {
	ctx := context.Background()
	lines := `{"status": "success", "lines": [
		{"account": "rIssuer", "currency": "USD", "balance": "10", "limit": "1000", "freeze": false},
		{"account": "rIssuer", "currency": "EUR", "balance": "0", "limit": "500", "freeze": true}
	]}`

	t.Run("matches on currency", func(t *testing.T) {
		client, _ := newFakeClient(t, map[string]string{"account_lines": lines})

		line, err := client.TrustLine(ctx, "rDest", "rIssuer", "USD")
		assert.NoError(t, err)
		assert.Equal(t, "1000", line.Limit)
		assert.False(t, line.Frozen)
	})

	t.Run("freeze flag maps", func(t *testing.T) {
		client, _ := newFakeClient(t, map[string]string{"account_lines": lines})

		line, err := client.TrustLine(ctx, "rDest", "rIssuer", "EUR")
		assert.NoError(t, err)
		assert.True(t, line.Frozen)
	})

	t.Run("verifiably absent line is nil without error", func(t *testing.T) {
		client, _ := newFakeClient(t, map[string]string{"account_lines": lines})

		line, err := client.TrustLine(ctx, "rDest", "rIssuer", "JPY")
		assert.NoError(t, err)
		assert.Nil(t, line)
	})

	t.Run("missing account is nil without error", func(t *testing.T) {
		client, _ := newFakeClient(t, map[string]string{
			"account_lines": `{"status": "error", "error": "actNotFound", "error_message": "Account not found."}`,
		})

		line, err := client.TrustLine(ctx, "rMissing", "rIssuer", "USD")
		assert.NoError(t, err)
		assert.Nil(t, line)
	})
}

func TestMPTokenIssuance(t *testing.T) {
	ctx := context.Background()

	t.Run("maps issuance flags", func(t *testing.T) {
		client, _ := newFakeClient(t, map[string]string{
			"ledger_entry": `{"status": "success", "node": {"Issuer": "rIssuer", "Flags": 32}}`,
		})

		issuance, err := client.MPTokenIssuance(ctx, "00AA")
		assert.NoError(t, err)
		assert.True(t, issuance.CanTransfer)
		assert.False(t, issuance.Locked)
	})

	t.Run("locked issuance", func(t *testing.T) {
		client, _ := newFakeClient(t, map[string]string{
			"ledger_entry": `{"status": "success", "node": {"Issuer": "rIssuer", "Flags": 33}}`,
		})

		issuance, err := client.MPTokenIssuance(ctx, "00AA")
		assert.NoError(t, err)
		assert.True(t, issuance.Locked)
	})

	t.Run("unknown issuance is nil without error", func(t *testing.T) {
		client, _ := newFakeClient(t, map[string]string{
			"ledger_entry": `{"status": "error", "error": "entryNotFound", "error_message": "Entry not found."}`,
		})

		issuance, err := client.MPTokenIssuance(ctx, "00AA")
		assert.NoError(t, err)
		assert.Nil(t, issuance)
	})
}

func TestMPToken(t *testing.T) {
	ctx := context.Background()
	objects := `{"status": "success", "account_objects": [
		{"MPTokenIssuanceID": "00AA", "MPTAmount": "500", "Flags": 0},
		{"MPTokenIssuanceID": "00BB", "Flags": 1}
	]}`

	t.Run("maps the holding entry", func(t *testing.T) {
		client, _ := newFakeClient(t, map[string]string{"account_objects": objects})

		holding, err := client.MPToken(ctx, "rPayer", "00AA")
		assert.NoError(t, err)
		assert.Equal(t, "500", holding.Amount)
		assert.True(t, holding.Authorized)
		assert.False(t, holding.Locked)
	})

	t.Run("locked entry with no amount defaults to zero", func(t *testing.T) {
		client, _ := newFakeClient(t, map[string]string{"account_objects": objects})

		holding, err := client.MPToken(ctx, "rPayer", "00BB")
		assert.NoError(t, err)
		assert.Equal(t, "0", holding.Amount)
		assert.True(t, holding.Locked)
	})

	t.Run("no entry is nil without error", func(t *testing.T) {
		client, _ := newFakeClient(t, map[string]string{"account_objects": objects})

		holding, err := client.MPToken(ctx, "rPayer", "00CC")
		assert.NoError(t, err)
		assert.Nil(t, holding)
	})
}

func TestSubmit(t *testing.T) {
	client, _ := newFakeClient(t, map[string]string{
		"submit": `{"status": "success", "engine_result": "tesSUCCESS", "engine_result_message": "applied", "tx_json": {"hash": "ABCDEF"}}`,
	})

	result, err := client.Submit(context.Background(), "DEADBEEF")
	assert.NoError(t, err)
	assert.Equal(t, "tesSUCCESS", result.EngineResult)
	assert.Equal(t, "ABCDEF", result.Hash)
}

func TestTx(t *testing.T) {
	ctx := context.Background()

	t.Run("maps a validated transaction", func(t *testing.T) {
		client, _ := newFakeClient(t, map[string]string{
			"tx": `{"status": "success", "hash": "ABCDEF", "Account": "rPayer", "validated": true, "meta": {"TransactionResult": "tesSUCCESS"}}`,
		})

		status, err := client.Tx(ctx, "ABCDEF")
		assert.NoError(t, err)
		assert.True(t, status.Validated)
		assert.Equal(t, "tesSUCCESS", status.Result)
		assert.Equal(t, "rPayer", status.Account)
	})

	t.Run("not yet visible transaction errors", func(t *testing.T) {
		client, _ := newFakeClient(t, map[string]string{
			"tx": `{"status": "error", "error": "txnNotFound", "error_message": "Transaction not found."}`,
		})

		_, err := client.Tx(ctx, "ABCDEF")
		assert.Error(t, err)
	})
}

func TestValidateTransaction(t *testing.T) {
	client := New("http://unused")

	valid := func() *xrpl.Transaction {
		amount, _ := xrpl.NewNativeAmount("1000000")
		return &xrpl.Transaction{
			TransactionType: "Payment",
			Account:         "rPayer",
			Destination:     "rDest",
			Amount:          amount,
			Fee:             "12",
			Sequence:        7,
			SigningPubKey:   "ED0123",
			TxnSignature:    "SIG01",
		}
	}

	t.Run("well-formed payment passes", func(t *testing.T) {
		assert.NoError(t, client.ValidateTransaction(valid()))
	})

	t.Run("unsigned transaction", func(t *testing.T) {
		tx := valid()
		tx.TxnSignature = ""
		assert.Error(t, client.ValidateTransaction(tx))
	})

	t.Run("payment without a destination", func(t *testing.T) {
		tx := valid()
		tx.Destination = ""
		assert.Error(t, client.ValidateTransaction(tx))
	})

	t.Run("neither sequence nor ticket", func(t *testing.T) {
		tx := valid()
		tx.Sequence = 0
		assert.Error(t, client.ValidateTransaction(tx))
	})

	t.Run("both sequence and ticket", func(t *testing.T) {
		tx := valid()
		tx.TicketSequence = 55
		assert.Error(t, client.ValidateTransaction(tx))
	})

	t.Run("ticket with sentinel sequence passes", func(t *testing.T) {
		tx := valid()
		tx.Sequence = 0
		tx.TicketSequence = 55
		assert.NoError(t, client.ValidateTransaction(tx))
	})
}
