package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	xrp402 "github.com/ScavieFae/xrp402"
)

// countingMechanism returns canned responses and counts settle calls so
// tests can assert on submission deduplication.
type countingMechanism struct {
	mu           sync.Mutex
	settleCalls  int
	settleResult *xrp402.SettleResponse
	verifyResult *xrp402.VerifyResponse
}

func (m *countingMechanism) Scheme() string     { return "exact" }
func (m *countingMechanism) CaipFamily() string { return "xrpl:*" }

func (m *countingMechanism) GetExtra(network xrp402.Network) map[string]interface{} {
	return map[string]interface{}{"feeAccount": "rFee"}
}

func (m *countingMechanism) GetSigners(network xrp402.Network) []string { return []string{} }

func (m *countingMechanism) Verify(ctx context.Context, payload xrp402.PaymentPayload, requirements xrp402.PaymentRequirements) (*xrp402.VerifyResponse, error) {
	return m.verifyResult, nil
}

func (m *countingMechanism) Settle(ctx context.Context, payload xrp402.PaymentPayload, requirements xrp402.PaymentRequirements) (*xrp402.SettleResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settleCalls++
	return m.settleResult, nil
}

func newTestServer() (*Server, *countingMechanism) {
	mechanism := &countingMechanism{
		verifyResult: &xrp402.VerifyResponse{IsValid: true, Payer: "rPayer"},
		settleResult: &xrp402.SettleResponse{Success: true, Transaction: "HASH", Network: "xrpl:testnet"},
	}
	facilitator := xrp402.NewFacilitator()
	facilitator.Register("xrpl:testnet", mechanism)
	return NewServer(facilitator), mechanism
}

func postJSON(router http.Handler, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestServerVerify(t *testing.T) {
	t.Run("valid request returns the verification result", func(t *testing.T) {
		server, _ := newTestServer()
		rec := postJSON(server.Router(), "/verify", validBody())

		assert.Equal(t, http.StatusOK, rec.Code)
		var response xrp402.VerifyResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.True(t, response.IsValid)
		assert.Equal(t, "rPayer", response.Payer)
	})

	t.Run("malformed request is a 400", func(t *testing.T) {
		server, _ := newTestServer()
		rec := postJSON(server.Router(), "/verify", []byte(`{"x402Version": 2}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("responses carry a request id", func(t *testing.T) {
		server, _ := newTestServer()
		rec := postJSON(server.Router(), "/verify", validBody())
		assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	})
}

func TestServerSettle(t *testing.T) {
	t.Run("valid request settles", func(t *testing.T) {
		server, mechanism := newTestServer()
		rec := postJSON(server.Router(), "/settle", validBody())

		assert.Equal(t, http.StatusOK, rec.Code)
		var response xrp402.SettleResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.True(t, response.Success)
		assert.Equal(t, 1, mechanism.settleCalls)
	})

	t.Run("retrying the same payload settles once", func(t *testing.T) {
		server, mechanism := newTestServer()
		router := server.Router()

		first := postJSON(router, "/settle", validBody())
		second := postJSON(router, "/settle", validBody())

		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, http.StatusOK, second.Code)
		assert.Equal(t, 1, mechanism.settleCalls)
		assert.Equal(t, first.Body.String(), second.Body.String())
	})

	t.Run("failures that reached the ledger are also deduplicated", func(t *testing.T) {
		server, mechanism := newTestServer()
		mechanism.settleResult = &xrp402.SettleResponse{
			Success:     false,
			ErrorReason: "settlement_timeout",
			Transaction: "HASH",
			Network:     "xrpl:testnet",
		}
		router := server.Router()

		postJSON(router, "/settle", validBody())
		postJSON(router, "/settle", validBody())
		assert.Equal(t, 1, mechanism.settleCalls)
	})

	t.Run("failures before submission may be retried", func(t *testing.T) {
		server, mechanism := newTestServer()
		mechanism.settleResult = &xrp402.SettleResponse{
			Success:     false,
			ErrorReason: "insufficient_amount",
			Network:     "xrpl:testnet",
		}
		router := server.Router()

		postJSON(router, "/settle", validBody())
		postJSON(router, "/settle", validBody())
		assert.Equal(t, 2, mechanism.settleCalls)
	})
}

func TestServerSupported(t *testing.T) {
	server, _ := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/supported", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var response xrp402.SupportedResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Len(t, response.Kinds, 1)
	assert.Equal(t, "exact", response.Kinds[0].Scheme)
	assert.Equal(t, "rFee", response.Kinds[0].Extra["feeAccount"])
}

func TestServerHealth(t *testing.T) {
	server, _ := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
