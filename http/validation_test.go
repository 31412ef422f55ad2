package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validBody() []byte {
	return []byte(`{
		"x402Version": 2,
		"paymentPayload": {
			"x402Version": 2,
			"accepted": {"scheme": "exact", "network": "xrpl:testnet", "asset": "XRP", "amount": "1000000", "payTo": "rDest"},
			"payload": {"signedTxBlob": "DEADBEEF", "authorization": {}}
		},
		"paymentRequirements": {"scheme": "exact", "network": "xrpl:testnet", "asset": "XRP", "amount": "1000000", "payTo": "rDest"}
	}`)
}

func TestValidateVerifyRequest(t *testing.T) {
	t.Run("valid body decodes", func(t *testing.T) {
		req, err := ValidateVerifyRequest(validBody())
		assert.NoError(t, err)
		assert.Equal(t, 2, req.X402Version)
		assert.Equal(t, "exact", req.PaymentRequirements.Scheme)
		assert.Equal(t, "DEADBEEF", req.PaymentPayload.Payload["signedTxBlob"])
	})

	t.Run("empty body", func(t *testing.T) {
		_, err := ValidateVerifyRequest(nil)
		assert.ErrorContains(t, err, "empty")
	})

	t.Run("not json", func(t *testing.T) {
		_, err := ValidateVerifyRequest([]byte("not json"))
		assert.ErrorContains(t, err, "not valid JSON")
	})

	t.Run("missing version", func(t *testing.T) {
		_, err := ValidateVerifyRequest([]byte(`{"paymentPayload": {}, "paymentRequirements": {}}`))
		assert.ErrorContains(t, err, "x402Version")
	})

	t.Run("version below one", func(t *testing.T) {
		_, err := ValidateVerifyRequest([]byte(`{"x402Version": 0, "paymentPayload": {}, "paymentRequirements": {}}`))
		assert.ErrorContains(t, err, "at least 1")
	})

	t.Run("requirements must carry the payment fields", func(t *testing.T) {
		_, err := ValidateVerifyRequest([]byte(`{
			"x402Version": 2,
			"paymentPayload": {"accepted": {"scheme": "exact", "network": "xrpl:testnet"}, "payload": {}},
			"paymentRequirements": {"scheme": "exact", "network": "xrpl:testnet"}
		}`))
		assert.ErrorContains(t, err, "paymentRequirements.asset")
	})

	t.Run("payload must carry accepted and payload objects", func(t *testing.T) {
		_, err := ValidateVerifyRequest([]byte(`{
			"x402Version": 2,
			"paymentPayload": {"accepted": {"scheme": "exact", "network": "xrpl:testnet"}},
			"paymentRequirements": {"scheme": "exact", "network": "xrpl:testnet", "asset": "XRP", "amount": "1", "payTo": "rDest"}
		}`))
		assert.ErrorContains(t, err, "paymentPayload.payload")
	})
}

func TestValidateSettleRequest(t *testing.T) {
	t.Run("valid body decodes", func(t *testing.T) {
		req, err := ValidateSettleRequest(validBody())
		assert.NoError(t, err)
		assert.Equal(t, "xrpl:testnet", string(req.PaymentRequirements.Network))
	})

	t.Run("shape errors match verify", func(t *testing.T) {
		_, err := ValidateSettleRequest([]byte(`{"x402Version": 2}`))
		assert.ErrorContains(t, err, "paymentPayload")
	})
}
