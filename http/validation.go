package http

import (
	"encoding/json"
	"fmt"

	xrp402 "github.com/ScavieFae/xrp402"
)

// ValidateVerifyRequest validates and decodes a verify request body.
// It performs comprehensive validation of:
// - JSON structure
// - Required fields and their types
//
// Returns the decoded VerifyRequest if valid, or an error with a descriptive message.
func ValidateVerifyRequest(body []byte) (*xrp402.VerifyRequest, error) {
	raw, err := validateRequestShape(body)
	if err != nil {
		return nil, err
	}

	payloadMap := raw["paymentPayload"].(map[string]interface{})
	if err := validatePaymentPayload(payloadMap); err != nil {
		return nil, err
	}

	var req xrp402.VerifyRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("failed to parse verify request: %v", err)
	}
	return &req, nil
}

// ValidateSettleRequest validates and decodes a settle request body. The
// shape is identical to a verify request.
func ValidateSettleRequest(body []byte) (*xrp402.SettleRequest, error) {
	raw, err := validateRequestShape(body)
	if err != nil {
		return nil, err
	}

	payloadMap := raw["paymentPayload"].(map[string]interface{})
	if err := validatePaymentPayload(payloadMap); err != nil {
		return nil, err
	}

	var req xrp402.SettleRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("failed to parse settle request: %v", err)
	}
	return &req, nil
}

// validateRequestShape checks the top-level envelope shared by verify and
// settle requests.
func validateRequestShape(body []byte) (map[string]interface{}, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("request body is empty")
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("invalid request format: not valid JSON - %v", err)
	}

	if _, exists := raw["x402Version"]; !exists {
		return nil, fmt.Errorf("missing required field: x402Version")
	}
	if version, ok := raw["x402Version"].(float64); !ok {
		return nil, fmt.Errorf("invalid field type: x402Version must be a number")
	} else if int(version) < 1 {
		return nil, fmt.Errorf("invalid value: x402Version must be at least 1")
	}

	if _, exists := raw["paymentPayload"]; !exists {
		return nil, fmt.Errorf("missing required field: paymentPayload")
	}
	if _, ok := raw["paymentPayload"].(map[string]interface{}); !ok {
		return nil, fmt.Errorf("invalid field type: paymentPayload must be an object")
	}

	if _, exists := raw["paymentRequirements"]; !exists {
		return nil, fmt.Errorf("missing required field: paymentRequirements")
	}
	requirements, ok := raw["paymentRequirements"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid field type: paymentRequirements must be an object")
	}

	for _, field := range []string{"scheme", "network", "asset", "payTo", "amount"} {
		if _, exists := requirements[field]; !exists {
			return nil, fmt.Errorf("missing required field: paymentRequirements.%s", field)
		}
		if _, ok := requirements[field].(string); !ok {
			return nil, fmt.Errorf("invalid field type: paymentRequirements.%s must be a string", field)
		}
	}

	return raw, nil
}

// validatePaymentPayload checks the payment payload envelope.
func validatePaymentPayload(payload map[string]interface{}) error {
	if _, exists := payload["accepted"]; !exists {
		return fmt.Errorf("missing required field: paymentPayload.accepted")
	}
	accepted, ok := payload["accepted"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("invalid field type: paymentPayload.accepted must be an object")
	}
	if _, ok := accepted["scheme"].(string); !ok {
		return fmt.Errorf("invalid field type: paymentPayload.accepted.scheme must be a string")
	}
	if _, ok := accepted["network"].(string); !ok {
		return fmt.Errorf("invalid field type: paymentPayload.accepted.network must be a string")
	}

	if _, exists := payload["payload"]; !exists {
		return fmt.Errorf("missing required field: paymentPayload.payload")
	}
	if _, ok := payload["payload"].(map[string]interface{}); !ok {
		return fmt.Errorf("invalid field type: paymentPayload.payload must be an object")
	}

	return nil
}
