package xrp402

import "fmt"

// FacilitatorError represents a boundary-level facilitator error
type FacilitatorError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *FacilitatorError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Common error codes
const (
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeInvalidScheme      = "invalid_scheme"
	ErrCodeNetworkMismatch    = "network_mismatch"
	ErrCodeSettlementFailed   = "settlement_failed"
	ErrCodeUnsupportedScheme  = "unsupported_scheme"
	ErrCodeUnsupportedNetwork = "unsupported_network"
)

// NewFacilitatorError creates a new facilitator error
func NewFacilitatorError(code, message string, details map[string]interface{}) *FacilitatorError {
	return &FacilitatorError{
		Code:    code,
		Message: message,
		Details: details,
	}
}
