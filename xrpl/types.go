package xrpl

import (
	"fmt"
)

// SchemeExact is the payment scheme implemented by this mechanism: the
// client pre-signs a Payment for an exact, non-partial delivery and the
// facilitator relays it.
const SchemeExact = "exact"

// CaipFamilyXRPL is the network family pattern for XRPL networks.
const CaipFamilyXRPL = "xrpl:*"

// tfPartialPayment marks a Payment that may deliver less than its stated
// amount. Such instructions defeat amount-sufficiency checking and are
// rejected unconditionally.
const tfPartialPayment uint32 = 0x00020000

// A ticket-based transaction carries the ticket sentinel in its Sequence
// field.
const ticketSentinelSequence uint32 = 0

// ExactXrplAuthorization is the client's claim about the signed
// transaction: every field must be re-derivable from the decoded blob and
// is cross-checked against it during verification.
//
// Exactly one of Sequence and TicketSequence is set; a zero value means
// the field is absent.
type ExactXrplAuthorization struct {
	Account            string `json:"account"`
	Destination        string `json:"destination"`
	Amount             Amount `json:"-"`
	Fee                string `json:"fee"`
	Sequence           uint32 `json:"sequence,omitempty"`
	TicketSequence     uint32 `json:"ticketSequence,omitempty"`
	LastLedgerSequence uint32 `json:"lastLedgerSequence,omitempty"`
}

// UsesTicket reports whether the replay handle is a ticket.
func (a *ExactXrplAuthorization) UsesTicket() bool {
	return a.TicketSequence != 0
}

// FeeAuthorization is the claim about the secondary facilitator-fee
// transaction. Fee amounts are always native drops.
type FeeAuthorization struct {
	Account        string `json:"account"`
	Destination    string `json:"destination"`
	Drops          string `json:"drops"`
	Sequence       uint32 `json:"sequence,omitempty"`
	TicketSequence uint32 `json:"ticketSequence,omitempty"`
}

// FeePayload is the signed facilitator-fee instruction attached to a
// payment payload when a paid tier is active.
type FeePayload struct {
	SignedTxBlob  string           `json:"signedTxBlob"`
	Authorization FeeAuthorization `json:"authorization"`
}

// ExactXrplPayload is the mechanism-specific payment payload: an opaque
// pre-signed transaction blob, the claimed authorization, and optionally
// a facilitator-fee instruction. The blob is immutable; the facilitator
// never re-signs or mutates it.
type ExactXrplPayload struct {
	SignedTxBlob   string                 `json:"signedTxBlob"`
	Authorization  ExactXrplAuthorization `json:"authorization"`
	FacilitatorFee *FeePayload            `json:"facilitatorFee,omitempty"`
}

// PayloadFromMap creates an ExactXrplPayload from the generic payload map.
// Returns an error if required fields are missing or malformed; shape
// errors here surface as an invalid_payload verification failure.
func PayloadFromMap(data map[string]interface{}) (*ExactXrplPayload, error) {
	payload := &ExactXrplPayload{}

	blob, ok := data["signedTxBlob"].(string)
	if !ok || blob == "" {
		return nil, fmt.Errorf("missing or invalid signedTxBlob field")
	}
	payload.SignedTxBlob = blob

	auth, ok := data["authorization"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("missing or invalid authorization field")
	}

	parsed, err := authorizationFromMap(auth)
	if err != nil {
		return nil, err
	}
	payload.Authorization = *parsed

	if rawFee, present := data["facilitatorFee"]; present && rawFee != nil {
		feeMap, ok := rawFee.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("invalid facilitatorFee field")
		}
		fee, err := feePayloadFromMap(feeMap)
		if err != nil {
			return nil, err
		}
		payload.FacilitatorFee = fee
	}

	return payload, nil
}

func authorizationFromMap(auth map[string]interface{}) (*ExactXrplAuthorization, error) {
	out := &ExactXrplAuthorization{}

	account, ok := auth["account"].(string)
	if !ok || account == "" {
		return nil, fmt.Errorf("missing or invalid authorization.account field")
	}
	out.Account = account

	destination, ok := auth["destination"].(string)
	if !ok || destination == "" {
		return nil, fmt.Errorf("missing or invalid authorization.destination field")
	}
	out.Destination = destination

	rawAmount, present := auth["amount"]
	if !present {
		return nil, fmt.Errorf("missing authorization.amount field")
	}
	amount, err := AmountFromInterface(rawAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid authorization.amount: %w", err)
	}
	out.Amount = amount

	fee, ok := auth["fee"].(string)
	if !ok || fee == "" {
		return nil, fmt.Errorf("missing or invalid authorization.fee field")
	}
	out.Fee = fee

	sequence, err := optionalUint32(auth, "sequence")
	if err != nil {
		return nil, err
	}
	ticket, err := optionalUint32(auth, "ticketSequence")
	if err != nil {
		return nil, err
	}
	if (sequence == 0) == (ticket == 0) {
		return nil, fmt.Errorf("authorization must carry exactly one of sequence or ticketSequence")
	}
	out.Sequence = sequence
	out.TicketSequence = ticket

	lls, err := optionalUint32(auth, "lastLedgerSequence")
	if err != nil {
		return nil, err
	}
	out.LastLedgerSequence = lls

	return out, nil
}

func feePayloadFromMap(data map[string]interface{}) (*FeePayload, error) {
	fee := &FeePayload{}

	blob, ok := data["signedTxBlob"].(string)
	if !ok || blob == "" {
		return nil, fmt.Errorf("missing or invalid facilitatorFee.signedTxBlob field")
	}
	fee.SignedTxBlob = blob

	auth, ok := data["authorization"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("missing or invalid facilitatorFee.authorization field")
	}

	account, ok := auth["account"].(string)
	if !ok || account == "" {
		return nil, fmt.Errorf("missing or invalid facilitatorFee.authorization.account field")
	}
	fee.Authorization.Account = account

	destination, ok := auth["destination"].(string)
	if !ok || destination == "" {
		return nil, fmt.Errorf("missing or invalid facilitatorFee.authorization.destination field")
	}
	fee.Authorization.Destination = destination

	drops, ok := auth["drops"].(string)
	if !ok || drops == "" {
		return nil, fmt.Errorf("missing or invalid facilitatorFee.authorization.drops field")
	}
	fee.Authorization.Drops = drops

	sequence, err := optionalUint32(auth, "sequence")
	if err != nil {
		return nil, err
	}
	ticket, err := optionalUint32(auth, "ticketSequence")
	if err != nil {
		return nil, err
	}
	if (sequence == 0) == (ticket == 0) {
		return nil, fmt.Errorf("facilitatorFee.authorization must carry exactly one of sequence or ticketSequence")
	}
	fee.Authorization.Sequence = sequence
	fee.Authorization.TicketSequence = ticket

	return fee, nil
}

// ToMap converts an ExactXrplPayload back to the generic payload map.
func (p *ExactXrplPayload) ToMap() map[string]interface{} {
	auth := map[string]interface{}{
		"account":     p.Authorization.Account,
		"destination": p.Authorization.Destination,
		"amount":      amountToInterface(p.Authorization.Amount),
		"fee":         p.Authorization.Fee,
	}
	if p.Authorization.Sequence != 0 {
		auth["sequence"] = float64(p.Authorization.Sequence)
	}
	if p.Authorization.TicketSequence != 0 {
		auth["ticketSequence"] = float64(p.Authorization.TicketSequence)
	}
	if p.Authorization.LastLedgerSequence != 0 {
		auth["lastLedgerSequence"] = float64(p.Authorization.LastLedgerSequence)
	}

	out := map[string]interface{}{
		"signedTxBlob":  p.SignedTxBlob,
		"authorization": auth,
	}

	if p.FacilitatorFee != nil {
		feeAuth := map[string]interface{}{
			"account":     p.FacilitatorFee.Authorization.Account,
			"destination": p.FacilitatorFee.Authorization.Destination,
			"drops":       p.FacilitatorFee.Authorization.Drops,
		}
		if p.FacilitatorFee.Authorization.Sequence != 0 {
			feeAuth["sequence"] = float64(p.FacilitatorFee.Authorization.Sequence)
		}
		if p.FacilitatorFee.Authorization.TicketSequence != 0 {
			feeAuth["ticketSequence"] = float64(p.FacilitatorFee.Authorization.TicketSequence)
		}
		out["facilitatorFee"] = map[string]interface{}{
			"signedTxBlob":  p.FacilitatorFee.SignedTxBlob,
			"authorization": feeAuth,
		}
	}

	return out
}

func amountToInterface(a Amount) interface{} {
	switch a.Kind() {
	case AmountNative:
		return a.Drops()
	case AmountIssued:
		return map[string]interface{}{
			"currency": a.Currency(),
			"issuer":   a.Issuer(),
			"value":    a.Value(),
		}
	case AmountMPT:
		return map[string]interface{}{
			"mpt_issuance_id": a.IssuanceID(),
			"value":           a.Value(),
		}
	}
	return nil
}

// optionalUint32 reads an optional non-negative integer field from a
// decoded JSON map. Absent fields return zero.
func optionalUint32(data map[string]interface{}, key string) (uint32, error) {
	raw, present := data[key]
	if !present || raw == nil {
		return 0, nil
	}
	num, ok := raw.(float64)
	if !ok || num < 0 || num != float64(uint32(num)) {
		return 0, fmt.Errorf("invalid %s field", key)
	}
	return uint32(num), nil
}

// Transaction is the structural record produced by decoding a signed
// transaction blob. Field names follow the ledger's canonical
// serialization. Zero-valued optional fields are absent.
type Transaction struct {
	TransactionType    string
	Account            string
	Destination        string
	Amount             Amount // DeliverMax of a Payment
	Fee                string // drops
	Sequence           uint32
	TicketSequence     uint32
	LastLedgerSequence uint32
	Flags              uint32
	SigningPubKey      string
	TxnSignature       string
}

// IsPartialPayment reports whether the partial-delivery flag is set.
func (t *Transaction) IsPartialPayment() bool {
	return t.Flags&tfPartialPayment != 0
}

// UsesTicket reports whether the transaction consumes a ticket. Ticket
// transactions carry the ticket sentinel in Sequence.
func (t *Transaction) UsesTicket() bool {
	return t.TicketSequence != 0 && t.Sequence == ticketSentinelSequence
}
