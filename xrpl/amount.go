package xrpl

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// AmountKind discriminates the closed set of amount variants.
type AmountKind int

const (
	// AmountNative is an XRP amount denominated in drops.
	AmountNative AmountKind = iota
	// AmountIssued is a trust-line asset amount identified by currency and issuer.
	AmountIssued
	// AmountMPT is a multi-purpose token amount identified by its issuance ID.
	AmountMPT
)

func (k AmountKind) String() string {
	switch k {
	case AmountNative:
		return "native"
	case AmountIssued:
		return "issued"
	case AmountMPT:
		return "mpt"
	}
	return "unknown"
}

// Amount is a tagged union over the three asset classes the ledger
// supports. Exactly one variant is populated; construction goes through
// the typed constructors or AmountFromInterface so a value can never be
// classified as more than one variant.
//
// Native amounts are integer drop counts and compare as arbitrary
// precision integers. Issued and MPT amounts are decimal strings and
// compare on parsed decimal value, so representations differing only in
// trailing zeros ("25.50" vs "25.5") are equal.
type Amount struct {
	kind AmountKind

	drops string // native

	currency string // issued
	issuer   string // issued

	issuanceID string // mpt

	value string // issued and mpt
}

// NewNativeAmount builds a native amount from an integer drops string.
func NewNativeAmount(drops string) (Amount, error) {
	if _, ok := new(big.Int).SetString(drops, 10); !ok {
		return Amount{}, fmt.Errorf("invalid drops amount %q", drops)
	}
	return Amount{kind: AmountNative, drops: drops}, nil
}

// NewIssuedAmount builds an issued-asset amount.
func NewIssuedAmount(currency, issuer, value string) (Amount, error) {
	if currency == "" || issuer == "" {
		return Amount{}, fmt.Errorf("issued amount requires currency and issuer")
	}
	if _, err := decimal.NewFromString(value); err != nil {
		return Amount{}, fmt.Errorf("invalid issued amount value %q: %w", value, err)
	}
	return Amount{kind: AmountIssued, currency: currency, issuer: issuer, value: value}, nil
}

// NewMPTAmount builds a multi-purpose token amount.
func NewMPTAmount(issuanceID, value string) (Amount, error) {
	if issuanceID == "" {
		return Amount{}, fmt.Errorf("mpt amount requires an issuance ID")
	}
	if _, err := decimal.NewFromString(value); err != nil {
		return Amount{}, fmt.Errorf("invalid mpt amount value %q: %w", value, err)
	}
	return Amount{kind: AmountMPT, issuanceID: issuanceID, value: value}, nil
}

// AmountFromInterface classifies a decoded JSON amount value. The ledger's
// wire form is a plain string for drops, an object with currency/issuer/
// value for issued assets, and an object with mpt_issuance_id/value for
// MPTs. An object carrying fields of more than one variant is malformed,
// not coerced.
func AmountFromInterface(v interface{}) (Amount, error) {
	switch raw := v.(type) {
	case string:
		return NewNativeAmount(raw)
	case map[string]interface{}:
		currency, hasCurrency := raw["currency"].(string)
		issuer, hasIssuer := raw["issuer"].(string)
		issuanceID, hasIssuance := raw["mpt_issuance_id"].(string)
		value, hasValue := raw["value"].(string)

		if !hasValue {
			return Amount{}, fmt.Errorf("amount object missing value field")
		}
		if (hasCurrency || hasIssuer) && hasIssuance {
			return Amount{}, fmt.Errorf("ambiguous amount: both issued and mpt fields present")
		}
		if hasIssuance {
			return NewMPTAmount(issuanceID, value)
		}
		if hasCurrency && hasIssuer {
			return NewIssuedAmount(currency, issuer, value)
		}
		return Amount{}, fmt.Errorf("amount object is neither issued nor mpt")
	default:
		return Amount{}, fmt.Errorf("unsupported amount type %T", v)
	}
}

// Kind returns the populated variant.
func (a Amount) Kind() AmountKind { return a.kind }

// Drops returns the drop count of a native amount.
func (a Amount) Drops() string { return a.drops }

// Currency returns the currency code of an issued amount.
func (a Amount) Currency() string { return a.currency }

// Issuer returns the issuer address of an issued amount.
func (a Amount) Issuer() string { return a.issuer }

// IssuanceID returns the issuance ID of an MPT amount.
func (a Amount) IssuanceID() string { return a.issuanceID }

// Value returns the decimal value of an issued or MPT amount.
func (a Amount) Value() string { return a.value }

// Equal reports whether two amounts are the same asset and the same
// magnitude under the variant-appropriate comparison rule.
func (a Amount) Equal(b Amount) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case AmountNative:
		cmp, err := compareDrops(a.drops, b.drops)
		return err == nil && cmp == 0
	case AmountIssued:
		if a.currency != b.currency || a.issuer != b.issuer {
			return false
		}
		cmp, err := compareDecimal(a.value, b.value)
		return err == nil && cmp == 0
	case AmountMPT:
		if a.issuanceID != b.issuanceID {
			return false
		}
		cmp, err := compareDecimal(a.value, b.value)
		return err == nil && cmp == 0
	}
	return false
}

// MeetsMinimum reports whether the amount's magnitude is at least the
// given minimum, compared under this amount's variant rule.
func (a Amount) MeetsMinimum(minimum string) (bool, error) {
	switch a.kind {
	case AmountNative:
		cmp, err := compareDrops(a.drops, minimum)
		if err != nil {
			return false, err
		}
		return cmp >= 0, nil
	default:
		cmp, err := compareDecimal(a.value, minimum)
		if err != nil {
			return false, err
		}
		return cmp >= 0, nil
	}
}

func (a Amount) String() string {
	switch a.kind {
	case AmountNative:
		return a.drops + " drops"
	case AmountIssued:
		return fmt.Sprintf("%s %s.%s", a.value, a.issuer, a.currency)
	case AmountMPT:
		return fmt.Sprintf("%s mpt:%s", a.value, a.issuanceID)
	}
	return "invalid amount"
}

// compareDrops compares two integer drops strings. Drops are indivisible;
// comparison never goes through floating point.
func compareDrops(a, b string) (int, error) {
	ai, ok := new(big.Int).SetString(a, 10)
	if !ok {
		return 0, fmt.Errorf("invalid drops amount %q", a)
	}
	bi, ok := new(big.Int).SetString(b, 10)
	if !ok {
		return 0, fmt.Errorf("invalid drops amount %q", b)
	}
	return ai.Cmp(bi), nil
}

// compareDecimal compares two decimal strings at arbitrary precision.
func compareDecimal(a, b string) (int, error) {
	ad, err := decimal.NewFromString(a)
	if err != nil {
		return 0, fmt.Errorf("invalid decimal amount %q: %w", a, err)
	}
	bd, err := decimal.NewFromString(b)
	if err != nil {
		return 0, fmt.Errorf("invalid decimal amount %q: %w", b, err)
	}
	return ad.Cmp(bd), nil
}

// addDrops sums integer drops strings.
func addDrops(amounts ...string) (*big.Int, error) {
	total := new(big.Int)
	for _, a := range amounts {
		ai, ok := new(big.Int).SetString(a, 10)
		if !ok {
			return nil, fmt.Errorf("invalid drops amount %q", a)
		}
		total.Add(total, ai)
	}
	return total, nil
}
