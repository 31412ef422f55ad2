package xrpl

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Defaults for settlement and verification parameters. Any reasonable
// bounded values preserve correctness; these are tuning, not protocol.
const (
	// DefaultReserveDrops is the base account reserve kept out of
	// spendable balance during the balance check (1 XRP).
	DefaultReserveDrops = "1000000"

	// DefaultExpiryBuffer is how many ledger indexes beyond the current
	// one a LastLedgerSequence must leave at verify time, absorbing the
	// gap between verification and eventual settlement.
	DefaultExpiryBuffer uint32 = 10

	// DefaultPollAttempts bounds validation polling per settlement.
	DefaultPollAttempts = 10

	// DefaultPollInterval is the pause between validation polls.
	DefaultPollInterval = time.Second
)

// FeeSchedule advertises the facilitator fee, in drops, charged per asset
// tier of the primary payment. An empty or "0" entry means that tier is
// free and no fee instruction is required.
type FeeSchedule struct {
	NativeDrops string `json:"native,omitempty"`
	IssuedDrops string `json:"issued,omitempty"`
	MPTDrops    string `json:"mpt,omitempty"`
}

// ForKind returns the fee drops for an asset tier, empty when free.
func (s FeeSchedule) ForKind(kind AmountKind) string {
	var drops string
	switch kind {
	case AmountNative:
		drops = s.NativeDrops
	case AmountIssued:
		drops = s.IssuedDrops
	case AmountMPT:
		drops = s.MPTDrops
	}
	if drops == "0" {
		return ""
	}
	return drops
}

// Config is the immutable per-network configuration handed to the
// mechanism at construction. It is read-only after process start; the
// mechanism never mutates it.
type Config struct {
	// FeeAccount is the facilitator's receiving account for fee
	// instructions. Required whenever any FeeSchedule tier is non-zero.
	FeeAccount string

	// FeeSchedule is the advertised facilitator fee per asset tier.
	FeeSchedule FeeSchedule

	// MPTAllowlist enumerates the MPT issuance IDs accepted on this
	// network. Payments in unlisted issuances are rejected offline.
	MPTAllowlist []string

	// ReserveDrops is the base reserve excluded from spendable balance.
	ReserveDrops string

	// ExpiryBuffer is the minimum ledger-index headroom required of a
	// LastLedgerSequence at verify time.
	ExpiryBuffer uint32

	// PollAttempts and PollInterval bound validation polling.
	PollAttempts int
	PollInterval time.Duration
}

// withDefaults fills unset tuning fields.
func (c Config) withDefaults() Config {
	if c.ReserveDrops == "" {
		c.ReserveDrops = DefaultReserveDrops
	}
	if c.ExpiryBuffer == 0 {
		c.ExpiryBuffer = DefaultExpiryBuffer
	}
	if c.PollAttempts == 0 {
		c.PollAttempts = DefaultPollAttempts
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	return c
}

// Validate checks config invariants that would otherwise surface as
// confusing runtime failures.
func (c Config) Validate() error {
	for tier, drops := range map[string]string{
		"native": c.FeeSchedule.NativeDrops,
		"issued": c.FeeSchedule.IssuedDrops,
		"mpt":    c.FeeSchedule.MPTDrops,
	} {
		if drops == "" {
			continue
		}
		if _, ok := new(big.Int).SetString(drops, 10); !ok {
			return fmt.Errorf("fee schedule %s tier: invalid drops amount %q", tier, drops)
		}
		if drops != "0" && c.FeeAccount == "" {
			return fmt.Errorf("fee schedule %s tier is non-zero but no fee account is configured", tier)
		}
	}
	if c.ReserveDrops != "" {
		if _, ok := new(big.Int).SetString(c.ReserveDrops, 10); !ok {
			return fmt.Errorf("invalid reserve drops amount %q", c.ReserveDrops)
		}
	}
	return nil
}

// MPTAllowed reports whether an issuance ID is allowlisted. Issuance IDs
// are hex strings; comparison is case-insensitive.
func (c Config) MPTAllowed(issuanceID string) bool {
	for _, allowed := range c.MPTAllowlist {
		if strings.EqualFold(allowed, issuanceID) {
			return true
		}
	}
	return false
}
