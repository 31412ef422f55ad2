package xrpl

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	xrp402 "github.com/ScavieFae/xrp402"
)

// SubmitAndAwait submits a signed blob exactly once and drives it to a
// terminal result: classify the engine's preliminary result, then poll
// for ledger validation under the configured attempt bound.
//
// The preliminary result classifies three ways: permanent failures
// (malformed, stale sequence, expired) fail immediately without polling;
// applied-but-failed results (tec class: accepted into a candidate ledger
// but without effect) fail immediately with a mapped reason; everything
// provisionally accepted (tes, ter including queued) proceeds to polling.
//
// Exhausting the poll budget returns a settlement_timeout failure. That
// outcome is ambiguous: the instruction may still validate in a later
// ledger. Callers must treat it as "unknown", not "definitely failed";
// the transaction hash is included so the outcome can be rechecked out of
// band. No reconciliation is attempted here.
func SubmitAndAwait(ctx context.Context, ledger Ledger, blob string, network xrp402.Network, payer string, cfg Config, log *zap.Logger) *xrp402.SettleResponse {
	cfg = cfg.withDefaults()

	submitted, err := ledger.Submit(ctx, blob)
	if err != nil {
		log.Warn("submission failed before reaching the ledger", zap.Error(err))
		return &xrp402.SettleResponse{
			Success:     false,
			ErrorReason: ReasonLedgerUnavailable,
			Network:     network,
		}
	}

	code := submitted.EngineResult
	log.Info("transaction submitted",
		zap.String("hash", submitted.Hash),
		zap.String("engineResult", code))

	switch {
	case strings.HasPrefix(code, "tes"), strings.HasPrefix(code, "ter"):
		return awaitValidation(ctx, ledger, submitted.Hash, network, payer, cfg, log)

	case strings.HasPrefix(code, "tec"):
		// Applied into a candidate ledger, effect did not take hold.
		return &xrp402.SettleResponse{
			Success:     false,
			ErrorReason: mappedReason(appliedFailureReasons, code),
			Transaction: submitted.Hash,
			Network:     network,
		}

	default:
		// tem, tef, tel and anything unrecognized: permanently rejected.
		return &xrp402.SettleResponse{
			Success:     false,
			ErrorReason: mappedReason(permanentFailureReasons, code),
			Transaction: submitted.Hash,
			Network:     network,
		}
	}
}

// awaitValidation polls transaction status at a fixed interval up to the
// configured attempt count. Query errors are expected early (the
// transaction is not yet visible) and count as an attempt rather than a
// failure.
func awaitValidation(ctx context.Context, ledger Ledger, hash string, network xrp402.Network, payer string, cfg Config, log *zap.Logger) *xrp402.SettleResponse {
	timeout := &xrp402.SettleResponse{
		Success:     false,
		ErrorReason: ReasonSettlementTimeout,
		Transaction: hash,
		Network:     network,
	}

	for attempt := 0; attempt < cfg.PollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			// Abandoned poll; the instruction's true outcome stays
			// unresolved.
			return timeout
		case <-time.After(cfg.PollInterval):
		}

		status, err := ledger.Tx(ctx, hash)
		if err != nil {
			log.Debug("transaction not yet visible",
				zap.String("hash", hash), zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}
		if !status.Validated {
			continue
		}

		if status.Result == "tesSUCCESS" {
			resolvedPayer := payer
			if status.Account != "" {
				resolvedPayer = status.Account
			}
			log.Info("transaction validated", zap.String("hash", hash))
			return &xrp402.SettleResponse{
				Success:     true,
				Transaction: hash,
				Network:     network,
				Payer:       resolvedPayer,
			}
		}

		log.Info("transaction validated with failure",
			zap.String("hash", hash), zap.String("result", status.Result))
		return &xrp402.SettleResponse{
			Success:     false,
			ErrorReason: mappedReason(appliedFailureReasons, status.Result),
			Transaction: hash,
			Network:     network,
		}
	}

	log.Warn("validation polling exhausted, outcome unknown", zap.String("hash", hash))
	return timeout
}
