// Command facilitator runs the x402 facilitator service for XRPL
// networks: it verifies pre-signed payment instructions and relays them
// to a rippled node for settlement.
package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	xrp402 "github.com/ScavieFae/xrp402"
	"github.com/ScavieFae/xrp402/http"
	"github.com/ScavieFae/xrp402/xrpl"
	"github.com/ScavieFae/xrp402/xrplclient"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("XRP402")
	v.AutomaticEnv()

	// Optional config file; environment variables win.
	v.SetConfigName("facilitator")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/xrp402")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetDefault("port", "4022")
	v.SetDefault("network", "xrpl:testnet")
	v.SetDefault("rpc_url", "https://s.altnet.rippletest.net:51234")
	v.SetDefault("settlement_ttl", http.DefaultSettlementTTL)
	v.SetDefault("poll_attempts", xrpl.DefaultPollAttempts)
	v.SetDefault("poll_interval", xrpl.DefaultPollInterval)

	log, err := buildLogger(v.GetBool("debug"))
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer log.Sync()

	cfg := xrpl.Config{
		FeeAccount: v.GetString("fee_account"),
		FeeSchedule: xrpl.FeeSchedule{
			NativeDrops: v.GetString("fee_native_drops"),
			IssuedDrops: v.GetString("fee_issued_drops"),
			MPTDrops:    v.GetString("fee_mpt_drops"),
		},
		MPTAllowlist: v.GetStringSlice("mpt_allowlist"),
		ReserveDrops: v.GetString("reserve_drops"),
		ExpiryBuffer: uint32(v.GetUint("expiry_buffer")),
		PollAttempts: v.GetInt("poll_attempts"),
		PollInterval: v.GetDuration("poll_interval"),
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	network := xrp402.Network(v.GetString("network"))
	if _, _, err := network.Parse(); err != nil {
		return fmt.Errorf("invalid network: %w", err)
	}

	client := xrplclient.New(v.GetString("rpc_url"), xrplclient.WithLogger(log))
	mechanism := xrpl.NewExactXrplFacilitator(client, client, cfg, log)

	facilitator := xrp402.NewFacilitator()
	facilitator.Register(network, mechanism)

	server := http.NewServer(facilitator,
		http.WithServerLogger(log),
		http.WithSettlementCache(xrp402.NewSettlementCache(v.GetDuration("settlement_ttl"))))

	addr := ":" + v.GetString("port")
	httpServer := &nethttp.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("facilitator listening",
			zap.String("addr", addr),
			zap.String("network", string(network)),
			zap.String("rpcUrl", v.GetString("rpc_url")))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func buildLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
