package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/getsentry/sentry-go"
	flag "github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"github.com/malbeclabs/atomid/api/metrics"
	"github.com/malbeclabs/atomid/api/server"
	"github.com/malbeclabs/atomid/sdk/pkg/atomid"
	"github.com/malbeclabs/atomid/sdk/pkg/config"
	"github.com/malbeclabs/atomid/sdk/pkg/ledger"
	"github.com/malbeclabs/atomid/utils/pkg/logger"
	"github.com/malbeclabs/atomid/utils/pkg/retry"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	verboseFlag := flag.Bool("verbose", false, "Enable verbose (debug) logging")
	listenAddrFlag := flag.String("listen-addr", server.DefaultListenAddr, "Address to listen on for HTTP requests")
	rpcURLFlag := flag.String("rpc-url", cfg.RPCURL, "Solana RPC URL (or set SOLANA_RPC_URL env var)")
	programIDFlag := flag.String("program-id", cfg.ProgramID.String(), "AtomID program ID (or set ATOMID_PROGRAM_ID env var)")
	maxAttemptsFlag := flag.Int("rpc-max-attempts", cfg.RPCMaxAttempts, "Maximum attempts per RPC call, 1 disables retries")
	maxConcurrencyFlag := flag.Int("max-concurrency", 16, "Maximum concurrent lookups per batch verify request")
	includeLegacyFlag := flag.Bool("include-legacy", false, "Include 74-byte legacy records in leaderboard scans")
	rateLimitFlag := flag.Float64("rate-limit", float64(server.DefaultRateLimit), "Per-IP requests per second on /api/v1")
	rateBurstFlag := flag.Int("rate-burst", server.DefaultRateBurst, "Per-IP burst size on /api/v1")
	allowedOriginsFlag := flag.String("allowed-origins", "*", "Comma-separated CORS allowed origins")
	trustProxyFlag := flag.Bool("trust-proxy-headers", false, "Take the client IP for rate limiting from X-Forwarded-For/X-Real-IP (only behind a trusted proxy)")
	shutdownTimeoutFlag := flag.Duration("shutdown-timeout", server.DefaultShutdownTimeout, "Maximum time to wait for in-flight requests during shutdown")

	flag.Parse()

	log := logger.New(*verboseFlag)

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			Release:          version,
			EnableTracing:    true,
			TracesSampleRate: 0.1,
		}); err != nil {
			return fmt.Errorf("failed to initialize sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
		log.Info("sentry initialized")
	}

	metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)

	programID, err := solana.PublicKeyFromBase58(*programIDFlag)
	if err != nil {
		return fmt.Errorf("invalid --program-id: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ledgerClient, err := ledger.New(ledger.Config{
		Logger: log,
		URL:    *rpcURLFlag,
		Retry:  retry.WithAttempts(*maxAttemptsFlag),
	})
	if err != nil {
		return fmt.Errorf("failed to create ledger client: %w", err)
	}
	defer ledgerClient.Close()

	cache, err := atomid.NewBoundedCache(cfg.CacheMaxEntries)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	defer cache.Close()

	client, err := atomid.NewClient(atomid.ClientConfig{
		Logger:         log,
		RPC:            ledgerClient,
		ProgramID:      programID,
		Cache:          cache,
		CacheTTL:       cfg.CacheTTL,
		Commitment:     cfg.Commitment,
		MaxConcurrency: *maxConcurrencyFlag,
		IncludeLegacy:  *includeLegacyFlag,
	})
	if err != nil {
		return fmt.Errorf("failed to create atomid client: %w", err)
	}

	srv, err := server.New(server.Config{
		Logger:            log,
		Client:            client,
		ListenAddr:        *listenAddrFlag,
		ShutdownTimeout:   *shutdownTimeoutFlag,
		VersionInfo:       server.VersionInfo{Version: version, Commit: commit, Date: date},
		RateLimit:         rate.Limit(*rateLimitFlag),
		RateBurst:         *rateBurstFlag,
		AllowedOrigins:    splitOrigins(*allowedOriginsFlag),
		TrustProxyHeaders: *trustProxyFlag,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	log.Info("atomid api starting", "version", version, "program_id", programID.String(), "rpc_url", *rpcURLFlag)
	return srv.Run(ctx)
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
