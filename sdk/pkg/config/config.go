package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/joho/godotenv"

	"github.com/malbeclabs/atomid/sdk/pkg/atomid"
	"github.com/malbeclabs/atomid/sdk/pkg/ledger"
)

const (
	EnvRPCURL          = "SOLANA_RPC_URL"
	EnvProgramID       = "ATOMID_PROGRAM_ID"
	EnvCacheTTL        = "ATOMID_CACHE_TTL"
	EnvCommitment      = "ATOMID_COMMITMENT"
	EnvCacheMaxEntries = "ATOMID_CACHE_MAX_ENTRIES"
	EnvRPCMaxAttempts  = "ATOMID_RPC_MAX_ATTEMPTS"

	DefaultCacheMaxEntries = 10_000
)

// Config is the shared runtime configuration of the AtomID binaries.
type Config struct {
	RPCURL          string
	ProgramID       solana.PublicKey
	CacheTTL        time.Duration
	Commitment      solanarpc.CommitmentType
	CacheMaxEntries int
	RPCMaxAttempts  int
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		RPCURL:          ledger.DefaultRPCURL,
		ProgramID:       atomid.DefaultProgramID,
		CacheTTL:        atomid.DefaultCacheTTL,
		Commitment:      solanarpc.CommitmentConfirmed,
		CacheMaxEntries: DefaultCacheMaxEntries,
		RPCMaxAttempts:  1,
	}
}

// LoadDotEnv loads variables from the given files, or .env when none are
// given. Missing files are ignored and existing variables are not overridden.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// LoadFromEnv builds a Config from environment variables over Default.
func LoadFromEnv() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := Default()

	if v := getenv(EnvRPCURL); v != "" {
		cfg.RPCURL = v
	}
	if v := getenv(EnvProgramID); v != "" {
		pk, err := solana.PublicKeyFromBase58(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", EnvProgramID, err)
		}
		cfg.ProgramID = pk
	}
	if v := getenv(EnvCacheTTL); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", EnvCacheTTL, err)
		}
		if ttl <= 0 {
			return Config{}, fmt.Errorf("invalid %s: must be positive", EnvCacheTTL)
		}
		cfg.CacheTTL = ttl
	}
	if v := getenv(EnvCommitment); v != "" {
		c, err := ParseCommitment(v)
		if err != nil {
			return Config{}, err
		}
		cfg.Commitment = c
	}
	if v := getenv(EnvCacheMaxEntries); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid %s: %q", EnvCacheMaxEntries, v)
		}
		cfg.CacheMaxEntries = n
	}
	if v := getenv(EnvRPCMaxAttempts); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid %s: %q", EnvRPCMaxAttempts, v)
		}
		cfg.RPCMaxAttempts = n
	}

	return cfg, nil
}

// ParseCommitment accepts processed, confirmed or finalized.
func ParseCommitment(s string) (solanarpc.CommitmentType, error) {
	switch c := solanarpc.CommitmentType(s); c {
	case solanarpc.CommitmentProcessed, solanarpc.CommitmentConfirmed, solanarpc.CommitmentFinalized:
		return c, nil
	default:
		return "", fmt.Errorf("invalid commitment %q: expected processed, confirmed or finalized", s)
	}
}
