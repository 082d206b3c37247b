package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/getsentry/sentry-go"

	"github.com/malbeclabs/atomid/sdk/pkg/atomid"
	"github.com/malbeclabs/atomid/sdk/pkg/metrics"
	"github.com/malbeclabs/atomid/utils/pkg/retry"
)

// DefaultRPCURL is the default Solana RPC endpoint.
const DefaultRPCURL = "https://api.mainnet-beta.solana.com"

// RPC is the subset of the solana-go RPC client wrapped by Client.
type RPC interface {
	atomid.LedgerRPC
	GetBalance(ctx context.Context, account solana.PublicKey, commitment solanarpc.CommitmentType) (*solanarpc.GetBalanceResult, error)
}

type Config struct {
	Logger *slog.Logger
	// RPC defaults to a solana-go client for URL.
	RPC RPC
	URL string
	// Retry defaults to a single attempt.
	Retry retry.Config
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.RPC == nil && cfg.URL == "" {
		return errors.New("rpc client or url is required")
	}
	if cfg.Retry.MaxAttempts < 0 {
		return errors.New("retry max attempts must not be negative")
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.Config{MaxAttempts: 1}
	}
	return nil
}

// Client is a ledger reader with metrics, tracing and optional retries.
// It satisfies atomid.LedgerRPC.
type Client struct {
	log    *slog.Logger
	cfg    Config
	rpc    RPC
	closer func() error
}

var _ atomid.LedgerRPC = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		log: cfg.Logger,
		cfg: cfg,
		rpc: cfg.RPC,
	}
	if c.rpc == nil {
		rpcClient := solanarpc.New(cfg.URL)
		c.rpc = rpcClient
		c.closer = rpcClient.Close
	}
	return c, nil
}

// Close releases the underlying RPC client if Client created it.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

func (c *Client) GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *solanarpc.GetAccountInfoOpts) (*solanarpc.GetAccountInfoResult, error) {
	var out *solanarpc.GetAccountInfoResult
	err := c.do(ctx, "getAccountInfo", account.String(), func(ctx context.Context) error {
		var err error
		out, err = c.rpc.GetAccountInfoWithOpts(ctx, account, opts)
		return err
	})
	return out, err
}

func (c *Client) GetProgramAccountsWithOpts(ctx context.Context, programID solana.PublicKey, opts *solanarpc.GetProgramAccountsOpts) (solanarpc.GetProgramAccountsResult, error) {
	var out solanarpc.GetProgramAccountsResult
	err := c.do(ctx, "getProgramAccounts", programID.String(), func(ctx context.Context) error {
		var err error
		out, err = c.rpc.GetProgramAccountsWithOpts(ctx, programID, opts)
		return err
	})
	return out, err
}

// GetBalance returns the balance of account in lamports.
func (c *Client) GetBalance(ctx context.Context, account solana.PublicKey, commitment solanarpc.CommitmentType) (uint64, error) {
	var out *solanarpc.GetBalanceResult
	err := c.do(ctx, "getBalance", account.String(), func(ctx context.Context) error {
		var err error
		out, err = c.rpc.GetBalance(ctx, account, commitment)
		return err
	})
	if err != nil {
		return 0, err
	}
	return out.Value, nil
}

// AccountExists reports whether account holds data on the ledger.
func (c *Client) AccountExists(ctx context.Context, account solana.PublicKey, commitment solanarpc.CommitmentType) (bool, int, error) {
	info, err := c.GetAccountInfoWithOpts(ctx, account, &solanarpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: commitment,
	})
	if errors.Is(err, solanarpc.ErrNotFound) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	if info == nil || info.Value == nil {
		return false, 0, nil
	}
	size := 0
	if info.Value.Data != nil {
		size = len(info.Value.Data.GetBinary())
	}
	return true, size, nil
}

func (c *Client) do(ctx context.Context, method, target string, fn func(context.Context) error) error {
	span := sentry.StartSpan(ctx, "rpc.call", sentry.WithDescription(method))
	span.SetData("rpc.method", method)
	span.SetData("rpc.target", target)
	ctx = span.Context()
	defer span.Finish()

	attempt := 0
	err := retry.Do(ctx, c.cfg.Retry, func() error {
		attempt++
		start := time.Now()
		err := fn(ctx)
		duration := time.Since(start)

		// Absent accounts are an answer, not a failed request.
		if errors.Is(err, solanarpc.ErrNotFound) {
			metrics.RecordLedgerRequest(method, duration, nil)
			return err
		}
		metrics.RecordLedgerRequest(method, duration, err)
		if err != nil {
			c.log.Debug("ledger: request failed", "method", method, "target", target, "attempt", attempt, "duration", duration.String(), "error", err)
		}
		return err
	})
	if err != nil && !errors.Is(err, solanarpc.ErrNotFound) {
		span.Status = sentry.SpanStatusInternalError
		return fmt.Errorf("%s: %w", method, err)
	}
	span.Status = sentry.SpanStatusOK
	return err
}

// LamportsToSOL converts lamports to SOL for display.
func LamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / float64(solana.LAMPORTS_PER_SOL)
}
