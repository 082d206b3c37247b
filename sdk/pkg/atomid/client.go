package atomid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/malbeclabs/atomid/sdk/pkg/metrics"
)

// DefaultLeaderboardLimit is used when GetLeaderboard is called with a non-positive limit.
const DefaultLeaderboardLimit = 100

// LedgerRPC is the subset of the solana-go RPC client used by Client.
type LedgerRPC interface {
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *solanarpc.GetAccountInfoOpts) (*solanarpc.GetAccountInfoResult, error)
	GetProgramAccountsWithOpts(ctx context.Context, publicKey solana.PublicKey, opts *solanarpc.GetProgramAccountsOpts) (solanarpc.GetProgramAccountsResult, error)
}

type ClientConfig struct {
	Logger    *slog.Logger
	Clock     clockwork.Clock
	RPC       LedgerRPC
	ProgramID solana.PublicKey
	// Cache defaults to a TTLCache driven by Clock.
	Cache      Cache
	CacheTTL   time.Duration
	Commitment solanarpc.CommitmentType
	// MaxConcurrency bounds VerifyBatch fan-out; 0 means unbounded.
	MaxConcurrency int
	// IncludeLegacy adds 74-byte legacy records to leaderboard scans.
	IncludeLegacy bool
}

func (cfg *ClientConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.RPC == nil {
		return errors.New("rpc client is required")
	}
	if cfg.MaxConcurrency < 0 {
		return errors.New("max concurrency must not be negative")
	}
	if cfg.CacheTTL < 0 {
		return errors.New("cache ttl must not be negative")
	}
	if cfg.ProgramID.IsZero() {
		cfg.ProgramID = DefaultProgramID
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.Cache == nil {
		cfg.Cache = NewTTLCache(cfg.Clock)
	}
	if cfg.Commitment == "" {
		cfg.Commitment = solanarpc.CommitmentConfirmed
	}
	return nil
}

// VerificationResult is the outcome of looking up one owner.
type VerificationResult struct {
	Exists  bool     `json:"exists"`
	Account *Account `json:"account"`
	Error   string   `json:"error,omitempty"`
}

// RankRequirement is an inclusive rank range. A nil MaxRank is unbounded.
type RankRequirement struct {
	MinRank Rank
	MaxRank *Rank
}

// Satisfied reports whether rank falls within the requirement.
func (r RankRequirement) Satisfied(rank Rank) bool {
	if rank < r.MinRank {
		return false
	}
	if r.MaxRank != nil && rank > *r.MaxRank {
		return false
	}
	return true
}

// Client answers rank queries against the AtomID program.
type Client struct {
	log *slog.Logger
	cfg ClientConfig
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		log: cfg.Logger,
		cfg: cfg,
	}, nil
}

// ProgramID returns the program namespace the client queries.
func (c *Client) ProgramID() solana.PublicKey {
	return c.cfg.ProgramID
}

// Verify looks up the AtomID record of owner. It never returns an error:
// failures are reported through VerificationResult.Error.
func (c *Client) Verify(ctx context.Context, owner string) VerificationResult {
	pk, err := ParseIdentity(owner)
	if err != nil {
		return failedResult(err)
	}
	return c.VerifyPublicKey(ctx, pk)
}

// VerifyPublicKey is Verify for an already parsed owner key.
func (c *Client) VerifyPublicKey(ctx context.Context, owner solana.PublicKey) (result VerificationResult) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("atomid: verify panicked", "owner", owner.String(), "panic", r)
			result = failedResult(fmt.Errorf("verify panicked: %v", r))
		}
	}()

	key := owner.String()
	if acc, ok := c.cfg.Cache.Get(key); ok {
		metrics.RecordCacheLookup(true)
		return VerificationResult{Exists: true, Account: acc}
	}
	metrics.RecordCacheLookup(false)

	addr, _, err := FindAddress(owner, c.cfg.ProgramID)
	if err != nil {
		return failedResult(err)
	}

	info, err := c.cfg.RPC.GetAccountInfoWithOpts(ctx, addr, &solanarpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.cfg.Commitment,
	})
	if err != nil {
		if errors.Is(err, solanarpc.ErrNotFound) {
			c.log.Debug("atomid: no record", "owner", key, "address", addr.String())
			return VerificationResult{}
		}
		c.log.Debug("atomid: failed to fetch record", "owner", key, "address", addr.String(), "error", err)
		return failedResult(fmt.Errorf("%w: failed to get account info: %w", ErrExternalReadFailure, err))
	}
	if info == nil || info.Value == nil || info.Value.Data == nil {
		return VerificationResult{}
	}

	acc, err := DecodeAccount(info.Value.Data.GetBinary(), owner, addr)
	if err != nil {
		metrics.DecodeFailuresTotal.WithLabelValues("verify").Inc()
		c.log.Warn("atomid: failed to decode record", "owner", key, "address", addr.String(), "error", err)
		return failedResult(err)
	}

	c.cfg.Cache.Put(key, acc, c.cfg.CacheTTL)
	return VerificationResult{Exists: true, Account: acc}
}

func failedResult(err error) VerificationResult {
	return VerificationResult{Exists: false, Account: nil, Error: err.Error()}
}

// GetRank returns the owner's rank, or 0 when the record is absent or unreadable.
func (c *Client) GetRank(ctx context.Context, owner string) Rank {
	result := c.Verify(ctx, owner)
	if result.Account == nil {
		return RankInitiate
	}
	return result.Account.Rank
}

// HasMinimumRank reports whether the owner's rank is at least minRank.
func (c *Client) HasMinimumRank(ctx context.Context, owner string, minRank Rank) bool {
	return c.GetRank(ctx, owner) >= minRank
}

// CheckRequirement reports whether the owner's rank satisfies req.
func (c *Client) CheckRequirement(ctx context.Context, owner string, req RankRequirement) bool {
	return req.Satisfied(c.GetRank(ctx, owner))
}

// VerifyBatch verifies owners concurrently. Results are in input order and
// one owner's failure does not affect the others.
func (c *Client) VerifyBatch(ctx context.Context, owners []string) []VerificationResult {
	results := make([]VerificationResult, len(owners))

	var g errgroup.Group
	if c.cfg.MaxConcurrency > 0 {
		g.SetLimit(c.cfg.MaxConcurrency)
	}
	for i, owner := range owners {
		g.Go(func() error {
			results[i] = c.Verify(ctx, owner)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// ClearCache drops all cached accounts.
func (c *Client) ClearCache() {
	c.cfg.Cache.Clear()
}

// GetLeaderboard returns up to limit records ordered by rank, then total burned,
// both descending. Records that do not carry the AtomID discriminator or fail
// to decode are skipped.
func (c *Client) GetLeaderboard(ctx context.Context, limit int) ([]Account, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	start := time.Now()

	keyed, err := c.cfg.RPC.GetProgramAccountsWithOpts(ctx, c.cfg.ProgramID, &solanarpc.GetProgramAccountsOpts{
		Commitment: c.cfg.Commitment,
		Encoding:   solana.EncodingBase64,
		Filters: []solanarpc.RPCFilter{
			{
				Memcmp: &solanarpc.RPCFilterMemcmp{
					Offset: 0,
					Bytes:  solana.Base58(AccountDiscriminator[:]),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get program accounts: %w", ErrExternalReadFailure, err)
	}

	accounts := c.decodeKeyed(keyed, true)

	if c.cfg.IncludeLegacy {
		legacy, err := c.cfg.RPC.GetProgramAccountsWithOpts(ctx, c.cfg.ProgramID, &solanarpc.GetProgramAccountsOpts{
			Commitment: c.cfg.Commitment,
			Encoding:   solana.EncodingBase64,
			Filters: []solanarpc.RPCFilter{
				{DataSize: LegacyAccountSize},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: failed to get legacy program accounts: %w", ErrExternalReadFailure, err)
		}
		accounts = append(accounts, c.decodeKeyed(legacy, false)...)
	}

	SortLeaderboard(accounts)
	if len(accounts) > limit {
		accounts = accounts[:limit]
	}

	c.log.Debug("atomid: leaderboard scan completed",
		"scanned", len(keyed),
		"returned", len(accounts),
		"duration", time.Since(start).String())

	return accounts, nil
}

func (c *Client) decodeKeyed(keyed solanarpc.GetProgramAccountsResult, requireDiscriminator bool) []Account {
	accounts := make([]Account, 0, len(keyed))
	for _, ka := range keyed {
		if ka == nil || ka.Account == nil || ka.Account.Data == nil {
			continue
		}
		data := ka.Account.Data.GetBinary()
		if requireDiscriminator && (!HasDiscriminator(data) || len(data) == LegacyAccountSize) {
			continue
		}
		if !requireDiscriminator && len(data) != LegacyAccountSize {
			continue
		}
		owner, err := OwnerFromData(data)
		if err != nil {
			metrics.DecodeFailuresTotal.WithLabelValues("leaderboard").Inc()
			c.log.Warn("atomid: skipping record", "address", ka.Pubkey.String(), "error", err)
			continue
		}
		acc, err := DecodeAccount(data, owner, ka.Pubkey)
		if err != nil {
			metrics.DecodeFailuresTotal.WithLabelValues("leaderboard").Inc()
			c.log.Warn("atomid: skipping record", "address", ka.Pubkey.String(), "error", err)
			continue
		}
		accounts = append(accounts, *acc)
	}
	return accounts
}

// SortLeaderboard orders accounts by rank then total burned, both descending.
func SortLeaderboard(accounts []Account) {
	slices.SortStableFunc(accounts, func(a, b Account) int {
		if a.Rank != b.Rank {
			if a.Rank > b.Rank {
				return -1
			}
			return 1
		}
		switch {
		case a.TotalBurned > b.TotalBurned:
			return -1
		case a.TotalBurned < b.TotalBurned:
			return 1
		default:
			return 0
		}
	})
}
