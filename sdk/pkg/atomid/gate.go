package atomid

import (
	"context"
	"log/slog"
)

// RankChecker is the part of Client a gate depends on.
type RankChecker interface {
	CheckRequirement(ctx context.Context, owner string, req RankRequirement) bool
	GetRank(ctx context.Context, owner string) Rank
}

var _ RankChecker = (*Client)(nil)

type GateConfig struct {
	Requirement RankRequirement
	OnSuccess   func()
	OnFailure   func(current Rank)
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Gate reports whether owner passes a rank requirement.
type Gate func(ctx context.Context, owner string) bool

// NewGate builds a Gate over checker. Any panic raised while checking, including
// from the callbacks, is logged and the gate denies access.
func NewGate(checker RankChecker, cfg GateConfig) Gate {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return func(ctx context.Context, owner string) (allowed bool) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("atomid: gate error", "owner", owner, "panic", r)
				allowed = false
			}
		}()

		if checker.CheckRequirement(ctx, owner, cfg.Requirement) {
			if cfg.OnSuccess != nil {
				cfg.OnSuccess()
			}
			return true
		}

		rank := checker.GetRank(ctx, owner)
		if cfg.OnFailure != nil {
			cfg.OnFailure(rank)
		}
		return false
	}
}

// RequireMinRank returns an *InsufficientRankError when owner is below minRank.
func RequireMinRank(ctx context.Context, checker RankChecker, owner string, minRank Rank) error {
	rank := checker.GetRank(ctx, owner)
	if rank < minRank {
		return &InsufficientRankError{Required: minRank, Current: rank}
	}
	return nil
}

// GateByRank runs action only when owner holds at least minRank.
func GateByRank[T any](ctx context.Context, checker RankChecker, owner string, minRank Rank, action func(context.Context) (T, error)) (T, error) {
	if err := RequireMinRank(ctx, checker, owner, minRank); err != nil {
		var zero T
		return zero, err
	}
	return action(ctx)
}
