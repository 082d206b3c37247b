package atomid

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	atomidtesting "github.com/malbeclabs/atomid/utils/pkg/testing"
)

type fakeChecker struct {
	ranks    map[string]Rank
	panicMsg string
}

func (f *fakeChecker) GetRank(_ context.Context, owner string) Rank {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.ranks[owner]
}

func (f *fakeChecker) CheckRequirement(ctx context.Context, owner string, req RankRequirement) bool {
	return req.Satisfied(f.GetRank(ctx, owner))
}

func TestAtomID_Gate_NewGate(t *testing.T) {
	t.Parallel()

	checker := &fakeChecker{ranks: map[string]Rank{"alice": RankSage, "bob": RankBeliever}}

	t.Run("allows and runs the success callback", func(t *testing.T) {
		t.Parallel()

		var succeeded bool
		gate := NewGate(checker, GateConfig{
			Requirement: RankRequirement{MinRank: RankOracle},
			OnSuccess:   func() { succeeded = true },
			OnFailure:   func(Rank) { t.Fatal("unexpected failure callback") },
			Logger:      atomidtesting.NewLogger(),
		})

		require.True(t, gate(context.Background(), "alice"))
		require.True(t, succeeded)
	})

	t.Run("denies and reports the current rank", func(t *testing.T) {
		t.Parallel()

		var got *Rank
		gate := NewGate(checker, GateConfig{
			Requirement: RankRequirement{MinRank: RankOracle},
			OnFailure:   func(r Rank) { got = &r },
			Logger:      atomidtesting.NewLogger(),
		})

		require.False(t, gate(context.Background(), "bob"))
		require.NotNil(t, got)
		require.Equal(t, RankBeliever, *got)
	})

	t.Run("respects the upper bound", func(t *testing.T) {
		t.Parallel()

		maxRank := RankDevotee
		gate := NewGate(checker, GateConfig{
			Requirement: RankRequirement{MinRank: RankInitiate, MaxRank: &maxRank},
			Logger:      atomidtesting.NewLogger(),
		})

		require.True(t, gate(context.Background(), "bob"))
		require.False(t, gate(context.Background(), "alice"))
	})

	t.Run("denies when checking panics", func(t *testing.T) {
		t.Parallel()

		gate := NewGate(&fakeChecker{panicMsg: "rpc exploded"}, GateConfig{
			Requirement: RankRequirement{MinRank: RankInitiate},
			Logger:      atomidtesting.NewLogger(),
		})

		require.False(t, gate(context.Background(), "alice"))
	})

	t.Run("denies when a callback panics", func(t *testing.T) {
		t.Parallel()

		gate := NewGate(checker, GateConfig{
			Requirement: RankRequirement{MinRank: RankInitiate},
			OnSuccess:   func() { panic("callback") },
			Logger:      atomidtesting.NewLogger(),
		})

		require.False(t, gate(context.Background(), "alice"))
	})
}

func TestAtomID_Gate_RequireMinRank(t *testing.T) {
	t.Parallel()

	checker := &fakeChecker{ranks: map[string]Rank{"alice": RankGuardian}}

	require.NoError(t, RequireMinRank(context.Background(), checker, "alice", RankGuardian))

	err := RequireMinRank(context.Background(), checker, "alice", RankKeeper)
	var rankErr *InsufficientRankError
	require.True(t, errors.As(err, &rankErr))
	require.Equal(t, RankKeeper, rankErr.Required)
	require.Equal(t, RankGuardian, rankErr.Current)
	require.Equal(t, "insufficient AtomID rank: required 4, current 3", err.Error())
}

func TestAtomID_Gate_GateByRank(t *testing.T) {
	t.Parallel()

	checker := &fakeChecker{ranks: map[string]Rank{"alice": RankGuardian}}

	t.Run("runs the action when allowed", func(t *testing.T) {
		t.Parallel()

		got, err := GateByRank(context.Background(), checker, "alice", RankDevotee, func(context.Context) (string, error) {
			return "ok", nil
		})
		require.NoError(t, err)
		require.Equal(t, "ok", got)
	})

	t.Run("skips the action when denied", func(t *testing.T) {
		t.Parallel()

		called := false
		got, err := GateByRank(context.Background(), checker, "alice", RankEternal, func(context.Context) (int, error) {
			called = true
			return 1, nil
		})
		var rankErr *InsufficientRankError
		require.ErrorAs(t, err, &rankErr)
		require.False(t, called)
		require.Zero(t, got)
	})

	t.Run("propagates action errors", func(t *testing.T) {
		t.Parallel()

		want := errors.New("action failed")
		_, err := GateByRank(context.Background(), checker, "alice", RankInitiate, func(context.Context) (struct{}, error) {
			return struct{}{}, want
		})
		require.ErrorIs(t, err, want)
	})
}
