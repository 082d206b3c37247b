package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/malbeclabs/atomid/sdk/pkg/atomid"
)

// ErrRequirementNotMet is returned by Check when the wallet's rank is outside the requested range.
var ErrRequirementNotMet = errors.New("rank requirement not met")

// Verify prints the AtomID record of wallet.
func Verify(ctx context.Context, w io.Writer, client *atomid.Client, wallet string) error {
	result := client.Verify(ctx, wallet)
	if result.Error != "" {
		return fmt.Errorf("failed to verify %s: %s", wallet, result.Error)
	}

	fmt.Fprintf(w, "AtomID Verification\n")
	fmt.Fprintf(w, "  Wallet:        %s\n", wallet)
	if !result.Exists {
		fmt.Fprintf(w, "  (no AtomID record)\n")
		return nil
	}

	acc := result.Account
	fmt.Fprintf(w, "  Address:       %s\n", acc.Address)
	fmt.Fprintf(w, "  Rank:          %d %s %s\n", uint8(acc.Rank), acc.Rank.Emoji(), acc.Rank.Name())
	fmt.Fprintf(w, "  Total burned:  %s ATOM (%d raw)\n", atomid.FormatAmount(acc.TotalBurned, true), acc.TotalBurned)
	fmt.Fprintf(w, "  Layout:        %s\n", acc.Layout)
	if created, ok := acc.CreatedAtTime(); ok {
		updated, _ := acc.UpdatedAtTime()
		fmt.Fprintf(w, "  Created at:    %s\n", created.Format(time.RFC3339))
		fmt.Fprintf(w, "  Last burn at:  %s\n", updated.Format(time.RFC3339))
		fmt.Fprintf(w, "  Atoms minted:  %d\n", acc.AtomsMinted)
	} else {
		fmt.Fprintf(w, "  Created slot:  %d\n", acc.CreatedAt)
		fmt.Fprintf(w, "  Updated slot:  %d\n", acc.UpdatedAt)
	}
	metadata := acc.Metadata
	if metadata == "" {
		metadata = "(none)"
	}
	fmt.Fprintf(w, "  Metadata:      %s\n", metadata)
	return nil
}

// Rank prints the rank number and name of wallet. Wallets without a record are rank 0.
func Rank(ctx context.Context, w io.Writer, client *atomid.Client, wallet string) error {
	if _, err := atomid.ParseIdentity(wallet); err != nil {
		return err
	}
	rank := client.GetRank(ctx, wallet)
	fmt.Fprintf(w, "%d %s %s\n", uint8(rank), rank.Emoji(), rank.Name())
	return nil
}

// Progress prints how far wallet is from its next rank.
func Progress(ctx context.Context, w io.Writer, client *atomid.Client, wallet string) error {
	result := client.Verify(ctx, wallet)
	if result.Error != "" {
		return fmt.Errorf("failed to verify %s: %s", wallet, result.Error)
	}

	var (
		burned uint64
		rank   atomid.Rank
	)
	if result.Account != nil {
		burned = result.Account.TotalBurned
		rank = result.Account.Rank
	}
	p := atomid.ProgressToNextRank(burned, rank)

	fmt.Fprintf(w, "Rank Progress\n")
	fmt.Fprintf(w, "  Wallet:        %s\n", wallet)
	fmt.Fprintf(w, "  Current rank:  %d %s %s\n", uint8(rank), rank.Emoji(), rank.Name())
	fmt.Fprintf(w, "  Total burned:  %s ATOM\n", atomid.FormatAmount(burned, true))
	if p.NextRank == nil {
		fmt.Fprintf(w, "  Max rank reached\n")
		return nil
	}
	fmt.Fprintf(w, "  Next rank:     %d %s %s (%s ATOM)\n", uint8(*p.NextRank), p.NextRank.Emoji(), p.NextRank.Name(), atomid.FormatAmount(p.NextRank.Threshold(), true))
	fmt.Fprintf(w, "  Progress:      %d%%\n", p.Percentage)
	if p.AmountNeeded.IsUint64() {
		fmt.Fprintf(w, "  Amount needed: %s ATOM\n", atomid.FormatAmount(p.AmountNeeded.Uint64(), true))
	} else {
		fmt.Fprintf(w, "  Amount needed: %s raw\n", p.AmountNeeded.String())
	}
	return nil
}

// Check prints whether wallet satisfies req and returns ErrRequirementNotMet when it does not.
func Check(ctx context.Context, w io.Writer, checker atomid.RankChecker, wallet string, req atomid.RankRequirement) error {
	if _, err := atomid.ParseIdentity(wallet); err != nil {
		return err
	}

	bounds := fmt.Sprintf(">= %d", uint8(req.MinRank))
	if req.MaxRank != nil {
		bounds = fmt.Sprintf("%d..%d", uint8(req.MinRank), uint8(*req.MaxRank))
	}

	gate := atomid.NewGate(checker, atomid.GateConfig{
		Requirement: req,
		OnSuccess: func() {
			rank := checker.GetRank(ctx, wallet)
			fmt.Fprintf(w, "ALLOWED %s rank %d (%s), required %s\n", wallet, uint8(rank), rank.Name(), bounds)
		},
		OnFailure: func(rank atomid.Rank) {
			fmt.Fprintf(w, "DENIED  %s rank %d (%s), required %s\n", wallet, uint8(rank), rank.Name(), bounds)
		},
	})
	if !gate(ctx, wallet) {
		return ErrRequirementNotMet
	}
	return nil
}
