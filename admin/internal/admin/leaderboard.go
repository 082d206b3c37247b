package admin

import (
	"context"
	"fmt"
	"io"

	"github.com/malbeclabs/atomid/sdk/pkg/atomid"
)

// Leaderboard prints the top limit AtomID holders.
func Leaderboard(ctx context.Context, w io.Writer, client *atomid.Client, limit int) error {
	accounts, err := client.GetLeaderboard(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to get leaderboard: %w", err)
	}

	fmt.Fprintf(w, "AtomID Leaderboard (%d)\n", len(accounts))
	if len(accounts) == 0 {
		fmt.Fprintf(w, "  (no records)\n")
		return nil
	}
	fmt.Fprintf(w, "%-4s %-14s %22s  %s\n", "#", "Rank", "Burned (ATOM)", "Wallet")
	for i, acc := range accounts {
		fmt.Fprintf(w, "%-4d %s %-11s %22s  %s\n",
			i+1,
			acc.Rank.Emoji(),
			acc.Rank.Name(),
			atomid.FormatAmount(acc.TotalBurned, true),
			atomid.ShortenAddress(acc.Owner.String(), 4),
		)
	}
	return nil
}
