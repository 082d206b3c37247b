package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	flag "github.com/spf13/pflag"

	"github.com/malbeclabs/atomid/admin/internal/admin"
	"github.com/malbeclabs/atomid/sdk/pkg/atomid"
	"github.com/malbeclabs/atomid/sdk/pkg/config"
	"github.com/malbeclabs/atomid/sdk/pkg/ledger"
	"github.com/malbeclabs/atomid/utils/pkg/logger"
	"github.com/malbeclabs/atomid/utils/pkg/retry"
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

	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")

	// Ledger configuration
	rpcURLFlag := flag.String("rpc-url", cfg.RPCURL, "Solana RPC URL (or set SOLANA_RPC_URL env var)")
	programIDFlag := flag.String("program-id", cfg.ProgramID.String(), "AtomID program ID (or set ATOMID_PROGRAM_ID env var)")
	commitmentFlag := flag.String("commitment", string(cfg.Commitment), "Commitment level: processed, confirmed or finalized (or set ATOMID_COMMITMENT env var)")
	maxAttemptsFlag := flag.Int("rpc-max-attempts", cfg.RPCMaxAttempts, "Maximum attempts per RPC call, 1 disables retries (or set ATOMID_RPC_MAX_ATTEMPTS env var)")
	includeLegacyFlag := flag.Bool("include-legacy", false, "Include 74-byte legacy records in leaderboard scans")

	// Commands
	verifyFlag := flag.String("verify", "", "Print the AtomID record of a wallet")
	rankFlag := flag.String("rank", "", "Print the rank of a wallet")
	progressFlag := flag.String("progress", "", "Print progress to the next rank for a wallet")
	leaderboardFlag := flag.Int("leaderboard", 0, "Print the top N AtomID holders")
	deriveFlag := flag.String("derive", "", "Print the derived addresses for a wallet")
	statusFlag := flag.String("status", "", "Run read-only protocol checks for a wallet")
	checkFlag := flag.String("check", "", "Check a wallet against --min-rank/--max-rank, exiting non-zero when denied")

	// Command options
	sasCredentialFlag := flag.String("sas-credential", admin.DefaultSASCredential.String(), "SAS credential for --status and --derive")
	sasSchemaFlag := flag.String("sas-schema", admin.DefaultSASSchema.String(), "SAS schema for --status and --derive")
	minRankFlag := flag.Int("min-rank", 0, "Minimum rank for --check")
	maxRankFlag := flag.Int("max-rank", -1, "Maximum rank for --check (-1 = unbounded)")

	flag.Parse()

	log := logger.New(*verboseFlag)

	programID, err := solana.PublicKeyFromBase58(*programIDFlag)
	if err != nil {
		return fmt.Errorf("invalid --program-id: %w", err)
	}
	commitment, err := config.ParseCommitment(*commitmentFlag)
	if err != nil {
		return err
	}
	credential, err := solana.PublicKeyFromBase58(*sasCredentialFlag)
	if err != nil {
		return fmt.Errorf("invalid --sas-credential: %w", err)
	}
	schema, err := solana.PublicKeyFromBase58(*sasSchemaFlag)
	if err != nil {
		return fmt.Errorf("invalid --sas-schema: %w", err)
	}

	if *deriveFlag != "" {
		return admin.Derive(os.Stdout, programID, *deriveFlag, credential, schema)
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

	client, err := atomid.NewClient(atomid.ClientConfig{
		Logger:        log,
		RPC:           ledgerClient,
		ProgramID:     programID,
		CacheTTL:      cfg.CacheTTL,
		Commitment:    commitment,
		IncludeLegacy: *includeLegacyFlag,
	})
	if err != nil {
		return fmt.Errorf("failed to create atomid client: %w", err)
	}

	// Execute commands
	if *verifyFlag != "" {
		return admin.Verify(ctx, os.Stdout, client, *verifyFlag)
	}

	if *rankFlag != "" {
		return admin.Rank(ctx, os.Stdout, client, *rankFlag)
	}

	if *progressFlag != "" {
		return admin.Progress(ctx, os.Stdout, client, *progressFlag)
	}

	if *leaderboardFlag > 0 {
		return admin.Leaderboard(ctx, os.Stdout, client, *leaderboardFlag)
	}

	if *statusFlag != "" {
		return admin.Status(ctx, os.Stdout, ledgerClient, client, admin.StatusConfig{
			ProgramID:  programID,
			Wallet:     *statusFlag,
			Credential: credential,
			Schema:     schema,
			Commitment: commitment,
		})
	}

	if *checkFlag != "" {
		minRank, err := atomid.ValidateRank(*minRankFlag)
		if err != nil {
			return fmt.Errorf("invalid --min-rank: %w", err)
		}
		req := atomid.RankRequirement{MinRank: minRank}
		if *maxRankFlag >= 0 {
			maxRank, err := atomid.ValidateRank(*maxRankFlag)
			if err != nil {
				return fmt.Errorf("invalid --max-rank: %w", err)
			}
			if maxRank < minRank {
				return fmt.Errorf("--max-rank %d is below --min-rank %d", maxRank, minRank)
			}
			req.MaxRank = &maxRank
		}
		return admin.Check(ctx, os.Stdout, client, *checkFlag, req)
	}

	flag.Usage()
	return nil
}
