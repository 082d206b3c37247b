package admin

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"

	"github.com/malbeclabs/atomid/sdk/pkg/atomid"
	"github.com/malbeclabs/atomid/sdk/pkg/ledger"
)

// Mainnet SAS credential and schema the program was initialized with.
var (
	DefaultSASCredential = solana.MustPublicKeyFromBase58("5Ldy7HgzHqmQvX6xQJShzzinmM6yj7bQWLSzAAbUE4Nr")
	DefaultSASSchema     = solana.MustPublicKeyFromBase58("833nW63cXf3q14uz1otraFknAeMAfw8yFwEPGmAhG8xA")
)

// ErrProgramNotInitialized is returned by Status when the program config account is missing.
var ErrProgramNotInitialized = errors.New("program config not found")

// LedgerReader is the part of ledger.Client used by Status.
type LedgerReader interface {
	AccountExists(ctx context.Context, account solana.PublicKey, commitment solanarpc.CommitmentType) (bool, int, error)
	GetBalance(ctx context.Context, account solana.PublicKey, commitment solanarpc.CommitmentType) (uint64, error)
}

var _ LedgerReader = (*ledger.Client)(nil)

type StatusConfig struct {
	ProgramID  solana.PublicKey
	Wallet     string
	Credential solana.PublicKey
	Schema     solana.PublicKey
	Commitment solanarpc.CommitmentType
}

// Status runs the read-only protocol checks for a wallet: program config,
// AtomID record, SAS attestation and SOL balance.
func Status(ctx context.Context, w io.Writer, reader LedgerReader, client *atomid.Client, cfg StatusConfig) error {
	owner, err := atomid.ParseIdentity(cfg.Wallet)
	if err != nil {
		return err
	}
	if cfg.Commitment == "" {
		cfg.Commitment = solanarpc.CommitmentConfirmed
	}

	addrs, err := DeriveAddresses(cfg.ProgramID, owner, cfg.Credential, cfg.Schema)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "AtomID Protocol Status\n")
	fmt.Fprintf(w, "  SAS Credential:      %s\n", cfg.Credential)
	fmt.Fprintf(w, "  SAS Schema:          %s\n", cfg.Schema)

	balance, err := reader.GetBalance(ctx, owner, cfg.Commitment)
	if err != nil {
		return fmt.Errorf("failed to get balance: %w", err)
	}
	fmt.Fprintf(w, "  Wallet balance:      %.4f SOL\n", ledger.LamportsToSOL(balance))
	fmt.Fprintln(w)

	printAddresses(w, cfg.ProgramID, owner, addrs)
	fmt.Fprintln(w)

	configExists, configSize, err := reader.AccountExists(ctx, addrs.Config, cfg.Commitment)
	if err != nil {
		return fmt.Errorf("failed to check config: %w", err)
	}
	if configExists {
		fmt.Fprintf(w, "[ok]   Program config exists (%d bytes)\n", configSize)
	} else {
		fmt.Fprintf(w, "[fail] Program config not found\n")
	}

	result := client.VerifyPublicKey(ctx, owner)
	switch {
	case result.Error != "":
		fmt.Fprintf(w, "[fail] AtomID record unreadable: %s\n", result.Error)
	case result.Exists:
		acc := result.Account
		fmt.Fprintf(w, "[ok]   AtomID record exists: rank %d %s, %s ATOM burned\n", uint8(acc.Rank), acc.Rank.Name(), atomid.FormatAmount(acc.TotalBurned, true))
	default:
		fmt.Fprintf(w, "[info] No AtomID record for this wallet\n")
	}

	if addrs.HasSASAttestation {
		attExists, attSize, err := reader.AccountExists(ctx, addrs.SASAttestation, cfg.Commitment)
		if err != nil {
			return fmt.Errorf("failed to check sas attestation: %w", err)
		}
		if attExists {
			fmt.Fprintf(w, "[ok]   SAS attestation exists (%d bytes)\n", attSize)
		} else {
			fmt.Fprintf(w, "[info] No SAS attestation for this wallet\n")
		}
	}

	if !configExists {
		return ErrProgramNotInitialized
	}
	return nil
}
