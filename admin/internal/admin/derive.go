package admin

import (
	"fmt"
	"io"

	"github.com/gagliardetto/solana-go"

	"github.com/malbeclabs/atomid/sdk/pkg/atomid"
)

// Addresses holds the program-derived addresses relevant to one wallet.
type Addresses struct {
	AtomID            solana.PublicKey
	AtomIDBump        uint8
	Config            solana.PublicKey
	SASAuthority      solana.PublicKey
	SASEventAuthority solana.PublicKey
	SASAttestation    solana.PublicKey
	HasSASAttestation bool
}

// DeriveAddresses derives the AtomID, config and SAS addresses for wallet. The
// attestation address is only derived when both credential and schema are set.
func DeriveAddresses(programID, wallet, credential, schema solana.PublicKey) (Addresses, error) {
	var out Addresses
	var err error

	if out.AtomID, out.AtomIDBump, err = atomid.FindAddress(wallet, programID); err != nil {
		return Addresses{}, err
	}
	if out.Config, _, err = atomid.FindConfigAddress(programID); err != nil {
		return Addresses{}, fmt.Errorf("failed to derive config address: %w", err)
	}
	if out.SASAuthority, _, err = atomid.FindSASAuthorityAddress(programID); err != nil {
		return Addresses{}, fmt.Errorf("failed to derive sas authority address: %w", err)
	}
	if out.SASEventAuthority, _, err = atomid.FindSASEventAuthorityAddress(); err != nil {
		return Addresses{}, fmt.Errorf("failed to derive sas event authority address: %w", err)
	}
	if !credential.IsZero() && !schema.IsZero() {
		if out.SASAttestation, _, err = atomid.FindSASAttestationAddress(credential, schema, wallet); err != nil {
			return Addresses{}, fmt.Errorf("failed to derive sas attestation address: %w", err)
		}
		out.HasSASAttestation = true
	}
	return out, nil
}

// Derive prints the derived addresses for wallet.
func Derive(w io.Writer, programID solana.PublicKey, wallet string, credential, schema solana.PublicKey) error {
	owner, err := atomid.ParseIdentity(wallet)
	if err != nil {
		return err
	}
	addrs, err := DeriveAddresses(programID, owner, credential, schema)
	if err != nil {
		return err
	}
	printAddresses(w, programID, owner, addrs)
	return nil
}

func printAddresses(w io.Writer, programID, owner solana.PublicKey, addrs Addresses) {
	fmt.Fprintf(w, "Derived Addresses\n")
	fmt.Fprintf(w, "  Program ID:          %s\n", programID)
	fmt.Fprintf(w, "  Wallet:              %s\n", owner)
	fmt.Fprintf(w, "  AtomID PDA:          %s (bump %d)\n", addrs.AtomID, addrs.AtomIDBump)
	fmt.Fprintf(w, "  Config PDA:          %s\n", addrs.Config)
	fmt.Fprintf(w, "  SAS Authority PDA:   %s\n", addrs.SASAuthority)
	fmt.Fprintf(w, "  SAS Event Authority: %s\n", addrs.SASEventAuthority)
	if addrs.HasSASAttestation {
		fmt.Fprintf(w, "  SAS Attestation PDA: %s\n", addrs.SASAttestation)
	}
}
