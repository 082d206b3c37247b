package atomid

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// DefaultProgramID is the mainnet AtomID program.
var DefaultProgramID = solana.MustPublicKeyFromBase58("rnc2fycemiEgj4YbMSuwKFpdV6nkJonojCXib3j2by6")

// SASProgramID is the Solana Attestation Service program that stores rank attestations.
var SASProgramID = solana.MustPublicKeyFromBase58("22zoJMtdu4tQc2PzL74ZUT7FrwgB1Udec8DdW4yw4BdG")

// PDA seeds.
var (
	SeedAtomID         = []byte("atomid")
	SeedConfig         = []byte("atomid_config")
	SeedSASAuthority   = []byte("sas_authority")
	SeedCredential     = []byte("credential")
	SeedAttestation    = []byte("attestation")
	SeedEventAuthority = []byte("__event_authority")
)

// ParseIdentity decodes a base58 owner identity.
func ParseIdentity(s string) (solana.PublicKey, error) {
	if s == "" {
		return solana.PublicKey{}, fmt.Errorf("%w: empty", ErrInvalidIdentity)
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: failed to decode %q: %v", ErrInvalidIdentity, s, err)
	}
	if len(raw) != solana.PublicKeyLength {
		return solana.PublicKey{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidIdentity, solana.PublicKeyLength, len(raw))
	}
	var pk solana.PublicKey
	copy(pk[:], raw)
	return pk, nil
}

// FindAddress derives the AtomID record address and bump for owner under programID.
func FindAddress(owner, programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress([][]byte{SeedAtomID, owner.Bytes()}, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive atomid address: %w", err)
	}
	return addr, bump, nil
}

// FindConfigAddress derives the program's singleton config account.
func FindConfigAddress(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{SeedConfig}, programID)
}

// FindSASAuthorityAddress derives the program-owned authority that signs SAS attestations.
func FindSASAuthorityAddress(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{SeedSASAuthority}, programID)
}

// FindSASCredentialAddress derives a named SAS credential owned by authority.
func FindSASCredentialAddress(authority solana.PublicKey, name string) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{SeedCredential, authority.Bytes(), []byte(name)}, SASProgramID)
}

// FindSASAttestationAddress derives the attestation for (credential, schema, nonce).
// AtomID uses the owner wallet as nonce.
func FindSASAttestationAddress(credential, schema, nonce solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{
		SeedAttestation,
		credential.Bytes(),
		schema.Bytes(),
		nonce.Bytes(),
	}, SASProgramID)
}

// FindSASEventAuthorityAddress derives the SAS program's event authority.
func FindSASEventAuthorityAddress() (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{SeedEventAuthority}, SASProgramID)
}
