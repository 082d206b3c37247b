package atomid

import (
	"bytes"
	"fmt"
	"time"
	"unicode/utf8"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// AccountDiscriminator prefixes every canonical AtomID record.
var AccountDiscriminator = [8]byte{0x60, 0x97, 0x42, 0xdc, 0x4d, 0xd3, 0x83, 0x9a}

const (
	discriminatorLen = 8

	offsetOwner       = 8
	offsetTotalBurned = 40
	offsetRank        = 48
	offsetMetadataLen = 49
	offsetMetadata    = 53

	// MaxMetadataLen is the metadata capacity the program allocates for.
	MaxMetadataLen = 200

	// MinAccountSize is a canonical record with empty metadata and no bump.
	MinAccountSize = offsetMetadata + 8 + 8

	// AccountSpace is the allocated size of a canonical record.
	AccountSpace = offsetMetadata + MaxMetadataLen + 8 + 8 + 1

	// LegacyAccountSize is the size of records written by the first program version.
	LegacyAccountSize = 74
)

// Layout identifies which record schema an account was decoded from.
type Layout uint8

const (
	// LayoutCanonical carries metadata and slot markers.
	LayoutCanonical Layout = iota
	// LayoutLegacy is the fixed 74-byte record with unix timestamps.
	LayoutLegacy
)

func (l Layout) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Layout) UnmarshalText(text []byte) error {
	switch string(text) {
	case "canonical":
		*l = LayoutCanonical
	case "legacy":
		*l = LayoutLegacy
	default:
		return fmt.Errorf("unknown layout %q", text)
	}
	return nil
}

func (l Layout) String() string {
	switch l {
	case LayoutCanonical:
		return "canonical"
	case LayoutLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// Account is a decoded AtomID record.
type Account struct {
	Owner       solana.PublicKey `json:"owner"`
	Rank        Rank             `json:"rank"`
	TotalBurned uint64           `json:"total_burned,string"`
	// CreatedAt and UpdatedAt are slots for LayoutCanonical and unix seconds for LayoutLegacy.
	CreatedAt uint64           `json:"created_at"`
	UpdatedAt uint64           `json:"updated_at"`
	Metadata  string           `json:"metadata,omitempty"`
	Bump      uint8            `json:"bump"`
	Address   solana.PublicKey `json:"address"`
	Layout    Layout           `json:"layout"`
	// AtomsMinted is only present in legacy records.
	AtomsMinted uint64 `json:"atoms_minted,omitempty"`
}

// CreatedAtTime returns the creation time for legacy records, which store unix seconds.
func (a *Account) CreatedAtTime() (time.Time, bool) {
	if a.Layout != LayoutLegacy {
		return time.Time{}, false
	}
	return time.Unix(int64(a.CreatedAt), 0).UTC(), true
}

// UpdatedAtTime returns the last burn time for legacy records.
func (a *Account) UpdatedAtTime() (time.Time, bool) {
	if a.Layout != LayoutLegacy {
		return time.Time{}, false
	}
	return time.Unix(int64(a.UpdatedAt), 0).UTC(), true
}

// HasDiscriminator reports whether data starts with the canonical record discriminator.
func HasDiscriminator(data []byte) bool {
	return len(data) >= discriminatorLen && bytes.Equal(data[:discriminatorLen], AccountDiscriminator[:])
}

// OwnerFromData extracts the owner key stored in a record.
func OwnerFromData(data []byte) (solana.PublicKey, error) {
	if len(data) < offsetOwner+solana.PublicKeyLength {
		return solana.PublicKey{}, malformedf("need %d bytes for owner, got %d", offsetOwner+solana.PublicKeyLength, len(data))
	}
	var pk solana.PublicKey
	copy(pk[:], data[offsetOwner:offsetOwner+solana.PublicKeyLength])
	return pk, nil
}

// DecodeAccount parses a raw record. Buffers of exactly LegacyAccountSize bytes
// are decoded with the legacy layout; everything else with the canonical one.
// The discriminator is not checked.
func DecodeAccount(data []byte, owner, address solana.PublicKey) (*Account, error) {
	if len(data) == LegacyAccountSize {
		return decodeLegacy(data, owner, address)
	}
	return decodeCanonical(data, owner, address)
}

func decodeCanonical(data []byte, owner, address solana.PublicKey) (*Account, error) {
	if len(data) < MinAccountSize {
		return nil, malformedf("need at least %d bytes, got %d", MinAccountSize, len(data))
	}

	dec := bin.NewBorshDecoder(data[offsetTotalBurned:])

	totalBurned, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return nil, malformedf("total_burned: %v", err)
	}
	rawRank, err := dec.ReadUint8()
	if err != nil {
		return nil, malformedf("rank: %v", err)
	}
	rank := Rank(rawRank)
	if !rank.Valid() {
		return nil, malformedf("rank %d out of range", rawRank)
	}

	metadataLen, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return nil, malformedf("metadata length: %v", err)
	}
	// Two trailing u64 slots must follow the metadata.
	if uint64(metadataLen)+16 > uint64(dec.Remaining()) {
		return nil, malformedf("metadata length %d exceeds buffer (%d bytes remaining)", metadataLen, dec.Remaining())
	}
	metadata, err := dec.ReadNBytes(int(metadataLen))
	if err != nil {
		return nil, malformedf("metadata: %v", err)
	}
	if !utf8.Valid(metadata) {
		return nil, malformedf("metadata is not valid utf-8")
	}

	createdAt, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return nil, malformedf("created_at_slot: %v", err)
	}
	updatedAt, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return nil, malformedf("updated_at_slot: %v", err)
	}

	var bump uint8
	if dec.Remaining() > 0 {
		bump, err = dec.ReadUint8()
		if err != nil {
			return nil, malformedf("bump: %v", err)
		}
	}

	return &Account{
		Owner:       owner,
		Rank:        rank,
		TotalBurned: totalBurned,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
		Metadata:    string(metadata),
		Bump:        bump,
		Address:     address,
		Layout:      LayoutCanonical,
	}, nil
}

// Legacy layout:
//
//	0..8   discriminator
//	8..40  owner
//	40     bump
//	41..49 total_burned
//	49..57 atoms_minted
//	57..65 created_at (unix seconds)
//	65..73 last_burned_at (unix seconds)
//	73     rank
func decodeLegacy(data []byte, owner, address solana.PublicKey) (*Account, error) {
	if len(data) != LegacyAccountSize {
		return nil, malformedf("legacy record must be %d bytes, got %d", LegacyAccountSize, len(data))
	}

	dec := bin.NewBorshDecoder(data[offsetTotalBurned:])

	var (
		acc = &Account{Owner: owner, Address: address, Layout: LayoutLegacy}
		err error
	)
	if acc.Bump, err = dec.ReadUint8(); err != nil {
		return nil, malformedf("bump: %v", err)
	}
	if acc.TotalBurned, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, malformedf("total_burned: %v", err)
	}
	if acc.AtomsMinted, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, malformedf("atoms_minted: %v", err)
	}
	if acc.CreatedAt, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, malformedf("created_at: %v", err)
	}
	if acc.UpdatedAt, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, malformedf("last_burned_at: %v", err)
	}
	rawRank, err := dec.ReadUint8()
	if err != nil {
		return nil, malformedf("rank: %v", err)
	}
	acc.Rank = Rank(rawRank)
	if !acc.Rank.Valid() {
		return nil, malformedf("rank %d out of range", rawRank)
	}
	return acc, nil
}

// EncodeAccount writes acc in the canonical layout, zero-padded to AccountSpace.
func EncodeAccount(acc *Account) ([]byte, error) {
	if !acc.Rank.Valid() {
		return nil, fmt.Errorf("rank %d out of range", acc.Rank)
	}
	if len(acc.Metadata) > MaxMetadataLen {
		return nil, fmt.Errorf("metadata is %d bytes, max %d", len(acc.Metadata), MaxMetadataLen)
	}

	buf := new(bytes.Buffer)
	buf.Grow(AccountSpace)
	enc := bin.NewBorshEncoder(buf)

	if err := enc.WriteBytes(AccountDiscriminator[:], false); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(acc.Owner.Bytes(), false); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(acc.TotalBurned, bin.LE); err != nil {
		return nil, err
	}
	if err := enc.WriteUint8(uint8(acc.Rank)); err != nil {
		return nil, err
	}
	if err := enc.WriteUint32(uint32(len(acc.Metadata)), bin.LE); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes([]byte(acc.Metadata), false); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(acc.CreatedAt, bin.LE); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(acc.UpdatedAt, bin.LE); err != nil {
		return nil, err
	}
	if err := enc.WriteUint8(acc.Bump); err != nil {
		return nil, err
	}

	out := buf.Bytes()
	if pad := AccountSpace - len(out); pad > 0 {
		out = append(out, make([]byte, pad)...)
	}
	return out, nil
}
