package atomid

import (
	"encoding/binary"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func testAccount(owner solana.PublicKey, rank Rank, burned uint64, metadata string) *Account {
	addr, bump, err := FindAddress(owner, DefaultProgramID)
	if err != nil {
		panic(err)
	}
	return &Account{
		Owner:       owner,
		Rank:        rank,
		TotalBurned: burned,
		CreatedAt:   1_000,
		UpdatedAt:   2_000,
		Metadata:    metadata,
		Bump:        bump,
		Address:     addr,
		Layout:      LayoutCanonical,
	}
}

func mustEncode(t *testing.T, acc *Account) []byte {
	t.Helper()
	data, err := EncodeAccount(acc)
	require.NoError(t, err)
	return data
}

func legacyRecord(owner solana.PublicKey, bump uint8, burned, minted uint64, createdAt, lastBurnedAt int64, rank uint8) []byte {
	data := make([]byte, LegacyAccountSize)
	copy(data[0:8], []byte{1, 2, 3, 4, 5, 6, 7, 8})
	copy(data[8:40], owner.Bytes())
	data[40] = bump
	binary.LittleEndian.PutUint64(data[41:49], burned)
	binary.LittleEndian.PutUint64(data[49:57], minted)
	binary.LittleEndian.PutUint64(data[57:65], uint64(createdAt))
	binary.LittleEndian.PutUint64(data[65:73], uint64(lastBurnedAt))
	data[73] = rank
	return data
}

func TestAtomID_Account_RoundTrip(t *testing.T) {
	t.Parallel()

	for name, metadata := range map[string]string{
		"empty metadata": "",
		"utf-8 metadata": "gm ⚛️",
		"max metadata":   strings.Repeat("a", MaxMetadataLen),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			want := testAccount(solana.NewWallet().PublicKey(), RankOracle, 55_000*DecimalsMultiplier, metadata)
			data := mustEncode(t, want)
			require.Len(t, data, AccountSpace)
			require.True(t, HasDiscriminator(data))

			owner, err := OwnerFromData(data)
			require.NoError(t, err)
			require.Equal(t, want.Owner, owner)

			got, err := DecodeAccount(data, owner, want.Address)
			require.NoError(t, err)
			require.Equal(t, want, got)
		})
	}
}

func TestAtomID_Account_EncodeRejects(t *testing.T) {
	t.Parallel()

	owner := solana.NewWallet().PublicKey()

	_, err := EncodeAccount(testAccount(owner, Rank(10), 0, ""))
	require.Error(t, err)

	_, err = EncodeAccount(testAccount(owner, RankInitiate, 0, strings.Repeat("a", MaxMetadataLen+1)))
	require.Error(t, err)
}

func TestAtomID_Account_DecodeCanonical(t *testing.T) {
	t.Parallel()

	t.Run("decodes the minimum record without bump", func(t *testing.T) {
		t.Parallel()

		acc := testAccount(solana.NewWallet().PublicKey(), RankGuardian, 12_000*DecimalsMultiplier, "")
		data := mustEncode(t, acc)[:MinAccountSize]

		got, err := DecodeAccount(data, acc.Owner, acc.Address)
		require.NoError(t, err)
		require.Equal(t, RankGuardian, got.Rank)
		require.Equal(t, acc.TotalBurned, got.TotalBurned)
		require.Equal(t, uint64(1_000), got.CreatedAt)
		require.Equal(t, uint64(2_000), got.UpdatedAt)
		require.Zero(t, got.Bump)
	})

	t.Run("rejects short buffers", func(t *testing.T) {
		t.Parallel()

		acc := testAccount(solana.NewWallet().PublicKey(), RankGuardian, 0, "")
		data := mustEncode(t, acc)
		for _, n := range []int{0, 8, 40, 48, MinAccountSize - 1} {
			_, err := DecodeAccount(data[:n], acc.Owner, acc.Address)
			require.ErrorIs(t, err, ErrMalformedAccount, "length %d", n)
		}
	})

	t.Run("rejects metadata length past the buffer", func(t *testing.T) {
		t.Parallel()

		acc := testAccount(solana.NewWallet().PublicKey(), RankGuardian, 0, "abc")
		data := mustEncode(t, acc)
		binary.LittleEndian.PutUint32(data[offsetMetadataLen:], 1_000)

		_, err := DecodeAccount(data, acc.Owner, acc.Address)
		require.ErrorIs(t, err, ErrMalformedAccount)
	})

	t.Run("rejects metadata that leaves no room for slots", func(t *testing.T) {
		t.Parallel()

		acc := testAccount(solana.NewWallet().PublicKey(), RankGuardian, 0, "")
		data := mustEncode(t, acc)[:MinAccountSize]
		binary.LittleEndian.PutUint32(data[offsetMetadataLen:], 1)

		_, err := DecodeAccount(data, acc.Owner, acc.Address)
		require.ErrorIs(t, err, ErrMalformedAccount)
	})

	t.Run("rejects out of range rank", func(t *testing.T) {
		t.Parallel()

		acc := testAccount(solana.NewWallet().PublicKey(), RankGuardian, 0, "")
		data := mustEncode(t, acc)
		data[offsetRank] = 10

		_, err := DecodeAccount(data, acc.Owner, acc.Address)
		require.ErrorIs(t, err, ErrMalformedAccount)
	})

	t.Run("rejects invalid utf-8 metadata", func(t *testing.T) {
		t.Parallel()

		acc := testAccount(solana.NewWallet().PublicKey(), RankGuardian, 0, "ab")
		data := mustEncode(t, acc)
		data[offsetMetadata] = 0xff

		_, err := DecodeAccount(data, acc.Owner, acc.Address)
		require.ErrorIs(t, err, ErrMalformedAccount)
	})
}

func TestAtomID_Account_DecodeLegacy(t *testing.T) {
	t.Parallel()

	owner := solana.NewWallet().PublicKey()
	addr, _, err := FindAddress(owner, DefaultProgramID)
	require.NoError(t, err)

	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	burned := time.Date(2025, 6, 7, 8, 9, 10, 0, time.UTC)
	data := legacyRecord(owner, 254, 30_000*DecimalsMultiplier, 7, created.Unix(), burned.Unix(), uint8(RankKeeper))

	acc, err := DecodeAccount(data, owner, addr)
	require.NoError(t, err)
	require.Equal(t, LayoutLegacy, acc.Layout)
	require.Equal(t, owner, acc.Owner)
	require.Equal(t, addr, acc.Address)
	require.Equal(t, uint8(254), acc.Bump)
	require.Equal(t, RankKeeper, acc.Rank)
	require.Equal(t, 30_000*DecimalsMultiplier, acc.TotalBurned)
	require.Equal(t, uint64(7), acc.AtomsMinted)
	require.Empty(t, acc.Metadata)

	gotCreated, ok := acc.CreatedAtTime()
	require.True(t, ok)
	require.Equal(t, created, gotCreated)
	gotUpdated, ok := acc.UpdatedAtTime()
	require.True(t, ok)
	require.Equal(t, burned, gotUpdated)

	t.Run("rejects out of range rank", func(t *testing.T) {
		t.Parallel()

		bad := legacyRecord(owner, 254, 0, 0, 0, 0, 12)
		_, err := DecodeAccount(bad, owner, addr)
		require.ErrorIs(t, err, ErrMalformedAccount)
	})

	t.Run("canonical records have no wall clock times", func(t *testing.T) {
		t.Parallel()

		canonical := testAccount(owner, RankKeeper, 0, "")
		_, ok := canonical.CreatedAtTime()
		require.False(t, ok)
		_, ok = canonical.UpdatedAtTime()
		require.False(t, ok)
	})
}

func TestAtomID_Account_OwnerFromData(t *testing.T) {
	t.Parallel()

	_, err := OwnerFromData(make([]byte, 39))
	require.ErrorIs(t, err, ErrMalformedAccount)
	require.False(t, HasDiscriminator([]byte{0x60, 0x97}))
}

func TestAtomID_Account_JSON(t *testing.T) {
	t.Parallel()

	acc := testAccount(solana.NewWallet().PublicKey(), RankEternal, 1_000_000*DecimalsMultiplier, "")
	out, err := json.Marshal(acc)
	require.NoError(t, err)

	s := string(out)
	require.Contains(t, s, `"total_burned":"1000000000000"`)
	require.Contains(t, s, `"layout":"canonical"`)
	require.Contains(t, s, `"owner":"`+acc.Owner.String()+`"`)
	require.NotContains(t, s, "metadata")

	var back Account
	require.NoError(t, json.Unmarshal(out, &back))
	require.Equal(t, *acc, back)
}
