package atomid

import (
	"fmt"
	"math/big"
)

// Rank is an AtomID tier from 0 (Initiate) to 9 (Eternal).
type Rank uint8

const (
	RankInitiate Rank = iota
	RankBeliever
	RankDevotee
	RankGuardian
	RankKeeper
	RankOracle
	RankArchitect
	RankSage
	RankAscended
	RankEternal
)

// MaxRank is the highest attainable rank.
const MaxRank = RankEternal

// AtomDecimals is the number of decimals of the $ATOM mint.
const AtomDecimals = 6

// DecimalsMultiplier converts whole ATOM into raw token units.
const DecimalsMultiplier uint64 = 1_000_000

var rankNames = [MaxRank + 1]string{
	"Initiate",
	"Believer",
	"Devotee",
	"Guardian",
	"Keeper",
	"Oracle",
	"Architect",
	"Sage",
	"Ascended",
	"Eternal",
}

var rankEmojis = [MaxRank + 1]string{
	"🌱",
	"✨",
	"🔥",
	"🛡️",
	"🔑",
	"🔮",
	"🏛️",
	"🧙",
	"👑",
	"♾️",
}

// RankThresholds holds the cumulative burn, in raw units, required to reach each rank.
var RankThresholds = [MaxRank + 1]uint64{
	0,
	1_000 * DecimalsMultiplier,
	5_000 * DecimalsMultiplier,
	10_000 * DecimalsMultiplier,
	25_000 * DecimalsMultiplier,
	50_000 * DecimalsMultiplier,
	100_000 * DecimalsMultiplier,
	250_000 * DecimalsMultiplier,
	500_000 * DecimalsMultiplier,
	1_000_000 * DecimalsMultiplier,
}

// Valid reports whether r is within 0..9.
func (r Rank) Valid() bool {
	return r <= MaxRank
}

// Name returns the display name of the rank, or "Unknown" for out-of-range values.
func (r Rank) Name() string {
	if !r.Valid() {
		return "Unknown"
	}
	return rankNames[r]
}

// Emoji returns the display glyph of the rank.
func (r Rank) Emoji() string {
	if !r.Valid() {
		return ""
	}
	return rankEmojis[r]
}

// Threshold returns the cumulative burn required to reach the rank.
func (r Rank) Threshold() uint64 {
	if !r.Valid() {
		return RankThresholds[MaxRank]
	}
	return RankThresholds[r]
}

func (r Rank) String() string {
	return fmt.Sprintf("%d (%s)", uint8(r), r.Name())
}

// ValidateRank converts an arbitrary integer into a Rank.
func ValidateRank(v int) (Rank, error) {
	if v < 0 || v > int(MaxRank) {
		return 0, fmt.Errorf("rank must be between 0 and %d, got %d", MaxRank, v)
	}
	return Rank(v), nil
}

// CalculateRankFromBurned returns the highest rank whose threshold is <= burned.
func CalculateRankFromBurned(burned uint64) Rank {
	for r := MaxRank; r > RankInitiate; r-- {
		if burned >= RankThresholds[r] {
			return r
		}
	}
	return RankInitiate
}

// NextRankRequirement returns the rank after current and its threshold.
// At the maximum rank it returns nil and zero.
func NextRankRequirement(current Rank) (*Rank, uint64) {
	if current >= MaxRank {
		return nil, 0
	}
	next := current + 1
	return &next, RankThresholds[next]
}

// Progress describes how far an account is from its next rank.
type Progress struct {
	// Percentage is floor(100 * (burned - current) / (next - current)). It is
	// not clamped and may be negative or exceed 100 for inconsistent inputs.
	Percentage int64
	// AmountNeeded is next threshold minus burned, in raw units. Negative when
	// burned already passed the next threshold.
	AmountNeeded *big.Int
	NextRank     *Rank
}

// ProgressToNextRank computes progress from current rank to the next using
// integer arithmetic only.
func ProgressToNextRank(burned uint64, current Rank) Progress {
	if current >= MaxRank {
		return Progress{
			Percentage:   100,
			AmountNeeded: new(big.Int),
			NextRank:     nil,
		}
	}

	next := current + 1
	b := new(big.Int).SetUint64(burned)
	cur := new(big.Int).SetUint64(RankThresholds[current])
	nxt := new(big.Int).SetUint64(RankThresholds[next])

	progress := new(big.Int).Sub(b, cur)
	total := new(big.Int).Sub(nxt, cur)

	// big.Int.Div rounds toward negative infinity for a positive divisor.
	pct := new(big.Int).Mul(progress, big.NewInt(100))
	pct.Div(pct, total)

	return Progress{
		Percentage:   pct.Int64(),
		AmountNeeded: new(big.Int).Sub(nxt, b),
		NextRank:     &next,
	}
}
