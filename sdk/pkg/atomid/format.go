package atomid

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatAmount renders a raw amount for display. With includeDecimals the
// amount is converted to whole ATOM and rounded half-up to two decimals,
// otherwise the raw integer is grouped. The conversion stays in integers.
func FormatAmount(raw uint64, includeDecimals bool) string {
	if !includeDecimals {
		return printer.Sprintf("%d", raw)
	}

	const unitsPerCent = DecimalsMultiplier / 100
	cents := raw / unitsPerCent
	if raw%unitsPerCent >= unitsPerCent/2 {
		cents++
	}
	whole, frac := cents/100, cents%100

	out := printer.Sprintf("%d", whole)
	if frac == 0 {
		return out
	}
	return out + "." + strings.TrimRight(fmt.Sprintf("%02d", frac), "0")
}

// RawToHuman converts raw units to whole ATOM. The result is a float64 and
// loses precision above 2^53 raw units; use it for display only.
func RawToHuman(raw uint64) float64 {
	return float64(raw) / float64(DecimalsMultiplier)
}

// HumanToRaw converts whole ATOM to raw units, truncating extra precision.
func HumanToRaw(human float64) (uint64, error) {
	if math.IsNaN(human) || math.IsInf(human, 0) || human < 0 {
		return 0, fmt.Errorf("invalid amount %v", human)
	}
	raw := math.Floor(human * float64(DecimalsMultiplier))
	if raw >= math.MaxUint64 {
		return 0, fmt.Errorf("amount %v overflows", human)
	}
	return uint64(raw), nil
}

// ShortenAddress keeps the first and last chars characters of an address.
func ShortenAddress(address string, chars int) string {
	if chars <= 0 || len(address) <= 2*chars {
		return address
	}
	return address[:chars] + "..." + address[len(address)-chars:]
}
