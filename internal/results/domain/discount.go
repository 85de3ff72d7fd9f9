package results

import (
	"math"
	"strconv"
)

// round6 rounds to six decimals, the precision of the annuity factors.
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// capitalRecoveryFactor is (1-(1+i)^-1)/(1-(1+i)^-life). A zero rate
// recovers the capital evenly over the life.
func capitalRecoveryFactor(rate, life float64) float64 {
	if life == 0 {
		return 0
	}
	if rate == 0 {
		return round6(1 / life)
	}
	base := 1 + rate
	return round6((1 - math.Pow(base, -1)) / (1 - math.Pow(base, -life)))
}

// pvAnnuity is (1-(1+r)^-life)(1+r)/r. A zero rate gives the life itself.
func pvAnnuity(rate, life float64) float64 {
	if rate == 0 {
		return round6(life)
	}
	base := 1 + rate
	return round6((1 - math.Pow(base, -life)) * base / rate)
}

// discountFactor is (1+r)^(year-first+offset).
func discountFactor(rate float64, year, first int, offset float64) float64 {
	return math.Pow(1+rate, float64(year-first)+offset)
}

// firstYear returns the smallest integer member, or false when none parse.
func firstYear(years []string) (int, bool) {
	first, found := 0, false
	for _, member := range years {
		y, err := strconv.Atoi(member)
		if err != nil {
			continue
		}
		if !found || y < first {
			first, found = y, true
		}
	}
	return first, found
}
