// Package money models auction-house currency as integer copper and parses
// free-text gold thresholds.
package money

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// CopperPerSilver is the number of copper in one silver.
	CopperPerSilver = 100
	// CopperPerGold is the number of copper in one gold.
	CopperPerGold = 10000
)

var (
	decCopperPerGold = decimal.NewFromInt(CopperPerGold)
	decThousand      = decimal.NewFromInt(1000)
	decMaxCopper     = decimal.NewFromInt(math.MaxInt64)
)

// Copper is a non-negative amount expressed in the smallest currency unit.
type Copper int64

// GoldToCopper converts a gold amount to copper, flooring any fraction of a
// copper. Negative amounts clamp to zero and amounts past int64 saturate.
func GoldToCopper(gold decimal.Decimal) Copper {
	c := gold.Mul(decCopperPerGold).Floor()
	switch {
	case c.IsNegative():
		return 0
	case c.GreaterThan(decMaxCopper):
		return Copper(math.MaxInt64)
	}
	return Copper(c.IntPart())
}

// UnitPrice divides a buyout across quantity using floor division.
// Non-positive quantity yields zero.
func UnitPrice(buyout Copper, quantity int64) Copper {
	if quantity <= 0 || buyout <= 0 {
		return 0
	}
	return Copper(int64(buyout) / quantity)
}

// Gold returns the whole-gold part of the amount.
func (c Copper) Gold() int64 { return int64(c) / CopperPerGold }

// Silver returns the silver part, 0-99.
func (c Copper) Silver() int64 { return (int64(c) % CopperPerGold) / CopperPerSilver }

// Rest returns the copper part, 0-99.
func (c Copper) Rest() int64 { return int64(c) % CopperPerSilver }

// String renders the amount as "12g 34s 56c".
func (c Copper) String() string {
	return fmt.Sprintf("%dg %ds %dc", c.Gold(), c.Silver(), c.Rest())
}

// AsGold returns the exact gold value.
func (c Copper) AsGold() decimal.Decimal {
	return decimal.NewFromInt(int64(c)).Div(decCopperPerGold)
}

// ParseGoldString is ParseGold for a value that is always present.
func ParseGoldString(raw string) (decimal.Decimal, bool) {
	return ParseGold(&raw)
}

// ParseGold reads thresholds such as "5000", "4 500", "5k", "3,5k", "3500g"
// or "3 500 g" into gold. Absent, empty or malformed input reports false so
// the caller can fall back to a default.
func ParseGold(raw *string) (decimal.Decimal, bool) {
	if raw == nil {
		return decimal.Decimal{}, false
	}
	txt := strings.ToLower(strings.TrimSpace(*raw))
	if txt == "" {
		return decimal.Decimal{}, false
	}

	// whitespace is only ever a thousands separator, so it goes too
	txt = strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || strings.ContainsRune("kg.,", r) {
			return r
		}
		return -1
	}, txt)
	txt = strings.ReplaceAll(txt, ",", ".")

	multiplier := decimal.NewFromInt(1)
	if strings.Contains(txt, "k") {
		multiplier = decThousand
		txt = strings.ReplaceAll(txt, "k", "")
	}
	txt = strings.ReplaceAll(txt, "g", "")
	if txt == "" {
		return decimal.Decimal{}, false
	}

	value, err := decimal.NewFromString(txt)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if value.IsNegative() {
		return decimal.Decimal{}, false
	}
	return value.Mul(multiplier), true
}
