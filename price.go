package match

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

type Side int8

const (
	Buy  Side = 1
	Sell Side = 2
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "invalid"
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

const (
	MinPriceMantissa = 100
	MaxPriceMantissa = 999
	MinPriceExponent = -5
	MaxPriceExponent = 6

	// pricesPerSide is the number of representable prices on one side:
	// 900 mantissas x 12 exponents.
	pricesPerSide = 10800
)

// PriceKey is the packed integer form of a SidedPrice.
//
// Key 0 is invalid. Buy prices occupy 1..10800 and sell prices 10801..21600,
// arranged so that on either side a smaller key is a more aggressive price:
// key 1 is the highest buy, key 10801 the lowest sell. Walking keys upward
// therefore visits either side in decreasing aggressiveness.
type PriceKey uint16

const (
	minBuyKey  PriceKey = 1
	maxBuyKey  PriceKey = pricesPerSide
	minSellKey PriceKey = pricesPerSide + 1
	maxSellKey PriceKey = 2 * pricesPerSide
)

func (k PriceKey) valid() bool {
	return k >= minBuyKey && k <= maxSellKey
}

func (k PriceKey) side() Side {
	if k <= maxBuyKey {
		return Buy
	}
	return Sell
}

// mostAggressiveKey returns the first key of the given side's range.
func mostAggressiveKey(side Side) PriceKey {
	if side == Buy {
		return minBuyKey
	}
	return minSellKey
}

// leastAggressiveKey returns the last key of the given side's range.
func leastAggressiveKey(side Side) PriceKey {
	if side == Buy {
		return maxBuyKey
	}
	return maxSellKey
}

// SidedPrice is a fixed-point price tagged with a trade direction.
//
// The magnitude is mantissa x 10^(exponent-3) units of counter asset per unit
// of base asset, with the mantissa always holding exactly three significant
// decimal digits. The zero value is invalid.
type SidedPrice struct {
	side     Side
	mantissa int16
	exponent int8
}

// NewSidedPrice builds a price from its parts. It returns ErrPriceOutOfRange
// if the mantissa or exponent is outside the representable window.
func NewSidedPrice(side Side, mantissa int, exponent int) (SidedPrice, error) {
	if side != Buy && side != Sell {
		return SidedPrice{}, ErrInvalidParam
	}
	if mantissa < MinPriceMantissa || mantissa > MaxPriceMantissa ||
		exponent < MinPriceExponent || exponent > MaxPriceExponent {
		return SidedPrice{}, ErrPriceOutOfRange
	}
	return SidedPrice{side: side, mantissa: int16(mantissa), exponent: int8(exponent)}, nil
}

// PriceFromKey unpacks a PriceKey. It returns ErrInvalidPrice for key 0 or
// any key beyond the sell range.
func PriceFromKey(key PriceKey) (SidedPrice, error) {
	if !key.valid() {
		return SidedPrice{}, ErrInvalidPrice
	}

	var side Side
	var idx int
	if key <= maxBuyKey {
		side = Buy
		idx = int(maxBuyKey - key)
	} else {
		side = Sell
		idx = int(key - minSellKey)
	}

	return SidedPrice{
		side:     side,
		mantissa: int16(MinPriceMantissa + idx%900),
		exponent: int8(idx/900 + MinPriceExponent),
	}, nil
}

func (p SidedPrice) IsValid() bool {
	return (p.side == Buy || p.side == Sell) &&
		p.mantissa >= MinPriceMantissa && p.mantissa <= MaxPriceMantissa &&
		p.exponent >= MinPriceExponent && p.exponent <= MaxPriceExponent
}

func (p SidedPrice) Side() Side {
	return p.side
}

func (p SidedPrice) Mantissa() int {
	return int(p.mantissa)
}

func (p SidedPrice) Exponent() int {
	return int(p.exponent)
}

// Key packs the price into its ordered integer form.
// Key() of an invalid price is 0.
func (p SidedPrice) Key() PriceKey {
	if !p.IsValid() {
		return 0
	}
	idx := (int(p.exponent)-MinPriceExponent)*900 + int(p.mantissa) - MinPriceMantissa
	if p.side == Buy {
		return maxBuyKey - PriceKey(idx)
	}
	return minSellKey + PriceKey(idx)
}

// Opposite returns the same magnitude on the other side of the book.
func (p SidedPrice) Opposite() SidedPrice {
	p.side = p.side.Opposite()
	return p
}

func (p SidedPrice) Equal(other SidedPrice) bool {
	return p == other
}

// MoreAggressiveThan reports whether p is a strictly better price for the
// opposing taker than other. Both prices must share a side.
func (p SidedPrice) MoreAggressiveThan(other SidedPrice) bool {
	return p.side == other.side && p.Key() < other.Key()
}

// Decimal returns the exact magnitude of the price.
func (p SidedPrice) Decimal() decimal.Decimal {
	return decimal.New(int64(p.mantissa), int32(p.exponent)-3)
}

// String renders the magnitude with exactly three significant digits, the
// inverse of ParsePrice. Invalid prices render as "invalid".
func (p SidedPrice) String() string {
	if !p.IsValid() {
		return "invalid"
	}
	d := p.Decimal()
	if p.exponent >= 3 {
		return d.StringFixed(0)
	}
	return d.StringFixed(int32(3 - p.exponent))
}

var (
	// minPriceMagnitude and maxPriceMagnitude bound what ParsePrice accepts:
	// 100e-5..999e6 scaled by 10^-3.
	minPriceMagnitude = decimal.New(MinPriceMantissa, MinPriceExponent-3)
	maxPriceMagnitude = decimal.New(MaxPriceMantissa, MaxPriceExponent-3)

	bigTen = big.NewInt(10)
)

// TooManySigFigsError reports a price whose decimal form needs more than
// three significant digits. Suggested, when valid, is the nearest
// representable price rounded toward worse execution for the order's owner:
// down for a buy, up for a sell.
type TooManySigFigsError struct {
	Side      Side
	Input     string
	Suggested SidedPrice
}

func (e *TooManySigFigsError) Error() string {
	if e.Suggested.IsValid() {
		return fmt.Sprintf("price %q has more than 3 significant digits, nearest %s price is %s", e.Input, e.Side, e.Suggested)
	}
	return fmt.Sprintf("price %q has more than 3 significant digits", e.Input)
}

// ParsePrice converts a human-entered decimal string into a SidedPrice.
//
// Surrounding whitespace, leading zeros, and a missing integer or fractional
// part are all tolerated. Non-numeric or negative input returns
// ErrInvalidPrice; magnitudes outside [0.000001, 999000] (zero included)
// return ErrPriceOutOfRange; more than three significant digits returns a
// *TooManySigFigsError carrying a rounding suggestion.
func ParsePrice(side Side, input string) (SidedPrice, error) {
	if side != Buy && side != Sell {
		return SidedPrice{}, ErrInvalidParam
	}

	s := strings.TrimSpace(input)
	if s == "" {
		return SidedPrice{}, ErrInvalidPrice
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	if strings.HasSuffix(s, ".") {
		s += "0"
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return SidedPrice{}, ErrInvalidPrice
	}
	if d.Sign() < 0 {
		return SidedPrice{}, ErrInvalidPrice
	}
	if d.LessThan(minPriceMagnitude) || d.GreaterThan(maxPriceMagnitude) {
		return SidedPrice{}, ErrPriceOutOfRange
	}

	// Normalize to a trailing-zero-free coefficient.
	coeff := d.Coefficient()
	exp := int(d.Exponent())
	q, r := new(big.Int), new(big.Int)
	for {
		q.QuoRem(coeff, bigTen, r)
		if r.Sign() != 0 {
			break
		}
		coeff.Set(q)
		exp++
	}

	digits := len(coeff.String())
	if digits > 3 {
		return SidedPrice{}, &TooManySigFigsError{
			Side:      side,
			Input:     input,
			Suggested: roundToPrice(side, coeff, exp, digits),
		}
	}

	for digits < 3 {
		coeff.Mul(coeff, bigTen)
		exp--
		digits++
	}

	exponent := exp + 3
	if exponent < MinPriceExponent || exponent > MaxPriceExponent {
		return SidedPrice{}, ErrPriceOutOfRange
	}

	return SidedPrice{side: side, mantissa: int16(coeff.Int64()), exponent: int8(exponent)}, nil
}

// roundToPrice rounds a >3-digit coefficient to the nearest representable
// price in the direction that can never improve the owner's execution.
func roundToPrice(side Side, coeff *big.Int, exp int, digits int) SidedPrice {
	shift := digits - 3
	pow := new(big.Int).Exp(bigTen, big.NewInt(int64(shift)), nil)
	q, r := new(big.Int).QuoRem(coeff, pow, new(big.Int))

	mantissa := q.Int64()
	exponent := exp + shift + 3
	if side == Sell && r.Sign() != 0 {
		mantissa++
		if mantissa > MaxPriceMantissa {
			mantissa = MinPriceMantissa
			exponent++
		}
	}

	p, err := NewSidedPrice(side, int(mantissa), exponent)
	if err != nil {
		return SidedPrice{}
	}
	return p
}

// CounterAmount converts a base-asset amount to the counter-asset amount at
// the given price, flooring to a whole counter unit. The intermediate product
// is exact; only the final floor discards anything.
func CounterAmount(amountBase decimal.Decimal, price SidedPrice) decimal.Decimal {
	return amountBase.Mul(price.Decimal()).Floor()
}

// PriceRange enumerates every representable price between two bounds of the
// same side, most aggressive first. It is computed on demand; the full span
// of a side is 10800 prices.
type PriceRange struct {
	next PriceKey
	last PriceKey
}

// NewPriceRange builds an inclusive range between two prices, which must
// share a side. The bounds may be given in either order.
func NewPriceRange(from, to SidedPrice) (*PriceRange, error) {
	if !from.IsValid() || !to.IsValid() {
		return nil, ErrInvalidPrice
	}
	if from.side != to.side {
		return nil, ErrInvalidParam
	}

	lo, hi := from.Key(), to.Key()
	if lo > hi {
		lo, hi = hi, lo
	}
	return &PriceRange{next: lo, last: hi}, nil
}

// Next returns the next price in decreasing-aggressiveness order, or false
// when the range is exhausted.
func (r *PriceRange) Next() (SidedPrice, bool) {
	if r.next == 0 || r.next > r.last {
		return SidedPrice{}, false
	}
	p, err := PriceFromKey(r.next)
	if err != nil {
		return SidedPrice{}, false
	}
	r.next++
	return p, true
}
