/*
Package numeric provides the arithmetic used for every economy quantity.

PURPOSE:
  Balances and prices grow past the range where a float64 represents
  integers exactly. Quantities are stored as decimal strings and promoted
  to an arbitrary-precision integer once they leave the safe range, while
  fractional rates (kWh, efficiency-adjusted output) stay as float64.

REPRESENTATION:
  Value is a tagged union:
    KindReal: float64, used for decimals and integers within ±(2^53-1)
    KindBig:  *big.Int, used for integers beyond the safe range

PROMOTION RULES:
  - Parse: decimals are always real; integers promote to big only when
    they leave the safe range.
  - Add/Sub/Mul: if either operand is big, both become big. A real operand
    is floored first. This drops fractions on purpose; at magnitudes where
    big values appear, cents no longer matter to the economy.
  - Add/Sub: integer operands whose result leaves the safe range are
    recomputed as big.
  - Mul: a real product outside the safe range is recomputed as the big
    product of the floored operands.
  - Div: always real.

FAILURE MODEL:
  Nothing in this package returns an error. Malformed input parses as
  zero so a corrupted save field degrades instead of failing the session.

SEE ALSO:
  - format.go: display formatting with magnitude suffixes
  - game/pricing.go: price curve built on top of Value
*/
package numeric

import (
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// MaxSafeInteger is the largest integer a float64 holds exactly.
const MaxSafeInteger = 1<<53 - 1

// MinSafeInteger is the negative counterpart of MaxSafeInteger.
const MinSafeInteger = -MaxSafeInteger

var numericPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// =============================================================================
// VALUE
// =============================================================================

// Kind tags which representation a Value carries.
type Kind uint8

const (
	KindReal Kind = iota
	KindBig
)

func (k Kind) String() string {
	if k == KindBig {
		return "big"
	}
	return "real"
}

// Value is either a float64 or an arbitrary-precision integer.
// The zero Value is real zero.
type Value struct {
	kind Kind
	real float64
	big  *big.Int
}

// Zero is the real zero value.
var Zero = Value{}

// Real wraps a float64.
func Real(f float64) Value {
	return Value{kind: KindReal, real: f}
}

// Int wraps an int64, promoting to big outside the safe range.
func Int(i int64) Value {
	if i > MaxSafeInteger || i < MinSafeInteger {
		return Value{kind: KindBig, big: big.NewInt(i)}
	}
	return Value{kind: KindReal, real: float64(i)}
}

// Big wraps a copy of b. A nil b is zero.
func Big(b *big.Int) Value {
	if b == nil {
		return Value{kind: KindBig, big: new(big.Int)}
	}
	return Value{kind: KindBig, big: new(big.Int).Set(b)}
}

func (v Value) Kind() Kind  { return v.kind }
func (v Value) IsBig() bool { return v.kind == KindBig }

// Float64 returns the value as a float64. Big values lose precision.
func (v Value) Float64() float64 {
	if v.kind == KindBig {
		f, _ := new(big.Float).SetInt(v.big).Float64()
		return f
	}
	return v.real
}

// BigInt returns the value as a new *big.Int, flooring reals.
func (v Value) BigInt() *big.Int {
	if v.kind == KindBig {
		return new(big.Int).Set(v.big)
	}
	return floorToBig(v.real)
}

// Sign returns -1, 0 or 1.
func (v Value) Sign() int {
	if v.kind == KindBig {
		return v.big.Sign()
	}
	switch {
	case v.real < 0:
		return -1
	case v.real > 0:
		return 1
	}
	return 0
}

func (v Value) IsZero() bool     { return v.Sign() == 0 }
func (v Value) IsNegative() bool { return v.Sign() < 0 }

// =============================================================================
// PARSE / STRING
// =============================================================================

// Parse reads a decimal string. Empty, non-numeric or malformed input is zero.
func Parse(s string) Value {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || !numericPattern.MatchString(trimmed) {
		return Zero
	}

	if strings.Contains(trimmed, ".") {
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return Zero
		}
		return Real(f)
	}

	i, err := strconv.ParseInt(trimmed, 10, 64)
	if err == nil && i >= MinSafeInteger && i <= MaxSafeInteger {
		return Real(float64(i))
	}

	b, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return Zero
	}
	return Value{kind: KindBig, big: b}
}

// String renders the canonical storage form: plain digits for big values,
// at most two fractional digits for reals with trailing zeros stripped.
func (v Value) String() string {
	if v.kind == KindBig {
		return v.big.String()
	}
	f := v.real
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "0"
	}
	if f == math.Trunc(f) {
		return normalizeZero(strconv.FormatFloat(f, 'f', -1, 64))
	}
	return normalizeZero(trimFraction(strconv.FormatFloat(f, 'f', 2, 64)))
}

// MarshalText stores a Value as its canonical string.
func (v Value) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText parses with the same soft-failure rules as Parse.
func (v *Value) UnmarshalText(text []byte) error {
	*v = Parse(string(text))
	return nil
}

// =============================================================================
// ARITHMETIC
// =============================================================================

// Add returns a + b. A sum of integers that leaves the safe range is
// computed exactly as big.
func Add(a, b Value) Value {
	if a.kind == KindBig || b.kind == KindBig {
		return Value{kind: KindBig, big: new(big.Int).Add(a.BigInt(), b.BigInt())}
	}
	sum := a.real + b.real
	if outsideSafe(sum) && isInteger(a.real) && isInteger(b.real) {
		return Value{kind: KindBig, big: new(big.Int).Add(floorToBig(a.real), floorToBig(b.real))}
	}
	return Real(sum)
}

// Sub returns a - b, promoting like Add.
func Sub(a, b Value) Value {
	if a.kind == KindBig || b.kind == KindBig {
		return Value{kind: KindBig, big: new(big.Int).Sub(a.BigInt(), b.BigInt())}
	}
	diff := a.real - b.real
	if outsideSafe(diff) && isInteger(a.real) && isInteger(b.real) {
		return Value{kind: KindBig, big: new(big.Int).Sub(floorToBig(a.real), floorToBig(b.real))}
	}
	return Real(diff)
}

// Mul returns a * b, promoting to big when the real product leaves the safe range.
func Mul(a, b Value) Value {
	if a.kind == KindBig || b.kind == KindBig {
		return Value{kind: KindBig, big: new(big.Int).Mul(a.BigInt(), b.BigInt())}
	}
	product := a.real * b.real
	if outsideSafe(product) {
		return Value{kind: KindBig, big: new(big.Int).Mul(floorToBig(a.real), floorToBig(b.real))}
	}
	return Real(product)
}

// Div returns a / b as a float64. Division by zero yields 0.
func Div(a, b Value) float64 {
	if b.IsZero() {
		return 0
	}
	return a.Float64() / b.Float64()
}

// Sum folds Add over values.
func Sum(values ...Value) Value {
	total := Zero
	for _, v := range values {
		total = Add(total, v)
	}
	return total
}

// =============================================================================
// COMPARISON
// =============================================================================

// Compare returns -1, 0 or 1. Mixed kinds compare after flooring the real side.
func Compare(a, b Value) int {
	if a.kind == KindReal && b.kind == KindReal {
		switch {
		case a.real < b.real:
			return -1
		case a.real > b.real:
			return 1
		}
		return 0
	}
	return a.BigInt().Cmp(b.BigInt())
}

func Greater(a, b Value) bool        { return Compare(a, b) == 1 }
func Less(a, b Value) bool           { return Compare(a, b) == -1 }
func GreaterOrEqual(a, b Value) bool { return Compare(a, b) >= 0 }
func LessOrEqual(a, b Value) bool    { return Compare(a, b) <= 0 }
func Equal(a, b Value) bool          { return Compare(a, b) == 0 }

// Max returns a when a > b, otherwise b.
func Max(a, b Value) Value {
	if Greater(a, b) {
		return a
	}
	return b
}

// Min returns a when a < b, otherwise b.
func Min(a, b Value) Value {
	if Less(a, b) {
		return a
	}
	return b
}

// =============================================================================
// HELPERS
// =============================================================================

func outsideSafe(f float64) bool {
	return f > MaxSafeInteger || f < MinSafeInteger
}

func isInteger(f float64) bool {
	return !math.IsInf(f, 0) && f == math.Trunc(f)
}

func floorToBig(f float64) *big.Int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return new(big.Int)
	}
	i, _ := new(big.Float).SetFloat64(math.Floor(f)).Int(nil)
	return i
}

// trimFraction strips trailing zeros and a dangling point from a fixed-point string.
func trimFraction(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func normalizeZero(s string) string {
	if s == "-0" {
		return "0"
	}
	return s
}
