package datatypes

import (
	"fmt"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"github.com/krateoplatformops/oascontracts/internal/tools/result"
)

// defaultWindow is the span used in place of a missing bound. A range with
// only a minimum is sampled in [minimum, minimum+defaultWindow], one with
// only a maximum in [maximum-defaultWindow, maximum] and an unbounded one in
// [-defaultWindow, defaultWindow]. Generated lengths never exceed their
// minimum by more than defaultWindow.
const defaultWindow = 100

var (
	window      = decimal.NewFromInt(defaultWindow)
	half        = decimal.RequireFromString("0.5")
	maxInt64N   = decimal.NewFromInt(1 << 62)
	fractionRes = int64(1_000_000)
)

// Range is an optional lower and upper bound, each inclusive unless flagged
// exclusive. It bounds numeric values as well as string and array lengths.
type Range struct {
	min          *decimal.Decimal
	max          *decimal.Decimal
	exclusiveMin bool
	exclusiveMax bool
}

// NewRange validates and builds a Range. Exclusivity flags on a missing
// bound are ignored.
func NewRange(min, max *decimal.Decimal, exclusiveMin, exclusiveMax bool) result.Result[Range] {
	r := Range{min: min, max: max, exclusiveMin: exclusiveMin && min != nil, exclusiveMax: exclusiveMax && max != nil}
	if min != nil && max != nil {
		switch c := min.Cmp(*max); {
		case c > 0:
			return result.Failuref[Range]("minimum %s is greater than maximum %s", min, max)
		case c == 0 && (r.exclusiveMin || r.exclusiveMax):
			return result.Failuref[Range]("range %s is empty: minimum equals maximum and a bound is exclusive", r)
		}
	}
	return result.Success(r)
}

// Unbounded returns a Range without bounds.
func Unbounded() Range {
	return Range{}
}

// NewLengthRange builds the Range of a length facet pair. A missing minimum
// is 0.
func NewLengthRange(minLength, maxLength *int64) result.Result[Range] {
	lo := int64(0)
	if minLength != nil {
		if *minLength < 0 {
			return result.Failuref[Range]("minimum length %d is negative", *minLength)
		}
		lo = *minLength
	}
	loD := decimal.NewFromInt(lo)
	var hiD *decimal.Decimal
	if maxLength != nil {
		if *maxLength < 0 {
			return result.Failuref[Range]("maximum length %d is negative", *maxLength)
		}
		d := decimal.NewFromInt(*maxLength)
		hiD = &d
	}
	return NewRange(&loD, hiD, false, false)
}

// Minimum returns the lower bound, if any.
func (r Range) Minimum() (decimal.Decimal, bool) {
	if r.min == nil {
		return decimal.Zero, false
	}
	return *r.min, true
}

// Maximum returns the upper bound, if any.
func (r Range) Maximum() (decimal.Decimal, bool) {
	if r.max == nil {
		return decimal.Zero, false
	}
	return *r.max, true
}

func (r Range) ExclusiveMinimum() bool { return r.exclusiveMin }
func (r Range) ExclusiveMaximum() bool { return r.exclusiveMax }

// Contains reports whether v satisfies both bounds.
func (r Range) Contains(v decimal.Decimal) bool {
	if r.min != nil {
		c := v.Cmp(*r.min)
		if c < 0 || (c == 0 && r.exclusiveMin) {
			return false
		}
	}
	if r.max != nil {
		c := v.Cmp(*r.max)
		if c > 0 || (c == 0 && r.exclusiveMax) {
			return false
		}
	}
	return true
}

// ContainsInt is Contains for lengths and counts.
func (r Range) ContainsInt(n int) bool {
	return r.Contains(decimal.NewFromInt(int64(n)))
}

// effective resolves missing bounds with defaultWindow.
func (r Range) effective() (lo, hi decimal.Decimal) {
	switch {
	case r.min != nil && r.max != nil:
		return *r.min, *r.max
	case r.min != nil:
		return *r.min, r.min.Add(window)
	case r.max != nil:
		return r.max.Sub(window), *r.max
	default:
		return window.Neg(), window
	}
}

// RandomValue returns a decimal within the range. Missing bounds are resolved
// with defaultWindow so the result is always of bounded magnitude.
func (r Range) RandomValue() decimal.Decimal {
	lo, hi := r.effective()
	if lo.Equal(hi) {
		return lo
	}
	f := decimal.New(rand.Int64N(fractionRes), 0).Div(decimal.NewFromInt(fractionRes))
	v := lo.Add(hi.Sub(lo).Mul(f)).Round(6)
	if r.Contains(v) && v.Cmp(lo) >= 0 && v.Cmp(hi) <= 0 {
		return v
	}
	return lo.Add(hi).Mul(half)
}

// IntegerBounds returns the smallest and largest integers of the effective
// range. ok is false when the range holds no integer.
func (r Range) IntegerBounds() (lo, hi decimal.Decimal, ok bool) {
	effLo, effHi := r.effective()
	lo = effLo.Ceil()
	if r.exclusiveMin && lo.Equal(effLo) {
		lo = lo.Add(decimal.NewFromInt(1))
	}
	hi = effHi.Floor()
	if r.exclusiveMax && hi.Equal(effHi) {
		hi = hi.Sub(decimal.NewFromInt(1))
	}
	return lo, hi, lo.Cmp(hi) <= 0
}

// ContainsIntegers reports whether at least one integer lies in the range.
func (r Range) ContainsIntegers() bool {
	_, _, ok := r.IntegerBounds()
	return ok
}

// RandomIntegerValue returns an integer within the range. It panics when
// ContainsIntegers is false.
func (r Range) RandomIntegerValue() decimal.Decimal {
	lo, hi, ok := r.IntegerBounds()
	if !ok {
		panic(fmt.Sprintf("range %s contains no integer", r))
	}
	return randomIntegerBetween(lo, hi)
}

func randomIntegerBetween(lo, hi decimal.Decimal) decimal.Decimal {
	span := hi.Sub(lo)
	if span.LessThan(maxInt64N) {
		return lo.Add(decimal.NewFromInt(rand.Int64N(span.IntPart() + 1)))
	}
	v := lo.Add(span.Mul(decimal.NewFromFloat(rand.Float64())).Floor())
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

func (r Range) String() string {
	left, right := "[", "]"
	if r.exclusiveMin {
		left = "("
	}
	if r.exclusiveMax {
		right = ")"
	}
	lo, hi := "-inf", "+inf"
	if r.min != nil {
		lo = r.min.String()
	}
	if r.max != nil {
		hi = r.max.String()
	}
	return fmt.Sprintf("%s%s, %s%s", left, lo, hi, right)
}

// withSpan returns a copy whose upper bound is at most the lower bound plus
// span. Ranges without a lower bound are returned unchanged.
func (r Range) withSpan(span int64) Range {
	if r.min == nil {
		return r
	}
	limit := r.min.Add(decimal.NewFromInt(span))
	if r.max != nil && r.max.LessThanOrEqual(limit) {
		return r
	}
	out := r
	out.max = &limit
	out.exclusiveMax = false
	return out
}

// withMinimum returns a copy whose inclusive minimum is raised to at least n.
func (r Range) withMinimum(n int64) Range {
	d := decimal.NewFromInt(n)
	if r.min != nil && r.min.GreaterThanOrEqual(d) {
		return r
	}
	out := r
	out.min = &d
	out.exclusiveMin = false
	return out
}
