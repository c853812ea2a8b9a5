package datatypes

import (
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"github.com/krateoplatformops/oascontracts/internal/tools/result"
)

func isDecimal(v any) bool {
	_, ok := v.(decimal.Decimal)
	return ok
}

func acceptAll(any) bool { return true }

// BooleanDataType accepts true and false.
type BooleanDataType struct {
	base
}

func NewBoolean(c Common) result.Result[*BooleanDataType] {
	t := &BooleanDataType{base: newBase(c, KindBoolean, "boolean")}
	return withEnum(t, &t.base, c.Enum)
}

func (t *BooleanDataType) Validate(value any) result.Result[any] {
	return t.validate(value, func(v any) bool {
		_, ok := v.(bool)
		return ok
	}, result.Success[any])
}

func (t *BooleanDataType) RandomValue() any { return t.generate(0) }
func (t *BooleanDataType) IsFullyStructured() bool { return false }
func (t *BooleanDataType) generate(depth int) any {
	return t.random(depth, func(int) any { return rand.IntN(2) == 1 })
}

// IntegerDataType accepts decimals without a fractional part that lie in
// its range.
type IntegerDataType struct {
	base
	valueRange Range
}

func NewInteger(c Common, valueRange Range) result.Result[*IntegerDataType] {
	if !valueRange.ContainsIntegers() {
		return result.Failuref[*IntegerDataType]("range %s of '%s' contains no integer", valueRange, c.name())
	}
	t := &IntegerDataType{base: newBase(c, KindInteger, "integer"), valueRange: valueRange}
	return withEnum(t, &t.base, c.Enum)
}

func (t *IntegerDataType) Range() Range { return t.valueRange }

func (t *IntegerDataType) Validate(value any) result.Result[any] {
	return t.validate(value, isDecimal, func(v any) result.Result[any] {
		d := v.(decimal.Decimal)
		if !d.IsInteger() {
			return result.Failuref[any]("expected an integer but was %s", d)
		}
		if !t.valueRange.Contains(d) {
			return result.Failuref[any]("value %s is outside of range %s", d, t.valueRange)
		}
		return result.Success[any](d)
	})
}

func (t *IntegerDataType) RandomValue() any { return t.generate(0) }
func (t *IntegerDataType) IsFullyStructured() bool { return false }
func (t *IntegerDataType) generate(depth int) any {
	return t.random(depth, func(int) any { return t.valueRange.RandomIntegerValue() })
}

// NumberDataType accepts any decimal within its range.
type NumberDataType struct {
	base
	valueRange Range
}

func NewNumber(c Common, valueRange Range) result.Result[*NumberDataType] {
	t := &NumberDataType{base: newBase(c, KindNumber, "number"), valueRange: valueRange}
	return withEnum(t, &t.base, c.Enum)
}

func (t *NumberDataType) Range() Range { return t.valueRange }

func (t *NumberDataType) Validate(value any) result.Result[any] {
	return t.validate(value, isDecimal, func(v any) result.Result[any] {
		d := v.(decimal.Decimal)
		if !t.valueRange.Contains(d) {
			return result.Failuref[any]("value %s is outside of range %s", d, t.valueRange)
		}
		return result.Success[any](d)
	})
}

func (t *NumberDataType) RandomValue() any { return t.generate(0) }
func (t *NumberDataType) IsFullyStructured() bool { return false }
func (t *NumberDataType) generate(depth int) any {
	return t.random(depth, func(int) any { return t.valueRange.RandomValue() })
}

// AnyDataType is the type of a schema that constrains nothing.
type AnyDataType struct {
	base
}

func NewAny(c Common) result.Result[*AnyDataType] {
	t := &AnyDataType{base: newBase(c, KindAny, "any")}
	return withEnum(t, &t.base, c.Enum)
}

func (t *AnyDataType) Validate(value any) result.Result[any] {
	return t.validate(value, acceptAll, result.Success[any])
}

func (t *AnyDataType) RandomValue() any { return t.generate(0) }
func (t *AnyDataType) IsFullyStructured() bool { return false }
func (t *AnyDataType) generate(depth int) any {
	return t.random(depth, func(int) any {
		switch rand.IntN(3) {
		case 0:
			return randomWord(8)
		case 1:
			return Unbounded().RandomIntegerValue()
		default:
			return rand.IntN(2) == 1
		}
	})
}
