package datatypes

import (
	"math/rand/v2"

	"github.com/krateoplatformops/oascontracts/internal/tools/result"
)

// maxExtraItems caps how many items past the minimum a generated array holds.
const maxExtraItems = 3

// ArrayDataType accepts JSON arrays whose items all validate against one
// DataType.
type ArrayDataType struct {
	base
	items DataType
	count Range
}

// NewArray builds an array type. count bounds the number of items, a
// missing minimum is 0.
func NewArray(c Common, items DataType, count Range) result.Result[*ArrayDataType] {
	if items == nil {
		return result.Failuref[*ArrayDataType]("array '%s' has no item type", c.name())
	}
	if lo, ok := count.Minimum(); ok && lo.IsNegative() {
		return result.Failuref[*ArrayDataType]("minimum item count %s of '%s' is negative", lo, c.name())
	}
	count = count.withMinimum(0)
	if !count.ContainsIntegers() {
		return result.Failuref[*ArrayDataType]("item count range %s of '%s' contains no integer", count, c.name())
	}
	t := &ArrayDataType{base: newBase(c, KindArray, "array"), items: items, count: count}
	return withEnum(t, &t.base, c.Enum)
}

func (t *ArrayDataType) Items() DataType { return t.items }
func (t *ArrayDataType) Count() Range    { return t.count }

func (t *ArrayDataType) Validate(value any) result.Result[any] {
	return t.validate(value, func(v any) bool {
		_, ok := v.([]any)
		return ok
	}, func(v any) result.Result[any] {
		items := v.([]any)
		res := result.Success[any](nil)
		if !t.count.ContainsInt(len(items)) {
			res = result.Failuref[any]("array size %d is outside of range %s", len(items), t.count)
		}
		checked := result.Accumulate(items, func(i int, item any) result.Result[any] {
			return t.items.Validate(item).ForIndex(i)
		})
		if res.IsSuccess() && checked.IsSuccess() {
			return result.Success[any](checked.Value())
		}
		return res.CombineWith(result.Retype[any](checked))
	})
}

func (t *ArrayDataType) RandomValue() any { return t.generate(0) }
func (t *ArrayDataType) IsFullyStructured() bool { return false }

func (t *ArrayDataType) generate(depth int) any {
	return t.random(depth, func(depth int) any {
		lo, hi, _ := t.count.IntegerBounds()
		n := int(lo.IntPart())
		if depth <= softGenerationDepth {
			extra := int(hi.IntPart()) - n
			if extra > maxExtraItems {
				extra = maxExtraItems
			}
			n += rand.IntN(extra + 1)
		}
		out := make([]any, n)
		for i := range out {
			out[i] = t.items.generate(depth + 1)
		}
		return out
	})
}
