package datatypes

import (
	"math/rand/v2"

	"github.com/krateoplatformops/oascontracts/internal/tools/result"
)

// MapDataType accepts JSON objects with arbitrary keys whose values all
// validate against one DataType.
type MapDataType struct {
	base
	values DataType
	keys   []string
}

// NewMap builds a map type. keys are only hints for generation, any key is
// accepted by Validate.
func NewMap(c Common, values DataType, keys []string) result.Result[*MapDataType] {
	if values == nil {
		return result.Failuref[*MapDataType]("map '%s' has no value type", c.name())
	}
	t := &MapDataType{
		base:   newBase(c, KindMap, "object"),
		values: values,
		keys:   append([]string(nil), keys...),
	}
	return withEnum(t, &t.base, c.Enum)
}

func (t *MapDataType) Values() DataType { return t.values }

func (t *MapDataType) Validate(value any) result.Result[any] {
	return t.validate(value, isMap, func(v any) result.Result[any] {
		checked := result.AccumulateMap(v.(map[string]any), func(k string, item any) result.Result[any] {
			return t.values.Validate(item).ForProperty(k)
		})
		return result.Map(checked, func(m map[string]any) any { return m })
	})
}

func (t *MapDataType) RandomValue() any { return t.generate(0) }
func (t *MapDataType) IsFullyStructured() bool { return true }
func (t *MapDataType) IsStructured() bool { return true }
func (t *MapDataType) HasDiscriminatorProperty(string) bool { return false }

func (t *MapDataType) generate(depth int) any {
	return t.random(depth, func(depth int) any {
		out := map[string]any{}
		if depth > softGenerationDepth {
			return out
		}
		keys := t.keys
		if len(keys) == 0 {
			for i := rand.IntN(3) + 1; i > 0; i-- {
				keys = append(keys, randomWord(6))
			}
		}
		for _, k := range keys {
			out[k] = t.values.generate(depth + 1)
		}
		return out
	})
}
