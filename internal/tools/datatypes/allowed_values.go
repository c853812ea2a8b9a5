package datatypes

import (
	"fmt"
	"math/rand/v2"

	hasher "github.com/krateoplatformops/oascontracts/internal/tools/hash"
	"github.com/krateoplatformops/oascontracts/internal/tools/result"
)

// AllowedValues is the resolved enum of a schema: normalized, deduplicated
// and validated against the DataType that owns it.
type AllowedValues struct {
	values []any
	keys   map[string]struct{}
}

// NewAllowedValues builds the enum of dt. It fails when values is empty,
// when it holds null while dt is not nullable, or when any member is not
// itself a valid dt value.
func NewAllowedValues(values []any, dt DataType) result.Result[*AllowedValues] {
	if len(values) == 0 {
		return result.Failuref[*AllowedValues]("enum of '%s' must not be empty", dt.Name())
	}

	av := &AllowedValues{keys: make(map[string]struct{}, len(values))}
	checked := result.Accumulate(values, func(i int, v any) result.Result[any] {
		n := Normalize(v)
		if n == nil {
			if !dt.IsNullable() {
				return result.FailureAtIndex[any](i, fmt.Sprintf("enum contains null but '%s' is not nullable", dt.Name()))
			}
		} else if res := dt.Validate(n); res.IsFailure() {
			return res.MapErrors(func(m string) string {
				return fmt.Sprintf("invalid enum value %s: %s", describe(n), m)
			}).ForIndex(i)
		}
		return result.Success(n)
	})
	if checked.IsFailure() {
		return result.Retype[*AllowedValues](checked)
	}

	for _, n := range checked.Value() {
		key, err := hasher.Key(n)
		if err != nil {
			return result.Failuref[*AllowedValues]("enum value %s cannot be compared: %v", describe(n), err)
		}
		if _, dup := av.keys[key]; dup {
			continue
		}
		av.keys[key] = struct{}{}
		av.values = append(av.values, n)
	}
	return result.Success(av)
}

// Contains checks that v, once normalized, is one of the allowed values.
func (a *AllowedValues) Contains(v any) result.Result[any] {
	n := Normalize(v)
	key, err := hasher.Key(n)
	if err == nil {
		if _, ok := a.keys[key]; ok {
			return result.Success(n)
		}
	}
	return result.Failuref[any]("value %s is not one of the allowed values %s", describe(n), describeAll(a.values))
}

// RandomValue picks one of the non-null members uniformly. It returns nil
// only when null is the sole member.
func (a *AllowedValues) RandomValue() any {
	candidates := make([]any, 0, len(a.values))
	for _, v := range a.values {
		if v != nil {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[rand.IntN(len(candidates))]
}

// Values returns the deduplicated members in declaration order.
func (a *AllowedValues) Values() []any {
	out := make([]any, len(a.values))
	copy(out, a.values)
	return out
}
