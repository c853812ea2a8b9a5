package datatypes

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/krateoplatformops/oascontracts/internal/tools/result"
)

// maxOneOfAttempts bounds how often a oneOf without discriminator retries
// generation to get a value matching exactly one subtype.
const maxOneOfAttempts = 10

// maxAllOfAttempts bounds how often allOf generation regenerates the
// properties a subtype rejects in the merged value.
const maxAllOfAttempts = 10

// polymorphic holds what allOf, oneOf and anyOf share.
type polymorphic struct {
	base
	subtypes      []CompositeDataType
	discriminator *Discriminator
}

func newPolymorphic(c Common, kind Kind, openAPIType string, subtypes []DataType, d *Discriminator) result.Result[polymorphic] {
	p := polymorphic{base: newBase(c, kind, openAPIType), discriminator: d}
	if len(subtypes) == 0 {
		return result.Failuref[polymorphic]("%s '%s' has no subtypes", openAPIType, p.name)
	}
	checked := result.Accumulate(subtypes, func(i int, dt DataType) result.Result[CompositeDataType] {
		if dt == nil {
			return result.FailureAtIndex[CompositeDataType](i, "subtype has no type")
		}
		ct, ok := dt.(CompositeDataType)
		if !ok || !dt.IsFullyStructured() {
			return result.FailureAtIndex[CompositeDataType](i,
				fmt.Sprintf("subtype '%s' of %s '%s' is not an object schema", dt.Name(), openAPIType, p.name))
		}
		return result.Success(ct)
	})
	if checked.IsFailure() {
		return result.Retype[polymorphic](checked)
	}
	p.subtypes = checked.Value()
	return result.Success(p)
}

// Subtypes returns the subtypes in declaration order.
func (p *polymorphic) Subtypes() []DataType {
	out := make([]DataType, len(p.subtypes))
	for i, s := range p.subtypes {
		out[i] = s
	}
	return out
}

func (p *polymorphic) Discriminator() *Discriminator { return p.discriminator }
func (p *polymorphic) IsFullyStructured() bool       { return true }
func (p *polymorphic) IsStructured() bool            { return true }

func (p *polymorphic) subtypeNames() []string {
	names := make([]string, len(p.subtypes))
	for i, s := range p.subtypes {
		names[i] = s.Name()
	}
	return names
}

func (p *polymorphic) subtype(name string) CompositeDataType {
	for _, s := range p.subtypes {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

// checkMappingTargets fails when the discriminator maps to a schema that is
// not a subtype.
func (p *polymorphic) checkMappingTargets() result.Result[any] {
	res := result.Success[any](nil)
	if p.discriminator == nil {
		return res
	}
	for _, target := range p.discriminator.targets() {
		if p.subtype(target) == nil {
			res = res.CombineWith(result.Failuref[any]("discriminator mapping target '%s' is not one of the schemas %s",
				target, quoteAll(p.subtypeNames())))
		}
	}
	return res
}

// matchAll validates v against every subtype and splits the outcomes.
func (p *polymorphic) matchAll(v any) (matches []match, failures []match) {
	for _, s := range p.subtypes {
		res := s.Validate(v)
		if res.IsSuccess() {
			matches = append(matches, match{name: s.Name(), res: res})
		} else {
			failures = append(failures, match{name: s.Name(), res: res})
		}
	}
	return matches, failures
}

// byDiscriminator validates v against the single subtype its discriminator
// value selects.
func (p *polymorphic) byDiscriminator(v any) result.Result[any] {
	wire := p.discriminator.wireValue(v)
	if wire.IsFailure() {
		return result.Retype[any](wire)
	}
	name := p.discriminator.GetDataTypeNameFor(wire.Value())
	s := p.subtype(name)
	if s == nil {
		return result.Failuref[any]("Discriminator property '%s' value '%s' does not match any of the schemas %s",
			p.discriminator.PropertyName(), wire.Value(), quoteAll(p.subtypeNames()))
	}
	return s.Validate(v)
}

// injectDiscriminator sets the wire value selecting name on a generated object.
func (p *polymorphic) injectDiscriminator(v any, name string) any {
	m, ok := v.(map[string]any)
	if !ok || p.discriminator == nil {
		return v
	}
	m[p.discriminator.PropertyName()] = p.discriminator.GetMappingName(name)
	return m
}

type match struct {
	name string
	res  result.Result[any]
}

func matchNames(ms []match) []string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.name
	}
	return names
}

// noMatch reports every failing subtype with its nested errors.
func noMatch(failures []match) result.Result[any] {
	res := result.Failuref[any]("no matching schema, value does not match: %s", quoteAll(matchNames(failures)))
	for _, f := range failures {
		name := f.name
		res = res.CombineWith(f.res.MapErrors(func(m string) string {
			return fmt.Sprintf("%s (in schema '%s')", m, name)
		}))
	}
	return res
}

// AllOfDataType accepts values valid against every subtype.
type AllOfDataType struct {
	polymorphic
}

// NewAllOf builds an allOf type. At most one subtype may declare the
// discriminator property.
func NewAllOf(c Common, subtypes []DataType, d *Discriminator) result.Result[*AllOfDataType] {
	p := newPolymorphic(c, KindAllOf, "allOf", subtypes, d)
	if p.IsFailure() {
		return result.Retype[*AllOfDataType](p)
	}
	t := &AllOfDataType{polymorphic: p.Value()}
	if d != nil {
		var declaring []string
		for _, s := range t.subtypes {
			if s.HasDiscriminatorProperty(d.PropertyName()) {
				declaring = append(declaring, s.Name())
			}
		}
		if len(declaring) > 1 {
			return result.Failuref[*AllOfDataType]("ambiguous discriminator, property '%s' is declared by %s",
				d.PropertyName(), quoteAll(declaring))
		}
	}
	return withEnum(t, &t.base, c.Enum)
}

func (t *AllOfDataType) HasDiscriminatorProperty(name string) bool {
	for _, s := range t.subtypes {
		if s.HasDiscriminatorProperty(name) {
			return true
		}
	}
	return false
}

func (t *AllOfDataType) Validate(value any) result.Result[any] {
	return t.validate(value, isMap, func(v any) result.Result[any] {
		if d := t.discriminator; d != nil {
			wire := d.wireValue(v)
			if wire.IsFailure() {
				return result.Retype[any](wire)
			}
			if d.GetDataTypeNameFor(wire.Value()) != t.name {
				return result.Failuref[any]("Discriminator property '%s' expected '%s' but was '%s'",
					d.PropertyName(), d.GetMappingName(t.name), wire.Value())
			}
		}
		_, failures := t.matchAll(v)
		if len(failures) > 0 {
			return noMatch(failures)
		}
		return result.Success(v)
	})
}

func (t *AllOfDataType) RandomValue() any { return t.generate(0) }

func (t *AllOfDataType) generate(depth int) any {
	return t.random(depth, func(depth int) any {
		out := map[string]any{}
		for _, s := range t.subtypes {
			if m, ok := s.generate(depth + 1).(map[string]any); ok {
				for k, v := range m {
					if _, taken := out[k]; !taken {
						out[k] = v
					}
				}
			}
		}
		t.injectDiscriminator(out, t.name)

		// a subtype may narrow a property another one generated first
		for attempt := 0; attempt < maxAllOfAttempts; attempt++ {
			settled := true
			for _, s := range t.subtypes {
				res := s.Validate(out)
				if res.IsSuccess() {
					continue
				}
				settled = false
				if m, ok := s.generate(depth + 1).(map[string]any); ok {
					overwrite(out, m, rejectedKeys(res.Errors()))
					t.injectDiscriminator(out, t.name)
				}
			}
			if settled {
				break
			}
		}
		return out
	})
}

// rejectedKeys returns the top-level properties named by errs. It returns
// nil when an error concerns the object as a whole.
func rejectedKeys(errs []result.Error) map[string]bool {
	keys := map[string]bool{}
	for _, e := range errs {
		i := strings.IndexAny(e.Path, ".[")
		switch {
		case e.Path == "" || i == 0:
			return nil
		case i > 0:
			keys[e.Path[:i]] = true
		default:
			keys[e.Path] = true
		}
	}
	return keys
}

// overwrite copies the keys of src into dst. When keys is not nil only the
// keys it holds are copied, unless src holds none of them.
func overwrite(dst, src map[string]any, keys map[string]bool) {
	if keys != nil {
		hit := false
		for k := range src {
			if keys[k] {
				hit = true
				break
			}
		}
		if !hit {
			keys = nil
		}
	}
	for k, v := range src {
		if keys == nil || keys[k] {
			dst[k] = v
		}
	}
}

// OneOfDataType accepts values valid against exactly one subtype.
type OneOfDataType struct {
	polymorphic
}

// NewOneOf builds a oneOf type. Discriminator mapping targets must name
// subtypes.
func NewOneOf(c Common, subtypes []DataType, d *Discriminator) result.Result[*OneOfDataType] {
	p := newPolymorphic(c, KindOneOf, "oneOf", subtypes, d)
	if p.IsFailure() {
		return result.Retype[*OneOfDataType](p)
	}
	t := &OneOfDataType{polymorphic: p.Value()}
	if res := t.checkMappingTargets(); res.IsFailure() {
		return result.Retype[*OneOfDataType](res)
	}
	return withEnum(t, &t.base, c.Enum)
}

func (t *OneOfDataType) HasDiscriminatorProperty(name string) bool {
	return t.discriminator != nil && t.discriminator.PropertyName() == name
}

func (t *OneOfDataType) Validate(value any) result.Result[any] {
	return t.validate(value, isMap, func(v any) result.Result[any] {
		if t.discriminator != nil {
			return t.byDiscriminator(v)
		}
		matches, failures := t.matchAll(v)
		switch len(matches) {
		case 0:
			return noMatch(failures)
		case 1:
			return matches[0].res
		default:
			return result.Failuref[any]("ambiguous match, value matches more than one schema: %s",
				quoteAll(matchNames(matches)))
		}
	})
}

func (t *OneOfDataType) RandomValue() any { return t.generate(0) }

func (t *OneOfDataType) generate(depth int) any {
	return t.random(depth, func(depth int) any {
		var v any
		for attempt := 0; attempt < maxOneOfAttempts; attempt++ {
			s := t.subtypes[rand.IntN(len(t.subtypes))]
			v = t.injectDiscriminator(s.generate(depth+1), s.Name())
			if t.discriminator != nil || t.Validate(v).IsSuccess() {
				break
			}
		}
		return v
	})
}

// AnyOfDataType accepts values valid against at least one subtype.
type AnyOfDataType struct {
	polymorphic
}

// NewAnyOf builds an anyOf type. Discriminator mapping targets must name
// subtypes.
func NewAnyOf(c Common, subtypes []DataType, d *Discriminator) result.Result[*AnyOfDataType] {
	p := newPolymorphic(c, KindAnyOf, "anyOf", subtypes, d)
	if p.IsFailure() {
		return result.Retype[*AnyOfDataType](p)
	}
	t := &AnyOfDataType{polymorphic: p.Value()}
	if res := t.checkMappingTargets(); res.IsFailure() {
		return result.Retype[*AnyOfDataType](res)
	}
	return withEnum(t, &t.base, c.Enum)
}

func (t *AnyOfDataType) HasDiscriminatorProperty(name string) bool {
	return t.discriminator != nil && t.discriminator.PropertyName() == name
}

func (t *AnyOfDataType) Validate(value any) result.Result[any] {
	return t.validate(value, isMap, func(v any) result.Result[any] {
		if t.discriminator != nil {
			return t.byDiscriminator(v)
		}
		matches, failures := t.matchAll(v)
		if len(matches) == 0 {
			return noMatch(failures)
		}
		return matches[0].res
	})
}

func (t *AnyOfDataType) RandomValue() any { return t.generate(0) }

func (t *AnyOfDataType) generate(depth int) any {
	return t.random(depth, func(depth int) any {
		s := t.subtypes[rand.IntN(len(t.subtypes))]
		return t.injectDiscriminator(s.generate(depth+1), s.Name())
	})
}
