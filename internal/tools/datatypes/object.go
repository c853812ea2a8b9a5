package datatypes

import (
	"fmt"
	"sort"
	"strings"

	"github.com/krateoplatformops/oascontracts/internal/tools/result"
)

// Property is a declared object property.
type Property struct {
	Name string
	Type DataType
}

// AdditionalPolicy tells an object what to do with undeclared properties.
type AdditionalPolicy int

const (
	AllowAdditional AdditionalPolicy = iota
	RejectAdditional
	TypedAdditional
)

// AdditionalProperties is the additionalProperties setting of an object.
// Type is only used with TypedAdditional.
type AdditionalProperties struct {
	Policy AdditionalPolicy
	Type   DataType
}

// ObjectDataType accepts JSON objects with declared properties.
type ObjectDataType struct {
	base
	properties []Property
	index      map[string]DataType
	required   map[string]struct{}
	additional AdditionalProperties
}

// NewObject builds an object type. Every required name must be a declared
// property.
func NewObject(c Common, properties []Property, required []string, additional AdditionalProperties) result.Result[*ObjectDataType] {
	t := &ObjectDataType{
		base:       newBase(c, KindObject, "object"),
		properties: make([]Property, 0, len(properties)),
		index:      make(map[string]DataType, len(properties)),
		required:   make(map[string]struct{}, len(required)),
		additional: additional,
	}

	res := result.Success(t)
	for _, p := range properties {
		switch {
		case p.Type == nil:
			res = res.CombineWith(result.FailureAtProperty[*ObjectDataType](p.Name, "property has no type"))
			continue
		case t.index[p.Name] != nil:
			res = res.CombineWith(result.FailureAtProperty[*ObjectDataType](p.Name, "property is declared twice"))
			continue
		}
		t.index[p.Name] = p.Type
		t.properties = append(t.properties, p)
	}
	for _, name := range required {
		if _, ok := t.index[name]; !ok {
			res = res.CombineWith(result.Failuref[*ObjectDataType]("required property '%s' of '%s' is not declared", name, t.name))
			continue
		}
		t.required[name] = struct{}{}
	}
	if additional.Policy == TypedAdditional && additional.Type == nil {
		res = res.CombineWith(result.Failuref[*ObjectDataType]("additional properties of '%s' have no type", t.name))
	}
	if res.IsFailure() {
		return res
	}
	return withEnum(t, &t.base, c.Enum)
}

// Properties returns the declared properties in declaration order.
func (t *ObjectDataType) Properties() []Property {
	out := make([]Property, len(t.properties))
	copy(out, t.properties)
	return out
}

// Property returns the type of a declared property.
func (t *ObjectDataType) Property(name string) (DataType, bool) {
	dt, ok := t.index[name]
	return dt, ok
}

func (t *ObjectDataType) IsRequired(name string) bool {
	_, ok := t.required[name]
	return ok
}

func (t *ObjectDataType) Additional() AdditionalProperties { return t.additional }

func (t *ObjectDataType) Validate(value any) result.Result[any] {
	return t.validate(value, isMap, func(v any) result.Result[any] {
		m := v.(map[string]any)
		out := make(map[string]any, len(m))
		res := result.Success[any](out)

		for _, p := range t.properties {
			raw, ok := m[p.Name]
			if !ok {
				if t.IsRequired(p.Name) {
					res = res.CombineWith(result.FailureAtProperty[any](p.Name, "is required"))
				}
				continue
			}
			checked := p.Type.Validate(raw).ForProperty(p.Name)
			if checked.IsSuccess() {
				out[p.Name] = checked.Value()
			}
			res = res.CombineWith(checked)
		}

		extra := t.undeclared(m)
		switch t.additional.Policy {
		case RejectAdditional:
			if len(extra) > 0 {
				res = res.CombineWith(result.Failuref[any]("unexpected properties: %s", strings.Join(extra, ", ")))
			}
		case TypedAdditional:
			for _, k := range extra {
				checked := t.additional.Type.Validate(m[k]).ForProperty(k)
				if checked.IsSuccess() {
					out[k] = checked.Value()
				}
				res = res.CombineWith(checked)
			}
		default:
			for _, k := range extra {
				out[k] = m[k]
			}
		}
		return res
	})
}

// undeclared returns the keys of m that are not declared properties, sorted.
func (t *ObjectDataType) undeclared(m map[string]any) []string {
	var extra []string
	for k := range m {
		if _, ok := t.index[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return extra
}

func (t *ObjectDataType) RandomValue() any { return t.generate(0) }
func (t *ObjectDataType) IsFullyStructured() bool { return true }
func (t *ObjectDataType) IsStructured() bool { return true }

func (t *ObjectDataType) HasDiscriminatorProperty(name string) bool {
	_, ok := t.index[name]
	return ok
}

func (t *ObjectDataType) generate(depth int) any {
	return t.random(depth, func(depth int) any {
		out := make(map[string]any, len(t.properties))
		for _, p := range t.properties {
			if depth > softGenerationDepth && !t.IsRequired(p.Name) {
				continue
			}
			out[p.Name] = p.Type.generate(depth + 1)
		}
		return out
	})
}

func (t *ObjectDataType) String() string {
	names := make([]string, 0, len(t.properties))
	for _, p := range t.properties {
		names = append(names, p.Name)
	}
	return fmt.Sprintf("%s{%s}", t.name, strings.Join(names, ", "))
}
