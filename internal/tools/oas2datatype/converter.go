package oas2datatype

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/krateoplatformops/oascontracts/internal/tools/datatypes"
	"github.com/krateoplatformops/oascontracts/internal/tools/result"
)

const typeAny = "any"

func up[T datatypes.DataType](res result.Result[T]) result.Result[datatypes.DataType] {
	return result.Map(res, func(dt T) datatypes.DataType { return dt })
}

// convert turns s into a DataType named name. depth counts the nesting from
// the schema the conversion started at.
func (r *Registry) convert(s *Schema, name string, depth int) result.Result[datatypes.DataType] {
	if err := r.guard.Check(depth); err != nil {
		return result.Failure[datatypes.DataType](err.Error())
	}
	if s == nil {
		return result.Failure[datatypes.DataType]("schema is missing or could not be read")
	}
	if s.Ref != "" {
		return r.named(s.Ref, depth+1)
	}

	types, nullable := s.types()
	c := datatypes.Common{Name: name, Nullable: nullable || s.Nullable, Enum: s.Enum}

	switch {
	case len(s.AllOf) > 0:
		return r.allOf(s, c, depth)
	case len(s.OneOf) > 0:
		return r.polymorphic("oneOf", s, s.OneOf, c, depth)
	case len(s.AnyOf) > 0:
		return r.polymorphic("anyOf", s, s.AnyOf, c, depth)
	}

	if len(types) > 1 {
		return result.Failuref[datatypes.DataType]("multiple types are not supported: %s", strings.Join(types, ", "))
	}
	t := s.inferType()
	if len(types) == 1 {
		t = types[0]
	}

	switch t {
	case "boolean":
		return up(datatypes.NewBoolean(c))
	case "integer":
		return result.FlatMap(numericRange(s), func(rng datatypes.Range) result.Result[datatypes.DataType] {
			return up(datatypes.NewInteger(c, rng))
		})
	case "number":
		return result.FlatMap(numericRange(s), func(rng datatypes.Range) result.Result[datatypes.DataType] {
			return up(datatypes.NewNumber(c, rng))
		})
	case "string":
		return stringType(s, c)
	case "object":
		return r.object(s, c, depth)
	case "array":
		return r.array(s, c, depth)
	case typeAny:
		return up(datatypes.NewAny(c))
	case "":
		return result.Failure[datatypes.DataType]("cannot determine the type of the schema")
	default:
		return result.Failuref[datatypes.DataType]("unsupported type '%s'", t)
	}
}

func numericRange(s *Schema) result.Result[datatypes.Range] {
	return datatypes.NewRange(decimalOf(s.Minimum), decimalOf(s.Maximum), s.ExclusiveMinimum, s.ExclusiveMaximum)
}

func decimalOf(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f)
	return &d
}

func stringType(s *Schema, c datatypes.Common) result.Result[datatypes.DataType] {
	switch s.Format {
	case "date":
		return up(datatypes.NewDate(c))
	case "date-time":
		return up(datatypes.NewDateTime(c))
	case "uuid":
		return up(datatypes.NewUUID(c))
	}

	return result.FlatMap(datatypes.NewLengthRange(s.MinLength, s.MaxLength), func(length datatypes.Range) result.Result[datatypes.DataType] {
		switch s.Format {
		case "email":
			return up(datatypes.NewEmail(c, length))
		case "byte":
			return up(datatypes.NewBase64(c, length))
		case "binary":
			return up(datatypes.NewBinary(c, length))
		default:
			return up(datatypes.NewString(c, length))
		}
	})
}

func (r *Registry) object(s *Schema, c datatypes.Common, depth int) result.Result[datatypes.DataType] {
	if len(s.Properties) == 0 {
		return r.mapType(s, c, depth)
	}

	props := result.Accumulate(s.Properties, func(_ int, p Property) result.Result[datatypes.Property] {
		dt := r.convert(p.Schema, datatypes.InlineSchemaName, depth+1).ForProperty(p.Name)
		return result.Map(dt, func(dt datatypes.DataType) datatypes.Property {
			return datatypes.Property{Name: p.Name, Type: dt}
		})
	})
	additional := r.additionalProperties(s, depth)
	if props.IsFailure() || additional.IsFailure() {
		return result.Retype[datatypes.DataType](props).CombineWith(result.Retype[datatypes.DataType](additional))
	}
	return up(datatypes.NewObject(c, props.Value(), s.Required, additional.Value()))
}

func (r *Registry) additionalProperties(s *Schema, depth int) result.Result[datatypes.AdditionalProperties] {
	switch {
	case s.AdditionalPropertiesSchema != nil:
		dt := r.convert(s.AdditionalPropertiesSchema, datatypes.InlineSchemaName, depth+1).ForProperty("additionalProperties")
		return result.Map(dt, func(dt datatypes.DataType) datatypes.AdditionalProperties {
			return datatypes.AdditionalProperties{Policy: datatypes.TypedAdditional, Type: dt}
		})
	case s.AdditionalPropertiesAllowed != nil && !*s.AdditionalPropertiesAllowed:
		return result.Success(datatypes.AdditionalProperties{Policy: datatypes.RejectAdditional})
	default:
		return result.Success(datatypes.AdditionalProperties{Policy: datatypes.AllowAdditional})
	}
}

// mapType converts an object schema without declared properties.
func (r *Registry) mapType(s *Schema, c datatypes.Common, depth int) result.Result[datatypes.DataType] {
	if s.AdditionalPropertiesAllowed != nil && !*s.AdditionalPropertiesAllowed {
		return up(datatypes.NewObject(c, nil, nil, datatypes.AdditionalProperties{Policy: datatypes.RejectAdditional}))
	}
	values := result.FlatMap(result.Success(s.AdditionalPropertiesSchema), func(vs *Schema) result.Result[datatypes.DataType] {
		if vs == nil {
			return up(datatypes.NewAny(datatypes.Common{Nullable: true}))
		}
		return r.convert(vs, datatypes.InlineSchemaName, depth+1).ForProperty("additionalProperties")
	})
	return result.FlatMap(values, func(values datatypes.DataType) result.Result[datatypes.DataType] {
		return up(datatypes.NewMap(c, values, s.Required))
	})
}

func (r *Registry) array(s *Schema, c datatypes.Common, depth int) result.Result[datatypes.DataType] {
	items := up(datatypes.NewAny(datatypes.Common{}))
	if s.Items != nil {
		items = r.convert(s.Items, datatypes.InlineSchemaName, depth+1).ForProperty("items")
	}
	count := datatypes.NewLengthRange(s.MinItems, s.MaxItems)
	if items.IsFailure() || count.IsFailure() {
		return items.CombineWith(result.Retype[datatypes.DataType](count))
	}
	return up(datatypes.NewArray(c, items.Value(), count.Value()))
}

func (r *Registry) allOf(s *Schema, c datatypes.Common, depth int) result.Result[datatypes.DataType] {
	members := make([]*Schema, 0, len(s.AllOf)+1)
	names := make([]string, 0, len(s.AllOf)+1)
	for _, m := range s.AllOf {
		name := datatypes.InlineSchemaName
		// A parent that is itself a oneOf or anyOf over this schema takes part
		// with its own properties only, otherwise validation would loop.
		if m != nil && m.Ref != "" && c.Name != datatypes.InlineSchemaName {
			if parent, ok := r.schemas[m.Ref]; ok && parent.polymorphicOver(c.Name) {
				m, name = parent.withoutComposition(), m.Ref
			}
		}
		members = append(members, m)
		names = append(names, name)
	}
	if own := s.ownObject(); own != nil {
		members = append(members, own)
		names = append(names, datatypes.InlineSchemaName)
	}

	subtypes := r.members("allOf", members, names, depth)
	if subtypes.IsFailure() {
		return result.Retype[datatypes.DataType](subtypes)
	}
	if len(subtypes.Value()) == 0 {
		return up(datatypes.NewAny(c))
	}

	d := r.discriminatorFor(s, c.Name)
	if d.IsFailure() {
		return result.Retype[datatypes.DataType](d)
	}
	disc := d.Value()
	if disc == nil && c.Name != datatypes.InlineSchemaName {
		for _, m := range s.AllOf {
			if m == nil || m.Ref == "" {
				continue
			}
			if inherited, ok := r.discriminators[m.Ref]; ok {
				disc = inherited
				break
			}
		}
	}
	return up(datatypes.NewAllOf(c, subtypes.Value(), disc))
}

func (r *Registry) polymorphic(kind string, s *Schema, members []*Schema, c datatypes.Common, depth int) result.Result[datatypes.DataType] {
	names := make([]string, len(members))
	for i := range names {
		names[i] = datatypes.InlineSchemaName
	}
	subtypes := r.members(kind, members, names, depth)
	if subtypes.IsFailure() {
		return result.Retype[datatypes.DataType](subtypes)
	}
	if len(subtypes.Value()) == 0 {
		return up(datatypes.NewAny(c))
	}

	d := r.discriminatorFor(s, c.Name)
	if d.IsFailure() {
		return result.Retype[datatypes.DataType](d)
	}
	if kind == "oneOf" {
		return up(datatypes.NewOneOf(c, subtypes.Value(), d.Value()))
	}
	return up(datatypes.NewAnyOf(c, subtypes.Value(), d.Value()))
}

// members converts composition members. Members that constrain nothing are
// dropped first.
func (r *Registry) members(kind string, members []*Schema, names []string, depth int) result.Result[[]datatypes.DataType] {
	type member struct {
		index  int
		schema *Schema
		name   string
	}
	kept := make([]member, 0, len(members))
	for i, m := range members {
		if m != nil && m.constrainsNothing() {
			continue
		}
		kept = append(kept, member{index: i, schema: m, name: names[i]})
	}
	return result.Accumulate(kept, func(_ int, m member) result.Result[datatypes.DataType] {
		return r.convert(m.schema, m.name, depth+1).ForIndex(m.index).ForProperty(kind)
	})
}

// discriminatorFor returns the discriminator declared on s. Named schemas use
// the one computed by Load.
func (r *Registry) discriminatorFor(s *Schema, name string) result.Result[*datatypes.Discriminator] {
	if d, ok := r.discriminators[name]; ok && r.schemas[name] == s {
		return result.Success(d)
	}
	if s.Discriminator == nil {
		return result.Success[*datatypes.Discriminator](nil)
	}
	return newDiscriminator(s.Discriminator).ForProperty("discriminator")
}

// types returns the declared types without "null", and whether "null" was
// among them.
func (s *Schema) types() ([]string, bool) {
	nullable := false
	out := make([]string, 0, len(s.Type))
	for _, t := range s.Type {
		if t == "null" {
			nullable = true
			continue
		}
		out = append(out, t)
	}
	return out, nullable
}

func (s *Schema) hasType(t string) bool {
	return slices.Contains(s.Type, t)
}

// inferType guesses the type of a schema without an explicit one.
func (s *Schema) inferType() string {
	switch {
	case len(s.Properties) > 0 || s.AdditionalPropertiesSchema != nil || s.AdditionalPropertiesAllowed != nil:
		return "object"
	case s.Items != nil || s.MinItems != nil || s.MaxItems != nil:
		return "array"
	case s.Format != "" || s.MinLength != nil || s.MaxLength != nil:
		if s.Minimum == nil && s.Maximum == nil {
			return "string"
		}
	case s.Minimum != nil || s.Maximum != nil:
		return ""
	case s.constrainsNothing() || s.Enum != nil:
		return typeAny
	}
	return ""
}

// constrainsNothing reports whether every value is valid against s.
func (s *Schema) constrainsNothing() bool {
	return s.Ref == "" &&
		len(s.Type) == 0 &&
		s.Format == "" &&
		s.Enum == nil &&
		s.Minimum == nil && s.Maximum == nil &&
		s.MinLength == nil && s.MaxLength == nil &&
		s.MinItems == nil && s.MaxItems == nil &&
		len(s.Properties) == 0 &&
		s.AdditionalPropertiesAllowed == nil && s.AdditionalPropertiesSchema == nil &&
		s.Items == nil &&
		len(s.AllOf) == 0 && len(s.OneOf) == 0 && len(s.AnyOf) == 0
}

// polymorphicOver reports whether s is a oneOf or anyOf with a member
// referencing name.
func (s *Schema) polymorphicOver(name string) bool {
	for _, m := range slices.Concat(s.OneOf, s.AnyOf) {
		if m != nil && m.Ref == name {
			return true
		}
	}
	return false
}

// withoutComposition returns a copy of s without oneOf, anyOf and discriminator.
func (s *Schema) withoutComposition() *Schema {
	c := *s
	c.OneOf, c.AnyOf, c.Discriminator = nil, nil, nil
	return &c
}

// ownObject returns the properties declared next to allOf as an object
// schema, or nil when there are none.
func (s *Schema) ownObject() *Schema {
	if len(s.Properties) == 0 {
		return nil
	}
	return &Schema{
		Type:                        []string{"object"},
		Properties:                  s.Properties,
		Required:                    s.Required,
		AdditionalPropertiesAllowed: s.AdditionalPropertiesAllowed,
		AdditionalPropertiesSchema:  s.AdditionalPropertiesSchema,
	}
}
