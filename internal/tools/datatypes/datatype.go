// Package datatypes implements typed validators and random value generators
// built from OpenAPI schemas.
//
// Every DataType answers two questions about one schema: "is this value
// valid" (Validate) and "give me a valid value" (RandomValue). Values are
// compared in a canonical form produced by Normalize, so numbers coming from
// JSON, YAML or Go literals compare equal.
package datatypes

import (
	"github.com/krateoplatformops/oascontracts/internal/tools/result"
)

// InlineSchemaName is the name given to schemas that are not declared under
// components.
const InlineSchemaName = "Inline Schema"

const (
	// Past this depth generation only emits what validation requires:
	// optional properties are skipped, arrays take their minimum length and
	// nullable values become null.
	softGenerationDepth = 4
	// Past this depth generation gives up and emits null. Only schemas that
	// require an infinitely deep value get here.
	hardGenerationDepth = 64
)

// Kind tags the variant of a DataType.
type Kind int

const (
	KindAny Kind = iota
	KindBoolean
	KindInteger
	KindNumber
	KindString
	KindDate
	KindDateTime
	KindEmail
	KindUUID
	KindBase64
	KindBinary
	KindObject
	KindMap
	KindArray
	KindAllOf
	KindOneOf
	KindAnyOf
	KindReference
)

var kindNames = map[Kind]string{
	KindAny:       "any",
	KindBoolean:   "boolean",
	KindInteger:   "integer",
	KindNumber:    "number",
	KindString:    "string",
	KindDate:      "date",
	KindDateTime:  "date-time",
	KindEmail:     "email",
	KindUUID:      "uuid",
	KindBase64:    "base64",
	KindBinary:    "binary",
	KindObject:    "object",
	KindMap:       "map",
	KindArray:     "array",
	KindAllOf:     "allOf",
	KindOneOf:     "oneOf",
	KindAnyOf:     "anyOf",
	KindReference: "reference",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// DataType validates values against, and generates values for, one schema.
// The set of implementations is closed to this package.
type DataType interface {
	Name() string
	OpenAPIType() string
	IsNullable() bool
	Kind() Kind
	AllowedValues() *AllowedValues
	Validate(value any) result.Result[any]
	RandomValue() any
	// IsFullyStructured reports whether values are JSON objects, which is
	// what allOf, oneOf and anyOf members must be.
	IsFullyStructured() bool

	generate(depth int) any
}

// CompositeDataType is implemented by the DataTypes that can take part in
// allOf, oneOf and anyOf composition.
type CompositeDataType interface {
	DataType
	IsStructured() bool
	HasDiscriminatorProperty(name string) bool
}

// Common holds the settings shared by every DataType constructor.
type Common struct {
	Name     string
	Nullable bool
	// Enum, when non-nil, restricts the type to these values.
	Enum []any
}

func (c Common) name() string {
	if c.Name == "" {
		return InlineSchemaName
	}
	return c.Name
}

type base struct {
	name        string
	openAPIType string
	nullable    bool
	kind        Kind
	allowed     *AllowedValues
}

func newBase(c Common, kind Kind, openAPIType string) base {
	return base{
		name:        c.name(),
		openAPIType: openAPIType,
		nullable:    c.Nullable,
		kind:        kind,
	}
}

func (b *base) Name() string                  { return b.name }
func (b *base) OpenAPIType() string           { return b.openAPIType }
func (b *base) IsNullable() bool              { return b.nullable }
func (b *base) Kind() Kind                    { return b.kind }
func (b *base) AllowedValues() *AllowedValues { return b.allowed }

// validate runs the steps every DataType shares and hands the normalized
// value to inner when they all pass.
func (b *base) validate(value any, accepts func(any) bool, inner func(any) result.Result[any]) result.Result[any] {
	v := Normalize(value)
	if v == nil {
		if b.nullable {
			return result.Success[any](nil)
		}
		return result.Failure[any]("cannot be null")
	}
	if !accepts(v) {
		return result.Failuref[any]("type mismatch, expected '%s'", b.openAPIType)
	}
	if b.allowed != nil {
		return b.allowed.Contains(v)
	}
	return inner(v)
}

func (b *base) random(depth int, gen func(int) any) any {
	if b.allowed != nil {
		return b.allowed.RandomValue()
	}
	if depth > hardGenerationDepth || (depth > softGenerationDepth && b.nullable) {
		return nil
	}
	return gen(depth)
}

// withEnum attaches the allowed values of c to a freshly built DataType.
// Members are validated against dt before the restriction is installed.
func withEnum[T DataType](dt T, b *base, enum []any) result.Result[T] {
	if enum == nil {
		return result.Success(dt)
	}
	allowed := NewAllowedValues(enum, dt)
	if allowed.IsFailure() {
		return result.Retype[T](allowed)
	}
	b.allowed = allowed.Value()
	return result.Success(dt)
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isMap(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}
