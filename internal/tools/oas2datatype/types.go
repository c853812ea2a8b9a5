package oas2datatype

const (
	// DefaultMaxRecursiveDepth bounds how deeply schemas may nest, counting
	// every property, item, member and $ref hop.
	DefaultMaxRecursiveDepth = 25
	// DefaultMaxNodes bounds how many schema nodes a single conversion visits.
	DefaultMaxNodes = 100_000
)

// Config holds the tuning of schema conversion.
type Config struct {
	MaxRecursiveDepth int
	MaxNodes          int32
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		MaxRecursiveDepth: DefaultMaxRecursiveDepth,
		MaxNodes:          DefaultMaxNodes,
	}
}

// --- Library-Agnostic Domain Models ---

// Property represents a single key-value pair in a schema's properties.
// Using a slice of these preserves order.
type Property struct {
	Name   string
	Schema *Schema
}

// Discriminator is the discriminator object of a schema. Mapping values are
// either schema names or $ref strings.
type Discriminator struct {
	PropertyName string
	Mapping      map[string]string
}

// Schema is a library-agnostic representation of a JSON Schema Object, which is used
// within the OpenAPI specification to define the structure of data payloads.
// A schema that is a $ref to a named component keeps only Ref, the component
// name; its content is looked up through the Registry.
type Schema struct {
	Ref         string
	Type        []string
	Format      string
	Nullable    bool
	Description string
	Enum        []any
	Example     any

	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum bool
	ExclusiveMaximum bool
	MinLength        *int64
	MaxLength        *int64
	MinItems         *int64
	MaxItems         *int64

	Properties []Property
	Required   []string
	// AdditionalPropertiesAllowed is the boolean form of additionalProperties,
	// AdditionalPropertiesSchema the schema form. Both are unset when the
	// keyword is absent.
	AdditionalPropertiesAllowed *bool
	AdditionalPropertiesSchema  *Schema
	Items                       *Schema

	AllOf         []*Schema
	OneOf         []*Schema
	AnyOf         []*Schema
	Discriminator *Discriminator
}

// NamedSchema is a schema declared under components.schemas.
type NamedSchema struct {
	Name   string
	Schema *Schema
}

// ParameterInfo is a library-agnostic representation of an API parameter.
type ParameterInfo struct {
	Name        string
	In          string
	Description string
	Required    bool
	Schema      *Schema
	Example     any
}

// MediaTypeInfo is the schema and examples declared for one media type.
type MediaTypeInfo struct {
	Schema   *Schema
	Example  any
	Examples map[string]any
}

// RequestBodyInfo is a library-agnostic representation of a request body.
// Type name reflect the OpenAPI spec's 'requestBody' object
type RequestBodyInfo struct {
	Required bool
	Content  map[string]MediaTypeInfo
}

// ResponseInfo is a library-agnostic representation of a response.
// Type name reflects the OpenAPI spec's single response object under the 'responses' map.
type ResponseInfo struct {
	Description string
	Content     map[string]MediaTypeInfo
}
