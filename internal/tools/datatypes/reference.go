package datatypes

import (
	"fmt"

	"github.com/krateoplatformops/oascontracts/internal/tools/result"
)

// ReferenceDataType stands for a named schema whose DataType is still being
// built. It closes cycles between named schemas: the converter hands out a
// reference while the target is under construction and binds it afterwards.
type ReferenceDataType struct {
	name       string
	structured bool
	target     DataType
}

// NewReference builds an unbound reference. structured tells whether the
// target will be an object schema, so that the reference can take part in
// composition before it is bound.
func NewReference(name string, structured bool) *ReferenceDataType {
	return &ReferenceDataType{name: name, structured: structured}
}

// Bind sets the target. A reference can be bound once.
func (r *ReferenceDataType) Bind(target DataType) error {
	if r.target != nil {
		return fmt.Errorf("reference '%s' is already bound", r.name)
	}
	if target == nil {
		return fmt.Errorf("reference '%s' cannot be bound to nothing", r.name)
	}
	r.target = target
	return nil
}

// Target returns the bound DataType, or nil.
func (r *ReferenceDataType) Target() DataType { return r.target }

func (r *ReferenceDataType) Name() string { return r.name }
func (r *ReferenceDataType) Kind() Kind   { return KindReference }

func (r *ReferenceDataType) OpenAPIType() string {
	if r.target == nil {
		return "$ref"
	}
	return r.target.OpenAPIType()
}

func (r *ReferenceDataType) IsNullable() bool {
	return r.target != nil && r.target.IsNullable()
}

func (r *ReferenceDataType) AllowedValues() *AllowedValues {
	if r.target == nil {
		return nil
	}
	return r.target.AllowedValues()
}

func (r *ReferenceDataType) Validate(value any) result.Result[any] {
	if r.target == nil {
		return result.Failuref[any]("reference '%s' is not resolved", r.name)
	}
	return r.target.Validate(value)
}

func (r *ReferenceDataType) RandomValue() any { return r.generate(0) }

func (r *ReferenceDataType) IsFullyStructured() bool {
	if r.target == nil {
		return r.structured
	}
	return r.target.IsFullyStructured()
}

func (r *ReferenceDataType) IsStructured() bool {
	if ct, ok := r.target.(CompositeDataType); ok {
		return ct.IsStructured()
	}
	return r.IsFullyStructured()
}

func (r *ReferenceDataType) HasDiscriminatorProperty(name string) bool {
	if ct, ok := r.target.(CompositeDataType); ok {
		return ct.HasDiscriminatorProperty(name)
	}
	return false
}

func (r *ReferenceDataType) generate(depth int) any {
	if r.target == nil || depth > hardGenerationDepth {
		return nil
	}
	return r.target.generate(depth)
}

// Resolve follows references down to the DataType they stand for. Unbound
// references are returned as is.
func Resolve(dt DataType) DataType {
	for {
		r, ok := dt.(*ReferenceDataType)
		if !ok || r.target == nil {
			return dt
		}
		dt = r.target
	}
}
