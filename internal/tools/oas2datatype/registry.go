package oas2datatype

import (
	"errors"
	"fmt"
	"strings"

	"github.com/krateoplatformops/oascontracts/internal/tools/datatypes"
	"github.com/krateoplatformops/oascontracts/internal/tools/result"
	"github.com/krateoplatformops/oascontracts/internal/tools/safety"
)

// Registry converts the schemas of one document into DataTypes. Named
// schemas are converted once and shared, which also closes cycles between
// them. A Registry is filled by Load and must not be shared between
// concurrent loads.
type Registry struct {
	cfg            *Config
	guard          *safety.RecursionGuard
	names          []string
	schemas        map[string]*Schema
	discriminators map[string]*datatypes.Discriminator
	types          map[string]datatypes.DataType
	failures       map[string]result.Result[datatypes.DataType]
	inProgress     map[string]*datatypes.ReferenceDataType
}

// NewRegistry returns an empty Registry. A nil cfg means DefaultConfig.
func NewRegistry(cfg *Config) *Registry {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Registry{
		cfg:            cfg,
		guard:          safety.NewRecursionGuard(cfg.MaxRecursiveDepth, cfg.MaxNodes),
		schemas:        make(map[string]*Schema),
		discriminators: make(map[string]*datatypes.Discriminator),
		types:          make(map[string]datatypes.DataType),
		failures:       make(map[string]result.Result[datatypes.DataType]),
		inProgress:     make(map[string]*datatypes.ReferenceDataType),
	}
}

// Load registers the named schemas of doc and computes their discriminators
// up front, so that every schema referencing them sees the same one.
func (r *Registry) Load(doc OASDocument) error {
	var errs []error
	for _, ns := range doc.Schemas() {
		if _, dup := r.schemas[ns.Name]; dup {
			errs = append(errs, fmt.Errorf("schema '%s' is declared twice", ns.Name))
			continue
		}
		if ns.Schema == nil {
			errs = append(errs, fmt.Errorf("schema '%s' could not be read", ns.Name))
			continue
		}
		r.names = append(r.names, ns.Name)
		r.schemas[ns.Name] = ns.Schema
	}

	for _, name := range r.names {
		s := r.schemas[name]
		if s.Discriminator == nil {
			continue
		}
		d := newDiscriminator(s.Discriminator)
		if d.IsFailure() {
			errs = append(errs, NewConversionError(name, d))
			continue
		}
		r.discriminators[name] = d.Value()
	}
	return errors.Join(errs...)
}

// Names returns the names of the loaded schemas in declaration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Schema returns a loaded named schema.
func (r *Registry) Schema(name string) (*Schema, bool) {
	s, ok := r.schemas[name]
	return s, ok
}

// Discriminator returns the discriminator declared on a named schema.
func (r *Registry) Discriminator(name string) (*datatypes.Discriminator, bool) {
	d, ok := r.discriminators[name]
	return d, ok
}

// Visited returns how many schema nodes the last Named or Convert call
// walked.
func (r *Registry) Visited() int32 {
	return r.guard.Visited()
}

// Named returns the DataType of a named schema.
func (r *Registry) Named(name string) result.Result[datatypes.DataType] {
	r.guard.Reset()
	return r.named(name, 0)
}

// Convert returns the DataType of an inline schema. References to named
// schemas are resolved against the loaded ones.
func (r *Registry) Convert(s *Schema) result.Result[datatypes.DataType] {
	r.guard.Reset()
	return r.convert(s, datatypes.InlineSchemaName, 0)
}

func (r *Registry) named(name string, depth int) result.Result[datatypes.DataType] {
	if dt, ok := r.types[name]; ok {
		return result.Success(dt)
	}
	if res, ok := r.failures[name]; ok {
		return res
	}
	if ref, ok := r.inProgress[name]; ok {
		return result.Success[datatypes.DataType](ref)
	}
	s, ok := r.schemas[name]
	if !ok {
		return result.Failuref[datatypes.DataType]("unknown schema reference '%s'", name)
	}

	ref := datatypes.NewReference(name, r.isStructured(s, 0))
	r.inProgress[name] = ref
	before := r.cachedNames()
	res := r.convert(s, name, depth)
	delete(r.inProgress, name)

	if res.IsFailure() {
		// drop what was cached while converting, it may hold the unbound ref
		for n := range r.types {
			if _, ok := before[n]; !ok {
				delete(r.types, n)
			}
		}
		if !depthExceeded(res) {
			r.failures[name] = res
		}
		return res
	}
	if err := ref.Bind(res.Value()); err != nil {
		return result.Failure[datatypes.DataType](err.Error())
	}
	r.types[name] = res.Value()
	return res
}

func (r *Registry) cachedNames() map[string]struct{} {
	out := make(map[string]struct{}, len(r.types))
	for n := range r.types {
		out[n] = struct{}{}
	}
	return out
}

// depthExceeded reports whether a failure comes from the depth budget. Such
// failures depend on where the schema was reached from and are not cached.
func depthExceeded(res result.Result[datatypes.DataType]) bool {
	for _, e := range res.Errors() {
		if strings.Contains(e.Message, safety.ErrMaxDepth.Error()) || strings.Contains(e.Message, safety.ErrMaxNodes.Error()) {
			return true
		}
	}
	return false
}

// isStructured tells from the schema alone whether values will be objects.
func (r *Registry) isStructured(s *Schema, hops int) bool {
	if s == nil || hops > r.cfg.MaxRecursiveDepth {
		return false
	}
	if s.Ref != "" {
		return r.isStructured(r.schemas[s.Ref], hops+1)
	}
	if len(s.AllOf) > 0 || len(s.OneOf) > 0 || len(s.AnyOf) > 0 || len(s.Properties) > 0 {
		return true
	}
	return s.hasType("object") || (len(s.Type) == 0 && (s.AdditionalPropertiesSchema != nil || s.AdditionalPropertiesAllowed != nil))
}

// newDiscriminator builds a discriminator, reducing $ref mapping targets to
// schema names.
func newDiscriminator(d *Discriminator) result.Result[*datatypes.Discriminator] {
	mapping := make(map[string]string, len(d.Mapping))
	for k, v := range d.Mapping {
		if name, ok := componentName(v); ok {
			v = name
		}
		mapping[k] = v
	}
	return datatypes.NewDiscriminator(d.PropertyName, mapping)
}
