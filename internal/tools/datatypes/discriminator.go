package datatypes

import (
	"sort"

	"github.com/krateoplatformops/oascontracts/internal/tools/result"
)

// Discriminator names the property whose value selects the schema of a
// polymorphic value, plus the optional mapping from wire values to schema
// names.
type Discriminator struct {
	propertyName string
	mapping      map[string]string
}

// NewDiscriminator builds a Discriminator. Mapping targets must already be
// schema names, not $ref strings.
func NewDiscriminator(propertyName string, mapping map[string]string) result.Result[*Discriminator] {
	if propertyName == "" {
		return result.Failure[*Discriminator]("discriminator property name must not be empty")
	}
	m := make(map[string]string, len(mapping))
	for k, v := range mapping {
		if v == "" {
			return result.Failuref[*Discriminator]("discriminator mapping for '%s' has an empty target", k)
		}
		m[k] = v
	}
	return result.Success(&Discriminator{propertyName: propertyName, mapping: m})
}

func (d *Discriminator) PropertyName() string { return d.propertyName }

// Mapping returns a copy of the wire value to schema name mapping.
func (d *Discriminator) Mapping() map[string]string {
	out := make(map[string]string, len(d.mapping))
	for k, v := range d.mapping {
		out[k] = v
	}
	return out
}

// GetDataTypeNameFor resolves a wire value to a schema name. Unmapped values
// name the schema directly.
func (d *Discriminator) GetDataTypeNameFor(wireValue string) string {
	if name, ok := d.mapping[wireValue]; ok {
		return name
	}
	return wireValue
}

// GetMappingName is the inverse of GetDataTypeNameFor: the wire value that
// selects dataTypeName. When several wire values map to it the smallest one
// is returned.
func (d *Discriminator) GetMappingName(dataTypeName string) string {
	var candidates []string
	for k, v := range d.mapping {
		if v == dataTypeName {
			candidates = append(candidates, k)
		}
	}
	if len(candidates) == 0 {
		return dataTypeName
	}
	sort.Strings(candidates)
	return candidates[0]
}

// targets returns the mapped schema names, sorted.
func (d *Discriminator) targets() []string {
	seen := make(map[string]struct{}, len(d.mapping))
	var out []string
	for _, v := range d.mapping {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// wireValue extracts the discriminator value of an object.
func (d *Discriminator) wireValue(v any) result.Result[string] {
	m, ok := v.(map[string]any)
	if !ok {
		return result.Failuref[string]("Discriminator property '%s' requires an object value", d.propertyName)
	}
	raw, ok := m[d.propertyName]
	if !ok || raw == nil {
		return result.Failuref[string]("Discriminator property '%s' is required", d.propertyName)
	}
	s, ok := raw.(string)
	if !ok {
		return result.Failuref[string]("Discriminator property '%s' must be a string but was %s", d.propertyName, describe(raw))
	}
	return result.Success(s)
}
