package contracts

import (
	"sigs.k8s.io/yaml"

	"github.com/krateoplatformops/oascontracts/internal/tools/datatypes"
)

type typeDoc struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Kind     string `json:"kind"`
	Nullable bool   `json:"nullable,omitempty"`
}

type parameterDoc struct {
	Name     string  `json:"name"`
	In       string  `json:"in"`
	Required bool    `json:"required,omitempty"`
	Schema   typeDoc `json:"schema"`
}

type bodyDoc struct {
	MediaType string  `json:"mediaType"`
	Required  bool    `json:"required,omitempty"`
	Schema    typeDoc `json:"schema"`
}

type contractDoc struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Path        string         `json:"path"`
	Method      string         `json:"method"`
	OperationID string         `json:"operationId,omitempty"`
	Status      int            `json:"status"`
	Parameters  []parameterDoc `json:"parameters,omitempty"`
	Request     *bodyDoc       `json:"request,omitempty"`
	Response    *bodyDoc       `json:"response,omitempty"`
	Examples    map[string]any `json:"examples,omitempty"`
}

func describeType(dt datatypes.DataType) typeDoc {
	resolved := datatypes.Resolve(dt)
	return typeDoc{
		Name:     dt.Name(),
		Type:     dt.OpenAPIType(),
		Kind:     resolved.Kind().String(),
		Nullable: dt.IsNullable(),
	}
}

func describeBody(b *Body) *bodyDoc {
	if b == nil {
		return nil
	}
	return &bodyDoc{MediaType: b.MediaType, Required: b.Required, Schema: describeType(b.Type)}
}

// YAML renders a summary of every contract of the set.
func (s *Set) YAML() ([]byte, error) {
	docs := make([]contractDoc, 0, len(s.Contracts))
	for _, c := range s.Contracts {
		d := contractDoc{
			ID:          c.ID,
			Name:        c.Name,
			Path:        c.Path,
			Method:      c.Method,
			OperationID: c.OperationID,
			Status:      c.StatusCode,
			Request:     describeBody(c.RequestBody),
			Response:    describeBody(c.Response),
		}
		for _, p := range c.Parameters {
			d.Parameters = append(d.Parameters, parameterDoc{Name: p.Name, In: p.In, Required: p.Required, Schema: describeType(p.Type)})
		}
		if len(c.Examples) > 0 {
			d.Examples = make(map[string]any, len(c.Examples))
			for _, e := range c.Examples {
				d.Examples[e.Name] = datatypes.Plain(e.Value)
			}
		}
		docs = append(docs, d)
	}
	return yaml.Marshal(map[string]any{"contracts": docs})
}

// Sample returns a response body for the contract: its first example, or a
// generated value when it has none. Contracts without content return nil.
func (c *Contract) Sample() any {
	if c.Response == nil {
		return nil
	}
	if len(c.Examples) > 0 {
		return c.Examples[0].Value
	}
	return datatypes.Plain(c.Response.Type.RandomValue())
}
