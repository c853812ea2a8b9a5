// Package contracts turns the operations of an OpenAPI document into
// request/response contracts backed by DataTypes.
package contracts

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/gobuffalo/flect"

	"github.com/krateoplatformops/oascontracts/internal/tools/datatypes"
	hasher "github.com/krateoplatformops/oascontracts/internal/tools/hash"
	"github.com/krateoplatformops/oascontracts/internal/tools/oas2datatype"
)

// Parameter locations.
const (
	InPath   = "path"
	InQuery  = "query"
	InHeader = "header"
	InCookie = "cookie"
)

// Parameter is a request parameter of a contract.
type Parameter struct {
	Name     string
	In       string
	Required bool
	Type     datatypes.DataType
}

// Body is a request or response payload.
type Body struct {
	MediaType string
	Required  bool
	Type      datatypes.DataType
}

// Example is a response example that validates against the response type.
type Example struct {
	Name  string
	Value any
}

// Contract pairs what a request to an operation must look like with one of
// the responses the operation declares.
type Contract struct {
	ID          string
	Name        string
	Path        string
	Method      string
	OperationID string
	Parameters  []Parameter
	RequestBody *Body
	StatusCode  int
	// Response is nil when the response declares no content.
	Response *Body
	Examples []Example
}

// Parameter returns the parameter declared with name in location in.
func (c *Contract) Parameter(name, in string) (Parameter, bool) {
	for _, p := range c.Parameters {
		if p.Name == name && p.In == in {
			return p, true
		}
	}
	return Parameter{}, false
}

// Success reports whether the contract describes a 2xx response.
func (c *Contract) Success() bool {
	return c.StatusCode >= 200 && c.StatusCode < 300
}

// Config holds the settings of contract building.
type Config struct {
	// AcceptedMIMETypes lists the media types contracts are built for.
	AcceptedMIMETypes []string
	Conversion        *oas2datatype.Config
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		AcceptedMIMETypes: []string{"application/json"},
		Conversion:        oas2datatype.DefaultConfig(),
	}
}

// Set is the outcome of Build.
type Set struct {
	Contracts []Contract
	// Warnings are problems that did not prevent a contract from being built,
	// such as examples that do not match their schema.
	Warnings []error
}

// ForOperation returns the contracts of one path and method, lowest status
// code first.
func (s *Set) ForOperation(path, method string) []Contract {
	var out []Contract
	for _, c := range s.Contracts {
		if c.Path == path && c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Build enumerates every path, method, response status and accepted media
// type of doc. Schemas that cannot be converted fail the whole build.
func Build(doc oas2datatype.OASDocument, cfg *Config) (*Set, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	reg := oas2datatype.NewRegistry(cfg.Conversion)
	if err := reg.Load(doc); err != nil {
		return nil, fmt.Errorf("failed to load schemas: %w", err)
	}

	b := &builder{cfg: cfg, reg: reg, set: &Set{Warnings: doc.Warnings()}}
	for _, name := range reg.Names() {
		if err := oas2datatype.NewConversionError(name, reg.Named(name)); err != nil {
			b.errs = append(b.errs, err)
		}
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	for _, path := range doc.Paths() {
		item, ok := doc.FindPath(path)
		if !ok {
			continue
		}
		ops := item.GetOperations()
		methods := make([]string, 0, len(ops))
		for m := range ops {
			methods = append(methods, m)
		}
		sort.Strings(methods)
		for _, m := range methods {
			b.operation(path, m, ops[m])
		}
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	return b.set, nil
}

type builder struct {
	cfg  *Config
	reg  *oas2datatype.Registry
	set  *Set
	errs []error
}

func (b *builder) warn(format string, args ...any) {
	b.set.Warnings = append(b.set.Warnings, fmt.Errorf(format, args...))
}

func (b *builder) convert(where string, s *oas2datatype.Schema) datatypes.DataType {
	if s == nil {
		res := datatypes.NewAny(datatypes.Common{Nullable: true})
		return res.Value()
	}
	res := b.reg.Convert(s)
	if err := oas2datatype.NewConversionError(where, res); err != nil {
		b.errs = append(b.errs, err)
		return nil
	}
	return res.Value()
}

func (b *builder) accepted(content map[string]oas2datatype.MediaTypeInfo) []string {
	var out []string
	for mt := range content {
		if slices.Contains(b.cfg.AcceptedMIMETypes, mediaType(mt)) {
			out = append(out, mt)
		}
	}
	sort.Strings(out)
	return out
}

func (b *builder) operation(path, method string, op oas2datatype.Operation) {
	where := fmt.Sprintf("%s %s", method, path)

	var params []Parameter
	for _, p := range op.GetParameters() {
		dt := b.convert(fmt.Sprintf("%s parameter '%s'", where, p.Name), p.Schema)
		if dt == nil {
			continue
		}
		params = append(params, Parameter{
			Name:     p.Name,
			In:       p.In,
			Required: p.Required || p.In == InPath,
			Type:     dt,
		})
	}

	var request *Body
	if rb := op.GetRequestBody(); len(rb.Content) > 0 {
		accepted := b.accepted(rb.Content)
		if len(accepted) == 0 {
			b.warn("%s: request body has no accepted media type, operation is skipped", where)
			return
		}
		dt := b.convert(where+" request body", rb.Content[accepted[0]].Schema)
		if dt == nil {
			return
		}
		request = &Body{MediaType: accepted[0], Required: rb.Required, Type: dt}
	}

	responses := op.GetResponses()
	codes := make([]int, 0, len(responses))
	for code := range responses {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	for _, code := range codes {
		resp := responses[code]
		base := Contract{
			Name:        contractName(op.GetOperationID(), method, path, code),
			Path:        path,
			Method:      method,
			OperationID: op.GetOperationID(),
			Parameters:  params,
			RequestBody: request,
			StatusCode:  code,
		}
		if len(resp.Content) == 0 {
			b.add(base)
			continue
		}
		accepted := b.accepted(resp.Content)
		if len(accepted) == 0 {
			b.warn("%s: response %d has no accepted media type", where, code)
			continue
		}
		for _, mt := range accepted {
			c := base
			if len(accepted) > 1 {
				c.Name += flect.Pascalize(strings.ReplaceAll(mediaType(mt), "/", " "))
			}
			info := resp.Content[mt]
			dt := b.convert(fmt.Sprintf("%s response %d", where, code), info.Schema)
			if dt == nil {
				continue
			}
			c.Response = &Body{MediaType: mt, Type: dt}
			c.Examples = b.examples(c.Name, dt, info)
			b.add(c)
		}
	}
}

func (b *builder) add(c Contract) {
	id, err := contractID(c)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("contract '%s': %w", c.Name, err))
		return
	}
	c.ID = id
	b.set.Contracts = append(b.set.Contracts, c)
}

// examples returns the literal examples of a response that validate against
// dt, in name order. The single example keyword is named "example".
func (b *builder) examples(contract string, dt datatypes.DataType, info oas2datatype.MediaTypeInfo) []Example {
	candidates := map[string]any{}
	if info.Example != nil {
		candidates["example"] = info.Example
	}
	for k, v := range info.Examples {
		candidates[k] = v
	}
	names := make([]string, 0, len(candidates))
	for k := range candidates {
		names = append(names, k)
	}
	sort.Strings(names)

	var out []Example
	for _, name := range names {
		res := dt.Validate(candidates[name])
		if res.IsFailure() {
			b.warn("contract '%s': example '%s' is invalid: %s", contract, name, strings.Join(res.Messages(), "; "))
			continue
		}
		out = append(out, Example{Name: name, Value: candidates[name]})
	}
	return out
}

// mediaType strips parameters such as charset.
func mediaType(mt string) string {
	mt, _, _ = strings.Cut(mt, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

func contractName(operationID, method, path string, code int) string {
	base := operationID
	if base == "" {
		base = strings.ToLower(method) + " " + strings.NewReplacer("/", " ", "{", " ", "}", " ").Replace(path)
	}
	return fmt.Sprintf("%s%d", flect.Pascalize(base), code)
}

func contractID(c Contract) (string, error) {
	mt := ""
	if c.Response != nil {
		mt = c.Response.MediaType
	}
	return hasher.Key([]any{c.Path, c.Method, c.StatusCode, mt})
}
