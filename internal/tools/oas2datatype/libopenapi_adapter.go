package oas2datatype

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pb33f/libopenapi"
	"github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
	"github.com/pb33f/libopenapi/index"
	"gopkg.in/yaml.v3"
)

const componentSchemaPrefix = "#/components/schemas/"

// Parse takes raw OpenAPI specification content and returns a document
// that conforms to the OASDocument interface. Circular references are not
// an error: references to named schemas are kept as references and resolved
// through the Registry.
func Parse(content []byte) (OASDocument, error) {
	d, err := libopenapi.NewDocument(content)
	if err != nil {
		return nil, ParserError{
			Code:    CodeDocumentCreationError,
			Message: "failed to create new libopenapi document",
			Err:     err,
		}
	}
	if v := d.GetVersion(); !strings.HasPrefix(v, "3.") {
		return nil, ParserError{
			Code:    CodeUnsupportedVersion,
			Message: fmt.Sprintf("unsupported OpenAPI version '%s', only 3.x documents are supported", v),
		}
	}

	doc, modelErrors := d.BuildV3Model()
	var warnings, fatal []error
	for _, e := range modelErrors {
		if isCircularReference(e) {
			warnings = append(warnings, e)
			continue
		}
		fatal = append(fatal, e)
	}
	if len(fatal) > 0 {
		return nil, ParserError{
			Code:    CodeModelBuildError,
			Message: "failed to build V3 model",
			Err:     errors.Join(fatal...),
		}
	}
	if doc == nil {
		return nil, ParserError{
			Code:    CodeModelBuildError,
			Message: "resulting document was nil after building model",
		}
	}

	return NewLibOASDocumentAdapter(doc, warnings...), nil
}

func isCircularReference(err error) bool {
	var re *index.ResolvingError
	if errors.As(err, &re) && re.CircularReference != nil {
		return true
	}
	return strings.Contains(err.Error(), "circular reference")
}

// componentName returns the schema name of a "#/components/schemas/<name>"
// reference.
func componentName(ref string) (string, bool) {
	if !strings.HasPrefix(ref, componentSchemaPrefix) {
		return "", false
	}
	return strings.TrimPrefix(ref, componentSchemaPrefix), true
}

// --- Adapter Implementation ---

type libOASDocumentAdapter struct {
	doc      *libopenapi.DocumentModel[v3.Document]
	warnings []error
}

// We implement the OASDocument interface for the libopenapi DocumentModel
func NewLibOASDocumentAdapter(doc *libopenapi.DocumentModel[v3.Document], warnings ...error) OASDocument {
	return &libOASDocumentAdapter{doc: doc, warnings: warnings}
}

func (a *libOASDocumentAdapter) warn(err error) {
	a.warnings = append(a.warnings, err)
}

func (a *libOASDocumentAdapter) Warnings() []error {
	return append([]error(nil), a.warnings...)
}

func (a *libOASDocumentAdapter) Paths() []string {
	if a.doc.Model.Paths == nil || a.doc.Model.Paths.PathItems == nil {
		return nil
	}
	var paths []string
	for pair := a.doc.Model.Paths.PathItems.First(); pair != nil; pair = pair.Next() {
		paths = append(paths, pair.Key())
	}
	return paths
}

func (a *libOASDocumentAdapter) FindPath(path string) (PathItem, bool) {
	if a.doc.Model.Paths == nil || a.doc.Model.Paths.PathItems == nil {
		return nil, false
	}
	p, ok := a.doc.Model.Paths.PathItems.Get(path)
	if !ok {
		return nil, false
	}
	return &libOASPathItemAdapter{doc: a, path: p}, true
}

func (a *libOASDocumentAdapter) Schemas() []NamedSchema {
	if a.doc.Model.Components == nil || a.doc.Model.Components.Schemas == nil {
		return nil
	}
	var schemas []NamedSchema
	for pair := a.doc.Model.Components.Schemas.First(); pair != nil; pair = pair.Next() {
		schemas = append(schemas, NamedSchema{
			Name:   pair.Key(),
			Schema: a.convertSchema(pair.Value()),
		})
	}
	return schemas
}

type libOASPathItemAdapter struct {
	doc  *libOASDocumentAdapter
	path *v3.PathItem
}

func (a *libOASPathItemAdapter) GetOperations() map[string]Operation {
	ops := make(map[string]Operation)
	rawOps := a.path.GetOperations()
	if rawOps == nil {
		return ops
	}
	for pair := rawOps.First(); pair != nil; pair = pair.Next() {
		ops[strings.ToUpper(pair.Key())] = &libOASOperationAdapter{
			doc:        a.doc,
			op:         pair.Value(),
			pathParams: a.path.Parameters,
		}
	}
	return ops
}

type libOASOperationAdapter struct {
	doc        *libOASDocumentAdapter
	op         *v3.Operation
	pathParams []*v3.Parameter
}

func (a *libOASOperationAdapter) GetOperationID() string {
	return a.op.OperationId
}

// GetParameters merges path level and operation level parameters. The
// operation wins when both declare the same name and location.
func (a *libOASOperationAdapter) GetParameters() []ParameterInfo {
	type key struct{ name, in string }
	seen := make(map[key]int)
	var params []ParameterInfo
	for _, p := range append(append([]*v3.Parameter(nil), a.pathParams...), a.op.Parameters...) {
		if p == nil {
			continue
		}
		info := ParameterInfo{
			Name:        p.Name,
			In:          p.In,
			Description: p.Description,
			Required:    p.Required != nil && *p.Required,
			Schema:      a.doc.convertSchema(p.Schema),
			Example:     a.doc.decode(p.Example),
		}
		k := key{p.Name, p.In}
		if i, ok := seen[k]; ok {
			params[i] = info
			continue
		}
		seen[k] = len(params)
		params = append(params, info)
	}
	return params
}

func (a *libOASOperationAdapter) GetRequestBody() RequestBodyInfo {
	if a.op.RequestBody == nil || a.op.RequestBody.Content == nil {
		return RequestBodyInfo{}
	}
	content := make(map[string]MediaTypeInfo)
	for pair := a.op.RequestBody.Content.First(); pair != nil; pair = pair.Next() {
		content[pair.Key()] = a.doc.convertMediaType(pair.Value())
	}
	return RequestBodyInfo{
		Required: a.op.RequestBody.Required != nil && *a.op.RequestBody.Required,
		Content:  content,
	}
}

func (a *libOASOperationAdapter) GetResponses() map[int]ResponseInfo {
	if a.op.Responses == nil || a.op.Responses.Codes == nil {
		return nil
	}
	responses := make(map[int]ResponseInfo)
	for pair := a.op.Responses.Codes.First(); pair != nil; pair = pair.Next() {
		code, err := strconv.Atoi(pair.Key())
		if err != nil {
			a.doc.warn(fmt.Errorf("operation '%s': response code '%s' is not a number and is skipped", a.op.OperationId, pair.Key()))
			continue
		}
		content := make(map[string]MediaTypeInfo)
		if pair.Value().Content != nil {
			for contentPair := pair.Value().Content.First(); contentPair != nil; contentPair = contentPair.Next() {
				content[contentPair.Key()] = a.doc.convertMediaType(contentPair.Value())
			}
		}
		responses[code] = ResponseInfo{Description: pair.Value().Description, Content: content}
	}
	return responses
}

// --- Conversion Utilities ---

func (a *libOASDocumentAdapter) convertMediaType(mt *v3.MediaType) MediaTypeInfo {
	if mt == nil {
		return MediaTypeInfo{}
	}
	info := MediaTypeInfo{
		Schema:  a.convertSchema(mt.Schema),
		Example: a.decode(mt.Example),
	}
	if mt.Examples != nil {
		info.Examples = make(map[string]any)
		for pair := mt.Examples.First(); pair != nil; pair = pair.Next() {
			if pair.Value() == nil {
				continue
			}
			info.Examples[pair.Key()] = a.decode(pair.Value().Value)
		}
	}
	return info
}

func (a *libOASDocumentAdapter) decode(node *yaml.Node) any {
	if node == nil {
		return nil
	}
	var v any
	if err := node.Decode(&v); err != nil {
		a.warn(fmt.Errorf("failed to decode value at line %d: %w", node.Line, err))
		return nil
	}
	return v
}

func (a *libOASDocumentAdapter) convertSchema(proxy *base.SchemaProxy) (domainSchema *Schema) {
	// Gracefully handle panics from the underlying library, which can occur with
	// invalid schemas (e.g., dangling references).
	defer func() {
		if r := recover(); r != nil {
			a.warn(fmt.Errorf("schema conversion panic: %v", r))
			domainSchema = nil
		}
	}()

	if proxy == nil {
		return nil
	}

	if proxy.IsReference() {
		if name, ok := componentName(proxy.GetReference()); ok {
			return &Schema{Ref: name}
		}
	}

	s, err := proxy.BuildSchema()
	if err != nil {
		a.warn(fmt.Errorf("schema build error: %w", err))
		return nil
	}

	if s == nil {
		return nil
	}

	domainSchema = &Schema{
		Type:        s.Type,
		Format:      s.Format,
		Description: s.Description,
		Required:    s.Required,
		Example:     a.decode(s.Example),
		Minimum:     s.Minimum,
		Maximum:     s.Maximum,
		MinLength:   s.MinLength,
		MaxLength:   s.MaxLength,
		MinItems:    s.MinItems,
		MaxItems:    s.MaxItems,
	}
	if s.Nullable != nil {
		domainSchema.Nullable = *s.Nullable
	}

	// Exclusive bounds are booleans in OAS 3.0 and numbers in OAS 3.1.
	if em := s.ExclusiveMinimum; em != nil {
		switch {
		case em.IsA():
			domainSchema.ExclusiveMinimum = em.A
		case em.IsB():
			if domainSchema.Minimum == nil || em.B >= *domainSchema.Minimum {
				v := em.B
				domainSchema.Minimum = &v
				domainSchema.ExclusiveMinimum = true
			}
		}
	}
	if em := s.ExclusiveMaximum; em != nil {
		switch {
		case em.IsA():
			domainSchema.ExclusiveMaximum = em.A
		case em.IsB():
			if domainSchema.Maximum == nil || em.B <= *domainSchema.Maximum {
				v := em.B
				domainSchema.Maximum = &v
				domainSchema.ExclusiveMaximum = true
			}
		}
	}

	if s.Enum != nil {
		domainSchema.Enum = make([]any, 0, len(s.Enum))
		for _, node := range s.Enum {
			domainSchema.Enum = append(domainSchema.Enum, a.decode(node))
		}
	}

	// AdditionalProperties handling for both OAS 3.0/3.1
	if s.AdditionalProperties != nil {
		switch {
		case s.AdditionalProperties.IsB():
			allowed := s.AdditionalProperties.B
			domainSchema.AdditionalPropertiesAllowed = &allowed
		case s.AdditionalProperties.IsA():
			domainSchema.AdditionalPropertiesSchema = a.convertSchema(s.AdditionalProperties.A)
		}
	}

	// Properties handling
	if s.Properties != nil {
		for pair := s.Properties.First(); pair != nil; pair = pair.Next() {
			domainSchema.Properties = append(domainSchema.Properties, Property{
				Name:   pair.Key(),
				Schema: a.convertSchema(pair.Value()),
			})
		}
	}

	// Items handling, OAS 3.1 tuple items are not supported
	if s.Items != nil && s.Items.IsA() {
		domainSchema.Items = a.convertSchema(s.Items.A)
	}

	for _, p := range s.AllOf {
		domainSchema.AllOf = append(domainSchema.AllOf, a.convertSchema(p))
	}
	for _, p := range s.OneOf {
		domainSchema.OneOf = append(domainSchema.OneOf, a.convertSchema(p))
	}
	for _, p := range s.AnyOf {
		domainSchema.AnyOf = append(domainSchema.AnyOf, a.convertSchema(p))
	}

	if d := s.Discriminator; d != nil {
		domainSchema.Discriminator = &Discriminator{PropertyName: d.PropertyName}
		if d.Mapping != nil {
			domainSchema.Discriminator.Mapping = make(map[string]string)
			for pair := d.Mapping.First(); pair != nil; pair = pair.Next() {
				domainSchema.Discriminator.Mapping[pair.Key()] = pair.Value()
			}
		}
	}

	return domainSchema
}
