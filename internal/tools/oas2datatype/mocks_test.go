package oas2datatype

// Note: File named in this way to avoid warnings about unused imports.

// --- Mock Implementations ---

// mockOperation implements the Operation interface for testing.
type mockOperation struct {
	ID          string
	Parameters  []ParameterInfo
	RequestBody RequestBodyInfo
	Responses   map[int]ResponseInfo
}

func (m *mockOperation) GetOperationID() string             { return m.ID }
func (m *mockOperation) GetParameters() []ParameterInfo     { return m.Parameters }
func (m *mockOperation) GetRequestBody() RequestBodyInfo    { return m.RequestBody }
func (m *mockOperation) GetResponses() map[int]ResponseInfo { return m.Responses }

// mockPathItem implements the PathItem interface for testing.
type mockPathItem struct {
	Ops map[string]Operation
}

func (m *mockPathItem) GetOperations() map[string]Operation { return m.Ops }

// mockOASDocument implements the OASDocument interface for testing.
type mockOASDocument struct {
	PathOrder []string
	PathItems map[string]*mockPathItem
	Named     []NamedSchema
}

func (m *mockOASDocument) Paths() []string { return m.PathOrder }

func (m *mockOASDocument) FindPath(path string) (PathItem, bool) {
	p, ok := m.PathItems[path]
	return p, ok
}

func (m *mockOASDocument) Schemas() []NamedSchema { return m.Named }
func (m *mockOASDocument) Warnings() []error      { return nil }

// schemas builds a document holding only the given named schemas, in the
// order given as name, schema pairs.
func schemas(pairs ...any) *mockOASDocument {
	doc := &mockOASDocument{}
	for i := 0; i+1 < len(pairs); i += 2 {
		doc.Named = append(doc.Named, NamedSchema{Name: pairs[i].(string), Schema: pairs[i+1].(*Schema)})
	}
	return doc
}

func ref(name string) *Schema { return &Schema{Ref: name} }

func typed(t string) *Schema { return &Schema{Type: []string{t}} }

func f64(v float64) *float64 { return &v }

func i64(v int64) *int64 { return &v }

func boolPtr(v bool) *bool { return &v }
