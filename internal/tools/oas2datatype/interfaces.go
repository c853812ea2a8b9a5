package oas2datatype

// OASDocument defines the contract for accessing an OpenAPI specification.
type OASDocument interface {
	Paths() []string // Declaration order.
	FindPath(path string) (PathItem, bool)
	Schemas() []NamedSchema // The schemas under components, in declaration order.
	Warnings() []error      // Problems that did not prevent the document from loading.
}

// PathItem defines the contract for a single API path.
type PathItem interface {
	GetOperations() map[string]Operation
}

// Operation defines the contract for a single API operation.
type Operation interface {
	GetOperationID() string
	GetParameters() []ParameterInfo     // There can be multiple parameters for an operation.
	GetRequestBody() RequestBodyInfo    // There is only one request body per operation.
	GetResponses() map[int]ResponseInfo // The keys are HTTP status codes and therefore there could be multiple responses.
}
