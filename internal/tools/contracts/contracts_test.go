package contracts

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krateoplatformops/oascontracts/internal/tools/datatypes"
	"github.com/krateoplatformops/oascontracts/internal/tools/oas2datatype"
)

const store = `
openapi: 3.0.3
info:
  title: Store
  version: "1"
paths:
  /pets/{petId}:
    get:
      operationId: getPet
      parameters:
        - name: petId
          in: path
          required: true
          schema:
            type: integer
            minimum: 1
        - name: fields
          in: query
          schema:
            type: array
            items:
              type: string
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: "#/components/schemas/Pet"
              examples:
                good:
                  value:
                    id: 1
                    name: Rex
                bad:
                  value:
                    id: one
            application/xml:
              schema:
                $ref: "#/components/schemas/Pet"
        "404":
          description: missing
    delete:
      responses:
        "204":
          description: gone
  /pets:
    post:
      operationId: createPet
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: "#/components/schemas/Pet"
      responses:
        "201":
          description: created
          content:
            application/json; charset=utf-8:
              schema:
                $ref: "#/components/schemas/Pet"
              example:
                id: 2
                name: Tom
  /upload:
    put:
      requestBody:
        content:
          text/plain:
            schema:
              type: string
      responses:
        "200":
          description: ok
components:
  schemas:
    Pet:
      type: object
      required: [id, name]
      properties:
        id:
          type: integer
        name:
          type: string
`

func build(t *testing.T, content string) *Set {
	t.Helper()
	doc, err := oas2datatype.Parse([]byte(content))
	require.NoError(t, err)
	set, err := Build(doc, nil)
	require.NoError(t, err)
	return set
}

func TestBuild(t *testing.T) {
	set := build(t, store)
	require.Len(t, set.Contracts, 4)

	t.Run("contracts follow path, method and status order", func(t *testing.T) {
		var got []string
		for _, c := range set.Contracts {
			got = append(got, c.Method+" "+c.Path)
		}
		assert.Equal(t, []string{
			"DELETE /pets/{petId}",
			"GET /pets/{petId}",
			"GET /pets/{petId}",
			"POST /pets",
		}, got)
	})

	t.Run("get contracts", func(t *testing.T) {
		get := set.ForOperation("/pets/{petId}", "GET")
		require.Len(t, get, 2)

		ok := get[0]
		assert.Equal(t, "GetPet200", ok.Name)
		assert.Equal(t, "getPet", ok.OperationID)
		assert.True(t, ok.Success())
		require.NotNil(t, ok.Response)
		assert.Equal(t, "application/json", ok.Response.MediaType)
		assert.Equal(t, "Pet", ok.Response.Type.Name())
		require.Len(t, ok.Examples, 1)
		assert.Equal(t, "good", ok.Examples[0].Name)

		petID, found := ok.Parameter("petId", InPath)
		require.True(t, found)
		assert.True(t, petID.Required)
		assert.Equal(t, datatypes.KindInteger, petID.Type.Kind())
		fields, found := ok.Parameter("fields", InQuery)
		require.True(t, found)
		assert.False(t, fields.Required)

		missing := get[1]
		assert.Equal(t, "GetPet404", missing.Name)
		assert.False(t, missing.Success())
		assert.Nil(t, missing.Response)
		assert.NotEqual(t, ok.ID, missing.ID)
	})

	t.Run("operations without id are named after method and path", func(t *testing.T) {
		del := set.ForOperation("/pets/{petId}", "DELETE")
		require.Len(t, del, 1)
		assert.True(t, strings.HasPrefix(del[0].Name, "DeletePets"), del[0].Name)
		assert.True(t, strings.HasSuffix(del[0].Name, "204"), del[0].Name)
	})

	t.Run("media type parameters are ignored", func(t *testing.T) {
		post := set.ForOperation("/pets", "POST")
		require.Len(t, post, 1)
		require.NotNil(t, post[0].RequestBody)
		assert.True(t, post[0].RequestBody.Required)
		assert.Equal(t, "application/json; charset=utf-8", post[0].Response.MediaType)
		assert.Equal(t, map[string]any{"id": 2, "name": "Tom"}, post[0].Sample())
	})

	t.Run("warnings", func(t *testing.T) {
		var msgs []string
		for _, w := range set.Warnings {
			msgs = append(msgs, w.Error())
		}
		joined := strings.Join(msgs, "\n")
		assert.Contains(t, joined, "contract 'GetPet200': example 'bad' is invalid")
		assert.Contains(t, joined, "PUT /upload: request body has no accepted media type, operation is skipped")
	})
}

func TestBuildFailures(t *testing.T) {
	doc, err := oas2datatype.Parse([]byte(`
openapi: 3.0.3
info:
  title: Broken
  version: "1"
paths:
  /things:
    get:
      parameters:
        - name: limit
          in: query
          schema:
            type: integer
            minimum: 5
            maximum: 1
      responses:
        "200":
          description: ok
components:
  schemas:
    Bad:
      type: object
      required: [missing]
      properties:
        present:
          type: string
`))
	require.NoError(t, err)

	_, err = Build(doc, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema 'Bad' is invalid: required property 'missing' of 'Bad' is not declared")
}

func TestSample(t *testing.T) {
	set := build(t, store)
	get := set.ForOperation("/pets/{petId}", "GET")

	assert.Equal(t, map[string]any{"id": 1, "name": "Rex"}, get[0].Sample())
	assert.Nil(t, get[1].Sample())

	generated := get[0]
	generated.Examples = nil
	v := generated.Sample()
	assert.True(t, generated.Response.Type.Validate(v).IsSuccess(), "%v", v)
}

func TestCoerce(t *testing.T) {
	integer := datatypes.NewInteger(datatypes.Common{}, datatypes.Range{}).Value()
	boolean := datatypes.NewBoolean(datatypes.Common{}).Value()
	array := datatypes.NewArray(datatypes.Common{}, integer, datatypes.Range{}).Value()
	str := datatypes.NewString(datatypes.Common{}, datatypes.Range{}).Value()

	testCases := []struct {
		name     string
		dt       datatypes.DataType
		raw      string
		expected any
	}{
		{name: "integer", dt: integer, raw: "42", expected: decimal.NewFromInt(42)},
		{name: "not a number stays text", dt: integer, raw: "forty", expected: "forty"},
		{name: "boolean", dt: boolean, raw: "true", expected: true},
		{name: "array", dt: array, raw: "1,2", expected: []any{decimal.NewFromInt(1), decimal.NewFromInt(2)}},
		{name: "empty array", dt: array, raw: "", expected: []any{}},
		{name: "string", dt: str, raw: "42", expected: "42"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Coerce(tc.dt, tc.raw))
		})
	}

	t.Run("coerced values validate", func(t *testing.T) {
		assert.True(t, integer.Validate(Coerce(integer, "7")).IsSuccess())
		assert.True(t, array.Validate(Coerce(array, "1,2,3")).IsSuccess())
	})
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "42", Format(decimal.NewFromInt(42)))
	assert.Equal(t, "1.5", Format(1.5))
	assert.Equal(t, "true", Format(true))
	assert.Equal(t, "a,2", Format([]any{"a", decimal.NewFromInt(2)}))
	assert.Equal(t, "", Format(nil))
	assert.Equal(t, `{"a":1}`, Format(map[string]any{"a": 1}))
}

func TestYAML(t *testing.T) {
	set := build(t, store)

	out, err := set.YAML()
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "name: GetPet200")
	assert.Contains(t, s, "path: /pets/{petId}")
	assert.Contains(t, s, "kind: integer")
	assert.Contains(t, s, "mediaType: application/json")
	assert.Contains(t, s, "good:")
}
