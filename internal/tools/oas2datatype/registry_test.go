package oas2datatype

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krateoplatformops/oascontracts/internal/tools/datatypes"
	"github.com/krateoplatformops/oascontracts/internal/tools/result"
)

func loaded(t *testing.T, cfg *Config, doc OASDocument) *Registry {
	t.Helper()
	r := NewRegistry(cfg)
	require.NoError(t, r.Load(doc))
	return r
}

func petDocument() *mockOASDocument {
	return schemas(
		"Pet", &Schema{
			OneOf: []*Schema{ref("Dog"), ref("Cat")},
			Discriminator: &Discriminator{
				PropertyName: "petType",
				Mapping: map[string]string{
					"dog": "#/components/schemas/Dog",
					"cat": "Cat",
				},
			},
		},
		"Dog", &Schema{AllOf: []*Schema{
			ref("Pet"),
			{
				Type: []string{"object"},
				Properties: []Property{
					{Name: "petType", Schema: typed("string")},
					{Name: "bark", Schema: typed("boolean")},
				},
				Required: []string{"petType", "bark"},
			},
		}},
		"Cat", &Schema{
			Type: []string{"object"},
			Properties: []Property{
				{Name: "petType", Schema: typed("string")},
				{Name: "lives", Schema: &Schema{Type: []string{"integer"}, Minimum: f64(1), Maximum: f64(9)}},
			},
			Required: []string{"petType"},
		},
	)
}

func nested(levels int) *Schema {
	s := typed("string")
	for i := 0; i < levels; i++ {
		s = &Schema{Type: []string{"object"}, Properties: []Property{{Name: "child", Schema: s}}}
	}
	return s
}

func TestRegistryLoad(t *testing.T) {
	t.Run("keeps declaration order and reduces $ref mapping targets", func(t *testing.T) {
		r := loaded(t, nil, petDocument())

		assert.Equal(t, []string{"Pet", "Dog", "Cat"}, r.Names())
		d, ok := r.Discriminator("Pet")
		require.True(t, ok)
		assert.Equal(t, map[string]string{"dog": "Dog", "cat": "Cat"}, d.Mapping())

		_, ok = r.Discriminator("Cat")
		assert.False(t, ok)
		s, ok := r.Schema("Cat")
		require.True(t, ok)
		assert.True(t, s.hasType("object"))
	})

	t.Run("reports every broken declaration", func(t *testing.T) {
		doc := schemas(
			"A", typed("string"),
			"A", typed("integer"),
			"B", (*Schema)(nil),
			"C", &Schema{OneOf: []*Schema{ref("A")}, Discriminator: &Discriminator{}},
		)
		err := NewRegistry(nil).Load(doc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema 'A' is declared twice")
		assert.Contains(t, err.Error(), "schema 'B' could not be read")
		assert.Contains(t, err.Error(), "schema 'C' is invalid: discriminator property name must not be empty")
	})
}

func TestRegistryDiscriminator(t *testing.T) {
	r := loaded(t, nil, petDocument())
	res := r.Named("Pet")
	require.True(t, res.IsSuccess(), res.Messages())
	pet := res.Value()
	require.Equal(t, datatypes.KindOneOf, pet.Kind())

	testCases := []struct {
		name     string
		value    map[string]any
		expected []string
	}{
		{
			name:  "dog",
			value: map[string]any{"petType": "dog", "bark": true},
		},
		{
			name:  "cat",
			value: map[string]any{"petType": "cat", "lives": 7},
		},
		{
			name:     "cat with too many lives",
			value:    map[string]any{"petType": "cat", "lives": 10},
			expected: []string{"lives: value 10 is outside of range [1, 9]"},
		},
		{
			name:     "unknown pet",
			value:    map[string]any{"petType": "bird"},
			expected: []string{"Discriminator property 'petType' value 'bird' does not match any of the schemas 'Dog', 'Cat'"},
		},
		{
			name:     "missing discriminator",
			value:    map[string]any{"bark": true},
			expected: []string{"Discriminator property 'petType' is required"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := pet.Validate(tc.value)
			if tc.expected == nil {
				assert.True(t, res.IsSuccess(), res.Messages())
				return
			}
			assert.Equal(t, tc.expected, res.Messages())
		})
	}

	t.Run("a dog checks its own discriminator value", func(t *testing.T) {
		dog := r.Named("Dog")
		require.True(t, dog.IsSuccess(), dog.Messages())
		assert.Equal(t, datatypes.KindAllOf, dog.Value().Kind())

		res := dog.Value().Validate(map[string]any{"petType": "cat", "bark": true})
		assert.Equal(t, []string{"Discriminator property 'petType' expected 'dog' but was 'cat'"}, res.Messages())
	})

	t.Run("generated pets are valid and tagged", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			v, ok := pet.RandomValue().(map[string]any)
			require.True(t, ok)
			assert.Contains(t, []any{"dog", "cat"}, v["petType"])
			assert.True(t, pet.Validate(v).IsSuccess(), "%v", v)
		}
	})
}

func TestRegistryCycles(t *testing.T) {
	doc := schemas("Node", &Schema{
		Type: []string{"object"},
		Properties: []Property{
			{Name: "value", Schema: typed("integer")},
			{Name: "children", Schema: &Schema{Type: []string{"array"}, Items: ref("Node")}},
		},
		Required: []string{"value"},
	})
	r := loaded(t, nil, doc)

	res := r.Named("Node")
	require.True(t, res.IsSuccess(), res.Messages())
	node := res.Value()

	t.Run("named schemas are shared", func(t *testing.T) {
		again := r.Named("Node")
		assert.Same(t, node, again.Value())

		items := node.(*datatypes.ObjectDataType)
		children, ok := items.Property("children")
		require.True(t, ok)
		inner := children.(*datatypes.ArrayDataType).Items()
		assert.Equal(t, datatypes.KindReference, inner.Kind())
		assert.Same(t, node, datatypes.Resolve(inner))
	})

	t.Run("validates nested values", func(t *testing.T) {
		valid := map[string]any{"value": 1, "children": []any{
			map[string]any{"value": 2, "children": []any{map[string]any{"value": 3}}},
		}}
		assert.True(t, node.Validate(valid).IsSuccess())

		invalid := map[string]any{"value": 1, "children": []any{map[string]any{"children": []any{}}}}
		assert.Equal(t, []string{"children[0].value: is required"}, node.Validate(invalid).Messages())
	})

	t.Run("generation terminates with valid values", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			assert.True(t, node.Validate(node.RandomValue()).IsSuccess())
		}
	})
}

func TestRegistryLimits(t *testing.T) {
	t.Run("depth beyond the ceiling fails and is not cached", func(t *testing.T) {
		r := loaded(t, nil, schemas("Deep", nested(DefaultMaxRecursiveDepth+5)))

		res := r.Named("Deep")
		require.True(t, res.IsFailure())
		require.Len(t, res.Errors(), 1)
		assert.Equal(t, "maximum recursive depth reached", res.Errors()[0].Message)
		assert.True(t, strings.HasPrefix(res.Errors()[0].Path, "child.child"))
		_, cached := r.failures["Deep"]
		assert.False(t, cached)
	})

	t.Run("depth within the ceiling succeeds", func(t *testing.T) {
		r := loaded(t, nil, schemas("Deep", nested(DefaultMaxRecursiveDepth-1)))
		assert.True(t, r.Named("Deep").IsSuccess())
	})

	t.Run("node budget", func(t *testing.T) {
		props := make([]Property, 10)
		for i := range props {
			props[i] = Property{Name: fmt.Sprintf("p%d", i), Schema: typed("string")}
		}
		r := NewRegistry(&Config{MaxRecursiveDepth: 10, MaxNodes: 5})

		res := r.Convert(&Schema{Type: []string{"object"}, Properties: props})
		require.True(t, res.IsFailure())
		assert.Contains(t, res.Messages(), "p5: maximum number of schema nodes reached")
	})
}

func TestRegistryFailures(t *testing.T) {
	doc := schemas(
		"Good", &Schema{Type: []string{"object"}, Properties: []Property{{Name: "x", Schema: typed("string")}}},
		"Bad", &Schema{Type: []string{"object"}, Properties: []Property{
			{Name: "good", Schema: ref("Good")},
			{Name: "broken", Schema: typed("file")},
		}},
		"UsesBad", &Schema{Type: []string{"array"}, Items: ref("Bad")},
	)
	r := loaded(t, nil, doc)

	res := r.Named("Bad")
	require.True(t, res.IsFailure())
	assert.Equal(t, []string{"broken: unsupported type 'file'"}, res.Messages())

	_, kept := r.types["Good"]
	assert.False(t, kept, "types converted during a failed conversion are dropped")
	assert.Contains(t, r.failures, "Bad")

	assert.Equal(t, []string{"items.broken: unsupported type 'file'"}, r.Named("UsesBad").Messages())
	assert.True(t, r.Named("Good").IsSuccess())
}

func TestNewConversionError(t *testing.T) {
	r := loaded(t, nil, schemas("Bad", typed("file")))

	assert.NoError(t, NewConversionError("Good", NewRegistry(nil).Convert(typed("string"))))

	err := NewConversionError("Bad", r.Named("Bad"))
	var ce *ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Bad", ce.Schema)
	assert.EqualError(t, err, "schema 'Bad' is invalid: unsupported type 'file'")

	errs, ok := result.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, []result.Error{{Message: "unsupported type 'file'"}}, errs)
}

func TestRegistryVisited(t *testing.T) {
	r := loaded(t, nil, schemas("Pair", &Schema{
		Type: []string{"object"},
		Properties: []Property{
			{Name: "left", Schema: typed("string")},
			{Name: "right", Schema: typed("integer")},
		},
	}))

	require.True(t, r.Named("Pair").IsSuccess())
	assert.Equal(t, int32(3), r.Visited())

	require.True(t, r.Convert(typed("boolean")).IsSuccess())
	assert.Equal(t, int32(1), r.Visited())
}
