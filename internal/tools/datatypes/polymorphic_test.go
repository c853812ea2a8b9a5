package datatypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krateoplatformops/oascontracts/internal/tools/result"
)

func TestOneOfWithoutDiscriminator(t *testing.T) {
	t.Run("exactly one match", func(t *testing.T) {
		dt := must(t, NewOneOf(Common{}, []DataType{requiredObject(t, "dog", "bark"), requiredObject(t, "cat", "meow")}, nil))
		res := dt.Validate(map[string]any{"bark": "woof"})
		assert.True(t, res.IsSuccess(), "%v", res.Messages())
	})

	t.Run("no match names every subtype", func(t *testing.T) {
		dt := must(t, NewOneOf(Common{}, []DataType{requiredObject(t, "dog", "bark"), requiredObject(t, "cat", "meow")}, nil))
		res := dt.Validate(map[string]any{"purr": "yes"})
		assert.Equal(t, []string{
			"no matching schema, value does not match: 'dog', 'cat'",
			"bark: is required (in schema 'dog')",
			"meow: is required (in schema 'cat')",
		}, res.Messages())
	})

	t.Run("two matches are ambiguous", func(t *testing.T) {
		dt := must(t, NewOneOf(Common{}, []DataType{requiredObject(t, "dog", "name"), requiredObject(t, "cat", "name")}, nil))
		res := dt.Validate(map[string]any{"name": "rex"})
		require.True(t, res.IsFailure())
		require.Len(t, res.Messages(), 1)
		msg := res.Messages()[0]
		assert.Contains(t, msg, "ambiguous match")
		assert.Contains(t, msg, "dog")
		assert.Contains(t, msg, "cat")
	})
}

func petTypes(t *testing.T) (dog, cat *ObjectDataType) {
	t.Helper()
	return requiredObject(t, "Dog", "petType", "bark"), requiredObject(t, "Cat", "petType", "meow")
}

func TestOneOfWithDiscriminator(t *testing.T) {
	dog, cat := petTypes(t)
	d := must(t, NewDiscriminator("petType", map[string]string{"dog": "Dog", "cat": "Cat"}))
	dt := must(t, NewOneOf(Common{Name: "Pet"}, []DataType{dog, cat}, d))

	testCases := []struct {
		name     string
		value    any
		expected []string
	}{
		{name: "mapped value", value: map[string]any{"petType": "dog", "bark": "woof"}},
		{name: "schema name as value", value: map[string]any{"petType": "Cat", "meow": "purr"}},
		{
			name:     "only the selected subtype is validated",
			value:    map[string]any{"petType": "cat", "bark": "woof"},
			expected: []string{"meow: is required"},
		},
		{
			name:     "missing value",
			value:    map[string]any{"bark": "woof"},
			expected: []string{"Discriminator property 'petType' is required"},
		},
		{
			name:     "unmapped value",
			value:    map[string]any{"petType": "bird"},
			expected: []string{"Discriminator property 'petType' value 'bird' does not match any of the schemas 'Dog', 'Cat'"},
		},
		{
			name:     "non string value",
			value:    map[string]any{"petType": 1},
			expected: []string{"Discriminator property 'petType' must be a string but was 1"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := dt.Validate(tc.value)
			if tc.expected == nil {
				assert.True(t, res.IsSuccess(), "%v", res.Messages())
				return
			}
			assert.Equal(t, tc.expected, res.Messages())
		})
	}
}

func TestAllOfWithDiscriminator(t *testing.T) {
	dog := requiredObject(t, "dog", "type")
	cat := requiredObject(t, "cat", "meow")
	d := must(t, NewDiscriminator("type", nil))
	dt := must(t, NewAllOf(Common{Name: "Pet"}, []DataType{dog, cat}, d))

	testCases := []struct {
		name     string
		value    any
		expected []string
	}{
		{name: "own name", value: map[string]any{"type": "Pet", "meow": "x"}},
		{
			name:     "missing discriminator",
			value:    map[string]any{"meow": "x"},
			expected: []string{"Discriminator property 'type' is required"},
		},
		{
			name:     "names neither subtype",
			value:    map[string]any{"type": "bird", "meow": "x"},
			expected: []string{"Discriminator property 'type' expected 'Pet' but was 'bird'"},
		},
		{
			name:  "every subtype is checked",
			value: map[string]any{"type": "Pet"},
			expected: []string{
				"no matching schema, value does not match: 'cat'",
				"meow: is required (in schema 'cat')",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := dt.Validate(tc.value)
			if tc.expected == nil {
				assert.True(t, res.IsSuccess(), "%v", res.Messages())
				return
			}
			assert.Equal(t, tc.expected, res.Messages())
		})
	}
}

func TestAllOfMappedDiscriminator(t *testing.T) {
	pet := requiredObject(t, "Pet", "petType")
	extra := requiredObject(t, "", "bark")
	d := must(t, NewDiscriminator("petType", map[string]string{"doggo": "Dog"}))
	dt := must(t, NewAllOf(Common{Name: "Dog"}, []DataType{pet, extra}, d))

	assert.True(t, dt.Validate(map[string]any{"petType": "doggo", "bark": "x"}).IsSuccess())
	assert.Equal(t,
		[]string{"Discriminator property 'petType' expected 'doggo' but was 'Cat'"},
		dt.Validate(map[string]any{"petType": "Cat", "bark": "x"}).Messages())

	for i := 0; i < 20; i++ {
		v := dt.RandomValue().(map[string]any)
		assert.Equal(t, "doggo", v["petType"])
	}
}

func TestNewPolymorphic(t *testing.T) {
	dog, cat := petTypes(t)
	str := must(t, NewString(Common{}, Unbounded()))
	list := must(t, NewArray(Common{}, str, Unbounded()))

	t.Run("scalar subtype", func(t *testing.T) {
		res := NewOneOf(Common{Name: "Pet"}, []DataType{dog, str}, nil)
		assert.Equal(t, []string{"[1]: subtype 'Inline Schema' of oneOf 'Pet' is not an object schema"}, res.Messages())
	})

	t.Run("array subtype", func(t *testing.T) {
		assert.True(t, NewAllOf(Common{}, []DataType{list}, nil).IsFailure())
	})

	t.Run("no subtypes", func(t *testing.T) {
		assert.Equal(t, []string{"anyOf 'Pet' has no subtypes"}, NewAnyOf(Common{Name: "Pet"}, nil, nil).Messages())
	})

	t.Run("mapping target outside the subtypes", func(t *testing.T) {
		d := must(t, NewDiscriminator("petType", map[string]string{"bird": "Bird"}))
		res := NewOneOf(Common{Name: "Pet"}, []DataType{dog, cat}, d)
		assert.Equal(t, []string{"discriminator mapping target 'Bird' is not one of the schemas 'Dog', 'Cat'"}, res.Messages())
	})

	t.Run("allOf with two subtypes declaring the discriminator", func(t *testing.T) {
		d := must(t, NewDiscriminator("petType", nil))
		res := NewAllOf(Common{Name: "Pet"}, []DataType{dog, cat}, d)
		assert.Equal(t, []string{"ambiguous discriminator, property 'petType' is declared by 'Dog', 'Cat'"}, res.Messages())
	})
}

func TestAnyOf(t *testing.T) {
	dt := must(t, NewAnyOf(Common{}, []DataType{requiredObject(t, "dog", "name"), requiredObject(t, "cat", "name")}, nil))
	assert.True(t, dt.Validate(map[string]any{"name": "rex"}).IsSuccess())
	assert.Equal(t,
		[]string{
			"no matching schema, value does not match: 'dog', 'cat'",
			"name: is required (in schema 'dog')",
			"name: is required (in schema 'cat')",
		},
		dt.Validate(map[string]any{}).Messages())
}

func TestReference(t *testing.T) {
	ref := NewReference("Node", true)

	assert.Equal(t, []string{"reference 'Node' is not resolved"}, ref.Validate(map[string]any{}).Messages())
	assert.True(t, ref.IsFullyStructured())
	assert.Nil(t, ref.RandomValue())
	assert.Same(t, DataType(ref), Resolve(ref))

	target := requiredObject(t, "Node", "id")
	require.NoError(t, ref.Bind(target))
	assert.Error(t, ref.Bind(target))

	assert.True(t, ref.Validate(map[string]any{"id": "a"}).IsSuccess())
	assert.True(t, ref.HasDiscriminatorProperty("id"))
	assert.Equal(t, "object", ref.OpenAPIType())
	assert.Same(t, DataType(target), Resolve(ref))
}

func TestRejectedKeys(t *testing.T) {
	testCases := []struct {
		name     string
		res      result.Result[any]
		expected map[string]bool
	}{
		{
			name:     "property paths",
			res:      result.FailureAtProperty[any]("status", "is required").CombineWith(result.Failure[any]("bad").ForIndex(2).ForProperty("tags")),
			expected: map[string]bool{"status": true, "tags": true},
		},
		{
			name:     "nested path",
			res:      result.Failure[any]("bad").ForProperty("city").ForProperty("address"),
			expected: map[string]bool{"address": true},
		},
		{
			name: "whole object",
			res:  result.FailureAtProperty[any]("status", "is required").CombineWith(result.Failure[any]("unexpected properties: x")),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, rejectedKeys(tc.res.Errors()))
		})
	}
}

func TestAllOfGenerationResolvesOverlaps(t *testing.T) {
	status := must(t, NewString(Common{}, Unbounded()))
	closed := must(t, NewString(Common{Enum: []any{"closed"}}, Unbounded()))
	dt := must(t, NewAllOf(Common{}, []DataType{
		narrowed(t, "Base", status),
		narrowed(t, "Closed", closed),
	}, nil))

	for i := 0; i < 50; i++ {
		v := dt.RandomValue()
		assert.Equal(t, map[string]any{"status": "closed"}, v)
	}
}
