package result

import (
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathBuilding(t *testing.T) {
	testCases := []struct {
		name     string
		build    func() Result[int]
		expected []string
	}{
		{
			name:     "root failure",
			build:    func() Result[int] { return Failure[int]("boom") },
			expected: []string{"boom"},
		},
		{
			name:     "property then property",
			build:    func() Result[int] { return FailureAtProperty[int]("id", "boom").ForProperty("user") },
			expected: []string{"user.id: boom"},
		},
		{
			name:     "index under property",
			build:    func() Result[int] { return FailureAtIndex[int](2, "boom").ForProperty("products").ForProperty("user") },
			expected: []string{"user.products[2]: boom"},
		},
		{
			name:     "property under index",
			build:    func() Result[int] { return FailureAtProperty[int]("name", "boom").ForIndex(0) },
			expected: []string{"[0].name: boom"},
		},
		{
			name:     "nested indexes",
			build:    func() Result[int] { return FailureAtIndex[int](1, "boom").ForIndex(3) },
			expected: []string{"[3][1]: boom"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.build().Messages())
		})
	}
}

func TestCombineWith(t *testing.T) {
	t.Run("both successes keep the receiver value", func(t *testing.T) {
		res := Success(1).CombineWith(Success(2))
		require.True(t, res.IsSuccess())
		assert.Equal(t, 1, res.Value())
	})

	t.Run("errors of both sides are kept", func(t *testing.T) {
		res := Failure[int]("a").CombineWith(Success(2)).CombineWith(Failure[int]("b", "c"))
		require.True(t, res.IsFailure())
		assert.Equal(t, []string{"a", "b", "c"}, res.Messages())
	})
}

func TestMapAndFlatMap(t *testing.T) {
	res := FlatMap(Success("42"), func(s string) Result[int] {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Failure[int](err.Error())
		}
		return Success(n)
	})
	require.True(t, res.IsSuccess())
	assert.Equal(t, "84", Map(res, func(n int) string { return strconv.Itoa(n * 2) }).Value())

	called := false
	failed := FlatMap(Failure[string]("nope"), func(string) Result[int] {
		called = true
		return Success(0)
	})
	assert.False(t, called)
	assert.Equal(t, []string{"nope"}, failed.Messages())
}

func TestMapErrorsAndRetype(t *testing.T) {
	res := FailureAtProperty[int]("id", "bad").MapErrors(func(m string) string { return "very " + m })
	assert.Equal(t, []string{"id: very bad"}, res.Messages())

	retyped := Retype[string](res)
	assert.True(t, retyped.IsFailure())
	assert.Equal(t, res.Errors(), retyped.Errors())

	assert.True(t, Retype[string](Success(3)).IsSuccess())
}

func TestAccumulate(t *testing.T) {
	items := []int{1, -2, 3, -4}
	res := Accumulate(items, func(i int, n int) Result[int] {
		if n < 0 {
			return FailureAtIndex[int](i, fmt.Sprintf("%d is negative", n))
		}
		return Success(n)
	})
	require.True(t, res.IsFailure())
	assert.Equal(t, []string{"[1]: -2 is negative", "[3]: -4 is negative"}, res.Messages())

	ok := Accumulate([]int{1, 2}, func(_ int, n int) Result[int] { return Success(n * 10) })
	assert.Equal(t, []int{10, 20}, ok.Value())
}

func TestAccumulateMap(t *testing.T) {
	m := map[string]int{"b": -1, "a": -2, "c": 3}
	res := AccumulateMap(m, func(k string, v int) Result[int] {
		if v < 0 {
			return FailureAtProperty[int](k, "negative")
		}
		return Success(v)
	})
	assert.Equal(t, []string{"a: negative", "b: negative"}, res.Messages())
}

func TestErr(t *testing.T) {
	assert.NoError(t, Success(1).Err())

	err := FailureAtProperty[int]("id", "bad").Err()
	require.Error(t, err)
	assert.Equal(t, "id: bad", err.Error())

	errs, ok := AsFailure(fmt.Errorf("wrapped: %w", err))
	require.True(t, ok)
	assert.Equal(t, []Error{{Path: "id", Message: "bad"}}, errs)

	_, ok = AsFailure(errors.New("plain"))
	assert.False(t, ok)
}
