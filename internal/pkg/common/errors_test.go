package common

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zinc-compiler/internal/pkg/ast"
)

func TestErrorAtLocation(t *testing.T) {
	err := NewErrorAt(ast.NewLocation("model.yaml", 3, 7), "undefined identifier `%s`", "y")
	assert.EqualError(t, err, "model.yaml:3:7 undefined identifier `y`")

	var located Error
	require.True(t, errors.As(err, &located))
	assert.Equal(t, "undefined identifier `y`", located.Message)
}

func TestRecoverTurnsAssertionsIntoErrors(t *testing.T) {
	run := func() (err error) {
		defer Recover(&err)
		Assert(1 > 2, "one is not greater than %d", 2)
		return nil
	}
	err := run()
	require.Error(t, err)
	assert.True(t, errors.IsAssertionFailure(err))
	assert.Contains(t, err.Error(), "internal compiler error")
	assert.Contains(t, err.Error(), "one is not greater than 2")

	var located Error
	assert.False(t, errors.As(err, &located))
}

func TestRecoverReturnsUserErrors(t *testing.T) {
	run := func() (err error) {
		defer Recover(&err)
		Fail(ast.NewLocation("model.yaml", 4, 5), "lambda `%s` captures `%s`", "inc", "k")
		return nil
	}
	err := run()
	require.Error(t, err)
	assert.False(t, errors.IsAssertionFailure(err))
	assert.EqualError(t, err, "model.yaml:4:5 lambda `inc` captures `k`")
}

func TestRecoverRepanicsOtherValues(t *testing.T) {
	assert.PanicsWithValue(t, "boom", func() {
		var err error
		defer Recover(&err)
		panic("boom")
	})
}

func TestSliceHelpers(t *testing.T) {
	assert.Equal(t, []int{2, 3, 4}, Range(2, 5))
	assert.Equal(t, []int{4, 6}, Map(func(x int) int { return x * 2 }, []int{2, 3}))
	assert.True(t, Any(func(x int) bool { return x > 2 }, []int{1, 3}))
	assert.False(t, All(func(x int) bool { return x > 2 }, []int{1, 3}))
	assert.Equal(t, "int, bool", Join([]stringer{"int", "bool"}, ", "))
}

type stringer string

func (s stringer) String() string { return string(s) }
