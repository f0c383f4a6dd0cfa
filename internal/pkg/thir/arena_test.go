package thir

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zinc-compiler/internal/pkg/ast"
	"zinc-compiler/internal/pkg/thir/ty"
)

type testId uint32

func TestArenaIdsAreOneBased(t *testing.T) {
	var a Arena[testId, string]
	_, ok := a.Get(0)
	assert.False(t, ok)

	first := a.Insert("a")
	second := a.Insert("b")
	assert.Equal(t, testId(1), first)
	assert.Equal(t, testId(2), second)
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, []testId{1, 2}, a.Ids())

	v, ok := a.Get(second)
	require.True(t, ok)
	assert.Equal(t, "b", *v)
	_, ok = a.Get(3)
	assert.False(t, ok)
}

func TestArenaValuesAreStable(t *testing.T) {
	var a Arena[testId, Declaration[Typed]]
	id := a.Insert(Declaration[Typed]{Name: "x"})
	ptr := a.At(id)
	for i := 0; i < 100; i++ {
		a.Insert(Declaration[Typed]{})
	}
	ptr.Name = "y"
	assert.Equal(t, "y", a.At(id).Name)
}

func TestArenaAtPanicsWithAssertion(t *testing.T) {
	var a Arena[testId, int]
	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.IsAssertionFailure(err))
		assert.Contains(t, err.Error(), "arena index 1 out of range")
	}()
	a.At(1)
}

func TestArenaMap(t *testing.T) {
	var m ArenaMap[testId, string]
	assert.False(t, m.Has(1))
	m.Insert(2, "two")
	assert.True(t, m.Has(2))
	v, ok := m.Get(2)
	assert.True(t, ok)
	assert.Equal(t, "two", v)
	assert.Equal(t, 1, m.Len())
}

func TestModelItemsKeepTopLevelOnly(t *testing.T) {
	m := NewModel[Typed]()
	origin := ast.Generated("test")
	x := m.AddDeclaration(Declaration[Typed]{
		Origin: origin, Name: "x", TopLevel: true, Domain: UnboundedDomain[Typed](origin, ty.VarInt()),
	})
	local := m.AddDeclaration(Declaration[Typed]{
		Origin: origin, Name: "y", Domain: UnboundedDomain[Typed](origin, ty.ParInt()),
	})
	c := m.AddConstraint(Constraint[Typed]{
		Origin: origin, TopLevel: true, Expression: BoolLit[Typed](origin, true),
	})
	assert.Equal(t, []ItemId[Typed]{x, c}, m.Items())
	assert.Equal(t, 2, m.DeclarationsLen())
	assert.Equal(t, "y", m.Declaration(local).Name)
	assert.Equal(t, "var int", m.Declaration(x).Ty().String())
}

func TestMaterialiseReusesIdentifiers(t *testing.T) {
	m := NewModel[Typed]()
	origin := ast.Generated("test")
	x := m.AddDeclaration(Declaration[Typed]{
		Origin: origin, Name: "x", TopLevel: true, Domain: UnboundedDomain[Typed](origin, ty.ParInt()),
	})

	var seen *Expression[Typed]
	e := Materialise(m, origin, Ident(m, origin, x), func(ref *Expression[Typed]) *Expression[Typed] {
		seen = ref
		return ref
	})
	assert.Same(t, seen, e)
	assert.Equal(t, 1, m.DeclarationsLen())

	e = Materialise(m, origin, IntLit[Typed](origin, 3), func(ref *Expression[Typed]) *Expression[Typed] {
		return TupleLit(m, origin, ref, ref)
	})
	let, ok := e.Data.(*Let[Typed])
	require.True(t, ok)
	require.Len(t, let.Items, 1)
	assert.Equal(t, 2, m.DeclarationsLen())
	assert.Equal(t, "tuple(int, int)", e.Ty.String())
}
