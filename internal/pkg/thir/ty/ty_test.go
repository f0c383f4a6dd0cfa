package ty

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrintsBack(t *testing.T) {
	for _, src := range []string{
		"int",
		"var opt int",
		"opt bool",
		"array [int] of var int",
		"array [int, int] of float",
		"set of int",
		"var set of int",
		"tuple(int, var bool)",
		"record(int: a, bool: b)",
		"op(int: (int, bool))",
		"opt ..",
		"Foo",
		"var set of Foo",
	} {
		typ, err := Parse(src)
		require.NoError(t, err, src)
		assert.Equal(t, src, typ.String())
	}
}

func TestParseSortsRecordFields(t *testing.T) {
	typ := MustParse("record(bool: b, int: a)")
	assert.Equal(t, "record(int: a, bool: b)", typ.String())
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{"array [int of int", "var float float", "tuple(", "var set of float"} {
		_, err := Parse(src)
		assert.Error(t, err, src)
	}
}

func TestParseSignature(t *testing.T) {
	sig, err := ParseSignature("var bool: forall(array [$X] of var bool)")
	require.NoError(t, err)
	assert.Equal(t, "forall", sig.Name)
	assert.True(t, sig.IsPolymorphic())
	if diff := cmp.Diff([]TyVar{{Name: "X", Indexable: true}}, sig.TyParams); diff != "" {
		t.Errorf("unexpected type-inst params (-want +got):\n%s", diff)
	}

	sig, err = ParseSignature("set of int: ..(int, int)")
	require.NoError(t, err)
	assert.Equal(t, "..", sig.Name)
	assert.False(t, sig.IsPolymorphic())

	sig, err = ParseSignature("var $T: deopt(var opt $T)")
	require.NoError(t, err)
	require.Len(t, sig.TyParams, 1)
	assert.True(t, sig.TyParams[0].Varifiable)
}

func TestInstAlgebra(t *testing.T) {
	v, ok := MakeVar(MustParse("tuple(int, set of int)"))
	require.True(t, ok)
	assert.Equal(t, "tuple(var int, var set of int)", v.String())

	_, ok = MakeVar(MustParse("set of float"))
	assert.False(t, ok)
	_, ok = MakeVar(MustParse("array [int] of int"))
	assert.False(t, ok)

	assert.Equal(t, "array [int] of opt int", MakePar(MustParse("array [int] of var opt int")).String())
	assert.Equal(t, "var int", MakeOccurs(MustParse("var opt int")).String())

	assert.True(t, KnownPar(MustParse("tuple(int, array [int] of bool)")))
	assert.False(t, KnownPar(MustParse("tuple(int, array [int] of var bool)")))
	assert.True(t, KnownEnumerable(MustParse("Foo")))
	assert.False(t, KnownEnumerable(MustParse("float")))
	assert.True(t, KnownIndexable(MustParse("tuple(int, bool)")))
}

func TestContainsErasedType(t *testing.T) {
	assert.True(t, ContainsErasedType(MustParse("array [int] of opt int")))
	assert.True(t, ContainsErasedType(MustParse("set of Foo")))
	assert.True(t, ContainsErasedType(MustParse("record(int: a)")))
	assert.False(t, ContainsErasedType(MustParse("tuple(int, array [int] of var bool)")))
}

func TestSubtyping(t *testing.T) {
	sub := func(a, b string) bool { return IsSubtypeOf(MustParse(a), MustParse(b)) }
	assert.True(t, sub("int", "var int"))
	assert.True(t, sub("int", "float"))
	assert.True(t, sub("bool", "var int"))
	assert.True(t, sub("int", "opt int"))
	assert.True(t, sub("..", "var int"))
	assert.True(t, sub("opt ..", "opt int"))
	assert.True(t, sub("array [int] of int", "array [int] of var opt int"))
	assert.True(t, sub("set of Foo", "set of int"))
	assert.False(t, sub("var int", "int"))
	assert.False(t, sub("opt int", "int"))
	assert.False(t, sub("opt ..", "int"))
	assert.False(t, sub("float", "int"))
	assert.False(t, sub("tuple(int, int)", "tuple(int)"))
}

func TestMostSpecificSupertype(t *testing.T) {
	sup := func(ts ...string) string {
		var types []Type
		for _, s := range ts {
			types = append(types, MustParse(s))
		}
		result, ok := MostSpecificSupertype(types...)
		if !ok {
			return "<none>"
		}
		return result.String()
	}
	assert.Equal(t, "var int", sup("int", "var bool"))
	assert.Equal(t, "int", sup("int", ".."))
	assert.Equal(t, "opt int", sup("int", "opt .."))
	assert.Equal(t, "array [int] of var float", sup("array [int] of int", "array [int] of var float"))
	assert.Equal(t, "tuple(int, opt bool)", sup("tuple(int, bool)", "tuple(bool, opt bool)"))
	assert.Equal(t, "<none>", sup("int", "string"))
}

func TestInstantiate(t *testing.T) {
	sig, err := ParseSignature("$T: max2($T, $T)")
	require.NoError(t, err)
	fn, err := sig.Instantiate([]Type{ParInt(), ParBool()})
	require.NoError(t, err)
	assert.Equal(t, "op(int: (int, int))", fn.String())

	_, err = sig.Instantiate([]Type{VarInt(), ParInt()})
	assert.ErrorIs(t, err, ErrArgumentMismatch)

	_, err = sig.Instantiate([]Type{ParInt()})
	assert.ErrorIs(t, err, ErrArgumentCount)

	sig, err = ParseSignature("var $T: id(var $T)")
	require.NoError(t, err)
	fn, err = sig.Instantiate([]Type{ParInt()})
	require.NoError(t, err)
	assert.Equal(t, "op(var int: (var int))", fn.String())

	sig, err = ParseSignature("array [$X] of $T: copy(array [$X] of $T)")
	require.NoError(t, err)
	fn, err = sig.Instantiate([]Type{MustParse("array [int] of bool")})
	require.NoError(t, err)
	assert.Equal(t, "array [int] of bool", fn.Return.String())

	sig, err = ParseSignature("$$E: succ($$E)")
	require.NoError(t, err)
	_, err = sig.Instantiate([]Type{ParFloat()})
	assert.ErrorIs(t, err, ErrArgumentMismatch)
}

func overloads(t *testing.T, sigs ...string) []Overload[int] {
	var result []Overload[int]
	for i, s := range sigs {
		sig, err := ParseSignature(s)
		require.NoError(t, err)
		result = append(result, Overload[int]{Data: i, Polymorphic: sig.IsPolymorphic(), Signature: sig.PolymorphicFunctionType})
	}
	return result
}

func TestMatchFunction(t *testing.T) {
	os := overloads(t, "float: f(float)", "int: f(int)", "var int: f(var int)")
	o, fn, err := MatchFunction(os, []Type{ParBool()})
	require.NoError(t, err)
	assert.Equal(t, 1, o.Data)
	assert.Equal(t, "int", fn.Return.String())

	o, _, err = MatchFunction(os, []Type{VarBool()})
	require.NoError(t, err)
	assert.Equal(t, 2, o.Data)

	_, _, err = MatchFunction(os, []Type{ParString()})
	assert.ErrorIs(t, err, ErrNoMatchingFunction)
}

func TestMatchFunctionPrefersConcrete(t *testing.T) {
	os := overloads(t, "$T: g($T)", "int: g(int)")
	o, _, err := MatchFunction(os, []Type{ParInt()})
	require.NoError(t, err)
	assert.Equal(t, 1, o.Data)

	o, fn, err := MatchFunction(os, []Type{ParString()})
	require.NoError(t, err)
	assert.Equal(t, 0, o.Data)
	assert.Equal(t, "string", fn.Return.String())
}

func TestMatchFunctionPrefersBody(t *testing.T) {
	os := overloads(t, "int: h(int)", "int: h(int)")
	os[1].HasBody = true
	o, _, err := MatchFunction(os, []Type{ParInt()})
	require.NoError(t, err)
	assert.Equal(t, 1, o.Data)
}

func TestMatchFunctionAmbiguous(t *testing.T) {
	os := overloads(t, "int: k(int, float)", "int: k(float, int)")
	_, _, err := MatchFunction(os, []Type{ParInt(), ParInt()})
	assert.ErrorIs(t, err, ErrAmbiguousOverloading)
}

func TestErasure(t *testing.T) {
	assert.Equal(t, "tuple(var bool, var int)", EraseOpt(MustParse("var opt int")).String())
	assert.Equal(t, "array [int] of tuple(bool, int)", EraseOpt(MustParse("array [int] of opt int")).String())
	assert.Equal(t, "tuple(int, tuple(bool, float))", EraseOpt(MustParse("tuple(int, opt float)")).String())
	assert.Equal(t, "var set of int", EraseEnum(MustParse("var set of Foo")).String())
	assert.Equal(t, "array [int] of var opt int", EraseEnum(MustParse("array [Foo] of var opt Bar")).String())
}

func TestMangle(t *testing.T) {
	name := Mangle("foo", []Type{ParInt(), VarBool()})
	assert.Equal(t, "foo<int, var bool>", name)
	assert.True(t, IsMangled(name))
	assert.Equal(t, "foo", Unmangle(name))
	assert.False(t, IsMangled("<->"))
	assert.NotEqual(t, Mangle("foo", []Type{ParInt()}), Mangle("foo", []Type{VarInt()}))
}
