package loader

import (
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zinc-compiler/internal/pkg/thir"
	"zinc-compiler/internal/pkg/thir/pretty"
	"zinc-compiler/internal/pkg/thir/ty"
)

func load(t *testing.T, content string) *thir.Model[thir.Typed] {
	t.Helper()
	m, err := New(thir.NewIdentifierRegistry(), testr.New(t)).Load("model.yaml", []byte(content))
	require.NoError(t, err)
	return m
}

func loadError(t *testing.T, content string) error {
	t.Helper()
	_, err := New(thir.NewIdentifierRegistry(), testr.New(t)).Load("model.yaml", []byte(content))
	require.Error(t, err)
	return err
}

// declaration finds a top-level declaration by name. Builtins the loader
// declares on demand share the item list with the model's own items.
func declaration(t *testing.T, m *thir.Model[thir.Typed], name string) *thir.Declaration[thir.Typed] {
	t.Helper()
	for _, item := range m.Items() {
		if d, ok := item.(thir.DeclarationId[thir.Typed]); ok && m.Declaration(d).Name == name {
			return m.Declaration(d)
		}
	}
	require.FailNow(t, "no top-level declaration "+name)
	return nil
}

func enumeration(t *testing.T, m *thir.Model[thir.Typed], name string) *thir.Enumeration[thir.Typed] {
	t.Helper()
	for _, item := range m.Items() {
		if e, ok := item.(thir.EnumerationId[thir.Typed]); ok && string(m.Enumeration(e).Enum) == name {
			return m.Enumeration(e)
		}
	}
	require.FailNow(t, "no enumeration "+name)
	return nil
}

func TestLoadItems(t *testing.T) {
	m := load(t, `
items:
  - enum: Colour
    cases: [Red, Green]
  - decl: x
    type: var int
    domain: 1..3
  - function: double
    return: var int
    params: ["var int: y"]
    body: y * 2
  - constraint: double(x) > 2
  - solve: satisfy
`)
	assert.Equal(t, `enum Colour = {Red, Green};
var (1 .. 3): x;
function var int: double(var int: y) = (y * 2);
constraint (double(x) > 2);
solve satisfy;
`, pretty.Print(m))

	x := declaration(t, m, "x")
	assert.True(t, x.TopLevel)
	assert.Equal(t, "var int", x.Ty().String())
	line, column := x.Origin.GetLineAndColumn()
	assert.Equal(t, 5, line)
	assert.Equal(t, 5, column)
}

func TestLoadFunctionsInAnyOrder(t *testing.T) {
	m := load(t, `
items:
  - decl: x
    type: int
    def: inc(1)
  - function: inc
    return: int
    params: ["int: a"]
    body: a + 1
`)
	assert.Equal(t, "int: x = inc(1);\nfunction int: inc(int: a) = (a + 1);\n", pretty.Print(m))
}

func TestLoadComprehension(t *testing.T) {
	m := load(t, `
items:
  - decl: s
    type: var int
    def: "sum([i * 2 | i in 1..3 where i != 2])"
  - decl: t
    type: set of int
    def: "{i + j | i, j in 1..2}"
`)
	assert.Equal(t, `var int: s = sum([(i * 2) | i in (1 .. 3) where (i != 2)]);
set of int: t = {(i + j) | i, j in (1 .. 2)};
`, pretty.Print(m))
}

func TestLoadPolymorphicFunction(t *testing.T) {
	m := load(t, `
items:
  - function: first
    return: $T
    params: ["array [int] of $T: xs"]
    body: xs[1]
  - decl: b
    type: bool
    def: first([true, false])
`)
	fns := m.LookupFunctions("first")
	require.Len(t, fns, 1)
	f := m.Function(fns[0])
	assert.True(t, f.IsPolymorphic())
	assert.True(t, f.HasBody())

	b := declaration(t, m, "b")
	assert.Equal(t, "bool", b.Definition.Ty.String())
}

func TestLoadEnumConstructors(t *testing.T) {
	m := load(t, `
items:
  - enum: Shape
    cases: [Dot, Circle(1..5)]
  - decl: s
    type: Shape
    def: Circle(3)
  - decl: r
    type: int
    def: "case s of Dot => 0, _ => Circle⁻¹(s) endcase"
`)
	assert.Equal(t, `enum Shape = {Dot} ++ Circle((1 .. 5));
Shape: s = Circle(3);
int: r = case s of Dot => 0, _ => Circle⁻¹(s) endcase;
`, pretty.Print(m))

	// the range in Circle's parameter declares `..` ahead of Shape
	assert.True(t, m.IsDeclaredBuiltin(".."))
	e := enumeration(t, m, "Shape")
	require.Len(t, e.Definition, 2)
	assert.True(t, e.Definition[0].IsAtom())
	assert.False(t, e.Definition[1].IsAtom())
}

func TestLoadDataEnum(t *testing.T) {
	m := load(t, `
items:
  - enum: Person
  - decl: p
    type: var Person
`)
	e := enumeration(t, m, "Person")
	assert.False(t, e.IsDefined())
	assert.Equal(t, "enum Person;\nvar Person: p;\n", pretty.Print(m))
}

func TestLoadLetAndConditionals(t *testing.T) {
	m := load(t, `
items:
  - decl: x
    type: var int
  - constraint: "let { var int: y = x + 1; constraint y > 0 } in if y > 3 then x < 2 elseif y > 2 then true else false endif"
`)
	assert.Equal(t, "var int: x;\n"+
		"constraint let { var int: y = (x + 1); constraint (y > 0); } in "+
		"if (y > 3) then (x < 2) elseif (y > 2) then true else false endif;\n", pretty.Print(m))
}

func TestLoadOptionalsAndTuples(t *testing.T) {
	m := load(t, `
items:
  - decl: o
    type: var opt int
    def: "<>"
  - decl: p
    type: tuple(int, bool)
    def: (1, true)
  - decl: q
    type: bool
    def: p.2
  - decl: r
    type: "record(int: a, string: b)"
    def: '(b: "x", a: 2)'
  - decl: s
    type: int
    def: r.a
  - output: 'show(o) ++ "\n"'
    section: raw
`)
	assert.Equal(t, `var opt int: o = <>;
tuple(int, bool): p = (1, true);
bool: q = p.2;
record(int: a, string: b): r = (b: "x", a: 2);
int: s = r.a;
output :: "raw" (show(o) ++ "\n");
`, pretty.Print(m))
}

func TestLoadAnnotations(t *testing.T) {
	m := load(t, `
items:
  - annotation: promise_total
  - annotation: domain_hint
    params: ["int: size"]
  - function: f
    return: int
    params: ["int: a"]
    ann: [promise_total]
    body: a
  - decl: x
    type: var int
    ann: ["domain_hint(3)"]
  - solve: minimize
    objective: x
    ann: [promise_total]
`)
	assert.Equal(t, `annotation promise_total;
annotation domain_hint(int: size);
function int: f(int: a) :: promise_total = a;
var int: x :: domain_hint(3);
solve :: promise_total minimize x;
`, pretty.Print(m))
}

func TestLoadLambda(t *testing.T) {
	m := load(t, `
items:
  - function: inc
    return: int
    params: ["int: a"]
    body: a + 1
  - decl: f
    type: "op(int: (int))"
    def: lambda inc
  - decl: y
    type: int
    def: f(2)
`)
	y := declaration(t, m, "y")
	call, ok := y.Definition.Data.(*thir.Call[thir.Typed])
	require.True(t, ok)
	_, ok = call.Function.(*thir.ExpressionCallable[thir.Typed])
	assert.True(t, ok)
	assert.True(t, ty.Equal(ty.ParInt(), y.Definition.Ty))
}

func TestLoadArrayElementDomain(t *testing.T) {
	m := load(t, `
items:
  - decl: xs
    type: array [int] of var opt int
    domain: 1..5
`)
	assert.Equal(t, "array [int] of var opt (1 .. 5): xs;\n", pretty.Print(m))
	_, ok := declaration(t, m, "xs").Domain.Data.(*thir.ArrayDomain[thir.Typed])
	assert.True(t, ok)
}

func TestLoadErrors(t *testing.T) {
	for name, tc := range map[string]struct {
		content string
		message string
	}{
		"undefined": {`
items:
  - decl: x
    type: int
    def: y + 1
`, "model.yaml:5:10 undefined identifier `y`"},
		"no else": {`
items:
  - decl: x
    type: int
    def: if true then 1 endif
`, "expected `else`"},
		"bad type": {`
items:
  - decl: x
    type: array [int of int
`, "invalid type"},
		"unknown item": {`
items:
  - variable: x
`, "item must be one of"},
		"not bool": {`
items:
  - constraint: "1 + 2"
`, "constraint must be bool"},
		"mismatch": {`
items:
  - decl: x
    type: bool
    def: "3"
`, "does not match"},
		"trailing": {`
items:
  - decl: x
    type: int
    def: 1 2
`, "unexpected trailing input"},
		"objective": {`
items:
  - solve: maximize
`, "needs an objective"},
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorContains(t, loadError(t, tc.content), tc.message)
		})
	}
}
