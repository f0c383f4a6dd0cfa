package transform

import (
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr/testr"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
	"zinc-compiler/internal/pkg/ast"
	"zinc-compiler/internal/pkg/common"
	"zinc-compiler/internal/pkg/loader"
	"zinc-compiler/internal/pkg/thir"
	"zinc-compiler/internal/pkg/thir/pretty"
	"zinc-compiler/internal/pkg/thir/ty"
)

func load(t *testing.T, content string) *thir.Model[thir.Typed] {
	t.Helper()
	m, err := loader.New(thir.NewIdentifierRegistry(), testr.New(t)).Load("model.yaml", []byte(content))
	require.NoError(t, err)
	return m
}

func run(t *testing.T, stage string, m *thir.Model[thir.Typed]) Output {
	t.Helper()
	p, err := NewPipeline(thir.NewIdentifierRegistry(), testr.New(t)).Until(stage)
	require.NoError(t, err)
	out, err := p.Run(m)
	require.NoError(t, err)
	require.Equal(t, stage, out.Stage())
	return out
}

func lines(data []byte) []string {
	var result []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			result = append(result, line)
		}
	}
	return result
}

// token matches s where it is not part of a longer identifier.
func token(s string) *regexp.Regexp {
	word := regexp.MustCompile(`^\w`)
	pattern := regexp.QuoteMeta(s)
	if word.MatchString(s) {
		pattern = `(^|[^\w])` + pattern
	}
	if word.MatchString(s[len(s)-1:]) {
		pattern += `($|[^\w])`
	}
	return regexp.MustCompile(pattern)
}

func TestGolden(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		file := file
		t.Run(strings.TrimSuffix(filepath.Base(file), ".txtar"), func(t *testing.T) {
			archive, err := txtar.ParseFile(file)
			require.NoError(t, err)
			sections := map[string][]byte{}
			for _, f := range archive.Files {
				sections[f.Name] = f.Data
			}
			require.Contains(t, sections, "stage")
			require.Contains(t, sections, "model.yaml")

			stage := strings.TrimSpace(string(sections["stage"]))
			out := run(t, stage, load(t, string(sections["model.yaml"])))
			printed := out.Pretty(false)
			for _, want := range lines(sections["contains"]) {
				assert.Contains(t, printed, want)
			}
			for _, unwanted := range lines(sections["excludes"]) {
				assert.False(t, token(unwanted).MatchString(printed), "%q found in\n%s", unwanted, printed)
			}
		})
	}
}

func TestUnknownStage(t *testing.T) {
	_, err := NewPipeline(thir.NewIdentifierRegistry(), testr.New(t)).Until("inline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stage \"inline\"")
	assert.Contains(t, err.Error(), strings.Join(StageNames(), ", "))
}

func TestLoweringWithoutErasedFeaturesOnlyRenumbers(t *testing.T) {
	m := load(t, `
items:
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
	before := pretty.Print(m)
	for _, stage := range StageNames() {
		out := run(t, stage, m)
		if diff := cmp.Diff(before, out.Pretty(false)); diff != "" {
			t.Errorf("%s changed the model (-before +after):\n%s", stage, diff)
		}
	}
}

const polymorphic = `
items:
  - function: first
    return: $T
    params: ["array [int] of $T: xs"]
    body: xs[1]
  - function: depth
    return: int
    params: ["array [int] of $T: xs", "int: i"]
    body: if i > 1 then depth(xs, i - 1) + 1 else 1 endif
  - decl: a
    type: bool
    def: first([true, false])
  - decl: b
    type: bool
    def: first([false])
  - decl: c
    type: int
    def: first([1, 2])
  - decl: d
    type: int
    def: depth([1, 2, 3], 3)
`

func instances[M any](m *thir.Model[M], name string) []*thir.Function[M] {
	var result []*thir.Function[M]
	for _, f := range m.Functions() {
		fn := m.Function(f)
		if ty.IsMangled(fn.Name) && ty.Unmangle(fn.Name) == name {
			result = append(result, fn)
		}
	}
	return result
}

func TestSpecialiseInstancesOncePerInstantiation(t *testing.T) {
	out := run(t, StageSpecialise, load(t, polymorphic))
	assert.Zero(t, out.Summary().PolymorphicCalls)

	m, ok := ModelOf[Specialised](out)
	require.True(t, ok)
	first := instances(m, "first")
	require.Len(t, first, 2)
	for _, fn := range first {
		assert.False(t, fn.IsPolymorphic(), fn.Name)
		assert.True(t, fn.HasBody(), fn.Name)
	}
	for _, name := range []string{"first", "depth"} {
		for _, f := range m.LookupFunctions(name) {
			assert.False(t, m.Function(f).HasBody(), "%s kept its polymorphic body", name)
		}
	}
}

func TestSpecialiseRecursiveFunction(t *testing.T) {
	out := run(t, StageSpecialise, load(t, polymorphic))
	m, ok := ModelOf[Specialised](out)
	require.True(t, ok)

	depth := instances(m, "depth")
	require.Len(t, depth, 1)
	// header, recursive call and call site all name the one instance
	printed := out.Pretty(false)
	name := pretty.Name(depth[0].Name)
	assert.Equal(t, 3, strings.Count(printed, name+"("), printed)
	assert.Contains(t, printed, name+"(xs, (i - 1))")
}

const captures = `
items:
  - decl: k
    type: int
    def: "3"
  - decl: "n"
    type: int
    def: "4"
  - function: addk
    return: int
    params: ["int: a"]
    body: a + k
  - function: addkn
    return: int
    params: ["int: a"]
    body: a + k + n
  - function: outer
    return: int
    params: ["int: a"]
    body: addkn(a) + addk(a)
  - function: plain
    return: int
    params: ["int: a"]
    body: a
  - decl: x
    type: int
    def: addk(1)
  - decl: "y"
    type: int
    def: addkn(1) + addkn(2)
  - decl: z
    type: int
    def: plain(1)
  - decl: w
    type: int
    def: outer(1)
`

func parameter[M any](m *thir.Model[M], fn *thir.Function[M], i int) *thir.Declaration[M] {
	return m.Declaration(fn.Parameters[i])
}

func TestDecaptureArity(t *testing.T) {
	src := load(t, captures)
	out := run(t, StageDecapture, src)
	m, ok := ModelOf[Decaptured](out)
	require.True(t, ok)
	function := func(name string) *thir.Function[Decaptured] {
		fns := m.LookupFunctions(name)
		require.Len(t, fns, 1, name)
		return m.Function(fns[0])
	}

	assert.Len(t, function("plain").Parameters, 1)

	addk := function("addk")
	require.Len(t, addk.Parameters, 2)
	k := parameter(m, addk, 1)
	assert.Equal(t, "k", k.Name)
	assert.True(t, ty.Equal(ty.ParInt(), k.Ty()))

	addkn := function("addkn")
	require.Len(t, addkn.Parameters, 2)
	tuple, ok := parameter(m, addkn, 1).Ty().(*ty.TTuple)
	require.True(t, ok)
	assert.Len(t, tuple.Fields, 2)

	printed := out.Pretty(false)
	assert.Contains(t, printed, "int: x = addk(1, k);")
	assert.Contains(t, printed, "int: z = plain(1);")
	assert.Contains(t, printed, "(a + captures.1) + captures.2")
	// both cold calls share one packed declaration
	packed := regexp.MustCompile(`addkn\(1, (_DECL_\d+)\) \+ addkn\(2, (_DECL_\d+)\)`).FindStringSubmatch(printed)
	require.Len(t, packed, 3, printed)
	assert.Equal(t, packed[1], packed[2])
	assert.Contains(t, printed, packed[1]+" = (k, n);")
	// outer captures the same pair and passes its own parameter on
	assert.Contains(t, printed, "addkn(a, captures)")
	assert.Contains(t, printed, "addk(a, captures.1)")

	var generated []*thir.Declaration[Decaptured]
	for _, d := range m.Declarations() {
		if decl := m.Declaration(d); decl.TopLevel && decl.Origin.IsGenerated() {
			generated = append(generated, decl)
		}
	}
	// the packed declaration belongs to no single call site
	require.Len(t, generated, 1)
	tuple, ok = generated[0].Ty().(*ty.TTuple)
	require.True(t, ok)
	assert.Len(t, tuple.Fields, 2)
}

func TestDecaptureOff(t *testing.T) {
	p, err := NewPipeline(thir.NewIdentifierRegistry(), testr.New(t)).Until(StageDecapture)
	require.NoError(t, err)
	out, err := p.WithDecapture(false).Run(load(t, captures))
	require.NoError(t, err)
	assert.Contains(t, out.Pretty(false), "int: x = addk(1);")
}

func TestEraseEnumRemovesEnums(t *testing.T) {
	out := run(t, StageEraseEnum, load(t, `
items:
  - enum: Colour
    cases: [Red, Green, Blue]
  - decl: c
    type: var Colour
  - decl: cs
    type: set of Colour
    def: "{Red, Blue}"
  - constraint: c in cs
`))
	stats := out.Summary()
	assert.Zero(t, stats.Enumerations)
	assert.Zero(t, stats.EnumTypes)
}

func TestEraseOptRemovesOptionTypes(t *testing.T) {
	out := run(t, StageEraseOpt, load(t, `
items:
  - decl: o
    type: opt int
    def: "<>"
  - decl: p
    type: var opt int
  - decl: q
    type: var bool
    def: occurs(p)
`))
	assert.Zero(t, out.Summary().OptTypes)
	assert.Contains(t, out.Pretty(false), "q = p.1")
}

func TestInternalErrorsAreAssertionFailures(t *testing.T) {
	m := load(t, `
items:
  - decl: x
    type: bool
    def: "true"
`)
	// a declaration that no item or let introduces
	origin := ast.Generated("test")
	orphan := m.AddDeclaration(thir.Declaration[thir.Typed]{
		Origin: origin,
		Name:   "orphan",
		Domain: thir.UnboundedDomain[thir.Typed](origin, ty.ParBool()),
	})
	m.AddConstraint(thir.Constraint[thir.Typed]{Origin: origin, TopLevel: true, Expression: thir.Ident(m, origin, orphan)})

	_, err := NewPipeline(thir.NewIdentifierRegistry(), testr.New(t)).Run(m)
	require.Error(t, err)
	assert.True(t, errors.IsAssertionFailure(err))
	assert.Contains(t, err.Error(), "internal compiler error")
	assert.Contains(t, err.Error(), "has not been added to the destination model")
}

func TestLambdaOverCapturingFunctionIsRejected(t *testing.T) {
	m := load(t, `
items:
  - decl: k
    type: int
    def: "3"
  - function: inc
    return: int
    params: ["int: a"]
    body: a + k
  - decl: f
    type: "op(int: (int))"
    def: lambda inc
`)
	_, err := NewPipeline(thir.NewIdentifierRegistry(), testr.New(t)).Run(m)
	require.Error(t, err)
	assert.False(t, errors.IsAssertionFailure(err))
	var located common.Error
	require.True(t, errors.As(err, &located))
	assert.Equal(t, "model.yaml", located.Location.FilePath())
	assert.Contains(t, err.Error(), "lambda `inc` captures top-level declaration `k`")
}

func TestTopDownTypesComprehensionTemplates(t *testing.T) {
	out := run(t, StageTopDown, load(t, `
items:
  - decl: xs
    type: array [int] of opt int
    def: "[<> | i in 1..3]"
`))
	m, ok := ModelOf[TopDown](out)
	require.True(t, ok)
	for _, d := range m.Declarations() {
		decl := m.Declaration(d)
		if decl.Name != "xs" {
			continue
		}
		c, ok := decl.Definition.Data.(*thir.ArrayComprehension[TopDown])
		require.True(t, ok)
		assert.False(t, ty.ContainsBottom(c.Template.Ty), c.Template.Ty.String())
		assert.True(t, ty.Equal(decl.Ty(), decl.Definition.Ty), decl.Definition.Ty.String())
		return
	}
	t.Fatal("xs not found")
}

func TestVarWhereMakesElementsOptional(t *testing.T) {
	out := run(t, StageDesugar, load(t, `
items:
  - decl: x
    type: array [int] of var int
  - decl: "y"
    type: any
    def: "[x_i | x_i in x where x_i > 2]"
`))
	m, ok := ModelOf[Desugared](out)
	require.True(t, ok)
	var y *thir.Declaration[Desugared]
	for _, d := range m.Declarations() {
		if decl := m.Declaration(d); decl.Name == "y" {
			y = decl
		}
	}
	require.NotNil(t, y)
	el, ok := ty.ElemTy(y.Definition.Ty)
	require.True(t, ok)
	assert.True(t, ty.IsOpt(el), el.String())
	assert.True(t, ty.IsVar(el), el.String())
}
