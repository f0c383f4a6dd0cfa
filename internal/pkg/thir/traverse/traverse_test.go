package traverse_test

import (
	"strings"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zinc-compiler/internal/pkg/loader"
	"zinc-compiler/internal/pkg/thir"
	"zinc-compiler/internal/pkg/thir/pretty"
	"zinc-compiler/internal/pkg/thir/traverse"
)

type copied struct{}

const source = `
items:
  - enum: Colour
    cases: [Red, Green]
  - decl: x
    type: var int
    domain: 1..3
  - decl: c
    type: Colour
    def: Green
  - function: double
    return: var int
    params: ["var int: y"]
    body: "let { var int: z = y * 2 } in z"
  - constraint: "forall([double(x) > i | i in 1..3 where i != 2])"
  - output: show(c)
  - solve: maximize
    objective: x
`

func load(t *testing.T, content string) *thir.Model[thir.Typed] {
	t.Helper()
	m, err := loader.New(thir.NewIdentifierRegistry(), testr.New(t)).Load("model.yaml", []byte(content))
	require.NoError(t, err)
	return m
}

func TestCopyPrintsTheSame(t *testing.T) {
	m := load(t, source)
	c := traverse.Copy[copied](m)
	if diff := cmp.Diff(pretty.Print(m), pretty.Print(c)); diff != "" {
		t.Errorf("copy differs (-source +copy):\n%s", diff)
	}
	assert.Equal(t, m.FunctionsLen(), c.FunctionsLen())
	assert.Equal(t, len(m.Items()), len(c.Items()))
}

func TestFoldIsIdempotent(t *testing.T) {
	m := load(t, source)
	f := traverse.NewFolderBase[copied, thir.Typed](m, nil)
	f.AddModel()

	for _, id := range m.Functions() {
		first := f.FoldFunctionId(id)
		assert.Equal(t, first, f.FoldFunctionId(id))
	}
	for _, item := range m.Items() {
		if d, ok := item.(thir.DeclarationId[thir.Typed]); ok {
			dst, ok := f.Replacements().Declaration(d)
			require.True(t, ok)
			assert.Equal(t, dst, f.FoldDeclarationId(d))
			assert.Equal(t, m.Declaration(d).Name, f.Model().Declaration(dst).Name)
		}
	}
	assert.Equal(t, m.FunctionsLen(), f.Model().FunctionsLen())
}

// renamer prefixes every named declaration and relies on the base for the
// rest of the model.
type renamer struct {
	*traverse.FolderBase[copied, thir.Typed]
}

func (r *renamer) AddDeclaration(id thir.DeclarationId[thir.Typed]) {
	r.FolderBase.AddDeclaration(id)
	d := r.Model().Declaration(r.FoldDeclarationId(id))
	if d.Name != "" {
		d.Name = "renamed_" + d.Name
	}
}

func TestFolderDispatchesThroughEmbedder(t *testing.T) {
	r := &renamer{}
	r.FolderBase = traverse.NewFolderBase[copied, thir.Typed](load(t, source), r)
	r.AddModel()
	printed := pretty.Print(r.Model())

	assert.Contains(t, printed, "var (1 .. 3): renamed_x;")
	assert.Contains(t, printed, "double(var int: renamed_y)")
	assert.Contains(t, printed, "var int: renamed_z = (renamed_y * 2)")
	assert.Contains(t, printed, "renamed_i in (1 .. 3) where (renamed_i != 2)")
	assert.NotContains(t, printed, "renamed_renamed")
}

func TestFoldingUnaddedDeclarationFails(t *testing.T) {
	m := load(t, source)
	f := traverse.NewFolderBase[copied, thir.Typed](m, nil)
	assert.Panics(t, func() {
		f.FoldDeclarationId(m.Declarations()[0])
	})
}

// identifiers counts references by name.
type identifiers struct {
	*traverse.VisitorBase[thir.Typed]
	names map[string]int
}

func (v *identifiers) VisitIdentifier(target thir.ResolvedIdentifier[thir.Typed]) {
	if d, ok := target.(thir.DeclarationId[thir.Typed]); ok {
		v.names[v.Model().Declaration(d).Name]++
	}
}

func TestVisitorReachesEveryItem(t *testing.T) {
	v := &identifiers{names: map[string]int{}}
	v.VisitorBase = traverse.NewVisitorBase[thir.Typed](load(t, source), v)
	v.VisitModel()

	// x in the constraint and the objective, y and z in double, i in the
	// where clause and the template, c in the output
	assert.Equal(t, map[string]int{"x": 2, "y": 1, "z": 1, "i": 2, "c": 1}, v.names)
}

func TestSummaryCountsErasedTypes(t *testing.T) {
	stats := pretty.Summary(load(t, source))
	assert.Equal(t, 1, stats.Enumerations)
	assert.Positive(t, stats.EnumTypes)
	assert.Zero(t, stats.OptTypes)
	assert.True(t, strings.HasPrefix(stats.String(), "annotations:"))
}

func TestSummarySkipsBuiltinSignatures(t *testing.T) {
	m := load(t, source)
	// forall was declared with its var opt bool overload
	require.True(t, m.IsDeclaredBuiltin(thir.Forall))
	assert.Zero(t, pretty.Summary(m).OptTypes)

	withOpt := load(t, `
items:
  - decl: o
    type: var opt int
  - constraint: forall([occurs(o)])
`)
	assert.Positive(t, pretty.Summary(withOpt).OptTypes)
}
