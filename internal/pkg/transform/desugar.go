package transform

import (
	"github.com/go-logr/logr"
	"zinc-compiler/internal/pkg/ast"
	"zinc-compiler/internal/pkg/common"
	"zinc-compiler/internal/pkg/thir"
	"zinc-compiler/internal/pkg/thir/traverse"
	"zinc-compiler/internal/pkg/thir/ty"
)

// desugarer removes decision variables from comprehension generators and
// conditional conditions.
//
// Where clauses are split into par and var conjuncts. Par conjuncts move to
// the earliest generator that binds everything they refer to. Var conjuncts
// move into the template, in a form that depends on the call the
// comprehension is the argument of. Generators over var sets iterate the
// upper bound of the set instead.
//
// Runs of branches with var conditions become if_then_else calls.
type desugarer[Dst, Src any] struct {
	*traverse.FolderBase[Dst, Src]
	registry *thir.IdentifierRegistry
	log      logr.Logger

	// surrounding names the aggregation the next comprehension is passed to
	surrounding  string
	comprehended int
	conditionals int
}

func Desugar[Dst, Src any](registry *thir.IdentifierRegistry, log logr.Logger, src *thir.Model[Src]) *thir.Model[Dst] {
	d := &desugarer[Dst, Src]{registry: registry, log: log.WithName("desugar")}
	d.FolderBase = traverse.NewFolderBase[Dst, Src](src, d)
	d.AddModel()
	d.log.V(1).Info("desugared var generators and conditions",
		"comprehensions", d.comprehended, "conditionals", d.conditionals)
	return d.Model()
}

func (d *desugarer[Dst, Src]) FoldCall(e *thir.Expression[Src], data *thir.Call[Src]) *thir.Expression[Dst] {
	name := calledFunction(d.Source(), data)
	if (name == thir.Forall || name == thir.Exists || name == thir.Sum) && len(data.Arguments) == 1 {
		if _, ok := data.Arguments[0].Data.(*thir.ArrayComprehension[Src]); ok {
			d.surrounding = name
			arg := d.FoldExpression(data.Arguments[0])
			return thir.LookupCall(d.registry, d.Model(), e.Origin, name, arg)
		}
	}
	d.surrounding = ""
	return d.FolderBase.FoldCall(e, data)
}

func (d *desugarer[Dst, Src]) FoldArrayComprehension(
	e *thir.Expression[Src], data *thir.ArrayComprehension[Src],
) *thir.Expression[Dst] {
	surrounding := d.surrounding
	d.surrounding = ""
	generators, template := d.comprehension(e.Origin, surrounding, data.Generators, data.Template)
	return thir.NewExpression(d.Model(), e.Origin, &thir.ArrayComprehension[Dst]{Generators: generators, Template: template})
}

// FoldSetComprehension turns set comprehensions with var generators into
// array2set of the desugared array comprehension. Par where clauses move to
// their earliest generator either way.
func (d *desugarer[Dst, Src]) FoldSetComprehension(
	e *thir.Expression[Src], data *thir.SetComprehension[Src],
) *thir.Expression[Dst] {
	d.surrounding = ""
	varGenerators := common.Any(func(g thir.Generator[Src]) bool {
		return ty.IsVarSet(g.Collection.Ty) || g.Where != nil && !ty.KnownPar(g.Where.Ty)
	}, data.Generators)
	m := d.Model()
	generators, template := d.comprehension(e.Origin, "", data.Generators, data.Template)
	if !varGenerators {
		return thir.NewExpression(m, e.Origin, &thir.SetComprehension[Dst]{Generators: generators, Template: template})
	}
	array := thir.NewExpression(m, e.Origin, &thir.ArrayComprehension[Dst]{Generators: generators, Template: template})
	return thir.LookupCall(d.registry, m, e.Origin, thir.Array2Set, array)
}

func (d *desugarer[Dst, Src]) comprehension(
	origin ast.Location, surrounding string, gs []thir.Generator[Src], t *thir.Expression[Src],
) ([]thir.Generator[Dst], *thir.Expression[Dst]) {
	m := d.Model()
	generators := make([]thir.Generator[Dst], 0, len(gs))
	// bound[i] holds the declarations of generators 0..i
	bound := make([]map[thir.DeclarationId[Dst]]bool, 0, len(gs))
	clauses := make([][]*thir.Expression[Dst], len(gs))
	var varClauses []*thir.Expression[Dst]
	var parClauses []*thir.Expression[Dst]

	for i, g := range gs {
		decls := make([]thir.DeclarationId[Dst], 0, len(g.Declarations))
		seen := map[thir.DeclarationId[Dst]]bool{}
		if i > 0 {
			for k := range bound[i-1] {
				seen[k] = true
			}
		}
		for _, decl := range g.Declarations {
			d.AddDeclaration(decl)
			folded := d.FoldDeclarationId(decl)
			decls = append(decls, folded)
			seen[folded] = true
		}
		bound = append(bound, seen)

		collection := d.FoldExpression(g.Collection)
		if ty.IsVarSet(collection.Ty) {
			for _, decl := range decls {
				varClauses = append(varClauses, thir.LookupCall(d.registry, m, origin, thir.In, thir.Ident(m, origin, decl), collection))
			}
			collection = thir.LookupCall(d.registry, m, origin, thir.UpperBound, collection)
		}
		generators = append(generators, thir.Generator[Dst]{Declarations: decls, Collection: collection})

		if g.Where == nil {
			continue
		}
		for _, c := range d.conjuncts(d.FoldExpression(g.Where)) {
			if ty.KnownPar(c.Ty) {
				parClauses = append(parClauses, c)
			} else {
				varClauses = append(varClauses, c)
			}
		}
	}

	for _, c := range parClauses {
		refs := references(m, c)
		at := len(gs) - 1
		for i := range bound {
			if common.All(func(r thir.DeclarationId[Dst]) bool { return !d.isGenerated(bound, r) || bound[i][r] }, refs) {
				at = i
				break
			}
		}
		clauses[at] = append(clauses[at], c)
	}

	template := d.FoldExpression(t)
	if len(varClauses) > 0 {
		d.comprehended++
		condition := d.conjunction(origin, varClauses)
		if rewritten, ok := d.guard(origin, surrounding, condition, template); ok {
			template = rewritten
		} else {
			last := len(gs) - 1
			clauses[last] = append(clauses[last], varClauses...)
		}
	}
	for i := range generators {
		if len(clauses[i]) > 0 {
			generators[i].Where = d.conjunction(origin, clauses[i])
		}
	}
	return generators, template
}

// isGenerated reports whether r is bound by one of the generators.
func (d *desugarer[Dst, Src]) isGenerated(bound []map[thir.DeclarationId[Dst]]bool, r thir.DeclarationId[Dst]) bool {
	return len(bound) > 0 && bound[len(bound)-1][r]
}

// guard moves a var condition into the template.
func (d *desugarer[Dst, Src]) guard(
	origin ast.Location, surrounding string, condition, template *thir.Expression[Dst],
) (*thir.Expression[Dst], bool) {
	m := d.Model()
	switch surrounding {
	case thir.Forall:
		return thir.LookupCall(d.registry, m, origin, thir.Implies, condition, template), true
	case thir.Exists:
		return thir.LookupCall(d.registry, m, origin, thir.Conjunction, condition, template), true
	case thir.Sum:
		if _, ok := template.Ty.(*ty.TInt); ok && ty.KnownPar(template.Ty) {
			selector := thir.LookupCall(d.registry, m, origin, thir.Bool2Int, condition)
			return thir.LookupCall(d.registry, m, origin, thir.Times, selector, template), true
		}
		if !ty.KnownVarifiable(template.Ty) || ty.IsOpt(template.Ty) {
			return nil, false
		}
		zero := thir.DefaultValue(m, origin, ty.MakePar(template.Ty))
		return d.ifThenElse(origin, []*thir.Expression[Dst]{condition}, []*thir.Expression[Dst]{template}, zero), true
	default:
		if !ty.KnownVarifiable(template.Ty) {
			return nil, false
		}
		absent := thir.NewTypedExpression[Dst](origin, ty.MakeOpt(ty.MakePar(ty.MakeOccurs(template.Ty))), &thir.Absent[Dst]{})
		return d.ifThenElse(origin, []*thir.Expression[Dst]{condition}, []*thir.Expression[Dst]{template}, absent), true
	}
}

// conjuncts flattens conjunctions and forall calls over array literals.
func (d *desugarer[Dst, Src]) conjuncts(e *thir.Expression[Dst]) []*thir.Expression[Dst] {
	call, ok := e.Data.(*thir.Call[Dst])
	if !ok {
		return []*thir.Expression[Dst]{e}
	}
	switch calledFunction(d.Model(), call) {
	case thir.Conjunction:
		if len(call.Arguments) == 2 {
			return append(d.conjuncts(call.Arguments[0]), d.conjuncts(call.Arguments[1])...)
		}
	case thir.Forall:
		if len(call.Arguments) == 1 {
			if a, ok := call.Arguments[0].Data.(*thir.ArrayLiteral[Dst]); ok {
				return common.ConcatMap(d.conjuncts, a.Elements)
			}
		}
	}
	return []*thir.Expression[Dst]{e}
}

func (d *desugarer[Dst, Src]) conjunction(origin ast.Location, cs []*thir.Expression[Dst]) *thir.Expression[Dst] {
	if len(cs) == 1 {
		return cs[0]
	}
	m := d.Model()
	return thir.LookupCall(d.registry, m, origin, thir.Forall, thir.ArrayLit(m, origin, cs...))
}

// ifThenElse builds if_then_else([c1, ..., true], [r1, ..., otherwise]).
func (d *desugarer[Dst, Src]) ifThenElse(
	origin ast.Location, conditions, results []*thir.Expression[Dst], otherwise *thir.Expression[Dst],
) *thir.Expression[Dst] {
	m := d.Model()
	conditions = append(append([]*thir.Expression[Dst]{}, conditions...), thir.BoolLit[Dst](origin, true))
	results = append(append([]*thir.Expression[Dst]{}, results...), otherwise)
	return thir.LookupCall(d.registry, m, origin, thir.IfThenElseCall, thir.ArrayLit(m, origin, conditions...), thir.ArrayLit(m, origin, results...))
}

// FoldIfThenElse keeps runs of par conditions as conditionals and turns runs
// of var conditions into if_then_else calls. Conditionals whose result type
// cannot be made var are kept as they are.
func (d *desugarer[Dst, Src]) FoldIfThenElse(e *thir.Expression[Src], data *thir.IfThenElse[Src]) *thir.Expression[Dst] {
	d.surrounding = ""
	folded := d.FolderBase.FoldIfThenElse(e, data)
	ite := folded.Data.(*thir.IfThenElse[Dst])
	if common.All(func(b thir.Branch[Dst]) bool { return ty.KnownPar(b.Condition.Ty) }, ite.Branches) {
		return folded
	}
	if ite.Else == nil || !ty.KnownVarifiable(ty.MakePar(folded.Ty)) {
		return folded
	}
	d.conditionals++

	m := d.Model()
	rest := ite.Else
	for i := len(ite.Branches); i > 0; {
		par := ty.KnownPar(ite.Branches[i-1].Condition.Ty)
		j := i
		for j > 0 && ty.KnownPar(ite.Branches[j-1].Condition.Ty) == par {
			j--
		}
		run := ite.Branches[j:i]
		if par {
			rest = thir.NewExpression(m, e.Origin, &thir.IfThenElse[Dst]{Branches: run, Else: rest})
		} else {
			rest = d.ifThenElse(e.Origin,
				common.Map(func(b thir.Branch[Dst]) *thir.Expression[Dst] { return b.Condition }, run),
				common.Map(func(b thir.Branch[Dst]) *thir.Expression[Dst] { return b.Result }, run),
				rest)
		}
		i = j
	}
	return rest
}

type referenceVisitor[M any] struct {
	*traverse.VisitorBase[M]
	refs []thir.DeclarationId[M]
}

func (v *referenceVisitor[M]) VisitIdentifier(target thir.ResolvedIdentifier[M]) {
	if d, ok := target.(thir.DeclarationId[M]); ok {
		v.refs = append(v.refs, d)
	}
}

// references lists the declarations e refers to.
func references[M any](m *thir.Model[M], e *thir.Expression[M]) []thir.DeclarationId[M] {
	v := &referenceVisitor[M]{}
	v.VisitorBase = traverse.NewVisitorBase[M](m, v)
	v.VisitExpression(e)
	return v.refs
}
