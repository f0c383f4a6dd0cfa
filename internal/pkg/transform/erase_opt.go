package transform

import (
	"github.com/go-logr/logr"
	"zinc-compiler/internal/pkg/ast"
	"zinc-compiler/internal/pkg/common"
	"zinc-compiler/internal/pkg/thir"
	"zinc-compiler/internal/pkg/thir/traverse"
	"zinc-compiler/internal/pkg/thir/ty"
)

// optEraser represents every optional value as a tuple of an occurs flag and
// a value. Absent values become (false, d) for a default value d of the
// underlying type. Non-optional values flowing into optional positions are
// wrapped as (true, v).
//
// A var optional declaration restricted to a set S is split into an occurs
// variable and a value variable ranging over mzn_opt_domain(S), linked by a
// mzn_opt_channel constraint. Defined declarations and bounded optional
// elements or fields keep their tuple form and get the mzn_opt_channel
// constraint on its parts.
type optEraser[Dst, Src any] struct {
	*traverse.FolderBase[Dst, Src]
	registry *thir.IdentifierRegistry
	log      logr.Logger

	absents    int
	wrapped    int
	restricted int
}

func EraseOpts[Dst, Src any](registry *thir.IdentifierRegistry, log logr.Logger, src *thir.Model[Src]) *thir.Model[Dst] {
	o := &optEraser[Dst, Src]{registry: registry, log: log.WithName("erase_opt")}
	o.FolderBase = traverse.NewFolderBase[Dst, Src](src, o)
	o.AddModel()
	o.log.V(1).Info("erased option types", "absent", o.absents, "wrapped", o.wrapped, "restricted", o.restricted)
	return o.Model()
}

func isRestrictedVarOpt[M any](d *thir.Declaration[M]) bool {
	_, bounded := d.Domain.Data.(*thir.Bounded[M])
	return bounded && d.Definition == nil && ty.IsVar(d.Ty()) && ty.IsOpt(d.Ty())
}

func (o *optEraser[Dst, Src]) AddDeclaration(id thir.DeclarationId[Src]) {
	d := o.Source().Declaration(id)
	if d.TopLevel && isRestrictedVarOpt(d) {
		o.restrict(id)
		return
	}
	o.FolderBase.AddDeclaration(id)
	if d.Definition != nil {
		folded := o.Model().Declaration(o.FoldDeclarationId(id))
		folded.Definition = o.coerce(folded.Definition, d.Definition.Ty, d.Ty())
	}
	if d.TopLevel {
		o.channel(id)
	}
}

// hasOptRestriction reports whether an optional part of d is bounded.
func hasOptRestriction[M any](d *thir.Domain[M]) bool {
	switch d.Data.(type) {
	case *thir.Bounded[M]:
		return ty.IsOpt(d.Ty)
	case *thir.ArrayDomain[M]:
		return hasOptRestriction(d.Data.(*thir.ArrayDomain[M]).Element)
	case *thir.TupleDomain[M]:
		return common.Any(hasOptRestriction[M], d.Data.(*thir.TupleDomain[M]).Fields)
	case *thir.RecordDomain[M]:
		return common.Any(func(f thir.RecordDomainField[M]) bool {
			return hasOptRestriction(f.Domain)
		}, d.Data.(*thir.RecordDomain[M]).Fields)
	default:
		return false
	}
}

// channel adds a constraint for every bounded optional part of a declaration
// kept in tuple form.
func (o *optEraser[Dst, Src]) channel(id thir.DeclarationId[Src]) []thir.LetItem[Dst] {
	d := o.Source().Declaration(id)
	if !hasOptRestriction(d.Domain) {
		return nil
	}
	m := o.Model()
	decl := o.FoldDeclarationId(id)
	var items []thir.LetItem[Dst]
	for _, c := range o.channels(d.Domain, func() *thir.Expression[Dst] { return thir.Ident(m, d.Origin, decl) }) {
		items = append(items, m.AddConstraint(thir.Constraint[Dst]{Origin: d.Origin, TopLevel: d.TopLevel, Expression: c}))
		o.restricted++
	}
	return items
}

// channels builds the mzn_opt_channel calls restricting value, the erased
// form of a value of domain d.
func (o *optEraser[Dst, Src]) channels(d *thir.Domain[Src], value func() *thir.Expression[Dst]) []*thir.Expression[Dst] {
	if !hasOptRestriction(d) {
		return nil
	}
	m := o.Model()
	origin := d.Origin
	switch d.Data.(type) {
	case *thir.Bounded[Src]:
		{
			set := o.FoldExpression(d.Data.(*thir.Bounded[Src]).Expression)
			return []*thir.Expression[Dst]{thir.LookupCall(o.registry, m, origin, thir.MznOptChannel,
				thir.Field(m, origin, value(), 1), thir.Field(m, origin, value(), 2), set)}
		}
	case *thir.ArrayDomain[Src]:
		{
			collection := value()
			e := m.AddDeclaration(thir.Declaration[Dst]{
				Origin: origin,
				Name:   "e",
				Domain: thir.UnboundedDomain[Dst](origin, ty.MustElemTy(collection.Ty)),
			})
			element := o.channels(d.Data.(*thir.ArrayDomain[Src]).Element, func() *thir.Expression[Dst] {
				return thir.Ident(m, origin, e)
			})
			each := thir.NewExpression(m, origin, &thir.ArrayComprehension[Dst]{
				Template:   o.conjunction(origin, element),
				Generators: []thir.Generator[Dst]{{Declarations: []thir.DeclarationId[Dst]{e}, Collection: collection}},
			})
			return []*thir.Expression[Dst]{thir.LookupCall(o.registry, m, origin, thir.Forall, each)}
		}
	case *thir.TupleDomain[Src]:
		{
			var result []*thir.Expression[Dst]
			for i, f := range d.Data.(*thir.TupleDomain[Src]).Fields {
				result = append(result, o.channels(f, func() *thir.Expression[Dst] {
					return thir.Field(m, origin, value(), i+1)
				})...)
			}
			return result
		}
	case *thir.RecordDomain[Src]:
		{
			var result []*thir.Expression[Dst]
			for _, f := range d.Data.(*thir.RecordDomain[Src]).Fields {
				result = append(result, o.channels(f.Domain, func() *thir.Expression[Dst] {
					return thir.NewExpression(m, origin, &thir.RecordAccess[Dst]{Record: value(), Field: f.Name})
				})...)
			}
			return result
		}
	default:
		return nil
	}
}

func (o *optEraser[Dst, Src]) conjunction(origin ast.Location, cs []*thir.Expression[Dst]) *thir.Expression[Dst] {
	if len(cs) == 1 {
		return cs[0]
	}
	m := o.Model()
	return thir.LookupCall(o.registry, m, origin, thir.Forall, thir.ArrayLit(m, origin, cs...))
}

// restrict adds the occurs and value variables of a restricted var optional
// declaration, the tuple standing for it and the channelling constraint.
func (o *optEraser[Dst, Src]) restrict(id thir.DeclarationId[Src]) []thir.LetItem[Dst] {
	d := o.Source().Declaration(id)
	set := d.Domain.Data.(*thir.Bounded[Src]).Expression
	m := o.Model()
	origin := d.Origin
	named := func(suffix string) string {
		if d.Name == "" {
			return ""
		}
		return d.Name + suffix
	}

	occurs := m.AddDeclaration(thir.Declaration[Dst]{
		Origin:   origin,
		Name:     named("_occurs"),
		TopLevel: d.TopLevel,
		Domain:   thir.UnboundedDomain[Dst](origin, ty.VarBool()),
	})
	optDomain := thir.LookupCall(o.registry, m, origin, thir.MznOptDomain, o.FoldExpression(set))
	deopt := m.AddDeclaration(thir.Declaration[Dst]{
		Origin:   origin,
		Name:     named("_deopt"),
		TopLevel: d.TopLevel,
		Domain:   thir.BoundedDomain(origin, ty.Var, ty.NonOpt, optDomain),
	})
	tuple := thir.Declaration[Dst]{
		Origin:     origin,
		Name:       d.Name,
		TopLevel:   d.TopLevel,
		Domain:     thir.UnboundedDomain[Dst](origin, ty.EraseOpt(d.Ty())),
		Definition: thir.TupleLit(m, origin, thir.Ident(m, origin, occurs), thir.Ident(m, origin, deopt)),
	}
	if d.Annotations != nil {
		tuple.Annotations = common.Map(o.FoldExpression, d.Annotations)
	}
	decl := m.AddDeclaration(tuple)
	o.Replacements().InsertDeclaration(id, decl)
	channel := m.AddConstraint(thir.Constraint[Dst]{
		Origin:   origin,
		TopLevel: d.TopLevel,
		Expression: thir.LookupCall(o.registry, m, origin, thir.MznOptChannel,
			thir.Ident(m, origin, occurs), thir.Ident(m, origin, deopt), o.FoldExpression(set)),
	})
	o.restricted++
	return []thir.LetItem[Dst]{occurs, deopt, decl, channel}
}

func (o *optEraser[Dst, Src]) FoldLet(e *thir.Expression[Src], data *thir.Let[Src]) *thir.Expression[Dst] {
	src := o.Source()
	var items []thir.LetItem[Dst]
	for _, item := range data.Items {
		if d, ok := item.(thir.DeclarationId[Src]); ok && isRestrictedVarOpt(src.Declaration(d)) {
			items = append(items, o.restrict(d)...)
			continue
		}
		items = append(items, o.FoldLetItem(item))
		if d, ok := item.(thir.DeclarationId[Src]); ok {
			items = append(items, o.channel(d)...)
		}
	}
	in := o.FoldExpression(data.In)
	return thir.NewTypedExpression[Dst](e.Origin, in.Ty, &thir.Let[Dst]{Items: items, In: in})
}

func (o *optEraser[Dst, Src]) FoldFunctionBody(id thir.FunctionId[Src]) {
	o.FolderBase.FoldFunctionBody(id)
	fn := o.Source().Function(id)
	dst := o.Model().Function(o.FoldFunctionId(id))
	dst.Body = o.coerce(dst.Body, fn.Body.Ty, fn.Domain.Ty)
}

// FoldDomain drops the restriction of optional domains. Declarations keep it
// through restrict or channel.
func (o *optEraser[Dst, Src]) FoldDomain(d *thir.Domain[Src]) *thir.Domain[Dst] {
	if d.IsUnbounded() || ty.IsOpt(d.Ty) {
		return thir.UnboundedDomain[Dst](d.Origin, ty.EraseOpt(d.Ty))
	}
	return o.FolderBase.FoldDomain(d)
}

func (o *optEraser[Dst, Src]) FoldExpression(x *thir.Expression[Src]) *thir.Expression[Dst] {
	if x.IsAbsent() {
		o.absents++
		m := o.Model()
		value := thir.DefaultValue(m, x.Origin, ty.EraseOpt(ty.MakePar(ty.MakeOccurs(x.Ty))))
		return thir.TupleLit(m, x.Origin, thir.BoolLit[Dst](x.Origin, false), value)
	}
	folded := o.FolderBase.FoldExpression(x)
	if ty.ContainsOpt(folded.Ty) {
		folded.Ty = ty.EraseOpt(folded.Ty)
	}
	return folded
}

func (o *optEraser[Dst, Src]) FoldCall(e *thir.Expression[Src], data *thir.Call[Src]) *thir.Expression[Dst] {
	src := o.Source()
	m := o.Model()
	switch name := calledFunction(src, data); name {
	case thir.Occurs, thir.Deopt:
		if len(data.Arguments) == 1 {
			arg := data.Arguments[0]
			x := o.FoldExpression(arg)
			if !ty.IsOpt(arg.Ty) {
				if name == thir.Occurs {
					return thir.BoolLit[Dst](e.Origin, true)
				}
				return x
			}
			if name == thir.Occurs {
				return thir.Field(m, e.Origin, x, 1)
			}
			return thir.Field(m, e.Origin, x, 2)
		}
	}

	function := o.FoldCallable(data.Function)
	args := common.Map(o.FoldExpression, data.Arguments)
	if params, ok := parameterTypes(src, data); ok {
		for i := range args {
			args[i] = o.coerce(args[i], data.Arguments[i].Ty, params[i])
		}
	}
	return thir.NewTypedExpression[Dst](e.Origin, ty.EraseOpt(e.Ty), &thir.Call[Dst]{Function: function, Arguments: args})
}

// FoldArrayLiteral coerces the elements before typing the literal: erased
// optional and plain elements have no common supertype.
func (o *optEraser[Dst, Src]) FoldArrayLiteral(e *thir.Expression[Src], data *thir.ArrayLiteral[Src]) *thir.Expression[Dst] {
	el, _ := ty.ElemTy(e.Ty)
	elements := common.Map(func(x *thir.Expression[Src]) *thir.Expression[Dst] {
		return o.coerce(o.FoldExpression(x), x.Ty, el)
	}, data.Elements)
	return o.typed(e, &thir.ArrayLiteral[Dst]{Elements: elements})
}

// typed builds the folded form of e with its erased source type, unless that
// type still has to be inferred.
func (o *optEraser[Dst, Src]) typed(e *thir.Expression[Src], data thir.ExpressionData[Dst]) *thir.Expression[Dst] {
	if ty.ContainsBottom(e.Ty) {
		return thir.NewExpression(o.Model(), e.Origin, data)
	}
	return thir.NewTypedExpression[Dst](e.Origin, ty.EraseOpt(e.Ty), data)
}

func (o *optEraser[Dst, Src]) FoldArrayComprehension(
	e *thir.Expression[Src], data *thir.ArrayComprehension[Src],
) *thir.Expression[Dst] {
	folded := o.FolderBase.FoldArrayComprehension(e, data)
	c := folded.Data.(*thir.ArrayComprehension[Dst])
	if el, ok := ty.ElemTy(e.Ty); ok {
		c.Template = o.coerce(c.Template, data.Template.Ty, el)
	}
	folded.Ty = ty.EraseOpt(e.Ty)
	return folded
}

func (o *optEraser[Dst, Src]) FoldIfThenElse(e *thir.Expression[Src], data *thir.IfThenElse[Src]) *thir.Expression[Dst] {
	folded := &thir.IfThenElse[Dst]{
		Branches: common.Map(func(br thir.Branch[Src]) thir.Branch[Dst] {
			cond := o.FoldExpression(br.Condition)
			return thir.Branch[Dst]{Condition: cond, Result: o.coerce(o.FoldExpression(br.Result), br.Result.Ty, e.Ty)}
		}, data.Branches),
	}
	if data.Else != nil {
		folded.Else = o.coerce(o.FoldExpression(data.Else), data.Else.Ty, e.Ty)
	}
	return o.typed(e, folded)
}

func (o *optEraser[Dst, Src]) FoldCase(e *thir.Expression[Src], data *thir.Case[Src]) *thir.Expression[Dst] {
	scrutinee := o.FoldExpression(data.Scrutinee)
	return o.typed(e, &thir.Case[Dst]{
		Scrutinee: scrutinee,
		Arms: common.Map(func(arm thir.CaseArm[Src]) thir.CaseArm[Dst] {
			pattern := o.FoldPattern(arm.Pattern)
			return thir.CaseArm[Dst]{Pattern: pattern, Result: o.coerce(o.FoldExpression(arm.Result), arm.Result.Ty, e.Ty)}
		}, data.Arms),
	})
}

// needsCoercion reports whether a value of type have lacks an occurs flag
// somewhere type want has one.
func needsCoercion(have, want ty.Type) bool {
	if have == nil || want == nil || isBottom(have) {
		return false
	}
	if ty.IsOpt(want) && !ty.IsOpt(have) {
		return true
	}
	switch want.(type) {
	case *ty.TArray:
		{
			h, ok := have.(*ty.TArray)
			return ok && needsCoercion(h.Element, want.(*ty.TArray).Element)
		}
	case *ty.TTuple:
		{
			h, ok := have.(*ty.TTuple)
			w := want.(*ty.TTuple)
			if !ok || len(h.Fields) != len(w.Fields) {
				return false
			}
			for i := range w.Fields {
				if needsCoercion(h.Fields[i], w.Fields[i]) {
					return true
				}
			}
			return false
		}
	case *ty.TRecord:
		{
			h, ok := have.(*ty.TRecord)
			if !ok {
				return false
			}
			return common.Any(func(f ty.RecordField) bool {
				hf, ok := h.Field(f.Name)
				return ok && needsCoercion(hf, f.Type)
			}, want.(*ty.TRecord).Fields)
		}
	default:
		return false
	}
}

// coerce adds the occurs flags x of source type have lacks to be used where
// source type want is expected.
func (o *optEraser[Dst, Src]) coerce(x *thir.Expression[Dst], have, want ty.Type) *thir.Expression[Dst] {
	if !needsCoercion(have, want) {
		return x
	}
	m := o.Model()
	origin := x.Origin
	if ty.IsOpt(want) && !ty.IsOpt(have) {
		o.wrapped++
		inner := o.coerce(x, have, ty.MakeOccurs(want))
		return thir.TupleLit(m, origin, thir.BoolLit[Dst](origin, true), inner)
	}

	switch want.(type) {
	case *ty.TArray:
		{
			haveEl, wantEl := have.(*ty.TArray).Element, want.(*ty.TArray).Element
			if a, ok := x.Data.(*thir.ArrayLiteral[Dst]); ok {
				for i := range a.Elements {
					a.Elements[i] = o.coerce(a.Elements[i], haveEl, wantEl)
				}
				x.Ty = m.TypeOf(a)
				return x
			}
			return thir.Materialise(m, origin, x, func(ref *thir.Expression[Dst]) *thir.Expression[Dst] {
				e := m.AddDeclaration(thir.Declaration[Dst]{
					Origin: origin,
					Name:   "e",
					Domain: thir.UnboundedDomain[Dst](origin, ty.MustElemTy(ref.Ty)),
				})
				elements := thir.NewExpression(m, origin, &thir.ArrayComprehension[Dst]{
					Template:   o.coerce(thir.Ident(m, origin, e), haveEl, wantEl),
					Generators: []thir.Generator[Dst]{{Declarations: []thir.DeclarationId[Dst]{e}, Collection: ref}},
				})
				return thir.LookupCall(o.registry, m, origin, thir.ArrayXd, ref, elements)
			})
		}
	case *ty.TTuple:
		{
			haveFields, wantFields := have.(*ty.TTuple).Fields, want.(*ty.TTuple).Fields
			if t, ok := x.Data.(*thir.TupleLiteral[Dst]); ok {
				for i := range t.Fields {
					t.Fields[i] = o.coerce(t.Fields[i], haveFields[i], wantFields[i])
				}
				x.Ty = m.TypeOf(t)
				return x
			}
			return thir.Materialise(m, origin, x, func(ref *thir.Expression[Dst]) *thir.Expression[Dst] {
				fields := make([]*thir.Expression[Dst], 0, len(wantFields))
				for i := range wantFields {
					fields = append(fields, o.coerce(thir.Field(m, origin, ref, i+1), haveFields[i], wantFields[i]))
				}
				return thir.TupleLit(m, origin, fields...)
			})
		}
	case *ty.TRecord:
		{
			h := have.(*ty.TRecord)
			if r, ok := x.Data.(*thir.RecordLiteral[Dst]); ok {
				w := want.(*ty.TRecord)
				for i, f := range r.Fields {
					hf, _ := h.Field(f.Name)
					wf, _ := w.Field(f.Name)
					r.Fields[i].Value = o.coerce(f.Value, hf, wf)
				}
				x.Ty = m.TypeOf(r)
				return x
			}
			return thir.Materialise(m, origin, x, func(ref *thir.Expression[Dst]) *thir.Expression[Dst] {
				fields := common.Map(func(f ty.RecordField) thir.RecordLiteralField[Dst] {
					hf, _ := h.Field(f.Name)
					access := thir.NewExpression(m, origin, &thir.RecordAccess[Dst]{Record: ref, Field: f.Name})
					return thir.RecordLiteralField[Dst]{Name: f.Name, Value: o.coerce(access, hf, f.Type)}
				}, want.(*ty.TRecord).Fields)
				return thir.NewExpression(m, origin, &thir.RecordLiteral[Dst]{Fields: fields})
			})
		}
	default:
		return x
	}
}
