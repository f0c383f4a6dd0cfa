package transform

import (
	"github.com/go-logr/logr"
	"zinc-compiler/internal/pkg/thir"
	"zinc-compiler/internal/pkg/thir/traverse"
	"zinc-compiler/internal/pkg/thir/ty"
)

// topDownTyper gives `<>`, `[]` and `{}` the type their context expects
// instead of the bottom type they are built with. Contexts are declaration
// definitions, function bodies, call arguments, array and set elements,
// comprehension templates and the branches of conditionals.
type topDownTyper[Dst, Src any] struct {
	*traverse.FolderBase[Dst, Src]
	log     logr.Logger
	retyped int
}

func TopDownTyping[Dst, Src any](_ *thir.IdentifierRegistry, log logr.Logger, src *thir.Model[Src]) *thir.Model[Dst] {
	t := &topDownTyper[Dst, Src]{log: log.WithName("topdown")}
	t.FolderBase = traverse.NewFolderBase[Dst, Src](src, t)
	t.AddModel()
	t.log.V(1).Info("typed literals from context", "retyped", t.retyped, "items", len(t.Model().Items()))
	return t.Model()
}

func (t *topDownTyper[Dst, Src]) AddDeclaration(id thir.DeclarationId[Src]) {
	t.FolderBase.AddDeclaration(id)
	d := t.Model().Declaration(t.FoldDeclarationId(id))
	if d.Definition != nil {
		d.Definition = t.retype(d.Definition, d.Ty())
	}
}

func (t *topDownTyper[Dst, Src]) FoldFunctionBody(id thir.FunctionId[Src]) {
	t.FolderBase.FoldFunctionBody(id)
	f := t.Model().Function(t.FoldFunctionId(id))
	if !f.IsPolymorphic() {
		f.Body = t.retype(f.Body, f.Domain.Ty)
	}
}

func (t *topDownTyper[Dst, Src]) FoldCall(e *thir.Expression[Src], data *thir.Call[Src]) *thir.Expression[Dst] {
	folded := t.FolderBase.FoldCall(e, data)
	call := folded.Data.(*thir.Call[Dst])
	params, ok := parameterTypes(t.Model(), call)
	if !ok {
		return folded
	}
	for i, arg := range call.Arguments {
		call.Arguments[i] = t.retype(arg, params[i])
	}
	folded.Ty = t.Model().TypeOf(call)
	return folded
}

func (t *topDownTyper[Dst, Src]) FoldArrayLiteral(e *thir.Expression[Src], data *thir.ArrayLiteral[Src]) *thir.Expression[Dst] {
	return t.retype(t.FolderBase.FoldArrayLiteral(e, data), e.Ty)
}

func (t *topDownTyper[Dst, Src]) FoldSetLiteral(e *thir.Expression[Src], data *thir.SetLiteral[Src]) *thir.Expression[Dst] {
	return t.retype(t.FolderBase.FoldSetLiteral(e, data), e.Ty)
}

func (t *topDownTyper[Dst, Src]) FoldIfThenElse(e *thir.Expression[Src], data *thir.IfThenElse[Src]) *thir.Expression[Dst] {
	return t.retype(t.FolderBase.FoldIfThenElse(e, data), e.Ty)
}

func (t *topDownTyper[Dst, Src]) FoldCase(e *thir.Expression[Src], data *thir.Case[Src]) *thir.Expression[Dst] {
	folded := t.FolderBase.FoldCase(e, data)
	c := folded.Data.(*thir.Case[Dst])
	for i := range c.Arms {
		c.Arms[i].Result = t.retype(c.Arms[i].Result, e.Ty)
	}
	folded.Ty = t.Model().TypeOf(c)
	return folded
}

// retype replaces bottom types inside e with the matching parts of expected.
// Subexpressions without bottom types are left untouched.
func (t *topDownTyper[Dst, Src]) retype(e *thir.Expression[Dst], expected ty.Type) *thir.Expression[Dst] {
	if expected == nil || !ty.ContainsBottom(e.Ty) || ty.ContainsBottom(expected) || ty.ContainsTyVar(expected) {
		return e
	}
	m := t.Model()
	switch e.Data.(type) {
	case *thir.Absent[Dst]:
		e.Ty = ty.MakeOpt(ty.MakePar(expected))
	case *thir.ArrayLiteral[Dst]:
		{
			a := e.Data.(*thir.ArrayLiteral[Dst])
			el, ok := ty.ElemTy(expected)
			if !ok {
				return e
			}
			if len(a.Elements) == 0 {
				e.Ty = ty.MakePar(expected)
				break
			}
			for i, x := range a.Elements {
				a.Elements[i] = t.retype(x, el)
			}
			e.Ty = m.TypeOf(a)
		}
	case *thir.SetLiteral[Dst]:
		{
			s := e.Data.(*thir.SetLiteral[Dst])
			el, ok := ty.ElemTy(expected)
			if !ok {
				return e
			}
			if len(s.Elements) == 0 {
				e.Ty = ty.ParSet(ty.MakePar(el))
				break
			}
			for i, x := range s.Elements {
				s.Elements[i] = t.retype(x, el)
			}
			e.Ty = m.TypeOf(s)
		}
	case *thir.TupleLiteral[Dst]:
		{
			tl := e.Data.(*thir.TupleLiteral[Dst])
			fields, ok := ty.Fields(expected)
			if !ok || len(fields) != len(tl.Fields) {
				return e
			}
			for i, x := range tl.Fields {
				tl.Fields[i] = t.retype(x, fields[i])
			}
			e.Ty = m.TypeOf(tl)
		}
	case *thir.RecordLiteral[Dst]:
		{
			r := e.Data.(*thir.RecordLiteral[Dst])
			rt, ok := expected.(*ty.TRecord)
			if !ok {
				return e
			}
			for i, f := range r.Fields {
				if ft, ok := rt.Field(f.Name); ok {
					r.Fields[i].Value = t.retype(f.Value, ft)
				}
			}
			e.Ty = m.TypeOf(r)
		}
	case *thir.ArrayComprehension[Dst]:
		{
			c := e.Data.(*thir.ArrayComprehension[Dst])
			el, ok := ty.ElemTy(expected)
			if !ok {
				return e
			}
			c.Template = t.retype(c.Template, el)
			e.Ty = m.TypeOf(c)
		}
	case *thir.SetComprehension[Dst]:
		{
			c := e.Data.(*thir.SetComprehension[Dst])
			el, ok := ty.ElemTy(expected)
			if !ok {
				return e
			}
			c.Template = t.retype(c.Template, el)
			e.Ty = m.TypeOf(c)
		}
	case *thir.IfThenElse[Dst]:
		{
			ite := e.Data.(*thir.IfThenElse[Dst])
			for i := range ite.Branches {
				ite.Branches[i].Result = t.retype(ite.Branches[i].Result, expected)
			}
			if ite.Else != nil {
				ite.Else = t.retype(ite.Else, expected)
			}
			e.Ty = m.TypeOf(ite)
		}
	case *thir.Let[Dst]:
		{
			l := e.Data.(*thir.Let[Dst])
			l.In = t.retype(l.In, expected)
			e.Ty = m.TypeOf(l)
		}
	default:
		return e
	}
	t.retyped++
	return e
}
