package thir

import (
	"zinc-compiler/internal/pkg/common"
	"zinc-compiler/internal/pkg/thir/ty"
)

// TypeOf derives the type of an expression from its shape.
func (m *Model[M]) TypeOf(data ExpressionData[M]) ty.Type {
	switch data.(type) {
	case *Absent[M]:
		return ty.OptBottom()
	case *BooleanLiteral[M]:
		return ty.ParBool()
	case *IntegerLiteral[M], *Infinity[M]:
		return ty.ParInt()
	case *FloatLiteral[M]:
		return ty.ParFloat()
	case *StringLiteral[M]:
		return ty.ParString()
	case *Identifier[M]:
		return m.identifierType(data.(*Identifier[M]).Target)
	case *ArrayLiteral[M]:
		{
			e := data.(*ArrayLiteral[M])
			if len(e.Elements) == 0 {
				return ty.Array1D(ty.Bottom())
			}
			return ty.Array1D(supertypeOf(e.Elements))
		}
	case *SetLiteral[M]:
		{
			e := data.(*SetLiteral[M])
			if len(e.Elements) == 0 {
				return ty.ParSet(ty.Bottom())
			}
			el := supertypeOf(e.Elements)
			if ty.IsVar(el) {
				return &ty.TSet{Inst: ty.Var, Element: ty.MakePar(el)}
			}
			return ty.ParSet(el)
		}
	case *TupleLiteral[M]:
		return ty.Tuple(common.Map(func(f *Expression[M]) ty.Type { return f.Ty }, data.(*TupleLiteral[M]).Fields)...)
	case *RecordLiteral[M]:
		return ty.Record(common.Map(func(f RecordLiteralField[M]) ty.RecordField {
			return ty.RecordField{Name: f.Name, Type: f.Value.Ty}
		}, data.(*RecordLiteral[M]).Fields)...)
	case *ArrayComprehension[M]:
		{
			e := data.(*ArrayComprehension[M])
			el := e.Template.Ty
			if varGenerators(e.Generators) {
				el = ty.MakeOpt(makeVarIfPossible(el))
			}
			return ty.Array1D(el)
		}
	case *SetComprehension[M]:
		{
			e := data.(*SetComprehension[M])
			if varGenerators(e.Generators) || ty.IsVar(e.Template.Ty) {
				return &ty.TSet{Inst: ty.Var, Element: ty.MakePar(ty.MakeOccurs(e.Template.Ty))}
			}
			return ty.ParSet(e.Template.Ty)
		}
	case *ArrayAccess[M]:
		{
			e := data.(*ArrayAccess[M])
			el := ty.MustElemTy(e.Collection.Ty)
			if ty.IsOpt(e.Collection.Ty) || ty.ContainsOpt(e.Indices.Ty) {
				el = ty.MakeOpt(el)
			}
			if !ty.KnownPar(e.Indices.Ty) {
				el = makeVarIfPossible(el)
			}
			return el
		}
	case *TupleAccess[M]:
		{
			e := data.(*TupleAccess[M])
			fields, ok := ty.Fields(e.Tuple.Ty)
			common.Assert(ok && e.Field >= 1 && e.Field <= len(fields), "invalid access .%d of %s", e.Field, e.Tuple.Ty)
			if ty.IsOpt(e.Tuple.Ty) {
				return ty.MakeOpt(fields[e.Field-1])
			}
			return fields[e.Field-1]
		}
	case *RecordAccess[M]:
		{
			e := data.(*RecordAccess[M])
			r, ok := e.Record.Ty.(*ty.TRecord)
			common.Assert(ok, "record access on %s", e.Record.Ty)
			f, ok := r.Field(e.Field)
			common.Assert(ok, "no field %s in %s", e.Field, r)
			if r.Opt == ty.Opt {
				return ty.MakeOpt(f)
			}
			return f
		}
	case *IfThenElse[M]:
		{
			e := data.(*IfThenElse[M])
			results := common.Map(func(b Branch[M]) *Expression[M] { return b.Result }, e.Branches)
			if e.Else != nil {
				results = append(results, e.Else)
			}
			result := supertypeOf(results)
			if common.Any(func(b Branch[M]) bool { return !ty.KnownPar(b.Condition.Ty) }, e.Branches) {
				result = makeVarIfPossible(result)
			}
			return result
		}
	case *Case[M]:
		{
			e := data.(*Case[M])
			result := supertypeOf(common.Map(func(a CaseArm[M]) *Expression[M] { return a.Result }, e.Arms))
			if !ty.KnownPar(e.Scrutinee.Ty) {
				result = makeVarIfPossible(result)
			}
			return result
		}
	case *Call[M]:
		return m.callType(data.(*Call[M]))
	case *Let[M]:
		return data.(*Let[M]).In.Ty
	case *Lambda[M]:
		{
			f := m.Function(data.(*Lambda[M]).Function)
			return f.FunctionType(m)
		}
	default:
		common.Unreachable("unknown expression %T", data)
		return nil
	}
}

func (m *Model[M]) identifierType(target ResolvedIdentifier[M]) ty.Type {
	switch target.(type) {
	case DeclarationId[M]:
		return m.Declaration(target.(DeclarationId[M])).Ty()
	case EnumerationId[M]:
		return ty.ParSet(ty.ParEnum(m.Enumeration(target.(EnumerationId[M])).Enum))
	case EnumMemberRef[M]:
		return ty.ParEnum(m.Enumeration(target.(EnumMemberRef[M]).Enumeration).Enum)
	case AnnotationId[M]:
		return ty.Ann()
	default:
		common.Unreachable("unknown identifier %T", target)
		return nil
	}
}

func (m *Model[M]) callType(c *Call[M]) ty.Type {
	args := common.Map(func(a *Expression[M]) ty.Type { return a.Ty }, c.Arguments)
	switch c.Function.(type) {
	case FunctionId[M]:
		{
			f := m.Function(c.Function.(FunctionId[M]))
			if !f.IsPolymorphic() {
				return f.Domain.Ty
			}
			fn, err := f.Signature(m).Instantiate(args)
			common.Assert(err == nil, "cannot instantiate %s: %v", f.Name, err)
			return fn.Return
		}
	case AnnotationId[M]:
		return ty.Ann()
	case AnnotationDestructure[M]:
		{
			a := m.Annotation(c.Function.(AnnotationDestructure[M]).Annotation)
			return m.tupleOrSingle(common.Map(func(p DeclarationId[M]) ty.Type {
				return m.Declaration(p).Ty()
			}, a.Parameters))
		}
	case EnumConstructor[M]:
		{
			ref := c.Function.(EnumConstructor[M]).Member
			enum := ty.ParEnum(m.Enumeration(ref.Enumeration).Enum)
			return liftConstructed(enum, args)
		}
	case EnumDestructor[M]:
		{
			ref := c.Function.(EnumDestructor[M]).Member
			member := m.EnumMember(ref)
			result := m.tupleOrSingle(common.Map(func(d *Domain[M]) ty.Type { return d.Ty }, member.Parameters))
			common.Assert(len(args) == 1, "destructor takes one argument")
			if ty.IsSet(args[0]) {
				return &ty.TSet{Inst: args[0].(*ty.TSet).Inst, Element: result}
			}
			if ty.IsVar(args[0]) {
				result = makeVarIfPossible(result)
			}
			if ty.IsOpt(args[0]) {
				result = ty.MakeOpt(result)
			}
			return result
		}
	case *ExpressionCallable[M]:
		{
			f, ok := c.Function.(*ExpressionCallable[M]).Expression.Ty.(*ty.TFunc)
			common.Assert(ok, "calling a non-function")
			return f.Function.Return
		}
	default:
		common.Unreachable("unknown callable %T", c.Function)
		return nil
	}
}

// liftConstructed gives a constructed enum value the set, var and opt
// qualifiers of its arguments.
func liftConstructed(enum ty.Type, args []ty.Type) ty.Type {
	for _, a := range args {
		if s, ok := a.(*ty.TSet); ok {
			return &ty.TSet{Inst: s.Inst, Element: enum}
		}
	}
	result := enum
	if common.Any(ty.IsVar, args) {
		result = ty.MustMakeVar(result)
	}
	if common.Any(ty.IsOpt, args) {
		result = ty.MakeOpt(result)
	}
	return result
}

func (m *Model[M]) tupleOrSingle(ts []ty.Type) ty.Type {
	if len(ts) == 1 {
		return ts[0]
	}
	return ty.Tuple(ts...)
}

func varGenerators[M any](gs []Generator[M]) bool {
	return common.Any(func(g Generator[M]) bool {
		return ty.IsVarSet(g.Collection.Ty) || g.Where != nil && !ty.KnownPar(g.Where.Ty)
	}, gs)
}

func supertypeOf[M any](es []*Expression[M]) ty.Type {
	t, ok := ty.MostSpecificSupertype(common.Map(func(e *Expression[M]) ty.Type { return e.Ty }, es)...)
	common.Assert(ok, "no common supertype")
	return t
}

func makeVarIfPossible(t ty.Type) ty.Type {
	if v, ok := ty.MakeVar(t); ok {
		return v
	}
	return t
}
