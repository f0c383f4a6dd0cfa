package transform

import (
	"github.com/go-logr/logr"
	"zinc-compiler/internal/pkg/ast"
	"zinc-compiler/internal/pkg/common"
	"zinc-compiler/internal/pkg/thir"
	"zinc-compiler/internal/pkg/thir/traverse"
	"zinc-compiler/internal/pkg/thir/ty"
)

var (
	catalogType       = ty.MustParse(thir.CatalogType)
	catalogParamsType = ty.MustParse("array [int] of tuple(int, set of int)")
)

// erasedEnum is what an enumeration became: a catalog describing its
// constructors, the set of its values and one declaration per atom.
type erasedEnum[Dst any] struct {
	id      int
	catalog thir.DeclarationId[Dst]
	set     thir.DeclarationId[Dst]
	atoms   map[int]thir.DeclarationId[Dst]
}

// enumEraser replaces enumerations by integers. Enums get ids in the order
// they are first needed, which is the order of their items except that an
// enum used in the constructor parameters of another comes first. show on
// an enum receives the catalogs of every enum up to its own id.
type enumEraser[Dst, Src any] struct {
	*traverse.FolderBase[Dst, Src]
	registry *thir.IdentifierRegistry
	log      logr.Logger

	byRef  map[ty.EnumRef]thir.EnumerationId[Src]
	erased map[thir.EnumerationId[Src]]*erasedEnum[Dst]
	order  []*erasedEnum[Dst]
}

func EraseEnums[Dst, Src any](registry *thir.IdentifierRegistry, log logr.Logger, src *thir.Model[Src]) *thir.Model[Dst] {
	e := &enumEraser[Dst, Src]{
		registry: registry,
		log:      log.WithName("erase_enum"),
		byRef:    map[ty.EnumRef]thir.EnumerationId[Src]{},
		erased:   map[thir.EnumerationId[Src]]*erasedEnum[Dst]{},
	}
	for _, id := range src.Enumerations() {
		e.byRef[src.Enumeration(id).Enum] = id
	}
	e.FolderBase = traverse.NewFolderBase[Dst, Src](src, e)
	e.AddModel()
	e.log.V(1).Info("erased enumerations", "enums", len(e.order))
	return e.Model()
}

func (e *enumEraser[Dst, Src]) AddEnumeration(id thir.EnumerationId[Src]) {
	e.erase(id)
}

func (e *enumEraser[Dst, Src]) eraseRef(ref ty.EnumRef) *erasedEnum[Dst] {
	id, ok := e.byRef[ref]
	common.Assert(ok, "unknown enum %s", ref)
	return e.erase(id)
}

func (e *enumEraser[Dst, Src]) erase(id thir.EnumerationId[Src]) *erasedEnum[Dst] {
	if done, ok := e.erased[id]; ok {
		return done
	}
	src := e.Source().Enumeration(id)
	m := e.Model()
	o := src.Origin
	name := string(src.Enum)

	// constructor parameters are erased first so that the enums they
	// mention take the lower ids
	var entries []*thir.Expression[Dst]
	for _, c := range src.Definition {
		params := make([]*thir.Expression[Dst], 0, len(c.Parameters))
		for i, p := range c.Parameters {
			params = append(params, thir.TupleLit(m, o, thir.IntLit[Dst](o, int64(i+1)), e.parameterSet(p)))
		}
		entries = append(entries, thir.TupleLit(m, o,
			thir.StringLit[Dst](o, c.Name),
			thir.NewTypedExpression[Dst](o, catalogParamsType, &thir.ArrayLiteral[Dst]{Elements: params}),
		))
	}

	catalog := thir.Declaration[Dst]{
		Origin:   o,
		Name:     "mzn_enum_" + name,
		TopLevel: true,
		Domain:   thir.UnboundedDomain[Dst](o, catalogType),
	}
	if src.IsDefined() {
		definition := thir.NewTypedExpression[Dst](o, catalogType, &thir.ArrayLiteral[Dst]{Elements: entries})
		catalog.Definition = thir.LookupCall(e.registry, m, o, thir.MznGetEnum, definition)
	}
	erased := &erasedEnum[Dst]{id: len(e.order) + 1, atoms: map[int]thir.DeclarationId[Dst]{}}
	erased.catalog = m.AddDeclaration(catalog)
	e.erased[id] = erased
	e.order = append(e.order, erased)

	erased.set = m.AddDeclaration(thir.Declaration[Dst]{
		Origin:     o,
		Name:       name,
		TopLevel:   true,
		Domain:     thir.UnboundedDomain[Dst](o, ty.ParSet(ty.ParInt())),
		Definition: thir.LookupCall(e.registry, m, o, thir.MznDefiningSet, thir.Ident(m, o, erased.catalog)),
	})
	for i, c := range src.Definition {
		if !c.IsAtom() {
			continue
		}
		erased.atoms[i] = m.AddDeclaration(thir.Declaration[Dst]{
			Origin:   o,
			Name:     c.Name,
			TopLevel: true,
			Domain:   thir.UnboundedDomain[Dst](o, ty.ParInt()),
			Definition: thir.LookupCall(e.registry, m, o, thir.MznConstructEnum,
				thir.Ident(m, o, erased.catalog), thir.IntLit[Dst](o, int64(i+1))),
		})
	}
	e.log.V(2).Info("erased enumeration", "enum", name, "id", erased.id)
	return erased
}

// parameterSet is the set of integers a constructor parameter ranges over.
func (e *enumEraser[Dst, Src]) parameterSet(p *thir.Domain[Src]) *thir.Expression[Dst] {
	m := e.Model()
	o := p.Origin
	switch p.Data.(type) {
	case *thir.Bounded[Src]:
		return e.FoldExpression(p.Data.(*thir.Bounded[Src]).Expression)
	case *thir.Unbounded[Src]:
		switch p.Ty.(type) {
		case *ty.TEnum:
			return thir.Ident(m, o, e.eraseRef(p.Ty.(*ty.TEnum).Enum).set)
		case *ty.TInt:
			{
				infinity := thir.NewExpression(m, o, &thir.Infinity[Dst]{})
				return thir.LookupCall(e.registry, m, o, thir.RangeOp,
					thir.LookupCall(e.registry, m, o, thir.Negate, infinity), infinity)
			}
		case *ty.TBool:
			return thir.LookupCall(e.registry, m, o, thir.RangeOp, thir.IntLit[Dst](o, 0), thir.IntLit[Dst](o, 1))
		}
	}
	common.Unreachable("unsupported constructor parameter %s", p.Ty)
	return nil
}

func (e *enumEraser[Dst, Src]) FoldExpression(x *thir.Expression[Src]) *thir.Expression[Dst] {
	folded := e.FolderBase.FoldExpression(x)
	if ty.ContainsEnum(folded.Ty) {
		folded.Ty = ty.EraseEnum(folded.Ty)
	}
	return folded
}

func (e *enumEraser[Dst, Src]) FoldResolvedIdentifier(target thir.ResolvedIdentifier[Src]) thir.ResolvedIdentifier[Dst] {
	switch target.(type) {
	case thir.EnumerationId[Src]:
		return e.erase(target.(thir.EnumerationId[Src])).set
	case thir.EnumMemberRef[Src]:
		{
			ref := target.(thir.EnumMemberRef[Src])
			atom, ok := e.erase(ref.Enumeration).atoms[ref.Index]
			common.Assert(ok, "%s is not an atom", e.Source().EnumMember(ref).Name)
			return atom
		}
	default:
		return e.FolderBase.FoldResolvedIdentifier(target)
	}
}

// FoldDomain bounds var enum domains by the set of the enum's values. Par
// enum domains become plain int.
func (e *enumEraser[Dst, Src]) FoldDomain(d *thir.Domain[Src]) *thir.Domain[Dst] {
	if !d.IsUnbounded() {
		return e.FolderBase.FoldDomain(d)
	}
	if enum, ok := d.Ty.(*ty.TEnum); ok && enum.Inst == ty.Var {
		set := thir.Ident(e.Model(), d.Origin, e.eraseRef(enum.Enum).set)
		return thir.BoundedDomain(d.Origin, enum.Inst, enum.Opt, set)
	}
	return thir.UnboundedDomain[Dst](d.Origin, ty.EraseEnum(d.Ty))
}

func (e *enumEraser[Dst, Src]) FoldCall(x *thir.Expression[Src], data *thir.Call[Src]) *thir.Expression[Dst] {
	switch data.Function.(type) {
	case thir.EnumConstructor[Src]:
		return e.construct(x.Origin, data.Function.(thir.EnumConstructor[Src]).Member, data.Arguments)
	case thir.EnumDestructor[Src]:
		return e.destruct(x.Origin, data.Function.(thir.EnumDestructor[Src]).Member, data.Arguments)
	case thir.FunctionId[Src]:
		{
			name := calledFunction(e.Source(), data)
			if len(data.Arguments) != 1 || !isShow(name) {
				break
			}
			if enum, ok := data.Arguments[0].Ty.(*ty.TEnum); ok && !ty.IsOpt(enum) {
				return e.show(x.Origin, enum.Enum, e.FoldExpression(data.Arguments[0]))
			}
		}
	}
	return e.FolderBase.FoldCall(x, data)
}

func (e *enumEraser[Dst, Src]) construct(origin ast.Location, ref thir.EnumMemberRef[Src], args []*thir.Expression[Src]) *thir.Expression[Dst] {
	m := e.Model()
	erased := e.erase(ref.Enumeration)
	values := common.Map(func(a *thir.Expression[Src]) *thir.Expression[Dst] {
		common.Assert(!ty.IsSet(a.Ty) && !ty.IsOpt(a.Ty), "unsupported constructor argument %s", a.Ty)
		v := e.FoldExpression(a)
		if _, ok := v.Ty.(*ty.TBool); ok {
			return thir.LookupCall(e.registry, m, origin, thir.Bool2Int, v)
		}
		return v
	}, args)
	return thir.LookupCall(e.registry, m, origin, thir.MznConstructEnum,
		thir.Ident(m, origin, erased.catalog), thir.IntLit[Dst](origin, int64(ref.Index+1)), thir.ArrayLit(m, origin, values...))
}

func (e *enumEraser[Dst, Src]) destruct(origin ast.Location, ref thir.EnumMemberRef[Src], args []*thir.Expression[Src]) *thir.Expression[Dst] {
	m := e.Model()
	common.Assert(len(args) == 1, "destructor takes one argument")
	common.Assert(!ty.IsSet(args[0].Ty) && !ty.IsOpt(args[0].Ty), "unsupported destructor argument %s", args[0].Ty)
	erased := e.erase(ref.Enumeration)
	member := e.Source().EnumMember(ref)

	arguments := thir.LookupCall(e.registry, m, origin, thir.MznDestructEnum,
		thir.Ident(m, origin, erased.catalog), thir.IntLit[Dst](origin, int64(ref.Index+1)), e.FoldExpression(args[0]))
	access := func(array *thir.Expression[Dst], i int) *thir.Expression[Dst] {
		v := thir.NewExpression(m, origin, &thir.ArrayAccess[Dst]{Collection: array, Indices: thir.IntLit[Dst](origin, int64(i+1))})
		if _, ok := member.Parameters[i].Ty.(*ty.TBool); ok {
			return thir.LookupCall(e.registry, m, origin, "=", v, thir.IntLit[Dst](origin, 1))
		}
		return v
	}
	if len(member.Parameters) == 1 {
		return access(arguments, 0)
	}
	return thir.Materialise(m, origin, arguments, func(array *thir.Expression[Dst]) *thir.Expression[Dst] {
		return thir.TupleLit(m, origin, common.Map(func(i int) *thir.Expression[Dst] {
			return access(array, i)
		}, common.Range(0, len(member.Parameters)))...)
	})
}

func (e *enumEraser[Dst, Src]) show(origin ast.Location, ref ty.EnumRef, value *thir.Expression[Dst]) *thir.Expression[Dst] {
	m := e.Model()
	erased := e.eraseRef(ref)
	catalogs := common.Map(func(en *erasedEnum[Dst]) *thir.Expression[Dst] {
		return thir.Ident(m, origin, en.catalog)
	}, e.order[:erased.id])
	return thir.LookupCall(e.registry, m, origin, thir.MznShowEnum,
		thir.ArrayLit(m, origin, catalogs...), thir.IntLit[Dst](origin, int64(erased.id)), value)
}
