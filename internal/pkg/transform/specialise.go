package transform

import (
	"github.com/go-logr/logr"
	"zinc-compiler/internal/pkg/ast"
	"zinc-compiler/internal/pkg/common"
	"zinc-compiler/internal/pkg/thir"
	"zinc-compiler/internal/pkg/thir/traverse"
	"zinc-compiler/internal/pkg/thir/ty"
)

type specialisation struct {
	function uint32
	name     string
}

// instance is a specialised function whose body has not been folded yet.
type instance[Dst, Src any] struct {
	source   thir.FunctionId[Src]
	target   thir.FunctionId[Dst]
	params   []thir.DeclarationId[Dst]
	bindings map[string]ty.Type
}

// specialiser replaces every call to a polymorphic function with a body by a
// call to a monomorphic copy of it. Copies are named after the instantiated
// parameter types and created once per distinct instantiation. The shell of
// a copy is added before its body is folded, so recursive calls find it.
//
// Calls to show, showDzn and showJSON on values with structure that later
// passes erase get a synthesised body instead.
type specialiser[Dst, Src any] struct {
	*traverse.FolderBase[Dst, Src]
	registry *thir.IdentifierRegistry
	log      logr.Logger

	memo     map[specialisation]thir.FunctionId[Dst]
	todo     []instance[Dst, Src]
	bindings map[string]ty.Type
}

func Specialise[Dst, Src any](registry *thir.IdentifierRegistry, log logr.Logger, src *thir.Model[Src]) *thir.Model[Dst] {
	s := &specialiser[Dst, Src]{
		registry: registry,
		log:      log.WithName("specialise"),
		memo:     map[specialisation]thir.FunctionId[Dst]{},
	}
	s.FolderBase = traverse.NewFolderBase[Dst, Src](src, s)
	s.AddModel()
	s.log.V(1).Info("specialised polymorphic functions", "instances", len(s.memo))
	return s.Model()
}

// AddModel folds the model, then the bodies of the instances it asked for.
// Folding a body may queue further instances.
func (s *specialiser[Dst, Src]) AddModel() {
	s.FolderBase.AddModel()
	for len(s.todo) > 0 {
		next := s.todo[0]
		s.todo = s.todo[1:]
		s.fill(next)
	}
}

// AddFunction skips polymorphic functions with a body; only their instances
// reach the destination model.
func (s *specialiser[Dst, Src]) AddFunction(id thir.FunctionId[Src]) {
	f := s.Source().Function(id)
	if f.IsPolymorphic() && f.HasBody() {
		return
	}
	outer := s.bindings
	s.bindings = nil
	s.FolderBase.AddFunction(id)
	s.bindings = outer
}

func (s *specialiser[Dst, Src]) FoldDomain(d *thir.Domain[Src]) *thir.Domain[Dst] {
	if s.bindings != nil && d.IsUnbounded() && ty.ContainsTyVar(d.Ty) {
		return thir.UnboundedDomain[Dst](d.Origin, ty.InstantiateTyVars(s.bindings, d.Ty))
	}
	return s.FolderBase.FoldDomain(d)
}

func (s *specialiser[Dst, Src]) FoldLambda(e *thir.Expression[Src], data *thir.Lambda[Src]) *thir.Expression[Dst] {
	f := s.Source().Function(data.Function)
	common.Assert(!f.IsPolymorphic() || !f.HasBody(), "lambda %s is polymorphic", f.Name)
	return s.FolderBase.FoldLambda(e, data)
}

func (s *specialiser[Dst, Src]) FoldCall(e *thir.Expression[Src], data *thir.Call[Src]) *thir.Expression[Dst] {
	f, ok := data.Function.(thir.FunctionId[Src])
	if !ok {
		return s.FolderBase.FoldCall(e, data)
	}
	args := common.Map(s.FoldExpression, data.Arguments)
	src := s.Source()
	if fn := src.Function(f); s.bindings != nil && fn.IsPolymorphic() {
		// inside an instance the arguments are concrete and may select a
		// more specific overload
		if better, _, err := src.ResolveOverload(fn.Name, types(args)); err == nil {
			f = better
		}
	}
	return s.call(e.Origin, f, args)
}

func (s *specialiser[Dst, Src]) call(origin ast.Location, f thir.FunctionId[Src], args []*thir.Expression[Dst]) *thir.Expression[Dst] {
	var target thir.FunctionId[Dst]
	if tys := types(args); s.needsInstance(f, tys) {
		target = s.instantiate(f, tys)
	} else {
		target = s.FoldFunctionId(f)
	}
	return thir.NewExpression(s.Model(), origin, &thir.Call[Dst]{Function: target, Arguments: args})
}

func (s *specialiser[Dst, Src]) needsInstance(f thir.FunctionId[Src], args []ty.Type) bool {
	fn := s.Source().Function(f)
	if !fn.IsPolymorphic() {
		return false
	}
	if fn.HasBody() {
		return true
	}
	return isShow(fn.Name) && common.Any(needsShowBody, args)
}

// instantiate returns the copy of f for the argument types, adding its shell
// and queueing its body the first time.
func (s *specialiser[Dst, Src]) instantiate(f thir.FunctionId[Src], args []ty.Type) thir.FunctionId[Dst] {
	src := s.Source()
	fn := src.Function(f)
	sig := fn.Signature(src)
	bindings, err := sig.Bindings(args)
	common.Assert(err == nil, "cannot specialise %s for (%s): %v", fn.Name, common.Join(args, ", "), err)

	params := common.Map(func(t ty.Type) ty.Type { return ty.InstantiateTyVars(bindings, t) }, sig.Params)
	name := ty.Mangle(fn.Name, params)
	key := specialisation{function: uint32(f), name: name}
	if dst, ok := s.memo[key]; ok {
		return dst
	}

	outer := s.bindings
	s.bindings = bindings
	domain := s.FoldDomain(fn.Domain)
	decls := make([]thir.DeclarationId[Dst], 0, len(fn.Parameters))
	for _, p := range fn.Parameters {
		s.AddDeclaration(p)
		decl := s.FoldDeclarationId(p)
		if d := s.Model().Declaration(decl); d.Name == "" {
			d.Name = "x"
		}
		decls = append(decls, decl)
	}
	var annotations []*thir.Expression[Dst]
	if fn.Annotations != nil {
		annotations = common.Map(s.FoldExpression, fn.Annotations)
	}
	s.bindings = outer

	dst := s.Model().AddFunction(thir.Function[Dst]{
		Origin:      fn.Origin,
		Name:        name,
		Domain:      domain,
		Parameters:  decls,
		Annotations: annotations,
	})
	s.memo[key] = dst
	s.todo = append(s.todo, instance[Dst, Src]{source: f, target: dst, params: decls, bindings: bindings})
	s.log.V(2).Info("specialised function", "function", name)
	return dst
}

func (s *specialiser[Dst, Src]) fill(inst instance[Dst, Src]) {
	fn := s.Source().Function(inst.source)
	for i, p := range fn.Parameters {
		s.Replacements().InsertDeclaration(p, inst.params[i])
	}
	outer := s.bindings
	s.bindings = inst.bindings
	defer func() { s.bindings = outer }()

	target := s.Model().Function(inst.target)
	if fn.HasBody() {
		target.Body = s.FoldExpression(fn.Body)
		return
	}
	x := thir.Ident(s.Model(), fn.Origin, inst.params[0])
	target.Body = s.showBody(fn.Name, x)
}

// needsShowBody reports whether showing a value of type t involves structure
// that later passes erase. Scalar enums are shown by the enum eraser itself.
func needsShowBody(t ty.Type) bool {
	switch t.(type) {
	case *ty.TEnum:
		return ty.IsOpt(t)
	case *ty.TTuple, *ty.TRecord:
		return true
	case *ty.TArray:
		{
			el := t.(*ty.TArray).Element
			return ty.IsOpt(t) || needsShowBody(el) || isEnum(el)
		}
	case *ty.TSet:
		{
			set := t.(*ty.TSet)
			if set.Inst == ty.Var {
				return ty.IsOpt(t)
			}
			return ty.IsOpt(t) || needsShowBody(set.Element) || isEnum(set.Element)
		}
	default:
		return ty.IsOpt(t)
	}
}

func isEnum(t ty.Type) bool {
	_, ok := t.(*ty.TEnum)
	return ok
}
