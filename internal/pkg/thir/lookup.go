package thir

import (
	"github.com/cockroachdb/errors"
	"zinc-compiler/internal/pkg/ast"
	"zinc-compiler/internal/pkg/common"
	"zinc-compiler/internal/pkg/thir/ty"
)

// LookupFunction resolves the overload of name that best matches args among
// the functions of m. Registry builtins missing from m are declared on first use.
func LookupFunction[M any](reg *IdentifierRegistry, m *Model[M], name string, args []ty.Type) (FunctionId[M], ty.FunctionType, error) {
	id, fn, err := matchFunction(m, name, args)
	if err == nil || !reg.Has(name) {
		return id, fn, err
	}
	if m.declareBuiltin(reg, name) == 0 {
		return id, fn, err
	}
	return matchFunction(m, name, args)
}

// ResolveOverload picks the overload of name that best matches args among the
// functions already in m.
func (m *Model[M]) ResolveOverload(name string, args []ty.Type) (FunctionId[M], ty.FunctionType, error) {
	return matchFunction(m, name, args)
}

func matchFunction[M any](m *Model[M], name string, args []ty.Type) (FunctionId[M], ty.FunctionType, error) {
	candidates := m.LookupFunctions(name)
	if len(candidates) == 0 {
		return 0, ty.FunctionType{}, errors.Wrapf(ty.ErrNoMatchingFunction, "no function named %q", name)
	}
	overloads := common.Map(func(id FunctionId[M]) ty.Overload[FunctionId[M]] {
		f := m.Function(id)
		return ty.Overload[FunctionId[M]]{
			Data:        id,
			HasBody:     f.HasBody(),
			Polymorphic: f.IsPolymorphic(),
			Signature:   f.Signature(m),
		}
	}, candidates)
	o, fn, err := ty.MatchFunction(overloads, args)
	if err != nil {
		return 0, ty.FunctionType{}, errors.Wrapf(err, "calling %s", name)
	}
	return o.Data, fn, nil
}

// declareBuiltin adds a bodyless function for every registered overload of
// name that m does not declare yet, and returns how many were added. Folders
// copy builtins one overload at a time, so a model may hold only some of them.
func (m *Model[M]) declareBuiltin(reg *IdentifierRegistry, name string) int {
	m.builtins[name] = true
	added := 0
	for _, sig := range reg.Signatures(name) {
		if _, ok := m.FindBuiltin(name, sig.PolymorphicFunctionType); ok {
			continue
		}
		added++
		params := common.Map(func(t ty.Type) DeclarationId[M] {
			return m.AddDeclaration(Declaration[M]{Domain: UnboundedDomain[M](ast.Location{}, t)})
		}, sig.Params)
		m.AddFunction(Function[M]{
			Name:       name,
			Domain:     UnboundedDomain[M](ast.Location{}, sig.Return),
			TyParams:   sig.TyParams,
			Parameters: params,
		})
	}
	return added
}

// FindBuiltin returns the bodyless function called name with exactly the
// signature sig.
func (m *Model[M]) FindBuiltin(name string, sig ty.PolymorphicFunctionType) (FunctionId[M], bool) {
	want := sig.String()
	return common.Find(func(id FunctionId[M]) bool {
		f := m.Function(id)
		return !f.HasBody() && f.Signature(m).String() == want
	}, m.LookupFunctions(name))
}

// MarkBuiltin records that the functions called name came from the registry.
func (m *Model[M]) MarkBuiltin(name string) {
	m.builtins[name] = true
}

// IsDeclaredBuiltin reports whether m received the registry overloads of name.
func (m *Model[M]) IsDeclaredBuiltin(name string) bool {
	return m.builtins[name]
}

// LookupCall builds a call to the overload of name matching the arguments.
// Failing to find one is an internal error.
func LookupCall[M any](reg *IdentifierRegistry, m *Model[M], origin ast.Location, name string, args ...*Expression[M]) *Expression[M] {
	tys := common.Map(func(e *Expression[M]) ty.Type { return e.Ty }, args)
	id, fn, err := LookupFunction(reg, m, name, tys)
	if err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "cannot call builtin %s", name))
	}
	return NewTypedExpression[M](origin, fn.Return, &Call[M]{Function: id, Arguments: args})
}
