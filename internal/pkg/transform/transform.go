// Package transform lowers typed models into monomorphic, enum-free and
// option-free models. Every pass folds its input into a fresh model whose
// marker names the stage that produced it.
package transform

import (
	"zinc-compiler/internal/pkg/common"
	"zinc-compiler/internal/pkg/thir"
	"zinc-compiler/internal/pkg/thir/ty"
)

// Markers of the models produced by each stage.
type (
	TopDown     struct{}
	Specialised struct{}
	Decaptured  struct{}
	EnumErased  struct{}
	Desugared   struct{}
	OptErased   struct{}
)

func types[M any](es []*thir.Expression[M]) []ty.Type {
	return common.Map(func(e *thir.Expression[M]) ty.Type { return e.Ty }, es)
}

// parameterTypes are the declared types the arguments of a call are bound
// to, with the type-inst variables of polymorphic callees instantiated. It
// fails for calls that do not target a function.
func parameterTypes[M any](m *thir.Model[M], c *thir.Call[M]) ([]ty.Type, bool) {
	f, ok := c.Function.(thir.FunctionId[M])
	if !ok {
		return nil, false
	}
	fn := m.Function(f)
	sig := fn.Signature(m)
	if !fn.IsPolymorphic() {
		return sig.Params, len(sig.Params) == len(c.Arguments)
	}
	inst, err := sig.Instantiate(types(c.Arguments))
	if err != nil {
		return nil, false
	}
	return inst.Params, true
}

// calledFunction returns the name of the function targeted by a call, empty
// for other callables.
func calledFunction[M any](m *thir.Model[M], c *thir.Call[M]) string {
	if f, ok := c.Function.(thir.FunctionId[M]); ok {
		return m.Function(f).Name
	}
	return ""
}

func isShow(name string) bool {
	return name == thir.Show || name == thir.ShowDzn || name == thir.ShowJSON
}

func isBottom(t ty.Type) bool {
	_, ok := t.(*ty.TBottom)
	return ok
}
