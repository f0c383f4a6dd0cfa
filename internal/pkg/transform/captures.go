package transform

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"zinc-compiler/internal/pkg/thir"
	"zinc-compiler/internal/pkg/thir/traverse"
)

// Captures holds, for every function with a body, the top-level declarations
// its body refers to directly or through the functions it calls.
type Captures[M any] struct {
	sets map[thir.FunctionId[M]][]thir.DeclarationId[M]
}

// captureVisitor collects the direct references of one function body.
type captureVisitor[M any] struct {
	*traverse.VisitorBase[M]
	decls   map[thir.DeclarationId[M]]bool
	callees map[thir.FunctionId[M]]bool
}

func (v *captureVisitor[M]) VisitIdentifier(target thir.ResolvedIdentifier[M]) {
	if d, ok := target.(thir.DeclarationId[M]); ok && v.Model().Declaration(d).TopLevel {
		v.decls[d] = true
	}
}

func (v *captureVisitor[M]) VisitCallable(c thir.Callable[M]) {
	if f, ok := c.(thir.FunctionId[M]); ok && v.Model().Function(f).HasBody() {
		v.callees[f] = true
	}
	v.VisitorBase.VisitCallable(c)
}

func (v *captureVisitor[M]) VisitExpression(e *thir.Expression[M]) {
	if l, ok := e.Data.(*thir.Lambda[M]); ok {
		v.callees[l.Function] = true
	}
	v.VisitorBase.VisitExpression(e)
}

// NewCaptures computes the capture set of every function of m. Sets of
// recursive functions are completed by iterating to a fixpoint.
func NewCaptures[M any](m *thir.Model[M]) *Captures[M] {
	direct := map[thir.FunctionId[M]]*captureVisitor[M]{}
	sets := map[thir.FunctionId[M]]map[thir.DeclarationId[M]]bool{}
	var functions []thir.FunctionId[M]
	for _, f := range m.Functions() {
		fn := m.Function(f)
		if !fn.HasBody() {
			continue
		}
		v := &captureVisitor[M]{decls: map[thir.DeclarationId[M]]bool{}, callees: map[thir.FunctionId[M]]bool{}}
		v.VisitorBase = traverse.NewVisitorBase[M](m, v)
		v.VisitExpression(fn.Body)
		direct[f] = v
		sets[f] = maps.Clone(v.decls)
		functions = append(functions, f)
	}

	for changed := true; changed; {
		changed = false
		for _, f := range functions {
			for callee := range direct[f].callees {
				for d := range sets[callee] {
					if !sets[f][d] {
						sets[f][d] = true
						changed = true
					}
				}
			}
		}
	}

	c := &Captures[M]{sets: map[thir.FunctionId[M]][]thir.DeclarationId[M]{}}
	for f, set := range sets {
		if len(set) == 0 {
			continue
		}
		ids := make([]thir.DeclarationId[M], 0, len(set))
		for d := range set {
			ids = append(ids, d)
		}
		slices.Sort(ids)
		c.sets[f] = ids
	}
	return c
}

// Of returns the captures of f sorted by id, nil when it captures nothing.
func (c *Captures[M]) Of(f thir.FunctionId[M]) []thir.DeclarationId[M] {
	return c.sets[f]
}
