package pretty

import (
	"fmt"
	"strings"

	"zinc-compiler/internal/pkg/thir"
	"zinc-compiler/internal/pkg/thir/traverse"
	"zinc-compiler/internal/pkg/thir/ty"
)

// Stats counts the items of a model and the places where types that the
// lowering removes are still mentioned.
type Stats struct {
	Annotations  int
	Constraints  int
	Declarations int
	Enumerations int
	Functions    int
	Outputs      int

	// PolymorphicCalls counts calls to polymorphic functions with a body.
	PolymorphicCalls int
	// EnumTypes counts expressions and domains whose type mentions an enum.
	EnumTypes int
	// OptTypes counts expressions and domains whose type mentions an option type.
	OptTypes int
}

func (s Stats) String() string {
	sb := strings.Builder{}
	fmt.Fprintf(&sb, "annotations:       %d\n", s.Annotations)
	fmt.Fprintf(&sb, "constraints:       %d\n", s.Constraints)
	fmt.Fprintf(&sb, "declarations:      %d\n", s.Declarations)
	fmt.Fprintf(&sb, "enumerations:      %d\n", s.Enumerations)
	fmt.Fprintf(&sb, "functions:         %d\n", s.Functions)
	fmt.Fprintf(&sb, "outputs:           %d\n", s.Outputs)
	fmt.Fprintf(&sb, "polymorphic calls: %d\n", s.PolymorphicCalls)
	fmt.Fprintf(&sb, "enum types:        %d\n", s.EnumTypes)
	fmt.Fprintf(&sb, "opt types:         %d\n", s.OptTypes)
	return sb.String()
}

type statsVisitor[M any] struct {
	*traverse.VisitorBase[M]
	stats Stats
}

func (v *statsVisitor[M]) count(t ty.Type) {
	if ty.ContainsEnum(t) {
		v.stats.EnumTypes++
	}
	if ty.ContainsOpt(t) {
		v.stats.OptTypes++
	}
}

// VisitFunction skips registry signatures; they mention opt types whether or
// not the model does.
func (v *statsVisitor[M]) VisitFunction(id thir.FunctionId[M]) {
	fn := v.Model().Function(id)
	if !fn.HasBody() && v.Model().IsDeclaredBuiltin(fn.Name) {
		return
	}
	v.VisitorBase.VisitFunction(id)
}

func (v *statsVisitor[M]) VisitExpression(e *thir.Expression[M]) {
	v.count(e.Ty)
	if c, ok := e.Data.(*thir.Call[M]); ok {
		if f, ok := c.Function.(thir.FunctionId[M]); ok {
			fn := v.Model().Function(f)
			if fn.IsPolymorphic() && fn.HasBody() {
				v.stats.PolymorphicCalls++
			}
		}
	}
	v.VisitorBase.VisitExpression(e)
}

func (v *statsVisitor[M]) VisitDomain(d *thir.Domain[M]) {
	v.count(d.Ty)
	v.VisitorBase.VisitDomain(d)
}

// Summary walks every item of m, including let-bound declarations and
// function parameters. Builtin signatures are not counted.
func Summary[M any](m *thir.Model[M]) Stats {
	v := &statsVisitor[M]{}
	v.VisitorBase = traverse.NewVisitorBase[M](m, v)
	v.VisitModel()
	v.stats.Annotations = m.AnnotationsLen()
	v.stats.Constraints = m.ConstraintsLen()
	v.stats.Declarations = m.DeclarationsLen()
	v.stats.Enumerations = m.EnumerationsLen()
	v.stats.Functions = m.FunctionsLen()
	v.stats.Outputs = m.OutputsLen()
	return v.stats
}
