// Package pretty prints models in the concrete syntax of the modelling
// language, mostly for debugging and tests.
package pretty

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"zinc-compiler/internal/pkg/common"
	"zinc-compiler/internal/pkg/thir"
	"zinc-compiler/internal/pkg/thir/ty"
)

var plainIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Printer[M any] struct {
	model *thir.Model[M]
	// Builtins also prints the bodyless declarations added for registry builtins.
	Builtins bool
}

func NewPrinter[M any](m *thir.Model[M]) *Printer[M] {
	return &Printer[M]{model: m}
}

// Print renders every top-level item on its own line.
func Print[M any](m *thir.Model[M]) string {
	return NewPrinter(m).Model()
}

func (p *Printer[M]) Model() string {
	sb := strings.Builder{}
	for _, item := range p.model.Items() {
		if f, ok := item.(thir.FunctionId[M]); ok && !p.Builtins {
			fn := p.model.Function(f)
			if !fn.HasBody() && p.model.IsDeclaredBuiltin(fn.Name) {
				continue
			}
		}
		sb.WriteString(p.Item(item))
		sb.WriteString(";\n")
	}
	return sb.String()
}

func (p *Printer[M]) Item(item thir.ItemId[M]) string {
	switch item.(type) {
	case thir.AnnotationId[M]:
		return p.annotation(item.(thir.AnnotationId[M]))
	case thir.ConstraintId[M]:
		return p.constraint(item.(thir.ConstraintId[M]))
	case thir.DeclarationId[M]:
		return p.Declaration(item.(thir.DeclarationId[M]))
	case thir.EnumerationId[M]:
		return p.enumeration(item.(thir.EnumerationId[M]))
	case thir.FunctionId[M]:
		return p.Function(item.(thir.FunctionId[M]))
	case thir.OutputId[M]:
		return p.output(item.(thir.OutputId[M]))
	case thir.SolveItem[M]:
		return p.solve()
	default:
		common.Unreachable("unknown item %T", item)
		return ""
	}
}

// Name quotes names that are not plain identifiers, such as operators and
// mangled names.
func Name(name string) string {
	if plainIdentifier.MatchString(name) {
		return name
	}
	return "'" + name + "'"
}

// DeclarationName is the name of d, or a name derived from its id when the
// declaration was introduced by a transformation.
func (p *Printer[M]) DeclarationName(d thir.DeclarationId[M]) string {
	if name := p.model.Declaration(d).Name; name != "" {
		return Name(name)
	}
	return fmt.Sprintf("_DECL_%d", uint32(d))
}

func (p *Printer[M]) annotations(sb *strings.Builder, anns []*thir.Expression[M]) {
	for _, a := range anns {
		sb.WriteString(" :: ")
		sb.WriteString(p.Expression(a))
	}
}

func (p *Printer[M]) annotation(id thir.AnnotationId[M]) string {
	a := p.model.Annotation(id)
	s := "annotation " + Name(a.Name)
	if a.Parameters != nil {
		s += "(" + strings.Join(common.Map(p.Declaration, a.Parameters), ", ") + ")"
	}
	return s
}

func (p *Printer[M]) constraint(id thir.ConstraintId[M]) string {
	c := p.model.Constraint(id)
	sb := strings.Builder{}
	sb.WriteString("constraint ")
	sb.WriteString(p.Expression(c.Expression))
	p.annotations(&sb, c.Annotations)
	return sb.String()
}

func (p *Printer[M]) Declaration(id thir.DeclarationId[M]) string {
	d := p.model.Declaration(id)
	sb := strings.Builder{}
	sb.WriteString(p.Domain(d.Domain))
	sb.WriteString(": ")
	sb.WriteString(p.DeclarationName(id))
	p.annotations(&sb, d.Annotations)
	if d.Definition != nil {
		sb.WriteString(" = ")
		sb.WriteString(p.Expression(d.Definition))
	}
	return sb.String()
}

func (p *Printer[M]) enumeration(id thir.EnumerationId[M]) string {
	e := p.model.Enumeration(id)
	sb := strings.Builder{}
	sb.WriteString("enum ")
	sb.WriteString(Name(string(e.Enum)))
	p.annotations(&sb, e.Annotations)
	if e.IsDefined() {
		sb.WriteString(" = ")
		var atoms []string
		var parts []string
		flush := func() {
			if len(atoms) > 0 {
				parts = append(parts, "{"+strings.Join(atoms, ", ")+"}")
				atoms = nil
			}
		}
		for _, c := range e.Definition {
			if c.IsAtom() {
				atoms = append(atoms, Name(c.Name))
				continue
			}
			flush()
			parts = append(parts, fmt.Sprintf("%s(%s)", Name(c.Name), strings.Join(common.Map(p.Domain, c.Parameters), ", ")))
		}
		flush()
		sb.WriteString(strings.Join(parts, " ++ "))
	}
	return sb.String()
}

func (p *Printer[M]) Function(id thir.FunctionId[M]) string {
	f := p.model.Function(id)
	sb := strings.Builder{}
	fmt.Fprintf(&sb, "function %s: %s(%s)", p.Domain(f.Domain), Name(f.Name),
		strings.Join(common.Map(p.Declaration, f.Parameters), ", "))
	p.annotations(&sb, f.Annotations)
	if f.HasBody() {
		sb.WriteString(" = ")
		sb.WriteString(p.Expression(f.Body))
	}
	return sb.String()
}

func (p *Printer[M]) output(id thir.OutputId[M]) string {
	o := p.model.Output(id)
	if o.Section != "" {
		return fmt.Sprintf("output :: %s %s", strconv.Quote(o.Section), p.Expression(o.Expression))
	}
	return "output " + p.Expression(o.Expression)
}

func (p *Printer[M]) solve() string {
	s, _ := p.model.Solve()
	sb := strings.Builder{}
	sb.WriteString("solve")
	p.annotations(&sb, s.Annotations)
	sb.WriteString(" ")
	sb.WriteString(s.Goal.String())
	if s.Objective != nil {
		sb.WriteString(" ")
		sb.WriteString(p.Expression(s.Objective))
	}
	return sb.String()
}

func qualifiers(t ty.Type) string {
	sb := strings.Builder{}
	if ty.IsVar(t) {
		sb.WriteString("var ")
	}
	if ty.IsOpt(t) {
		sb.WriteString("opt ")
	}
	return sb.String()
}

func (p *Printer[M]) Domain(d *thir.Domain[M]) string {
	switch d.Data.(type) {
	case *thir.Unbounded[M]:
		return d.Ty.String()
	case *thir.Bounded[M]:
		return qualifiers(d.Ty) + p.Expression(d.Data.(*thir.Bounded[M]).Expression)
	case *thir.ArrayDomain[M]:
		{
			a := d.Data.(*thir.ArrayDomain[M])
			dims := p.Domain(a.Dimensions)
			if t, ok := a.Dimensions.Data.(*thir.TupleDomain[M]); ok {
				dims = strings.Join(common.Map(p.Domain, t.Fields), ", ")
			}
			prefix := ""
			if ty.IsOpt(d.Ty) {
				prefix = "opt "
			}
			return fmt.Sprintf("%sarray [%s] of %s", prefix, dims, p.Domain(a.Element))
		}
	case *thir.SetDomain[M]:
		return qualifiers(d.Ty) + "set of " + p.Domain(d.Data.(*thir.SetDomain[M]).Element)
	case *thir.TupleDomain[M]:
		{
			fields := d.Data.(*thir.TupleDomain[M]).Fields
			return fmt.Sprintf("tuple(%s)", strings.Join(common.Map(p.Domain, fields), ", "))
		}
	case *thir.RecordDomain[M]:
		{
			fields := d.Data.(*thir.RecordDomain[M]).Fields
			return fmt.Sprintf("record(%s)", strings.Join(common.Map(func(f thir.RecordDomainField[M]) string {
				return fmt.Sprintf("%s: %s", p.Domain(f.Domain), Name(f.Name))
			}, fields), ", "))
		}
	default:
		common.Unreachable("unknown domain %T", d.Data)
		return ""
	}
}

func (p *Printer[M]) identifier(target thir.ResolvedIdentifier[M]) string {
	switch target.(type) {
	case thir.DeclarationId[M]:
		return p.DeclarationName(target.(thir.DeclarationId[M]))
	case thir.EnumerationId[M]:
		return Name(string(p.model.Enumeration(target.(thir.EnumerationId[M])).Enum))
	case thir.EnumMemberRef[M]:
		return Name(p.model.EnumMember(target.(thir.EnumMemberRef[M])).Name)
	case thir.AnnotationId[M]:
		return Name(p.model.Annotation(target.(thir.AnnotationId[M])).Name)
	default:
		common.Unreachable("unknown identifier %T", target)
		return ""
	}
}

// binary operators printed between their arguments
var infix = map[string]bool{
	"<->": true, "->": true, "<-": true, "\\/": true, "xor": true, "/\\": true,
	"=": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true, "in": true, "subset": true, "superset": true,
	"union": true, "diff": true, "symdiff": true, "..": true, "++": true, "+": true, "-": true,
	"*": true, "/": true, "div": true, "mod": true, "intersect": true,
}

func (p *Printer[M]) callable(c thir.Callable[M]) string {
	switch c.(type) {
	case thir.FunctionId[M]:
		return Name(p.model.Function(c.(thir.FunctionId[M])).Name)
	case thir.AnnotationId[M]:
		return Name(p.model.Annotation(c.(thir.AnnotationId[M])).Name)
	case thir.AnnotationDestructure[M]:
		return Name(p.model.Annotation(c.(thir.AnnotationDestructure[M]).Annotation).Name) + "⁻¹"
	case thir.EnumConstructor[M]:
		return Name(p.model.EnumMember(c.(thir.EnumConstructor[M]).Member).Name)
	case thir.EnumDestructor[M]:
		return Name(p.model.EnumMember(c.(thir.EnumDestructor[M]).Member).Name) + "⁻¹"
	case *thir.ExpressionCallable[M]:
		return "(" + p.Expression(c.(*thir.ExpressionCallable[M]).Expression) + ")"
	default:
		common.Unreachable("unknown callable %T", c)
		return ""
	}
}

func (p *Printer[M]) generators(gs []thir.Generator[M]) string {
	return strings.Join(common.Map(func(g thir.Generator[M]) string {
		s := fmt.Sprintf("%s in %s", strings.Join(common.Map(p.DeclarationName, g.Declarations), ", "), p.Expression(g.Collection))
		if g.Where != nil {
			s += " where " + p.Expression(g.Where)
		}
		return s
	}, gs), ", ")
}

func (p *Printer[M]) list(es []*thir.Expression[M]) string {
	return strings.Join(common.Map(p.Expression, es), ", ")
}

func (p *Printer[M]) Expression(e *thir.Expression[M]) string {
	sb := strings.Builder{}
	switch e.Data.(type) {
	case *thir.Absent[M]:
		sb.WriteString("<>")
	case *thir.BooleanLiteral[M]:
		sb.WriteString(strconv.FormatBool(e.Data.(*thir.BooleanLiteral[M]).Value))
	case *thir.IntegerLiteral[M]:
		sb.WriteString(strconv.FormatInt(e.Data.(*thir.IntegerLiteral[M]).Value, 10))
	case *thir.FloatLiteral[M]:
		sb.WriteString(strconv.FormatFloat(e.Data.(*thir.FloatLiteral[M]).Value, 'g', -1, 64))
	case *thir.StringLiteral[M]:
		sb.WriteString(strconv.Quote(e.Data.(*thir.StringLiteral[M]).Value))
	case *thir.Infinity[M]:
		sb.WriteString("infinity")
	case *thir.Identifier[M]:
		sb.WriteString(p.identifier(e.Data.(*thir.Identifier[M]).Target))
	case *thir.ArrayLiteral[M]:
		fmt.Fprintf(&sb, "[%s]", p.list(e.Data.(*thir.ArrayLiteral[M]).Elements))
	case *thir.SetLiteral[M]:
		fmt.Fprintf(&sb, "{%s}", p.list(e.Data.(*thir.SetLiteral[M]).Elements))
	case *thir.TupleLiteral[M]:
		{
			fields := e.Data.(*thir.TupleLiteral[M]).Fields
			if len(fields) == 1 {
				fmt.Fprintf(&sb, "(%s,)", p.Expression(fields[0]))
			} else {
				fmt.Fprintf(&sb, "(%s)", p.list(fields))
			}
		}
	case *thir.RecordLiteral[M]:
		fmt.Fprintf(&sb, "(%s)", strings.Join(common.Map(func(f thir.RecordLiteralField[M]) string {
			return fmt.Sprintf("%s: %s", Name(f.Name), p.Expression(f.Value))
		}, e.Data.(*thir.RecordLiteral[M]).Fields), ", "))
	case *thir.ArrayComprehension[M]:
		{
			c := e.Data.(*thir.ArrayComprehension[M])
			fmt.Fprintf(&sb, "[%s | %s]", p.Expression(c.Template), p.generators(c.Generators))
		}
	case *thir.SetComprehension[M]:
		{
			c := e.Data.(*thir.SetComprehension[M])
			fmt.Fprintf(&sb, "{%s | %s}", p.Expression(c.Template), p.generators(c.Generators))
		}
	case *thir.ArrayAccess[M]:
		{
			a := e.Data.(*thir.ArrayAccess[M])
			indices := p.Expression(a.Indices)
			if t, ok := a.Indices.Data.(*thir.TupleLiteral[M]); ok {
				indices = p.list(t.Fields)
			}
			fmt.Fprintf(&sb, "%s[%s]", p.Expression(a.Collection), indices)
		}
	case *thir.TupleAccess[M]:
		{
			a := e.Data.(*thir.TupleAccess[M])
			fmt.Fprintf(&sb, "%s.%d", p.Expression(a.Tuple), a.Field)
		}
	case *thir.RecordAccess[M]:
		{
			a := e.Data.(*thir.RecordAccess[M])
			fmt.Fprintf(&sb, "%s.%s", p.Expression(a.Record), Name(a.Field))
		}
	case *thir.IfThenElse[M]:
		{
			ite := e.Data.(*thir.IfThenElse[M])
			for i, b := range ite.Branches {
				if i == 0 {
					sb.WriteString("if ")
				} else {
					sb.WriteString(" elseif ")
				}
				fmt.Fprintf(&sb, "%s then %s", p.Expression(b.Condition), p.Expression(b.Result))
			}
			if ite.Else != nil {
				fmt.Fprintf(&sb, " else %s", p.Expression(ite.Else))
			}
			sb.WriteString(" endif")
		}
	case *thir.Case[M]:
		{
			c := e.Data.(*thir.Case[M])
			fmt.Fprintf(&sb, "case %s of %s endcase", p.Expression(c.Scrutinee),
				strings.Join(common.Map(func(a thir.CaseArm[M]) string {
					return fmt.Sprintf("%s => %s", p.pattern(a.Pattern), p.Expression(a.Result))
				}, c.Arms), ", "))
		}
	case *thir.Call[M]:
		{
			c := e.Data.(*thir.Call[M])
			if f, ok := c.Function.(thir.FunctionId[M]); ok && len(c.Arguments) == 2 && infix[p.model.Function(f).Name] {
				fmt.Fprintf(&sb, "(%s %s %s)", p.Expression(c.Arguments[0]), p.model.Function(f).Name, p.Expression(c.Arguments[1]))
				break
			}
			fmt.Fprintf(&sb, "%s(%s)", p.callable(c.Function), p.list(c.Arguments))
		}
	case *thir.Let[M]:
		{
			l := e.Data.(*thir.Let[M])
			sb.WriteString("let { ")
			for _, item := range l.Items {
				switch item.(type) {
				case thir.DeclarationId[M]:
					sb.WriteString(p.Declaration(item.(thir.DeclarationId[M])))
				case thir.ConstraintId[M]:
					sb.WriteString(p.constraint(item.(thir.ConstraintId[M])))
				}
				sb.WriteString("; ")
			}
			fmt.Fprintf(&sb, "} in %s", p.Expression(l.In))
		}
	case *thir.Lambda[M]:
		sb.WriteString(Name(p.model.Function(e.Data.(*thir.Lambda[M]).Function).Name))
	default:
		common.Unreachable("unknown expression %T", e.Data)
	}
	p.annotations(&sb, e.Annotations)
	return sb.String()
}

func (p *Printer[M]) pattern(pat thir.Pattern[M]) string {
	switch pat.(type) {
	case *thir.WildcardPattern[M]:
		return "_"
	case *thir.BindingPattern[M]:
		return p.DeclarationName(pat.(*thir.BindingPattern[M]).Declaration)
	case *thir.ExpressionPattern[M]:
		return p.Expression(pat.(*thir.ExpressionPattern[M]).Expression)
	case *thir.TuplePattern[M]:
		return fmt.Sprintf("(%s)", strings.Join(common.Map(p.pattern, pat.(*thir.TuplePattern[M]).Fields), ", "))
	case *thir.RecordPattern[M]:
		return fmt.Sprintf("(%s)", strings.Join(common.Map(func(f thir.RecordPatternField[M]) string {
			return fmt.Sprintf("%s: %s", Name(f.Name), p.pattern(f.Pattern))
		}, pat.(*thir.RecordPattern[M]).Fields), ", "))
	default:
		common.Unreachable("unknown pattern %T", pat)
		return ""
	}
}
