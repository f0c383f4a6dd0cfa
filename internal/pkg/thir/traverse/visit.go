package traverse

import (
	"zinc-compiler/internal/pkg/common"
	"zinc-compiler/internal/pkg/thir"
)

// Visitor walks a model without changing it. Implementations embed
// *VisitorBase and override the methods they care about; the base
// dispatches recursive calls through the embedding visitor.
type Visitor[M any] interface {
	VisitModel()
	VisitItem(item thir.ItemId[M])
	VisitAnnotation(id thir.AnnotationId[M])
	VisitConstraint(id thir.ConstraintId[M])
	VisitDeclaration(id thir.DeclarationId[M])
	VisitEnumeration(id thir.EnumerationId[M])
	VisitFunction(id thir.FunctionId[M])
	VisitOutput(id thir.OutputId[M])
	VisitSolve()
	VisitExpression(e *thir.Expression[M])
	VisitIdentifier(target thir.ResolvedIdentifier[M])
	VisitCallable(c thir.Callable[M])
	VisitGenerator(g thir.Generator[M])
	VisitDomain(d *thir.Domain[M])
	VisitPattern(p thir.Pattern[M])
}

type VisitorBase[M any] struct {
	model *thir.Model[M]
	self  Visitor[M]
}

// NewVisitorBase creates the default visitor for model. self is the visitor
// embedding the base, or nil when the base is used on its own.
func NewVisitorBase[M any](model *thir.Model[M], self Visitor[M]) *VisitorBase[M] {
	b := &VisitorBase[M]{model: model, self: self}
	if self == nil {
		b.self = b
	}
	return b
}

func (b *VisitorBase[M]) Model() *thir.Model[M] {
	return b.model
}

func (b *VisitorBase[M]) VisitModel() {
	for _, item := range b.model.Items() {
		b.self.VisitItem(item)
	}
}

func (b *VisitorBase[M]) VisitItem(item thir.ItemId[M]) {
	switch item.(type) {
	case thir.AnnotationId[M]:
		b.self.VisitAnnotation(item.(thir.AnnotationId[M]))
	case thir.ConstraintId[M]:
		b.self.VisitConstraint(item.(thir.ConstraintId[M]))
	case thir.DeclarationId[M]:
		b.self.VisitDeclaration(item.(thir.DeclarationId[M]))
	case thir.EnumerationId[M]:
		b.self.VisitEnumeration(item.(thir.EnumerationId[M]))
	case thir.FunctionId[M]:
		b.self.VisitFunction(item.(thir.FunctionId[M]))
	case thir.OutputId[M]:
		b.self.VisitOutput(item.(thir.OutputId[M]))
	case thir.SolveItem[M]:
		b.self.VisitSolve()
	default:
		common.Unreachable("unknown item %T", item)
	}
}

func (b *VisitorBase[M]) VisitAnnotation(id thir.AnnotationId[M]) {
	for _, p := range b.model.Annotation(id).Parameters {
		b.self.VisitDeclaration(p)
	}
}

func (b *VisitorBase[M]) VisitConstraint(id thir.ConstraintId[M]) {
	c := b.model.Constraint(id)
	b.visitAll(c.Annotations)
	b.self.VisitExpression(c.Expression)
}

func (b *VisitorBase[M]) VisitDeclaration(id thir.DeclarationId[M]) {
	d := b.model.Declaration(id)
	b.self.VisitDomain(d.Domain)
	b.visitAll(d.Annotations)
	if d.Definition != nil {
		b.self.VisitExpression(d.Definition)
	}
}

func (b *VisitorBase[M]) VisitEnumeration(id thir.EnumerationId[M]) {
	e := b.model.Enumeration(id)
	b.visitAll(e.Annotations)
	for _, c := range e.Definition {
		for _, p := range c.Parameters {
			b.self.VisitDomain(p)
		}
	}
}

// VisitFunction visits the signature and the body of a function.
func (b *VisitorBase[M]) VisitFunction(id thir.FunctionId[M]) {
	f := b.model.Function(id)
	b.visitAll(f.Annotations)
	b.self.VisitDomain(f.Domain)
	for _, p := range f.Parameters {
		b.self.VisitDeclaration(p)
	}
	if f.Body != nil {
		b.self.VisitExpression(f.Body)
	}
}

func (b *VisitorBase[M]) VisitOutput(id thir.OutputId[M]) {
	b.self.VisitExpression(b.model.Output(id).Expression)
}

func (b *VisitorBase[M]) VisitSolve() {
	s, ok := b.model.Solve()
	if !ok {
		return
	}
	b.visitAll(s.Annotations)
	if s.Objective != nil {
		b.self.VisitExpression(s.Objective)
	}
}

func (b *VisitorBase[M]) visitAll(es []*thir.Expression[M]) {
	for _, e := range es {
		b.self.VisitExpression(e)
	}
}

func (b *VisitorBase[M]) VisitExpression(e *thir.Expression[M]) {
	b.visitAll(e.Annotations)
	switch e.Data.(type) {
	case *thir.Absent[M], *thir.BooleanLiteral[M], *thir.IntegerLiteral[M], *thir.FloatLiteral[M],
		*thir.StringLiteral[M], *thir.Infinity[M]:
		{
		}
	case *thir.Identifier[M]:
		b.self.VisitIdentifier(e.Data.(*thir.Identifier[M]).Target)
	case *thir.ArrayLiteral[M]:
		b.visitAll(e.Data.(*thir.ArrayLiteral[M]).Elements)
	case *thir.SetLiteral[M]:
		b.visitAll(e.Data.(*thir.SetLiteral[M]).Elements)
	case *thir.TupleLiteral[M]:
		b.visitAll(e.Data.(*thir.TupleLiteral[M]).Fields)
	case *thir.RecordLiteral[M]:
		{
			for _, f := range e.Data.(*thir.RecordLiteral[M]).Fields {
				b.self.VisitExpression(f.Value)
			}
		}
	case *thir.ArrayComprehension[M]:
		{
			c := e.Data.(*thir.ArrayComprehension[M])
			for _, g := range c.Generators {
				b.self.VisitGenerator(g)
			}
			b.self.VisitExpression(c.Template)
		}
	case *thir.SetComprehension[M]:
		{
			c := e.Data.(*thir.SetComprehension[M])
			for _, g := range c.Generators {
				b.self.VisitGenerator(g)
			}
			b.self.VisitExpression(c.Template)
		}
	case *thir.ArrayAccess[M]:
		{
			a := e.Data.(*thir.ArrayAccess[M])
			b.self.VisitExpression(a.Collection)
			b.self.VisitExpression(a.Indices)
		}
	case *thir.TupleAccess[M]:
		b.self.VisitExpression(e.Data.(*thir.TupleAccess[M]).Tuple)
	case *thir.RecordAccess[M]:
		b.self.VisitExpression(e.Data.(*thir.RecordAccess[M]).Record)
	case *thir.IfThenElse[M]:
		{
			ite := e.Data.(*thir.IfThenElse[M])
			for _, br := range ite.Branches {
				b.self.VisitExpression(br.Condition)
				b.self.VisitExpression(br.Result)
			}
			if ite.Else != nil {
				b.self.VisitExpression(ite.Else)
			}
		}
	case *thir.Case[M]:
		{
			c := e.Data.(*thir.Case[M])
			b.self.VisitExpression(c.Scrutinee)
			for _, arm := range c.Arms {
				b.self.VisitPattern(arm.Pattern)
				b.self.VisitExpression(arm.Result)
			}
		}
	case *thir.Call[M]:
		{
			c := e.Data.(*thir.Call[M])
			b.self.VisitCallable(c.Function)
			b.visitAll(c.Arguments)
		}
	case *thir.Let[M]:
		{
			l := e.Data.(*thir.Let[M])
			for _, item := range l.Items {
				switch item.(type) {
				case thir.DeclarationId[M]:
					b.self.VisitDeclaration(item.(thir.DeclarationId[M]))
				case thir.ConstraintId[M]:
					b.self.VisitConstraint(item.(thir.ConstraintId[M]))
				default:
					common.Unreachable("unknown let item %T", item)
				}
			}
			b.self.VisitExpression(l.In)
		}
	case *thir.Lambda[M]:
		{
			// the lifted function is visited as a top-level item
		}
	default:
		common.Unreachable("unknown expression %T", e.Data)
	}
}

func (b *VisitorBase[M]) VisitIdentifier(thir.ResolvedIdentifier[M]) {}

func (b *VisitorBase[M]) VisitCallable(c thir.Callable[M]) {
	if ec, ok := c.(*thir.ExpressionCallable[M]); ok {
		b.self.VisitExpression(ec.Expression)
	}
}

func (b *VisitorBase[M]) VisitGenerator(g thir.Generator[M]) {
	for _, d := range g.Declarations {
		b.self.VisitDeclaration(d)
	}
	b.self.VisitExpression(g.Collection)
	if g.Where != nil {
		b.self.VisitExpression(g.Where)
	}
}

func (b *VisitorBase[M]) VisitDomain(d *thir.Domain[M]) {
	switch d.Data.(type) {
	case *thir.Unbounded[M]:
		{
		}
	case *thir.Bounded[M]:
		b.self.VisitExpression(d.Data.(*thir.Bounded[M]).Expression)
	case *thir.ArrayDomain[M]:
		{
			a := d.Data.(*thir.ArrayDomain[M])
			b.self.VisitDomain(a.Dimensions)
			b.self.VisitDomain(a.Element)
		}
	case *thir.SetDomain[M]:
		b.self.VisitDomain(d.Data.(*thir.SetDomain[M]).Element)
	case *thir.TupleDomain[M]:
		{
			for _, f := range d.Data.(*thir.TupleDomain[M]).Fields {
				b.self.VisitDomain(f)
			}
		}
	case *thir.RecordDomain[M]:
		{
			for _, f := range d.Data.(*thir.RecordDomain[M]).Fields {
				b.self.VisitDomain(f.Domain)
			}
		}
	default:
		common.Unreachable("unknown domain %T", d.Data)
	}
}

func (b *VisitorBase[M]) VisitPattern(p thir.Pattern[M]) {
	switch p.(type) {
	case *thir.WildcardPattern[M]:
		{
		}
	case *thir.BindingPattern[M]:
		b.self.VisitDeclaration(p.(*thir.BindingPattern[M]).Declaration)
	case *thir.ExpressionPattern[M]:
		b.self.VisitExpression(p.(*thir.ExpressionPattern[M]).Expression)
	case *thir.TuplePattern[M]:
		{
			for _, f := range p.(*thir.TuplePattern[M]).Fields {
				b.self.VisitPattern(f)
			}
		}
	case *thir.RecordPattern[M]:
		{
			for _, f := range p.(*thir.RecordPattern[M]).Fields {
				b.self.VisitPattern(f.Pattern)
			}
		}
	default:
		common.Unreachable("unknown pattern %T", p)
	}
}
