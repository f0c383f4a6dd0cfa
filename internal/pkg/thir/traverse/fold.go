package traverse

import (
	"zinc-compiler/internal/pkg/common"
	"zinc-compiler/internal/pkg/thir"
	"zinc-compiler/internal/pkg/thir/ty"
)

// Folder builds a Dst model from a Src model. Passes embed *FolderBase and
// override the methods for the nodes they rewrite; the base dispatches every
// recursive call through the embedding folder.
//
// Items are added in source order, so a top-level item may only refer to
// items added before it. Functions are the exception: a function referenced
// before its item is added on first reference. Function bodies are folded
// after every item has been added and may refer to anything.
type Folder[Dst, Src any] interface {
	Model() *thir.Model[Dst]
	Source() *thir.Model[Src]
	Replacements() *ReplacementMap[Dst, Src]

	AddModel()
	AddItem(item thir.ItemId[Src])
	AddAnnotation(id thir.AnnotationId[Src])
	AddConstraint(id thir.ConstraintId[Src])
	AddDeclaration(id thir.DeclarationId[Src])
	AddEnumeration(id thir.EnumerationId[Src])
	AddFunction(id thir.FunctionId[Src])
	AddOutput(id thir.OutputId[Src])
	AddSolve()

	FoldAnnotationId(id thir.AnnotationId[Src]) thir.AnnotationId[Dst]
	FoldConstraintId(id thir.ConstraintId[Src]) thir.ConstraintId[Dst]
	FoldDeclarationId(id thir.DeclarationId[Src]) thir.DeclarationId[Dst]
	FoldEnumerationId(id thir.EnumerationId[Src]) thir.EnumerationId[Dst]
	FoldFunctionId(id thir.FunctionId[Src]) thir.FunctionId[Dst]
	FoldEnumMember(ref thir.EnumMemberRef[Src]) thir.EnumMemberRef[Dst]
	FoldFunctionBody(id thir.FunctionId[Src])

	FoldExpression(e *thir.Expression[Src]) *thir.Expression[Dst]
	FoldIdentifier(e *thir.Expression[Src], data *thir.Identifier[Src]) *thir.Expression[Dst]
	FoldArrayLiteral(e *thir.Expression[Src], data *thir.ArrayLiteral[Src]) *thir.Expression[Dst]
	FoldSetLiteral(e *thir.Expression[Src], data *thir.SetLiteral[Src]) *thir.Expression[Dst]
	FoldTupleLiteral(e *thir.Expression[Src], data *thir.TupleLiteral[Src]) *thir.Expression[Dst]
	FoldRecordLiteral(e *thir.Expression[Src], data *thir.RecordLiteral[Src]) *thir.Expression[Dst]
	FoldArrayComprehension(e *thir.Expression[Src], data *thir.ArrayComprehension[Src]) *thir.Expression[Dst]
	FoldSetComprehension(e *thir.Expression[Src], data *thir.SetComprehension[Src]) *thir.Expression[Dst]
	FoldArrayAccess(e *thir.Expression[Src], data *thir.ArrayAccess[Src]) *thir.Expression[Dst]
	FoldTupleAccess(e *thir.Expression[Src], data *thir.TupleAccess[Src]) *thir.Expression[Dst]
	FoldRecordAccess(e *thir.Expression[Src], data *thir.RecordAccess[Src]) *thir.Expression[Dst]
	FoldIfThenElse(e *thir.Expression[Src], data *thir.IfThenElse[Src]) *thir.Expression[Dst]
	FoldCase(e *thir.Expression[Src], data *thir.Case[Src]) *thir.Expression[Dst]
	FoldCall(e *thir.Expression[Src], data *thir.Call[Src]) *thir.Expression[Dst]
	FoldLet(e *thir.Expression[Src], data *thir.Let[Src]) *thir.Expression[Dst]
	FoldLambda(e *thir.Expression[Src], data *thir.Lambda[Src]) *thir.Expression[Dst]

	FoldResolvedIdentifier(target thir.ResolvedIdentifier[Src]) thir.ResolvedIdentifier[Dst]
	FoldCallable(c thir.Callable[Src]) thir.Callable[Dst]
	FoldGenerator(g thir.Generator[Src]) thir.Generator[Dst]
	FoldDomain(d *thir.Domain[Src]) *thir.Domain[Dst]
	FoldPattern(p thir.Pattern[Src]) thir.Pattern[Dst]
	FoldLetItem(item thir.LetItem[Src]) thir.LetItem[Dst]
}

type FolderBase[Dst, Src any] struct {
	model        *thir.Model[Dst]
	source       *thir.Model[Src]
	replacements *ReplacementMap[Dst, Src]
	self         Folder[Dst, Src]
}

// NewFolderBase creates the default folder from src into a fresh model. self
// is the folder embedding the base, or nil when the base is used on its own.
func NewFolderBase[Dst, Src any](src *thir.Model[Src], self Folder[Dst, Src]) *FolderBase[Dst, Src] {
	b := &FolderBase[Dst, Src]{
		model:        thir.NewModel[Dst](),
		source:       src,
		replacements: &ReplacementMap[Dst, Src]{},
		self:         self,
	}
	if self == nil {
		b.self = b
	}
	return b
}

func (b *FolderBase[Dst, Src]) Model() *thir.Model[Dst] {
	return b.model
}

func (b *FolderBase[Dst, Src]) Source() *thir.Model[Src] {
	return b.source
}

func (b *FolderBase[Dst, Src]) Replacements() *ReplacementMap[Dst, Src] {
	return b.replacements
}

// AddModel adds every top-level item, then folds the body of every function
// that was added.
func (b *FolderBase[Dst, Src]) AddModel() {
	for _, item := range b.source.Items() {
		b.self.AddItem(item)
	}
	for _, f := range b.source.Functions() {
		if !b.source.Function(f).HasBody() {
			continue
		}
		if _, ok := b.replacements.Function(f); ok {
			b.self.FoldFunctionBody(f)
		}
	}
}

func (b *FolderBase[Dst, Src]) AddItem(item thir.ItemId[Src]) {
	switch item.(type) {
	case thir.AnnotationId[Src]:
		b.self.AddAnnotation(item.(thir.AnnotationId[Src]))
	case thir.ConstraintId[Src]:
		b.self.AddConstraint(item.(thir.ConstraintId[Src]))
	case thir.DeclarationId[Src]:
		b.self.AddDeclaration(item.(thir.DeclarationId[Src]))
	case thir.EnumerationId[Src]:
		b.self.AddEnumeration(item.(thir.EnumerationId[Src]))
	case thir.FunctionId[Src]:
		if _, ok := b.replacements.Function(item.(thir.FunctionId[Src])); !ok {
			b.self.AddFunction(item.(thir.FunctionId[Src]))
		}
	case thir.OutputId[Src]:
		b.self.AddOutput(item.(thir.OutputId[Src]))
	case thir.SolveItem[Src]:
		b.self.AddSolve()
	default:
		common.Unreachable("unknown item %T", item)
	}
}

func (b *FolderBase[Dst, Src]) AddAnnotation(id thir.AnnotationId[Src]) {
	a := b.source.Annotation(id)
	var params []thir.DeclarationId[Dst]
	if a.Parameters != nil {
		params = make([]thir.DeclarationId[Dst], 0, len(a.Parameters))
		for _, p := range a.Parameters {
			b.self.AddDeclaration(p)
			params = append(params, b.self.FoldDeclarationId(p))
		}
	}
	dst := b.model.AddAnnotation(thir.Annotation[Dst]{Origin: a.Origin, Name: a.Name, Parameters: params})
	b.replacements.InsertAnnotation(id, dst)
}

func (b *FolderBase[Dst, Src]) AddConstraint(id thir.ConstraintId[Src]) {
	c := b.source.Constraint(id)
	dst := b.model.AddConstraint(thir.Constraint[Dst]{
		Origin:      c.Origin,
		TopLevel:    c.TopLevel,
		Expression:  b.self.FoldExpression(c.Expression),
		Annotations: b.foldAll(c.Annotations),
	})
	b.replacements.InsertConstraint(id, dst)
}

func (b *FolderBase[Dst, Src]) AddDeclaration(id thir.DeclarationId[Src]) {
	d := b.source.Declaration(id)
	folded := thir.Declaration[Dst]{
		Origin:      d.Origin,
		Name:        d.Name,
		TopLevel:    d.TopLevel,
		Domain:      b.self.FoldDomain(d.Domain),
		Annotations: b.foldAll(d.Annotations),
	}
	if d.Definition != nil {
		folded.Definition = b.self.FoldExpression(d.Definition)
	}
	b.replacements.InsertDeclaration(id, b.model.AddDeclaration(folded))
}

func (b *FolderBase[Dst, Src]) AddEnumeration(id thir.EnumerationId[Src]) {
	e := b.source.Enumeration(id)
	folded := thir.Enumeration[Dst]{
		Origin:      e.Origin,
		Enum:        e.Enum,
		Annotations: b.foldAll(e.Annotations),
	}
	if e.Definition != nil {
		folded.Definition = common.Map(func(c thir.Constructor[Src]) thir.Constructor[Dst] {
			return thir.Constructor[Dst]{Name: c.Name, Parameters: common.Map(b.self.FoldDomain, c.Parameters)}
		}, e.Definition)
	}
	b.replacements.InsertEnumeration(id, b.model.AddEnumeration(folded))
}

// AddFunction adds the signature of a function. The body is folded later by
// FoldFunctionBody.
//
// A builtin overload the destination model already declares, because a pass
// called it before its item was reached, is reused.
func (b *FolderBase[Dst, Src]) AddFunction(id thir.FunctionId[Src]) {
	f := b.source.Function(id)
	if !f.HasBody() && b.source.IsDeclaredBuiltin(f.Name) {
		if dst, ok := b.model.FindBuiltin(f.Name, f.Signature(b.source)); ok {
			b.replacements.InsertFunction(id, dst)
			return
		}
	}
	domain := b.self.FoldDomain(f.Domain)
	params := make([]thir.DeclarationId[Dst], 0, len(f.Parameters))
	for _, p := range f.Parameters {
		b.self.AddDeclaration(p)
		params = append(params, b.self.FoldDeclarationId(p))
	}
	dst := b.model.AddFunction(thir.Function[Dst]{
		Origin:      f.Origin,
		Name:        f.Name,
		Domain:      domain,
		TyParams:    f.TyParams,
		Parameters:  params,
		Annotations: b.foldAll(f.Annotations),
	})
	if b.source.IsDeclaredBuiltin(f.Name) {
		b.model.MarkBuiltin(f.Name)
	}
	b.replacements.InsertFunction(id, dst)
}

func (b *FolderBase[Dst, Src]) AddOutput(id thir.OutputId[Src]) {
	o := b.source.Output(id)
	dst := b.model.AddOutput(thir.Output[Dst]{
		Origin:     o.Origin,
		Section:    o.Section,
		Expression: b.self.FoldExpression(o.Expression),
	})
	b.replacements.InsertOutput(id, dst)
}

func (b *FolderBase[Dst, Src]) AddSolve() {
	s, ok := b.source.Solve()
	common.Assert(ok, "model has no solve item")
	folded := thir.Solve[Dst]{Origin: s.Origin, Goal: s.Goal, Annotations: b.foldAll(s.Annotations)}
	if s.Objective != nil {
		folded.Objective = b.self.FoldExpression(s.Objective)
	}
	b.model.SetSolve(folded)
}

func (b *FolderBase[Dst, Src]) FoldAnnotationId(id thir.AnnotationId[Src]) thir.AnnotationId[Dst] {
	dst, ok := b.replacements.Annotation(id)
	common.Assert(ok, "%s has not been added to the destination model", id)
	return dst
}

func (b *FolderBase[Dst, Src]) FoldConstraintId(id thir.ConstraintId[Src]) thir.ConstraintId[Dst] {
	dst, ok := b.replacements.Constraint(id)
	common.Assert(ok, "%s has not been added to the destination model", id)
	return dst
}

func (b *FolderBase[Dst, Src]) FoldDeclarationId(id thir.DeclarationId[Src]) thir.DeclarationId[Dst] {
	dst, ok := b.replacements.Declaration(id)
	common.Assert(ok, "%s has not been added to the destination model", id)
	return dst
}

func (b *FolderBase[Dst, Src]) FoldEnumerationId(id thir.EnumerationId[Src]) thir.EnumerationId[Dst] {
	dst, ok := b.replacements.Enumeration(id)
	common.Assert(ok, "%s has not been added to the destination model", id)
	return dst
}

func (b *FolderBase[Dst, Src]) FoldFunctionId(id thir.FunctionId[Src]) thir.FunctionId[Dst] {
	if dst, ok := b.replacements.Function(id); ok {
		return dst
	}
	b.self.AddFunction(id)
	dst, ok := b.replacements.Function(id)
	common.Assert(ok, "%s has not been added to the destination model", id)
	return dst
}

func (b *FolderBase[Dst, Src]) FoldEnumMember(ref thir.EnumMemberRef[Src]) thir.EnumMemberRef[Dst] {
	return thir.EnumMemberRef[Dst]{Enumeration: b.self.FoldEnumerationId(ref.Enumeration), Index: ref.Index}
}

func (b *FolderBase[Dst, Src]) FoldFunctionBody(id thir.FunctionId[Src]) {
	dst := b.self.FoldFunctionId(id)
	body := b.self.FoldExpression(b.source.Function(id).Body)
	b.model.Function(dst).Body = body
}

func (b *FolderBase[Dst, Src]) foldAll(es []*thir.Expression[Src]) []*thir.Expression[Dst] {
	if es == nil {
		return nil
	}
	return common.Map(b.self.FoldExpression, es)
}

// build derives the type of a folded node from its shape. Literals such as
// `[]` and `<>` derive a bottom type, so the source type is kept when it was
// given from the context.
func (b *FolderBase[Dst, Src]) build(e *thir.Expression[Src], data thir.ExpressionData[Dst]) *thir.Expression[Dst] {
	folded := thir.NewExpression(b.model, e.Origin, data)
	if ty.ContainsBottom(folded.Ty) && !ty.ContainsBottom(e.Ty) {
		folded.Ty = e.Ty
	}
	return folded
}

// Copy folds src into a fresh model without changing anything but ids.
func Copy[Dst, Src any](src *thir.Model[Src]) *thir.Model[Dst] {
	f := NewFolderBase[Dst, Src](src, nil)
	f.AddModel()
	return f.Model()
}

// FoldExpression folds the expression through the method for its kind, then
// folds its annotations.
func (b *FolderBase[Dst, Src]) FoldExpression(e *thir.Expression[Src]) *thir.Expression[Dst] {
	var folded *thir.Expression[Dst]
	switch e.Data.(type) {
	case *thir.Absent[Src]:
		folded = b.build(e, &thir.Absent[Dst]{})
	case *thir.BooleanLiteral[Src]:
		folded = b.build(e, &thir.BooleanLiteral[Dst]{Value: e.Data.(*thir.BooleanLiteral[Src]).Value})
	case *thir.IntegerLiteral[Src]:
		folded = b.build(e, &thir.IntegerLiteral[Dst]{Value: e.Data.(*thir.IntegerLiteral[Src]).Value})
	case *thir.FloatLiteral[Src]:
		folded = b.build(e, &thir.FloatLiteral[Dst]{Value: e.Data.(*thir.FloatLiteral[Src]).Value})
	case *thir.StringLiteral[Src]:
		folded = b.build(e, &thir.StringLiteral[Dst]{Value: e.Data.(*thir.StringLiteral[Src]).Value})
	case *thir.Infinity[Src]:
		folded = b.build(e, &thir.Infinity[Dst]{})
	case *thir.Identifier[Src]:
		folded = b.self.FoldIdentifier(e, e.Data.(*thir.Identifier[Src]))
	case *thir.ArrayLiteral[Src]:
		folded = b.self.FoldArrayLiteral(e, e.Data.(*thir.ArrayLiteral[Src]))
	case *thir.SetLiteral[Src]:
		folded = b.self.FoldSetLiteral(e, e.Data.(*thir.SetLiteral[Src]))
	case *thir.TupleLiteral[Src]:
		folded = b.self.FoldTupleLiteral(e, e.Data.(*thir.TupleLiteral[Src]))
	case *thir.RecordLiteral[Src]:
		folded = b.self.FoldRecordLiteral(e, e.Data.(*thir.RecordLiteral[Src]))
	case *thir.ArrayComprehension[Src]:
		folded = b.self.FoldArrayComprehension(e, e.Data.(*thir.ArrayComprehension[Src]))
	case *thir.SetComprehension[Src]:
		folded = b.self.FoldSetComprehension(e, e.Data.(*thir.SetComprehension[Src]))
	case *thir.ArrayAccess[Src]:
		folded = b.self.FoldArrayAccess(e, e.Data.(*thir.ArrayAccess[Src]))
	case *thir.TupleAccess[Src]:
		folded = b.self.FoldTupleAccess(e, e.Data.(*thir.TupleAccess[Src]))
	case *thir.RecordAccess[Src]:
		folded = b.self.FoldRecordAccess(e, e.Data.(*thir.RecordAccess[Src]))
	case *thir.IfThenElse[Src]:
		folded = b.self.FoldIfThenElse(e, e.Data.(*thir.IfThenElse[Src]))
	case *thir.Case[Src]:
		folded = b.self.FoldCase(e, e.Data.(*thir.Case[Src]))
	case *thir.Call[Src]:
		folded = b.self.FoldCall(e, e.Data.(*thir.Call[Src]))
	case *thir.Let[Src]:
		folded = b.self.FoldLet(e, e.Data.(*thir.Let[Src]))
	case *thir.Lambda[Src]:
		folded = b.self.FoldLambda(e, e.Data.(*thir.Lambda[Src]))
	default:
		common.Unreachable("unknown expression %T", e.Data)
	}
	if len(e.Annotations) > 0 {
		folded.Annotations = append(folded.Annotations, b.foldAll(e.Annotations)...)
	}
	return folded
}

func (b *FolderBase[Dst, Src]) FoldIdentifier(e *thir.Expression[Src], data *thir.Identifier[Src]) *thir.Expression[Dst] {
	return b.build(e, &thir.Identifier[Dst]{Target: b.self.FoldResolvedIdentifier(data.Target)})
}

func (b *FolderBase[Dst, Src]) FoldArrayLiteral(e *thir.Expression[Src], data *thir.ArrayLiteral[Src]) *thir.Expression[Dst] {
	return b.build(e, &thir.ArrayLiteral[Dst]{Elements: common.Map(b.self.FoldExpression, data.Elements)})
}

func (b *FolderBase[Dst, Src]) FoldSetLiteral(e *thir.Expression[Src], data *thir.SetLiteral[Src]) *thir.Expression[Dst] {
	return b.build(e, &thir.SetLiteral[Dst]{Elements: common.Map(b.self.FoldExpression, data.Elements)})
}

func (b *FolderBase[Dst, Src]) FoldTupleLiteral(e *thir.Expression[Src], data *thir.TupleLiteral[Src]) *thir.Expression[Dst] {
	return b.build(e, &thir.TupleLiteral[Dst]{Fields: common.Map(b.self.FoldExpression, data.Fields)})
}

func (b *FolderBase[Dst, Src]) FoldRecordLiteral(e *thir.Expression[Src], data *thir.RecordLiteral[Src]) *thir.Expression[Dst] {
	return b.build(e, &thir.RecordLiteral[Dst]{
		Fields: common.Map(func(f thir.RecordLiteralField[Src]) thir.RecordLiteralField[Dst] {
			return thir.RecordLiteralField[Dst]{Name: f.Name, Value: b.self.FoldExpression(f.Value)}
		}, data.Fields),
	})
}

func (b *FolderBase[Dst, Src]) FoldArrayComprehension(
	e *thir.Expression[Src], data *thir.ArrayComprehension[Src],
) *thir.Expression[Dst] {
	generators := common.Map(b.self.FoldGenerator, data.Generators)
	return b.build(e, &thir.ArrayComprehension[Dst]{
		Generators: generators,
		Template:   b.self.FoldExpression(data.Template),
	})
}

func (b *FolderBase[Dst, Src]) FoldSetComprehension(
	e *thir.Expression[Src], data *thir.SetComprehension[Src],
) *thir.Expression[Dst] {
	generators := common.Map(b.self.FoldGenerator, data.Generators)
	return b.build(e, &thir.SetComprehension[Dst]{
		Generators: generators,
		Template:   b.self.FoldExpression(data.Template),
	})
}

func (b *FolderBase[Dst, Src]) FoldArrayAccess(e *thir.Expression[Src], data *thir.ArrayAccess[Src]) *thir.Expression[Dst] {
	collection := b.self.FoldExpression(data.Collection)
	return b.build(e, &thir.ArrayAccess[Dst]{Collection: collection, Indices: b.self.FoldExpression(data.Indices)})
}

func (b *FolderBase[Dst, Src]) FoldTupleAccess(e *thir.Expression[Src], data *thir.TupleAccess[Src]) *thir.Expression[Dst] {
	return b.build(e, &thir.TupleAccess[Dst]{Tuple: b.self.FoldExpression(data.Tuple), Field: data.Field})
}

func (b *FolderBase[Dst, Src]) FoldRecordAccess(e *thir.Expression[Src], data *thir.RecordAccess[Src]) *thir.Expression[Dst] {
	return b.build(e, &thir.RecordAccess[Dst]{Record: b.self.FoldExpression(data.Record), Field: data.Field})
}

func (b *FolderBase[Dst, Src]) FoldIfThenElse(e *thir.Expression[Src], data *thir.IfThenElse[Src]) *thir.Expression[Dst] {
	folded := &thir.IfThenElse[Dst]{
		Branches: common.Map(func(br thir.Branch[Src]) thir.Branch[Dst] {
			cond := b.self.FoldExpression(br.Condition)
			return thir.Branch[Dst]{Condition: cond, Result: b.self.FoldExpression(br.Result)}
		}, data.Branches),
	}
	if data.Else != nil {
		folded.Else = b.self.FoldExpression(data.Else)
	}
	return b.build(e, folded)
}

func (b *FolderBase[Dst, Src]) FoldCase(e *thir.Expression[Src], data *thir.Case[Src]) *thir.Expression[Dst] {
	scrutinee := b.self.FoldExpression(data.Scrutinee)
	return b.build(e, &thir.Case[Dst]{
		Scrutinee: scrutinee,
		Arms: common.Map(func(arm thir.CaseArm[Src]) thir.CaseArm[Dst] {
			pattern := b.self.FoldPattern(arm.Pattern)
			return thir.CaseArm[Dst]{Pattern: pattern, Result: b.self.FoldExpression(arm.Result)}
		}, data.Arms),
	})
}

func (b *FolderBase[Dst, Src]) FoldCall(e *thir.Expression[Src], data *thir.Call[Src]) *thir.Expression[Dst] {
	function := b.self.FoldCallable(data.Function)
	return b.build(e, &thir.Call[Dst]{Function: function, Arguments: common.Map(b.self.FoldExpression, data.Arguments)})
}

func (b *FolderBase[Dst, Src]) FoldLet(e *thir.Expression[Src], data *thir.Let[Src]) *thir.Expression[Dst] {
	items := common.Map(b.self.FoldLetItem, data.Items)
	return b.build(e, &thir.Let[Dst]{Items: items, In: b.self.FoldExpression(data.In)})
}

func (b *FolderBase[Dst, Src]) FoldLambda(e *thir.Expression[Src], data *thir.Lambda[Src]) *thir.Expression[Dst] {
	return b.build(e, &thir.Lambda[Dst]{Function: b.self.FoldFunctionId(data.Function)})
}

func (b *FolderBase[Dst, Src]) FoldResolvedIdentifier(target thir.ResolvedIdentifier[Src]) thir.ResolvedIdentifier[Dst] {
	switch target.(type) {
	case thir.DeclarationId[Src]:
		return b.self.FoldDeclarationId(target.(thir.DeclarationId[Src]))
	case thir.EnumerationId[Src]:
		return b.self.FoldEnumerationId(target.(thir.EnumerationId[Src]))
	case thir.EnumMemberRef[Src]:
		return b.self.FoldEnumMember(target.(thir.EnumMemberRef[Src]))
	case thir.AnnotationId[Src]:
		return b.self.FoldAnnotationId(target.(thir.AnnotationId[Src]))
	default:
		common.Unreachable("unknown identifier %T", target)
		return nil
	}
}

func (b *FolderBase[Dst, Src]) FoldCallable(c thir.Callable[Src]) thir.Callable[Dst] {
	switch c.(type) {
	case thir.FunctionId[Src]:
		return b.self.FoldFunctionId(c.(thir.FunctionId[Src]))
	case thir.AnnotationId[Src]:
		return b.self.FoldAnnotationId(c.(thir.AnnotationId[Src]))
	case thir.AnnotationDestructure[Src]:
		return thir.AnnotationDestructure[Dst]{
			Annotation: b.self.FoldAnnotationId(c.(thir.AnnotationDestructure[Src]).Annotation),
		}
	case thir.EnumConstructor[Src]:
		return thir.EnumConstructor[Dst]{Member: b.self.FoldEnumMember(c.(thir.EnumConstructor[Src]).Member)}
	case thir.EnumDestructor[Src]:
		return thir.EnumDestructor[Dst]{Member: b.self.FoldEnumMember(c.(thir.EnumDestructor[Src]).Member)}
	case *thir.ExpressionCallable[Src]:
		return &thir.ExpressionCallable[Dst]{Expression: b.self.FoldExpression(c.(*thir.ExpressionCallable[Src]).Expression)}
	default:
		common.Unreachable("unknown callable %T", c)
		return nil
	}
}

func (b *FolderBase[Dst, Src]) FoldGenerator(g thir.Generator[Src]) thir.Generator[Dst] {
	decls := make([]thir.DeclarationId[Dst], 0, len(g.Declarations))
	for _, d := range g.Declarations {
		b.self.AddDeclaration(d)
		decls = append(decls, b.self.FoldDeclarationId(d))
	}
	folded := thir.Generator[Dst]{Declarations: decls, Collection: b.self.FoldExpression(g.Collection)}
	if g.Where != nil {
		folded.Where = b.self.FoldExpression(g.Where)
	}
	return folded
}

func (b *FolderBase[Dst, Src]) FoldDomain(d *thir.Domain[Src]) *thir.Domain[Dst] {
	switch d.Data.(type) {
	case *thir.Unbounded[Src]:
		return thir.UnboundedDomain[Dst](d.Origin, d.Ty)
	case *thir.Bounded[Src]:
		{
			inst, _ := ty.Inst(d.Ty)
			opt, _ := ty.Optionality(d.Ty)
			return thir.BoundedDomain(d.Origin, inst, opt, b.self.FoldExpression(d.Data.(*thir.Bounded[Src]).Expression))
		}
	case *thir.ArrayDomain[Src]:
		{
			a := d.Data.(*thir.ArrayDomain[Src])
			return thir.ArrayDomainOf(d.Origin, b.self.FoldDomain(a.Dimensions), b.self.FoldDomain(a.Element))
		}
	case *thir.SetDomain[Src]:
		{
			inst, _ := ty.Inst(d.Ty)
			return thir.SetDomainOf(d.Origin, inst, b.self.FoldDomain(d.Data.(*thir.SetDomain[Src]).Element))
		}
	case *thir.TupleDomain[Src]:
		return thir.TupleDomainOf(d.Origin, common.Map(b.self.FoldDomain, d.Data.(*thir.TupleDomain[Src]).Fields)...)
	case *thir.RecordDomain[Src]:
		return thir.RecordDomainOf(d.Origin, common.Map(func(f thir.RecordDomainField[Src]) thir.RecordDomainField[Dst] {
			return thir.RecordDomainField[Dst]{Name: f.Name, Domain: b.self.FoldDomain(f.Domain)}
		}, d.Data.(*thir.RecordDomain[Src]).Fields)...)
	default:
		common.Unreachable("unknown domain %T", d.Data)
		return nil
	}
}

func (b *FolderBase[Dst, Src]) FoldPattern(p thir.Pattern[Src]) thir.Pattern[Dst] {
	switch p.(type) {
	case *thir.WildcardPattern[Src]:
		return &thir.WildcardPattern[Dst]{}
	case *thir.BindingPattern[Src]:
		{
			d := p.(*thir.BindingPattern[Src]).Declaration
			b.self.AddDeclaration(d)
			return &thir.BindingPattern[Dst]{Declaration: b.self.FoldDeclarationId(d)}
		}
	case *thir.ExpressionPattern[Src]:
		return &thir.ExpressionPattern[Dst]{Expression: b.self.FoldExpression(p.(*thir.ExpressionPattern[Src]).Expression)}
	case *thir.TuplePattern[Src]:
		return &thir.TuplePattern[Dst]{Fields: common.Map(b.self.FoldPattern, p.(*thir.TuplePattern[Src]).Fields)}
	case *thir.RecordPattern[Src]:
		return &thir.RecordPattern[Dst]{
			Fields: common.Map(func(f thir.RecordPatternField[Src]) thir.RecordPatternField[Dst] {
				return thir.RecordPatternField[Dst]{Name: f.Name, Pattern: b.self.FoldPattern(f.Pattern)}
			}, p.(*thir.RecordPattern[Src]).Fields),
		}
	default:
		common.Unreachable("unknown pattern %T", p)
		return nil
	}
}

func (b *FolderBase[Dst, Src]) FoldLetItem(item thir.LetItem[Src]) thir.LetItem[Dst] {
	switch item.(type) {
	case thir.DeclarationId[Src]:
		{
			d := item.(thir.DeclarationId[Src])
			b.self.AddDeclaration(d)
			return b.self.FoldDeclarationId(d)
		}
	case thir.ConstraintId[Src]:
		{
			c := item.(thir.ConstraintId[Src])
			b.self.AddConstraint(c)
			return b.self.FoldConstraintId(c)
		}
	default:
		common.Unreachable("unknown let item %T", item)
		return nil
	}
}
