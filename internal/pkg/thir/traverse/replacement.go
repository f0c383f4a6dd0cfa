package traverse

import "zinc-compiler/internal/pkg/thir"

// ReplacementMap records the destination id of every source item a Folder
// has added.
type ReplacementMap[Dst, Src any] struct {
	annotations  thir.ArenaMap[thir.AnnotationId[Src], thir.AnnotationId[Dst]]
	constraints  thir.ArenaMap[thir.ConstraintId[Src], thir.ConstraintId[Dst]]
	declarations thir.ArenaMap[thir.DeclarationId[Src], thir.DeclarationId[Dst]]
	enumerations thir.ArenaMap[thir.EnumerationId[Src], thir.EnumerationId[Dst]]
	functions    thir.ArenaMap[thir.FunctionId[Src], thir.FunctionId[Dst]]
	outputs      thir.ArenaMap[thir.OutputId[Src], thir.OutputId[Dst]]
}

func (r *ReplacementMap[Dst, Src]) InsertAnnotation(src thir.AnnotationId[Src], dst thir.AnnotationId[Dst]) {
	r.annotations.Insert(src, dst)
}

func (r *ReplacementMap[Dst, Src]) Annotation(src thir.AnnotationId[Src]) (thir.AnnotationId[Dst], bool) {
	return r.annotations.Get(src)
}

func (r *ReplacementMap[Dst, Src]) InsertConstraint(src thir.ConstraintId[Src], dst thir.ConstraintId[Dst]) {
	r.constraints.Insert(src, dst)
}

func (r *ReplacementMap[Dst, Src]) Constraint(src thir.ConstraintId[Src]) (thir.ConstraintId[Dst], bool) {
	return r.constraints.Get(src)
}

func (r *ReplacementMap[Dst, Src]) InsertDeclaration(src thir.DeclarationId[Src], dst thir.DeclarationId[Dst]) {
	r.declarations.Insert(src, dst)
}

func (r *ReplacementMap[Dst, Src]) Declaration(src thir.DeclarationId[Src]) (thir.DeclarationId[Dst], bool) {
	return r.declarations.Get(src)
}

func (r *ReplacementMap[Dst, Src]) InsertEnumeration(src thir.EnumerationId[Src], dst thir.EnumerationId[Dst]) {
	r.enumerations.Insert(src, dst)
}

func (r *ReplacementMap[Dst, Src]) Enumeration(src thir.EnumerationId[Src]) (thir.EnumerationId[Dst], bool) {
	return r.enumerations.Get(src)
}

// EnumMember maps a member through its enumeration; member indices never change.
func (r *ReplacementMap[Dst, Src]) EnumMember(src thir.EnumMemberRef[Src]) (thir.EnumMemberRef[Dst], bool) {
	e, ok := r.enumerations.Get(src.Enumeration)
	return thir.EnumMemberRef[Dst]{Enumeration: e, Index: src.Index}, ok
}

func (r *ReplacementMap[Dst, Src]) InsertFunction(src thir.FunctionId[Src], dst thir.FunctionId[Dst]) {
	r.functions.Insert(src, dst)
}

func (r *ReplacementMap[Dst, Src]) Function(src thir.FunctionId[Src]) (thir.FunctionId[Dst], bool) {
	return r.functions.Get(src)
}

func (r *ReplacementMap[Dst, Src]) InsertOutput(src thir.OutputId[Src], dst thir.OutputId[Dst]) {
	r.outputs.Insert(src, dst)
}

func (r *ReplacementMap[Dst, Src]) Output(src thir.OutputId[Src]) (thir.OutputId[Dst], bool) {
	return r.outputs.Get(src)
}
