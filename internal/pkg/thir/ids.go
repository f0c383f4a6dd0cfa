package thir

import "fmt"

// Every id is parameterised by the marker of the model that issued it, so ids
// of one model cannot be used to index another.

type AnnotationId[M any] uint32
type ConstraintId[M any] uint32
type DeclarationId[M any] uint32
type EnumerationId[M any] uint32
type FunctionId[M any] uint32
type OutputId[M any] uint32

// SolveItem refers to the single solve item of a model.
type SolveItem[M any] struct{}

// ItemId is a reference to a top-level item.
type ItemId[M any] interface {
	_item(M)
}

func (AnnotationId[M]) _item(M)  {}
func (ConstraintId[M]) _item(M)  {}
func (DeclarationId[M]) _item(M) {}
func (EnumerationId[M]) _item(M) {}
func (FunctionId[M]) _item(M)    {}
func (OutputId[M]) _item(M)      {}
func (SolveItem[M]) _item(M)     {}

// LetItem is a declaration or constraint introduced by a let expression.
type LetItem[M any] interface {
	_letItem(M)
}

func (ConstraintId[M]) _letItem(M)  {}
func (DeclarationId[M]) _letItem(M) {}

// EnumMemberRef is the index-th constructor of an enumeration (0-based).
type EnumMemberRef[M any] struct {
	Enumeration EnumerationId[M]
	Index       int
}

// ResolvedIdentifier is the target of an identifier expression.
type ResolvedIdentifier[M any] interface {
	_identifier(M)
}

func (AnnotationId[M]) _identifier(M)  {}
func (DeclarationId[M]) _identifier(M) {}
func (EnumerationId[M]) _identifier(M) {}
func (EnumMemberRef[M]) _identifier(M) {}

func (id AnnotationId[M]) String() string  { return fmt.Sprintf("annotation#%d", uint32(id)) }
func (id ConstraintId[M]) String() string  { return fmt.Sprintf("constraint#%d", uint32(id)) }
func (id DeclarationId[M]) String() string { return fmt.Sprintf("declaration#%d", uint32(id)) }
func (id EnumerationId[M]) String() string { return fmt.Sprintf("enumeration#%d", uint32(id)) }
func (id FunctionId[M]) String() string    { return fmt.Sprintf("function#%d", uint32(id)) }
func (id OutputId[M]) String() string      { return fmt.Sprintf("output#%d", uint32(id)) }
