package thir

import (
	"zinc-compiler/internal/pkg/ast"
	"zinc-compiler/internal/pkg/common"
	"zinc-compiler/internal/pkg/thir/ty"
)

// Annotation declares an annotation atom, or an annotation constructor when
// Parameters is not nil.
type Annotation[M any] struct {
	Origin     ast.Location
	Name       string
	Parameters []DeclarationId[M]
}

type Constraint[M any] struct {
	Origin      ast.Location
	TopLevel    bool
	Expression  *Expression[M]
	Annotations []*Expression[M]
}

type Declaration[M any] struct {
	Origin      ast.Location
	Name        string
	TopLevel    bool
	Domain      *Domain[M]
	Definition  *Expression[M]
	Annotations []*Expression[M]
}

func (d *Declaration[M]) Ty() ty.Type {
	return d.Domain.Ty
}

// Constructor is a case of an enumeration. Atoms have no parameters.
type Constructor[M any] struct {
	Name       string
	Parameters []*Domain[M]
}

func (c Constructor[M]) IsAtom() bool {
	return len(c.Parameters) == 0
}

// Enumeration without a definition is supplied as data.
type Enumeration[M any] struct {
	Origin      ast.Location
	Enum        ty.EnumRef
	Definition  []Constructor[M]
	Annotations []*Expression[M]
}

func (e *Enumeration[M]) IsDefined() bool {
	return e.Definition != nil
}

// Function is polymorphic when TyParams is not empty. Builtins have no body.
type Function[M any] struct {
	Origin      ast.Location
	Name        string
	Domain      *Domain[M]
	TyParams    []ty.TyVar
	Parameters  []DeclarationId[M]
	Body        *Expression[M]
	Annotations []*Expression[M]
}

func (f *Function[M]) IsPolymorphic() bool {
	return len(f.TyParams) > 0
}

func (f *Function[M]) HasBody() bool {
	return f.Body != nil
}

// Signature is the declared type of f in model m.
func (f *Function[M]) Signature(m *Model[M]) ty.PolymorphicFunctionType {
	return ty.PolymorphicFunctionType{
		TyParams: f.TyParams,
		Params: common.Map(func(p DeclarationId[M]) ty.Type {
			return m.Declaration(p).Ty()
		}, f.Parameters),
		Return: f.Domain.Ty,
	}
}

// FunctionType is the type of f as a first-class value.
func (f *Function[M]) FunctionType(m *Model[M]) ty.Type {
	sig := f.Signature(m)
	return ty.Function(sig.Params, sig.Return)
}

type Output[M any] struct {
	Origin     ast.Location
	Section    string
	Expression *Expression[M]
}

type SolveGoal int

const (
	Satisfy SolveGoal = iota
	Minimize
	Maximize
)

func (g SolveGoal) String() string {
	switch g {
	case Minimize:
		return "minimize"
	case Maximize:
		return "maximize"
	default:
		return "satisfy"
	}
}

type Solve[M any] struct {
	Origin      ast.Location
	Goal        SolveGoal
	Objective   *Expression[M]
	Annotations []*Expression[M]
}
