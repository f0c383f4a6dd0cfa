package thir

import (
	"zinc-compiler/internal/pkg/ast"
	"zinc-compiler/internal/pkg/thir/ty"
)

type Expression[M any] struct {
	Origin      ast.Location
	Ty          ty.Type
	Annotations []*Expression[M]
	Data        ExpressionData[M]
}

type ExpressionData[M any] interface {
	_expression(M)
}

type Absent[M any] struct{}

type BooleanLiteral[M any] struct {
	Value bool
}

type IntegerLiteral[M any] struct {
	Value int64
}

type FloatLiteral[M any] struct {
	Value float64
}

type StringLiteral[M any] struct {
	Value string
}

type Infinity[M any] struct{}

type Identifier[M any] struct {
	Target ResolvedIdentifier[M]
}

type ArrayLiteral[M any] struct {
	Elements []*Expression[M]
}

type SetLiteral[M any] struct {
	Elements []*Expression[M]
}

type TupleLiteral[M any] struct {
	Fields []*Expression[M]
}

type RecordLiteralField[M any] struct {
	Name  string
	Value *Expression[M]
}

type RecordLiteral[M any] struct {
	Fields []RecordLiteralField[M]
}

// Generator binds Declarations to the elements of Collection, keeping only
// the combinations for which Where holds.
type Generator[M any] struct {
	Declarations []DeclarationId[M]
	Collection   *Expression[M]
	Where        *Expression[M]
}

type ArrayComprehension[M any] struct {
	Template   *Expression[M]
	Generators []Generator[M]
}

type SetComprehension[M any] struct {
	Template   *Expression[M]
	Generators []Generator[M]
}

type ArrayAccess[M any] struct {
	Collection *Expression[M]
	Indices    *Expression[M]
}

// TupleAccess fields are numbered from 1.
type TupleAccess[M any] struct {
	Tuple *Expression[M]
	Field int
}

type RecordAccess[M any] struct {
	Record *Expression[M]
	Field  string
}

type Branch[M any] struct {
	Condition *Expression[M]
	Result    *Expression[M]
}

type IfThenElse[M any] struct {
	Branches []Branch[M]
	Else     *Expression[M]
}

type CaseArm[M any] struct {
	Pattern Pattern[M]
	Result  *Expression[M]
}

type Case[M any] struct {
	Scrutinee *Expression[M]
	Arms      []CaseArm[M]
}

type Call[M any] struct {
	Function  Callable[M]
	Arguments []*Expression[M]
}

type Let[M any] struct {
	Items []LetItem[M]
	In    *Expression[M]
}

type Lambda[M any] struct {
	Function FunctionId[M]
}

func (*Absent[M]) _expression(M)             {}
func (*BooleanLiteral[M]) _expression(M)     {}
func (*IntegerLiteral[M]) _expression(M)     {}
func (*FloatLiteral[M]) _expression(M)       {}
func (*StringLiteral[M]) _expression(M)      {}
func (*Infinity[M]) _expression(M)           {}
func (*Identifier[M]) _expression(M)         {}
func (*ArrayLiteral[M]) _expression(M)       {}
func (*SetLiteral[M]) _expression(M)         {}
func (*TupleLiteral[M]) _expression(M)       {}
func (*RecordLiteral[M]) _expression(M)      {}
func (*ArrayComprehension[M]) _expression(M) {}
func (*SetComprehension[M]) _expression(M)   {}
func (*ArrayAccess[M]) _expression(M)        {}
func (*TupleAccess[M]) _expression(M)        {}
func (*RecordAccess[M]) _expression(M)       {}
func (*IfThenElse[M]) _expression(M)         {}
func (*Case[M]) _expression(M)               {}
func (*Call[M]) _expression(M)               {}
func (*Let[M]) _expression(M)                {}
func (*Lambda[M]) _expression(M)             {}

// Callable is the target of a call.
type Callable[M any] interface {
	_callable(M)
}

// AnnotationDestructure extracts the arguments of an annotation constructor.
type AnnotationDestructure[M any] struct {
	Annotation AnnotationId[M]
}

// EnumConstructor applies the Index-th constructor of an enumeration.
type EnumConstructor[M any] struct {
	Member EnumMemberRef[M]
}

// EnumDestructor recovers the arguments of the Index-th constructor.
type EnumDestructor[M any] struct {
	Member EnumMemberRef[M]
}

// ExpressionCallable calls a first-class function value.
type ExpressionCallable[M any] struct {
	Expression *Expression[M]
}

func (FunctionId[M]) _callable(M)            {}
func (AnnotationId[M]) _callable(M)          {}
func (AnnotationDestructure[M]) _callable(M) {}
func (EnumConstructor[M]) _callable(M)       {}
func (EnumDestructor[M]) _callable(M)        {}
func (*ExpressionCallable[M]) _callable(M)   {}

// Pattern is the left-hand side of a case arm.
type Pattern[M any] interface {
	_pattern(M)
}

type WildcardPattern[M any] struct{}

// BindingPattern introduces a declaration bound to the matched value.
type BindingPattern[M any] struct {
	Declaration DeclarationId[M]
}

// ExpressionPattern matches values equal to a par expression.
type ExpressionPattern[M any] struct {
	Expression *Expression[M]
}

type TuplePattern[M any] struct {
	Fields []Pattern[M]
}

type RecordPatternField[M any] struct {
	Name    string
	Pattern Pattern[M]
}

type RecordPattern[M any] struct {
	Fields []RecordPatternField[M]
}

func (*WildcardPattern[M]) _pattern(M)   {}
func (*BindingPattern[M]) _pattern(M)    {}
func (*ExpressionPattern[M]) _pattern(M) {}
func (*TuplePattern[M]) _pattern(M)      {}
func (*RecordPattern[M]) _pattern(M)     {}

// NewTypedExpression builds an expression whose type is given rather than derived.
func NewTypedExpression[M any](origin ast.Location, t ty.Type, data ExpressionData[M]) *Expression[M] {
	return &Expression[M]{Origin: origin, Ty: t, Data: data}
}

// NewExpression builds an expression, deriving its type from its shape and
// the items of m it refers to.
func NewExpression[M any](m *Model[M], origin ast.Location, data ExpressionData[M]) *Expression[M] {
	return &Expression[M]{Origin: origin, Ty: m.TypeOf(data), Data: data}
}

func (e *Expression[M]) IsAbsent() bool {
	_, ok := e.Data.(*Absent[M])
	return ok
}

// Declaration returns the declaration e refers to if e is a bare identifier.
func (e *Expression[M]) Declaration() (DeclarationId[M], bool) {
	if ident, ok := e.Data.(*Identifier[M]); ok {
		if d, ok := ident.Target.(DeclarationId[M]); ok {
			return d, true
		}
	}
	return 0, false
}
