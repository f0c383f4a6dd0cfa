package thir

import (
	"zinc-compiler/internal/pkg/ast"
	"zinc-compiler/internal/pkg/common"
	"zinc-compiler/internal/pkg/thir/ty"
)

// Shorthands used by passes to synthesise expressions.

func IntLit[M any](origin ast.Location, v int64) *Expression[M] {
	return NewTypedExpression[M](origin, ty.ParInt(), &IntegerLiteral[M]{Value: v})
}

func BoolLit[M any](origin ast.Location, v bool) *Expression[M] {
	return NewTypedExpression[M](origin, ty.ParBool(), &BooleanLiteral[M]{Value: v})
}

func StringLit[M any](origin ast.Location, s string) *Expression[M] {
	return NewTypedExpression[M](origin, ty.ParString(), &StringLiteral[M]{Value: s})
}

func Ident[M any](m *Model[M], origin ast.Location, target ResolvedIdentifier[M]) *Expression[M] {
	return NewExpression(m, origin, &Identifier[M]{Target: target})
}

func ArrayLit[M any](m *Model[M], origin ast.Location, elements ...*Expression[M]) *Expression[M] {
	return NewExpression(m, origin, &ArrayLiteral[M]{Elements: elements})
}

func TupleLit[M any](m *Model[M], origin ast.Location, fields ...*Expression[M]) *Expression[M] {
	return NewExpression(m, origin, &TupleLiteral[M]{Fields: fields})
}

func Field[M any](m *Model[M], origin ast.Location, tuple *Expression[M], i int) *Expression[M] {
	return NewExpression(m, origin, &TupleAccess[M]{Tuple: tuple, Field: i})
}

// Materialise binds value to a fresh declaration unless it already is an
// identifier, then builds body from a reference to it. The reference may be
// used any number of times.
func Materialise[M any](m *Model[M], origin ast.Location, value *Expression[M], body func(*Expression[M]) *Expression[M]) *Expression[M] {
	if _, ok := value.Declaration(); ok {
		return body(value)
	}
	decl := m.AddDeclaration(Declaration[M]{
		Origin:     origin,
		Domain:     UnboundedDomain[M](origin, value.Ty),
		Definition: value,
	})
	return NewExpression(m, origin, &Let[M]{
		Items: []LetItem[M]{decl},
		In:    body(Ident(m, origin, decl)),
	})
}

// DefaultValue returns a par value of type t, used where a value must exist
// but is never read.
func DefaultValue[M any](m *Model[M], origin ast.Location, t ty.Type) *Expression[M] {
	switch t.(type) {
	case *ty.TBool:
		return BoolLit[M](origin, false)
	case *ty.TInt, *ty.TEnum, *ty.TBottom:
		return IntLit[M](origin, 0)
	case *ty.TFloat:
		return NewTypedExpression[M](origin, ty.ParFloat(), &FloatLiteral[M]{Value: 0})
	case *ty.TString:
		return StringLit[M](origin, "")
	case *ty.TSet:
		return NewTypedExpression[M](origin, ty.MakePar(t), &SetLiteral[M]{})
	case *ty.TArray:
		return NewTypedExpression[M](origin, ty.MakePar(t), &ArrayLiteral[M]{})
	case *ty.TTuple:
		return TupleLit(m, origin, common.Map(func(f ty.Type) *Expression[M] {
			return DefaultValue(m, origin, f)
		}, t.(*ty.TTuple).Fields)...)
	case *ty.TRecord:
		return NewExpression(m, origin, &RecordLiteral[M]{Fields: common.Map(func(f ty.RecordField) RecordLiteralField[M] {
			return RecordLiteralField[M]{Name: f.Name, Value: DefaultValue(m, origin, f.Type)}
		}, t.(*ty.TRecord).Fields)})
	default:
		common.Unreachable("no default value for %s", t)
		return nil
	}
}
