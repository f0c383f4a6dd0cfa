package thir

import (
	"strings"

	"golang.org/x/exp/slices"
	"zinc-compiler/internal/pkg/ast"
	"zinc-compiler/internal/pkg/common"
	"zinc-compiler/internal/pkg/thir/ty"
)

// Domain is the declared type-inst of a declaration or function return,
// optionally restricted by a set expression.
type Domain[M any] struct {
	Origin ast.Location
	Ty     ty.Type
	Data   DomainData[M]
}

type DomainData[M any] interface {
	_domain(M)
}

type Unbounded[M any] struct{}

// Bounded restricts the domain to the values of a set-typed expression.
type Bounded[M any] struct {
	Expression *Expression[M]
}

type ArrayDomain[M any] struct {
	Dimensions *Domain[M]
	Element    *Domain[M]
}

type SetDomain[M any] struct {
	Element *Domain[M]
}

type TupleDomain[M any] struct {
	Fields []*Domain[M]
}

type RecordDomainField[M any] struct {
	Name   string
	Domain *Domain[M]
}

type RecordDomain[M any] struct {
	Fields []RecordDomainField[M]
}

func (*Unbounded[M]) _domain(M)    {}
func (*Bounded[M]) _domain(M)      {}
func (*ArrayDomain[M]) _domain(M)  {}
func (*SetDomain[M]) _domain(M)    {}
func (*TupleDomain[M]) _domain(M)  {}
func (*RecordDomain[M]) _domain(M) {}

func UnboundedDomain[M any](origin ast.Location, t ty.Type) *Domain[M] {
	return &Domain[M]{Origin: origin, Ty: t, Data: &Unbounded[M]{}}
}

// BoundedDomain builds a domain restricted to the elements of set.
func BoundedDomain[M any](origin ast.Location, inst ty.VarType, opt ty.OptType, set *Expression[M]) *Domain[M] {
	el := ty.MakePar(ty.MustElemTy(set.Ty))
	t, ok := ty.WithInst(el, inst)
	common.Assert(ok, "cannot make domain %s %s", inst, el)
	return &Domain[M]{Origin: origin, Ty: ty.WithOpt(t, opt), Data: &Bounded[M]{Expression: set}}
}

func ArrayDomainOf[M any](origin ast.Location, dims *Domain[M], element *Domain[M]) *Domain[M] {
	return &Domain[M]{
		Origin: origin,
		Ty:     ty.Array(dims.Ty, element.Ty),
		Data:   &ArrayDomain[M]{Dimensions: dims, Element: element},
	}
}

func SetDomainOf[M any](origin ast.Location, inst ty.VarType, element *Domain[M]) *Domain[M] {
	return &Domain[M]{
		Origin: origin,
		Ty:     &ty.TSet{Inst: inst, Element: ty.MakePar(element.Ty)},
		Data:   &SetDomain[M]{Element: element},
	}
}

func TupleDomainOf[M any](origin ast.Location, fields ...*Domain[M]) *Domain[M] {
	return &Domain[M]{
		Origin: origin,
		Ty:     ty.Tuple(common.Map(func(d *Domain[M]) ty.Type { return d.Ty }, fields)...),
		Data:   &TupleDomain[M]{Fields: fields},
	}
}

// RecordDomainOf sorts the fields by name like record types.
func RecordDomainOf[M any](origin ast.Location, fields ...RecordDomainField[M]) *Domain[M] {
	fields = slices.Clone(fields)
	slices.SortStableFunc(fields, func(a, b RecordDomainField[M]) int {
		return strings.Compare(a.Name, b.Name)
	})
	return &Domain[M]{
		Origin: origin,
		Ty: ty.Record(common.Map(func(f RecordDomainField[M]) ty.RecordField {
			return ty.RecordField{Name: f.Name, Type: f.Domain.Ty}
		}, fields)...),
		Data: &RecordDomain[M]{Fields: fields},
	}
}

// WithOpt returns the domain with its type made optional or not.
func (d *Domain[M]) WithOpt(opt ty.OptType) *Domain[M] {
	return &Domain[M]{Origin: d.Origin, Ty: ty.WithOpt(d.Ty, opt), Data: d.Data}
}

func (d *Domain[M]) IsUnbounded() bool {
	_, ok := d.Data.(*Unbounded[M])
	return ok
}
