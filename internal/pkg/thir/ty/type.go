package ty

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
	"zinc-compiler/internal/pkg/common"
)

type VarType int

const (
	Par VarType = iota
	Var
)

func (v VarType) String() string {
	if v == Var {
		return "var"
	}
	return "par"
}

type OptType int

const (
	NonOpt OptType = iota
	Opt
)

func (o OptType) String() string {
	if o == Opt {
		return "opt"
	}
	return "nonopt"
}

// EnumRef names an enumerated type. Enum types are compared by name.
type EnumRef string

// TyVar is a type-inst variable such as $T or $$E.
type TyVar struct {
	Name       string
	Varifiable bool
	Enumerable bool
	Indexable  bool
}

func (t TyVar) String() string {
	if t.Enumerable {
		return "$$" + t.Name
	}
	return "$" + t.Name
}

type Type interface {
	_type()
	String() string
}

type TBool struct {
	Inst VarType
	Opt  OptType
}

func (*TBool) _type() {}

func (t *TBool) String() string {
	return qualify(t.Inst, t.Opt, "bool")
}

type TInt struct {
	Inst VarType
	Opt  OptType
}

func (*TInt) _type() {}

func (t *TInt) String() string {
	return qualify(t.Inst, t.Opt, "int")
}

type TFloat struct {
	Inst VarType
	Opt  OptType
}

func (*TFloat) _type() {}

func (t *TFloat) String() string {
	return qualify(t.Inst, t.Opt, "float")
}

type TEnum struct {
	Inst VarType
	Opt  OptType
	Enum EnumRef
}

func (*TEnum) _type() {}

func (t *TEnum) String() string {
	return qualify(t.Inst, t.Opt, string(t.Enum))
}

type TString struct {
	Opt OptType
}

func (*TString) _type() {}

func (t *TString) String() string {
	return qualify(Par, t.Opt, "string")
}

type TAnn struct {
	Opt OptType
}

func (*TAnn) _type() {}

func (t *TAnn) String() string {
	return qualify(Par, t.Opt, "ann")
}

// TBottom is the type of <>, [] and {} before their context is known.
type TBottom struct {
	Opt OptType
}

func (*TBottom) _type() {}

func (t *TBottom) String() string {
	return qualify(Par, t.Opt, "..")
}

type TArray struct {
	Opt     OptType
	Dim     Type
	Element Type
}

func (*TArray) _type() {}

func (t *TArray) String() string {
	dims := t.Dim.String()
	if tt, ok := t.Dim.(*TTuple); ok && tt.Opt == NonOpt {
		dims = common.Join(tt.Fields, ", ")
	}
	return qualify(Par, t.Opt, fmt.Sprintf("array [%s] of %s", dims, t.Element))
}

type TSet struct {
	Inst    VarType
	Opt     OptType
	Element Type
}

func (*TSet) _type() {}

func (t *TSet) String() string {
	return qualify(t.Inst, t.Opt, "set of "+t.Element.String())
}

type TTuple struct {
	Opt    OptType
	Fields []Type
}

func (*TTuple) _type() {}

func (t *TTuple) String() string {
	return qualify(Par, t.Opt, fmt.Sprintf("tuple(%s)", common.Join(t.Fields, ", ")))
}

type RecordField struct {
	Name string
	Type Type
}

// TRecord fields are kept sorted by name.
type TRecord struct {
	Opt    OptType
	Fields []RecordField
}

func (*TRecord) _type() {}

func (t *TRecord) String() string {
	return qualify(Par, t.Opt, fmt.Sprintf("record(%s)", strings.Join(
		common.Map(func(f RecordField) string { return fmt.Sprintf("%s: %s", f.Type, f.Name) }, t.Fields),
		", ")))
}

func (t *TRecord) Field(name string) (Type, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

type TFunc struct {
	Opt      OptType
	Function FunctionType
}

func (*TFunc) _type() {}

func (t *TFunc) String() string {
	return qualify(Par, t.Opt, t.Function.String())
}

// TTyVar refers to a type-inst variable. AnyInst/AnyOpt mean the variable
// was declared without a fixed instantiation or optionality.
type TTyVar struct {
	Inst    VarType
	Opt     OptType
	AnyInst bool
	AnyOpt  bool
	Var     TyVar
}

func (*TTyVar) _type() {}

func (t *TTyVar) String() string {
	if t.AnyInst && t.AnyOpt {
		return "any " + t.Var.String()
	}
	var parts []string
	if t.AnyInst {
		parts = append(parts, "anyvar")
	} else if t.Inst == Var {
		parts = append(parts, "var")
	}
	if t.AnyOpt {
		parts = append(parts, "anyopt")
	} else if t.Opt == Opt {
		parts = append(parts, "opt")
	}
	return strings.Join(append(parts, t.Var.String()), " ")
}

func qualify(inst VarType, opt OptType, name string) string {
	sb := strings.Builder{}
	if inst == Var {
		sb.WriteString("var ")
	}
	if opt == Opt {
		sb.WriteString("opt ")
	}
	sb.WriteString(name)
	return sb.String()
}

func ParBool() Type   { return &TBool{} }
func VarBool() Type   { return &TBool{Inst: Var} }
func ParInt() Type    { return &TInt{} }
func VarInt() Type    { return &TInt{Inst: Var} }
func ParFloat() Type  { return &TFloat{} }
func ParString() Type { return &TString{} }
func Ann() Type       { return &TAnn{} }
func Bottom() Type    { return &TBottom{} }
func OptBottom() Type { return &TBottom{Opt: Opt} }

func ParEnum(e EnumRef) Type {
	return &TEnum{Enum: e}
}

func Array(dim Type, element Type) Type {
	return &TArray{Dim: dim, Element: element}
}

// Array1D is array [int] of element.
func Array1D(element Type) Type {
	return Array(ParInt(), element)
}

func ParSet(element Type) Type {
	return &TSet{Element: element}
}

func Tuple(fields ...Type) Type {
	return &TTuple{Fields: fields}
}

func Record(fields ...RecordField) Type {
	return &TRecord{Fields: sortFields(fields)}
}

func Function(params []Type, ret Type) Type {
	return &TFunc{Function: FunctionType{Params: params, Return: ret}}
}

func sortFields(fields []RecordField) []RecordField {
	out := slices.Clone(fields)
	slices.SortStableFunc(out, func(a, b RecordField) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}
