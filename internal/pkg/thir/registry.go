package thir

import (
	"fmt"

	"zinc-compiler/internal/pkg/thir/ty"
)

// Names of the library and runtime functions the lowering passes emit calls to.
const (
	Forall         = "forall"
	Exists         = "exists"
	Sum            = "sum"
	Implies        = "->"
	Conjunction    = "/\\"
	Times          = "*"
	Bool2Int       = "bool2int"
	Negate         = "-"
	In             = "in"
	UpperBound     = "ub"
	Array2Set      = "array2set"
	IfThenElseCall = "if_then_else"
	Occurs         = "occurs"
	Deopt          = "deopt"
	Show           = "show"
	ShowDzn        = "showDzn"
	ShowJSON       = "showJSON"
	Concat         = "concat"
	Join           = "join"
	RangeOp        = ".."
	ArrayXd        = "arrayXd"

	MznGetEnum       = "mzn_get_enum"
	MznDefiningSet   = "mzn_defining_set"
	MznConstructEnum = "mzn_construct_enum"
	MznDestructEnum  = "mzn_destruct_enum"
	MznShowEnum      = "mzn_show_enum"
	MznOptDomain     = "mzn_opt_domain"
	MznOptChannel    = "mzn_opt_channel"
)

// CatalogType is the runtime description of an erased enumeration: one
// (name, [(parameter index, parameter domain)]) entry per constructor.
const CatalogType = "array [int] of tuple(string, array [int] of tuple(int, set of int))"

var builtinSignatures = []string{
	"bool: forall(array [$X] of bool)",
	"var bool: forall(array [$X] of var bool)",
	"var bool: forall(array [$X] of var opt bool)",
	"bool: exists(array [$X] of bool)",
	"var bool: exists(array [$X] of var bool)",
	"var bool: exists(array [$X] of var opt bool)",
	"int: sum(array [$X] of int)",
	"var int: sum(array [$X] of var int)",
	"var int: sum(array [$X] of var opt int)",
	"float: sum(array [$X] of float)",
	"var float: sum(array [$X] of var float)",
	"var float: sum(array [$X] of var opt float)",
	"bool: ->(bool, bool)",
	"var bool: ->(var bool, var bool)",
	"bool: /\\(bool, bool)",
	"var bool: /\\(var bool, var bool)",
	"int: *(int, int)",
	"var int: *(var int, var int)",
	"float: *(float, float)",
	"var float: *(var float, var float)",
	"int: bool2int(bool)",
	"var int: bool2int(var bool)",
	"int: -(int)",
	"float: -(float)",
	"var int: -(var int)",
	"var float: -(var float)",
	"int: +(int, int)",
	"var int: +(var int, var int)",
	"float: +(float, float)",
	"var float: +(var float, var float)",
	"int: -(int, int)",
	"var int: -(var int, var int)",
	"float: -(float, float)",
	"var float: -(var float, var float)",
	"int: div(int, int)",
	"var int: div(var int, var int)",
	"int: mod(int, int)",
	"var int: mod(var int, var int)",
	"float: /(float, float)",
	"var float: /(var float, var float)",
	"bool: =($T, $T)",
	"var bool: =(var $T, var $T)",
	"bool: !=($T, $T)",
	"var bool: !=(var $T, var $T)",
	"bool: <($T, $T)",
	"var bool: <(var $T, var $T)",
	"bool: <=($T, $T)",
	"var bool: <=(var $T, var $T)",
	"bool: >($T, $T)",
	"var bool: >(var $T, var $T)",
	"bool: >=($T, $T)",
	"var bool: >=(var $T, var $T)",
	"bool: \\/(bool, bool)",
	"var bool: \\/(var bool, var bool)",
	"bool: xor(bool, bool)",
	"var bool: xor(var bool, var bool)",
	"bool: <->(bool, bool)",
	"var bool: <->(var bool, var bool)",
	"bool: <-(bool, bool)",
	"var bool: <-(var bool, var bool)",
	"bool: not(bool)",
	"var bool: not(var bool)",
	"string: ++(string, string)",
	"array [int] of any $T: ++(array [int] of any $T, array [int] of any $T)",
	"set of $$E: union(set of $$E, set of $$E)",
	"var set of $$E: union(var set of $$E, var set of $$E)",
	"set of $$E: intersect(set of $$E, set of $$E)",
	"var set of $$E: intersect(var set of $$E, var set of $$E)",
	"set of $$E: diff(set of $$E, set of $$E)",
	"var set of $$E: diff(var set of $$E, var set of $$E)",
	"set of $$E: symdiff(set of $$E, set of $$E)",
	"bool: subset(set of $$E, set of $$E)",
	"var bool: subset(var set of $$E, var set of $$E)",
	"bool: superset(set of $$E, set of $$E)",
	"var bool: superset(var set of $$E, var set of $$E)",
	"int: card(set of $$E)",
	"var int: card(var set of $$E)",
	"int: length(array [$X] of any $T)",
	"int: abs(int)",
	"var int: abs(var int)",
	"bool: in(int, set of int)",
	"var bool: in(var int, var set of int)",
	"bool: in($$E, set of $$E)",
	"var bool: in(var $$E, var set of $$E)",
	"set of int: ub(var set of int)",
	"set of $$E: array2set(array [$X] of $$E)",
	"var set of $$E: array2set(array [$X] of var $$E)",
	"var set of $$E: array2set(array [$X] of var opt $$E)",
	"var $T: if_then_else(array [int] of var bool, array [int] of var $T)",
	"var opt $T: if_then_else(array [int] of var bool, array [int] of var opt $T)",
	"bool: occurs(opt $T)",
	"var bool: occurs(var opt $T)",
	"$T: deopt(opt $T)",
	"var $T: deopt(var opt $T)",
	"string: show(any $T)",
	"string: show(array [$X] of any $T)",
	"string: showDzn(any $T)",
	"string: showDzn(array [$X] of any $T)",
	"string: showJSON(any $T)",
	"string: showJSON(array [$X] of any $T)",
	"string: concat(array [$X] of string)",
	"string: join(string, array [$X] of string)",
	"set of int: ..(int, int)",
	"array [$X] of any $T: arrayXd(array [$X] of any $U, array [int] of any $T)",
	fmt.Sprintf("%s: mzn_get_enum(%s)", CatalogType, CatalogType),
	fmt.Sprintf("set of int: mzn_defining_set(%s)", CatalogType),
	fmt.Sprintf("int: mzn_construct_enum(%s, int)", CatalogType),
	fmt.Sprintf("int: mzn_construct_enum(%s, int, array [int] of int)", CatalogType),
	fmt.Sprintf("var int: mzn_construct_enum(%s, int, array [int] of var int)", CatalogType),
	fmt.Sprintf("array [int] of int: mzn_destruct_enum(%s, int, int)", CatalogType),
	fmt.Sprintf("array [int] of var int: mzn_destruct_enum(%s, int, var int)", CatalogType),
	fmt.Sprintf("string: mzn_show_enum(array [int] of %s, int, var int)", CatalogType),
	"set of int: mzn_opt_domain(set of int)",
	"set of float: mzn_opt_domain(set of float)",
	"var bool: mzn_opt_channel(var bool, var int, set of int)",
	"var bool: mzn_opt_channel(var bool, var float, set of float)",
}

// IdentifierRegistry holds the signatures of the builtins passes may call.
// A registry is created once per compilation and passed to every pass.
type IdentifierRegistry struct {
	signatures map[string][]ty.Signature
	order      []string
}

func NewIdentifierRegistry() *IdentifierRegistry {
	r := &IdentifierRegistry{signatures: map[string][]ty.Signature{}}
	for _, src := range builtinSignatures {
		sig, err := ty.ParseSignature(src)
		if err != nil {
			panic(fmt.Sprintf("invalid builtin signature %q: %v", src, err))
		}
		r.Register(sig)
	}
	return r
}

// Register adds a builtin overload.
func (r *IdentifierRegistry) Register(sig ty.Signature) {
	if _, ok := r.signatures[sig.Name]; !ok {
		r.order = append(r.order, sig.Name)
	}
	r.signatures[sig.Name] = append(r.signatures[sig.Name], sig)
}

func (r *IdentifierRegistry) Signatures(name string) []ty.Signature {
	return r.signatures[name]
}

func (r *IdentifierRegistry) Has(name string) bool {
	_, ok := r.signatures[name]
	return ok
}

// Names lists the builtins in registration order.
func (r *IdentifierRegistry) Names() []string {
	return r.order
}
