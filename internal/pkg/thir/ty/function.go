package ty

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"zinc-compiler/internal/pkg/common"
)

var (
	ErrArgumentCount        = errors.New("argument count mismatch")
	ErrArgumentMismatch     = errors.New("argument type mismatch")
	ErrIncompatibleTyVar    = errors.New("incompatible type-inst variable")
	ErrNoMatchingFunction   = errors.New("no matching function")
	ErrAmbiguousOverloading = errors.New("ambiguous overloading")
)

// FunctionType is the type of a monomorphic function.
type FunctionType struct {
	Params []Type
	Return Type
}

func (f FunctionType) String() string {
	return fmt.Sprintf("op(%s: (%s))", f.Return, common.Join(f.Params, ", "))
}

// IsSubtypeOf is covariant in the return type and contravariant in the parameters.
func (f FunctionType) IsSubtypeOf(other FunctionType) bool {
	if !IsSubtypeOf(f.Return, other.Return) || len(f.Params) != len(other.Params) {
		return false
	}
	for i := range f.Params {
		if !IsSubtypeOf(other.Params[i], f.Params[i]) {
			return false
		}
	}
	return true
}

func (f FunctionType) Matches(args []Type) error {
	if len(args) != len(f.Params) {
		return errors.Wrapf(ErrArgumentCount, "expected %d, got %d", len(f.Params), len(args))
	}
	for i, arg := range args {
		if !IsSubtypeOf(arg, f.Params[i]) {
			return errors.Wrapf(ErrArgumentMismatch, "argument %d: expected %s, got %s", i+1, f.Params[i], arg)
		}
	}
	return nil
}

// PolymorphicFunctionType is the signature of a function with type-inst parameters.
type PolymorphicFunctionType struct {
	TyParams []TyVar
	Params   []Type
	Return   Type
}

func (p PolymorphicFunctionType) String() string {
	return fmt.Sprintf("op<%s>(%s: (%s))",
		common.Join(p.TyParams, ", "), p.Return, common.Join(p.Params, ", "))
}

// Instantiate solves the type-inst variables of p against the argument types.
func (p PolymorphicFunctionType) Instantiate(args []Type) (FunctionType, error) {
	bindings, err := p.Bindings(args)
	if err != nil {
		return FunctionType{}, err
	}
	return FunctionType{
		Params: common.Map(func(t Type) Type { return InstantiateTyVars(bindings, t) }, p.Params),
		Return: InstantiateTyVars(bindings, p.Return),
	}, nil
}

// Bindings returns the type each type-inst variable of p is bound to by the
// argument types, with inst and opt qualifiers of the parameter removed.
func (p PolymorphicFunctionType) Bindings(args []Type) (map[string]Type, error) {
	if len(args) != len(p.Params) {
		return nil, errors.Wrapf(ErrArgumentCount, "expected %d, got %d", len(p.Params), len(args))
	}
	candidates := map[string][]Type{}
	for _, tv := range p.TyParams {
		candidates[tv.Name] = nil
	}
	for i, arg := range args {
		if !collectInstantiations(candidates, arg, p.Params[i]) {
			return nil, errors.Wrapf(ErrArgumentMismatch, "argument %d: expected %s, got %s", i+1, p.Params[i], arg)
		}
	}
	resolved := map[string]Type{}
	for _, tv := range p.TyParams {
		ts := candidates[tv.Name]
		if len(ts) == 0 {
			continue
		}
		t, ok := MostSpecificSupertype(ts...)
		if !ok {
			return nil, errors.Wrapf(ErrIncompatibleTyVar, "%s instantiated with %s", tv, common.Join(ts, ", "))
		}
		resolved[tv.Name] = t
	}
	return resolved, nil
}

func collectInstantiations(candidates map[string][]Type, arg, param Type) bool {
	switch param.(type) {
	case *TArray:
		{
			p := param.(*TArray)
			a, ok := arg.(*TArray)
			if !ok {
				break
			}
			return (a.Opt == p.Opt || a.Opt == NonOpt) &&
				collectInstantiations(candidates, a.Dim, p.Dim) &&
				collectInstantiations(candidates, a.Element, p.Element)
		}
	case *TSet:
		{
			p := param.(*TSet)
			a, ok := arg.(*TSet)
			if !ok {
				break
			}
			return (a.Inst == p.Inst || a.Inst == Par) &&
				(a.Opt == p.Opt || a.Opt == NonOpt) &&
				collectInstantiations(candidates, a.Element, p.Element)
		}
	case *TTuple:
		{
			p := param.(*TTuple)
			a, ok := arg.(*TTuple)
			if !ok {
				break
			}
			if !(a.Opt == p.Opt || a.Opt == NonOpt) || len(a.Fields) != len(p.Fields) {
				return false
			}
			for i := range a.Fields {
				if !collectInstantiations(candidates, a.Fields[i], p.Fields[i]) {
					return false
				}
			}
			return true
		}
	case *TRecord:
		{
			p := param.(*TRecord)
			a, ok := arg.(*TRecord)
			if !ok {
				break
			}
			if !(a.Opt == p.Opt || a.Opt == NonOpt) {
				return false
			}
			for _, pf := range p.Fields {
				at, ok := a.Field(pf.Name)
				if !ok || !collectInstantiations(candidates, at, pf.Type) {
					return false
				}
			}
			return true
		}
	case *TFunc:
		{
			p := param.(*TFunc)
			a, ok := arg.(*TFunc)
			if !ok {
				break
			}
			if !(a.Opt == NonOpt || a.Opt == p.Opt) || len(a.Function.Params) != len(p.Function.Params) {
				return false
			}
			if !collectInstantiations(candidates, a.Function.Return, p.Function.Return) {
				return false
			}
			for i := range a.Function.Params {
				if !collectInstantiations(candidates, p.Function.Params[i], a.Function.Params[i]) {
					return false
				}
			}
			return true
		}
	case *TTyVar:
		{
			p := param.(*TTyVar)
			switch arg.(type) {
			case *TFunc, *TArray:
				return false
			}
			t := arg
			if inst, ok := Inst(t); !p.AnyInst && p.Inst == Par && (!ok || inst != Par) {
				return false
			}
			if opt, ok := Optionality(t); !p.AnyOpt && p.Opt == NonOpt && (!ok || opt != NonOpt) {
				return false
			}
			if !p.AnyInst && p.Inst == Var {
				t = MakePar(t)
			}
			if !p.AnyOpt && p.Opt == Opt {
				t = MakeOccurs(t)
			}
			if p.Var.Varifiable && !KnownVarifiable(t) ||
				p.Var.Enumerable && !KnownEnumerable(t) ||
				p.Var.Indexable && !KnownIndexable(t) {
				return false
			}
			ts, ok := candidates[p.Var.Name]
			if !ok {
				return false
			}
			candidates[p.Var.Name] = append(ts, t)
			return true
		}
	}
	return IsSubtypeOf(arg, param)
}

// InstantiateTyVars substitutes the bound type-inst variables in t.
func InstantiateTyVars(bindings map[string]Type, t Type) Type {
	switch t.(type) {
	case *TTyVar:
		{
			tv := t.(*TTyVar)
			bound, ok := bindings[tv.Var.Name]
			if !ok {
				return t
			}
			if !tv.AnyInst {
				inst, ok := WithInst(bound, tv.Inst)
				common.Assert(ok, "type-inst %s incompatible with %s", bound, tv)
				bound = inst
			}
			if !tv.AnyOpt {
				bound = WithOpt(bound, tv.Opt)
			}
			return bound
		}
	case *TArray:
		{
			a := t.(*TArray)
			return &TArray{Opt: a.Opt, Dim: InstantiateTyVars(bindings, a.Dim), Element: InstantiateTyVars(bindings, a.Element)}
		}
	case *TSet:
		{
			s := t.(*TSet)
			return &TSet{Inst: s.Inst, Opt: s.Opt, Element: InstantiateTyVars(bindings, s.Element)}
		}
	case *TTuple:
		{
			tt := t.(*TTuple)
			return &TTuple{Opt: tt.Opt, Fields: common.Map(func(f Type) Type { return InstantiateTyVars(bindings, f) }, tt.Fields)}
		}
	case *TRecord:
		{
			r := t.(*TRecord)
			return &TRecord{Opt: r.Opt, Fields: common.Map(func(f RecordField) RecordField {
				return RecordField{Name: f.Name, Type: InstantiateTyVars(bindings, f.Type)}
			}, r.Fields)}
		}
	case *TFunc:
		{
			fn := t.(*TFunc)
			return &TFunc{Opt: fn.Opt, Function: FunctionType{
				Params: common.Map(func(f Type) Type { return InstantiateTyVars(bindings, f) }, fn.Function.Params),
				Return: InstantiateTyVars(bindings, fn.Function.Return),
			}}
		}
	default:
		return t
	}
}

// Overload is one candidate of an overloaded function name.
type Overload[T any] struct {
	Data        T
	HasBody     bool
	Polymorphic bool
	Signature   PolymorphicFunctionType
}

func (o Overload[T]) instantiate(args []Type) (FunctionType, error) {
	if !o.Polymorphic {
		f := FunctionType{Params: o.Signature.Params, Return: o.Signature.Return}
		if err := f.Matches(args); err != nil {
			return FunctionType{}, err
		}
		return f, nil
	}
	return o.Signature.Instantiate(args)
}

type candidate[T any] struct {
	overload      Overload[T]
	instantiation FunctionType
	alive         bool
}

// MatchFunction picks the most specific overload accepting args and returns it
// together with its instantiated signature.
func MatchFunction[T any](overloads []Overload[T], args []Type) (Overload[T], FunctionType, error) {
	var candidates []*candidate[T]
	var mismatches []string
	for _, o := range overloads {
		inst, err := o.instantiate(args)
		if err != nil {
			mismatches = append(mismatches, fmt.Sprintf("%s: %v", o.Signature, err))
			continue
		}
		candidates = append(candidates, &candidate[T]{overload: o, instantiation: inst, alive: true})
	}
	if len(candidates) == 0 {
		return Overload[T]{}, FunctionType{}, errors.Wrapf(ErrNoMatchingFunction,
			"for (%s): %s", common.Join(args, ", "), strings.Join(mismatches, "; "))
	}

	for i := 0; i < len(candidates); i++ {
		c1 := candidates[i]
		for _, c2 := range candidates[i+1:] {
			if !c1.alive {
				break
			}
			if !c2.alive {
				continue
			}
			m1 := c1.instantiation.Matches(c2.instantiation.Params) == nil
			m2 := c2.instantiation.Matches(c1.instantiation.Params) == nil
			switch {
			case m1 && !m2:
				c1.alive = false
			case m2 && !m1:
				c2.alive = false
			case m1 && m2:
				eliminateEquivalent(c1, c2)
			}
		}
	}

	alive := common.MapIf(func(c *candidate[T]) (*candidate[T], bool) { return c, c.alive }, candidates)
	common.Assert(len(alive) > 0, "overload matches found, but all candidates eliminated")
	if len(alive) > 1 {
		return Overload[T]{}, FunctionType{}, errors.Wrapf(ErrAmbiguousOverloading, "%s",
			strings.Join(common.Map(func(c *candidate[T]) string { return c.overload.Signature.String() }, alive), ", "))
	}
	return alive[0].overload, alive[0].instantiation, nil
}

func eliminateEquivalent[T any](c1, c2 *candidate[T]) {
	p1, p2 := c1.overload.Polymorphic, c2.overload.Polymorphic
	switch {
	case p1 && !p2:
		c1.alive = false
		return
	case p2 && !p1:
		c2.alive = false
		return
	case p1 && p2:
		_, e1 := c1.overload.Signature.Instantiate(c2.overload.Signature.Params)
		_, e2 := c2.overload.Signature.Instantiate(c1.overload.Signature.Params)
		if e1 == nil && e2 != nil {
			c1.alive = false
			return
		}
		if e2 == nil && e1 != nil {
			c2.alive = false
			return
		}
	}
	if c2.overload.HasBody && !c1.overload.HasBody {
		c1.alive = false
	} else {
		c2.alive = false
	}
}
