package ty

import "zinc-compiler/internal/pkg/common"

// Inst returns the instantiation of t, false when it is not fixed (e.g. any $T).
func Inst(t Type) (VarType, bool) {
	switch t.(type) {
	case *TBool:
		return t.(*TBool).Inst, true
	case *TInt:
		return t.(*TInt).Inst, true
	case *TFloat:
		return t.(*TFloat).Inst, true
	case *TEnum:
		return t.(*TEnum).Inst, true
	case *TSet:
		return t.(*TSet).Inst, true
	case *TString, *TAnn, *TBottom, *TFunc:
		return Par, true
	case *TArray:
		return Inst(t.(*TArray).Element)
	case *TTuple:
		return instOfAll(t.(*TTuple).Fields)
	case *TRecord:
		return instOfAll(common.Map(func(f RecordField) Type { return f.Type }, t.(*TRecord).Fields))
	case *TTyVar:
		{
			tv := t.(*TTyVar)
			if tv.AnyInst {
				return Par, false
			}
			return tv.Inst, true
		}
	default:
		common.Unreachable("unknown type %T", t)
		return Par, false
	}
}

func instOfAll(ts []Type) (VarType, bool) {
	result := Par
	for _, f := range ts {
		i, ok := Inst(f)
		if !ok {
			return Par, false
		}
		if i == Var {
			result = Var
		}
	}
	return result, true
}

func IsVar(t Type) bool {
	i, ok := Inst(t)
	return ok && i == Var
}

// Opt returns the optionality of t, false when it is not fixed.
func Optionality(t Type) (OptType, bool) {
	switch t.(type) {
	case *TBool:
		return t.(*TBool).Opt, true
	case *TInt:
		return t.(*TInt).Opt, true
	case *TFloat:
		return t.(*TFloat).Opt, true
	case *TEnum:
		return t.(*TEnum).Opt, true
	case *TString:
		return t.(*TString).Opt, true
	case *TAnn:
		return t.(*TAnn).Opt, true
	case *TBottom:
		return t.(*TBottom).Opt, true
	case *TArray:
		return t.(*TArray).Opt, true
	case *TSet:
		return t.(*TSet).Opt, true
	case *TTuple:
		return t.(*TTuple).Opt, true
	case *TRecord:
		return t.(*TRecord).Opt, true
	case *TFunc:
		return t.(*TFunc).Opt, true
	case *TTyVar:
		{
			tv := t.(*TTyVar)
			if tv.AnyOpt {
				return NonOpt, false
			}
			return tv.Opt, true
		}
	default:
		common.Unreachable("unknown type %T", t)
		return NonOpt, false
	}
}

func IsOpt(t Type) bool {
	o, ok := Optionality(t)
	return ok && o == Opt
}

// WithInst sets the instantiation of t. Making a type var fails for types
// that cannot be decision variables.
func WithInst(t Type, inst VarType) (Type, bool) {
	if inst == Par {
		return MakePar(t), true
	}
	switch t.(type) {
	case *TBool:
		return &TBool{Inst: inst, Opt: t.(*TBool).Opt}, true
	case *TInt:
		return &TInt{Inst: inst, Opt: t.(*TInt).Opt}, true
	case *TFloat:
		return &TFloat{Inst: inst, Opt: t.(*TFloat).Opt}, true
	case *TEnum:
		{
			e := t.(*TEnum)
			return &TEnum{Inst: inst, Opt: e.Opt, Enum: e.Enum}, true
		}
	case *TSet:
		{
			s := t.(*TSet)
			if !KnownEnumerable(s.Element) {
				return nil, false
			}
			return &TSet{Inst: inst, Opt: s.Opt, Element: s.Element}, true
		}
	case *TTuple:
		{
			tt := t.(*TTuple)
			fields := make([]Type, len(tt.Fields))
			for i, f := range tt.Fields {
				v, ok := WithInst(f, inst)
				if !ok {
					return nil, false
				}
				fields[i] = v
			}
			return &TTuple{Opt: tt.Opt, Fields: fields}, true
		}
	case *TRecord:
		{
			r := t.(*TRecord)
			fields := make([]RecordField, len(r.Fields))
			for i, f := range r.Fields {
				v, ok := WithInst(f.Type, inst)
				if !ok {
					return nil, false
				}
				fields[i] = RecordField{Name: f.Name, Type: v}
			}
			return &TRecord{Opt: r.Opt, Fields: fields}, true
		}
	case *TTyVar:
		{
			tv := t.(*TTyVar)
			if !tv.Var.Varifiable {
				return nil, false
			}
			return &TTyVar{Inst: inst, Opt: tv.Opt, AnyOpt: tv.AnyOpt, Var: tv.Var}, true
		}
	case *TBottom:
		return t, true
	default:
		return nil, false
	}
}

func MakeVar(t Type) (Type, bool) {
	return WithInst(t, Var)
}

func MustMakeVar(t Type) Type {
	v, ok := MakeVar(t)
	common.Assert(ok, "cannot make %s var", t)
	return v
}

func MakePar(t Type) Type {
	switch t.(type) {
	case *TBool:
		return &TBool{Opt: t.(*TBool).Opt}
	case *TInt:
		return &TInt{Opt: t.(*TInt).Opt}
	case *TFloat:
		return &TFloat{Opt: t.(*TFloat).Opt}
	case *TEnum:
		return &TEnum{Opt: t.(*TEnum).Opt, Enum: t.(*TEnum).Enum}
	case *TArray:
		{
			a := t.(*TArray)
			return &TArray{Opt: a.Opt, Dim: a.Dim, Element: MakePar(a.Element)}
		}
	case *TSet:
		{
			s := t.(*TSet)
			return &TSet{Opt: s.Opt, Element: s.Element}
		}
	case *TTuple:
		{
			tt := t.(*TTuple)
			return &TTuple{Opt: tt.Opt, Fields: common.Map(MakePar, tt.Fields)}
		}
	case *TRecord:
		{
			r := t.(*TRecord)
			return &TRecord{Opt: r.Opt, Fields: common.Map(func(f RecordField) RecordField {
				return RecordField{Name: f.Name, Type: MakePar(f.Type)}
			}, r.Fields)}
		}
	case *TTyVar:
		{
			tv := t.(*TTyVar)
			return &TTyVar{Inst: Par, Opt: tv.Opt, AnyOpt: tv.AnyOpt, Var: tv.Var}
		}
	default:
		return t
	}
}

func WithOpt(t Type, opt OptType) Type {
	switch t.(type) {
	case *TBool:
		return &TBool{Inst: t.(*TBool).Inst, Opt: opt}
	case *TInt:
		return &TInt{Inst: t.(*TInt).Inst, Opt: opt}
	case *TFloat:
		return &TFloat{Inst: t.(*TFloat).Inst, Opt: opt}
	case *TEnum:
		return &TEnum{Inst: t.(*TEnum).Inst, Opt: opt, Enum: t.(*TEnum).Enum}
	case *TString:
		return &TString{Opt: opt}
	case *TAnn:
		return &TAnn{Opt: opt}
	case *TBottom:
		return &TBottom{Opt: opt}
	case *TArray:
		{
			a := t.(*TArray)
			return &TArray{Opt: opt, Dim: a.Dim, Element: a.Element}
		}
	case *TSet:
		{
			s := t.(*TSet)
			return &TSet{Inst: s.Inst, Opt: opt, Element: s.Element}
		}
	case *TTuple:
		return &TTuple{Opt: opt, Fields: t.(*TTuple).Fields}
	case *TRecord:
		return &TRecord{Opt: opt, Fields: t.(*TRecord).Fields}
	case *TFunc:
		return &TFunc{Opt: opt, Function: t.(*TFunc).Function}
	case *TTyVar:
		{
			tv := t.(*TTyVar)
			return &TTyVar{Inst: tv.Inst, AnyInst: tv.AnyInst, Opt: opt, Var: tv.Var}
		}
	default:
		common.Unreachable("unknown type %T", t)
		return nil
	}
}

func MakeOpt(t Type) Type {
	return WithOpt(t, Opt)
}

// MakeOccurs removes the top-level optionality of t.
func MakeOccurs(t Type) Type {
	return WithOpt(t, NonOpt)
}

// KnownPar reports whether t contains no decision variables at all.
func KnownPar(t Type) bool {
	todo := []Type{t}
	for len(todo) > 0 {
		t := todo[len(todo)-1]
		todo = todo[:len(todo)-1]
		switch t.(type) {
		case *TBool, *TInt, *TFloat, *TEnum, *TSet:
			if i, _ := Inst(t); i == Var {
				return false
			}
		case *TString, *TAnn, *TBottom, *TFunc:
		case *TArray:
			todo = append(todo, t.(*TArray).Dim, t.(*TArray).Element)
		case *TTuple:
			todo = append(todo, t.(*TTuple).Fields...)
		case *TRecord:
			for _, f := range t.(*TRecord).Fields {
				todo = append(todo, f.Type)
			}
		case *TTyVar:
			if tv := t.(*TTyVar); tv.AnyInst || tv.Inst == Var {
				return false
			}
		}
	}
	return true
}

func KnownOccurs(t Type) bool {
	o, ok := Optionality(t)
	return ok && o == NonOpt
}

func KnownVarifiable(t Type) bool {
	_, ok := MakeVar(t)
	return ok
}

func KnownEnumerable(t Type) bool {
	switch t.(type) {
	case *TBottom:
		return t.(*TBottom).Opt == NonOpt
	case *TBool, *TInt, *TEnum:
		return KnownOccurs(t)
	case *TTyVar:
		{
			tv := t.(*TTyVar)
			return !tv.AnyOpt && tv.Opt == NonOpt && tv.Var.Enumerable
		}
	default:
		return false
	}
}

func KnownIndexable(t Type) bool {
	if KnownEnumerable(t) {
		return true
	}
	switch t.(type) {
	case *TTuple:
		{
			tt := t.(*TTuple)
			return tt.Opt == NonOpt && common.All(KnownEnumerable, tt.Fields)
		}
	case *TTyVar:
		{
			tv := t.(*TTyVar)
			return !tv.AnyOpt && tv.Opt == NonOpt && tv.Var.Indexable
		}
	default:
		return false
	}
}

// Walk calls f on t and every type nested in it, stopping when f returns false.
func Walk(t Type, f func(Type) bool) bool {
	if !f(t) {
		return false
	}
	switch t.(type) {
	case *TArray:
		return Walk(t.(*TArray).Dim, f) && Walk(t.(*TArray).Element, f)
	case *TSet:
		return Walk(t.(*TSet).Element, f)
	case *TTuple:
		for _, field := range t.(*TTuple).Fields {
			if !Walk(field, f) {
				return false
			}
		}
	case *TRecord:
		for _, field := range t.(*TRecord).Fields {
			if !Walk(field.Type, f) {
				return false
			}
		}
	case *TFunc:
		{
			fn := t.(*TFunc).Function
			for _, p := range fn.Params {
				if !Walk(p, f) {
					return false
				}
			}
			return Walk(fn.Return, f)
		}
	}
	return true
}

func contains(t Type, p func(Type) bool) bool {
	found := false
	Walk(t, func(t Type) bool {
		if p(t) {
			found = true
		}
		return !found
	})
	return found
}

func ContainsOpt(t Type) bool {
	return contains(t, IsOpt)
}

func ContainsTyVar(t Type) bool {
	return contains(t, func(t Type) bool {
		_, ok := t.(*TTyVar)
		return ok
	})
}

func ContainsBottom(t Type) bool {
	return contains(t, func(t Type) bool {
		_, ok := t.(*TBottom)
		return ok
	})
}

func ContainsEnum(t Type) bool {
	return contains(t, func(t Type) bool {
		_, ok := t.(*TEnum)
		return ok
	})
}

func ContainsRecord(t Type) bool {
	return contains(t, func(t Type) bool {
		_, ok := t.(*TRecord)
		return ok
	})
}

// ContainsErasedType reports whether t contains structure that a later pass
// removes: optionality, enums or records.
func ContainsErasedType(t Type) bool {
	return contains(t, func(t Type) bool {
		switch t.(type) {
		case *TEnum, *TRecord:
			return true
		default:
			return IsOpt(t)
		}
	})
}

// ElemTy is the element type of an array or set. Set elements carry the
// instantiation of the set.
func ElemTy(t Type) (Type, bool) {
	switch t.(type) {
	case *TArray:
		return t.(*TArray).Element, true
	case *TSet:
		{
			s := t.(*TSet)
			if s.Inst == Var {
				return MakeVar(s.Element)
			}
			return s.Element, true
		}
	default:
		return nil, false
	}
}

func MustElemTy(t Type) Type {
	e, ok := ElemTy(t)
	common.Assert(ok, "%s has no element type", t)
	return e
}

func Fields(t Type) ([]Type, bool) {
	if tt, ok := t.(*TTuple); ok {
		return tt.Fields, true
	}
	return nil, false
}

func EnumTy(t Type) (EnumRef, bool) {
	switch t.(type) {
	case *TEnum:
		return t.(*TEnum).Enum, true
	case *TSet:
		return EnumTy(t.(*TSet).Element)
	default:
		return "", false
	}
}

func IsVarSet(t Type) bool {
	s, ok := t.(*TSet)
	return ok && s.Inst == Var
}

func IsArray(t Type) bool {
	_, ok := t.(*TArray)
	return ok
}

func IsSet(t Type) bool {
	_, ok := t.(*TSet)
	return ok
}

// Dims is the number of array dimensions, 0 for non-arrays.
func Dims(t Type) int {
	a, ok := t.(*TArray)
	if !ok {
		return 0
	}
	if tt, ok := a.Dim.(*TTuple); ok && tt.Opt == NonOpt {
		return len(tt.Fields)
	}
	return 1
}

// ReplaceBottom turns leftover bottom types into int where the choice does not matter.
func ReplaceBottom(t Type) Type {
	switch t.(type) {
	case *TBottom:
		return &TInt{Opt: t.(*TBottom).Opt}
	case *TArray:
		{
			a := t.(*TArray)
			return &TArray{Opt: a.Opt, Dim: ReplaceBottom(a.Dim), Element: ReplaceBottom(a.Element)}
		}
	case *TSet:
		{
			s := t.(*TSet)
			return &TSet{Inst: s.Inst, Opt: s.Opt, Element: ReplaceBottom(s.Element)}
		}
	case *TTuple:
		{
			tt := t.(*TTuple)
			return &TTuple{Opt: tt.Opt, Fields: common.Map(ReplaceBottom, tt.Fields)}
		}
	case *TRecord:
		{
			r := t.(*TRecord)
			return &TRecord{Opt: r.Opt, Fields: common.Map(func(f RecordField) RecordField {
				return RecordField{Name: f.Name, Type: ReplaceBottom(f.Type)}
			}, r.Fields)}
		}
	default:
		return t
	}
}

// EraseEnum replaces every enum base type in t with int, keeping inst and opt.
func EraseEnum(t Type) Type {
	switch t.(type) {
	case *TEnum:
		{
			e := t.(*TEnum)
			return &TInt{Inst: e.Inst, Opt: e.Opt}
		}
	case *TArray:
		{
			a := t.(*TArray)
			return &TArray{Opt: a.Opt, Dim: EraseEnum(a.Dim), Element: EraseEnum(a.Element)}
		}
	case *TSet:
		{
			s := t.(*TSet)
			return &TSet{Inst: s.Inst, Opt: s.Opt, Element: EraseEnum(s.Element)}
		}
	case *TTuple:
		{
			tt := t.(*TTuple)
			return &TTuple{Opt: tt.Opt, Fields: common.Map(EraseEnum, tt.Fields)}
		}
	case *TRecord:
		{
			r := t.(*TRecord)
			return &TRecord{Opt: r.Opt, Fields: common.Map(func(f RecordField) RecordField {
				return RecordField{Name: f.Name, Type: EraseEnum(f.Type)}
			}, r.Fields)}
		}
	case *TFunc:
		{
			fn := t.(*TFunc)
			return &TFunc{Opt: fn.Opt, Function: FunctionType{
				Params: common.Map(EraseEnum, fn.Function.Params),
				Return: EraseEnum(fn.Function.Return),
			}}
		}
	default:
		return t
	}
}

// EraseOpt replaces every optional type opt T in t with tuple(bool, T), where
// the occurs flag is var bool if T is var.
func EraseOpt(t Type) Type {
	var inner Type
	switch t.(type) {
	case *TArray:
		{
			a := t.(*TArray)
			inner = &TArray{Dim: EraseOpt(a.Dim), Element: EraseOpt(a.Element)}
		}
	case *TSet:
		{
			s := t.(*TSet)
			inner = &TSet{Inst: s.Inst, Element: EraseOpt(s.Element)}
		}
	case *TTuple:
		inner = &TTuple{Fields: common.Map(EraseOpt, t.(*TTuple).Fields)}
	case *TRecord:
		{
			r := t.(*TRecord)
			inner = &TRecord{Fields: common.Map(func(f RecordField) RecordField {
				return RecordField{Name: f.Name, Type: EraseOpt(f.Type)}
			}, r.Fields)}
		}
	case *TFunc:
		{
			fn := t.(*TFunc).Function
			inner = &TFunc{Function: FunctionType{
				Params: common.Map(EraseOpt, fn.Params),
				Return: EraseOpt(fn.Return),
			}}
		}
	case *TTyVar:
		if !IsOpt(t) {
			return t
		}
		inner = MakeOccurs(t)
	default:
		inner = MakeOccurs(t)
	}
	if !IsOpt(t) {
		return inner
	}
	occurs := ParBool()
	if IsVar(t) {
		occurs = VarBool()
	}
	return Tuple(occurs, inner)
}
