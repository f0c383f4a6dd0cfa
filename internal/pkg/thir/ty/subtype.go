package ty

// IsSubtypeOf reports whether a value of type a can be used where b is expected.
func IsSubtypeOf(a, b Type) bool {
	if Equal(a, b) {
		return true
	}
	if bottom, ok := a.(*TBottom); ok {
		return bottom.Opt == NonOpt || IsOpt(b)
	}
	if !instSubtype(a, b) || !optSubtype(a, b) {
		return false
	}

	switch a.(type) {
	case *TBool:
		switch b.(type) {
		case *TBool, *TInt, *TFloat:
			return true
		}
		return false
	case *TEnum:
		switch b.(type) {
		case *TEnum:
			return a.(*TEnum).Enum == b.(*TEnum).Enum
		case *TInt, *TFloat:
			return true
		}
		return false
	case *TInt:
		switch b.(type) {
		case *TInt, *TFloat:
			return true
		}
		return false
	case *TFloat:
		_, ok := b.(*TFloat)
		return ok
	case *TString:
		_, ok := b.(*TString)
		return ok
	case *TAnn:
		_, ok := b.(*TAnn)
		return ok
	case *TArray:
		{
			y, ok := b.(*TArray)
			x := a.(*TArray)
			return ok && IsSubtypeOf(x.Dim, y.Dim) && IsSubtypeOf(x.Element, y.Element)
		}
	case *TSet:
		{
			y, ok := b.(*TSet)
			return ok && IsSubtypeOf(a.(*TSet).Element, y.Element)
		}
	case *TTuple:
		{
			y, ok := b.(*TTuple)
			x := a.(*TTuple)
			if !ok || len(x.Fields) != len(y.Fields) {
				return false
			}
			for i := range x.Fields {
				if !IsSubtypeOf(x.Fields[i], y.Fields[i]) {
					return false
				}
			}
			return true
		}
	case *TRecord:
		{
			y, ok := b.(*TRecord)
			x := a.(*TRecord)
			if !ok || len(x.Fields) != len(y.Fields) {
				return false
			}
			for i := range x.Fields {
				if x.Fields[i].Name != y.Fields[i].Name || !IsSubtypeOf(x.Fields[i].Type, y.Fields[i].Type) {
					return false
				}
			}
			return true
		}
	case *TFunc:
		{
			y, ok := b.(*TFunc)
			return ok && a.(*TFunc).Function.IsSubtypeOf(y.Function)
		}
	case *TTyVar:
		{
			y, ok := b.(*TTyVar)
			return ok && a.(*TTyVar).Var.Name == y.Var.Name
		}
	}
	return false
}

func instSubtype(a, b Type) bool {
	switch a.(type) {
	case *TArray, *TTuple, *TRecord:
		// checked structurally
		return true
	}
	i1, ok1 := Inst(a)
	i2, ok2 := Inst(b)
	if !ok2 {
		return true
	}
	if !ok1 {
		return false
	}
	return i1 == Par || i1 == i2
}

func optSubtype(a, b Type) bool {
	o1, ok1 := Optionality(a)
	o2, ok2 := Optionality(b)
	if !ok2 {
		return true
	}
	if !ok1 {
		return false
	}
	return o1 == NonOpt || o1 == o2
}

// MostSpecificSupertype computes the smallest type every one of ts is a
// subtype of. It fails for empty input and for incompatible types.
func MostSpecificSupertype(ts ...Type) (Type, bool) {
	if len(ts) == 0 {
		return nil, false
	}
	result := ts[0]
	for _, t := range ts[1:] {
		var ok bool
		result, ok = supertype(result, t)
		if !ok {
			return nil, false
		}
	}
	return result, true
}

func supertype(a, b Type) (Type, bool) {
	if Equal(a, b) {
		return a, true
	}
	if x, ok := a.(*TBottom); ok {
		if x.Opt == Opt {
			return MakeOpt(b), true
		}
		return b, true
	}
	if y, ok := b.(*TBottom); ok {
		if y.Opt == Opt {
			return MakeOpt(a), true
		}
		return a, true
	}

	opt := NonOpt
	if IsOpt(a) || IsOpt(b) {
		opt = Opt
	}
	inst := Par
	if IsVar(a) || IsVar(b) {
		inst = Var
	}

	if ra, rb := scalarRank(a), scalarRank(b); ra > 0 && rb > 0 {
		if ea, ok := a.(*TEnum); ok {
			if eb, ok := b.(*TEnum); ok && ea.Enum == eb.Enum {
				return &TEnum{Inst: inst, Opt: opt, Enum: ea.Enum}, true
			}
			if _, ok := b.(*TBool); ok {
				return nil, false
			}
		}
		if _, ok := b.(*TEnum); ok {
			if _, ok := a.(*TBool); ok {
				return nil, false
			}
		}
		switch max(ra, rb) {
		case 1:
			return &TBool{Inst: inst, Opt: opt}, true
		case 2, 3:
			return &TInt{Inst: inst, Opt: opt}, true
		default:
			return &TFloat{Inst: inst, Opt: opt}, true
		}
	}

	switch a.(type) {
	case *TString:
		if _, ok := b.(*TString); ok {
			return &TString{Opt: opt}, true
		}
	case *TAnn:
		if _, ok := b.(*TAnn); ok {
			return &TAnn{Opt: opt}, true
		}
	case *TArray:
		if y, ok := b.(*TArray); ok {
			x := a.(*TArray)
			dim, ok := supertype(x.Dim, y.Dim)
			if !ok {
				return nil, false
			}
			el, ok := supertype(x.Element, y.Element)
			if !ok {
				return nil, false
			}
			return &TArray{Opt: opt, Dim: dim, Element: el}, true
		}
	case *TSet:
		if y, ok := b.(*TSet); ok {
			el, ok := supertype(a.(*TSet).Element, y.Element)
			if !ok || inst == Var && !KnownEnumerable(el) {
				return nil, false
			}
			return &TSet{Inst: inst, Opt: opt, Element: el}, true
		}
	case *TTuple:
		if y, ok := b.(*TTuple); ok {
			x := a.(*TTuple)
			if len(x.Fields) != len(y.Fields) {
				return nil, false
			}
			fields := make([]Type, len(x.Fields))
			for i := range x.Fields {
				f, ok := supertype(x.Fields[i], y.Fields[i])
				if !ok {
					return nil, false
				}
				fields[i] = f
			}
			return &TTuple{Opt: opt, Fields: fields}, true
		}
	case *TRecord:
		if y, ok := b.(*TRecord); ok {
			x := a.(*TRecord)
			if len(x.Fields) != len(y.Fields) {
				return nil, false
			}
			fields := make([]RecordField, len(x.Fields))
			for i := range x.Fields {
				if x.Fields[i].Name != y.Fields[i].Name {
					return nil, false
				}
				f, ok := supertype(x.Fields[i].Type, y.Fields[i].Type)
				if !ok {
					return nil, false
				}
				fields[i] = RecordField{Name: x.Fields[i].Name, Type: f}
			}
			return &TRecord{Opt: opt, Fields: fields}, true
		}
	case *TFunc, *TTyVar:
		if IsSubtypeOf(a, b) {
			return b, true
		}
		if IsSubtypeOf(b, a) {
			return a, true
		}
	}
	return nil, false
}

// scalarRank orders the coercible scalar types: bool < enum < int < float.
func scalarRank(t Type) int {
	switch t.(type) {
	case *TBool:
		return 1
	case *TEnum:
		return 2
	case *TInt:
		return 3
	case *TFloat:
		return 4
	default:
		return 0
	}
}
