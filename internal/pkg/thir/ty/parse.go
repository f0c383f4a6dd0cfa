package ty

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
)

// Signature is a parsed function declaration such as
// "var bool: forall(array [$X] of var bool)".
type Signature struct {
	Name string
	PolymorphicFunctionType
}

func (s Signature) IsPolymorphic() bool {
	return len(s.TyParams) > 0
}

type parser struct {
	src    string
	pos    int
	tyVars []*TTyVar
	inDim  int
}

// Parse reads a type-inst such as "array [int] of var opt int".
func Parse(src string) (t Type, err error) {
	p := &parser{src: src}
	defer p.recover(&err)
	t = p.parseType()
	p.expectEnd()
	p.bindTyVars()
	return t, nil
}

func MustParse(src string) Type {
	t, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseSignature reads "<return type>: <name>(<parameter types>)".
func ParseSignature(src string) (sig Signature, err error) {
	p := &parser{src: src}
	defer p.recover(&err)
	ret := p.parseType()
	p.expect(":")
	name := p.rawUntil('(')
	p.expect("(")
	var params []Type
	if p.peek() != ")" {
		params = append(params, p.parseType())
		for p.peek() == "," {
			p.next()
			params = append(params, p.parseType())
		}
	}
	p.expect(")")
	p.expectEnd()
	return Signature{
		Name: name,
		PolymorphicFunctionType: PolymorphicFunctionType{
			TyParams: p.bindTyVars(),
			Params:   params,
			Return:   ret,
		},
	}, nil
}

type parseError struct {
	err error
}

func (p *parser) fail(format string, args ...any) {
	panic(parseError{errors.Newf("%s at offset %d in %q", fmt.Sprintf(format, args...), p.pos, p.src)})
}

func (p *parser) recover(err *error) {
	if r := recover(); r != nil {
		if pe, ok := r.(parseError); ok {
			*err = pe.err
			return
		}
		panic(r)
	}
}

// bindTyVars gives every occurrence of a type-inst variable the same
// capabilities and returns the variables in order of first appearance.
func (p *parser) bindTyVars() []TyVar {
	var order []string
	merged := map[string]TyVar{}
	for _, tv := range p.tyVars {
		m, ok := merged[tv.Var.Name]
		if !ok {
			order = append(order, tv.Var.Name)
			m = TyVar{Name: tv.Var.Name}
		}
		m.Varifiable = m.Varifiable || tv.Var.Varifiable
		m.Enumerable = m.Enumerable || tv.Var.Enumerable
		m.Indexable = m.Indexable || tv.Var.Indexable
		merged[tv.Var.Name] = m
	}
	for _, tv := range p.tyVars {
		tv.Var = merged[tv.Var.Name]
	}
	result := make([]TyVar, len(order))
	for i, name := range order {
		result[i] = merged[name]
	}
	return result
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func isIdent(c byte) bool {
	return c == '_' || c == '$' || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}

func (p *parser) scan() (string, int) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return "", p.pos
	}
	start := p.pos
	switch c := p.src[p.pos]; {
	case strings.HasPrefix(p.src[p.pos:], ".."):
		return "..", start + 2
	case isIdent(c):
		end := start
		for end < len(p.src) && isIdent(p.src[end]) {
			end++
		}
		return p.src[start:end], end
	default:
		return string(c), start + 1
	}
}

func (p *parser) peek() string {
	tok, _ := p.scan()
	return tok
}

func (p *parser) next() string {
	tok, end := p.scan()
	if tok == "" {
		p.fail("unexpected end of input")
	}
	p.pos = end
	return tok
}

func (p *parser) expect(tok string) {
	if got := p.next(); got != tok {
		p.fail("expected %q, got %q", tok, got)
	}
}

func (p *parser) expectEnd() {
	if tok := p.peek(); tok != "" {
		p.fail("unexpected %q", tok)
	}
}

func (p *parser) rawUntil(c byte) string {
	p.skipSpace()
	end := strings.IndexByte(p.src[p.pos:], c)
	if end <= 0 {
		p.fail("expected name")
	}
	name := strings.TrimSpace(p.src[p.pos : p.pos+end])
	p.pos += end
	return name
}

func (p *parser) parseType() Type {
	inst, anyInst := Par, false
	switch p.peek() {
	case "var":
		p.next()
		inst = Var
	case "par":
		p.next()
	case "any":
		p.next()
		tv := p.parseTyVarBase()
		tv.AnyInst, tv.AnyOpt = true, true
		return tv
	case "anyvar":
		p.next()
		anyInst = true
	}
	opt, anyOpt := NonOpt, false
	switch p.peek() {
	case "opt":
		p.next()
		opt = Opt
	case "anyopt":
		p.next()
		anyOpt = true
	}

	tok := p.peek()
	if strings.HasPrefix(tok, "$") {
		tv := p.parseTyVarBase()
		tv.Inst, tv.AnyInst, tv.Opt, tv.AnyOpt = inst, anyInst, opt, anyOpt
		tv.Var.Varifiable = inst == Var
		return tv
	}
	if anyInst || anyOpt {
		p.fail("anyvar/anyopt only apply to type-inst variables")
	}

	var base Type
	switch tok = p.next(); tok {
	case "bool":
		base = &TBool{Inst: inst, Opt: opt}
	case "int":
		base = &TInt{Inst: inst, Opt: opt}
	case "float":
		base = &TFloat{Inst: inst, Opt: opt}
	case "string":
		base = &TString{Opt: opt}
	case "ann":
		base = &TAnn{Opt: opt}
	case "..":
		base = &TBottom{Opt: opt}
	case "set":
		p.expect("of")
		base = &TSet{Inst: inst, Opt: opt, Element: p.parseType()}
		if inst == Var && !KnownEnumerable(base.(*TSet).Element) {
			p.fail("%s cannot be var", base)
		}
	case "array":
		{
			p.expect("[")
			p.inDim++
			dims := []Type{p.parseType()}
			for p.peek() == "," {
				p.next()
				dims = append(dims, p.parseType())
			}
			p.inDim--
			p.expect("]")
			p.expect("of")
			var dim Type = dims[0]
			if len(dims) > 1 {
				dim = &TTuple{Fields: dims}
			}
			base = &TArray{Opt: opt, Dim: dim, Element: p.parseType()}
		}
	case "tuple":
		{
			p.expect("(")
			fields := []Type{p.parseType()}
			for p.peek() == "," {
				p.next()
				fields = append(fields, p.parseType())
			}
			p.expect(")")
			base = &TTuple{Opt: opt, Fields: fields}
		}
	case "record":
		{
			p.expect("(")
			var fields []RecordField
			for {
				t := p.parseType()
				p.expect(":")
				fields = append(fields, RecordField{Name: p.next(), Type: t})
				if p.peek() != "," {
					break
				}
				p.next()
			}
			p.expect(")")
			base = &TRecord{Opt: opt, Fields: sortFields(fields)}
		}
	case "op":
		{
			p.expect("(")
			ret := p.parseType()
			p.expect(":")
			p.expect("(")
			var params []Type
			if p.peek() != ")" {
				params = append(params, p.parseType())
				for p.peek() == "," {
					p.next()
					params = append(params, p.parseType())
				}
			}
			p.expect(")")
			p.expect(")")
			base = &TFunc{Opt: opt, Function: FunctionType{Params: params, Return: ret}}
		}
	default:
		if !isIdent(tok[0]) {
			p.fail("unexpected %q", tok)
		}
		base = &TEnum{Inst: inst, Opt: opt, Enum: EnumRef(tok)}
	}

	if inst == Var {
		switch base.(type) {
		case *TBool, *TInt, *TFloat, *TEnum, *TSet:
		default:
			v, ok := MakeVar(base)
			if !ok {
				p.fail("%s cannot be var", base)
			}
			base = v
		}
	}
	return base
}

func (p *parser) parseTyVarBase() *TTyVar {
	tok := p.next()
	enumerable := strings.HasPrefix(tok, "$$")
	name := strings.TrimLeft(tok, "$")
	if name == "" {
		p.fail("expected type-inst variable name")
	}
	tv := &TTyVar{Var: TyVar{Name: name, Enumerable: enumerable, Indexable: p.inDim > 0}}
	p.tyVars = append(p.tyVars, tv)
	return tv
}
