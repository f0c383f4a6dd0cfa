package loader

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
	"zinc-compiler/internal/pkg/ast"
	"zinc-compiler/internal/pkg/common"
	"zinc-compiler/internal/pkg/thir"
	"zinc-compiler/internal/pkg/thir/ty"
)

type (
	marker     = thir.Typed
	model      = thir.Model[marker]
	expression = thir.Expression[marker]
	declId     = thir.DeclarationId[marker]
)

// Binary operators from the loosest to the tightest binding level. The first
// level is right associative.
var binaryOperators = [][]string{
	{"<->", "->", "<-"},
	{"\\/", "xor"},
	{"/\\"},
	{"==", "!=", "<=", ">=", "=", "<", ">", "in", "subset", "superset"},
	{"union", "diff", "symdiff"},
	{".."},
	{"++", "+", "-"},
	{"*", "/", "div", "mod", "intersect"},
}

// tokens that start with an operator but are not one
var operatorLookalikes = []string{"=>", "::", "<>"}

func isWordOperator(op string) bool {
	return isIdentChar([]rune(op)[0], true)
}

// peekOperator returns the binary operator at the cursor, if any.
func peekOperator(src *source) string {
	best := ""
	for _, level := range binaryOperators {
		for _, op := range level {
			if isWordOperator(op) {
				if peekKeyword(src, op) {
					return op
				}
				continue
			}
			if len(op) > len(best) && peekSequence(src, op) {
				best = op
			}
		}
	}
	for _, tok := range operatorLookalikes {
		if len(tok) >= len(best) && peekSequence(src, tok) {
			return ""
		}
	}
	return best
}

// scope resolves names while the expressions of one model are read.
type scope struct {
	model    *model
	registry *thir.IdentifierRegistry
	globals  map[string]thir.ResolvedIdentifier[marker]
	frames   []map[string]declId
}

func newScope(m *model, registry *thir.IdentifierRegistry) *scope {
	return &scope{model: m, registry: registry, globals: map[string]thir.ResolvedIdentifier[marker]{}}
}

func (sc *scope) push() {
	sc.frames = append(sc.frames, map[string]declId{})
}

func (sc *scope) pop() {
	sc.frames = sc.frames[:len(sc.frames)-1]
}

func (sc *scope) bind(name string, d declId) {
	if name == "" {
		return
	}
	if len(sc.frames) == 0 {
		sc.globals[name] = d
		return
	}
	sc.frames[len(sc.frames)-1][name] = d
}

func (sc *scope) resolve(name string) (thir.ResolvedIdentifier[marker], bool) {
	for i := len(sc.frames) - 1; i >= 0; i-- {
		if d, ok := sc.frames[i][name]; ok {
			return d, true
		}
	}
	target, ok := sc.globals[name]
	return target, ok
}

func (sc *scope) declare(origin ast.Location, name string, t ty.Type, def *expression) declId {
	d := sc.model.AddDeclaration(thir.Declaration[marker]{
		Origin:     origin,
		Name:       name,
		Domain:     thir.UnboundedDomain[marker](origin, t),
		Definition: def,
	})
	sc.bind(name, d)
	return d
}

func expect(src *source, seq string) error {
	if !readExact(src, seq) {
		return newError(*src, fmt.Sprintf("expected `%s`", seq))
	}
	return nil
}

func expectKeyword(src *source, kw string) error {
	if !readKeyword(src, kw) {
		return newError(*src, fmt.Sprintf("expected `%s`", kw))
	}
	return nil
}

// parseWholeExpression reads src as a single expression.
func parseWholeExpression(src *source, sc *scope) (*expression, error) {
	e, err := parseExpression(src, sc)
	if err != nil {
		return nil, err
	}
	if isOk(src) {
		return nil, newError(*src, "unexpected trailing input")
	}
	return e, nil
}

func parseExpression(src *source, sc *scope) (*expression, error) {
	e, err := parseBinary(src, sc, 0)
	if err != nil {
		return nil, err
	}
	for readExact(src, SeqAnnotation) {
		ann, err := parseUnary(src, sc)
		if err != nil {
			return nil, err
		}
		e.Annotations = append(e.Annotations, ann)
	}
	return e, nil
}

func parseBinary(src *source, sc *scope, level int) (*expression, error) {
	if level == len(binaryOperators) {
		return parseUnary(src, sc)
	}
	lhs, err := parseBinary(src, sc, level+1)
	if err != nil {
		return nil, err
	}
	for {
		at := src.cursor
		op := peekOperator(src)
		if !slices.Contains(binaryOperators[level], op) {
			return lhs, nil
		}
		if isWordOperator(op) {
			readKeyword(src, op)
		} else {
			readExact(src, op)
		}
		if op == "==" {
			op = "="
		}
		next := level + 1
		if level == 0 {
			next = level
		}
		rhs, err := parseBinary(src, sc, next)
		if err != nil {
			return nil, err
		}
		lhs, err = resolveCall(src, sc, at, op, false, []*expression{lhs, rhs})
		if err != nil {
			return nil, err
		}
	}
}

func parseUnary(src *source, sc *scope) (*expression, error) {
	at := src.cursor
	if readKeyword(src, KwNot) {
		arg, err := parseUnary(src, sc)
		if err != nil {
			return nil, err
		}
		return resolveCall(src, sc, at, KwNot, false, []*expression{arg})
	}
	if !peekSequence(src, "->") && readExact(src, "-") {
		i, f, err := parseNumber(src)
		if err != nil {
			return nil, err
		}
		if i != nil {
			return finishPostfix(src, sc, thir.IntLit[marker](loc(src, at), -*i))
		}
		if f != nil {
			return finishPostfix(src, sc, thir.NewTypedExpression[marker](loc(src, at), ty.ParFloat(), &thir.FloatLiteral[marker]{Value: -*f}))
		}
		arg, err := parseUnary(src, sc)
		if err != nil {
			return nil, err
		}
		return resolveCall(src, sc, at, "-", false, []*expression{arg})
	}
	e, err := parsePrimary(src, sc)
	if err != nil {
		return nil, err
	}
	return finishPostfix(src, sc, e)
}

// finishPostfix reads array and field accesses and calls of function values.
func finishPostfix(src *source, sc *scope, e *expression) (*expression, error) {
	for {
		at := src.cursor
		origin := loc(src, at)
		switch {
		case readExact(src, SeqBracketsOpen):
			{
				indices, err := parseList(src, sc, SeqBracketsClose)
				if err != nil {
					return nil, err
				}
				idx := indices[0]
				if len(indices) > 1 {
					idx = thir.TupleLit(sc.model, origin, indices...)
				}
				if !ty.IsArray(e.Ty) {
					return nil, common.NewErrorAt(origin, "cannot index %s", e.Ty)
				}
				e = thir.NewExpression(sc.model, origin, &thir.ArrayAccess[marker]{Collection: e, Indices: idx})
			}
		case peekSequence(src, SeqDot) && !peekSequence(src, ".."):
			{
				readExact(src, SeqDot)
				i, _, err := parseNumber(src)
				if err != nil {
					return nil, err
				}
				if i != nil {
					fields, ok := ty.Fields(e.Ty)
					if !ok || *i < 1 || int(*i) > len(fields) {
						return nil, common.NewErrorAt(origin, "invalid field .%d of %s", *i, e.Ty)
					}
					e = thir.Field(sc.model, origin, e, int(*i))
					continue
				}
				name := readIdentifier(src)
				if name == nil {
					return nil, newError(*src, "expected field name")
				}
				r, ok := e.Ty.(*ty.TRecord)
				if !ok {
					return nil, common.NewErrorAt(origin, "%s is not a record", e.Ty)
				}
				if _, ok := r.Field(*name); !ok {
					return nil, common.NewErrorAt(origin, "no field %s in %s", *name, e.Ty)
				}
				e = thir.NewExpression(sc.model, origin, &thir.RecordAccess[marker]{Record: e, Field: *name})
			}
		case peekSequence(src, SeqParenthesisOpen):
			{
				if _, ok := e.Ty.(*ty.TFunc); !ok {
					return e, nil
				}
				readExact(src, SeqParenthesisOpen)
				args, err := parseList(src, sc, SeqParenthesisClose)
				if err != nil {
					return nil, err
				}
				e = thir.NewExpression(sc.model, origin, &thir.Call[marker]{
					Function:  &thir.ExpressionCallable[marker]{Expression: e},
					Arguments: args,
				})
			}
		default:
			return e, nil
		}
	}
}

// parseList reads comma separated expressions up to and including closing.
func parseList(src *source, sc *scope, closing string) ([]*expression, error) {
	var result []*expression
	if readExact(src, closing) {
		return result, nil
	}
	for {
		e, err := parseExpression(src, sc)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
		if readExact(src, closing) {
			return result, nil
		}
		if err := expect(src, SeqComma); err != nil {
			return nil, err
		}
		if readExact(src, closing) {
			return result, nil
		}
	}
}

func parsePrimary(src *source, sc *scope) (*expression, error) {
	at := src.cursor
	origin := loc(src, at)
	if !isOk(src) {
		return nil, newError(*src, "expected expression")
	}

	if readExact(src, SeqAbsent) {
		return thir.NewExpression(sc.model, origin, &thir.Absent[marker]{}), nil
	}
	if s, err := parseString(src); err != nil || s != nil {
		if err != nil {
			return nil, err
		}
		return thir.StringLit[marker](origin, *s), nil
	}
	if i, f, err := parseNumber(src); err != nil || i != nil || f != nil {
		if err != nil {
			return nil, err
		}
		if i != nil {
			return thir.IntLit[marker](origin, *i), nil
		}
		return thir.NewTypedExpression[marker](origin, ty.ParFloat(), &thir.FloatLiteral[marker]{Value: *f}), nil
	}

	switch {
	case readExact(src, SeqParenthesisOpen):
		return parseParenthesised(src, sc, origin)
	case readExact(src, SeqBracketsOpen):
		return parseArray(src, sc, origin)
	case readExact(src, SeqBracesOpen):
		return parseSet(src, sc, origin)
	case readKeyword(src, KwTrue):
		return thir.BoolLit[marker](origin, true), nil
	case readKeyword(src, KwFalse):
		return thir.BoolLit[marker](origin, false), nil
	case readKeyword(src, KwInfinity):
		return thir.NewExpression(sc.model, origin, &thir.Infinity[marker]{}), nil
	case readKeyword(src, KwIf):
		return parseIfThenElse(src, sc, origin)
	case readKeyword(src, KwLet):
		return parseLet(src, sc, origin)
	case readKeyword(src, KwCase):
		return parseCase(src, sc, origin)
	case readKeyword(src, KwLambda):
		{
			name := readIdentifier(src)
			if name == nil {
				return nil, newError(*src, "expected function name")
			}
			fns := sc.model.LookupFunctions(*name)
			if len(fns) != 1 {
				return nil, common.NewErrorAt(origin, "lambda must name exactly one function, %s has %d", *name, len(fns))
			}
			return thir.NewExpression(sc.model, origin, &thir.Lambda[marker]{Function: fns[0]}), nil
		}
	}

	name := readIdentifier(src)
	if name == nil {
		return nil, newError(*src, "expected expression")
	}
	inverse := readExact(src, SeqInverse)
	if readExact(src, SeqParenthesisOpen) {
		args, err := parseList(src, sc, SeqParenthesisClose)
		if err != nil {
			return nil, err
		}
		return resolveCall(src, sc, at, *name, inverse, args)
	}
	if inverse {
		return nil, newError(*src, "expected arguments")
	}
	target, ok := sc.resolve(*name)
	if !ok {
		return nil, common.NewErrorAt(origin, "undefined identifier `%s`", *name)
	}
	return thir.Ident(sc.model, origin, target), nil
}

// resolveCall builds a call to name. Enum constructors, annotation
// constructors and function-typed declarations take precedence over functions.
func resolveCall(src *source, sc *scope, at uint32, name string, inverse bool, args []*expression) (*expression, error) {
	origin := loc(src, at)
	if target, ok := sc.resolve(name); ok {
		var callable thir.Callable[marker]
		switch target.(type) {
		case thir.EnumMemberRef[marker]:
			{
				member := target.(thir.EnumMemberRef[marker])
				if inverse {
					callable = thir.EnumDestructor[marker]{Member: member}
				} else {
					callable = thir.EnumConstructor[marker]{Member: member}
				}
			}
		case thir.AnnotationId[marker]:
			{
				a := target.(thir.AnnotationId[marker])
				if inverse {
					callable = thir.AnnotationDestructure[marker]{Annotation: a}
				} else {
					callable = a
				}
			}
		case thir.DeclarationId[marker]:
			{
				if _, ok := sc.model.Declaration(target.(thir.DeclarationId[marker])).Ty().(*ty.TFunc); ok {
					callable = &thir.ExpressionCallable[marker]{Expression: thir.Ident(sc.model, origin, target)}
				}
			}
		}
		if callable != nil {
			return thir.NewExpression(sc.model, origin, &thir.Call[marker]{Function: callable, Arguments: args}), nil
		}
	}
	if inverse {
		return nil, common.NewErrorAt(origin, "`%s` has no inverse", name)
	}
	tys := common.Map(func(e *expression) ty.Type { return e.Ty }, args)
	fn, _, err := thir.LookupFunction(sc.registry, sc.model, name, tys)
	if err != nil {
		return nil, common.NewErrorAt(origin, "cannot call `%s`: %v", name, err)
	}
	return thir.NewExpression(sc.model, origin, &thir.Call[marker]{Function: fn, Arguments: args}), nil
}

func parseParenthesised(src *source, sc *scope, origin ast.Location) (*expression, error) {
	start := src.cursor
	if name := readIdentifier(src); name != nil && peekSequence(src, SeqColon) && !peekSequence(src, SeqAnnotation) {
		src.cursor = start
		return parseRecord(src, sc, origin)
	}
	src.cursor = start

	first, err := parseExpression(src, sc)
	if err != nil {
		return nil, err
	}
	if readExact(src, SeqParenthesisClose) {
		return first, nil
	}
	if err := expect(src, SeqComma); err != nil {
		return nil, err
	}
	rest, err := parseList(src, sc, SeqParenthesisClose)
	if err != nil {
		return nil, err
	}
	return thir.TupleLit(sc.model, origin, append([]*expression{first}, rest...)...), nil
}

func parseRecord(src *source, sc *scope, origin ast.Location) (*expression, error) {
	var fields []thir.RecordLiteralField[marker]
	for {
		name := readIdentifier(src)
		if name == nil {
			return nil, newError(*src, "expected field name")
		}
		if err := expect(src, SeqColon); err != nil {
			return nil, err
		}
		value, err := parseExpression(src, sc)
		if err != nil {
			return nil, err
		}
		fields = append(fields, thir.RecordLiteralField[marker]{Name: *name, Value: value})
		if readExact(src, SeqParenthesisClose) {
			break
		}
		if err := expect(src, SeqComma); err != nil {
			return nil, err
		}
	}
	return thir.NewExpression(sc.model, origin, &thir.RecordLiteral[marker]{Fields: fields}), nil
}

// parseComprehension reads the generators after the bar before the template,
// so that the template sees the generator declarations.
func parseComprehension(src *source, sc *scope, bar uint32, closing string) (*expression, []thir.Generator[marker], error) {
	start := src.cursor
	src.cursor = bar + 1
	skipComment(src)
	sc.push()
	defer sc.pop()
	generators, err := parseGenerators(src, sc)
	if err != nil {
		return nil, nil, err
	}
	if err := expect(src, closing); err != nil {
		return nil, nil, err
	}
	end := src.cursor
	src.cursor = start
	template, err := parseExpression(src, sc)
	if err != nil {
		return nil, nil, err
	}
	if src.cursor != bar {
		return nil, nil, newError(*src, "expected `|`")
	}
	src.cursor = end
	return template, generators, nil
}

func parseGenerators(src *source, sc *scope) ([]thir.Generator[marker], error) {
	var generators []thir.Generator[marker]
	for {
		origin := loc(src, src.cursor)
		var names []string
		for {
			name := readIdentifier(src)
			if name == nil {
				return nil, newError(*src, "expected generator variable")
			}
			names = append(names, *name)
			if !readExact(src, SeqComma) {
				break
			}
		}
		if err := expectKeyword(src, KwIn); err != nil {
			return nil, err
		}
		collection, err := parseBinary(src, sc, 4)
		if err != nil {
			return nil, err
		}
		var elem ty.Type
		switch collection.Ty.(type) {
		case *ty.TArray:
			elem = collection.Ty.(*ty.TArray).Element
		case *ty.TSet:
			elem = collection.Ty.(*ty.TSet).Element
		default:
			return nil, common.NewErrorAt(origin, "cannot iterate over %s", collection.Ty)
		}
		g := thir.Generator[marker]{Collection: collection}
		for _, name := range names {
			g.Declarations = append(g.Declarations, sc.declare(origin, name, elem, nil))
		}
		if readKeyword(src, KwWhere) {
			where, err := parseExpression(src, sc)
			if err != nil {
				return nil, err
			}
			g.Where = where
		}
		generators = append(generators, g)
		if !readExact(src, SeqComma) {
			return generators, nil
		}
	}
}

func parseArray(src *source, sc *scope, origin ast.Location) (*expression, error) {
	if bar, ok := findComprehensionBar(src); ok {
		template, generators, err := parseComprehension(src, sc, bar, SeqBracketsClose)
		if err != nil {
			return nil, err
		}
		return thir.NewExpression(sc.model, origin, &thir.ArrayComprehension[marker]{Template: template, Generators: generators}), nil
	}
	elements, err := parseList(src, sc, SeqBracketsClose)
	if err != nil {
		return nil, err
	}
	return thir.ArrayLit(sc.model, origin, elements...), nil
}

func parseSet(src *source, sc *scope, origin ast.Location) (*expression, error) {
	if bar, ok := findComprehensionBar(src); ok {
		template, generators, err := parseComprehension(src, sc, bar, SeqBracesClose)
		if err != nil {
			return nil, err
		}
		return thir.NewExpression(sc.model, origin, &thir.SetComprehension[marker]{Template: template, Generators: generators}), nil
	}
	elements, err := parseList(src, sc, SeqBracesClose)
	if err != nil {
		return nil, err
	}
	return thir.NewExpression(sc.model, origin, &thir.SetLiteral[marker]{Elements: elements}), nil
}

func parseIfThenElse(src *source, sc *scope, origin ast.Location) (*expression, error) {
	ite := &thir.IfThenElse[marker]{}
	for {
		cond, err := parseExpression(src, sc)
		if err != nil {
			return nil, err
		}
		if err := expectKeyword(src, KwThen); err != nil {
			return nil, err
		}
		result, err := parseExpression(src, sc)
		if err != nil {
			return nil, err
		}
		ite.Branches = append(ite.Branches, thir.Branch[marker]{Condition: cond, Result: result})
		if !readKeyword(src, KwElseIf) {
			break
		}
	}
	if err := expectKeyword(src, KwElse); err != nil {
		return nil, err
	}
	els, err := parseExpression(src, sc)
	if err != nil {
		return nil, err
	}
	ite.Else = els
	if err := expectKeyword(src, KwEndIf); err != nil {
		return nil, err
	}
	return thir.NewExpression(sc.model, origin, ite), nil
}

// readTypeInst reads the type-inst in front of the next top-level colon.
// The result is nil for "any".
func readTypeInst(src *source) (ty.Type, error) {
	colon, ok := indexTopLevel(src.text, src.cursor, ':')
	if !ok {
		return nil, newError(*src, "expected `<type>: <name>`")
	}
	text := strings.TrimSpace(string(src.text[src.cursor:colon]))
	src.cursor = colon + 1
	skipComment(src)
	if text == KwAny {
		return nil, nil
	}
	t, err := ty.Parse(text)
	if err != nil {
		return nil, common.NewErrorAt(loc(src, colon), "%v", err)
	}
	return t, nil
}

func parseLet(src *source, sc *scope, origin ast.Location) (*expression, error) {
	if err := expect(src, SeqBracesOpen); err != nil {
		return nil, err
	}
	sc.push()
	defer sc.pop()
	var items []thir.LetItem[marker]
	for !readExact(src, SeqBracesClose) {
		itemOrigin := loc(src, src.cursor)
		if readKeyword(src, KwConstr) {
			c, err := parseExpression(src, sc)
			if err != nil {
				return nil, err
			}
			items = append(items, sc.model.AddConstraint(thir.Constraint[marker]{Origin: itemOrigin, Expression: c}))
		} else {
			t, err := readTypeInst(src)
			if err != nil {
				return nil, err
			}
			name := readIdentifier(src)
			if name == nil {
				return nil, newError(*src, "expected declaration name")
			}
			var def *expression
			if readExact(src, SeqEqual) {
				if def, err = parseExpression(src, sc); err != nil {
					return nil, err
				}
			}
			if t == nil {
				if def == nil {
					return nil, common.NewErrorAt(itemOrigin, "`any` declaration %s needs a definition", *name)
				}
				t = def.Ty
			}
			items = append(items, sc.declare(itemOrigin, *name, t, def))
		}
		if !readExact(src, SeqSemicolon) && !readExact(src, SeqComma) {
			if err := expect(src, SeqBracesClose); err != nil {
				return nil, err
			}
			break
		}
	}
	if err := expectKeyword(src, KwIn); err != nil {
		return nil, err
	}
	in, err := parseExpression(src, sc)
	if err != nil {
		return nil, err
	}
	return thir.NewExpression(sc.model, origin, &thir.Let[marker]{Items: items, In: in}), nil
}

func parseCase(src *source, sc *scope, origin ast.Location) (*expression, error) {
	scrutinee, err := parseExpression(src, sc)
	if err != nil {
		return nil, err
	}
	if err := expectKeyword(src, KwOf); err != nil {
		return nil, err
	}
	c := &thir.Case[marker]{Scrutinee: scrutinee}
	for !readKeyword(src, KwEndCase) {
		sc.push()
		pattern, err := parsePattern(src, sc, scrutinee.Ty)
		if err != nil {
			return nil, err
		}
		if err := expect(src, SeqCaseBind); err != nil {
			return nil, err
		}
		result, err := parseExpression(src, sc)
		if err != nil {
			return nil, err
		}
		sc.pop()
		c.Arms = append(c.Arms, thir.CaseArm[marker]{Pattern: pattern, Result: result})
		if !readExact(src, SeqComma) {
			if err := expectKeyword(src, KwEndCase); err != nil {
				return nil, err
			}
			break
		}
	}
	if len(c.Arms) == 0 {
		return nil, common.NewErrorAt(origin, "case without arms")
	}
	return thir.NewExpression(sc.model, origin, c), nil
}

func parsePattern(src *source, sc *scope, t ty.Type) (thir.Pattern[marker], error) {
	origin := loc(src, src.cursor)
	if readExact(src, SeqParenthesisOpen) {
		start := src.cursor
		if name := readIdentifier(src); name != nil && peekSequence(src, SeqColon) {
			src.cursor = start
			return parseRecordPattern(src, sc, t)
		}
		src.cursor = start
		fields, ok := ty.Fields(t)
		if !ok {
			return nil, common.NewErrorAt(origin, "tuple pattern for %s", t)
		}
		var patterns []thir.Pattern[marker]
		for i := 0; ; i++ {
			if i >= len(fields) {
				return nil, common.NewErrorAt(origin, "too many fields for %s", t)
			}
			p, err := parsePattern(src, sc, fields[i])
			if err != nil {
				return nil, err
			}
			patterns = append(patterns, p)
			if readExact(src, SeqParenthesisClose) {
				break
			}
			if err := expect(src, SeqComma); err != nil {
				return nil, err
			}
		}
		return &thir.TuplePattern[marker]{Fields: patterns}, nil
	}

	start := src.cursor
	if name := readIdentifier(src); name != nil {
		if *name == SeqUnderscore {
			return &thir.WildcardPattern[marker]{}, nil
		}
		if target, ok := sc.resolve(*name); ok {
			if member, ok := target.(thir.EnumMemberRef[marker]); ok {
				if !sc.model.EnumMember(member).IsAtom() {
					return nil, common.NewErrorAt(origin, "constructor patterns are not supported")
				}
				return &thir.ExpressionPattern[marker]{Expression: thir.Ident(sc.model, origin, target)}, nil
			}
		}
		return &thir.BindingPattern[marker]{Declaration: sc.declare(origin, *name, t, nil)}, nil
	}
	src.cursor = start
	value, err := parseUnary(src, sc)
	if err != nil {
		return nil, err
	}
	return &thir.ExpressionPattern[marker]{Expression: value}, nil
}

func parseRecordPattern(src *source, sc *scope, t ty.Type) (thir.Pattern[marker], error) {
	origin := loc(src, src.cursor)
	r, ok := t.(*ty.TRecord)
	if !ok {
		return nil, common.NewErrorAt(origin, "record pattern for %s", t)
	}
	var fields []thir.RecordPatternField[marker]
	for {
		name := readIdentifier(src)
		if name == nil {
			return nil, newError(*src, "expected field name")
		}
		ft, ok := r.Field(*name)
		if !ok {
			return nil, common.NewErrorAt(origin, "no field %s in %s", *name, t)
		}
		if err := expect(src, SeqColon); err != nil {
			return nil, err
		}
		p, err := parsePattern(src, sc, ft)
		if err != nil {
			return nil, err
		}
		fields = append(fields, thir.RecordPatternField[marker]{Name: *name, Pattern: p})
		if readExact(src, SeqParenthesisClose) {
			return &thir.RecordPattern[marker]{Fields: fields}, nil
		}
		if err := expect(src, SeqComma); err != nil {
			return nil, err
		}
	}
}
