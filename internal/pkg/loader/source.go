package loader

import (
	"strconv"
	"strings"
	"unicode"

	"zinc-compiler/internal/pkg/ast"
	"zinc-compiler/internal/pkg/common"
)

const (
	KwIf       = "if"
	KwThen     = "then"
	KwElseIf   = "elseif"
	KwElse     = "else"
	KwEndIf    = "endif"
	KwLet      = "let"
	KwIn       = "in"
	KwWhere    = "where"
	KwCase     = "case"
	KwOf       = "of"
	KwEndCase  = "endcase"
	KwTrue     = "true"
	KwFalse    = "false"
	KwNot      = "not"
	KwLambda   = "lambda"
	KwInfinity = "infinity"
	KwAny      = "any"
	KwConstr   = "constraint"

	SeqComment          = "%"
	SeqParenthesisOpen  = "("
	SeqParenthesisClose = ")"
	SeqBracketsOpen     = "["
	SeqBracketsClose    = "]"
	SeqBracesOpen       = "{"
	SeqBracesClose      = "}"
	SeqComma            = ","
	SeqColon            = ":"
	SeqSemicolon        = ";"
	SeqEqual            = "="
	SeqBar              = "|"
	SeqDot              = "."
	SeqAbsent           = "<>"
	SeqAnnotation       = "::"
	SeqCaseBind         = "=>"
	SeqInverse          = "⁻¹"
	SeqUnderscore       = "_"

	SmbQuoteString = '"'
	SmbQuoteName   = '\''
	SmbEscape      = '\\'
)

var keywords = map[string]bool{
	KwIf: true, KwThen: true, KwElseIf: true, KwElse: true, KwEndIf: true, KwLet: true, KwIn: true,
	KwWhere: true, KwCase: true, KwOf: true, KwEndCase: true, KwNot: true, KwLambda: true, KwConstr: true,
	KwTrue: true, KwFalse: true, KwInfinity: true,
	"xor": true, "subset": true, "superset": true, "union": true, "diff": true, "symdiff": true,
	"div": true, "mod": true, "intersect": true,
}

// source is a single expression embedded in a YAML scalar. line and column
// locate the scalar in the model file.
type source struct {
	filePath string
	line     uint32
	column   uint32
	cursor   uint32
	text     []rune
}

func newSource(filePath string, line, column int, text string) *source {
	src := &source{filePath: filePath, line: uint32(line), column: uint32(column), text: []rune(text)}
	skipComment(src)
	return src
}

func loc(src *source, cursor uint32) ast.Location {
	return ast.NewLocation(src.filePath, src.line, src.column+cursor)
}

func newError(src source, msg string) error {
	return common.NewErrorAt(loc(&src, src.cursor), "%s", msg)
}

func isOk(src *source) bool {
	return src.cursor < uint32(len(src.text))
}

func isIdentChar(c rune, first bool) bool {
	if unicode.IsLetter(c) || c == '_' {
		return true
	}
	return !first && unicode.IsDigit(c)
}

func readSequence(src *source, value string) *string {
	start := src.cursor
	for _, c := range []rune(value) {
		if !isOk(src) || src.text[src.cursor] != c {
			src.cursor = start
			return nil
		}
		src.cursor++
	}
	return &value
}

func peekSequence(src *source, value string) bool {
	start := src.cursor
	ok := readSequence(src, value) != nil
	src.cursor = start
	return ok
}

func skipWhiteSpace(src *source) {
	for isOk(src) && unicode.IsSpace(src.text[src.cursor]) {
		src.cursor++
	}
}

func skipComment(src *source) {
	skipWhiteSpace(src)
	for readSequence(src, SeqComment) != nil {
		for isOk(src) && src.text[src.cursor] != '\n' {
			src.cursor++
		}
		skipWhiteSpace(src)
	}
}

func readExact(src *source, value string) bool {
	if readSequence(src, value) != nil {
		skipComment(src)
		return true
	}
	return false
}

// readKeyword reads value only when it is not the prefix of a longer identifier.
func readKeyword(src *source, value string) bool {
	start := src.cursor
	if readSequence(src, value) == nil {
		return false
	}
	if isOk(src) && isIdentChar(src.text[src.cursor], false) {
		src.cursor = start
		return false
	}
	skipComment(src)
	return true
}

func peekKeyword(src *source, value string) bool {
	start := src.cursor
	ok := readKeyword(src, value)
	src.cursor = start
	return ok
}

// readIdentifier reads a plain or quoted name. Keywords are not identifiers.
func readIdentifier(src *source) *string {
	start := src.cursor
	if isOk(src) && src.text[src.cursor] == SmbQuoteName {
		src.cursor++
		for isOk(src) && src.text[src.cursor] != SmbQuoteName {
			src.cursor++
		}
		if !isOk(src) {
			src.cursor = start
			return nil
		}
		src.cursor++
		name := string(src.text[start+1 : src.cursor-1])
		skipComment(src)
		return &name
	}
	for first := true; isOk(src) && isIdentChar(src.text[src.cursor], first); first = false {
		src.cursor++
	}
	if start == src.cursor {
		return nil
	}
	name := string(src.text[start:src.cursor])
	if keywords[name] {
		src.cursor = start
		return nil
	}
	skipComment(src)
	return &name
}

func readDigits(src *source) string {
	start := src.cursor
	for isOk(src) && (unicode.IsDigit(src.text[src.cursor]) || src.text[src.cursor] == '_') {
		src.cursor++
	}
	return strings.ReplaceAll(string(src.text[start:src.cursor]), "_", "")
}

// parseNumber reads an integer or a float literal. "1..3" is the integer 1
// followed by the range operator.
func parseNumber(src *source) (iValue *int64, fValue *float64, err error) {
	start := src.cursor
	whole := readDigits(src)
	if whole == "" {
		src.cursor = start
		return nil, nil, nil
	}
	text := whole
	isFloat := false
	if peekSequence(src, SeqDot) && !peekSequence(src, "..") {
		src.cursor++
		frac := readDigits(src)
		if frac == "" {
			src.cursor--
		} else {
			text += "." + frac
			isFloat = true
		}
	}
	if isOk(src) && (src.text[src.cursor] == 'e' || src.text[src.cursor] == 'E') {
		mark := src.cursor
		src.cursor++
		sign := ""
		if readSequence(src, "-") != nil {
			sign = "-"
		} else if readSequence(src, "+") != nil {
			sign = "+"
		}
		if exp := readDigits(src); exp != "" {
			text += "e" + sign + exp
			isFloat = true
		} else {
			src.cursor = mark
		}
	}
	if isOk(src) && isIdentChar(src.text[src.cursor], false) {
		return nil, nil, newError(*src, "unexpected character after number")
	}
	skipComment(src)
	if isFloat {
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, nil, newError(*src, "failed to parse float: "+err.Error())
		}
		return nil, &value, nil
	}
	value, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, nil, newError(*src, "failed to parse integer: "+err.Error())
	}
	return &value, nil, nil
}

func parseString(src *source) (*string, error) {
	if !isOk(src) || src.text[src.cursor] != SmbQuoteString {
		return nil, nil
	}
	start := src.cursor
	src.cursor++
	escaped := false
	for {
		if !isOk(src) {
			return nil, newError(*src, "string is not closed before the end of the expression")
		}
		if src.text[src.cursor] == SmbQuoteString && !escaped {
			break
		}
		escaped = !escaped && src.text[src.cursor] == SmbEscape
		src.cursor++
	}
	src.cursor++
	str, err := strconv.Unquote(string(src.text[start:src.cursor]))
	if err != nil {
		return nil, newError(*src, "invalid string literal: "+err.Error())
	}
	skipComment(src)
	return &str, nil
}

// findComprehensionBar returns the position of the "|" separating the template
// of a comprehension from its generators, scanning from the cursor to the
// bracket closing at depth zero.
func findComprehensionBar(src *source) (uint32, bool) {
	depth := 0
	inString := false
	for i := src.cursor; i < uint32(len(src.text)); i++ {
		c := src.text[i]
		if inString {
			if c == SmbEscape {
				i++
			} else if c == SmbQuoteString {
				inString = false
			}
			continue
		}
		switch c {
		case SmbQuoteString:
			inString = true
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth == 0 {
				return 0, false
			}
			depth--
		case '|':
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// splitTopLevel splits s at sep characters outside parentheses and brackets.
func splitTopLevel(s string, sep rune) []string {
	var parts []string
	depth := 0
	start := 0
	for i, c := range s {
		switch c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" || len(parts) > 0 {
		parts = append(parts, rest)
	}
	return parts
}

// indexTopLevel finds the first sep outside parentheses and brackets.
func indexTopLevel(s []rune, from uint32, sep rune) (uint32, bool) {
	depth := 0
	for i := from; i < uint32(len(s)); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth == 0 {
				return 0, false
			}
			depth--
		case sep:
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
