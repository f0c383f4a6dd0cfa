package loader

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
	"gopkg.in/yaml.v3"
	"zinc-compiler/internal/pkg/ast"
	"zinc-compiler/internal/pkg/common"
	"zinc-compiler/internal/pkg/thir"
	"zinc-compiler/internal/pkg/thir/ty"
)

// Loader reads typed models written as YAML documents:
//
//	items:
//	  - enum: Colour
//	    cases: [Red, Green, Other(int)]
//	  - decl: x
//	    type: var int
//	    domain: 1..3
//	  - function: double
//	    return: var int
//	    params: ["var int: y"]
//	    body: y * 2
//	  - constraint: double(x) > 2
//	  - solve: satisfy
//
// The domain of an array declaration restricts its elements. Every name must
// be declared by an earlier item, except that function bodies and item
// expressions may call any function of the file.
type Loader struct {
	registry *thir.IdentifierRegistry
	log      logr.Logger
}

func New(registry *thir.IdentifierRegistry, log logr.Logger) *Loader {
	return &Loader{registry: registry, log: log}
}

type document struct {
	Items []yaml.Node `yaml:"items"`
}

type itemSpec struct {
	Enum       *string  `yaml:"enum"`
	Cases      []string `yaml:"cases"`
	Decl       *string  `yaml:"decl"`
	Type       string   `yaml:"type"`
	Domain     string   `yaml:"domain"`
	Def        string   `yaml:"def"`
	Ann        []string `yaml:"ann"`
	Function   *string  `yaml:"function"`
	Return     string   `yaml:"return"`
	Params     []string `yaml:"params"`
	Body       string   `yaml:"body"`
	Constraint *string  `yaml:"constraint"`
	Output     *string  `yaml:"output"`
	Section    string   `yaml:"section"`
	Solve      *string  `yaml:"solve"`
	Objective  string   `yaml:"objective"`
	Annotation *string  `yaml:"annotation"`
}

// pending is an item whose expressions are read once every item is known.
type pending struct {
	node *yaml.Node
	spec itemSpec
	id   thir.ItemId[marker]
}

type loading struct {
	filePath string
	model    *model
	scope    *scope
	pending  []pending
}

func (l *Loader) LoadFile(path string) (*thir.Model[thir.Typed], error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, common.NewSystemError(err)
	}
	return l.Load(path, content)
}

func (l *Loader) Load(filePath string, content []byte) (*thir.Model[thir.Typed], error) {
	var doc document
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, errors.Wrapf(err, "reading %s", filePath)
	}

	m := thir.NewModel[marker]()
	ld := &loading{filePath: filePath, model: m, scope: newScope(m, l.registry)}
	for i := range doc.Items {
		if err := ld.declareItem(&doc.Items[i]); err != nil {
			return nil, err
		}
	}
	for _, p := range ld.pending {
		if err := ld.defineItem(p); err != nil {
			return nil, err
		}
	}
	l.log.V(1).Info("loaded model", "file", filePath, "items", len(m.Items()),
		"functions", m.FunctionsLen(), "enumerations", m.EnumerationsLen())
	return m, nil
}

func (ld *loading) at(node *yaml.Node) ast.Location {
	return ast.NewLocation(ld.filePath, uint32(node.Line), uint32(node.Column))
}

// field returns the value node of key in a mapping node.
func field(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return node
}

// element returns the i-th node of the sequence stored under key.
func element(node *yaml.Node, key string, i int) *yaml.Node {
	seq := field(node, key)
	if seq.Kind == yaml.SequenceNode && i < len(seq.Content) {
		return seq.Content[i]
	}
	return seq
}

func (ld *loading) source(node *yaml.Node, text string) *source {
	return newSource(ld.filePath, node.Line, node.Column, text)
}

func (ld *loading) parse(node *yaml.Node, text string) (*expression, error) {
	return parseWholeExpression(ld.source(node, text), ld.scope)
}

func (ld *loading) parseAnnotations(node *yaml.Node, texts []string) ([]*expression, error) {
	var result []*expression
	for i, text := range texts {
		e, err := ld.parse(element(node, "ann", i), text)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, nil
}

func (ld *loading) parseType(node *yaml.Node, text string) (ty.Type, error) {
	t, err := ty.Parse(text)
	if err != nil {
		return nil, common.NewErrorAt(ld.at(node), "invalid type `%s`: %v", text, err)
	}
	return t, nil
}

// splitParameter splits "var int: x" into its type and name.
func splitParameter(text string) (string, string, bool) {
	i := strings.LastIndex(text, SeqColon)
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+1:]), true
}

// declareItem adds the item with its types and names so that later items can
// refer to it. Expressions are read by defineItem.
func (ld *loading) declareItem(node *yaml.Node) error {
	var spec itemSpec
	if err := node.Decode(&spec); err != nil {
		return common.NewErrorAt(ld.at(node), "invalid item: %v", err)
	}
	origin := ld.at(node)
	m := ld.model
	switch {
	case spec.Enum != nil:
		return ld.declareEnum(node, spec)
	case spec.Annotation != nil:
		{
			a := thir.Annotation[marker]{Origin: origin, Name: *spec.Annotation}
			if spec.Params != nil {
				a.Parameters = []thir.DeclarationId[marker]{}
				for i, text := range spec.Params {
					t, name, ok := splitParameter(text)
					pt, err := ld.parseType(element(node, "params", i), t)
					if !ok || err != nil {
						return common.NewErrorAt(origin, "invalid parameter `%s`", text)
					}
					a.Parameters = append(a.Parameters, m.AddDeclaration(thir.Declaration[marker]{
						Origin: origin, Name: name, Domain: thir.UnboundedDomain[marker](origin, pt),
					}))
				}
			}
			ld.scope.globals[a.Name] = m.AddAnnotation(a)
		}
	case spec.Decl != nil:
		{
			var t ty.Type
			var def *expression
			if spec.Type == KwAny {
				if spec.Def == "" {
					return common.NewErrorAt(origin, "`any` declaration %s needs a definition", *spec.Decl)
				}
				var err error
				if def, err = ld.parse(field(node, "def"), spec.Def); err != nil {
					return err
				}
				t = def.Ty
				spec.Def = ""
			} else {
				var err error
				if t, err = ld.parseType(field(node, "type"), spec.Type); err != nil {
					return err
				}
			}
			id := m.AddDeclaration(thir.Declaration[marker]{
				Origin:     origin,
				Name:       *spec.Decl,
				TopLevel:   true,
				Domain:     thir.UnboundedDomain[marker](origin, t),
				Definition: def,
			})
			ld.scope.bind(*spec.Decl, id)
			ld.pending = append(ld.pending, pending{node: node, spec: spec, id: id})
		}
	case spec.Function != nil:
		{
			types := make([]string, len(spec.Params))
			names := make([]string, len(spec.Params))
			for i, text := range spec.Params {
				t, name, ok := splitParameter(text)
				if !ok {
					return common.NewErrorAt(ld.at(element(node, "params", i)), "invalid parameter `%s`", text)
				}
				types[i], names[i] = t, name
			}
			sig, err := ty.ParseSignature(fmt.Sprintf("%s: f(%s)", spec.Return, strings.Join(types, ", ")))
			if err != nil {
				return common.NewErrorAt(origin, "invalid signature of %s: %v", *spec.Function, err)
			}
			f := thir.Function[marker]{
				Origin:   origin,
				Name:     *spec.Function,
				Domain:   thir.UnboundedDomain[marker](origin, sig.Return),
				TyParams: sig.TyParams,
			}
			for i, pt := range sig.Params {
				f.Parameters = append(f.Parameters, m.AddDeclaration(thir.Declaration[marker]{
					Origin: ld.at(element(node, "params", i)),
					Name:   names[i],
					Domain: thir.UnboundedDomain[marker](origin, pt),
				}))
			}
			id := m.AddFunction(f)
			ld.pending = append(ld.pending, pending{node: node, spec: spec, id: id})
		}
	case spec.Constraint != nil:
		{
			id := m.AddConstraint(thir.Constraint[marker]{Origin: origin, TopLevel: true})
			ld.pending = append(ld.pending, pending{node: node, spec: spec, id: id})
		}
	case spec.Output != nil:
		{
			id := m.AddOutput(thir.Output[marker]{Origin: origin, Section: spec.Section})
			ld.pending = append(ld.pending, pending{node: node, spec: spec, id: id})
		}
	case spec.Solve != nil:
		{
			var goal thir.SolveGoal
			switch *spec.Solve {
			case thir.Satisfy.String():
				goal = thir.Satisfy
			case thir.Minimize.String():
				goal = thir.Minimize
			case thir.Maximize.String():
				goal = thir.Maximize
			default:
				return common.NewErrorAt(origin, "unknown solve goal `%s`", *spec.Solve)
			}
			if _, ok := m.Solve(); ok {
				return common.NewErrorAt(origin, "more than one solve item")
			}
			m.SetSolve(thir.Solve[marker]{Origin: origin, Goal: goal})
			ld.pending = append(ld.pending, pending{node: node, spec: spec, id: thir.SolveItem[marker]{}})
		}
	default:
		return common.NewErrorAt(origin, "item must be one of enum, annotation, decl, function, constraint, output or solve")
	}
	return nil
}

// declareEnum reads cases such as "A" or "C(int, 1..3, Other)". A parameter
// is a type-inst or a set expression bounding an int parameter.
func (ld *loading) declareEnum(node *yaml.Node, spec itemSpec) error {
	origin := ld.at(node)
	e := thir.Enumeration[marker]{Origin: origin, Enum: ty.EnumRef(*spec.Enum)}
	if spec.Cases != nil {
		e.Definition = []thir.Constructor[marker]{}
	}
	for i, text := range spec.Cases {
		caseNode := element(node, "cases", i)
		open := strings.IndexRune(text, '(')
		if open < 0 {
			e.Definition = append(e.Definition, thir.Constructor[marker]{Name: strings.TrimSpace(text)})
			continue
		}
		if !strings.HasSuffix(text, SeqParenthesisClose) {
			return common.NewErrorAt(ld.at(caseNode), "invalid constructor `%s`", text)
		}
		c := thir.Constructor[marker]{Name: strings.TrimSpace(text[:open])}
		for _, param := range splitTopLevel(text[open+1:len(text)-1], ',') {
			d, err := ld.constructorParameter(caseNode, param)
			if err != nil {
				return err
			}
			c.Parameters = append(c.Parameters, d)
		}
		e.Definition = append(e.Definition, c)
	}
	id := ld.model.AddEnumeration(e)
	ld.scope.globals[*spec.Enum] = id
	for i, c := range e.Definition {
		ld.scope.globals[c.Name] = thir.EnumMemberRef[marker]{Enumeration: id, Index: i}
	}
	return nil
}

func (ld *loading) constructorParameter(node *yaml.Node, text string) (*thir.Domain[marker], error) {
	origin := ld.at(node)
	if t, err := ty.Parse(text); err == nil {
		return thir.UnboundedDomain[marker](origin, t), nil
	}
	set, err := ld.parse(node, text)
	if err != nil {
		return nil, err
	}
	if _, ok := set.Ty.(*ty.TSet); !ok || ty.IsVar(set.Ty) {
		return nil, common.NewErrorAt(origin, "constructor parameter `%s` is neither a type nor a par set", text)
	}
	return thir.BoundedDomain[marker](origin, ty.Par, ty.NonOpt, set), nil
}

// defineItem reads the expressions of an item declared by declareItem.
func (ld *loading) defineItem(p pending) error {
	m := ld.model
	spec := p.spec
	node := p.node
	anns, err := ld.parseAnnotations(node, spec.Ann)
	if err != nil {
		return err
	}
	switch p.id.(type) {
	case thir.DeclarationId[marker]:
		{
			d := m.Declaration(p.id.(thir.DeclarationId[marker]))
			d.Annotations = anns
			if spec.Domain != "" {
				set, err := ld.parse(field(node, "domain"), spec.Domain)
				if err != nil {
					return err
				}
				if _, ok := set.Ty.(*ty.TSet); !ok {
					return common.NewErrorAt(set.Origin, "domain must be a set, got %s", set.Ty)
				}
				// the domain of an array restricts its elements
				target := d.Ty()
				array, isArray := target.(*ty.TArray)
				if isArray {
					target = array.Element
				}
				inst, _ := ty.Inst(target)
				opt, _ := ty.Optionality(target)
				bounded := thir.BoundedDomain[marker](d.Origin, inst, opt, set)
				if !ty.Equal(bounded.Ty, target) {
					return common.NewErrorAt(set.Origin, "domain of type %s does not match %s", set.Ty, target)
				}
				if isArray {
					bounded = thir.ArrayDomainOf(d.Origin, thir.UnboundedDomain[marker](d.Origin, array.Dim), bounded)
				}
				d.Domain = bounded
			}
			if spec.Def != "" {
				def, err := ld.parse(field(node, "def"), spec.Def)
				if err != nil {
					return err
				}
				if !ty.IsSubtypeOf(def.Ty, d.Ty()) {
					return common.NewErrorAt(def.Origin, "definition of type %s does not match %s", def.Ty, d.Ty())
				}
				d.Definition = def
			}
		}
	case thir.FunctionId[marker]:
		{
			f := m.Function(p.id.(thir.FunctionId[marker]))
			f.Annotations = anns
			if spec.Body == "" {
				return nil
			}
			ld.scope.push()
			defer ld.scope.pop()
			for _, param := range f.Parameters {
				ld.scope.bind(m.Declaration(param).Name, param)
			}
			body, err := ld.parse(field(node, "body"), spec.Body)
			if err != nil {
				return err
			}
			if !f.IsPolymorphic() && !ty.IsSubtypeOf(body.Ty, f.Domain.Ty) {
				return common.NewErrorAt(body.Origin, "body of %s has type %s, expected %s", f.Name, body.Ty, f.Domain.Ty)
			}
			f.Body = body
		}
	case thir.ConstraintId[marker]:
		{
			c := m.Constraint(p.id.(thir.ConstraintId[marker]))
			e, err := ld.parse(field(node, "constraint"), *spec.Constraint)
			if err != nil {
				return err
			}
			if !ty.IsSubtypeOf(e.Ty, ty.VarBool()) {
				return common.NewErrorAt(e.Origin, "constraint must be bool, got %s", e.Ty)
			}
			c.Expression = e
			c.Annotations = anns
		}
	case thir.OutputId[marker]:
		{
			o := m.Output(p.id.(thir.OutputId[marker]))
			e, err := ld.parse(field(node, "output"), *spec.Output)
			if err != nil {
				return err
			}
			o.Expression = e
		}
	case thir.SolveItem[marker]:
		{
			s, _ := m.Solve()
			s.Annotations = anns
			if s.Goal == thir.Satisfy {
				return nil
			}
			if spec.Objective == "" {
				return common.NewErrorAt(s.Origin, "%s needs an objective", s.Goal)
			}
			e, err := ld.parse(field(node, "objective"), spec.Objective)
			if err != nil {
				return err
			}
			s.Objective = e
		}
	default:
		common.Unreachable("unexpected pending item %T", p.id)
	}
	return nil
}
