package thir

// Model owns every item of a program. Let-bound declarations and constraints
// live in the same arenas as top-level ones but are not listed in Items.
type Model[M any] struct {
	annotations  Arena[AnnotationId[M], Annotation[M]]
	constraints  Arena[ConstraintId[M], Constraint[M]]
	declarations Arena[DeclarationId[M], Declaration[M]]
	enumerations Arena[EnumerationId[M], Enumeration[M]]
	functions    Arena[FunctionId[M], Function[M]]
	outputs      Arena[OutputId[M], Output[M]]
	solve        *Solve[M]
	items        []ItemId[M]

	functionsByName map[string][]FunctionId[M]
	builtins        map[string]bool
}

func NewModel[M any]() *Model[M] {
	return &Model[M]{
		functionsByName: map[string][]FunctionId[M]{},
		builtins:        map[string]bool{},
	}
}

func (m *Model[M]) Items() []ItemId[M] {
	return m.items
}

func (m *Model[M]) AddAnnotation(a Annotation[M]) AnnotationId[M] {
	id := m.annotations.Insert(a)
	m.items = append(m.items, id)
	return id
}

func (m *Model[M]) AddConstraint(c Constraint[M]) ConstraintId[M] {
	id := m.constraints.Insert(c)
	if c.TopLevel {
		m.items = append(m.items, id)
	}
	return id
}

func (m *Model[M]) AddDeclaration(d Declaration[M]) DeclarationId[M] {
	id := m.declarations.Insert(d)
	if d.TopLevel {
		m.items = append(m.items, id)
	}
	return id
}

func (m *Model[M]) AddEnumeration(e Enumeration[M]) EnumerationId[M] {
	id := m.enumerations.Insert(e)
	m.items = append(m.items, id)
	return id
}

// AddFunction adds a top-level function. Functions are never let-bound;
// lambdas are lifted to top-level functions too.
func (m *Model[M]) AddFunction(f Function[M]) FunctionId[M] {
	id := m.functions.Insert(f)
	m.items = append(m.items, id)
	m.functionsByName[f.Name] = append(m.functionsByName[f.Name], id)
	return id
}

func (m *Model[M]) AddOutput(o Output[M]) OutputId[M] {
	id := m.outputs.Insert(o)
	m.items = append(m.items, id)
	return id
}

// SetSolve sets the solve item, adding it to the item list the first time.
func (m *Model[M]) SetSolve(s Solve[M]) {
	if m.solve == nil {
		m.items = append(m.items, SolveItem[M]{})
	}
	m.solve = &s
}

func (m *Model[M]) Annotation(id AnnotationId[M]) *Annotation[M] {
	return m.annotations.At(id)
}

func (m *Model[M]) Constraint(id ConstraintId[M]) *Constraint[M] {
	return m.constraints.At(id)
}

func (m *Model[M]) Declaration(id DeclarationId[M]) *Declaration[M] {
	return m.declarations.At(id)
}

func (m *Model[M]) Enumeration(id EnumerationId[M]) *Enumeration[M] {
	return m.enumerations.At(id)
}

func (m *Model[M]) Function(id FunctionId[M]) *Function[M] {
	return m.functions.At(id)
}

func (m *Model[M]) Output(id OutputId[M]) *Output[M] {
	return m.outputs.At(id)
}

func (m *Model[M]) Solve() (*Solve[M], bool) {
	return m.solve, m.solve != nil
}

func (m *Model[M]) AnnotationsLen() int  { return m.annotations.Len() }
func (m *Model[M]) ConstraintsLen() int  { return m.constraints.Len() }
func (m *Model[M]) DeclarationsLen() int { return m.declarations.Len() }
func (m *Model[M]) EnumerationsLen() int { return m.enumerations.Len() }
func (m *Model[M]) FunctionsLen() int    { return m.functions.Len() }
func (m *Model[M]) OutputsLen() int      { return m.outputs.Len() }

func (m *Model[M]) Declarations() []DeclarationId[M] { return m.declarations.Ids() }
func (m *Model[M]) Constraints() []ConstraintId[M]   { return m.constraints.Ids() }
func (m *Model[M]) Enumerations() []EnumerationId[M] { return m.enumerations.Ids() }
func (m *Model[M]) Functions() []FunctionId[M]       { return m.functions.Ids() }

// LookupFunctions returns the functions with exactly the given name.
func (m *Model[M]) LookupFunctions(name string) []FunctionId[M] {
	return m.functionsByName[name]
}

// EnumMember returns the constructor referenced by ref.
func (m *Model[M]) EnumMember(ref EnumMemberRef[M]) Constructor[M] {
	e := m.Enumeration(ref.Enumeration)
	return e.Definition[ref.Index]
}

// Typed marks models as produced by type checking, before any lowering pass.
type Typed struct{}
