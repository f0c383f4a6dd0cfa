package transform

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
	"golang.org/x/exp/slices"
	"zinc-compiler/internal/pkg/common"
	"zinc-compiler/internal/pkg/thir"
	"zinc-compiler/internal/pkg/thir/pretty"
	"zinc-compiler/internal/pkg/thir/traverse"
)

type Stage struct {
	Name        string
	Description string
}

const (
	StageTopDown    = "topdown"
	StageSpecialise = "specialise"
	StageDecapture  = "decapture"
	StageEraseEnum  = "erase_enum"
	StageDesugar    = "desugar"
	StageEraseOpt   = "erase_opt"
)

// Stages lists the passes in the order they run.
var Stages = []Stage{
	{Name: StageTopDown, Description: "type <>, [] and {} from their context"},
	{Name: StageSpecialise, Description: "monomorphise polymorphic functions and structured show calls"},
	{Name: StageDecapture, Description: "pass captured top-level declarations as parameters"},
	{Name: StageEraseEnum, Description: "replace enumerations by integers and catalogs"},
	{Name: StageDesugar, Description: "move var where clauses and conditions into templates and if_then_else"},
	{Name: StageEraseOpt, Description: "represent optional values as (occurs, value) tuples"},
}

func StageNames() []string {
	return common.Map(func(s Stage) string { return s.Name }, Stages)
}

// Pipeline runs the passes on a typed model up to a chosen stage. A pipeline
// is immutable; its options return modified copies.
type Pipeline struct {
	registry  *thir.IdentifierRegistry
	log       logr.Logger
	until     int
	decapture bool
}

func NewPipeline(registry *thir.IdentifierRegistry, log logr.Logger) *Pipeline {
	return &Pipeline{registry: registry, log: log, until: len(Stages) - 1, decapture: true}
}

// Until stops the pipeline after the named stage. An empty name runs every
// stage.
func (p *Pipeline) Until(name string) (*Pipeline, error) {
	q := *p
	if name == "" {
		q.until = len(Stages) - 1
		return &q, nil
	}
	i := slices.IndexFunc(Stages, func(s Stage) bool { return s.Name == name })
	if i < 0 {
		return nil, errors.Newf("unknown stage %q, expected one of %s", name, strings.Join(StageNames(), ", "))
	}
	q.until = i
	return &q, nil
}

// WithDecapture turns the decapture stage into a plain copy when off.
func (p *Pipeline) WithDecapture(on bool) *Pipeline {
	q := *p
	q.decapture = on
	return &q
}

// Output is the model produced by the last stage that ran.
type Output interface {
	Stage() string
	Pretty(builtins bool) string
	Summary() pretty.Stats
}

type output[M any] struct {
	stage string
	model *thir.Model[M]
}

func (o output[M]) Stage() string { return o.stage }

func (o output[M]) Pretty(builtins bool) string {
	p := pretty.NewPrinter(o.model)
	p.Builtins = builtins
	return p.Model()
}

func (o output[M]) Summary() pretty.Stats { return pretty.Summary(o.model) }

// ModelOf returns the model of an output if it was produced by the stage
// marked M.
func ModelOf[M any](o Output) (*thir.Model[M], bool) {
	out, ok := o.(output[M])
	if !ok {
		return nil, false
	}
	return out.model, true
}

func finish[M any](p *Pipeline, stage int, m *thir.Model[M]) Output {
	p.log.V(1).Info("pipeline stopped", "stage", Stages[stage].Name, "items", len(m.Items()))
	return output[M]{stage: Stages[stage].Name, model: m}
}

// Run lowers m. Internal errors raised by a pass are returned as errors
// satisfying errors.IsAssertionFailure; models a pass cannot lower are
// reported as a common.Error at the offending location.
func (p *Pipeline) Run(m *thir.Model[thir.Typed]) (out Output, err error) {
	defer common.Recover(&err)

	topDown := TopDownTyping[TopDown](p.registry, p.log, m)
	if p.until == 0 {
		return finish(p, 0, topDown), nil
	}
	specialised := Specialise[Specialised](p.registry, p.log, topDown)
	if p.until == 1 {
		return finish(p, 1, specialised), nil
	}
	var decaptured *thir.Model[Decaptured]
	if p.decapture {
		decaptured = Decapture[Decaptured](p.registry, p.log, specialised)
	} else {
		decaptured = traverse.Copy[Decaptured](specialised)
	}
	if p.until == 2 {
		return finish(p, 2, decaptured), nil
	}
	enumErased := EraseEnums[EnumErased](p.registry, p.log, decaptured)
	if p.until == 3 {
		return finish(p, 3, enumErased), nil
	}
	desugared := Desugar[Desugared](p.registry, p.log, enumErased)
	if p.until == 4 {
		return finish(p, 4, desugared), nil
	}
	return finish(p, 5, EraseOpts[OptErased](p.registry, p.log, desugared)), nil
}
