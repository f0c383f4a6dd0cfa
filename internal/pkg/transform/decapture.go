package transform

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"golang.org/x/exp/slices"
	"zinc-compiler/internal/pkg/ast"
	"zinc-compiler/internal/pkg/common"
	"zinc-compiler/internal/pkg/thir"
	"zinc-compiler/internal/pkg/thir/traverse"
)

// decapturer passes the top-level declarations a function captures as one
// extra parameter. A single capture is passed as itself, several as a tuple
// in id order.
type decapturer[Dst, Src any] struct {
	*traverse.FolderBase[Dst, Src]
	log      logr.Logger
	captures *Captures[Src]

	params  map[thir.FunctionId[Src]]thir.DeclarationId[Dst]
	current thir.FunctionId[Src]
	// packed holds the declarations built for cold call sites by capture set
	packed map[string]thir.DeclarationId[Dst]
}

func Decapture[Dst, Src any](_ *thir.IdentifierRegistry, log logr.Logger, src *thir.Model[Src]) *thir.Model[Dst] {
	d := &decapturer[Dst, Src]{
		log:      log.WithName("decapture"),
		captures: NewCaptures(src),
		params:   map[thir.FunctionId[Src]]thir.DeclarationId[Dst]{},
		packed:   map[string]thir.DeclarationId[Dst]{},
	}
	d.FolderBase = traverse.NewFolderBase[Dst, Src](src, d)
	d.AddModel()
	d.log.V(1).Info("decaptured functions", "functions", len(d.params), "packed", len(d.packed))
	return d.Model()
}

// addCaptureParameter appends the capture parameter to the folded header of
// id. It runs once every top-level declaration has been added, so the domains
// it copies may refer to any of them.
func (d *decapturer[Dst, Src]) addCaptureParameter(id thir.FunctionId[Src]) {
	captured := d.captures.Of(id)
	if len(captured) == 0 {
		return
	}
	src := d.Source()
	f := d.Model().Function(d.FoldFunctionId(id))
	var param thir.Declaration[Dst]
	if len(captured) == 1 {
		c := src.Declaration(captured[0])
		param = thir.Declaration[Dst]{Origin: c.Origin, Name: c.Name, Domain: d.FoldDomain(c.Domain)}
	} else {
		fields := common.Map(func(c thir.DeclarationId[Src]) *thir.Domain[Dst] {
			return d.FoldDomain(src.Declaration(c).Domain)
		}, captured)
		param = thir.Declaration[Dst]{Origin: f.Origin, Name: "captures", Domain: thir.TupleDomainOf(f.Origin, fields...)}
	}
	p := d.Model().AddDeclaration(param)
	f.Parameters = append(f.Parameters, p)
	d.params[id] = p
	d.log.V(2).Info("added capture parameter", "function", f.Name, "captures", len(captured))
}

func (d *decapturer[Dst, Src]) FoldFunctionBody(id thir.FunctionId[Src]) {
	d.addCaptureParameter(id)
	outer := d.current
	d.current = id
	d.FolderBase.FoldFunctionBody(id)
	d.current = outer
}

func (d *decapturer[Dst, Src]) FoldIdentifier(e *thir.Expression[Src], data *thir.Identifier[Src]) *thir.Expression[Dst] {
	if decl, ok := data.Target.(thir.DeclarationId[Src]); ok && d.current != 0 {
		if ref, ok := d.capturedRef(d.current, decl, e.Origin); ok {
			return ref
		}
	}
	return d.FolderBase.FoldIdentifier(e, data)
}

// capturedRef refers to decl through the capture parameter of f.
func (d *decapturer[Dst, Src]) capturedRef(f thir.FunctionId[Src], decl thir.DeclarationId[Src], origin ast.Location) (*thir.Expression[Dst], bool) {
	captured := d.captures.Of(f)
	i := slices.Index(captured, decl)
	if i < 0 {
		return nil, false
	}
	param := thir.Ident(d.Model(), origin, d.params[f])
	if len(captured) == 1 {
		return param, true
	}
	return thir.Field(d.Model(), origin, param, i+1), true
}

func (d *decapturer[Dst, Src]) FoldCall(e *thir.Expression[Src], data *thir.Call[Src]) *thir.Expression[Dst] {
	folded := d.FolderBase.FoldCall(e, data)
	f, ok := data.Function.(thir.FunctionId[Src])
	if !ok {
		return folded
	}
	captured := d.captures.Of(f)
	if len(captured) == 0 {
		return folded
	}
	call := folded.Data.(*thir.Call[Dst])
	call.Arguments = append(call.Arguments, d.captureArgument(captured, e.Origin))
	return folded
}

// FoldLambda rejects lambdas over capturing functions: a function value has
// no call site to pass the captures at.
func (d *decapturer[Dst, Src]) FoldLambda(e *thir.Expression[Src], data *thir.Lambda[Src]) *thir.Expression[Dst] {
	if captured := d.captures.Of(data.Function); len(captured) > 0 {
		src := d.Source()
		names := common.Map(func(c thir.DeclarationId[Src]) string {
			return "`" + src.Declaration(c).Name + "`"
		}, captured)
		common.Fail(e.Origin, "lambda `%s` captures top-level %s %s",
			src.Function(data.Function).Name, plural(len(names), "declaration"), strings.Join(names, ", "))
	}
	return d.FolderBase.FoldLambda(e, data)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// captureArgument is the value passed for the capture parameter of a callee
// capturing the given declarations.
func (d *decapturer[Dst, Src]) captureArgument(captured []thir.DeclarationId[Src], origin ast.Location) *thir.Expression[Dst] {
	m := d.Model()
	if outer := d.captures.Of(d.current); d.current != 0 && len(outer) > 0 {
		// the callee captures a subset of what the caller captured
		if slices.Equal(outer, captured) {
			return thir.Ident(m, origin, d.params[d.current])
		}
		fields := common.Map(func(c thir.DeclarationId[Src]) *thir.Expression[Dst] {
			ref, ok := d.capturedRef(d.current, c, origin)
			common.Assert(ok, "%s is not captured by the caller", c)
			return ref
		}, captured)
		if len(fields) == 1 {
			return fields[0]
		}
		return thir.TupleLit(m, origin, fields...)
	}

	if len(captured) == 1 {
		return thir.Ident(m, origin, d.FoldDeclarationId(captured[0]))
	}
	key := fmt.Sprint(captured)
	packed, ok := d.packed[key]
	if !ok {
		// shared by every cold call site with this capture set
		generated := ast.Generated("captures")
		fields := common.Map(func(c thir.DeclarationId[Src]) *thir.Expression[Dst] {
			return thir.Ident(m, generated, d.FoldDeclarationId(c))
		}, captured)
		value := thir.TupleLit(m, generated, fields...)
		packed = m.AddDeclaration(thir.Declaration[Dst]{
			Origin:     generated,
			TopLevel:   true,
			Domain:     thir.UnboundedDomain[Dst](generated, value.Ty),
			Definition: value,
		})
		d.packed[key] = packed
	}
	return thir.Ident(m, origin, packed)
}
