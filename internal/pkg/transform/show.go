package transform

import (
	"strconv"

	"zinc-compiler/internal/pkg/common"
	"zinc-compiler/internal/pkg/thir"
	"zinc-compiler/internal/pkg/thir/ty"
)

type showFormat struct {
	absent                string
	arrayOpen, arrayEnd   string
	setOpen, setEnd       string
	tupleOpen, tupleEnd   string
	recordOpen, recordEnd string
	label                 func(string) string
}

func plainLabel(name string) string { return name + ": " }

var showFormats = map[string]showFormat{
	thir.Show: {
		absent:     "<>",
		arrayOpen:  "[",
		arrayEnd:   "]",
		setOpen:    "{",
		setEnd:     "}",
		tupleOpen:  "(",
		tupleEnd:   ")",
		recordOpen: "(",
		recordEnd:  ")",
		label:      plainLabel,
	},
	thir.ShowDzn: {
		absent:     "<>",
		arrayOpen:  "[",
		arrayEnd:   "]",
		setOpen:    "{",
		setEnd:     "}",
		tupleOpen:  "(",
		tupleEnd:   ")",
		recordOpen: "(",
		recordEnd:  ")",
		label:      plainLabel,
	},
	thir.ShowJSON: {
		absent:     "null",
		arrayOpen:  "[",
		arrayEnd:   "]",
		setOpen:    `{"set": [`,
		setEnd:     "]}",
		tupleOpen:  "[",
		tupleEnd:   "]",
		recordOpen: "{",
		recordEnd:  "}",
		label:      func(name string) string { return strconv.Quote(name) + ": " },
	},
}

// showBody renders x field by field, element by element, so that every
// remaining show call is on a scalar.
func (s *specialiser[Dst, Src]) showBody(name string, x *thir.Expression[Dst]) *thir.Expression[Dst] {
	m := s.Model()
	o := x.Origin
	format, ok := showFormats[name]
	common.Assert(ok, "no show format %s", name)
	lit := func(v string) *thir.Expression[Dst] { return thir.StringLit[Dst](o, v) }
	concat := func(parts ...*thir.Expression[Dst]) *thir.Expression[Dst] {
		return thir.LookupCall(s.registry, m, o, thir.Concat, thir.ArrayLit(m, o, parts...))
	}

	t := x.Ty
	if ty.IsOpt(t) {
		occurs := thir.LookupCall(s.registry, m, o, thir.Occurs, x)
		value := s.callShow(name, thir.LookupCall(s.registry, m, o, thir.Deopt, x))
		return thir.NewExpression(m, o, &thir.IfThenElse[Dst]{
			Branches: []thir.Branch[Dst]{{Condition: occurs, Result: value}},
			Else:     lit(format.absent),
		})
	}

	switch t.(type) {
	case *ty.TArray, *ty.TSet:
		{
			open, end := format.arrayOpen, format.arrayEnd
			if ty.IsSet(t) {
				open, end = format.setOpen, format.setEnd
			}
			e := m.AddDeclaration(thir.Declaration[Dst]{
				Origin: o,
				Name:   "e",
				Domain: thir.UnboundedDomain[Dst](o, ty.MustElemTy(t)),
			})
			elements := thir.NewExpression(m, o, &thir.ArrayComprehension[Dst]{
				Template:   s.callShow(name, thir.Ident(m, o, e)),
				Generators: []thir.Generator[Dst]{{Declarations: []thir.DeclarationId[Dst]{e}, Collection: x}},
			})
			return concat(lit(open), thir.LookupCall(s.registry, m, o, thir.Join, lit(", "), elements), lit(end))
		}
	case *ty.TTuple:
		{
			parts := []*thir.Expression[Dst]{lit(format.tupleOpen)}
			for i := range t.(*ty.TTuple).Fields {
				if i > 0 {
					parts = append(parts, lit(", "))
				}
				parts = append(parts, s.callShow(name, thir.Field(m, o, x, i+1)))
			}
			return concat(append(parts, lit(format.tupleEnd))...)
		}
	case *ty.TRecord:
		{
			parts := []*thir.Expression[Dst]{lit(format.recordOpen)}
			for i, f := range t.(*ty.TRecord).Fields {
				label := format.label(f.Name)
				if i > 0 {
					label = ", " + label
				}
				access := thir.NewExpression(m, o, &thir.RecordAccess[Dst]{Record: x, Field: f.Name})
				parts = append(parts, lit(label), s.callShow(name, access))
			}
			return concat(append(parts, lit(format.recordEnd))...)
		}
	default:
		common.Unreachable("no %s body for %s", name, t)
		return nil
	}
}

// callShow calls the overload of show the source model would pick for arg,
// specialising it again when arg is still structured.
func (s *specialiser[Dst, Src]) callShow(name string, arg *thir.Expression[Dst]) *thir.Expression[Dst] {
	f, _, err := s.Source().ResolveOverload(name, []ty.Type{arg.Ty})
	common.Assert(err == nil, "cannot call %s on %s: %v", name, arg.Ty, err)
	return s.call(arg.Origin, f, []*thir.Expression[Dst]{arg})
}
