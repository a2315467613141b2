package bindgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dennwc/webidl2js/ast"
	"github.com/dennwc/webidl2js/convert"
	"github.com/dennwc/webidl2js/errors"
	"github.com/dennwc/webidl2js/fragment"
	"github.com/dennwc/webidl2js/overload"
	"github.com/dennwc/webidl2js/semantic"
)

// builder accumulates the body and the dependencies of one module.
type builder struct {
	g    *Generator
	name string
	conv *convert.Engine
	frag *fragment.Fragment

	// exposeAll is set for [Exposed=*]; install then skips the global check.
	exposeAll bool
}

func (g *Generator) builder(name string) *builder {
	return &builder{
		g:    g,
		name: name,
		conv: g.conv.WithSelf(name),
		frag: fragment.NewFragment(),
	}
}

func (b *builder) code() *fragment.Code { return b.frag.Code }

func (b *builder) render() string {
	c := fragment.New(`"use strict";`, "")
	if b.frag.Requires.Len() > 0 {
		c.Append(b.frag.Requires.Code())
		c.Blank()
	}
	c.Append(b.frag.Code)
	return c.String()
}

func (b *builder) require(name, path string) error {
	return b.frag.Requires.AddModule(name, path)
}

func (b *builder) requireUtils() error {
	return b.require("utils", "./utils.js")
}

// requireConstruct binds another generated module under its own name.
func (b *builder) requireConstruct(name string) error {
	return b.require(fragment.Local(name), "./"+name+".js")
}

// convert emits a conversion and records its dependencies.
func (b *builder) convert(req convert.Request) (*fragment.Code, error) {
	f, err := b.conv.Convert(req)
	if err != nil {
		return nil, err
	}
	if err := b.frag.Requires.Merge(f.Requires); err != nil {
		return nil, err
	}
	return f.Code, nil
}

// kind classifies t after typedef resolution.
func (b *builder) kind(t ast.Type) semantic.Kind {
	rt, err := b.g.ctx.ResolveType(t)
	if err != nil {
		return semantic.KindUnknown
	}
	return b.conv.Kind(rt)
}

func throwTypeError(c *fragment.Code, msg string) {
	c.Linef("throw new globalObject.TypeError(%s);", msg)
}

// brandCheck binds esValue and rejects receivers that are not instances.
func (b *builder) brandCheck(c *fragment.Code, what string, lenient bool) {
	c.Line("const esValue = this !== null && this !== undefined ? this : globalObject;")
	c.Block("if (!exports.is(esValue)) {", "}", func(c *fragment.Code) {
		if lenient {
			c.Line("return;")
			return
		}
		throwTypeError(c, fragment.Quote(fmt.Sprintf("'%s' called on an object that is not a valid instance of %s.", what, b.name)))
	})
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// arguments emits the argument count check and `const args = [...]` for an
// overload plan. prefix names the call in error messages, e.g.
// "Failed to execute 'f' on 'Foo'".
func (b *builder) arguments(plan *overload.Plan, prefix string) (*fragment.Code, error) {
	c := &fragment.Code{}
	required := plan.Required()
	if required > 0 {
		c.Blockf(func(c *fragment.Code) {
			throwTypeError(c, fmt.Sprintf(`%s + arguments.length + " present."`,
				fragment.Quote(fmt.Sprintf("%s: %s required, but only ", prefix, plural(required, "argument")))))
		}, "if (arguments.length < %d) {", required)
	}
	c.Line("const args = [];")

	// once a position may be missing, every later one is pushed only when
	// supplied so the implementation never sees shifted arguments
	conditional := false
	for i, pos := range plan.Positions {
		if pos == nil {
			if variadicAt(plan, i) {
				c.Blockf(func(c *fragment.Code) {
					c.Line("args.push(arguments[i]);")
				}, "for (let i = %d; i < arguments.length; i++) {", i)
				break
			}
			if i < required {
				// always supplied, passed through for the implementation to tell apart
				c.Linef("args.push(arguments[%d]);", i)
				continue
			}
			c.Blockf(func(c *fragment.Code) {
				c.Linef("args.push(arguments[%d]);", i)
			}, "if (arguments.length > %d) {", i)
			conditional = true
			continue
		}

		if pos.Optionality == overload.Variadic {
			conv, err := b.convert(convert.Request{
				Type:        pos.Type(),
				Name:        "curArg",
				Context:     fragment.Quote(prefix+": parameter ") + " + (i + 1)",
				Annotations: pos.Annotations(),
			})
			if err != nil {
				return nil, err
			}
			c.Blockf(func(c *fragment.Code) {
				c.Line("let curArg = arguments[i];")
				c.Append(conv)
				c.Line("args.push(curArg);")
			}, "for (let i = %d; i < arguments.length; i++) {", i)
			break
		}

		conv, err := b.convert(convert.Request{
			Type:        pos.Type(),
			Name:        "curArg",
			Context:     fragment.Quote(fmt.Sprintf("%s: parameter %d", prefix, i+1)),
			Annotations: pos.Annotations(),
		})
		if err != nil {
			return nil, err
		}
		optional := pos.Optionality == overload.Optional
		body := func(c *fragment.Code) {
			c.Linef("let curArg = arguments[%d];", i)
			if optional {
				b.optionalArgument(c, pos, conv)
			} else {
				c.Append(conv)
			}
			c.Line("args.push(curArg);")
		}
		switch {
		case conditional || (!optional && i >= required):
			c.Blockf(body, "if (arguments.length > %d) {", i)
			conditional = true
		default:
			c.Block("{", "}", body)
		}
	}
	return c, nil
}

// optionalArgument converts a supplied optional argument or substitutes its
// default. Dictionaries convert undefined themselves.
func (b *builder) optionalArgument(c *fragment.Code, pos *overload.Position, conv *fragment.Code) {
	def := pos.Default()
	if b.kind(pos.Type()) == semantic.KindDictionary &&
		(def == nil || def.Kind == ast.LiteralEmptyObject) {
		c.Append(conv)
		return
	}
	switch {
	case conv.Empty() && def == nil:
	case conv.Empty():
		c.Blockf(func(c *fragment.Code) {
			c.Linef("curArg = %s;", jsValue(def))
		}, "if (curArg === undefined) {")
	case def == nil:
		c.Blockf(func(c *fragment.Code) {
			c.Append(conv)
		}, "if (curArg !== undefined) {")
	default:
		c.Block("if (curArg !== undefined) {", "", func(c *fragment.Code) {
			c.Append(conv)
		})
		c.Block("} else {", "}", func(c *fragment.Code) {
			c.Linef("curArg = %s;", jsValue(def))
		})
	}
}

func variadicAt(plan *overload.Plan, i int) bool {
	for _, c := range plan.Set {
		if i < c.Len() && c.Optionality[i] == overload.Variadic {
			return true
		}
	}
	return false
}

// jsValue renders an IDL default or constant value as a JavaScript literal.
func jsValue(l *ast.Literal) string {
	if l == nil {
		return "undefined"
	}
	switch l.Kind {
	case ast.LiteralString:
		return fragment.Quote(l.Value)
	case ast.LiteralEmptySequence:
		return "[]"
	case ast.LiteralEmptyObject:
		return "{}"
	case ast.LiteralNumber:
		switch l.Value {
		case "Infinity", "-Infinity", "NaN":
			return l.Value
		}
		// normalizes hex and the leading-zero octal form strict mode rejects
		if v, err := strconv.ParseInt(l.Value, 0, 64); err == nil {
			return strconv.FormatInt(v, 10)
		}
		if strings.HasPrefix(l.Value, "-.") {
			return "-0" + l.Value[1:]
		}
		return l.Value
	}
	return l.Value
}

// sentinel turns the value of [WebIDL2JSValueAsUnsupported=_null] into an
// expression.
func sentinel(v string) string {
	v = strings.TrimPrefix(v, "_")
	if v == "" {
		return "undefined"
	}
	return v
}

func assertOperation(op *ast.Operation, params int, what string) error {
	if op == nil || len(op.Parameters) < params {
		return errors.AssertionFailedf("%s must take %d arguments", what, params)
	}
	return nil
}
