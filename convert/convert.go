// Package convert generates the code that converts a JavaScript value to an
// IDL type. Every conversion is emitted in place: the value held by a local
// variable is replaced by its converted form, and the modules the code needs
// are returned next to it.
package convert

import (
	"fmt"

	"github.com/dennwc/webidl2js/ast"
	"github.com/dennwc/webidl2js/errors"
	"github.com/dennwc/webidl2js/fragment"
	"github.com/dennwc/webidl2js/semantic"
)

// DefaultConversionsModule is the package that provides the builtin table.
const DefaultConversionsModule = "webidl-conversions"

// builtins are the type names served by the conversion table.
var builtins = map[string]struct{}{
	"boolean": {}, "byte": {}, "octet": {}, "short": {}, "unsigned short": {},
	"long": {}, "unsigned long": {}, "long long": {}, "unsigned long long": {},
	"float": {}, "unrestricted float": {}, "double": {}, "unrestricted double": {},
	"DOMString": {}, "ByteString": {}, "USVString": {}, "object": {},
	"ArrayBuffer": {}, "DataView": {}, "ArrayBufferView": {}, "BufferSource": {},
	"Int8Array": {}, "Int16Array": {}, "Int32Array": {}, "Uint8Array": {},
	"Uint16Array": {}, "Uint32Array": {}, "Uint8ClampedArray": {},
	"Float32Array": {}, "Float64Array": {}, "DOMTimeStamp": {},
}

// IsBuiltin reports whether name is converted by the builtin table.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// Options configure an Engine.
type Options struct {
	// ConversionsModule is the module the builtin table is loaded from.
	ConversionsModule string
	// Self is the construct being generated; conversions to it use exports
	// instead of requiring the module itself.
	Self string
}

// Engine converts IDL type expressions to conversion fragments.
type Engine struct {
	ctx  *semantic.Context
	opts Options
}

// New returns an engine over a linked context.
func New(ctx *semantic.Context, opts Options) *Engine {
	if opts.ConversionsModule == "" {
		opts.ConversionsModule = DefaultConversionsModule
	}
	return &Engine{ctx: ctx, opts: opts}
}

// WithSelf returns a copy of the engine generating code for construct name.
func (e *Engine) WithSelf(name string) *Engine {
	opts := e.opts
	opts.Self = name
	return &Engine{ctx: e.ctx, opts: opts}
}

// Context returns the semantic context of the engine.
func (e *Engine) Context() *semantic.Context { return e.ctx }

// Request describes one conversion.
type Request struct {
	Type ast.Type
	// Name is the local variable holding the value; it is reassigned.
	Name string
	// Context is a JavaScript expression evaluating to the error message
	// prefix, e.g. a quoted "Failed to execute 'f' on 'Foo': parameter 1".
	Context string
	// Annotations of the argument, field or attribute: [EnforceRange],
	// [Clamp] and [LegacyNullToEmptyString] select builtin options.
	Annotations []*ast.Annotation
	// NullHandled skips the nullable wrapper; the caller normalizes
	// null and undefined itself.
	NullHandled bool
}

// Convert returns the code converting req.Name to req.Type.
func (e *Engine) Convert(req Request) (*fragment.Fragment, error) {
	if req.Name == "" {
		return nil, errors.AssertionFailedf("conversion without a target variable")
	}
	if req.Context == "" {
		req.Context = fragment.Quote("The provided value")
	}
	t, err := e.ctx.ResolveType(req.Type)
	if err != nil {
		return nil, err
	}
	g := &gen{e: e, frag: fragment.NewFragment()}
	code, err := g.convert(t, req.Name, req.Context, req.Annotations, req.NullHandled)
	if err != nil {
		return nil, err
	}
	g.frag.Code.Append(code)
	return g.frag, nil
}

// HasConversion reports whether values of t need any conversion code.
func (e *Engine) HasConversion(t ast.Type) bool {
	rt, err := e.ctx.ResolveType(t)
	if err != nil {
		return false
	}
	switch rt := rt.(type) {
	case nil, *ast.AnyType:
		return false
	case *ast.TypeName:
		return !ast.IsVoid(rt) && rt.Name != "any"
	}
	return true
}

// Kind classifies a resolved type name.
func (e *Engine) Kind(t ast.Type) semantic.Kind {
	name := ast.Named(ast.StripNullable(t))
	if name == "" {
		return semantic.KindUnknown
	}
	if c, ok := e.ctx.Lookup(name); ok {
		return c.Kind()
	}
	return semantic.KindUnknown
}

type gen struct {
	e    *Engine
	frag *fragment.Fragment
	n    int
}

func (g *gen) tmp(prefix string) string {
	name := fmt.Sprintf("%s%d", prefix, g.n)
	g.n++
	return name
}

func (g *gen) require(name, path string) error {
	return g.frag.Requires.AddModule(name, path)
}

func (g *gen) convert(t ast.Type, name, ctx string, ann []*ast.Annotation, nullHandled bool) (*fragment.Code, error) {
	switch t := t.(type) {
	case nil, *ast.AnyType:
		return &fragment.Code{}, nil
	case *ast.NullableType:
		inner, err := g.convert(t.Type, name, ctx, ann, true)
		if err != nil || nullHandled {
			return inner, err
		}
		c := &fragment.Code{}
		if inner.Empty() {
			c.Blockf(func(b *fragment.Code) {
				b.Linef("%s = null;", name)
			}, "if (%s === undefined) {", name)
			return c, nil
		}
		c.Block(fmt.Sprintf("if (%s === null || %s === undefined) {", name, name), "", func(b *fragment.Code) {
			b.Linef("%s = null;", name)
		})
		c.Block("} else {", "}", func(b *fragment.Code) {
			b.Append(inner)
		})
		return c, nil
	case *ast.TypeName:
		return g.named(t.Name, name, ctx, ann)
	case *ast.SequenceType:
		return g.sequence(t.Elem, name, ctx, ann, false)
	case *ast.FrozenArrayType:
		return g.sequence(t.Elem, name, ctx, ann, true)
	case *ast.ArrayType:
		return g.array(t.Elem, name, ctx, ann)
	case *ast.RecordType:
		return g.record(t, name, ctx, nullHandled)
	case *ast.PromiseType:
		return g.promise(t.Elem, name, ctx)
	case *ast.UnionType:
		return g.unknown(name)
	}
	return nil, errors.AssertionFailedf("unsupported type %T", t)
}

func (g *gen) named(typ, name, ctx string, ann []*ast.Annotation) (*fragment.Code, error) {
	c := &fragment.Code{}
	switch typ {
	case "any", "undefined", "void":
		return c, nil
	}
	if IsBuiltin(typ) {
		if err := g.require("conversions", g.e.opts.ConversionsModule); err != nil {
			return nil, err
		}
		opts := "context: " + ctx + ", globals: globalObject"
		if ast.HasAnnotation(ann, "EnforceRange") {
			opts += ", enforceRange: true"
		}
		if ast.HasAnnotation(ann, "Clamp") {
			opts += ", clamp: true"
		}
		if treatNullAsEmpty(ann) {
			opts += ", treatNullAsEmptyString: true"
		}
		c.Linef("%s = conversions[%s](%s, { %s });", name, fragment.Quote(typ), name, opts)
		return c, nil
	}

	construct, ok := g.e.ctx.Lookup(typ)
	if !ok {
		return g.unknown(name)
	}
	switch construct.Kind() {
	case semantic.KindInterface, semantic.KindDictionary, semantic.KindEnum,
		semantic.KindCallback, semantic.KindCallbackInterface:
	default:
		return g.unknown(name)
	}
	mod := "exports"
	if typ != g.e.opts.Self {
		mod = fragment.Local(typ)
		if err := g.require(mod, "./"+typ+".js"); err != nil {
			return nil, err
		}
	}
	c.Linef("%s = %s.convert(globalObject, %s, { context: %s });", name, mod, name, ctx)
	return c, nil
}

func treatNullAsEmpty(ann []*ast.Annotation) bool {
	if ast.HasAnnotation(ann, "LegacyNullToEmptyString") {
		return true
	}
	a := ast.FindAnnotation(ann, "TreatNullAs")
	return a != nil && a.Value == "EmptyString"
}

// unknown passes values of types outside the run through, unwrapping
// platform objects to their implementation.
func (g *gen) unknown(name string) (*fragment.Code, error) {
	if err := g.require("utils", "./utils.js"); err != nil {
		return nil, err
	}
	return fragment.New(fmt.Sprintf("%s = utils.tryImplForWrapper(%s);", name, name)), nil
}

func (g *gen) sequence(elem ast.Type, name, ctx string, ann []*ast.Annotation, frozen bool) (*fragment.Code, error) {
	if err := g.require("utils", "./utils.js"); err != nil {
		return nil, err
	}
	out := g.tmp("V")
	tmp := g.tmp("tmp")
	item := g.tmp("nextItem")
	inner, err := g.convert(elem, item, ctx+` + "'s element"`, ann, false)
	if err != nil {
		return nil, err
	}

	c := &fragment.Code{}
	c.Block(fmt.Sprintf(`if (!utils.isObject(%s) || typeof %s[Symbol.iterator] !== "function") {`, name, name), "", func(b *fragment.Code) {
		b.Linef(`throw new globalObject.TypeError(%s + " is not an iterable object.");`, ctx)
	})
	c.Block("} else {", "}", func(b *fragment.Code) {
		b.Linef("const %s = [];", out)
		b.Linef("const %s = %s;", tmp, name)
		b.Blockf(func(b *fragment.Code) {
			b.Append(inner)
			b.Linef("%s.push(%s);", out, item)
		}, "for (let %s of %s) {", item, tmp)
		if frozen {
			b.Linef("%s = Object.freeze(%s);", name, out)
		} else {
			b.Linef("%s = %s;", name, out)
		}
	})
	return c, nil
}

// array converts the legacy T[] form element by element.
func (g *gen) array(elem ast.Type, name, ctx string, ann []*ast.Annotation) (*fragment.Code, error) {
	out := g.tmp("V")
	i := g.tmp("i")
	item := g.tmp("item")
	inner, err := g.convert(elem, item, ctx+` + "'s element"`, ann, false)
	if err != nil {
		return nil, err
	}

	c := &fragment.Code{}
	c.Block(fmt.Sprintf("if (!Array.isArray(%s)) {", name), "", func(b *fragment.Code) {
		b.Linef(`throw new globalObject.TypeError(%s + " is not an array.");`, ctx)
	})
	c.Block("} else {", "}", func(b *fragment.Code) {
		b.Linef("const %s = [];", out)
		b.Blockf(func(b *fragment.Code) {
			b.Linef("let %s = %s[%s];", item, name, i)
			b.Append(inner)
			b.Linef("%s.push(%s);", out, item)
		}, "for (let %s = 0; %s < %s.length; %s++) {", i, i, name, i)
		b.Linef("%s = %s;", name, out)
	})
	return c, nil
}

// record enumerates own enumerable string keys only and builds a mapping
// without a prototype.
func (g *gen) record(t *ast.RecordType, name, ctx string, nullHandled bool) (*fragment.Code, error) {
	if err := g.require("utils", "./utils.js"); err != nil {
		return nil, err
	}
	result := g.tmp("result")
	key := g.tmp("key")
	desc := g.tmp("desc")
	typedKey := g.tmp("typedKey")
	typedValue := g.tmp("typedValue")

	keyConv, err := g.convert(t.Key, typedKey, ctx+` + "'s key"`, nil, false)
	if err != nil {
		return nil, err
	}
	valueConv, err := g.convert(t.Elem, typedValue, ctx+` + "'s value"`, nil, false)
	if err != nil {
		return nil, err
	}

	c := &fragment.Code{}
	check := fmt.Sprintf("if (!utils.isObject(%s)) {", name)
	if !nullHandled {
		c.Block(fmt.Sprintf("if (%s === null || %s === undefined) {", name, name), "", func(b *fragment.Code) {
			b.Linef("%s = Object.create(null);", name)
		})
		check = "} else " + check
	}
	c.Block(check, "", func(b *fragment.Code) {
		b.Linef(`throw new globalObject.TypeError(%s + " is not an object.");`, ctx)
	})
	c.Block("} else {", "}", func(b *fragment.Code) {
		b.Linef("const %s = Object.create(null);", result)
		b.Blockf(func(b *fragment.Code) {
			b.Blockf(func(b *fragment.Code) {
				b.Line("continue;")
			}, `if (typeof %s !== "string") {`, key)
			b.Linef("const %s = Reflect.getOwnPropertyDescriptor(%s, %s);", desc, name, key)
			b.Blockf(func(b *fragment.Code) {
				b.Linef("let %s = %s;", typedKey, key)
				b.Append(keyConv)
				b.Linef("let %s = %s[%s];", typedValue, name, key)
				b.Append(valueConv)
				b.Linef("%s[%s] = %s;", result, typedKey, typedValue)
			}, "if (%s && %s.enumerable) {", desc, desc)
		}, "for (const %s of Reflect.ownKeys(%s)) {", key, name)
		b.Linef("%s = %s;", name, result)
	})
	return c, nil
}

// promise always produces a fresh promise, resolving thenables.
func (g *gen) promise(elem ast.Type, name, ctx string) (*fragment.Code, error) {
	tmp := g.tmp("tmp")
	value := g.tmp("value")
	inner, err := g.convert(elem, value, ctx+` + "'s resolved value"`, nil, false)
	if err != nil {
		return nil, err
	}
	c := &fragment.Code{}
	c.Block("{", "}", func(b *fragment.Code) {
		b.Linef("const %s = %s;", tmp, name)
		if inner.Empty() {
			b.Linef("%s = new globalObject.Promise(resolve => resolve(%s));", name, tmp)
			return
		}
		b.Block(fmt.Sprintf("%s = new globalObject.Promise(resolve => resolve(%s)).then(%s => {", name, tmp, value), "});", func(b *fragment.Code) {
			b.Append(inner)
			b.Linef("return %s;", value)
		})
	})
	return c, nil
}
