package convert

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dennwc/webidl2js/ast"
	"github.com/dennwc/webidl2js/fragment"
	"github.com/dennwc/webidl2js/jscheck"
	"github.com/dennwc/webidl2js/parser"
	"github.com/dennwc/webidl2js/semantic"
)

const testIDL = `
interface Node {};
dictionary Init { long x; };
enum Mode { "a" };
callback Cb = undefined ();
typedef sequence<unsigned long> Indices;
interface mixin Mix {};
`

func newEngine(t *testing.T) *Engine {
	t.Helper()
	c := semantic.New(semantic.Options{})
	f, err := parser.ParseFile("test.webidl", testIDL)
	require.NoError(t, err)
	require.NoError(t, c.AddFile(f, "test.webidl"))
	require.NoError(t, c.Link())
	return New(c, Options{Self: "Node"})
}

func parseType(t *testing.T, src string) ast.Type {
	t.Helper()
	f, err := parser.ParseFile("type.webidl", "typedef "+src+" T;")
	require.NoError(t, err)
	return f.Declarations[0].(*ast.Typedef).Type
}

// module wraps a conversion into exports.run(globalObject, V).
func module(frag *fragment.Fragment) string {
	c := fragment.New(`"use strict";`)
	c.Append(frag.Requires.Code())
	c.Block("exports.run = (globalObject, V) => {", "};", func(b *fragment.Code) {
		b.Append(frag.Code)
		b.Line("return V;")
	})
	return c.String()
}

func run(t *testing.T, e *Engine, req Request, script string) (goja.Value, error) {
	t.Helper()
	req.Name = "V"
	frag, err := e.Convert(req)
	require.NoError(t, err)
	src := module(frag)
	require.NoError(t, jscheck.Verify("conv.js", src), src)

	l := jscheck.NewLoader(goja.New(), map[string]string{"conv.js": src}, DefaultConversionsModule)
	return l.Run(`const run = v => require("./conv.js").run(globalThis, v);` + script)
}

func TestRuntimeConversions(t *testing.T) {
	e := newEngine(t)
	tests := []struct {
		name   string
		typ    string
		ann    []*ast.Annotation
		script string
		exp    string
	}{
		{"sequence", "sequence<unsigned long>", nil,
			`JSON.stringify(run([1, 2, 3]))`, `[1,2,3]`},
		{"sequence from set", "sequence<DOMString>", nil,
			`JSON.stringify(run(new Set([1, "b"])))`, `["1","b"]`},
		{"typedef", "Indices", nil,
			`JSON.stringify(run(["4", -1]))`, `[4,4294967295]`},
		{"record", "record<DOMString, long>", nil,
			`const r = run({ a: "1", b: "2" }); String(Object.getPrototypeOf(r) === null) + JSON.stringify(r)`,
			`true{"a":1,"b":2}`},
		{"record skips symbols and hidden keys", "record<DOMString, long>", nil,
			`const o = { a: 1, [Symbol("s")]: 2 }; Object.defineProperty(o, "h", { value: 3, enumerable: false });
			 JSON.stringify(Object.keys(run(o)))`, `["a"]`},
		{"record default", "record<DOMString, long>", nil,
			`Object.keys(run(undefined)).length`, `0`},
		{"nullable", "long?", nil,
			`String(run(null)) + String(run(undefined)) + run("7")`, `nullnull7`},
		{"nullable any", "any?", nil,
			`String(run(undefined))`, `null`},
		{"clamp", "octet", []*ast.Annotation{{Name: "Clamp"}},
			`run(300)`, `255`},
		{"null to empty string", "DOMString", []*ast.Annotation{{Name: "LegacyNullToEmptyString"}},
			`JSON.stringify(run(null))`, `""`},
		{"frozen array", "FrozenArray<long>", nil,
			`String(Object.isFrozen(run([1])))`, `true`},
		{"legacy array", "long[]", nil,
			`JSON.stringify(run(["1", 2.5]))`, `[1,2]`},
		{"unknown unwraps", "Unknown", nil,
			`const utils = require("./utils.js"); const impl = {}; const w = { [utils.implSymbol]: impl };
			 String(run(w) === impl) + String(run(5))`, `true5`},
		{"union falls back", "(long or DOMString)", nil,
			`run("x")`, `x`},
		{"any", "any", nil, `run("x")`, `x`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := run(t, e, Request{Type: parseType(t, tt.typ), Annotations: tt.ann}, tt.script)
			require.NoError(t, err)
			assert.Equal(t, tt.exp, v.String())
		})
	}
}

func TestRuntimeErrors(t *testing.T) {
	e := newEngine(t)
	tests := []struct {
		name   string
		typ    string
		ann    []*ast.Annotation
		script string
		msg    string
	}{
		{"not iterable", "sequence<long>", nil, `run(5)`, "arg is not an iterable object."},
		{"element", "sequence<long>", []*ast.Annotation{{Name: "EnforceRange"}}, `run([Infinity])`, "arg's element is not a finite number."},
		{"record not object", "record<DOMString, long>", nil, `run(5)`, "arg is not an object."},
		{"enforce range", "long", []*ast.Annotation{{Name: "EnforceRange"}}, `run(Math.pow(2, 40))`, "arg is outside the accepted range"},
		{"double", "double", nil, `run(NaN)`, "arg is not a finite floating-point value."},
		{"legacy array", "long[]", nil, `run(1)`, "arg is not an array."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, e, Request{
				Type:        parseType(t, tt.typ),
				Annotations: tt.ann,
				Context:     fragment.Quote("arg"),
			}, tt.script)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestPromise(t *testing.T) {
	e := newEngine(t)
	req := Request{Type: parseType(t, "Promise<long>"), Name: "V"}
	frag, err := e.Convert(req)
	require.NoError(t, err)
	l := jscheck.NewLoader(goja.New(), map[string]string{"conv.js": module(frag)}, DefaultConversionsModule)
	_, err = l.Run(`
var out = [];
const p = require("./conv.js").run(globalThis, "5");
out.push(p instanceof Promise);
p.then(v => out.push(v));
const q = Promise.resolve("6");
const p2 = require("./conv.js").run(globalThis, q);
out.push(p2 !== q);
p2.then(v => out.push(v));
`)
	require.NoError(t, err)
	v, err := l.Run(`JSON.stringify(out)`)
	require.NoError(t, err)
	assert.Equal(t, `[true,true,5,6]`, v.String())
}

func TestNamedTypes(t *testing.T) {
	e := newEngine(t)
	tests := []struct {
		typ     string
		line    string
		require string
	}{
		{"Init", `V = Init.convert(globalObject, V, { context: "The provided value" });`, "Init"},
		{"Mode", `V = Mode.convert(globalObject, V, { context: "The provided value" });`, "Mode"},
		{"Cb", `V = Cb.convert(globalObject, V, { context: "The provided value" });`, "Cb"},
		{"Node", `V = exports.convert(globalObject, V, { context: "The provided value" });`, ""},
		{"Mix", `V = utils.tryImplForWrapper(V);`, "utils"},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			frag, err := e.Convert(Request{Type: parseType(t, tt.typ), Name: "V"})
			require.NoError(t, err)
			assert.Equal(t, tt.line+"\n", frag.Code.String())
			if tt.require == "" {
				assert.Equal(t, 0, frag.Requires.Len())
			} else {
				assert.Equal(t, []string{tt.require}, frag.Requires.Names())
			}
		})
	}

	other := e.WithSelf("Init")
	frag, err := other.Convert(Request{Type: parseType(t, "Node"), Name: "V"})
	require.NoError(t, err)
	assert.Equal(t, `require("./Node.js")`, frag.Requires.Expr("Node"))
}

func TestBuiltinOptions(t *testing.T) {
	e := newEngine(t)
	frag, err := e.Convert(Request{
		Type:        parseType(t, "unsigned long"),
		Name:        "x",
		Context:     fragment.Quote("ctx"),
		Annotations: []*ast.Annotation{{Name: "EnforceRange"}, {Name: "TreatNullAs", Value: "EmptyString"}},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`x = conversions["unsigned long"](x, { context: "ctx", globals: globalObject, enforceRange: true, treatNullAsEmptyString: true });`+"\n",
		frag.Code.String())
	assert.Equal(t, `require("webidl-conversions")`, frag.Requires.Expr("conversions"))
}

func TestHasConversionAndKind(t *testing.T) {
	e := newEngine(t)
	assert.False(t, e.HasConversion(parseType(t, "any")))
	assert.False(t, e.HasConversion(parseType(t, "undefined")))
	assert.True(t, e.HasConversion(parseType(t, "long")))
	assert.True(t, e.HasConversion(parseType(t, "Indices")))

	assert.Equal(t, semantic.KindDictionary, e.Kind(parseType(t, "Init?")))
	assert.Equal(t, semantic.KindUnknown, e.Kind(parseType(t, "sequence<long>")))
	assert.Equal(t, semantic.KindUnknown, e.Kind(parseType(t, "Whatever")))

	_, err := e.Convert(Request{Type: parseType(t, "long")})
	assert.Error(t, err)
}
