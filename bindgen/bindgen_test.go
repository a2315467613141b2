package bindgen

import (
	"fmt"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dennwc/webidl2js/convert"
	"github.com/dennwc/webidl2js/errors"
	"github.com/dennwc/webidl2js/jscheck"
	"github.com/dennwc/webidl2js/parser"
	"github.com/dennwc/webidl2js/semantic"
)

func link(t *testing.T, idl string) *semantic.Context {
	t.Helper()
	c := semantic.New(semantic.Options{})
	f, err := parser.ParseFile("test.webidl", idl)
	require.NoError(t, err)
	require.NoError(t, c.AddFile(f, "test.webidl"))
	require.NoError(t, c.Link())
	return c
}

func generator(t *testing.T, idl string) *Generator {
	t.Helper()
	g, err := New(link(t, idl), Options{})
	require.NoError(t, err)
	return g
}

// load generates every construct of idl and returns a loader over the
// modules and the given implementation sources (construct name -> source).
func load(t *testing.T, idl string, impls map[string]string) *jscheck.Loader {
	t.Helper()
	mods, err := generator(t, idl).GenerateAll()
	require.NoError(t, err)
	files := make(map[string]string)
	for _, m := range mods {
		require.NoError(t, jscheck.Verify(m.FileName(), m.Code), m.Code)
		files[m.FileName()] = m.Code
	}
	for name, src := range impls {
		files["impl/"+name+"-impl.js"] = src
	}
	return jscheck.NewLoader(goja.New(), files, convert.DefaultConversionsModule)
}

func install(t *testing.T, l *jscheck.Loader, names ...string) {
	t.Helper()
	for _, n := range names {
		_, err := l.Run(fmt.Sprintf(`require("./%s.js").install(globalThis, ["Window"]);`, n))
		require.NoError(t, err, n)
	}
}

// eval runs body as a function and returns its result as a string.
func eval(t *testing.T, l *jscheck.Loader, body string) string {
	t.Helper()
	v, err := l.Run("(function () {\n" + body + "\n})()")
	require.NoError(t, err)
	return v.String()
}

func evalErr(t *testing.T, l *jscheck.Loader, body string) string {
	t.Helper()
	_, err := l.Run("(function () {\n" + body + "\n})()")
	require.Error(t, err)
	return err.Error()
}

func TestNewRequiresLinkedContext(t *testing.T) {
	_, err := New(semantic.New(semantic.Options{}), Options{})
	require.Error(t, err)
	assert.True(t, errors.HasAssertionFailure(err))
}

func TestImplPath(t *testing.T) {
	ctx := link(t, "interface A {};")
	g, err := New(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, "../impl/A-impl.js", g.ImplPath("A"))

	g, err = New(ctx, Options{ImplDir: "impl", ImplSuffix: ".impl"})
	require.NoError(t, err)
	assert.Equal(t, "./impl/A.impl.js", g.ImplPath("A"))
}

func TestModuleRequires(t *testing.T) {
	g := generator(t, `
interface Animal { readonly attribute DOMString name; };
interface Dog : Animal { constructor(); undefined bark(); };
`)
	m, err := g.Generate(g.Context().Interfaces["Dog"])
	require.NoError(t, err)
	assert.Equal(t, "Dog.js", m.FileName())
	assert.Equal(t, semantic.KindInterface, m.Kind)
	assert.Equal(t, []string{"Animal", "Impl", "utils"}, m.Requires)
	assert.Contains(t, m.Code, `const Impl = require("../impl/Dog-impl.js");`)
	assert.Contains(t, m.Code, `const Animal = require("./Animal.js");`)
}

const dictIDL = `
dictionary Base { required long b; long a = 5; };
dictionary Child : Base { required DOMString z; DOMString y; };
dictionary Req { required [EnforceRange] long f; };
`

func TestDictionaryFieldOrder(t *testing.T) {
	l := load(t, dictIDL, nil)
	got := eval(t, l, `
const log = [];
const o = {};
for (const k of ["z", "y", "b", "a"]) {
  Object.defineProperty(o, k, { get() { log.push(k); return k === "b" ? 1 : k; } });
}
const r = require("./Child.js").convert(globalThis, o);
return log.join() + "|" + String(Object.getPrototypeOf(r) === null) + "|" + JSON.stringify(r);
`)
	assert.Equal(t, `a,b,y,z|true|{"a":0,"b":1,"y":"y","z":"z"}`, got)
}

func TestDictionaryDefaultsAndRequired(t *testing.T) {
	l := load(t, dictIDL, nil)
	assert.Equal(t, `{"a":5,"b":7,"z":"q"}`, eval(t, l,
		`return JSON.stringify(require("./Child.js").convert(globalThis, { b: "7", z: "q" }));`))

	msg := evalErr(t, l, `require("./Child.js").convert(globalThis, { b: 1, y: "q" });`)
	assert.Contains(t, msg, "The provided value is missing required member 'z' of dictionary 'Child'.")

	msg = evalErr(t, l, `require("./Req.js").convert(globalThis, undefined);`)
	assert.Contains(t, msg, "The provided value is missing required member 'f' of dictionary 'Req'.")

	msg = evalErr(t, l, `require("./Req.js").convert(globalThis, 5);`)
	assert.Contains(t, msg, "is not an object.")

	msg = evalErr(t, l, `require("./Req.js").convert(globalThis, new Date());`)
	assert.Contains(t, msg, "is not a valid dictionary")

	msg = evalErr(t, l, `require("./Req.js").convert(globalThis, { f: "x" }, { context: "opts" });`)
	assert.Contains(t, msg, "opts has member 'f' that is not a finite number.")

	assert.Equal(t, `{"f":3}`, eval(t, l, `return JSON.stringify(require("./Req.js").convert(globalThis, { f: "3" }));`))
}

func TestEnum(t *testing.T) {
	l := load(t, `enum Mode { "one", "two" };`, nil)
	assert.Equal(t, "one|2", eval(t, l, `
const Mode = require("./Mode.js");
return Mode.convert(globalThis, "one") + "|" + Mode.enumerationValues.size;
`))
	msg := evalErr(t, l, `require("./Mode.js").convert(globalThis, "three");`)
	assert.Contains(t, msg, "The provided value 'three' is not a valid enumeration value for Mode")

	c := semantic.New(semantic.Options{})
	f, err := parser.ParseFile("dup.webidl", `enum Dup { "a", "a" };`)
	require.NoError(t, err)
	err = c.AddFile(f, "dup.webidl")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateEnumValue))
}

const callbackIDL = `
callback Fn = long (long a);
[LegacyTreatNonObjectAsNull] callback Lenient = undefined ();
callback Later = Promise<long> ();
callback Maker = any (long a);
callback interface Listener {
  const long MAGIC = 42;
  undefined handle(DOMString ev);
};
`

func TestCallbackFunction(t *testing.T) {
	l := load(t, callbackIDL, nil)
	assert.Equal(t, "3|5|undefined", eval(t, l, `
const Fn = require("./Fn.js");
const inc = Fn.convert(globalThis, x => x + 1);
const str = Fn.convert(globalThis, () => "5");
const lenient = require("./Lenient.js").convert(globalThis, 5);
return inc(2) + "|" + str() + "|" + String(lenient());
`))
	msg := evalErr(t, l, `require("./Fn.js").convert(globalThis, 5);`)
	assert.Contains(t, msg, "The provided value is not a function.")

	_, err := l.Run(`
var later = [];
const p = require("./Later.js").convert(globalThis, () => { throw new Error("boom"); })();
later.push(p instanceof Promise);
p.catch(e => later.push(e.message));
`)
	require.NoError(t, err)
	assert.Equal(t, `[true,"boom"]`, eval(t, l, `return JSON.stringify(later);`))

	assert.Equal(t, "1", eval(t, l, `
const Ctor = require("./Maker.js").convert(globalThis, function (a) { this.a = a; });
return String(Ctor.construct(1).a);
`))
}

func TestCallbackInterface(t *testing.T) {
	l := load(t, callbackIDL, nil)
	assert.Equal(t, "obj:x|fn:y", eval(t, l, `
const Listener = require("./Listener.js");
const out = [];
const obj = { name: "obj", handle(ev) { out.push(this.name + ":" + ev); } };
Listener.convert(globalThis, obj)("x");
Listener.convert(globalThis, ev => out.push("fn:" + ev))("y");
return out.join("|");
`))
	msg := evalErr(t, l, `require("./Listener.js").convert(globalThis, {})("x");`)
	assert.Contains(t, msg, "does not correctly implement Listener.")

	install(t, l, "Listener")
	assert.Equal(t, "42", eval(t, l, `return String(Listener.MAGIC);`))
	assert.Contains(t, evalErr(t, l, `Listener();`), "Illegal invocation")
}

func TestCallbackParameterNames(t *testing.T) {
	l := load(t, `
callback Echo = any (any value);
callback Spread = any (any... arguments);
callback interface Handler { any handle(any value, any args); };
`, nil)
	assert.Equal(t, "called:42|1,2,3|x:y", eval(t, l, `
const echo = require("./Echo.js").convert(globalThis, x => "called:" + x);
const spread = require("./Spread.js").convert(globalThis, (...a) => a.join());
const handler = require("./Handler.js").convert(globalThis, { handle(v, a) { return v + ":" + a; } });
return [echo(42), spread(1, 2, 3), handler("x", "y")].join("|");
`))
}
