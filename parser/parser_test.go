package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dennwc/webidl2js/ast"
	"github.com/dennwc/webidl2js/errors"
)

func parseOK(t *testing.T, src string) *ast.File {
	t.Helper()
	f, err := ParseFile("test.webidl", src)
	require.NoError(t, err, DumpString(f))
	return f
}

func TestParseInterface(t *testing.T) {
	f := parseOK(t, `
// Doc comment.
[Exposed=(Window,Worker), LegacyUnenumerableNamedProperties]
interface HTMLCollection : Base {
  const unsigned short ELEMENT_NODE = 1;
  constructor(optional DOMString init = "");
  readonly attribute unsigned long length;
  [SameObject] readonly attribute Node? owner;
  inherit attribute DOMString inherited;
  static attribute long counter;
  stringifier attribute USVString href;
  getter Element? item(unsigned long index);
  getter Element? (DOMString name);
  setter undefined (DOMString name, any value);
  deleter undefined (DOMString name);
  undefined add([EnforceRange] long long x, long... rest);
  static Promise<undefined> wait(optional record<DOMString, long> opts = {});
  stringifier;
  iterable<Element>;
};`)
	require.Len(t, f.Declarations, 1)
	it, ok := f.Declarations[0].(*ast.Interface)
	require.True(t, ok)
	assert.Equal(t, "HTMLCollection", it.Name)
	assert.Equal(t, "Base", it.Inherits)
	assert.Equal(t, []string{"// Doc comment."}, it.Comments)

	exp := ast.FindAnnotation(it.Annotations, "Exposed")
	require.NotNil(t, exp)
	assert.Equal(t, []string{"Window", "Worker"}, exp.Values)
	assert.True(t, ast.HasAnnotation(it.Annotations, "LegacyUnenumerableNamedProperties"))

	require.Len(t, it.Members, 14)
	require.Len(t, it.CustomOps, 1)
	assert.Equal(t, "stringifier", it.CustomOps[0].Name)

	c := it.Members[0].(*ast.Constant)
	assert.Equal(t, "ELEMENT_NODE", c.Name)
	assert.Equal(t, "unsigned short", ast.TypeString(c.Type))
	assert.Equal(t, "1", c.Value.Value)

	ctor := it.Members[1].(*ast.Constructor)
	require.Len(t, ctor.Parameters, 1)
	assert.True(t, ctor.Parameters[0].Optional)
	assert.Equal(t, ast.LiteralString, ctor.Parameters[0].Init.Kind)
	assert.Equal(t, "", ctor.Parameters[0].Init.Value)

	length := it.Members[2].(*ast.Attribute)
	assert.True(t, length.Readonly)
	assert.Equal(t, "unsigned long", ast.TypeString(length.Type))

	owner := it.Members[3].(*ast.Attribute)
	assert.True(t, ast.IsNullable(owner.Type))
	assert.True(t, ast.HasAnnotation(owner.Annotations, "SameObject"))

	assert.True(t, it.Members[4].(*ast.Attribute).Inherit)
	assert.True(t, it.Members[5].(*ast.Attribute).Static)
	assert.True(t, it.Members[6].(*ast.Attribute).Stringifier)

	item := it.Members[7].(*ast.Operation)
	assert.Equal(t, "getter", item.Specialization)
	assert.Equal(t, "item", item.Name)

	named := it.Members[8].(*ast.Operation)
	assert.Equal(t, "getter", named.Specialization)
	assert.Equal(t, "", named.Name)

	assert.Equal(t, "setter", it.Members[9].(*ast.Operation).Specialization)
	assert.Equal(t, "deleter", it.Members[10].(*ast.Operation).Specialization)

	add := it.Members[11].(*ast.Operation)
	require.Len(t, add.Parameters, 2)
	assert.Equal(t, "long long", ast.TypeString(add.Parameters[0].Type))
	assert.True(t, ast.HasAnnotation(add.Parameters[0].Annotations, "EnforceRange"))
	assert.True(t, add.Parameters[1].Variadic)
	assert.True(t, ast.IsVoid(add.Return))

	wait := it.Members[12].(*ast.Operation)
	assert.True(t, wait.Static)
	assert.Equal(t, "Promise<undefined>", ast.TypeString(wait.Return))
	assert.Equal(t, "record<DOMString, long>", ast.TypeString(wait.Parameters[0].Type))
	assert.Equal(t, ast.LiteralEmptyObject, wait.Parameters[0].Init.Kind)

	iter := it.Members[13].(*ast.Iterable)
	assert.Nil(t, iter.Key)
	assert.Equal(t, "Element", ast.TypeString(iter.Value))
}

func TestParseDeclarations(t *testing.T) {
	f := parseOK(t, `
partial interface Foo { attribute long x; };
interface mixin Bar { undefined run(); };
partial interface mixin Bar { const long Y = -0x1F; };
callback interface Listener { undefined handleEvent(Event e); };
callback Handler = any (DOMString s, optional long n);
dictionary Init : BaseInit {
  required DOMString name;
  sequence<long> list = [];
  boolean flag = false;
  double? d = null;
  unrestricted double inf = -Infinity;
};
partial dictionary Init { long extra; };
enum Mode { "open", "closed", };
typedef (DOMString or sequence<DOMString>) StringOrList;
Foo includes Bar;
Foo implements Baz;
interface Pairs { iterable<DOMString, long>; async iterable<long>(optional long start); };
`)
	require.Len(t, f.Declarations, 12)

	p := f.Declarations[0].(*ast.Interface)
	assert.True(t, p.Partial)

	m := f.Declarations[1].(*ast.Mixin)
	assert.Equal(t, "Bar", m.Name)
	assert.False(t, m.Partial)
	pm := f.Declarations[2].(*ast.Mixin)
	assert.True(t, pm.Partial)
	assert.Equal(t, "-0x1F", pm.Members[0].(*ast.Constant).Value.Value)

	cb := f.Declarations[3].(*ast.Interface)
	assert.True(t, cb.Callback)

	fn := f.Declarations[4].(*ast.Callback)
	assert.Equal(t, "Handler", fn.Name)
	assert.Equal(t, "any", ast.TypeString(fn.Return))
	require.Len(t, fn.Parameters, 2)
	assert.True(t, fn.Parameters[1].Optional)

	d := f.Declarations[5].(*ast.Dictionary)
	assert.Equal(t, "BaseInit", d.Inherits)
	require.Len(t, d.Members, 5)
	assert.True(t, d.Members[0].Required)
	assert.Equal(t, ast.LiteralEmptySequence, d.Members[1].Init.Kind)
	assert.Equal(t, ast.LiteralBool, d.Members[2].Init.Kind)
	assert.Equal(t, ast.LiteralNull, d.Members[3].Init.Kind)
	assert.Equal(t, "-Infinity", d.Members[4].Init.Value)
	assert.Equal(t, "unrestricted double", ast.TypeString(d.Members[4].Type))

	pd := f.Declarations[6].(*ast.Dictionary)
	assert.True(t, pd.Partial)

	e := f.Declarations[7].(*ast.Enum)
	require.Len(t, e.Values, 2)
	assert.Equal(t, "closed", e.Values[1].Value)

	td := f.Declarations[8].(*ast.Typedef)
	assert.Equal(t, "(DOMString or sequence<DOMString>)", ast.TypeString(td.Type))

	inc := f.Declarations[9].(*ast.Includes)
	assert.Equal(t, "Foo", inc.Name)
	assert.Equal(t, "Bar", inc.Source)

	impl := f.Declarations[10].(*ast.Implementation)
	assert.Equal(t, "Baz", impl.Source)

	pairs := f.Declarations[11].(*ast.Interface)
	require.Len(t, pairs.Members, 2)
	kv := pairs.Members[0].(*ast.Iterable)
	assert.Equal(t, "DOMString", ast.TypeString(kv.Key))
	async := pairs.Members[1].(*ast.Iterable)
	assert.True(t, async.Async)
	require.Len(t, async.Parameters, 1)
}

func TestParseAnnotations(t *testing.T) {
	f := parseOK(t, `
[LegacyFactoryFunction=Image(optional unsigned long width), Reflect="data-x", Clamp]
interface Img {};`)
	it := f.Declarations[0].(*ast.Interface)
	require.Len(t, it.Annotations, 3)
	ff := it.Annotations[0]
	assert.Equal(t, "Image", ff.Value)
	require.Len(t, ff.Parameters, 1)
	assert.Equal(t, "data-x", it.Annotations[1].Value)
	assert.Equal(t, "Clamp", it.Annotations[2].Name)
}

func TestParseTypes(t *testing.T) {
	cases := []struct {
		src, exp string
	}{
		{"unsigned long long", "unsigned long long"},
		{"long long?", "long long?"},
		{"unsigned short", "unsigned short"},
		{"unrestricted float", "unrestricted float"},
		{"FrozenArray<Node>", "FrozenArray<Node>"},
		{"sequence<sequence<long>>", "sequence<sequence<long>>"},
		{"(Node or DOMString)?", "(Node or DOMString)?"},
		{"Node[]", "Node[]"},
		{"any", "any"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			f := parseOK(t, "typedef "+c.src+" T;")
			td := f.Declarations[0].(*ast.Typedef)
			assert.Equal(t, c.exp, ast.TypeString(td.Type))
			assert.Equal(t, "T", td.Name)
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"garbage at root", "foo bar;"},
		{"unterminated interface", "interface A { attribute long x;"},
		{"bad enum", "enum E { 1 };"},
		{"unterminated string", `enum E { "a };`},
		{"missing type", "interface A { attribute ; };"},
		{"maplike", "interface A { maplike<DOMString, long>; };"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f, err := ParseFile("bad.webidl", c.src)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrParse))
			assert.Contains(t, err.Error(), "bad.webidl:1:")
			assert.NotNil(t, f)
		})
	}
}

func TestParseRecoversAfterError(t *testing.T) {
	f, err := ParseFile("x", `
interface A { attribute ; attribute long ok; };
enum E { "a" };`)
	require.Error(t, err)
	require.Len(t, f.Declarations, 2)
	a := f.Declarations[0].(*ast.Interface)
	require.NotEmpty(t, a.Members)
	last := a.Members[len(a.Members)-1].(*ast.Attribute)
	assert.Equal(t, "ok", last.Name)
	assert.Equal(t, "E", f.Declarations[1].(*ast.Enum).Name)
}

func TestPosition(t *testing.T) {
	line, col := position("ab\ncd", 4)
	assert.Equal(t, 2, line)
	assert.Equal(t, 2, col)
	line, col = position("abc", 0)
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)
}
