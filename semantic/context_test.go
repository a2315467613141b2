package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dennwc/webidl2js/ast"
	"github.com/dennwc/webidl2js/errors"
	"github.com/dennwc/webidl2js/parser"
)

func build(t *testing.T, opts Options, sources ...string) (*Context, error) {
	t.Helper()
	c := New(opts)
	for i, src := range sources {
		f, err := parser.ParseFile("test.webidl", src)
		require.NoError(t, err)
		if err := c.AddFile(f, string(rune('a'+i))+".webidl"); err != nil {
			return c, err
		}
	}
	return c, c.Link()
}

func mustBuild(t *testing.T, sources ...string) *Context {
	t.Helper()
	c, err := build(t, Options{}, sources...)
	require.NoError(t, err)
	return c
}

func TestPartialsAcrossFiles(t *testing.T) {
	// the partial comes first; merge happens at Link
	c := mustBuild(t,
		`partial interface Node { attribute long extra; };
		 partial dictionary Init { long b; };`,
		`interface Node { attribute long base; };
		 dictionary Init { long a; };`,
	)
	n := c.Interfaces["Node"]
	require.NotNil(t, n)
	require.Len(t, n.Members, 2)
	assert.Equal(t, "base", ast.MemberName(n.Members[0]))
	assert.Equal(t, "extra", ast.MemberName(n.Members[1]))
	assert.Equal(t, "b.webidl", n.Source)
	assert.Len(t, c.Dictionaries["Init"].Members, 2)
}

func TestIncludesAndImplements(t *testing.T) {
	c := mustBuild(t, `
interface mixin Body { readonly attribute boolean bodyUsed; };
partial interface mixin Body { undefined text(); };
interface Request {};
interface Helper {};
Request includes Body;
Request includes Body;
Request implements Helper;
`)
	r := c.Interfaces["Request"]
	assert.Equal(t, []string{"Body"}, r.Includes)
	assert.Equal(t, []string{"Helper"}, r.Implements)
	require.Len(t, r.Members, 2)
	assert.Equal(t, "bodyUsed", ast.MemberName(r.Members[0]))
	assert.Equal(t, "text", ast.MemberName(r.Members[1]))
}

func TestLinkageErrors(t *testing.T) {
	tests := []struct {
		name string
		src  []string
		err  error
	}{
		{"duplicate interface", []string{"interface A {};", "interface A {};"}, errors.ErrDuplicate},
		{"partial without base", []string{"partial interface A { attribute long x; };"}, errors.ErrUnknownBase},
		{"includes unknown mixin", []string{"interface A {}; A includes M;"}, errors.ErrUnknownBase},
		{"includes unknown target", []string{"interface mixin M {}; A includes M;"}, errors.ErrUnknownBase},
		{"implements unknown", []string{"interface A {}; A implements B;"}, errors.ErrUnknownBase},
		{"callback interface without op", []string{"callback interface L { const long X = 1; };"}, errors.ErrCallbackInterface},
		{"callback interface two ops", []string{"callback interface L { undefined a(); undefined b(); };"}, errors.ErrCallbackInterface},
		{"callback interface attribute", []string{"callback interface L { attribute long x; undefined a(); };"}, errors.ErrInvalidMember},
		{"duplicate enum value", []string{`enum E { "a", "b", "a" };`}, errors.ErrDuplicateEnumValue},
		{"typedef cycle", []string{"typedef B A; typedef sequence<A> B;"}, errors.ErrCircularTypedef},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := build(t, Options{}, tt.src...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.err), "got %v", err)

			_, err = build(t, Options{SuppressErrors: true}, tt.src...)
			assert.NoError(t, err)
		})
	}
}

func TestSuppressDropsFragment(t *testing.T) {
	c, err := build(t, Options{SuppressErrors: true},
		`enum E { "a", "a" }; enum F { "x" }; partial interface Missing { attribute long x; };`)
	require.NoError(t, err)
	assert.NotContains(t, c.Enums, "E")
	assert.Contains(t, c.Enums, "F")
	assert.NotContains(t, c.Interfaces, "Missing")
}

func TestResolveTypedef(t *testing.T) {
	c := mustBuild(t, `
typedef unsigned long Index;
typedef sequence<Index> Indices;
typedef Indices? MaybeIndices;
typedef (Index or DOMString) Key;
`)
	rt, err := c.ResolveTypedef("MaybeIndices")
	require.NoError(t, err)
	assert.Equal(t, "sequence<unsigned long>?", ast.TypeString(rt))

	rt, err = c.ResolveTypedef("Key")
	require.NoError(t, err)
	assert.Equal(t, "(unsigned long or DOMString)", ast.TypeString(rt))

	rt, err = c.ResolveType(&ast.RecordType{
		Key:  &ast.TypeName{Name: "DOMString"},
		Elem: &ast.TypeName{Name: "Indices"},
	})
	require.NoError(t, err)
	assert.Equal(t, "record<DOMString, sequence<unsigned long>>", ast.TypeString(rt))

	_, err = c.ResolveTypedef("Nope")
	assert.Error(t, err)
}

func TestTypedefCyclePath(t *testing.T) {
	_, err := build(t, Options{}, "typedef B A; typedef C B; typedef A C;")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "A -> B -> C -> A")
}

func TestInheritedMembersAndFeatures(t *testing.T) {
	c := mustBuild(t, `
interface Base {
  getter any item(unsigned long index);
  attribute long a;
};
interface Derived : Base {
  getter any (DOMString name);
  deleter undefined (DOMString name);
  attribute long b;
};
interface Leaf : Derived { iterable<long>; };
[Global] interface Window { getter any (DOMString name); };
interface Pairs { iterable<DOMString, long>; async iterable<long>; };
interface Outside : External {};
`)
	members, err := c.InheritedMembers("Leaf")
	require.NoError(t, err)
	require.Len(t, members, 6)
	assert.IsType(t, &ast.Iterable{}, members[0])
	assert.Equal(t, "a", ast.MemberName(members[5]))

	assert.Equal(t, []string{"Derived", "Base"}, c.Ancestors("Leaf"))

	leaf := c.Interfaces["Leaf"].Features
	assert.True(t, leaf.SupportsIndexedProperties())
	assert.True(t, leaf.SupportsNamedProperties())
	assert.NotNil(t, leaf.NamedDeleter)
	assert.Nil(t, leaf.IndexedSetter)
	assert.True(t, leaf.HasValueIterator())
	assert.True(t, leaf.LegacyPlatformObject)

	win := c.Interfaces["Window"].Features
	assert.True(t, win.Global)
	assert.False(t, win.LegacyPlatformObject)

	pairs := c.Interfaces["Pairs"].Features
	assert.True(t, pairs.HasPairIterator())
	assert.NotNil(t, pairs.AsyncIterable)
	assert.False(t, pairs.LegacyPlatformObject)

	out, err := c.InheritedMembers("Outside")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestConstructsSorted(t *testing.T) {
	c := mustBuild(t, `
interface B {};
dictionary A {};
enum C { "x" };
callback D = undefined ();
callback interface E { undefined handleEvent(); };
interface mixin M {};
typedef long T;
`)
	var names []string
	for _, k := range c.Constructs() {
		names = append(names, k.ConstructName())
	}
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, names)

	k, ok := c.Lookup("T")
	require.True(t, ok)
	assert.Equal(t, KindTypedef, k.Kind())
	_, ok = c.Lookup("Missing")
	assert.False(t, ok)
}

func TestExposureAndConstructors(t *testing.T) {
	c := mustBuild(t, `
[Exposed=(Window,Worker), Constructor(long x)]
interface A { constructor(); };
[Exposed=Worker] interface B {};
interface C {};
`)
	assert.Equal(t, []string{"Window", "Worker"}, c.Interfaces["A"].Exposure("Window"))
	assert.Equal(t, []string{"Worker"}, c.Interfaces["B"].Exposure("Window"))
	assert.Equal(t, []string{"Window"}, c.Interfaces["C"].Exposure("Window"))
	assert.Len(t, c.Interfaces["A"].Constructors(), 2)
}

func TestLinkTwice(t *testing.T) {
	c := mustBuild(t, "interface A {};")
	err := c.Link()
	require.Error(t, err)
	assert.True(t, errors.HasAssertionFailure(err))
}
