package fragment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dennwc/webidl2js/errors"
)

func TestCodeString(t *testing.T) {
	c := New("\"use strict\";")
	c.Blank()
	c.Blockf(func(b *Code) {
		b.Line("const x = 1;")
		b.Block("if (x) {", "}", func(b *Code) {
			b.Linef("return %s;", "x")
		})
	}, "function %s() {", "f")
	inner := New("a();", "b();")
	c.Append(inner)
	c.Append(&Code{})

	exp := `"use strict";

function f() {
  const x = 1;
  if (x) {
    return x;
  }
}
a();
b();
`
	assert.Equal(t, exp, c.String())
}

func TestMultilineIndent(t *testing.T) {
	c := &Code{}
	c.Block("{", "}", func(b *Code) {
		b.Line("a;\nb;")
	})
	assert.Equal(t, "{\n  a;\n  b;\n}\n", c.String())
}

func TestRequires(t *testing.T) {
	r := NewRequires()
	require.NoError(t, r.AddModule("utils", "./utils.js"))
	require.NoError(t, r.AddModule("conversions", "webidl-conversions"))
	require.NoError(t, r.AddModule("utils", "./utils.js"))

	err := r.AddModule("utils", "./other.js")
	require.Error(t, err)
	assert.True(t, errors.HasAssertionFailure(err))

	o := NewRequires()
	require.NoError(t, o.AddModule("Node", "./Node.js"))
	require.NoError(t, r.Merge(o))

	assert.Equal(t, []string{"Node", "conversions", "utils"}, r.Names())
	assert.Equal(t, `const Node = require("./Node.js");
const conversions = require("webidl-conversions");
const utils = require("./utils.js");
`, r.Code().String())
	assert.True(t, r.Has("Node"))
	assert.Equal(t, 3, r.Len())
}

func TestFragmentMerge(t *testing.T) {
	a := NewFragment()
	a.Code.Line("x();")
	b := NewFragment()
	b.Code.Line("y();")
	require.NoError(t, b.Requires.AddModule("y", "./y.js"))
	require.NoError(t, a.Merge(b))
	assert.Equal(t, "x();\ny();\n", a.Code.String())
	assert.True(t, a.Requires.Has("y"))
}

func TestQuoteAndKeys(t *testing.T) {
	tests := []struct {
		in, quote, key, prop string
	}{
		{"abc", `"abc"`, "abc", "o.abc"},
		{`a"b`, `"a\"b"`, `"a\"b"`, `o["a\"b"]`},
		{"data-x", `"data-x"`, `"data-x"`, `o["data-x"]`},
		{"default", `"default"`, `"default"`, `o["default"]`},
		{"<\u2028>", `"<\u2028>"`, `"<\u2028>"`, `o["<\u2028>"]`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.quote, Quote(tt.in))
			assert.Equal(t, tt.key, Key(tt.in))
			assert.Equal(t, tt.prop, Prop("o", tt.in))
		})
	}
}

func TestMethodKey(t *testing.T) {
	assert.Equal(t, "item", MethodKey("item"))
	assert.Equal(t, "default", MethodKey("default"))
	assert.Equal(t, `["data-x"]`, MethodKey("data-x"))
}

func TestLocal(t *testing.T) {
	assert.Equal(t, "value", Local("value"))
	assert.Equal(t, "_default", Local("default"))
	assert.Equal(t, "data_x", Local("data-x"))
	assert.Equal(t, "_1st", Local("1st"))
}
