package jscheck

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	tests := []struct {
		name string
		src  string
		ok   bool
	}{
		{"empty", "", true},
		{"module", `"use strict"; const x = require("./x.js"); exports.f = () => x;`, true},
		{"class", `class A { get x() { return 1; } static y() {} }`, true},
		{"unbalanced", `function f() {`, false},
		{"duplicate const", `const a = 1; const a = 2;`, false},
		{"bad token", `let = = 2;`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.name+".js", tt.src)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoaderRuntime(t *testing.T) {
	l := NewLoader(goja.New(), nil, "webidl-conversions")
	v, err := l.Run(`
const conversions = require("webidl-conversions");
const utils = require("./utils.js");
[conversions["unsigned long"](-1), conversions.octet(300, { clamp: true }), utils.isArrayIndexPropName("12"), utils.isArrayIndexPropName("01")].join(",");
`)
	require.NoError(t, err)
	assert.Equal(t, "4294967295,255,true,false", v.String())

	_, err = l.Run(`require("webidl-conversions").long(Infinity, { enforceRange: true, context: "x" })`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "x is not a finite number")
}

func TestLoaderModules(t *testing.T) {
	l := NewLoader(goja.New(), map[string]string{
		"a.js":           `"use strict"; const b = require("./b.js"); exports.value = () => b.value + 1;`,
		"b.js":           `"use strict"; module.exports = { value: 41 };`,
		"impl/C-impl.js": `"use strict"; exports.implementation = class {};`,
		"cycle1.js":      `"use strict"; exports.x = 1; const c2 = require("./cycle2.js"); exports.y = c2.y;`,
		"cycle2.js":      `"use strict"; const c1 = require("./cycle1.js"); exports.y = c1.x + 1;`,
		"broken.js":      `throw new Error("boom");`,
	}, "")

	a, err := l.Require("./a.js")
	require.NoError(t, err)
	fn, ok := goja.AssertFunction(a.Get("value"))
	require.True(t, ok)
	res, err := fn(goja.Undefined())
	require.NoError(t, err)
	assert.EqualValues(t, 42, res.ToInteger())

	again, err := l.Require("a.js")
	require.NoError(t, err)
	assert.Same(t, a, again)

	_, err = l.Require("../impl/C-impl.js")
	assert.NoError(t, err)

	c1, err := l.Require("./cycle1.js")
	require.NoError(t, err)
	assert.EqualValues(t, 2, c1.Get("y").ToInteger())

	_, err = l.Require("./missing.js")
	assert.Error(t, err)

	_, err = l.Require("./broken.js")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
