// Package jscheck checks and runs generated JavaScript with the goja engine.
//
// Verify parses an emitted CommonJS module the way the loader will see it and
// reports syntax errors with file positions. Loader executes a set of modules
// with a minimal require, which the tests use to exercise generated bindings
// end to end.
package jscheck

import (
	"github.com/dop251/goja"
	"github.com/dop251/goja/parser"

	"github.com/dennwc/webidl2js/errors"
)

// wrap turns a CommonJS module body into a function expression.
func wrap(src string) string {
	return "(function (exports, require, module) {" + src + "\n})"
}

// Verify reports whether src is a syntactically valid CommonJS module.
func Verify(name, src string) error {
	if _, err := parser.ParseFile(nil, name, wrap(src), 0); err != nil {
		return errors.Wrapf(err, "syntax check of %s", name)
	}
	// The compiler also rejects early errors such as duplicate lexical
	// declarations, which the parser accepts.
	if _, err := goja.Compile(name, wrap(src), true); err != nil {
		return errors.Wrapf(err, "compiling %s", name)
	}
	return nil
}
