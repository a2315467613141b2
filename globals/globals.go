// Package globals decides the order interfaces are installed on a global
// object and emits the index module that installs them.
package globals

import (
	"sort"
	"strings"

	"github.com/dennwc/webidl2js/errors"
	"github.com/dennwc/webidl2js/fragment"
	"github.com/dennwc/webidl2js/semantic"
)

// IndexFile is the file name of the index module.
const IndexFile = "interfaces.js"

// Order returns the names of every installable construct such that a parent
// interface always comes before its descendants.
//
// Roots (interfaces without a parent in the context, and callback interfaces
// that declare constants) come first in name order; each root is followed by
// a depth-first walk over its subclasses, again in name order.
func Order(ctx *semantic.Context) ([]string, error) {
	if ctx == nil || !ctx.Linked() {
		return nil, errors.AssertionFailedf("install order requires a linked context")
	}
	var roots []string
	children := make(map[string][]string)
	for name, it := range ctx.Interfaces {
		if _, ok := ctx.Interfaces[it.Inherits]; it.Inherits == "" || !ok {
			roots = append(roots, name)
			continue
		}
		children[it.Inherits] = append(children[it.Inherits], name)
	}
	for name, ci := range ctx.CallbackInterfaces {
		if len(ci.Constants) > 0 {
			roots = append(roots, name)
		}
	}
	sort.Strings(roots)
	for _, c := range children {
		sort.Strings(c)
	}

	out := make([]string, 0, len(roots))
	seen := make(map[string]struct{}, len(roots))
	var walk func(name string)
	walk = func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
		for _, c := range children[name] {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}

	// Link rejects inheritance loops, so every interface reaches a root.
	var missing []string
	for name := range ctx.Interfaces {
		if _, ok := seen[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, errors.AssertionFailedf("interfaces %s never reach a root interface",
			strings.Join(missing, ", "))
	}
	return out, nil
}

// Index renders the index module. Its install(globalObject, globalNames)
// calls the install function of every construct in the given order.
func Index(order []string) (string, error) {
	req := fragment.NewRequires()
	c := fragment.New(`"use strict";`, "")
	body := &fragment.Code{}
	for _, name := range order {
		// Foo-Bar and Foo_Bar sanitize to the same local
		local := fragment.Local(name)
		for req.Has(local) {
			local += "_"
		}
		if err := req.AddModule(local, "./"+name+".js"); err != nil {
			return "", err
		}
		body.Linef("%s.install(globalObject, globalNames);", local)
	}
	if req.Len() > 0 {
		c.Append(req.Code())
		c.Blank()
	}
	names := make([]string, len(order))
	for i, n := range order {
		names[i] = fragment.Quote(n)
	}
	c.Linef("exports.interfaces = [%s];", strings.Join(names, ", "))
	c.Blank()
	c.Block("exports.install = (globalObject, globalNames) => {", "};", func(b *fragment.Code) {
		b.Append(body)
	})
	return c.String(), nil
}
