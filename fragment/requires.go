package fragment

import (
	"sort"

	"github.com/dennwc/webidl2js/errors"
)

// Requires maps a local binding name to the expression that loads it, e.g.
// "conversions" -> require("webidl-conversions").
type Requires struct {
	m map[string]string
}

// NewRequires returns an empty dependency set.
func NewRequires() *Requires {
	return &Requires{m: make(map[string]string)}
}

// Add records a dependency. Re-adding the same name with the same expression is
// a no-op; a different expression is a generator bug.
func (r *Requires) Add(name, expr string) error {
	if old, ok := r.m[name]; ok && old != expr {
		return errors.AssertionFailedf("dependency %s bound to both %s and %s", name, old, expr)
	}
	r.m[name] = expr
	return nil
}

// AddModule records `const name = require("path");`.
func (r *Requires) AddModule(name, path string) error {
	return r.Add(name, "require("+Quote(path)+")")
}

// Merge unions other into r.
func (r *Requires) Merge(other *Requires) error {
	if other == nil {
		return nil
	}
	for _, name := range other.Names() {
		if err := r.Add(name, other.m[name]); err != nil {
			return err
		}
	}
	return nil
}

// Has reports whether name is bound.
func (r *Requires) Has(name string) bool {
	_, ok := r.m[name]
	return ok
}

// Len returns the number of dependencies.
func (r *Requires) Len() int { return len(r.m) }

// Names returns the bound names in sorted order.
func (r *Requires) Names() []string {
	names := make([]string, 0, len(r.m))
	for k := range r.m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Expr returns the expression bound to name.
func (r *Requires) Expr(name string) string { return r.m[name] }

// Code renders the declarations in stable, sorted order.
func (r *Requires) Code() *Code {
	c := &Code{}
	for _, name := range r.Names() {
		c.Linef("const %s = %s;", name, r.m[name])
	}
	return c
}
