package semantic

import (
	"strings"

	"github.com/dennwc/webidl2js/ast"
	"github.com/dennwc/webidl2js/errors"
)

// ResolveTypedef returns the fully resolved type a typedef names. Typedefs used
// inside the aliased type are resolved too. Results are cached; a cycle fails
// with ErrCircularTypedef and the cycle path.
func (c *Context) ResolveTypedef(name string) (ast.Type, error) {
	c.mu.Lock()
	if t, ok := c.resolved[name]; ok {
		c.mu.Unlock()
		return t, nil
	}
	c.mu.Unlock()

	td, ok := c.Typedefs[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownBase, "typedef %s", name)
	}
	t, err := c.resolve(td.Type, []string{name})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.resolved[name] = t
	c.mu.Unlock()
	return t, nil
}

// ResolveType replaces every typedef name in t by its resolved type. Types
// without typedefs are returned unchanged.
func (c *Context) ResolveType(t ast.Type) (ast.Type, error) {
	return c.resolve(t, nil)
}

// resolve walks t; visiting holds the typedef names currently being expanded.
func (c *Context) resolve(t ast.Type, visiting []string) (ast.Type, error) {
	switch t := t.(type) {
	case *ast.TypeName:
		if _, ok := c.Typedefs[t.Name]; !ok {
			return t, nil
		}
		for i, v := range visiting {
			if v == t.Name {
				path := append(append([]string(nil), visiting[i:]...), t.Name)
				return nil, errors.Wrapf(errors.ErrCircularTypedef, "%s", strings.Join(path, " -> "))
			}
		}
		c.mu.Lock()
		cached, ok := c.resolved[t.Name]
		c.mu.Unlock()
		if ok {
			return cached, nil
		}
		return c.resolve(c.Typedefs[t.Name].Type, append(visiting, t.Name))
	case *ast.NullableType:
		inner, err := c.resolve(t.Type, visiting)
		if err != nil {
			return nil, err
		}
		// typedef long? X; X? stays a single nullable
		if ast.IsNullable(inner) {
			return inner, nil
		}
		return &ast.NullableType{Base: t.Base, Type: inner}, nil
	case *ast.SequenceType:
		elem, err := c.resolve(t.Elem, visiting)
		if err != nil {
			return nil, err
		}
		return &ast.SequenceType{Base: t.Base, Elem: elem}, nil
	case *ast.FrozenArrayType:
		elem, err := c.resolve(t.Elem, visiting)
		if err != nil {
			return nil, err
		}
		return &ast.FrozenArrayType{Base: t.Base, Elem: elem}, nil
	case *ast.PromiseType:
		elem, err := c.resolve(t.Elem, visiting)
		if err != nil {
			return nil, err
		}
		return &ast.PromiseType{Base: t.Base, Elem: elem}, nil
	case *ast.ArrayType:
		elem, err := c.resolve(t.Elem, visiting)
		if err != nil {
			return nil, err
		}
		return &ast.ArrayType{Base: t.Base, Elem: elem}, nil
	case *ast.RecordType:
		key, err := c.resolve(t.Key, visiting)
		if err != nil {
			return nil, err
		}
		elem, err := c.resolve(t.Elem, visiting)
		if err != nil {
			return nil, err
		}
		return &ast.RecordType{Base: t.Base, Key: key, Elem: elem}, nil
	case *ast.UnionType:
		out := &ast.UnionType{Base: t.Base}
		for _, u := range t.Types {
			r, err := c.resolve(u, visiting)
			if err != nil {
				return nil, err
			}
			out.Types = append(out.Types, r)
		}
		return out, nil
	}
	return t, nil
}
