package semantic

import "github.com/dennwc/webidl2js/ast"

// Features are the flags derived from an interface's full member list,
// inherited members included.
type Features struct {
	IndexedGetter *ast.Operation
	IndexedSetter *ast.Operation
	NamedGetter   *ast.Operation
	NamedSetter   *ast.Operation
	NamedDeleter  *ast.Operation

	// Iterable is the iterable declaration, if any; AsyncIterable the async one.
	Iterable      *ast.Iterable
	AsyncIterable *ast.Iterable

	Global               bool
	LegacyPlatformObject bool
}

// SupportsIndexedProperties reports whether the interface has an indexed getter.
func (f *Features) SupportsIndexedProperties() bool { return f.IndexedGetter != nil }

// SupportsNamedProperties reports whether the interface has a named getter.
func (f *Features) SupportsNamedProperties() bool { return f.NamedGetter != nil }

// HasValueIterator is true for iterable<V>.
func (f *Features) HasValueIterator() bool {
	return f.Iterable != nil && f.Iterable.Key == nil
}

// HasPairIterator is true for iterable<K, V>.
func (f *Features) HasPairIterator() bool {
	return f.Iterable != nil && f.Iterable.Key != nil
}

// computeFeatures scans members (own first, then ancestors) and keeps the first
// declaration of every special; the nearest declaration wins.
func (c *Context) computeFeatures(i *Interface) (Features, error) {
	var f Features
	members, err := c.InheritedMembers(i.Name)
	if err != nil {
		return f, err
	}
	for _, m := range members {
		switch m := m.(type) {
		case *ast.Operation:
			if m.Specialization == "" || m.Specialization == "stringifier" || len(m.Parameters) == 0 {
				continue
			}
			indexed, err := c.isIndexKey(m.Parameters[0].Type)
			if err != nil {
				return f, err
			}
			switch m.Specialization {
			case "getter":
				if indexed && f.IndexedGetter == nil {
					f.IndexedGetter = m
				} else if !indexed && f.NamedGetter == nil {
					f.NamedGetter = m
				}
			case "setter":
				if indexed && f.IndexedSetter == nil {
					f.IndexedSetter = m
				} else if !indexed && f.NamedSetter == nil {
					f.NamedSetter = m
				}
			case "deleter":
				if !indexed && f.NamedDeleter == nil {
					f.NamedDeleter = m
				}
			}
		case *ast.Iterable:
			if m.Async {
				if f.AsyncIterable == nil {
					f.AsyncIterable = m
				}
			} else if f.Iterable == nil {
				f.Iterable = m
			}
		}
	}
	f.Global = ast.HasAnnotation(i.Annotations, "Global", "PrimaryGlobal")
	f.LegacyPlatformObject = !f.Global &&
		(f.SupportsIndexedProperties() || f.SupportsNamedProperties())
	return f, nil
}

// isIndexKey reports whether a special operation's first parameter selects the
// indexed (unsigned long) rather than the named (DOMString) form.
func (c *Context) isIndexKey(t ast.Type) (bool, error) {
	rt, err := c.ResolveType(t)
	if err != nil {
		return false, err
	}
	return ast.Named(rt) == "unsigned long", nil
}
