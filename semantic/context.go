package semantic

import (
	"sort"
	"sync"

	"github.com/dennwc/webidl2js/ast"
	"github.com/dennwc/webidl2js/errors"
	"github.com/dennwc/webidl2js/logger"
)

// Options configure linking.
type Options struct {
	// SuppressErrors drops offending declarations with a warning instead of
	// failing the run on linkage errors.
	SuppressErrors bool
}

// Context is the registry of every construct of one generation run.
//
// Declarations are added with AddFile (or Register / MergePartial directly), then
// Link is called once. After Link the context is read-only and safe for
// concurrent use by generators; the typedef and inherited-member caches are
// internally synchronized.
type Context struct {
	opts Options

	Interfaces         map[string]*Interface
	Mixins             map[string]*Mixin
	Dictionaries       map[string]*Dictionary
	Enums              map[string]*Enum
	Callbacks          map[string]*CallbackFunction
	CallbackInterfaces map[string]*CallbackInterface
	Typedefs           map[string]*Typedef

	// declarations deferred to Link
	partials   []ast.Decl
	includes   []*ast.Includes
	implements []*ast.Implementation

	linked bool

	mu        sync.Mutex
	resolved  map[string]ast.Type
	inherited map[string][]ast.InterfaceMember
}

// New returns an empty context.
func New(opts Options) *Context {
	return &Context{
		opts:               opts,
		Interfaces:         make(map[string]*Interface),
		Mixins:             make(map[string]*Mixin),
		Dictionaries:       make(map[string]*Dictionary),
		Enums:              make(map[string]*Enum),
		Callbacks:          make(map[string]*CallbackFunction),
		CallbackInterfaces: make(map[string]*CallbackInterface),
		Typedefs:           make(map[string]*Typedef),
		resolved:           make(map[string]ast.Type),
		inherited:          make(map[string][]ast.InterfaceMember),
	}
}

// SuppressErrors reports whether linkage errors are downgraded to warnings.
func (c *Context) SuppressErrors() bool { return c.opts.SuppressErrors }

// suppress either returns err or, in suppress mode, logs and swallows it.
// Assertion failures are never swallowed.
func (c *Context) suppress(err error) error {
	if err == nil {
		return nil
	}
	if c.opts.SuppressErrors && errors.IsLinkageError(err) && !errors.HasAssertionFailure(err) {
		logger.Logger.Warnw("Dropping declaration", "error", err.Error())
		return nil
	}
	return err
}

// AddFile registers every declaration of a parsed file. source is the file the
// declarations came from. Partials, includes and implements statements are
// queued and applied by Link, so files may be added in any order.
func (c *Context) AddFile(f *ast.File, source string) error {
	if c.linked {
		return errors.AssertionFailedf("AddFile(%s) after Link", source)
	}
	for _, d := range f.Declarations {
		switch d := d.(type) {
		case *ast.Includes:
			c.includes = append(c.includes, d)
			continue
		case *ast.Implementation:
			c.implements = append(c.implements, d)
			continue
		}
		if isPartial(d) {
			c.partials = append(c.partials, d)
			continue
		}
		if err := c.suppress(c.Register(d, source)); err != nil {
			return err
		}
	}
	return nil
}

func isPartial(d ast.Decl) bool {
	switch d := d.(type) {
	case *ast.Interface:
		return d.Partial
	case *ast.Mixin:
		return d.Partial
	case *ast.Dictionary:
		return d.Partial
	}
	return false
}

// Register adds one non-partial declaration. A second registration of the same
// name in the same category fails with ErrDuplicate.
func (c *Context) Register(d ast.Decl, source string) error {
	switch d := d.(type) {
	case *ast.Interface:
		if d.Callback {
			return c.registerCallbackInterface(d, source)
		}
		if _, ok := c.Interfaces[d.Name]; ok {
			return errors.Wrapf(errors.ErrDuplicate, "interface %s", d.Name)
		}
		c.Interfaces[d.Name] = &Interface{
			Name:        d.Name,
			Inherits:    d.Inherits,
			Source:      source,
			Annotations: append([]*ast.Annotation(nil), d.Annotations...),
			Members:     append([]ast.InterfaceMember(nil), d.Members...),
			CustomOps:   append([]*ast.CustomOp(nil), d.CustomOps...),
		}
	case *ast.Mixin:
		if _, ok := c.Mixins[d.Name]; ok {
			return errors.Wrapf(errors.ErrDuplicate, "interface mixin %s", d.Name)
		}
		c.Mixins[d.Name] = &Mixin{
			Name:        d.Name,
			Source:      source,
			Annotations: append([]*ast.Annotation(nil), d.Annotations...),
			Members:     append([]ast.InterfaceMember(nil), d.Members...),
			CustomOps:   append([]*ast.CustomOp(nil), d.CustomOps...),
		}
	case *ast.Dictionary:
		if _, ok := c.Dictionaries[d.Name]; ok {
			return errors.Wrapf(errors.ErrDuplicate, "dictionary %s", d.Name)
		}
		if err := checkFields(d); err != nil {
			return err
		}
		c.Dictionaries[d.Name] = &Dictionary{
			Name:        d.Name,
			Inherits:    d.Inherits,
			Source:      source,
			Annotations: append([]*ast.Annotation(nil), d.Annotations...),
			Members:     append([]*ast.Member(nil), d.Members...),
		}
	case *ast.Enum:
		if _, ok := c.Enums[d.Name]; ok {
			return errors.Wrapf(errors.ErrDuplicate, "enumeration %s", d.Name)
		}
		e := &Enum{Name: d.Name, Source: source, Annotations: d.Annotations}
		seen := make(map[string]struct{}, len(d.Values))
		for _, v := range d.Values {
			if _, dup := seen[v.Value]; dup {
				return errors.Wrapf(errors.ErrDuplicateEnumValue, "enumeration %s: %q", d.Name, v.Value)
			}
			seen[v.Value] = struct{}{}
			e.Values = append(e.Values, v.Value)
		}
		c.Enums[d.Name] = e
	case *ast.Callback:
		if _, ok := c.Callbacks[d.Name]; ok {
			return errors.Wrapf(errors.ErrDuplicate, "callback %s", d.Name)
		}
		c.Callbacks[d.Name] = &CallbackFunction{
			Name: d.Name, Source: source, Annotations: d.Annotations,
			Return: d.Return, Parameters: d.Parameters,
		}
	case *ast.Typedef:
		if _, ok := c.Typedefs[d.Name]; ok {
			return errors.Wrapf(errors.ErrDuplicate, "typedef %s", d.Name)
		}
		c.Typedefs[d.Name] = &Typedef{Name: d.Name, Source: source, Annotations: d.Annotations, Type: d.Type}
	default:
		return errors.Wrapf(errors.ErrUnknownConstruct, "%T", d)
	}
	logger.Logger.Debugw("Registered declaration", "name", declName(d), "source", source)
	return nil
}

func checkFields(d *ast.Dictionary) error {
	for _, m := range d.Members {
		if m == nil || m.Name == "" || m.Type == nil {
			return errors.Wrapf(errors.ErrInvalidMember, "dictionary %s: member without name or type", d.Name)
		}
	}
	return nil
}

func (c *Context) registerCallbackInterface(d *ast.Interface, source string) error {
	if _, ok := c.CallbackInterfaces[d.Name]; ok {
		return errors.Wrapf(errors.ErrDuplicate, "callback interface %s", d.Name)
	}
	ci := &CallbackInterface{Name: d.Name, Source: source, Annotations: d.Annotations}
	ops := 0
	for _, m := range d.Members {
		switch m := m.(type) {
		case *ast.Operation:
			ops++
			ci.Operation = m
		case *ast.Constant:
			ci.Constants = append(ci.Constants, m)
		default:
			return errors.Wrapf(errors.ErrInvalidMember, "callback interface %s: %T", d.Name, m)
		}
	}
	if ops != 1 {
		return errors.Wrapf(errors.ErrCallbackInterface, "callback interface %s has %d operations", d.Name, ops)
	}
	c.CallbackInterfaces[d.Name] = ci
	return nil
}

// MergePartial appends a partial interface, mixin or dictionary to its base
// declaration. The base must already be registered.
func (c *Context) MergePartial(d ast.Decl) error {
	switch d := d.(type) {
	case *ast.Interface:
		base, ok := c.Interfaces[d.Name]
		if !ok {
			return errors.Wrapf(errors.ErrUnknownBase, "partial interface %s", d.Name)
		}
		base.Members = append(base.Members, d.Members...)
		base.Annotations = append(base.Annotations, d.Annotations...)
		base.CustomOps = append(base.CustomOps, d.CustomOps...)
	case *ast.Mixin:
		base, ok := c.Mixins[d.Name]
		if !ok {
			return errors.Wrapf(errors.ErrUnknownBase, "partial interface mixin %s", d.Name)
		}
		base.Members = append(base.Members, d.Members...)
		base.Annotations = append(base.Annotations, d.Annotations...)
		base.CustomOps = append(base.CustomOps, d.CustomOps...)
	case *ast.Dictionary:
		base, ok := c.Dictionaries[d.Name]
		if !ok {
			return errors.Wrapf(errors.ErrUnknownBase, "partial dictionary %s", d.Name)
		}
		if err := checkFields(d); err != nil {
			return err
		}
		base.Members = append(base.Members, d.Members...)
		base.Annotations = append(base.Annotations, d.Annotations...)
	default:
		return errors.Wrapf(errors.ErrUnknownConstruct, "partial %T", d)
	}
	logger.Logger.Debugw("Merged partial declaration", "name", declName(d))
	return nil
}

// Include merges the members of mixin into interface target.
func (c *Context) Include(target, mixin string) error {
	it, ok := c.Interfaces[target]
	if !ok {
		return errors.Wrapf(errors.ErrUnknownBase, "%s includes %s: no interface %s", target, mixin, target)
	}
	m, ok := c.Mixins[mixin]
	if !ok {
		return errors.Wrapf(errors.ErrUnknownBase, "%s includes %s: no interface mixin %s", target, mixin, mixin)
	}
	for _, name := range it.Includes {
		if name == mixin {
			return nil
		}
	}
	it.Members = append(it.Members, m.Members...)
	it.CustomOps = append(it.CustomOps, m.CustomOps...)
	it.Includes = append(it.Includes, mixin)
	return nil
}

// Implement records a legacy `target implements source` runtime mixin.
func (c *Context) Implement(target, source string) error {
	it, ok := c.Interfaces[target]
	if !ok {
		return errors.Wrapf(errors.ErrUnknownBase, "%s implements %s: no interface %s", target, source, target)
	}
	if _, ok := c.Interfaces[source]; !ok {
		return errors.Wrapf(errors.ErrUnknownBase, "%s implements %s: no interface %s", target, source, source)
	}
	for _, name := range it.Implements {
		if name == source {
			return nil
		}
	}
	it.Implements = append(it.Implements, source)
	return nil
}

// Link applies the queued partials, includes and implements statements, checks
// every typedef for cycles and computes interface features. It must be called
// exactly once, before any generation.
func (c *Context) Link() error {
	if c.linked {
		return errors.AssertionFailedf("context linked twice")
	}

	for _, d := range c.partials {
		if err := c.suppress(c.MergePartial(d)); err != nil {
			return err
		}
	}
	c.partials = nil

	for _, inc := range c.includes {
		if err := c.suppress(c.Include(inc.Name, inc.Source)); err != nil {
			return err
		}
	}
	c.includes = nil

	for _, impl := range c.implements {
		if err := c.suppress(c.Implement(impl.Name, impl.Source)); err != nil {
			return err
		}
	}
	c.implements = nil

	for _, name := range sortedKeys(c.Typedefs) {
		if _, err := c.ResolveTypedef(name); err != nil {
			if err = c.suppress(err); err != nil {
				return err
			}
			delete(c.Typedefs, name)
		}
	}

	for _, name := range sortedKeys(c.Interfaces) {
		it := c.Interfaces[name]
		f, err := c.computeFeatures(it)
		if err != nil {
			return err
		}
		it.Features = f
	}

	c.linked = true
	logger.Logger.Infow("Linked declarations",
		"interfaces", len(c.Interfaces),
		"mixins", len(c.Mixins),
		"dictionaries", len(c.Dictionaries),
		"enums", len(c.Enums),
		"callbacks", len(c.Callbacks)+len(c.CallbackInterfaces),
		"typedefs", len(c.Typedefs),
	)
	return nil
}

// Linked reports whether Link completed.
func (c *Context) Linked() bool { return c.linked }

// Lookup classifies a type name.
func (c *Context) Lookup(name string) (Construct, bool) {
	if v, ok := c.Interfaces[name]; ok {
		return v, true
	}
	if v, ok := c.Dictionaries[name]; ok {
		return v, true
	}
	if v, ok := c.Enums[name]; ok {
		return v, true
	}
	if v, ok := c.Callbacks[name]; ok {
		return v, true
	}
	if v, ok := c.CallbackInterfaces[name]; ok {
		return v, true
	}
	if v, ok := c.Typedefs[name]; ok {
		return v, true
	}
	if v, ok := c.Mixins[name]; ok {
		return v, true
	}
	return nil, false
}

// Constructs returns every generated construct (mixins and typedefs are not
// generated on their own), sorted by name.
func (c *Context) Constructs() []Construct {
	var out []Construct
	for _, v := range c.Interfaces {
		out = append(out, v)
	}
	for _, v := range c.Dictionaries {
		out = append(out, v)
	}
	for _, v := range c.Enums {
		out = append(out, v)
	}
	for _, v := range c.Callbacks {
		out = append(out, v)
	}
	for _, v := range c.CallbackInterfaces {
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ConstructName() != out[j].ConstructName() {
			return out[i].ConstructName() < out[j].ConstructName()
		}
		return out[i].Kind() < out[j].Kind()
	})
	return out
}

// InheritedMembers returns the members of an interface followed by those of
// every ancestor up to the root. Ancestors outside the context end the walk.
func (c *Context) InheritedMembers(name string) ([]ast.InterfaceMember, error) {
	c.mu.Lock()
	if v, ok := c.inherited[name]; ok {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	var out []ast.InterfaceMember
	seen := make(map[string]struct{})
	for cur := name; cur != ""; {
		if _, loop := seen[cur]; loop {
			return nil, errors.Wrapf(errors.ErrUnknownBase, "interface %s inherits from itself", cur)
		}
		seen[cur] = struct{}{}
		it, ok := c.Interfaces[cur]
		if !ok {
			break
		}
		out = append(out, it.Members...)
		cur = it.Inherits
	}

	c.mu.Lock()
	c.inherited[name] = out
	c.mu.Unlock()
	return out, nil
}

// Ancestors returns the chain of parent interface names known to the context,
// nearest first.
func (c *Context) Ancestors(name string) []string {
	var out []string
	seen := map[string]struct{}{name: {}}
	for it, ok := c.Interfaces[name]; ok && it.Inherits != ""; it, ok = c.Interfaces[it.Inherits] {
		if _, loop := seen[it.Inherits]; loop {
			break
		}
		seen[it.Inherits] = struct{}{}
		out = append(out, it.Inherits)
	}
	return out
}

func declName(d ast.Decl) string {
	switch d := d.(type) {
	case *ast.Interface:
		return d.Name
	case *ast.Mixin:
		return d.Name
	case *ast.Dictionary:
		return d.Name
	case *ast.Enum:
		return d.Name
	case *ast.Callback:
		return d.Name
	case *ast.Typedef:
		return d.Name
	case *ast.Includes:
		return d.Name
	case *ast.Implementation:
		return d.Name
	}
	return ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
