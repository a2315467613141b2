package bindgen

import (
	"fmt"
	"strings"

	"github.com/dennwc/webidl2js/ast"
	"github.com/dennwc/webidl2js/errors"
	"github.com/dennwc/webidl2js/fragment"
	"github.com/dennwc/webidl2js/overload"
	"github.com/dennwc/webidl2js/semantic"
)

// exposure returns the globals named by [Exposed], or def.
func exposure(ann []*ast.Annotation, def string) []string {
	a := ast.FindAnnotation(ann, "Exposed")
	switch {
	case a == nil:
		return []string{def}
	case len(a.Values) > 0:
		return a.Values
	case a.Value != "":
		return []string{a.Value}
	}
	return []string{def}
}

// exposed emits the set of globals install accepts.
func (b *builder) exposed(c *fragment.Code, names []string) {
	quoted := make([]string, 0, len(names))
	for _, n := range names {
		if n == "*" {
			b.exposeAll = true
			return
		}
		quoted = append(quoted, fragment.Quote(n))
	}
	c.Linef("const exposed = new Set([%s]);", strings.Join(quoted, ", "))
}

// exposureCheck makes install a no-op on globals the construct is not
// exposed on.
func (b *builder) exposureCheck(c *fragment.Code) {
	if b.exposeAll {
		return
	}
	c.Blockf(func(c *fragment.Code) {
		c.Line("return;")
	}, "if (!globalNames.some(globalName => exposed.has(globalName))) {")
}

// unforgeableProp is an own property of every instance that must not be
// reconfigured.
type unforgeableProp struct {
	name string
	op   bool
}

// surface is the member layout of one interface: which methods land on the
// prototype, on the constructor and on every instance.
type surface struct {
	proto, static, instance []*method

	protoEnum, staticEnum []string
	unforgeable           []unforgeableProp
	unscopable            []string
	iterProps             []string
}

func (s *surface) place(m *method, name string, static, instance bool) {
	switch {
	case static:
		s.static = append(s.static, m)
		if name != "" {
			s.staticEnum = append(s.staticEnum, name)
		}
	case instance:
		s.instance = append(s.instance, m)
	default:
		s.proto = append(s.proto, m)
		if name != "" {
			s.protoEnum = append(s.protoEnum, name)
		}
	}
}

func (s *surface) unforgeableNames() []string {
	out := make([]string, 0, len(s.unforgeable))
	for _, p := range s.unforgeable {
		out = append(out, p.name)
	}
	return out
}

// surface generates every member of i and sorts it onto its target.
func (b *builder) surface(i *semantic.Interface) (*surface, error) {
	s := &surface{}
	f := &i.Features
	taken := make(map[string]bool)

	for _, static := range []bool{false, true} {
		names, byName := i.Operations(static)
		for _, name := range names {
			ops := byName[name]
			m, err := b.operation(name, ops, static)
			if err != nil {
				return nil, err
			}
			unforgeable := false
			for _, op := range ops {
				if isUnforgeable(op.Annotations) {
					unforgeable = true
				}
				if !static && ast.HasAnnotation(op.Annotations, "Unscopable") {
					s.unscopable = append(s.unscopable, name)
				}
			}
			if unforgeable && !static {
				s.unforgeable = append(s.unforgeable, unforgeableProp{name: name, op: true})
			}
			s.place(m, name, static, !static && (f.Global || unforgeable))
			if !static {
				taken[name] = true
			}
		}
	}

	var stringifier ast.InterfaceMember
	hasStringifier := false
	for _, member := range i.Members {
		switch m := member.(type) {
		case *ast.Attribute:
			ms, err := b.attribute(m)
			if err != nil {
				return nil, err
			}
			unforgeable := !m.Static && isUnforgeable(m.Annotations)
			for _, am := range ms {
				s.place(am, "", m.Static, !m.Static && (f.Global || unforgeable))
			}
			// accessors are made enumerable once per name
			if m.Static {
				s.staticEnum = append(s.staticEnum, m.Name)
			} else if !f.Global && !unforgeable {
				s.protoEnum = append(s.protoEnum, m.Name)
			}
			if unforgeable {
				s.unforgeable = append(s.unforgeable, unforgeableProp{name: m.Name})
			}
			if !m.Static && ast.HasAnnotation(m.Annotations, "Unscopable") {
				s.unscopable = append(s.unscopable, m.Name)
			}
			if m.Stringifier && !hasStringifier {
				stringifier, hasStringifier = m, true
			}
			if !m.Static {
				taken[m.Name] = true
			}
		case *ast.Operation:
			if m.Specialization == "stringifier" && !hasStringifier {
				stringifier, hasStringifier = m, true
			}
		}
	}
	for _, op := range i.CustomOps {
		if op.Name == "stringifier" && !hasStringifier {
			hasStringifier = true
		}
	}
	if hasStringifier && !taken["toString"] {
		instance := f.Global || isUnforgeable(memberAnnotations(stringifier))
		s.place(b.stringifier(stringifier), "toString", false, instance)
		taken["toString"] = true
	}
	for _, op := range i.CustomOps {
		if (op.Name == "serializer" || op.Name == "jsonifier") && !taken["toJSON"] {
			s.place(b.jsonifier(), "toJSON", false, f.Global)
			taken["toJSON"] = true
		}
	}

	if f.Global && (f.Iterable != nil || f.AsyncIterable != nil) {
		return nil, errors.AssertionFailedf("iterable declarations cannot be installed on instances of [Global] interface %s", i.Name)
	}
	if f.HasPairIterator() {
		for _, m := range b.pairIterableMethods() {
			name := m.head[:strings.IndexByte(m.head, '(')]
			s.place(m, name, false, false)
		}
	}
	if f.AsyncIterable != nil {
		ms, err := b.asyncIterableMethods(f.AsyncIterable)
		if err != nil {
			return nil, err
		}
		for _, m := range ms {
			name := m.head[:strings.IndexByte(m.head, '(')]
			s.place(m, name, false, false)
		}
	}
	props, err := b.iterableProperties(f, fragment.Local(i.Name))
	if err != nil {
		return nil, err
	}
	s.iterProps = props
	return s, nil
}

func memberAnnotations(m ast.InterfaceMember) []*ast.Annotation {
	if m == nil {
		return nil
	}
	return ast.Annotations(m)
}

// iface generates the module of an interface.
func (b *builder) iface(i *semantic.Interface) error {
	if err := b.requireUtils(); err != nil {
		return err
	}
	if err := b.require("Impl", b.g.ImplPath(i.Name)); err != nil {
		return err
	}
	f := &i.Features

	// a parent outside the context is installed by someone else; the class
	// then has no extends clause
	var parent string
	if i.Inherits != "" {
		if _, ok := b.g.ctx.Interfaces[i.Inherits]; ok {
			parent = i.Inherits
			if err := b.requireConstruct(parent); err != nil {
				return err
			}
		}
	}
	for _, src := range i.Implements {
		if err := b.requireConstruct(src); err != nil {
			return err
		}
	}

	s, err := b.surface(i)
	if err != nil {
		return err
	}

	c := b.code()
	c.Line("const implSymbol = utils.implSymbol;")
	c.Line("const ctorRegistrySymbol = utils.ctorRegistrySymbol;")
	c.Blank()
	c.Linef("const interfaceName = %s;", fragment.Quote(i.Name))
	c.Blank()
	b.membership(c)
	c.Blank()
	b.iteratorFactories(c, f)
	b.construction(c, i, parent, s)
	c.Blank()

	if f.LegacyPlatformObject {
		if err := b.proxyHandler(c, newLPO(i, s.unforgeableNames())); err != nil {
			return err
		}
		c.Blank()
	}

	b.exposed(c, i.Exposure(b.g.opts.DefaultExposure))
	c.Blank()
	return b.install(c, i, parent, s)
}

// membership emits is, isImpl and convert. Interfaces that mix this one in
// at runtime register their own is in _mixedIntoPredicates.
func (b *builder) membership(c *fragment.Code) {
	c.Line("exports._mixedIntoPredicates = [];")
	c.Block("exports.is = value => {", "};", func(c *fragment.Code) {
		c.Blockf(func(c *fragment.Code) {
			c.Line("return true;")
		}, "if (utils.isObject(value) && utils.hasOwn(value, implSymbol) && value[implSymbol] instanceof Impl.implementation) {")
		c.Blockf(func(c *fragment.Code) {
			c.Blockf(func(c *fragment.Code) {
				c.Line("return true;")
			}, "if (isMixedInto(value)) {")
		}, "for (const isMixedInto of exports._mixedIntoPredicates) {")
		c.Line("return false;")
	})
	c.Block("exports.isImpl = value => {", "};", func(c *fragment.Code) {
		c.Blockf(func(c *fragment.Code) {
			c.Line("return true;")
		}, "if (utils.isObject(value) && value instanceof Impl.implementation) {")
		c.Line("const wrapper = utils.wrapperForImpl(value);")
		c.Blockf(func(c *fragment.Code) {
			c.Line("return false;")
		}, "if (!wrapper) {")
		c.Blockf(func(c *fragment.Code) {
			c.Blockf(func(c *fragment.Code) {
				c.Line("return true;")
			}, "if (isMixedInto(wrapper)) {")
		}, "for (const isMixedInto of exports._mixedIntoPredicates) {")
		c.Line("return false;")
	})
	c.Block(`exports.convert = (globalObject, value, { context = "The provided value" } = {}) => {`, "};", func(c *fragment.Code) {
		c.Blockf(func(c *fragment.Code) {
			c.Line("return utils.implForWrapper(value);")
		}, "if (exports.is(value)) {")
		throwTypeError(c, fmt.Sprintf(`context + %s`, fragment.Quote(fmt.Sprintf(" is not of type '%s'.", b.name))))
	})
}

// construction emits makeWrapper, create, createImpl, _internalSetup and
// setup.
func (b *builder) construction(c *fragment.Code, i *semantic.Interface, parent string, s *surface) {
	c.Block("function makeWrapper(globalObject, newTarget) {", "}", func(c *fragment.Code) {
		c.Line("let proto;")
		c.Blockf(func(c *fragment.Code) {
			c.Line("proto = newTarget.prototype;")
		}, "if (newTarget !== undefined) {")
		c.Blockf(func(c *fragment.Code) {
			c.Line("proto = utils.getInterfaceCtor(globalObject, interfaceName).prototype;")
		}, "if (!utils.isObject(proto)) {")
		c.Line("return Object.create(proto);")
	})
	c.Blank()

	c.Block("exports.create = (globalObject, constructorArgs, privateData) => {", "};", func(c *fragment.Code) {
		c.Line("const wrapper = makeWrapper(globalObject);")
		c.Line("return exports.setup(wrapper, globalObject, constructorArgs, privateData);")
	})
	c.Blank()
	c.Block("exports.createImpl = (globalObject, constructorArgs, privateData) => {", "};", func(c *fragment.Code) {
		c.Line("const wrapper = exports.create(globalObject, constructorArgs, privateData);")
		c.Line("return utils.implForWrapper(wrapper);")
	})
	c.Blank()

	c.Block("exports._internalSetup = (wrapper, globalObject) => {", "};", func(c *fragment.Code) {
		if parent != "" {
			c.Linef("%s._internalSetup(wrapper, globalObject);", fragment.Local(parent))
		}
		if len(s.instance) > 0 {
			c.Block("utils.define(wrapper, {", "});", func(c *fragment.Code) {
				objectMethods(c, s.instance)
			})
		}
		if len(s.unforgeable) > 0 {
			c.Block("Object.defineProperties(wrapper, {", "});", func(c *fragment.Code) {
				for _, p := range s.unforgeable {
					if p.op {
						c.Linef("%s: { configurable: false, writable: false },", fragment.Key(p.name))
					} else {
						c.Linef("%s: { configurable: false },", fragment.Key(p.name))
					}
				}
			})
		}
	})
	c.Blank()

	c.Block("exports.setup = (wrapper, globalObject, constructorArgs = [], privateData = {}) => {", "};", func(c *fragment.Code) {
		c.Line("privateData.wrapper = wrapper;")
		c.Blank()
		c.Line("exports._internalSetup(wrapper, globalObject);")
		c.Line("Object.defineProperty(wrapper, implSymbol, {")
		c.Line("  value: new Impl.implementation(constructorArgs, privateData),")
		c.Line("  configurable: true")
		c.Line("});")
		c.Blank()
		if i.Features.LegacyPlatformObject {
			c.Line("wrapper = new Proxy(wrapper, proxyHandlerFor(globalObject));")
			c.Blank()
		}
		c.Line("wrapper[implSymbol][utils.wrapperSymbol] = wrapper;")
		c.Blockf(func(c *fragment.Code) {
			c.Line("Impl.init(wrapper[implSymbol], privateData);")
		}, "if (Impl.init) {")
		c.Line("return wrapper;")
	})
}

// constructor emits the class constructor: argument conversion followed by
// setup on a wrapper whose prototype comes from new.target.
func (b *builder) constructor(c *fragment.Code, i *semantic.Interface) error {
	ctors := i.Constructors()
	if len(ctors) == 0 {
		c.Block("constructor() {", "}", func(c *fragment.Code) {
			throwTypeError(c, fragment.Quote("Illegal constructor"))
		})
		return nil
	}
	plan := overload.Resolve(overload.FromParameterLists(ctors))
	args, err := b.arguments(plan, fmt.Sprintf("Failed to construct '%s'", b.name))
	if err != nil {
		return err
	}
	c.Block("constructor("+b.paramList(plan.Min.Names())+") {", "}", func(c *fragment.Code) {
		c.Append(args)
		c.Line("return exports.setup(makeWrapper(globalObject, new.target), globalObject, args);")
	})
	return nil
}

// install emits exports.install. Everything that depends on the global
// object (the class, iterator prototypes, runtime mixins) is created here.
func (b *builder) install(c *fragment.Code, i *semantic.Interface, parent string, s *surface) error {
	f := &i.Features
	cls := fragment.Local(i.Name)
	consts := constantsOf(i)

	var err error
	c.Block("exports.install = (globalObject, globalNames) => {", "};", func(c *fragment.Code) {
		b.exposureCheck(c)
		c.Blank()
		c.Line("const ctorRegistry = utils.initCtorRegistry(globalObject);")
		extends := ""
		if parent != "" {
			q := fragment.Quote(parent)
			c.Blockf(func(c *fragment.Code) {
				c.Linef("throw new Error(%s);",
					fragment.Quote(fmt.Sprintf("Internal error: attempting to evaluate %s before %s", i.Name, parent)))
			}, "if (ctorRegistry[%s] === undefined) {", q)
			extends = fmt.Sprintf(" extends ctorRegistry[%s]", q)
		}
		c.Blank()

		if f.HasPairIterator() {
			b.pairIteratorPrototype(c)
			c.Blank()
		}
		if f.AsyncIterable != nil {
			b.asyncIteratorPrototype(c, f.AsyncIterable)
			c.Blank()
		}

		c.Block(fmt.Sprintf("class %s%s {", cls, extends), "}", func(c *fragment.Code) {
			if err = b.constructor(c, i); err != nil {
				return
			}
			c.Blank()
			classMethods(c, s.proto)
			classMethods(c, s.static)
		})
		if err != nil {
			return
		}

		c.Block(fmt.Sprintf("Object.defineProperties(%s.prototype, {", cls), "});", func(c *fragment.Code) {
			for _, n := range s.protoEnum {
				c.Linef("%s: { enumerable: true },", fragment.Key(n))
			}
			for _, p := range s.iterProps {
				c.Line(p + ",")
			}
			if len(s.unscopable) > 0 {
				keys := make([]string, 0, len(s.unscopable))
				for _, n := range s.unscopable {
					keys = append(keys, fragment.Key(n)+": true")
				}
				c.Linef("[Symbol.unscopables]: { value: { %s, __proto__: null }, configurable: true },", strings.Join(keys, ", "))
			}
			c.Linef("[Symbol.toStringTag]: { value: %s, configurable: true }", fragment.Quote(i.Name))
		})
		if len(s.staticEnum) > 0 {
			c.Block(fmt.Sprintf("Object.defineProperties(%s, {", cls), "});", func(c *fragment.Code) {
				for _, n := range s.staticEnum {
					c.Linef("%s: { enumerable: true },", fragment.Key(n))
				}
			})
		}
		b.constants(c, cls, consts)
		b.constants(c, cls+".prototype", consts)

		for _, src := range i.Implements {
			b.runtimeMixin(c, cls, src)
		}

		c.Blank()
		c.Linef("ctorRegistry[interfaceName] = %s;", cls)
		if ast.HasAnnotation(i.Annotations, "LegacyNoInterfaceObject", "NoInterfaceObject") {
			return
		}
		c.Blank()
		c.Line("Object.defineProperty(globalObject, interfaceName, {")
		c.Line("  configurable: true,")
		c.Line("  writable: true,")
		c.Linef("  value: %s", cls)
		c.Line("});")
	})
	return err
}

// runtimeMixin copies the prototype members of src onto the class without
// replacing names it already has, and makes src's brand checks accept
// instances of this interface.
func (b *builder) runtimeMixin(c *fragment.Code, cls, src string) {
	mod := fragment.Local(src)
	q := fragment.Quote(src)
	c.Blockf(func(c *fragment.Code) {
		c.Linef("%s._mixedIntoPredicates.push(exports.is);", mod)
	}, "if (!%s._mixedIntoPredicates.includes(exports.is)) {", mod)
	c.Blockf(func(c *fragment.Code) {
		c.Linef("%s.install(globalObject, globalNames);", mod)
	}, "if (ctorRegistry[%s] === undefined) {", q)
	c.Blockf(func(c *fragment.Code) {
		c.Linef("utils.mixin(%s.prototype, ctorRegistry[%s].prototype);", cls, q)
	}, "if (ctorRegistry[%s] !== undefined) {", q)
}

func constantsOf(i *semantic.Interface) []*ast.Constant {
	var out []*ast.Constant
	for _, m := range i.Members {
		if k, ok := m.(*ast.Constant); ok {
			out = append(out, k)
		}
	}
	return out
}
