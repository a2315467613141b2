package bindgen

import (
	"fmt"
	"strings"

	"github.com/dennwc/webidl2js/ast"
	"github.com/dennwc/webidl2js/convert"
	"github.com/dennwc/webidl2js/fragment"
	"github.com/dennwc/webidl2js/semantic"
)

// lpo holds what the proxy of a legacy platform object depends on.
type lpo struct {
	f *semantic.Features

	indexed, named bool
	indexedSetter  bool
	namedSetter    bool
	namedDeleter   bool
	boolDeleter    bool

	overrideBuiltins bool
	unenumerable     bool
	unforgeable      []string
}

func newLPO(i *semantic.Interface, unforgeable []string) *lpo {
	f := &i.Features
	l := &lpo{
		f:                f,
		indexed:          f.SupportsIndexedProperties(),
		named:            f.SupportsNamedProperties(),
		indexedSetter:    f.IndexedSetter != nil,
		namedSetter:      f.NamedSetter != nil,
		namedDeleter:     f.NamedDeleter != nil,
		overrideBuiltins: ast.HasAnnotation(i.Annotations, "LegacyOverrideBuiltIns", "OverrideBuiltins"),
		unenumerable:     ast.HasAnnotation(i.Annotations, "LegacyUnenumerableNamedProperties"),
		unforgeable:      unforgeable,
	}
	if l.namedDeleter {
		l.boolDeleter = ast.Named(f.NamedDeleter.Return) == "boolean"
	}
	return l
}

// step is one (predicate, action) pair of a trap. when is evaluated at
// generation time against the interface flags.
type step struct {
	when func(l *lpo) bool
	emit func(l *lpo, c *fragment.Code)
}

type trap struct {
	name   string
	params string
	steps  []step
}

func always(*lpo) bool       { return true }
func hasIndexed(l *lpo) bool { return l.indexed }
func hasNamed(l *lpo) bool   { return l.named }

// symbolPassthrough forwards symbol keys to the target unchanged.
func symbolPassthrough(call string) step {
	return step{when: always, emit: func(_ *lpo, c *fragment.Code) {
		c.Blockf(func(c *fragment.Code) {
			c.Linef("return %s;", call)
		}, `if (typeof P === "symbol") {`)
	}}
}

func line(s string) step {
	return step{when: always, emit: func(_ *lpo, c *fragment.Code) { c.Line(s) }}
}

// traps is the full handler of a legacy platform object. Every trap that
// looks at a property goes through the same helpers (supportsPropertyIndex,
// supportsPropertyName, isNamedPropertyVisible, legacyGetOwnProperty), so
// the visibility rules cannot drift apart between traps.
var traps = []trap{
	{
		name:   "get",
		params: "target, P, receiver",
		steps: []step{
			symbolPassthrough("Reflect.get(target, P, receiver)"),
			line("const desc = legacyGetOwnProperty(target, P, false);"),
			{when: always, emit: func(_ *lpo, c *fragment.Code) {
				c.Blockf(func(c *fragment.Code) {
					c.Line("const parent = Object.getPrototypeOf(target);")
					c.Blockf(func(c *fragment.Code) {
						c.Line("return undefined;")
					}, "if (parent === null) {")
					c.Line("return Reflect.get(target, P, receiver);")
				}, "if (desc === undefined) {")
				c.Blockf(func(c *fragment.Code) {
					c.Line("return desc.value;")
				}, "if (!desc.get && !desc.set) {")
				c.Line("const getter = desc.get;")
				c.Blockf(func(c *fragment.Code) {
					c.Line("return undefined;")
				}, "if (getter === undefined) {")
				c.Line("return Reflect.apply(getter, receiver, []);")
			}},
		},
	},
	{
		name:   "has",
		params: "target, P",
		steps: []step{
			symbolPassthrough("Reflect.has(target, P)"),
			line("const desc = legacyGetOwnProperty(target, P, false);"),
			{when: always, emit: func(_ *lpo, c *fragment.Code) {
				c.Blockf(func(c *fragment.Code) {
					c.Line("return true;")
				}, "if (desc !== undefined) {")
				c.Line("const parent = Object.getPrototypeOf(target);")
				c.Blockf(func(c *fragment.Code) {
					c.Line("return Reflect.has(parent, P);")
				}, "if (parent !== null) {")
				c.Line("return false;")
			}},
		},
	},
	{
		name:   "ownKeys",
		params: "target",
		steps: []step{
			line("const keys = new Set();"),
			{when: hasIndexed, emit: func(_ *lpo, c *fragment.Code) {
				c.Line("const indices = Array.from(target[implSymbol][utils.supportedPropertyIndices])")
				c.Line("  .filter(index => supportsPropertyIndex(target, index >>> 0))")
				c.Line("  .sort((a, b) => a - b);")
				c.Blockf(func(c *fragment.Code) {
					c.Line("keys.add(`${index}`);")
				}, "for (const index of indices) {")
			}},
			{when: hasNamed, emit: func(_ *lpo, c *fragment.Code) {
				c.Blockf(func(c *fragment.Code) {
					c.Blockf(func(c *fragment.Code) {
						c.Line("keys.add(`${name}`);")
					}, "if (isNamedPropertyVisible(target, `${name}`, true)) {")
				}, "for (const name of target[implSymbol][utils.supportedPropertyNames]) {")
			}},
			{when: always, emit: func(_ *lpo, c *fragment.Code) {
				c.Blockf(func(c *fragment.Code) {
					c.Line("keys.add(key);")
				}, "for (const key of Reflect.ownKeys(target)) {")
				c.Line("return [...keys];")
			}},
		},
	},
	{
		name:   "getOwnPropertyDescriptor",
		params: "target, P",
		steps: []step{
			symbolPassthrough("Reflect.getOwnPropertyDescriptor(target, P)"),
			line("return legacyGetOwnProperty(target, P, false);"),
		},
	},
	{
		name:   "set",
		params: "target, P, V, receiver",
		steps: []step{
			symbolPassthrough("Reflect.set(target, P, V, receiver)"),
			{when: func(l *lpo) bool { return l.indexedSetter || l.namedSetter }, emit: func(l *lpo, c *fragment.Code) {
				c.Blockf(func(c *fragment.Code) {
					if l.indexedSetter {
						c.Blockf(func(c *fragment.Code) {
							c.Line("indexedSetValue(target, P >>> 0, V);")
							c.Line("return true;")
						}, "if (utils.isArrayIndexPropName(P)) {")
					}
					if l.namedSetter {
						c.Blockf(func(c *fragment.Code) {
							c.Line("namedSetValue(target, P, V);")
							c.Line("return true;")
						}, `if (typeof P === "string") {`)
					}
				}, "if (target[implSymbol][utils.wrapperSymbol] === receiver) {")
			}},
			{when: always, emit: func(l *lpo, c *fragment.Code) {
				if l.indexed {
					c.Line("const ownDesc = legacyGetOwnProperty(target, P, true);")
				} else {
					c.Line("const ownDesc = Reflect.getOwnPropertyDescriptor(target, P);")
				}
				c.Line("return utils.ordinarySetWithOwnDescriptor(target, P, V, receiver, ownDesc);")
			}},
		},
	},
	{
		name:   "defineProperty",
		params: "target, P, desc",
		steps: []step{
			symbolPassthrough("Reflect.defineProperty(target, P, desc)"),
			{when: hasIndexed, emit: func(l *lpo, c *fragment.Code) {
				c.Blockf(func(c *fragment.Code) {
					if !l.indexedSetter {
						c.Line("return false;")
						return
					}
					c.Blockf(func(c *fragment.Code) {
						c.Line("return false;")
					}, `if (utils.hasOwn(desc, "get") || utils.hasOwn(desc, "set")) {`)
					c.Line("indexedSetValue(target, P >>> 0, desc.value);")
					c.Line("return true;")
				}, "if (utils.isArrayIndexPropName(P)) {")
			}},
			{when: hasNamed, emit: func(l *lpo, c *fragment.Code) {
				guard := "if (!unforgeableNames.has(P)) {"
				if len(l.unforgeable) == 0 {
					guard = "{"
				}
				c.Block(guard, "}", func(c *fragment.Code) {
					c.Line("const creating = !supportsPropertyName(target, P);")
					cond := "if (!utils.hasOwn(target, P)) {"
					if l.overrideBuiltins {
						cond = "{"
					}
					c.Block(cond, "}", func(c *fragment.Code) {
						if !l.namedSetter {
							c.Blockf(func(c *fragment.Code) {
								c.Line("return false;")
							}, "if (!creating) {")
							return
						}
						c.Blockf(func(c *fragment.Code) {
							c.Line("return false;")
						}, `if (utils.hasOwn(desc, "get") || utils.hasOwn(desc, "set")) {`)
						c.Line("namedSetValue(target, P, desc.value);")
						c.Line("return true;")
					})
				})
			}},
			line("return Reflect.defineProperty(target, P, desc);"),
		},
	},
	{
		name:   "deleteProperty",
		params: "target, P",
		steps: []step{
			symbolPassthrough("Reflect.deleteProperty(target, P)"),
			{when: hasIndexed, emit: func(_ *lpo, c *fragment.Code) {
				c.Blockf(func(c *fragment.Code) {
					c.Line("return !supportsPropertyIndex(target, P >>> 0);")
				}, "if (utils.isArrayIndexPropName(P)) {")
			}},
			{when: hasNamed, emit: func(l *lpo, c *fragment.Code) {
				c.Blockf(func(c *fragment.Code) {
					switch {
					case !l.namedDeleter:
						c.Line("return false;")
					case l.boolDeleter:
						c.Linef("return Boolean(%s);", l.namedDeleteCall("target", "P"))
					default:
						c.Linef("%s;", l.namedDeleteCall("target", "P"))
						c.Line("return true;")
					}
				}, "if (isNamedPropertyVisible(target, P, false)) {")
			}},
			line("return Reflect.deleteProperty(target, P);"),
		},
	},
	{
		name:   "preventExtensions",
		params: "",
		steps:  []step{line("return false;")},
	},
}

// specialCall invokes a special operation: by name when it has one, through
// the well-known symbol otherwise.
func specialCall(op *ast.Operation, symbol, obj string, args ...string) string {
	callee := obj + "[implSymbol][utils." + symbol + "]"
	if op != nil && op.Name != "" {
		callee = fragment.Prop(obj+"[implSymbol]", op.Name)
	}
	return callee + "(" + strings.Join(args, ", ") + ")"
}

func (l *lpo) indexedGetCall(obj, index string) string {
	return specialCall(l.f.IndexedGetter, "indexedGet", obj, index)
}

func (l *lpo) namedGetCall(obj, name string) string {
	return specialCall(l.f.NamedGetter, "namedGet", obj, name)
}

func (l *lpo) namedDeleteCall(obj, name string) string {
	return specialCall(l.f.NamedDeleter, "namedDelete", obj, name)
}

// proxyHandler emits proxyHandlerFor(globalObject), which caches one
// handler per global object.
func (b *builder) proxyHandler(c *fragment.Code, l *lpo) error {
	helpers, err := b.proxyHelpers(l)
	if err != nil {
		return err
	}
	c.Line("const proxyHandlerCache = new WeakMap();")
	c.Block("function proxyHandlerFor(globalObject) {", "}", func(c *fragment.Code) {
		c.Line("let handler = proxyHandlerCache.get(globalObject);")
		c.Blockf(func(c *fragment.Code) {
			c.Line("return handler;")
		}, "if (handler !== undefined) {")
		c.Blank()
		c.Append(helpers)
		c.Block("handler = {", "};", func(c *fragment.Code) {
			for _, t := range traps {
				c.Block(fmt.Sprintf("%s(%s) {", t.name, t.params), "},", func(c *fragment.Code) {
					for _, s := range t.steps {
						if s.when(l) {
							s.emit(l, c)
						}
					}
				})
			}
		})
		c.Blank()
		c.Line("proxyHandlerCache.set(globalObject, handler);")
		c.Line("return handler;")
	})
	return nil
}

// proxyHelpers emits the predicates and accessors shared by the traps.
func (b *builder) proxyHelpers(l *lpo) (*fragment.Code, error) {
	c := &fragment.Code{}
	if len(l.unforgeable) > 0 {
		quoted := make([]string, len(l.unforgeable))
		for i, n := range l.unforgeable {
			quoted[i] = fragment.Quote(n)
		}
		c.Linef("const unforgeableNames = new Set([%s]);", strings.Join(quoted, ", "))
		c.Blank()
	}

	if l.indexed {
		getter := l.f.IndexedGetter
		c.Block("function supportsPropertyIndex(target, index) {", "}", func(c *fragment.Code) {
			if a := ast.FindAnnotation(getter.Annotations, "WebIDL2JSValueAsUnsupported"); a != nil {
				c.Linef("return %s !== %s;", l.indexedGetCall("target", "index"), sentinel(a.Value))
				return
			}
			c.Line("return target[implSymbol][utils.supportsPropertyIndex](index);")
		})
		c.Blank()
	}
	if l.named {
		getter := l.f.NamedGetter
		c.Block("function supportsPropertyName(target, P) {", "}", func(c *fragment.Code) {
			if a := ast.FindAnnotation(getter.Annotations, "WebIDL2JSValueAsUnsupported"); a != nil {
				c.Linef("return %s !== %s;", l.namedGetCall("target", "P"), sentinel(a.Value))
				return
			}
			c.Line("return target[implSymbol][utils.supportsPropertyName](P);")
		})
		c.Blank()

		// a supported name is hidden by an own property; without
		// [LegacyOverrideBuiltIns] also by anything on the prototype chain
		c.Block("function isNamedPropertyVisible(target, P, supported) {", "}", func(c *fragment.Code) {
			c.Blockf(func(c *fragment.Code) {
				c.Line("return false;")
			}, "if (!supported && !supportsPropertyName(target, P)) {")
			c.Blockf(func(c *fragment.Code) {
				c.Line("return false;")
			}, "if (utils.hasOwn(target, P)) {")
			if l.overrideBuiltins {
				c.Line("return true;")
				return
			}
			c.Line("let prototype = Object.getPrototypeOf(target);")
			c.Blockf(func(c *fragment.Code) {
				c.Blockf(func(c *fragment.Code) {
					c.Line("return false;")
				}, "if (utils.hasOwn(prototype, P)) {")
				c.Line("prototype = Object.getPrototypeOf(prototype);")
			}, "while (prototype !== null) {")
			c.Line("return true;")
		})
		c.Blank()
	}

	c.Block("function legacyGetOwnProperty(target, P, ignoreNamedProps) {", "}", func(c *fragment.Code) {
		if l.indexed {
			c.Blockf(func(c *fragment.Code) {
				c.Line("const index = P >>> 0;")
				c.Blockf(func(c *fragment.Code) {
					c.Block("return {", "};", func(c *fragment.Code) {
						c.Linef("writable: %t,", l.indexedSetter)
						c.Line("enumerable: true,")
						c.Line("configurable: true,")
						c.Linef("value: utils.tryWrapperForImpl(%s)", l.indexedGetCall("target", "index"))
					})
				}, "if (supportsPropertyIndex(target, index)) {")
				c.Line("ignoreNamedProps = true;")
			}, "if (utils.isArrayIndexPropName(P)) {")
		}
		if l.named {
			c.Blockf(func(c *fragment.Code) {
				c.Block("return {", "};", func(c *fragment.Code) {
					c.Linef("writable: %t,", l.namedSetter)
					c.Linef("enumerable: %t,", !l.unenumerable)
					c.Line("configurable: true,")
					c.Linef("value: utils.tryWrapperForImpl(%s)", l.namedGetCall("target", "P"))
				})
			}, "if (!ignoreNamedProps && isNamedPropertyVisible(target, P, false)) {")
		}
		c.Line("return Reflect.getOwnPropertyDescriptor(target, P);")
	})
	c.Blank()

	if l.indexedSetter {
		code, err := b.setterHelper(l.f.IndexedSetter, "indexedSetValue", "index", "indexedSetNew", "indexedSetExisting", "supportsPropertyIndex")
		if err != nil {
			return nil, err
		}
		c.Append(code)
		c.Blank()
	}
	if l.namedSetter {
		code, err := b.setterHelper(l.f.NamedSetter, "namedSetValue", "P", "namedSetNew", "namedSetExisting", "supportsPropertyName")
		if err != nil {
			return nil, err
		}
		c.Append(code)
		c.Blank()
	}
	return c, nil
}

// setterHelper converts the value for an indexed or named setter and calls
// the new or existing variant of the implementation hook.
func (b *builder) setterHelper(op *ast.Operation, fn, key, setNew, setExisting, supports string) (*fragment.Code, error) {
	if err := assertOperation(op, 2, fmt.Sprintf("setter of %s", b.name)); err != nil {
		return nil, err
	}
	conv, err := b.convert(convert.Request{
		Type: op.Parameters[1].Type,
		Name: "value",
		Context: fmt.Sprintf(`%s + %s + %s`,
			fragment.Quote("Failed to set the '"), key,
			fragment.Quote(fmt.Sprintf("' property on '%s': The provided value", b.name))),
		Annotations: op.Parameters[1].Annotations,
	})
	if err != nil {
		return nil, err
	}
	c := &fragment.Code{}
	c.Block(fmt.Sprintf("function %s(target, %s, V) {", fn, key), "}", func(c *fragment.Code) {
		c.Line("let value = V;")
		c.Append(conv)
		if op.Name != "" {
			c.Linef("%s;", fragment.Prop("target[implSymbol]", op.Name)+"("+key+", value)")
			return
		}
		c.Linef("const creating = !%s(target, %s);", supports, key)
		c.Block("if (creating) {", "", func(c *fragment.Code) {
			c.Linef("target[implSymbol][utils.%s](%s, value);", setNew, key)
		})
		c.Block("} else {", "}", func(c *fragment.Code) {
			c.Linef("target[implSymbol][utils.%s](%s, value);", setExisting, key)
		})
	})
	return c, nil
}
