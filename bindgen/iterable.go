package bindgen

import (
	"fmt"

	"github.com/dennwc/webidl2js/ast"
	"github.com/dennwc/webidl2js/errors"
	"github.com/dennwc/webidl2js/fragment"
	"github.com/dennwc/webidl2js/overload"
	"github.com/dennwc/webidl2js/semantic"
)

// iteratorTag is the Symbol.toStringTag of the iterator prototypes.
func (b *builder) iteratorTag(async bool) string {
	if async {
		return b.name + " AsyncIterator"
	}
	return b.name + " Iterator"
}

// pairIteratorPrototype emits the iterator prototype of a pair iterable.
// next takes a fresh snapshot of the pairs on every call, so entries added
// or removed during iteration are observed.
func (b *builder) pairIteratorPrototype(c *fragment.Code) {
	tag := b.iteratorTag(false)
	c.Block("const IteratorPrototype = Object.create(utils.IteratorPrototype, {", "});", func(c *fragment.Code) {
		c.Linef("[Symbol.toStringTag]: { value: %s, configurable: true }", fragment.Quote(tag))
	})
	c.Block("utils.define(IteratorPrototype, {", "});", func(c *fragment.Code) {
		c.Block("next() {", "}", func(c *fragment.Code) {
			c.Line("const internal = this && this[utils.iterInternalSymbol];")
			c.Blockf(func(c *fragment.Code) {
				throwTypeError(c, fragment.Quote(fmt.Sprintf("next() called on a value that is not a %s object", tag)))
			}, "if (!internal) {")
			c.Line("const { target, kind, index } = internal;")
			c.Line("const values = Array.from(target[implSymbol]);")
			c.Blockf(func(c *fragment.Code) {
				c.Line("return { value: undefined, done: true };")
			}, "if (index >= values.length) {")
			c.Line("const pair = values[index];")
			c.Line("internal.index = index + 1;")
			c.Line("return utils.iteratorResult(pair.map(utils.tryWrapperForImpl), kind);")
		})
	})
	c.Linef("ctorRegistry[%s] = IteratorPrototype;", fragment.Quote(tag))
}

// asyncIteratorPrototype emits the async iterator prototype. Calls to next
// are chained on the ongoing promise; return exists only with
// [HasReturnSteps].
func (b *builder) asyncIteratorPrototype(c *fragment.Code, it *ast.Iterable) {
	tag := b.iteratorTag(true)
	pair := it.Key != nil
	notIter := fragment.Quote(fmt.Sprintf("called on a value that is not a %s object", tag))

	c.Block("const AsyncIteratorPrototype = Object.create(utils.AsyncIteratorPrototype, {", "});", func(c *fragment.Code) {
		c.Linef("[Symbol.toStringTag]: { value: %s, configurable: true }", fragment.Quote(tag))
	})
	c.Block("utils.define(AsyncIteratorPrototype, {", "});", func(c *fragment.Code) {
		c.Block("next() {", "},", func(c *fragment.Code) {
			c.Line("const internal = this && this[utils.iterInternalSymbol];")
			c.Blockf(func(c *fragment.Code) {
				c.Linef(`return globalObject.Promise.reject(new globalObject.TypeError("next() " + %s));`, notIter)
			}, "if (!internal) {")
			c.Blank()
			c.Block("const nextSteps = () => {", "};", func(c *fragment.Code) {
				c.Blockf(func(c *fragment.Code) {
					c.Line("return globalObject.Promise.resolve({ value: undefined, done: true });")
				}, "if (internal.isFinished) {")
				c.Line("const nextPromise = globalObject.Promise.resolve(internal.target[implSymbol][utils.asyncIteratorNext](this));")
				c.Block("return nextPromise.then(", ");", func(c *fragment.Code) {
					c.Block("next => {", "},", func(c *fragment.Code) {
						c.Line("internal.ongoingPromise = null;")
						c.Blockf(func(c *fragment.Code) {
							c.Line("internal.isFinished = true;")
							c.Line("return { value: undefined, done: true };")
						}, "if (next === utils.asyncIteratorEOI) {")
						if pair {
							c.Line("return utils.iteratorResult(next.map(utils.tryWrapperForImpl), internal.kind);")
						} else {
							c.Line("return { value: utils.tryWrapperForImpl(next), done: false };")
						}
					})
					c.Block("reason => {", "}", func(c *fragment.Code) {
						c.Line("internal.ongoingPromise = null;")
						c.Line("internal.isFinished = true;")
						c.Line("throw reason;")
					})
				})
			})
			c.Blank()
			c.Line("internal.ongoingPromise = internal.ongoingPromise ?")
			c.Line("  internal.ongoingPromise.then(nextSteps, nextSteps) :")
			c.Line("  nextSteps();")
			c.Line("return internal.ongoingPromise;")
		})
		if !ast.HasAnnotation(it.Annotations, "HasReturnSteps") {
			return
		}
		c.Block("return(value) {", "}", func(c *fragment.Code) {
			c.Line("const internal = this && this[utils.iterInternalSymbol];")
			c.Blockf(func(c *fragment.Code) {
				c.Linef(`return globalObject.Promise.reject(new globalObject.TypeError("return() " + %s));`, notIter)
			}, "if (!internal) {")
			c.Blank()
			c.Block("const returnSteps = () => {", "};", func(c *fragment.Code) {
				c.Blockf(func(c *fragment.Code) {
					c.Line("return globalObject.Promise.resolve({ value, done: true });")
				}, "if (internal.isFinished) {")
				c.Line("internal.isFinished = true;")
				c.Line("return globalObject.Promise.resolve(internal.target[implSymbol][utils.asyncIteratorReturn](this, value));")
			})
			c.Blank()
			c.Line("const returnPromise = internal.ongoingPromise ?")
			c.Line("  internal.ongoingPromise.then(returnSteps, returnSteps) :")
			c.Line("  returnSteps();")
			c.Line("return returnPromise.then(() => ({ value, done: true }));")
		})
	})
	c.Linef("ctorRegistry[%s] = AsyncIteratorPrototype;", fragment.Quote(tag))
}

// iteratorFactories emits the exports creating iterator objects.
func (b *builder) iteratorFactories(c *fragment.Code, f *semantic.Features) {
	factory := func(name, tag string) {
		c.Block(fmt.Sprintf("exports.%s = (globalObject, target, kind) => {", name), "};", func(c *fragment.Code) {
			c.Line("const ctorRegistry = globalObject[ctorRegistrySymbol];")
			c.Linef("const iteratorPrototype = ctorRegistry[%s];", fragment.Quote(tag))
			c.Line("const iterator = Object.create(iteratorPrototype);")
			c.Line("Object.defineProperty(iterator, utils.iterInternalSymbol, {")
			c.Line("  value: { target, kind, index: 0, ongoingPromise: null, isFinished: false },")
			c.Line("  configurable: true")
			c.Line("});")
			c.Line("return iterator;")
		})
		c.Blank()
	}
	if f.HasPairIterator() {
		factory("createDefaultIterator", b.iteratorTag(false))
	}
	if f.AsyncIterable != nil {
		factory("createDefaultAsyncIterator", b.iteratorTag(true))
	}
}

// pairIterableMethods are keys, values, entries and forEach of a pair
// iterable. forEach re-reads the pairs after every callback.
func (b *builder) pairIterableMethods() []*method {
	var out []*method
	for _, k := range []struct{ name, kind string }{
		{"keys", "key"},
		{"values", "value"},
		{"entries", "key+value"},
	} {
		body := &fragment.Code{}
		b.brandCheck(body, k.name, false)
		body.Linef("return exports.createDefaultIterator(globalObject, esValue, %s);", fragment.Quote(k.kind))
		out = append(out, &method{head: k.name + "()", body: body})
	}

	body := &fragment.Code{}
	b.brandCheck(body, "forEach", false)
	prefix := fmt.Sprintf("Failed to execute 'forEach' on '%s'", b.name)
	body.Blockf(func(c *fragment.Code) {
		throwTypeError(c, fragment.Quote(prefix+": 1 argument required, but only 0 present."))
	}, "if (arguments.length < 1) {")
	body.Blockf(func(c *fragment.Code) {
		throwTypeError(c, fragment.Quote(prefix+": The callback provided as parameter 1 is not a function."))
	}, `if (typeof callback !== "function") {`)
	body.Line("const thisArg = arguments[1];")
	body.Line("let pairs = Array.from(esValue[implSymbol]);")
	body.Line("let i = 0;")
	body.Blockf(func(c *fragment.Code) {
		c.Line("const [key, value] = pairs[i].map(utils.tryWrapperForImpl);")
		c.Line("callback.call(thisArg, value, key, esValue);")
		c.Line("pairs = Array.from(esValue[implSymbol]);")
		c.Line("i++;")
	}, "while (i < pairs.length) {")
	out = append(out, &method{head: "forEach(callback)", body: body})
	return out
}

// asyncIterableMethods are the methods returning async iterators; the
// implementation's initialization hook runs with the converted arguments.
func (b *builder) asyncIterableMethods(it *ast.Iterable) ([]*method, error) {
	kinds := []struct{ name, kind string }{{"values", "value"}}
	if it.Key != nil {
		kinds = []struct{ name, kind string }{
			{"keys", "key"},
			{"values", "value"},
			{"entries", "key+value"},
		}
	}
	plan := overload.Resolve([]overload.Signature{{Decl: it, Params: it.Parameters}})
	var out []*method
	for _, k := range kinds {
		args, err := b.arguments(plan, fmt.Sprintf("Failed to execute '%s' on '%s'", k.name, b.name))
		if err != nil {
			return nil, err
		}
		body := &fragment.Code{}
		b.brandCheck(body, k.name, false)
		body.Append(args)
		body.Linef("const asyncIterator = exports.createDefaultAsyncIterator(globalObject, esValue, %s);", fragment.Quote(k.kind))
		body.Blockf(func(c *fragment.Code) {
			c.Line("esValue[implSymbol][utils.asyncIteratorInit](asyncIterator, args);")
		}, "if (esValue[implSymbol][utils.asyncIteratorInit]) {")
		body.Line("return asyncIterator;")
		out = append(out, &method{head: k.name + "(" + b.paramList(plan.Min.Names()) + ")", body: body})
	}
	return out, nil
}

// iterableProperties lists the prototype property definitions an iterable
// adds after the class body.
func (b *builder) iterableProperties(f *semantic.Features, cls string) ([]string, error) {
	var props []string
	if f.Iterable != nil {
		switch {
		case f.HasPairIterator():
			props = append(props, fmt.Sprintf("[Symbol.iterator]: { value: %s.prototype.entries, configurable: true, writable: true }", cls))
		case f.SupportsIndexedProperties():
			for _, name := range []string{"keys", "values", "entries", "forEach"} {
				props = append(props, fmt.Sprintf(
					"%s: { value: globalObject.Array.prototype.%s, configurable: true, enumerable: true, writable: true }", name, name))
			}
			props = append(props, "[Symbol.iterator]: { value: globalObject.Array.prototype.values, configurable: true, writable: true }")
		default:
			return nil, errors.AssertionFailedf("value iterator on %s requires an indexed property getter", b.name)
		}
	}
	if it := f.AsyncIterable; it != nil {
		method := "values"
		if it.Key != nil {
			method = "entries"
		}
		props = append(props, fmt.Sprintf(
			"[utils.asyncIteratorSymbol]: { value: %s.prototype.%s, configurable: true, writable: true }", cls, method))
	}
	return props, nil
}
