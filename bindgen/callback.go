package bindgen

import (
	"fmt"
	"strings"

	"github.com/dennwc/webidl2js/ast"
	"github.com/dennwc/webidl2js/convert"
	"github.com/dennwc/webidl2js/fragment"
	"github.com/dennwc/webidl2js/semantic"
)

// callbackParams returns the JS parameter list of a callback, the expression
// of the argument array it forwards and the parameter names in order.
func (b *builder) callbackParams(params []*ast.Parameter) (list, args string, names []string) {
	raw := make([]string, len(params))
	for i, p := range params {
		raw[i] = p.Name
	}
	names = b.paramNames(raw)
	decl := make([]string, len(params))
	for i, p := range params {
		decl[i] = names[i]
		if p.Variadic {
			decl[i] = "..." + names[i]
		}
	}
	list = strings.Join(decl, ", ")
	return list, "[" + list + "]", names
}

// wrapArguments turns implementation values into wrappers before they are
// handed to user code.
func wrapArguments(c *fragment.Code, params []*ast.Parameter, names []string) {
	for i, p := range params {
		n := names[i]
		if p.Variadic {
			c.Linef("%s = %s.map(utils.tryWrapperForImpl);", n, n)
			continue
		}
		c.Linef("%s = utils.tryWrapperForImpl(%s);", n, n)
	}
}

// isPromise reports whether a callback or operation returns a promise.
func (b *builder) isPromise(t ast.Type) bool {
	rt, err := b.g.ctx.ResolveType(t)
	if err != nil {
		return false
	}
	_, ok := ast.StripNullable(rt).(*ast.PromiseType)
	return ok
}

// returnValue converts callResult to the declared return type.
func (b *builder) returnValue(c *fragment.Code, t ast.Type, what string) error {
	if ast.IsVoid(t) {
		return nil
	}
	conv, err := b.convert(convert.Request{
		Type:    t,
		Name:    "callResult",
		Context: fragment.Quote(fmt.Sprintf("The return value of %s", what)),
	})
	if err != nil {
		return err
	}
	c.Append(conv)
	c.Line("return callResult;")
	return nil
}

func (b *builder) callbackFunction(cb *semantic.CallbackFunction) error {
	if err := b.requireUtils(); err != nil {
		return err
	}
	lenient := ast.HasAnnotation(cb.Annotations, "LegacyTreatNonObjectAsNull", "TreatNonObjectAsNull")
	promise := b.isPromise(cb.Return)
	list, args, names := b.callbackParams(cb.Parameters)
	what := fmt.Sprintf("'%s'", cb.Name)

	invoke := &fragment.Code{}
	call := func(c *fragment.Code) {
		c.Line("const thisArg = utils.tryWrapperForImpl(this);")
		wrapArguments(c, cb.Parameters, names)
		if lenient {
			c.Line("let callResult;")
			c.Blockf(func(c *fragment.Code) {
				c.Linef("callResult = Reflect.apply(value, thisArg, %s);", args)
			}, `if (typeof value === "function") {`)
		} else {
			c.Linef("let callResult = Reflect.apply(value, thisArg, %s);", args)
		}
	}
	var err error
	invoke.Blockf(func(c *fragment.Code) {
		if promise {
			c.Block("try {", "", func(c *fragment.Code) {
				call(c)
				err = b.returnValue(c, cb.Return, what)
			})
			c.Block("} catch (err) {", "}", func(c *fragment.Code) {
				c.Line("return globalObject.Promise.reject(err);")
			})
			return
		}
		call(c)
		err = b.returnValue(c, cb.Return, what)
	}, "function invokeTheCallbackFunction(%s) {", list)
	if err != nil {
		return err
	}

	construct := &fragment.Code{}
	construct.Block(fmt.Sprintf("invokeTheCallbackFunction.construct = (%s) => {", list), "};", func(c *fragment.Code) {
		wrapArguments(c, cb.Parameters, names)
		c.Linef("let callResult = Reflect.construct(value, %s);", args)
		err = b.returnValue(c, cb.Return, what)
	})
	if err != nil {
		return err
	}

	c := b.code()
	c.Block(`exports.convert = (globalObject, value, { context = "The provided value" } = {}) => {`, "};", func(c *fragment.Code) {
		if !lenient {
			c.Blockf(func(c *fragment.Code) {
				throwTypeError(c, `context + " is not a function."`)
			}, `if (typeof value !== "function") {`)
		}
		c.Append(invoke)
		c.Blank()
		c.Append(construct)
		c.Blank()
		c.Line("invokeTheCallbackFunction[utils.wrapperSymbol] = value;")
		c.Line("invokeTheCallbackFunction.objectReference = value;")
		c.Blank()
		c.Line("return invokeTheCallbackFunction;")
	})
	return nil
}

func (b *builder) callbackInterface(ci *semantic.CallbackInterface) error {
	if err := b.requireUtils(); err != nil {
		return err
	}
	op := ci.Operation
	promise := b.isPromise(op.Return)
	list, args, names := b.callbackParams(op.Parameters)
	what := fmt.Sprintf("'%s' of '%s'", op.Name, ci.Name)

	call := &fragment.Code{}
	var err error
	body := func(c *fragment.Code) {
		c.Line("let thisArg = utils.tryWrapperForImpl(this);")
		c.Line("const O = value;")
		c.Line("let X = O;")
		c.Blockf(func(c *fragment.Code) {
			c.Linef("X = O[%s];", fragment.Quote(op.Name))
			c.Blockf(func(c *fragment.Code) {
				throwTypeError(c, fmt.Sprintf(`context + %s`, fragment.Quote(" does not correctly implement "+ci.Name+".")))
			}, `if (typeof X !== "function") {`)
			c.Line("thisArg = O;")
		}, `if (typeof O !== "function") {`)
		wrapArguments(c, op.Parameters, names)
		c.Linef("let callResult = Reflect.apply(X, thisArg, %s);", args)
		err = b.returnValue(c, op.Return, what)
	}
	call.Blockf(func(c *fragment.Code) {
		if promise {
			c.Block("try {", "", body)
			c.Block("} catch (err) {", "}", func(c *fragment.Code) {
				c.Line("return globalObject.Promise.reject(err);")
			})
			return
		}
		body(c)
	}, "function callTheUserObjectsOperation(%s) {", list)
	if err != nil {
		return err
	}

	c := b.code()
	c.Block(`exports.convert = (globalObject, value, { context = "The provided value" } = {}) => {`, "};", func(c *fragment.Code) {
		c.Blockf(func(c *fragment.Code) {
			throwTypeError(c, `context + " is not an object."`)
		}, "if (!utils.isObject(value)) {")
		c.Append(call)
		c.Blank()
		c.Line("callTheUserObjectsOperation[utils.wrapperSymbol] = value;")
		c.Line("callTheUserObjectsOperation.objectReference = value;")
		c.Blank()
		c.Line("return callTheUserObjectsOperation;")
	})
	c.Blank()

	b.exposed(c, exposure(ci.Annotations, b.g.opts.DefaultExposure))
	c.Blank()
	c.Block("exports.install = (globalObject, globalNames) => {", "};", func(c *fragment.Code) {
		if len(ci.Constants) == 0 {
			return
		}
		b.exposureCheck(c)
		c.Linef("const %s = () => {", fragment.Local(ci.Name))
		c.Line(`  throw new globalObject.TypeError("Illegal invocation");`)
		c.Line("};")
		b.constants(c, fragment.Local(ci.Name), ci.Constants)
		c.Linef("Object.defineProperty(globalObject, %s, {", fragment.Quote(ci.Name))
		c.Line("  configurable: true,")
		c.Line("  writable: true,")
		c.Linef("  value: %s", fragment.Local(ci.Name))
		c.Line("});")
	})
	return nil
}
