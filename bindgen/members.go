package bindgen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dennwc/webidl2js/ast"
	"github.com/dennwc/webidl2js/convert"
	"github.com/dennwc/webidl2js/errors"
	"github.com/dennwc/webidl2js/fragment"
	"github.com/dennwc/webidl2js/overload"
)

// method is a class or object literal method, accessor included.
type method struct {
	head string // e.g. `f(a, b)`, `get x()`, `static f()`
	body *fragment.Code
}

// classMethods renders methods as class members.
func classMethods(c *fragment.Code, ms []*method) {
	for _, m := range ms {
		c.Block(m.head+" {", "}", func(c *fragment.Code) { c.Append(m.body) })
		c.Blank()
	}
}

// objectMethods renders methods as object literal properties.
func objectMethods(c *fragment.Code, ms []*method) {
	for _, m := range ms {
		c.Block(m.head+" {", "},", func(c *fragment.Code) { c.Append(m.body) })
	}
}

// reservedParams are names a generated function body declares itself, plus
// the names strict mode rejects as parameters.
var reservedParams = map[string]struct{}{
	"arguments": {}, "eval": {},
	"args": {}, "curArg": {}, "esValue": {}, "value": {}, "O": {}, "X": {},
	"thisArg": {}, "callResult": {}, "globalObject": {}, "context": {},
	"i": {}, "e": {}, "err": {}, "wrapper": {}, "privateData": {},
	"invokeTheCallbackFunction": {}, "callTheUserObjectsOperation": {},
	"utils": {}, "conversions": {}, "Impl": {}, "exports": {}, "module": {}, "require": {},
	"implSymbol": {}, "ctorRegistrySymbol": {}, "interfaceName": {},
}

// conversionTemp matches the numbered locals the conversion code declares.
var conversionTemp = regexp.MustCompile(`^(V|tmp|nextItem|i|item|result|key|desc|typedKey|typedValue|value)[0-9]+$`)

// paramNames turns IDL argument names into distinct JS parameter names that
// shadow neither the locals of the generated body nor the modules it loads.
func (b *builder) paramNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	taken := func(l string) bool {
		if seen[l] || conversionTemp.MatchString(l) {
			return true
		}
		if _, ok := reservedParams[l]; ok {
			return true
		}
		_, ok := b.g.ctx.Lookup(l)
		return ok
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		l := fragment.Local(n)
		for taken(l) {
			l += "_"
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

func (b *builder) paramList(names []string) string {
	return strings.Join(b.paramNames(names), ", ")
}

func isUnforgeable(ann []*ast.Annotation) bool {
	return ast.HasAnnotation(ann, "LegacyUnforgeable", "Unforgeable")
}

// operation generates one method for all overloads of name.
func (b *builder) operation(name string, ops []*ast.Operation, static bool) (*method, error) {
	plan := overload.Resolve(overload.FromOperations(ops))
	args, err := b.arguments(plan, fmt.Sprintf("Failed to execute '%s' on '%s'", name, b.name))
	if err != nil {
		return nil, err
	}
	promise := false
	for _, op := range ops {
		if b.isPromise(op.Return) {
			promise = true
		}
	}

	body := &fragment.Code{}
	steps := func(c *fragment.Code) {
		target := "Impl.implementation"
		if !static {
			b.brandCheck(c, name, false)
			target = "esValue[implSymbol]"
		}
		c.Append(args)
		c.Linef("return utils.tryWrapperForImpl(%s(...args));", fragment.Prop(target, name))
	}
	if promise {
		body.Block("try {", "", steps)
		body.Block("} catch (e) {", "}", func(c *fragment.Code) {
			c.Line("return globalObject.Promise.reject(e);")
		})
	} else {
		steps(body)
	}

	head := fragment.MethodKey(name) + "(" + b.paramList(plan.Min.Names()) + ")"
	if static {
		head = "static " + head
	}
	return &method{head: head, body: body}, nil
}

// reflectedName is the content attribute behind [Reflect] or [Reflect=name].
func reflectedName(a *ast.Attribute) (string, bool) {
	r := ast.FindAnnotation(a.Annotations, "Reflect")
	if r == nil {
		return "", false
	}
	if r.Value != "" {
		return r.Value, true
	}
	return strings.ToLower(a.Name), true
}

func (b *builder) reflectGet(c *fragment.Code, a *ast.Attribute, attr string) error {
	q := fragment.Quote(attr)
	switch ast.Named(b.resolved(a.Type)) {
	case "DOMString", "USVString":
		c.Linef("const value = esValue[implSymbol].getAttributeNS(null, %s);", q)
		c.Line(`return value === null ? "" : value;`)
	case "boolean":
		c.Linef("return esValue[implSymbol].hasAttributeNS(null, %s);", q)
	case "long":
		c.Linef("const value = parseInt(esValue[implSymbol].getAttributeNS(null, %s));", q)
		c.Line("return isNaN(value) || value < -2147483648 || value > 2147483647 ? 0 : value;")
	case "unsigned long":
		c.Linef("const value = parseInt(esValue[implSymbol].getAttributeNS(null, %s));", q)
		c.Line("return isNaN(value) || value < 0 || value > 2147483647 ? 0 : value;")
	default:
		return errors.AssertionFailedf("[Reflect] is not supported on attribute %s of type %s", a.Name, ast.TypeString(a.Type))
	}
	return nil
}

func (b *builder) reflectSet(c *fragment.Code, a *ast.Attribute, attr string) {
	q := fragment.Quote(attr)
	switch ast.Named(b.resolved(a.Type)) {
	case "boolean":
		c.Block("if (V) {", "", func(c *fragment.Code) {
			c.Linef(`esValue[implSymbol].setAttributeNS(null, %s, "");`, q)
		})
		c.Block("} else {", "}", func(c *fragment.Code) {
			c.Linef("esValue[implSymbol].removeAttributeNS(null, %s);", q)
		})
	case "long", "unsigned long":
		c.Linef("esValue[implSymbol].setAttributeNS(null, %s, String(V));", q)
	default:
		c.Linef("esValue[implSymbol].setAttributeNS(null, %s, V);", q)
	}
}

func (b *builder) resolved(t ast.Type) ast.Type {
	rt, err := b.g.ctx.ResolveType(t)
	if err != nil {
		return t
	}
	return rt
}

// attribute generates the accessor pair of an attribute. The setter is
// omitted for read-only attributes unless [PutForwards] or [Replaceable]
// define one.
func (b *builder) attribute(a *ast.Attribute) ([]*method, error) {
	prefix := ""
	if a.Static {
		prefix = "static "
	}
	lenient := ast.HasAnnotation(a.Annotations, "LegacyLenientThis", "LenientThis")
	reflect, isReflect := reflectedName(a)
	key := fragment.MethodKey(a.Name)

	get := &fragment.Code{}
	switch {
	case a.Static:
		get.Linef("return utils.tryWrapperForImpl(%s);", fragment.Prop("Impl.implementation", a.Name))
	case isReflect:
		b.brandCheck(get, "get "+a.Name, lenient)
		if err := b.reflectGet(get, a, reflect); err != nil {
			return nil, err
		}
	default:
		b.brandCheck(get, "get "+a.Name, lenient)
		value := fragment.Prop("esValue[implSymbol]", a.Name)
		if ast.HasAnnotation(a.Annotations, "SameObject") {
			get.Linef("return utils.getSameObject(esValue, %s, () => {", fragment.Quote(a.Name))
			get.Linef("  return utils.tryWrapperForImpl(%s);", value)
			get.Line("});")
		} else {
			get.Linef("return utils.tryWrapperForImpl(%s);", value)
		}
	}
	out := []*method{{head: prefix + "get " + key + "()", body: get}}

	set := &fragment.Code{}
	switch {
	case a.Readonly && ast.HasAnnotation(a.Annotations, "PutForwards"):
		fwd := ast.FindAnnotation(a.Annotations, "PutForwards").Value
		b.brandCheck(set, "set "+a.Name, lenient)
		set.Linef("const Q = %s;", fragment.Prop("esValue", a.Name))
		set.Blockf(func(c *fragment.Code) {
			throwTypeError(c, fragment.Quote(fmt.Sprintf("Property '%s' is not an object", a.Name)))
		}, "if (!utils.isObject(Q)) {")
		set.Linef("Reflect.set(Q, %s, V);", fragment.Quote(fwd))
	case a.Readonly && ast.HasAnnotation(a.Annotations, "Replaceable", "LegacyReplaceable"):
		b.brandCheck(set, "set "+a.Name, lenient)
		set.Linef("Object.defineProperty(esValue, %s, {", fragment.Quote(a.Name))
		set.Line("  configurable: true,")
		set.Line("  enumerable: true,")
		set.Line("  value: V,")
		set.Line("  writable: true")
		set.Line("});")
	case a.Readonly:
		return out, nil
	default:
		conv, err := b.convert(convert.Request{
			Type:        a.Type,
			Name:        "V",
			Context:     fragment.Quote(fmt.Sprintf("Failed to set the '%s' property on '%s': The provided value", a.Name, b.name)),
			Annotations: a.Annotations,
		})
		if err != nil {
			return nil, err
		}
		target := "Impl.implementation"
		if !a.Static {
			b.brandCheck(set, "set "+a.Name, lenient)
			target = "esValue[implSymbol]"
		}
		set.Append(conv)
		if isReflect && !a.Static {
			b.reflectSet(set, a, reflect)
		} else {
			set.Linef("%s = V;", fragment.Prop(target, a.Name))
		}
	}
	out = append(out, &method{head: prefix + "set " + key + "(V)", body: set})
	return out, nil
}

// stringifier generates toString from a stringifier attribute, a
// stringifier operation or the bare stringifier keyword.
func (b *builder) stringifier(member ast.InterfaceMember) *method {
	body := &fragment.Code{}
	b.brandCheck(body, "toString", false)
	switch m := member.(type) {
	case *ast.Attribute:
		body.Linef("return %s;", fragment.Prop("esValue[implSymbol]", m.Name))
	case *ast.Operation:
		name := m.Name
		if name == "" {
			name = "toString"
		}
		body.Linef("return %s();", fragment.Prop("esValue[implSymbol]", name))
	default:
		body.Line("return esValue[implSymbol].toString();")
	}
	return &method{head: "toString()", body: body}
}

// jsonifier generates toJSON for the serializer and jsonifier keywords.
func (b *builder) jsonifier() *method {
	body := &fragment.Code{}
	b.brandCheck(body, "toJSON", false)
	body.Line("return esValue[implSymbol].toJSON();")
	return &method{head: "toJSON()", body: body}
}

// constants defines read-only, enumerable values on target.
func (b *builder) constants(c *fragment.Code, target string, consts []*ast.Constant) {
	if len(consts) == 0 {
		return
	}
	c.Block(fmt.Sprintf("Object.defineProperties(%s, {", target), "});", func(c *fragment.Code) {
		for _, k := range consts {
			c.Linef("%s: { value: %s, enumerable: true },", fragment.Key(k.Name), jsValue(k.Value))
		}
	})
}
