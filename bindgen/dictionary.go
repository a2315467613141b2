package bindgen

import (
	"fmt"
	"sort"

	"github.com/dennwc/webidl2js/ast"
	"github.com/dennwc/webidl2js/convert"
	"github.com/dennwc/webidl2js/fragment"
	"github.com/dennwc/webidl2js/semantic"
)

// dictionary emits convertInherit, which fills ret parent first and then
// with this level's fields in name order, and convert, which validates the
// input and allocates ret.
func (b *builder) dictionary(d *semantic.Dictionary) error {
	if err := b.requireUtils(); err != nil {
		return err
	}
	fields := append([]*ast.Member(nil), d.Members...)
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })

	var parent string
	if d.Inherits != "" {
		if _, ok := b.g.ctx.Dictionaries[d.Inherits]; ok {
			parent = fragment.Local(d.Inherits)
			if err := b.requireConstruct(d.Inherits); err != nil {
				return err
			}
		}
	}

	var convErr error
	c := b.code()
	c.Block(`exports.convertInherit = (globalObject, obj, ret, { context = "The provided value" } = {}) => {`, "};", func(c *fragment.Code) {
		if parent != "" {
			c.Linef("%s.convertInherit(globalObject, obj, ret, { context });", parent)
		}
		for _, f := range fields {
			if err := b.field(c, d, f); err != nil {
				convErr = err
				return
			}
		}
	})
	if convErr != nil {
		return convErr
	}
	c.Line("exports._convertInherit = exports.convertInherit;")
	c.Blank()

	c.Block(`exports.convert = (globalObject, obj, { context = "The provided value" } = {}) => {`, "};", func(c *fragment.Code) {
		c.Blockf(func(c *fragment.Code) {
			throwTypeError(c, `context + " is not an object."`)
		}, `if (obj !== undefined && obj !== null && !utils.isObject(obj)) {`)
		c.Line("const tag = Object.prototype.toString.call(obj);")
		c.Blockf(func(c *fragment.Code) {
			throwTypeError(c, `context + " is not a valid dictionary, got " + tag + "."`)
		}, `if (tag === "[object Date]" || tag === "[object RegExp]") {`)
		c.Line("const ret = Object.create(null);")
		c.Line("exports.convertInherit(globalObject, obj, ret, { context });")
		c.Line("return ret;")
	})
	return nil
}

func (b *builder) field(c *fragment.Code, d *semantic.Dictionary, f *ast.Member) error {
	conv, err := b.convert(convert.Request{
		Type:        f.Type,
		Name:        "value",
		Context:     fmt.Sprintf(`context + %s`, fragment.Quote(fmt.Sprintf(" has member '%s' that", f.Name))),
		Annotations: f.Annotations,
	})
	if err != nil {
		return err
	}
	c.Block("{", "}", func(c *fragment.Code) {
		c.Linef("const key = %s;", fragment.Quote(f.Name))
		c.Line("let value = obj === undefined || obj === null ? undefined : obj[key];")
		c.Block("if (value !== undefined) {", "", func(c *fragment.Code) {
			c.Append(conv)
			c.Line("ret[key] = value;")
		})
		switch {
		case f.Required:
			c.Block("} else {", "}", func(c *fragment.Code) {
				throwTypeError(c, fmt.Sprintf(`context + %s`,
					fragment.Quote(fmt.Sprintf(" is missing required member '%s' of dictionary '%s'.", f.Name, d.Name))))
			})
		case f.Init != nil:
			c.Block("} else {", "}", func(c *fragment.Code) {
				c.Linef("ret[key] = %s;", jsValue(f.Init))
			})
		default:
			c.Line("}")
		}
	})
	return nil
}
