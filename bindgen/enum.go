package bindgen

import (
	"strings"

	"github.com/dennwc/webidl2js/fragment"
	"github.com/dennwc/webidl2js/semantic"
)

func (b *builder) enum(e *semantic.Enum) error {
	quoted := make([]string, len(e.Values))
	for i, v := range e.Values {
		quoted[i] = fragment.Quote(v)
	}
	c := b.code()
	c.Linef("const enumerationValues = new Set([%s]);", strings.Join(quoted, ", "))
	c.Line("exports.enumerationValues = enumerationValues;")
	c.Blank()
	c.Block(`exports.convert = (globalObject, value, { context = "The provided value" } = {}) => {`, "};", func(c *fragment.Code) {
		c.Line("const string = `${value}`;")
		c.Blockf(func(c *fragment.Code) {
			throwTypeError(c, "context + \" '\" + string + \"' is not a valid enumeration value for \" + "+fragment.Quote(e.Name))
		}, "if (!enumerationValues.has(string)) {")
		c.Line("return string;")
	})
	return nil
}
