package fragment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

func sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// Quote returns s as a JavaScript string literal.
func Quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		// strings always encode
		panic(err)
	}
	// json.Encoder escapes U+2028/U+2029, which keeps the literal valid in
	// pre-ES2019 engines.
	return strings.TrimSuffix(buf.String(), "\n")
}

var reserved = map[string]struct{}{
	"break": {}, "case": {}, "catch": {}, "class": {}, "const": {}, "continue": {},
	"debugger": {}, "default": {}, "delete": {}, "do": {}, "else": {}, "enum": {},
	"export": {}, "extends": {}, "false": {}, "finally": {}, "for": {}, "function": {},
	"if": {}, "import": {}, "in": {}, "instanceof": {}, "new": {}, "null": {},
	"return": {}, "super": {}, "switch": {}, "this": {}, "throw": {}, "true": {},
	"try": {}, "typeof": {}, "var": {}, "void": {}, "while": {}, "with": {},
	"yield": {}, "let": {}, "static": {}, "implements": {}, "interface": {},
	"package": {}, "private": {}, "protected": {}, "public": {}, "await": {},
}

// IsIdent reports whether s can be used as a JavaScript identifier.
func IsIdent(s string) bool {
	if _, ok := reserved[s]; ok {
		return false
	}
	return isIdentifierName(s)
}

// isIdentifierName is IsIdent without the reserved word check; property
// names in dotted or method position may be reserved words.
func isIdentifierName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}

// Key returns name as an object literal key.
func Key(name string) string {
	if IsIdent(name) {
		return name
	}
	return Quote(name)
}

// MethodKey returns name as a class or object literal method name.
func MethodKey(name string) string {
	if isIdentifierName(name) {
		return name
	}
	return "[" + Quote(name) + "]"
}

// Prop returns the property access expression obj.name or obj["name"].
func Prop(obj, name string) string {
	if IsIdent(name) {
		return obj + "." + name
	}
	return obj + "[" + Quote(name) + "]"
}

// Local turns an IDL argument name into a safe local variable name.
func Local(name string) string {
	if IsIdent(name) {
		return name
	}
	var sb strings.Builder
	for _, r := range name {
		if r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	s := sb.String()
	if !IsIdent(s) {
		s = "_" + s
	}
	return s
}
