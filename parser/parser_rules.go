// Copyright 2015 The Serulian Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package parser

import (
	"fmt"
	"strings"

	"github.com/dennwc/webidl2js/ast"
	"github.com/dennwc/webidl2js/errors"
)

// Parse parses the given WebIDL source into a parse tree. Syntax errors are
// attached to the nodes as ErrorNodes.
func Parse(input string) *ast.File {
	f, _ := parse(input)
	return f
}

// ParseFile parses the given WebIDL source and reports every syntax error as
// a single error wrapping errors.ErrParse.
func ParseFile(name, input string) (*ast.File, error) {
	f, errs := parse(input)
	if len(errs) == 0 {
		return f, nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		line, col := position(input, e.Start)
		msgs = append(msgs, fmt.Sprintf("%s:%d:%d: %s", name, line, col, e.Message))
	}
	return f, errors.Wrap(errors.ErrParse, strings.Join(msgs, "; "))
}

func parse(input string) (*ast.File, []*ast.ErrorNode) {
	config := parserConfig{
		ignoredTokenTypes: map[tokenType]struct{}{
			tokenTypeWhitespace: {},
			tokenTypeComment:    {},
		},
		isCommentToken:   isCommentToken,
		keywordTokenType: tokenTypeIdentifier,
		errorTokenType:   tokenTypeError,
		eofTokenType:     tokenTypeEOF,
	}

	parser := buildParser(lex(input), config, bytePosition(0))
	f := parser.consumeTopLevel()
	return f, parser.errors
}

// position converts a byte offset into a 1-based line and column.
func position(input string, offset int) (int, int) {
	if offset > len(input) {
		offset = len(input)
	}
	if offset < 0 {
		offset = 0
	}
	before := input[:offset]
	line := strings.Count(before, "\n") + 1
	col := offset - strings.LastIndex(before, "\n")
	return line, col
}

// isIdentifier returns true if the current token is the given bare word.
func (p *sourceParser) isIdentifier(name string) bool {
	return p.isKeyword(name)
}

// consumeTopLevel attempts to consume the top-level constructs of a WebIDL file.
func (p *sourceParser) consumeTopLevel() *ast.File {
	n := &ast.File{}
	defer p.node(n)()

	// Start at the first token.
	p.consumeToken()

	for !p.isToken(tokenTypeEOF, tokenTypeError) {
		switch {
		case p.isToken(tokenTypeLeftBracket) || p.isIdentifier("interface") ||
			p.isIdentifier("partial") || p.isIdentifier("callback") ||
			p.isIdentifier("dictionary") || p.isIdentifier("enum") ||
			p.isIdentifier("typedef"):
			n.Declarations = append(n.Declarations, p.consumeDeclaration())
			continue
		case p.isToken(tokenTypeIdentifier):
			base := ast.Base{}
			finish := p.node(&base)
			name := p.consumeIdentifier()
			if p.tryConsumeKeyword("implements") {
				impl := &ast.Implementation{Name: name}
				impl.Source = p.consumeIdentifier()
				p.consume(tokenTypeSemicolon)
				finish()
				impl.Base = base
				n.Declarations = append(n.Declarations, impl)
				continue
			} else if p.tryConsumeKeyword("includes") {
				inc := &ast.Includes{Name: name}
				inc.Source = p.consumeIdentifier()
				p.consume(tokenTypeSemicolon)
				finish()
				inc.Base = base
				n.Declarations = append(n.Declarations, inc)
				continue
			}
			finish()
		}
		p.emitError("Unexpected token at root level: %v", p.currentToken.lexeme)
		p.skipPast(tokenTypeSemicolon)
	}

	return n
}

// consumeDeclaration attempts to consume a declaration, with optional attributes.
func (p *sourceParser) consumeDeclaration() ast.Decl {
	base := &ast.Base{}
	finish := p.node(base)
	ann := p.tryConsumeAnnotations()
	switch {
	case p.isIdentifier("enum"):
		return p.consumeEnum(ann, base, finish)
	case p.isIdentifier("typedef"):
		return p.consumeTypedef(ann, base, finish)
	case p.isIdentifier("callback"):
		p.consumeKeyword("callback")
		if p.tryConsumeKeyword("interface") {
			return p.consumeInterface(false, true, ann, base, finish)
		}
		name := p.consumeIdentifier()
		p.consume(tokenTypeEquals)
		ret := p.consumeType()
		par := p.consumeParameters()
		p.consume(tokenTypeSemicolon)
		finish()
		return &ast.Callback{Base: *base, Annotations: ann, Name: name, Return: ret, Parameters: par}
	case p.isIdentifier("partial"):
		p.consumeKeyword("partial")
		if p.isIdentifier("dictionary") {
			d := p.consumeDictionary(ann, base, finish)
			d.Partial = true
			return d
		}
		return p.consumeInterfaceOrMixin(true, ann, base, finish)
	case p.isIdentifier("interface"):
		return p.consumeInterfaceOrMixin(false, ann, base, finish)
	case p.isIdentifier("dictionary"):
		return p.consumeDictionary(ann, base, finish)
	default:
		p.emitError("Expected interface or dictionary, got: %v", p.currentToken.lexeme)
		// first, consume until '{'
		for !p.isToken(tokenTypeLeftBrace, tokenTypeEOF) {
			p.consumeToken()
		}
		// then consume until '}'
		for !p.isToken(tokenTypeRightBrace, tokenTypeEOF) {
			p.consumeToken()
		}
		p.tryConsume(tokenTypeRightBrace)
		p.tryConsume(tokenTypeSemicolon)
		finish()
		return &ast.Interface{Base: *base}
	}
}

func (p *sourceParser) consumeInterfaceOrMixin(partial bool, ann []*ast.Annotation, base *ast.Base, finish func()) ast.Decl {
	p.consumeKeyword("interface")
	if p.tryConsumeKeyword("mixin") {
		m := p.consumeMixin(ann, base, finish)
		m.Partial = partial
		return m
	}
	return p.consumeInterface(partial, false, ann, base, finish)
}

func (p *sourceParser) consumeInterface(partial, callback bool, ann []*ast.Annotation, base *ast.Base, finish func()) *ast.Interface {
	n := &ast.Interface{Annotations: ann, Partial: partial, Callback: callback}
	defer func() {
		finish()
		n.Base = *base
	}()

	n.Name = p.consumeIdentifier()

	if _, ok := p.tryConsume(tokenTypeColon); ok {
		n.Inherits = p.consumeIdentifier()
	}

	n.Members, n.CustomOps = p.consumeInterfaceBody()
	return n
}

func (p *sourceParser) consumeMixin(ann []*ast.Annotation, base *ast.Base, finish func()) *ast.Mixin {
	n := &ast.Mixin{Annotations: ann}
	defer func() {
		finish()
		n.Base = *base
	}()

	n.Name = p.consumeIdentifier()
	n.Members, n.CustomOps = p.consumeInterfaceBody()
	return n
}

// consumeInterfaceBody consumes `{ members };` of an interface or mixin.
func (p *sourceParser) consumeInterfaceBody() (members []ast.InterfaceMember, ops []*ast.CustomOp) {
	// {
	if _, ok := p.consume(tokenTypeLeftBrace); !ok {
		p.skipPast(tokenTypeSemicolon)
		return
	}

	for !p.isToken(tokenTypeRightBrace, tokenTypeEOF) {
		if p.isBareCustomOp() {
			op := &ast.CustomOp{}
			finish := p.node(op)
			op.Name = p.consumeIdentifier()
			finish()
			ops = append(ops, op)
		} else if m := p.consumeInterfaceMember(); m != nil {
			members = append(members, m)
		}

		if _, ok := p.consume(tokenTypeSemicolon); !ok {
			p.skipPast(tokenTypeSemicolon, tokenTypeRightBrace)
		}
	}

	// };
	p.consume(tokenTypeRightBrace)
	p.consume(tokenTypeSemicolon)
	return
}

// isBareCustomOp matches `serializer;`, `jsonifier;` and `stringifier;`.
func (p *sourceParser) isBareCustomOp() bool {
	if !(p.isIdentifier("serializer") || p.isIdentifier("jsonifier") || p.isIdentifier("stringifier")) {
		return false
	}
	return p.nextToken().kind == tokenTypeSemicolon
}

// consumeInterfaceMember consumes one member definition of an interface body.
func (p *sourceParser) consumeInterfaceMember() ast.InterfaceMember {
	base := &ast.Base{}
	finish := p.node(base)
	done := func(m ast.InterfaceMember) ast.InterfaceMember {
		finish()
		*m.NodeBase() = *base
		return m
	}

	ann := p.tryConsumeAnnotations()

	switch {
	case p.tryConsumeKeyword("const"):
		n := &ast.Constant{Annotations: ann}
		n.Type = p.consumeType()
		n.Name = p.consumeIdentifier()
		p.consume(tokenTypeEquals)
		n.Value = p.consumeLiteral()
		return done(n)
	case p.tryConsumeKeyword("constructor"):
		n := &ast.Constructor{Annotations: ann}
		n.Parameters = p.consumeParameters()
		return done(n)
	case p.isIdentifier("iterable") || (p.isIdentifier("async") && p.isNextKeyword("iterable")):
		return done(p.consumeIterable(ann))
	case p.isIdentifier("maplike") || p.isIdentifier("setlike") ||
		(p.isIdentifier("readonly") && (p.isNextKeyword("maplike") || p.isNextKeyword("setlike"))):
		p.emitError("maplike and setlike declarations are not supported")
		p.skipPast(tokenTypeRightTri)
		finish()
		return nil
	}

	static := p.tryConsumeKeyword("static")
	stringifier := false
	var special string
	switch {
	case p.isIdentifier("getter") || p.isIdentifier("setter") || p.isIdentifier("deleter"):
		special = p.consumeIdentifier()
	case p.isIdentifier("stringifier"):
		p.consumeKeyword("stringifier")
		stringifier = true
	}

	inherit := p.tryConsumeKeyword("inherit")
	readonly := p.tryConsumeKeyword("readonly")
	if inherit || readonly || p.isIdentifier("attribute") {
		p.consumeKeyword("attribute")
		n := &ast.Attribute{
			Annotations: ann, Static: static, Readonly: readonly,
			Inherit: inherit, Stringifier: stringifier,
		}
		n.Annotations = append(n.Annotations, p.tryConsumeAnnotations()...)
		n.Type = p.consumeType()
		n.Name = p.consumeIdentifier()
		return done(n)
	}

	n := &ast.Operation{Annotations: ann, Static: static, Specialization: special}
	if stringifier {
		n.Specialization = "stringifier"
	}
	n.Return = p.consumeType()
	n.Name, _ = p.tryConsumeIdentifier()
	n.Parameters = p.consumeParameters()
	return done(n)
}

// consumeIterable consumes `[async] iterable<V>` or `iterable<K, V>` with
// optional async iterator arguments.
func (p *sourceParser) consumeIterable(ann []*ast.Annotation) *ast.Iterable {
	n := &ast.Iterable{Annotations: ann}
	n.Async = p.tryConsumeKeyword("async")
	p.consumeKeyword("iterable")
	p.consume(tokenTypeLeftTri)
	first := p.consumeType()
	if _, ok := p.tryConsume(tokenTypeComma); ok {
		n.Key = first
		n.Value = p.consumeType()
	} else {
		n.Value = first
	}
	p.consume(tokenTypeRightTri)
	if n.Async && p.isToken(tokenTypeLeftParen) {
		n.Parameters = p.consumeParameters()
	}
	return n
}

func (p *sourceParser) consumeDictionary(ann []*ast.Annotation, base *ast.Base, finish func()) *ast.Dictionary {
	n := &ast.Dictionary{Annotations: ann}
	defer func() {
		finish()
		n.Base = *base
	}()
	p.consumeKeyword("dictionary")

	n.Name = p.consumeIdentifier()
	if _, ok := p.tryConsume(tokenTypeColon); ok {
		n.Inherits = p.consumeIdentifier()
	}

	// {
	if _, ok := p.consume(tokenTypeLeftBrace); !ok {
		p.skipPast(tokenTypeSemicolon)
		return n
	}
	for !p.isToken(tokenTypeRightBrace, tokenTypeEOF) {
		n.Members = append(n.Members, p.consumeDictionaryMember())

		if _, ok := p.consume(tokenTypeSemicolon); !ok {
			p.skipPast(tokenTypeSemicolon, tokenTypeRightBrace)
		}
	}

	// };
	p.consume(tokenTypeRightBrace)
	p.consume(tokenTypeSemicolon)
	return n
}

// consumeDictionaryMember consumes `[ann] required Type name = default`.
func (p *sourceParser) consumeDictionaryMember() *ast.Member {
	n := &ast.Member{}
	defer p.node(n)()

	n.Annotations = p.tryConsumeAnnotations()
	n.Required = p.tryConsumeKeyword("required")
	n.Annotations = append(n.Annotations, p.tryConsumeAnnotations()...)
	n.Type = p.consumeType()
	n.Name = p.consumeIdentifier()
	n.Init = p.tryConsumeDefaultValue()
	return n
}

func (p *sourceParser) consumeEnum(ann []*ast.Annotation, base *ast.Base, finish func()) *ast.Enum {
	n := &ast.Enum{Annotations: ann}
	defer func() {
		finish()
		n.Base = *base
	}()
	p.consumeKeyword("enum")
	n.Name = p.consumeIdentifier()

	// {
	p.consume(tokenTypeLeftBrace)
	for !p.isToken(tokenTypeRightBrace, tokenTypeEOF) {
		if len(n.Values) != 0 {
			if _, ok := p.consume(tokenTypeComma); !ok {
				break
			}
			// trailing comma
			if p.isToken(tokenTypeRightBrace) {
				break
			}
		}
		v := p.consumeLiteral()
		if v.Kind != ast.LiteralString {
			p.emitError("Expected string literal in enum %s, found %v", n.Name, v)
			break
		}
		n.Values = append(n.Values, v)
	}
	// };
	p.consume(tokenTypeRightBrace)
	p.consume(tokenTypeSemicolon)
	return n
}

func (p *sourceParser) consumeTypedef(ann []*ast.Annotation, base *ast.Base, finish func()) *ast.Typedef {
	n := &ast.Typedef{Annotations: ann}
	defer func() {
		finish()
		n.Base = *base
	}()
	p.consumeKeyword("typedef")
	n.Annotations = append(n.Annotations, p.tryConsumeAnnotations()...)
	n.Type = p.consumeType()
	n.Name = p.consumeIdentifier()
	p.consume(tokenTypeSemicolon)
	return n
}

// tryConsumeAnnotations consumes any annotations found on the parent node.
func (p *sourceParser) tryConsumeAnnotations() (out []*ast.Annotation) {
	for {
		// [
		if _, ok := p.tryConsume(tokenTypeLeftBracket); !ok {
			return
		}

		for {
			// Foo()
			out = append(out, p.consumeAnnotationPart())

			// ,
			if _, ok := p.tryConsume(tokenTypeComma); !ok {
				break
			}
		}

		// ]
		if _, ok := p.consume(tokenTypeRightBracket); !ok {
			p.skipPast(tokenTypeRightBracket)
			return
		}
	}
}

// consumeAnnotationPart consumes an annotation, as found within a set of brackets `[]`.
func (p *sourceParser) consumeAnnotationPart() *ast.Annotation {
	n := &ast.Annotation{}
	defer p.node(n)()

	// Consume the name of the annotation.
	n.Name = p.consumeIdentifier()

	// "="
	if _, ok := p.tryConsume(tokenTypeEquals); ok {
		// Consume (optional) value.

		// "("
		if list, ok := p.tryConsumeIdentifiersList(); ok {
			n.Values = list
		} else if p.isToken(tokenTypeString, tokenTypeNumber) {
			n.Value = p.consumeLiteral().Value
		} else {
			n.Value = p.consumeIdentifier()
			// [NamedConstructor=Image(unsigned long w)]
			if p.isToken(tokenTypeLeftParen) {
				n.Parameters = p.consumeParameters()
			}
		}
	} else if p.isToken(tokenTypeLeftParen) {
		// Consume (optional) parameters.
		n.Parameters = p.consumeParameters()
	}

	return n
}

func (p *sourceParser) tryConsumeIdentifiersList() ([]string, bool) {
	// "("
	_, ok := p.tryConsume(tokenTypeLeftParen)
	if !ok {
		return nil, false
	}
	// identifier list
	var list []string
	for {
		list = append(list, p.consumeIdentifier())
		// ","
		if _, ok := p.tryConsume(tokenTypeComma); !ok {
			break
		}
	}
	// ")"
	p.consume(tokenTypeRightParen)
	return list, true
}

// expandedTypeKeywords defines the keywords that form the prefixes for expanded types:
// two-identifier type names.
var expandedTypeKeywords = map[string][]string{
	"unsigned":     {"short", "long"},
	"long":         {"long"},
	"unrestricted": {"float", "double"},
}

// genericTypes are the parametrized types, with their arity.
var genericTypes = map[string]int{
	"sequence":    1,
	"FrozenArray": 1,
	"Promise":     1,
	"record":      2,
}

func (p *sourceParser) consumeType() ast.Type {
	base := &ast.Base{}
	finish := p.node(base)

	t := p.consumeNonNullableType(base, finish)
	for {
		if _, ok := p.tryConsume(tokenTypeLeftBracket); ok {
			p.consume(tokenTypeRightBracket)
			arr := &ast.ArrayType{Base: *t.NodeBase(), Elem: t}
			arr.End = p.previousToken.End()
			t = arr
			continue
		}
		break
	}
	if _, ok := p.tryConsume(tokenTypeQuestionMark); ok {
		nl := &ast.NullableType{Base: *t.NodeBase(), Type: t}
		nl.End = p.previousToken.End()
		return nl
	}
	return t
}

// End returns the position of the last rune of the token.
func (l commentedLexeme) End() int {
	return int(l.position) + len(l.value) - 1
}

func (p *sourceParser) consumeNonNullableType(base *ast.Base, finish func()) ast.Type {
	if p.tryConsumeKeyword("any") {
		finish()
		return &ast.AnyType{Base: *base}
	}
	if _, ok := p.tryConsume(tokenTypeLeftParen); ok {
		// "("
		var types []ast.Type
		for {
			types = append(types, p.consumeType())
			if !p.tryConsumeKeyword("or") {
				break
			}
		}
		// ")"
		p.consume(tokenTypeRightParen)
		finish()
		return &ast.UnionType{Base: *base, Types: types}
	}

	identifier := p.consumeIdentifier()
	if arity, ok := genericTypes[identifier]; ok && p.isToken(tokenTypeLeftTri) {
		p.consume(tokenTypeLeftTri)
		args := make([]ast.Type, 0, arity)
		for i := 0; i < arity; i++ {
			if i > 0 {
				p.consume(tokenTypeComma)
			}
			args = append(args, p.consumeType())
		}
		p.consume(tokenTypeRightTri)
		finish()
		switch identifier {
		case "sequence":
			return &ast.SequenceType{Base: *base, Elem: args[0]}
		case "FrozenArray":
			return &ast.FrozenArrayType{Base: *base, Elem: args[0]}
		case "Promise":
			return &ast.PromiseType{Base: *base, Elem: args[0]}
		default:
			return &ast.RecordType{Base: *base, Key: args[0], Elem: args[1]}
		}
	}

	// If the identifier is the beginning of a possible expanded type name, check for the
	// secondary portion: unsigned long long takes two steps.
	typeName := identifier
	last := identifier
	for {
		secondaries, ok := expandedTypeKeywords[last]
		if !ok {
			break
		}
		matched := false
		for _, secondary := range secondaries {
			if p.isToken(tokenTypeIdentifier) && p.currentToken.value == secondary {
				typeName += " " + secondary
				last = secondary
				p.consume(tokenTypeIdentifier)
				matched = true
				break
			}
		}
		if !matched || strings.Count(typeName, "long") > 1 {
			break
		}
	}
	finish()
	return &ast.TypeName{Base: *base, Name: typeName}
}

// consumeParameter attempts to consume a parameter.
func (p *sourceParser) consumeParameter() *ast.Parameter {
	n := &ast.Parameter{}
	defer p.node(n)()
	n.Annotations = p.tryConsumeAnnotations()

	// optional
	if p.tryConsumeKeyword("optional") {
		n.Optional = true
	}
	n.Annotations = append(n.Annotations, p.tryConsumeAnnotations()...)

	// Consume the parameter's type.
	n.Type = p.consumeType()
	if _, ok := p.tryConsume(tokenTypeVariadic); ok {
		n.Variadic = true
	}

	// Consume the parameter's name.
	n.Name = p.consumeIdentifier()

	n.Init = p.tryConsumeDefaultValue()

	return n
}

func (p *sourceParser) tryConsumeDefaultValue() *ast.Literal {
	if _, ok := p.tryConsume(tokenTypeEquals); ok {
		return p.consumeLiteral()
	}
	return nil
}

// consumeLiteral consumes a constant or default value.
func (p *sourceParser) consumeLiteral() *ast.Literal {
	n := &ast.Literal{}
	defer p.node(n)()

	switch {
	case p.isToken(tokenTypeString):
		tok, _ := p.tryConsume(tokenTypeString)
		n.Kind = ast.LiteralString
		n.Value = strings.TrimSuffix(strings.TrimPrefix(tok.value, `"`), `"`)
	case p.isToken(tokenTypeNumber):
		tok, _ := p.tryConsume(tokenTypeNumber)
		n.Kind = ast.LiteralNumber
		n.Value = tok.value
	case p.isToken(tokenTypeLeftBracket):
		p.consume(tokenTypeLeftBracket)
		p.consume(tokenTypeRightBracket)
		n.Kind = ast.LiteralEmptySequence
	case p.isToken(tokenTypeLeftBrace):
		p.consume(tokenTypeLeftBrace)
		p.consume(tokenTypeRightBrace)
		n.Kind = ast.LiteralEmptyObject
	case p.isIdentifier("true") || p.isIdentifier("false"):
		n.Kind = ast.LiteralBool
		n.Value = p.consumeIdentifier()
	case p.isIdentifier("null"):
		n.Kind = ast.LiteralNull
		n.Value = p.consumeIdentifier()
	case p.isIdentifier("Infinity") || p.isIdentifier("NaN"):
		n.Kind = ast.LiteralNumber
		n.Value = p.consumeIdentifier()
	default:
		p.emitError("Expected literal, found %v", p.currentToken.lexeme)
	}
	return n
}

// consumeParameters attempts to consume a set of parameters.
func (p *sourceParser) consumeParameters() (out []*ast.Parameter) {
	if _, ok := p.consume(tokenTypeLeftParen); !ok {
		return
	}
	if _, ok := p.tryConsume(tokenTypeRightParen); ok {
		return
	}

	for {
		out = append(out, p.consumeParameter())
		if _, ok := p.tryConsume(tokenTypeRightParen); ok {
			return
		}

		if _, ok := p.consume(tokenTypeComma); !ok {
			p.skipPast(tokenTypeRightParen)
			return
		}
	}
}
