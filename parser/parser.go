// Copyright 2015 The Serulian Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// parser package defines the parser and lexer for translating a *supported subset* of
// WebIDL (http://www.w3.org/TR/WebIDL/) into an AST.
package parser

import (
	"fmt"

	"github.com/dennwc/webidl2js/ast"
)

// tryConsumeIdentifier attempts to consume an expected identifier.
func (p *sourceParser) tryConsumeIdentifier() (string, bool) {
	if !p.isToken(tokenTypeIdentifier) {
		return "", false
	}

	value := p.currentToken.value
	p.consumeToken()
	return value, true
}

// consumeIdentifier consumes an expected identifier token or adds an error node.
func (p *sourceParser) consumeIdentifier() string {
	if identifier, ok := p.tryConsumeIdentifier(); ok {
		return identifier
	}

	p.emitError("Expected identifier, found token %v", p.currentToken.kind)
	return ""
}

// commentedLexeme is a lexeme with comments attached.
type commentedLexeme struct {
	lexeme
	comments []string
}

// sourceParser holds the state of the parser.
type sourceParser struct {
	startIndex    bytePosition     // The start index for position decoration on nodes.
	lex           *peekableLexer   // a reference to the lexer used for tokenization
	nodes         nodeStack        // the stack of the current nodes
	currentToken  commentedLexeme  // the current token
	previousToken commentedLexeme  // the previous token
	config        parserConfig     // Configuration for customizing the parser
	errors        []*ast.ErrorNode // every error node emitted, in source order
}

type tokenTypeChecker func(kind tokenType) bool

// parserConfig holds configuration for customizing the parser
type parserConfig struct {
	ignoredTokenTypes map[tokenType]struct{} // the token types ignored by the parser

	isCommentToken tokenTypeChecker // Returns whether the specified tokenType is a comment token.

	keywordTokenType tokenType // The keyword token type.
	errorTokenType   tokenType // The error token type.
	eofTokenType     tokenType // The EOF token type.
}

// buildParser returns a new sourceParser instance.
func buildParser(lexer *lexer, config parserConfig, startIndex bytePosition) *sourceParser {
	l := peekableLex(lexer)
	newLexeme := func() commentedLexeme {
		return commentedLexeme{lexeme: lexeme{config.eofTokenType, 0, ""}}
	}
	return &sourceParser{
		startIndex:    startIndex,
		lex:           l,
		currentToken:  newLexeme(),
		previousToken: newLexeme(),
		config:        config,
	}
}

// createErrorNode creates a new error node and returns it.
func (p *sourceParser) createErrorNode(format string, args ...interface{}) *ast.ErrorNode {
	n := &ast.ErrorNode{Message: fmt.Sprintf(format, args...)}
	p.decorateStartRuneAndComments(n, p.currentToken)
	p.decorateEndRune(n, p.previousToken)
	return n
}

// node decorates the given node with the current token's position as its start
// position and pushes it onto the nodes stack. The returned function pops it again
// and records the end position.
func (p *sourceParser) node(node ast.Node) func() {
	p.decorateStartRuneAndComments(node, p.currentToken)
	p.nodes.push(node)
	return func() {
		if p.currentNode() == nil {
			panic(fmt.Sprintf("No current node on stack. Token: %s", p.currentToken.value))
		}

		p.decorateEndRune(p.currentNode(), p.previousToken)
		p.nodes.pop()
	}
}

// decorateStartRuneAndComments decorates the given node with the location of the given token as its
// starting rune, as well as any comments attached to the token.
func (p *sourceParser) decorateStartRuneAndComments(node ast.Node, token commentedLexeme) {
	b := node.NodeBase()
	b.Start = int(token.position) + int(p.startIndex)
	b.Comments = append(b.Comments, token.comments...)
}

// decorateEndRune decorates the given node with the location of the given token as its
// ending rune.
func (p *sourceParser) decorateEndRune(node ast.Node, token commentedLexeme) {
	node.NodeBase().End = int(token.position) + len(token.value) - 1 + int(p.startIndex)
}

// currentNode returns the node at the top of the stack.
func (p *sourceParser) currentNode() ast.Node {
	return p.nodes.topValue()
}

// consumeToken advances the lexer forward, returning the next token.
func (p *sourceParser) consumeToken() commentedLexeme {
	var comments []string

	for {
		token := p.lex.nextToken()

		if p.config.isCommentToken(token.kind) {
			comments = append(comments, token.value)
		}

		if _, ok := p.config.ignoredTokenTypes[token.kind]; !ok {
			p.previousToken = p.currentToken
			p.currentToken = commentedLexeme{token, comments}
			if token.kind == p.config.errorTokenType {
				p.emitError("%s", token.value)
			}
			return p.currentToken
		}
	}
}

// isToken returns true if the current token matches one of the types given.
func (p *sourceParser) isToken(types ...tokenType) bool {
	for _, kind := range types {
		if p.currentToken.kind == kind {
			return true
		}
	}

	return false
}

// nextToken returns the next token found, without advancing the parser. Used for
// lookahead.
func (p *sourceParser) nextToken() lexeme {
	for counter := 1; ; counter++ {
		token := p.lex.peekToken(counter)
		if _, ok := p.config.ignoredTokenTypes[token.kind]; !ok {
			return token
		}
	}
}

// isKeyword returns true if the current token is a keyword matching that given.
func (p *sourceParser) isKeyword(keyword string) bool {
	return p.isToken(p.config.keywordTokenType) && p.currentToken.value == keyword
}

// isNextKeyword returns true if the next token is a keyword matching that given.
func (p *sourceParser) isNextKeyword(keyword string) bool {
	token := p.nextToken()
	return token.kind == p.config.keywordTokenType && token.value == keyword
}

// emitError creates a new error node and attachs it as a child of the current
// node.
func (p *sourceParser) emitError(format string, args ...interface{}) {
	errorNode := p.createErrorNode(format, args...)
	p.errors = append(p.errors, errorNode)
	if cur := p.currentNode(); cur != nil {
		b := cur.NodeBase()
		b.Errors = append(b.Errors, errorNode)
	}
}

// consumeKeyword consumes an expected keyword token or adds an error node.
func (p *sourceParser) consumeKeyword(keyword string) bool {
	if !p.tryConsumeKeyword(keyword) {
		p.emitError("Expected keyword %s, found token %v", keyword, p.currentToken.kind)
		return false
	}
	return true
}

// tryConsumeKeyword attempts to consume an expected keyword token.
func (p *sourceParser) tryConsumeKeyword(keyword string) bool {
	if !p.isKeyword(keyword) {
		return false
	}

	p.consumeToken()
	return true
}

// consume performs consumption of the next token if it matches any of the given
// types and returns it. If no matching type is found, adds an error node.
func (p *sourceParser) consume(types ...tokenType) (lexeme, bool) {
	token, ok := p.tryConsume(types...)
	if !ok {
		p.emitError("Expected one of: %v, found: %v", types, p.currentToken.kind)
	}
	return token, ok
}

// tryConsume performs consumption of the next token if it matches any of the given
// types and returns it.
func (p *sourceParser) tryConsume(types ...tokenType) (lexeme, bool) {
	if p.isToken(types...) {
		token := p.currentToken
		p.consumeToken()
		return token.lexeme, true
	}

	return lexeme{p.config.errorTokenType, -1, ""}, false
}

// skipPast consumes tokens up to and including the first one of the given types,
// stopping early at EOF. Used to resynchronize after an error.
func (p *sourceParser) skipPast(types ...tokenType) {
	for !p.isToken(p.config.eofTokenType) {
		if _, ok := p.tryConsume(types...); ok {
			return
		}
		p.consumeToken()
	}
}
