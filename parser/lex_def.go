// Copyright 2015 The Serulian Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Based on design first introduced in: http://blog.golang.org/two-go-talks-lexical-scanning-in-go-and
// Portions copied and modified from: https://github.com/golang/go/blob/master/src/text/template/parse/lex.go

package parser

import "strings"

// lex creates a new scanner for the input string.
func lex(input string) *lexer {
	return buildlex(input, lexSource)
}

// tokenType identifies the type of lexer lexemes.
type tokenType int

const (
	tokenTypeError tokenType = iota // error occurred; value is text of error
	tokenTypeEOF
	tokenTypeWhitespace
	tokenTypeComment

	tokenTypeIdentifier // helloworld, interface
	tokenTypeString     // "hello"
	tokenTypeNumber     // 123, -0x1F, 1.5e3, -Infinity

	tokenTypeLeftBrace    // {
	tokenTypeRightBrace   // }
	tokenTypeLeftParen    // (
	tokenTypeRightParen   // )
	tokenTypeLeftBracket  // [
	tokenTypeRightBracket // ]
	tokenTypeLeftTri      // <
	tokenTypeRightTri     // >

	tokenTypeEquals       // =
	tokenTypeSemicolon    // ;
	tokenTypeComma        // ,
	tokenTypeQuestionMark // ?
	tokenTypeColon        // :
	tokenTypeVariadic     // ...
)

var tokenTypeNames = [...]string{
	tokenTypeError:        "Error",
	tokenTypeEOF:          "EOF",
	tokenTypeWhitespace:   "Whitespace",
	tokenTypeComment:      "Comment",
	tokenTypeIdentifier:   "Identifier",
	tokenTypeString:       "String",
	tokenTypeNumber:       "Number",
	tokenTypeLeftBrace:    "LeftBrace",
	tokenTypeRightBrace:   "RightBrace",
	tokenTypeLeftParen:    "LeftParen",
	tokenTypeRightParen:   "RightParen",
	tokenTypeLeftBracket:  "LeftBracket",
	tokenTypeRightBracket: "RightBracket",
	tokenTypeLeftTri:      "LeftTri",
	tokenTypeRightTri:     "RightTri",
	tokenTypeEquals:       "Equals",
	tokenTypeSemicolon:    "Semicolon",
	tokenTypeComma:        "Comma",
	tokenTypeQuestionMark: "QuestionMark",
	tokenTypeColon:        "Colon",
	tokenTypeVariadic:     "Variadic",
}

func (t tokenType) String() string {
	if t >= 0 && int(t) < len(tokenTypeNames) {
		return tokenTypeNames[t]
	}
	return "tokenType(?)"
}

func isCommentToken(kind tokenType) bool {
	return kind == tokenTypeComment
}

// lexSource scans until EOFRUNE
func lexSource(l *lexer) stateFn {
	for {
		switch r := l.next(); {
		case r == EOFRUNE:
			l.emit(tokenTypeEOF)
			return nil

		case r == '{':
			l.emit(tokenTypeLeftBrace)

		case r == '}':
			l.emit(tokenTypeRightBrace)

		case r == '(':
			l.emit(tokenTypeLeftParen)

		case r == ')':
			l.emit(tokenTypeRightParen)

		case r == '[':
			l.emit(tokenTypeLeftBracket)

		case r == ']':
			l.emit(tokenTypeRightBracket)

		case r == '<':
			l.emit(tokenTypeLeftTri)

		case r == '>':
			l.emit(tokenTypeRightTri)

		case r == ';':
			l.emit(tokenTypeSemicolon)

		case r == ',':
			l.emit(tokenTypeComma)

		case r == '.':
			if l.acceptString("..") {
				l.emit(tokenTypeVariadic)
			} else if isDigit(l.peek()) {
				l.backup()
				return lexNumber
			} else {
				return l.errorf("unrecognized character at this location: %#U", r)
			}

		case r == '=':
			l.emit(tokenTypeEquals)

		case r == '?':
			l.emit(tokenTypeQuestionMark)

		case r == ':':
			l.emit(tokenTypeColon)

		case isSpace(r) || isNewline(r):
			l.emit(tokenTypeWhitespace)

		case r == '"':
			l.backup()
			return lexStringLiteral

		case r == '-' || isDigit(r):
			l.backup()
			return lexNumber

		case isAlphaNumeric(r):
			l.backup()
			return lexIdentifierOrKeyword

		case r == '/':
			l.backup()
			if strings.HasPrefix(l.input[l.pos:], "/*") {
				return lexMultilineComment
			}
			if strings.HasPrefix(l.input[l.pos:], "//") {
				return lexSinglelineComment
			}
			l.next()
			return l.errorf("unrecognized character at this location: %#U", r)

		default:
			return l.errorf("unrecognized character at this location: %#U", r)
		}
	}
}

// lexSinglelineComment scans until newline or EOFRUNE
func lexSinglelineComment(l *lexer) stateFn {
	checker := func(r rune) (bool, error) {
		result := r == EOFRUNE || isNewline(r)
		return !result, nil
	}

	l.acceptString("//")
	return buildLexUntil(tokenTypeComment, checker)
}

// lexMultilineComment scans until the closing */
func lexMultilineComment(l *lexer) stateFn {
	l.acceptString("/*")
	for {
		if l.acceptString("*/") {
			l.emit(tokenTypeComment)
			return lexSource
		}
		if l.next() == EOFRUNE {
			return l.errorf("unterminated comment")
		}
	}
}

// lexIdentifierOrKeyword searches for a keyword or literal identifier.
func lexIdentifierOrKeyword(l *lexer) stateFn {
	for {
		r := l.peek()
		// identifiers may contain dashes after the first character
		if !isAlphaNumeric(r) && !(r == '-' && l.pos > l.start) {
			break
		}
		l.next()
	}
	l.emit(tokenTypeIdentifier)
	return lexSource
}

// lexNumber scans integers (decimal, hex, octal) and floats, optionally negative,
// plus the -Infinity literal.
func lexNumber(l *lexer) stateFn {
	l.accept("-")
	if l.acceptString("Infinity") {
		l.emit(tokenTypeNumber)
		return lexSource
	}
	digits := "0123456789"
	if l.acceptString("0x") || l.acceptString("0X") {
		digits = "0123456789abcdefABCDEF"
	}
	found := l.acceptRun(digits)
	if l.accept(".") {
		found = l.acceptRun("0123456789") || found
	}
	if !found {
		return l.errorf("malformed number: %q", l.value())
	}
	if l.accept("eE") {
		l.accept("+-")
		if !l.acceptRun("0123456789") {
			return l.errorf("malformed number: %q", l.value())
		}
	}
	l.emit(tokenTypeNumber)
	return lexSource
}

func lexStringLiteral(l *lexer) stateFn {
	l.accept(`"`)
	esc := false
	for {
		c := l.peek()
		if c == EOFRUNE || isNewline(c) {
			return l.errorf("unterminated string literal")
		}
		if c == '"' && !esc {
			l.next()
			break
		}
		esc = c == '\\' && !esc
		l.next()
	}
	l.emit(tokenTypeString)
	return lexSource
}
