// Package fragment composes generated JavaScript as a tree of pieces with an
// attached dependency set. Text is produced only by String, at the very end.
package fragment

import (
	"strings"
)

const indentUnit = "  "

// Piece is one element of a code tree: a Line, a Block or a nested Code.
type Piece interface {
	write(sb *strings.Builder, depth int)
}

// Line is a single line of code without its indentation.
type Line string

// Block is `Head` + indented Body + `Tail`, e.g. a function or an if statement.
type Block struct {
	Head string
	Body *Code
	Tail string
}

// Code is an ordered list of pieces.
type Code struct {
	pieces []Piece
}

func (l Line) write(sb *strings.Builder, depth int) {
	if l == "" {
		sb.WriteByte('\n')
		return
	}
	for _, part := range strings.Split(string(l), "\n") {
		if part != "" {
			sb.WriteString(strings.Repeat(indentUnit, depth))
			sb.WriteString(part)
		}
		sb.WriteByte('\n')
	}
}

func (b *Block) write(sb *strings.Builder, depth int) {
	Line(b.Head).write(sb, depth)
	if b.Body != nil {
		b.Body.write(sb, depth+1)
	}
	if b.Tail != "" {
		Line(b.Tail).write(sb, depth)
	}
}

func (c *Code) write(sb *strings.Builder, depth int) {
	if c == nil {
		return
	}
	for _, p := range c.pieces {
		p.write(sb, depth)
	}
}

// New returns code made of the given lines.
func New(lines ...string) *Code {
	c := &Code{}
	for _, l := range lines {
		c.Line(l)
	}
	return c
}

// Line appends one line.
func (c *Code) Line(s string) *Code {
	c.pieces = append(c.pieces, Line(s))
	return c
}

// Linef appends one formatted line.
func (c *Code) Linef(format string, args ...interface{}) *Code {
	return c.Line(sprintf(format, args...))
}

// Blank appends an empty line.
func (c *Code) Blank() *Code {
	return c.Line("")
}

// Block appends head, the body built by fn one level deeper, and tail.
func (c *Code) Block(head, tail string, fn func(b *Code)) *Code {
	body := &Code{}
	if fn != nil {
		fn(body)
	}
	c.pieces = append(c.pieces, &Block{Head: head, Body: body, Tail: tail})
	return c
}

// Blockf is Block with a formatted head and a closing "}".
func (c *Code) Blockf(fn func(b *Code), format string, args ...interface{}) *Code {
	return c.Block(sprintf(format, args...), "}", fn)
}

// Append adds other as a nested piece at the current depth.
func (c *Code) Append(other *Code) *Code {
	if other != nil && !other.Empty() {
		c.pieces = append(c.pieces, other)
	}
	return c
}

// Empty reports whether the code has no pieces.
func (c *Code) Empty() bool {
	return c == nil || len(c.pieces) == 0
}

// String renders the code.
func (c *Code) String() string {
	var sb strings.Builder
	c.write(&sb, 0)
	return sb.String()
}

// Fragment is generated code together with the modules it needs.
type Fragment struct {
	Code     *Code
	Requires *Requires
}

// NewFragment returns an empty fragment.
func NewFragment() *Fragment {
	return &Fragment{Code: &Code{}, Requires: NewRequires()}
}

// Merge appends other's code and unions its dependencies.
func (f *Fragment) Merge(other *Fragment) error {
	if other == nil {
		return nil
	}
	f.Code.Append(other.Code)
	return f.Requires.Merge(other.Requires)
}
