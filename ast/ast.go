// Package ast declares the types used to represent WebIDL syntax trees.
//
// Declarations, interface members and types are closed sets: every variant
// implements an unexported marker method, so a type switch over them is the
// complete list of cases.
package ast

type Node interface {
	NodeBase() *Base
}

type Base struct {
	Start    int          `json:"start"` // rune
	End      int          `json:"end"`   // rune
	Comments []string     `json:"comments,omitempty"`
	Errors   []*ErrorNode `json:"errors,omitempty"`
}

func (b *Base) NodeBase() *Base {
	return b
}

// error occurred; value is text of error
type ErrorNode struct {
	Base
	Message string `json:"message"`
}

// Decl is a top-level declaration.
type Decl interface {
	Node
	isDecl()
}

// The file root node
type File struct {
	Base
	Declarations []Decl `json:"declarations,omitempty"`
}

// interface Foo : Bar { ... }
type Interface struct {
	Base
	Name        string            `json:"name"`
	Inherits    string            `json:"inherits,omitempty"`
	Partial     bool              `json:"partial,omitempty"`
	Callback    bool              `json:"callback,omitempty"`
	Annotations []*Annotation     `json:"annotations,omitempty"`
	Members     []InterfaceMember `json:"members,omitempty"`
	CustomOps   []*CustomOp       `json:"custom_ops,omitempty"`
}

// interface mixin Foo { ... }
type Mixin struct {
	Base
	Name        string            `json:"name"`
	Partial     bool              `json:"partial,omitempty"`
	Annotations []*Annotation     `json:"annotations,omitempty"`
	Members     []InterfaceMember `json:"members,omitempty"`
	CustomOps   []*CustomOp       `json:"custom_ops,omitempty"`
}

// dictionary Foo : Bar { ... }
type Dictionary struct {
	Base
	Name        string        `json:"name"`
	Inherits    string        `json:"inherits,omitempty"`
	Partial     bool          `json:"partial,omitempty"`
	Annotations []*Annotation `json:"annotations,omitempty"`
	Members     []*Member     `json:"members,omitempty"`
}

// enum Foo { "a", "b" }
type Enum struct {
	Base
	Name        string        `json:"name"`
	Annotations []*Annotation `json:"annotations,omitempty"`
	Values      []*Literal    `json:"values,omitempty"`
}

// callback Foo = void (long x);
type Callback struct {
	Base
	Name        string        `json:"name"`
	Annotations []*Annotation `json:"annotations,omitempty"`
	Return      Type          `json:"return,omitempty"`
	Parameters  []*Parameter  `json:"parameters,omitempty"`
}

// typedef sequence<long> Foo;
type Typedef struct {
	Base
	Name        string        `json:"name"`
	Annotations []*Annotation `json:"annotations,omitempty"`
	Type        Type          `json:"type"`
}

// Window implements ECMA262Globals
type Implementation struct {
	Base
	Name   string `json:"name"`
	Source string `json:"source"`
}

// Document includes DocumentOrShadowRoot
type Includes struct {
	Base
	Name   string `json:"name"`
	Source string `json:"source"`
}

func (*Interface) isDecl()      {}
func (*Mixin) isDecl()          {}
func (*Dictionary) isDecl()     {}
func (*Enum) isDecl()           {}
func (*Callback) isDecl()       {}
func (*Typedef) isDecl()        {}
func (*Implementation) isDecl() {}
func (*Includes) isDecl()       {}

// [Constructor], []
type Annotation struct {
	Base
	Name       string       `json:"name"`
	Value      string       `json:"value,omitempty"`      // [A=B]
	Parameters []*Parameter `json:"parameters,omitempty"` // [A(X x, Y y)]
	Values     []string     `json:"values,omitempty"`     // [A=(a,b,c)]
}

// optional any SomeArg
type Parameter struct {
	Base
	Annotations []*Annotation `json:"annotations,omitempty"`
	Type        Type          `json:"type"`
	Optional    bool          `json:"optional,omitempty"`
	Variadic    bool          `json:"variadic,omitempty"`
	Name        string        `json:"name"`
	Init        *Literal      `json:"init,omitempty"`
}

// InterfaceMember is a member of an interface, mixin or callback interface.
type InterfaceMember interface {
	Node
	isInterfaceMember()
}

// readonly attribute something
type Attribute struct {
	Base
	Name        string        `json:"name"`
	Type        Type          `json:"type"`
	Static      bool          `json:"static,omitempty"`
	Readonly    bool          `json:"readonly,omitempty"`
	Inherit     bool          `json:"inherit,omitempty"`
	Stringifier bool          `json:"stringifier,omitempty"`
	Annotations []*Annotation `json:"annotations,omitempty"`
}

// getter any item(unsigned long index)
type Operation struct {
	Base
	Name           string        `json:"name,omitempty"`
	Return         Type          `json:"return"`
	Static         bool          `json:"static,omitempty"`
	Specialization string        `json:"specialization,omitempty"` // getter, setter, deleter, stringifier
	Parameters     []*Parameter  `json:"parameters,omitempty"`
	Annotations    []*Annotation `json:"annotations,omitempty"`
}

// const long FOO = 1
type Constant struct {
	Base
	Name        string        `json:"name"`
	Type        Type          `json:"type"`
	Value       *Literal      `json:"value"`
	Annotations []*Annotation `json:"annotations,omitempty"`
}

// constructor(long x)
type Constructor struct {
	Base
	Parameters  []*Parameter  `json:"parameters,omitempty"`
	Annotations []*Annotation `json:"annotations,omitempty"`
}

// iterable<K, V>, async iterable<V>(args)
type Iterable struct {
	Base
	Async       bool          `json:"async,omitempty"`
	Key         Type          `json:"key,omitempty"` // nil for value iterators
	Value       Type          `json:"value"`
	Parameters  []*Parameter  `json:"parameters,omitempty"`
	Annotations []*Annotation `json:"annotations,omitempty"`
}

func (*Attribute) isInterfaceMember()   {}
func (*Operation) isInterfaceMember()   {}
func (*Constant) isInterfaceMember()    {}
func (*Constructor) isInterfaceMember() {}
func (*Iterable) isInterfaceMember()    {}

// Member is a dictionary field: required long x = 1
type Member struct {
	Base
	Name        string        `json:"name"`
	Type        Type          `json:"type"`
	Required    bool          `json:"required,omitempty"`
	Init        *Literal      `json:"init,omitempty"`
	Annotations []*Annotation `json:"annotations,omitempty"`
}

// serializer; jsonifier; stringifier;
type CustomOp struct {
	Base
	Name string `json:"name"`
}

// Type is a type expression.
type Type interface {
	Node
	isType()
}

// any
type AnyType struct {
	Base
}

// long, DOMString, Node
type TypeName struct {
	Base
	Name string `json:"name"`
}

// T?
type NullableType struct {
	Base
	Type Type `json:"type"`
}

// sequence<T>
type SequenceType struct {
	Base
	Elem Type `json:"elem"`
}

// FrozenArray<T>
type FrozenArrayType struct {
	Base
	Elem Type `json:"elem"`
}

// record<K, V>
type RecordType struct {
	Base
	Key  Type `json:"key"`
	Elem Type `json:"elem"`
}

// Promise<T>
type PromiseType struct {
	Base
	Elem Type `json:"elem"`
}

// T[], the array form of old WebIDL drafts
type ArrayType struct {
	Base
	Elem Type `json:"elem"`
}

// (A or B)
type UnionType struct {
	Base
	Types []Type `json:"types"`
}

func (*AnyType) isType()         {}
func (*TypeName) isType()        {}
func (*NullableType) isType()    {}
func (*SequenceType) isType()    {}
func (*FrozenArrayType) isType() {}
func (*RecordType) isType()      {}
func (*PromiseType) isType()     {}
func (*ArrayType) isType()       {}
func (*UnionType) isType()       {}

// LiteralKind classifies a literal value.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralBool
	LiteralNull
	LiteralEmptySequence // []
	LiteralEmptyObject   // {}
)

// 42, "foo", null, [], {}
type Literal struct {
	Base
	Kind  LiteralKind `json:"kind"`
	Value string      `json:"value"` // raw text; strings keep their quotes stripped
}
