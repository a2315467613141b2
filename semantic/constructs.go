// Package semantic links parsed WebIDL declarations into a per-run context:
// it merges partial declarations, applies includes and implements statements,
// resolves typedefs and computes the derived interface flags every generator
// depends on.
package semantic

import "github.com/dennwc/webidl2js/ast"

// Kind is the category of a named construct.
type Kind int

const (
	KindUnknown Kind = iota
	KindInterface
	KindMixin
	KindDictionary
	KindEnum
	KindCallback
	KindCallbackInterface
	KindTypedef
)

var kindNames = [...]string{
	KindUnknown:           "unknown",
	KindInterface:         "interface",
	KindMixin:             "interface mixin",
	KindDictionary:        "dictionary",
	KindEnum:              "enumeration",
	KindCallback:          "callback function",
	KindCallbackInterface: "callback interface",
	KindTypedef:           "typedef",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Construct is a named top-level declaration owned by a Context.
type Construct interface {
	ConstructName() string
	Kind() Kind
}

// Interface is a linked, non-callback interface.
type Interface struct {
	Name        string
	Inherits    string
	Source      string // IDL file the base declaration came from
	Annotations []*ast.Annotation
	Members     []ast.InterfaceMember
	CustomOps   []*ast.CustomOp

	// Includes lists the interface mixins merged into Members.
	Includes []string
	// Implements lists interfaces mixed in at runtime (legacy implements).
	Implements []string

	// Features is computed by Link and is read-only afterwards.
	Features Features
}

// Mixin is an interface mixin; its members are merged into every including interface.
type Mixin struct {
	Name        string
	Source      string
	Annotations []*ast.Annotation
	Members     []ast.InterfaceMember
	CustomOps   []*ast.CustomOp
}

// Dictionary is a linked dictionary with partial members merged in.
type Dictionary struct {
	Name        string
	Inherits    string
	Source      string
	Annotations []*ast.Annotation
	Members     []*ast.Member
}

// Enum is an enumeration with unique values.
type Enum struct {
	Name        string
	Source      string
	Annotations []*ast.Annotation
	Values      []string
}

// CallbackFunction is `callback Name = Return (params)`.
type CallbackFunction struct {
	Name        string
	Source      string
	Annotations []*ast.Annotation
	Return      ast.Type
	Parameters  []*ast.Parameter
}

// CallbackInterface has exactly one operation and any number of constants.
type CallbackInterface struct {
	Name        string
	Source      string
	Annotations []*ast.Annotation
	Operation   *ast.Operation
	Constants   []*ast.Constant
}

// Typedef names another type expression.
type Typedef struct {
	Name        string
	Source      string
	Annotations []*ast.Annotation
	Type        ast.Type
}

func (i *Interface) ConstructName() string         { return i.Name }
func (m *Mixin) ConstructName() string             { return m.Name }
func (d *Dictionary) ConstructName() string        { return d.Name }
func (e *Enum) ConstructName() string              { return e.Name }
func (c *CallbackFunction) ConstructName() string  { return c.Name }
func (c *CallbackInterface) ConstructName() string { return c.Name }
func (t *Typedef) ConstructName() string           { return t.Name }

func (*Interface) Kind() Kind         { return KindInterface }
func (*Mixin) Kind() Kind             { return KindMixin }
func (*Dictionary) Kind() Kind        { return KindDictionary }
func (*Enum) Kind() Kind              { return KindEnum }
func (*CallbackFunction) Kind() Kind  { return KindCallback }
func (*CallbackInterface) Kind() Kind { return KindCallbackInterface }
func (*Typedef) Kind() Kind           { return KindTypedef }

// Operations returns the regular (non-special, named) operations of the
// interface grouped by name, in declaration order of their first overload.
func (i *Interface) Operations(static bool) (names []string, byName map[string][]*ast.Operation) {
	byName = make(map[string][]*ast.Operation)
	for _, m := range i.Members {
		op, ok := m.(*ast.Operation)
		if !ok || op.Name == "" || op.Static != static {
			continue
		}
		if _, seen := byName[op.Name]; !seen {
			names = append(names, op.Name)
		}
		byName[op.Name] = append(byName[op.Name], op)
	}
	return names, byName
}

// Constructors returns the constructor signatures, including the legacy
// [Constructor(...)] extended attribute form.
func (i *Interface) Constructors() [][]*ast.Parameter {
	var out [][]*ast.Parameter
	for _, m := range i.Members {
		if c, ok := m.(*ast.Constructor); ok {
			out = append(out, c.Parameters)
		}
	}
	for _, a := range i.Annotations {
		if a.Name == "Constructor" {
			out = append(out, a.Parameters)
		}
	}
	return out
}

// Exposure returns the global names the interface is installed on.
func (i *Interface) Exposure(def string) []string {
	a := ast.FindAnnotation(i.Annotations, "Exposed")
	switch {
	case a == nil:
		return []string{def}
	case len(a.Values) > 0:
		return a.Values
	case a.Value == "*":
		return []string{"*"}
	case a.Value != "":
		return []string{a.Value}
	}
	return []string{def}
}
