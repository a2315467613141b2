package ast

import "strings"

// FindAnnotation returns the first annotation with one of the given names.
// Several extended attributes were renamed with a Legacy prefix, so callers
// usually pass both spellings.
func FindAnnotation(list []*Annotation, names ...string) *Annotation {
	for _, a := range list {
		for _, n := range names {
			if a.Name == n {
				return a
			}
		}
	}
	return nil
}

// HasAnnotation reports whether any of the named annotations is present.
func HasAnnotation(list []*Annotation, names ...string) bool {
	return FindAnnotation(list, names...) != nil
}

// Annotations returns the annotation list of a member.
func Annotations(m InterfaceMember) []*Annotation {
	switch m := m.(type) {
	case *Attribute:
		return m.Annotations
	case *Operation:
		return m.Annotations
	case *Constant:
		return m.Annotations
	case *Constructor:
		return m.Annotations
	case *Iterable:
		return m.Annotations
	}
	return nil
}

// MemberName returns the identifier of a member, or "" for anonymous ones.
func MemberName(m InterfaceMember) string {
	switch m := m.(type) {
	case *Attribute:
		return m.Name
	case *Operation:
		return m.Name
	case *Constant:
		return m.Name
	}
	return ""
}

// IsNullable reports whether t accepts null.
func IsNullable(t Type) bool {
	_, ok := t.(*NullableType)
	return ok
}

// StripNullable returns the inner type of T?, or t itself.
func StripNullable(t Type) Type {
	if n, ok := t.(*NullableType); ok {
		return n.Type
	}
	return t
}

// Named returns the name of a plain named type, or "".
func Named(t Type) string {
	if n, ok := t.(*TypeName); ok {
		return n.Name
	}
	return ""
}

// IsVoid reports whether t is a void/undefined return type.
func IsVoid(t Type) bool {
	switch Named(t) {
	case "void", "undefined":
		return true
	}
	return t == nil
}

// TypeString renders a type expression back to IDL syntax.
func TypeString(t Type) string {
	var sb strings.Builder
	writeType(&sb, t)
	return sb.String()
}

func writeType(sb *strings.Builder, t Type) {
	switch t := t.(type) {
	case nil:
		sb.WriteString("undefined")
	case *AnyType:
		sb.WriteString("any")
	case *TypeName:
		sb.WriteString(t.Name)
	case *NullableType:
		writeType(sb, t.Type)
		sb.WriteByte('?')
	case *SequenceType:
		writeGeneric(sb, "sequence", t.Elem)
	case *FrozenArrayType:
		writeGeneric(sb, "FrozenArray", t.Elem)
	case *PromiseType:
		writeGeneric(sb, "Promise", t.Elem)
	case *RecordType:
		writeGeneric(sb, "record", t.Key, t.Elem)
	case *ArrayType:
		writeType(sb, t.Elem)
		sb.WriteString("[]")
	case *UnionType:
		sb.WriteByte('(')
		for i, u := range t.Types {
			if i > 0 {
				sb.WriteString(" or ")
			}
			writeType(sb, u)
		}
		sb.WriteByte(')')
	}
}

func writeGeneric(sb *strings.Builder, name string, args ...Type) {
	sb.WriteString(name)
	sb.WriteByte('<')
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeType(sb, a)
	}
	sb.WriteByte('>')
}

// String renders a literal back to IDL syntax.
func (l *Literal) String() string {
	if l == nil {
		return ""
	}
	switch l.Kind {
	case LiteralString:
		return `"` + l.Value + `"`
	case LiteralEmptySequence:
		return "[]"
	case LiteralEmptyObject:
		return "{}"
	}
	return l.Value
}
