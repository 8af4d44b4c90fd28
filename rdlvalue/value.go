// Package rdlvalue implements the SystemRDL property value tagged union
// (spec §3) and the node-path reference type used when one elaborated node
// refers to another.
//
// Grounded on the teacher's decl.RuntimeValue / decl.ValueType: a tag plus a
// single Go field per variant. Callers read the exported field that
// matches Kind directly instead of scattering type assertions.
package rdlvalue

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Kind is the closed set of property value kinds from §3: signed integer,
// boolean, string, enumerator reference, or a reference to another
// elaborated node.
type Kind int

const (
	KindInt Kind = iota
	KindBool
	KindString
	KindEnum
	KindRef
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindEnum:
		return "enum"
	case KindRef:
		return "ref"
	default:
		return "unknown"
	}
}

// NodePath is a stable reference to an elaborated node: an ordered index
// chain from the root, per the design note in §9 ("sibling cross-references
// ... use stable node paths, not raw pointers").
type NodePath []int

func (p NodePath) String() string {
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = fmt.Sprintf("%d", idx)
	}
	return strings.Join(parts, ".")
}

// Equal reports structural equality between two node paths.
func (p NodePath) Equal(other NodePath) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Value is the tagged union described by §3 and the re-architecture note in
// §9 ("a proper sum type Int(i64), Bool(bool), Str(String), Enum{type,
// name, value}, Ref(NodeId)").
type Value struct {
	Kind Kind

	Int   int64
	Width int // bit width for KindInt; 0 means "unspecified", treated as 64
	Bool  bool
	Str   string

	EnumType string
	EnumName string
	EnumVal  int64

	Ref NodePath
}

// DefaultIntWidth is the width assumed for an integer literal with no
// explicit width prefix (§4.2: "all integer arithmetic is performed in
// two's-complement of at least 64 bits").
const DefaultIntWidth = 64

// WidthOrDefault returns the value's tracked width, or DefaultIntWidth if
// none was recorded.
func (v Value) WidthOrDefault() int {
	if v.Width <= 0 {
		return DefaultIntWidth
	}
	return v.Width
}

// IntValue constructs a KindInt value with unspecified (64-bit) width.
func IntValue(v int64) Value { return Value{Kind: KindInt, Int: v} }

// IntValueWidth constructs a KindInt value with an explicit tracked width.
func IntValueWidth(v int64, width int) Value { return Value{Kind: KindInt, Int: v, Width: width} }

// BoolValue constructs a KindBool value.
func BoolValue(v bool) Value { return Value{Kind: KindBool, Bool: v} }

// StringValue constructs a KindString value. The string is NFC-normalized
// so that two textually distinct but canonically equal strings (e.g. a
// precomposed vs. decomposed accented character in a `desc` property)
// compare equal under the structural equality §3 requires.
func StringValue(v string) Value { return Value{Kind: KindString, Str: norm.NFC.String(v)} }

// EnumValue constructs a KindEnum value: a qualified enum type name, the
// enumerator's name, and its integer value.
func EnumValue(typeName, name string, val int64) Value {
	return Value{Kind: KindEnum, EnumType: typeName, EnumName: name, EnumVal: val}
}

// RefValue constructs a KindRef value pointing at another elaborated node.
func RefValue(path NodePath) Value { return Value{Kind: KindRef, Ref: path} }

// Equals implements the structural equality required by §3.
func (v Value) Equals(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindInt:
		return v.Int == other.Int
	case KindBool:
		return v.Bool == other.Bool
	case KindString:
		return v.Str == other.Str
	case KindEnum:
		return v.EnumType == other.EnumType && v.EnumName == other.EnumName && v.EnumVal == other.EnumVal
	case KindRef:
		return v.Ref.Equal(other.Ref)
	default:
		return false
	}
}

// String renders a human-readable form, used by the pretty-printer and by
// diagnostic messages.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindString:
		return fmt.Sprintf("%q", v.Str)
	case KindEnum:
		return fmt.Sprintf("%s::%s", v.EnumType, v.EnumName)
	case KindRef:
		return fmt.Sprintf("&%s", v.Ref)
	default:
		return "<invalid value>"
	}
}

// AsBool coerces an int 0/1 to bool where the SystemRDL property schema
// permits it (§4.2 "conversions across kinds are forbidden except where the
// property schema explicitly permits"). Returns false if no coercion applies.
func (v Value) AsBool() (bool, bool) {
	switch v.Kind {
	case KindBool:
		return v.Bool, true
	case KindInt:
		if v.Int == 0 {
			return false, true
		}
		if v.Int == 1 {
			return true, true
		}
	}
	return false, false
}
