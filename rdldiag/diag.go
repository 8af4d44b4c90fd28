// Package rdldiag defines the diagnostic taxonomy emitted by the elaboration
// core (spec §7). Diagnostics are accumulated rather than returned on first
// failure so a single elaboration run surfaces every problem it finds.
package rdldiag

import "fmt"

// Kind identifies a distinct diagnostic type from the closed taxonomy in §7.
type Kind string

const (
	SyntaxError          Kind = "SyntaxError"
	UnresolvedName       Kind = "UnresolvedName"
	UnresolvedType       Kind = "UnresolvedType"
	DuplicateName        Kind = "DuplicateName"
	DuplicateType        Kind = "DuplicateType"
	TypeMismatch         Kind = "TypeMismatch"
	BadParameter         Kind = "BadParameter"
	DivisionByZero       Kind = "DivisionByZero"
	BadShift             Kind = "BadShift"
	OverflowInWidth      Kind = "OverflowInWidth"
	IllegalChild         Kind = "IllegalChild"
	ForwardReference     Kind = "ForwardReference"
	BitRangeInconsistent Kind = "BitRangeInconsistent"
	FieldOverlap         Kind = "FieldOverlap"
	FieldOutOfRange      Kind = "FieldOutOfRange"
	// AddressOverlap covers both §4.4's explicit-offset instance overlap
	// and §4.5's post-elaboration container overlap check: both are the
	// same observable condition (two children's byte ranges intersect),
	// and the elaborator only ever detects it at the single point the
	// validator sorts a container's children, so there is no separate
	// "InstanceOverlap" case this taxonomy needs to distinguish (§8
	// scenario D reports AddressOverlap for exactly this situation).
	AddressOverlap    Kind = "AddressOverlap"
	MisalignedAddress Kind = "MisalignedAddress" // warning-only
	Unsupported       Kind = "Unsupported"
)

// Severity distinguishes fatal diagnostics (abort elaboration, §7) from
// warnings that may coexist with a successful root.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// severityFor returns the default severity for a diagnostic kind. Only
// MisalignedAddress is a warning per the Open Questions resolution in §9.
func severityFor(k Kind) Severity {
	if k == MisalignedAddress {
		return SeverityWarning
	}
	return SeverityError
}

// Diagnostic is a single reported problem with (kind, message, location,
// optional related-node paths), per §7's propagation contract.
type Diagnostic struct {
	Kind     Kind
	Message  string
	Path     string
	Line     int
	Col      int
	Related  []string
	Severity Severity
}

// String renders "path:line:col: <kind>: <message>", matching the CLI's
// user-visible diagnostic format (§7).
func (d Diagnostic) String() string {
	path := d.Path
	if path == "" {
		path = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", path, d.Line, d.Col, d.Kind, d.Message)
}

// List accumulates diagnostics across an elaboration run without
// short-circuiting the whole pass, matching §4.5/§7: a single register's
// validation failure doesn't stop validation of its siblings.
type List struct {
	items []Diagnostic
}

// Add appends a diagnostic, defaulting its severity from its kind.
func (l *List) Add(kind Kind, path string, line, col int, format string, args ...any) {
	l.items = append(l.items, Diagnostic{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Path:     path,
		Line:     line,
		Col:      col,
		Severity: severityFor(kind),
	})
}

// AddRelated is like Add but records related node paths (e.g. the two
// instance names involved in an AddressOverlap).
func (l *List) AddRelated(kind Kind, path string, line, col int, related []string, format string, args ...any) {
	l.items = append(l.items, Diagnostic{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Path:     path,
		Line:     line,
		Col:      col,
		Related:  related,
		Severity: severityFor(kind),
	})
}

// Extend appends another list's diagnostics (useful when merging child
// node results into a parent's accumulator during recursive elaboration).
func (l *List) Extend(other List) {
	l.items = append(l.items, other.items...)
}

// All returns every diagnostic, errors and warnings alike, in report order.
func (l List) All() []Diagnostic { return l.items }

// Errors returns only diagnostics at error severity.
func (l List) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range l.items {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns only diagnostics at warning severity.
func (l List) Warnings() []Diagnostic {
	var out []Diagnostic
	for _, d := range l.items {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors reports whether any accumulated diagnostic is at error
// severity. A non-empty error set means the elaboration's root is nil
// (§7: "A non-empty diagnostic list with severity >= error means
// RootNode = None").
func (l List) HasErrors() bool {
	for _, d := range l.items {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Len returns the total number of diagnostics (errors and warnings).
func (l List) Len() int { return len(l.items) }
