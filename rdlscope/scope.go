// Package rdlscope implements the Symbol & Scope Table (spec §4.1): a
// lexically scoped name resolver for component types, parameter bindings,
// enum definitions, and in-progress elaborated siblings.
//
// Grounded on the teacher's loader.TypeScope (a scope stack with an Env
// per level, Push/PushComponent/PushMethod for nested scopes) and
// decl.Env (store map + outer chain, Get walks outward).
package rdlscope

import (
	"fmt"

	"github.com/vowstar/systemrdl-toolkit/rdldiag"
	"github.com/vowstar/systemrdl-toolkit/rdlast"
	"github.com/vowstar/systemrdl-toolkit/rdlvalue"
)

// BindingKind is the closed set of things a scope entry can name (§4.1:
// "component type, parameter value, enum/struct definition, elaborated
// node ..., or property alias").
type BindingKind int

const (
	BindingComponentType BindingKind = iota
	BindingParam
	BindingEnum
	BindingNode
	BindingAlias
)

// Binding is a single scope entry. Only the field matching Kind is
// meaningful; Node is typed `any` so this package need not import the
// elaborated-model package — callers type-assert it to *rdlmodel.Node.
type Binding struct {
	Kind  BindingKind
	Type  *rdlast.ComponentTypeDecl
	Param rdlvalue.Value
	Enum  *rdlast.EnumDecl
	Node  any
	Alias string
}

// scope is one level of the lexical scope stack.
type scope struct {
	store map[string]Binding
	outer *scope
}

func newScope(outer *scope) *scope {
	return &scope{store: make(map[string]Binding), outer: outer}
}

// Table is the Symbol & Scope Table described by §4.1. The zero value is
// not usable; construct with NewTable.
type Table struct {
	current *scope
}

// NewTable constructs a scope table with a populated lexical root scope:
// the five built-in component kinds, the sw/hw access enum, and the
// onread/onwrite behavior enum (§4.1).
func NewTable() *Table {
	root := newScope(nil)
	t := &Table{current: root}
	installBuiltins(root)
	return t
}

func installBuiltins(root *scope) {
	root.store["sw"] = Binding{Kind: BindingEnum, Enum: &rdlast.EnumDecl{Name: "sw", Values: []string{"rw", "r", "w", "rw1", "w1"}}}
	root.store["hw"] = Binding{Kind: BindingEnum, Enum: &rdlast.EnumDecl{Name: "hw", Values: []string{"rw", "r", "w", "na"}}}
	root.store["onread"] = Binding{Kind: BindingEnum, Enum: &rdlast.EnumDecl{Name: "onread", Values: []string{"rclr", "rset", "ruser"}}}
	root.store["onwrite"] = Binding{Kind: BindingEnum, Enum: &rdlast.EnumDecl{Name: "onwrite", Values: []string{"woset", "woclr", "wot", "wzs", "wzc", "wzt", "wclr", "wset", "wuser"}}}
	for _, k := range []string{"addrmap", "regfile", "reg", "field", "mem"} {
		root.store[k] = Binding{Kind: BindingAlias, Alias: k}
	}
}

// EnterScope pushes a fresh empty scope nested inside the current one.
// Callers must pair every EnterScope with a LeaveScope — typically via
// defer — even on error paths (§4.1).
func (t *Table) EnterScope() {
	t.current = newScope(t.current)
}

// LeaveScope pops the innermost scope. It is a no-op (rather than a panic)
// if called with no scope left to pop beyond the root, so a defer chain
// that outlives an early return never corrupts the stack.
func (t *Table) LeaveScope() {
	if t.current.outer != nil {
		t.current = t.current.outer
	}
}

// Declare adds name to the *current* scope. It fails with DuplicateName if
// name already exists in the current scope; shadowing an outer scope's
// binding of the same name is allowed (§4.1).
func (t *Table) Declare(name string, b Binding) error {
	if _, exists := t.current.store[name]; exists {
		return &ScopeError{Kind: rdldiag.DuplicateName, Name: name}
	}
	t.current.store[name] = b
	return nil
}

// Redeclare is like Declare but overwrites any existing binding in the
// current scope without error. The elaborator uses it to install the
// compilation unit's enum declarations.
func (t *Table) Redeclare(name string, b Binding) {
	t.current.store[name] = b
}

// Lookup walks from the current scope outward to the lexical root,
// returning the first matching binding (§4.1: "lookups walk
// inward-to-outward"). Fails with UnresolvedName if no scope contains a
// matching declaration.
func (t *Table) Lookup(name string) (Binding, error) {
	for s := t.current; s != nil; s = s.outer {
		if b, ok := s.store[name]; ok {
			return b, nil
		}
	}
	return Binding{}, &ScopeError{Kind: rdldiag.UnresolvedName, Name: name}
}

// LookupLocal looks up name only in the current (innermost) scope,
// without walking outward. Used to check for shadowing before a Declare.
func (t *Table) LookupLocal(name string) (Binding, bool) {
	b, ok := t.current.store[name]
	return b, ok
}

// ScopeError reports a name-resolution failure with the rdldiag.Kind it
// should surface as.
type ScopeError struct {
	Kind rdldiag.Kind
	Name string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("%s: %q", e.Kind, e.Name)
}
