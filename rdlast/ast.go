// Package rdlast defines the typed SystemRDL AST that the elaboration core
// operates on (spec §3, §4.3, §4.4), and the lowering step that builds it
// from the generic input parse tree (spec §6, package ptree).
//
// Grounded throughout on the teacher's decl package: a Node interface with
// position tracking, Declaration/Expr/Stmt marker interfaces, and a
// FileDecl root that registers the definitions it contains.
package rdlast

import "fmt"

// Node is any AST node: carries a source location for diagnostics.
type Node interface {
	Pos() (path string, line, col int)
}

// NodeInfo embeds source position tracking, mirroring decl.NodeInfo.
type NodeInfo struct {
	SrcPath string
	Line    int
	Col     int
}

func (n NodeInfo) Pos() (string, int, int) { return n.SrcPath, n.Line, n.Col }

// ParamDecl is a formal parameter: `type name [= default]` (§3).
type ParamDecl struct {
	NodeInfo
	Name         string
	TypeName     string // primitive name or a registered enum/component type name
	DefaultValue Expr   // nil if no default
}

// BodyItem is any item allowed inside a ComponentTypeDecl body: nested type
// declarations, instance declarations, or property assignments (§3).
type BodyItem interface {
	Node
	bodyItemNode()
}

// ComponentTypeDecl is a declared but uninstantiated blueprint (§3): kind,
// optional name, formal parameters, and an ordered body. Types are
// immutable once registered (§3) — callers must not mutate Body/Params
// after the type passes through the registry.
type ComponentTypeDecl struct {
	NodeInfo
	Kind      ComponentKind
	Name      string // "" if anonymous
	IsNative  bool   // carried for parity with the teacher's native/DSL split; unused by elaboration
	Params    []*ParamDecl
	Body      []BodyItem
	anonIndex int // syntactic position, used to key anonymous types (§4.3)
}

func (d *ComponentTypeDecl) bodyItemNode() {}

// AnonKey returns the registry key for an anonymous type: its syntactic
// position, per §4.3 ("anonymous types are registered keyed by their
// syntactic position").
func (d *ComponentTypeDecl) AnonKey() string {
	return fmt.Sprintf("<anon@%d:%d>", d.Line, d.anonIndex)
}

// InstanceDecl is `T inst(<params>) [<dims>] @ <offset> += <stride> %= <align>;`
// (§4.4 step list).
type InstanceDecl struct {
	NodeInfo
	TypeName     string
	TypeRef      *ComponentTypeDecl // direct pointer to the type: set by Build for the implicit root instance, or by callers constructing an AST by hand; otherwise nil, and TypeName is resolved through the registry (or AnonType is used)
	AnonType     *ComponentTypeDecl // set when this instance directly names an anonymous type body
	InstanceName string

	ActualParams []*ActualParam // positional or named actuals

	// Bit-range suffix, only legal on field instances: `name[msb:lsb]` or
	// `name[width]`.
	BitRange *FieldBitRange

	// Array dimensions, each a constant expression (§4.4 step 4).
	Dims []Expr

	// Address/stride/alignment suffixes (§4.4 step 5).
	ExplicitOffset Expr // `@ O`, nil if not given
	Stride         Expr // `+= S`, nil if not given (per-outermost-dimension stride)
	Align          Expr // `%= A`, nil if not given
}

func (d *InstanceDecl) bodyItemNode() {}

// ActualParam is a single actual parameter in an instantiation's parameter
// list; Name is empty for a positional actual.
type ActualParam struct {
	Name  string
	Value Expr
}

// FieldBitRange is `[msb:lsb]` or `[width]` on a field instance (§4.4
// "Derived field attributes"). Exactly one form is populated; the other is
// derived during elaboration.
type FieldBitRange struct {
	NodeInfo
	HasMsbLsb bool
	Msb, Lsb  Expr
	HasWidth  bool
	Width     Expr
}

// PropertyAssignStmt is a local assignment `p = expr;` (§4.4).
type PropertyAssignStmt struct {
	NodeInfo
	Property string
	Value    Expr
}

func (s *PropertyAssignStmt) bodyItemNode() {}

// DynamicPropertyAssignStmt is `a.b.p = expr;` (§4.1, §4.4): resolved
// against already-elaborated siblings, not against the type scope.
type DynamicPropertyAssignStmt struct {
	NodeInfo
	TargetPath []string
	Property   string
	Value      Expr
}

func (s *DynamicPropertyAssignStmt) bodyItemNode() {}

// DefaultPropertyAssignStmt is `default p = expr;` (§4.4): a cascaded
// default scoped to the enclosing body until overridden.
type DefaultPropertyAssignStmt struct {
	NodeInfo
	Property string
	Value    Expr
}

func (s *DefaultPropertyAssignStmt) bodyItemNode() {}

// EnumDecl registers a named enumeration (§4.1: "pre-defined enums" plus
// any user ones the grammar admits).
type EnumDecl struct {
	NodeInfo
	Name   string
	Values []string
}

// FileDecl is the root of a single compilation unit (§1: "no cross-file
// imports beyond a single root compilation unit"). It holds every
// top-level component type and the single top-level instance to
// elaborate.
type FileDecl struct {
	NodeInfo
	Path string

	// Top-level named component type declarations, in source order.
	Types []*ComponentTypeDecl

	// Top-level enum declarations.
	Enums []*EnumDecl

	// The top-level instance to elaborate — conventionally a single
	// addrmap instantiation (§4.4).
	RootInstance *InstanceDecl
}
