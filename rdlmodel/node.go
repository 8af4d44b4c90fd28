// Package rdlmodel defines the elaborated node (spec §3) and its lifecycle
// state machine: Declared -> Bodied -> Validated -> Finalized.
//
// Grounded on the teacher's runtime.ComponentInstance: an instance carries
// a pointer back to its declaration, a map of evaluated parameter values,
// and a map of child instances, built up incrementally as elaboration
// proceeds rather than constructed complete in one call.
package rdlmodel

import (
	"fmt"

	"github.com/vowstar/systemrdl-toolkit/rdlast"
	"github.com/vowstar/systemrdl-toolkit/rdlvalue"
)

// State is a node's position in its elaboration lifecycle (§3).
type State int

const (
	// Declared: the node exists and its type is known, but its body has
	// not yet been walked.
	Declared State = iota
	// Bodied: children have been instantiated and local/default property
	// assignments applied, but dynamic assignments from elsewhere in the
	// tree and cross-node validation have not run.
	Bodied
	// Validated: the post-elaboration validator (§4.5) has run its checks
	// over this node. Whether they passed is recorded in the diagnostic
	// list, not in the state.
	Validated
	// Finalized: the node and its entire subtree are immutable; no further
	// mutation is permitted.
	Finalized
)

func (s State) String() string {
	switch s {
	case Declared:
		return "declared"
	case Bodied:
		return "bodied"
	case Validated:
		return "validated"
	case Finalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// CanTransitionTo reports whether moving from s to next is a legal forward
// step in the lifecycle. The state machine only ever advances; there is no
// legal transition back to an earlier state (§3).
func (s State) CanTransitionTo(next State) bool {
	return next == s+1
}

// Node is a single elaborated component instance: a concrete addressed
// node in the output hierarchy, not a type. Every Node owns its resolved
// property set, its children in instantiation order, and (for leaf
// addressable nodes) its absolute address and size.
type Node struct {
	State State

	Kind ComponentKindOf
	Name string // instance name as declared; an arrayed instance keeps its bare name

	// Type is the component type this node was instantiated from. Nil for
	// the synthetic root wrapper, if any.
	Type *rdlast.ComponentTypeDecl

	// Path is this node's stable address within the elaborated tree,
	// matching the NodePath convention used by rdlvalue.Ref (§9).
	Path rdlvalue.NodePath

	Parent   *Node
	Children []*Node

	// Params holds the bound (name -> evaluated value) parameter set used
	// to instantiate this node's type.
	Params map[string]rdlvalue.Value

	// Properties holds every resolved property on this node, keyed by
	// property name. Local, default-cascaded, and dynamically assigned
	// values all end up here; Bodied -> Validated only reads this map, it
	// never re-derives it from the AST.
	Properties map[string]rdlvalue.Value

	// propOrder records the order properties were first set on this node
	// (§3: "insertion order preserved for serialization"), since a Go map
	// has none of its own. Re-setting an already-present property (e.g. a
	// dynamic assignment overwriting a local one) updates Properties in
	// place without disturbing its recorded position.
	propOrder []string

	// ArrayIndex is an element position within an instance array. NewNode
	// sets it to -1 and the instantiator leaves it there: an arrayed
	// instance is one node carrying ArrayDims, not one node per element.
	ArrayIndex int

	// ArrayDims holds the expanded dimension sizes when this instance was
	// declared with one or more `[N]` suffixes (§4.4 step 4). The node
	// itself represents element 0's body; per the spec's implementation
	// note, other elements are not physically materialized.
	ArrayDims []int64
	// ArrayStride is the per-outermost-dimension address stride in bytes,
	// meaningful only when len(ArrayDims) > 0.
	ArrayStride uint64

	// Addressable node fields (addrmap/regfile/reg/mem only; fields use
	// BitRange instead). AddressSet is false until the instantiator has
	// computed an absolute address for this node.
	AddressSet bool
	Address    uint64
	Size       uint64

	// BitRange is populated only on KindField nodes (§4.4 "derived field
	// attributes").
	HasBitRange bool
	Msb, Lsb    int
}

// ComponentKindOf re-exports rdlast.ComponentKind under the model package so
// callers need not import rdlast just to inspect a Node's kind.
type ComponentKindOf = rdlast.ComponentKind

// NewNode constructs a freshly Declared node. The caller is responsible for
// assigning Path once the node's position among its siblings is known.
func NewNode(kind ComponentKindOf, name string, typ *rdlast.ComponentTypeDecl, parent *Node) *Node {
	return &Node{
		State:      Declared,
		Kind:       kind,
		Name:       name,
		Type:       typ,
		Parent:     parent,
		Params:     make(map[string]rdlvalue.Value),
		Properties: make(map[string]rdlvalue.Value),
		ArrayIndex: -1,
	}
}

// Advance transitions the node forward one step, returning an error if the
// move is not a legal single-step advance.
func (n *Node) Advance(next State) error {
	if !n.State.CanTransitionTo(next) {
		return fmt.Errorf("illegal state transition for node %q: %s -> %s", n.Name, n.State, next)
	}
	n.State = next
	return nil
}

// SetProperty records a resolved property value, overwriting any prior
// value of the same name. Used for local, default-cascaded, and dynamic
// assignments alike; the caller decides precedence before calling this.
func (n *Node) SetProperty(name string, v rdlvalue.Value) {
	if _, exists := n.Properties[name]; !exists {
		n.propOrder = append(n.propOrder, name)
	}
	n.Properties[name] = v
}

// Property looks up a resolved property, reporting whether it was set.
func (n *Node) Property(name string) (rdlvalue.Value, bool) {
	v, ok := n.Properties[name]
	return v, ok
}

// PropertyNames returns every property name set on n, in the order each
// was first assigned (§3: "insertion order preserved for serialization").
func (n *Node) PropertyNames() []string {
	out := make([]string, len(n.propOrder))
	copy(out, n.propOrder)
	return out
}

// AddChild appends child to n's children in instantiation order and wires
// up its Path from n's own path.
func (n *Node) AddChild(child *Node) {
	child.Parent = n
	idx := len(n.Children)
	child.Path = append(append(rdlvalue.NodePath{}, n.Path...), idx)
	n.Children = append(n.Children, child)
}

// FindChild returns the child instance named name, or nil if none exists.
func (n *Node) FindChild(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Walk visits n and every descendant in depth-first, pre-order.
func (n *Node) Walk(visit func(*Node)) {
	visit(n)
	for _, c := range n.Children {
		c.Walk(visit)
	}
}

// FieldWidth returns msb-lsb+1 for a field node with a set bit range, or 0
// if none is set.
func (n *Node) FieldWidth() int {
	if !n.HasBitRange {
		return 0
	}
	return n.Msb - n.Lsb + 1
}

// QualifiedName renders the dotted instance-name path from the root to
// this node, used in diagnostics.
func (n *Node) QualifiedName() string {
	if n.Parent == nil {
		return n.Name
	}
	return n.Parent.QualifiedName() + "." + n.Name
}
