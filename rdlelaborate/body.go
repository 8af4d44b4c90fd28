package rdlelaborate

import (
	"strings"

	"github.com/vowstar/systemrdl-toolkit/rdlast"
	"github.com/vowstar/systemrdl-toolkit/rdldiag"
	"github.com/vowstar/systemrdl-toolkit/rdleval"
	"github.com/vowstar/systemrdl-toolkit/rdlmodel"
	"github.com/vowstar/systemrdl-toolkit/rdlregistry"
)

// elaborateBody implements §4.4 step 6 and the "Property handling inside a
// body" section: walk body items in source order, instantiating nested
// children, applying property assignments to node, and recording `default`
// statements onto the current defaultStack level so later siblings (and
// their descendants) pick them up.
func (e *Elaborator) elaborateBody(body []rdlast.BodyItem, node *rdlmodel.Node, reg *rdlregistry.Registry, mode AddressingMode) {
	childReg := rdlregistry.New(reg)
	// Nested named type decls were already registered in Pass 1 against the
	// file-level registry tree; re-register them here too so a lookup from
	// within this body resolves through childReg's outer chain uniformly.
	for _, item := range body {
		if t, ok := item.(*rdlast.ComponentTypeDecl); ok && t.Name != "" {
			_ = childReg.Register(t.Name, t)
		}
	}

	c := &cursor{mode: mode}

	for _, item := range body {
		switch stmt := item.(type) {
		case *rdlast.ComponentTypeDecl:
			// Pure type declaration, nothing to instantiate.
		case *rdlast.InstanceDecl:
			if kind, ok := e.childKind(stmt, childReg); ok && !rdlast.IsLegalChild(node.Kind, kind) {
				e.diags.Add(rdldiag.IllegalChild, stmt.SrcPath, stmt.Line, stmt.Col,
					"a %s may not directly contain a %s", node.Kind, kind)
				continue
			}
			child := e.instantiate(stmt, childReg, node, c)
			if child != nil {
				e.applyInheritedDefaults(child)
			}
		case *rdlast.PropertyAssignStmt:
			v, err := rdleval.Eval(stmt.Value, e.scope, rdlmodel.PathResolver{Current: node})
			if err != nil {
				e.report(err, stmt.SrcPath, stmt.Line, stmt.Col)
				continue
			}
			node.SetProperty(stmt.Property, v)
		case *rdlast.DynamicPropertyAssignStmt:
			e.applyDynamicAssign(stmt, node)
		case *rdlast.DefaultPropertyAssignStmt:
			v, err := rdleval.Eval(stmt.Value, e.scope, rdlmodel.PathResolver{Current: node})
			if err != nil {
				e.report(err, stmt.SrcPath, stmt.Line, stmt.Col)
				continue
			}
			e.defaultStack[len(e.defaultStack)-1][stmt.Property] = v
		}
	}
}

// childKind reports the component kind an instance declaration would
// produce, without fully instantiating it, so illegal-child checks can run
// before any side effects.
func (e *Elaborator) childKind(inst *rdlast.InstanceDecl, reg *rdlregistry.Registry) (rdlast.ComponentKind, bool) {
	if inst.AnonType != nil {
		return inst.AnonType.Kind, true
	}
	if inst.TypeRef != nil {
		return inst.TypeRef.Kind, true
	}
	if t, err := reg.Resolve(inst.TypeName); err == nil {
		return t.Kind, true
	}
	return 0, false
}

// applyInheritedDefaults implements the "nearest enclosing default" half of
// §4.4 property inheritance: for every property named in an ancestor
// body's default set (not including child's own body, which applies only
// to child's own descendants), set it on child unless child already has an
// explicit value. Nearer (more deeply nested) defaults win over farther
// ones.
func (e *Elaborator) applyInheritedDefaults(child *rdlmodel.Node) {
	// child's own defaultStack level was pushed and popped inside
	// instantiate(); by the time we are called, the relevant ancestor
	// levels are exactly e.defaultStack (the parent's chain).
	for i := len(e.defaultStack) - 1; i >= 0; i-- {
		for name, v := range e.defaultStack[i] {
			if _, has := child.Property(name); !has {
				child.SetProperty(name, v)
			}
		}
	}
}

// applyDynamicAssign implements §4.4's dynamic assignment: resolve the
// target path against already-elaborated children of node, in source
// order, failing ForwardReference if any segment is missing.
func (e *Elaborator) applyDynamicAssign(stmt *rdlast.DynamicPropertyAssignStmt, node *rdlmodel.Node) {
	target := node
	for _, seg := range stmt.TargetPath {
		child := target.FindChild(seg)
		if child == nil {
			e.diags.Add(rdldiag.ForwardReference, stmt.SrcPath, stmt.Line, stmt.Col,
				"%q is not yet elaborated (dynamic assignment to %s.%s)", seg, strings.Join(stmt.TargetPath, "."), stmt.Property)
			return
		}
		target = child
	}
	v, err := rdleval.Eval(stmt.Value, e.scope, rdlmodel.PathResolver{Current: target})
	if err != nil {
		e.report(err, stmt.SrcPath, stmt.Line, stmt.Col)
		return
	}
	target.SetProperty(stmt.Property, v)
}
