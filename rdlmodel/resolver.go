package rdlmodel

import (
	"fmt"

	"github.com/vowstar/systemrdl-toolkit/rdldiag"
	"github.com/vowstar/systemrdl-toolkit/rdlvalue"
)

// PathResolver implements rdleval.Resolver by walking a path expression's
// segments starting from a "current" node, following `this`, `parent`, and
// named-child segments, and reading the final segment off as a property
// name (§4.2's navigational reference form).
type PathResolver struct {
	Current *Node
}

// ResolvePath implements rdleval.Resolver.
func (r PathResolver) ResolvePath(segments []string) (rdlvalue.Value, error) {
	if len(segments) == 0 {
		return rdlvalue.Value{}, fmt.Errorf("empty path expression")
	}
	node := r.Current
	i := 0
	switch segments[0] {
	case "this":
		i = 1
	case "parent":
		if node.Parent == nil {
			return rdlvalue.Value{}, fmt.Errorf("%s: parent reference from the root node", rdldiag.UnresolvedName)
		}
		node = node.Parent
		i = 1
	}
	for ; i < len(segments)-1; i++ {
		child := node.FindChild(segments[i])
		if child == nil {
			return rdlvalue.Value{}, fmt.Errorf("%s: no such child %q under %s", rdldiag.UnresolvedName, segments[i], node.QualifiedName())
		}
		node = child
	}
	last := segments[len(segments)-1]
	if v, ok := node.Property(last); ok {
		return v, nil
	}
	if child := node.FindChild(last); child != nil {
		return rdlvalue.RefValue(child.Path), nil
	}
	return rdlvalue.Value{}, fmt.Errorf("%s: %q has no property or child %q", rdldiag.UnresolvedName, node.QualifiedName(), last)
}
