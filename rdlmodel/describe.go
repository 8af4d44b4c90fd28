package rdlmodel

import (
	"fmt"
	"strings"
)

// Describe renders a one-line-per-node textual walk of n and its subtree,
// indented by depth. Grounded on the teacher's Node.String()/PrettyPrint
// convention (decl/ast.go, decl/stmt.go): a terse default rendering usable
// for the CLI's non-JSON output and for debugging in tests, independent of
// the JSON serialization in rdljson.
func (n *Node) Describe() string {
	var b strings.Builder
	n.describe(&b, 0)
	return b.String()
}

func (n *Node) describe(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.describeSelf())
	b.WriteByte('\n')
	for _, c := range n.Children {
		c.describe(b, depth+1)
	}
}

func (n *Node) describeSelf() string {
	if n.HasBitRange {
		return fmt.Sprintf("%s %s [%d:%d]%s", n.Kind, n.Name, n.Msb, n.Lsb, n.describeProps())
	}
	loc := "0x" + fmt.Sprintf("%x", n.Address)
	if !n.AddressSet {
		loc = "<unaddressed>"
	}
	dims := ""
	if len(n.ArrayDims) > 0 {
		parts := make([]string, len(n.ArrayDims))
		for i, d := range n.ArrayDims {
			parts[i] = fmt.Sprintf("%d", d)
		}
		dims = "[" + strings.Join(parts, "][") + "]"
	}
	return fmt.Sprintf("%s %s%s @ %s size=%d%s", n.Kind, n.Name, dims, loc, n.Size, n.describeProps())
}

// describeProps renders a parenthesized "(k=v, ...)" suffix for nodes
// carrying resolved properties, in source insertion order (§3), omitted
// entirely when there are none.
func (n *Node) describeProps() string {
	names := n.PropertyNames()
	if len(names) == 0 {
		return ""
	}
	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = fmt.Sprintf("%s=%s", k, n.Properties[k].String())
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
