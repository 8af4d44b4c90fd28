// Package rdljson implements the two JSON interchange schemas (spec §6):
// the elaborated-model document and the AST-dump document. Both are plain
// `encoding/json`-tagged structs, following the teacher's convention in
// runtime/metrics_types.go rather than a schema/codegen library — the
// shapes are small and fixed by the spec, so hand-written structs are the
// idiomatic choice the teacher itself makes for comparable wire types.
package rdljson

import (
	"bytes"
	"encoding/json"
	"fmt"

	gfn "github.com/panyam/goutils/fn"

	"github.com/vowstar/systemrdl-toolkit/rdlmodel"
	"github.com/vowstar/systemrdl-toolkit/rdlvalue"
)

// ModelDocument is the root of the elaborated-model JSON document.
type ModelDocument struct {
	Format string       `json:"format"`
	Version string      `json:"version"`
	Model  []*ModelNode `json:"model"`
}

// ArrayDim is one entry of a node's "array_dimensions" section.
type ArrayDim struct {
	Size int64 `json:"size"`
}

// ModelNode is a single elaborated node in the output tree (§6's <node>).
type ModelNode struct {
	NodeType        string       `json:"node_type"`
	InstName        string       `json:"inst_name"`
	AbsoluteAddress string       `json:"absolute_address"`
	Size            uint64       `json:"size"`
	ArrayDimensions []ArrayDim   `json:"array_dimensions,omitempty"`
	Properties      Properties   `json:"properties,omitempty"`
	Children        []*ModelNode `json:"children,omitempty"`
}

// orderedProperty is one name/value pair within a Properties set.
type orderedProperty struct {
	Name  string
	Value any
}

// Properties is an ordered name/value set that marshals as a JSON object
// while preserving insertion order, rather than the alphabetical key sort
// encoding/json applies to a plain Go map. §3 requires property "insertion
// order preserved for serialization"; a bare map[string]any cannot honor
// that no matter what order it's populated in.
type Properties []orderedProperty

// MarshalJSON renders p as a JSON object with keys in p's own order.
func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(kv.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// NewModelDocument wraps root's subtree in the §6 document envelope.
func NewModelDocument(root *rdlmodel.Node) *ModelDocument {
	var model []*ModelNode
	if root != nil {
		model = []*ModelNode{nodeToJSON(root)}
	}
	return &ModelDocument{Format: "SystemRDL_ElaboratedModel", Version: "1.0", Model: model}
}

// Marshal renders root as the indented elaborated-model JSON document.
func Marshal(root *rdlmodel.Node) ([]byte, error) {
	return json.MarshalIndent(NewModelDocument(root), "", "  ")
}

func nodeToJSON(n *rdlmodel.Node) *ModelNode {
	out := &ModelNode{
		NodeType:        n.Kind.String(),
		InstName:        n.Name,
		AbsoluteAddress: fmt.Sprintf("0x%x", n.Address),
		Size:            n.Size,
	}
	for _, d := range n.ArrayDims {
		out.ArrayDimensions = append(out.ArrayDimensions, ArrayDim{Size: d})
	}
	if names := n.PropertyNames(); len(names) > 0 {
		out.Properties = make(Properties, 0, len(names))
		for _, name := range names {
			v, _ := n.Property(name)
			out.Properties = append(out.Properties, orderedProperty{Name: name, Value: valueToJSON(v)})
		}
	}
	out.Children = gfn.Map(n.Children, nodeToJSON)
	return out
}

// valueToJSON renders a property value per §6: "string / integer / boolean
// / string (for enum)" — an enum serializes as its bare enumerator name,
// a ref as its dotted node path, matching the plain-value style the rest
// of the schema uses rather than a nested tagged object.
func valueToJSON(v rdlvalue.Value) any {
	switch v.Kind {
	case rdlvalue.KindInt:
		return v.Int
	case rdlvalue.KindBool:
		return v.Bool
	case rdlvalue.KindString:
		return v.Str
	case rdlvalue.KindEnum:
		return v.EnumName
	case rdlvalue.KindRef:
		return v.Ref.String()
	default:
		return nil
	}
}
