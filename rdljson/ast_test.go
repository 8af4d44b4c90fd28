package rdljson_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vowstar/systemrdl-toolkit/ptree"
	"github.com/vowstar/systemrdl-toolkit/rdljson"
)

func TestMarshalAstRendersRuleAndTerminalNodes(t *testing.T) {
	tok := ptree.Token{Path: "top.rdl", Line: 1, Col: 1, Text: "addrmap"}
	leaf := ptree.NewTerminal("top.rdl", 1, 10, "chip")
	root := ptree.NewRule(ptree.RuleComponentNamedDef, tok, leaf)

	out, err := rdljson.MarshalAst(root)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "SystemRDL_AST", doc["format"])

	ast := doc["ast"].([]any)
	require.Len(t, ast, 1)
	node := ast[0].(map[string]any)
	assert.Equal(t, "rule", node["type"])
	assert.Equal(t, "component_named_def", node["rule_name"])

	children := node["children"].([]any)
	require.Len(t, children, 1)
	child := children[0].(map[string]any)
	assert.Equal(t, "terminal", child["type"])
	assert.Equal(t, "chip", child["text"])
	assert.Equal(t, float64(10), child["column"])
}

func TestMarshalAstNilRootProducesEmptyAst(t *testing.T) {
	out, err := rdljson.MarshalAst(nil)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Nil(t, doc["ast"])
}
