package rdljson_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vowstar/systemrdl-toolkit/rdlast"
	"github.com/vowstar/systemrdl-toolkit/rdljson"
	"github.com/vowstar/systemrdl-toolkit/rdlmodel"
	"github.com/vowstar/systemrdl-toolkit/rdlvalue"
)

func TestMarshalOmitsAbsentOptionalSections(t *testing.T) {
	leaf := rdlmodel.NewNode(rdlast.KindReg, "ctrl", nil, nil)
	leaf.Address = 0x10
	leaf.Size = 4

	out, err := rdljson.Marshal(leaf)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "SystemRDL_ElaboratedModel", doc["format"])

	model := doc["model"].([]any)
	require.Len(t, model, 1)
	node := model[0].(map[string]any)
	assert.Equal(t, "reg", node["node_type"])
	assert.Equal(t, "ctrl", node["inst_name"])
	assert.Equal(t, "0x10", node["absolute_address"])
	_, hasProps := node["properties"]
	assert.False(t, hasProps)
	_, hasChildren := node["children"]
	assert.False(t, hasChildren)
	_, hasDims := node["array_dimensions"]
	assert.False(t, hasDims)
}

func TestMarshalRendersPropertiesAndChildren(t *testing.T) {
	reg := rdlmodel.NewNode(rdlast.KindReg, "ctrl", nil, nil)
	reg.Address, reg.Size = 0, 4
	field := rdlmodel.NewNode(rdlast.KindField, "en", nil, nil)
	field.HasBitRange = true
	field.Msb, field.Lsb = 0, 0
	field.SetProperty("sw", rdlvalue.EnumValue("sw", "rw", 0))
	field.SetProperty("desc", rdlvalue.StringValue("enable bit"))
	reg.AddChild(field)

	out, err := rdljson.Marshal(reg)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))
	model := doc["model"].([]any)[0].(map[string]any)
	children := model["children"].([]any)
	require.Len(t, children, 1)
	child := children[0].(map[string]any)
	assert.Equal(t, "field", child["node_type"])
	props := child["properties"].(map[string]any)
	assert.Equal(t, "rw", props["sw"])
	assert.Equal(t, "enable bit", props["desc"])
}

func TestMarshalPreservesPropertyInsertionOrder(t *testing.T) {
	field := rdlmodel.NewNode(rdlast.KindField, "en", nil, nil)
	field.HasBitRange = true
	field.SetProperty("desc", rdlvalue.StringValue("enable bit"))
	field.SetProperty("sw", rdlvalue.EnumValue("sw", "rw", 0))
	field.SetProperty("reset", rdlvalue.IntValue(0))

	out, err := rdljson.Marshal(field)
	require.NoError(t, err)

	s := string(out)
	descIdx := strings.Index(s, `"desc"`)
	swIdx := strings.Index(s, `"sw"`)
	resetIdx := strings.Index(s, `"reset"`)
	require.True(t, descIdx >= 0 && swIdx >= 0 && resetIdx >= 0)
	assert.True(t, descIdx < swIdx)
	assert.True(t, swIdx < resetIdx)
}

func TestMarshalArrayDimensions(t *testing.T) {
	n := rdlmodel.NewNode(rdlast.KindReg, "regs", nil, nil)
	n.ArrayDims = []int64{4}
	n.ArrayStride = 4

	out, err := rdljson.Marshal(n)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))
	model := doc["model"].([]any)[0].(map[string]any)
	dims := model["array_dimensions"].([]any)
	require.Len(t, dims, 1)
	assert.Equal(t, float64(4), dims[0].(map[string]any)["size"])
}

func TestMarshalNilRootProducesEmptyModel(t *testing.T) {
	out, err := rdljson.Marshal(nil)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Nil(t, doc["model"])
}
