package rdlmodel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vowstar/systemrdl-toolkit/rdlast"
	"github.com/vowstar/systemrdl-toolkit/rdlmodel"
	"github.com/vowstar/systemrdl-toolkit/rdlvalue"
)

func TestNodeStateMachineAdvancesOneStepAtATime(t *testing.T) {
	n := rdlmodel.NewNode(rdlast.KindReg, "r0", nil, nil)
	require.Equal(t, rdlmodel.Declared, n.State)

	require.NoError(t, n.Advance(rdlmodel.Bodied))
	require.NoError(t, n.Advance(rdlmodel.Validated))
	require.NoError(t, n.Advance(rdlmodel.Finalized))
	assert.Equal(t, rdlmodel.Finalized, n.State)
}

func TestNodeStateMachineRejectsSkippingAStep(t *testing.T) {
	n := rdlmodel.NewNode(rdlast.KindReg, "r0", nil, nil)
	err := n.Advance(rdlmodel.Validated)
	require.Error(t, err)
	assert.Equal(t, rdlmodel.Declared, n.State)
}

func TestNodeStateMachineRejectsGoingBackwards(t *testing.T) {
	n := rdlmodel.NewNode(rdlast.KindReg, "r0", nil, nil)
	require.NoError(t, n.Advance(rdlmodel.Bodied))
	err := n.Advance(rdlmodel.Declared)
	require.Error(t, err)
}

func TestAddChildAssignsPathFromParent(t *testing.T) {
	root := rdlmodel.NewNode(rdlast.KindAddrmap, "chip", nil, nil)
	root.Path = rdlvalue.NodePath{}

	reg0 := rdlmodel.NewNode(rdlast.KindReg, "ctrl", nil, nil)
	root.AddChild(reg0)
	reg1 := rdlmodel.NewNode(rdlast.KindReg, "status", nil, nil)
	root.AddChild(reg1)

	assert.Equal(t, rdlvalue.NodePath{0}, reg0.Path)
	assert.Equal(t, rdlvalue.NodePath{1}, reg1.Path)
	assert.Same(t, root, reg0.Parent)
}

func TestFindChildAndQualifiedName(t *testing.T) {
	root := rdlmodel.NewNode(rdlast.KindAddrmap, "chip", nil, nil)
	reg := rdlmodel.NewNode(rdlast.KindReg, "ctrl", nil, nil)
	root.AddChild(reg)

	found := root.FindChild("ctrl")
	require.NotNil(t, found)
	assert.Equal(t, "chip.ctrl", found.QualifiedName())
	assert.Nil(t, root.FindChild("missing"))
}

func TestWalkVisitsEntireSubtreeDepthFirst(t *testing.T) {
	root := rdlmodel.NewNode(rdlast.KindAddrmap, "chip", nil, nil)
	reg := rdlmodel.NewNode(rdlast.KindReg, "ctrl", nil, nil)
	root.AddChild(reg)
	field := rdlmodel.NewNode(rdlast.KindField, "en", nil, nil)
	reg.AddChild(field)

	var visited []string
	root.Walk(func(n *rdlmodel.Node) { visited = append(visited, n.Name) })
	assert.Equal(t, []string{"chip", "ctrl", "en"}, visited)
}

func TestPropertyRoundTrip(t *testing.T) {
	n := rdlmodel.NewNode(rdlast.KindField, "en", nil, nil)
	n.SetProperty("reset", rdlvalue.IntValue(0))

	v, ok := n.Property("reset")
	require.True(t, ok)
	assert.Equal(t, int64(0), v.Int)

	_, ok = n.Property("missing")
	assert.False(t, ok)
}

func TestPathResolverResolvesThisAndParentAndChildProperties(t *testing.T) {
	root := rdlmodel.NewNode(rdlast.KindAddrmap, "chip", nil, nil)
	reg := rdlmodel.NewNode(rdlast.KindReg, "ctrl", nil, nil)
	root.AddChild(reg)
	reg.SetProperty("width", rdlvalue.IntValue(32))

	r := rdlmodel.PathResolver{Current: reg}
	v, err := r.ResolvePath([]string{"this", "width"})
	require.NoError(t, err)
	assert.Equal(t, int64(32), v.Int)

	field := rdlmodel.NewNode(rdlast.KindField, "en", nil, nil)
	reg.AddChild(field)
	fieldResolver := rdlmodel.PathResolver{Current: field}
	v, err = fieldResolver.ResolvePath([]string{"parent", "width"})
	require.NoError(t, err)
	assert.Equal(t, int64(32), v.Int)
}

func TestPathResolverParentFromRootFails(t *testing.T) {
	root := rdlmodel.NewNode(rdlast.KindAddrmap, "chip", nil, nil)
	r := rdlmodel.PathResolver{Current: root}
	_, err := r.ResolvePath([]string{"parent", "width"})
	require.Error(t, err)
}
