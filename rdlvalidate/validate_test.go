package rdlvalidate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vowstar/systemrdl-toolkit/rdlast"
	"github.com/vowstar/systemrdl-toolkit/rdldiag"
	"github.com/vowstar/systemrdl-toolkit/rdlmodel"
	"github.com/vowstar/systemrdl-toolkit/rdlvalidate"
	"github.com/vowstar/systemrdl-toolkit/rdlvalue"
)

func buildReg(width int64, fieldSpecs [][2]int) *rdlmodel.Node {
	reg := rdlmodel.NewNode(rdlast.KindReg, "ctrl", nil, nil)
	reg.SetProperty("regwidth", rdlvalue.IntValue(width))
	for i, spec := range fieldSpecs {
		f := rdlmodel.NewNode(rdlast.KindField, fieldName(i), nil, nil)
		f.HasBitRange = true
		f.Msb, f.Lsb = spec[0], spec[1]
		_ = f.Advance(rdlmodel.Bodied)
		reg.AddChild(f)
	}
	_ = reg.Advance(rdlmodel.Bodied)
	return reg
}

func fieldName(i int) string {
	names := []string{"en", "mode", "count", "extra"}
	if i < len(names) {
		return names[i]
	}
	return "f"
}

func TestValidateSynthesizesReservedFieldForGap(t *testing.T) {
	reg := buildReg(8, [][2]int{{3, 0}, {7, 6}}) // leaves bits [4,5] uncovered
	var diags rdldiag.List
	rdlvalidate.Validate(reg, &diags)

	require.False(t, diags.HasErrors())
	require.Len(t, reg.Children, 3)
	var names []string
	for _, c := range reg.Children {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "RESERVED_5_4")
}

func TestValidateFieldOverlapFails(t *testing.T) {
	reg := buildReg(8, [][2]int{{4, 0}, {7, 3}}) // overlapping bits 3-4
	var diags rdldiag.List
	rdlvalidate.Validate(reg, &diags)

	require.True(t, diags.HasErrors())
	found := false
	for _, d := range diags.Errors() {
		if d.Kind == rdldiag.FieldOverlap {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateFieldOutOfRangeFails(t *testing.T) {
	reg := buildReg(8, [][2]int{{9, 0}})
	var diags rdldiag.List
	rdlvalidate.Validate(reg, &diags)

	require.True(t, diags.HasErrors())
	assert.Equal(t, rdldiag.FieldOutOfRange, diags.Errors()[0].Kind)
}

func TestValidateNoGapsProducesNoReservedFields(t *testing.T) {
	reg := buildReg(8, [][2]int{{7, 0}})
	var diags rdldiag.List
	rdlvalidate.Validate(reg, &diags)

	require.False(t, diags.HasErrors())
	require.Len(t, reg.Children, 1)
}

func TestValidateContainerOverlapFails(t *testing.T) {
	root := rdlmodel.NewNode(rdlast.KindAddrmap, "chip", nil, nil)
	_ = root.Advance(rdlmodel.Bodied)
	a := rdlmodel.NewNode(rdlast.KindReg, "a", nil, nil)
	a.Address, a.Size = 0, 8
	_ = a.Advance(rdlmodel.Bodied)
	b := rdlmodel.NewNode(rdlast.KindReg, "b", nil, nil)
	b.Address, b.Size = 4, 8 // overlaps a's [0,8)
	_ = b.Advance(rdlmodel.Bodied)
	root.AddChild(a)
	root.AddChild(b)

	var diags rdldiag.List
	rdlvalidate.Validate(root, &diags)

	require.True(t, diags.HasErrors())
	assert.Equal(t, rdldiag.AddressOverlap, diags.Errors()[0].Kind)
}

func TestValidateNonOverlappingContainerPasses(t *testing.T) {
	root := rdlmodel.NewNode(rdlast.KindAddrmap, "chip", nil, nil)
	_ = root.Advance(rdlmodel.Bodied)
	a := rdlmodel.NewNode(rdlast.KindReg, "a", nil, nil)
	a.Address, a.Size = 0, 4
	_ = a.Advance(rdlmodel.Bodied)
	b := rdlmodel.NewNode(rdlast.KindReg, "b", nil, nil)
	b.Address, b.Size = 4, 4
	_ = b.Advance(rdlmodel.Bodied)
	root.AddChild(a)
	root.AddChild(b)

	var diags rdldiag.List
	rdlvalidate.Validate(root, &diags)
	assert.False(t, diags.HasErrors())
}

func TestValidateMisalignedRegisterAddressIsWarningNotError(t *testing.T) {
	root := rdlmodel.NewNode(rdlast.KindAddrmap, "chip", nil, nil)
	_ = root.Advance(rdlmodel.Bodied)
	reg := rdlmodel.NewNode(rdlast.KindReg, "ctrl", nil, nil)
	reg.SetProperty("regwidth", rdlvalue.IntValue(32))
	reg.AddressSet, reg.Address, reg.Size = true, 2, 4 // not a multiple of 4
	_ = reg.Advance(rdlmodel.Bodied)
	root.AddChild(reg)

	var diags rdldiag.List
	rdlvalidate.Validate(root, &diags)

	require.False(t, diags.HasErrors())
	require.Len(t, diags.Warnings(), 1)
	assert.Equal(t, rdldiag.MisalignedAddress, diags.Warnings()[0].Kind)
}

func TestValidateIsIdempotent(t *testing.T) {
	reg := buildReg(8, [][2]int{{7, 0}})
	var diags1, diags2 rdldiag.List
	rdlvalidate.Validate(reg, &diags1)
	rdlvalidate.Validate(reg, &diags2)
	assert.Equal(t, diags1.Len(), diags2.Len())
}

func TestRevalidateIsCallableStandaloneAndIdempotent(t *testing.T) {
	reg := buildReg(8, [][2]int{{7, 0}})
	var diags rdldiag.List
	rdlvalidate.Validate(reg, &diags)
	require.False(t, diags.HasErrors())

	again := rdlvalidate.Revalidate(reg)
	assert.Equal(t, diags.Len(), again.Len())
}

func TestFinalizeAdvancesValidatedNodes(t *testing.T) {
	reg := buildReg(8, [][2]int{{7, 0}})
	var diags rdldiag.List
	rdlvalidate.Validate(reg, &diags)
	require.Equal(t, rdlmodel.Validated, reg.State)

	rdlvalidate.Finalize(reg)
	assert.Equal(t, rdlmodel.Finalized, reg.State)
}
