package rdlparse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vowstar/systemrdl-toolkit/rdlast"
	"github.com/vowstar/systemrdl-toolkit/rdldiag"
	"github.com/vowstar/systemrdl-toolkit/rdlelaborate"
	"github.com/vowstar/systemrdl-toolkit/rdlparse"
	"github.com/vowstar/systemrdl-toolkit/rdlvalue"
)

func elaborateSource(t *testing.T, path, src string) (*rdlast.FileDecl, *rdlelaborate.Elaborator) {
	t.Helper()
	tree, err := rdlparse.ParseFile(path, src)
	require.NoError(t, err)
	file, err := rdlast.Build(tree)
	require.NoError(t, err)
	return file, rdlelaborate.New()
}

func TestParseAndElaborateTwoRegisterChip(t *testing.T) {
	src := `
reg ctrl_reg_t {
    regwidth = 32;
    field { sw = rw; hw = rw; } en[0:0];
};
addrmap simple_chip {
    ctrl_reg_t ctrl;
    ctrl_reg_t status;
};
`
	file, elab := elaborateSource(t, "chip.rdl", src)
	root, diags := elab.Elaborate(file)
	require.False(t, diags.HasErrors(), "%v", diags.Errors())
	require.Len(t, root.Children, 2)

	ctrl, status := root.Children[0], root.Children[1]
	assert.Equal(t, "ctrl", ctrl.Name)
	assert.Equal(t, uint64(0), ctrl.Address)
	assert.Equal(t, uint64(4), ctrl.Size)
	assert.Equal(t, "status", status.Name)
	assert.Equal(t, uint64(4), status.Address)

	require.Len(t, ctrl.Children, 2) // en plus the synthesized RESERVED_31_1
	assert.Equal(t, "en", ctrl.Children[0].Name)
}

func TestParseAndElaborateSynthesizesReservedGap(t *testing.T) {
	src := `
reg status_reg_t {
    regwidth = 32;
    field { sw = r; hw = w; } ready[0:0];
    field { sw = r; hw = w; } error[4:4];
};
addrmap with_gaps {
    status_reg_t status;
};
`
	file, elab := elaborateSource(t, "gaps.rdl", src)
	root, diags := elab.Elaborate(file)
	require.False(t, diags.HasErrors(), "%v", diags.Errors())

	status := root.Children[0]
	names := map[string]bool{}
	for _, f := range status.Children {
		names[f.Name] = true
	}
	assert.True(t, names["ready"])
	assert.True(t, names["error"])
	assert.True(t, names["RESERVED_3_1"])
	assert.True(t, names["RESERVED_31_5"])
}

func TestParseAndElaborateFieldOverlapIsAnError(t *testing.T) {
	src := `
reg bad_reg_t {
    regwidth = 32;
    field { sw = rw; hw = rw; } a[3:0];
    field { sw = rw; hw = rw; } b[2:1];
};
addrmap overlapping_fields {
    bad_reg_t r;
};
`
	file, elab := elaborateSource(t, "overlap_field.rdl", src)
	_, diags := elab.Elaborate(file)
	require.True(t, diags.HasErrors())
	assert.Equal(t, rdldiag.FieldOverlap, diags.Errors()[0].Kind)
}

func TestParseAndElaborateRegisterOverlapIsAnError(t *testing.T) {
	src := `
reg leaf_reg_t {
    regwidth = 32;
    field { sw = rw; hw = rw; } a[0:0];
};
addrmap overlapping_regs {
    leaf_reg_t first @ 0x0;
    leaf_reg_t second @ 0x2;
};
`
	file, elab := elaborateSource(t, "overlap_reg.rdl", src)
	_, diags := elab.Elaborate(file)
	require.True(t, diags.HasErrors())
	assert.Equal(t, rdldiag.AddressOverlap, diags.Errors()[0].Kind)
}

func TestParseAndElaborateParameterizedRegfileArray(t *testing.T) {
	src := `
reg chan_reg_t {
    regwidth = 32;
    field { sw = rw; hw = rw; } value[7:0];
};
regfile chan_block_t #(longint unsigned N = 4) {
    chan_reg_t chan[N];
};
addrmap multi_channel {
    chan_block_t #(.N(3)) channels[3];
};
`
	file, elab := elaborateSource(t, "array.rdl", src)
	root, diags := elab.Elaborate(file)
	require.False(t, diags.HasErrors(), "%v", diags.Errors())

	require.Len(t, root.Children, 1)
	block := root.Children[0]
	require.Len(t, block.ArrayDims, 1)
	assert.Equal(t, int64(3), block.ArrayDims[0])

	// chan[N] with N bound to 3 is one node carrying its dimension; element
	// k sits at chans.Address + k*chans.ArrayStride.
	require.Len(t, block.Children, 1)
	chans := block.Children[0]
	assert.Equal(t, []int64{3}, chans.ArrayDims)
	assert.Equal(t, uint64(0), chans.Address)
	assert.Equal(t, uint64(4), chans.Address+chans.ArrayStride)
}

func TestParseAndElaborateDynamicPropertyAssignment(t *testing.T) {
	src := `
reg ctrl_reg_t {
    regwidth = 32;
    field { sw = rw; hw = rw; } a[7:0];
};
addrmap with_dynamic {
    ctrl_reg_t r;
    r.a->reset = 8'h5A;
};
`
	file, elab := elaborateSource(t, "dynamic.rdl", src)
	root, diags := elab.Elaborate(file)
	require.False(t, diags.HasErrors(), "%v", diags.Errors())

	r := root.FindChild("r")
	require.NotNil(t, r)
	a := r.FindChild("a")
	require.NotNil(t, a)
	v, ok := a.Property("reset")
	require.True(t, ok)
	assert.Equal(t, rdlvalue.IntValue(0x5A).Int, v.Int)
}
