package rdlelaborate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vowstar/systemrdl-toolkit/rdlast"
	"github.com/vowstar/systemrdl-toolkit/rdldiag"
	"github.com/vowstar/systemrdl-toolkit/rdlelaborate"
)

func intLit(v int64) rdlast.Expr {
	return &rdlast.LiteralExpr{Kind: rdlast.LiteralInt, IntVal: v}
}

// buildSimpleChip hand-constructs the AST for:
//
//	field { sw = rw; hw = rw; } en[0:0];
//	reg ctrl_reg_t { regwidth = 32; field ... en; };
//	addrmap simple_chip { ctrl_reg_t ctrl; ctrl_reg_t status; };
func buildSimpleChip() *rdlast.FileDecl {
	fieldType := &rdlast.ComponentTypeDecl{Kind: rdlast.KindField, Body: []rdlast.BodyItem{
		&rdlast.PropertyAssignStmt{Property: "sw", Value: &rdlast.EnumRefExpr{TypeName: "sw", Name: "rw"}},
		&rdlast.PropertyAssignStmt{Property: "hw", Value: &rdlast.EnumRefExpr{TypeName: "hw", Name: "rw"}},
	}}

	regType := &rdlast.ComponentTypeDecl{Kind: rdlast.KindReg, Name: "ctrl_reg_t", Body: []rdlast.BodyItem{
		&rdlast.PropertyAssignStmt{Property: "regwidth", Value: intLit(32)},
		&rdlast.InstanceDecl{
			AnonType:     fieldType,
			InstanceName: "en",
			BitRange:     &rdlast.FieldBitRange{HasMsbLsb: true, Msb: intLit(0), Lsb: intLit(0)},
		},
	}}

	addrmapType := &rdlast.ComponentTypeDecl{Kind: rdlast.KindAddrmap, Name: "simple_chip", Body: []rdlast.BodyItem{
		&rdlast.InstanceDecl{TypeName: "ctrl_reg_t", InstanceName: "ctrl"},
		&rdlast.InstanceDecl{TypeName: "ctrl_reg_t", InstanceName: "status"},
	}}

	return &rdlast.FileDecl{
		Types: []*rdlast.ComponentTypeDecl{regType, addrmapType},
		RootInstance: &rdlast.InstanceDecl{
			TypeRef:      addrmapType,
			InstanceName: "simple_chip",
		},
	}
}

func TestElaborateSimpleChipAddressesAdvanceByRegisterSize(t *testing.T) {
	file := buildSimpleChip()
	elab := rdlelaborate.New()
	root, diags := elab.Elaborate(file)

	require.False(t, diags.HasErrors(), "%v", diags.Errors())
	require.NotNil(t, root)
	require.Len(t, root.Children, 2)

	ctrl, status := root.Children[0], root.Children[1]
	assert.Equal(t, "ctrl", ctrl.Name)
	assert.Equal(t, uint64(0), ctrl.Address)
	assert.Equal(t, uint64(4), ctrl.Size)

	assert.Equal(t, "status", status.Name)
	assert.Equal(t, uint64(4), status.Address)
}

func TestElaborateFieldBitRangeAndReservedGapSynthesis(t *testing.T) {
	file := buildSimpleChip()
	elab := rdlelaborate.New()
	root, diags := elab.Elaborate(file)
	require.False(t, diags.HasErrors(), "%v", diags.Errors())

	ctrl := root.Children[0]
	// regwidth=32 but only bit 0 is an explicit field; the validator must
	// synthesize a RESERVED_31_1 to cover the rest.
	require.Len(t, ctrl.Children, 2)
	names := map[string]*struct{ Msb, Lsb int }{}
	for _, f := range ctrl.Children {
		names[f.Name] = &struct{ Msb, Lsb int }{f.Msb, f.Lsb}
	}
	en, ok := names["en"]
	require.True(t, ok)
	assert.Equal(t, 0, en.Msb)
	assert.Equal(t, 0, en.Lsb)

	reserved, ok := names["RESERVED_31_1"]
	require.True(t, ok)
	assert.Equal(t, 31, reserved.Msb)
	assert.Equal(t, 1, reserved.Lsb)
}

func TestElaborateExplicitOffsetOverridesCursor(t *testing.T) {
	file := buildSimpleChip()
	addrmapType := file.Types[1]
	addrmapType.Body = append(addrmapType.Body, &rdlast.InstanceDecl{
		TypeName: "ctrl_reg_t", InstanceName: "extra", ExplicitOffset: intLit(0x100),
	})

	elab := rdlelaborate.New()
	root, diags := elab.Elaborate(file)
	require.False(t, diags.HasErrors(), "%v", diags.Errors())
	require.Len(t, root.Children, 3)
	assert.Equal(t, uint64(0x100), root.Children[2].Address)
}

func TestElaborateUnresolvedTypeFails(t *testing.T) {
	file := &rdlast.FileDecl{
		RootInstance: &rdlast.InstanceDecl{TypeName: "does_not_exist", InstanceName: "top"},
	}
	elab := rdlelaborate.New()
	root, diags := elab.Elaborate(file)
	assert.Nil(t, root)
	require.True(t, diags.HasErrors())
	assert.Equal(t, rdldiag.UnresolvedType, diags.Errors()[0].Kind)
}

func TestElaborateBadParameterOnMissingActual(t *testing.T) {
	paramType := &rdlast.ComponentTypeDecl{
		Kind: rdlast.KindAddrmap,
		Name: "needs_param",
		Params: []*rdlast.ParamDecl{
			{Name: "WIDTH", TypeName: "longint unsigned"},
		},
	}
	file := &rdlast.FileDecl{
		Types:        []*rdlast.ComponentTypeDecl{paramType},
		RootInstance: &rdlast.InstanceDecl{TypeRef: paramType, InstanceName: "top"},
	}
	elab := rdlelaborate.New()
	root, diags := elab.Elaborate(file)
	assert.Nil(t, root)
	require.True(t, diags.HasErrors())
	assert.Equal(t, rdldiag.BadParameter, diags.Errors()[0].Kind)
}
