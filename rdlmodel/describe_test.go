package rdlmodel_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vowstar/systemrdl-toolkit/rdlast"
	"github.com/vowstar/systemrdl-toolkit/rdlmodel"
	"github.com/vowstar/systemrdl-toolkit/rdlvalue"
)

func TestDescribeRendersIndentedTreeWithProperties(t *testing.T) {
	root := rdlmodel.NewNode(rdlast.KindAddrmap, "chip", nil, nil)
	root.AddressSet = true
	root.Address, root.Size = 0, 8

	reg := rdlmodel.NewNode(rdlast.KindReg, "ctrl", nil, nil)
	reg.AddressSet = true
	reg.Address, reg.Size = 0, 4
	root.AddChild(reg)

	field := rdlmodel.NewNode(rdlast.KindField, "en", nil, nil)
	field.HasBitRange = true
	field.Msb, field.Lsb = 0, 0
	field.SetProperty("sw", rdlvalue.EnumValue("sw", "rw", 2))
	reg.AddChild(field)

	out := root.Describe()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "addrmap chip")
	assert.Contains(t, lines[1], "reg ctrl")
	assert.Contains(t, lines[2], "field en [0:0]")
	assert.Contains(t, lines[2], "sw=sw::rw")
}
