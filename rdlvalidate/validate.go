// Package rdlvalidate implements the Post-elaboration Validator (spec
// §4.5): per-register bit-range checks with reserved-field gap synthesis,
// per-container address-overlap checks, and a global monotonicity pass.
//
// Grounded on the teacher's loader.Loader.Validate: a pass that walks the
// already-built tree and accumulates diagnostics, rather than being woven
// into construction itself — elaboration and validation are separate
// concerns here exactly as they are in the teacher's loader/runtime split.
package rdlvalidate

import (
	"sort"
	"strconv"

	"github.com/vowstar/systemrdl-toolkit/rdlast"
	"github.com/vowstar/systemrdl-toolkit/rdldiag"
	"github.com/vowstar/systemrdl-toolkit/rdlmodel"
	"github.com/vowstar/systemrdl-toolkit/rdlvalue"
)

// Validate checks root and its entire subtree against the invariants in
// §3 and §4.5, appending any diagnostic found to diags. It is idempotent:
// running it again against an already-Validated tree with no intervening
// mutation reports the same (empty, on success) diagnostics (§8, P6).
func Validate(root *rdlmodel.Node, diags *rdldiag.List) {
	if root == nil {
		return
	}
	root.Walk(func(n *rdlmodel.Node) {
		if n.Kind == rdlast.KindReg {
			validateRegister(n, diags)
			checkMisalignedAddress(n, diags)
		}
		if len(n.Children) > 0 {
			validateContainer(n, diags)
		}
	})
	checkMonotonicity(root, diags)

	root.Walk(func(n *rdlmodel.Node) {
		if n.State == rdlmodel.Bodied {
			_ = n.Advance(rdlmodel.Validated)
		}
	})
}

// Revalidate re-runs Validate as a standalone entry point against an
// already-elaborated tree, independent of Elaborate itself — mirroring the
// teacher's loader.Loader.Validate being callable on its own (§C.3 of the
// expanded specification). Per P6, calling this against a tree that was
// already Validated and not otherwise mutated introduces no new
// diagnostics and synthesizes no additional reserved fields.
func Revalidate(root *rdlmodel.Node) rdldiag.List {
	var diags rdldiag.List
	Validate(root, &diags)
	return diags
}

// Finalize advances every already-Validated node in the tree to Finalized,
// per §4.5's state machine ("after Finalized, no further mutation is
// permitted"). Call this once the caller is done reading diagnostics and
// intends to treat the model as immutable output.
func Finalize(root *rdlmodel.Node) {
	if root == nil {
		return
	}
	root.Walk(func(n *rdlmodel.Node) {
		if n.State == rdlmodel.Validated {
			_ = n.Advance(rdlmodel.Finalized)
		}
	})
}

// validateRegister implements §4.5's "Per register" checks, including
// reserved-field synthesis.
func validateRegister(reg *rdlmodel.Node, diags *rdldiag.List) {
	width := int(regWidth(reg))

	fields := make([]*rdlmodel.Node, 0, len(reg.Children))
	for _, c := range reg.Children {
		if c.HasBitRange {
			fields = append(fields, c)
		}
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Lsb < fields[j].Lsb })

	for i, f := range fields {
		if f.Msb >= width {
			diags.Add(rdldiag.FieldOutOfRange, "", 0, 0,
				"field %q (msb=%d) exceeds register width %d", f.QualifiedName(), f.Msb, width)
		}
		if i > 0 && fields[i-1].Msb >= f.Lsb {
			diags.AddRelated(rdldiag.FieldOverlap, "", 0, 0,
				[]string{fields[i-1].QualifiedName(), f.QualifiedName()},
				"field %q [%d:%d] overlaps field %q [%d:%d]",
				fields[i-1].Name, fields[i-1].Msb, fields[i-1].Lsb, f.Name, f.Msb, f.Lsb)
		}
	}

	reserved := synthesizeReservedFields(reg, fields, width)
	if len(reserved) > 0 {
		merged := make([]*rdlmodel.Node, 0, len(fields)+len(reserved))
		merged = append(merged, fields...)
		merged = append(merged, reserved...)
		sort.Slice(merged, func(i, j int) bool { return merged[i].Lsb < merged[j].Lsb })
		rebuildChildrenInBitOrder(reg, merged)
		fields = merged
	}

	covered := 0
	for _, f := range fields {
		if f.Msb >= 0 && f.Lsb >= 0 && f.Msb < width {
			covered += f.Msb - f.Lsb + 1
		}
	}
	if covered != width && len(diags.Errors()) == 0 {
		diags.Add(rdldiag.FieldOutOfRange, "", 0, 0,
			"register %q fields cover %d of %d bits after gap synthesis", reg.QualifiedName(), covered, width)
	}
}

// checkMisalignedAddress implements §9's Open Questions resolution: a
// register whose absolute address isn't a multiple of its own natural
// size (regwidth/8) is a warning, not a fatal error, so it never prevents
// a root from being returned (§7: "Warnings may coexist with a successful
// root").
func checkMisalignedAddress(reg *rdlmodel.Node, diags *rdldiag.List) {
	if !reg.AddressSet {
		return
	}
	natural := uint64((regWidth(reg) + 7) / 8)
	if natural > 1 && reg.Address%natural != 0 {
		diags.Add(rdldiag.MisalignedAddress, "", 0, 0,
			"register %q at 0x%x is not aligned to its natural size %d", reg.QualifiedName(), reg.Address, natural)
	}
}

func regWidth(reg *rdlmodel.Node) int64 {
	if v, ok := reg.Property("regwidth"); ok && v.Kind == rdlvalue.KindInt {
		return v.Int
	}
	return 32
}

// synthesizeReservedFields implements §4.5 step 4: for every uncovered
// [a,b] interval, create `RESERVED_<b>_<a>` with sw=r, hw=na, desc=reserved.
func synthesizeReservedFields(reg *rdlmodel.Node, fields []*rdlmodel.Node, width int) []*rdlmodel.Node {
	covered := make([]bool, width)
	for _, f := range fields {
		for bit := f.Lsb; bit <= f.Msb && bit < width; bit++ {
			if bit >= 0 {
				covered[bit] = true
			}
		}
	}

	var out []*rdlmodel.Node
	gapStart := -1
	for bit := 0; bit < width; bit++ {
		if !covered[bit] {
			if gapStart < 0 {
				gapStart = bit
			}
			continue
		}
		if gapStart >= 0 {
			out = append(out, newReservedField(reg, gapStart, bit-1))
			gapStart = -1
		}
	}
	if gapStart >= 0 {
		out = append(out, newReservedField(reg, gapStart, width-1))
	}
	return out
}

func newReservedField(reg *rdlmodel.Node, lo, hi int) *rdlmodel.Node {
	name := "RESERVED_" + strconv.Itoa(hi) + "_" + strconv.Itoa(lo)
	f := rdlmodel.NewNode(rdlast.KindField, name, nil, reg)
	f.HasBitRange = true
	f.Lsb, f.Msb = lo, hi
	f.Address, f.AddressSet = reg.Address, true // fields share their register's byte address
	f.SetProperty("sw", rdlvalue.EnumValue("sw", "r", 1))
	f.SetProperty("hw", rdlvalue.EnumValue("hw", "na", 3))
	f.SetProperty("desc", rdlvalue.StringValue("reserved"))
	_ = f.Advance(rdlmodel.Bodied)
	return f
}

// rebuildChildrenInBitOrder replaces reg's Children with merged (already
// sorted by lsb), so serialization sees fields "inserted in bit-order with
// the rest" as §4.5 step 4 requires, recomputing each child's Path.
func rebuildChildrenInBitOrder(reg *rdlmodel.Node, merged []*rdlmodel.Node) {
	reg.Children = reg.Children[:0]
	for _, f := range merged {
		f.Parent = nil // AddChild re-parents and re-paths; drop stale linkage first.
		reg.AddChild(f)
	}
}

// validateContainer implements §4.5's "Per container" checks.
func validateContainer(n *rdlmodel.Node, diags *rdldiag.List) {
	if n.Kind == rdlast.KindReg {
		return // a register's children are fields, addressed by bit not byte.
	}
	children := make([]*rdlmodel.Node, len(n.Children))
	copy(children, n.Children)
	sort.Slice(children, func(i, j int) bool { return children[i].Address < children[j].Address })

	for i := 1; i < len(children); i++ {
		prev, cur := children[i-1], children[i]
		prevEnd := prev.Address + effectiveSpan(prev)
		if prevEnd > cur.Address {
			diags.AddRelated(rdldiag.AddressOverlap, "", 0, 0,
				[]string{prev.QualifiedName(), cur.QualifiedName()},
				"instance %q [0x%x, 0x%x) overlaps instance %q at 0x%x",
				prev.Name, prev.Address, prevEnd, cur.Name, cur.Address)
		}
	}
}

func effectiveSpan(n *rdlmodel.Node) uint64 {
	if len(n.ArrayDims) == 0 {
		return n.Size
	}
	count := uint64(1)
	for _, d := range n.ArrayDims {
		count *= uint64(d)
	}
	span := n.ArrayStride * count
	if span < n.Size {
		return n.Size
	}
	return span
}

// checkMonotonicity is a global pass over §3 invariant 5. The instantiator
// sets every child's absolute_address to parent.absolute_address plus its
// offset; this walk only checks that no child's address lies below its
// parent's base. It does not recompute the offset, so a child placed at a
// wrong address at or above its parent's base is not reported here.
func checkMonotonicity(root *rdlmodel.Node, diags *rdldiag.List) {
	root.Walk(func(n *rdlmodel.Node) {
		if n.Parent == nil {
			return
		}
		if n.Address < n.Parent.Address {
			diags.Add(rdldiag.AddressOverlap, "", 0, 0,
				"instance %q address 0x%x precedes its parent's base 0x%x", n.QualifiedName(), n.Address, n.Parent.Address)
		}
	})
}
