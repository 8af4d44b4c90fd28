// Package rdlelaborate implements the Instantiator (spec §4.4), the
// central two-pass algorithm that walks a parsed SystemRDL compilation
// unit and produces a fully addressed, resolved elaborated tree.
//
// Grounded on the teacher's loader.Loader / runtime.System: a Pass 1 that
// registers declarations before anything is evaluated, followed by a
// recursive Pass 2 that builds runtime instances under a scope stack,
// accumulating diagnostics rather than aborting on the first failure.
package rdlelaborate

import (
	"fmt"
	"strings"

	gfn "github.com/panyam/goutils/fn"

	"github.com/vowstar/systemrdl-toolkit/rdlast"
	"github.com/vowstar/systemrdl-toolkit/rdldiag"
	"github.com/vowstar/systemrdl-toolkit/rdleval"
	"github.com/vowstar/systemrdl-toolkit/rdllog"
	"github.com/vowstar/systemrdl-toolkit/rdlmodel"
	"github.com/vowstar/systemrdl-toolkit/rdlregistry"
	"github.com/vowstar/systemrdl-toolkit/rdlscope"
	"github.com/vowstar/systemrdl-toolkit/rdlvalidate"
	"github.com/vowstar/systemrdl-toolkit/rdlvalue"
)

// AddressingMode is the addrmap cursor-advance policy (§4.4 "Address
// assignment policies").
type AddressingMode int

const (
	// Regalign rounds each child's address up to a multiple of its
	// element size. This is the SystemRDL default.
	Regalign AddressingMode = iota
	// Compact packs children with no alignment padding.
	Compact
	// Fullalign rounds each child's address up to the next power of two
	// at least as large as its element size.
	Fullalign
)

func parseAddressingMode(v rdlvalue.Value) AddressingMode {
	if v.Kind != rdlvalue.KindEnum && v.Kind != rdlvalue.KindString {
		return Regalign
	}
	name := v.EnumName
	if v.Kind == rdlvalue.KindString {
		name = v.Str
	}
	switch name {
	case "compact":
		return Compact
	case "fullalign":
		return Fullalign
	default:
		return Regalign
	}
}

// Elaborator runs a single elaboration. It is not safe for concurrent use
// by multiple goroutines (§5); construct a fresh Elaborator per call.
type Elaborator struct {
	diags rdldiag.List
	scope *rdlscope.Table
	log   rdllog.Logger

	// defaultStack holds one map per active lexical body scope, innermost
	// last, accumulating `default p = expr;` statements (§4.4 "default
	// assignment").
	defaultStack []map[string]rdlvalue.Value
}

// New constructs a ready-to-use Elaborator with no pass tracing.
func New() *Elaborator {
	return &Elaborator{scope: rdlscope.NewTable(), log: rdllog.Nop}
}

// NewWithLogger is like New but traces pass boundaries (scope enter/leave,
// type registration, instance address assignment) to log at Debug level.
// Diagnostics never flow through log — only rdldiag.List does.
func NewWithLogger(log rdllog.Logger) *Elaborator {
	return &Elaborator{scope: rdlscope.NewTable(), log: log}
}

// Elaborate runs the full two-pass algorithm over file and returns the
// root elaborated node together with every diagnostic collected. Per §7, a
// non-empty error-severity diagnostic list means the returned root is nil;
// warnings may accompany a non-nil root.
func (e *Elaborator) Elaborate(file *rdlast.FileDecl) (*rdlmodel.Node, rdldiag.List) {
	rootReg := rdlregistry.New(nil)
	for _, t := range file.Types {
		if t.Name != "" {
			if err := rootReg.Register(t.Name, t); err != nil {
				e.reportRegistryErr(err, t)
				continue
			}
			e.log.Debugf("registered top-level type %q (%s)", t.Name, t.Kind)
		}
		if err := rdlregistry.RegisterPass(rootReg, t.Body); err != nil {
			e.reportRegistryErr(err, t)
		}
	}
	for _, en := range file.Enums {
		e.scope.Redeclare(en.Name, rdlscope.Binding{Kind: rdlscope.BindingEnum, Enum: en})
	}

	if file.RootInstance == nil {
		e.diags.Add(rdldiag.UnresolvedType, file.Path, file.Line, file.Col, "compilation unit has no top-level instance to elaborate")
		return nil, e.diags
	}

	root := e.instantiate(file.RootInstance, rootReg, nil, nil)
	if e.diags.HasErrors() {
		return nil, e.diags
	}

	rdlvalidate.Validate(root, &e.diags)
	if e.diags.HasErrors() {
		return nil, e.diags
	}
	return root, e.diags
}

func (e *Elaborator) reportRegistryErr(err error, t *rdlast.ComponentTypeDecl) {
	if re, ok := err.(*rdlregistry.RegistryError); ok {
		e.diags.Add(re.Kind, t.SrcPath, t.Line, t.Col, "%s", re.Error())
		return
	}
	e.diags.Add(rdldiag.Unsupported, t.SrcPath, t.Line, t.Col, "%s", err.Error())
}

// cursor tracks the running byte address inside a single container body,
// advanced as each child instance is placed (§4.4 step 8).
type cursor struct {
	offset uint64
	mode   AddressingMode
}

func alignUp(v, a uint64) uint64 {
	if a == 0 {
		return v
	}
	if rem := v % a; rem != 0 {
		return v + (a - rem)
	}
	return v
}

func nextPow2(v uint64) uint64 {
	if v == 0 {
		return 1
	}
	p := uint64(1)
	for p < v {
		p <<= 1
	}
	return p
}

// place computes the base address for the next child of the given element
// size, honoring the parent's addressing mode. It does not move the
// cursor; advance does that once the child's span is known.
func (c *cursor) place(elementSize uint64) uint64 {
	base := c.offset
	switch c.mode {
	case Regalign:
		if elementSize > 0 {
			base = alignUp(base, elementSize)
		}
	case Fullalign:
		base = alignUp(base, nextPow2(elementSize))
	case Compact:
		// no alignment padding
	}
	return base
}

func (c *cursor) advance(base, span uint64) {
	c.offset = base + span
}

// instantiate performs §4.4 Pass 2 for a single instance declaration,
// returning the elaborated node. parent is nil only for the root instance.
// parentCursor is nil for the root; otherwise it tracks the enclosing
// container's running address.
func (e *Elaborator) instantiate(inst *rdlast.InstanceDecl, reg *rdlregistry.Registry, parent *rdlmodel.Node, parentCursor *cursor) *rdlmodel.Node {
	typeDecl, err := e.resolveType(inst, reg)
	if err != nil {
		e.reportTypeErr(err, inst)
		return nil
	}

	byName, positional, err := e.evalActuals(inst)
	if err != nil {
		e.report(err, inst.SrcPath, inst.Line, inst.Col)
	}

	e.log.Debugf("entering scope for instance %q of type %q", inst.InstanceName, typeDecl.Name)
	e.scope.EnterScope()
	e.defaultStack = append(e.defaultStack, map[string]rdlvalue.Value{})
	defer func() {
		e.defaultStack = e.defaultStack[:len(e.defaultStack)-1]
		e.scope.LeaveScope()
		e.log.Debugf("leaving scope for instance %q", inst.InstanceName)
	}()

	actuals, err := e.bindFormals(typeDecl, byName, positional)
	if err != nil {
		e.report(err, inst.SrcPath, inst.Line, inst.Col)
	}

	node := rdlmodel.NewNode(typeDecl.Kind, inst.InstanceName, typeDecl, parent)
	node.Params = actuals

	if typeDecl.Kind == rdlast.KindField && inst.BitRange != nil {
		if err := e.applyBitRange(node, inst.BitRange); err != nil {
			e.report(err, inst.SrcPath, inst.Line, inst.Col)
		}
	}

	// Array dimensions (§4.4 step 4). A zero-sized dimension is a
	// BadParameter, not an empty array (§8 boundary behaviors).
	for _, dimExpr := range inst.Dims {
		v, err := rdleval.Eval(dimExpr, e.scope, rdlmodel.PathResolver{Current: node})
		if err != nil {
			e.report(err, inst.SrcPath, inst.Line, inst.Col)
			continue
		}
		if v.Int <= 0 {
			e.diags.Add(rdldiag.BadParameter, inst.SrcPath, inst.Line, inst.Col,
				"array dimension of %q must be a positive integer, got %d", inst.InstanceName, v.Int)
			continue
		}
		node.ArrayDims = append(node.ArrayDims, v.Int)
	}

	// Base address (§4.4 step 5), computed before the body so children
	// see a correct parent.Address during their own elaboration.
	var base uint64
	if parentCursor != nil {
		if inst.ExplicitOffset != nil {
			v, err := rdleval.Eval(inst.ExplicitOffset, e.scope, rdlmodel.PathResolver{Current: node})
			if err != nil {
				e.report(err, inst.SrcPath, inst.Line, inst.Col)
			} else if v.Int < 0 {
				e.diags.Add(rdldiag.BadParameter, inst.SrcPath, inst.Line, inst.Col, "explicit address offset must be non-negative")
			} else {
				base = uint64(v.Int)
			}
		} else {
			base = parentCursor.place(e.nominalElementSize(typeDecl))
		}
		if inst.Align != nil {
			v, err := rdleval.Eval(inst.Align, e.scope, rdlmodel.PathResolver{Current: node})
			if err != nil {
				e.report(err, inst.SrcPath, inst.Line, inst.Col)
			} else if v.Int > 0 {
				base = alignUp(base, uint64(v.Int))
			}
		}
		if parent != nil {
			node.Address = parent.Address + base
		} else {
			node.Address = base
		}
		node.AddressSet = true
	} else {
		node.Address = 0
		node.AddressSet = true
	}
	e.log.Debugf("instance %q assigned address 0x%x", inst.InstanceName, node.Address)

	if parent != nil {
		parent.AddChild(node)
	} else {
		node.Path = rdlvalue.NodePath{}
	}

	mode := Regalign
	if typeDecl.Kind == rdlast.KindAddrmap {
		mode = e.nominalAddressingMode(typeDecl)
	}

	e.elaborateBody(typeDecl.Body, node, reg, mode)

	node.Size = e.computeSize(node, typeDecl)

	if node.State == rdlmodel.Declared {
		_ = node.Advance(rdlmodel.Bodied)
	}

	if len(node.ArrayDims) > 0 {
		stride := node.Size
		if inst.Stride != nil {
			v, err := rdleval.Eval(inst.Stride, e.scope, rdlmodel.PathResolver{Current: node})
			if err != nil {
				e.report(err, inst.SrcPath, inst.Line, inst.Col)
			} else {
				stride = uint64(v.Int)
			}
		} else if mode == Regalign && node.Size > 0 {
			stride = alignUp(node.Size, node.Size)
		} else if mode == Fullalign {
			stride = nextPow2(node.Size)
		}
		node.ArrayStride = stride
	}

	if parentCursor != nil {
		span := node.Size
		if len(node.ArrayDims) > 0 {
			count := int64(1)
			for _, d := range node.ArrayDims {
				count *= d
			}
			span = node.ArrayStride * uint64(count)
			if span < node.Size {
				span = node.Size
			}
		}
		parentCursor.advance(base, span)
	}

	return node
}

func (e *Elaborator) resolveType(inst *rdlast.InstanceDecl, reg *rdlregistry.Registry) (*rdlast.ComponentTypeDecl, error) {
	if inst.AnonType != nil {
		return inst.AnonType, nil
	}
	if inst.TypeRef != nil {
		return inst.TypeRef, nil
	}
	return reg.Resolve(inst.TypeName)
}

func (e *Elaborator) reportTypeErr(err error, inst *rdlast.InstanceDecl) {
	if re, ok := err.(*rdlregistry.RegistryError); ok {
		e.diags.Add(re.Kind, inst.SrcPath, inst.Line, inst.Col, "%s", re.Error())
		return
	}
	e.diags.Add(rdldiag.UnresolvedType, inst.SrcPath, inst.Line, inst.Col, "%s", err.Error())
}

func (e *Elaborator) report(err error, path string, line, col int) {
	if evalErr, ok := err.(*rdleval.EvalError); ok {
		e.diags.Add(evalErr.Kind, path, line, col, "%s", evalErr.Message)
		return
	}
	if se, ok := err.(*rdlscope.ScopeError); ok {
		e.diags.Add(se.Kind, path, line, col, "%s", se.Error())
		return
	}
	e.diags.Add(rdldiag.Unsupported, path, line, col, "%s", err.Error())
}

// evalActuals evaluates every actual parameter expression in the calling
// scope (before the callee's own scope exists), splitting them into named
// and positional buckets for bindFormals to consume.
func (e *Elaborator) evalActuals(inst *rdlast.InstanceDecl) (map[string]rdlvalue.Value, []rdlvalue.Value, error) {
	byName := map[string]rdlvalue.Value{}
	var positional []rdlvalue.Value
	for _, a := range inst.ActualParams {
		v, err := rdleval.Eval(a.Value, e.scope, nil)
		if err != nil {
			return byName, positional, err
		}
		if a.Name != "" {
			byName[a.Name] = v
		} else {
			positional = append(positional, v)
		}
	}
	return byName, positional, nil
}

// bindFormals implements §4.4 step 2: bind actual parameters to T's
// formals by position or by name, falling back to defaults evaluated in
// the callee's own (already-entered) scope so a later default may
// reference an earlier formal, failing BadParameter for unmatched
// actuals.
func (e *Elaborator) bindFormals(typeDecl *rdlast.ComponentTypeDecl, byName map[string]rdlvalue.Value, positional []rdlvalue.Value) (map[string]rdlvalue.Value, error) {
	result := map[string]rdlvalue.Value{}
	posIdx := 0
	matched := 0
	for _, formal := range typeDecl.Params {
		var v rdlvalue.Value
		named, hasNamed := byName[formal.Name]
		switch {
		case hasNamed:
			v = named
			matched++
		case posIdx < len(positional):
			v = positional[posIdx]
			posIdx++
		case formal.DefaultValue != nil:
			var err error
			v, err = rdleval.Eval(formal.DefaultValue, e.scope, nil)
			if err != nil {
				return result, err
			}
		default:
			return result, &rdleval.EvalError{Kind: rdldiag.BadParameter,
				Message: fmt.Sprintf("formal parameter %q has no actual and no default", formal.Name)}
		}
		result[formal.Name] = v
		_ = e.scope.Declare(formal.Name, rdlscope.Binding{Kind: rdlscope.BindingParam, Param: v})
	}
	if posIdx < len(positional) || matched < len(byName) {
		formalNames := gfn.Map(typeDecl.Params, func(p *rdlast.ParamDecl) string { return p.Name })
		return result, &rdleval.EvalError{Kind: rdldiag.BadParameter,
			Message: fmt.Sprintf("instance supplies more actual parameters than %q declares (formals: %s)",
				typeDecl.Name, strings.Join(formalNames, ", "))}
	}
	return result, nil
}

// applyBitRange implements §4.4's "Derived field attributes".
func (e *Elaborator) applyBitRange(node *rdlmodel.Node, br *rdlast.FieldBitRange) error {
	resolver := rdlmodel.PathResolver{Current: node}
	if br.HasMsbLsb {
		msbV, err := rdleval.Eval(br.Msb, e.scope, resolver)
		if err != nil {
			return err
		}
		lsbV, err := rdleval.Eval(br.Lsb, e.scope, resolver)
		if err != nil {
			return err
		}
		node.Msb, node.Lsb = int(msbV.Int), int(lsbV.Int)
		node.HasBitRange = true
		if node.Msb < node.Lsb || node.Lsb < 0 {
			return &rdleval.EvalError{Kind: rdldiag.BitRangeInconsistent,
				Message: fmt.Sprintf("field %q has msb %d < lsb %d", node.Name, node.Msb, node.Lsb)}
		}
		return nil
	}
	if br.HasWidth {
		wV, err := rdleval.Eval(br.Width, e.scope, resolver)
		if err != nil {
			return err
		}
		width := int(wV.Int)
		if width <= 0 {
			return &rdleval.EvalError{Kind: rdldiag.BitRangeInconsistent,
				Message: fmt.Sprintf("field %q has non-positive width %d", node.Name, width)}
		}
		node.Lsb = 0
		node.Msb = width - 1
		node.HasBitRange = true
	}
	return nil
}

// nominalElementSize estimates a child's element size ahead of elaborating
// its body, so the parent's cursor can place it under the regalign/
// fullalign policies (§4.4's addressing-mode bullet), which align to
// "element size" before that size is otherwise known. For a reg this reads
// a directly-assigned `regwidth = N;` in its own body if present,
// defaulting to 32 bits; containers have no nominal size and are placed
// unaligned (equivalent to compact) until their own span is computed.
func (e *Elaborator) nominalElementSize(typeDecl *rdlast.ComponentTypeDecl) uint64 {
	if typeDecl.Kind != rdlast.KindReg {
		return 0
	}
	width := int64(32)
	for _, item := range typeDecl.Body {
		if p, ok := item.(*rdlast.PropertyAssignStmt); ok && p.Property == "regwidth" {
			if v, err := rdleval.Eval(p.Value, e.scope, nil); err == nil && v.Kind == rdlvalue.KindInt {
				width = v.Int
			}
		}
	}
	return uint64((width + 7) / 8)
}

// nominalAddressingMode pre-scans an addrmap type's own body for a direct
// `addressing = ...;` local assignment, the same way nominalElementSize
// pre-scans for `regwidth`, since the cursor policy must be known before
// the first child in that body is placed.
func (e *Elaborator) nominalAddressingMode(typeDecl *rdlast.ComponentTypeDecl) AddressingMode {
	for _, item := range typeDecl.Body {
		if p, ok := item.(*rdlast.PropertyAssignStmt); ok && p.Property == "addressing" {
			if v, err := rdleval.Eval(p.Value, e.scope, nil); err == nil {
				return parseAddressingMode(v)
			}
		}
	}
	return Regalign
}

// computeSize implements §4.4 step 7.
func (e *Elaborator) computeSize(node *rdlmodel.Node, typeDecl *rdlast.ComponentTypeDecl) uint64 {
	switch node.Kind {
	case rdlast.KindField:
		return 0
	case rdlast.KindReg:
		width := int64(32)
		if v, ok := node.Property("regwidth"); ok && v.Kind == rdlvalue.KindInt {
			width = v.Int
		}
		return uint64((width + 7) / 8)
	default:
		if len(node.Children) == 0 {
			return 0
		}
		var end uint64
		for _, c := range node.Children {
			childEnd := c.Address - node.Address + c.Size
			if len(c.ArrayDims) > 0 {
				count := uint64(1)
				for _, d := range c.ArrayDims {
					count *= uint64(d)
				}
				childEnd = c.Address - node.Address + c.ArrayStride*count
			}
			if childEnd > end {
				end = childEnd
			}
		}
		return end
	}
}
