// Package rdleval implements the SystemRDL constant Expression Evaluator
// (spec §4.2): reduces an rdlast.Expr to a concrete rdlvalue.Value.
//
// Grounded on the teacher's decl.Eval: a single recursive function
// switching on the AST node's dynamic type, delegating to one helper per
// node kind.
package rdleval

import (
	"fmt"

	"github.com/vowstar/systemrdl-toolkit/rdlast"
	"github.com/vowstar/systemrdl-toolkit/rdldiag"
	"github.com/vowstar/systemrdl-toolkit/rdlscope"
	"github.com/vowstar/systemrdl-toolkit/rdlvalue"
)

// Resolver resolves a dotted path expression (`a.b.c`, `this.x`,
// `parent.x`) against the in-progress elaborated tree. Expression
// evaluation itself has no notion of "elaborated node" (that type lives in
// rdlmodel); the Resolver hook keeps this package from importing it.
type Resolver interface {
	ResolvePath(segments []string) (rdlvalue.Value, error)
}

// EvalError wraps an evaluation failure with the rdldiag.Kind it should be
// reported as, per the failure list in §4.2.
type EvalError struct {
	Kind    rdldiag.Kind
	Message string
}

func (e *EvalError) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

func fail(kind rdldiag.Kind, format string, args ...any) error {
	return &EvalError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Eval reduces expr to a concrete value within scope, consulting resolver
// for path expressions. resolver may be nil if the expression is known not
// to contain path references (e.g. a parameter default value evaluated
// before any instance exists).
func Eval(expr rdlast.Expr, scope *rdlscope.Table, resolver Resolver) (rdlvalue.Value, error) {
	switch n := expr.(type) {
	case *rdlast.LiteralExpr:
		return evalLiteral(n)
	case *rdlast.IdentExpr:
		return evalIdent(n, scope)
	case *rdlast.PathExpr:
		return evalPath(n, resolver)
	case *rdlast.EnumRefExpr:
		return evalEnumRef(n, scope)
	case *rdlast.UnaryExpr:
		return evalUnary(n, scope, resolver)
	case *rdlast.BinaryExpr:
		return evalBinary(n, scope, resolver)
	case *rdlast.TernaryExpr:
		return evalTernary(n, scope, resolver)
	case *rdlast.ConcatExpr:
		return evalConcat(n, scope, resolver)
	case *rdlast.ReplicateExpr:
		return evalReplicate(n, scope, resolver)
	default:
		return rdlvalue.Value{}, fmt.Errorf("eval: unsupported expression type %T", expr)
	}
}

func evalLiteral(n *rdlast.LiteralExpr) (rdlvalue.Value, error) {
	switch n.Kind {
	case rdlast.LiteralInt:
		width := 0
		if n.HasWidth {
			width = n.Width
			if width > 64 {
				return rdlvalue.Value{}, fail(rdldiag.OverflowInWidth, "width %d exceeds the 64-bit implementation limit", width)
			}
			if !fitsInWidth(n.IntVal, width) {
				return rdlvalue.Value{}, fail(rdldiag.OverflowInWidth, "value %d does not fit in declared width %d", n.IntVal, width)
			}
		}
		return rdlvalue.IntValueWidth(n.IntVal, width), nil
	case rdlast.LiteralBool:
		return rdlvalue.BoolValue(n.BoolVal), nil
	case rdlast.LiteralString:
		return rdlvalue.StringValue(n.StrVal), nil
	default:
		return rdlvalue.Value{}, fmt.Errorf("eval: unknown literal kind %v", n.Kind)
	}
}

func evalIdent(n *rdlast.IdentExpr, scope *rdlscope.Table) (rdlvalue.Value, error) {
	b, err := scope.Lookup(n.Name)
	if err != nil {
		return rdlvalue.Value{}, err
	}
	switch b.Kind {
	case rdlscope.BindingParam:
		return b.Param, nil
	default:
		return rdlvalue.Value{}, fail(rdldiag.TypeMismatch, "identifier %q does not name a value", n.Name)
	}
}

func evalPath(n *rdlast.PathExpr, resolver Resolver) (rdlvalue.Value, error) {
	if resolver == nil {
		return rdlvalue.Value{}, fail(rdldiag.UnresolvedName, "path %q cannot be resolved in this context", joinPath(n.Segments))
	}
	return resolver.ResolvePath(n.Segments)
}

func joinPath(segs []string) string {
	out := ""
	for i, s := range segs {
		if i > 0 {
			out += "."
		}
		out += s
	}
	return out
}

func evalEnumRef(n *rdlast.EnumRefExpr, scope *rdlscope.Table) (rdlvalue.Value, error) {
	b, err := scope.Lookup(n.TypeName)
	if err != nil {
		return rdlvalue.Value{}, err
	}
	if b.Kind != rdlscope.BindingEnum || b.Enum == nil {
		return rdlvalue.Value{}, fail(rdldiag.TypeMismatch, "%q is not an enum type", n.TypeName)
	}
	for i, v := range b.Enum.Values {
		if v == n.Name {
			return rdlvalue.EnumValue(n.TypeName, n.Name, int64(i)), nil
		}
	}
	return rdlvalue.Value{}, fail(rdldiag.UnresolvedName, "enum %q has no value %q", n.TypeName, n.Name)
}

func evalUnary(n *rdlast.UnaryExpr, scope *rdlscope.Table, resolver Resolver) (rdlvalue.Value, error) {
	v, err := Eval(n.Operand, scope, resolver)
	if err != nil {
		return rdlvalue.Value{}, err
	}
	switch n.Op {
	case rdlast.OpNeg:
		if v.Kind != rdlvalue.KindInt {
			return rdlvalue.Value{}, fail(rdldiag.TypeMismatch, "unary - requires an int operand")
		}
		return truncate(-v.Int, v.WidthOrDefault()), nil
	case rdlast.OpPos:
		if v.Kind != rdlvalue.KindInt {
			return rdlvalue.Value{}, fail(rdldiag.TypeMismatch, "unary + requires an int operand")
		}
		return v, nil
	case rdlast.OpBitNot:
		if v.Kind != rdlvalue.KindInt {
			return rdlvalue.Value{}, fail(rdldiag.TypeMismatch, "unary ~ requires an int operand")
		}
		return truncate(^v.Int, v.WidthOrDefault()), nil
	case rdlast.OpLNot:
		b, ok := v.AsBool()
		if !ok {
			return rdlvalue.Value{}, fail(rdldiag.TypeMismatch, "unary ! requires a bool (or 0/1 int) operand")
		}
		return rdlvalue.BoolValue(!b), nil
	default:
		return rdlvalue.Value{}, fmt.Errorf("eval: unknown unary operator %q", n.Op)
	}
}

func evalTernary(n *rdlast.TernaryExpr, scope *rdlscope.Table, resolver Resolver) (rdlvalue.Value, error) {
	cond, err := Eval(n.Cond, scope, resolver)
	if err != nil {
		return rdlvalue.Value{}, err
	}
	b, ok := cond.AsBool()
	if !ok {
		return rdlvalue.Value{}, fail(rdldiag.TypeMismatch, "ternary condition must be bool (or 0/1 int)")
	}
	if b {
		return Eval(n.WhenTrue, scope, resolver)
	}
	return Eval(n.WhenFalse, scope, resolver)
}

func evalConcat(n *rdlast.ConcatExpr, scope *rdlscope.Table, resolver Resolver) (rdlvalue.Value, error) {
	var acc int64
	var width int
	for _, part := range n.Parts {
		v, err := Eval(part, scope, resolver)
		if err != nil {
			return rdlvalue.Value{}, err
		}
		if v.Kind != rdlvalue.KindInt {
			return rdlvalue.Value{}, fail(rdldiag.TypeMismatch, "concatenation operands must be int")
		}
		w := v.WidthOrDefault()
		if width+w > 64 {
			return rdlvalue.Value{}, fail(rdldiag.OverflowInWidth, "concatenation result width %d exceeds 64 bits", width+w)
		}
		acc = (acc << uint(w)) | (v.Int & mask(w))
		width += w
	}
	return rdlvalue.IntValueWidth(acc, width), nil
}

func evalReplicate(n *rdlast.ReplicateExpr, scope *rdlscope.Table, resolver Resolver) (rdlvalue.Value, error) {
	countVal, err := Eval(n.Count, scope, resolver)
	if err != nil {
		return rdlvalue.Value{}, err
	}
	if countVal.Kind != rdlvalue.KindInt || countVal.Int < 0 {
		return rdlvalue.Value{}, fail(rdldiag.TypeMismatch, "replication count must be a non-negative int")
	}
	partVal, err := Eval(n.Part, scope, resolver)
	if err != nil {
		return rdlvalue.Value{}, err
	}
	if partVal.Kind != rdlvalue.KindInt {
		return rdlvalue.Value{}, fail(rdldiag.TypeMismatch, "replication operand must be int")
	}
	w := partVal.WidthOrDefault()
	totalWidth := int(countVal.Int) * w
	if totalWidth > 64 {
		return rdlvalue.Value{}, fail(rdldiag.OverflowInWidth, "replication result width %d exceeds 64 bits", totalWidth)
	}
	var acc int64
	for i := int64(0); i < countVal.Int; i++ {
		acc = (acc << uint(w)) | (partVal.Int & mask(w))
	}
	return rdlvalue.IntValueWidth(acc, totalWidth), nil
}

func evalBinary(n *rdlast.BinaryExpr, scope *rdlscope.Table, resolver Resolver) (rdlvalue.Value, error) {
	lhs, err := Eval(n.Lhs, scope, resolver)
	if err != nil {
		return rdlvalue.Value{}, err
	}
	rhs, err := Eval(n.Rhs, scope, resolver)
	if err != nil {
		return rdlvalue.Value{}, err
	}

	switch n.Op {
	case rdlast.OpLAnd, rdlast.OpLOr:
		lb, ok1 := lhs.AsBool()
		rb, ok2 := rhs.AsBool()
		if !ok1 || !ok2 {
			return rdlvalue.Value{}, fail(rdldiag.TypeMismatch, "%s requires bool (or 0/1 int) operands", n.Op)
		}
		if n.Op == rdlast.OpLAnd {
			return rdlvalue.BoolValue(lb && rb), nil
		}
		return rdlvalue.BoolValue(lb || rb), nil
	case rdlast.OpEq, rdlast.OpNe:
		eq := lhs.Equals(rhs)
		if n.Op == rdlast.OpNe {
			eq = !eq
		}
		return rdlvalue.BoolValue(eq), nil
	}

	if lhs.Kind != rdlvalue.KindInt || rhs.Kind != rdlvalue.KindInt {
		return rdlvalue.Value{}, fail(rdldiag.TypeMismatch, "%s requires int operands, got %s and %s", n.Op, lhs.Kind, rhs.Kind)
	}

	resultWidth := lhs.WidthOrDefault()
	if rw := rhs.WidthOrDefault(); rw > resultWidth {
		resultWidth = rw
	}

	switch n.Op {
	case rdlast.OpAdd:
		return truncate(lhs.Int+rhs.Int, resultWidth), nil
	case rdlast.OpSub:
		return truncate(lhs.Int-rhs.Int, resultWidth), nil
	case rdlast.OpMul:
		return truncate(lhs.Int*rhs.Int, resultWidth), nil
	case rdlast.OpDiv:
		if rhs.Int == 0 {
			return rdlvalue.Value{}, fail(rdldiag.DivisionByZero, "division by zero")
		}
		return truncate(lhs.Int/rhs.Int, resultWidth), nil
	case rdlast.OpMod:
		if rhs.Int == 0 {
			return rdlvalue.Value{}, fail(rdldiag.DivisionByZero, "modulo by zero")
		}
		return truncate(lhs.Int%rhs.Int, resultWidth), nil
	case rdlast.OpAnd:
		return truncate(lhs.Int&rhs.Int, resultWidth), nil
	case rdlast.OpOr:
		return truncate(lhs.Int|rhs.Int, resultWidth), nil
	case rdlast.OpXor:
		return truncate(lhs.Int^rhs.Int, resultWidth), nil
	case rdlast.OpShl:
		return evalShift(lhs, rhs, true)
	case rdlast.OpShr:
		return evalShift(lhs, rhs, false)
	case rdlast.OpPow:
		return evalPow(lhs, rhs)
	case rdlast.OpLt:
		return rdlvalue.BoolValue(lhs.Int < rhs.Int), nil
	case rdlast.OpLe:
		return rdlvalue.BoolValue(lhs.Int <= rhs.Int), nil
	case rdlast.OpGt:
		return rdlvalue.BoolValue(lhs.Int > rhs.Int), nil
	case rdlast.OpGe:
		return rdlvalue.BoolValue(lhs.Int >= rhs.Int), nil
	default:
		return rdlvalue.Value{}, fmt.Errorf("eval: unknown binary operator %q", n.Op)
	}
}

func evalShift(lhs, rhs rdlvalue.Value, left bool) (rdlvalue.Value, error) {
	if rhs.Int < 0 {
		return rdlvalue.Value{}, fail(rdldiag.BadShift, "negative shift count %d", rhs.Int)
	}
	// Shifts truncate at the operand (lhs) width, per §4.2.
	w := lhs.WidthOrDefault()
	shift := uint(rhs.Int)
	if shift >= 64 {
		return rdlvalue.IntValueWidth(0, w), nil
	}
	var result int64
	if left {
		result = lhs.Int << shift
	} else {
		result = int64(uint64(lhs.Int) >> shift)
	}
	return truncate(result, w), nil
}

func evalPow(lhs, rhs rdlvalue.Value) (rdlvalue.Value, error) {
	if rhs.Int < 0 {
		return rdlvalue.Value{}, fail(rdldiag.TypeMismatch, "exponent must be non-negative")
	}
	result := int64(1)
	base := lhs.Int
	for i := int64(0); i < rhs.Int; i++ {
		result *= base
	}
	return truncate(result, lhs.WidthOrDefault()), nil
}

// fitsInWidth reports whether v fits in a sized literal of the given bit
// width. Sized literals (`<width>'<base><digits>`) are unsigned
// magnitudes per §4.2 — not signed two's-complement values — so the
// legal range is [0, 2^width-1], not the signed range: `1'b1`, `8'hFF`,
// and `32'hFFFFFFFF` (the all-ones mask) are all ordinary, valid input.
func fitsInWidth(v int64, width int) bool {
	if width <= 0 || width >= 64 {
		return true
	}
	if v < 0 {
		return false
	}
	max := (int64(1) << uint(width)) - 1
	return v <= max
}

// mask returns a bitmask with the low w bits set.
func mask(w int) int64 {
	if w <= 0 {
		return 0
	}
	if w >= 64 {
		return -1
	}
	return (int64(1) << uint(w)) - 1
}

// truncate wraps v to the given bit width in two's complement, matching
// §4.2's "integer arithmetic is performed in two's-complement of at least
// 64 bits with width tracking".
func truncate(v int64, width int) rdlvalue.Value {
	if width <= 0 || width >= 64 {
		return rdlvalue.IntValueWidth(v, width)
	}
	m := mask(width)
	u := v & m
	signBit := int64(1) << uint(width-1)
	if u&signBit != 0 {
		u -= int64(1) << uint(width)
	}
	return rdlvalue.IntValueWidth(u, width)
}
