package rdleval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vowstar/systemrdl-toolkit/rdlast"
	"github.com/vowstar/systemrdl-toolkit/rdldiag"
	"github.com/vowstar/systemrdl-toolkit/rdleval"
	"github.com/vowstar/systemrdl-toolkit/rdlscope"
	"github.com/vowstar/systemrdl-toolkit/rdlvalue"
)

func lit(v int64) rdlast.Expr {
	return &rdlast.LiteralExpr{Kind: rdlast.LiteralInt, IntVal: v}
}

func litWidth(v int64, w int) rdlast.Expr {
	return &rdlast.LiteralExpr{Kind: rdlast.LiteralInt, IntVal: v, HasWidth: true, Width: w}
}

func bin(op rdlast.BinaryOp, lhs, rhs rdlast.Expr) rdlast.Expr {
	return &rdlast.BinaryExpr{Op: op, Lhs: lhs, Rhs: rhs}
}

func TestEvalArithmetic(t *testing.T) {
	scope := rdlscope.NewTable()

	v, err := rdleval.Eval(bin(rdlast.OpAdd, lit(2), lit(3)), scope, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.Int)

	v, err = rdleval.Eval(bin(rdlast.OpMul, lit(6), lit(7)), scope, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int)
}

func TestEvalDivisionByZero(t *testing.T) {
	scope := rdlscope.NewTable()
	_, err := rdleval.Eval(bin(rdlast.OpDiv, lit(1), lit(0)), scope, nil)
	require.Error(t, err)
	evalErr, ok := err.(*rdleval.EvalError)
	require.True(t, ok)
	assert.Equal(t, rdldiag.DivisionByZero, evalErr.Kind)
}

func TestEvalModByZero(t *testing.T) {
	scope := rdlscope.NewTable()
	_, err := rdleval.Eval(bin(rdlast.OpMod, lit(1), lit(0)), scope, nil)
	require.Error(t, err)
}

func TestEvalNegativeShiftIsBadShift(t *testing.T) {
	scope := rdlscope.NewTable()
	_, err := rdleval.Eval(bin(rdlast.OpShl, lit(1), lit(-1)), scope, nil)
	require.Error(t, err)
	evalErr, ok := err.(*rdleval.EvalError)
	require.True(t, ok)
	assert.Equal(t, rdldiag.BadShift, evalErr.Kind)
}

func TestEvalShiftTruncatesAtOperandWidth(t *testing.T) {
	scope := rdlscope.NewTable()
	v, err := rdleval.Eval(bin(rdlast.OpShl, litWidth(1, 4), lit(3)), scope, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, v.Width)
	assert.Equal(t, int64(-8), v.Int) // 1000b as 4-bit two's complement
}

func TestEvalOverflowInWidth(t *testing.T) {
	scope := rdlscope.NewTable()
	_, err := rdleval.Eval(litWidth(100, 4), scope, nil)
	require.Error(t, err)
	evalErr, ok := err.(*rdleval.EvalError)
	require.True(t, ok)
	assert.Equal(t, rdldiag.OverflowInWidth, evalErr.Kind)
}

func TestEvalSizedLiteralsAreUnsignedMagnitudes(t *testing.T) {
	scope := rdlscope.NewTable()

	v, err := rdleval.Eval(litWidth(1, 1), scope, nil) // 1'b1
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int)

	v, err = rdleval.Eval(litWidth(0xFF, 8), scope, nil) // 8'hFF
	require.NoError(t, err)
	assert.Equal(t, int64(0xFF), v.Int)

	v, err = rdleval.Eval(litWidth(0xFFFFFFFF, 32), scope, nil) // 32'hFFFFFFFF
	require.NoError(t, err)
	assert.Equal(t, int64(0xFFFFFFFF), v.Int)
}

func TestEvalUnresolvedIdent(t *testing.T) {
	scope := rdlscope.NewTable()
	_, err := rdleval.Eval(&rdlast.IdentExpr{Name: "NOPE"}, scope, nil)
	require.Error(t, err)
}

func TestEvalIdentParam(t *testing.T) {
	scope := rdlscope.NewTable()
	require.NoError(t, scope.Declare("WIDTH", rdlscope.Binding{Kind: rdlscope.BindingParam, Param: rdlvalue.IntValue(8)}))
	v, err := rdleval.Eval(&rdlast.IdentExpr{Name: "WIDTH"}, scope, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(8), v.Int)
}

func TestEvalTernary(t *testing.T) {
	scope := rdlscope.NewTable()
	cond := &rdlast.LiteralExpr{Kind: rdlast.LiteralBool, BoolVal: true}
	v, err := rdleval.Eval(&rdlast.TernaryExpr{Cond: cond, WhenTrue: lit(1), WhenFalse: lit(2)}, scope, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int)
}

func TestEvalConcat(t *testing.T) {
	scope := rdlscope.NewTable()
	v, err := rdleval.Eval(&rdlast.ConcatExpr{Parts: []rdlast.Expr{litWidth(0b11, 2), litWidth(0b01, 2)}}, scope, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, v.Width)
	assert.Equal(t, int64(0b1101), v.Int)
}

func TestEvalReplicate(t *testing.T) {
	scope := rdlscope.NewTable()
	v, err := rdleval.Eval(&rdlast.ReplicateExpr{Count: lit(3), Part: litWidth(0b10, 2)}, scope, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, v.Width)
	assert.Equal(t, int64(0b101010), v.Int)
}

func TestEvalEnumRef(t *testing.T) {
	scope := rdlscope.NewTable()
	v, err := rdleval.Eval(&rdlast.EnumRefExpr{TypeName: "sw", Name: "r"}, scope, nil)
	require.NoError(t, err)
	assert.Equal(t, rdlvalue.KindEnum, v.Kind)
	assert.Equal(t, "sw", v.EnumType)
	assert.Equal(t, "r", v.EnumName)
}

func TestEvalPathWithoutResolverFails(t *testing.T) {
	scope := rdlscope.NewTable()
	_, err := rdleval.Eval(&rdlast.PathExpr{Segments: []string{"this", "width"}}, scope, nil)
	require.Error(t, err)
}

type stubResolver struct{ v rdlvalue.Value }

func (s stubResolver) ResolvePath(segments []string) (rdlvalue.Value, error) { return s.v, nil }

func TestEvalPathWithResolver(t *testing.T) {
	scope := rdlscope.NewTable()
	v, err := rdleval.Eval(&rdlast.PathExpr{Segments: []string{"this", "width"}}, scope, stubResolver{v: rdlvalue.IntValue(16)})
	require.NoError(t, err)
	assert.Equal(t, int64(16), v.Int)
}

func TestEvalComparisons(t *testing.T) {
	scope := rdlscope.NewTable()
	v, err := rdleval.Eval(bin(rdlast.OpLt, lit(1), lit(2)), scope, nil)
	require.NoError(t, err)
	assert.True(t, v.Bool)
}

func TestEvalLogical(t *testing.T) {
	scope := rdlscope.NewTable()
	tv := &rdlast.LiteralExpr{Kind: rdlast.LiteralBool, BoolVal: true}
	fv := &rdlast.LiteralExpr{Kind: rdlast.LiteralBool, BoolVal: false}
	v, err := rdleval.Eval(&rdlast.BinaryExpr{Op: rdlast.OpLAnd, Lhs: tv, Rhs: fv}, scope, nil)
	require.NoError(t, err)
	assert.False(t, v.Bool)
}
