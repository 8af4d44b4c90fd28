// Package ptree defines the abstract parse-tree interface the elaboration
// core consumes (spec §6): an opaque tree produced by a grammar-driven
// lexer/parser that is out of scope for this toolkit. The interface mirrors
// the shape a generated SystemRDL 2.0 parser would hand over — traversable
// ordered children, a rule label from a closed set per node, and
// (path, line, column) on every token — without depending on any concrete
// grammar implementation.
//
// Tests and callers that don't have a real grammar front end build these
// trees directly with Rule/Terminal, the same way a hand-rolled test would
// feed token streams into the teacher's lexer/parser tests.
package ptree

import "fmt"

// Rule is a grammar rule label from the closed set the SystemRDL 2.0
// grammar defines. Only the labels this toolkit's lowering step
// (rdlast.Build) understands are listed; a real generated parser may emit
// others, which rdlast.Build rejects with an error.
type Rule string

const (
	RuleRoot                      Rule = "root"
	RuleComponentNamedDef         Rule = "component_named_def"
	RuleComponentAnonDef          Rule = "component_anon_def"
	RuleComponentInst             Rule = "component_inst"
	RuleExplicitComponentInst     Rule = "explicit_component_inst"
	RuleParamDefList              Rule = "param_def_list"
	RuleParamDef                  Rule = "param_def"
	RuleLocalPropertyAssignment   Rule = "local_property_assignment"
	RuleDynamicPropertyAssignment Rule = "dynamic_property_assignment"
	RuleDefaultPropertyAssignment Rule = "default_property_assignment"
	RuleRangeSuffix               Rule = "range_suffix"
	RuleArraySuffix               Rule = "array_suffix"
	RuleInstAddrFixed             Rule = "inst_addr_fixed"
	RuleInstAddrStride            Rule = "inst_addr_stride"
	RuleInstAddrAlign             Rule = "inst_addr_align"
	RuleParamActualList           Rule = "param_actual_list"
	RuleParamActual               Rule = "param_actual"
	RuleExprBinary                Rule = "expr_binary"
	RuleExprUnary                 Rule = "expr_unary"
	RuleExprTernary               Rule = "expr_ternary"
	RuleExprConcat                Rule = "expr_concat"
	RuleExprReplicate             Rule = "expr_replicate"
	RuleExprLiteralInt            Rule = "expr_literal_int"
	RuleExprLiteralBool           Rule = "expr_literal_bool"
	RuleExprLiteralString         Rule = "expr_literal_string"
	RuleExprIdent                 Rule = "expr_ident"
	RuleExprEnumRef               Rule = "expr_enum_ref"
	RuleExprPath                  Rule = "expr_path"
	RuleFieldBitRange             Rule = "field_bit_range"
)

// Token carries the source location of a terminal, per §6: "every token
// carries (source path, line, column)".
type Token struct {
	Path string
	Line int
	Col  int
	Text string
}

// Node is the abstract parse-tree node interface required by §6:
// traversable ordered children, plus a rule label for non-terminals.
// A terminal node (a leaf token) returns nil from Children and a non-nil
// Terminal().
type Node interface {
	Rule() Rule
	Children() []Node
	Terminal() *Token
}

// ruleNode is a non-terminal: a rule label with ordered children.
type ruleNode struct {
	rule     Rule
	children []Node
	tok      Token // location of the rule's first token, for diagnostics
}

func (n *ruleNode) Rule() Rule        { return n.rule }
func (n *ruleNode) Children() []Node  { return n.children }
func (n *ruleNode) Terminal() *Token  { return nil }
func (n *ruleNode) String() string    { return fmt.Sprintf("(%s %v)", n.rule, n.children) }
func (n *ruleNode) FirstToken() Token { return n.tok }

// terminalNode is a leaf: a single token with no rule label.
type terminalNode struct {
	tok Token
}

func (n *terminalNode) Rule() Rule       { return "" }
func (n *terminalNode) Children() []Node { return nil }
func (n *terminalNode) Terminal() *Token { return &n.tok }
func (n *terminalNode) String() string   { return fmt.Sprintf("%q", n.tok.Text) }

// NewRule builds a non-terminal node, recording the given token as its
// starting location (for diagnostics that need to point at this rule).
func NewRule(rule Rule, at Token, children ...Node) Node {
	return &ruleNode{rule: rule, children: children, tok: at}
}

// NewTerminal builds a leaf token node.
func NewTerminal(path string, line, col int, text string) Node {
	return &terminalNode{tok: Token{Path: path, Line: line, Col: col, Text: text}}
}

// ruledTerminalNode is a leaf token that also carries a rule label, for the
// handful of expression productions (literal/ident/path) whose grammar
// rule has no internal structure beyond its own token.
type ruledTerminalNode struct {
	rule Rule
	tok  Token
}

func (n *ruledTerminalNode) Rule() Rule        { return n.rule }
func (n *ruledTerminalNode) Children() []Node  { return nil }
func (n *ruledTerminalNode) Terminal() *Token  { return &n.tok }
func (n *ruledTerminalNode) String() string    { return fmt.Sprintf("(%s %q)", n.rule, n.tok.Text) }

// NewRuledTerminal builds a leaf token node labeled with rule, for
// productions whose node is simultaneously a terminal and a rule (e.g. an
// integer literal: the rule is expr_literal_int, the payload is the
// literal's own token text).
func NewRuledTerminal(rule Rule, path string, line, col int, text string) Node {
	return &ruledTerminalNode{rule: rule, tok: Token{Path: path, Line: line, Col: col, Text: text}}
}

// FirstToken returns the location-bearing token for a node: its own token
// if it's a terminal, or the first token recorded for a rule node.
// Used by rdlast.Build to stamp diagnostics with a source location even
// when a rule node itself is not a terminal.
func FirstToken(n Node) Token {
	if n == nil {
		return Token{}
	}
	if t := n.Terminal(); t != nil {
		return *t
	}
	if rn, ok := n.(*ruleNode); ok {
		return rn.tok
	}
	// Fall back to descending into the first child.
	for _, c := range n.Children() {
		return FirstToken(c)
	}
	return Token{}
}
