package rdljson

import (
	"encoding/json"

	gfn "github.com/panyam/goutils/fn"

	"github.com/vowstar/systemrdl-toolkit/ptree"
)

// AstDocument is the root of the AST-dump JSON document (§6's secondary
// interface).
type AstDocument struct {
	Format string      `json:"format"`
	Version string     `json:"version"`
	Ast    []*AstNode  `json:"ast"`
}

// AstNode is either a "rule" or "terminal" node per §6's <astnode>.
type AstNode struct {
	Type        string     `json:"type"`
	RuleName    string     `json:"rule_name,omitempty"`
	Text        string     `json:"text"`
	StartLine   int        `json:"start_line,omitempty"`
	StartColumn int        `json:"start_column,omitempty"`
	StopLine    int        `json:"stop_line,omitempty"`
	StopColumn  int        `json:"stop_column,omitempty"`
	Line        int        `json:"line,omitempty"`
	Column      int        `json:"column,omitempty"`
	Children    []*AstNode `json:"children,omitempty"`
}

// NewAstDocument wraps root in the §6 AST-document envelope.
func NewAstDocument(root ptree.Node) *AstDocument {
	var nodes []*AstNode
	if root != nil {
		nodes = []*AstNode{nodeToAst(root)}
	}
	return &AstDocument{Format: "SystemRDL_AST", Version: "1.0", Ast: nodes}
}

// MarshalAst renders root as the indented AST-dump JSON document.
func MarshalAst(root ptree.Node) ([]byte, error) {
	return json.MarshalIndent(NewAstDocument(root), "", "  ")
}

func nodeToAst(n ptree.Node) *AstNode {
	if t := n.Terminal(); t != nil {
		return &AstNode{Type: "terminal", Text: t.Text, Line: t.Line, Column: t.Col}
	}
	start := ptree.FirstToken(n)
	stop := lastToken(n)
	out := &AstNode{
		Type:        "rule",
		RuleName:    string(n.Rule()),
		Text:        start.Text,
		StartLine:   start.Line,
		StartColumn: start.Col,
		StopLine:    stop.Line,
		StopColumn:  stop.Col,
	}
	out.Children = gfn.Map(n.Children(), nodeToAst)
	return out
}

// lastToken returns the location-bearing token of the last descendant of
// n, mirroring ptree.FirstToken's descent but from the right. ptree nodes
// only record a single anchor token per rule (their first), so this is
// the best available approximation of a rule's closing position absent a
// real grammar's end-of-span tracking.
func lastToken(n ptree.Node) ptree.Token {
	children := n.Children()
	if len(children) == 0 {
		return ptree.FirstToken(n)
	}
	return lastToken(children[len(children)-1])
}
