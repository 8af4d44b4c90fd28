package rdlparse

import "github.com/vowstar/systemrdl-toolkit/ptree"

// binaryPrec lists this subset's binary-operator precedence levels, from
// loosest to tightest, mirroring §4.2's operator table.
var binaryPrec = [][]string{
	{"||"},
	{"&&"},
	{"|"},
	{"^"},
	{"&"},
	{"==", "!="},
	{"<", "<=", ">", ">="},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "%"},
	{"**"},
}

// parseExpr parses a full constant expression (§4.2), starting from the
// ternary level since `?:` binds loosest.
func (p *Parser) parseExpr() (ptree.Node, error) {
	return p.parseTernary()
}

func (p *Parser) parseTernary() (ptree.Node, error) {
	cond, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if !p.isPunct("?") {
		return cond, nil
	}
	atTok := p.ptok()
	if err := p.advance(); err != nil {
		return nil, err
	}
	whenTrue, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	whenFalse, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return ptree.NewRule(ptree.RuleExprTernary, atTok, cond, whenTrue, whenFalse), nil
}

func (p *Parser) parseBinary(level int) (ptree.Node, error) {
	if level >= len(binaryPrec) {
		return p.parseUnary()
	}
	lhs, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == TokPunct && containsOp(binaryPrec[level], p.tok.Text) {
		opTok := p.ptok()
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		opNode := ptree.NewTerminal(p.path, opTok.Line, opTok.Col, opTok.Text)
		lhs = ptree.NewRule(ptree.RuleExprBinary, opTok, lhs, opNode, rhs)
	}
	return lhs, nil
}

func containsOp(ops []string, s string) bool {
	for _, o := range ops {
		if o == s {
			return true
		}
	}
	return false
}

var unaryOps = map[string]bool{"-": true, "+": true, "!": true, "~": true}

func (p *Parser) parseUnary() (ptree.Node, error) {
	if p.tok.Kind == TokPunct && unaryOps[p.tok.Text] {
		opTok := p.ptok()
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		opNode := ptree.NewTerminal(p.path, opTok.Line, opTok.Col, opTok.Text)
		return ptree.NewRule(ptree.RuleExprUnary, opTok, opNode, operand), nil
	}
	return p.parsePrimary()
}

// parsePrimary parses a literal, parenthesized expression, braces-led
// concat/replicate, or identifier-led reference (plain ident, dotted
// path, or `Type::name` enum reference), per §4.2's primary-expression
// productions.
func (p *Parser) parsePrimary() (ptree.Node, error) {
	switch {
	case p.tok.Kind == TokInt:
		tok := p.ptok()
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ptree.NewRuledTerminal(ptree.RuleExprLiteralInt, p.path, tok.Line, tok.Col, tok.Text), nil
	case p.tok.Kind == TokString:
		tok := p.ptok()
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ptree.NewRuledTerminal(ptree.RuleExprLiteralString, p.path, tok.Line, tok.Col, tok.Text), nil
	case p.tok.Kind == TokIdent && (p.tok.Text == "true" || p.tok.Text == "false"):
		tok := p.ptok()
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ptree.NewRuledTerminal(ptree.RuleExprLiteralBool, p.path, tok.Line, tok.Col, tok.Text), nil
	case p.isPunct("("):
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return e, nil
	case p.isPunct("{"):
		return p.parseBraceExpr()
	case p.tok.Kind == TokIdent:
		return p.parseIdentPrimary()
	default:
		return nil, p.fail("expected an expression, got %q", p.tok.Text)
	}
}

// parseBraceExpr parses `{ e1, e2, ... }` (concatenation) or `{ N { e } }`
// (replication), disambiguated by whether a second `{` immediately
// follows the opening brace's first parsed element (§4.2).
func (p *Parser) parseBraceExpr() (ptree.Node, error) {
	openTok := p.ptok()
	if err := p.advance(); err != nil { // consume '{'
		return nil, err
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.isPunct("{") {
		// Replication: `first` was the repeat count. The inner `{ e }` is
		// parsed (as a concatenation) by parseExpr, which consumes its own
		// closing brace; only the outer one is left.
		part, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct("}"); err != nil {
			return nil, err
		}
		return ptree.NewRule(ptree.RuleExprReplicate, openTok, first, part), nil
	}

	parts := []ptree.Node{first}
	for p.isPunct(",") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		parts = append(parts, e)
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return ptree.NewRule(ptree.RuleExprConcat, openTok, parts...), nil
}

// parseIdentPrimary parses an identifier-led primary: `Type::name` (enum
// reference), `a.b.c` (dotted path), or a bare identifier (parameter
// reference).
func (p *Parser) parseIdentPrimary() (ptree.Node, error) {
	first := p.tok
	if err := p.advance(); err != nil {
		return nil, err
	}

	if p.isPunct("::") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		nameTok, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		typeNode := ptree.NewTerminal(p.path, first.Line, first.Col, first.Text)
		nameNode := ptree.NewTerminal(p.path, nameTok.Line, nameTok.Col, nameTok.Text)
		at := ptree.Token{Path: p.path, Line: first.Line, Col: first.Col, Text: first.Text}
		return ptree.NewRule(ptree.RuleExprEnumRef, at, typeNode, nameNode), nil
	}

	if p.isPunct(".") {
		segments := []string{first.Text}
		for p.isPunct(".") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			seg, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			segments = append(segments, seg.Text)
		}
		return ptree.NewRuledTerminal(ptree.RuleExprPath, p.path, first.Line, first.Col, joinDots(segments)), nil
	}

	return ptree.NewRuledTerminal(ptree.RuleExprIdent, p.path, first.Line, first.Col, first.Text), nil
}

func joinDots(segs []string) string {
	out := segs[0]
	for _, s := range segs[1:] {
		out += "." + s
	}
	return out
}
