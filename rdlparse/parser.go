package rdlparse

import (
	"fmt"
	"strings"

	"github.com/vowstar/systemrdl-toolkit/ptree"
)

// ParseError reports a syntax failure with a source location, the
// elaboration core's own SyntaxError diagnostic kind (§7) since this
// parser stands in for the real grammar front end.
type ParseError struct {
	Path      string
	Line, Col int
	Message   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: SyntaxError: %s", e.Path, e.Line, e.Col, e.Message)
}

// enumProperties is the set of built-in properties whose value may be
// written as a bare enumerator name (`sw = rw;`) instead of the qualified
// `Type::name` form (§4.2's enumerator-reference production). Recognizing
// the shorthand here, at parse time, keeps the typed AST and evaluator
// free of surface-syntax special cases.
var enumProperties = map[string]bool{"sw": true, "hw": true, "onread": true, "onwrite": true}

// Parser is a recursive-descent parser over a Lexer's token stream,
// producing a generic ptree.Node tree (§6). rdlast.Build lowers that tree
// into the typed AST; this parser never constructs rdlast types directly.
type Parser struct {
	lex  *Lexer
	path string
	tok  Token
	err  error
}

// ParseFile parses src (the full text of a single compilation unit) into
// a ptree.Node rooted at ptree.RuleRoot, ready for rdlast.Build.
func ParseFile(path, src string) (ptree.Node, error) {
	p := &Parser{lex: NewLexer(src), path: path}
	if err := p.advance(); err != nil {
		return nil, err
	}

	var children []ptree.Node
	for p.tok.Kind != TokEOF {
		item, err := p.parseTopLevelItem()
		if err != nil {
			return nil, err
		}
		children = append(children, item)
		if err := p.expectPunct(";"); err != nil {
			return nil, err
		}
	}
	return ptree.NewRule(ptree.RuleRoot, ptree.Token{Path: path, Line: 1, Col: 1}, children...), nil
}

// parseTopLevelItem parses one top-level compilation-unit entry: a named
// component type definition, or a top-level instantiation of a
// previously defined type (§3's root-instance production).
func (p *Parser) parseTopLevelItem() (ptree.Node, error) {
	if p.tok.Kind == TokIdent && componentKeywords[p.tok.Text] {
		return p.parseComponentDef(true)
	}
	if p.tok.Kind == TokIdent {
		typeTok, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return p.parseInstanceTail(ptree.NewTerminal(p.path, typeTok.Line, typeTok.Col, typeTok.Text), false)
	}
	return nil, p.fail("expected a component definition or instance, got %q", p.tok.Text)
}

func (p *Parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		if le, ok := err.(*LexError); ok {
			return &ParseError{Path: p.path, Line: le.Line, Col: le.Col, Message: le.Message}
		}
		return err
	}
	p.tok = tok
	return nil
}

func (p *Parser) fail(format string, args ...any) error {
	return &ParseError{Path: p.path, Line: p.tok.Line, Col: p.tok.Col, Message: fmt.Sprintf(format, args...)}
}

func (p *Parser) ptok() ptree.Token {
	return ptree.Token{Path: p.path, Line: p.tok.Line, Col: p.tok.Col, Text: p.tok.Text}
}

func (p *Parser) isPunct(s string) bool {
	return p.tok.Kind == TokPunct && p.tok.Text == s
}

func (p *Parser) expectPunct(s string) error {
	if !p.isPunct(s) {
		return p.fail("expected %q, got %q", s, p.tok.Text)
	}
	return p.advance()
}

func (p *Parser) expectIdent() (Token, error) {
	if p.tok.Kind != TokIdent {
		return Token{}, p.fail("expected identifier, got %q", p.tok.Text)
	}
	tok := p.tok
	return tok, p.advance()
}

var componentKeywords = map[string]bool{"addrmap": true, "regfile": true, "reg": true, "field": true, "mem": true}

// parseComponentDef parses `kind [name] [#( paramdefs )] { bodyitem* }`,
// producing a component_named_def (named==true) or component_anon_def
// node (§6, §4.3).
func (p *Parser) parseComponentDef(named bool) (ptree.Node, error) {
	kindTok := p.ptok()
	if p.tok.Kind != TokIdent || !componentKeywords[p.tok.Text] {
		return nil, p.fail("expected a component kind keyword, got %q", p.tok.Text)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	children := []ptree.Node{ptree.NewTerminal(p.path, kindTok.Line, kindTok.Col, kindTok.Text)}

	if named {
		nameTok, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		children = append(children, ptree.NewTerminal(p.path, nameTok.Line, nameTok.Col, nameTok.Text))
	}

	if p.isPunct("#") {
		paramList, err := p.parseParamDefList()
		if err != nil {
			return nil, err
		}
		children = append(children, paramList)
	}

	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	for !p.isPunct("}") {
		item, err := p.parseBodyItem()
		if err != nil {
			return nil, err
		}
		children = append(children, item)
		if err := p.expectPunct(";"); err != nil {
			return nil, err
		}
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}

	rule := ptree.RuleComponentAnonDef
	if named {
		rule = ptree.RuleComponentNamedDef
	}
	return ptree.NewRule(rule, ptree.Token{Path: p.path, Line: kindTok.Line, Col: kindTok.Col, Text: kindTok.Text}, children...), nil
}

// parseParamDefList parses `#( type... name [= default], ... )` (§3's
// formal parameter list). rdlast.ParamDecl only distinguishes name, type,
// and default, so every leading token of an entry up to the parameter
// name is joined as the type string regardless of how many words the
// source spells it with (e.g. "longint unsigned").
func (p *Parser) parseParamDefList() (ptree.Node, error) {
	hashTok := p.ptok()
	if err := p.advance(); err != nil { // consume '#'
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}

	var defs []ptree.Node
	for !p.isPunct(")") {
		def, err := p.parseParamDef()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return ptree.NewRule(ptree.RuleParamDefList, hashTok, defs...), nil
}

func (p *Parser) parseParamDef() (ptree.Node, error) {
	var typeWords []string
	var nameTok Token
	for {
		if p.tok.Kind != TokIdent {
			return nil, p.fail("expected parameter type or name, got %q", p.tok.Text)
		}
		tok := p.tok
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.isPunct("=") || p.isPunct(",") || p.isPunct(")") {
			nameTok = tok
			break
		}
		typeWords = append(typeWords, tok.Text)
	}
	nameNode := ptree.NewTerminal(p.path, nameTok.Line, nameTok.Col, nameTok.Text)
	typeNode := ptree.NewTerminal(p.path, nameTok.Line, nameTok.Col, strings.Join(typeWords, " "))

	children := []ptree.Node{nameNode, typeNode}
	if p.isPunct("=") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		def, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		children = append(children, def)
	}
	return ptree.NewRule(ptree.RuleParamDef, ptree.Token{Path: p.path, Line: nameTok.Line, Col: nameTok.Col}, children...), nil
}

// parseBodyItem parses a single statement inside a component body: a
// nested instantiation (named type or inline anonymous type), a local,
// default, or dynamic property assignment (§4.4).
func (p *Parser) parseBodyItem() (ptree.Node, error) {
	if p.tok.Kind == TokIdent && p.tok.Text == "default" {
		return p.parseDefaultAssign()
	}
	if p.tok.Kind == TokIdent && componentKeywords[p.tok.Text] {
		anon, err := p.parseComponentDef(false)
		if err != nil {
			return nil, err
		}
		isField := anon.Children()[0].Terminal().Text == "field"
		return p.parseInstanceTail(anon, isField)
	}
	if p.tok.Kind == TokIdent {
		return p.parseIdentLedStatement()
	}
	return nil, p.fail("expected a body item, got %q", p.tok.Text)
}

// parseIdentLedStatement disambiguates the three statement forms that
// start with a bare identifier: `name = expr;` (local assignment),
// `a.b->prop = expr;` (dynamic assignment), and `TypeName inst ...;`
// (named-type instantiation) — by looking at what follows the identifier.
func (p *Parser) parseIdentLedStatement() (ptree.Node, error) {
	first, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	if p.isPunct("=") {
		return p.finishPropertyAssign(first)
	}
	if p.isPunct(".") || p.isPunct("->") {
		return p.finishDynamicAssign(first)
	}
	return p.parseInstanceTail(
		ptree.NewTerminal(p.path, first.Line, first.Col, first.Text), false)
}

func (p *Parser) finishPropertyAssign(nameTok Token) (ptree.Node, error) {
	if err := p.advance(); err != nil { // consume '='
		return nil, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	val = p.applyEnumSugar(nameTok.Text, val)
	nameNode := ptree.NewTerminal(p.path, nameTok.Line, nameTok.Col, nameTok.Text)
	return ptree.NewRule(ptree.RuleLocalPropertyAssignment,
		ptree.Token{Path: p.path, Line: nameTok.Line, Col: nameTok.Col, Text: nameTok.Text}, nameNode, val), nil
}

func (p *Parser) parseDefaultAssign() (ptree.Node, error) {
	kwTok := p.ptok()
	if err := p.advance(); err != nil { // consume 'default'
		return nil, err
	}
	nameTok, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("="); err != nil {
		return nil, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	val = p.applyEnumSugar(nameTok.Text, val)
	nameNode := ptree.NewTerminal(p.path, nameTok.Line, nameTok.Col, nameTok.Text)
	return ptree.NewRule(ptree.RuleDefaultPropertyAssignment, kwTok, nameNode, val), nil
}

// finishDynamicAssign parses the remainder of `seg ('.' seg)* '->' prop =
// expr;` having already consumed the first path segment (§4.4's dynamic
// property assignment, spelled with SystemRDL's `->` property operator).
func (p *Parser) finishDynamicAssign(first Token) (ptree.Node, error) {
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
	if err := p.expectPunct("->"); err != nil {
		return nil, err
	}
	propTok, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("="); err != nil {
		return nil, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	pathNode := ptree.NewTerminal(p.path, first.Line, first.Col, strings.Join(segments, "."))
	propNode := ptree.NewTerminal(p.path, propTok.Line, propTok.Col, propTok.Text)
	return ptree.NewRule(ptree.RuleDynamicPropertyAssignment,
		ptree.Token{Path: p.path, Line: first.Line, Col: first.Col}, pathNode, propNode, val), nil
}

// applyEnumSugar rewrites a bare-identifier value into an expr_enum_ref
// node when propName names one of the built-in access/behavior enums and
// the parsed value looks like one of its enumerator names, per §4.2's
// shorthand for e.g. `sw = rw;` instead of `sw = sw::rw;`.
func (p *Parser) applyEnumSugar(propName string, val ptree.Node) ptree.Node {
	if !enumProperties[propName] || val.Rule() != ptree.RuleExprIdent {
		return val
	}
	tok := val.Terminal()
	if tok == nil {
		return val
	}
	typeTerm := ptree.NewTerminal(p.path, tok.Line, tok.Col, propName)
	nameTerm := ptree.NewTerminal(p.path, tok.Line, tok.Col, tok.Text)
	return ptree.NewRule(ptree.RuleExprEnumRef, *tok, typeTerm, nameTerm)
}

// parseInstanceTail parses everything after a type reference (a
// component_anon_def node, or a bare type-name terminal) through the
// terminating `;` that the caller consumes: an optional actual parameter
// list (before or after the instance name), the instance name,
// bit-range/array suffixes, and address/stride/alignment suffixes (§4.4's
// instance declaration grammar). Child nodes are assembled in the logical
// order rdlast.Build expects (type, inst-name, then suffixes by kind),
// independent of the order they appeared in the source text.
func (p *Parser) parseInstanceTail(typeNode ptree.Node, isField bool) (ptree.Node, error) {
	var preActuals ptree.Node
	if p.isPunct("#") {
		actuals, err := p.parseActualParamList()
		if err != nil {
			return nil, err
		}
		preActuals = actuals
	}
	instTok, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	children := []ptree.Node{typeNode, ptree.NewTerminal(p.path, instTok.Line, instTok.Col, instTok.Text)}
	if preActuals != nil {
		children = append(children, preActuals)
	}

	if preActuals == nil && p.isPunct("#") {
		actuals, err := p.parseActualParamList()
		if err != nil {
			return nil, err
		}
		children = append(children, actuals)
	}

	firstBracket := true
	for p.isPunct("[") {
		bracketTok := p.ptok()
		if err := p.advance(); err != nil {
			return nil, err
		}
		if isField && firstBracket {
			br, err := p.parseFieldBitRangeBody(bracketTok)
			if err != nil {
				return nil, err
			}
			children = append(children, br)
		} else {
			dim, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			children = append(children, ptree.NewRule(ptree.RuleArraySuffix, bracketTok, dim))
		}
		if err := p.expectPunct("]"); err != nil {
			return nil, err
		}
		firstBracket = false
	}

	if p.isPunct("@") {
		atTok := p.ptok()
		if err := p.advance(); err != nil {
			return nil, err
		}
		offset, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		children = append(children, ptree.NewRule(ptree.RuleInstAddrFixed, atTok, offset))
	}
	if p.isPunct("+=") {
		opTok := p.ptok()
		if err := p.advance(); err != nil {
			return nil, err
		}
		stride, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		children = append(children, ptree.NewRule(ptree.RuleInstAddrStride, opTok, stride))
	}
	if p.isPunct("%=") {
		opTok := p.ptok()
		if err := p.advance(); err != nil {
			return nil, err
		}
		align, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		children = append(children, ptree.NewRule(ptree.RuleInstAddrAlign, opTok, align))
	}

	return ptree.NewRule(ptree.RuleComponentInst,
		ptree.Token{Path: p.path, Line: instTok.Line, Col: instTok.Col}, children...), nil
}

// parseFieldBitRangeBody parses the inside of `[msb:lsb]` or `[width]`,
// not including the brackets themselves (already consumed by the caller).
func (p *Parser) parseFieldBitRangeBody(at ptree.Token) (ptree.Node, error) {
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.isPunct(":") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		second, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ptree.NewRule(ptree.RuleFieldBitRange, at, first, second), nil
	}
	return ptree.NewRule(ptree.RuleFieldBitRange, at, first), nil
}

func (p *Parser) parseActualParamList() (ptree.Node, error) {
	hashTok := p.ptok()
	if err := p.advance(); err != nil { // consume '#'
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var actuals []ptree.Node
	for !p.isPunct(")") {
		actual, err := p.parseActualParam()
		if err != nil {
			return nil, err
		}
		actuals = append(actuals, actual)
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return ptree.NewRule(ptree.RuleParamActualList, hashTok, actuals...), nil
}

// parseActualParam parses either a named actual `.name(expr)` (wrapped in
// a param_actual node so buildActualParams can tell it apart from a bare
// positional expression) or a positional actual (the expr node itself).
func (p *Parser) parseActualParam() (ptree.Node, error) {
	if p.isPunct(".") {
		dotTok := p.ptok()
		if err := p.advance(); err != nil {
			return nil, err
		}
		nameTok, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		nameNode := ptree.NewTerminal(p.path, nameTok.Line, nameTok.Col, nameTok.Text)
		return ptree.NewRule(ptree.RuleParamActual, dotTok, nameNode, val), nil
	}
	return p.parseExpr()
}
