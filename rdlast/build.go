package rdlast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vowstar/systemrdl-toolkit/ptree"
)

// Build lowers a generic parse tree (§6, package ptree) into the typed AST
// this package's other files define. The grammar's lexer/parser is out of
// scope (§1); this function documents, by its switch over ptree.Rule, the
// node shapes a conforming generated parser is expected to produce, and
// gives the core something concrete to elaborate without requiring a real
// grammar front end.
//
// Most of this toolkit's own tests skip this step and construct a FileDecl
// directly — the same way the teacher's decl/eval_test.go builds decl.Node
// values by hand rather than driving them through decl's own parser.
func Build(root ptree.Node) (*FileDecl, error) {
	if root == nil {
		return nil, fmt.Errorf("cannot build AST from nil parse tree")
	}
	if root.Rule() != ptree.RuleRoot {
		return nil, fmt.Errorf("expected root rule %q, got %q", ptree.RuleRoot, root.Rule())
	}
	tok := ptree.FirstToken(root)
	file := &FileDecl{NodeInfo: at(tok), Path: tok.Path}

	var lastAddrmap *ComponentTypeDecl
	for _, child := range root.Children() {
		switch child.Rule() {
		case ptree.RuleComponentNamedDef:
			typeDecl, err := buildComponentTypeDecl(child)
			if err != nil {
				return nil, err
			}
			file.Types = append(file.Types, typeDecl)
			if typeDecl.Kind == KindAddrmap {
				lastAddrmap = typeDecl
			}
		case ptree.RuleComponentInst, ptree.RuleExplicitComponentInst:
			inst, err := buildInstanceDecl(child)
			if err != nil {
				return nil, err
			}
			file.RootInstance = inst
		default:
			return nil, fmt.Errorf("unsupported top-level rule %q", child.Rule())
		}
	}

	if file.RootInstance == nil {
		if lastAddrmap == nil {
			return nil, fmt.Errorf("no top-level addrmap found in compilation unit")
		}
		file.RootInstance = &InstanceDecl{
			NodeInfo:     lastAddrmap.NodeInfo,
			TypeName:     lastAddrmap.Name,
			TypeRef:      lastAddrmap,
			InstanceName: lastAddrmap.Name,
		}
	}
	return file, nil
}

// buildComponentTypeDecl lowers a component_named_def / component_anon_def
// rule node. Its children are expected, in order: a keyword terminal (the
// kind), optionally a name terminal, optionally a param_def_list, then one
// child per body item (nested component defs, property assignments,
// instance declarations).
func buildComponentTypeDecl(n ptree.Node) (*ComponentTypeDecl, error) {
	children := n.Children()
	if len(children) == 0 {
		return nil, fmt.Errorf("component definition has no children")
	}
	kindTok := children[0].Terminal()
	if kindTok == nil {
		return nil, fmt.Errorf("expected component kind terminal")
	}
	kind, ok := ParseComponentKind(kindTok.Text)
	if !ok {
		return nil, ErrUnknownKind(kindTok.Text)
	}

	decl := &ComponentTypeDecl{NodeInfo: at(*kindTok), Kind: kind}
	rest := children[1:]
	if n.Rule() == ptree.RuleComponentNamedDef && len(rest) > 0 {
		if nameTok := rest[0].Terminal(); nameTok != nil {
			decl.Name = nameTok.Text
			rest = rest[1:]
		}
	}
	if len(rest) > 0 && rest[0].Rule() == ptree.RuleParamDefList {
		params, err := buildParamDefList(rest[0])
		if err != nil {
			return nil, err
		}
		decl.Params = params
		rest = rest[1:]
	}

	for _, bodyChild := range rest {
		item, err := buildBodyItem(bodyChild)
		if err != nil {
			return nil, err
		}
		decl.Body = append(decl.Body, item)
	}
	return decl, nil
}

func buildParamDefList(n ptree.Node) ([]*ParamDecl, error) {
	var out []*ParamDecl
	for _, c := range n.Children() {
		if c.Rule() != ptree.RuleParamDef {
			return nil, fmt.Errorf("expected param_def, got %q", c.Rule())
		}
		kids := c.Children()
		if len(kids) < 2 {
			return nil, fmt.Errorf("param_def requires at least name and type children")
		}
		nameTok := kids[0].Terminal()
		typeTok := kids[1].Terminal()
		if nameTok == nil || typeTok == nil {
			return nil, fmt.Errorf("param_def name/type must be terminals")
		}
		pd := &ParamDecl{NodeInfo: at(*nameTok), Name: nameTok.Text, TypeName: typeTok.Text}
		if len(kids) > 2 {
			expr, err := buildExpr(kids[2])
			if err != nil {
				return nil, err
			}
			pd.DefaultValue = expr
		}
		out = append(out, pd)
	}
	return out, nil
}

func buildBodyItem(n ptree.Node) (BodyItem, error) {
	switch n.Rule() {
	case ptree.RuleComponentNamedDef, ptree.RuleComponentAnonDef:
		return buildComponentTypeDecl(n)
	case ptree.RuleComponentInst, ptree.RuleExplicitComponentInst:
		return buildInstanceDecl(n)
	case ptree.RuleLocalPropertyAssignment:
		return buildPropertyAssign(n)
	case ptree.RuleDynamicPropertyAssignment:
		return buildDynamicPropertyAssign(n)
	case ptree.RuleDefaultPropertyAssignment:
		return buildDefaultPropertyAssign(n)
	default:
		return nil, fmt.Errorf("unsupported body item rule %q", n.Rule())
	}
}

// buildInstanceDecl lowers a component_inst rule. Children, in order:
// an anonymous component def OR a type-name terminal, an instance-name
// terminal, optional param_actual_list, optional field_bit_range, zero or
// more array_suffix, optional inst_addr_fixed, optional inst_addr_stride,
// optional inst_addr_align.
func buildInstanceDecl(n ptree.Node) (*InstanceDecl, error) {
	children := n.Children()
	if len(children) == 0 {
		return nil, fmt.Errorf("instance declaration has no children")
	}
	inst := &InstanceDecl{NodeInfo: at(ptree.FirstToken(n))}

	idx := 0
	first := children[idx]
	if first.Rule() == ptree.RuleComponentAnonDef {
		anon, err := buildComponentTypeDecl(first)
		if err != nil {
			return nil, err
		}
		inst.AnonType = anon
		idx++
	} else if tok := first.Terminal(); tok != nil {
		inst.TypeName = tok.Text
		idx++
	} else {
		return nil, fmt.Errorf("expected anonymous type or type-name terminal")
	}

	if idx < len(children) {
		if tok := children[idx].Terminal(); tok != nil {
			inst.InstanceName = tok.Text
			idx++
		}
	}

	for ; idx < len(children); idx++ {
		c := children[idx]
		switch c.Rule() {
		case ptree.RuleParamActualList:
			actuals, err := buildActualParams(c)
			if err != nil {
				return nil, err
			}
			inst.ActualParams = actuals
		case ptree.RuleFieldBitRange:
			br, err := buildFieldBitRange(c)
			if err != nil {
				return nil, err
			}
			inst.BitRange = br
		case ptree.RuleArraySuffix:
			expr, err := buildExpr(firstChild(c))
			if err != nil {
				return nil, err
			}
			inst.Dims = append(inst.Dims, expr)
		case ptree.RuleInstAddrFixed:
			expr, err := buildExpr(firstChild(c))
			if err != nil {
				return nil, err
			}
			inst.ExplicitOffset = expr
		case ptree.RuleInstAddrStride:
			expr, err := buildExpr(firstChild(c))
			if err != nil {
				return nil, err
			}
			inst.Stride = expr
		case ptree.RuleInstAddrAlign:
			expr, err := buildExpr(firstChild(c))
			if err != nil {
				return nil, err
			}
			inst.Align = expr
		default:
			return nil, fmt.Errorf("unsupported instance suffix rule %q", c.Rule())
		}
	}
	return inst, nil
}

func firstChild(n ptree.Node) ptree.Node {
	kids := n.Children()
	if len(kids) == 0 {
		return nil
	}
	return kids[0]
}

func buildActualParams(n ptree.Node) ([]*ActualParam, error) {
	var out []*ActualParam
	for _, c := range n.Children() {
		// Named actual: a param_actual node holding the name terminal and
		// the value expr. Positional actual: the expr node itself.
		kids := c.Children()
		if c.Rule() == ptree.RuleParamActual && len(kids) == 2 {
			if nameTok := kids[0].Terminal(); nameTok != nil {
				expr, err := buildExpr(kids[1])
				if err != nil {
					return nil, err
				}
				out = append(out, &ActualParam{Name: nameTok.Text, Value: expr})
				continue
			}
		}
		expr, err := buildExpr(c)
		if err != nil {
			return nil, err
		}
		out = append(out, &ActualParam{Value: expr})
	}
	return out, nil
}

func buildFieldBitRange(n ptree.Node) (*FieldBitRange, error) {
	kids := n.Children()
	br := &FieldBitRange{NodeInfo: at(ptree.FirstToken(n))}
	if len(kids) == 2 {
		msb, err := buildExpr(kids[0])
		if err != nil {
			return nil, err
		}
		lsb, err := buildExpr(kids[1])
		if err != nil {
			return nil, err
		}
		br.HasMsbLsb = true
		br.Msb, br.Lsb = msb, lsb
		return br, nil
	}
	if len(kids) == 1 {
		w, err := buildExpr(kids[0])
		if err != nil {
			return nil, err
		}
		br.HasWidth = true
		br.Width = w
		return br, nil
	}
	return nil, fmt.Errorf("field_bit_range expects 1 or 2 children, got %d", len(kids))
}

func buildPropertyAssign(n ptree.Node) (*PropertyAssignStmt, error) {
	kids := n.Children()
	if len(kids) != 2 {
		return nil, fmt.Errorf("local_property_assignment expects 2 children")
	}
	nameTok := kids[0].Terminal()
	if nameTok == nil {
		return nil, fmt.Errorf("property name must be a terminal")
	}
	val, err := buildExpr(kids[1])
	if err != nil {
		return nil, err
	}
	return &PropertyAssignStmt{NodeInfo: at(*nameTok), Property: nameTok.Text, Value: val}, nil
}

func buildDynamicPropertyAssign(n ptree.Node) (*DynamicPropertyAssignStmt, error) {
	kids := n.Children()
	if len(kids) != 3 {
		return nil, fmt.Errorf("dynamic_property_assignment expects 3 children (path, property, value)")
	}
	pathTok := kids[0].Terminal()
	propTok := kids[1].Terminal()
	if pathTok == nil || propTok == nil {
		return nil, fmt.Errorf("dynamic_property_assignment path/property must be terminals")
	}
	val, err := buildExpr(kids[2])
	if err != nil {
		return nil, err
	}
	return &DynamicPropertyAssignStmt{
		NodeInfo:   at(*pathTok),
		TargetPath: strings.Split(pathTok.Text, "."),
		Property:   propTok.Text,
		Value:      val,
	}, nil
}

func buildDefaultPropertyAssign(n ptree.Node) (*DefaultPropertyAssignStmt, error) {
	kids := n.Children()
	if len(kids) != 2 {
		return nil, fmt.Errorf("default_property_assignment expects 2 children")
	}
	nameTok := kids[0].Terminal()
	if nameTok == nil {
		return nil, fmt.Errorf("property name must be a terminal")
	}
	val, err := buildExpr(kids[1])
	if err != nil {
		return nil, err
	}
	return &DefaultPropertyAssignStmt{NodeInfo: at(*nameTok), Property: nameTok.Text, Value: val}, nil
}

func buildExpr(n ptree.Node) (Expr, error) {
	if n == nil {
		return nil, fmt.Errorf("expected expression, got nil node")
	}
	switch n.Rule() {
	case ptree.RuleExprLiteralInt:
		tok := n.Terminal()
		if tok == nil {
			return nil, fmt.Errorf("expr_literal_int must be a terminal")
		}
		return parseIntLiteral(*tok)
	case ptree.RuleExprLiteralBool:
		tok := n.Terminal()
		if tok == nil {
			return nil, fmt.Errorf("expr_literal_bool must be a terminal")
		}
		return &LiteralExpr{ExprBase: ExprBase{at(*tok)}, Kind: LiteralBool, BoolVal: tok.Text == "true"}, nil
	case ptree.RuleExprLiteralString:
		tok := n.Terminal()
		if tok == nil {
			return nil, fmt.Errorf("expr_literal_string must be a terminal")
		}
		return &LiteralExpr{ExprBase: ExprBase{at(*tok)}, Kind: LiteralString, StrVal: tok.Text}, nil
	case ptree.RuleExprIdent:
		tok := n.Terminal()
		if tok == nil {
			return nil, fmt.Errorf("expr_ident must be a terminal")
		}
		return &IdentExpr{ExprBase: ExprBase{at(*tok)}, Name: tok.Text}, nil
	case ptree.RuleExprPath:
		tok := n.Terminal()
		if tok == nil {
			return nil, fmt.Errorf("expr_path must be a terminal")
		}
		return &PathExpr{ExprBase: ExprBase{at(*tok)}, Segments: strings.Split(tok.Text, ".")}, nil
	case ptree.RuleExprEnumRef:
		kids := n.Children()
		if len(kids) != 2 {
			return nil, fmt.Errorf("expr_enum_ref expects 2 children")
		}
		typeTok, nameTok := kids[0].Terminal(), kids[1].Terminal()
		if typeTok == nil || nameTok == nil {
			return nil, fmt.Errorf("expr_enum_ref children must be terminals")
		}
		return &EnumRefExpr{ExprBase: ExprBase{at(*typeTok)}, TypeName: typeTok.Text, Name: nameTok.Text}, nil
	case ptree.RuleExprBinary:
		kids := n.Children()
		if len(kids) != 3 {
			return nil, fmt.Errorf("expr_binary expects 3 children (lhs, op, rhs)")
		}
		opTok := kids[1].Terminal()
		if opTok == nil {
			return nil, fmt.Errorf("expr_binary operator must be a terminal")
		}
		lhs, err := buildExpr(kids[0])
		if err != nil {
			return nil, err
		}
		rhs, err := buildExpr(kids[2])
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{ExprBase: ExprBase{at(*opTok)}, Op: BinaryOp(opTok.Text), Lhs: lhs, Rhs: rhs}, nil
	case ptree.RuleExprUnary:
		kids := n.Children()
		if len(kids) != 2 {
			return nil, fmt.Errorf("expr_unary expects 2 children (op, operand)")
		}
		opTok := kids[0].Terminal()
		if opTok == nil {
			return nil, fmt.Errorf("expr_unary operator must be a terminal")
		}
		operand, err := buildExpr(kids[1])
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{ExprBase: ExprBase{at(*opTok)}, Op: UnaryOp(opTok.Text), Operand: operand}, nil
	case ptree.RuleExprTernary:
		kids := n.Children()
		if len(kids) != 3 {
			return nil, fmt.Errorf("expr_ternary expects 3 children (cond, whenTrue, whenFalse)")
		}
		cond, err := buildExpr(kids[0])
		if err != nil {
			return nil, err
		}
		wt, err := buildExpr(kids[1])
		if err != nil {
			return nil, err
		}
		wf, err := buildExpr(kids[2])
		if err != nil {
			return nil, err
		}
		return &TernaryExpr{ExprBase: ExprBase{at(ptree.FirstToken(n))}, Cond: cond, WhenTrue: wt, WhenFalse: wf}, nil
	case ptree.RuleExprConcat:
		var parts []Expr
		for _, c := range n.Children() {
			e, err := buildExpr(c)
			if err != nil {
				return nil, err
			}
			parts = append(parts, e)
		}
		return &ConcatExpr{ExprBase: ExprBase{at(ptree.FirstToken(n))}, Parts: parts}, nil
	case ptree.RuleExprReplicate:
		kids := n.Children()
		if len(kids) != 2 {
			return nil, fmt.Errorf("expr_replicate expects 2 children (count, part)")
		}
		count, err := buildExpr(kids[0])
		if err != nil {
			return nil, err
		}
		part, err := buildExpr(kids[1])
		if err != nil {
			return nil, err
		}
		return &ReplicateExpr{ExprBase: ExprBase{at(ptree.FirstToken(n))}, Count: count, Part: part}, nil
	default:
		return nil, fmt.Errorf("unsupported expression rule %q", n.Rule())
	}
}

// parseIntLiteral parses an integer literal token, handling the optional
// SystemRDL width prefix `<width>'<base><digits>` (§4.2).
func parseIntLiteral(tok ptree.Token) (*LiteralExpr, error) {
	text := tok.Text
	lit := &LiteralExpr{ExprBase: ExprBase{at(tok)}, Kind: LiteralInt}
	if i := strings.IndexByte(text, '\''); i >= 0 {
		widthStr := text[:i]
		width, err := strconv.Atoi(widthStr)
		if err != nil {
			return nil, fmt.Errorf("invalid width prefix %q: %w", widthStr, err)
		}
		rest := text[i+1:]
		base := 10
		if len(rest) > 0 {
			switch rest[0] {
			case 'h', 'H':
				base, rest = 16, rest[1:]
			case 'd', 'D':
				base, rest = 10, rest[1:]
			case 'o', 'O':
				base, rest = 8, rest[1:]
			case 'b', 'B':
				base, rest = 2, rest[1:]
			}
		}
		// Sized literals (`<width>'<base><digits>`) are unsigned magnitudes
		// per §4.2, not signed values — parse as such so a full-width mask
		// like `64'hFFFF_FFFF_FFFF_FFFF` doesn't overflow a signed parse.
		// The result is stored in IntVal's two's-complement bit pattern,
		// matching how the evaluator represents all integers internally.
		rest = strings.ReplaceAll(rest, "_", "")
		val, err := strconv.ParseUint(rest, base, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer literal %q: %w", text, err)
		}
		lit.HasWidth = true
		lit.Width = width
		lit.IntVal = int64(val)
		return lit, nil
	}
	val, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer literal %q: %w", text, err)
	}
	lit.IntVal = val
	return lit, nil
}
