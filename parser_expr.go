package witch

import (
	"strconv"
	"strings"
)

// expression parses a full expression at binding power 0, the public entry
// point every statement production calls into (spec.md §4.3; ground truth:
// witch-parser/src/expression.rs `expression`/`expression_inner`).
func expression(c *Cursor) (Ast, error) {
	return expressionInner(c, 0)
}

// expressionInner is the Pratt loop: it parses one prefix term, then
// extends it with postfix member/call chains, then repeatedly folds infix
// operators whose left binding power is at least `power`, recursing on the
// right-hand side with that operator's right binding power (spec.md §4.3's
// speculative/precedence-climbing requirement). This supersedes the
// deprecated right-recursive expression grammar in
// witch-compiler/src/parser/expression.rs, per the chosen resolution of the
// spec's associativity Open Question.
func expressionInner(c *Cursor, power int) (Ast, error) {
	start := c.Cursor()
	expr, err := prefixExpression(c)
	if err != nil {
		return nil, err
	}

	expr, err = memberOrCall(c, expr, start)
	if err != nil {
		return nil, err
	}

	if c.At(KindEq) {
		if _, ok := expr.(*VarNode); ok {
			return finishAssignment(c, expr, start)
		}
		if _, ok := expr.(*MemberNode); ok {
			return finishAssignment(c, expr, start)
		}
	}

	for {
		op, kind, ok := peekOperator(c)
		if !ok {
			break
		}
		left, right, infixOK := op.InfixBindingPower()
		if !infixOK || left < power {
			break
		}
		if _, err := c.Consume(kind); err != nil {
			return nil, err
		}
		rhs, err := expressionInner(c, right)
		if err != nil {
			return nil, err
		}
		expr = NewInfixNode(expr, op, rhs, NewRange(start, c.Cursor()))
	}

	return expr, nil
}

func finishAssignment(c *Cursor, lhs Ast, start int) (Ast, error) {
	if _, err := c.Consume(KindEq); err != nil {
		return nil, err
	}
	rhs, err := expression(c)
	if err != nil {
		return nil, err
	}
	return NewAssignmentNode(lhs, rhs, NewRange(start, c.Cursor())), nil
}

// prefixExpression parses the leading term of an expression: a literal, a
// variable, a struct expression, a parenthesized/function expression, or a
// list literal.
func prefixExpression(c *Cursor) (Ast, error) {
	switch c.Peek() {
	case KindInt:
		tok, _ := c.Consume(KindInt)
		n, err := strconv.ParseUint(c.Text(tok), 10, 64)
		if err != nil {
			return nil, LexError{Message: "invalid integer literal", Span: tok.Span}
		}
		return NewValueNode(VUsize{Val: n}, tok.Span), nil

	case KindFloat:
		tok, _ := c.Consume(KindFloat)
		f, err := strconv.ParseFloat(c.Text(tok), 32)
		if err != nil {
			return nil, LexError{Message: "invalid float literal", Span: tok.Span}
		}
		return NewValueNode(VF32{Val: float32(f)}, tok.Span), nil

	case KindString:
		tok, _ := c.Consume(KindString)
		raw := c.Text(tok)
		return NewValueNode(VString{Val: unquote(raw)}, tok.Span), nil

	case KindCString:
		tok, _ := c.Consume(KindCString)
		raw := c.Text(tok)
		raw = strings.TrimPrefix(raw, "c")
		return NewValueNode(VCString{Val: unquote(raw)}, tok.Span), nil

	case KindBang:
		start := c.Cursor()
		if _, err := c.Consume(KindBang); err != nil {
			return nil, err
		}
		operand, err := prefixExpression(c)
		if err != nil {
			return nil, err
		}
		operand, err = memberOrCall(c, operand, start)
		if err != nil {
			return nil, err
		}
		return NewPrefixNode(OpBang, operand, NewRange(start, c.Cursor())), nil

	case KindKwNew:
		return structExpression(c)

	case KindIdent:
		tok, _ := c.Consume(KindIdent)
		return NewVarNode(c.Text(tok), tok.Span), nil

	case KindLParen:
		return Either(c, functionExpression, nestedExpression)

	case KindLSquare:
		return Either(c, functionExpression, listLiteral)

	default:
		tok := c.peekToken()
		return nil, UnexpectedToken{Got: tok.Kind, Span: tok.Span}
	}
}

// unquote strips the surrounding double quotes a string/c-string lexeme
// carries and resolves the `\`-escapes the lexer left untouched (the lexer
// only steps over a backslash and the byte after it; the parser resolves
// them).
func unquote(raw string) string {
	raw = strings.TrimPrefix(raw, "\"")
	raw = strings.TrimSuffix(raw, "\"")
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
			switch raw[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteByte(raw[i])
			}
			continue
		}
		b.WriteByte(raw[i])
	}
	return b.String()
}

// structExpression parses `new [Name[.Name2]] { field: expr, ... }`.
func structExpression(c *Cursor) (Ast, error) {
	start := c.Cursor()
	if _, err := c.Consume(KindKwNew); err != nil {
		return nil, err
	}

	var ident *string
	if c.At(KindIdent) {
		tok, err := c.Consume(KindIdent)
		if err != nil {
			return nil, err
		}
		name := c.Text(tok)
		if c.At(KindDot) {
			if _, err := c.Consume(KindDot); err != nil {
				return nil, err
			}
			tok2, err := c.Consume(KindIdent)
			if err != nil {
				return nil, err
			}
			name = name + "." + c.Text(tok2)
		}
		ident = &name
	}

	if _, err := c.Consume(KindLBrace); err != nil {
		return nil, err
	}
	fields := map[string]Ast{}
	var order []string
	for c.At(KindIdent) {
		tok, err := c.Consume(KindIdent)
		if err != nil {
			return nil, err
		}
		name := c.Text(tok)
		var value Ast
		if c.At(KindColon) {
			if _, err := c.Consume(KindColon); err != nil {
				return nil, err
			}
			value, err = expression(c)
			if err != nil {
				return nil, err
			}
		} else {
			value = NewVarNode(name, tok.Span)
		}
		fields[name] = value
		order = append(order, name)
		if c.At(KindComma) {
			if _, err := c.Consume(KindComma); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if c.At(KindSemicolon) {
		if _, err := c.Consume(KindSemicolon); err != nil {
			return nil, err
		}
	}
	if _, err := c.Consume(KindRBrace); err != nil {
		return nil, err
	}

	return NewStructNode(ident, fields, order, NewRange(start, c.Cursor())), nil
}

func nestedExpression(c *Cursor) (Ast, error) {
	start := c.Cursor()
	if _, err := c.Consume(KindLParen); err != nil {
		return nil, err
	}
	var expr Ast
	if c.At(KindRParen) {
		expr = NewNopNode(NewRange(start, c.Cursor()))
	} else {
		var err error
		expr, err = expression(c)
		if err != nil {
			return nil, err
		}
	}
	if _, err := c.Consume(KindRParen); err != nil {
		return nil, err
	}
	return expr, nil
}

func listLiteral(c *Cursor) (Ast, error) {
	start := c.Cursor()
	if _, err := c.Consume(KindLSquare); err != nil {
		return nil, err
	}
	var items []Ast
	for !c.At(KindRSquare) {
		item, err := expression(c)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if c.At(KindComma) {
			if _, err := c.Consume(KindComma); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := c.Consume(KindRSquare); err != nil {
		return nil, err
	}
	return NewListNode(items, NewRange(start, c.Cursor())), nil
}

// functionExpression parses `[Generics](args) where ... -> returns { body }` and its
// lambda-sugar variants (`-> type: expr`, `-> expr`), per spec.md §4.4 and
// witch-parser/src/expression.rs `function_expression`.
func functionExpression(c *Cursor) (Ast, error) {
	start := c.Cursor()
	generics, err := genericParamList(c)
	if err != nil {
		return nil, err
	}

	if _, err := c.Consume(KindLParen); err != nil {
		return nil, err
	}
	args, err := functionArgs(c)
	if err != nil {
		return nil, err
	}
	variadic := false
	if c.At(KindDotDotDot) {
		if _, err := c.Consume(KindDotDotDot); err != nil {
			return nil, err
		}
		variadic = true
	}
	if _, err := c.Consume(KindRParen); err != nil {
		return nil, err
	}
	constraints, err := whereConstraints(c)
	if err != nil {
		return nil, err
	}
	if _, err := c.Consume(KindArrow); err != nil {
		return nil, err
	}

	returns, body, err := functionTail(c, generics)
	if err != nil {
		return nil, err
	}

	params := make([]GenericParam, len(generics))
	for i, g := range generics {
		constraint := Any
		if ty, ok := constraints[g]; ok {
			constraint = ty
		}
		params[i] = GenericParam{Name: g, Constraint: constraint}
	}

	return NewFunctionNode(args, returns, body, variadic, params, NewRange(start, c.Cursor())), nil
}

// functionTail resolves the four forms a function's tail can take after
// the `->`: `type { stmt }`, `type : expr`, or an untyped `{ stmt }` block
// or bare `expr`, whose return type is Unknown until inference fills it in
// (spec.md §4.4 Open Question, resolved by following
// witch-parser/src/expression.rs).
func functionTail(c *Cursor, generics []string) (Type, Ast, error) {
	if c.At(KindLBrace) {
		if _, err := c.Consume(KindLBrace); err != nil {
			return Type{}, nil, err
		}
		body, err := statement(c)
		if err != nil {
			return Type{}, nil, err
		}
		if _, err := c.Consume(KindRBrace); err != nil {
			return Type{}, nil, err
		}
		return Unknown, body, nil
	}

	fork := c.Fork()
	ty, tyErr := typeLiteral(&fork)

	if tyErr == nil && fork.At(KindColon) {
		*c = fork
		if _, err := c.Consume(KindColon); err != nil {
			return Type{}, nil, err
		}
		start := c.Cursor()
		expr, err := expression(c)
		if err != nil {
			return Type{}, nil, err
		}
		return ty, NewReturnNode(expr, NewRange(start, c.Cursor())), nil
	}

	if tyErr == nil && fork.At(KindLBrace) {
		*c = fork
		if _, err := c.Consume(KindLBrace); err != nil {
			return Type{}, nil, err
		}
		body, err := statement(c)
		if err != nil {
			return Type{}, nil, err
		}
		if _, err := c.Consume(KindRBrace); err != nil {
			return Type{}, nil, err
		}
		return ty, body, nil
	}

	start := c.Cursor()
	expr, err := expression(c)
	if err != nil {
		return Type{}, nil, err
	}
	return Unknown, NewReturnNode(expr, NewRange(start, c.Cursor())), nil
}

func functionArgs(c *Cursor) ([]FunctionArg, error) {
	var args []FunctionArg
	for c.At(KindIdent) {
		tok, err := c.Consume(KindIdent)
		if err != nil {
			return nil, err
		}
		name := c.Text(tok)
		ty := Unknown
		if c.At(KindColon) {
			if _, err := c.Consume(KindColon); err != nil {
				return nil, err
			}
			ty, err = typeLiteral(c)
			if err != nil {
				return nil, err
			}
		}
		args = append(args, FunctionArg{Name: name, Type: ty})
		if c.At(KindComma) {
			if _, err := c.Consume(KindComma); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return args, nil
}

// memberOrCall extends expr with zero or more postfix `.field`, `[expr]`,
// and `(args)` suffixes, left to right (spec.md §4.3; ground truth:
// witch-parser/src/expression.rs `member_or_func_call`).
func memberOrCall(c *Cursor, expr Ast, start int) (Ast, error) {
	for {
		switch c.Peek() {
		case KindDot:
			if _, err := c.Consume(KindDot); err != nil {
				return nil, err
			}
			tok, err := c.Consume(KindIdent)
			if err != nil {
				return nil, err
			}
			expr = NewMemberNode(expr, KeyString(c.Text(tok)), NewRange(start, c.Cursor()))

		case KindLSquare:
			if _, err := c.Consume(KindLSquare); err != nil {
				return nil, err
			}
			keyExpr, err := expression(c)
			if err != nil {
				return nil, err
			}
			if _, err := c.Consume(KindRSquare); err != nil {
				return nil, err
			}
			var key Key
			if v, ok := keyExpr.(*ValueNode); ok {
				if u, ok := v.Value.(VUsize); ok {
					key = KeyIndex(int(u.Val))
				}
			}
			if key == nil {
				key = KeyExpr{Expr: keyExpr}
			}
			expr = NewMemberNode(expr, key, NewRange(start, c.Cursor()))

		case KindLParen:
			if _, err := c.Consume(KindLParen); err != nil {
				return nil, err
			}
			var args []Ast
			for !c.At(KindRParen) {
				arg, err := expression(c)
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if c.At(KindComma) {
					if _, err := c.Consume(KindComma); err != nil {
						return nil, err
					}
				}
			}
			if _, err := c.Consume(KindRParen); err != nil {
				return nil, err
			}
			expr = NewCallNode(expr, args, NewRange(start, c.Cursor()))

		default:
			return expr, nil
		}
	}
}

// peekOperator maps the next token, if any, onto its Operator and Kind
// (spec.md §4.3; ground truth: witch-parser/src/expression.rs
// `peek_operator`).
func peekOperator(c *Cursor) (Operator, Kind, bool) {
	switch c.Peek() {
	case KindEqq:
		return OpEq, KindEqq, true
	case KindNeq:
		return OpNotEq, KindNeq, true
	case KindRAngle:
		return OpGt, KindRAngle, true
	case KindLAngle:
		return OpLt, KindLAngle, true
	case KindGte:
		return OpGte, KindGte, true
	case KindLte:
		return OpLte, KindLte, true
	case KindPlus:
		return OpAdd, KindPlus, true
	case KindMinus:
		return OpSub, KindMinus, true
	case KindTimes:
		return OpMul, KindTimes, true
	case KindSlash:
		return OpDiv, KindSlash, true
	case KindAnd:
		return OpAnd, KindAnd, true
	case KindOr:
		return OpOr, KindOr, true
	case KindPercent:
		return OpMod, KindPercent, true
	case KindPow:
		return OpPow, KindPow, true
	default:
		return 0, 0, false
	}
}
