package witch

// statement parses a right-leaning cons-list of statements until it hits a
// closing brace or EOF (spec.md §4.4; ground truth:
// witch-compiler/src/parser/statement.rs `statement`).
func statement(c *Cursor) (Ast, error) {
	start := c.Cursor()

	switch c.Peek() {
	case KindRBrace, KindEOF:
		return NewNopNode(NewRange(start, start)), nil

	case KindKwImport:
		if _, err := c.Consume(KindKwImport); err != nil {
			return nil, err
		}
		// import takes the next token's lexeme verbatim as the path
		// (string quoting on it is left undefined by design, spec.md
		// §9 Open Question; ground truth:
		// witch-compiler/src/parser/statement.rs's KwImport arm).
		pathTok := c.peekToken()
		c.pos++
		stmt := NewImportNode(c.Text(pathTok), NewRange(start, pathTok.Span.End))
		return finishStatement(c, stmt, start)

	case KindKwEnum:
		decl, err := enumDeclaration(c)
		if err != nil {
			return nil, err
		}
		return finishStatement(c, decl, start)

	case KindKwInterface:
		decl, err := interfaceDeclaration(c)
		if err != nil {
			return nil, err
		}
		return finishStatement(c, decl, start)

	case KindKwStruct:
		decl, err := structDeclaration(c)
		if err != nil {
			return nil, err
		}
		return finishStatement(c, decl, start)

	case KindIdent:
		return identStatement(c, start)

	case KindKwReturn:
		if _, err := c.Consume(KindKwReturn); err != nil {
			return nil, err
		}
		expr, err := expression(c)
		if err != nil {
			return nil, err
		}
		return finishStatement(c, NewReturnNode(expr, NewRange(start, c.Cursor())), start)

	case KindKwFn:
		ident, fn, err := functionDeclaration(c)
		if err != nil {
			return nil, err
		}
		if c.At(KindSemicolon) {
			if _, err := c.Consume(KindSemicolon); err != nil {
				return nil, err
			}
		}
		let := NewLetNode(ident, nil, fn, NewRange(start, c.Cursor()))
		return finishStatement(c, let, start)

	case KindKwIf:
		ifElse, err := ifElse(c)
		if err != nil {
			return nil, err
		}
		return finishStatement(c, ifElse, start)

	case KindAt:
		return annotation(c)

	default:
		expr, err := expression(c)
		if err != nil {
			return nil, err
		}
		if c.At(KindSemicolon) {
			if _, err := c.Consume(KindSemicolon); err != nil {
				return nil, err
			}
		}
		return finishStatement(c, expr, start)
	}
}

// finishStatement consumes a trailing semicolon if present, then conses
// `stmt` onto whatever statement follows.
func finishStatement(c *Cursor, stmt Ast, start int) (Ast, error) {
	if c.At(KindSemicolon) {
		if _, err := c.Consume(KindSemicolon); err != nil {
			return nil, err
		}
	}
	rest, err := statement(c)
	if err != nil {
		return nil, err
	}
	return NewStatementNode(stmt, rest, NewRange(start, c.Cursor())), nil
}

// identStatement resolves the three things a statement starting with an
// identifier can be: an assignment-with-binding (`x = expr`, `x: type =
// expr`), a named function declaration (`fn name(...) -> ... { ... }`), or
// a bare expression statement (spec.md §4.4; ground truth:
// witch-compiler/src/parser/statement.rs, the `Some(Kind::Ident)` arm).
func identStatement(c *Cursor, start int) (Ast, error) {
	let, ok := Maybe(c, letAssignment)
	if ok {
		return finishStatement(c, let, start)
	}

	fnLet, ok := Maybe(c, namedFunctionLet)
	if ok {
		return finishStatement(c, fnLet, start)
	}

	expr, err := expression(c)
	if err != nil {
		return nil, err
	}
	if c.At(KindSemicolon) {
		if _, err := c.Consume(KindSemicolon); err != nil {
			return nil, err
		}
	}
	return finishStatement(c, expr, start)
}

// letAssignment parses `ident (: type)? = expr`.
func letAssignment(c *Cursor) (Ast, error) {
	start := c.Cursor()
	tok, err := c.Consume(KindIdent)
	if err != nil {
		return nil, err
	}
	ident := c.Text(tok)

	var annotated *Type
	if c.At(KindColon) {
		if _, err := c.Consume(KindColon); err != nil {
			return nil, err
		}
		ty, err := typeLiteral(c)
		if err != nil {
			return nil, err
		}
		annotated = &ty
	}

	if _, err := c.Consume(KindEq); err != nil {
		return nil, err
	}
	expr, err := expression(c)
	if err != nil {
		return nil, err
	}
	rg := NewRange(start, c.Cursor())
	assignment := NewAssignmentNode(NewVarNode(ident, tok.Span), expr, rg)
	return NewLetNode(ident, annotated, assignment, rg), nil
}

// namedFunctionLet parses a bare `name(...) -> ... { ... }` declaration
// (sugar for `name = (...) -> ... { ... }`), distinguishing it from a plain
// call expression by requiring the postfix chain to resolve to a
// FunctionNode.
func namedFunctionLet(c *Cursor) (Ast, error) {
	start := c.Cursor()
	tok, err := c.Consume(KindIdent)
	if err != nil {
		return nil, err
	}
	ident := c.Text(tok)
	fn, err := functionExpression(c)
	if err != nil {
		return nil, err
	}
	return NewLetNode(ident, nil, fn, NewRange(start, c.Cursor())), nil
}

// functionDeclaration parses `fn name(...) -> ... { ... }` (spec.md §4.4;
// ground truth: witch-compiler/src/parser/statement.rs
// `function_declaration`).
func functionDeclaration(c *Cursor) (string, Ast, error) {
	if _, err := c.Consume(KindKwFn); err != nil {
		return "", nil, err
	}
	tok, err := c.Consume(KindIdent)
	if err != nil {
		return "", nil, err
	}
	name := c.Text(tok)
	fn, err := functionExpression(c)
	if err != nil {
		return "", nil, err
	}
	return name, fn, nil
}

// ifElse parses `if predicate { then } (else { else })?` (spec.md §4.4;
// ground truth: witch-compiler/src/parser/statement.rs `if_else`).
func ifElse(c *Cursor) (Ast, error) {
	start := c.Cursor()
	if _, err := c.Consume(KindKwIf); err != nil {
		return nil, err
	}
	predicate, err := expression(c)
	if err != nil {
		return nil, err
	}
	if _, err := c.Consume(KindLBrace); err != nil {
		return nil, err
	}
	then, err := statement(c)
	if err != nil {
		return nil, err
	}
	if _, err := c.Consume(KindRBrace); err != nil {
		return nil, err
	}

	var els Ast
	if c.At(KindKwElse) {
		if _, err := c.Consume(KindKwElse); err != nil {
			return nil, err
		}
		if _, err := c.Consume(KindLBrace); err != nil {
			return nil, err
		}
		els, err = statement(c)
		if err != nil {
			return nil, err
		}
		if _, err := c.Consume(KindRBrace); err != nil {
			return nil, err
		}
	}

	return NewIfNode(predicate, then, els, NewRange(start, c.Cursor())), nil
}

// annotation parses `@name; statement`, the one seed annotation form
// spec.md carries forward (argument-bearing annotations like `@get "/"` are
// a documented Non-goal).
func annotation(c *Cursor) (Ast, error) {
	start := c.Cursor()
	if _, err := c.Consume(KindAt); err != nil {
		return nil, err
	}
	tok, err := c.Consume(KindIdent)
	if err != nil {
		return nil, err
	}
	name := c.Text(tok)
	if _, err := c.Consume(KindSemicolon); err != nil {
		return nil, err
	}
	rest, err := statement(c)
	if err != nil {
		return nil, err
	}
	// The annotation wraps only the head of the following statement list;
	// the remaining statements are consed after it.
	stmt, tail := rest, Ast(NewNopNode(NewRange(c.Cursor(), c.Cursor())))
	if s, ok := rest.(*StatementNode); ok {
		stmt, tail = s.Stmt, s.Rest
	}
	rg := NewRange(start, c.Cursor())
	return NewStatementNode(NewAnnotationNode(name, stmt, rg), tail, rg), nil
}

// Parse tokenizes and parses a complete program, returning the root of the
// statement cons-list (spec.md §4.4's top-level entry point).
func Parse(src []byte) (Ast, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	c := NewCursor(src, tokens)
	return statement(c)
}
