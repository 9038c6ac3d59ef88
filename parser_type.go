package witch

// typeLiteral parses a type reference: a primitive or named type, optionally
// followed by generic arguments (`Name[T, U]`), or a list type (`[T]`)
// (spec.md §4.5). This mirrors the shape witch-parser/src/expression.rs
// expects from its `r#type::type_literal` collaborator: a single
// production callable from an expression's return-type position, a
// function arg's annotation, or a `let` binding's annotation.
func typeLiteral(c *Cursor) (Type, error) {
	switch c.Peek() {
	case KindLSquare:
		if _, err := c.Consume(KindLSquare); err != nil {
			return Type{}, err
		}
		inner, err := typeLiteral(c)
		if err != nil {
			return Type{}, err
		}
		if _, err := c.Consume(KindRSquare); err != nil {
			return Type{}, err
		}
		return ListOf(inner), nil
	case KindIdent, KindKwStruct, KindKwEnum, KindKwInterface:
		tok := c.peekToken()
		c.pos++
		name := c.Text(tok)

		var args []Type
		if c.At(KindLSquare) {
			if _, err := c.Consume(KindLSquare); err != nil {
				return Type{}, err
			}
			for {
				arg, err := typeLiteral(c)
				if err != nil {
					return Type{}, err
				}
				args = append(args, arg)
				if !c.At(KindComma) {
					break
				}
				if _, err := c.Consume(KindComma); err != nil {
					return Type{}, err
				}
			}
			if _, err := c.Consume(KindRSquare); err != nil {
				return Type{}, err
			}
		}
		return FromStr(name, args), nil
	default:
		tok := c.peekToken()
		return Type{}, UnexpectedToken{
			Expected: []Kind{KindIdent, KindLSquare},
			Got:      tok.Kind,
			Span:     tok.Span,
		}
	}
}

// properties parses zero or more `name: type` pairs separated by sep,
// stopping as soon as the next token isn't Ident (spec.md §4.5 struct
// fields / interface properties / `where` constraints all share this
// shape, the way witch-parser/src/expression.rs's `where_constraints`
// delegates to a shared `properties` collaborator).
func properties(c *Cursor, sep Kind) (map[string]Type, []string, error) {
	out := map[string]Type{}
	var order []string
	for c.At(KindIdent) {
		tok, err := c.Consume(KindIdent)
		if err != nil {
			return nil, nil, err
		}
		name := c.Text(tok)
		if _, err := c.Consume(KindColon); err != nil {
			return nil, nil, err
		}
		ty, err := typeLiteral(c)
		if err != nil {
			return nil, nil, err
		}
		out[name] = ty
		order = append(order, name)
		if !c.At(sep) {
			break
		}
		if _, err := c.Consume(sep); err != nil {
			return nil, nil, err
		}
	}
	return out, order, nil
}

// whereConstraints parses an optional `where name: type, ...` suffix on a
// generic declaration and returns only the constraints it lists; callers
// default the type variables it does not name to Any (spec.md §4.5; ground
// truth: witch-parser/src/expression.rs `where_constraints`).
func whereConstraints(c *Cursor) (map[string]Type, error) {
	if !c.At(KindKwWhere) {
		return map[string]Type{}, nil
	}
	if _, err := c.Consume(KindKwWhere); err != nil {
		return nil, err
	}
	constraints, _, err := properties(c, KindComma)
	return constraints, err
}

// genericParamList parses an optional `[T, U]` generic parameter list, the
// declaration-site counterpart of typeLiteral's generic-argument parsing.
func genericParamList(c *Cursor) ([]string, error) {
	if !c.At(KindLSquare) {
		return nil, nil
	}
	if _, err := c.Consume(KindLSquare); err != nil {
		return nil, err
	}
	var names []string
	for c.At(KindIdent) {
		tok, err := c.Consume(KindIdent)
		if err != nil {
			return nil, err
		}
		names = append(names, c.Text(tok))
		if !c.At(KindComma) {
			break
		}
		if _, err := c.Consume(KindComma); err != nil {
			return nil, err
		}
	}
	if _, err := c.Consume(KindRSquare); err != nil {
		return nil, err
	}
	return names, nil
}

// structDeclaration parses `struct Name [T, U] where ... { field: type, ... }`
// and lowers it to a LetNode binding Name to a TypeDeclNode, following
// statement.rs's treatment of struct/enum/interface declarations as
// statement-level productions distinct from the expression grammar.
func structDeclaration(c *Cursor) (Ast, error) {
	start := c.Cursor()
	if _, err := c.Consume(KindKwStruct); err != nil {
		return nil, err
	}
	nameTok, err := c.Consume(KindIdent)
	if err != nil {
		return nil, err
	}
	name := c.Text(nameTok)

	generics, err := genericParamList(c)
	if err != nil {
		return nil, err
	}
	constraints, err := whereConstraints(c)
	if err != nil {
		return nil, err
	}

	if _, err := c.Consume(KindLBrace); err != nil {
		return nil, err
	}
	fieldMap, order, err := properties(c, KindComma)
	if err != nil {
		return nil, err
	}
	if _, err := c.Consume(KindRBrace); err != nil {
		return nil, err
	}

	fields := make([]StructField, 0, len(order))
	for _, fname := range order {
		fields = append(fields, StructField{Name: fname, Type: fieldMap[fname]})
	}

	generic := map[string]Type{}
	for _, g := range generics {
		if ty, ok := constraints[g]; ok {
			generic[g] = ty
		} else {
			generic[g] = Any
		}
	}

	structName := name
	decl := Type{
		Tag:          TypeStruct,
		StructName:   &structName,
		Fields:       fields,
		Methods:      map[string]StructMethod{},
		GenericOrder: generics,
		Generics:     generic,
	}

	end := c.Cursor()
	rg := NewRange(start, end)
	return NewLetNode(name, nil, NewTypeDeclNode(decl, rg), rg), nil
}

// interfaceDeclaration parses `interface Name { prop: type, ... }`, lowered
// the same way structDeclaration is. Property types go through typeLiteral,
// which has no function-type syntax, and no generic list is parsed.
func interfaceDeclaration(c *Cursor) (Ast, error) {
	start := c.Cursor()
	if _, err := c.Consume(KindKwInterface); err != nil {
		return nil, err
	}
	nameTok, err := c.Consume(KindIdent)
	if err != nil {
		return nil, err
	}
	name := c.Text(nameTok)

	if _, err := c.Consume(KindLBrace); err != nil {
		return nil, err
	}
	props, _, err := properties(c, KindComma)
	if err != nil {
		return nil, err
	}
	if _, err := c.Consume(KindRBrace); err != nil {
		return nil, err
	}

	decl := Type{Tag: TypeInterface, InterfaceName: name, Properties: props}
	end := c.Cursor()
	rg := NewRange(start, end)
	return NewLetNode(name, nil, NewTypeDeclNode(decl, rg), rg), nil
}

// enumDeclaration parses `enum Name { Variant, Variant(type, ...), ... }`,
// assigning each variant a dense, zero-based discriminant in declaration
// order (spec.md §9 "Supplemented features"; ground truth:
// witch-parser/src/types.rs's Enum model).
func enumDeclaration(c *Cursor) (Ast, error) {
	start := c.Cursor()
	if _, err := c.Consume(KindKwEnum); err != nil {
		return nil, err
	}
	nameTok, err := c.Consume(KindIdent)
	if err != nil {
		return nil, err
	}
	name := c.Text(nameTok)

	if _, err := c.Consume(KindLBrace); err != nil {
		return nil, err
	}

	var variants []EnumVariant
	discriminant := 0
	for c.At(KindIdent) {
		vTok, err := c.Consume(KindIdent)
		if err != nil {
			return nil, err
		}
		variant := EnumVariant{Name: c.Text(vTok), Discriminant: discriminant}
		discriminant++

		if c.At(KindLParen) {
			if _, err := c.Consume(KindLParen); err != nil {
				return nil, err
			}
			for !c.At(KindRParen) {
				ty, err := typeLiteral(c)
				if err != nil {
					return nil, err
				}
				variant.Types = append(variant.Types, ty)
				if c.At(KindComma) {
					if _, err := c.Consume(KindComma); err != nil {
						return nil, err
					}
				}
			}
			if _, err := c.Consume(KindRParen); err != nil {
				return nil, err
			}
		}

		variants = append(variants, variant)
		if !c.At(KindComma) {
			break
		}
		if _, err := c.Consume(KindComma); err != nil {
			return nil, err
		}
	}

	if _, err := c.Consume(KindRBrace); err != nil {
		return nil, err
	}

	decl := Type{Tag: TypeEnum, Variants: variants}
	end := c.Cursor()
	rg := NewRange(start, end)
	return NewLetNode(name, nil, NewTypeDeclNode(decl, rg), rg), nil
}
