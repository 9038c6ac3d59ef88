package witch

// Cursor walks a pre-tokenized input, offering the primitives spec.md §4.2
// names: peek/at/consume/text plus fork/restore-based speculation. It plays
// the same role the teacher's BaseParser plays for a rune stream
// (base_parser.go in the teacher tree), adapted to walk Tokens instead of
// runes, since witch's grammar is token-driven rather than character-driven.
type Cursor struct {
	tokens []Token
	pos    int
	src    []byte
}

func NewCursor(src []byte, tokens []Token) *Cursor {
	return &Cursor{tokens: tokens, pos: 0, src: src}
}

// Fork takes a snapshot of the cursor's position so a sub-parser may
// speculate without committing. The snapshot is a cheap value copy: Cursor
// carries no owned mutable state beyond an index into the shared token
// slice.
func (c *Cursor) Fork() Cursor {
	return *c
}

// Restore rewinds the cursor to a previously taken fork. A failed
// speculative parse must call Restore (or simply discard its own local
// Cursor value and keep using the original) so it never leaves the primary
// cursor moved - the invariant spec.md §4.2 requires.
func (c *Cursor) Restore(saved Cursor) {
	*c = saved
}

func (c *Cursor) peekToken() Token {
	if c.pos >= len(c.tokens) {
		return Token{Kind: KindEOF}
	}
	return c.tokens[c.pos]
}

// Peek returns the kind of the next token without consuming it.
func (c *Cursor) Peek() Kind {
	return c.peekToken().Kind
}

// PeekAt returns the kind of the token `offset` positions ahead, without
// consuming anything. PeekAt(0) is equivalent to Peek.
func (c *Cursor) PeekAt(offset int) Kind {
	idx := c.pos + offset
	if idx < 0 || idx >= len(c.tokens) {
		return KindEOF
	}
	return c.tokens[idx].Kind
}

// At reports whether the next token has the given kind.
func (c *Cursor) At(kind Kind) bool {
	return c.Peek() == kind
}

// Consume asserts the next token has kind `kind`, advances past it, and
// returns it. It fails with UnexpectedToken otherwise.
func (c *Cursor) Consume(kind Kind) (Token, error) {
	tok := c.peekToken()
	if tok.Kind != kind {
		return Token{}, UnexpectedToken{
			Expected: []Kind{kind},
			Got:      tok.Kind,
			Span:     tok.Span,
		}
	}
	c.pos++
	return tok, nil
}

// Text borrows the lexeme backing `token` from the source buffer.
func (c *Cursor) Text(token Token) string {
	return token.Span.Str(c.src)
}

// Cursor reports the current byte offset, the start of the next token's
// span (or the end of input at EOF). Productions use this to stamp the
// `start`/`span` fields AST nodes carry.
func (c *Cursor) Cursor() int {
	if c.pos < len(c.tokens) {
		return c.tokens[c.pos].Span.Start
	}
	if len(c.tokens) == 0 {
		return 0
	}
	return c.tokens[len(c.tokens)-1].Span.End
}

// ParseFn is the shape every grammar production in parser_expr.go,
// parser_stmt.go, and parser_type.go has: given a cursor, produce a value of
// type T or an error, advancing the cursor only on success.
type ParseFn[T any] func(c *Cursor) (T, error)

// Either tries each alternative against a fresh fork; the first that
// succeeds wins and its fork is committed back onto c. If every alternative
// fails, Either returns AmbiguousParse wrapping the last attempt's error.
// The grammar is written so the accepting prefixes are disjoint enough that
// trying alternatives in order picks the one the source actually means
// (spec.md §4.2's invariant).
func Either[T any](c *Cursor, alternatives ...ParseFn[T]) (T, error) {
	var (
		zero    T
		lastErr error
	)
	start := c.Cursor()
	for _, alt := range alternatives {
		fork := c.Fork()
		val, err := alt(&fork)
		if err == nil {
			c.Restore(fork)
			return val, nil
		}
		lastErr = err
	}
	return zero, AmbiguousParse{Last: lastErr, Span: NewRange(start, c.Cursor())}
}

// Maybe runs f on a fork; on success it commits the fork back onto c and
// returns the value. On failure it discards the fork, leaving c untouched,
// and returns the zero value with ok=false.
func Maybe[T any](c *Cursor, f ParseFn[T]) (T, bool) {
	fork := c.Fork()
	val, err := f(&fork)
	if err != nil {
		var zero T
		return zero, false
	}
	c.Restore(fork)
	return val, true
}

// Repeating collects zero or more tokens of `kind`, optionally separated by
// `sep`, stopping as soon as `kind` is no longer next.
func (c *Cursor) Repeating(kind Kind, sep *Kind) ([]Token, error) {
	var out []Token
	for c.At(kind) {
		tok, err := c.Consume(kind)
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if sep != nil {
			if !c.At(*sep) {
				break
			}
			if _, err := c.Consume(*sep); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
