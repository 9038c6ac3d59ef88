package witch

import "fmt"

// Kind enumerates the lexical categories recognized by the lexer (spec.md
// §3 "Token", §4.1). Its String() is used both in diagnostics and by tests
// asserting on the token stream.
type Kind int

const (
	KindEOF Kind = iota

	// literals
	KindInt
	KindFloat
	KindString
	KindCString
	KindIdent

	// punctuation
	KindLParen
	KindRParen
	KindLBrace
	KindRBrace
	KindLSquare
	KindRSquare
	KindComma
	KindColon
	KindSemicolon
	KindDot
	KindDotDotDot
	KindArrow
	KindAt

	// operators
	KindEq
	KindEqq
	KindNeq
	KindLAngle
	KindRAngle
	KindLte
	KindGte
	KindPlus
	KindMinus
	KindTimes
	KindSlash
	KindPercent
	KindPow
	KindAnd
	KindOr
	KindBang

	// keywords
	KindKwFn
	KindKwIf
	KindKwElse
	KindKwReturn
	KindKwImport
	KindKwStruct
	KindKwEnum
	KindKwInterface
	KindKwNew
	KindKwWhere
)

var kindNames = map[Kind]string{
	KindEOF:         "eof",
	KindInt:         "int",
	KindFloat:       "float",
	KindString:      "string",
	KindCString:     "cstring",
	KindIdent:       "ident",
	KindLParen:      "(",
	KindRParen:      ")",
	KindLBrace:      "{",
	KindRBrace:      "}",
	KindLSquare:     "[",
	KindRSquare:     "]",
	KindComma:       ",",
	KindColon:       ":",
	KindSemicolon:   ";",
	KindDot:         ".",
	KindDotDotDot:   "...",
	KindArrow:       "->",
	KindAt:          "@",
	KindEq:          "=",
	KindEqq:         "==",
	KindNeq:         "!=",
	KindLAngle:      "<",
	KindRAngle:      ">",
	KindLte:         "<=",
	KindGte:         ">=",
	KindPlus:        "+",
	KindMinus:       "-",
	KindTimes:       "*",
	KindSlash:       "/",
	KindPercent:     "%",
	KindPow:         "**",
	KindAnd:         "&&",
	KindOr:          "||",
	KindBang:        "!",
	KindKwFn:        "fn",
	KindKwIf:        "if",
	KindKwElse:      "else",
	KindKwReturn:    "return",
	KindKwImport:    "import",
	KindKwStruct:    "struct",
	KindKwEnum:      "enum",
	KindKwInterface: "interface",
	KindKwNew:       "new",
	KindKwWhere:     "where",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var keywords = map[string]Kind{
	"fn":        KindKwFn,
	"if":        KindKwIf,
	"else":      KindKwElse,
	"return":    KindKwReturn,
	"import":    KindKwImport,
	"struct":    KindKwStruct,
	"enum":      KindKwEnum,
	"interface": KindKwInterface,
	"new":       KindKwNew,
	"where":     KindKwWhere,
}

// Token is a (kind, source span) pair, per spec.md §3. The lexeme itself is
// never copied onto the token; callers borrow it from the source buffer via
// Cursor.Text, keeping tokens cheap to create and move around.
type Token struct {
	Kind Kind
	Span Range
}

func (t Token) String() string {
	return fmt.Sprintf("%s@%s", t.Kind, t.Span)
}
