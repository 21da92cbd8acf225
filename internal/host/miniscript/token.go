// Package miniscript is a small, deliberately minimal tree-walking
// parser/compiler/VM implementing host.Parser/host.Compiler/agent.VM:
// enough of ECMAScript's statement and expression grammar to drive
// eval() and the CLI's eval command, not a full bytecode engine
// (opcode dispatch is explicitly out of this core's scope). Token
// naming and the lexer's scan-loop shape are grounded on the teacher's
// internal/lexer/token_type.go and lexer.go.
package miniscript

// TokenType names one lexical token kind, grouped the way the
// teacher's token_type.go groups DWScript's.
type TokenType int

const (
	ILLEGAL TokenType = iota
	EOF

	IDENT
	NUMBER
	STRING

	// Keywords
	VAR
	LET
	CONST
	FUNCTION
	RETURN
	IF
	ELSE
	WHILE
	FOR
	IN
	OF
	BREAK
	CONTINUE
	TRUE
	FALSE
	NULL
	UNDEFINED
	NEW
	TYPEOF
	THIS

	// Punctuation and operators
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
	SEMICOLON
	COMMA
	DOT
	COLON
	QUESTION
	ARROW

	ASSIGN
	PLUS_ASSIGN
	MINUS_ASSIGN

	PLUS
	MINUS
	STAR
	SLASH
	PERCENT

	EQ
	NEQ
	SEQ
	SNEQ
	LT
	LTE
	GT
	GTE

	AND
	OR
	NOT

	INC
	DEC

	SPREAD
)

var keywords = map[string]TokenType{
	"var": VAR, "let": LET, "const": CONST,
	"function": FUNCTION, "return": RETURN,
	"if": IF, "else": ELSE, "while": WHILE, "for": FOR, "in": IN, "of": OF,
	"break": BREAK, "continue": CONTINUE,
	"true": TRUE, "false": FALSE, "null": NULL, "undefined": UNDEFINED,
	"new": NEW, "typeof": TYPEOF, "this": THIS,
}

// Token is one scanned lexeme with its source position, used to render
// readable SyntaxError messages.
type Token struct {
	Type TokenType
	Lit  string
	Pos  int
	Line int
}
