package token

import (
	"fmt"
	"strconv"
	"strings"
)

type TokenType int

const (
	ILLEGAL TokenType = iota
	EOF

	literal_beg
	// Identifiers + literals
	IDENT    // counter, fbInst, x
	INT      // 42, 16#FF, 2#1010
	REAL     // 1.5, 1.0E3
	STRING   // 'abc'
	WSTRING  // "abc"
	TIME     // T#5s, TOD#12:00:00, D#2024-01-01
	HARDWARE // %IX1.2
	DIRECT   // %X3 after a period
	literal_end

	operator_beg
	// Operators and delimiters
	ASSIGN        // :=
	OUTPUT_ASSIGN // =>

	PLUS  // +
	MINUS // -
	STAR  // *
	SLASH // /
	POWER // **
	AMP   // &

	LPAREN // (
	LBRACK // [
	COMMA  // ,
	PERIOD // .
	RANGE  // ..
	COLON  // :
	SEMI   // ;
	CARET  // ^
	HASH   // #

	RPAREN // )
	RBRACK // ]
	operator_end

	comparison_beg
	EQL // =
	LSS // <
	GTR // >
	NEQ // <>
	LEQ // <=
	GEQ // >=
	comparison_end

	keyword_beg
	AND
	OR
	XOR
	NOT
	MOD
	TRUE
	FALSE

	FUNCTION
	END_FUNCTION
	FUNCTION_BLOCK
	END_FUNCTION_BLOCK
	PROGRAM
	END_PROGRAM

	VAR
	VAR_INPUT
	VAR_OUTPUT
	VAR_IN_OUT
	VAR_TEMP
	VAR_GLOBAL
	VAR_EXTERNAL
	END_VAR
	CONSTANT
	RETAIN

	ARRAY
	OF
	keyword_end
)

var tokens = [...]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	IDENT:    "IDENT",
	INT:      "INT",
	REAL:     "REAL",
	STRING:   "STRING",
	WSTRING:  "WSTRING",
	TIME:     "TIME",
	HARDWARE: "HARDWARE",
	DIRECT:   "DIRECT",

	ASSIGN:        ":=",
	OUTPUT_ASSIGN: "=>",

	PLUS:  "+",
	MINUS: "-",
	STAR:  "*",
	SLASH: "/",
	POWER: "**",
	AMP:   "&",

	LPAREN: "(",
	LBRACK: "[",
	COMMA:  ",",
	PERIOD: ".",
	RANGE:  "..",
	COLON:  ":",
	SEMI:   ";",
	CARET:  "^",
	HASH:   "#",

	RPAREN: ")",
	RBRACK: "]",

	EQL: "=",
	LSS: "<",
	GTR: ">",
	NEQ: "<>",
	LEQ: "<=",
	GEQ: ">=",

	AND:   "AND",
	OR:    "OR",
	XOR:   "XOR",
	NOT:   "NOT",
	MOD:   "MOD",
	TRUE:  "TRUE",
	FALSE: "FALSE",

	FUNCTION:           "FUNCTION",
	END_FUNCTION:       "END_FUNCTION",
	FUNCTION_BLOCK:     "FUNCTION_BLOCK",
	END_FUNCTION_BLOCK: "END_FUNCTION_BLOCK",
	PROGRAM:            "PROGRAM",
	END_PROGRAM:        "END_PROGRAM",

	VAR:          "VAR",
	VAR_INPUT:    "VAR_INPUT",
	VAR_OUTPUT:   "VAR_OUTPUT",
	VAR_IN_OUT:   "VAR_IN_OUT",
	VAR_TEMP:     "VAR_TEMP",
	VAR_GLOBAL:   "VAR_GLOBAL",
	VAR_EXTERNAL: "VAR_EXTERNAL",
	END_VAR:      "END_VAR",
	CONSTANT:     "CONSTANT",
	RETAIN:       "RETAIN",

	ARRAY: "ARRAY",
	OF:    "OF",
}

var keywords map[string]TokenType

func init() {
	keywords = make(map[string]TokenType, keyword_end-keyword_beg)
	for i := keyword_beg + 1; i < keyword_end; i++ {
		keywords[tokens[i]] = i
	}
}

// LookupIdent returns the keyword type for ident, or IDENT.
// IEC keywords are case insensitive.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToUpper(ident)]; ok {
		return tok
	}
	return IDENT
}

type Token struct {
	Type    TokenType
	Literal string
	Loc     Location
}

func (t Token) IsLiteral() bool {
	return literal_beg < t.Type && t.Type < literal_end
}

func (t Token) IsOperator() bool {
	return operator_beg < t.Type && t.Type < operator_end
}

func (t Token) IsComparison() bool {
	return comparison_beg < t.Type && comparison_end > t.Type
}

func (t Token) IsKeyword() bool {
	return keyword_beg < t.Type && t.Type < keyword_end
}

func (t Token) String() string {
	if t.Type == IDENT || t.IsLiteral() {
		return fmt.Sprintf("%s(%s)", t.Type, t.Literal)
	}
	return t.Type.String()
}

func (tokenType TokenType) String() string {
	s := ""
	if 0 <= tokenType && tokenType < TokenType(len(tokens)) {
		s = tokens[tokenType]
	}

	if s == "" {
		s = "token(" + strconv.Itoa(int(tokenType)) + ")"
	}

	return s
}

// CompileError is a lexer or parser error anchored at a token.
type CompileError struct {
	Token Token
	Msg   string
}

func (ce *CompileError) Error() string {
	return fmt.Sprintf("%s: %s", ce.Token.Loc, ce.Msg)
}
