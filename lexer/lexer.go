package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/plcfront/cfcc/ast"
	"github.com/plcfront/cfcc/token"
)

type Lexer struct {
	input        string
	position     int  // byte offset of curr
	readPosition int  // byte offset after curr
	curr         rune // current rune under examination
	ids          ast.IDProvider
	locs         token.LocationFactory
}

// New lexes input with a fresh id provider. Tests and one-off expression
// parsing use it; a compilation run shares its provider via LexWithIDs.
func New(file, input string) *Lexer {
	return LexWithIDs(input, ast.NewIDProvider(), token.NewLocationFactory(file))
}

// LexWithIDs returns a lexer whose parser draws node ids from ids and
// attributes locations through locs.
func LexWithIDs(input string, ids ast.IDProvider, locs token.LocationFactory) *Lexer {
	l := &Lexer{input: input, ids: ids, locs: locs}
	l.readRune()
	return l
}

func (l *Lexer) IDs() ast.IDProvider {
	return l.ids
}

func (l *Lexer) Locations() token.LocationFactory {
	return l.locs
}

func (l *Lexer) NextToken() token.Token {
	l.skipTrivia()

	start := l.position
	var typ token.TokenType
	var literal string

	switch l.curr {
	case ':':
		if l.peekRune() == '=' {
			l.readRune()
			typ = token.ASSIGN
		} else {
			typ = token.COLON
		}
	case '=':
		if l.peekRune() == '>' {
			l.readRune()
			typ = token.OUTPUT_ASSIGN
		} else {
			typ = token.EQL
		}
	case '<':
		switch l.peekRune() {
		case '>':
			l.readRune()
			typ = token.NEQ
		case '=':
			l.readRune()
			typ = token.LEQ
		default:
			typ = token.LSS
		}
	case '>':
		if l.peekRune() == '=' {
			l.readRune()
			typ = token.GEQ
		} else {
			typ = token.GTR
		}
	case '*':
		if l.peekRune() == '*' {
			l.readRune()
			typ = token.POWER
		} else {
			typ = token.STAR
		}
	case '.':
		if l.peekRune() == '.' {
			l.readRune()
			typ = token.RANGE
		} else {
			typ = token.PERIOD
		}
	case '+':
		typ = token.PLUS
	case '-':
		typ = token.MINUS
	case '/':
		typ = token.SLASH
	case '&':
		typ = token.AMP
	case ',':
		typ = token.COMMA
	case ';':
		typ = token.SEMI
	case '^':
		typ = token.CARET
	case '#':
		typ = token.HASH
	case '(':
		typ = token.LPAREN
	case ')':
		typ = token.RPAREN
	case '[':
		typ = token.LBRACK
	case ']':
		typ = token.RBRACK
	case '\'':
		return l.readString('\'', token.STRING, start)
	case '"':
		return l.readString('"', token.WSTRING, start)
	case '%':
		return l.readAddress(start)
	case 0:
		if l.position >= len(l.input) {
			return l.token(token.EOF, "", start)
		}
		typ = token.ILLEGAL
	default:
		if isLetter(l.curr) {
			literal = l.readIdentifier()
			if l.curr == '#' && isTimePrefix(literal) {
				return l.readTime(start)
			}
			return l.token(token.LookupIdent(literal), literal, start)
		} else if isDigit(l.curr) {
			return l.readNumber(start)
		}
		typ = token.ILLEGAL
	}

	l.readRune()
	return l.token(typ, l.input[start:l.position], start)
}

func (l *Lexer) token(typ token.TokenType, literal string, start int) token.Token {
	return token.Token{Type: typ, Literal: literal, Loc: l.locs.Range(start, l.position)}
}

// skipTrivia skips whitespace and the three comment forms (* *), /* */ and //.
// An unterminated block comment runs to the end of input.
func (l *Lexer) skipTrivia() {
	for {
		switch {
		case l.curr == ' ' || l.curr == '\t' || l.curr == '\n' || l.curr == '\r':
			l.readRune()
		case l.curr == '(' && l.peekRune() == '*':
			l.skipBlockComment("*)")
		case l.curr == '/' && l.peekRune() == '*':
			l.skipBlockComment("*/")
		case l.curr == '/' && l.peekRune() == '/':
			for l.curr != '\n' && l.position < len(l.input) {
				l.readRune()
			}
		default:
			return
		}
	}
}

func (l *Lexer) skipBlockComment(end string) {
	idx := strings.Index(l.input[l.readPosition+1:], end)
	if idx < 0 {
		l.readPosition = len(l.input)
	} else {
		l.readPosition = l.readPosition + 1 + idx + len(end)
	}
	l.readRune()
}

func (l *Lexer) readRune() {
	l.position = l.readPosition
	if l.readPosition >= len(l.input) {
		l.curr = 0
		l.readPosition = len(l.input) + 1
		l.position = len(l.input)
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.curr = r
	l.readPosition += w
}

func (l *Lexer) peekRune() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.curr) || isDigit(l.curr) {
		l.readRune()
	}
	return l.input[position:l.position]
}

// readNumber reads decimal, based (16#FF) and real (1.5E3) literals.
// Underscores are digit separators.
func (l *Lexer) readNumber(start int) token.Token {
	for isDigit(l.curr) || l.curr == '_' {
		l.readRune()
	}
	if l.curr == '#' {
		l.readRune()
		for isHexDigit(l.curr) || l.curr == '_' {
			l.readRune()
		}
		return l.token(token.INT, l.input[start:l.position], start)
	}

	typ := token.INT
	// "1..5" is a range, not a real
	if l.curr == '.' && isDigit(l.peekRune()) {
		typ = token.REAL
		l.readRune()
		for isDigit(l.curr) || l.curr == '_' {
			l.readRune()
		}
	}
	if l.curr == 'e' || l.curr == 'E' {
		next := l.peekRune()
		if isDigit(next) || next == '+' || next == '-' {
			typ = token.REAL
			l.readRune()
			if l.curr == '+' || l.curr == '-' {
				l.readRune()
			}
			for isDigit(l.curr) {
				l.readRune()
			}
		}
	}
	return l.token(typ, l.input[start:l.position], start)
}

func (l *Lexer) readString(quote rune, typ token.TokenType, start int) token.Token {
	l.readRune()
	for l.curr != quote {
		if l.position >= len(l.input) {
			return l.token(token.ILLEGAL, l.input[start:l.position], start)
		}
		if l.curr == '$' {
			// $' and $$ escapes
			l.readRune()
		}
		l.readRune()
	}
	l.readRune()
	return l.token(typ, l.input[start:l.position], start)
}

// readAddress reads %IX1.2 style hardware addresses and %X3 direct bit
// access suffixes. A direct access only follows a period.
func (l *Lexer) readAddress(start int) token.Token {
	typ := token.HARDWARE
	if start > 0 && l.input[start-1] == '.' {
		typ = token.DIRECT
	}
	l.readRune()
	for isLetter(l.curr) || isDigit(l.curr) || l.curr == '*' {
		l.readRune()
	}
	if typ == token.HARDWARE {
		for l.curr == '.' && isDigit(l.peekRune()) {
			l.readRune()
			for isDigit(l.curr) {
				l.readRune()
			}
		}
	}
	return l.token(typ, l.input[start:l.position], start)
}

func (l *Lexer) readTime(start int) token.Token {
	l.readRune() // '#'
	for isLetter(l.curr) || isDigit(l.curr) || l.curr == '.' || l.curr == ':' || l.curr == '-' {
		l.readRune()
	}
	return l.token(token.TIME, l.input[start:l.position], start)
}

var timePrefixes = map[string]struct{}{
	"T": {}, "TIME": {}, "LT": {}, "LTIME": {},
	"D": {}, "DATE": {}, "LD": {}, "LDATE": {},
	"TOD": {}, "TIME_OF_DAY": {}, "LTOD": {},
	"DT": {}, "DATE_AND_TIME": {}, "LDT": {},
}

func isTimePrefix(ident string) bool {
	_, ok := timePrefixes[strings.ToUpper(ident)]
	return ok
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || 'a' <= ch && ch <= 'f' || 'A' <= ch && ch <= 'F'
}
