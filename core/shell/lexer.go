package shell

import (
	"fmt"
	"strings"
	"unicode"
)

// LexError is returned when the input can't be split into tokens.
type LexError struct {
	Pos Position
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// Lexer splits shell input into tokens.
//
// The whole input is held in memory; positions are counted in runes so
// columns line up with what a user sees in a terminal.
type Lexer struct {
	input  []rune
	offset int
	line   int
	column int
}

// NewLexer creates a lexer over the input text.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  []rune(input),
		line:   1,
		column: 1,
	}
}

// Tokenize splits the input into tokens. On success the last token is always
// the only EOF token.
func Tokenize(input string) ([]Token, error) {
	return NewLexer(input).Tokenize()
}

// Tokenize consumes the rest of the input.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token

	for {
		l.skipBlanks()
		if l.eof() {
			break
		}

		if l.peek() == '#' {
			l.skipComment()
			continue
		}

		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}

	return append(tokens, Token{Kind: EOF, Pos: l.position()}), nil
}

func (l *Lexer) next() (Token, error) {
	pos := l.position()
	ch := l.peek()

	// op emits a fixed operator token after consuming n runes.
	op := func(kind TokenKind, n int) (Token, error) {
		start := l.offset
		for i := 0; i < n; i++ {
			l.advance()
		}
		return Token{Kind: kind, Value: string(l.input[start:l.offset]), Pos: pos}, nil
	}

	switch ch {
	case '\n':
		return op(Newline, 1)
	case ';':
		if l.peekAt(1) == ';' {
			return op(DoubleSemicolon, 2)
		}
		return op(Semicolon, 1)
	case '|':
		if l.peekAt(1) == '|' {
			return op(Or, 2)
		}
		return op(Pipe, 1)
	case '&':
		switch l.peekAt(1) {
		case '&':
			return op(And, 2)
		case '>':
			return op(AndGreat, 2)
		}
		return op(Ampersand, 1)
	case '>':
		switch l.peekAt(1) {
		case '>':
			return op(GreatGreat, 2)
		case '&':
			return op(GreatAnd, 2)
		case '|':
			return op(GreatPipe, 2)
		}
		return op(Great, 1)
	case '<':
		switch l.peekAt(1) {
		case '<':
			if l.peekAt(2) == '-' {
				return op(LessLessDash, 3)
			}
			return op(LessLess, 2)
		case '&':
			return op(LessAnd, 2)
		case '>':
			return op(LessGreat, 2)
		}
		return op(Less, 1)
	case '!':
		return op(Not, 1)
	case '(':
		return op(LeftParen, 1)
	case ')':
		return op(RightParen, 1)
	case '{':
		return op(LeftBrace, 1)
	case '}':
		return op(RightBrace, 1)
	case '"', '\'':
		value, err := l.readQuoted()
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: WordToken, Value: value, Pos: pos}, nil
	case '$':
		return l.readDollarWord(pos)
	}

	switch {
	case ch == '-' && l.standaloneDash():
		return op(Dash, 1)
	case isDigit(ch):
		return l.readNumberOrWord(pos)
	case isWordStart(ch):
		return l.readWord(pos)
	}

	return Token{}, &LexError{Pos: pos, Msg: fmt.Sprintf("unexpected character %q", ch)}
}

// readWord reads a bare word, an assignment-word or a reserved word.
func (l *Lexer) readWord(pos Position) (Token, error) {
	var sb strings.Builder
	if err := l.readWordChars(&sb); err != nil {
		return Token{}, err
	}

	if l.peek() == '=' {
		return l.readAssignment(pos, &sb)
	}

	word := sb.String()
	if kind, ok := keywords[word]; ok {
		return Token{Kind: kind, Value: word, Pos: pos}, nil
	}
	return Token{Kind: WordToken, Value: word, Pos: pos}, nil
}

// readNumberOrWord reads a run of digits. Digits directly followed by a
// redirection operator are a file descriptor prefix, anything else is read
// as a word.
func (l *Lexer) readNumberOrWord(pos Position) (Token, error) {
	var sb strings.Builder
	for !l.eof() && isDigit(l.peek()) {
		sb.WriteRune(l.advance())
	}

	if next := l.peek(); next == '>' || next == '<' {
		return Token{Kind: Number, Value: sb.String(), Pos: pos}, nil
	}

	if err := l.readWordChars(&sb); err != nil {
		return Token{}, err
	}
	if l.peek() == '=' {
		return l.readAssignment(pos, &sb)
	}
	return Token{Kind: WordToken, Value: sb.String(), Pos: pos}, nil
}

// readDollarWord reads a word starting with a variable reference. The
// reference is kept verbatim, expansion happens at execution time.
func (l *Lexer) readDollarWord(pos Position) (Token, error) {
	var sb strings.Builder
	sb.WriteRune(l.advance())

	if l.peek() == '{' {
		if err := l.readBraced(&sb, pos); err != nil {
			return Token{}, err
		}
	} else {
		for !l.eof() && isNameChar(l.peek()) {
			sb.WriteRune(l.advance())
		}
	}

	if err := l.readWordChars(&sb); err != nil {
		return Token{}, err
	}
	return Token{Kind: WordToken, Value: sb.String(), Pos: pos}, nil
}

// readAssignment finishes an assignment-word whose name is already in sb and
// whose '=' is the next rune.
func (l *Lexer) readAssignment(pos Position, sb *strings.Builder) (Token, error) {
	sb.WriteRune(l.advance())

	switch l.peek() {
	case '"', '\'':
		value, err := l.readQuoted()
		if err != nil {
			return Token{}, err
		}
		sb.WriteString(value)
	default:
		for !l.eof() && (isWordChar(l.peek()) || l.peek() == '=') {
			if l.peek() == '$' && l.peekAt(1) == '{' {
				if err := l.readBraced(sb, l.position()); err != nil {
					return Token{}, err
				}
				continue
			}
			sb.WriteRune(l.advance())
		}
	}

	return Token{Kind: AssignmentWord, Value: sb.String(), Pos: pos}, nil
}

// readWordChars appends word characters to sb. A "${" inside a word is read
// up to its closing brace.
func (l *Lexer) readWordChars(sb *strings.Builder) error {
	for !l.eof() && isWordChar(l.peek()) {
		if l.peek() == '$' && l.peekAt(1) == '{' {
			if err := l.readBraced(sb, l.position()); err != nil {
				return err
			}
			continue
		}
		sb.WriteRune(l.advance())
	}
	return nil
}

// readBraced reads "${...}" into sb, the cursor must be on the '$' or on the
// '{' following it.
func (l *Lexer) readBraced(sb *strings.Builder, pos Position) error {
	if l.peek() == '$' {
		sb.WriteRune(l.advance())
	}
	sb.WriteRune(l.advance()) // {

	for !l.eof() && l.peek() != '}' {
		sb.WriteRune(l.advance())
	}
	if l.eof() {
		return &LexError{Pos: pos, Msg: "unterminated variable expansion"}
	}
	sb.WriteRune(l.advance()) // }
	return nil
}

// readQuoted reads a single or double quoted string and returns its contents
// without the quotes. Inside double quotes a backslash keeps the next
// character literally.
func (l *Lexer) readQuoted() (string, error) {
	pos := l.position()
	quote := l.advance()

	var sb strings.Builder
	for !l.eof() && l.peek() != quote {
		if quote == '"' && l.peek() == '\\' {
			l.advance()
			if l.eof() {
				break
			}
		}
		sb.WriteRune(l.advance())
	}

	if l.eof() {
		return "", &LexError{Pos: pos, Msg: "unterminated string"}
	}
	l.advance() // closing quote

	return sb.String(), nil
}

// standaloneDash reports whether the '-' under the cursor stands alone.
func (l *Lexer) standaloneDash() bool {
	if l.offset+1 >= len(l.input) {
		return true
	}

	next := l.input[l.offset+1]
	if unicode.IsSpace(next) {
		return true
	}
	switch next {
	case '>', '<', '|', '&', ';':
		return true
	}
	return false
}

func (l *Lexer) skipBlanks() {
	for !l.eof() {
		switch l.peek() {
		case ' ', '\t', '\r':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) skipComment() {
	for !l.eof() && l.peek() != '\n' {
		l.advance()
	}
}

func (l *Lexer) position() Position {
	return Position{Line: l.line, Column: l.column}
}

func (l *Lexer) eof() bool {
	return l.offset >= len(l.input)
}

func (l *Lexer) peek() rune {
	return l.peekAt(0)
}

func (l *Lexer) peekAt(n int) rune {
	if l.offset+n >= len(l.input) {
		return 0
	}
	return l.input[l.offset+n]
}

func (l *Lexer) advance() rune {
	if l.eof() {
		return 0
	}

	ch := l.input[l.offset]
	l.offset++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

// isNameChar reports whether ch can appear in a variable name.
func isNameChar(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
}

func isWordStart(ch rune) bool {
	if unicode.IsLetter(ch) {
		return true
	}
	return strings.ContainsRune("_-./*?[],:@%+~^", ch)
}

func isWordChar(ch rune) bool {
	if unicode.IsLetter(ch) || unicode.IsDigit(ch) {
		return true
	}
	return strings.ContainsRune("_-./$*?[],:@%+~^", ch)
}
