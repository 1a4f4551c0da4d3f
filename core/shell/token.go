package shell

import "fmt"

// TokenKind classifies a token produced by the Lexer.
type TokenKind int

const (
	WordToken TokenKind = iota
	Number
	AssignmentWord

	Pipe            // |
	And             // &&
	Or              // ||
	Semicolon       // ;
	DoubleSemicolon // ;;
	Ampersand       // &
	Not             // !
	Dash            // -

	Great        // >
	Less         // <
	GreatGreat   // >>
	LessLess     // <<
	LessAnd      // <&
	GreatAnd     // >&
	LessLessDash // <<-
	GreatPipe    // >|
	AndGreat     // &>
	LessGreat    // <>

	LeftParen  // (
	RightParen // )
	LeftBrace  // {
	RightBrace // }

	If
	Then
	Else
	Elif
	Fi
	Case
	Esac
	For
	Select
	While
	Until
	Do
	Done
	In
	Function
	Time

	Newline
	EOF
)

var tokenNames = map[TokenKind]string{
	WordToken:      "word",
	Number:         "number",
	AssignmentWord: "assignment",

	Pipe:            "'|'",
	And:             "'&&'",
	Or:              "'||'",
	Semicolon:       "';'",
	DoubleSemicolon: "';;'",
	Ampersand:       "'&'",
	Not:             "'!'",
	Dash:            "'-'",

	Great:        "'>'",
	Less:         "'<'",
	GreatGreat:   "'>>'",
	LessLess:     "'<<'",
	LessAnd:      "'<&'",
	GreatAnd:     "'>&'",
	LessLessDash: "'<<-'",
	GreatPipe:    "'>|'",
	AndGreat:     "'&>'",
	LessGreat:    "'<>'",

	LeftParen:  "'('",
	RightParen: "')'",
	LeftBrace:  "'{'",
	RightBrace: "'}'",

	Newline: "newline",
	EOF:     "EOF",
}

// keywords maps reserved words to their kinds.
var keywords = map[string]TokenKind{
	"if":       If,
	"then":     Then,
	"else":     Else,
	"elif":     Elif,
	"fi":       Fi,
	"case":     Case,
	"esac":     Esac,
	"for":      For,
	"select":   Select,
	"while":    While,
	"until":    Until,
	"do":       Do,
	"done":     Done,
	"in":       In,
	"function": Function,
	"time":     Time,
}

func init() {
	for word, kind := range keywords {
		tokenNames[kind] = fmt.Sprintf("'%s'", word)
	}
}

func (k TokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// IsKeyword reports whether the kind is one of the reserved words.
func (k TokenKind) IsKeyword() bool {
	return k >= If && k <= Time
}

// IsRedirection reports whether the kind is a redirection operator.
func (k TokenKind) IsRedirection() bool {
	return k >= Great && k <= LessGreat
}

// Position is a 1-based line and column in the input.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is a single lexical unit.
type Token struct {
	Kind  TokenKind
	Value string
	Pos   Position
}

func (t Token) String() string {
	switch t.Kind {
	case WordToken, Number, AssignmentWord:
		return fmt.Sprintf("%s %q", t.Kind, t.Value)
	default:
		return t.Kind.String()
	}
}
