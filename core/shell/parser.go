package shell

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError is returned when the tokens don't form a valid command.
type ParseError struct {
	Pos      Position
	Expected string
	Found    Token
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: expected %s, found %s", e.Pos, e.Expected, e.Found)
}

// Parser builds commands from a token stream using recursive descent.
//
// The grammar, from tightest to loosest binding:
//
//	simple command   words, assignments and redirections in any order
//	pipeline         command ('|' command)*
//	negation         ['!'] pipeline
//	and-or           negation (('&&' | '||') negation)*
//	list             and-or ((';' | '&' | newline) and-or)*
//
// At the top level a newline ends a command; inside compound commands it is
// an ordinary separator.
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a parser over tokens produced by the Lexer. The slice
// must end with an EOF token.
func NewParser(tokens []Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != EOF {
		var pos Position
		if len(tokens) > 0 {
			pos = tokens[len(tokens)-1].Pos
		}
		tokens = append(tokens, Token{Kind: EOF, Pos: pos})
	}
	return &Parser{tokens: tokens}
}

// Parse tokenizes and parses input.
func Parse(input string) ([]Command, error) {
	tokens, err := Tokenize(input)
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Parse()
}

// Parse returns the top-level commands in input order, one per line.
func (p *Parser) Parse() ([]Command, error) {
	var commands []Command

	p.skipNewlines()
	for !p.check(EOF) {
		cmd, err := p.parseList(nil, true)
		if err != nil {
			return nil, err
		}
		if !p.check(Newline) && !p.check(EOF) {
			return nil, p.errorf("newline")
		}
		commands = append(commands, cmd)
		p.skipNewlines()
	}

	return commands, nil
}

// parseList parses and-or lists joined by ';', '&' and (unless lineMode is
// set) newlines. It stops without consuming a terminator, or in lineMode a
// newline.
func (p *Parser) parseList(terminators []TokenKind, lineMode bool) (Command, error) {
	var items []ListItem

	for {
		if p.checkAny(terminators) {
			return nil, p.errorf("command")
		}

		cmd, err := p.parseAndOr()
		if err != nil {
			return nil, err
		}

		sep := Sequential
		switch {
		case p.check(Semicolon):
			p.advance()
		case p.check(Ampersand):
			p.advance()
			sep = Background
		case p.check(Newline) && !lineMode:
			p.advance()
		default:
			items = append(items, ListItem{Command: cmd, Separator: sep})
			return buildList(items), nil
		}
		items = append(items, ListItem{Command: cmd, Separator: sep})

		if !lineMode {
			p.skipNewlines()
		}
		if p.check(EOF) || p.check(Newline) || p.checkAny(terminators) {
			return buildList(items), nil
		}
	}
}

// buildList doesn't wrap a lone command unless it runs in the background.
func buildList(items []ListItem) Command {
	if len(items) == 1 && items[0].Separator != Background {
		return items[0].Command
	}
	return &List{Items: items}
}

// parseAndOr parses a left-associative chain of '&&' and '||'. Each link
// becomes a two item list with the earlier chain on the left.
func (p *Parser) parseAndOr() (Command, error) {
	left, err := p.parsePipelineCommand()
	if err != nil {
		return nil, err
	}

	for p.check(And) || p.check(Or) {
		sep := AndIf
		if p.advance().Kind == Or {
			sep = OrIf
		}
		p.skipNewlines()

		right, err := p.parsePipelineCommand()
		if err != nil {
			return nil, err
		}

		left = &List{Items: []ListItem{
			{Command: left, Separator: sep},
			{Command: right, Separator: Sequential},
		}}
	}

	return left, nil
}

func (p *Parser) parsePipelineCommand() (Command, error) {
	negated := false
	if p.check(Not) {
		p.advance()
		negated = true
	}

	cmd, err := p.parsePipeline()
	if err != nil {
		return nil, err
	}
	if !negated {
		return cmd, nil
	}

	if pipeline, ok := cmd.(*Pipeline); ok {
		pipeline.Negated = true
		return pipeline, nil
	}
	return &Pipeline{Negated: true, Commands: []Command{cmd}}, nil
}

func (p *Parser) parsePipeline() (Command, error) {
	first, err := p.parseCommand()
	if err != nil {
		return nil, err
	}
	commands := []Command{first}

	for p.check(Pipe) {
		p.advance()
		p.skipNewlines()

		cmd, err := p.parseCommand()
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}

	if len(commands) == 1 {
		return first, nil
	}
	return &Pipeline{Commands: commands}, nil
}

func (p *Parser) parseCommand() (Command, error) {
	switch p.current().Kind {
	case If:
		return p.parseIf()
	case While:
		return p.parseWhile()
	case Until:
		return p.parseUntil()
	case For:
		return p.parseFor()
	case Case:
		return p.parseCase()
	case LeftParen:
		return p.parseSubshell()
	case LeftBrace:
		return p.parseGroup()
	case Function:
		return p.parseFunction()
	default:
		return p.parseSimpleCommand()
	}
}

func (p *Parser) parseSimpleCommand() (Command, error) {
	cmd := &SimpleCommand{}

	for {
		tok := p.current()
		switch {
		case tok.Kind == AssignmentWord && len(cmd.Words) == 0 && isAssignment(tok.Value):
			p.advance()
			idx := strings.IndexByte(tok.Value, '=')
			cmd.Assignments = append(cmd.Assignments, Assignment{
				Name:  tok.Value[:idx],
				Value: tok.Value[idx+1:],
			})

		case p.atRedirection():
			redir, err := p.parseRedirection()
			if err != nil {
				return nil, err
			}
			cmd.Redirections = append(cmd.Redirections, redir)

		case isWordLike(tok.Kind) || tok.Kind == AssignmentWord:
			p.advance()
			cmd.Words = append(cmd.Words, Word{Value: tok.Value})

		case tok.Kind == Not && len(cmd.Words) > 0:
			p.advance()
			cmd.Words = append(cmd.Words, Word{Value: tok.Value})

		default:
			if cmd.IsEmpty() {
				return nil, p.errorf("command")
			}
			return cmd, nil
		}
	}
}

// isWordLike reports whether a token can be used as a plain argument. A few
// reserved words are allowed outside their grammatical position, structural
// ones never are.
func isWordLike(kind TokenKind) bool {
	switch kind {
	case WordToken, Done, Time, In, Dash:
		return true
	}
	return false
}

// isAssignment reports whether the text before the first '=' is a valid
// variable name.
func isAssignment(word string) bool {
	idx := strings.IndexByte(word, '=')
	return idx > 0 && IsName(word[:idx])
}

// IsName reports whether s is a valid variable name.
func IsName(s string) bool {
	if s == "" {
		return false
	}
	for i, ch := range s {
		if ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') {
			continue
		}
		if i > 0 && isDigit(ch) {
			continue
		}
		return false
	}
	return true
}

func (p *Parser) atRedirection() bool {
	if p.check(Number) {
		return p.peek(1).Kind.IsRedirection()
	}
	return p.current().Kind.IsRedirection()
}

func (p *Parser) parseRedirection() (Redirection, error) {
	var redir Redirection

	if p.check(Number) {
		fd, err := strconv.Atoi(p.current().Value)
		if err != nil {
			return redir, p.errorf("file descriptor")
		}
		p.advance()
		redir.Fd = &fd
	}

	kind, ok := redirectionOperators[p.current().Kind]
	if !ok {
		return redir, p.errorf("redirection operator")
	}
	p.advance()
	redir.Kind = kind

	tok := p.current()
	switch {
	case tok.Kind == Dash:
		redir.Target = CloseTarget()
	case tok.Kind == Number:
		fd, err := strconv.Atoi(tok.Value)
		if err != nil {
			return redir, p.errorf("file descriptor")
		}
		redir.Target = FdTarget(fd)
	case isWordLike(tok.Kind):
		redir.Target = FileTarget(tok.Value)
		if kind == RedirectInputDup || kind == RedirectOutputDup {
			if fd, err := strconv.Atoi(tok.Value); err == nil && allDigits(tok.Value) {
				redir.Target = FdTarget(fd)
			}
		}
	default:
		return redir, p.errorf("redirection target")
	}
	p.advance()

	return redir, nil
}

func allDigits(s string) bool {
	for _, ch := range s {
		if !isDigit(ch) {
			return false
		}
	}
	return s != ""
}

func (p *Parser) parseIf() (Command, error) {
	if _, err := p.expect(If); err != nil {
		return nil, err
	}

	cmd := &IfCommand{}
	var err error
	if cmd.Condition, err = p.parseCompoundList(Then); err != nil {
		return nil, err
	}
	if _, err := p.expect(Then); err != nil {
		return nil, err
	}
	if cmd.ThenPart, err = p.parseCompoundList(Elif, Else, Fi); err != nil {
		return nil, err
	}

	for p.check(Elif) {
		p.advance()

		var part ElifPart
		if part.Condition, err = p.parseCompoundList(Then); err != nil {
			return nil, err
		}
		if _, err := p.expect(Then); err != nil {
			return nil, err
		}
		if part.Body, err = p.parseCompoundList(Elif, Else, Fi); err != nil {
			return nil, err
		}
		cmd.ElifParts = append(cmd.ElifParts, part)
	}

	if p.check(Else) {
		p.advance()
		if cmd.ElsePart, err = p.parseCompoundList(Fi); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(Fi); err != nil {
		return nil, err
	}
	return cmd, nil
}

// parseLoop parses "keyword condition do body done" for while and until.
func (p *Parser) parseLoop(keyword TokenKind) (condition, body Command, err error) {
	if _, err = p.expect(keyword); err != nil {
		return
	}
	if condition, err = p.parseCompoundList(Do); err != nil {
		return
	}
	if body, err = p.parseDoGroup(); err != nil {
		return
	}
	return condition, body, nil
}

func (p *Parser) parseWhile() (Command, error) {
	condition, body, err := p.parseLoop(While)
	if err != nil {
		return nil, err
	}
	return &WhileCommand{Condition: condition, Body: body}, nil
}

func (p *Parser) parseUntil() (Command, error) {
	condition, body, err := p.parseLoop(Until)
	if err != nil {
		return nil, err
	}
	return &UntilCommand{Condition: condition, Body: body}, nil
}

// parseDoGroup parses "do body done".
func (p *Parser) parseDoGroup() (Command, error) {
	if _, err := p.expect(Do); err != nil {
		return nil, err
	}
	body, err := p.parseCompoundList(Done)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(Done); err != nil {
		return nil, err
	}
	return body, nil
}

func (p *Parser) parseFor() (Command, error) {
	if _, err := p.expect(For); err != nil {
		return nil, err
	}
	name, err := p.expect(WordToken)
	if err != nil {
		return nil, err
	}

	cmd := &ForCommand{Variable: name.Value}
	p.skipNewlines()

	if p.check(In) {
		p.advance()
		for p.check(WordToken) || p.check(Dash) {
			cmd.Words = append(cmd.Words, p.advance().Value)
		}
	}

	if p.check(Semicolon) || p.check(Newline) {
		p.advance()
	}
	p.skipNewlines()

	if cmd.Body, err = p.parseDoGroup(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func (p *Parser) parseCase() (Command, error) {
	if _, err := p.expect(Case); err != nil {
		return nil, err
	}
	word, err := p.expect(WordToken)
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	if _, err := p.expect(In); err != nil {
		return nil, err
	}
	p.skipNewlines()

	cmd := &CaseCommand{Word: word.Value}
	for !p.check(Esac) {
		clause, err := p.parseCaseClause()
		if err != nil {
			return nil, err
		}
		cmd.Cases = append(cmd.Cases, clause)
	}
	p.advance()

	return cmd, nil
}

// parseCaseClause parses "[(] pattern [| pattern]... ) [body] [;;]". The
// ';;' may only be left out before esac.
func (p *Parser) parseCaseClause() (CaseClause, error) {
	var clause CaseClause

	if p.check(LeftParen) {
		p.advance()
	}

	for {
		pattern, err := p.expect(WordToken)
		if err != nil {
			return clause, err
		}
		clause.Patterns = append(clause.Patterns, pattern.Value)

		if !p.check(Pipe) {
			break
		}
		p.advance()
	}

	if _, err := p.expect(RightParen); err != nil {
		return clause, err
	}
	p.skipNewlines()

	if !p.check(DoubleSemicolon) && !p.check(Esac) {
		body, err := p.parseCompoundList(DoubleSemicolon, Esac)
		if err != nil {
			return clause, err
		}
		clause.Body = body
	}

	if p.check(DoubleSemicolon) {
		p.advance()
	} else if !p.check(Esac) {
		return clause, p.errorf("';;'")
	}
	p.skipNewlines()

	return clause, nil
}

func (p *Parser) parseSubshell() (Command, error) {
	if _, err := p.expect(LeftParen); err != nil {
		return nil, err
	}
	body, err := p.parseCompoundList(RightParen)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RightParen); err != nil {
		return nil, err
	}
	return &Subshell{Body: body}, nil
}

// parseGroup parses "{ list }". Like the top level, each line of the body is
// its own command.
func (p *Parser) parseGroup() (*Group, error) {
	if _, err := p.expect(LeftBrace); err != nil {
		return nil, err
	}
	p.skipNewlines()

	group := &Group{}
	for {
		if p.check(EOF) {
			return nil, p.errorf(RightBrace.String())
		}
		cmd, err := p.parseList([]TokenKind{RightBrace}, true)
		if err != nil {
			return nil, err
		}
		group.Commands = append(group.Commands, cmd)
		p.skipNewlines()

		if p.check(RightBrace) {
			p.advance()
			return group, nil
		}
	}
}

func (p *Parser) parseFunction() (Command, error) {
	if _, err := p.expect(Function); err != nil {
		return nil, err
	}
	name, err := p.expect(WordToken)
	if err != nil {
		return nil, err
	}

	if p.check(LeftParen) {
		p.advance()
		if _, err := p.expect(RightParen); err != nil {
			return nil, err
		}
	}
	p.skipNewlines()

	body, err := p.parseGroup()
	if err != nil {
		return nil, err
	}
	return &FunctionDef{Name: name.Value, Body: body}, nil
}

// parseCompoundList parses the body of a compound command up to, but not
// including, one of the terminators. A trailing separator before the
// terminator is consumed.
func (p *Parser) parseCompoundList(terminators ...TokenKind) (Command, error) {
	p.skipNewlines()
	return p.parseList(terminators, false)
}

func (p *Parser) skipNewlines() {
	for p.check(Newline) {
		p.advance()
	}
}

func (p *Parser) current() Token {
	return p.peek(0)
}

func (p *Parser) peek(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) check(kind TokenKind) bool {
	return p.current().Kind == kind
}

func (p *Parser) checkAny(kinds []TokenKind) bool {
	for _, kind := range kinds {
		if p.check(kind) {
			return true
		}
	}
	return false
}

func (p *Parser) advance() Token {
	tok := p.current()
	if tok.Kind != EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(kind TokenKind) (Token, error) {
	if !p.check(kind) {
		return Token{}, p.errorf(kind.String())
	}
	return p.advance(), nil
}

func (p *Parser) errorf(expected string) *ParseError {
	tok := p.current()
	return &ParseError{Pos: tok.Pos, Expected: expected, Found: tok}
}
