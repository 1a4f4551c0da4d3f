package shell

// Command is a node of the syntax tree. The set of implementations is closed:
// *SimpleCommand, *Pipeline, *List, *Subshell, *IfCommand, *WhileCommand,
// *UntilCommand, *ForCommand, *CaseCommand, *FunctionDef and *Group.
//
// Nodes are built by the Parser and never modified afterwards.
type Command interface {
	commandNode()
}

// SimpleCommand is a program invocation with optional prefix assignments and
// redirections.
type SimpleCommand struct {
	Assignments  []Assignment
	Words        []Word
	Redirections []Redirection
}

// IsEmpty reports whether the command has no assignments, words or
// redirections. The parser never produces empty commands.
func (c *SimpleCommand) IsEmpty() bool {
	return len(c.Assignments) == 0 && len(c.Words) == 0 && len(c.Redirections) == 0
}

// Assignment binds a shell variable.
type Assignment struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Word is an unexpanded word.
type Word struct {
	Value string `json:"value"`
}

// RedirectionKind is the operator of a redirection.
type RedirectionKind int

const (
	RedirectInput       RedirectionKind = iota // <
	RedirectOutput                             // >
	RedirectAppend                             // >>
	RedirectHeredoc                            // <<
	RedirectHeredocStrip                       // <<-
	RedirectInputDup                           // <&
	RedirectOutputDup                          // >&
	RedirectInputOutput                        // <>
	RedirectClobber                            // >|
	RedirectOutputBoth                         // &>
)

var redirectionKindNames = []string{
	"Input",
	"Output",
	"Append",
	"Heredoc",
	"HeredocStrip",
	"InputDup",
	"OutputDup",
	"InputOutput",
	"Clobber",
	"OutputBoth",
}

func (k RedirectionKind) String() string {
	if int(k) < 0 || int(k) >= len(redirectionKindNames) {
		return "RedirectionKind(?)"
	}
	return redirectionKindNames[k]
}

var redirectionOperators = map[TokenKind]RedirectionKind{
	Less:         RedirectInput,
	Great:        RedirectOutput,
	GreatGreat:   RedirectAppend,
	LessLess:     RedirectHeredoc,
	LessLessDash: RedirectHeredocStrip,
	LessAnd:      RedirectInputDup,
	GreatAnd:     RedirectOutputDup,
	LessGreat:    RedirectInputOutput,
	GreatPipe:    RedirectClobber,
	AndGreat:     RedirectOutputBoth,
}

// TargetKind tells what a redirection points at.
type TargetKind int

const (
	TargetFile  TargetKind = iota // a path
	TargetFd                      // an existing descriptor
	TargetClose                   // '-', close the descriptor
)

// RedirectionTarget is the right hand side of a redirection.
type RedirectionTarget struct {
	Kind TargetKind
	Path string
	Fd   int
}

// FileTarget redirects to or from a path.
func FileTarget(path string) RedirectionTarget {
	return RedirectionTarget{Kind: TargetFile, Path: path}
}

// FdTarget duplicates an existing descriptor.
func FdTarget(fd int) RedirectionTarget {
	return RedirectionTarget{Kind: TargetFd, Fd: fd}
}

// CloseTarget closes the descriptor.
func CloseTarget() RedirectionTarget {
	return RedirectionTarget{Kind: TargetClose}
}

// Redirection changes a file descriptor of a command. Fd is nil when no
// descriptor prefix was written.
type Redirection struct {
	Kind   RedirectionKind
	Fd     *int
	Target RedirectionTarget
}

// Pipeline connects the output of each command to the input of the next.
type Pipeline struct {
	Negated  bool
	Commands []Command
}

// Separator follows an item of a List.
type Separator int

const (
	Sequential Separator = iota // ; or newline
	Background                  // &
	AndIf                       // &&
	OrIf                        // ||
	PipeTo                      // |, only ever used inside a Pipeline
)

var separatorNames = []string{"Sequential", "Background", "And", "Or", "Pipe"}

func (s Separator) String() string {
	if int(s) < 0 || int(s) >= len(separatorNames) {
		return "Separator(?)"
	}
	return separatorNames[s]
}

// List is a sequence of commands, each followed by a separator that tells
// how the next one runs.
type List struct {
	Items []ListItem
}

// ListItem is one entry of a List.
type ListItem struct {
	Command   Command
	Separator Separator
}

// Subshell is "( list )".
type Subshell struct {
	Body Command
}

// ElifPart is one "elif condition; then body" clause.
type ElifPart struct {
	Condition Command
	Body      Command
}

// IfCommand is "if ...; then ...; [elif ...; then ...;] [else ...;] fi".
type IfCommand struct {
	Condition Command
	ThenPart  Command
	ElifParts []ElifPart
	// ElsePart is nil when there is no else clause.
	ElsePart Command
}

// WhileCommand is "while condition; do body; done".
type WhileCommand struct {
	Condition Command
	Body      Command
}

// UntilCommand is "until condition; do body; done".
type UntilCommand struct {
	Condition Command
	Body      Command
}

// ForCommand is "for variable [in words]; do body; done".
type ForCommand struct {
	Variable string
	Words    []string
	Body     Command
}

// CaseCommand is "case word in clauses esac".
type CaseCommand struct {
	Word  string
	Cases []CaseClause
}

// CaseClause is "pattern | pattern ) body ;;". Body is nil for an empty
// clause.
type CaseClause struct {
	Patterns []string
	Body     Command
}

// FunctionDef is "function name [()] { ... }". Body is always a *Group.
type FunctionDef struct {
	Name string
	Body Command
}

// Group is "{ list; }".
type Group struct {
	Commands []Command
}

func (*SimpleCommand) commandNode() {}
func (*Pipeline) commandNode()      {}
func (*List) commandNode()          {}
func (*Subshell) commandNode()      {}
func (*IfCommand) commandNode()     {}
func (*WhileCommand) commandNode()  {}
func (*UntilCommand) commandNode()  {}
func (*ForCommand) commandNode()    {}
func (*CaseCommand) commandNode()   {}
func (*FunctionDef) commandNode()   {}
func (*Group) commandNode()         {}
