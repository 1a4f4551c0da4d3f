package logger

// EventType names the kind of a logged event.
type EventType string

const (
	TypeSessionStart      EventType = "session_start"
	TypeTerminalUpdate    EventType = "terminal_update"
	TypeRunCommand        EventType = "run_command"
	TypeUnknownCommand    EventType = "unknown_command"
	TypeSyntaxError       EventType = "syntax_error"
	TypeExecutionError    EventType = "execution_error"
	TypeInvalidInvocation EventType = "invalid_invocation"
	TypeOpenTTYLog        EventType = "open_tty_log"
)

// Event is a single occurrence in a session. Field values must be
// representable in JSON: strings, numbers, booleans, []interface{} and
// map[string]interface{}.
type Event struct {
	Type   EventType
	Fields map[string]interface{}
}

func stringList(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// SessionStart is logged when a user connects.
func SessionStart(user, remoteAddr string) Event {
	return Event{
		Type: TypeSessionStart,
		Fields: map[string]interface{}{
			"user":        user,
			"remote_addr": remoteAddr,
		},
	}
}

// TerminalUpdate is logged when the terminal attached to a session changes.
func TerminalUpdate(term string, width, height int, isPTY bool) Event {
	return Event{
		Type: TypeTerminalUpdate,
		Fields: map[string]interface{}{
			"term":   term,
			"width":  width,
			"height": height,
			"is_pty": isPTY,
		},
	}
}

// RunCommand is logged for every non-blank line the shell reads.
func RunCommand(line string) Event {
	return Event{
		Type: TypeRunCommand,
		Fields: map[string]interface{}{
			"line": line,
		},
	}
}

// UnknownCommand is logged when a program couldn't be found.
func UnknownCommand(argv []string) Event {
	return Event{
		Type: TypeUnknownCommand,
		Fields: map[string]interface{}{
			"command": stringList(argv),
		},
	}
}

// SyntaxError is logged when a line fails to lex or parse. Stage is "lexer"
// or "parse".
func SyntaxError(stage, line string, err error) Event {
	return Event{
		Type: TypeSyntaxError,
		Fields: map[string]interface{}{
			"stage": stage,
			"line":  line,
			"error": errorString(err),
		},
	}
}

// ExecutionError is logged when a parsed command fails to execute.
func ExecutionError(line string, err error) Event {
	return Event{
		Type: TypeExecutionError,
		Fields: map[string]interface{}{
			"line":  line,
			"error": errorString(err),
		},
	}
}

// InvalidInvocation is logged when a program is called with arguments it
// doesn't understand.
func InvalidInvocation(argv []string, err error) Event {
	return Event{
		Type: TypeInvalidInvocation,
		Fields: map[string]interface{}{
			"command": stringList(argv),
			"error":   errorString(err),
		},
	}
}

// OpenTTYLog is logged when a session's terminal recording is created.
func OpenTTYLog(name string) Event {
	return Event{
		Type: TypeOpenTTYLog,
		Fields: map[string]interface{}{
			"name": name,
		},
	}
}
