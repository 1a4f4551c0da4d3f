package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le *LogEntry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var logEntry LogEntry
		if err := decoder.Decode(&logEntry); err != nil {
			return err
		}

		handler(&logEntry)
	}
	return nil
}

func NewBugReport() *BugReport {
	return &BugReport{
		InvalidInvocations: NewPathCounter("command", "error"),
		UnknownCommands:    NewPathCounter("command"),
		SyntaxErrors:       NewPathCounter("stage", "error"),
		ExecutionErrors:    NewPathCounter("error"),
	}
}

// BugReport pulls events that are likely bugs in the shell.
type BugReport struct {
	LogEntries int `json:"log_entries"`

	InvalidInvocations *PathCounter `json:"invalid_invocations"`
	UnknownCommands    *PathCounter `json:"unknown_commands"`
	SyntaxErrors       *PathCounter `json:"syntax_errors"`
	ExecutionErrors    *PathCounter `json:"execution_errors"`
}

func (r *BugReport) Update(le *LogEntry) {
	r.LogEntries++

	switch le.Type {
	case TypeUnknownCommand:
		r.UnknownCommands.Increment(commandName(le.GetStrings("command")))
	case TypeInvalidInvocation:
		r.InvalidInvocations.Increment(commandName(le.GetStrings("command")), le.GetString("error"))
	case TypeSyntaxError:
		r.SyntaxErrors.Increment(le.GetString("stage"), le.GetString("error"))
	case TypeExecutionError:
		r.ExecutionErrors.Increment(le.GetString("error"))
	}
}

type InteractionReport struct {
	// Map of sessionID -> interactions
	interactions map[string]*InteractiveSession
}

type InteractiveSession struct {
	Login struct {
		Username   string `json:"username"`
		RemoteAddr string `json:"remote_addr,omitempty"`
	} `json:"login"`
	LogEntries   int    `json:"log_entries"`
	TerminalName string `json:"terminal_name"`
	IsPty        bool   `json:"is_pty"`
	TTYLog       string `json:"tty_log,omitempty"`

	Commands []string `json:"commands"`
	Errors   []string `json:"errors,omitempty"`
}

func (i *InteractiveSession) Update(le *LogEntry) {
	i.LogEntries++

	switch le.Type {
	case TypeSessionStart:
		i.Login.Username = le.GetString("user")
		i.Login.RemoteAddr = le.GetString("remote_addr")
	case TypeRunCommand:
		i.Commands = append(i.Commands, le.GetString("line"))
	case TypeTerminalUpdate:
		i.TerminalName = le.GetString("term")
		i.IsPty = le.GetBool("is_pty")
	case TypeOpenTTYLog:
		i.TTYLog = le.GetString("name")
	case TypeSyntaxError, TypeExecutionError:
		i.Errors = append(i.Errors, fmt.Sprintf("%q: %s", le.GetString("line"), le.GetString("error")))
	}
}

func (i *InteractionReport) init() {
	if i.interactions == nil {
		i.interactions = make(map[string]*InteractiveSession)
	}
}

// MarshalJSON implements custom JSON marshaler.
func (i *InteractionReport) MarshalJSON() ([]byte, error) {
	i.init()

	return json.Marshal(i.interactions)
}

// Session returns the interactions recorded for sessionID, or nil.
func (i *InteractionReport) Session(sessionID string) *InteractiveSession {
	i.init()

	return i.interactions[sessionID]
}

func (i *InteractionReport) Update(le *LogEntry) {
	i.init()

	sessionID := le.SessionID
	if sessionID == "" {
		return
	}
	report, ok := i.interactions[sessionID]
	if !ok {
		report = &InteractiveSession{}
		i.interactions[sessionID] = report
	}

	report.Update(le)
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries     int        `json:"log_entries"`
	Sessions       int        `json:"sessions"`
	InvalidEntries StrCounter `json:"unknown_log_entries"`

	SessionStart      SessionStartReport      `json:"session_start_report"`
	RunCommand        RunCommandReport        `json:"run_command_report"`
	UnknownCommand    UnknownCommandReport    `json:"unknown_command_report"`
	InvalidInvocation InvalidInvocationReport `json:"invalid_invocation_report"`
	SyntaxError       SyntaxErrorReport       `json:"syntax_error_report"`
	ExecutionError    ExecutionErrorReport    `json:"execution_error_report"`
}

func (r *Report) Update(le *LogEntry) {
	r.LogEntries++

	switch le.Type {
	case TypeSessionStart:
		r.Sessions++
		r.SessionStart.update(le)
	case TypeRunCommand:
		r.RunCommand.update(le)
	case TypeUnknownCommand:
		r.UnknownCommand.update(le)
	case TypeInvalidInvocation:
		r.InvalidInvocation.update(le)
	case TypeSyntaxError:
		r.SyntaxError.update(le)
	case TypeExecutionError:
		r.ExecutionError.update(le)
	case TypeTerminalUpdate, TypeOpenTTYLog:
		// Ignore
	default:
		r.InvalidEntries.Increment(string(le.Type))
	}
}

type SessionStartReport struct {
	// List of usernames and their counts.
	Usernames StrCounter `json:"usernames"`
}

func (r *SessionStartReport) update(le *LogEntry) {
	r.Usernames.Increment(le.GetString("user"))
}

type RunCommandReport struct {
	// Name of the first command on each line.
	CommandNames StrCounter `json:"command_names"`
}

func (r *RunCommandReport) update(le *LogEntry) {
	if fields := strings.Fields(le.GetString("line")); len(fields) > 0 {
		r.CommandNames.Increment(fields[0])
	}
}

type UnknownCommandReport struct {
	CommandNames StrCounter `json:"command_names"`
}

func (r *UnknownCommandReport) update(le *LogEntry) {
	if command := le.GetStrings("command"); len(command) > 0 {
		r.CommandNames.Increment(command[0])
	}
}

type InvalidInvocationReport struct {
	CommandNames StrCounter `json:"command_counts"`
}

func (r *InvalidInvocationReport) update(le *LogEntry) {
	if command := le.GetStrings("command"); len(command) > 0 {
		r.CommandNames.Increment(command[0])
	}
}

type SyntaxErrorReport struct {
	Stages StrCounter `json:"stages"`
}

func (r *SyntaxErrorReport) update(le *LogEntry) {
	r.Stages.Increment(le.GetString("stage"))
}

type ExecutionErrorReport struct {
	Count int `json:"count"`
}

func (r *ExecutionErrorReport) update(*LogEntry) {
	r.Count++
}

func commandName(argv []string) string {
	if len(argv) == 0 {
		return ""
	}
	return argv[0]
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Count returns the number of times key was seen.
func (s *StrCounter) Count(key string) int {
	return s.internal[key]
}

// MarshalJSON implements custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	if s.internal == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of string tuples seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// MarshalJSON implements custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	out := []Count{}
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
