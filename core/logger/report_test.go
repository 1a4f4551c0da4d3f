package logger

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordAll(t *testing.T, handler func(le *LogEntry)) {
	t.Helper()

	l := &Logger{Record: func(le *LogEntry) error {
		handler(le)
		return nil
	}}

	alice := &SessionLogger{Logger: l, sessionID: "alice"}
	bob := &SessionLogger{Logger: l, sessionID: "bob"}

	for _, ev := range []struct {
		session *SessionLogger
		event   Event
	}{
		{alice, SessionStart("alice", "10.0.0.1:1")},
		{alice, TerminalUpdate("xterm", 80, 24, true)},
		{alice, OpenTTYLog("alice.cast")},
		{alice, RunCommand("ls -la")},
		{alice, RunCommand("ls /tmp")},
		{alice, UnknownCommand([]string{"wget", "http://example.com"})},
		{bob, SessionStart("bob", "10.0.0.2:1")},
		{bob, RunCommand("if true")},
		{bob, SyntaxError("parse", "if true", errors.New("1:8: expected 'then', found EOF"))},
		{bob, ExecutionError("a | b", errors.New("pipelines are not implemented"))},
		{bob, InvalidInvocation([]string{"env", "-q"}, errors.New("unknown option -q"))},
		{l.Sessionless(), Event{Type: "mystery"}},
	} {
		require.NoError(t, ev.session.Record(ev.event))
	}
}

func TestReport(t *testing.T) {
	var report Report
	recordAll(t, report.Update)

	assert.Equal(t, 12, report.LogEntries)
	assert.Equal(t, 2, report.Sessions)
	assert.Equal(t, 1, report.SessionStart.Usernames.Count("alice"))
	assert.Equal(t, 2, report.RunCommand.CommandNames.Count("ls"))
	assert.Equal(t, 1, report.RunCommand.CommandNames.Count("if"))
	assert.Equal(t, 1, report.UnknownCommand.CommandNames.Count("wget"))
	assert.Equal(t, 1, report.InvalidInvocation.CommandNames.Count("env"))
	assert.Equal(t, 1, report.SyntaxError.Stages.Count("parse"))
	assert.Equal(t, 1, report.ExecutionError.Count)
	assert.Equal(t, 1, report.InvalidEntries.Count("mystery"))

	_, err := json.Marshal(&report)
	assert.NoError(t, err)
}

func TestBugReport(t *testing.T) {
	report := NewBugReport()
	recordAll(t, report.Update)

	out, err := json.Marshal(report)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"log_entries": 12,
		"invalid_invocations": [{"count": 1, "event": {"command": "env", "error": "unknown option -q"}}],
		"unknown_commands": [{"count": 1, "event": {"command": "wget"}}],
		"syntax_errors": [{"count": 1, "event": {"stage": "parse", "error": "1:8: expected 'then', found EOF"}}],
		"execution_errors": [{"count": 1, "event": {"error": "pipelines are not implemented"}}]
	}`, string(out))
}

func TestInteractionReport(t *testing.T) {
	var report InteractionReport
	recordAll(t, report.Update)

	alice := report.Session("alice")
	require.NotNil(t, alice)
	assert.Equal(t, "alice", alice.Login.Username)
	assert.Equal(t, "xterm", alice.TerminalName)
	assert.True(t, alice.IsPty)
	assert.Equal(t, "alice.cast", alice.TTYLog)
	assert.Equal(t, []string{"ls -la", "ls /tmp"}, alice.Commands)
	assert.Empty(t, alice.Errors)

	bob := report.Session("bob")
	require.NotNil(t, bob)
	assert.Equal(t, []string{"if true"}, bob.Commands)
	assert.Len(t, bob.Errors, 2)

	assert.Nil(t, report.Session(""))
}

func TestPathCounter(t *testing.T) {
	ctr := NewPathCounter("a", "b")
	ctr.Increment("x", "y")
	ctr.Increment("x", "y")
	ctr.Increment("a", "b")

	out, err := json.Marshal(ctr)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"count": 2, "event": {"a": "x", "b": "y"}},
		{"count": 1, "event": {"a": "a", "b": "b"}}
	]`, string(out))

	assert.Panics(t, func() { ctr.Increment("only one") })
}
