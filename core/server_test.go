package core

import (
	"bytes"
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gossh "golang.org/x/crypto/ssh"

	"github.com/josephlewis42/clam/core/config"
	"github.com/josephlewis42/clam/core/logger"
	"github.com/josephlewis42/clam/core/ttylog"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.buf.Bytes()...)
}

type testServer struct {
	addr          string
	configuration *config.Configuration
	events        *syncBuffer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	configuration := config.Default()
	configuration.Hostname = "sandbox"
	configuration.Passwords = []string{"secret"}

	events := &syncBuffer{}
	server, err := NewServer(configuration, events)
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go server.Serve(l)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	})

	return &testServer{
		addr:          l.Addr().String(),
		configuration: configuration,
		events:        events,
	}
}

func (ts *testServer) dial(t *testing.T, user, password string) (*gossh.Client, error) {
	t.Helper()

	return gossh.Dial("tcp", ts.addr, &gossh.ClientConfig{
		User:            user,
		Auth:            []gossh.AuthMethod{gossh.Password(password)},
		HostKeyCallback: gossh.InsecureIgnoreHostKey(),
		Timeout:         5 * time.Second,
	})
}

// run executes command in a new session and returns the combined output and
// exit status.
func (ts *testServer) run(t *testing.T, client *gossh.Client, command string) (string, int) {
	t.Helper()

	sess, err := client.NewSession()
	require.NoError(t, err)
	defer sess.Close()

	out, err := sess.CombinedOutput(command)
	var exitErr *gossh.ExitError
	switch {
	case errors.As(err, &exitErr):
		return string(out), exitErr.ExitStatus()
	case err != nil:
		t.Fatal(err)
	}
	return string(out), 0
}

func (ts *testServer) logEntries(t *testing.T) []*logger.LogEntry {
	t.Helper()

	var entries []*logger.LogEntry
	require.NoError(t, logger.ReadJSONLinesLog(bytes.NewReader(ts.events.Bytes()), func(le *logger.LogEntry) {
		entries = append(entries, le)
	}))
	return entries
}

func TestServer_command(t *testing.T) {
	ts := newTestServer(t)
	client, err := ts.dial(t, "alice", "secret")
	require.NoError(t, err)
	defer client.Close()

	out, status := ts.run(t, client, "echo hello; whoami; hostname; pwd")
	assert.Equal(t, "hello\nalice\nsandbox\n/home/alice\n", out)
	assert.Equal(t, 0, status)

	out, status = ts.run(t, client, "exit 3")
	assert.Equal(t, "", out)
	assert.Equal(t, 3, status)

	out, status = ts.run(t, client, "nope")
	assert.Equal(t, "sh: execution error: failed to execute 'nope': executable file not found in $PATH\n", out)
	assert.Equal(t, 127, status)
}

func TestServer_badPassword(t *testing.T) {
	ts := newTestServer(t)

	_, err := ts.dial(t, "alice", "wrong")
	assert.Error(t, err)
}

func TestServer_sessionsAreIndependent(t *testing.T) {
	ts := newTestServer(t)
	client, err := ts.dial(t, "root", "secret")
	require.NoError(t, err)
	defer client.Close()

	out, _ := ts.run(t, client, "A=1; touch /tmp/private /root/shared; echo $A")
	assert.Equal(t, "1\n", out)

	out, status := ts.run(t, client, "echo [$A]; cat /root/shared")
	assert.Equal(t, "[]\n", out)
	assert.Equal(t, 0, status)

	out, status = ts.run(t, client, "cat /tmp/private")
	assert.Equal(t, "cat: /tmp/private: No such file or directory\n", out)
	assert.Equal(t, 1, status)
}

func TestServer_pty(t *testing.T) {
	ts := newTestServer(t)
	client, err := ts.dial(t, "root", "secret")
	require.NoError(t, err)
	defer client.Close()

	sess, err := client.NewSession()
	require.NoError(t, err)
	defer sess.Close()
	require.NoError(t, sess.RequestPty("xterm", 24, 80, gossh.TerminalModes{}))

	out, err := sess.Output("echo $TERM; echo two")
	require.NoError(t, err)
	assert.Equal(t, "xterm\r\ntwo\r\n", string(out))
}

func TestServer_events(t *testing.T) {
	ts := newTestServer(t)
	client, err := ts.dial(t, "bob", "secret")
	require.NoError(t, err)
	defer client.Close()

	out, _ := ts.run(t, client, "echo recorded")
	require.Equal(t, "recorded\n", out)

	var types []logger.EventType
	var ttyLog string
	for _, le := range ts.logEntries(t) {
		types = append(types, le.Type)
		if le.Type == logger.TypeOpenTTYLog {
			ttyLog = le.GetString("name")
		}
	}

	assert.Equal(t, []logger.EventType{
		logger.TypeSessionStart,
		logger.TypeOpenTTYLog,
		logger.TypeTerminalUpdate,
		logger.TypeRunCommand,
	}, types)

	var report logger.InteractionReport
	for _, le := range ts.logEntries(t) {
		report.Update(le)
	}
	for _, le := range ts.logEntries(t) {
		session := report.Session(le.SessionID)
		require.NotNil(t, session)
		assert.Equal(t, "bob", session.Login.Username)
		assert.Equal(t, []string{"echo recorded"}, session.Commands)
	}

	fd, err := ts.configuration.OpenSessionLog(ttyLog)
	require.NoError(t, err)
	defer fd.Close()

	var replayed bytes.Buffer
	require.NoError(t, ttylog.Replay(ttylog.NewAsciicastLogSource(fd), ttylog.NewClientOutput(&replayed)))
	assert.Equal(t, "recorded\n", replayed.String())
}
