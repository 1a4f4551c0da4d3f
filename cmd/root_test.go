package cmd

import (
	"bytes"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephlewis42/clam/core/shell"
)

// resetFlags restores every flag to its default, cobra keeps flag state
// between executions.
func resetFlags(t *testing.T, cmd *cobra.Command) {
	t.Helper()

	reset := func(f *pflag.Flag) {
		require.NoError(t, f.Value.Set(f.DefValue))
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(t, child)
	}
}

// executeCommand runs the root command with args and returns its output.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(t, rootCmd)

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestParse(t *testing.T) {
	script := "echo hi | tr a-z A-Z > out.txt"

	commands, err := shell.Parse(script)
	require.NoError(t, err)
	require.Len(t, commands, 1)
	want, err := shell.Render(commands[0], shell.FormatJSON)
	require.NoError(t, err)

	out, err := executeCommand(t, "", "parse", "--format", "json", "-c", script)
	require.NoError(t, err)
	assert.Equal(t, string(want)+"\n", out)
}

func TestParse_stdinYAML(t *testing.T) {
	out, err := executeCommand(t, "A=1\nB=2\n", "parse")
	require.NoError(t, err)

	docs := strings.Split(out, "---\n")
	require.Len(t, docs, 2)
	assert.Contains(t, docs[0], "A")
	assert.Contains(t, docs[1], "B")
}

func TestParse_tokens(t *testing.T) {
	out, err := executeCommand(t, "", "parse", "--tokens", "-c", "a && b")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.True(t, len(lines) > 3)
	assert.Equal(t, []string{"1:1\tword \"a\"", "1:3\t'&&'", "1:6\tword \"b\""}, lines[:3])
}

func TestParse_errors(t *testing.T) {
	cases := map[string]struct {
		args    []string
		wantErr string
	}{
		"bad format":   {args: []string{"parse", "--format", "xml", "-c", "true"}, wantErr: `unknown format "xml"`},
		"syntax error": {args: []string{"parse", "-c", "if true; then"}, wantErr: "parse error"},
		"lexer error":  {args: []string{"parse", "-c", "echo 'open"}, wantErr: "lexer error"},
		"file and -c":  {args: []string{"parse", "-c", "true", "script.sh"}, wantErr: "can't use -c"},
	}

	for tn, tc := range cases {
		tc := tc
		t.Run(tn, func(t *testing.T) {
			_, err := executeCommand(t, "", tc.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestRun_builtin(t *testing.T) {
	out, err := executeCommand(t, "", "run", "--launcher", "builtin", "-c", "echo hi; whoami; exit 3")

	assert.Equal(t, "hi\nroot\n", out)
	assert.Equal(t, exitStatus(3), err)
}

func TestRun_success(t *testing.T) {
	out, err := executeCommand(t, "", "run", "--launcher", "builtin", "-c", "true")

	assert.Equal(t, "", out)
	assert.NoError(t, err)
}

func TestRun_badLauncher(t *testing.T) {
	_, err := executeCommand(t, "", "run", "--launcher", "nope", "-c", "true")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown launcher "nope"`)
}

func TestRun_recordAndReplay(t *testing.T) {
	castPath := filepath.Join(t.TempDir(), "session.cast")

	_, err := executeCommand(t, "echo typed\nexit 2\n", "run", "--launcher", "builtin", "--record", castPath)
	assert.Equal(t, exitStatus(2), err)

	out, err := executeCommand(t, "", "logs", "input", castPath)
	require.NoError(t, err)
	assert.Equal(t, "echo typed\nexit 2\n", out)

	out, err = executeCommand(t, "", "logs", "cat", castPath)
	require.NoError(t, err)
	assert.Contains(t, out, "typed\n")
}

func TestLogs_missing(t *testing.T) {
	_, err := executeCommand(t, "", "logs", "cat", filepath.Join(t.TempDir(), "missing.cast"))

	assert.Error(t, err)
}

func TestEvents(t *testing.T) {
	dir := t.TempDir()
	_, err := executeCommand(t, "", "init", "--config", dir)
	require.NoError(t, err)

	_, err = executeCommand(t, "", "run", "--config", dir, "--launcher", "builtin", "-c", "echo hi; nope")
	assert.Equal(t, exitStatus(127), err)

	out, err := executeCommand(t, "", "events", "sessions", "--config", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "echo hi; nope")
	assert.Contains(t, out, "username: root")

	out, err = executeCommand(t, "", "events", "bugs", "--config", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "nope")

	out, err = executeCommand(t, "", "events", "report", "--config", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "sessions: 1")
}

func TestEvents_notInitialized(t *testing.T) {
	_, err := executeCommand(t, "", "events", "report", "--config", filepath.Join(t.TempDir(), "missing"))

	assert.Error(t, err)
}

func TestBuiltins(t *testing.T) {
	out, err := executeCommand(t, "", "builtins")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, lines, "shell:cd")
	assert.Contains(t, out, "echo")
	assert.True(t, sort.StringsAreSorted(lines))
}
