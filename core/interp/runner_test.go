package interp

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephlewis42/clam/core/shell"
	"github.com/josephlewis42/clam/core/vos"
)

type launch struct {
	Name string
	Args []string
	Env  []string
}

// fakeLauncher records launches. Programs not in programs exit 0, except
// "false" which exits 1 and "missing" which can't be started.
type fakeLauncher struct {
	programs map[string]func(args []string) int
	launches []launch
}

func (f *fakeLauncher) Launch(name string, args []string, env []string) (int, error) {
	f.launches = append(f.launches, launch{Name: name, Args: args, Env: env})

	if prog, ok := f.programs[name]; ok {
		return prog(args), nil
	}

	switch name {
	case "false":
		return 1, nil
	case "missing":
		return 0, &vos.LaunchError{Program: name, Err: vos.ErrNotFound}
	default:
		return 0, nil
	}
}

// argvs returns the name and arguments of every launch.
func (f *fakeLauncher) argvs() [][]string {
	var out [][]string
	for _, l := range f.launches {
		out = append(out, append([]string{l.Name}, l.Args...))
	}
	return out
}

func newTestRunner(opts ...RunnerOption) (*Runner, *fakeLauncher) {
	launcher := &fakeLauncher{}
	opts = append([]RunnerOption{WithHostEnv(vos.NewMapEnvFromEnvList([]string{
		"HOME=/home/user",
		"PATH=/bin",
	}))}, opts...)
	return New(launcher, opts...), launcher
}

// runScript parses input and runs every top-level command, stopping at the
// first error.
func runScript(t *testing.T, r *Runner, input string) (int, error) {
	t.Helper()

	commands, err := shell.Parse(input)
	require.NoError(t, err)

	status := 0
	for _, cmd := range commands {
		status, err = r.Run(context.Background(), cmd)
		if err != nil {
			return status, err
		}
	}
	return status, nil
}

func TestRunner_assignment(t *testing.T) {
	r, launcher := newTestRunner()

	status, err := runScript(t, r, "FOO=bar")
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Empty(t, launcher.launches)

	assert.Equal(t, "bar", r.Expand("$FOO"))
	assert.Equal(t, "bar", r.Expand("${FOO}"))
	assert.Equal(t, "bar", r.Vars().Getenv("FOO"))
}

func TestRunner_assignmentsStoreRawValues(t *testing.T) {
	r, launcher := newTestRunner()

	_, err := runScript(t, r, "A=B AA=$A$A; echo $AA\nH=$HOME\necho $H a$ b")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"echo", "$A$A"},
		{"echo", "$HOME", "a", "b"},
	}, launcher.argvs())

	val, ok := r.Vars().LookupEnv("H")
	require.True(t, ok)
	assert.Equal(t, "$HOME", val)
}

func TestRunner_prefixAssignments(t *testing.T) {
	r, launcher := newTestRunner()

	_, err := runScript(t, r, "A=B AA=$A$A env $AA")
	require.NoError(t, err)

	require.Len(t, launcher.launches, 1)
	got := launcher.launches[0]
	assert.Equal(t, "env", got.Name)
	assert.Empty(t, got.Args, "prefix assignments don't apply to expansion of the command's words")
	assert.Equal(t, []string{"A=B", "AA=$A$A", "HOME=/home/user", "PATH=/bin"}, got.Env)

	_, ok := r.Vars().LookupEnv("A")
	assert.False(t, ok, "prefix assignments aren't persisted")
}

func TestRunner_environmentLayers(t *testing.T) {
	r, launcher := newTestRunner(WithHostEnv(vos.NewMapEnvFromEnvList([]string{
		"Z=host",
		"A=host",
		"B=host",
		"C=host",
	})))

	_, err := runScript(t, r, "B=var C=var\nC=prefix prog")
	require.NoError(t, err)

	require.Len(t, launcher.launches, 1)
	assert.Equal(t, []string{"A=host", "B=var", "C=prefix", "Z=host"}, launcher.launches[0].Env)
}

func TestRunner_hostEnvFallback(t *testing.T) {
	r, _ := newTestRunner()

	assert.Equal(t, "/home/user/bin", r.Expand("$HOME/bin"))

	_, err := runScript(t, r, "HOME=/root")
	require.NoError(t, err)
	assert.Equal(t, "/root/bin", r.Expand("$HOME/bin"))
	assert.Equal(t, "", r.Expand("$UNSET"))
}

func TestRunner_wordSplitting(t *testing.T) {
	r, launcher := newTestRunner()

	_, err := runScript(t, r, "A=\"x  y\tz\"\necho $A 'a b' end")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"echo", "x", "y", "z", "a", "b", "end"}}, launcher.argvs())
}

func TestRunner_emptyAfterExpansion(t *testing.T) {
	r, launcher := newTestRunner()

	status, err := runScript(t, r, "$EMPTY ${EMPTY}")
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Empty(t, launcher.launches)
}

func TestRunner_programNameFromExpansion(t *testing.T) {
	r, launcher := newTestRunner()

	_, err := runScript(t, r, "CMD=\"ls -la\"\n$CMD /tmp")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ls", "-la", "/tmp"}}, launcher.argvs())
}

func TestRunner_status(t *testing.T) {
	r, launcher := newTestRunner()
	launcher.programs = map[string]func([]string) int{
		"exit42": func([]string) int { return 42 },
	}

	status, err := runScript(t, r, "exit42")
	require.NoError(t, err)
	assert.Equal(t, 42, status)
	assert.Equal(t, 42, r.LastStatus())
	assert.Equal(t, "42", r.Expand("$?"))

	status, err = runScript(t, r, "X=1")
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, 42, r.LastStatus(), "assignments don't launch anything")
}

func TestRunner_andOr(t *testing.T) {
	cases := map[string]struct {
		input  string
		want   [][]string
		status int
	}{
		"and runs on success":  {"true && echo success", [][]string{{"true"}, {"echo", "success"}}, 0},
		"and skips on failure": {"false && echo success", [][]string{{"false"}}, 1},
		"or runs on failure":   {"false || echo fallback", [][]string{{"false"}, {"echo", "fallback"}}, 0},
		"or skips on success":  {"true || echo fallback", [][]string{{"true"}}, 0},
		"and then or":          {"false && echo a || echo b", [][]string{{"false"}, {"echo", "b"}}, 0},
		"or then and":          {"true || echo a && echo b", [][]string{{"true"}, {"echo", "b"}}, 0},
		"chain of ands":        {"true && false && echo c", [][]string{{"true"}, {"false"}}, 1},
		"sequential":           {"false; echo a; echo b", [][]string{{"false"}, {"echo", "a"}, {"echo", "b"}}, 0},
		"background":           {"echo a & echo b &", [][]string{{"echo", "a"}, {"echo", "b"}}, 0},
		"mixed list":           {"false && echo a; echo b", [][]string{{"false"}, {"echo", "b"}}, 0},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			r, launcher := newTestRunner()

			status, err := runScript(t, r, tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.want, launcher.argvs())
		})
	}
}

func TestRunner_flatListSkipping(t *testing.T) {
	r, launcher := newTestRunner()

	list := &shell.List{Items: []shell.ListItem{
		{Command: simple("false"), Separator: shell.AndIf},
		{Command: simple("skipped"), Separator: shell.OrIf},
		{Command: simple("ran"), Separator: shell.Sequential},
	}}

	status, err := r.Run(context.Background(), list)
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, [][]string{{"false"}, {"ran"}}, launcher.argvs())
}

func simple(words ...string) *shell.SimpleCommand {
	cmd := &shell.SimpleCommand{}
	for _, w := range words {
		cmd.Words = append(cmd.Words, shell.Word{Value: w})
	}
	return cmd
}

func TestRunner_if(t *testing.T) {
	cases := map[string]struct {
		input  string
		want   [][]string
		status int
	}{
		"then":               {"if true; then echo a; echo b; fi", [][]string{{"true"}, {"echo", "a"}, {"echo", "b"}}, 0},
		"false without else": {"if false; then echo a; fi", [][]string{{"false"}}, 0},
		"else":               {"if false; then echo a; else echo b; fi", [][]string{{"false"}, {"echo", "b"}}, 0},
		"first elif": {
			"if false; then echo a; elif true; then echo b; elif true; then echo c; else echo d; fi",
			[][]string{{"false"}, {"true"}, {"echo", "b"}},
			0,
		},
		"no elif matches": {
			"if false; then echo a; elif false; then echo b; fi",
			[][]string{{"false"}, {"false"}},
			0,
		},
		"branch status": {"if true; then false; fi", [][]string{{"true"}, {"false"}}, 1},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			r, launcher := newTestRunner()

			status, err := runScript(t, r, tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.want, launcher.argvs())
		})
	}
}

// countdown returns a program that succeeds n times then fails forever.
func countdown(n int) func([]string) int {
	return func([]string) int {
		if n > 0 {
			n--
			return 0
		}
		return 1
	}
}

func TestRunner_while(t *testing.T) {
	r, launcher := newTestRunner()
	launcher.programs = map[string]func([]string) int{
		"cond": countdown(3),
		"body": func([]string) int { return 7 },
	}

	status, err := runScript(t, r, "while cond; do body; done")
	require.NoError(t, err)
	assert.Equal(t, 0, status, "loops always succeed")
	assert.Equal(t, [][]string{{"cond"}, {"body"}, {"cond"}, {"body"}, {"cond"}, {"body"}, {"cond"}}, launcher.argvs())
}

func TestRunner_until(t *testing.T) {
	r, launcher := newTestRunner()
	launcher.programs = map[string]func([]string) int{
		// Fails twice, then succeeds.
		"cond": func() func([]string) int {
			calls := 0
			return func([]string) int {
				calls++
				if calls > 2 {
					return 0
				}
				return 1
			}
		}(),
	}

	status, err := runScript(t, r, "until cond\ndo\n  body\ndone")
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, [][]string{{"cond"}, {"body"}, {"cond"}, {"body"}, {"cond"}}, launcher.argvs())
}

func TestRunner_for(t *testing.T) {
	cases := map[string]struct {
		input string
		words []string
	}{
		"three words": {"for x in a b c; do echo $x; done", []string{"a", "b", "c"}},
		"one word":    {"for x in only; do echo $x; done", []string{"only"}},
		"no words":    {"for x in; do echo $x; done", nil},
		"no in":       {"for x do echo $x; done", nil},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			r, launcher := newTestRunner()
			require.NoError(t, r.Vars().Setenv("x", "before"))

			status, err := runScript(t, r, tc.input)
			require.NoError(t, err)
			assert.Equal(t, 0, status)

			var want [][]string
			for _, w := range tc.words {
				want = append(want, []string{"echo", w})
			}
			assert.Equal(t, want, launcher.argvs())

			if len(tc.words) == 0 {
				assert.Equal(t, "before", r.Vars().Getenv("x"))
			} else {
				assert.Equal(t, tc.words[len(tc.words)-1], r.Vars().Getenv("x"))
			}
		})
	}
}

func TestRunner_forWordsAreLiteral(t *testing.T) {
	r, launcher := newTestRunner()

	_, err := runScript(t, r, "A=expanded\nfor x in $A; do echo $x; done")
	require.NoError(t, err)

	// Loop words aren't expanded and expansion isn't recursive.
	assert.Equal(t, "$A", r.Vars().Getenv("x"))
	assert.Equal(t, [][]string{{"echo", "$A"}}, launcher.argvs())
}

func TestRunner_notImplemented(t *testing.T) {
	cases := map[string]struct {
		input   string
		wantErr string
	}{
		"redirection":          {"echo hello > file.txt", "redirection execution not yet implemented"},
		"assignment redirect":  {"A=b > file.txt", "redirection execution not yet implemented"},
		"pipeline":             {"cat file | grep foo", "pipeline execution not yet implemented"},
		"negated":              {"! true", "pipeline execution not yet implemented"},
		"subshell":             {"(echo a)", "subshell execution not yet implemented"},
		"case":                 {"case x in x) echo a;; esac", "case execution not yet implemented"},
		"group":                {"{ echo a; }", "group execution not yet implemented"},
		"function":             {"function f { echo a; }", "function definition execution not yet implemented"},
		"nested in if":         {"if true; then echo a | cat; fi", "pipeline execution not yet implemented"},
		"nested in and":        {"true && echo a > b", "redirection execution not yet implemented"},
		"condition of a while": {"while true | true; do echo a; done", "pipeline execution not yet implemented"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			r, _ := newTestRunner()

			_, err := runScript(t, r, tc.input)
			assert.EqualError(t, err, tc.wantErr)
			assert.True(t, errors.Is(err, ErrNotImplemented))
			assert.False(t, errors.Is(err, ErrInternal))
		})
	}
}

func TestRunner_redirectionNotLaunched(t *testing.T) {
	r, launcher := newTestRunner()

	_, err := runScript(t, r, "echo hello > file.txt")
	assert.Error(t, err)
	assert.Empty(t, launcher.launches)
}

func TestRunner_errorAbortsCommand(t *testing.T) {
	r, launcher := newTestRunner()

	_, err := runScript(t, r, "echo a; missing; echo b")
	var launchErr *vos.LaunchError
	require.True(t, errors.As(err, &launchErr))
	assert.Equal(t, "failed to execute 'missing': executable file not found in $PATH", err.Error())
	assert.Equal(t, [][]string{{"echo", "a"}, {"missing"}}, launcher.argvs())

	// The next command still runs.
	_, err = runScript(t, r, "echo c")
	assert.NoError(t, err)
}

func TestRunner_internalErrors(t *testing.T) {
	cases := map[string]shell.Command{
		"pipe separator": &shell.List{Items: []shell.ListItem{
			{Command: simple("a"), Separator: shell.PipeTo},
			{Command: simple("b"), Separator: shell.Sequential},
		}},
		"nil command": nil,
	}

	for tn, cmd := range cases {
		t.Run(tn, func(t *testing.T) {
			r, _ := newTestRunner()

			_, err := r.Run(context.Background(), cmd)
			assert.True(t, errors.Is(err, ErrInternal), "got %v", err)
		})
	}
}

func TestRunner_trace(t *testing.T) {
	buf := &bytes.Buffer{}
	r, _ := newTestRunner(WithTrace(buf))

	_, err := runScript(t, r, "NAME=world; echo hello $NAME && true")
	require.NoError(t, err)
	assert.Equal(t, "+ echo hello world\n+ true\n", buf.String())
}

func TestRunner_withVars(t *testing.T) {
	vars := vos.NewMapEnvFromEnvList([]string{"GREETING=hi"})
	r, launcher := newTestRunner(WithVars(vars))

	_, err := runScript(t, r, "echo $GREETING; GREETING=bye")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"echo", "hi"}}, launcher.argvs())
	assert.Equal(t, "bye", vars.Getenv("GREETING"))
}

func TestRunner_independentSessions(t *testing.T) {
	first, _ := newTestRunner()
	second, _ := newTestRunner()

	_, err := runScript(t, first, "FOO=one")
	require.NoError(t, err)

	assert.Equal(t, "one", first.Expand("$FOO"))
	assert.Equal(t, "", second.Expand("$FOO"))
}

func TestRunner_canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r, launcher := newTestRunner()
	launcher.programs = map[string]func([]string) int{
		"body": func() func([]string) int {
			calls := 0
			return func([]string) int {
				calls++
				if calls == 3 {
					cancel()
				}
				return 0
			}
		}(),
	}

	commands, err := shell.Parse("while true; do body; done")
	require.NoError(t, err)

	_, err = r.Run(ctx, commands[0])
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, launcher.argvs(), 6)
}
