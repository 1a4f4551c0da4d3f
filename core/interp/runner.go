package interp

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/josephlewis42/clam/core/shell"
	"github.com/josephlewis42/clam/core/vos"
)

// Runner executes syntax trees. It owns the shell variables of a single
// session and isn't safe for concurrent use.
type Runner struct {
	vars       *vos.MapEnv
	hostEnv    vos.VEnv
	launcher   vos.Launcher
	lastStatus int
	trace      io.Writer
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithHostEnv sets the environment consulted after the shell variables and
// inherited by every launched program. The default is the environment of
// the running process.
func WithHostEnv(env vos.VEnv) RunnerOption {
	return func(r *Runner) {
		r.hostEnv = env
	}
}

// WithTrace writes each command to w before it's launched, like set -x.
func WithTrace(w io.Writer) RunnerOption {
	return func(r *Runner) {
		r.trace = w
	}
}

// WithVars seeds the shell variables.
func WithVars(vars *vos.MapEnv) RunnerOption {
	return func(r *Runner) {
		r.vars = vars
	}
}

// New creates a Runner that starts programs with launcher.
func New(launcher vos.Launcher, opts ...RunnerOption) *Runner {
	r := &Runner{
		vars:     vos.NewMapEnv(),
		hostEnv:  vos.OSEnv{},
		launcher: launcher,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LastStatus returns the exit status of the last launched program.
func (r *Runner) LastStatus() int {
	return r.lastStatus
}

// Vars returns the shell variables.
func (r *Runner) Vars() *vos.MapEnv {
	return r.vars
}

// Lookup returns the value of a shell variable, falling back to the host
// environment.
func (r *Runner) Lookup(name string) string {
	if val, ok := r.vars.LookupEnv(name); ok {
		return val
	}
	return r.hostEnv.Getenv(name)
}

// Expand expands variable references in word.
func (r *Runner) Expand(word string) string {
	return Expand(word, statusLookup(r.lastStatus, r.Lookup))
}

// Run executes cmd and returns its exit status. Errors abort cmd and
// everything nested inside it.
func (r *Runner) Run(ctx context.Context, cmd shell.Command) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	switch cmd := cmd.(type) {
	case *shell.SimpleCommand:
		return r.runSimple(ctx, cmd)
	case *shell.List:
		return r.runList(ctx, cmd)
	case *shell.IfCommand:
		return r.runIf(ctx, cmd)
	case *shell.WhileCommand:
		return r.runLoop(ctx, cmd.Condition, cmd.Body, true)
	case *shell.UntilCommand:
		return r.runLoop(ctx, cmd.Condition, cmd.Body, false)
	case *shell.ForCommand:
		return r.runFor(ctx, cmd)
	case *shell.Pipeline:
		return 0, &UnimplementedError{Construct: "pipeline"}
	case *shell.Subshell:
		return 0, &UnimplementedError{Construct: "subshell"}
	case *shell.CaseCommand:
		return 0, &UnimplementedError{Construct: "case"}
	case *shell.Group:
		return 0, &UnimplementedError{Construct: "group"}
	case *shell.FunctionDef:
		return 0, &UnimplementedError{Construct: "function definition"}
	default:
		return 0, fmt.Errorf("%w: unknown command type %T", ErrInternal, cmd)
	}
}

func (r *Runner) runSimple(ctx context.Context, cmd *shell.SimpleCommand) (int, error) {
	if len(cmd.Redirections) > 0 {
		return 0, &UnimplementedError{Construct: "redirection"}
	}

	// Assignment values are stored as written and expanded when referenced.
	if len(cmd.Words) == 0 {
		for _, assignment := range cmd.Assignments {
			if err := r.vars.Setenv(assignment.Name, assignment.Value); err != nil {
				return 0, err
			}
		}
		return 0, nil
	}

	var argv []string
	for _, word := range cmd.Words {
		argv = append(argv, SplitFields(r.Expand(word.Value))...)
	}
	if len(argv) == 0 {
		return 0, nil
	}

	// Prefix assignments never reach the shell variables.
	overlay := vos.NewMapEnv()
	for _, assignment := range cmd.Assignments {
		if err := overlay.Setenv(assignment.Name, assignment.Value); err != nil {
			return 0, err
		}
	}

	env := vos.NewMapEnvFrom(r.hostEnv)
	for _, layer := range []vos.EnvironFetcher{r.vars, overlay} {
		if err := vos.CopyEnv(env, layer); err != nil {
			return 0, err
		}
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if r.trace != nil {
		fmt.Fprintf(r.trace, "+ %s\n", strings.Join(argv, " "))
	}

	status, err := r.launcher.Launch(argv[0], argv[1:], env.Environ())
	if err != nil {
		return 0, err
	}
	r.lastStatus = status
	return status, nil
}

// runList evaluates items in order. After an && item fails or an || item
// succeeds the next item is skipped, but its separator is still applied
// to the unchanged status.
func (r *Runner) runList(ctx context.Context, list *shell.List) (int, error) {
	status := 0
	skip := false

	for _, item := range list.Items {
		if !skip {
			var err error
			status, err = r.Run(ctx, item.Command)
			if err != nil {
				return status, err
			}
		}

		switch item.Separator {
		case shell.AndIf:
			skip = status != 0
		case shell.OrIf:
			skip = status == 0
		case shell.Sequential, shell.Background:
			// Background items run to completion like sequential ones.
			skip = false
		default:
			return status, fmt.Errorf("%w: %s separator in list", ErrInternal, item.Separator)
		}
	}

	return status, nil
}

func (r *Runner) runIf(ctx context.Context, cmd *shell.IfCommand) (int, error) {
	status, err := r.Run(ctx, cmd.Condition)
	if err != nil {
		return status, err
	}
	if status == 0 {
		return r.Run(ctx, cmd.ThenPart)
	}

	for _, elif := range cmd.ElifParts {
		status, err := r.Run(ctx, elif.Condition)
		if err != nil {
			return status, err
		}
		if status == 0 {
			return r.Run(ctx, elif.Body)
		}
	}

	if cmd.ElsePart != nil {
		return r.Run(ctx, cmd.ElsePart)
	}
	return 0, nil
}

// runLoop runs body while the condition's success matches whileTrue.
func (r *Runner) runLoop(ctx context.Context, condition, body shell.Command, whileTrue bool) (int, error) {
	for {
		status, err := r.Run(ctx, condition)
		if err != nil {
			return status, err
		}
		if (status == 0) != whileTrue {
			return 0, nil
		}

		if _, err := r.Run(ctx, body); err != nil {
			return 0, err
		}
	}
}

func (r *Runner) runFor(ctx context.Context, cmd *shell.ForCommand) (int, error) {
	for _, word := range cmd.Words {
		if err := r.vars.Setenv(cmd.Variable, word); err != nil {
			return 0, err
		}
		if _, err := r.Run(ctx, cmd.Body); err != nil {
			return 0, err
		}
	}
	return 0, nil
}
