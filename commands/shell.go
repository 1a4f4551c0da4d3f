package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/spf13/afero"

	"github.com/josephlewis42/clam/core/interp"
	"github.com/josephlewis42/clam/core/logger"
	"github.com/josephlewis42/clam/core/shell"
	"github.com/josephlewis42/clam/core/vos"
)

const (
	EnvHome            = "HOME"
	EnvPWD             = "PWD"
	EnvPath            = "PATH"
	EnvPrompt          = "PS1"
	EnvHostname        = "HOSTNAME"
	EnvUser            = "USER"
	DefaultColorPrompt = `\033[01;32m\u@\h\033[00m:\033[01;34m\w\033[00m\$ `
	DefaultPrompt      = `\u@\h:\w\$ `
)

// Exit statuses for failures that happen before a program runs.
const (
	StatusSyntaxError = 2
	StatusCantExecute = 126
	StatusNotFound    = 127
)

// errQuit unwinds the runner when the exit builtin is called.
var errQuit = errors.New("exit requested")

// ShellOptions holds the defaults for a shell, command line flags override
// them.
type ShellOptions struct {
	// Prompt is used instead of $PS1 when set.
	Prompt string
	// HistoryFile is a file on the host that history is persisted to. History
	// is only kept in memory if it's empty.
	HistoryFile string
	// HistoryLimit is the maximum number of history entries to keep.
	HistoryLimit int
	// NewLauncher creates the launcher used for anything that isn't a
	// builtin. By default in-process programs are run.
	NewLauncher func(parent vos.VOS) vos.Launcher
	// Color is one of always, auto or never.
	Color string
	// ASTFormat prints each parsed command in the given format when set.
	ASTFormat string
	// Trace prints each command before it's run.
	Trace bool
	// HostTerminal puts the host terminal in raw mode while a line is read.
	// It's only needed when stdin is the host terminal behind a wrapper.
	HostTerminal bool
}

// Shell is an interactive command interpreter.
type Shell struct {
	VirtualOS vos.VOS
	Readline  *readline.Instance
	Runner    *interp.Runner
	Options   ShellOptions

	launcher  vos.Launcher
	events    vos.EventRecorder
	color     ColorPrinter
	astFormat shell.Format

	// status is the exit status of the last line, including failures to
	// parse or launch.
	status     int
	exitStatus int
	history    []string

	// Set to true to quit the shell
	Quit bool
}

var _ vos.Launcher = (*Shell)(nil)

// RunShell is the sh program.
func RunShell(virtualOS vos.VOS) int {
	return runShell(virtualOS, ShellOptions{})
}

// NewShellProcess creates an sh program with different defaults.
func NewShellProcess(options ShellOptions) vos.ProcessFunc {
	return func(virtualOS vos.VOS) int {
		return runShell(virtualOS, options)
	}
}

func runShell(virtualOS vos.VOS, options ShellOptions) int {
	cmd := &SimpleCommand{
		Use:   "sh [-x] [--show-ast FORMAT] [--color WHEN] [-c COMMAND | FILE]",
		Short: "Command interpreter for the system.",
	}
	flags := cmd.Flags()

	var command string
	commandOpt := flags.Flag(&command, 'c', "read commands from the COMMAND string")
	trace := flags.Bool('x', "print commands and their arguments as they are executed")
	astFormat := flags.StringLong("show-ast", 0, options.ASTFormat, "print each parsed command as json or yaml", "FORMAT")

	s := newShell(virtualOS, options)
	s.color.Init(flags, virtualOS, options.Color)

	return cmd.Run(virtualOS, func() int {
		switch shell.Format(*astFormat) {
		case "", shell.FormatJSON, shell.FormatYAML:
			s.astFormat = shell.Format(*astFormat)
		default:
			fmt.Fprintf(virtualOS.Stderr(), "sh: unknown --show-ast format %q\n", *astFormat)
			return StatusSyntaxError
		}

		runnerOpts := []interp.RunnerOption{interp.WithHostEnv(virtualOS)}
		if *trace || options.Trace {
			runnerOpts = append(runnerOpts, interp.WithTrace(virtualOS.Stderr()))
		}
		s.Runner = interp.New(s, runnerOpts...)

		switch {
		case commandOpt.Seen():
			s.runInput(command)
			return s.status
		case len(flags.Args()) > 0:
			return s.runFile(flags.Args()[0])
		default:
			return s.runInteractive()
		}
	})
}

func newShell(virtualOS vos.VOS, options ShellOptions) *Shell {
	newLauncher := options.NewLauncher
	if newLauncher == nil {
		newLauncher = func(parent vos.VOS) vos.Launcher {
			return vos.NewProcessLauncher(parent)
		}
	}

	var events vos.EventRecorder = vos.NopEventRecorder{}
	if recorder, ok := virtualOS.(vos.EventRecorder); ok {
		events = recorder
	}

	s := &Shell{
		VirtualOS: virtualOS,
		Options:   options,
		launcher:  newLauncher(virtualOS),
		events:    events,
	}
	s.Runner = interp.New(s, interp.WithHostEnv(virtualOS))
	s.Init()

	return s
}

// Init sets up the environment similar to login + source ~/.bashrc.
func (s *Shell) Init() {
	s.VirtualOS.Setenv(EnvHostname, s.VirtualOS.Hostname())
	s.VirtualOS.Setenv(EnvPWD, s.VirtualOS.Getwd())
	if s.VirtualOS.Getenv(EnvUser) == "" {
		s.VirtualOS.Setenv(EnvUser, s.VirtualOS.User())
	}
}

func (s *Shell) prompt() string {
	prompt := s.Options.Prompt
	if prompt == "" {
		prompt = s.Runner.Lookup(EnvPrompt)
	}
	if prompt == "" {
		prompt = DefaultPrompt
		if s.color.ShouldColor() {
			prompt = DefaultColorPrompt
		}
	}

	user := s.Runner.Lookup(EnvUser)
	prompt = strings.ReplaceAll(prompt, `\u`, user)
	prompt = strings.ReplaceAll(prompt, `\h`, s.VirtualOS.Hostname())

	pwd := s.VirtualOS.Getwd()
	home := s.Runner.Lookup(EnvHome)
	if home != "" && strings.HasPrefix(pwd, home) {
		pwd = "~" + strings.TrimPrefix(pwd, home)
	}

	prompt = strings.ReplaceAll(prompt, `\w`, pwd)

	if user == "root" {
		prompt = strings.ReplaceAll(prompt, `\$`, "#")
	} else {
		prompt = strings.ReplaceAll(prompt, `\$`, "$")
	}

	out, _ := unescape(prompt)
	return out
}

// Launch implements vos.Launcher, builtins are checked before programs.
func (s *Shell) Launch(name string, args []string, env []string) (int, error) {
	if builtin, ok := AllBuiltins[name]; ok {
		s.status = builtin.Main(s, append([]string{name}, args...))
		if s.Quit {
			return s.status, errQuit
		}
		return s.status, nil
	}

	status, err := s.launcher.Launch(name, args, env)
	switch {
	case errors.Is(err, vos.ErrNotFound):
		s.record(logger.UnknownCommand(append([]string{name}, args...)))
	case err == nil:
		s.status = status
	}
	return status, err
}

func (s *Shell) record(event logger.Event) {
	if err := s.events.Record(event); err != nil {
		log.Printf("sh: recording %s: %v", event.Type, err)
	}
}

func (s *Shell) reportError(stage string, err error) {
	label := s.color.Sprintf(ColorBoldRed, "sh: %s error:", stage)
	fmt.Fprintf(s.VirtualOS.Stderr(), "%s %v\n", label, err)
}

// runInput lexes, parses and runs input. A failure in one top-level command
// doesn't stop the ones after it.
func (s *Shell) runInput(input string) {
	if strings.TrimSpace(input) == "" {
		return
	}
	s.record(logger.RunCommand(input))

	tokens, err := shell.Tokenize(input)
	if err != nil {
		s.reportError("lexer", err)
		s.record(logger.SyntaxError("lexer", input, err))
		s.status = StatusSyntaxError
		return
	}

	commands, err := shell.NewParser(tokens).Parse()
	if err != nil {
		s.reportError("parse", err)
		s.record(logger.SyntaxError("parse", input, err))
		s.status = StatusSyntaxError
		return
	}

	for _, cmd := range commands {
		if s.astFormat != "" {
			out, err := shell.Render(cmd, s.astFormat)
			if err != nil {
				s.reportError("render", err)
			} else {
				fmt.Fprintln(s.VirtualOS.Stdout(), strings.TrimSuffix(string(out), "\n"))
			}
		}

		status, err := s.Runner.Run(context.Background(), cmd)
		switch {
		case errors.Is(err, errQuit):
			s.status = s.exitStatus
			return
		case errors.Is(err, vos.ErrNotFound):
			s.reportError("execution", err)
			s.status = StatusNotFound
		case err != nil:
			s.reportError("execution", err)
			s.record(logger.ExecutionError(input, err))
			s.status = StatusCantExecute
			if errors.Is(err, interp.ErrNotImplemented) || errors.Is(err, interp.ErrInternal) {
				s.status = 1
			}
		default:
			s.status = status
		}
	}
}

func (s *Shell) runFile(name string) int {
	if !path.IsAbs(name) {
		name = path.Join(s.VirtualOS.Getwd(), name)
	}

	script, err := afero.ReadFile(s.VirtualOS, name)
	if err != nil {
		fmt.Fprintf(s.VirtualOS.Stderr(), "sh: %s: No such file or directory\n", name)
		return StatusNotFound
	}

	s.runInput(string(script))
	return s.status
}

func (s *Shell) newReadline() (*readline.Instance, error) {
	cfg := &readline.Config{
		Stdin:                  readline.NewCancelableStdin(s.VirtualOS.Stdin()),
		Stdout:                 s.VirtualOS.Stdout(),
		Stderr:                 s.VirtualOS.Stderr(),
		HistoryFile:            s.Options.HistoryFile,
		HistoryLimit:           s.Options.HistoryLimit,
		DisableAutoSaveHistory: true,
		FuncGetWidth: func() int {
			return s.VirtualOS.GetPTY().Width
		},
		FuncIsTerminal: func() bool {
			return s.VirtualOS.GetPTY().IsPTY
		},
	}

	// Only the host terminal can be put in raw mode, remote terminals are
	// already raw.
	if _, ok := s.VirtualOS.Stdin().(*os.File); !ok && !s.Options.HostTerminal {
		cfg.FuncMakeRaw = func() error { return nil }
		cfg.FuncExitRaw = func() error { return nil }
	}

	return readline.NewEx(cfg)
}

func (s *Shell) runInteractive() int {
	rl, err := s.newReadline()
	if err != nil {
		fmt.Fprintf(s.VirtualOS.Stderr(), "sh: %s\n", err)
		return 1
	}
	defer rl.Close()
	s.Readline = rl

	for !s.Quit {
		rl.SetPrompt(s.prompt())
		line, err := rl.Readline()

		switch {
		case err == io.EOF:
			return s.status // Input closed, quit.

		case err == readline.ErrInterrupt:
			// Interrupt clears line.
			continue

		case err != nil:
			log.Printf("Error readline: %v", err)
			return 1
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		s.history = append(s.history, line)
		if err := rl.SaveHistory(line); err != nil {
			log.Printf("sh: saving history: %v", err)
		}

		s.runInput(line)
	}

	return s.status
}

func init() {
	mustAddBinCmd("sh", RunShell)
}
