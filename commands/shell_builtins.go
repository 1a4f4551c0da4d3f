package commands

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/pborman/getopt/v2"

	"github.com/josephlewis42/clam/core/vos"
)

// AllBuiltins holds a list of all registered shell builtins
var AllBuiltins = make(map[string]ShellBuiltin)

type ShellBuiltin interface {
	Main(s *Shell, args []string) int
}

type ShellBuiltinFunc func(s *Shell, args []string) int

func (f ShellBuiltinFunc) Main(s *Shell, args []string) int {
	return f(s, args)
}

var _ ShellBuiltin = (ShellBuiltinFunc)(nil)

// ListBuiltins returns the names of all shell builtins in sorted order.
func ListBuiltins() []string {
	var out []string
	for name := range AllBuiltins {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Unset removes shell variables and exported environment variables.
func Unset(s *Shell, args []string) int {
	opts := getopt.New()
	opts.Bool('f', "treat NAME as a function")
	opts.Bool('v', "treat NAME as a variable")
	opts.Bool('n', "treat NAME as a reference")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	optErr := opts.Getopt(args, nil)
	if optErr != nil || *helpOpt {
		w := s.VirtualOS.Stdout()
		fmt.Fprintln(w, "usage: unset [-fvn] [NAME...]")
		fmt.Fprintln(w, "Unset shell values and functions.")
		if optErr != nil {
			return 2
		}
		return 0
	}

	for _, name := range opts.Args() {
		s.Runner.Vars().Unsetenv(name)
		s.VirtualOS.Unsetenv(name)
	}

	return 0
}

// Cd is the cd shell builtin
func Cd(s *Shell, args []string) int {
	switch len(args) {
	case 1:
		args = append(args, s.Runner.Lookup(EnvHome))
		fallthrough
	case 2:
		if err := s.VirtualOS.Chdir(args[1]); err != nil {
			fmt.Fprintf(s.VirtualOS.Stderr(), "%s: %v\n", args[0], err)
			return 1
		}
		s.VirtualOS.Setenv(EnvPWD, s.VirtualOS.Getwd())
	default:
		fmt.Fprintf(s.VirtualOS.Stderr(), "%s: too many arguments\n", args[0])
		return 1
	}
	return 0
}

// Exit quits the shell
func Exit(s *Shell, args []string) int {
	status := s.status
	switch len(args) {
	case 1:
	case 2:
		n, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(s.VirtualOS.Stderr(), "sh: exit: %s: numeric argument required\n", args[1])
			n = StatusSyntaxError
		}
		status = n & 0xff
	default:
		fmt.Fprintln(s.VirtualOS.Stderr(), "sh: exit: too many arguments")
		return 1
	}

	s.exitStatus = status
	s.Quit = true
	return status
}

func History(s *Shell, args []string) int {
	opts := getopt.New()
	clear := opts.Bool('c', "clear the history by deleting all entries")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(args, nil); err != nil || *helpOpt {
		w := s.VirtualOS.Stderr()
		if err != nil {
			fmt.Fprintln(w, err)
		}
		fmt.Fprintln(w, "Display or manipulate the history list")
		fmt.Fprintln(w, "Display the history list with line numbers.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Options:")
		opts.PrintOptions(w)
		return 1
	}

	if *clear {
		if s.Readline != nil {
			s.Readline.Operation.ResetHistory()
		}
		s.history = nil
		return 0
	}

	for i, line := range s.history {
		fmt.Fprintf(s.VirtualOS.Stdout(), "% 5d  %s\n", i+1, line)
	}
	return 0
}

func Help(s *Shell, args []string) int {
	w := s.VirtualOS.Stdout()
	fmt.Fprintln(w, "These shell commands are defined internally.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, s.color.Sprintf(ColorBoldBlue, "Builtins:"))

	for _, name := range ListBuiltins() {
		fmt.Fprintf(w, "  %s\n", name)
	}

	return 0
}

// Type reports how each name would be interpreted as a command.
func Type(s *Shell, args []string) int {
	status := 0
	for _, name := range args[1:] {
		if _, ok := AllBuiltins[name]; ok {
			fmt.Fprintf(s.VirtualOS.Stdout(), "%s is a shell builtin\n", name)
			continue
		}

		resolved, err := vos.LookPath(s.VirtualOS, s.VirtualOS.Getwd(), s.Runner.Lookup(EnvPath), name)
		if err != nil {
			fmt.Fprintf(s.VirtualOS.Stderr(), "sh: type: %s: not found\n", name)
			status = 1
			continue
		}
		fmt.Fprintf(s.VirtualOS.Stdout(), "%s is %s\n", name, resolved)
	}
	return status
}

func init() {
	AllBuiltins["unset"] = ShellBuiltinFunc(Unset)
	AllBuiltins["cd"] = ShellBuiltinFunc(Cd)
	AllBuiltins["history"] = ShellBuiltinFunc(History)
	AllBuiltins["help"] = ShellBuiltinFunc(Help)
	AllBuiltins["exit"] = ShellBuiltinFunc(Exit)
	AllBuiltins["type"] = ShellBuiltinFunc(Type)
}
