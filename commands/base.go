package commands

import (
	"fmt"
	"io"
	"path"
	"sort"

	"github.com/fatih/color"
	getopt "github.com/pborman/getopt/v2"

	"github.com/josephlewis42/clam/core/vos"
)

// AllCommands holds all registered programs by absolute path.
var AllCommands = make(map[string]vos.ProcessFunc)

// BuiltinCommand is a program installed under one or more paths.
type BuiltinCommand struct {
	Names []string
	Proc  vos.ProcessFunc
}

var builtinCommands []BuiltinCommand

func mustAddCmd(cmd vos.ProcessFunc, paths ...string) {
	for _, p := range paths {
		if _, ok := AllCommands[p]; ok {
			panic(fmt.Sprintf("duplicate command %q", p))
		}
		AllCommands[p] = cmd
	}
	builtinCommands = append(builtinCommands, BuiltinCommand{Names: paths, Proc: cmd})
}

// mustAddBinCmd adds a command under /bin and /usr/bin.
func mustAddBinCmd(name string, cmd vos.ProcessFunc) {
	mustAddCmd(cmd, path.Join("/bin", name), path.Join("/usr/bin", name))
}

// ListBuiltinCommands returns every registered program sorted by its first
// path.
func ListBuiltinCommands() []BuiltinCommand {
	out := append([]BuiltinCommand(nil), builtinCommands...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Names[0] < out[j].Names[0]
	})
	return out
}

type SimpleCommand struct {
	// Use holds a one line usage string
	Use string
	// Short holds a one line description of the command.
	Short string
	// ShowHelp sets whether help is displayed or not.
	// If this is non-nil when Run() is called, then the default help flag isn't
	// added.
	ShowHelp *bool
	// NeverBail skips interacting with stdout/stderr on failure and
	// always runs the callback.
	NeverBail bool

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}

	return s.flags
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, s.Use)
	fmt.Fprintln(w, s.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	s.Flags().PrintOptions(w)
}

// Run the command, if flag parsing was successful call the callback.
func (s *SimpleCommand) Run(virtOS vos.VOS, callback func() int) int {
	opts := s.Flags()

	// Add help flag if not overridden.
	if s.ShowHelp == nil {
		s.ShowHelp = opts.BoolLong("help", 'h', "show this help and exit")
	}

	err := opts.Getopt(virtOS.Args(), nil)
	if err != nil {
		virtOS.LogInvalidInvocation(err)
	}

	if err != nil && !s.NeverBail {
		fmt.Fprintf(virtOS.Stderr(), "error: %s\n\n", err)

		s.PrintHelp(virtOS.Stdout())
		return 1
	}

	if *s.ShowHelp {
		s.PrintHelp(virtOS.Stdout())
		return 0
	}

	return callback()
}

// RunEachArg runs the callback for every positional argument, errors are
// reported as "<command>: <error>" and make the command exit 1.
func (s *SimpleCommand) RunEachArg(virtOS vos.VOS, callback func(string) error) int {
	return s.Run(virtOS, func() int {
		anyFailed := false
		for _, arg := range s.Flags().Args() {
			if err := callback(arg); err != nil {
				fmt.Fprintf(virtOS.Stderr(), "%s: %s\n", virtOS.Args()[0], err)
				anyFailed = true
			}
		}

		if anyFailed {
			return 1
		}
		return 0
	})
}

const (
	colorAlways = "always"
	colorAuto   = "auto"
	colorNever  = "never"
)

var (
	ColorBoldBlue  = color.New(color.FgBlue, color.Bold)
	ColorBoldGreen = color.New(color.FgGreen, color.Bold)
	ColorBoldRed   = color.New(color.FgRed, color.Bold)
)

type ColorPrinter struct {
	value  *string
	virtOS vos.VOS
}

// Init sets up the flag and virtual OS to determine the color output.
func (c *ColorPrinter) Init(flags *getopt.Set, virtOS vos.VOS, defaultValue string) {
	if defaultValue == "" {
		defaultValue = colorAuto
	}

	c.virtOS = virtOS
	c.value = flags.EnumLong(
		"color",
		rune(0), // No short flag.
		[]string{colorAlways, colorAuto, colorNever},
		defaultValue,
		"colorize the output (always|auto|never)")
}

func (c *ColorPrinter) ShouldColor() bool {
	switch {
	case c.value == nil || *c.value == colorNever:
		return false
	case *c.value == colorAlways:
		return true
	default:
		return c.virtOS.GetPTY().IsPTY
	}
}

func (c *ColorPrinter) Sprintf(color *color.Color, format string, a ...interface{}) string {
	if c.ShouldColor() {
		// The decision is already made, ignore the global color.NoColor.
		forced := *color
		forced.EnableColor()
		return forced.Sprintf(format, a...)
	}
	return fmt.Sprintf(format, a...)
}

// resolvePath makes p absolute relative to the working directory of virtOS.
func resolvePath(virtOS vos.VOS, p string) string {
	if path.IsAbs(p) {
		return path.Clean(p)
	}
	return path.Join(virtOS.Getwd(), p)
}
