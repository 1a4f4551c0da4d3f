package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/josephlewis42/clam/commands"
	"github.com/josephlewis42/clam/core"
	"github.com/josephlewis42/clam/core/config"
	"github.com/josephlewis42/clam/core/logger"
	"github.com/josephlewis42/clam/core/ttylog"
	"github.com/josephlewis42/clam/core/vos"
)

var runOpts struct {
	command  string
	showAST  string
	trace    bool
	record   string
	launcher string
}

// runCmd runs the shell on the local machine.
var runCmd = &cobra.Command{
	Use:   "run [-c COMMAND | SCRIPT]",
	Short: "Run a script, a command string or an interactive shell.",
	Long: `Run a script, a command string or an interactive shell.

With the host launcher programs come from the host's PATH and the shell starts
in the current directory. With the builtin launcher the shell runs in an
in-memory sandbox with only the in-process programs.

The process exits with the shell's exit status.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		status, err := runLocal(cmd, configuration, args)
		if err != nil {
			return err
		}
		return statusError(status)
	},
}

func runLocal(cmd *cobra.Command, configuration *config.Configuration, args []string) (int, error) {
	argv := []string{"sh"}
	if runOpts.trace {
		argv = append(argv, "-x")
	}
	if runOpts.showAST != "" {
		argv = append(argv, "--show-ast", runOpts.showAST)
	}
	switch {
	case cmd.Flags().Changed("command"):
		if len(args) > 0 {
			return 0, fmt.Errorf("can't use -c with a script")
		}
		argv = append(argv, "-c", runOpts.command)
	case len(args) > 0:
		argv = append(argv, args[0])
	}

	pty := localPTY(cmd)
	sessionCfg := core.SessionConfig{
		Argv: argv,
		IO:   localIO(cmd),
		PTY:  pty,
		Shell: commands.ShellOptions{
			Prompt:       configuration.Prompt,
			HistoryFile:  configuration.HistoryPath(),
			HistoryLimit: configuration.HistoryLimit,
			Color:        configuration.Color,
			ASTFormat:    configuration.ASTFormat,
			Trace:        configuration.Trace,
			HostTerminal: pty.IsPTY,
		},
	}

	launcher := configuration.Launcher
	if cmd.Flags().Changed("launcher") {
		launcher = runOpts.launcher
	}

	var shared *vos.SharedOS
	var err error
	switch launcher {
	case config.LauncherHost:
		shared, err = core.NewHost(configuration.Hostname)
		if err != nil {
			return 0, err
		}
		wd, err := os.Getwd()
		if err != nil {
			return 0, err
		}
		sessionCfg.User = localUser()
		sessionCfg.Env = os.Environ()
		sessionCfg.Dir = wd
		sessionCfg.Shell.NewLauncher = func(parent vos.VOS) vos.Launcher {
			return vos.NewExecLauncher(parent)
		}

	case config.LauncherBuiltin:
		shared, err = core.NewSandbox(configuration.Hostname)
		if err != nil {
			return 0, err
		}
		sessionCfg.User = "root"
		sessionCfg.Path = configuration.Path

	default:
		return 0, fmt.Errorf("unknown launcher %q, expected %s or %s", launcher, config.LauncherHost, config.LauncherBuiltin)
	}

	eventFd, err := configuration.OpenAppLog()
	if err != nil {
		return 0, err
	}
	defer eventFd.Close()
	sessionLogger := logger.NewJSONLinesLogRecorder(eventFd).NewSession()
	if err := sessionLogger.Record(logger.SessionStart(sessionCfg.User, "local")); err != nil {
		log.Printf("- Recording session start: %v", err)
	}
	sessionCfg.Events = sessionLogger

	if runOpts.record != "" {
		recordFd, err := os.Create(runOpts.record)
		if err != nil {
			return 0, err
		}
		defer recordFd.Close()
		sessionCfg.Recording = ttylog.NewAsciicastLogSink(recordFd, castHeader(pty))
	}

	session, err := core.NewSession(shared, sessionCfg)
	if err != nil {
		return 0, err
	}
	return session.Run(), nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.StringVarP(&runOpts.command, "command", "c", "", "run COMMAND instead of a script")
	flags.StringVar(&runOpts.showAST, "show-ast", "", "print each parsed command as json or yaml")
	flags.BoolVarP(&runOpts.trace, "trace", "x", false, "print commands before they're run")
	flags.StringVar(&runOpts.record, "record", "", "record the session to an asciicast file")
	flags.StringVar(&runOpts.launcher, "launcher", config.LauncherHost, "where programs come from, host or builtin")
}
