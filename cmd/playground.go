package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/josephlewis42/clam/commands"
	"github.com/josephlewis42/clam/core"
	"github.com/josephlewis42/clam/core/config"
	"github.com/josephlewis42/clam/core/logger"
	"github.com/josephlewis42/clam/core/ttylog"
)

var keepPlayground bool

// playgroundCmd runs a sandboxed session the way serve does, without a server.
var playgroundCmd = &cobra.Command{
	Use:   "playground",
	Short: "Run a sandboxed session locally with logging.",
	Long: `Run a sandboxed session in this terminal the way "serve" would run one
over SSH.

Events and the session recording are written to a temporary configuration
directory so they can be explored with the events and logs commands.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		dir, err := os.MkdirTemp("", "playground")
		if err != nil {
			return err
		}
		if !keepPlayground {
			defer os.RemoveAll(dir)
		}

		playgroundLogger := log.New(cmd.ErrOrStderr(), "[playground] ", 0)
		cfg, err := config.Initialize(dir, playgroundLogger)
		if err != nil {
			return err
		}

		shared, err := core.NewSandbox("playground")
		if err != nil {
			return err
		}

		logFd, err := cfg.OpenAppLog()
		if err != nil {
			return err
		}
		defer logFd.Close()
		sessionLogger := logger.NewJSONLinesLogRecorder(logFd).NewSession()
		if err := sessionLogger.Record(logger.SessionStart("root", "playground")); err != nil {
			return err
		}

		castName := fmt.Sprintf("%s.%s", sessionLogger.SessionID(), ttylog.AsciicastFileExt)
		castFd, err := cfg.CreateSessionLog(castName)
		if err != nil {
			return err
		}
		defer castFd.Close()
		if err := sessionLogger.Record(logger.OpenTTYLog(castName)); err != nil {
			return err
		}

		playgroundLogger.Printf("Logging to: file://%s\n", dir)
		playgroundLogger.Printf("See events with: tail -f %s\n", filepath.Join(dir, config.AppLogName))
		playgroundLogger.Println(strings.Repeat("=", 80))

		pty := localPTY(cmd)
		session, err := core.NewSession(shared, core.SessionConfig{
			User:       "root",
			Path:       cfg.Path,
			IO:         localIO(cmd),
			PTY:        pty,
			Events:     sessionLogger,
			Recording:  ttylog.NewAsciicastLogSink(castFd, castHeader(pty)),
			PrivateTmp: true,
			Shell: commands.ShellOptions{
				Prompt:       cfg.Prompt,
				Color:        cfg.Color,
				HostTerminal: pty.IsPTY,
			},
		})
		if err != nil {
			return err
		}

		exitCode := session.Run()
		fmt.Fprintf(cmd.OutOrStdout(), "Exit code: %d\n", exitCode)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(playgroundCmd)

	playgroundCmd.Flags().BoolVar(&keepPlayground, "keep", false, "keep the temporary directory after the session ends")
}
