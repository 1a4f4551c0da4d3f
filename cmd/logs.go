package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/josephlewis42/clam/core/ttylog"
)

var (
	convertCRLF   bool
	idleTimeLimit time.Duration
)

var logsCmd = &cobra.Command{
	Use:     "logs",
	Aliases: []string{"log"},
	Short:   "Explore recorded sessions.",
}

// playCommand replays a session in real time.
var playCommand = &cobra.Command{
	Use:   "play SESSION.cast",
	Short: "Replay a recorded session in the terminal.",
	Long: `Plays a recorded session back to the current terminal.

The idle time limit defaults to the one in the recording's header if the flag
isn't set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		fd, err := openSessionLog(cmd, args[0])
		if err != nil {
			return err
		}
		defer fd.Close()

		source := ttylog.NewAsciicastLogSource(fd)
		header, err := source.Header()
		if err != nil {
			return err
		}

		limit := idleTimeLimit
		if !cmd.Flags().Changed("idle-time-limit") && header.IdleTimeLimit > 0 {
			limit = time.Duration(header.IdleTimeLimit * float64(time.Second))
		}

		sink := ttylog.NewClientOutput(cmd.OutOrStdout())
		sink = ttylog.NewRealTimePlayback(limit, sink)
		return ttylog.Replay(source, applyMiddleware(sink))
	},
}

// catCommand prints the output of a session without delays.
var catCommand = &cobra.Command{
	Use:   "cat SESSION.cast",
	Short: "Print full output of a recorded session.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		fd, err := openSessionLog(cmd, args[0])
		if err != nil {
			return err
		}
		defer fd.Close()

		source := ttylog.NewAsciicastLogSource(fd)
		sink := ttylog.NewClientOutput(cmd.OutOrStdout())

		return ttylog.Replay(source, applyMiddleware(sink))
	},
}

// inputCommand prints the lines typed during a session.
var inputCommand = &cobra.Command{
	Use:   "input SESSION.cast",
	Short: "Print the lines typed in a recorded session.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		fd, err := openSessionLog(cmd, args[0])
		if err != nil {
			return err
		}
		defer fd.Close()

		source := ttylog.NewAsciicastLogSource(fd)
		sink := ttylog.NewInputLines(func(line string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), line)
			return err
		})

		return ttylog.Replay(source, sink)
	},
}

// openSessionLog opens a recording by path, falling back to the session logs
// in the configuration directory.
func openSessionLog(cmd *cobra.Command, name string) (io.ReadCloser, error) {
	fd, err := os.Open(name)
	if !errors.Is(err, fs.ErrNotExist) {
		return fd, err
	}

	configuration, cfgErr := loadConfig(cmd)
	if cfgErr != nil {
		return nil, err
	}

	configFd, cfgErr := configuration.OpenSessionLog(name)
	if cfgErr != nil {
		return nil, err
	}
	return configFd, nil
}

func applyMiddleware(sink ttylog.LogSink) ttylog.LogSink {
	if convertCRLF {
		sink = ttylog.NewCRLFAdapter(sink)
	}

	return sink
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.AddCommand(playCommand)
	logsCmd.AddCommand(catCommand)
	logsCmd.AddCommand(inputCommand)

	for _, cmd := range []*cobra.Command{playCommand, catCommand} {
		cmd.Flags().BoolVar(&convertCRLF, "crlf", false, "Convert bare line feeds in the output to CRLF.")
	}

	// cat doesn't allow idle time
	playCommand.Flags().DurationVarP(&idleTimeLimit, "idle-time-limit", "i", 3*time.Second, "Maximum time output can be idle. (e.g. 3s, 2m, 100ms)")
}
