package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/josephlewis42/clam/core/logger"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Explore the session event log.",
}

// eventReport is filled from every entry in the event log.
type eventReport interface {
	Update(le *logger.LogEntry)
}

// newEventReportCmd creates a command that prints a report as YAML.
func newEventReportCmd(use, short string, newReport func() eventReport) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			configuration, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			fd, err := configuration.ReadAppLog()
			if err != nil {
				return err
			}
			defer fd.Close()

			report := newReport()
			if err := logger.ReadJSONLinesLog(fd, report.Update); err != nil {
				return err
			}

			out, err := yaml.Marshal(report)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsCmd.AddCommand(newEventReportCmd("report", "Show a summary of events.", func() eventReport {
		return &logger.Report{}
	}))
	eventsCmd.AddCommand(newEventReportCmd("bugs", "Show events that are likely shell bugs.", func() eventReport {
		return logger.NewBugReport()
	}))
	eventsCmd.AddCommand(newEventReportCmd("sessions", "Show the commands run in each session.", func() eventReport {
		return &logger.InteractionReport{}
	}))
}
