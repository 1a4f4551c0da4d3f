package commands

import (
	"github.com/josephlewis42/clam/core/vos"
)

// statusCommand creates a program that ignores its arguments and exits with
// status.
func statusCommand(use, short string, status int) vos.ProcessFunc {
	return func(virtOS vos.VOS) int {
		cmd := &SimpleCommand{
			Use:   use,
			Short: short,
			// Bad flags are ignored too.
			NeverBail: true,
		}

		return cmd.Run(virtOS, func() int {
			return status
		})
	}
}

func init() {
	mustAddBinCmd("true", statusCommand("true [ignored command line arguments]", "Do nothing, successfully.", 0))
	mustAddBinCmd("false", statusCommand("false [ignored command line arguments]", "Do nothing, unsuccessfully.", 1))
}
