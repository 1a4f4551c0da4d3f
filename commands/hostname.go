package commands

import (
	"fmt"

	"github.com/josephlewis42/clam/core/vos"
)

// Hostname prints the name of the machine, setting it isn't supported.
func Hostname(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "hostname",
		Short: "Show the system's hostname.",
	}

	return cmd.Run(virtOS, func() int {
		if len(cmd.Flags().Args()) > 0 {
			fmt.Fprintln(virtOS.Stderr(), "hostname: you must be root to change the host name")
			return 1
		}

		fmt.Fprintln(virtOS.Stdout(), virtOS.Hostname())
		return 0
	})
}

var _ vos.ProcessFunc = Hostname

func init() {
	mustAddBinCmd("hostname", Hostname)
}
