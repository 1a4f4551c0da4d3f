package commands

import (
	"fmt"

	"github.com/josephlewis42/clam/core/vos"
)

// Which implements the UNIX which command.
func Which(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "which [COMMAND...]",
		Short: "Locate a command.",
		// Never bail, even if args are bad.
		NeverBail: true,
	}

	return cmd.RunEachArg(virtOS, func(arg string) error {
		res, err := vos.LookPath(virtOS, virtOS.Getwd(), virtOS.Getenv("PATH"), arg)
		if err != nil {
			return fmt.Errorf("no %s in (%s)", arg, virtOS.Getenv("PATH"))
		}
		fmt.Fprintln(virtOS.Stdout(), res)
		return nil
	})
}

var _ vos.ProcessFunc = Which

func init() {
	mustAddBinCmd("which", Which)
}
