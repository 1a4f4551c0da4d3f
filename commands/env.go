package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/josephlewis42/clam/core/shell"
	"github.com/josephlewis42/clam/core/vos"
)

// Env implements the POSIX env command.
//
// https://pubs.opengroup.org/onlinepubs/9699919799.2018edition/utilities/env.html
func Env(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "env [-i] [NAME=VALUE]... [COMMAND [ARG]...]",
		Short: "Set or print the environment for command invocation.",
	}
	ignoreEnv := cmd.Flags().Bool('i', "start with an empty environment")

	return cmd.Run(virtOS, func() int {
		env := vos.NewMapEnv()
		if !*ignoreEnv {
			env = vos.NewMapEnvFrom(virtOS)
		}

		args := cmd.Flags().Args()
		for len(args) > 0 && strings.Contains(args[0], "=") {
			name, value := vos.SplitEnv(args[0])
			if !shell.IsName(name) {
				break
			}
			env.Setenv(name, value)
			args = args[1:]
		}

		if len(args) == 0 {
			for _, envDef := range env.Environ() {
				fmt.Fprintln(virtOS.Stdout(), envDef)
			}
			return 0
		}

		status, err := vos.NewProcessLauncher(virtOS).Launch(args[0], args[1:], env.Environ())
		switch {
		case errors.Is(err, vos.ErrNotFound):
			fmt.Fprintf(virtOS.Stderr(), "env: '%s': No such file or directory\n", args[0])
			return 127
		case err != nil:
			fmt.Fprintf(virtOS.Stderr(), "env: %s\n", err)
			return 126
		}
		return status
	})
}

var _ vos.ProcessFunc = Env

func init() {
	mustAddBinCmd("env", Env)
}
