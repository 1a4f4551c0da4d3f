package commands

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/josephlewis42/clam/core/vos"
)

// Mkdir implements a POSIX mkdir command.
//
// https://pubs.opengroup.org/onlinepubs/9699919799.2018edition/utilities/mkdir.html
func Mkdir(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "mkdir [OPTION...] DIRECTORY...",
		Short: "Create directories if they don't exist.",
	}

	makeParents := cmd.Flags().BoolLong("parents", 'p', "make parents if needed, no error if existing")
	verbose := cmd.Flags().BoolLong("verbose", 'v', "print a line for every created directory")

	if len(virtOS.Args()) == 1 {
		fmt.Fprintln(virtOS.Stderr(), "mkdir: missing operand")
		return 1
	}

	return cmd.RunEachArg(virtOS, func(dir string) error {
		resolved := resolvePath(virtOS, dir)

		var err error
		if *makeParents {
			err = virtOS.MkdirAll(resolved, 0755)
		} else {
			if _, statErr := virtOS.Stat(resolved); statErr == nil {
				err = fs.ErrExist
			} else {
				err = virtOS.Mkdir(resolved, 0755)
			}
		}

		switch {
		case errors.Is(err, fs.ErrExist):
			return fmt.Errorf("cannot create directory '%s': File exists", dir)
		case err != nil:
			return fmt.Errorf("cannot create directory '%s': No such file or directory", dir)
		case *verbose:
			fmt.Fprintf(virtOS.Stdout(), "mkdir: created directory '%s'\n", dir)
		}
		return nil
	})
}

var _ vos.ProcessFunc = Mkdir

func init() {
	mustAddBinCmd("mkdir", Mkdir)
}
