package commands

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/josephlewis42/clam/core/vos"
)

// Rm implements a POSIX rm command.
func Rm(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "rm [OPTION...] FILE...",
		Short: "Remove files or directories.",
	}

	recursive := cmd.Flags().BoolLong("recursive", 'r', "remove directories and their contents recursively")
	force := cmd.Flags().BoolLong("force", 'f', "ignore missing files and arguments, never prompt")

	return cmd.RunEachArg(virtOS, func(file string) error {
		resolved := resolvePath(virtOS, file)

		stat, err := virtOS.Stat(resolved)
		switch {
		case errors.Is(err, fs.ErrNotExist) && *force:
			return nil
		case errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("cannot remove '%s': No such file or directory", file)
		case err != nil:
			return fmt.Errorf("cannot stat '%s': %v", file, err)
		case stat.IsDir() && !*recursive:
			return fmt.Errorf("cannot remove '%s': Is a directory", file)
		case stat.IsDir():
			err = virtOS.RemoveAll(resolved)
		default:
			err = virtOS.Remove(resolved)
		}

		if err != nil {
			return fmt.Errorf("cannot remove '%s': %v", file, err)
		}
		return nil
	})
}

var _ vos.ProcessFunc = Rm

func init() {
	mustAddBinCmd("rm", Rm)
}
