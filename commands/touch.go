package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/josephlewis42/clam/core/vos"
)

// Touch implements a POSIX touch command.
func Touch(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "touch [OPTION...] FILE...",
		Short: "Update the access and modification times of files to now.",
	}

	cmd.Flags().Bool('a', "only change the access time")
	cmd.Flags().Bool('m', "only change the modification time")
	noCreate := cmd.Flags().BoolLong("no-create", 'c', "don't create files")

	return cmd.RunEachArg(virtOS, func(file string) error {
		resolved := resolvePath(virtOS, file)
		now := time.Now()

		err := virtOS.Chtimes(resolved, now, now)
		switch {
		case errors.Is(err, fs.ErrNotExist) && *noCreate:
			return nil
		case errors.Is(err, fs.ErrNotExist):
			fd, err := virtOS.Create(resolved)
			if err != nil {
				return fmt.Errorf("cannot touch '%s': No such file or directory", file)
			}
			return fd.Close()
		case err != nil:
			return fmt.Errorf("setting times of '%s': %v", file, err)
		}
		return nil
	})
}

var _ vos.ProcessFunc = Touch

func init() {
	mustAddBinCmd("touch", Touch)
}
