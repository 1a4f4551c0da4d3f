package commands

import (
	"fmt"
	"io"

	"github.com/josephlewis42/clam/core/vos"
)

// Cat implements the POSIX cat command. A FILE of "-" or no FILE at all reads
// standard input.
func Cat(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "cat [OPTION]... [FILE]...",
		Short: "Concatenate FILE(s) to standard output.",
	}

	return cmd.Run(virtOS, func() int {
		files := cmd.Flags().Args()
		if len(files) == 0 {
			files = []string{"-"}
		}

		status := 0
		for _, name := range files {
			if err := catFile(virtOS, name); err != nil {
				fmt.Fprintf(virtOS.Stderr(), "cat: %s: %v\n", name, err)
				status = 1
			}
		}
		return status
	})
}

func catFile(virtOS vos.VOS, name string) error {
	if name == "-" {
		_, err := io.Copy(virtOS.Stdout(), virtOS.Stdin())
		return err
	}

	fd, err := virtOS.Open(resolvePath(virtOS, name))
	if err != nil {
		return fmt.Errorf("No such file or directory")
	}
	defer fd.Close()

	if stat, err := fd.Stat(); err == nil && stat.IsDir() {
		return fmt.Errorf("Is a directory")
	}

	_, err = io.Copy(virtOS.Stdout(), fd)
	return err
}

var _ vos.ProcessFunc = Cat

func init() {
	mustAddBinCmd("cat", Cat)
}
