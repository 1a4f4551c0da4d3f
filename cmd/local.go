package cmd

import (
	"fmt"
	"os"
	"os/user"

	"github.com/abiosoft/readline"
	"github.com/spf13/cobra"

	"github.com/josephlewis42/clam/core/ttylog"
	"github.com/josephlewis42/clam/core/vos"
)

// exitStatus is returned by commands that ran a shell to make the process
// exit with the shell's status.
type exitStatus int

func (e exitStatus) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

func statusError(status int) error {
	if status == 0 {
		return nil
	}
	return exitStatus(status)
}

// localUser is the name of the user running the program.
func localUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "user"
}

// localIO connects a session to the command's streams.
func localIO(cmd *cobra.Command) vos.VIO {
	return vos.NewVIOAdapter(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// localPTY describes the terminal the command reads from, IsPTY is false if
// input isn't a terminal.
func localPTY(cmd *cobra.Command) vos.PTY {
	stdin, ok := cmd.InOrStdin().(*os.File)
	if !ok || !readline.IsTerminal(int(stdin.Fd())) {
		return vos.PTY{}
	}

	width, height, err := readline.GetSize(int(stdin.Fd()))
	if err != nil {
		width, height = 80, 24
	}

	return vos.PTY{
		Width:  width,
		Height: height,
		Term:   os.Getenv("TERM"),
		IsPTY:  true,
	}
}

// castHeader describes the terminal in recordings.
func castHeader(pty vos.PTY) ttylog.AsciicastHeader {
	header := ttylog.DefaultAsciicastHeader()
	if pty.IsPTY {
		header.Width = pty.Width
		header.Height = pty.Height
		if pty.Term != "" {
			header.Env["TERM"] = pty.Term
		}
	}
	return header
}
