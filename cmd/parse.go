package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/josephlewis42/clam/core/shell"
)

var parseOpts struct {
	command string
	format  string
	tokens  bool
}

// parseCmd prints how a script is understood without running it.
var parseCmd = &cobra.Command{
	Use:   "parse [-c COMMAND | FILE]",
	Short: "Print the syntax tree of a script without running it.",
	Long: `Print the syntax tree of a script without running it.

The script is read from the -c flag, a file or standard input. Each top-level
command is printed as a separate document.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		format := shell.Format(parseOpts.format)
		switch format {
		case shell.FormatJSON, shell.FormatYAML:
		default:
			return fmt.Errorf("unknown format %q, expected json or yaml", parseOpts.format)
		}

		input, err := readScript(cmd, args)
		if err != nil {
			return err
		}

		tokens, err := shell.Tokenize(input)
		if err != nil {
			return fmt.Errorf("lexer error: %w", err)
		}

		w := cmd.OutOrStdout()
		if parseOpts.tokens {
			for _, tok := range tokens {
				fmt.Fprintf(w, "%s\t%s\n", tok.Pos, tok)
			}
			return nil
		}

		commands, err := shell.NewParser(tokens).Parse()
		if err != nil {
			return fmt.Errorf("parse error: %w", err)
		}

		for i, command := range commands {
			out, err := shell.Render(command, format)
			if err != nil {
				return err
			}
			if format == shell.FormatYAML && i > 0 {
				fmt.Fprintln(w, "---")
			}
			fmt.Fprintln(w, strings.TrimSuffix(string(out), "\n"))
		}
		return nil
	},
}

// readScript reads the script from -c, the file named in args or stdin.
func readScript(cmd *cobra.Command, args []string) (string, error) {
	switch {
	case cmd.Flags().Changed("command"):
		if len(args) > 0 {
			return "", fmt.Errorf("can't use -c with a file")
		}
		return parseOpts.command, nil
	case len(args) > 0:
		data, err := os.ReadFile(args[0])
		return string(data), err
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVarP(&parseOpts.command, "command", "c", "", "parse COMMAND instead of a file")
	parseCmd.Flags().StringVar(&parseOpts.format, "format", string(shell.FormatYAML), "output format, json or yaml")
	parseCmd.Flags().BoolVar(&parseOpts.tokens, "tokens", false, "print the tokens instead of the syntax tree")
}
