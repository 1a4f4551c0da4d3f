package cmd

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/josephlewis42/clam/core/config"
)

var cfgPath string

// loadConfig loads the configuration from --config. If the flag wasn't set
// and the current directory isn't initialized the defaults are used.
func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)

	if errors.Is(err, fs.ErrNotExist) {
		if !cmd.Flags().Changed("config") {
			return config.Default(), nil
		}
		log.Println("Couldn't load config: did you run init?")
	}

	return configuration, err
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "clam",
	Short: "A small POSIX-style shell.",
	Long: `A small POSIX-style shell: lexer, parser and tree-walking executor.

Run scripts and interactive sessions on the host, inspect how commands parse,
or serve sandboxed sessions over SSH.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()

	var status exitStatus
	if errors.As(err, &status) {
		os.Exit(int(status))
	}
	cobra.CheckErr(err)
}

func init() {
	// Errors are printed by Execute so exit statuses stay quiet.
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "config path")
}
