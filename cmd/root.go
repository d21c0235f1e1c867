// Package cmd implements the rendergraph CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/rendergraph/engine/core"
)

var (
	cfgFile string
	verbose bool

	appVersion = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "rendergraph",
	Short: "Run, validate and inspect graphics pipeline documents",
	Long:  "rendergraph loads graphics pipeline documents, renders them headless with the testbed game and converts them between TOML and YAML.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			core.SetLogLevel(core.DebugLevel)
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "testbed/engine.toml", "engine config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(convertCmd)
}

// SetVersionInfo sets the version and commit for display.
func SetVersionInfo(version, commit string) {
	appVersion = version
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("rendergraph %s (commit: %s)\n", version, commit))
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
