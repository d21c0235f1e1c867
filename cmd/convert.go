package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/rendergraph/engine/pipeline/document"
)

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Convert a pipeline document between TOML and YAML",
	Long:  "The formats are picked from the file extensions. The input is validated before anything is written.",
	Args:  cobra.ExactArgs(2),
	RunE:  runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]
	if _, err := document.FormatFromPath(out); err != nil {
		return err
	}
	doc, err := document.ReadFile(in)
	if err != nil {
		return err
	}
	if doc.Version == 0 {
		doc.Version = document.CurrentVersion
	}
	if err := document.WriteFile(out, doc); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", in, out)
	return nil
}
