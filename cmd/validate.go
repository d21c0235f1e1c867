package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <pipeline>",
	Short: "Validate a pipeline document",
	Long:  "Checks the document against the pipeline schema, then resolves every render method and texture reference.",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	_, p, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d stages, %d textures)\n", args[0], p.StageCount(), len(p.Textures()))
	return nil
}
