package main

import (
	"fmt"

	"github.com/ashureev/datequiz/internal/content"
	"github.com/spf13/cobra"
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Inspect content tables",
}

var contentValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check a content table (YAML or JSON); no path checks the embedded table",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runContentValidate,
}

func init() {
	contentCmd.AddCommand(contentValidateCmd)
}

func runContentValidate(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}

	table, err := content.Load(path)
	if err != nil {
		return err
	}
	if err := table.Validate(); err != nil {
		return fmt.Errorf("content table is invalid:\n%w", err)
	}

	if path == "" {
		path = "(embedded)"
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: ok, %d questions, %d partners\n", path, len(table.Questions), len(table.Partners))
	for _, p := range table.Catalogue() {
		fmt.Fprintf(out, "  %s: %d locations\n", p.Name, len(p.Locations))
	}
	return nil
}
