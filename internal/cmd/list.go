package cmd

import (
	"github.com/spf13/cobra"

	"github.com/harrison/docsync/internal/display"
)

// NewListCommand creates and returns the list subcommand
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <document>",
		Short: "List the examples of a document",
		Long: `Parse a document and list its examples with their line, indentation,
recorded output size and source. Nothing is executed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, args)
			if err != nil {
				return err
			}
			doc, _, err := loadDocument(args[0], s.parserOptions())
			if err != nil {
				out := cmd.ErrOrStderr()
				display.ParseWarning(args[0], err).Display(out, s.useColor(out))
				return err
			}
			out := cmd.OutOrStdout()
			return display.ListExamples(out, doc, s.useColor(out))
		},
	}

	return cmd
}
