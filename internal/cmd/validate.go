package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/harrison/docsync/internal/display"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <document-or-directory>...",
		Short: "Parse documents without executing them",
		Long: `Parse documents and report structural problems in their examples:
  - continuation or output lines with less indentation than their prompt
  - markers not followed by a space

Nothing is executed and no document is modified.

Exit code: 0 if valid, 1 if errors found`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, args)
			if err != nil {
				return err
			}
			return s.validate(args, cmd.OutOrStdout())
		},
	}

	return cmd
}

// validate parses every document named by args and writes one line per
// document to out.
func (s *settings) validate(args []string, out io.Writer) error {
	docs, err := s.collectDocuments(args)
	if err != nil {
		return err
	}
	for _, scanErr := range docs.Errors {
		fmt.Fprintf(out, "Warning: %v\n", scanErr)
	}

	var invalid int
	for _, path := range docs.Files {
		doc, _, err := loadDocument(path, s.parserOptions())
		if err != nil {
			display.ParseWarning(path, err).Display(out, s.useColor(out))
			invalid++
			continue
		}
		n := len(doc.Examples())
		note := ""
		if doc.Options.Skip {
			note = " (skipped by front matter)"
		}
		fmt.Fprintf(out, "%s: %d %s%s\n", path, n, plural(n, "example"), note)
	}

	if invalid > 0 {
		fmt.Fprintf(out, "\nValidation failed: %d of %d documents have errors\n", invalid, len(docs.Files))
		return fmt.Errorf("validation failed: %d invalid documents", invalid)
	}
	fmt.Fprintf(out, "\nAll %d %s valid\n", len(docs.Files), plural(len(docs.Files), "document"))
	return nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
