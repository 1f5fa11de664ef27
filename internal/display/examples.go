package display

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/harrison/docsync/internal/models"
)

// maxSourceWidth is the display width long source lines are truncated to.
const maxSourceWidth = 60

// ListExamples writes one row per example of doc: line, indent, first
// source line and the number of recorded output lines.
func ListExamples(out io.Writer, doc *models.Document, useColor bool) error {
	examples := doc.Examples()
	if len(examples) == 0 {
		_, err := fmt.Fprintf(out, "%s: no examples\n", doc.Path)
		return err
	}

	header := fmt.Sprintf("%s: %d examples", doc.Path, len(examples))
	if doc.Options.Skip {
		header += " (skipped by front matter)"
	}
	if useColor {
		bold := color.New(color.Bold)
		bold.EnableColor()
		header = bold.Sprint(header)
	}
	fmt.Fprintln(out, header)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tINDENT\tOUTPUT\tSOURCE")
	for _, ex := range examples {
		lines := strings.Split(strings.TrimSuffix(ex.Source, "\n"), "\n")
		source := runewidth.Truncate(lines[0], maxSourceWidth, "...")
		if len(lines) > 1 {
			source += fmt.Sprintf(" (+%d lines)", len(lines)-1)
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\n", ex.Line, ex.Indent, strings.Count(ex.Want, "\n"), source)
	}
	return tw.Flush()
}

// ColorDiff colors a unified diff: additions green, removals red, hunk
// headers cyan.
func ColorDiff(diff string) string {
	add := color.New(color.FgGreen)
	del := color.New(color.FgRed)
	hunk := color.New(color.FgCyan)
	file := color.New(color.Bold)
	for _, c := range []*color.Color{add, del, hunk, file} {
		c.EnableColor()
	}

	var b strings.Builder
	for _, line := range strings.SplitAfter(diff, "\n") {
		if line == "" {
			continue
		}
		body := strings.TrimSuffix(line, "\n")
		nl := line[len(body):]
		switch {
		case strings.HasPrefix(body, "+++"), strings.HasPrefix(body, "---"):
			b.WriteString(file.Sprint(body) + nl)
		case strings.HasPrefix(body, "@@"):
			b.WriteString(hunk.Sprint(body) + nl)
		case strings.HasPrefix(body, "+"):
			b.WriteString(add.Sprint(body) + nl)
		case strings.HasPrefix(body, "-"):
			b.WriteString(del.Sprint(body) + nl)
		default:
			b.WriteString(line)
		}
	}
	return b.String()
}
