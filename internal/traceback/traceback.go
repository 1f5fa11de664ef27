// Package traceback reduces raw, multi-frame error reports to the two lines
// shown in a transcript: the fixed header and the final summary line.
package traceback

import (
	"strings"

	"github.com/harrison/docsync/internal/models"
)

type scanState int

const (
	stateSearching scanState = iota // looking for the header
	stateInFrames                   // inside a report, skipping frame detail
	stateDone                       // input exhausted
)

// Reduce scans raw for header and returns the header plus the last
// non-indented line that follows it. Chained reports repeat the header and
// append their own frames; the final summary always wins. It returns false
// when raw contains no header or no summary line.
func Reduce(raw, header string) (*models.ErrorReport, bool) {
	state := stateSearching
	summary := ""

	lines := strings.Split(raw, "\n")
	for i := 0; state != stateDone; i++ {
		if i == len(lines) {
			state = stateDone
			continue
		}
		line := strings.TrimRight(lines[i], "\r")

		switch state {
		case stateSearching:
			if line == header {
				state = stateInFrames
			}
		case stateInFrames:
			switch {
			case line == header:
				// chained report, keep scanning
			case strings.TrimSpace(line) == "":
			case line[0] == ' ' || line[0] == '\t':
				// frame detail
			default:
				summary = line
			}
		}
	}

	if summary == "" {
		return nil, false
	}
	return &models.ErrorReport{Header: header, Summary: summary}, true
}
