package logger

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

const progressWidth = 20

// percentDone returns done/total as a whole percentage clamped to 0-100.
func percentDone(done, total int) int {
	if total <= 0 {
		return 0
	}
	return max(0, min(100, done*100/total))
}

// renderProgress draws "[====      ] done/total (pct%)" in width cells.
// A finished bar is green, an unfinished one cyan.
func renderProgress(done, total, width int, useColor bool) string {
	if width < 1 {
		width = progressWidth
	}
	pct := percentDone(done, total)
	filled := pct * width / 100
	line := fmt.Sprintf("[%s%s] %d/%d (%d%%)",
		strings.Repeat("=", filled), strings.Repeat(" ", width-filled), done, total, pct)

	if !useColor {
		return line
	}
	c := color.New(color.FgCyan)
	if pct == 100 {
		c = color.New(color.FgGreen)
	}
	c.EnableColor()
	return c.Sprint(line)
}
