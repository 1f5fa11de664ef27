package logger

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/harrison/docsync/internal/models"
)

// palette maps example outcomes to console colors.
type palette struct {
	unchanged  *color.Color
	changed    *color.Color
	unexpected *color.Color
	label      *color.Color
}

func newPalette() *palette {
	return &palette{
		unchanged:  color.New(color.FgGreen),
		changed:    color.New(color.FgYellow),
		unexpected: color.New(color.FgRed),
		label:      color.New(color.FgCyan),
	}
}

// outcome returns the color for a finished example. Unexpected errors win
// over changes.
func (p *palette) outcome(ex *models.Example) *color.Color {
	if ex.Outcome.State == models.OutcomeSuppressed {
		return p.unexpected
	}
	if ex.Changed() {
		return p.changed
	}
	return p.unchanged
}

// count colors "name: n" with c when n is positive. Zero counts use the
// unchanged color, or no color when plainZero is set.
func (p *palette) count(name string, n int, c *color.Color, plainZero bool) string {
	text := fmt.Sprintf("%s: %d", name, n)
	switch {
	case n > 0:
		return c.Sprint(text)
	case plainZero:
		return text
	default:
		return p.unchanged.Sprint(text)
	}
}

// field renders "label: value" with a cyan label.
func (p *palette) field(label string, value any) string {
	return fmt.Sprintf("%s: %v", p.label.Sprint(label), value)
}
