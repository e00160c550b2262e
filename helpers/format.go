package helpers

import (
	"fmt"
	"strings"
)

// FormatSeconds renders a track position or duration as m:ss.
func FormatSeconds(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// PadRight pads s with spaces to the given width for fixed-width columns.
// Strings already at or past the width are returned unchanged.
func PadRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
