package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// renderInputLine draws a single-line field on the input background, exactly bodyW wide.
// A non-empty counter is pinned to the right edge and the input is cut to make room for it.
func renderInputLine(bodyW int, inputView, counter string) string {
	if bodyW < 10 {
		bodyW = 10
	}

	// Pasted newlines would wrap the line and look like a second field.
	inputView = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(inputView)

	counterW := xansi.StringWidth(counter)
	if counterW > 0 && counterW+12 > bodyW {
		counter, counterW = "", 0
	}
	fieldW := bodyW
	if counterW > 0 {
		fieldW = bodyW - counterW - 1
	}

	line := lipgloss.PlaceHorizontal(
		fieldW,
		lipgloss.Left,
		" "+inputView+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	if xansi.StringWidth(line) > fieldW {
		// Reset so the background stops at the cut.
		line = xansi.Cut(line, 0, fieldW) + "\x1b[0m"
	}
	if counterW > 0 {
		line += " " + counter
	}
	return line
}

// titleCounter shows how much of the title budget is used; it turns red at the limit.
func titleCounter(title string, max int) string {
	n := utf8.RuneCountInString(title)
	s := fmt.Sprintf("%d/%d", n, max)
	if n >= max {
		return styleError().Render(s)
	}
	return lipgloss.NewStyle().Foreground(colorChromeMutedFg).Render(s)
}

func renderFieldLabel(label string, focused bool) string {
	st := lipgloss.NewStyle().Foreground(colorChromeMutedFg)
	if focused {
		st = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	}
	return st.Render(label)
}
