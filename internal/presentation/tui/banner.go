package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner shown by interactive commands.
func PrintBanner() {
	p := termenv.ColorProfile()
	// Subtle gradient from indigo to rose
	lines := []struct {
		text  string
		color string
	}{
		{"   __ _               _ _            ", "#818cf8"},
		{"  / _| | _____      _| (_)_ __   ___ ", "#a78bfa"},
		{" | |_| |/ _ \\ \\ /\\ / / | | '_ \\ / _ \\", "#c084fc"},
		{" |  _| | (_) \\ V  V /| | | | | |  __/", "#e879f9"},
		{" |_| |_|\\___/ \\_/\\_/ |_|_|_| |_|\\___|", "#f472b6"},
	}

	fmt.Println()
	for _, l := range lines {
		fmt.Println(termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Println()
}

// Outbound styles an automation reply line for the interactive preview.
func Outbound(text string) string {
	p := termenv.ColorProfile()
	return termenv.String("⟵ " + text).Foreground(p.Color("#34d399")).String()
}

// Status styles a status/acknowledgement line.
func Status(text string) string {
	p := termenv.ColorProfile()
	return termenv.String("· " + text).Foreground(p.Color("#94a3b8")).Italic().String()
}
