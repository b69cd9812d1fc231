package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for Stagehand.
func PrintBanner() {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"      _                    _                     _ ", "#38bdf8"},
		{"  ___| |_ __ _  __ _  ___ | |__   __ _ _ __   __| |", "#22d3ee"},
		{" / __| __/ _` |/ _` |/ _ \\| '_ \\ / _` | '_ \\ / _` |", "#2dd4bf"},
		{" \\__ \\ || (_| | (_| |  __/| | | | (_| | | | | (_| |", "#34d399"},
		{" |___/\\__\\__,_|\\__, |\\___||_| |_|\\__,_|_| |_|\\__,_|", "#4ade80"},
		{"               |___/                               ", "#a3e635"},
	}

	fmt.Println()
	for _, l := range lines {
		fmt.Println(termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Println()
}
