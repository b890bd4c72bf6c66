package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the vaudio banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"                         _ _       ", "#818cf8"},
		{" __   ____ _ _   _  __| (_) ___  ", "#a78bfa"},
		{" \\ \\ / / _` | | | |/ _` | |/ _ \\ ", "#c084fc"},
		{"  \\ V / (_| | |_| | (_| | | (_) |", "#e879f9"},
		{"   \\_/ \\__,_|\\__,_|\\__,_|_|\\___/ ", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
