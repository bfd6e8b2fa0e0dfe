package ui

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// Brand colors
var (
	Brand  = color.New(color.FgHiRed, color.Bold)
	Subtle = color.New(color.FgHiBlack)
	Warn   = color.New(color.FgYellow)
	Info   = color.New(color.FgCyan)
	Good   = color.New(color.FgGreen)
	Bad    = color.New(color.FgRed)
)

const Mark = "\u25CE" // ◎

// Banner prints the lombard banner above command output.
func Banner(subtitle string) {
	fmt.Printf("%s %s: %s\n\n", Mark, Brand.Sprint("lombard"), subtitle)
}

// Table prints an aligned table to stdout.
func Table(headers []string, rows [][]string) {
	FprintTable(color.Output, headers, rows)
}

// FprintTable writes an aligned table. Columns are sized by display width,
// so coloured cells and wide runes line up.
func FprintTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], Width(cell))
			}
		}
	}

	var head, sep strings.Builder
	head.WriteString("  ")
	sep.WriteString("  ")
	for i, h := range headers {
		head.WriteString(pad(h, widths[i]))
		sep.WriteString(strings.Repeat("\u2500", widths[i]) + "  ")
	}
	Subtle.Fprintln(w, strings.TrimRight(head.String(), " "))
	Subtle.Fprintln(w, strings.TrimRight(sep.String(), " "))

	for _, row := range rows {
		var line strings.Builder
		line.WriteString("  ")
		for i, cell := range row {
			if i < len(widths) {
				line.WriteString(pad(cell, widths[i]))
			}
		}
		fmt.Fprintln(w, strings.TrimRight(line.String(), " "))
	}
}

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// Width returns the terminal display width of s, ignoring colour codes.
func Width(s string) int {
	return runewidth.StringWidth(ansi.ReplaceAllString(s, ""))
}

func pad(s string, width int) string {
	return s + strings.Repeat(" ", max(0, width-Width(s))+2)
}

// StatusIcon returns a status icon string.
func StatusIcon(ok bool) string {
	if ok {
		return Good.Sprint("\u2713")
	}
	return Bad.Sprint("\u2717")
}

// WarnIcon returns a warning icon.
func WarnIcon() string {
	return Warn.Sprint("\u26A0")
}

// Status colours a relationship status the way it is drawn: solid ink for
// confirmed, fainter for suspected and former.
func Status(s string) string {
	switch s {
	case "suspected":
		return Warn.Sprint(s)
	case "former":
		return Subtle.Sprint(s)
	}
	return Good.Sprint(s)
}

// Importance renders an importance in [0,1] as a five-dot meter.
func Importance(f float64) string {
	n := int(f*5 + 0.5)
	n = max(0, min(5, n))
	return Brand.Sprint(strings.Repeat("●", n)) + Subtle.Sprint(strings.Repeat("○", 5-n))
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n < 1 {
		return ""
	}
	return string(r[:n-1]) + "…"
}
