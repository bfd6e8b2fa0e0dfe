package ui

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"Najib Razak", 5, "Naji…"},
		{"ééé", 2, "é…"},
		{"x", 0, ""},
	}
	for _, c := range cases {
		if got := Truncate(c.in, c.n); got != c.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", c.in, c.n, got, c.want)
		}
	}
}

func TestImportance(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	if got := Importance(0.6); got != "●●●○○" {
		t.Errorf("Importance(0.6) = %q", got)
	}
	if got := Importance(2); got != "●●●●●" {
		t.Errorf("Importance(2) = %q", got)
	}
	if got := Status("former"); got != "former" {
		t.Errorf("Status(former) = %q", got)
	}
}

func TestWidthIgnoresColour(t *testing.T) {
	c := color.New(color.FgRed)
	c.EnableColor()
	if got := Width(c.Sprint("former")); got != 6 {
		t.Errorf("Width of coloured text = %d, want 6", got)
	}
	if got := Width("●●○"); got != 3 {
		t.Errorf("Width(dots) = %d, want 3", got)
	}
}

func TestFprintTable(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var b strings.Builder
	FprintTable(&b, []string{"Name", "Importance"}, [][]string{
		{"Jho Low", Importance(1)},
		{"1MDB", Importance(0.2)},
	})

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), b.String())
	}
	if lines[0] != "  Name     Importance" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[2] != "  Jho Low  ●●●●●" || lines[3] != "  1MDB     ●○○○○" {
		t.Errorf("rows misaligned: %q", lines[2:])
	}

	b.Reset()
	FprintTable(&b, []string{"Name"}, nil)
	if b.Len() != 0 {
		t.Error("empty table should print nothing")
	}
}
