//go:build e2e

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var lombardBin string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "lombard-e2e-*")
	if err != nil {
		panic("failed to create temp dir: " + err.Error())
	}
	defer os.RemoveAll(tmp)

	lombardBin = filepath.Join(tmp, "lombard")
	build := exec.Command("go", "build", "-ldflags", "-X github.com/msalah0e/lombard/cmd.version=0.3.0-test", "-o", lombardBin, ".")
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		panic("failed to build lombard: " + err.Error())
	}

	os.Exit(m.Run())
}

// runLombard executes the binary with an isolated HOME and working directory.
func runLombard(t *testing.T, dir string, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	cmd := exec.Command(lombardBin, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"HOME="+dir,
		"XDG_CONFIG_HOME="+filepath.Join(dir, ".config"),
		"NO_COLOR=1",
	)

	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("failed to run lombard %v: %v", args, err)
		}
	}
	return outBuf.String(), errBuf.String(), exitCode
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, errOut, code := runLombard(t, dir, args...)
	if code != 0 {
		t.Fatalf("lombard %v exited %d: %s%s", args, code, out, errOut)
	}
	return out
}

func TestE2E_Version(t *testing.T) {
	out := mustRun(t, t.TempDir(), "--version")
	if !strings.Contains(out, "0.3.0-test") {
		t.Errorf("expected version output to contain '0.3.0-test', got %q", out)
	}
}

func TestE2E_Help(t *testing.T) {
	out := mustRun(t, t.TempDir(), "--help")
	if !strings.Contains(out, "Available Commands") {
		t.Errorf("expected help to contain 'Available Commands', got %q", out)
	}
}

func TestE2E_BuildAndRender(t *testing.T) {
	dir := t.TempDir()

	mustRun(t, dir, "new", "Silent Partners", "--description", "1MDB")
	mustRun(t, dir, "add", "Najib Razak", "--type", "government", "--importance", "0.9")
	mustRun(t, dir, "add", "Jho Low", "--type", "person", "--date", "2009")
	mustRun(t, dir, "add", "Goldman Sachs", "--type", "corporation")
	mustRun(t, dir, "relate", "Jho Low", "Najib Razak", "--type", "advises", "--status", "suspected")
	mustRun(t, dir, "relate", "Goldman Sachs", "Jho Low", "--type", "underwrote", "--value", "6.5")

	if _, _, code := runLombard(t, dir, "relate", "Najib Razak", "Jho Low"); code == 0 {
		t.Error("duplicate relationship should fail")
	}

	out := mustRun(t, dir, "list")
	if !strings.Contains(out, "3 entities, 2 relationships") {
		t.Errorf("unexpected list output: %q", out)
	}

	out = mustRun(t, dir, "show", "jho low")
	if !strings.Contains(out, "advises") || !strings.Contains(out, "underwrote") {
		t.Errorf("unexpected show output: %q", out)
	}

	mustRun(t, dir, "render", "--layout", "radial")
	data, err := os.ReadFile(filepath.Join(dir, "network.svg"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Silent Partners") {
		t.Error("expected title card in SVG")
	}

	out = mustRun(t, dir, "export", "--format", "dot")
	if !strings.HasPrefix(out, "digraph lombard {") {
		t.Errorf("unexpected dot output: %q", out)
	}

	mustRun(t, dir, "remove", "Jho Low")
	out = mustRun(t, dir, "list")
	if !strings.Contains(out, "2 entities, 0 relationships") {
		t.Errorf("cascade failed: %q", out)
	}

	out = mustRun(t, dir, "history", "stats")
	if !strings.Contains(out, "Total entries: 7") {
		t.Errorf("unexpected history stats: %q", out)
	}
}

func TestE2E_IngestAndGallery(t *testing.T) {
	dir := t.TempDir()
	extraction := `{entities: [{name: "A", type: "person", importance: 5, date: "1990"}, {name: "B", importance: 2}],
  relationships: [{source: "A", target: "B", status: "former", date: "1999"},]}`
	os.WriteFile(filepath.Join(dir, "extraction.json"), []byte(extraction), 0o644)

	out := mustRun(t, dir, "ingest", "extraction.json")
	if !strings.Contains(out, "2 entities, 1 relationships added") {
		t.Errorf("unexpected ingest output: %q", out)
	}

	out = mustRun(t, dir, "gallery")
	if !strings.Contains(out, "7 of 7 layouts rendered") {
		t.Errorf("unexpected gallery output: %q", out)
	}
	for _, name := range []string{"force", "timeline", "community"} {
		if _, err := os.Stat(filepath.Join(dir, "network-gallery", name+".svg")); err != nil {
			t.Errorf("missing %s.svg: %v", name, err)
		}
	}
}

func TestE2E_LayoutWithoutDates(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "add", "Undated")

	_, _, code := runLombard(t, dir, "layout", "timeline")
	if code == 0 {
		t.Error("timeline without dates should fail")
	}
	mustRun(t, dir, "layout", "circular")
}

func TestE2E_SchemaAndConfig(t *testing.T) {
	dir := t.TempDir()

	out := mustRun(t, dir, "schema")
	if !strings.Contains(out, "lombard network snapshot") {
		t.Errorf("unexpected schema output: %q", out)
	}

	mustRun(t, dir, "config", "init")
	out = mustRun(t, dir, "config", "path")
	if !strings.Contains(out, filepath.Join(".config", "lombard", "config.toml")) {
		t.Errorf("unexpected config path: %q", out)
	}
	out = mustRun(t, dir, "config")
	if !strings.Contains(out, "[canvas]") {
		t.Errorf("unexpected config output: %q", out)
	}
}

func TestE2E_CompletionZsh(t *testing.T) {
	out := mustRun(t, t.TempDir(), "completion", "zsh")
	if !strings.Contains(out, "compdef") {
		t.Errorf("expected zsh completion script, got %q", out[:min(len(out), 100)])
	}
}

func TestE2E_UndoRedo(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "add", "Jho Low", "--type", "person")
	mustRun(t, dir, "add", "1MDB", "--type", "financial")
	mustRun(t, dir, "relate", "Jho Low", "1MDB", "--type", "advises")

	out := mustRun(t, dir, "undo")
	if !strings.Contains(out, "Undid relate") {
		t.Errorf("unexpected undo output: %q", out)
	}
	mustRun(t, dir, "undo")
	out = mustRun(t, dir, "list")
	if !strings.Contains(out, "1 entities, 0 relationships") {
		t.Errorf("unexpected list after undo: %q", out)
	}

	mustRun(t, dir, "redo")
	out = mustRun(t, dir, "list")
	if !strings.Contains(out, "node_2") {
		t.Errorf("redo should restore 1MDB under its id: %q", out)
	}

	mustRun(t, dir, "add", "Goldman Sachs")
	if _, _, code := runLombard(t, dir, "redo"); code == 0 {
		t.Error("redo after a new edit should fail")
	}
	out = mustRun(t, dir, "list")
	if !strings.Contains(out, "node_3") {
		t.Errorf("new entity should get a fresh id: %q", out)
	}
}

func TestE2E_StatsAndSuggest(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"A", "B", "C", "D"} {
		mustRun(t, dir, "add", name)
	}
	mustRun(t, dir, "relate", "A", "C")
	mustRun(t, dir, "relate", "A", "D")
	mustRun(t, dir, "relate", "B", "C")
	mustRun(t, dir, "relate", "B", "D")

	out := mustRun(t, dir, "list", "--stats")
	if !strings.Contains(out, "Density:         66.7%") || !strings.Contains(out, "Average degree:  2.00") {
		t.Errorf("unexpected stats output: %q", out)
	}

	out = mustRun(t, dir, "suggest")
	if !strings.Contains(out, "shared-connections") {
		t.Errorf("expected a shared-neighbour suggestion: %q", out)
	}
}
