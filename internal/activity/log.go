package activity

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Undo and redo entries move through the recorded edits instead of adding
// one of their own.
const (
	ActionUndo = "undo"
	ActionRedo = "redo"
)

// Entry is one recorded edit of a network snapshot. Before holds the
// snapshot as it was before the edit; entries without it cannot be undone.
type Entry struct {
	Timestamp time.Time       `json:"timestamp"`
	Action    string          `json:"action"`
	Subject   string          `json:"subject,omitempty"`
	Details   string          `json:"details,omitempty"`
	Nodes     int             `json:"nodes"`
	Links     int             `json:"links"`
	Before    json.RawMessage `json:"before,omitempty"`
}

// Undoable reports whether the entry carries the state to go back to.
func (e Entry) Undoable() bool { return len(e.Before) > 0 }

// maxLine bounds one journal line. Entries carry a whole snapshot.
const maxLine = 64 << 20

// Journal is an append-only JSON-lines log kept next to a snapshot.
type Journal struct {
	path string
}

// PathFor returns the journal path for a snapshot: cases/1mdb.json is
// journalled in cases/1mdb.log.jsonl.
func PathFor(snapshot string) string {
	base := strings.TrimSuffix(snapshot, filepath.Ext(snapshot))
	return base + ".log.jsonl"
}

// Open returns the journal for a snapshot. Nothing is created until the
// first Log.
func Open(snapshot string) *Journal {
	return &Journal{path: PathFor(snapshot)}
}

// Path returns the journal file path.
func (j *Journal) Path() string { return j.path }

// Log appends an entry stamped with the current time.
func (j *Journal) Log(e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(f, "%s\n", data)
	return err
}

// Read returns the last count entries, newest first. count <= 0 returns all.
// Lines that do not decode are skipped.
func (j *Journal) Read(count int) ([]Entry, error) {
	entries, err := j.scan()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Timestamp.After(entries[b].Timestamp)
	})
	if count > 0 && len(entries) > count {
		entries = entries[:count]
	}
	return entries, nil
}

// Stacks replays the journal in the order it was written and returns the
// entries that can be undone and redone, most recent last. An undoable edit
// starts a new branch and drops the redo stack. An undo moves to the redo
// stack and a redo back to the undo stack; each carries the state it left,
// so the top of either stack says what to restore. The undo stack keeps at
// most depth entries; depth <= 0 keeps all.
func (j *Journal) Stacks(depth int) (undo, redo []Entry, err error) {
	entries, err := j.scan()
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		if !e.Undoable() {
			continue
		}
		switch e.Action {
		case ActionUndo:
			if len(undo) == 0 {
				continue
			}
			undo = undo[:len(undo)-1]
			redo = append(redo, e)
		case ActionRedo:
			if len(redo) == 0 {
				continue
			}
			redo = redo[:len(redo)-1]
			undo = append(undo, e)
		default:
			undo = append(undo, e)
			redo = nil
		}
		if depth > 0 && len(undo) > depth {
			undo = undo[len(undo)-depth:]
		}
	}
	return undo, redo, nil
}

// scan returns every entry in file order.
func (j *Journal) scan() ([]Entry, error) {
	f, err := os.Open(j.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e Entry
		if json.Unmarshal([]byte(line), &e) == nil {
			entries = append(entries, e)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Search returns entries whose action, subject or details contain query,
// case-insensitively, newest first.
func (j *Journal) Search(query string, count int) ([]Entry, error) {
	all, err := j.Read(0)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var results []Entry
	for _, e := range all {
		if matches(e, q) {
			results = append(results, e)
			if count > 0 && len(results) >= count {
				break
			}
		}
	}
	return results, nil
}

// Clear removes the journal. A journal that was never written is not an
// error.
func (j *Journal) Clear() error {
	err := os.Remove(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Counts tallies entries per action.
func Counts(entries []Entry) map[string]int {
	out := make(map[string]int)
	for _, e := range entries {
		out[e.Action]++
	}
	return out
}

func matches(e Entry, q string) bool {
	return strings.Contains(strings.ToLower(e.Action), q) ||
		strings.Contains(strings.ToLower(e.Subject), q) ||
		strings.Contains(strings.ToLower(e.Details), q)
}
