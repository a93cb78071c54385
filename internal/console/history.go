package console

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// recallLimit caps how many stored lines are offered to the line editor
// for arrow-key recall. The on-disk file itself is never truncated.
const recallLimit = 1000

// inputHistory persists entered lines across console runs. It backs the
// line editor's recall buffer and is separate from Session history,
// which is per-run and unbounded.
type inputHistory struct {
	path    string
	entries []string
	mu      sync.Mutex
}

func loadInputHistory(path string) *inputHistory {
	h := &inputHistory{path: path}
	if path == "" {
		return h
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return h
	}
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		h.entries = append(h.entries, line)
	}
	return h
}

// Recall returns up to recallLimit most recent entries, oldest first.
func (h *inputHistory) Recall() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	entries := h.entries
	if len(entries) > recallLimit {
		entries = entries[len(entries)-recallLimit:]
	}
	cpy := make([]string, len(entries))
	copy(cpy, entries)
	return cpy
}

// Add records a line in memory and appends it to the history file.
// Persistence failures are ignored; losing recall history is not worth
// interrupting the session over.
func (h *inputHistory) Add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, line)
	if h.path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = fmt.Fprintln(f, line)
}
