package console

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInputHistoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".history")

	h := loadInputHistory(path)
	h.Add("/status")
	h.Add("  create vm  ")
	h.Add("")

	reloaded := loadInputHistory(path)
	got := reloaded.Recall()
	if len(got) != 2 {
		t.Fatalf("expected 2 persisted entries, got %v", got)
	}
	if got[0] != "/status" || got[1] != "create vm" {
		t.Fatalf("unexpected entries: %v", got)
	}
}

func TestInputHistoryRecallCapped(t *testing.T) {
	h := &inputHistory{}
	for i := 0; i < recallLimit+50; i++ {
		h.entries = append(h.entries, fmt.Sprintf("line-%d", i))
	}

	got := h.Recall()
	if len(got) != recallLimit {
		t.Fatalf("recall length = %d, want %d", len(got), recallLimit)
	}
	if got[len(got)-1] != fmt.Sprintf("line-%d", recallLimit+49) {
		t.Fatalf("recall must keep the most recent entries, last = %s", got[len(got)-1])
	}
}

func TestInputHistoryMissingFile(t *testing.T) {
	h := loadInputHistory(filepath.Join(t.TempDir(), "absent"))
	if len(h.Recall()) != 0 {
		t.Fatal("missing file should load empty history")
	}
}

func TestInputHistorySkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".history")
	if err := os.WriteFile(path, []byte("one\n\n   \ntwo\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	h := loadInputHistory(path)
	if got := strings.Join(h.Recall(), ","); got != "one,two" {
		t.Fatalf("entries = %q, want one,two", got)
	}
}
