package console

import (
	"time"

	"github.com/proxmox-mpc/proxmox-mpc/internal/workspace"
)

// Session is the mutable record of one console run: the lines the user
// entered, when the run started, and the workspace detected for it.
// The loop owns it and hands it by reference to every command handler;
// execution is fully serialized, so no locking is needed.
type Session struct {
	history   []string
	startTime time.Time
	workspace *workspace.Workspace
}

// NewSession returns an empty session stamped with the current time.
func NewSession() *Session {
	return &Session{startTime: time.Now()}
}

// Record appends one non-empty input line to the session history.
// Lines are stored verbatim as received (already trimmed by the loop)
// and are never deduplicated or truncated.
func (s *Session) Record(line string) {
	if line == "" {
		return
	}
	s.history = append(s.history, line)
}

// History returns a copy of the recorded input lines, oldest first.
func (s *Session) History() []string {
	cpy := make([]string, len(s.history))
	copy(cpy, s.history)
	return cpy
}

// StartTime reports when the session was created.
func (s *Session) StartTime() time.Time {
	return s.startTime
}

// Elapsed reports how long the session has been running.
func (s *Session) Elapsed() time.Duration {
	return time.Since(s.startTime)
}

// Workspace returns the detected workspace, or nil when none was found.
func (s *Session) Workspace() *workspace.Workspace {
	return s.workspace
}

// SetWorkspace attaches a workspace to the session. It is called once
// by startup detection, and again only after an explicit re-detection
// (e.g. following /init).
func (s *Session) SetWorkspace(ws *workspace.Workspace) {
	s.workspace = ws
}
