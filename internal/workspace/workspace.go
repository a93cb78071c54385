// Package workspace locates and initializes proxmox-mpc project
// directories. A workspace is any directory containing a
// .proxmox-workspace/config.yml file; detection walks upward from the
// starting directory the same way version-control tools find their root.
package workspace

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DirName is the marker directory identifying a workspace root.
const DirName = ".proxmox-workspace"

// configFile is the project file inside the marker directory.
const configFile = "config.yml"

// ErrNotFound is returned by Detect when no workspace marker exists
// between the starting directory and the filesystem root.
var ErrNotFound = errors.New("no workspace found")

// Config holds the per-project connection settings.
type Config struct {
	Host        string `yaml:"host"`
	Node        string `yaml:"node"`
	TokenID     string `yaml:"token_id,omitempty"`
	TokenSecret string `yaml:"token_secret,omitempty"`
}

// Workspace describes a detected project directory.
type Workspace struct {
	Name    string    `yaml:"name"`
	Created time.Time `yaml:"created,omitempty"`
	Config  Config    `yaml:"config"`

	// Path is the workspace root (the directory containing
	// .proxmox-workspace); not serialized into the project file.
	Path string `yaml:"-"`
}

// StatePath returns the location of the workspace state database.
func (w *Workspace) StatePath() string {
	return filepath.Join(w.Path, DirName, "state.db")
}

// Slug returns a stable identifier for the workspace, derived from its
// path. Used to key per-workspace storage under the user config dir.
func (w *Workspace) Slug() string {
	clean := filepath.Clean(w.Path)
	base := sanitizeSlug(filepath.Base(clean))
	if base == "" {
		base = "workspace"
	}
	sum := sha1.Sum([]byte(clean))
	return fmt.Sprintf("%s-%s", base, hex.EncodeToString(sum[:8]))
}

// Detect walks upward from dir looking for a workspace marker. It
// returns ErrNotFound when no marker exists; any other error means the
// marker was present but unreadable.
func Detect(dir string) (*Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	for current := abs; ; current = filepath.Dir(current) {
		candidate := filepath.Join(current, DirName, configFile)
		if _, err := os.Stat(candidate); err == nil {
			return load(current, candidate)
		}
		if filepath.Dir(current) == current {
			return nil, ErrNotFound
		}
	}
}

func load(root, path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workspace config: %w", err)
	}
	var ws Workspace
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("parse workspace config: %w", err)
	}
	if ws.Name == "" {
		ws.Name = filepath.Base(root)
	}
	ws.Path = root
	return &ws, nil
}

// Init creates a workspace marker in dir. It fails if one already
// exists there; re-running init over an existing project would silently
// clobber its connection settings otherwise.
func Init(dir, name, host, node string) (*Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	markerDir := filepath.Join(abs, DirName)
	path := filepath.Join(markerDir, configFile)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("workspace already initialized at %s", abs)
	}
	if err := os.MkdirAll(markerDir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace dir: %w", err)
	}

	if name == "" {
		name = filepath.Base(abs)
	}
	ws := Workspace{
		Name:    name,
		Created: time.Now(),
		Config:  Config{Host: host, Node: node},
		Path:    abs,
	}

	data, err := yaml.Marshal(&ws)
	if err != nil {
		return nil, fmt.Errorf("marshal workspace config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("write workspace config: %w", err)
	}
	return &ws, nil
}

func sanitizeSlug(name string) string {
	var result strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			result.WriteRune(r)
		} else if r == ' ' {
			result.WriteRune('-')
		}
	}
	return strings.ToLower(result.String())
}
