// Package settings discovers, loads, edits and atomically saves the hook
// section of Claude Code settings.json files.
package settings

import (
	"encoding/json"
	"fmt"
	"time"
)

// Level is the precedence level a settings file belongs to.
type Level string

const (
	LevelProject Level = "project"
	LevelUser    Level = "user"
)

// Levels returns the levels in precedence order.
func Levels() []Level {
	return []Level{LevelProject, LevelUser}
}

// ParseLevel accepts "project" or "user".
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelProject, LevelUser:
		return Level(s), nil
	}
	return "", fmt.Errorf("invalid settings level %q (must be project or user)", s)
}

// CommandType is the only hook type the store writes.
const CommandType = "command"

// HookEntry is one registered hook command as it appears on disk.
type HookEntry struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout *int   `json:"timeout,omitempty"`

	// badTimeout holds a timeout value from disk that is not a whole number
	// of seconds. It is written back unchanged and reported by Validate.
	badTimeout json.RawMessage
}

// MatcherGroup is one element of hooks[<event>].
type MatcherGroup struct {
	Matcher string      `json:"matcher"`
	Hooks   []HookEntry `json:"hooks"`
}

// HookPatch carries the fields UpdateHook should replace. Nil fields are left
// as they are.
type HookPatch struct {
	Matcher *string
	Command *string
	Timeout *int
}

// FlatEntry addresses one hook entry. Index counts entries across all groups
// of the same event, in file order; Group and Position locate it inside the
// hooks[event] array.
type FlatEntry struct {
	Event    string    `json:"event"`
	Matcher  string    `json:"matcher"`
	Group    int       `json:"-"`
	Position int       `json:"-"`
	Index    int       `json:"index"`
	Entry    HookEntry `json:"hook"`
}

// State tracks a document through load, edit and save.
type State int

const (
	StateNotFound State = iota
	StateLoaded
	StateCreated
	StateModified
	StateSaved
)

func (s State) String() string {
	switch s {
	case StateNotFound:
		return "not-found"
	case StateLoaded:
		return "loaded"
	case StateCreated:
		return "created"
	case StateModified:
		return "modified"
	case StateSaved:
		return "saved"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Descriptor describes a candidate settings file without reading it.
type Descriptor struct {
	Path  string `json:"path"`
	Level Level  `json:"level"`
	// Found is false for a project candidate when no ancestor directory
	// holds a .claude directory; Path is then where one would be created.
	Found    bool      `json:"found"`
	Exists   bool      `json:"exists"`
	Readable bool      `json:"readable"`
	Writable bool      `json:"writable"`
	ModTime  time.Time `json:"modTime,omitempty"`
}

// SaveOptions controls Save.
type SaveOptions struct {
	Backup bool
}

// Backup is one backup file of a settings file.
type Backup struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
	Size    int64     `json:"size"`
}
