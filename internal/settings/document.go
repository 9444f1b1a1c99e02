package settings

import (
	"encoding/json"
	"fmt"

	hookerrors "github.com/lightfastai/cchooks/internal/errors"
	"github.com/lightfastai/cchooks/internal/jsonutil"
)

const (
	hooksKey = "hooks"
	envKey   = "env"
)

// Document is a loaded settings file. The ordered top-level object is the
// only source of truth; the flat hook view is derived from it after every
// change.
type Document struct {
	Path  string
	Level Level
	// BackupPath is set by Save when it copied the previous file aside.
	BackupPath string

	content  *jsonutil.Object
	view     []FlatEntry
	state    State
	existed  bool
	original []byte
}

func newDocument(path string, level Level) *Document {
	return &Document{
		Path:    path,
		Level:   level,
		content: jsonutil.NewObject(),
		state:   StateNotFound,
	}
}

// ParseDocument builds a document from file contents without touching disk.
func ParseDocument(path string, level Level, data []byte) (*Document, error) {
	content, err := jsonutil.ParseObject(data)
	if err != nil {
		return nil, hookerrors.SettingsParse(path, "file is not a JSON object", err)
	}

	view, err := flatten(content)
	if err != nil {
		return nil, hookerrors.SettingsParse(path, err.Error(), nil)
	}

	return &Document{
		Path:     path,
		Level:    level,
		content:  content,
		view:     view,
		state:    StateLoaded,
		existed:  true,
		original: append([]byte(nil), data...),
	}, nil
}

func flatten(content *jsonutil.Object) ([]FlatEntry, error) {
	raw, ok := content.Get(hooksKey)
	if !ok {
		return nil, nil
	}
	events, err := jsonutil.ParseObject(raw)
	if err != nil {
		return nil, fmt.Errorf("%q must be a JSON object", hooksKey)
	}

	var view []FlatEntry
	for _, event := range events.Keys() {
		groups, err := decodeGroups(events, event)
		if err != nil {
			return nil, err
		}
		index := 0
		for gi, g := range groups {
			for pi, entry := range g.Hooks {
				view = append(view, FlatEntry{
					Event:    event,
					Matcher:  g.Matcher,
					Group:    gi,
					Position: pi,
					Index:    index,
					Entry:    entry,
				})
				index++
			}
		}
	}
	return view, nil
}

func decodeGroups(events *jsonutil.Object, event string) ([]MatcherGroup, error) {
	raw, ok := events.Get(event)
	if !ok {
		return nil, nil
	}
	var groups []MatcherGroup
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, fmt.Errorf("hooks.%s must be an array of {matcher, hooks} groups: %v", event, err)
	}
	return groups, nil
}

// State reports where the document is in its lifecycle.
func (d *Document) State() State { return d.state }

// Existed reports whether the file was on disk when the document was loaded
// or last saved.
func (d *Document) Existed() bool { return d.existed }

// Modified reports whether there are unsaved changes.
func (d *Document) Modified() bool {
	return d.state == StateModified || d.state == StateCreated
}

// Original returns the bytes the document was loaded from.
func (d *Document) Original() []byte { return append([]byte(nil), d.original...) }

// Keys returns the top-level keys in file order.
func (d *Document) Keys() []string { return d.content.Keys() }

// Get returns the raw JSON stored under a top-level key.
func (d *Document) Get(key string) (json.RawMessage, bool) { return d.content.Get(key) }

// Events returns the event names under "hooks" in file order.
func (d *Document) Events() []string {
	var events []string
	seen := make(map[string]bool)
	for _, e := range d.view {
		if !seen[e.Event] {
			seen[e.Event] = true
			events = append(events, e.Event)
		}
	}
	return events
}

// Hooks returns every entry in file order.
func (d *Document) Hooks() []FlatEntry {
	out := make([]FlatEntry, len(d.view))
	copy(out, d.view)
	return out
}

// HooksFor returns the entries of one event; the slice index equals
// FlatEntry.Index.
func (d *Document) HooksFor(event string) []FlatEntry {
	var out []FlatEntry
	for _, e := range d.view {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// Groups returns the matcher groups stored under event.
func (d *Document) Groups(event string) []MatcherGroup {
	groups, _ := d.groups(event)
	return groups
}

// Bytes renders the document the way Save writes it.
func (d *Document) Bytes() ([]byte, error) {
	return d.content.Indent()
}

// HooksJSON returns the raw "hooks" value, or an empty object.
func (d *Document) HooksJSON() json.RawMessage {
	if raw, ok := d.content.Get(hooksKey); ok {
		return raw
	}
	return json.RawMessage("{}")
}

// Env returns the string map stored under the top-level "env" key, which
// Claude Code exports to every hook it runs.
func (d *Document) Env() (map[string]string, error) {
	raw, ok := d.content.Get(envKey)
	if !ok {
		return map[string]string{}, nil
	}
	env := map[string]string{}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, hookerrors.SettingsParse(d.Path, fmt.Sprintf("%q must be an object of string values", envKey), err)
	}
	return env, nil
}

// AddHook appends entry to the first group under event whose matcher equals
// matcher, or to a new group at the end when there is none.
func (d *Document) AddHook(event, matcher string, entry HookEntry) (FlatEntry, error) {
	entry, err := NormalizeEntry(entry)
	if err != nil {
		return FlatEntry{}, err
	}
	if err := ValidateEntry(event, matcher, entry); err != nil {
		return FlatEntry{}, err
	}

	groups, err := d.groups(event)
	if err != nil {
		return FlatEntry{}, err
	}

	gi, pi := -1, 0
	for i := range groups {
		if groups[i].Matcher == matcher {
			gi, pi = i, len(groups[i].Hooks)
			groups[i].Hooks = append(groups[i].Hooks, entry)
			break
		}
	}
	if gi < 0 {
		gi = len(groups)
		groups = append(groups, MatcherGroup{Matcher: matcher, Hooks: []HookEntry{entry}})
	}

	if err := d.setGroups(event, groups); err != nil {
		return FlatEntry{}, err
	}
	return d.lookup(event, gi, pi), nil
}

// UpdateHook replaces the fields patch supplies on the entry at index. When
// the matcher changes the entry is split out into its own group at the same
// place, so its index does not move.
func (d *Document) UpdateHook(event string, index int, patch HookPatch) (FlatEntry, error) {
	if err := ValidateEvent(event); err != nil {
		return FlatEntry{}, err
	}
	target, err := d.at(event, index)
	if err != nil {
		return FlatEntry{}, err
	}

	groups, err := d.groups(event)
	if err != nil {
		return FlatEntry{}, err
	}
	group := groups[target.Group]

	updated := target.Entry
	updated.Type = CommandType
	if patch.Command != nil {
		updated.Command = *patch.Command
	}
	if patch.Timeout != nil {
		timeout := *patch.Timeout
		updated.Timeout = &timeout
		updated.badTimeout = nil
	}
	matcher := group.Matcher
	if patch.Matcher != nil {
		matcher = *patch.Matcher
	}
	if err := ValidateEntry(event, matcher, updated); err != nil {
		return FlatEntry{}, err
	}

	gi, pi := target.Group, target.Position
	if matcher == group.Matcher {
		groups[gi].Hooks[pi] = updated
	} else {
		var split []MatcherGroup
		if before := group.Hooks[:pi]; len(before) > 0 {
			split = append(split, MatcherGroup{Matcher: group.Matcher, Hooks: append([]HookEntry(nil), before...)})
		}
		split = append(split, MatcherGroup{Matcher: matcher, Hooks: []HookEntry{updated}})
		if after := group.Hooks[pi+1:]; len(after) > 0 {
			split = append(split, MatcherGroup{Matcher: group.Matcher, Hooks: append([]HookEntry(nil), after...)})
		}

		rebuilt := make([]MatcherGroup, 0, len(groups)+2)
		rebuilt = append(rebuilt, groups[:gi]...)
		if pi > 0 {
			gi++
		}
		pi = 0
		rebuilt = append(rebuilt, split...)
		rebuilt = append(rebuilt, groups[target.Group+1:]...)
		groups = rebuilt
	}

	if err := d.setGroups(event, groups); err != nil {
		return FlatEntry{}, err
	}
	return d.lookup(event, gi, pi), nil
}

// RemoveHook deletes the entry at index and returns it. A group left empty is
// removed, and so is an event left without groups.
func (d *Document) RemoveHook(event string, index int) (FlatEntry, error) {
	target, err := d.at(event, index)
	if err != nil {
		return FlatEntry{}, err
	}

	groups, err := d.groups(event)
	if err != nil {
		return FlatEntry{}, err
	}

	g := &groups[target.Group]
	g.Hooks = append(g.Hooks[:target.Position], g.Hooks[target.Position+1:]...)
	if len(g.Hooks) == 0 {
		groups = append(groups[:target.Group], groups[target.Group+1:]...)
	}

	if err := d.setGroups(event, groups); err != nil {
		return FlatEntry{}, err
	}
	return target, nil
}

func (d *Document) at(event string, index int) (FlatEntry, error) {
	entries := d.HooksFor(event)
	if index < 0 || index >= len(entries) {
		return FlatEntry{}, hookerrors.IndexOutOfRange(event, index, len(entries))
	}
	return entries[index], nil
}

func (d *Document) lookup(event string, group, position int) FlatEntry {
	for _, e := range d.view {
		if e.Event == event && e.Group == group && e.Position == position {
			return e
		}
	}
	return FlatEntry{}
}

func (d *Document) hooksObject() (*jsonutil.Object, error) {
	raw, ok := d.content.Get(hooksKey)
	if !ok {
		return jsonutil.NewObject(), nil
	}
	return jsonutil.ParseObject(raw)
}

func (d *Document) groups(event string) ([]MatcherGroup, error) {
	events, err := d.hooksObject()
	if err != nil {
		return nil, hookerrors.SettingsParse(d.Path, err.Error(), nil)
	}
	groups, err := decodeGroups(events, event)
	if err != nil {
		return nil, hookerrors.SettingsParse(d.Path, err.Error(), nil)
	}
	return groups, nil
}

// setGroups writes groups back under event and rebuilds the view from the
// resulting content.
func (d *Document) setGroups(event string, groups []MatcherGroup) error {
	events, err := d.hooksObject()
	if err != nil {
		return hookerrors.SettingsParse(d.Path, err.Error(), nil)
	}

	if len(groups) == 0 {
		events.Delete(event)
	} else {
		for i := range groups {
			if groups[i].Hooks == nil {
				groups[i].Hooks = []HookEntry{}
			}
		}
		if err := events.SetValue(event, groups); err != nil {
			return err
		}
	}

	raw, err := jsonutil.Marshal(events)
	if err != nil {
		return err
	}
	d.content.Set(hooksKey, raw)

	view, err := flatten(d.content)
	if err != nil {
		return hookerrors.SettingsParse(d.Path, err.Error(), nil)
	}
	d.view = view

	switch d.state {
	case StateNotFound, StateCreated:
		d.state = StateCreated
	default:
		d.state = StateModified
	}
	return nil
}
