package settings

// LeveledEntry is a hook entry tagged with the file it came from.
type LeveledEntry struct {
	FlatEntry
	Level Level  `json:"level"`
	Path  string `json:"path"`
}

// LoadAll discovers from startPath and loads every candidate, in precedence
// order. Missing files load as empty documents.
func (s *Store) LoadAll(startPath string) ([]*Document, error) {
	descs, err := s.Discover(startPath)
	if err != nil {
		return nil, err
	}
	docs := make([]*Document, 0, len(descs))
	for _, d := range descs {
		doc, err := s.Load(d)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Merge lists the entries of docs in precedence order. Claude Code runs the
// hooks of every level, so nothing is shadowed; a project entry is simply
// listed before a user entry for the same event.
func Merge(docs ...*Document) []LeveledEntry {
	var out []LeveledEntry
	for _, d := range docs {
		for _, e := range d.Hooks() {
			out = append(out, LeveledEntry{FlatEntry: e, Level: d.Level, Path: d.Path})
		}
	}
	return out
}

// MergeFor is Merge restricted to one event.
func MergeFor(event string, docs ...*Document) []LeveledEntry {
	var out []LeveledEntry
	for _, e := range Merge(docs...) {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
