package settings

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAllAndMerge(t *testing.T) {
	store, home := newTestStore(t)
	project := t.TempDir()
	writeFile(t, filepath.Join(project, ".claude", "settings.json"),
		`{"hooks":{"Stop":[{"matcher":"","hooks":[{"type":"command","command":"p"}]}]}}`)
	writeFile(t, filepath.Join(home, ".claude", "settings.json"),
		`{"hooks":{"Stop":[{"matcher":"","hooks":[{"type":"command","command":"u"}]}],"Notification":[{"matcher":"","hooks":[{"type":"command","command":"n"}]}]}}`)

	docs, err := store.LoadAll(project)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	merged := Merge(docs...)
	require.Len(t, merged, 3)
	assert.Equal(t, LevelProject, merged[0].Level)
	assert.Equal(t, "p", merged[0].Entry.Command)
	assert.Equal(t, LevelUser, merged[1].Level)

	stop := MergeFor("Stop", docs...)
	require.Len(t, stop, 2)
	assert.Equal(t, "u", stop[1].Entry.Command)
}
