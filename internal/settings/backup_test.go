package settings

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hookerrors "github.com/lightfastai/cchooks/internal/errors"
)

func TestBackupName(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 8_009_000, time.UTC)
	assert.Equal(t, "settings.json.20260304_050607_008009.bak", backupName("settings.json", ts))

	east := time.FixedZone("UTC+2", 2*60*60)
	assert.Equal(t, "settings.json.20260304_050607_008009.bak", backupName("settings.json", ts.In(east)))
}

func TestBackups_SortAcrossDSTFallBack(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 01:30 EDT, then 01:10 EST forty minutes later.
	older := time.Date(2026, 11, 1, 1, 30, 0, 0, ny)
	times := []time.Time{older, older.Add(40 * time.Minute)}
	require.Less(t, times[1].Hour()*60+times[1].Minute(), times[0].Hour()*60+times[0].Minute())

	i := 0
	store, _ := newTestStore(t, WithClock(func() time.Time {
		ts := times[min(i, len(times)-1)]
		i++
		return ts
	}), WithBackupRetention(0))
	path := filepath.Join(t.TempDir(), "settings.json")
	writeFile(t, path, `{}`)

	first, err := store.CreateBackup(path)
	require.NoError(t, err)
	second, err := store.CreateBackup(path)
	require.NoError(t, err)
	assert.Less(t, filepath.Base(first), filepath.Base(second))

	backups, err := store.Backups(path)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, second, backups[0].Path)
	assert.True(t, backups[0].Created.Equal(times[1]))

	removed, err := store.CleanBackups(path, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{first}, removed)
}

func TestBackups_SortInCreationOrder(t *testing.T) {
	// A frozen clock must still yield strictly increasing names.
	frozen := time.Date(2026, 1, 1, 12, 0, 0, 0, time.Local)
	store, _ := newTestStore(t, WithClock(func() time.Time { return frozen }), WithBackupRetention(0))
	path := filepath.Join(t.TempDir(), "settings.json")
	writeFile(t, path, `{}`)

	doc, err := store.LoadPath(path, LevelProject)
	require.NoError(t, err)

	var created []string
	for i := 0; i < 3; i++ {
		_, err := doc.AddHook("Stop", "", HookEntry{Command: "x"})
		require.NoError(t, err)
		backup, err := store.Save(doc, SaveOptions{Backup: true})
		require.NoError(t, err)
		require.NotEmpty(t, backup)
		assert.Equal(t, backup, doc.BackupPath)
		created = append(created, filepath.Base(backup))
	}

	sorted := append([]string(nil), created...)
	sort.Strings(sorted)
	assert.Equal(t, created, sorted)
	assert.Len(t, map[string]bool{created[0]: true, created[1]: true, created[2]: true}, 3)
}

func TestBackups_ClockGoingBackwards(t *testing.T) {
	times := []time.Time{
		time.Date(2026, 1, 1, 12, 0, 1, 0, time.Local),
		time.Date(2026, 1, 1, 12, 0, 0, 0, time.Local),
	}
	i := 0
	store, _ := newTestStore(t, WithClock(func() time.Time {
		ts := times[min(i, len(times)-1)]
		i++
		return ts
	}))
	path := filepath.Join(t.TempDir(), "settings.json")
	writeFile(t, path, `{}`)

	first, err := store.CreateBackup(path)
	require.NoError(t, err)
	second, err := store.CreateBackup(path)
	require.NoError(t, err)
	assert.Less(t, filepath.Base(first), filepath.Base(second))
}

func TestBackups_ListNewestFirst(t *testing.T) {
	store, _ := newTestStore(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	writeFile(t, path, `{"v":1}`)

	first, err := store.CreateBackup(path)
	require.NoError(t, err)
	second, err := store.CreateBackup(path)
	require.NoError(t, err)

	// Unrelated files are ignored.
	writeFile(t, filepath.Join(dir, "settings.json.bak"), `{}`)
	writeFile(t, filepath.Join(dir, "other.json.20260101_000000_000000.bak"), `{}`)

	backups, err := store.Backups(path)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, second, backups[0].Path)
	assert.Equal(t, first, backups[1].Path)
	assert.Equal(t, int64(len(`{"v":1}`)), backups[0].Size)
	assert.False(t, backups[0].Created.Before(backups[1].Created))
}

func TestCreateBackup_MissingFile(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.CreateBackup(filepath.Join(t.TempDir(), "settings.json"))
	assert.Error(t, err)
}

func TestRestoreBackup(t *testing.T) {
	store, _ := newTestStore(t, WithBackupRetention(0))
	path := filepath.Join(t.TempDir(), "settings.json")
	writeFile(t, path, `{"v":1}`)

	b1, err := store.CreateBackup(path)
	require.NoError(t, err)
	writeFile(t, path, `{"v":2}`)
	_, err = store.CreateBackup(path)
	require.NoError(t, err)
	writeFile(t, path, `{"v":3}`)

	// Latest by default.
	restored, previous, err := store.RestoreBackup(path, "")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, readFile(t, path))
	assert.NotEqual(t, restored.Path, previous)
	assert.Equal(t, `{"v":3}`, readFile(t, previous))

	// By name.
	_, _, err = store.RestoreBackup(path, filepath.Base(b1))
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, readFile(t, path))
}

func TestRestoreBackup_NotFound(t *testing.T) {
	store, _ := newTestStore(t)
	path := filepath.Join(t.TempDir(), "settings.json")
	writeFile(t, path, `{}`)

	_, _, err := store.RestoreBackup(path, "")
	assert.True(t, hookerrors.IsType(err, hookerrors.ErrBackupNotFound))

	_, err = store.CreateBackup(path)
	require.NoError(t, err)
	_, _, err = store.RestoreBackup(path, "settings.json.19990101_000000_000000.bak")
	assert.True(t, hookerrors.IsType(err, hookerrors.ErrBackupNotFound))
}

func TestRestoreBackup_CorruptBackup(t *testing.T) {
	store, _ := newTestStore(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	writeFile(t, path, `{"ok":true}`)
	writeFile(t, filepath.Join(dir, "settings.json.20260101_000000_000000.bak"), `{broken`)

	_, _, err := store.RestoreBackup(path, "")
	assert.True(t, hookerrors.IsType(err, hookerrors.ErrSettingsParse))
	assert.Equal(t, `{"ok":true}`, readFile(t, path))
}

func TestCleanBackups(t *testing.T) {
	store, _ := newTestStore(t, WithBackupRetention(0))
	path := filepath.Join(t.TempDir(), "settings.json")
	writeFile(t, path, `{}`)

	var all []string
	for i := 0; i < 5; i++ {
		b, err := store.CreateBackup(path)
		require.NoError(t, err)
		all = append(all, b)
	}

	removed, err := store.CleanBackups(path, 2)
	require.NoError(t, err)
	assert.ElementsMatch(t, all[:3], removed)

	left, err := store.Backups(path)
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Equal(t, all[4], left[0].Path)

	_, err = store.CleanBackups(path, -1)
	assert.True(t, hookerrors.IsType(err, hookerrors.ErrValidation))
}

func TestSave_AppliesRetention(t *testing.T) {
	store, _ := newTestStore(t, WithBackupRetention(2))
	path := filepath.Join(t.TempDir(), "settings.json")
	writeFile(t, path, `{}`)

	doc, err := store.LoadPath(path, LevelProject)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err := store.Save(doc, SaveOptions{Backup: true})
		require.NoError(t, err)
	}

	backups, err := store.Backups(path)
	require.NoError(t, err)
	assert.Len(t, backups, 2)
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `a\*b\?\[c\]\{d\}`, escapeGlob("a*b?[c]{d}"))

	store, _ := newTestStore(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "odd[1].json")
	writeFile(t, path, `{}`)
	_, err := store.CreateBackup(path)
	require.NoError(t, err)

	backups, err := store.Backups(path)
	require.NoError(t, err)
	assert.Len(t, backups, 1)

	_, err = os.Stat(backups[0].Path)
	assert.NoError(t, err)
}
