package env

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/lightfastai/cchooks/internal/settings"
)

func parseDoc(t *testing.T, level settings.Level, content string) *settings.Document {
	t.Helper()
	doc, err := settings.ParseDocument("/tmp/"+string(level)+".json", level, []byte(content))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestLoadLayeredEnv(t *testing.T) {
	project := parseDoc(t, settings.LevelProject, `{"env":{"SHARED":"project","PROJECT_ONLY":"p"}}`)
	user := parseDoc(t, settings.LevelUser, `{"env":{"SHARED":"user","USER_ONLY":"u","FILE":"user"}}`)

	dir := t.TempDir()
	first := filepath.Join(dir, "a.env")
	second := filepath.Join(dir, "b.env")
	if err := os.WriteFile(first, []byte("FILE=a\nFROM_A=1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte("FILE=b\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	env, err := LoadLayeredEnv([]*settings.Document{project, user}, []string{first, second}, map[string]string{"FROM_A": "override"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := map[string]string{
		"SHARED":       "project",
		"PROJECT_ONLY": "p",
		"USER_ONLY":    "u",
		"FILE":         "b",
		"FROM_A":       "override",
	}
	if got := env.Merge(); !reflect.DeepEqual(got, expected) {
		t.Errorf("merged env:\nexpected %v\ngot      %v", expected, got)
	}

	stats := env.Stats()
	if stats.SettingsVars != 4 || stats.FileVars != 2 || stats.OverrideVars != 1 || stats.TotalVars != 5 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestLoadLayeredEnv_Errors(t *testing.T) {
	bad := parseDoc(t, settings.LevelProject, `{"env":{"N":1}}`)
	if _, err := LoadLayeredEnv([]*settings.Document{bad}, nil, nil); err == nil {
		t.Error("expected error for non-string env value")
	}

	if _, err := LoadLayeredEnv(nil, []string{filepath.Join(t.TempDir(), "none.env")}, nil); err == nil {
		t.Error("expected error for missing env file")
	}
}

func TestLayeredEnv_ToSliceSorted(t *testing.T) {
	env := &LayeredEnv{
		Settings:  map[string]string{"B": "settings", "C": "3"},
		Overrides: map[string]string{"B": "override", "A": "1"},
	}

	want := []string{"A=1", "B=override", "C=3"}
	if got := env.ToSlice(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseOverrides(t *testing.T) {
	got, err := ParseOverrides([]string{"A=1", "EMPTY=", "URL=http://x?a=b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{"A": "1", "EMPTY": "", "URL": "http://x?a=b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	for _, bad := range []string{"NOEQUALS", "=value", " =x"} {
		if _, err := ParseOverrides([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
