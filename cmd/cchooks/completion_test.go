package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lightfastai/cchooks/pkg/hooks"
)

func TestCompletionCommand(t *testing.T) {
	tests := []struct {
		name          string
		shell         string
		expectErr     bool
		expectContain string
	}{
		{
			name:          "bash completion",
			shell:         "bash",
			expectContain: "# bash completion",
		},
		{
			name:          "zsh completion",
			shell:         "zsh",
			expectContain: "#compdef cchooks",
		},
		{
			name:          "fish completion",
			shell:         "fish",
			expectContain: "# fish completion",
		},
		{
			name:      "invalid shell",
			shell:     "invalid",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newTestEnv(t)
			output, err := execute(t, "completion", tt.shell)

			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, output, "completion output should not be empty")
			assert.Contains(t, output, tt.expectContain)
		})
	}
}

func TestEventCompletion(t *testing.T) {
	completions, directive := eventCompletion(addCmd, []string{}, "")
	assert.Equal(t, hooks.EventNames(), completions)
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)

	// only the first positional argument is an event
	completions, _ = eventCompletion(removeCmd, []string{"Stop"}, "")
	assert.Empty(t, completions)
}

func TestLevelCompletion(t *testing.T) {
	completions, directive := levelCompletion(nil, nil, "")
	assert.Equal(t, []string{"project", "user"}, completions)
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
}

func TestTemplateCompletion(t *testing.T) {
	env := newTestEnv(t)

	completions, directive := templateCompletion(generateCmd, []string{}, "")
	assert.Equal(t, []string{"context-loader", "desktop-notifier", "security-guard"}, completions)
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)

	src := filepath.Join(env.project, "x.tmpl")
	writeFile(t, src, "package main\n")
	_, err := execute(t, "template", "register", "audit-log", src, "--event", "Stop")
	require.NoError(t, err)

	completions, _ = templateCompletion(generateCmd, []string{}, "")
	assert.Equal(t, []string{"context-loader", "desktop-notifier", "security-guard", "audit-log"}, completions)

	completions, _ = templateCompletion(generateCmd, []string{"security-guard"}, "")
	assert.Empty(t, completions)
}

func TestBackupCompletion(t *testing.T) {
	env := newTestEnv(t)
	writeFile(t, env.projectSettings(), `{"hooks":{}}`)
	_, err := execute(t, "backup", "create")
	require.NoError(t, err)

	resetFlags(rootCmd)
	completions, directive := backupCompletion(backupRestoreCmd, []string{}, "")
	require.Len(t, completions, 1)
	assert.Regexp(t, `^settings\.json\.\d{8}_\d{6}_\d{6}\.bak$`, completions[0])
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
}

func TestHelpListsCommands(t *testing.T) {
	newTestEnv(t)
	out, err := execute(t, "--help")
	require.NoError(t, err)
	for _, name := range []string{"add", "backup", "doctor", "generate", "list", "remove", "template", "test", "update", "validate"} {
		assert.Contains(t, out, name)
	}
}
