package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchTool(t *testing.T) {
	tests := []struct {
		matcher string
		tool    string
		want    bool
	}{
		{"", "Bash", true},
		{"*", "Write", true},
		{"Bash", "Bash", true},
		{"Bash", "BashOutput", false},
		{"Write|Edit", "Edit", true},
		{"Write|Edit", "NotebookEdit", false},
		{"mcp__.*", "mcp__github__search", true},
		{"Notebook.*", "NotebookEdit", true},
	}

	for _, tt := range tests {
		t.Run(tt.matcher+"/"+tt.tool, func(t *testing.T) {
			got, err := MatchTool(tt.matcher, tt.tool)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchTool_Invalid(t *testing.T) {
	_, err := MatchTool("(", "Bash")
	assert.Error(t, err)
}
