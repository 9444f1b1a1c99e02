package settings

import (
	"fmt"
	"regexp"
)

// MatchAll reports whether matcher selects every tool.
func MatchAll(matcher string) bool {
	return matcher == "" || matcher == "*"
}

// CompileMatcher turns a tool matcher into a regexp anchored to the whole
// tool name, so "Write|Edit" matches "Edit" but not "NotebookEdit".
func CompileMatcher(matcher string) (*regexp.Regexp, error) {
	if MatchAll(matcher) {
		return regexp.MustCompile(`.*`), nil
	}
	re, err := regexp.Compile("^(?:" + matcher + ")$")
	if err != nil {
		return nil, fmt.Errorf("invalid matcher %q: %w", matcher, err)
	}
	return re, nil
}

// MatchTool reports whether matcher selects toolName.
func MatchTool(matcher, toolName string) (bool, error) {
	if MatchAll(matcher) {
		return true, nil
	}
	re, err := CompileMatcher(matcher)
	if err != nil {
		return false, err
	}
	return re.MatchString(toolName), nil
}
