package settings

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/lightfastai/cchooks/pkg/hooks"
)

// Timeout thresholds, in seconds, used by Validate.
const (
	TimeoutWarnAbove = 300
	TimeoutMax       = 3600
)

// Severity grades a validation finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding. Index is -1 for findings that are not
// about a single entry.
type Issue struct {
	Severity Severity `json:"severity"`
	Event    string   `json:"event,omitempty"`
	Index    int      `json:"index"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
}

// Report collects the findings for one document.
type Report struct {
	Path   string  `json:"path"`
	Level  Level   `json:"level"`
	Issues []Issue `json:"issues"`
}

// Errors counts error-level findings.
func (r *Report) Errors() int { return r.count(SeverityError) }

// Warnings counts warning-level findings.
func (r *Report) Warnings() int { return r.count(SeverityWarning) }

// OK reports whether there are no errors.
func (r *Report) OK() bool { return r.Errors() == 0 }

func (r *Report) count(s Severity) int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == s {
			n++
		}
	}
	return n
}

func (r *Report) add(sev Severity, event string, index int, field, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{
		Severity: sev,
		Event:    event,
		Index:    index,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Validate checks doc's hooks against the schema and then each entry for
// problems Claude Code would trip over at run time.
func Validate(doc *Document) (*Report, error) {
	report := &Report{Path: doc.Path, Level: doc.Level, Issues: []Issue{}}

	violations, err := ValidateHooksSchema(doc.HooksJSON())
	if err != nil {
		return nil, err
	}
	for _, v := range violations {
		report.add(SeverityError, "", -1, "", "schema: %s: %s", v.Location, v.Message)
	}

	for _, event := range doc.Events() {
		kind, known := hooks.ParseEventKind(event)
		if !known {
			report.add(SeverityError, event, -1, "event", "unknown hook event %q", event)
		}
		for _, e := range doc.HooksFor(event) {
			checkEntry(report, kind, known, e)
		}
	}
	return report, nil
}

func checkEntry(r *Report, kind hooks.EventKind, known bool, e FlatEntry) {
	if known {
		switch {
		case kind.RequiresMatcher() && e.Matcher == "":
			r.add(SeverityError, e.Event, e.Index, "matcher", "%s hooks require a tool matcher", e.Event)
		case !kind.RequiresMatcher() && !MatchAll(e.Matcher):
			r.add(SeverityWarning, e.Event, e.Index, "matcher", "matcher %q is ignored for %s hooks", e.Matcher, e.Event)
		}
	}
	if !MatchAll(e.Matcher) {
		if _, err := CompileMatcher(e.Matcher); err != nil {
			r.add(SeverityError, e.Event, e.Index, "matcher", "%v", err)
		}
	}

	if e.Entry.Type != CommandType {
		r.add(SeverityWarning, e.Event, e.Index, "type", "type %q is not managed by cchooks", e.Entry.Type)
	}

	if strings.TrimSpace(e.Entry.Command) == "" {
		r.add(SeverityError, e.Event, e.Index, "command", "command is empty")
	} else if !CommandResolvable(e.Entry.Command) {
		r.add(SeverityWarning, e.Event, e.Index, "command", "executable for %q not found", e.Entry.Command)
	}

	if e.Entry.badTimeout != nil {
		r.add(SeverityError, e.Event, e.Index, "timeout", "timeout must be a whole number of seconds, got %s", e.Entry.badTimeout)
	}
	if t := e.Entry.Timeout; t != nil {
		switch {
		case *t <= 0:
			r.add(SeverityError, e.Event, e.Index, "timeout", "timeout must be positive, got %d", *t)
		case *t > TimeoutMax:
			r.add(SeverityError, e.Event, e.Index, "timeout", "timeout %ds exceeds the %ds maximum", *t, TimeoutMax)
		case *t > TimeoutWarnAbove:
			r.add(SeverityWarning, e.Event, e.Index, "timeout", "timeout %ds is unusually long", *t)
		}
	}
}

// CommandResolvable reports whether the first word of command names an
// executable on PATH or an existing file. Commands starting with a variable
// reference or a shell construct are assumed resolvable.
func CommandResolvable(command string) bool {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false
	}
	head := fields[0]
	if strings.ContainsAny(head, "$`(") || strings.Contains(head, "=") {
		return true
	}
	if strings.HasPrefix(head, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			head = filepath.Join(home, head[2:])
		}
	}
	if strings.ContainsRune(head, filepath.Separator) {
		_, err := os.Stat(head)
		return err == nil
	}
	_, err := exec.LookPath(head)
	return err == nil
}
