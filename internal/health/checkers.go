package health

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lightfastai/cchooks/internal/config"
	hookerrors "github.com/lightfastai/cchooks/internal/errors"
	"github.com/lightfastai/cchooks/internal/registry"
	"github.com/lightfastai/cchooks/internal/settings"
	"github.com/lightfastai/cchooks/internal/worktree"
)

// CheckerContext holds the context for running health checks
type CheckerContext struct {
	Store      *settings.Store
	Config     *config.Config
	ConfigPath string
	// ConfigErr is the error config.Load returned, if any
	ConfigErr    error
	TemplatesDir string
	AutoFix      bool
	Verbose      bool
}

// CheckConfigFile validates the cchooks configuration file
func CheckConfigFile(ctx *CheckerContext) Check {
	check := NewCheck("Configuration File", ctx.ConfigPath)

	if ctx.ConfigErr != nil {
		return check.
			WithStatus(StatusError).
			WithMessage("Configuration file is invalid").
			WithError(ctx.ConfigErr).
			WithFixAction("Fix or delete " + ctx.ConfigPath + " to fall back to defaults")
	}

	if _, err := os.Stat(ctx.ConfigPath); errors.Is(err, os.ErrNotExist) {
		return check.WithMessage("No configuration file, using defaults")
	}

	cfg := ctx.Config
	details := []string{
		fmt.Sprintf("Version: %d", cfg.Version),
		fmt.Sprintf("Default level: %s", cfg.DefaultLevel),
		fmt.Sprintf("Backups: enabled=%t keep=%d", cfg.BackupEnabled(), cfg.BackupKeep()),
		fmt.Sprintf("Lock timeout: %s", cfg.LockTimeoutDuration()),
	}
	return check.WithMessage("Valid configuration").WithDetails(details...)
}

// CheckSettingsFile checks that a settings file is readable and parses. The
// loaded document is returned so later checks can inspect it; it is nil when
// the file could not be read.
func CheckSettingsFile(ctx *CheckerContext, d settings.Descriptor) (Check, *settings.Document) {
	check := NewCheck("Settings File", d.Path)

	if !d.Exists {
		msg := "Not present; no hooks configured at this level"
		if d.Level == settings.LevelProject && !d.Found {
			msg = "No .claude directory found above the working directory"
		}
		return check.WithMessage(msg), nil
	}
	if !d.Readable {
		return check.
			WithStatus(StatusError).
			WithMessage("Settings file is not readable").
			WithFixAction("chmod u+r " + d.Path), nil
	}

	doc, err := ctx.Store.Load(d)
	if err != nil {
		check = check.
			WithStatus(StatusError).
			WithMessage("Settings file does not parse").
			WithError(err)
		if e, ok := hookerrors.As(err); ok && e.Context["Reason"] != "" {
			check = check.WithDetails(e.Context["Reason"])
		}
		return check.WithFixAction("cchooks backup restore --file " + d.Path), nil
	}

	return check.
		WithMessage(fmt.Sprintf("Parsed %d hook(s) across %d event(s)", len(doc.Hooks()), len(doc.Events()))), doc
}

// CheckWritable verifies cchooks can replace the settings file
func CheckWritable(d settings.Descriptor) Check {
	check := NewCheck("Permissions", d.Path)
	if d.Writable {
		if d.Exists {
			return check.WithMessage("Settings file is writable")
		}
		return check.WithMessage("Settings file can be created")
	}
	return check.
		WithStatus(StatusWarn).
		WithMessage("Settings file cannot be written; add, update and remove will fail").
		WithFixAction("Check ownership and permissions of " + d.Path + " and its directory")
}

// CheckSchema validates the hooks section against the settings schema
func CheckSchema(doc *settings.Document) Check {
	check := NewCheck("Schema", doc.Path)

	violations, err := settings.ValidateHooksSchema(doc.HooksJSON())
	if err != nil {
		return check.WithStatus(StatusError).WithMessage("Schema check failed").WithError(err)
	}
	if len(violations) == 0 {
		return check.WithMessage("hooks section matches the settings schema")
	}

	details := make([]string, len(violations))
	for i, v := range violations {
		details[i] = fmt.Sprintf("%s: %s", v.Location, v.Message)
	}
	return check.
		WithStatus(StatusError).
		WithMessage(fmt.Sprintf("%d schema violation(s)", len(violations))).
		WithDetails(details...).
		WithFixAction("cchooks validate --file " + doc.Path)
}

// CheckEntries reports semantic problems with individual hook entries.
// Schema violations and unresolvable commands have their own checks.
func CheckEntries(doc *settings.Document) Check {
	check := NewCheck("Hook Entries", doc.Path)

	report, err := settings.Validate(doc)
	if err != nil {
		return check.WithStatus(StatusError).WithMessage("Validation failed").WithError(err)
	}

	var details []string
	status := StatusPass
	for _, issue := range report.Issues {
		if isSchemaIssue(issue) || isCommandIssue(issue) {
			continue
		}
		details = append(details, formatIssue(issue))
		if issue.Severity == settings.SeverityError {
			status = StatusError
		} else if status == StatusPass {
			status = StatusWarn
		}
	}

	if status == StatusPass {
		return check.WithMessage(fmt.Sprintf("%d hook entries look valid", len(doc.Hooks())))
	}
	return check.
		WithStatus(status).
		WithMessage(fmt.Sprintf("%d problem(s) found", len(details))).
		WithDetails(details...).
		WithFixAction("cchooks validate --file " + doc.Path)
}

// CheckCommands warns about hook commands whose executable cannot be found
func CheckCommands(doc *settings.Document) Check {
	check := NewCheck("Commands", doc.Path)

	var missing []string
	for _, e := range doc.Hooks() {
		if strings.TrimSpace(e.Entry.Command) == "" {
			continue
		}
		if !settings.CommandResolvable(e.Entry.Command) {
			missing = append(missing, fmt.Sprintf("%s[%d]: %s", e.Event, e.Index, e.Entry.Command))
		}
	}

	if len(missing) == 0 {
		return check.WithMessage("All hook commands resolve to an executable")
	}
	return check.
		WithStatus(StatusWarn).
		WithMessage(fmt.Sprintf("%d command(s) not found on PATH or disk", len(missing))).
		WithDetails(missing...).
		WithFixAction("Install the missing executables or fix the paths with 'cchooks update'")
}

// CheckBackups warns when more backups exist than the retention allows.
// With AutoFix the extra backups are deleted.
func CheckBackups(ctx *CheckerContext, path string, keep int) Check {
	check := NewCheck("Backups", path)

	backups, err := ctx.Store.Backups(path)
	if err != nil {
		return check.WithStatus(StatusWarn).WithMessage("Could not list backups").WithError(err)
	}
	if len(backups) == 0 {
		return check.WithMessage("No backups")
	}

	details := []string{fmt.Sprintf("Newest: %s", backups[0].Name)}
	if keep == 0 || len(backups) <= keep {
		return check.
			WithMessage(fmt.Sprintf("%d backup(s) within retention", len(backups))).
			WithDetails(details...)
	}

	fix := fmt.Sprintf("cchooks backup clean --file %s --keep %d", path, keep)
	check = check.
		WithStatus(StatusWarn).
		WithMessage(fmt.Sprintf("%d backup(s) exceed the retention of %d", len(backups), keep)).
		WithDetails(details...).
		WithFixAction(fix)

	if ctx.AutoFix {
		removed, err := ctx.Store.CleanBackups(path, keep)
		if err != nil {
			return check.WithError(err)
		}
		return check.
			WithStatus(StatusPass).
			WithMessage(fmt.Sprintf("Removed %d old backup(s)", len(removed))).
			WithFixApplied()
	}
	return check
}

// CheckLock reports a settings lock that is currently held or left behind
func CheckLock(ctx *CheckerContext, path string) Check {
	lockPath := settings.LockPath(path)
	check := NewCheck("Settings Lock", lockPath)

	if _, err := os.Stat(lockPath); errors.Is(err, os.ErrNotExist) {
		return check.WithMessage("No lock file")
	}

	held, err := settings.LockHeld(path)
	if err != nil {
		return check.WithStatus(StatusWarn).WithMessage("Could not probe lock").WithError(err)
	}
	if held {
		return check.
			WithStatus(StatusWarn).
			WithMessage("Lock is held by another process; edits will wait for it").
			WithFixAction("Wait for the other cchooks process to finish")
	}

	check = check.WithMessage("Lock file present and free").WithFixAction("Remove " + lockPath)
	if ctx.AutoFix {
		if err := os.Remove(lockPath); err != nil {
			return check.WithStatus(StatusWarn).WithError(err)
		}
		return check.WithMessage("Removed unused lock file").WithFixApplied()
	}
	return check
}

// CheckTemplateRegistry validates the user template registry and the
// template sources it points at
func CheckTemplateRegistry(ctx *CheckerContext) Check {
	check := NewCheck("Template Registry", registry.GetRegistryPath(ctx.TemplatesDir))

	if _, err := os.Stat(registry.GetRegistryPath(ctx.TemplatesDir)); errors.Is(err, os.ErrNotExist) {
		return check.WithMessage("No user templates registered")
	}

	reg, err := registry.LoadRegistry(ctx.TemplatesDir)
	if err != nil {
		return check.
			WithStatus(StatusError).
			WithMessage("Template registry could not be loaded").
			WithError(err)
	}
	defer func() { _ = reg.Close() }()

	var missing []string
	for _, t := range reg.List() {
		if _, err := os.Stat(t.Source); err != nil {
			missing = append(missing, fmt.Sprintf("%s: %s", t.Name, t.Source))
		}
	}

	if len(missing) > 0 {
		return check.
			WithStatus(StatusWarn).
			WithMessage(fmt.Sprintf("%d template source(s) missing", len(missing))).
			WithDetails(missing...).
			WithFixAction("cchooks template unregister <name>")
	}
	return check.WithMessage(fmt.Sprintf("%d user template(s) registered", len(reg.Templates)))
}

// CheckWorktree reports on the project settings of a linked git worktree.
// Untracked settings in the main checkout are not visible in a worktree,
// which is easy to miss. ok is false outside a worktree.
func CheckWorktree(d settings.Descriptor) (check Check, ok bool) {
	detector := worktree.NewDetector()
	root, err := detector.FindGitRoot(filepath.Dir(filepath.Dir(d.Path)))
	if err != nil {
		return Check{}, false
	}
	if isWT, err := detector.IsWorktree(root); err != nil || !isWT {
		return Check{}, false
	}

	check = NewCheck("Git Worktree", root)
	parent, err := detector.ParentRepo(root)
	if err != nil {
		return check.WithStatus(StatusWarn).WithMessage("Could not locate the main checkout").WithError(err), true
	}

	parentSettings := filepath.Join(parent, settings.DirName, settings.FileName)
	if _, err := os.Stat(parentSettings); err == nil && !d.Exists {
		return check.
			WithStatus(StatusWarn).
			WithMessage("Main checkout has project hooks but this worktree has none").
			WithDetails("Main checkout: " + parentSettings).
			WithFixAction("Commit " + filepath.Join(settings.DirName, settings.FileName) + " or copy it into this worktree"), true
	}
	return check.WithMessage("Worktree of " + parent), true
}

// RunAll discovers settings from startPath and runs every check. Checks of a
// settings file are recorded under its level.
func RunAll(ctx *CheckerContext, startPath string) (*Result, error) {
	result := NewResult()

	result.Add("", CheckConfigFile(ctx))

	descs, err := ctx.Store.Discover(startPath)
	if err != nil {
		return nil, err
	}

	keep := config.DefaultBackupKeep
	if ctx.Config != nil {
		keep = ctx.Config.BackupKeep()
	}

	for _, d := range descs {
		check, doc := CheckSettingsFile(ctx, d)
		result.Add(d.Level, check)
		if d.Level == settings.LevelProject {
			if wt, ok := CheckWorktree(d); ok {
				result.Add(d.Level, wt)
			}
		}
		if d.Level == settings.LevelProject && !d.Found {
			continue
		}
		result.Add(d.Level, CheckWritable(d))
		if doc != nil && d.Exists {
			result.Add(d.Level, CheckSchema(doc), CheckEntries(doc), CheckCommands(doc))
		}
		if d.Exists {
			result.Add(d.Level, CheckBackups(ctx, d.Path, keep))
		}
		result.Add(d.Level, CheckLock(ctx, d.Path))
	}

	if ctx.TemplatesDir != "" {
		result.Add("", CheckTemplateRegistry(ctx))
	}
	return result, nil
}

func isSchemaIssue(i settings.Issue) bool {
	return i.Event == "" && i.Field == "" && i.Index < 0
}

func isCommandIssue(i settings.Issue) bool {
	return i.Field == "command" && i.Severity == settings.SeverityWarning
}

func formatIssue(i settings.Issue) string {
	if i.Index >= 0 {
		return fmt.Sprintf("%s[%d].%s: %s", i.Event, i.Index, i.Field, i.Message)
	}
	if i.Event != "" {
		return fmt.Sprintf("%s: %s", i.Event, i.Message)
	}
	return i.Message
}
