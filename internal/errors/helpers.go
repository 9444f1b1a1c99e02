package errors

import (
	"fmt"
	"strings"
	"time"
)

// SettingsParse returns an error for a settings file that is not valid JSON
// or whose structure is not what Claude Code expects. The file is never repaired.
func SettingsParse(path string, reason string, cause error) *Error {
	err := New(ErrSettingsParse, "Settings file is corrupt").
		WithContext("File", path).
		WithContext("Reason", reason).
		WithFixes(
			"Inspect the file and fix the JSON by hand",
			"Or restore a previous version: cchooks backup restore --file "+path,
		)
	if cause != nil {
		err = err.WithCause(cause)
	}
	return err
}

// PermissionDenied returns an error for permission issues
func PermissionDenied(path string, operation string, cause error) *Error {
	err := New(ErrPermissionDenied, fmt.Sprintf("Permission denied: %s", operation)).
		WithContext("Path", path).
		WithContext("Operation", operation)

	if cause != nil {
		err = err.WithCause(cause)
	}

	err = err.WithFixes(
		"Check file/directory permissions",
		"Ensure you have access to the path",
	)

	return err
}

// LockTimeout returns an error when another process holds the settings lock
func LockTimeout(lockPath string, waited time.Duration) *Error {
	return New(ErrLockTimeout, "Timed out waiting for settings lock").
		WithContext("Lock file", lockPath).
		WithContext("Waited", waited.String()).
		WithFixes(
			"Another cchooks command may be running; retry in a moment",
			"If no other command is running, delete the stale lock file",
		)
}

// Validation returns an error for a hook entry field that failed validation
func Validation(field string, reason string) *Error {
	return New(ErrValidation, fmt.Sprintf("Invalid hook %s: %s", field, reason)).
		WithContext("Field", field)
}

// IndexOutOfRange returns an error when a hook index does not exist for an event
func IndexOutOfRange(event string, index int, length int) *Error {
	err := New(ErrIndexOutOfRange, fmt.Sprintf("No %s hook at index %d", event, index)).
		WithContext("Event", event).
		WithContext("Index", fmt.Sprintf("%d", index)).
		WithContext("Hooks", fmt.Sprintf("%d", length))

	if length == 0 {
		err = err.WithFix(fmt.Sprintf("No %s hooks are configured; add one with 'cchooks add %s'", event, event))
	} else {
		err = err.WithFix(fmt.Sprintf("Valid indexes are 0-%d; run 'cchooks list --event %s'", length-1, event))
	}
	return err
}

// InvalidEvent returns an error for an unknown hook event name
func InvalidEvent(event string, valid []string) *Error {
	err := New(ErrInvalidEvent, fmt.Sprintf("Unknown hook event '%s'", event)).
		WithContext("Event", event).
		WithContext("Valid events", strings.Join(valid, ", "))

	for _, v := range valid {
		if strings.EqualFold(v, event) {
			err = err.WithFix(fmt.Sprintf("Did you mean '%s'?", v))
		}
	}
	return err
}

// BackupNotFound returns an error when no backup exists for a settings file
func BackupNotFound(path string, name string) *Error {
	err := New(ErrBackupNotFound, "No matching backup found").
		WithContext("File", path)
	if name != "" {
		err = err.WithContext("Backup", name)
	}
	return err.WithFix("List available backups: cchooks backup list --file " + path)
}

// TemplateNotFound returns an error when a template name is not registered
func TemplateNotFound(name string, available []string) *Error {
	err := New(ErrTemplateNotFound, fmt.Sprintf("Template '%s' not found", name)).
		WithContext("Template", name)

	if len(available) > 0 {
		err = err.WithContext("Available templates", strings.Join(available, ", "))
		for _, tmpl := range available {
			if strings.Contains(tmpl, name) || strings.Contains(name, tmpl) {
				err = err.WithFix(fmt.Sprintf("Did you mean '%s'?", tmpl))
			}
		}
	}

	return err.WithFix("View all templates: cchooks template list")
}

// TemplateExists returns an error when registering a template name twice
func TemplateExists(name string) *Error {
	return New(ErrTemplateExists, fmt.Sprintf("Template '%s' already registered", name)).
		WithContext("Template", name).
		WithFixes(
			"Use --force to replace the existing template",
			"Or choose a different name",
		)
}

// ConfigInvalid returns an error for invalid config file
func ConfigInvalid(path string, reason string, cause error) *Error {
	err := New(ErrConfigInvalid, "Configuration file is invalid").
		WithContext("File", path).
		WithContext("Reason", reason).
		WithFixes(
			"Check the YAML syntax in "+path,
			"Delete the file to fall back to defaults",
		)
	if cause != nil {
		err = err.WithCause(cause)
	}
	return err
}

// CommandFailed returns an error when command execution fails
func CommandFailed(cmd string, exitCode int, stderr string) *Error {
	err := New(ErrCommandFailed, fmt.Sprintf("Command '%s' failed", cmd)).
		WithContext("Command", cmd).
		WithContext("Exit code", fmt.Sprintf("%d", exitCode))

	if stderr != "" {
		if len(stderr) > 500 {
			stderr = stderr[:500] + "..."
		}
		err = err.WithContext("Error output", stderr)
	}

	return err
}
