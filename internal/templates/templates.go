// Package templates renders hook programs from built-in and user-registered
// text/template sources.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"

	hookerrors "github.com/lightfastai/cchooks/internal/errors"
	"github.com/lightfastai/cchooks/internal/registry"
	"github.com/lightfastai/cchooks/pkg/hooks"
)

//go:embed builtin/*.tmpl
var builtinFS embed.FS

// Template is a named hook program generator.
type Template struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Events      []hooks.EventKind `json:"events" yaml:"events"`
	// Options lists the keys a built-in accepts and their defaults. It is nil
	// for user templates, which accept any key.
	Options map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
	Builtin bool              `json:"builtin" yaml:"builtin"`
	Source  string            `json:"source,omitempty" yaml:"source,omitempty"`
}

// Params are the values a template is executed with.
type Params struct {
	Name    string
	Event   hooks.EventKind
	Matcher string
	Options map[string]string
}

var builtins = []Template{
	{
		Name:        "security-guard",
		Description: "Deny Bash commands that match a blocklist of dangerous patterns",
		Events:      []hooks.EventKind{hooks.PreToolUse},
		Options:     map[string]string{"patterns": "rm -rf /,sudo ,chmod 777,| sh"},
		Builtin:     true,
		Source:      "builtin/security-guard.tmpl",
	},
	{
		Name:        "context-loader",
		Description: "Add a project file to the conversation context",
		Events:      []hooks.EventKind{hooks.SessionStart, hooks.UserPromptSubmit},
		Options:     map[string]string{"file": "CONTEXT.md"},
		Builtin:     true,
		Source:      "builtin/context-loader.tmpl",
	},
	{
		Name:        "desktop-notifier",
		Description: "Forward notifications to a desktop notification command",
		Events:      []hooks.EventKind{hooks.Notification},
		Options:     map[string]string{"command": "notify-send", "title": "Claude Code"},
		Builtin:     true,
		Source:      "builtin/desktop-notifier.tmpl",
	},
}

// Builtins returns the templates shipped with the binary.
func Builtins() []Template {
	out := make([]Template, len(builtins))
	for i, t := range builtins {
		out[i] = t.clone()
	}
	return out
}

// FromRegistry converts a registry record. Unknown event names are rejected.
func FromRegistry(rt registry.Template) (Template, error) {
	t := Template{
		Name:        rt.Name,
		Description: rt.Description,
		Source:      rt.Source,
	}
	for _, name := range rt.Events {
		kind, ok := hooks.ParseEventKind(name)
		if !ok {
			return Template{}, hookerrors.InvalidEvent(name, hooks.EventNames())
		}
		t.Events = append(t.Events, kind)
	}
	return t, nil
}

// List returns built-ins followed by registered templates, each group sorted
// by name. reg may be nil.
func List(reg *registry.Registry) []Template {
	out := Builtins()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if reg == nil {
		return out
	}
	for _, rt := range reg.List() {
		if isBuiltin(rt.Name) {
			continue
		}
		t, err := FromRegistry(rt)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Names returns every template name List would return.
func Names(reg *registry.Registry) []string {
	list := List(reg)
	names := make([]string, len(list))
	for i, t := range list {
		names[i] = t.Name
	}
	return names
}

// Lookup finds a template by name. Built-ins shadow registered templates.
func Lookup(name string, reg *registry.Registry) (Template, error) {
	for _, t := range builtins {
		if t.Name == name {
			return t.clone(), nil
		}
	}
	if reg != nil {
		if rt, ok := reg.Get(name); ok {
			return FromRegistry(rt)
		}
	}
	return Template{}, hookerrors.TemplateNotFound(name, Names(reg))
}

// IsBuiltin reports whether name is reserved by a built-in template.
func IsBuiltin(name string) bool { return isBuiltin(name) }

func isBuiltin(name string) bool {
	for _, t := range builtins {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Supports reports whether the template can generate a hook for event.
func (t Template) Supports(event hooks.EventKind) bool {
	for _, e := range t.Events {
		if e == event {
			return true
		}
	}
	return false
}

// DefaultEvent is the first supported event.
func (t Template) DefaultEvent() hooks.EventKind {
	if len(t.Events) == 0 {
		return ""
	}
	return t.Events[0]
}

// Render executes the template and gofmt-formats the result.
func (t Template) Render(p Params) ([]byte, error) {
	if p.Event == "" {
		p.Event = t.DefaultEvent()
	}
	if !t.Supports(p.Event) {
		supported := make([]string, len(t.Events))
		for i, e := range t.Events {
			supported[i] = e.String()
		}
		return nil, hookerrors.Validation("event",
			fmt.Sprintf("template %s does not support %s (supported: %s)", t.Name, p.Event, strings.Join(supported, ", ")))
	}
	if p.Name == "" {
		p.Name = t.Name
	}
	if t.Options != nil {
		for key := range p.Options {
			if _, ok := t.Options[key]; !ok {
				return nil, hookerrors.Validation("option",
					fmt.Sprintf("template %s has no option %q (available: %s)", t.Name, key, strings.Join(t.optionKeys(), ", ")))
			}
		}
	}

	body, err := t.body()
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(t.Name).Funcs(funcs(p.Options)).Option("missingkey=zero").Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", t.Name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", t.Name, err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("template %s produced invalid Go source: %w", t.Name, err)
	}
	return src, nil
}

func (t Template) body() (string, error) {
	if t.Builtin {
		data, err := builtinFS.ReadFile(t.Source)
		if err != nil {
			return "", fmt.Errorf("read built-in template %s: %w", t.Name, err)
		}
		return string(data), nil
	}
	// #nosec G304 - source path was registered by the user
	data, err := os.ReadFile(t.Source)
	if err != nil {
		return "", fmt.Errorf("read template %s from %s: %w", t.Name, t.Source, err)
	}
	return string(data), nil
}

func (t Template) optionKeys() []string {
	keys := make([]string, 0, len(t.Options))
	for k := range t.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (t Template) clone() Template {
	t.Events = append([]hooks.EventKind(nil), t.Events...)
	if t.Options != nil {
		opts := make(map[string]string, len(t.Options))
		for k, v := range t.Options {
			opts[k] = v
		}
		t.Options = opts
	}
	return t
}

func funcs(options map[string]string) template.FuncMap {
	return template.FuncMap{
		"option": func(key, def string) string {
			if v, ok := options[key]; ok {
				return v
			}
			return def
		},
		"quote": strconv.Quote,
		"split": func(s string) []string {
			var out []string
			for _, part := range strings.Split(s, ",") {
				if part != "" {
					out = append(out, part)
				}
			}
			return out
		},
		"lower": strings.ToLower,
	}
}

// OutputPath returns where generate writes a program named name under dir.
func OutputPath(dir, name string) string {
	return filepath.Join(dir, name, "main.go")
}
