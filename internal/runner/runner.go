// Package runner executes configured hook commands against a payload, the
// way Claude Code would, and collects their results.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lightfastai/cchooks/internal/logger"
	"github.com/lightfastai/cchooks/internal/settings"
)

// DefaultTimeout applies to entries without a timeout
const DefaultTimeout = 60 * time.Second

// Runner handles the execution of hook commands
type Runner struct {
	dir        string
	env        []string
	timeout    time.Duration
	maxWorkers int
}

// Option configures a Runner
type Option func(*Runner)

// WithDir sets the working directory and CLAUDE_PROJECT_DIR for commands
func WithDir(dir string) Option { return func(r *Runner) { r.dir = dir } }

// WithEnv appends extra KEY=VALUE pairs to the command environment
func WithEnv(env ...string) Option { return func(r *Runner) { r.env = append(r.env, env...) } }

// WithDefaultTimeout overrides DefaultTimeout
func WithDefaultTimeout(d time.Duration) Option { return func(r *Runner) { r.timeout = d } }

// WithMaxParallel caps how many hooks run at once. Zero means no limit.
func WithMaxParallel(n int) Option { return func(r *Runner) { r.maxWorkers = n } }

// New creates a new hook runner
func New(opts ...Option) *Runner {
	r := &Runner{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Select returns the entries of event whose matcher selects toolName, in
// precedence order. toolName is ignored for events without tool matchers.
func Select(entries []settings.LeveledEntry, event, toolName string) ([]Hook, error) {
	var out []Hook
	for _, e := range entries {
		if e.Event != event {
			continue
		}
		if toolName != "" {
			ok, err := settings.MatchTool(e.Matcher, toolName)
			if err != nil {
				return nil, fmt.Errorf("%s hook %d in %s: %w", e.Event, e.Index, e.Path, err)
			}
			if !ok {
				continue
			}
		}
		h := Hook{
			Event:   e.Event,
			Matcher: e.Matcher,
			Index:   e.Index,
			Level:   string(e.Level),
			Path:    e.Path,
			Command: e.Entry.Command,
		}
		if e.Entry.Timeout != nil {
			h.Timeout = time.Duration(*e.Entry.Timeout) * time.Second
		}
		out = append(out, h)
	}
	return out, nil
}

// Run executes every hook concurrently with payload on stdin. A failing
// hook is recorded in its Result; the returned error is only set when ctx
// is cancelled. Results are in the same order as hooks.
func (r *Runner) Run(ctx context.Context, hooks []Hook, payload []byte) ([]Result, error) {
	results := make([]Result, len(hooks))
	if len(hooks) == 0 {
		return results, nil
	}

	logger.Verbose("Running %d hook(s)", len(hooks))

	g, gCtx := errgroup.WithContext(ctx)
	if r.maxWorkers > 0 {
		g.SetLimit(r.maxWorkers)
	}
	for i, h := range hooks {
		g.Go(func() error {
			results[i] = r.execute(gCtx, h, payload)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// execute runs a single hook command and classifies its exit status
func (r *Runner) execute(ctx context.Context, h Hook, payload []byte) Result {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// #nosec G204 - the command comes from the user's own settings file
	cmd := shellCommand(ctx, h.Command)
	cmd.Dir = r.dir
	cmd.Env = append(os.Environ(), r.env...)
	if r.dir != "" {
		cmd.Env = append(cmd.Env, "CLAUDE_PROJECT_DIR="+r.dir)
	}
	cmd.Stdin = bytes.NewReader(payload)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("Executing hook: %s (timeout %s)", h.Command, timeout)
	start := time.Now()
	err := cmd.Run()
	res := Result{
		Hook:     h,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.Outcome = OutcomeTimeout
		res.ExitCode = -1
		res.Error = fmt.Sprintf("hook timed out after %s", timeout)
		return res
	case err == nil:
		res.Outcome = OutcomeSuccess
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		if res.ExitCode == 2 {
			res.Outcome = OutcomeBlock
		} else {
			res.Outcome = OutcomeNonBlock
		}
	default:
		res.Outcome = OutcomeError
		res.ExitCode = -1
		res.Error = err.Error()
		return res
	}

	// Claude Code only reads a JSON decision from a successful hook
	if res.Outcome == OutcomeSuccess {
		decision, err := ParseDecision(res.Stdout)
		if err != nil {
			res.Error = err.Error()
		}
		res.Decision = decision
	}
	return res
}

func shellCommand(ctx context.Context, command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	return exec.CommandContext(ctx, "sh", "-c", command)
}
