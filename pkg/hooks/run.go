package hooks

import "fmt"

// Handler is the body of a hook program.
type Handler func(Context) error

// Run reads the payload from stdin, builds the context and calls handler.
// A payload that fails validation, or a handler error, is written to stderr
// and the process exits 1 so Claude Code treats it as non-blocking.
func Run(handler Handler, opts ...Option) {
	cfg := newConfig(opts)

	ctx, err := FromStdin(opts...)
	if err != nil {
		fmt.Fprintf(cfg.stderr, "hook error: %v\n", err)
		cfg.exit(ExitCodeNonBlock)
		return
	}

	if err := handler(ctx); err != nil {
		fmt.Fprintf(cfg.stderr, "hook error: %v\n", err)
		cfg.exit(ExitCodeNonBlock)
	}
}
