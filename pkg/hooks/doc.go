// Package hooks is the SDK for writing Claude Code hook programs in Go.
//
// A hook program receives one JSON payload on stdin. CreateContext (or
// FromStdin) validates it and returns a Context whose concrete type depends
// on hook_event_name:
//
//	hooks.Run(func(c hooks.Context) error {
//		pre, ok := c.(*hooks.PreToolUseContext)
//		if !ok {
//			return nil
//		}
//		if strings.HasSuffix(fmt.Sprint(pre.ToolInput()["file_path"]), ".env") {
//			return pre.Output().Deny("editing .env files is not allowed")
//		}
//		return pre.Output().Allow("")
//	})
//
// Each context's Output method returns an encoder carrying only the decisions
// that event supports. Decisions are written to stdout as JSON; the Exit*
// verbs instead terminate the process with code 0, 1 or 2.
package hooks
