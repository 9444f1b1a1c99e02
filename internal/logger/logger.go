package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// DebugEnvVar enables debug output when set to "1"
const DebugEnvVar = "CCHOOKS_DEBUG"

var (
	// VerboseEnabled controls whether Verbose messages are displayed
	VerboseEnabled bool
	// DebugEnabled controls whether Debug messages are displayed (also enables Verbose)
	DebugEnabled bool

	// output is where all log lines go; stdout is reserved for command results
	output io.Writer = os.Stderr
)

// Init initializes the logger based on flags and environment variables
func Init(verbose, debug bool) {
	VerboseEnabled = verbose || debug
	DebugEnabled = debug

	if os.Getenv(DebugEnvVar) == "1" {
		DebugEnabled = true
		VerboseEnabled = true
	}
}

// SetOutput redirects log output and returns the previous writer
func SetOutput(w io.Writer) io.Writer {
	prev := output
	output = w
	return prev
}

// Verbose prints verbose messages (shown when --verbose or --debug is enabled)
func Verbose(format string, args ...interface{}) {
	if VerboseEnabled {
		fmt.Fprintf(output, format+"\n", args...)
	}
}

// Debug prints debug messages (shown only when --debug is enabled)
func Debug(format string, args ...interface{}) {
	if DebugEnabled {
		fmt.Fprintf(output, "[debug] "+format+"\n", args...)
	}
}

// Info prints informational messages (always shown)
func Info(format string, args ...interface{}) {
	fmt.Fprintf(output, format+"\n", args...)
}

// Success prints success messages with a checkmark (always shown)
func Success(format string, args ...interface{}) {
	fmt.Fprintf(output, color.GreenString("✓")+" "+format+"\n", args...)
}

// Warn prints warning messages (always shown)
func Warn(format string, args ...interface{}) {
	fmt.Fprintf(output, color.YellowString("Warning:")+" "+format+"\n", args...)
}

// Error prints error messages (always shown)
func Error(format string, args ...interface{}) {
	fmt.Fprintf(output, color.RedString("Error:")+" "+format+"\n", args...)
}
