package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// ASCII logo for the application
const ASCIILogo = `
    ╔═══════════════════════════════════════════════════════════╗
    ║ ██████╗ ██████╗ ███████╗ ██████╗██████╗  █████╗ ██████╗   ║
    ║ ██╔══██╗██╔══██╗██╔════╝██╔════╝██╔══██╗██╔══██╗██╔══██╗  ║
    ║ ██████╔╝██║  ██║███████╗██║     ██████╔╝███████║██████╔╝  ║
    ║ ██╔══██╗██║  ██║╚════██║██║     ██╔══██╗██╔══██║██╔═══╝   ║
    ║ ██║  ██║██████╔╝███████║╚██████╗██║  ██║██║  ██║██║       ║
    ║ ╚═╝  ╚═╝╚═════╝ ╚══════╝ ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝╚═╝       ║
    ║          RESUMABLE REDDIT IMAGE DOWNLOADER                ║
    ╚═══════════════════════════════════════════════════════════╝
`

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

var (
	mu    sync.Mutex
	out   io.Writer = os.Stdout
	quiet bool
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

// SetOutput redirects all printing helpers to w; nil restores stdout
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	out = w
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

// IsQuiet reports whether quiet mode is on
func IsQuiet() bool {
	mu.Lock()
	defer mu.Unlock()
	return quiet
}

func emit(always bool, s string) {
	mu.Lock()
	defer mu.Unlock()
	if quiet && !always {
		return
	}
	fmt.Fprintln(out, s)
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	emit(false, Cyan(ASCIILogo))
}

// PrintError prints an error message in red. An optional first argument is
// appended after a colon, which is how callers attach the underlying error.
func PrintError(msg string, args ...interface{}) {
	emit(true, Red(withDetail(msg, args)))
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	emit(false, Green(msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label string, value string) {
	emit(false, fmt.Sprintf("%s: %s", Cyan(label), Yellow(value)))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	emit(false, Yellow(withDetail(msg, args)))
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	emit(false, Magenta(msg))
}

func withDetail(msg string, args []interface{}) string {
	if len(args) > 0 {
		return msg + ": " + fmt.Sprintf("%v", args[0])
	}
	return msg
}
