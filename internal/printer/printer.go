// Package printer is the terminal output of tmdtool: coloured status lines
// on stdout and formatted failures on stderr.
package printer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"jpog-tmd/internal/diag"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// Output streams; tests swap them.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// Success prints a green line with a check mark.
func Success(format string, a ...any) {
	green.Fprintf(Stdout, "✓ %s", fmt.Sprintf(format, a...))
}

// Info prints an uncoloured line.
func Info(format string, a ...any) {
	fmt.Fprintf(Stdout, format, a...)
}

// Warning prints a yellow line.
func Warning(format string, a ...any) {
	yellow.Fprintf(Stdout, "! %s", fmt.Sprintf(format, a...))
}

// Step prints a cyan progress line.
func Step(format string, a ...any) {
	cyan.Fprintf(Stdout, "→ %s", fmt.Sprintf(format, a...))
}

// Detail prints a dimmed, indented line.
func Detail(format string, a ...any) {
	faint.Fprintf(Stdout, "  %s", fmt.Sprintf(format, a...))
}

// Error prints a failure with its explanation, optional context and
// suggestions to stderr, and returns an error carrying only the title so
// cobra does not print it a second time.
func Error(title, explanation string, context map[string]string, suggestions ...string) error {
	red.Fprintf(Stderr, "%s\n", title)
	if explanation != "" {
		fmt.Fprintf(Stderr, "\n%s\n", explanation)
	}
	if len(context) > 0 {
		keys := make([]string, 0, len(context))
		for k := range context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(Stderr)
		for _, k := range keys {
			fmt.Fprintf(Stderr, "  %s: %s\n", k, context[k])
		}
	}
	switch len(suggestions) {
	case 0:
	case 1:
		fmt.Fprintf(Stderr, "\n%s\n", suggestions[0])
	default:
		fmt.Fprintf(Stderr, "\nEither:\n")
		for i, s := range suggestions {
			fmt.Fprintf(Stderr, "  %d. %s\n", i+1, s)
		}
	}
	return errors.New(title)
}

// Logger routes codec diagnostics to Warning.
func Logger() diag.Logger {
	return diag.LoggerFunc(func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		if !strings.HasSuffix(msg, "\n") {
			msg += "\n"
		}
		Warning("%s", msg)
	})
}

// Diagnostics prints how many errors of each kind were collected, in the
// order the kinds first appeared.
func Diagnostics(errs diag.List) {
	counts := make(map[string]int)
	var kinds []string
	for _, e := range errs {
		k := "other"
		if e.Kind != nil {
			k = e.Kind.Error()
		}
		if counts[k] == 0 {
			kinds = append(kinds, k)
		}
		counts[k]++
	}
	for _, k := range kinds {
		Warning("%s (%d)\n", k, counts[k])
	}
}
