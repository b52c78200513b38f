package ui

import (
	"os"

	"golang.org/x/term"
)

// ShouldUseColor reports whether styled output should go to stdout.
func ShouldUseColor() bool {
	return colorEnabled(os.Getenv, isTerminal(os.Stdout))
}

// colorEnabled applies the environment overrides in order: NO_COLOR,
// CLICOLOR_FORCE, CLICOLOR=0 and TERM=dumb. With none of them set the
// answer is whether the output is a terminal.
func colorEnabled(getenv func(string) string, tty bool) bool {
	if getenv("NO_COLOR") != "" {
		return false
	}
	if force := getenv("CLICOLOR_FORCE"); force != "" && force != "0" {
		return true
	}
	if getenv("CLICOLOR") == "0" || getenv("TERM") == "dumb" {
		return false
	}
	return tty
}

func isTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}
