package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// interactive reports whether f is attached to a terminal. Cygwin and MSYS
// ptys are not character devices, so they are checked separately.
func interactive(f *os.File) bool {
	fd := f.Fd()
	if isatty.IsCygwinTerminal(fd) {
		return true
	}
	return isatty.IsTerminal(fd) && term.IsTerminal(int(fd))
}
