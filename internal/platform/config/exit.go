package config

import (
	"fmt"
	"io"
	"os"
)

var (
	exitOut  io.Writer = os.Stderr
	exitFunc           = os.Exit
)

// Exitf writes a formatted message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(exitOut, format+"\n", args...)
	exitFunc(1)
}
