package observability

import (
	"os"

	"golang.org/x/term"
)

// IsTTY checks if the given file descriptor is a terminal.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// IsOutputTerminal checks if stdout is a TTY. Used to default to
// human-readable logs locally and JSON logs under CI.
func IsOutputTerminal() bool {
	return IsTTY(os.Stdout.Fd())
}
