package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/booksummary/internal/common"
	"golang.org/x/term"
)

// passwordReader reads one line from fd with echo off. Swapped in tests.
var passwordReader = term.ReadPassword

// promptSecret asks for label on w and reads the answer from the terminal
// without echo. The raw bytes are wiped once copied.
func promptSecret(w io.Writer, label string) (string, error) {
	if _, err := fmt.Fprintf(w, "%s (hidden): ", label); err != nil {
		return "", err
	}
	raw, err := passwordReader(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", label, err)
	}
	defer common.WipeByteArray(raw)
	return string(raw), nil
}
