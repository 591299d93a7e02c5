package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// ErrUnknownCommand is returned by Execute for a command the current stage
// does not offer.
var ErrUnknownCommand = errors.New("unknown command")

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Status() string
	Help() string
	Execute(ctx context.Context, cmd string, args []string) error
}

// runREPL starts a simple read–eval–print loop.
//
// It reads a line from the scanner, parses the first token as the command,
// and dispatches it to a. "help", "exit" and "quit" are handled here; the
// rest depends on the stage (see App.Help). The loop exits on scanner EOF,
// on "exit"/"quit", or when ctx is done.
func runREPL(ctx context.Context, a execIface, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("bs> %s > ", a.Status()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn(a.Help())

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			err := a.Execute(ctx, cmd, args)
			switch {
			case errors.Is(err, ErrUnknownCommand):
				printlnFn("Unknown command:", cmd)
			case err != nil:
				printlnFn("Error:", err)
			}
		}
	}
}
