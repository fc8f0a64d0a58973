package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, email string) error
	Signup(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Stats(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the promstudy CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Commands that prompt for more input read
// from the same reader. The loop exits on EOF or when the user types "exit"
// or "quit".
//
//	Not logged in:
//	  - help              show available commands
//	  - signup            create an account with a profile
//	  - login [email]     authenticate
//	  - stats             show prompt and like counters
//	  - exit | quit       leave the program
//
//	Logged in:
//	  - help              show available commands
//	  - whoami            show the profile
//	  - stats             show prompt and like counters
//	  - logout            log out
//	  - exit | quit       leave the program
//
// Errors returned by command handlers are ignored here; handlers report
// their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "promstudy %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Available commands: whoami, stats, logout, exit")
			} else {
				fmt.Fprintln(w, "Available commands: signup, login, stats, exit")
			}

		case "signup", "register":
			_ = a.Signup(ctx)

		case "login":
			email := ""
			if len(args) > 0 {
				email = args[0]
			}
			_ = a.Login(ctx, email)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami", "me":
			_ = a.WhoAmI(ctx)

		case "stats":
			_ = a.Stats(ctx)

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}

// Shell runs the interactive loop until the user exits.
func (a *App) Shell(ctx context.Context) error {
	a.printf("Welcome to promstudy (type 'help' for commands)\n")
	runREPL(ctx, a, a.getStatus, a.reader, a.out)
	return nil
}
