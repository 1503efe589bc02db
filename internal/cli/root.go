// Package cli is the flowtask command-line front end.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowtask/flowtask/internal/core/domain"
)

const actionKey = "action"

// Execute runs the CLI against the process environment and returns the exit
// code.
func Execute(version string) int {
	return run(context.Background(), os.Args[1:], streams{in: os.Stdin, out: os.Stdout, err: os.Stderr}, newApp, version)
}

type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

func run(ctx context.Context, args []string, std streams, boot bootstrapFunc, version string) int {
	e := &env{boot: boot, streams: std}
	root := rootCmd(e, version)
	root.SetArgs(args)
	root.SetIn(std.in)
	root.SetOut(std.out)
	root.SetErr(std.err)

	cmd, err := root.ExecuteContextC(ctx)
	e.close()
	if err != nil {
		printError(std.err, cmd, err, e)
		return 1
	}
	return 0
}

func rootCmd(e *env, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "flowtask",
		Short: "FlowTask - collaborative task management from the terminal",
		Long: `flowtask talks to a FlowTask server.

Sign in once with "flowtask login"; the session is stored locally and reused
by every later command until it expires or you run "flowtask logout".`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(loginCmd(e))
	root.AddCommand(registerCmd(e))
	root.AddCommand(logoutCmd(e))
	root.AddCommand(whoamiCmd(e))
	root.AddCommand(profileCmd(e))
	root.AddCommand(usersCmd(e))
	root.AddCommand(tasksCmd(e))
	return root
}

// printError renders err for the user. Backend and session errors go through
// domain.UserMessage; anything else (usage, configuration) is printed as is.
func printError(w io.Writer, cmd *cobra.Command, err error, e *env) {
	if e.app != nil && e.app.notice.shown &&
		(errors.Is(err, domain.ErrUnauthorized) || errors.Is(err, domain.ErrNotAuthenticated)) {
		// The expiry notice has already been printed.
		return
	}

	switch {
	case errors.Is(err, errNotSignedIn):
		fmt.Fprintln(w, `You are not signed in. Run "flowtask login" first.`)
	case isBackendError(err):
		action := ""
		if cmd != nil {
			action = cmd.Annotations[actionKey]
		}
		fmt.Fprintln(w, domain.UserMessage(err, action))
	default:
		fmt.Fprintln(w, "Error:", err)
	}
}

func isBackendError(err error) bool {
	for _, target := range []error{
		domain.ErrTransport,
		domain.ErrUnauthorized,
		domain.ErrValidation,
		domain.ErrNotFound,
		domain.ErrUnexpected,
		domain.ErrNotAuthenticated,
		domain.ErrInvalidStatus,
		domain.ErrTaskNotFound,
		domain.ErrSessionSuperseded,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func action(name string) map[string]string {
	return map[string]string{actionKey: name}
}
