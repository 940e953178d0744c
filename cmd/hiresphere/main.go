package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
)

// exitError carries a specific process exit code. quiet errors were already
// reported to the user and are not printed again.
type exitError struct {
	code  int
	err   error
	quiet bool
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()

	if err != nil {
		var ee *exitError
		if !errors.As(err, &ee) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		if !ee.quiet {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(ee.code)
	}
}

type command struct {
	name    string
	usage   string
	summary string
	run     func(ctx context.Context, c *cli, args []string) error
}

var commands = []command{
	{"login", "login [--email E] [--password P]", "Log in and store the session token", runLogin},
	{"register", "register --name N --email E --role R [--password P] [--detail k=v ...]", "Create an account", runRegister},
	{"logout", "logout", "Forget the stored session", runLogout},
	{"whoami", "whoami", "Show the logged-in user", runWhoami},
	{"check", "check <path> [--roles admin,recruiter]", "Evaluate the route guard for the stored session", runCheck},
	{"notifications", "notifications [--limit N]", "List recent notifications", runNotifications},
	{"read", "read <id>", "Mark one notification as read", runRead},
	{"read-all", "read-all", "Mark every notification as read", runReadAll},
	{"delete", "delete <id>", "Delete one notification", runDelete},
	{"watch", "watch [--status-addr ADDR]", "Poll notifications until interrupted", runWatch},
	{"version", "version", "Print build information", runVersion},
}

// cli carries the process streams so commands stay testable.
type cli struct {
	stdin   *bufio.Reader
	stdout  io.Writer
	stderr  io.Writer
	verbose bool
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	c := &cli{stdin: bufio.NewReader(stdin), stdout: stdout, stderr: stderr}

	flagSet := pflag.NewFlagSet("hiresphere", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.SetOutput(stderr)
	flagSet.BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help || flagSet.NArg() == 0 {
		printHelp(stderr, flagSet)
		return nil
	}

	name, rest := flagSet.Arg(0), flagSet.Args()[1:]
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd.run(ctx, c, rest)
		}
	}
	return &exitError{code: 2, err: fmt.Errorf("unknown command %q", name)}
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `hiresphere: HireSphere session and notification client.

Configuration comes from the environment (API_BASE_URL, TOKEN_STORE,
TOKEN_FILE, REDIS_URL, ...) or a .env file in the working directory.

Usage:
  hiresphere [flags] <command> [args]

Commands:
`)
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-64s %s\n", cmd.usage, cmd.summary)
	}
	fmt.Fprintf(w, "\nFlags:\n")
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}

// parseFlags parses a subcommand's flags and enforces the positional count.
func parseFlags(fs *pflag.FlagSet, args []string, positional int, out io.Writer) ([]string, error) {
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		return nil, &exitError{code: 2, err: err}
	}
	if fs.NArg() != positional {
		return nil, &exitError{code: 2, err: fmt.Errorf("%s: expected %d argument(s), got %d", fs.Name(), positional, fs.NArg())}
	}
	return fs.Args(), nil
}
