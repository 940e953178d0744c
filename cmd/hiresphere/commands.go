package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/saisriabhiramnelluri/hiresphere/internal/domain"
	"github.com/saisriabhiramnelluri/hiresphere/internal/guard"
	apperrors "github.com/saisriabhiramnelluri/hiresphere/internal/platform/errors"
	"github.com/saisriabhiramnelluri/hiresphere/internal/platform/version"
	"github.com/spf13/pflag"
)

var errNotLoggedIn = errors.New("not logged in (run 'hiresphere login')")

// withDeps builds the dependencies, runs fn and tears everything down.
func withDeps(ctx context.Context, c *cli, fn func(*deps) error) error {
	d, err := setupDeps(ctx, c)
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(d)
}

// requireSession resolves the stored session for one-shot commands.
func requireSession(ctx context.Context, d *deps) (domain.SessionState, error) {
	st := d.client.Resolve(ctx)
	if !st.Authenticated {
		return st, &exitError{code: 3, err: errNotLoggedIn}
	}
	return st, nil
}

// readLine reads one line from stdin, for secrets not given as flags.
func (c *cli) readLine(prompt string) (string, error) {
	fmt.Fprint(c.stderr, prompt)
	line, err := c.stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(prompt), ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogin(ctx context.Context, c *cli, args []string) error {
	fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (read from stdin when omitted)")
	if _, err := parseFlags(fs, args, 0, c.stderr); err != nil {
		return err
	}

	var err error
	if *email == "" {
		if *email, err = c.readLine("Email: "); err != nil {
			return err
		}
	}
	if *password == "" {
		if *password, err = c.readLine("Password: "); err != nil {
			return err
		}
	}

	return withDeps(ctx, c, func(d *deps) error {
		res := d.client.Session.Login(ctx, *email, *password)
		if !res.OK {
			return &exitError{code: 1, err: errors.New(res.Message), quiet: true}
		}
		return nil
	})
}

func runRegister(ctx context.Context, c *cli, args []string) error {
	fs := pflag.NewFlagSet("register", pflag.ContinueOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "account email")
	role := fs.String("role", "", "admin, student or recruiter")
	password := fs.String("password", "", "account password (read from stdin when omitted)")
	details := fs.StringToString("detail", nil, "role-specific field, e.g. --detail companyName=Acme (repeatable)")
	if _, err := parseFlags(fs, args, 0, c.stderr); err != nil {
		return err
	}

	r, ok := domain.ParseRole(*role)
	if !ok {
		return &exitError{code: 2, err: fmt.Errorf("--role must be admin, student or recruiter, got %q", *role)}
	}
	if *password == "" {
		var err error
		if *password, err = c.readLine("Password: "); err != nil {
			return err
		}
	}

	req := domain.RegisterRequest{Name: *name, Email: *email, Password: *password, Role: r}
	if len(*details) > 0 {
		req.Details = make(map[string]any, len(*details))
		for k, v := range *details {
			req.Details[k] = v
		}
	}

	return withDeps(ctx, c, func(d *deps) error {
		res := d.client.Session.Register(ctx, req)
		if !res.OK {
			return &exitError{code: 1, err: errors.New(res.Message), quiet: true}
		}
		return nil
	})
}

func runLogout(ctx context.Context, c *cli, args []string) error {
	if _, err := parseFlags(pflag.NewFlagSet("logout", pflag.ContinueOnError), args, 0, c.stderr); err != nil {
		return err
	}
	return withDeps(ctx, c, func(d *deps) error {
		d.client.Session.Logout(ctx)
		return nil
	})
}

func runWhoami(ctx context.Context, c *cli, args []string) error {
	if _, err := parseFlags(pflag.NewFlagSet("whoami", pflag.ContinueOnError), args, 0, c.stderr); err != nil {
		return err
	}
	return withDeps(ctx, c, func(d *deps) error {
		st, err := requireSession(ctx, d)
		if err != nil {
			return err
		}

		fmt.Fprintf(c.stdout, "email: %s\nrole:  %s\n", st.User.Email, st.User.Role)
		if st.User.Name != "" {
			fmt.Fprintf(c.stdout, "name:  %s\n", st.User.Name)
		}
		if len(st.Profile) > 0 {
			profile, err := json.MarshalIndent(st.Profile, "", "  ")
			if err != nil {
				return fmt.Errorf("encode profile: %w", err)
			}
			fmt.Fprintf(c.stdout, "profile: %s\n", profile)
		}
		return nil
	})
}

func runCheck(ctx context.Context, c *cli, args []string) error {
	fs := pflag.NewFlagSet("check", pflag.ContinueOnError)
	roles := fs.StringSlice("roles", nil, "roles allowed on the path (empty allows any logged-in user)")
	pos, err := parseFlags(fs, args, 1, c.stderr)
	if err != nil {
		return err
	}

	allowed := make([]domain.Role, 0, len(*roles))
	for _, r := range *roles {
		role, ok := domain.ParseRole(strings.TrimSpace(r))
		if !ok {
			return &exitError{code: 2, err: fmt.Errorf("unknown role %q", r)}
		}
		allowed = append(allowed, role)
	}

	return withDeps(ctx, c, func(d *deps) error {
		st := d.client.Resolve(ctx)
		decision := guard.Check(st, allowed)
		fmt.Fprintf(c.stdout, "%s: %s\n", pos[0], decision)
		if decision.Kind != guard.Allow {
			return &exitError{code: 4, err: fmt.Errorf("access to %s denied", pos[0])}
		}
		return nil
	})
}

func runNotifications(ctx context.Context, c *cli, args []string) error {
	fs := pflag.NewFlagSet("notifications", pflag.ContinueOnError)
	limit := fs.Int("limit", 0, "number of notifications to fetch (default NOTIFICATION_PAGE_SIZE)")
	if _, err := parseFlags(fs, args, 0, c.stderr); err != nil {
		return err
	}

	return withDeps(ctx, c, func(d *deps) error {
		if _, err := requireSession(ctx, d); err != nil {
			return err
		}
		n := *limit
		if n <= 0 {
			n = d.client.Notifications.Limit()
		}
		if err := d.client.Notifications.Fetch(ctx, n); err != nil {
			return fmt.Errorf("fetch notifications: %s", apperrors.MessageOf(err, err.Error()))
		}
		printNotifications(c, d.client.Notifications.State())
		return nil
	})
}

func printNotifications(c *cli, st domain.NotificationState) {
	fmt.Fprintf(c.stdout, "%d unread\n", st.UnreadCount)
	if len(st.Items) == 0 {
		return
	}
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tCREATED\tTITLE")
	for _, n := range st.Items {
		status := "unread"
		if n.IsRead {
			status = "read"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", n.ID, status, n.Priority, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Title)
	}
	_ = tw.Flush()
}

func runRead(ctx context.Context, c *cli, args []string) error {
	pos, err := parseFlags(pflag.NewFlagSet("read", pflag.ContinueOnError), args, 1, c.stderr)
	if err != nil {
		return err
	}
	return mutate(ctx, c, "Notification marked as read", func(d *deps) error {
		return d.client.Notifications.MarkRead(ctx, pos[0])
	})
}

func runReadAll(ctx context.Context, c *cli, args []string) error {
	if _, err := parseFlags(pflag.NewFlagSet("read-all", pflag.ContinueOnError), args, 0, c.stderr); err != nil {
		return err
	}
	return mutate(ctx, c, "All notifications marked as read", func(d *deps) error {
		return d.client.Notifications.MarkAllRead(ctx)
	})
}

func runDelete(ctx context.Context, c *cli, args []string) error {
	pos, err := parseFlags(pflag.NewFlagSet("delete", pflag.ContinueOnError), args, 1, c.stderr)
	if err != nil {
		return err
	}
	return mutate(ctx, c, "Notification deleted", func(d *deps) error {
		return d.client.Notifications.Delete(ctx, pos[0])
	})
}

func mutate(ctx context.Context, c *cli, done string, fn func(*deps) error) error {
	return withDeps(ctx, c, func(d *deps) error {
		if _, err := requireSession(ctx, d); err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return errors.New(apperrors.MessageOf(err, "request failed"))
		}
		fmt.Fprintf(c.stdout, "ok: %s\n", done)
		return nil
	})
}

func runVersion(_ context.Context, c *cli, args []string) error {
	if _, err := parseFlags(pflag.NewFlagSet("version", pflag.ContinueOnError), args, 0, c.stderr); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, version.Get().String())
	return nil
}
