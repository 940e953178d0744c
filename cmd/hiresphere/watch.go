package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/saisriabhiramnelluri/hiresphere/internal/domain"
	"github.com/spf13/pflag"
)

// watcher prints unread changes and notifications it has not seen before.
type watcher struct {
	c *cli

	mu     sync.Mutex
	seen   map[string]struct{}
	unread int
	primed bool
}

func newWatcher(c *cli) *watcher {
	return &watcher{c: c, seen: make(map[string]struct{}), unread: -1}
}

func (w *watcher) observe(st domain.NotificationState) {
	if st.Loading {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if st.LastSynced.IsZero() && len(st.Items) == 0 {
		// reset after logout
		clear(w.seen)
		w.unread = -1
		w.primed = false
		return
	}

	for i := len(st.Items) - 1; i >= 0; i-- {
		n := st.Items[i]
		if _, ok := w.seen[n.ID]; ok {
			continue
		}
		w.seen[n.ID] = struct{}{}
		if w.primed && !n.IsRead {
			fmt.Fprintf(w.c.stdout, "new [%s] %s: %s\n", n.Priority, n.Title, n.Message)
		}
	}
	w.primed = true

	if st.UnreadCount != w.unread {
		w.unread = st.UnreadCount
		fmt.Fprintf(w.c.stdout, "%d unread\n", st.UnreadCount)
	}
}

func runWatch(ctx context.Context, c *cli, args []string) error {
	fs := pflag.NewFlagSet("watch", pflag.ContinueOnError)
	statusAddr := fs.String("status-addr", "", "serve /state, /health and /metrics on this address (default STATUS_ADDR)")
	if _, err := parseFlags(fs, args, 0, c.stderr); err != nil {
		return err
	}

	return withDeps(ctx, c, func(d *deps) error {
		w := newWatcher(c)
		unsubscribe := d.client.Notifications.Subscribe(w.observe)
		defer unsubscribe()

		d.client.Init(ctx)
		if !d.client.Session.State().Authenticated {
			return &exitError{code: 3, err: errNotLoggedIn}
		}

		addr := *statusAddr
		if addr == "" {
			addr = d.cfg.StatusAddr
		}

		var wg sync.WaitGroup
		srvErr := make(chan error, 1)
		if addr != "" {
			srv := d.statusServer(addr)
			wg.Go(func() {
				slog.Info("Status server listening", "addr", addr)
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					srvErr <- fmt.Errorf("status server: %w", err)
				}
			})
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					slog.Error("Status server shutdown failed", "error", err)
				}
				wg.Wait()
			}()
		}

		slog.Info("Watching notifications", "interval", d.cfg.NotificationPollInterval)
		select {
		case <-ctx.Done():
			slog.Info("Shutting down")
			return nil
		case err := <-srvErr:
			return err
		}
	})
}
