package notification

import (
	"context"
	"log/slog"

	"github.com/saisriabhiramnelluri/hiresphere/internal/domain"
	"github.com/saisriabhiramnelluri/hiresphere/internal/platform/correlation"
)

// poller is the handle of one polling loop. Stopping it cancels the loop's
// context, which also aborts an in-flight fetch, and waits for the loop to exit.
type poller struct {
	token  string
	userID string
	cancel context.CancelFunc
	done   chan struct{}
}

func (p *poller) stop() {
	p.cancel()
	<-p.done
}

// OnSessionChange drives polling from the session: an authenticated session
// starts the loop, anything else stops it and clears the collection. A new
// token or user while polling counts as a new session. Repeated calls with
// the same state are no-ops.
func (s *Sync) OnSessionChange(st domain.SessionState) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	if st.Authenticated && s.poll != nil && s.poll.token == st.Token && s.poll.userID == userID(st) {
		return
	}

	switched := s.poll != nil
	if s.poll != nil {
		s.poll.stop()
		s.poll = nil
	}

	if !st.Authenticated {
		s.reset()
		slog.Debug("Notification polling stopped")
		return
	}

	if switched {
		s.reset()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &poller{token: st.Token, userID: userID(st), cancel: cancel, done: make(chan struct{})}
	s.poll = p
	go s.run(ctx, p.done)
	slog.Debug("Notification polling started", "interval", s.interval, "limit", s.limit)
}

// Polling reports whether a polling loop is running.
func (s *Sync) Polling() bool {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	return s.poll != nil
}

// Close stops polling. The collection is left as is.
func (s *Sync) Close() {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	if s.poll != nil {
		s.poll.stop()
		s.poll = nil
	}
}

// run fetches immediately, then waits a full interval after each fetch
// returns before the next one, so fetches never overlap.
func (s *Sync) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		pollCtx := correlation.WithID(ctx, correlation.NewID())
		_ = s.Fetch(pollCtx, s.limit)

		timer := s.clock.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.Chan():
		}
	}
}

func userID(st domain.SessionState) string {
	if st.User == nil {
		return ""
	}
	return st.User.ID
}
