package notification

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/saisriabhiramnelluri/hiresphere/internal/adapter/metrics"
	"github.com/saisriabhiramnelluri/hiresphere/internal/domain"
	apperrors "github.com/saisriabhiramnelluri/hiresphere/internal/platform/errors"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultInterval = 60 * time.Second
	DefaultLimit    = 20
)

// Sync owns the notification collection of one client. The zero value is
// not usable; use NewSync.
type Sync struct {
	api      domain.NotificationAPI
	clock    clockwork.Clock
	interval time.Duration
	limit    int
	metrics  *metrics.NotificationMetrics

	fetches singleflight.Group

	publishMu sync.Mutex

	mu         sync.RWMutex
	state      domain.NotificationState
	generation uint64
	inflight   int
	// fetchSeq numbers fetches in the order they were sent; appliedSeq is the
	// newest one whose page replaced the collection.
	fetchSeq   uint64
	appliedSeq uint64
	listeners  map[int]func(domain.NotificationState)
	nextID     int

	pollMu sync.Mutex
	poll   *poller
}

// NewSync creates an idle Sync. Non-positive interval or limit fall back to
// the defaults. m may be nil.
func NewSync(api domain.NotificationAPI, clock clockwork.Clock, interval time.Duration, limit int, m *metrics.NotificationMetrics) *Sync {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Sync{
		api:       api,
		clock:     clock,
		interval:  interval,
		limit:     limit,
		metrics:   m,
		listeners: make(map[int]func(domain.NotificationState)),
	}
}

// Limit is the page size used by the polling loop.
func (s *Sync) Limit() int { return s.limit }

// State returns a snapshot of the collection.
func (s *Sync) State() domain.NotificationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Subscribe registers fn to receive every new state; the returned func unsubscribes.
func (s *Sync) Subscribe(fn func(domain.NotificationState)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Fetch retrieves the latest page and replaces the collection with it.
// Concurrent calls with the same limit share one request. On failure the
// previous collection is kept. A page that arrives after the session ended,
// or after the page of a later request was applied, is discarded.
func (s *Sync) Fetch(ctx context.Context, limit int) error {
	gen := s.currentGeneration()
	key := strconv.FormatUint(gen, 10) + ":" + strconv.Itoa(limit)

	_, err, _ := s.fetches.Do(key, func() (any, error) {
		return nil, s.fetch(ctx, gen, limit)
	})
	return err
}

func (s *Sync) fetch(ctx context.Context, gen uint64, limit int) error {
	var seq uint64
	s.publish(func(cur domain.NotificationState) (domain.NotificationState, bool) {
		s.fetchSeq++
		seq = s.fetchSeq
		if s.generation != gen {
			return cur, false
		}
		s.inflight++
		cur.Loading = true
		return cur, true
	})

	var page *domain.NotificationPage
	var err error
	defer func() {
		applied := false
		s.publish(func(cur domain.NotificationState) (domain.NotificationState, bool) {
			if s.generation != gen {
				return cur, false
			}
			s.inflight--
			cur.Loading = s.inflight > 0
			if err == nil && page != nil && seq > s.appliedSeq {
				s.appliedSeq = seq
				cur.Items = append([]domain.Notification(nil), page.Notifications...)
				cur.UnreadCount = max(0, page.UnreadCount)
				cur.LastSynced = s.clock.Now()
				applied = true
			}
			return cur, true
		})

		switch {
		case err != nil:
			s.metrics.Poll("error")
		case !applied:
			s.metrics.Poll("dropped")
			slog.DebugContext(ctx, "Discarded stale notification page", "limit", limit)
		default:
			s.metrics.Poll("ok")
			s.metrics.SetUnread(s.State().UnreadCount)
		}
	}()

	page, err = s.api.ListNotifications(ctx, limit)
	if err != nil {
		slog.WarnContext(ctx, "Failed to fetch notifications", "error_type", apperrors.TypeOf(err), "error", err)
		return apperrors.AsStructuredError(err)
	}
	if page == nil {
		err = apperrors.TransportError("", nil).WithContext("operation", "list_notifications")
		return err
	}
	return nil
}

// MarkRead marks one notification read on the server, then locally. The
// unread counter is decremented once per confirmed call and never drops
// below zero.
func (s *Sync) MarkRead(ctx context.Context, id string) error {
	gen := s.currentGeneration()
	if err := s.mutate(ctx, "mark_read", func(ctx context.Context) error { return s.api.MarkAsRead(ctx, id) }); err != nil {
		return err
	}

	s.apply(gen, func(cur domain.NotificationState) domain.NotificationState {
		cur.Items = mapItems(cur.Items, func(n domain.Notification) domain.Notification {
			if n.ID == id {
				n.IsRead = true
			}
			return n
		})
		cur.UnreadCount = max(0, cur.UnreadCount-1)
		return cur
	})
	return nil
}

// MarkAllRead marks every notification read on the server, then locally.
func (s *Sync) MarkAllRead(ctx context.Context) error {
	gen := s.currentGeneration()
	if err := s.mutate(ctx, "mark_all_read", s.api.MarkAllAsRead); err != nil {
		return err
	}

	s.apply(gen, func(cur domain.NotificationState) domain.NotificationState {
		cur.Items = mapItems(cur.Items, func(n domain.Notification) domain.Notification {
			n.IsRead = true
			return n
		})
		cur.UnreadCount = 0
		return cur
	})
	return nil
}

// Delete removes a notification on the server, then locally. The unread
// counter is left alone even for an unread item; the next poll reconciles it.
func (s *Sync) Delete(ctx context.Context, id string) error {
	gen := s.currentGeneration()
	if err := s.mutate(ctx, "delete", func(ctx context.Context) error { return s.api.DeleteNotification(ctx, id) }); err != nil {
		return err
	}

	s.apply(gen, func(cur domain.NotificationState) domain.NotificationState {
		items := make([]domain.Notification, 0, len(cur.Items))
		for _, n := range cur.Items {
			if n.ID != id {
				items = append(items, n)
			}
		}
		cur.Items = items
		return cur
	})
	return nil
}

func (s *Sync) mutate(ctx context.Context, operation string, call func(context.Context) error) error {
	err := call(ctx)
	s.metrics.Mutation(operation, err)
	if err != nil {
		slog.WarnContext(ctx, "Notification update rejected", "operation", operation, "error_type", apperrors.TypeOf(err), "error", err)
		return apperrors.AsStructuredError(err)
	}
	return nil
}

// apply runs a confirmed local mutation unless the session it was issued
// under has ended since.
func (s *Sync) apply(gen uint64, fn func(domain.NotificationState) domain.NotificationState) {
	s.publish(func(cur domain.NotificationState) (domain.NotificationState, bool) {
		if s.generation != gen {
			return cur, false
		}
		return fn(cur), true
	})
	s.metrics.SetUnread(s.State().UnreadCount)
}

func (s *Sync) currentGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// reset ends the current generation and empties the collection.
func (s *Sync) reset() {
	s.publish(func(cur domain.NotificationState) (domain.NotificationState, bool) {
		s.generation++
		s.inflight = 0
		empty := domain.NotificationState{}
		changed := len(cur.Items) > 0 || cur.UnreadCount != 0 || cur.Loading || !cur.LastSynced.IsZero()
		return empty, changed
	})
	s.metrics.SetUnread(0)
}

// publish applies next to a copy of the state under mu. When next reports a
// change, listeners are called with the new snapshot after mu is released.
func (s *Sync) publish(next func(domain.NotificationState) (domain.NotificationState, bool)) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	state, changed := next(s.state.Clone())
	if !changed {
		s.mu.Unlock()
		return
	}
	s.state = state
	listeners := make([]func(domain.NotificationState), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(state.Clone())
	}
}

func mapItems(items []domain.Notification, fn func(domain.Notification) domain.Notification) []domain.Notification {
	if items == nil {
		return nil
	}
	out := make([]domain.Notification, len(items))
	for i, n := range items {
		out[i] = fn(n)
	}
	return out
}
