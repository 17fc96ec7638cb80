package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/samirrijal/mapexplorer/internal/core/domain"
	"github.com/samirrijal/mapexplorer/internal/pkg/metrics"
)

// sessionSlot serializes every mutation of one session. cancel aborts the
// query currently streaming into it, if any.
type sessionSlot struct {
	mu       sync.Mutex
	state    *domain.Session
	cancel   context.CancelFunc
	lastSeen time.Time
}

// SessionService owns the live sessions and the selection/mode operations
// that drive the view.
type SessionService struct {
	createMu    sync.Mutex // makes the capacity check and insert one step
	slots       cmap.ConcurrentMap[string, *sessionSlot]
	maxSessions int
	idleTTL     time.Duration
	now         func() time.Time
}

// NewSessionService creates a new SessionService. maxSessions <= 0 means no limit.
func NewSessionService(maxSessions int, idleTTL time.Duration) *SessionService {
	return &SessionService{
		slots:       cmap.New[*sessionSlot](),
		maxSessions: maxSessions,
		idleTTL:     idleTTL,
		now:         time.Now,
	}
}

// Create starts an empty session in the given mode.
func (s *SessionService) Create(mode domain.Mode) (domain.View, error) {
	s.createMu.Lock()
	if s.maxSessions > 0 && s.slots.Count() >= s.maxSessions {
		s.createMu.Unlock()
		return domain.View{}, domain.ErrTooManySessions
	}
	id := uuid.NewString()
	slot := &sessionSlot{state: domain.NewSession(id, mode), lastSeen: s.now()}
	s.slots.Set(id, slot)
	count := s.slots.Count()
	s.createMu.Unlock()

	metrics.ActiveSessions.Set(float64(count))
	return BuildView(slot.state), nil
}

// View returns the current view of a session.
func (s *SessionService) View(id string) (domain.View, error) {
	return s.update(id, func(*domain.Session) error { return nil })
}

// Delete drops a session and aborts its running query.
func (s *SessionService) Delete(id string) error {
	slot, ok := s.slots.Get(id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	slot.mu.Lock()
	slot.abort()
	slot.mu.Unlock()
	s.slots.Remove(id)
	metrics.ActiveSessions.Set(float64(s.slots.Count()))
	return nil
}

// Reset discards every entity of the session and invalidates the running query.
func (s *SessionService) Reset(id string) (domain.View, error) {
	slot, ok := s.slots.Get(id)
	if !ok {
		return domain.View{}, domain.ErrSessionNotFound
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	slot.abort()
	slot.state = slot.state.Reset()
	slot.lastSeen = s.now()
	return BuildView(slot.state), nil
}

// SetMode flips the mode toggle; it takes effect on the next query.
func (s *SessionService) SetMode(id string, mode domain.Mode) (domain.View, error) {
	return s.update(id, func(st *domain.Session) error {
		st.SetMode(mode)
		return nil
	})
}

// Select activates the card at index i.
func (s *SessionService) Select(id string, i int) (domain.View, error) {
	return s.update(id, func(st *domain.Session) error { return st.Select(i) })
}

// SelectByName activates the card named like a clicked timeline row.
func (s *SessionService) SelectByName(id, name string) (domain.View, error) {
	return s.update(id, func(st *domain.Session) error { return st.SelectByName(name) })
}

// Navigate moves the selection by delta. moved is false when the move
// would leave the card range; the view is unchanged then.
func (s *SessionService) Navigate(id string, delta int) (view domain.View, moved bool, err error) {
	view, err = s.update(id, func(st *domain.Session) error {
		moved = st.Navigate(delta)
		return nil
	})
	return view, moved, err
}

// SetTimelineOpen shows or hides the timeline panel.
func (s *SessionService) SetTimelineOpen(id string, open bool) (domain.View, error) {
	return s.update(id, func(st *domain.Session) error {
		st.SetTimelineOpen(open)
		return nil
	})
}

// Plan returns the finalized plan and the routes used to connect it.
func (s *SessionService) Plan(id string) (plan []domain.Location, routes []domain.Route, err error) {
	_, err = s.update(id, func(st *domain.Session) error {
		plan = st.Itinerary.Plan()
		routes = st.Itinerary.Routes()
		return nil
	})
	return plan, routes, err
}

// Locations returns every location of the current answer in arrival order.
func (s *SessionService) Locations(id string) ([]domain.Location, error) {
	var locs []domain.Location
	_, err := s.update(id, func(st *domain.Session) error {
		locs = st.Itinerary.Locations()
		return nil
	})
	return locs, err
}

// Sweep removes sessions idle for longer than the TTL and returns how many went.
func (s *SessionService) Sweep() int {
	if s.idleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idleTTL)
	removed := 0
	for item := range s.slots.IterBuffered() {
		slot := item.Val
		slot.mu.Lock()
		idle := slot.lastSeen.Before(cutoff) && slot.state.Phase != domain.PhaseIngesting
		if idle {
			slot.abort()
		}
		slot.mu.Unlock()
		if idle {
			s.slots.Remove(item.Key)
			removed++
		}
	}
	metrics.ActiveSessions.Set(float64(s.slots.Count()))
	return removed
}

// RunJanitor sweeps idle sessions until ctx is done.
func (s *SessionService) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Info("evicted idle sessions", "count", n, "remaining", s.slots.Count())
			}
		case <-ctx.Done():
			return
		}
	}
}

// Count returns the number of live sessions.
func (s *SessionService) Count() int { return s.slots.Count() }

// begin resets the session for a new query and hands out its cancellation
// token: the derived context and the new generation.
func (s *SessionService) begin(ctx context.Context, id, query string) (runCtx context.Context, gen uint64, mode domain.Mode, err error) {
	slot, ok := s.slots.Get(id)
	if !ok {
		return nil, 0, 0, domain.ErrSessionNotFound
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()

	slot.abort()
	slot.state = slot.state.Reset()
	slot.state.Begin(query)
	slot.lastSeen = s.now()

	runCtx, cancel := context.WithCancel(ctx)
	slot.cancel = cancel
	return runCtx, slot.state.Generation, slot.state.RenderMode, nil
}

// apply runs fn against the session if gen is still its generation.
// Events of a superseded query are dropped with ErrSuperseded.
func (s *SessionService) apply(id string, gen uint64, fn func(st *domain.Session)) error {
	slot, ok := s.slots.Get(id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.state.Generation != gen {
		return domain.ErrSuperseded
	}
	fn(slot.state)
	slot.lastSeen = s.now()
	return nil
}

// end releases the cancellation token of generation gen.
func (s *SessionService) end(id string, gen uint64) {
	slot, ok := s.slots.Get(id)
	if !ok {
		return
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.state.Generation == gen {
		slot.abort()
	}
}

func (s *SessionService) update(id string, fn func(st *domain.Session) error) (domain.View, error) {
	slot, ok := s.slots.Get(id)
	if !ok {
		return domain.View{}, domain.ErrSessionNotFound
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	if err := fn(slot.state); err != nil {
		return domain.View{}, err
	}
	slot.lastSeen = s.now()
	return BuildView(slot.state), nil
}

func (slot *sessionSlot) abort() {
	if slot.cancel != nil {
		slot.cancel()
		slot.cancel = nil
	}
}
