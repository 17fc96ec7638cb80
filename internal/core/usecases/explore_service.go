package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/mapexplorer/internal/core/domain"
	"github.com/samirrijal/mapexplorer/internal/core/ports"
	"github.com/samirrijal/mapexplorer/internal/pkg/logging"
	"github.com/samirrijal/mapexplorer/internal/pkg/metrics"
)

var tracer = otel.Tracer("github.com/samirrijal/mapexplorer/usecases")

// ExploreService streams a model response into a session.
type ExploreService struct {
	sessions    *SessionService
	model       ports.GenerativeModel
	publisher   ports.EventPublisher
	cache       ports.CacheService
	temperature float32
	replayTTL   time.Duration
}

// NewExploreService creates a new ExploreService. publisher and cache may be nil.
func NewExploreService(
	sessions *SessionService,
	model ports.GenerativeModel,
	publisher ports.EventPublisher,
	cache ports.CacheService,
	temperature float32,
	replayTTL time.Duration,
) *ExploreService {
	return &ExploreService{
		sessions:    sessions,
		model:       model,
		publisher:   publisher,
		cache:       cache,
		temperature: temperature,
		replayTTL:   replayTTL,
	}
}

// Explore resets the session, runs query against the model and applies every
// structured call in arrival order. onEvent (optional) receives each live map
// event as soon as it has been applied. The returned view is the finalized one.
//
// A reset or a newer query on the same session aborts this one with
// domain.ErrSuperseded; nothing of it is applied afterwards.
func (s *ExploreService) Explore(ctx context.Context, id, query string, onEvent func(domain.MapEvent)) (domain.View, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.View{}, domain.ErrEmptyQuery
	}

	runCtx, gen, mode, err := s.sessions.begin(ctx, id, query)
	if err != nil {
		return domain.View{}, err
	}
	defer s.sessions.end(id, gen)
	log := logging.FromContext(ctx).With("mode", mode.String())

	runCtx, span := tracer.Start(runCtx, "ExploreService.Explore")
	span.SetAttributes(
		attribute.String("session.id", id),
		attribute.String("explore.mode", mode.String()),
		attribute.Int64("session.generation", int64(gen)),
	)
	defer span.End()

	start := time.Now()
	emit := func(ev domain.MapEvent) {
		ev.SessionID = id
		ev.Generation = gen
		if onEvent != nil {
			onEvent(ev)
		}
		if s.publisher != nil {
			if err := s.publisher.PublishMapEvent(runCtx, &ev); err != nil {
				log.Warn("publish map event failed", "kind", ev.Kind, "error", err)
			}
		}
	}
	emit(domain.MapEvent{Kind: domain.EventReset})

	req := BuildRequest(query, mode, s.temperature)
	cacheKey := replayKey(mode, query)
	calls, replayed := s.replay(runCtx, cacheKey)
	var stream iter.Seq2[domain.ModelChunk, error]
	if replayed {
		stream = replayStream(calls)
		calls = nil
	} else {
		stream = s.model.StreamCalls(runCtx, req)
	}

	applied, malformed := 0, 0
	for chunk, err := range stream {
		if err != nil {
			if s.superseded(id, gen) {
				return s.abandon(span, mode)
			}
			if cerr := runCtx.Err(); cerr != nil {
				return s.fail(id, gen, cerr, span, mode, emit)
			}
			perr := asProviderError(err)
			log.Error("model stream failed", "error", perr)
			return s.fail(id, gen, perr, span, mode, emit)
		}
		for _, call := range chunk.Calls {
			ev, derr := DecodeCall(call)
			if derr != nil {
				malformed++
				metrics.MalformedEvents.WithLabelValues(call.Name).Inc()
				log.Warn("skipping malformed event", "function", call.Name, "error", derr)
				continue
			}
			var live domain.MapEvent
			err := s.sessions.apply(id, gen, func(st *domain.Session) {
				st.Ingest(ev)
				live = liveEvent(st, ev)
			})
			if err != nil {
				return s.abandon(span, mode)
			}
			if !replayed {
				calls = append(calls, call)
			}
			applied++
			metrics.EventsIngested.WithLabelValues(string(live.Kind)).Inc()
			emit(live)
		}
	}
	if applied == 0 {
		log.Info("query produced no results", "malformed", malformed)
		return s.fail(id, gen, domain.ErrNoResults, span, mode, emit)
	}

	var view domain.View
	err = s.sessions.apply(id, gen, func(st *domain.Session) {
		st.Finalize()
		view = BuildView(st)
	})
	if err != nil {
		return s.abandon(span, mode)
	}
	if !replayed {
		s.store(runCtx, cacheKey, calls)
	}
	emit(domain.MapEvent{Kind: domain.EventFinalized, Bounds: view.Bounds, View: &view})

	metrics.QueriesTotal.WithLabelValues(mode.String(), "ok").Inc()
	metrics.QueryDuration.WithLabelValues(mode.String()).Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("explore.events", applied), attribute.Bool("explore.replayed", replayed))
	log.Info("query finalized",
		"locations", len(view.Markers),
		"lines", len(view.Lines),
		"malformed", malformed,
		"replayed", replayed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return view, nil
}

func (s *ExploreService) fail(id string, gen uint64, cause error, span trace.Span, mode domain.Mode, emit func(domain.MapEvent)) (domain.View, error) {
	var view domain.View
	err := s.sessions.apply(id, gen, func(st *domain.Session) {
		st.Fail(cause)
		view = BuildView(st)
	})
	if err != nil {
		return s.abandon(span, mode)
	}
	outcome := "provider_error"
	switch {
	case errors.Is(cause, domain.ErrNoResults):
		outcome = "no_results"
	case errors.Is(cause, context.Canceled), errors.Is(cause, context.DeadlineExceeded):
		outcome = "cancelled"
	}
	metrics.QueriesTotal.WithLabelValues(mode.String(), outcome).Inc()
	span.RecordError(cause)
	span.SetStatus(codes.Error, cause.Error())
	emit(domain.MapEvent{Kind: domain.EventError, Error: cause.Error()})
	return view, cause
}

func (s *ExploreService) abandon(span trace.Span, mode domain.Mode) (domain.View, error) {
	metrics.QueriesTotal.WithLabelValues(mode.String(), "superseded").Inc()
	span.SetStatus(codes.Error, domain.ErrSuperseded.Error())
	return domain.View{}, domain.ErrSuperseded
}

// superseded reports whether a reset or a newer query replaced generation gen.
func (s *ExploreService) superseded(id string, gen uint64) bool {
	return s.sessions.apply(id, gen, func(*domain.Session) {}) != nil
}

func (s *ExploreService) replay(ctx context.Context, key string) ([]domain.FunctionCall, bool) {
	if s.cache == nil || s.replayTTL <= 0 {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheMisses.WithLabelValues("replay").Inc()
		return nil, false
	}
	var calls []domain.FunctionCall
	if err := json.Unmarshal(data, &calls); err != nil || len(calls) == 0 {
		metrics.CacheMisses.WithLabelValues("replay").Inc()
		return nil, false
	}
	metrics.CacheHits.WithLabelValues("replay").Inc()
	return calls, true
}

func (s *ExploreService) store(ctx context.Context, key string, calls []domain.FunctionCall) {
	if s.cache == nil || s.replayTTL <= 0 || len(calls) == 0 {
		return
	}
	data, err := json.Marshal(calls)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, int(s.replayTTL.Seconds())); err != nil {
		logging.FromContext(ctx).Warn("replay cache write failed", "key", key, "error", err)
	}
}

func replayKey(mode domain.Mode, query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(query)))
	return fmt.Sprintf("explore:calls:%s:%s", mode.String(), hex.EncodeToString(sum[:]))
}

func replayStream(calls []domain.FunctionCall) iter.Seq2[domain.ModelChunk, error] {
	return func(yield func(domain.ModelChunk, error) bool) {
		yield(domain.ModelChunk{Calls: calls}, nil)
	}
}

// liveEvent builds the incremental map feedback for an applied event.
func liveEvent(st *domain.Session, ev domain.Event) domain.MapEvent {
	var out domain.MapEvent
	if b, ok := st.Points.Region(); ok {
		out.Bounds = &b
	}
	switch {
	case ev.Location != nil:
		i := st.Itinerary.Len() - 1
		marker := MarkerFor(*ev.Location)
		popup := PopupFor(*ev.Location, st.RenderMode, i, st.Selected)
		out.Kind = domain.EventLocation
		out.Marker = &marker
		out.Popup = &popup
	case ev.Route != nil:
		line := LineFor(*ev.Route, st.RenderMode)
		out.Kind = domain.EventLine
		out.Line = &line
	}
	return out
}

func asProviderError(err error) error {
	var perr *domain.ProviderError
	if errors.As(err, &perr) {
		return perr
	}
	return &domain.ProviderError{Provider: "model", Err: err}
}
