package usecases_test

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/samirrijal/mapexplorer/internal/core/domain"
)

// --- Fake GenerativeModel ---

type fakeModel struct {
	mu       sync.Mutex
	requests []domain.ModelRequest
	streamFn func(ctx context.Context, req domain.ModelRequest) iter.Seq2[domain.ModelChunk, error]
}

func (m *fakeModel) StreamCalls(ctx context.Context, req domain.ModelRequest) iter.Seq2[domain.ModelChunk, error] {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.streamFn != nil {
		return m.streamFn(ctx, req)
	}
	return streamOf()
}

func (m *fakeModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// streamOf yields one chunk per call.
func streamOf(calls ...domain.FunctionCall) iter.Seq2[domain.ModelChunk, error] {
	return func(yield func(domain.ModelChunk, error) bool) {
		for _, c := range calls {
			if !yield(domain.ModelChunk{Calls: []domain.FunctionCall{c}}, nil) {
				return
			}
		}
	}
}

func failingStream(err error, before ...domain.FunctionCall) iter.Seq2[domain.ModelChunk, error] {
	return func(yield func(domain.ModelChunk, error) bool) {
		for _, c := range before {
			if !yield(domain.ModelChunk{Calls: []domain.FunctionCall{c}}, nil) {
				return
			}
		}
		yield(domain.ModelChunk{}, err)
	}
}

func locationCall(name string, lat, lng float64, extra map[string]any) domain.FunctionCall {
	args := map[string]any{"name": name, "description": name + " description", "lat": lat, "lng": lng}
	for k, v := range extra {
		args[k] = v
	}
	return domain.FunctionCall{Name: "location", Args: args}
}

func lineCall(name string, from, to [2]float64, extra map[string]any) domain.FunctionCall {
	args := map[string]any{
		"name":  name,
		"start": map[string]any{"lat": from[0], "lng": from[1]},
		"end":   map[string]any{"lat": to[0], "lng": to[1]},
	}
	for k, v := range extra {
		args[k] = v
	}
	return domain.FunctionCall{Name: "line", Args: args}
}

// plannerCalls is a three stop day plan delivered out of order.
func plannerCalls() []domain.FunctionCall {
	return []domain.FunctionCall{
		locationCall("Notre-Dame", 48.8530, 2.3499, map[string]any{"time": "14:00", "duration": "1 hour", "sequence": 3}),
		locationCall("Louvre", 48.8606, 2.3376, map[string]any{"time": "09:00", "duration": "2 hours", "sequence": 1}),
		locationCall("Tuileries", 48.8635, 2.3275, map[string]any{"time": "11:00", "duration": "45 minutes", "sequence": 2}),
		lineCall("Louvre to Tuileries", [2]float64{48.8606, 2.3376}, [2]float64{48.8635, 2.3275},
			map[string]any{"transport": "walking", "travelTime": "10 minutes"}),
		lineCall("Tuileries to Notre-Dame", [2]float64{48.8635, 2.3275}, [2]float64{48.8530, 2.3499},
			map[string]any{"transport": "Metro", "travelTime": "20 minutes"}),
	}
}

// --- Fake EventPublisher ---

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.MapEvent
}

func (p *fakePublisher) PublishMapEvent(ctx context.Context, ev *domain.MapEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *ev)
	return nil
}

// --- Fake CacheService ---

var errCacheMiss = errors.New("cache miss")

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttls[key] = ttlSeconds
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}
