package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handler "github.com/samirrijal/mapexplorer/internal/adapters/http"
	"github.com/samirrijal/mapexplorer/internal/core/domain"
	"github.com/samirrijal/mapexplorer/internal/core/usecases"
)

// ---- Fakes ----

type scriptedModel struct {
	calls []domain.FunctionCall
	err   error
}

func (m *scriptedModel) StreamCalls(ctx context.Context, req domain.ModelRequest) iter.Seq2[domain.ModelChunk, error] {
	return func(yield func(domain.ModelChunk, error) bool) {
		for _, c := range m.calls {
			if !yield(domain.ModelChunk{Calls: []domain.FunctionCall{c}}, nil) {
				return
			}
		}
		if m.err != nil {
			yield(domain.ModelChunk{}, m.err)
		}
	}
}

type fakeRenderer struct {
	views []domain.View
	err   error
}

func (r *fakeRenderer) Snapshot(ctx context.Context, view *domain.View) (image.Image, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.views = append(r.views, *view)
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	return img, nil
}

func location(name string, lat, lng float64, extra map[string]any) domain.FunctionCall {
	args := map[string]any{"name": name, "description": "About " + name, "lat": lat, "lng": lng}
	for k, v := range extra {
		args[k] = v
	}
	return domain.FunctionCall{Name: usecases.FunctionLocation, Args: args}
}

func line(name string, from, to domain.GeoPoint, transport, travel string) domain.FunctionCall {
	return domain.FunctionCall{Name: usecases.FunctionLine, Args: map[string]any{
		"name":       name,
		"start":      map[string]any{"lat": from.Lat, "lng": from.Lng},
		"end":        map[string]any{"lat": to.Lat, "lng": to.Lng},
		"transport":  transport,
		"travelTime": travel,
	}}
}

func romePlan() []domain.FunctionCall {
	colosseum := domain.GeoPoint{Lat: 41.8902, Lng: 12.4922}
	forum := domain.GeoPoint{Lat: 41.8925, Lng: 12.4853}
	return []domain.FunctionCall{
		location("Roman Forum", forum.Lat, forum.Lng, map[string]any{"time": "11:00", "duration": "1.5 hours", "sequence": 2}),
		location("Colosseum", colosseum.Lat, colosseum.Lng, map[string]any{"time": "09:00", "duration": "2 hours", "sequence": 1}),
		line("Colosseum to Roman Forum", colosseum, forum, "walking", "5 minutes"),
	}
}

func explorerPlaces() []domain.FunctionCall {
	return []domain.FunctionCall{
		location("Eiffel Tower", 48.8584, 2.2945, nil),
		location("Arc de Triomphe", 48.8738, 2.2950, nil),
	}
}

// ---- Helpers ----

func setupApp(t *testing.T, model *scriptedModel, renderer *fakeRenderer) *fiber.App {
	t.Helper()
	sessions := usecases.NewSessionService(0, time.Hour)
	deps := &handler.Dependencies{
		Sessions:     sessions,
		Explorer:     usecases.NewExploreService(sessions, model, nil, nil, 1, 0),
		Exports:      usecases.NewExportService(sessions),
		QueryTimeout: 5 * time.Second,
	}
	if renderer != nil {
		deps.Renderer = renderer
	}
	app := fiber.New()
	handler.SetupRoutes(app, deps)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = strings.NewReader(string(data))
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func createSession(t *testing.T, app *fiber.App, mode string) string {
	t.Helper()
	resp := doRequest(t, app, fiber.MethodPost, "/v1/sessions", map[string]string{"mode": mode})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return decode[domain.View](t, resp).SessionID
}

func runQuery(t *testing.T, app *fiber.App, id, query string) *http.Response {
	t.Helper()
	return doRequest(t, app, fiber.MethodPost, "/v1/sessions/"+id+"/query", map[string]string{"query": query})
}

// ---- Session lifecycle ----

func TestCreateSession(t *testing.T) {
	app := setupApp(t, &scriptedModel{}, nil)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantMode   string
	}{
		{"empty body defaults to explorer", nil, fiber.StatusCreated, "explorer"},
		{"planner", map[string]string{"mode": "planner"}, fiber.StatusCreated, "planner"},
		{"unknown mode", map[string]string{"mode": "tourist"}, fiber.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, app, fiber.MethodPost, "/v1/sessions", tt.body)
			require.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus != fiber.StatusCreated {
				apiErr := decode[handler.APIError](t, resp)
				assert.Equal(t, "bad_request", apiErr.Code)
				return
			}
			view := decode[domain.View](t, resp)
			assert.NotEmpty(t, view.SessionID)
			assert.Equal(t, tt.wantMode, view.Mode)
			assert.Equal(t, domain.PhaseIdle, view.Phase)
		})
	}
}

func TestGetSession_NotFound(t *testing.T) {
	app := setupApp(t, &scriptedModel{}, nil)

	resp := doRequest(t, app, fiber.MethodGet, "/v1/sessions/missing", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	apiErr := decode[handler.APIError](t, resp)
	assert.Equal(t, "not_found", apiErr.Code)
	assert.Equal(t, domain.ErrSessionNotFound.Error(), apiErr.Message)
}

func TestGetSession_NoStore(t *testing.T) {
	app := setupApp(t, &scriptedModel{}, nil)
	id := createSession(t, app, "explorer")

	resp := doRequest(t, app, fiber.MethodGet, "/v1/sessions/"+id, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestGetSession_ConditionalGet(t *testing.T) {
	app := setupApp(t, &scriptedModel{}, nil)
	id := createSession(t, app, "explorer")

	resp := doRequest(t, app, fiber.MethodGet, "/v1/sessions/"+id, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	tag := resp.Header.Get("ETag")
	require.NotEmpty(t, tag)

	req := httptest.NewRequest(fiber.MethodGet, "/v1/sessions/"+id, nil)
	req.Header.Set("If-None-Match", tag)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotModified, resp.StatusCode)

	// Changing the session changes the tag.
	doRequest(t, app, fiber.MethodPut, "/v1/sessions/"+id+"/mode", map[string]string{"mode": "planner"})
	resp = doRequest(t, app, fiber.MethodGet, "/v1/sessions/"+id, nil)
	assert.NotEqual(t, tag, resp.Header.Get("ETag"))
}

func TestDeleteSession(t *testing.T) {
	app := setupApp(t, &scriptedModel{}, nil)
	id := createSession(t, app, "explorer")

	resp := doRequest(t, app, fiber.MethodDelete, "/v1/sessions/"+id, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, app, fiber.MethodGet, "/v1/sessions/"+id, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestResetSession(t *testing.T) {
	app := setupApp(t, &scriptedModel{calls: explorerPlaces()}, nil)
	id := createSession(t, app, "explorer")
	require.Equal(t, fiber.StatusOK, runQuery(t, app, id, "Paris landmarks").StatusCode)

	resp := doRequest(t, app, fiber.MethodPost, "/v1/sessions/"+id+"/reset", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	view := decode[domain.View](t, resp)
	assert.Empty(t, view.Markers)
	assert.Empty(t, view.Lines)
	assert.Nil(t, view.Bounds)
	assert.Equal(t, domain.PhaseIdle, view.Phase)
	assert.Equal(t, "explorer", view.Mode)
}

// ---- Queries ----

func TestQuery_Explorer(t *testing.T) {
	app := setupApp(t, &scriptedModel{calls: explorerPlaces()}, nil)
	id := createSession(t, app, "explorer")

	resp := runQuery(t, app, id, "Paris landmarks")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	view := decode[domain.View](t, resp)

	assert.Equal(t, domain.PhaseFinalized, view.Phase)
	require.Len(t, view.Markers, 2)
	assert.Equal(t, "Eiffel Tower", view.Markers[0].Title)
	require.NotNil(t, view.Bounds)
	assert.True(t, view.Carousel.Visible)
	assert.Len(t, view.Carousel.Cards, 2)
	assert.Equal(t, 0, view.Selected)
	assert.False(t, view.Timeline.Visible)
	for _, p := range view.Popups {
		assert.True(t, p.Visible, "explorer mode shows every popup")
	}
}

func TestQuery_Planner(t *testing.T) {
	app := setupApp(t, &scriptedModel{calls: romePlan()}, nil)
	id := createSession(t, app, "planner")

	resp := runQuery(t, app, id, "One day in Rome")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	view := decode[domain.View](t, resp)

	require.Len(t, view.Carousel.Cards, 2)
	assert.Equal(t, "Roman Forum", view.Carousel.Cards[0].Name, "cards keep arrival order")
	assert.True(t, view.Timeline.Visible)
	require.Len(t, view.Timeline.Rows, 3)
	assert.Equal(t, "Colosseum", view.Timeline.Rows[0].Title, "the timeline follows the plan")
	assert.Equal(t, domain.RowTransport, view.Timeline.Rows[1].Kind)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "#2196F3", view.Lines[0].Stroke.Color)
}

func TestQuery_Errors(t *testing.T) {
	tests := []struct {
		name       string
		model      *scriptedModel
		query      string
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "empty query",
			model:      &scriptedModel{},
			query:      "   ",
			wantStatus: fiber.StatusBadRequest,
			wantCode:   "bad_request",
			wantMsg:    domain.ErrEmptyQuery.Error(),
		},
		{
			name:       "no structured calls",
			model:      &scriptedModel{},
			query:      "hello",
			wantStatus: fiber.StatusUnprocessableEntity,
			wantCode:   "no_results",
			wantMsg:    domain.ErrNoResults.Error(),
		},
		{
			name:       "provider failure keeps its message",
			model:      &scriptedModel{err: errors.New("quota exceeded for model")},
			query:      "Paris",
			wantStatus: fiber.StatusBadGateway,
			wantCode:   "provider_error",
			wantMsg:    "quota exceeded for model",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupApp(t, tt.model, nil)
			id := createSession(t, app, "explorer")

			resp := runQuery(t, app, id, tt.query)
			require.Equal(t, tt.wantStatus, resp.StatusCode)
			apiErr := decode[handler.APIError](t, resp)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

func TestQuery_FailureIsVisibleOnSession(t *testing.T) {
	app := setupApp(t, &scriptedModel{}, nil)
	id := createSession(t, app, "explorer")
	runQuery(t, app, id, "nothing here").Body.Close()

	view := decode[domain.View](t, doRequest(t, app, fiber.MethodGet, "/v1/sessions/"+id, nil))
	assert.Equal(t, domain.PhaseFailed, view.Phase)
	assert.Equal(t, domain.ErrNoResults.Error(), view.Error)
}

func TestStream(t *testing.T) {
	app := setupApp(t, &scriptedModel{calls: explorerPlaces()}, nil)
	id := createSession(t, app, "explorer")

	resp := doRequest(t, app, fiber.MethodGet, "/v1/sessions/"+id+"/stream?q=Paris", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)

	reset := strings.Index(text, "event: reset\n")
	first := strings.Index(text, "event: location\n")
	done := strings.Index(text, "event: finalized\n")
	require.GreaterOrEqual(t, reset, 0)
	require.Greater(t, first, reset)
	require.Greater(t, done, first)
	assert.Equal(t, 2, strings.Count(text, "event: location\n"))
	assert.NotContains(t, text, "event: error")
}

func TestStream_NoResults(t *testing.T) {
	app := setupApp(t, &scriptedModel{}, nil)
	id := createSession(t, app, "explorer")

	resp := doRequest(t, app, fiber.MethodGet, "/v1/sessions/"+id+"/stream?q=Paris", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(body), "event: error\n"))
	assert.Contains(t, string(body), "Could not generate any results")
}

func TestStream_Rejected(t *testing.T) {
	app := setupApp(t, &scriptedModel{}, nil)
	id := createSession(t, app, "explorer")

	resp := doRequest(t, app, fiber.MethodGet, "/v1/sessions/"+id+"/stream", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, app, fiber.MethodGet, "/v1/sessions/unknown/stream?q=Paris", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

// ---- Interaction ----

func TestSelectAndNavigate(t *testing.T) {
	app := setupApp(t, &scriptedModel{calls: explorerPlaces()}, nil)
	id := createSession(t, app, "explorer")
	require.Equal(t, fiber.StatusOK, runQuery(t, app, id, "Paris").StatusCode)
	base := "/v1/sessions/" + id

	resp := doRequest(t, app, fiber.MethodPost, base+"/select", map[string]int{"index": 1})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	view := decode[domain.View](t, resp)
	assert.Equal(t, 1, view.Selected)
	assert.True(t, view.Carousel.Cards[1].Active)
	assert.Equal(t, 1, view.Carousel.ScrollTo)

	// At the last card, next is a no-op.
	resp = doRequest(t, app, fiber.MethodPost, base+"/navigate", map[string]int{"delta": 1})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	nav := decode[struct {
		Moved bool        `json:"moved"`
		View  domain.View `json:"view"`
	}](t, resp)
	assert.False(t, nav.Moved)
	assert.Equal(t, 1, nav.View.Selected)

	resp = doRequest(t, app, fiber.MethodPost, base+"/navigate", map[string]int{"delta": -1})
	nav = decode[struct {
		Moved bool        `json:"moved"`
		View  domain.View `json:"view"`
	}](t, resp)
	assert.True(t, nav.Moved)
	assert.Equal(t, 0, nav.View.Selected)

	resp = doRequest(t, app, fiber.MethodPost, base+"/select", map[string]string{"name": "Arc de Triomphe"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[domain.View](t, resp).Selected)

	resp = doRequest(t, app, fiber.MethodPost, base+"/select", map[string]int{"index": 7})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, app, fiber.MethodPost, base+"/navigate", map[string]int{"delta": 3})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSetModeAndTimeline(t *testing.T) {
	app := setupApp(t, &scriptedModel{calls: romePlan()}, nil)
	id := createSession(t, app, "planner")
	require.Equal(t, fiber.StatusOK, runQuery(t, app, id, "Rome").StatusCode)
	base := "/v1/sessions/" + id

	resp := doRequest(t, app, fiber.MethodPut, base+"/timeline", map[string]bool{"open": false})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, decode[domain.View](t, resp).Timeline.Visible)

	resp = doRequest(t, app, fiber.MethodPut, base+"/timeline", map[string]bool{"open": true})
	assert.True(t, decode[domain.View](t, resp).Timeline.Visible)

	resp = doRequest(t, app, fiber.MethodPut, base+"/mode", map[string]string{"mode": "explorer"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	view := decode[domain.View](t, resp)
	assert.Equal(t, "explorer", view.Mode)
	assert.Equal(t, "planner", view.RenderMode, "rendering follows the mode of the last query")
	assert.False(t, view.Timeline.Visible)
	assert.Len(t, view.Markers, 2)

	resp = doRequest(t, app, fiber.MethodPut, base+"/mode", map[string]string{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

// ---- Export & snapshot ----

func TestExport(t *testing.T) {
	app := setupApp(t, &scriptedModel{calls: romePlan()}, nil)
	id := createSession(t, app, "planner")
	require.Equal(t, fiber.StatusOK, runQuery(t, app, id, "Rome").StatusCode)
	base := "/v1/sessions/" + id + "/export"

	resp := doRequest(t, app, fiber.MethodGet, base, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="day-plan.txt"`)
	body, _ := io.ReadAll(resp.Body)
	text := string(body)
	assert.True(t, strings.HasPrefix(text, "# Your Day Plan\n\n## 1. Colosseum\nTime: 09:00\n"), text)
	assert.Contains(t, text, "### Travel to Roman Forum\nMethod: walking\nTime: 5 minutes\n")

	resp = doRequest(t, app, fiber.MethodGet, base+"?format=ics&date=2026-05-01", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/calendar")
	body, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "BEGIN:VCALENDAR")
	assert.Equal(t, 2, strings.Count(string(body), "BEGIN:VEVENT"))
	assert.Contains(t, string(body), "20260501T090000")

	resp = doRequest(t, app, fiber.MethodGet, base+"?format=pdf", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, app, fiber.MethodGet, base+"?format=ics&date=May", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestExport_EmptyItinerary(t *testing.T) {
	app := setupApp(t, &scriptedModel{calls: explorerPlaces()}, nil)
	id := createSession(t, app, "explorer")

	resp := doRequest(t, app, fiber.MethodGet, "/v1/sessions/"+id+"/export", nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	// Explorer answers carry no sequence, so there is still no plan.
	require.Equal(t, fiber.StatusOK, runQuery(t, app, id, "Paris").StatusCode)
	resp = doRequest(t, app, fiber.MethodGet, "/v1/sessions/"+id+"/export?format=ics", nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestSnapshot(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		app := setupApp(t, &scriptedModel{}, nil)
		id := createSession(t, app, "explorer")
		resp := doRequest(t, app, fiber.MethodGet, "/v1/sessions/"+id+"/snapshot", nil)
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("empty view", func(t *testing.T) {
		renderer := &fakeRenderer{}
		app := setupApp(t, &scriptedModel{}, renderer)
		id := createSession(t, app, "explorer")
		resp := doRequest(t, app, fiber.MethodGet, "/v1/sessions/"+id+"/snapshot", nil)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
		assert.Empty(t, renderer.views)
	})

	t.Run("png", func(t *testing.T) {
		renderer := &fakeRenderer{}
		app := setupApp(t, &scriptedModel{calls: explorerPlaces()}, renderer)
		id := createSession(t, app, "explorer")
		require.Equal(t, fiber.StatusOK, runQuery(t, app, id, "Paris").StatusCode)

		resp := doRequest(t, app, fiber.MethodGet, "/v1/sessions/"+id+"/snapshot", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
		body, _ := io.ReadAll(resp.Body)
		assert.True(t, strings.HasPrefix(string(body), "\x89PNG"))
		require.Len(t, renderer.views, 1)
		assert.Len(t, renderer.views[0].Markers, 2)
	})

	t.Run("provider error", func(t *testing.T) {
		renderer := &fakeRenderer{err: &domain.ProviderError{Provider: "google-maps", Err: errors.New("REQUEST_DENIED")}}
		app := setupApp(t, &scriptedModel{calls: explorerPlaces()}, renderer)
		id := createSession(t, app, "explorer")
		require.Equal(t, fiber.StatusOK, runQuery(t, app, id, "Paris").StatusCode)

		resp := doRequest(t, app, fiber.MethodGet, "/v1/sessions/"+id+"/snapshot", nil)
		require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
		assert.Equal(t, "REQUEST_DENIED", decode[handler.APIError](t, resp).Message)
	})
}

// ---- GraphQL & health ----

func TestGraphQL_Session(t *testing.T) {
	app := setupApp(t, &scriptedModel{calls: romePlan()}, nil)
	id := createSession(t, app, "planner")
	require.Equal(t, fiber.StatusOK, runQuery(t, app, id, "Rome").StatusCode)

	query := fmt.Sprintf(`{ session(id: %q) { mode phase selected locations { name sequence } itinerary { name time sequence } lines { name transport } } }`, id)
	resp := doRequest(t, app, fiber.MethodPost, "/graphql", map[string]string{"query": query})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decode[struct {
		Data struct {
			Session struct {
				Mode      string `json:"mode"`
				Phase     string `json:"phase"`
				Selected  int    `json:"selected"`
				Locations []struct {
					Name     string `json:"name"`
					Sequence *int   `json:"sequence"`
				} `json:"locations"`
				Itinerary []struct {
					Name     string `json:"name"`
					Time     string `json:"time"`
					Sequence int    `json:"sequence"`
				} `json:"itinerary"`
				Lines []struct {
					Name      string `json:"name"`
					Transport string `json:"transport"`
				} `json:"lines"`
			} `json:"session"`
		} `json:"data"`
		Errors []any `json:"errors"`
	}](t, resp)

	require.Empty(t, result.Errors)
	s := result.Data.Session
	assert.Equal(t, "planner", s.Mode)
	assert.Equal(t, "finalized", s.Phase)
	require.Len(t, s.Locations, 2)
	assert.Equal(t, "Roman Forum", s.Locations[0].Name, "locations keep arrival order")
	require.NotNil(t, s.Locations[0].Sequence)
	assert.Equal(t, 2, *s.Locations[0].Sequence)
	require.Len(t, s.Itinerary, 2)
	assert.Equal(t, "Colosseum", s.Itinerary[0].Name)
	assert.Equal(t, 1, s.Itinerary[0].Sequence)
	require.Len(t, s.Lines, 1)
	assert.Equal(t, "walking", s.Lines[0].Transport)
}

func TestGraphQL_LocationsWithoutSequence(t *testing.T) {
	app := setupApp(t, &scriptedModel{calls: explorerPlaces()}, nil)
	id := createSession(t, app, "explorer")
	require.Equal(t, fiber.StatusOK, runQuery(t, app, id, "Paris").StatusCode)

	query := fmt.Sprintf(`{ session(id: %q) { locations { name sequence } } }`, id)
	resp := doRequest(t, app, fiber.MethodPost, "/graphql", map[string]string{"query": query})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decode[struct {
		Data struct {
			Session struct {
				Locations []struct {
					Name     string `json:"name"`
					Sequence *int   `json:"sequence"`
				} `json:"locations"`
			} `json:"session"`
		} `json:"data"`
		Errors []any `json:"errors"`
	}](t, resp)

	require.Empty(t, result.Errors)
	require.Len(t, result.Data.Session.Locations, 2)
	assert.Equal(t, "Eiffel Tower", result.Data.Session.Locations[0].Name)
	assert.Nil(t, result.Data.Session.Locations[0].Sequence)
}

func TestGraphQL_UnknownSession(t *testing.T) {
	app := setupApp(t, &scriptedModel{}, nil)

	resp := doRequest(t, app, fiber.MethodPost, "/graphql", map[string]string{"query": `{ session(id: "nope") { mode } }`})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	result := decode[struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}](t, resp)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, domain.ErrSessionNotFound.Error(), result.Errors[0].Message)
}

func TestHealth(t *testing.T) {
	app := setupApp(t, &scriptedModel{}, nil)
	createSession(t, app, "explorer")

	resp := doRequest(t, app, fiber.MethodGet, "/v1/health", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "healthy", body["status"])
	assert.EqualValues(t, 1, body["sessions"])
}

func TestReady_WithoutOptionalBackends(t *testing.T) {
	app := setupApp(t, &scriptedModel{}, nil)

	resp := doRequest(t, app, fiber.MethodGet, "/v1/ready", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decode[struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}](t, resp)
	assert.Equal(t, "ready", body.Status)
	assert.Equal(t, "not configured", body.Checks["nats"])
	assert.Equal(t, "not configured", body.Checks["cache"])
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	app := setupApp(t, &scriptedModel{}, nil)

	resp := doRequest(t, app, fiber.MethodGet, "/ws?session=abc", nil)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestRequestIDOnErrors(t *testing.T) {
	app := setupApp(t, &scriptedModel{}, nil)

	resp := doRequest(t, app, fiber.MethodGet, "/v1/sessions/missing", nil)
	apiErr := decode[handler.APIError](t, resp)
	assert.NotEmpty(t, apiErr.RequestID)
	assert.Equal(t, apiErr.RequestID, resp.Header.Get(fiber.HeaderXRequestID))
}
