package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	httpadapter "github.com/samirrijal/mapexplorer/internal/adapters/http"
	"github.com/samirrijal/mapexplorer/internal/core/domain"
)

// client talks to the map explorer HTTP API.
type client struct {
	base string
	http *http.Client
}

func newClient(base string) *client {
	// No overall timeout: streams last as long as the model answers.
	return &client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Transport: &http.Transport{ResponseHeaderTimeout: 30 * time.Second}},
	}
}

func (c *client) createSession(ctx context.Context, mode domain.Mode) (domain.View, error) {
	body, _ := json.Marshal(map[string]string{"mode": mode.String()})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/v1/sessions", bytes.NewReader(body))
	if err != nil {
		return domain.View{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.View{}, fmt.Errorf("create session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return domain.View{}, apiError(resp)
	}
	var view domain.View
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return domain.View{}, fmt.Errorf("decode session: %w", err)
	}
	return view, nil
}

// stream runs query on the session and calls onEvent for every live map
// event. It returns the finalized view, or the error event as an error.
func (c *client) stream(ctx context.Context, id, query string, onEvent func(domain.MapEvent)) (domain.View, error) {
	u := fmt.Sprintf("%s/v1/sessions/%s/stream?q=%s", c.base, url.PathEscape(id), url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.View{}, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.View{}, fmt.Errorf("stream query: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.View{}, apiError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 4<<20)
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		case line == "" && data.Len() > 0:
			var ev domain.MapEvent
			if err := json.Unmarshal([]byte(data.String()), &ev); err != nil {
				return domain.View{}, fmt.Errorf("decode event: %w", err)
			}
			data.Reset()
			if onEvent != nil {
				onEvent(ev)
			}
			switch ev.Kind {
			case domain.EventFinalized:
				if ev.View == nil {
					return domain.View{}, errors.New("finalized event without a view")
				}
				return *ev.View, nil
			case domain.EventError:
				return domain.View{}, errors.New(ev.Error)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return domain.View{}, fmt.Errorf("read stream: %w", err)
	}
	return domain.View{}, errors.New("stream ended before the answer was complete")
}

// export downloads the plan document and the file name the server suggests.
// An empty itinerary is reported as domain.ErrEmptyItinerary.
func (c *client) export(ctx context.Context, id, format string) ([]byte, string, error) {
	u := fmt.Sprintf("%s/v1/sessions/%s/export?format=%s", c.base, url.PathEscape(id), url.QueryEscape(format))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent:
		return nil, "", domain.ErrEmptyItinerary
	default:
		return nil, "", apiError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	name := "day-plan." + format
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return data, name, nil
}

func apiError(resp *http.Response) error {
	var e httpadapter.APIError
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Message == "" {
		return fmt.Errorf("server answered %s", resp.Status)
	}
	if e.Code == "not_found" {
		return fmt.Errorf("%w (%s)", domain.ErrSessionNotFound, e.RequestID)
	}
	return errors.New(e.Message)
}
