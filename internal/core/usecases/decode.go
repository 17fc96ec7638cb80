package usecases

import (
	"fmt"
	"math"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/samirrijal/mapexplorer/internal/core/domain"
)

// Function names declared to the model.
const (
	FunctionLocation = "location"
	FunctionLine     = "line"
)

type locationArgs struct {
	Name        string  `mapstructure:"name"`
	Description string  `mapstructure:"description"`
	Lat         float64 `mapstructure:"lat"`
	Lng         float64 `mapstructure:"lng"`
	Time        string  `mapstructure:"time"`
	Duration    string  `mapstructure:"duration"`
	Sequence    float64 `mapstructure:"sequence"`
}

type pointArgs struct {
	Lat float64 `mapstructure:"lat"`
	Lng float64 `mapstructure:"lng"`
}

type lineArgs struct {
	Name       string    `mapstructure:"name"`
	Start      pointArgs `mapstructure:"start"`
	End        pointArgs `mapstructure:"end"`
	Transport  string    `mapstructure:"transport"`
	TravelTime string    `mapstructure:"travelTime"`
}

// DecodeCall validates a structured call and converts it into an event.
// Coordinates may arrive as strings or numbers. Any failure is reported as
// a *domain.MalformedEventError.
func DecodeCall(call domain.FunctionCall) (domain.Event, error) {
	switch call.Name {
	case FunctionLocation:
		loc, err := decodeLocation(call.Args)
		if err != nil {
			return domain.Event{}, malformed(call.Name, err)
		}
		return domain.Event{Location: &loc}, nil
	case FunctionLine:
		r, err := decodeLine(call.Args)
		if err != nil {
			return domain.Event{}, malformed(call.Name, err)
		}
		return domain.Event{Route: &r}, nil
	default:
		return domain.Event{}, &domain.MalformedEventError{Function: call.Name, Reason: "unknown function"}
	}
}

func decodeLocation(args map[string]any) (domain.Location, error) {
	if err := requireFields(args, "name", "description", "lat", "lng"); err != nil {
		return domain.Location{}, err
	}
	var a locationArgs
	if err := weakDecode(args, &a); err != nil {
		return domain.Location{}, err
	}
	pos := domain.GeoPoint{Lat: a.Lat, Lng: a.Lng}
	if !pos.Valid() {
		return domain.Location{}, fmt.Errorf("coordinates out of range: %v,%v", a.Lat, a.Lng)
	}

	loc := domain.Location{
		Name:        strings.TrimSpace(a.Name),
		Description: a.Description,
		Position:    pos,
		Time:        strings.TrimSpace(a.Time),
		Duration:    strings.TrimSpace(a.Duration),
	}
	// Non-integral or non-positive sequences are treated as absent.
	if a.Sequence >= 1 && a.Sequence == math.Trunc(a.Sequence) {
		loc.Sequence = int(a.Sequence)
	}
	return loc, nil
}

func decodeLine(args map[string]any) (domain.Route, error) {
	if err := requireFields(args, "name", "start", "end"); err != nil {
		return domain.Route{}, err
	}
	for _, key := range []string{"start", "end"} {
		point, ok := args[key].(map[string]any)
		if !ok {
			return domain.Route{}, fmt.Errorf("%s must be an object", key)
		}
		if err := requireFields(point, "lat", "lng"); err != nil {
			return domain.Route{}, fmt.Errorf("%s: %w", key, err)
		}
	}

	var a lineArgs
	if err := weakDecode(args, &a); err != nil {
		return domain.Route{}, err
	}
	r := domain.Route{
		Name:       strings.TrimSpace(a.Name),
		Start:      domain.GeoPoint{Lat: a.Start.Lat, Lng: a.Start.Lng},
		End:        domain.GeoPoint{Lat: a.End.Lat, Lng: a.End.Lng},
		Transport:  strings.TrimSpace(a.Transport),
		TravelTime: strings.TrimSpace(a.TravelTime),
	}
	if !r.Start.Valid() || !r.End.Valid() {
		return domain.Route{}, fmt.Errorf("coordinates out of range")
	}
	return r, nil
}

func requireFields(args map[string]any, keys ...string) error {
	var missing []string
	for _, k := range keys {
		v, ok := args[k]
		if !ok || v == nil {
			missing = append(missing, k)
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

func weakDecode(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return nil
}

func malformed(fn string, err error) error {
	return &domain.MalformedEventError{Function: fn, Reason: err.Error()}
}
