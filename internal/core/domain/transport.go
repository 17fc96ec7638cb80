package domain

import "strings"

// IconRoute is the fallback transport icon.
const IconRoute = "route"

var transportIcons = []struct {
	keywords []string
	icon     string
}{
	{[]string{"walk"}, "walking"},
	{[]string{"car", "driv"}, "car"},
	{[]string{"bus", "transit", "public"}, "bus"},
	{[]string{"train", "subway", "metro"}, "train"},
	{[]string{"bike", "cycl"}, "bicycle"},
	{[]string{"taxi", "cab"}, "taxi"},
	{[]string{"boat", "ferry"}, "ship"},
	{[]string{"plane", "fly"}, "plane"},
}

// TransportIcon maps a free-text transport mode to an icon key.
// Rows are tried in order and the first keyword hit wins.
func TransportIcon(transport string) string {
	t := strings.ToLower(transport)
	for _, row := range transportIcons {
		for _, kw := range row.keywords {
			if strings.Contains(t, kw) {
				return row.icon
			}
		}
	}
	return IconRoute
}

// ConnectingRoute returns the first route whose name contains the name of
// either endpoint.
//
// TODO: match on explicit start/end location ids once the line schema
// carries them; names like "Museum" and "Museum District" collide here.
func ConnectingRoute(routes []Route, from, to Location) (Route, bool) {
	for _, r := range routes {
		if strings.Contains(r.Name, from.Name) || strings.Contains(r.Name, to.Name) {
			return r, true
		}
	}
	return Route{}, false
}
