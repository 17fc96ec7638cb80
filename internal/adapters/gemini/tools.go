package gemini

import "google.golang.org/genai"

// functionDeclarations describes the two structured calls the model answers with.
func functionDeclarations() []*genai.FunctionDeclaration {
	point := func(desc string) *genai.Schema {
		return &genai.Schema{
			Type:        genai.TypeObject,
			Description: desc,
			Properties: map[string]*genai.Schema{
				"lat": {Type: genai.TypeString, Description: "Latitude"},
				"lng": {Type: genai.TypeString, Description: "Longitude"},
			},
			Required: []string{"lat", "lng"},
		}
	}
	return []*genai.FunctionDeclaration{
		{
			Name:        "location",
			Description: "Geographic coordinates of a location.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":        {Type: genai.TypeString, Description: "Name of the location."},
					"description": {Type: genai.TypeString, Description: "Why the location is relevant, in a few sentences."},
					"lat":         {Type: genai.TypeString, Description: "Latitude of the location."},
					"lng":         {Type: genai.TypeString, Description: "Longitude of the location."},
					"time":        {Type: genai.TypeString, Description: "Time of day to visit, HH:MM (day planner only)."},
					"duration":    {Type: genai.TypeString, Description: "Suggested time to spend, e.g. \"1 hour\" (day planner only)."},
					"sequence":    {Type: genai.TypeNumber, Description: "1-based position in the day plan (day planner only)."},
				},
				Required: []string{"name", "description", "lat", "lng"},
			},
		},
		{
			Name:        "line",
			Description: "Connection between a start location and an end location.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":       {Type: genai.TypeString, Description: "Name of the route or connection."},
					"start":      point("Where the line starts."),
					"end":        point("Where the line ends."),
					"transport":  {Type: genai.TypeString, Description: "Mode of transport, e.g. walking, bus, car (day planner only)."},
					"travelTime": {Type: genai.TypeString, Description: "Estimated travel time, e.g. \"15 minutes\" (day planner only)."},
				},
				Required: []string{"name", "start", "end"},
			},
		},
	}
}
