package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/mapexplorer/internal/core/domain"
)

// buildSchema creates the read-only GraphQL schema over sessions.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"min_lat": &graphql.Field{Type: graphql.Float},
			"min_lng": &graphql.Field{Type: graphql.Float},
			"max_lat": &graphql.Field{Type: graphql.Float},
			"max_lng": &graphql.Field{Type: graphql.Float},
		},
	})

	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"name":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"position":    &graphql.Field{Type: geoPointType},
			"time":        &graphql.Field{Type: graphql.String},
			"duration":    &graphql.Field{Type: graphql.String},
			"sequence": &graphql.Field{
				Type:        graphql.Int,
				Description: "1-based plan position, null when the model gave none",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if loc, ok := p.Source.(domain.Location); ok && loc.HasSequence() {
						return loc.Sequence, nil
					}
					return nil, nil
				},
			},
		},
	})

	lineType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Line",
		Fields: graphql.Fields{
			"name":        &graphql.Field{Type: graphql.String},
			"path":        &graphql.Field{Type: graphql.NewList(geoPointType)},
			"transport":   &graphql.Field{Type: graphql.String},
			"travel_time": &graphql.Field{Type: graphql.String},
		},
	})

	timelineRowType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TimelineRow",
		Fields: graphql.Fields{
			"kind":           &graphql.Field{Type: graphql.String},
			"time":           &graphql.Field{Type: graphql.String},
			"title":          &graphql.Field{Type: graphql.String},
			"description":    &graphql.Field{Type: graphql.String},
			"duration":       &graphql.Field{Type: graphql.String},
			"icon":           &graphql.Field{Type: graphql.String},
			"location_index": &graphql.Field{Type: graphql.Int},
			"active":         &graphql.Field{Type: graphql.Boolean},
		},
	})

	sessionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Session",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"generation":    &graphql.Field{Type: graphql.Int},
			"mode":          &graphql.Field{Type: graphql.String},
			"render_mode":   &graphql.Field{Type: graphql.String},
			"phase":         &graphql.Field{Type: graphql.String},
			"query":         &graphql.Field{Type: graphql.String},
			"error":         &graphql.Field{Type: graphql.String},
			"selected":      &graphql.Field{Type: graphql.Int},
			"bounds":        &graphql.Field{Type: boundsType},
			"locations":     &graphql.Field{Type: graphql.NewList(locationType)},
			"lines":         &graphql.Field{Type: graphql.NewList(lineType)},
			"itinerary":     &graphql.Field{Type: graphql.NewList(locationType)},
			"timeline":      &graphql.Field{Type: graphql.NewList(timelineRowType)},
			"timeline_open": &graphql.Field{Type: graphql.Boolean},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"session": &graphql.Field{
				Type:        sessionType,
				Description: "Current state of a session",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					view, err := deps.Sessions.View(id)
					if err != nil {
						return nil, err
					}
					plan, _, err := deps.Sessions.Plan(id)
					if err != nil {
						return nil, err
					}
					locations, err := deps.Sessions.Locations(id)
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"id":            view.SessionID,
						"generation":    int(view.Generation),
						"mode":          view.Mode,
						"render_mode":   view.RenderMode,
						"phase":         string(view.Phase),
						"query":         view.Query,
						"error":         view.Error,
						"selected":      view.Selected,
						"bounds":        view.Bounds,
						"locations":     locations,
						"lines":         view.Lines,
						"itinerary":     plan,
						"timeline":      view.Timeline.Rows,
						"timeline_open": view.Timeline.Visible,
					}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
