package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/samirrijal/mapexplorer/internal/core/domain"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true).Padding(1, 0, 0, 0)
	nameStyle   = lipgloss.NewStyle().Bold(true)
	timeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	routeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	descStyle   = lipgloss.NewStyle().Width(76).PaddingLeft(4)
)

// renderEvent formats a live map event as one progress line; events with
// nothing to show render empty.
func renderEvent(ev domain.MapEvent) string {
	switch ev.Kind {
	case domain.EventLocation:
		if ev.Marker == nil {
			return ""
		}
		return fmt.Sprintf("%s %s %s", okStyle.Render("+"), ev.Marker.Title,
			dimStyle.Render(fmt.Sprintf("(%.4f, %.4f)", ev.Marker.Position.Lat, ev.Marker.Position.Lng)))
	case domain.EventLine:
		if ev.Line == nil {
			return ""
		}
		return fmt.Sprintf("%s %s %s", routeStyle.Render("~"), ev.Line.Name, dimStyle.Render(travelLabel(ev.Line.Transport, ev.Line.TravelTime)))
	case domain.EventError:
		return errorStyle.Render(ev.Error)
	}
	return ""
}

// renderView prints the cards of a finalized view and, when there is one,
// the day plan timeline.
func renderView(v domain.View) string {
	var b strings.Builder

	if len(v.Carousel.Cards) > 0 {
		b.WriteString(titleStyle.Render(fmt.Sprintf("%d places for %q", len(v.Carousel.Cards), v.Query)))
		b.WriteString("\n")
		for _, card := range v.Carousel.Cards {
			marker := " "
			if card.Active {
				marker = activeStyle.Render(">")
			}
			heading := nameStyle.Render(card.Name)
			if card.Planner && card.Time != "" {
				heading = timeStyle.Render(card.Time) + " " + heading
			}
			fmt.Fprintf(&b, "%s %2d. %s %s\n", marker, card.Index+1, heading, dimStyle.Render(card.Coordinates))
			if card.Description != "" {
				b.WriteString(descStyle.Render(card.Description))
				b.WriteString("\n")
			}
		}
	}

	if len(v.Timeline.Rows) > 0 {
		b.WriteString(titleStyle.Render("Day plan"))
		b.WriteString("\n")
		for _, row := range v.Timeline.Rows {
			if row.Kind == domain.RowTransport {
				fmt.Fprintf(&b, "         %s %s\n", routeStyle.Render("| "+row.Title), dimStyle.Render(row.Duration))
				continue
			}
			line := fmt.Sprintf("  %s  %s", timeStyle.Render(fmt.Sprintf("%-8s", row.Time)), nameStyle.Render(row.Title))
			if row.Duration != "" {
				line += " " + dimStyle.Render("("+row.Duration+")")
			}
			b.WriteString(line + "\n")
		}
	}

	if b.Len() == 0 {
		return dimStyle.Render("No places to show.")
	}
	return b.String()
}

func travelLabel(transport, travel string) string {
	switch {
	case transport != "" && travel != "":
		return fmt.Sprintf("(%s, %s)", transport, travel)
	case transport != "":
		return "(" + transport + ")"
	case travel != "":
		return "(" + travel + ")"
	}
	return ""
}
