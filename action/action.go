// Package action runs confirmation-gated admin actions against attendees.
//
// An action asks the operator to confirm, marks the triggering control busy,
// sends exactly one request and then either reloads the attendee's state or
// reports the failure and hands the control back.
package action

import (
	"fmt"
	"net/url"
	"sort"
)

// AttendeeID identifies an attendee on the admin site. It is opaque here.
type AttendeeID string

// Action describes one admin action endpoint and the words shown around it.
type Action struct {
	// Name is the command name, e.g. "register-zoom".
	Name string

	// Label is the idle label of the control that triggers the action.
	Label string

	// Prompt is the yes/no question asked before anything is sent.
	Prompt string

	// BusyLabel replaces Label while the request is in flight.
	BusyLabel string

	// PathFormat is the endpoint path with a single %s for the attendee id.
	PathFormat string
}

// Path returns the endpoint path for id.
func (a Action) Path(id AttendeeID) string {
	return fmt.Sprintf(a.PathFormat, url.PathEscape(string(id)))
}

var (
	// RegisterZoom registers an attendee in the Zoom webinar of their date.
	RegisterZoom = Action{
		Name:       "register-zoom",
		Label:      "Register in Zoom",
		Prompt:     "Register this attendee in Zoom?",
		BusyLabel:  "Registering...",
		PathFormat: "/attendees/%s/register-zoom/",
	}

	// Activate sends the grant offer activation for an attendee.
	Activate = Action{
		Name:       "activate",
		Label:      "Activate",
		Prompt:     "Activate grant offer for this attendee?",
		BusyLabel:  "Activating...",
		PathFormat: "/attendees/%s/activate/",
	}
)

var catalog = map[string]Action{
	RegisterZoom.Name: RegisterZoom,
	Activate.Name:     Activate,
}

// Lookup returns the action registered under name.
func Lookup(name string) (Action, bool) {
	act, ok := catalog[name]
	return act, ok
}

// Names lists the registered action names in order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
