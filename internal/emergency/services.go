// Package emergency holds the fixed catalogue of emergency phone services
// offered to the caller.
package emergency

import (
	"fmt"
	"strings"
)

type Service struct {
	Option int    `json:"option"`
	Name   string `json:"name"`
	Number string `json:"number"`
}

// DialURI is the telephone URI the page navigates to.
func (s Service) DialURI() string {
	return "tel:" + s.Number
}

// Region names the country the numbers belong to.
const Region = "Cameroon"

var services = []Service{
	{Option: 1, Name: "Fire Rescue", Number: "118"},
	{Option: 2, Name: "Police", Number: "117"},
	{Option: 3, Name: "Ambulance", Number: "119"},
}

func Services() []Service {
	return append([]Service(nil), services...)
}

// Choice is the outcome of a selection. Exactly one of DialURI or Listing is
// set: a valid option dials, anything else shows the full list.
type Choice struct {
	Service *Service `json:"service,omitempty"`
	DialURI string   `json:"dialUri,omitempty"`
	Listing string   `json:"listing,omitempty"`
}

// Prompt is the question shown before a selection is made.
func Prompt() string {
	var b strings.Builder
	b.WriteString("Which emergency service do you need?\n\n")
	for _, s := range services {
		fmt.Fprintf(&b, "%d - %s (%s)\n", s.Option, s.Name, s.Number)
	}
	b.WriteString("\nEnter 1, 2, or 3:")
	return b.String()
}

// Listing is the informational list of every service.
func Listing() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Emergency Services in %s:\n", Region)
	for _, s := range services {
		fmt.Fprintf(&b, "\n%s: %s", s.Name, s.Number)
	}
	return b.String()
}

// Choose resolves the caller's input to a service.
func Choose(input string) Choice {
	input = strings.TrimSpace(input)
	for _, s := range services {
		if input == fmt.Sprint(s.Option) {
			return Choice{Service: &s, DialURI: s.DialURI()}
		}
	}
	return Choice{Listing: Listing()}
}
