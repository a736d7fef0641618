package faq

import "strings"

type Entry struct {
	Keywords []string
	Answer   string
}

// Entries is scanned in order; the first entry with a matching keyword wins.
var Entries = []Entry{
	{Keywords: []string{"check-in", "check in"}, Answer: "Check-in starts at 3 PM."},
	{Keywords: []string{"check-out", "check out"}, Answer: "Check-out is at 11 AM."},
	{Keywords: []string{"wifi", "wi-fi"}, Answer: "Yes, we provide free high-speed WiFi."},
	{Keywords: []string{"parking"}, Answer: "Free parking is available on-site."},
	{Keywords: []string{"pets"}, Answer: "Sorry, pets are not allowed."},
	{Keywords: []string{"location"}, Answer: "We are located in the city center, 5 minutes from downtown."},
}

// Match expects a lowercased message and returns the first canned answer whose
// keyword appears in it.
func Match(message string) (string, bool) {
	for _, e := range Entries {
		for _, kw := range e.Keywords {
			if strings.Contains(message, kw) {
				return e.Answer, true
			}
		}
	}
	return "", false
}
