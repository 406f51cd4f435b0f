package schedule

import "strings"

// Treatments is the catalog of services offered for booking.
var Treatments = []string{
	"General Consultation",
	"Pediatric Dental Care",
	"Wisdom Tooth Removal",
	"Nail Polish",
	"Nail Repair",
	"Nail Filling",
	"Nail Strengthening",
	"Nail Sculpting",
	"Nail Overlay",
	"Nail Extension",
	"Foot Asportation",
	"Foot Resection",
	"Foot Cleaning",
	"Foot Debridement",
	"Foot Dressing",
	"Foot Bandaging",
}

// LookupTreatment validates a treatment name case-insensitively and returns
// its canonical capitalization.
func LookupTreatment(name string) (string, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, t := range Treatments {
		if strings.ToLower(t) == want {
			return t, true
		}
	}
	return "", false
}
