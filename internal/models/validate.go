package models

import "regexp"

// Field charset rules carried over from the legacy registration forms.
// Validation beyond these abstract constraints (phone formats, postal
// addresses) is deliberately out of scope.
var (
	namePattern        = regexp.MustCompile(`^[A-Za-z0-9\s\.\,\-\!\']+$`)
	personNamePattern  = regexp.MustCompile(`^[A-Za-z\s\-\']+$`)
	addressPattern     = regexp.MustCompile(`^[A-Za-z0-9\s\-\']+$`)
	venuePattern       = regexp.MustCompile(`^[A-Za-z\s\-\']+$`)
	descriptionPattern = regexp.MustCompile(`^[A-Za-z0-9\s\.\,\-\!\']*$`)
)

// Location groups the optional place attributes shared by events and shifts.
type Location struct {
	Address *string `db:"address" json:"address,omitempty"`
	City    *string `db:"city" json:"city,omitempty"`
	State   *string `db:"state" json:"state,omitempty"`
	Country *string `db:"country" json:"country,omitempty"`
	Venue   *string `db:"venue" json:"venue,omitempty"`
}

func (l Location) validate(fields map[string]string) {
	if l.Address != nil && *l.Address != "" && !addressPattern.MatchString(*l.Address) {
		fields["address"] = "address contains invalid characters"
	}
	if l.Venue != nil && *l.Venue != "" && !venuePattern.MatchString(*l.Venue) {
		fields["venue"] = "venue contains invalid characters"
	}
}
