// Package site describes the Gazra site collections: their names, who may
// read or submit to them, and the typed views used to validate input.
package site

import (
	"sort"
)

const (
	Events          = "events"
	CafeMenu        = "cafeMenu"
	CafeBookings    = "cafeBookings"
	Volunteers      = "volunteers"
	Courses         = "courses"
	Enrollments     = "enrollments"
	ContactMessages = "contactMessages"
)

// Kind is the registry entry for one collection.
type Kind struct {
	Name         string
	PublicRead   bool
	PublicSubmit bool
	newView      func() any
}

// NewView returns a pointer to a fresh typed view for the collection.
func (k Kind) NewView() any { return k.newView() }

var kinds = map[string]Kind{
	Events:          {Name: Events, PublicRead: true, newView: func() any { return &Event{} }},
	CafeMenu:        {Name: CafeMenu, PublicRead: true, newView: func() any { return &MenuItem{} }},
	Courses:         {Name: Courses, PublicRead: true, newView: func() any { return &Course{} }},
	CafeBookings:    {Name: CafeBookings, PublicSubmit: true, newView: func() any { return &CafeBooking{} }},
	Volunteers:      {Name: Volunteers, PublicSubmit: true, newView: func() any { return &Volunteer{} }},
	Enrollments:     {Name: Enrollments, PublicSubmit: true, newView: func() any { return &Enrollment{} }},
	ContactMessages: {Name: ContactMessages, PublicSubmit: true, newView: func() any { return &ContactMessage{} }},
}

func Lookup(name string) (Kind, bool) {
	k, ok := kinds[name]
	return k, ok
}

// Names lists every registered collection, sorted.
func Names() []string {
	out := make([]string, 0, len(kinds))
	for n := range kinds {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
