package domain

import "time"

// Entity is a counterparty: a client or a supplier.
type Entity struct {
	ID         string
	Name       string
	IsClient   bool
	ExternalID string
	CreatedAt  time.Time
}

// Kind returns "client" or "supplier".
func (e *Entity) Kind() string {
	if e.IsClient {
		return "client"
	}
	return "supplier"
}

// EntityFilter narrows entity listings.
type EntityFilter struct {
	IsClient *bool
	Limit    int
	Offset   int
}

// Matches reports whether e passes the filter.
func (f EntityFilter) Matches(e *Entity) bool {
	return f.IsClient == nil || *f.IsClient == e.IsClient
}
