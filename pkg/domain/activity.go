package domain

import "time"

// ActivityEntry is one audit-trail record. The core never writes these
// itself; services append them once a transition or creation is accepted.
type ActivityEntry struct {
	Org     int64     `json:"org"`
	Actor   string    `json:"actor"`
	Verb    string    `json:"verb"`
	Subject NodeRef   `json:"subject"`
	Detail  string    `json:"detail,omitempty"`
	At      time.Time `json:"at,omitzero"`
}
