package domain

import (
	"fmt"
	"time"
)

// RelationKind categorizes a dependency relationship between two work items.
type RelationKind string

const (
	RelationBlocks      RelationKind = "blocks"
	RelationFinishStart RelationKind = "finish_start"
	RelationRelates     RelationKind = "relates"
)

// Valid reports whether the relation kind is one of the known values.
func (k RelationKind) Valid() bool {
	switch k {
	case RelationBlocks, RelationFinishStart, RelationRelates:
		return true
	}
	return false
}

// NodeRef identifies one work item as an (entity type, entity id) pair.
type NodeRef struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}

func (n NodeRef) String() string {
	return fmt.Sprintf("%s/%d", n.Type, n.ID)
}

// DependencyEdge is a directed depends-on relationship between two work
// items. Edges are scoped to one organization and never cross it.
type DependencyEdge struct {
	Org      int64        `json:"org"`
	From     NodeRef      `json:"from"`
	To       NodeRef      `json:"to"`
	Relation RelationKind `json:"relation"`

	// LagDays shifts the scheduling offset between the two items. Zero for
	// plain blocking edges.
	LagDays int `json:"lag_days,omitempty"`

	CreatedAt time.Time `json:"created_at,omitzero"`
}
