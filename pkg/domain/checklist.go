package domain

// ChecklistKind names a checklist type gating a transition, e.g. "pink"
// review items before submission or "close" items before won/lost.
type ChecklistKind string

const (
	ChecklistPink  ChecklistKind = "pink"
	ChecklistClose ChecklistKind = "close"
)

// ChecklistItem is one review item attached to a subject entity.
type ChecklistItem struct {
	Kind ChecklistKind `json:"kind"`
	Name string        `json:"name,omitempty"`
	Done bool          `json:"done"`
}

// ChecklistComplete reports whether a fetched checklist satisfies its gate:
// at least one item exists and every item is done. An empty checklist is NOT
// complete, so a subject cannot bypass review by never having items.
func ChecklistComplete(items []ChecklistItem) bool {
	if len(items) == 0 {
		return false
	}
	for _, it := range items {
		if !it.Done {
			return false
		}
	}
	return true
}
