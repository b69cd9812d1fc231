package domain

import "time"

// ThrottleWindow names the sliding window an automation rule's firings are
// counted over. Windows are anchored at call time minus the duration.
type ThrottleWindow string

const (
	WindowHour ThrottleWindow = "hour"
	WindowDay  ThrottleWindow = "day"
)

// Duration returns the window length, or zero for an unknown window.
func (w ThrottleWindow) Duration() time.Duration {
	switch w {
	case WindowHour:
		return time.Hour
	case WindowDay:
		return 24 * time.Hour
	}
	return 0
}

// AutomationEvent is one inbound automation trigger. The dedupe key is
// caller-supplied and used to recognize and drop repeat submissions of the
// same logical event.
type AutomationEvent struct {
	Org        int64          `json:"org"`
	RuleID     int64          `json:"rule_id"`
	DedupeKey  string         `json:"dedupe_key"`
	Kind       string         `json:"kind"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at,omitzero"`
}
