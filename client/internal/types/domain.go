package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ------------------------------
// Core Domain Entities
// ------------------------------

// Tier classifies a memory by priority and scope.
type Tier int

const (
	TierPinned       Tier = 0 // highest priority, never evicted
	TierSession      Tier = 1 // conversation scoped
	TierSemantic     Tier = 2 // long-term searchable
	TierOrganization Tier = 3 // shared scope
)

// Label returns the display name of the tier. Unknown tiers render as "Tier N".
func (t Tier) Label() string {
	switch t {
	case TierPinned:
		return "Pinned"
	case TierSession:
		return "Session"
	case TierSemantic:
		return "Semantic"
	case TierOrganization:
		return "Organization"
	default:
		return fmt.Sprintf("Tier %d", int(t))
	}
}

// Memory represents a stored memory. Tier is nil when the server omitted it;
// CreatedAt is zero when it was absent or unreadable.
type Memory struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Tier      *Tier     `json:"tier,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt Timestamp `json:"created_at,omitzero"`
	Score     *float64  `json:"score,omitempty"`
}

// TierOr returns the memory tier, or def when the server did not send one.
func (m Memory) TierOr(def Tier) Tier {
	if m.Tier == nil {
		return def
	}
	return *m.Tier
}

// TierPtr is a convenience for building requests and fixtures.
func TierPtr(t Tier) *Tier { return &t }

// Timestamp is a created_at value. It decodes any ISO-8601 form the API
// emits; a value it cannot read decodes as zero instead of failing the
// surrounding payload.
type Timestamp struct {
	time.Time
}

// Offset-less date-times are local time; date-only values are UTC.
var (
	zonedLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999Z0700"}
	localLayouts = []string{"2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999", "2006-01-02T15:04"}
)

// ParseTimestamp parses s, reporting ok=false when no form matches.
func ParseTimestamp(s string) (Timestamp, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, false
	}
	for _, l := range zonedLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return Timestamp{t}, true
		}
	}
	for _, l := range localLayouts {
		if t, err := time.ParseInLocation(l, s, time.Local); err == nil {
			return Timestamp{t}, true
		}
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return Timestamp{t}, true
	}
	return Timestamp{}, false
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// null, numbers and other shapes read as absent
		*ts = Timestamp{}
		return nil
	}
	*ts, _ = ParseTimestamp(s)
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Format(time.RFC3339Nano))
}
