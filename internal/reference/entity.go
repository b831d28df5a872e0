// AngelaMos | 2026
// entity.go

package reference

import (
	"strings"
	"time"
	"unicode"
)

// Kind names one of the lead lookup tables.
type Kind struct {
	Resource string
	Table    string
	// LeadColumn is the column on leads that references this table.
	LeadColumn string
}

var (
	Statuses = Kind{Resource: "status", Table: "lead_statuses", LeadColumn: "status_id"}
	Sources  = Kind{Resource: "source", Table: "lead_sources", LeadColumn: "source_id"}
)

type Option struct {
	ID        int64     `db:"id"`
	Value     string    `db:"value"`
	Label     string    `db:"label"`
	CreatedAt time.Time `db:"created_at"`
}

// Slugify derives the machine value from a display label:
// "Follow Up" becomes "follow_up".
func Slugify(label string) string {
	var b strings.Builder
	pendingSep := false

	for _, r := range strings.ToLower(strings.TrimSpace(label)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}

	return b.String()
}
