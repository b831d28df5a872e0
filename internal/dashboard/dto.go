// AngelaMos | 2026
// dto.go

package dashboard

import (
	"time"

	"github.com/carterperez-dev/crm-backend/internal/lead"
	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

// Summary carries exactly one of the role sections.
type Summary struct {
	Role        visibility.Role  `json:"role"`
	GeneratedAt time.Time        `json:"generated_at"`
	Admin       *AdminSummary    `json:"admin,omitempty"`
	Manager     *ManagerSummary  `json:"manager,omitempty"`
	SalesRep    *SalesRepSummary `json:"sales_rep,omitempty"`
}

type AdminSummary struct {
	TotalLeads  int                 `json:"total_leads"`
	OwnedBySelf int                 `json:"owned_by_self"`
	NewLeads    int                 `json:"new_leads"`
	Unassigned  int                 `json:"unassigned"`
	ByStatus    []Bucket            `json:"by_status"`
	BySource    []Bucket            `json:"by_source"`
	Recent      []lead.LeadResponse `json:"recent"`
}

type ManagerSummary struct {
	TeamIDs      []int64             `json:"team_ids"`
	SelfPipeline int                 `json:"self_pipeline"`
	TeamPipeline int                 `json:"team_pipeline"`
	NewLeads     int                 `json:"new_leads"`
	Members      []MemberCount       `json:"members"`
	ByStatus     []Bucket            `json:"by_status"`
	BySource     []Bucket            `json:"by_source"`
	Recent       []lead.LeadResponse `json:"recent"`
}

type SalesRepSummary struct {
	PipelineTotal    int                 `json:"pipeline_total"`
	NewLeads         int                 `json:"new_leads"`
	Inbox            int                 `json:"inbox"`
	AverageAgeDays   float64             `json:"average_age_days"`
	ByStatus         []Bucket            `json:"by_status"`
	BySource         []Bucket            `json:"by_source"`
	RecentlyAssigned []lead.LeadResponse `json:"recently_assigned"`
	RecentlyUpdated  []lead.LeadResponse `json:"recently_updated"`
	Intake           []DayCount          `json:"intake"`
}
