// AngelaMos | 2026
// dto.go

package ledger

import (
	"time"
)

type AssignRequest struct {
	AssigneeID int64 `json:"assignee_id" validate:"required,gt=0"`
}

type AssignmentResponse struct {
	ID             int64     `json:"id"`
	LeadID         int64     `json:"lead_id"`
	AssigneeID     int64     `json:"assignee_id"`
	AssigneeName   string    `json:"assignee_name,omitempty"`
	AssignedBy     int64     `json:"assigned_by"`
	AssignedByName string    `json:"assigned_by_name,omitempty"`
	AssignedAt     time.Time `json:"assigned_at"`
}

func ToAssignmentResponse(a *Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:         a.ID,
		LeadID:     a.LeadID,
		AssigneeID: a.AssigneeID,
		AssignedBy: a.AssignedBy,
		AssignedAt: a.AssignedAt,
	}
}

func ToHistoryResponse(entries []HistoryEntry) []AssignmentResponse {
	out := make([]AssignmentResponse, 0, len(entries))
	for i := range entries {
		resp := ToAssignmentResponse(&entries[i].Assignment)
		resp.AssigneeName = entries[i].AssigneeName
		resp.AssignedByName = entries[i].AssignedByName
		out = append(out, resp)
	}
	return out
}
