// AngelaMos | 2026
// dto.go

package bulk

// MaxLeadIDs caps a single bulk request.
const MaxLeadIDs = 10000

type AssignRequest struct {
	LeadIDs    []int64 `json:"lead_ids"    validate:"required,min=1,max=10000,dive,gt=0"`
	AssigneeID int64   `json:"assignee_id" validate:"required,gt=0"`
	Overwrite  bool    `json:"overwrite"`
}

type DeleteRequest struct {
	LeadIDs []int64 `json:"lead_ids" validate:"required,min=1,max=10000,dive,gt=0"`
}

type StatusRequest struct {
	LeadIDs  []int64 `json:"lead_ids"  validate:"required,min=1,max=10000,dive,gt=0"`
	StatusID int64   `json:"status_id" validate:"required,gt=0"`
}

type SourceRequest struct {
	LeadIDs  []int64 `json:"lead_ids"  validate:"required,min=1,max=10000,dive,gt=0"`
	SourceID int64   `json:"source_id" validate:"required,gt=0"`
}
