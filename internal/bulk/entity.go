// AngelaMos | 2026
// entity.go

package bulk

// Operation names a bulk operation in logs and metrics.
type Operation string

const (
	OpAssign Operation = "assign"
	OpDelete Operation = "delete"
	OpStatus Operation = "status"
	OpSource Operation = "source"
)

// Reason explains why a requested lead was left untouched.
type Reason string

const (
	ReasonAlreadyAssigned Reason = "already_assigned_to_target"
	ReasonAssignedToOther Reason = "assigned_to_other"
	ReasonOutOfScope      Reason = "out_of_scope"
)

type Skip struct {
	LeadID int64  `json:"lead_id"`
	Reason Reason `json:"reason"`
}

// AssignResult partitions the requested ids. Every requested id lands in
// exactly one of Updated (counted), Skipped or Missing.
type AssignResult struct {
	Requested int     `json:"requested"`
	Updated   int     `json:"updated"`
	Skipped   []Skip  `json:"skipped"`
	Missing   []int64 `json:"missing"`
}

type DeleteResult struct {
	Requested int     `json:"requested"`
	Deleted   int     `json:"deleted"`
	Skipped   []Skip  `json:"skipped"`
	Missing   []int64 `json:"missing"`
}

// UpdateResult reports a field change. Matched leads already holding the
// new value are matched but not updated.
type UpdateResult struct {
	Requested int     `json:"requested"`
	Matched   int     `json:"matched"`
	Updated   int     `json:"updated"`
	Skipped   []Skip  `json:"skipped"`
	Missing   []int64 `json:"missing"`
}
