// AngelaMos | 2026
// fragments.go

package query

// Every read of "who owns a lead now" goes through these fragments so
// listing, counting, dashboards and bulk operations agree on the
// definition: the ledger row with the highest id for the lead.
const (
	// LatestAssignmentIDs selects the current ledger row id of every lead.
	LatestAssignmentIDs = `SELECT MAX(id) FROM lead_assignments GROUP BY lead_id`

	// LatestAssignmentJoin attaches the current ledger row as alias "la".
	// It joins at most one row per lead; leads with no ledger row keep
	// NULL la columns.
	LatestAssignmentJoin = `LEFT JOIN lead_assignments la
			ON la.lead_id = l.id
			AND la.id IN (` + LatestAssignmentIDs + `)`

	// LeadFrom is the enriched lead source used by list and dashboard reads.
	LeadFrom = `FROM leads l
		JOIN lead_statuses st ON st.id = l.status_id
		LEFT JOIN lead_sources so ON so.id = l.source_id
		` + LatestAssignmentJoin + `
		LEFT JOIN users au ON au.id = la.assignee_id`

	// LeadColumns matches the db tags of lead.Lead.
	LeadColumns = `l.id, l.name, l.company, l.email, l.phone, l.country,
		l.status_id, l.source_id, l.value, l.created_by, l.updated_by,
		l.created_at, l.updated_at,
		st.value AS status_value, st.label AS status_label,
		so.value AS source_value, so.label AS source_label,
		la.assignee_id AS assignee_id, la.assigned_at AS assigned_at,
		au.full_name AS assignee_name`

	// AssigneeColumn is the current-owner column exposed by LatestAssignmentJoin.
	AssigneeColumn = "la.assignee_id"

	// DistinctLeadCount counts leads, never ledger rows.
	DistinctLeadCount = "COUNT(DISTINCT l.id)"
)
