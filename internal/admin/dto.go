// AngelaMos | 2026
// dto.go

package admin

type SystemStatsResponse struct {
	Database DependencyStatus `json:"database"`
	Redis    DependencyStatus `json:"redis"`
	Runtime  RuntimeStats     `json:"runtime"`
	CRM      *CRMStats        `json:"crm"`
}

// CRMStats are row totals. Assignments counts ledger rows, not leads.
type CRMStats struct {
	Leads       int            `json:"leads"`
	Assignments int            `json:"assignments"`
	Teams       int            `json:"teams"`
	Users       int            `json:"users"`
	UsersByRole map[string]int `json:"users_by_role"`
}

type PruneResponse struct {
	Removed int64 `json:"removed"`
}

// DependencyStatus reports one backing store. Pool is absent when the
// handler was built without a stats source.
type DependencyStatus struct {
	Healthy bool       `json:"healthy"`
	Pool    *PoolStats `json:"pool,omitempty"`
}

// PoolStats is the connection pool view shared by postgres and redis.
type PoolStats struct {
	Open     int    `json:"open"`
	InUse    int    `json:"in_use"`
	Idle     int    `json:"idle"`
	Waits    int64  `json:"waits"`
	Timeouts int64  `json:"timeouts"`
	WaitTime string `json:"wait_time,omitempty"`
}

type RuntimeStats struct {
	GoVersion  string `json:"go_version"`
	Goroutines int    `json:"goroutines"`
	CPUs       int    `json:"cpus"`
	HeapBytes  uint64 `json:"heap_bytes"`
	SysBytes   uint64 `json:"sys_bytes"`
	GCRuns     uint32 `json:"gc_runs"`
	Uptime     string `json:"uptime"`
}
