// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/crm-backend/internal/core"
)

type Counter interface {
	Count(ctx context.Context) (int, error)
}

type RoleCounter interface {
	CountByRole(ctx context.Context) (map[string]int, error)
}

type SessionPruner interface {
	PruneExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}

type Handler struct {
	dbStats    func() sql.DBStats
	redisStats func() *redis.PoolStats
	redisPing  func(ctx context.Context) error
	dbPing     func(ctx context.Context) error

	leads       Counter
	assignments Counter
	teams       Counter
	users       RoleCounter
	sessions    SessionPruner
}

type HandlerConfig struct {
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	RedisPing  func(ctx context.Context) error
	DBPing     func(ctx context.Context) error

	Leads       Counter
	Assignments Counter
	Teams       Counter
	Users       RoleCounter
	Sessions    SessionPruner
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		dbStats:     cfg.DBStats,
		redisStats:  cfg.RedisStats,
		redisPing:   cfg.RedisPing,
		dbPing:      cfg.DBPing,
		leads:       cfg.Leads,
		assignments: cfg.Assignments,
		teams:       cfg.Teams,
		users:       cfg.Users,
		sessions:    cfg.Sessions,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/stats", h.GetSystemStats)
		r.Get("/stats/crm", h.GetCRMStats)
		r.Get("/stats/db", h.GetDatabaseStats)
		r.Get("/stats/redis", h.GetRedisStats)
		r.Get("/stats/runtime", h.GetRuntimeStats)
		r.Post("/sessions/prune", h.PruneSessions)
	})
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	crm, err := h.crmStats(ctx)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, SystemStatsResponse{
		Database: h.databaseStatus(ctx),
		Redis:    h.redisStatus(ctx),
		Runtime:  runtimeStats(),
		CRM:      crm,
	})
}

func (h *Handler) GetCRMStats(w http.ResponseWriter, r *http.Request) {
	crm, err := h.crmStats(r.Context())
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, crm)
}

func (h *Handler) GetDatabaseStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.databaseStatus(r.Context()))
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.redisStatus(r.Context()))
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, runtimeStats())
}

// PruneSessions removes refresh tokens that expired more than
// older_than ago (a Go duration, default 24h).
func (h *Handler) PruneSessions(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		core.OK(w, PruneResponse{})
		return
	}

	olderThan := 24 * time.Hour
	if raw := r.URL.Query().Get("older_than"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			core.BadRequest(w, "older_than must be a positive duration")
			return
		}
		olderThan = d
	}

	n, err := h.sessions.PruneExpired(r.Context(), olderThan)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, PruneResponse{Removed: n})
}

func (h *Handler) crmStats(ctx context.Context) (*CRMStats, error) {
	var stats CRMStats

	g, ctx := errgroup.WithContext(ctx)
	countInto(ctx, g, h.leads, &stats.Leads)
	countInto(ctx, g, h.assignments, &stats.Assignments)
	countInto(ctx, g, h.teams, &stats.Teams)

	if h.users != nil {
		g.Go(func() error {
			byRole, err := h.users.CountByRole(ctx)
			if err != nil {
				return err
			}
			stats.UsersByRole = byRole
			for _, n := range byRole {
				stats.Users += n
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &stats, nil
}

func countInto(ctx context.Context, g *errgroup.Group, c Counter, dst *int) {
	if c == nil {
		return
	}
	g.Go(func() error {
		n, err := c.Count(ctx)
		*dst = n
		return err
	})
}

func ping(ctx context.Context, fn func(ctx context.Context) error) bool {
	if fn == nil {
		return true
	}
	return fn(ctx) == nil
}

var startedAt = time.Now()

func runtimeStats() RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return RuntimeStats{
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
		CPUs:       runtime.NumCPU(),
		HeapBytes:  mem.HeapAlloc,
		SysBytes:   mem.Sys,
		GCRuns:     mem.NumGC,
		Uptime:     time.Since(startedAt).Round(time.Second).String(),
	}
}

func (h *Handler) databaseStatus(ctx context.Context) DependencyStatus {
	status := DependencyStatus{Healthy: ping(ctx, h.dbPing)}
	if h.dbStats != nil {
		st := h.dbStats()
		status.Pool = &PoolStats{
			Open:     st.OpenConnections,
			InUse:    st.InUse,
			Idle:     st.Idle,
			Waits:    st.WaitCount,
			WaitTime: st.WaitDuration.String(),
		}
	}
	return status
}

func (h *Handler) redisStatus(ctx context.Context) DependencyStatus {
	status := DependencyStatus{Healthy: ping(ctx, h.redisPing)}
	if h.redisStats != nil {
		st := h.redisStats()
		status.Pool = &PoolStats{
			Open:     int(st.TotalConns),
			InUse:    max(int(st.TotalConns)-int(st.IdleConns), 0),
			Idle:     int(st.IdleConns),
			Waits:    int64(st.Misses),
			Timeouts: int64(st.Timeouts),
		}
	}
	return status
}
