// AngelaMos | 2026
// dto.go

package team

import (
	"time"
)

type CreateTeamRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type UpdateTeamRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type PersonResponse struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

type TeamResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	MemberCount  int       `json:"member_count"`
	ManagerCount int       `json:"manager_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type TeamDetailResponse struct {
	TeamResponse
	Managers []PersonResponse `json:"managers"`
	Members  []PersonResponse `json:"members"`
}

func ToTeamResponse(t *Team) TeamResponse {
	return TeamResponse{
		ID:           t.ID,
		Name:         t.Name,
		MemberCount:  t.MemberCount,
		ManagerCount: t.ManagerCount,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func ToTeamResponseList(teams []Team) []TeamResponse {
	out := make([]TeamResponse, 0, len(teams))
	for i := range teams {
		out = append(out, ToTeamResponse(&teams[i]))
	}
	return out
}

func toPeople(people []Person) []PersonResponse {
	out := make([]PersonResponse, 0, len(people))
	for _, p := range people {
		out = append(out, PersonResponse{
			ID:       p.UserID,
			FullName: p.FullName,
			Role:     string(p.Role),
			IsActive: p.IsActive,
		})
	}
	return out
}
