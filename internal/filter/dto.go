// AngelaMos | 2026
// dto.go

package filter

import (
	"encoding/json"
	"time"
)

type CreateFilterRequest struct {
	Name       string     `json:"name"       validate:"required,min=1,max=100"`
	IsShared   bool       `json:"is_shared"`
	Definition Definition `json:"definition"`
}

type UpdateFilterRequest struct {
	Name       *string     `json:"name"       validate:"omitempty,min=1,max=100"`
	IsShared   *bool       `json:"is_shared"`
	Definition *Definition `json:"definition"`
}

type FilterResponse struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user_id"`
	OwnerName  string          `json:"owner_name,omitempty"`
	Name       string          `json:"name"`
	IsShared   bool            `json:"is_shared"`
	Definition json.RawMessage `json:"definition"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func ToFilterResponse(f *SavedFilter) FilterResponse {
	def := json.RawMessage(f.Definition)
	if len(def) == 0 {
		def = json.RawMessage("{}")
	}
	return FilterResponse{
		ID:         f.ID,
		UserID:     f.UserID,
		OwnerName:  f.OwnerName,
		Name:       f.Name,
		IsShared:   f.IsShared,
		Definition: def,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

func ToFilterResponseList(filters []SavedFilter) []FilterResponse {
	out := make([]FilterResponse, 0, len(filters))
	for i := range filters {
		out = append(out, ToFilterResponse(&filters[i]))
	}
	return out
}
