// AngelaMos | 2026
// dto.go

package lead

import (
	"time"
)

type CreateLeadRequest struct {
	Name     *string  `json:"name"      validate:"omitempty,max=200"`
	Company  *string  `json:"company"   validate:"omitempty,max=200"`
	Email    *string  `json:"email"     validate:"omitempty,email,max=255"`
	Phone    *string  `json:"phone"     validate:"omitempty,max=50"`
	Country  *string  `json:"country"   validate:"omitempty,max=100"`
	StatusID int64    `json:"status_id" validate:"required,gt=0"`
	SourceID *int64   `json:"source_id" validate:"omitempty,gt=0"`
	Value    *float64 `json:"value"     validate:"omitempty,gte=0"`
	Notes    string   `json:"notes"     validate:"max=5000"`
}

func (r CreateLeadRequest) Fields() Fields {
	return Fields{
		Name:     r.Name,
		Company:  r.Company,
		Email:    r.Email,
		Phone:    r.Phone,
		Country:  r.Country,
		StatusID: &r.StatusID,
		SourceID: r.SourceID,
		Value:    roundValuePtr(r.Value),
	}
}

type UpdateLeadRequest struct {
	Name     *string  `json:"name"      validate:"omitempty,max=200"`
	Company  *string  `json:"company"   validate:"omitempty,max=200"`
	Email    *string  `json:"email"     validate:"omitempty,email,max=255"`
	Phone    *string  `json:"phone"     validate:"omitempty,max=50"`
	Country  *string  `json:"country"   validate:"omitempty,max=100"`
	StatusID *int64   `json:"status_id" validate:"omitempty,gt=0"`
	SourceID *int64   `json:"source_id" validate:"omitempty,gt=0"`
	Value    *float64 `json:"value"     validate:"omitempty,gte=0"`
	Notes    string   `json:"notes"     validate:"max=5000"`
}

func (r UpdateLeadRequest) Fields() Fields {
	return Fields{
		Name:     r.Name,
		Company:  r.Company,
		Email:    r.Email,
		Phone:    r.Phone,
		Country:  r.Country,
		StatusID: r.StatusID,
		SourceID: r.SourceID,
		Value:    roundValuePtr(r.Value),
	}
}

type CreateNoteRequest struct {
	Body string `json:"body" validate:"required,min=1,max=5000"`
}

type OptionRef struct {
	ID    int64  `json:"id"`
	Value string `json:"value"`
	Label string `json:"label"`
}

type AssigneeRef struct {
	ID         int64      `json:"id"`
	FullName   string     `json:"full_name"`
	AssignedAt *time.Time `json:"assigned_at,omitempty"`
}

type LeadResponse struct {
	ID        int64        `json:"id"`
	Name      *string      `json:"name"`
	Company   *string      `json:"company"`
	Email     *string      `json:"email"`
	Phone     *string      `json:"phone"`
	Country   *string      `json:"country"`
	Status    OptionRef    `json:"status"`
	Source    *OptionRef   `json:"source"`
	Value     float64      `json:"value"`
	Assignee  *AssigneeRef `json:"assignee"`
	CreatedBy *int64       `json:"created_by"`
	UpdatedBy *int64       `json:"updated_by"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type NoteResponse struct {
	ID         int64     `json:"id"`
	LeadID     int64     `json:"lead_id"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `json:"author_name,omitempty"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

func ToLeadResponse(e *Enriched) LeadResponse {
	resp := LeadResponse{
		ID:        e.ID,
		Name:      e.Name,
		Company:   e.Company,
		Email:     e.Email,
		Phone:     e.Phone,
		Country:   e.Country,
		Status:    OptionRef{ID: e.StatusID, Value: e.StatusValue, Label: e.StatusLabel},
		Value:     RoundValue(e.Value),
		CreatedBy: e.CreatedBy,
		UpdatedBy: e.UpdatedBy,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}

	if e.SourceID != nil {
		resp.Source = &OptionRef{ID: *e.SourceID}
		if e.SourceValue != nil {
			resp.Source.Value = *e.SourceValue
		}
		if e.SourceLabel != nil {
			resp.Source.Label = *e.SourceLabel
		}
	}

	if e.AssigneeID != nil {
		resp.Assignee = &AssigneeRef{ID: *e.AssigneeID, AssignedAt: e.AssignedAt}
		if e.AssigneeName != nil {
			resp.Assignee.FullName = *e.AssigneeName
		}
	}

	return resp
}

func ToLeadResponseList(leads []Enriched) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for i := range leads {
		out = append(out, ToLeadResponse(&leads[i]))
	}
	return out
}

func ToNoteResponseList(notes []Note) []NoteResponse {
	out := make([]NoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, NoteResponse{
			ID:         n.ID,
			LeadID:     n.LeadID,
			AuthorID:   n.AuthorID,
			AuthorName: n.AuthorName,
			Body:       n.Body,
			CreatedAt:  n.CreatedAt,
		})
	}
	return out
}
