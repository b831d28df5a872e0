// AngelaMos | 2026
// dto.go

package reference

type CreateOptionRequest struct {
	Label string `json:"label" validate:"required,min=1,max=100"`
}

type UpdateOptionRequest struct {
	Label string `json:"label" validate:"required,min=1,max=100"`
}

type OptionResponse struct {
	ID    int64  `json:"id"`
	Value string `json:"value"`
	Label string `json:"label"`
}

func ToOptionResponseList(options []Option) []OptionResponse {
	out := make([]OptionResponse, 0, len(options))
	for _, o := range options {
		out = append(out, OptionResponse{ID: o.ID, Value: o.Value, Label: o.Label})
	}
	return out
}
