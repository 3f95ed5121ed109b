package request

import (
	"strings"

	"homequote/internal/usecase"
)

// CreateServiceRequestRequest is the payload a client posts to open a job.
// The client id comes from the bearer token, never from the body.
type CreateServiceRequestRequest struct {
	Category        string `json:"category" binding:"required"`
	Description     string `json:"description" binding:"required"`
	Location        string `json:"location" binding:"required"`
	DesiredDeadline string `json:"desired_deadline"`
	AdditionalInfo  string `json:"additional_info"`
}

func (r CreateServiceRequestRequest) ToInput(clientID string) usecase.CreateServiceRequestInput {
	return usecase.CreateServiceRequestInput{
		ClientID:        clientID,
		Category:        r.Category,
		Description:     r.Description,
		Location:        r.Location,
		DesiredDeadline: r.DesiredDeadline,
		AdditionalInfo:  r.AdditionalInfo,
	}
}

// ParseCategories accepts repeated ?category= values as well as a
// comma separated list in a single value.
func ParseCategories(values []string) []string {
	var out []string
	for _, v := range values {
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				out = append(out, c)
			}
		}
	}
	return out
}
