package api

import (
	"time"

	"incidentcore/internal/incidents"
)

// IncidentResponse is the wire representation of one incident.
type IncidentResponse struct {
	ID           int64            `json:"id"`
	Status       incidents.Status `json:"status"`
	Source       incidents.Source `json:"source"`
	Description  string           `json:"description"`
	CreatingDate time.Time        `json:"creating_date"`
}

func toResponse(incident *incidents.Incident) IncidentResponse {
	return IncidentResponse{
		ID:           incident.ID,
		Status:       incident.Status,
		Source:       incident.Source,
		Description:  incident.Description,
		CreatingDate: incident.CreatingDate,
	}
}

// CreateRequest is the payload for creating an incident.
type CreateRequest struct {
	Status      incidents.Status `json:"status"`
	Source      incidents.Source `json:"source"`
	Description string           `json:"description"`
}

// UpdateRequest is the partial-update payload; omitted fields are left
// unchanged.
type UpdateRequest struct {
	Status      *incidents.Status `json:"status,omitempty"`
	Source      *incidents.Source `json:"source,omitempty"`
	Description *string           `json:"description,omitempty"`
}

// ListResponse is the paginated incident listing.
type ListResponse struct {
	Incidents []IncidentResponse `json:"incidents"`
}

// DeleteResponse acknowledges a deletion.
type DeleteResponse struct {
	ID      int64 `json:"id"`
	Deleted bool  `json:"deleted"`
}

// ErrorResponse carries a protocol-level error detail.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	UptimeSec int64  `json:"uptime_sec"`
}
