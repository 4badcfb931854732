package server

import "hourcast/internal/domain"

type CreateVersionRequest struct {
	Name             string  `json:"name" minLength:"1"`
	Description      string  `json:"description,omitempty"`
	Type             string  `json:"type,omitempty" enum:"current,what_if,historical,import"`
	ProjectID        *string `json:"project_id,omitempty"`
	UserID           *string `json:"user_id,omitempty"`
	BasedOnVersionID *string `json:"based_on_version_id,omitempty"`
	PeriodStart      *string `json:"period_start,omitempty" format:"date"`
	PeriodEnd        *string `json:"period_end,omitempty" format:"date"`
}

type UpdateVersionRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	PeriodStart *string `json:"period_start,omitempty" format:"date"`
	PeriodEnd   *string `json:"period_end,omitempty" format:"date"`
}

type CloneVersionRequest struct {
	Name          string `json:"name" minLength:"1"`
	Description   string `json:"description,omitempty"`
	Type          string `json:"type,omitempty" enum:"what_if,historical,import"`
	CopyForecasts *bool  `json:"copy_forecasts,omitempty"`
}

type ArchiveVersionRequest struct {
	Reason string `json:"reason,omitempty"`
}

type CreateForecastRequest struct {
	VersionID       string  `json:"version_id" minLength:"1"`
	AssignmentID    string  `json:"assignment_id" minLength:"1"`
	ProjectID       *string `json:"project_id,omitempty"`
	PersonID        *string `json:"person_id,omitempty"`
	Year            int     `json:"year" minimum:"2000" maximum:"2100"`
	Month           int     `json:"month" minimum:"1" maximum:"12"`
	Week            *int    `json:"week,omitempty" minimum:"1" maximum:"53"`
	ForecastedHours float64 `json:"forecasted_hours" minimum:"0"`
	Notes           string  `json:"notes,omitempty"`
}

type UpdateForecastRequest struct {
	ForecastedHours *float64 `json:"forecasted_hours,omitempty" minimum:"0"`
	Notes           *string  `json:"notes,omitempty"`
	RowVersion      int64    `json:"row_version,omitempty"`
}

type ApproveForecastRequest struct {
	Comment string `json:"comment,omitempty"`
}

type RejectForecastRequest struct {
	Comment string `json:"comment" minLength:"1"`
}

type OverrideForecastRequest struct {
	ForecastedHours float64 `json:"forecasted_hours" minimum:"0"`
	Comment         string  `json:"comment" minLength:"1"`
}

type BulkForecastItem struct {
	AssignmentID    string  `json:"assignment_id" minLength:"1"`
	ProjectID       *string `json:"project_id,omitempty"`
	PersonID        *string `json:"person_id,omitempty"`
	Year            int     `json:"year"`
	Month           int     `json:"month"`
	Week            *int    `json:"week,omitempty"`
	ForecastedHours float64 `json:"forecasted_hours"`
	Notes           string  `json:"notes,omitempty"`
}

type BulkCreateRequest struct {
	VersionID      string             `json:"version_id" minLength:"1"`
	Items          []BulkForecastItem `json:"items"`
	UpdateExisting bool               `json:"update_existing,omitempty"`
}

type BulkApproveRequest struct {
	ForecastIDs []string `json:"forecast_ids"`
	Comment     string   `json:"comment,omitempty"`
}

type LockMonthRequest struct {
	VersionID string `json:"version_id,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
	Year      int    `json:"year" minimum:"2000" maximum:"2100"`
	Month     int    `json:"month" minimum:"1" maximum:"12"`
	Reason    string `json:"reason,omitempty"`
}

type paginatedVersions struct {
	Items      []domain.ForecastVersion `json:"items"`
	NextCursor string                   `json:"next_cursor,omitempty"`
}

type paginatedForecasts struct {
	Items      []domain.Forecast `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}
