package domain

import "github.com/shopspring/decimal"

// Version types.
const (
	VersionCurrent    = "current"
	VersionWhatIf     = "what_if"
	VersionHistorical = "historical"
	VersionImport     = "import"
)

// Forecast statuses.
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusLocked    = "locked"
)

// History change types.
const (
	ChangeCreated          = "created"
	ChangeHoursUpdated     = "hours_updated"
	ChangeStatusChanged    = "status_changed"
	ChangeOverride         = "override"
	ChangeSubmitted        = "submitted"
	ChangeApproved         = "approved"
	ChangeRejected         = "rejected"
	ChangeLocked           = "locked"
	ChangeVersionCreated   = "version_created"
	ChangeVersionPromoted  = "version_promoted"
	ChangeVersionDeleted   = "version_deleted"
)

type ForecastVersion struct {
	ID               string  `json:"id"`
	TenantID         string  `json:"tenant_id"`
	ProjectID        *string `json:"project_id,omitempty"`
	UserID           *string `json:"user_id,omitempty"`
	Name             string  `json:"name"`
	Description      string  `json:"description,omitempty"`
	Type             string  `json:"type" enum:"current,what_if,historical,import"`
	VersionNumber    int     `json:"version_number"`
	IsCurrent        bool    `json:"is_current"`
	BasedOnVersionID *string `json:"based_on_version_id,omitempty"`
	PeriodStart      *string `json:"period_start,omitempty" format:"date"`
	PeriodEnd        *string `json:"period_end,omitempty" format:"date"`
	CreatedBy        string  `json:"created_by"`
	CreatedAt        string  `json:"created_at" format:"date-time"`
	UpdatedAt        string  `json:"updated_at" format:"date-time"`
	PromotedAt       *string `json:"promoted_at,omitempty" format:"date-time"`
	ArchivedAt       *string `json:"archived_at,omitempty" format:"date-time"`
	ArchiveReason    string  `json:"archive_reason,omitempty"`
}

type Forecast struct {
	ID                      string           `json:"id"`
	TenantID                string           `json:"tenant_id"`
	VersionID               string           `json:"version_id"`
	AssignmentID            string           `json:"assignment_id"`
	ProjectID               *string          `json:"project_id,omitempty"`
	PersonID                *string          `json:"person_id,omitempty"`
	Year                    int              `json:"year"`
	Month                   int              `json:"month"`
	Week                    *int             `json:"week,omitempty"`
	ForecastedHours         decimal.Decimal  `json:"forecasted_hours"`
	OriginalForecastedHours *decimal.Decimal `json:"original_forecasted_hours,omitempty"`
	OverriddenAt            *string          `json:"overridden_at,omitempty" format:"date-time"`
	OverrideReason          *string          `json:"override_reason,omitempty"`
	Status                  string           `json:"status" enum:"draft,submitted,approved,rejected,locked"`
	Notes                   string           `json:"notes,omitempty"`
	RowVersion              int64            `json:"row_version"`
	CreatedBy               string           `json:"created_by"`
	CreatedAt               string           `json:"created_at" format:"date-time"`
	UpdatedAt               string           `json:"updated_at" format:"date-time"`
	SubmittedAt             *string          `json:"submitted_at,omitempty" format:"date-time"`
	SubmittedBy             *string          `json:"submitted_by,omitempty"`
	ApprovedAt              *string          `json:"approved_at,omitempty" format:"date-time"`
	ApprovedBy              *string          `json:"approved_by,omitempty"`
	LockedAt                *string          `json:"locked_at,omitempty" format:"date-time"`
}

// Overridden reports whether the record carries an out-of-band hours change.
func (f *Forecast) Overridden() bool {
	return f.OriginalForecastedHours != nil
}

type ForecastHistoryItem struct {
	ID             string           `json:"id"`
	TenantID       string           `json:"tenant_id"`
	ForecastID     *string          `json:"forecast_id,omitempty"`
	VersionID      *string          `json:"version_id,omitempty"`
	ChangeType     string           `json:"change_type"`
	PreviousHours  *decimal.Decimal `json:"previous_hours,omitempty"`
	NewHours       *decimal.Decimal `json:"new_hours,omitempty"`
	PreviousStatus *string          `json:"previous_status,omitempty"`
	NewStatus      *string          `json:"new_status,omitempty"`
	Comment        string           `json:"comment,omitempty"`
	ChangedBy      string           `json:"changed_by"`
	ChangedAt      string           `json:"changed_at" format:"date-time"`
}

type ForecastSummary struct {
	TotalCount     int             `json:"total_count"`
	DraftCount     int             `json:"draft_count"`
	SubmittedCount int             `json:"submitted_count"`
	ApprovedCount  int             `json:"approved_count"`
	RejectedCount  int             `json:"rejected_count"`
	LockedCount    int             `json:"locked_count"`
	OverrideCount  int             `json:"override_count"`
	TotalHours     decimal.Decimal `json:"total_hours"`
	DraftHours     decimal.Decimal `json:"draft_hours"`
	SubmittedHours decimal.Decimal `json:"submitted_hours"`
	ApprovedHours  decimal.Decimal `json:"approved_hours"`
}

type BulkResult struct {
	TotalRequested int      `json:"total_requested"`
	CreatedCount   int      `json:"created_count"`
	UpdatedCount   int      `json:"updated_count"`
	SkippedCount   int      `json:"skipped_count"`
	FailedCount    int      `json:"failed_count"`
	Errors         []string `json:"errors,omitempty"`
}

type BulkApprovalResult struct {
	TotalRequested int      `json:"total_requested"`
	ApprovedCount  int      `json:"approved_count"`
	SkippedCount   int      `json:"skipped_count"`
	FailedCount    int      `json:"failed_count"`
	Errors         []string `json:"errors,omitempty"`
}

type LockMonthResult struct {
	Year           int `json:"year"`
	Month          int `json:"month"`
	TotalForecasts int `json:"total_forecasts"`
	LockedCount    int `json:"locked_count"`
}

type ComparisonItem struct {
	AssignmentID    string           `json:"assignment_id"`
	Year            int              `json:"year"`
	Month           int              `json:"month"`
	BaseHours       *decimal.Decimal `json:"base_hours,omitempty"`
	OtherHours      *decimal.Decimal `json:"other_hours,omitempty"`
	BaseStatus      *string          `json:"base_status,omitempty"`
	OtherStatus     *string          `json:"other_status,omitempty"`
	HoursDifference decimal.Decimal  `json:"hours_difference"`
	IsNew           bool             `json:"is_new"`
	IsRemoved       bool             `json:"is_removed"`
	IsChanged       bool             `json:"is_changed"`
}

type ComparisonSummary struct {
	TotalItems      int             `json:"total_items"`
	NewCount        int             `json:"new_count"`
	RemovedCount    int             `json:"removed_count"`
	ChangedCount    int             `json:"changed_count"`
	UnchangedCount  int             `json:"unchanged_count"`
	BaseTotalHours  decimal.Decimal `json:"base_total_hours"`
	OtherTotalHours decimal.Decimal `json:"other_total_hours"`
	TotalDifference decimal.Decimal `json:"total_difference"`
	PercentChange   decimal.Decimal `json:"percent_change"`
}

type VersionComparison struct {
	BaseVersionID  string            `json:"base_version_id"`
	OtherVersionID string            `json:"other_version_id"`
	Items          []ComparisonItem  `json:"items"`
	Summary        ComparisonSummary `json:"summary"`
}

type Actor struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
