package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"hourcast/internal/domain"
	"hourcast/internal/repo"
)

// Writer appends forecast history rows inside the caller's transaction.
// One row per successful mutation; failed transactions roll the row back
// together with the rest of the write.
type Writer struct {
	Repo repo.Repo
	Now  func() time.Time
}

// Change carries the optional before/after fields of a history row.
type Change struct {
	ForecastID     *string
	VersionID      *string
	PreviousHours  *decimal.Decimal
	NewHours       *decimal.Decimal
	PreviousStatus *string
	NewStatus      *string
	Comment        string
}

func (w Writer) Append(ctx context.Context, tx *sql.Tx, tenantID, changeType, actorID string, c Change) error {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	item := domain.ForecastHistoryItem{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		ForecastID:     c.ForecastID,
		VersionID:      c.VersionID,
		ChangeType:     changeType,
		PreviousHours:  c.PreviousHours,
		NewHours:       c.NewHours,
		PreviousStatus: c.PreviousStatus,
		NewStatus:      c.NewStatus,
		Comment:        c.Comment,
		ChangedBy:      actorID,
		ChangedAt:      now().UTC().Format(time.RFC3339),
	}
	return w.Repo.InsertHistoryTx(ctx, tx, item)
}
