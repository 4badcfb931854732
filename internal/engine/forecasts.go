package engine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"hourcast/internal/domain"
	"hourcast/internal/history"
	"hourcast/internal/repo"
)

// ensureForecastTransition is the single authority on status edges.
// Rejected records return to draft by being edited; lock-month bypasses the
// table because it may lock any non-locked status.
func ensureForecastTransition(oldStatus, newStatus string) error {
	switch oldStatus {
	case domain.StatusDraft:
		if newStatus == domain.StatusSubmitted {
			return nil
		}
	case domain.StatusSubmitted:
		if newStatus == domain.StatusApproved || newStatus == domain.StatusRejected {
			return nil
		}
	case domain.StatusApproved:
		if newStatus == domain.StatusLocked {
			return nil
		}
	case domain.StatusRejected:
		if newStatus == domain.StatusDraft {
			return nil
		}
	}
	return invalidStatef("invalid forecast status transition %s -> %s", oldStatus, newStatus)
}

// ForecastCreateOptions are parameters for creating a forecast record.
type ForecastCreateOptions struct {
	TenantID     string
	VersionID    string
	AssignmentID string
	ProjectID    *string
	PersonID     *string
	Year         int
	Month        int
	Week         *int
	Hours        decimal.Decimal
	Notes        string
	ActorID      string
}

func (o ForecastCreateOptions) validate() error {
	if o.VersionID == "" {
		return validationf("version_id is required")
	}
	if o.AssignmentID == "" {
		return validationf("assignment_id is required")
	}
	if o.Year < 2000 || o.Year > 2100 {
		return validationf("year %d out of range", o.Year)
	}
	if o.Month < 1 || o.Month > 12 {
		return validationf("month %d out of range", o.Month)
	}
	if o.Week != nil && (*o.Week < 1 || *o.Week > 53) {
		return validationf("week %d out of range", *o.Week)
	}
	if o.Hours.IsNegative() {
		return validationf("forecasted hours cannot be negative")
	}
	return nil
}

func (e Engine) CreateForecast(ctx context.Context, opts ForecastCreateOptions) (domain.Forecast, error) {
	if err := opts.validate(); err != nil {
		return domain.Forecast{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Forecast{}, err
	}
	defer tx.Rollback()

	v, err := e.Repo.GetVersionTx(ctx, tx, opts.TenantID, opts.VersionID)
	if err != nil {
		return domain.Forecast{}, err
	}
	if v.ArchivedAt != nil {
		return domain.Forecast{}, invalidStatef("version %s is archived", v.ID)
	}
	now := e.nowRFC3339()
	f := domain.Forecast{
		ID:              uuid.NewString(),
		TenantID:        opts.TenantID,
		VersionID:       opts.VersionID,
		AssignmentID:    opts.AssignmentID,
		ProjectID:       opts.ProjectID,
		PersonID:        opts.PersonID,
		Year:            opts.Year,
		Month:           opts.Month,
		Week:            opts.Week,
		ForecastedHours: opts.Hours,
		Status:          domain.StatusDraft,
		Notes:           opts.Notes,
		RowVersion:      1,
		CreatedBy:       opts.ActorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := e.Repo.InsertForecastTx(ctx, tx, f); err != nil {
		return domain.Forecast{}, err
	}
	status := f.Status
	if err := e.history().Append(ctx, tx, f.TenantID, domain.ChangeCreated, opts.ActorID, history.Change{
		ForecastID: &f.ID,
		NewHours:   &f.ForecastedHours,
		NewStatus:  &status,
	}); err != nil {
		return domain.Forecast{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Forecast{}, err
	}
	e.Log.Info().Str("tenant", f.TenantID).Str("forecast", f.ID).Str("version", f.VersionID).Msg("forecast created")
	return f, nil
}

func (e Engine) GetForecast(ctx context.Context, tenantID, id string) (domain.Forecast, error) {
	return e.Repo.GetForecast(ctx, tenantID, id)
}

func (e Engine) ListForecasts(ctx context.Context, f repo.ForecastFilters) ([]domain.Forecast, error) {
	return e.Repo.ListForecasts(ctx, f)
}

// MyForecasts lists the records belonging to one person.
func (e Engine) MyForecasts(ctx context.Context, f repo.ForecastFilters, personID string) ([]domain.Forecast, error) {
	if personID == "" {
		return nil, validationf("person_id is required")
	}
	f.PersonID = personID
	return e.Repo.ListForecasts(ctx, f)
}

// ForecastUpdateOptions carries the mutable forecast fields; nil means keep.
// RowVersion 0 means "current", otherwise the update is rejected with a
// conflict when the stored row has moved on.
type ForecastUpdateOptions struct {
	TenantID   string
	ID         string
	Hours      *decimal.Decimal
	Notes      *string
	RowVersion int64
	ActorID    string
}

func (e Engine) UpdateForecast(ctx context.Context, opts ForecastUpdateOptions) (domain.Forecast, error) {
	if opts.Hours != nil && opts.Hours.IsNegative() {
		return domain.Forecast{}, validationf("forecasted hours cannot be negative")
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Forecast{}, err
	}
	defer tx.Rollback()

	f, err := e.Repo.GetForecastTx(ctx, tx, opts.TenantID, opts.ID)
	if err != nil {
		return domain.Forecast{}, err
	}
	switch f.Status {
	case domain.StatusApproved, domain.StatusLocked:
		return domain.Forecast{}, invalidStatef("forecast %s is %s; use override", f.ID, f.Status)
	}
	expected := f.RowVersion
	if opts.RowVersion != 0 {
		expected = opts.RowVersion
	}

	prevHours := f.ForecastedHours
	prevStatus := f.Status
	hoursChanged := false
	if opts.Hours != nil && !opts.Hours.Equal(f.ForecastedHours) {
		f.ForecastedHours = *opts.Hours
		hoursChanged = true
	}
	if opts.Notes != nil {
		f.Notes = *opts.Notes
	}
	// editing a rejected record puts it back in draft
	statusReset := false
	if f.Status == domain.StatusRejected {
		if err := ensureForecastTransition(f.Status, domain.StatusDraft); err != nil {
			return domain.Forecast{}, err
		}
		f.Status = domain.StatusDraft
		statusReset = true
	}
	f.UpdatedAt = e.nowRFC3339()

	n, err := e.Repo.UpdateForecastTx(ctx, tx, f, expected)
	if err != nil {
		return domain.Forecast{}, err
	}
	if n == 0 {
		return domain.Forecast{}, conflictf("forecast %s was modified concurrently", f.ID)
	}
	f.RowVersion = expected + 1

	if hoursChanged || statusReset {
		change := history.Change{
			ForecastID:    &f.ID,
			PreviousHours: &prevHours,
			NewHours:      &f.ForecastedHours,
		}
		if statusReset {
			newStatus := f.Status
			change.PreviousStatus = &prevStatus
			change.NewStatus = &newStatus
		}
		if err := e.history().Append(ctx, tx, f.TenantID, domain.ChangeHoursUpdated, opts.ActorID, change); err != nil {
			return domain.Forecast{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.Forecast{}, err
	}
	return f, nil
}

// DeleteForecast removes a draft record.
func (e Engine) DeleteForecast(ctx context.Context, tenantID, id, actorID string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	f, err := e.Repo.GetForecastTx(ctx, tx, tenantID, id)
	if err != nil {
		return err
	}
	if f.Status != domain.StatusDraft {
		return invalidStatef("only draft forecasts can be deleted, forecast %s is %s", f.ID, f.Status)
	}
	if err := e.Repo.DeleteForecastTx(ctx, tx, tenantID, id); err != nil {
		return err
	}
	return tx.Commit()
}

// transition moves a single forecast along the status table and writes the
// matching history row in the same transaction.
func (e Engine) transition(ctx context.Context, tenantID, id, newStatus, changeType, comment, actorID string) (domain.Forecast, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Forecast{}, err
	}
	defer tx.Rollback()

	f, err := e.transitionTx(ctx, tx, tenantID, id, newStatus, changeType, comment, actorID)
	if err != nil {
		return domain.Forecast{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Forecast{}, err
	}
	return f, nil
}

func (e Engine) transitionTx(ctx context.Context, tx *sql.Tx, tenantID, id, newStatus, changeType, comment, actorID string) (domain.Forecast, error) {
	f, err := e.Repo.GetForecastTx(ctx, tx, tenantID, id)
	if err != nil {
		return domain.Forecast{}, err
	}
	if err := ensureForecastTransition(f.Status, newStatus); err != nil {
		return domain.Forecast{}, err
	}
	prevStatus := f.Status
	expected := f.RowVersion
	now := e.nowRFC3339()
	f.Status = newStatus
	f.UpdatedAt = now
	switch newStatus {
	case domain.StatusSubmitted:
		f.SubmittedAt = &now
		f.SubmittedBy = &actorID
	case domain.StatusApproved:
		f.ApprovedAt = &now
		f.ApprovedBy = &actorID
	case domain.StatusLocked:
		f.LockedAt = &now
	}
	n, err := e.Repo.UpdateForecastTx(ctx, tx, f, expected)
	if err != nil {
		return domain.Forecast{}, err
	}
	if n == 0 {
		return domain.Forecast{}, conflictf("forecast %s was modified concurrently", f.ID)
	}
	f.RowVersion = expected + 1
	if err := e.history().Append(ctx, tx, tenantID, changeType, actorID, history.Change{
		ForecastID:     &f.ID,
		PreviousStatus: &prevStatus,
		NewStatus:      &f.Status,
		Comment:        comment,
	}); err != nil {
		return domain.Forecast{}, err
	}
	return f, nil
}

func (e Engine) SubmitForecast(ctx context.Context, tenantID, id, actorID string) (domain.Forecast, error) {
	f, err := e.transition(ctx, tenantID, id, domain.StatusSubmitted, domain.ChangeSubmitted, "", actorID)
	if err != nil {
		return f, err
	}
	e.Log.Info().Str("tenant", tenantID).Str("forecast", id).Msg("forecast submitted")
	return f, nil
}

func (e Engine) ApproveForecast(ctx context.Context, tenantID, id, comment, actorID string) (domain.Forecast, error) {
	f, err := e.transition(ctx, tenantID, id, domain.StatusApproved, domain.ChangeApproved, comment, actorID)
	if err != nil {
		return f, err
	}
	e.Log.Info().Str("tenant", tenantID).Str("forecast", id).Msg("forecast approved")
	return f, nil
}

func (e Engine) RejectForecast(ctx context.Context, tenantID, id, comment, actorID string) (domain.Forecast, error) {
	if comment == "" {
		return domain.Forecast{}, validationf("rejection requires a comment")
	}
	f, err := e.transition(ctx, tenantID, id, domain.StatusRejected, domain.ChangeRejected, comment, actorID)
	if err != nil {
		return f, err
	}
	e.Log.Info().Str("tenant", tenantID).Str("forecast", id).Msg("forecast rejected")
	return f, nil
}

// LockForecast moves an approved record to locked.
func (e Engine) LockForecast(ctx context.Context, tenantID, id, actorID string) (domain.Forecast, error) {
	return e.transition(ctx, tenantID, id, domain.StatusLocked, domain.ChangeLocked, "", actorID)
}

// OverrideForecast changes hours on an approved or locked record without
// touching its status. The first override preserves the original hours.
func (e Engine) OverrideForecast(ctx context.Context, tenantID, id string, hours decimal.Decimal, comment, actorID string) (domain.Forecast, error) {
	if hours.IsNegative() {
		return domain.Forecast{}, validationf("forecasted hours cannot be negative")
	}
	if comment == "" {
		return domain.Forecast{}, validationf("override requires a comment")
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Forecast{}, err
	}
	defer tx.Rollback()

	f, err := e.Repo.GetForecastTx(ctx, tx, tenantID, id)
	if err != nil {
		return domain.Forecast{}, err
	}
	if f.Status != domain.StatusApproved && f.Status != domain.StatusLocked {
		return domain.Forecast{}, invalidStatef("override applies to approved or locked forecasts, forecast %s is %s", f.ID, f.Status)
	}
	prevHours := f.ForecastedHours
	expected := f.RowVersion
	if f.OriginalForecastedHours == nil {
		orig := f.ForecastedHours
		f.OriginalForecastedHours = &orig
	}
	f.ForecastedHours = hours
	now := e.nowRFC3339()
	f.OverriddenAt = &now
	f.OverrideReason = &comment
	f.UpdatedAt = now
	n, err := e.Repo.UpdateForecastTx(ctx, tx, f, expected)
	if err != nil {
		return domain.Forecast{}, err
	}
	if n == 0 {
		return domain.Forecast{}, conflictf("forecast %s was modified concurrently", f.ID)
	}
	f.RowVersion = expected + 1
	if err := e.history().Append(ctx, tx, tenantID, domain.ChangeOverride, actorID, history.Change{
		ForecastID:    &f.ID,
		PreviousHours: &prevHours,
		NewHours:      &f.ForecastedHours,
		Comment:       comment,
	}); err != nil {
		return domain.Forecast{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Forecast{}, err
	}
	e.Log.Info().Str("tenant", tenantID).Str("forecast", id).Msg("forecast overridden")
	return f, nil
}

// BulkItem is one record in a bulk create request.
type BulkItem struct {
	AssignmentID string
	ProjectID    *string
	PersonID     *string
	Year         int
	Month        int
	Week         *int
	Hours        decimal.Decimal
	Notes        string
}

// CreateBulk creates records one by one; a failing item never rolls back
// its siblings. Items hitting an existing tuple are skipped unless
// updateExisting is set, and then only draft tuples get their hours and
// notes replaced.
func (e Engine) CreateBulk(ctx context.Context, tenantID, versionID string, items []BulkItem, updateExisting bool, actorID string) (domain.BulkResult, error) {
	res := domain.BulkResult{TotalRequested: len(items)}
	if versionID == "" {
		return res, validationf("version_id is required")
	}
	if _, err := e.Repo.GetVersion(ctx, tenantID, versionID); err != nil {
		return res, err
	}
	for i, item := range items {
		outcome, err := e.bulkUpsert(ctx, tenantID, versionID, item, updateExisting, actorID)
		if err != nil {
			res.FailedCount++
			res.Errors = append(res.Errors, fmt.Sprintf("item %d (%s %d-%02d): %v", i, item.AssignmentID, item.Year, item.Month, err))
			continue
		}
		switch outcome {
		case bulkCreated:
			res.CreatedCount++
		case bulkUpdated:
			res.UpdatedCount++
		case bulkSkipped:
			res.SkippedCount++
		}
	}
	e.Log.Info().Str("tenant", tenantID).Str("version", versionID).
		Int("requested", res.TotalRequested).Int("created", res.CreatedCount).
		Int("updated", res.UpdatedCount).Int("skipped", res.SkippedCount).
		Int("failed", res.FailedCount).Msg("bulk create finished")
	return res, nil
}

type bulkOutcome int

const (
	bulkCreated bulkOutcome = iota
	bulkUpdated
	bulkSkipped
)

func (e Engine) bulkUpsert(ctx context.Context, tenantID, versionID string, item BulkItem, updateExisting bool, actorID string) (bulkOutcome, error) {
	opts := ForecastCreateOptions{
		TenantID:     tenantID,
		VersionID:    versionID,
		AssignmentID: item.AssignmentID,
		ProjectID:    item.ProjectID,
		PersonID:     item.PersonID,
		Year:         item.Year,
		Month:        item.Month,
		Week:         item.Week,
		Hours:        item.Hours,
		Notes:        item.Notes,
		ActorID:      actorID,
	}
	if err := opts.validate(); err != nil {
		return 0, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	existing, err := e.Repo.FindByTupleTx(ctx, tx, versionID, item.AssignmentID, item.Year, item.Month, item.Week)
	if err != nil && err != repo.ErrNotFound {
		return 0, err
	}
	now := e.nowRFC3339()
	if err == repo.ErrNotFound {
		f := domain.Forecast{
			ID:              uuid.NewString(),
			TenantID:        tenantID,
			VersionID:       versionID,
			AssignmentID:    item.AssignmentID,
			ProjectID:       item.ProjectID,
			PersonID:        item.PersonID,
			Year:            item.Year,
			Month:           item.Month,
			Week:            item.Week,
			ForecastedHours: item.Hours,
			Status:          domain.StatusDraft,
			Notes:           item.Notes,
			RowVersion:      1,
			CreatedBy:       actorID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := e.Repo.InsertForecastTx(ctx, tx, f); err != nil {
			return 0, err
		}
		status := f.Status
		if err := e.history().Append(ctx, tx, tenantID, domain.ChangeCreated, actorID, history.Change{
			ForecastID: &f.ID,
			NewHours:   &f.ForecastedHours,
			NewStatus:  &status,
		}); err != nil {
			return 0, err
		}
		return bulkCreated, tx.Commit()
	}

	if !updateExisting {
		return bulkSkipped, nil
	}
	if existing.Status != domain.StatusDraft {
		return bulkSkipped, nil
	}
	if existing.ForecastedHours.Equal(item.Hours) && existing.Notes == item.Notes {
		return bulkSkipped, nil
	}
	prevHours := existing.ForecastedHours
	expected := existing.RowVersion
	existing.ForecastedHours = item.Hours
	existing.Notes = item.Notes
	existing.UpdatedAt = now
	n, err := e.Repo.UpdateForecastTx(ctx, tx, existing, expected)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, conflictf("forecast %s was modified concurrently", existing.ID)
	}
	if err := e.history().Append(ctx, tx, tenantID, domain.ChangeHoursUpdated, actorID, history.Change{
		ForecastID:    &existing.ID,
		PreviousHours: &prevHours,
		NewHours:      &existing.ForecastedHours,
	}); err != nil {
		return 0, err
	}
	return bulkUpdated, tx.Commit()
}

// BulkApprove approves submitted records one by one. Records in other
// statuses are skipped, missing ones counted as failed.
func (e Engine) BulkApprove(ctx context.Context, tenantID string, ids []string, comment, actorID string) (domain.BulkApprovalResult, error) {
	res := domain.BulkApprovalResult{TotalRequested: len(ids)}
	for _, id := range ids {
		f, err := e.Repo.GetForecast(ctx, tenantID, id)
		if err == repo.ErrNotFound {
			res.FailedCount++
			res.Errors = append(res.Errors, fmt.Sprintf("forecast %s not found", id))
			continue
		}
		if err != nil {
			res.FailedCount++
			res.Errors = append(res.Errors, fmt.Sprintf("forecast %s: %v", id, err))
			continue
		}
		if f.Status != domain.StatusSubmitted {
			res.SkippedCount++
			continue
		}
		if _, err := e.ApproveForecast(ctx, tenantID, id, comment, actorID); err != nil {
			res.FailedCount++
			res.Errors = append(res.Errors, fmt.Sprintf("forecast %s: %v", id, err))
			continue
		}
		res.ApprovedCount++
	}
	return res, nil
}

// LockMonth locks every non-locked record in the scope in one transaction.
type LockMonthOptions struct {
	TenantID  string
	VersionID string
	ProjectID string
	Year      int
	Month     int
	Reason    string
	ActorID   string
}

func (e Engine) LockMonth(ctx context.Context, opts LockMonthOptions) (domain.LockMonthResult, error) {
	if opts.Year < 2000 || opts.Year > 2100 {
		return domain.LockMonthResult{}, validationf("year %d out of range", opts.Year)
	}
	if opts.Month < 1 || opts.Month > 12 {
		return domain.LockMonthResult{}, validationf("month %d out of range", opts.Month)
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.LockMonthResult{}, err
	}
	defer tx.Rollback()

	forecasts, err := e.Repo.ListForecastsTx(ctx, tx, repo.ForecastFilters{
		TenantID:  opts.TenantID,
		VersionID: opts.VersionID,
		ProjectID: opts.ProjectID,
		Year:      opts.Year,
		Month:     opts.Month,
	})
	if err != nil {
		return domain.LockMonthResult{}, err
	}
	res := domain.LockMonthResult{Year: opts.Year, Month: opts.Month, TotalForecasts: len(forecasts)}
	now := e.nowRFC3339()
	for _, f := range forecasts {
		if f.Status == domain.StatusLocked {
			continue
		}
		prevStatus := f.Status
		expected := f.RowVersion
		f.Status = domain.StatusLocked
		f.LockedAt = &now
		f.UpdatedAt = now
		n, err := e.Repo.UpdateForecastTx(ctx, tx, f, expected)
		if err != nil {
			return domain.LockMonthResult{}, err
		}
		if n == 0 {
			return domain.LockMonthResult{}, conflictf("forecast %s was modified concurrently", f.ID)
		}
		newStatus := f.Status
		if err := e.history().Append(ctx, tx, opts.TenantID, domain.ChangeLocked, opts.ActorID, history.Change{
			ForecastID:     &f.ID,
			PreviousStatus: &prevStatus,
			NewStatus:      &newStatus,
			Comment:        opts.Reason,
		}); err != nil {
			return domain.LockMonthResult{}, err
		}
		res.LockedCount++
	}
	if err := tx.Commit(); err != nil {
		return domain.LockMonthResult{}, err
	}
	e.Log.Info().Str("tenant", opts.TenantID).Int("year", opts.Year).Int("month", opts.Month).
		Int("locked", res.LockedCount).Msg("month locked")
	return res, nil
}

// Summary aggregates the filtered records by status.
func (e Engine) Summary(ctx context.Context, f repo.ForecastFilters) (domain.ForecastSummary, error) {
	forecasts, err := e.Repo.ListForecasts(ctx, f)
	if err != nil {
		return domain.ForecastSummary{}, err
	}
	var s domain.ForecastSummary
	for _, fc := range forecasts {
		s.TotalCount++
		s.TotalHours = s.TotalHours.Add(fc.ForecastedHours)
		if fc.Overridden() {
			s.OverrideCount++
		}
		switch fc.Status {
		case domain.StatusDraft:
			s.DraftCount++
			s.DraftHours = s.DraftHours.Add(fc.ForecastedHours)
		case domain.StatusSubmitted:
			s.SubmittedCount++
			s.SubmittedHours = s.SubmittedHours.Add(fc.ForecastedHours)
		case domain.StatusApproved:
			s.ApprovedCount++
			s.ApprovedHours = s.ApprovedHours.Add(fc.ForecastedHours)
		case domain.StatusRejected:
			s.RejectedCount++
		case domain.StatusLocked:
			s.LockedCount++
			s.ApprovedHours = s.ApprovedHours.Add(fc.ForecastedHours)
		}
	}
	return s, nil
}

func (e Engine) History(ctx context.Context, f repo.HistoryFilters) ([]domain.ForecastHistoryItem, error) {
	return e.Repo.ListHistory(ctx, f)
}

// RecommendedHours returns working days in the month times the configured
// hours per day, skipping weekends and tenant holidays.
func (e Engine) RecommendedHours(year, month int) (decimal.Decimal, error) {
	if month < 1 || month > 12 {
		return decimal.Zero, validationf("month %d out of range", month)
	}
	hoursPerDay := 8.0
	holidays := map[string]bool{}
	if e.Config != nil {
		if e.Config.Forecasting.HoursPerDay > 0 {
			hoursPerDay = e.Config.Forecasting.HoursPerDay
		}
		for _, h := range e.Config.Forecasting.Holidays {
			holidays[h] = true
		}
	}
	workingDays := 0
	day := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	for day.Month() == time.Month(month) {
		wd := day.Weekday()
		if wd != time.Saturday && wd != time.Sunday && !holidays[day.Format("2006-01-02")] {
			workingDays++
		}
		day = day.AddDate(0, 0, 1)
	}
	return decimal.NewFromFloat(hoursPerDay).Mul(decimal.NewFromInt(int64(workingDays))), nil
}
