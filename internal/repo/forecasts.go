package repo

import (
	"context"
	"database/sql"
	"strings"

	"hourcast/internal/domain"
)

const forecastColumns = `id,tenant_id,version_id,assignment_id,project_id,person_id,year,month,week,forecasted_hours,original_forecasted_hours,overridden_at,override_reason,status,COALESCE(notes,''),row_version,created_by,created_at,updated_at,submitted_at,submitted_by,approved_at,approved_by,locked_at`

func scanForecast(row rowScanner) (domain.Forecast, error) {
	var f domain.Forecast
	var projectID, personID, originalHours, overriddenAt, overrideReason, submittedAt, submittedBy, approvedAt, approvedBy, lockedAt sql.NullString
	var week sql.NullInt64
	var hours string
	err := row.Scan(&f.ID, &f.TenantID, &f.VersionID, &f.AssignmentID, &projectID, &personID,
		&f.Year, &f.Month, &week, &hours, &originalHours, &overriddenAt, &overrideReason, &f.Status, &f.Notes, &f.RowVersion,
		&f.CreatedBy, &f.CreatedAt, &f.UpdatedAt, &submittedAt, &submittedBy, &approvedAt, &approvedBy, &lockedAt)
	if err == sql.ErrNoRows {
		return f, ErrNotFound
	}
	if err != nil {
		return f, err
	}
	if f.ForecastedHours, err = parseDecimal(hours); err != nil {
		return f, err
	}
	if f.OriginalForecastedHours, err = decimalPtr(originalHours); err != nil {
		return f, err
	}
	f.ProjectID = strPtr(projectID)
	f.PersonID = strPtr(personID)
	f.Week = intPtr(week)
	f.OverriddenAt = strPtr(overriddenAt)
	f.OverrideReason = strPtr(overrideReason)
	f.SubmittedAt = strPtr(submittedAt)
	f.SubmittedBy = strPtr(submittedBy)
	f.ApprovedAt = strPtr(approvedAt)
	f.ApprovedBy = strPtr(approvedBy)
	f.LockedAt = strPtr(lockedAt)
	return f, nil
}

func (r Repo) InsertForecastTx(ctx context.Context, tx *sql.Tx, f domain.Forecast) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO forecasts(id,tenant_id,version_id,assignment_id,project_id,person_id,year,month,week,forecasted_hours,original_forecasted_hours,overridden_at,override_reason,status,notes,row_version,created_by,created_at,updated_at,submitted_at,submitted_by,approved_at,approved_by,locked_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		f.ID, f.TenantID, f.VersionID, f.AssignmentID, nullableStringPtr(f.ProjectID), nullableStringPtr(f.PersonID),
		f.Year, f.Month, nullableIntPtr(f.Week), f.ForecastedHours.String(), nullableDecimalPtr(f.OriginalForecastedHours),
		nullableStringPtr(f.OverriddenAt), nullableStringPtr(f.OverrideReason),
		f.Status, f.Notes, f.RowVersion, f.CreatedBy, f.CreatedAt, f.UpdatedAt,
		nullableStringPtr(f.SubmittedAt), nullableStringPtr(f.SubmittedBy),
		nullableStringPtr(f.ApprovedAt), nullableStringPtr(f.ApprovedBy), nullableStringPtr(f.LockedAt))
	if IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r Repo) GetForecast(ctx context.Context, tenantID, id string) (domain.Forecast, error) {
	return scanForecast(r.DB.QueryRowContext(ctx, `SELECT `+forecastColumns+` FROM forecasts WHERE tenant_id=? AND id=?`, tenantID, id))
}

func (r Repo) GetForecastTx(ctx context.Context, tx *sql.Tx, tenantID, id string) (domain.Forecast, error) {
	return scanForecast(tx.QueryRowContext(ctx, `SELECT `+forecastColumns+` FROM forecasts WHERE tenant_id=? AND id=?`, tenantID, id))
}

// FindByTupleTx looks up a forecast by its unique key within a version.
func (r Repo) FindByTupleTx(ctx context.Context, tx *sql.Tx, versionID, assignmentID string, year, month int, week *int) (domain.Forecast, error) {
	w := 0
	if week != nil {
		w = *week
	}
	return scanForecast(tx.QueryRowContext(ctx, `SELECT `+forecastColumns+` FROM forecasts WHERE version_id=? AND assignment_id=? AND year=? AND month=? AND COALESCE(week,0)=?`,
		versionID, assignmentID, year, month, w))
}

type ForecastFilters struct {
	TenantID        string
	VersionID       string
	AssignmentID    string
	ProjectID       string
	PersonID        string
	Status          string
	Year            int
	Month           int
	Limit           int
	CursorCreatedAt string
	CursorID        string
}

func (f ForecastFilters) clauses() ([]string, []any) {
	clauses := []string{"tenant_id=?"}
	args := []any{f.TenantID}
	if f.VersionID != "" {
		clauses = append(clauses, "version_id=?")
		args = append(args, f.VersionID)
	}
	if f.AssignmentID != "" {
		clauses = append(clauses, "assignment_id=?")
		args = append(args, f.AssignmentID)
	}
	if f.ProjectID != "" {
		clauses = append(clauses, "project_id=?")
		args = append(args, f.ProjectID)
	}
	if f.PersonID != "" {
		clauses = append(clauses, "person_id=?")
		args = append(args, f.PersonID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.Year != 0 {
		clauses = append(clauses, "year=?")
		args = append(args, f.Year)
	}
	if f.Month != 0 {
		clauses = append(clauses, "month=?")
		args = append(args, f.Month)
	}
	return clauses, args
}

func (r Repo) ListForecasts(ctx context.Context, f ForecastFilters) ([]domain.Forecast, error) {
	clauses, args := f.clauses()
	if f.CursorCreatedAt != "" && f.CursorID != "" {
		clauses = append(clauses, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, f.CursorCreatedAt, f.CursorCreatedAt, f.CursorID)
	}
	query := `SELECT ` + forecastColumns + ` FROM forecasts WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Forecast
	for rows.Next() {
		fc, err := scanForecast(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, fc)
	}
	return res, rows.Err()
}

// ListForecastsTx is the in-transaction variant used by lock-month.
func (r Repo) ListForecastsTx(ctx context.Context, tx *sql.Tx, f ForecastFilters) ([]domain.Forecast, error) {
	clauses, args := f.clauses()
	query := `SELECT ` + forecastColumns + ` FROM forecasts WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY year, month, COALESCE(week,0), assignment_id, id`
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Forecast
	for rows.Next() {
		fc, err := scanForecast(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, fc)
	}
	return res, rows.Err()
}

// UpdateForecastTx writes every mutable field guarded by the optimistic
// row version. Returns the number of rows affected; zero means a concurrent
// writer got there first.
func (r Repo) UpdateForecastTx(ctx context.Context, tx *sql.Tx, f domain.Forecast, expectedRowVersion int64) (int64, error) {
	res, err := tx.ExecContext(ctx, `UPDATE forecasts SET forecasted_hours=?, original_forecasted_hours=?, overridden_at=?, override_reason=?, status=?, notes=?, row_version=row_version+1, updated_at=?, submitted_at=?, submitted_by=?, approved_at=?, approved_by=?, locked_at=?
WHERE tenant_id=? AND id=? AND row_version=?`,
		f.ForecastedHours.String(), nullableDecimalPtr(f.OriginalForecastedHours),
		nullableStringPtr(f.OverriddenAt), nullableStringPtr(f.OverrideReason), f.Status, f.Notes, f.UpdatedAt,
		nullableStringPtr(f.SubmittedAt), nullableStringPtr(f.SubmittedBy),
		nullableStringPtr(f.ApprovedAt), nullableStringPtr(f.ApprovedBy), nullableStringPtr(f.LockedAt),
		f.TenantID, f.ID, expectedRowVersion)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r Repo) DeleteForecastTx(ctx context.Context, tx *sql.Tx, tenantID, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM forecasts WHERE tenant_id=? AND id=?`, tenantID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
