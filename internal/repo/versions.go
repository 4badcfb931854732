package repo

import (
	"context"
	"database/sql"
	"strings"

	"hourcast/internal/domain"
)

const versionColumns = `id,tenant_id,project_id,user_id,name,description,type,version_number,is_current,based_on_version_id,period_start,period_end,created_by,created_at,updated_at,promoted_at,archived_at,COALESCE(archive_reason,'')`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (domain.ForecastVersion, error) {
	var v domain.ForecastVersion
	var projectID, userID, basedOn, periodStart, periodEnd, promotedAt, archivedAt sql.NullString
	var isCurrent int
	err := row.Scan(&v.ID, &v.TenantID, &projectID, &userID, &v.Name, &v.Description, &v.Type, &v.VersionNumber,
		&isCurrent, &basedOn, &periodStart, &periodEnd, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt,
		&promotedAt, &archivedAt, &v.ArchiveReason)
	if err == sql.ErrNoRows {
		return v, ErrNotFound
	}
	if err != nil {
		return v, err
	}
	v.IsCurrent = isCurrent == 1
	v.ProjectID = strPtr(projectID)
	v.UserID = strPtr(userID)
	v.BasedOnVersionID = strPtr(basedOn)
	v.PeriodStart = strPtr(periodStart)
	v.PeriodEnd = strPtr(periodEnd)
	v.PromotedAt = strPtr(promotedAt)
	v.ArchivedAt = strPtr(archivedAt)
	return v, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (r Repo) InsertVersionTx(ctx context.Context, tx *sql.Tx, v domain.ForecastVersion) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO forecast_versions(id,tenant_id,project_id,user_id,name,description,type,version_number,is_current,based_on_version_id,period_start,period_end,created_by,created_at,updated_at,promoted_at,archived_at,archive_reason)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		v.ID, v.TenantID, nullableStringPtr(v.ProjectID), nullableStringPtr(v.UserID), v.Name, v.Description, v.Type, v.VersionNumber,
		boolInt(v.IsCurrent), nullableStringPtr(v.BasedOnVersionID), nullableStringPtr(v.PeriodStart), nullableStringPtr(v.PeriodEnd),
		v.CreatedBy, v.CreatedAt, v.UpdatedAt, nullableStringPtr(v.PromotedAt), nullableStringPtr(v.ArchivedAt), v.ArchiveReason)
	if IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r Repo) GetVersion(ctx context.Context, tenantID, id string) (domain.ForecastVersion, error) {
	return scanVersion(r.DB.QueryRowContext(ctx, `SELECT `+versionColumns+` FROM forecast_versions WHERE tenant_id=? AND id=?`, tenantID, id))
}

func (r Repo) GetVersionTx(ctx context.Context, tx *sql.Tx, tenantID, id string) (domain.ForecastVersion, error) {
	return scanVersion(tx.QueryRowContext(ctx, `SELECT `+versionColumns+` FROM forecast_versions WHERE tenant_id=? AND id=?`, tenantID, id))
}

type VersionFilters struct {
	TenantID        string
	ProjectID       *string
	UserID          *string
	Type            string
	IncludeArchived bool
	Limit           int
	CursorCreatedAt string
	CursorID        string
}

func (r Repo) ListVersions(ctx context.Context, f VersionFilters) ([]domain.ForecastVersion, error) {
	clauses := []string{"tenant_id=?"}
	args := []any{f.TenantID}
	if f.ProjectID != nil {
		clauses = append(clauses, "COALESCE(project_id,'')=?")
		args = append(args, *f.ProjectID)
	}
	if f.UserID != nil {
		clauses = append(clauses, "COALESCE(user_id,'')=?")
		args = append(args, *f.UserID)
	}
	if f.Type != "" {
		clauses = append(clauses, "type=?")
		args = append(args, f.Type)
	}
	if !f.IncludeArchived {
		clauses = append(clauses, "archived_at IS NULL")
	}
	if f.CursorCreatedAt != "" && f.CursorID != "" {
		clauses = append(clauses, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, f.CursorCreatedAt, f.CursorCreatedAt, f.CursorID)
	}
	query := `SELECT ` + versionColumns + ` FROM forecast_versions WHERE ` + strings.Join(clauses, " AND ") +
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
	var res []domain.ForecastVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, rows.Err()
}

// CurrentVersion returns the is_current version for a scope, ErrNotFound when none.
func (r Repo) CurrentVersion(ctx context.Context, tenantID string, projectID *string) (domain.ForecastVersion, error) {
	project := ""
	if projectID != nil {
		project = *projectID
	}
	return scanVersion(r.DB.QueryRowContext(ctx, `SELECT `+versionColumns+` FROM forecast_versions WHERE tenant_id=? AND COALESCE(project_id,'')=? AND is_current=1`, tenantID, project))
}

// MaxVersionNumberTx returns the highest version number in a scope, 0 when empty.
func (r Repo) MaxVersionNumberTx(ctx context.Context, tx *sql.Tx, tenantID string, projectID, userID *string) (int, error) {
	project := ""
	if projectID != nil {
		project = *projectID
	}
	user := ""
	if userID != nil {
		user = *userID
	}
	var n int
	err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version_number),0) FROM forecast_versions WHERE tenant_id=? AND COALESCE(project_id,'')=? AND COALESCE(user_id,'')=?`, tenantID, project, user).Scan(&n)
	return n, err
}

// ClearCurrentTx demotes whatever version is current in the scope.
func (r Repo) ClearCurrentTx(ctx context.Context, tx *sql.Tx, tenantID string, projectID *string, updatedAt string) error {
	project := ""
	if projectID != nil {
		project = *projectID
	}
	_, err := tx.ExecContext(ctx, `UPDATE forecast_versions SET is_current=0, updated_at=? WHERE tenant_id=? AND COALESCE(project_id,'')=? AND is_current=1`, updatedAt, tenantID, project)
	return err
}

// MarkPromotedTx flips a version to the current slot.
func (r Repo) MarkPromotedTx(ctx context.Context, tx *sql.Tx, tenantID, id, promotedAt string) error {
	res, err := tx.ExecContext(ctx, `UPDATE forecast_versions SET is_current=1, type=?, promoted_at=?, updated_at=? WHERE tenant_id=? AND id=?`,
		domain.VersionCurrent, promotedAt, promotedAt, tenantID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) UpdateVersionTx(ctx context.Context, tx *sql.Tx, v domain.ForecastVersion) error {
	res, err := tx.ExecContext(ctx, `UPDATE forecast_versions SET name=?, description=?, period_start=?, period_end=?, updated_at=? WHERE tenant_id=? AND id=?`,
		v.Name, v.Description, nullableStringPtr(v.PeriodStart), nullableStringPtr(v.PeriodEnd), v.UpdatedAt, v.TenantID, v.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ArchiveVersionTx(ctx context.Context, tx *sql.Tx, tenantID, id, archivedAt, reason string) error {
	res, err := tx.ExecContext(ctx, `UPDATE forecast_versions SET type=?, archived_at=?, archive_reason=?, updated_at=? WHERE tenant_id=? AND id=?`,
		domain.VersionHistorical, archivedAt, reason, archivedAt, tenantID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteVersionTx(ctx context.Context, tx *sql.Tx, tenantID, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM forecast_versions WHERE tenant_id=? AND id=?`, tenantID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountForecastsByStatus groups the version's forecast rows by status.
func (r Repo) CountForecastsByStatus(ctx context.Context, versionID string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, count(*) FROM forecasts WHERE version_id=? GROUP BY status`, versionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		res[status] = count
	}
	return res, rows.Err()
}

func (r Repo) CountForecastsByStatusTx(ctx context.Context, tx *sql.Tx, versionID string) (map[string]int, error) {
	rows, err := tx.QueryContext(ctx, `SELECT status, count(*) FROM forecasts WHERE version_id=? GROUP BY status`, versionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		res[status] = count
	}
	return res, rows.Err()
}

func (r Repo) DeleteForecastsForVersionTx(ctx context.Context, tx *sql.Tx, versionID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM forecasts WHERE version_id=?`, versionID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
