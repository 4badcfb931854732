package repo

import (
	"context"
	"database/sql"
	"strings"

	"hourcast/internal/domain"
)

const historyColumns = `id,tenant_id,forecast_id,version_id,change_type,previous_hours,new_hours,previous_status,new_status,COALESCE(comment,''),changed_by,changed_at`

func scanHistory(row rowScanner) (domain.ForecastHistoryItem, error) {
	var h domain.ForecastHistoryItem
	var forecastID, versionID, prevHours, newHours, prevStatus, newStatus sql.NullString
	err := row.Scan(&h.ID, &h.TenantID, &forecastID, &versionID, &h.ChangeType,
		&prevHours, &newHours, &prevStatus, &newStatus, &h.Comment, &h.ChangedBy, &h.ChangedAt)
	if err == sql.ErrNoRows {
		return h, ErrNotFound
	}
	if err != nil {
		return h, err
	}
	h.ForecastID = strPtr(forecastID)
	h.VersionID = strPtr(versionID)
	h.PreviousStatus = strPtr(prevStatus)
	h.NewStatus = strPtr(newStatus)
	if h.PreviousHours, err = decimalPtr(prevHours); err != nil {
		return h, err
	}
	if h.NewHours, err = decimalPtr(newHours); err != nil {
		return h, err
	}
	return h, nil
}

func (r Repo) InsertHistoryTx(ctx context.Context, tx *sql.Tx, h domain.ForecastHistoryItem) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO forecast_history(id,tenant_id,forecast_id,version_id,change_type,previous_hours,new_hours,previous_status,new_status,comment,changed_by,changed_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		h.ID, h.TenantID, nullableStringPtr(h.ForecastID), nullableStringPtr(h.VersionID), h.ChangeType,
		nullableDecimalPtr(h.PreviousHours), nullableDecimalPtr(h.NewHours),
		nullableStringPtr(h.PreviousStatus), nullableStringPtr(h.NewStatus),
		h.Comment, h.ChangedBy, h.ChangedAt)
	return err
}

type HistoryFilters struct {
	TenantID   string
	ForecastID string
	VersionID  string
	ChangeType string
	Limit      int
}

func (r Repo) ListHistory(ctx context.Context, f HistoryFilters) ([]domain.ForecastHistoryItem, error) {
	clauses := []string{"tenant_id=?"}
	args := []any{f.TenantID}
	if f.ForecastID != "" {
		clauses = append(clauses, "forecast_id=?")
		args = append(args, f.ForecastID)
	}
	if f.VersionID != "" {
		clauses = append(clauses, "version_id=?")
		args = append(args, f.VersionID)
	}
	if f.ChangeType != "" {
		clauses = append(clauses, "change_type=?")
		args = append(args, f.ChangeType)
	}
	query := `SELECT ` + historyColumns + ` FROM forecast_history WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY changed_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ForecastHistoryItem
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, h)
	}
	return res, rows.Err()
}
