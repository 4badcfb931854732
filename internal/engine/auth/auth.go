package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Permission names seeded by the migrations.
const (
	PermForecastRead     = "forecast.read"
	PermForecastWrite    = "forecast.write"
	PermForecastSubmit   = "forecast.submit"
	PermForecastApprove  = "forecast.approve"
	PermForecastOverride = "forecast.override"
	PermForecastLock     = "forecast.lock"
	PermVersionManage    = "version.manage"
	PermVersionPromote   = "version.promote"
)

// ForbiddenError indicates missing permission.
type ForbiddenError struct {
	Permission string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("permission %s required", e.Permission)
}

// Service provides RBAC helpers backed by SQL.
type Service struct {
	DB *sql.DB
}

func (s Service) EnsureActor(ctx context.Context, actorID, name string) error {
	if actorID == "" {
		return errors.New("actor_id required")
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.DB.ExecContext(ctx, `INSERT OR IGNORE INTO actors(id, name, created_at) VALUES (?,?,?)`, actorID, name, now)
	return err
}

func (s Service) AssignRole(ctx context.Context, actorID, roleName string) error {
	res, err := s.DB.ExecContext(ctx, `INSERT OR IGNORE INTO actor_roles(actor_id, role_id)
SELECT ?, id FROM roles WHERE name=?`, actorID, roleName)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := s.DB.QueryRowContext(ctx, `SELECT 1 FROM roles WHERE name=?`, roleName).Scan(&exists); err == sql.ErrNoRows {
			return fmt.Errorf("unknown role %s", roleName)
		}
	}
	return nil
}

func (s Service) RevokeRole(ctx context.Context, actorID, roleName string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM actor_roles WHERE actor_id=? AND role_id IN (SELECT id FROM roles WHERE name=?)`, actorID, roleName)
	return err
}

func (s Service) ActorHasPermission(ctx context.Context, actorID, perm string) (bool, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT 1 FROM actor_roles ar
JOIN role_permissions rp ON rp.role_id=ar.role_id
JOIN permissions p ON p.id=rp.permission_id
WHERE ar.actor_id=? AND p.name=? LIMIT 1`,
		actorID, perm)
	var n int
	err := row.Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// Require returns ForbiddenError when the actor lacks the permission.
func (s Service) Require(ctx context.Context, actorID, perm string) error {
	ok, err := s.ActorHasPermission(ctx, actorID, perm)
	if err != nil {
		return err
	}
	if !ok {
		return ForbiddenError{Permission: perm}
	}
	return nil
}

func (s Service) ActorRoles(ctx context.Context, actorID string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT r.name FROM actor_roles ar
JOIN roles r ON r.id=ar.role_id
WHERE ar.actor_id=? ORDER BY r.name`, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

func (s Service) ActorPermissions(ctx context.Context, actorID string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT DISTINCT p.name
FROM actor_roles ar
JOIN role_permissions rp ON rp.role_id=ar.role_id
JOIN permissions p ON p.id=rp.permission_id
WHERE ar.actor_id=? ORDER BY p.name`, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
