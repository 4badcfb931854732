package app

import (
	"context"
	"database/sql"
	"fmt"

	"hourcast/internal/config"
	"hourcast/internal/db"
	"hourcast/internal/engine/auth"
	"hourcast/internal/migrate"
)

// ResolveWorkspace opens the workspace database, applies pending migrations,
// loads the workspace config and makes sure the calling actor exists.
// The first actor ever seen in a workspace is granted the admin role so a
// fresh workspace is usable without a separate grant step.
func ResolveWorkspace(ctx context.Context, workspace, actorID string) (*sql.DB, *config.Config, error) {
	cfg, err := config.Load(workspace)
	if err != nil {
		return nil, nil, err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, nil, err
	}
	if _, err := migrate.Apply(conn); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("apply migrations: %w", err)
	}
	if actorID == "" {
		actorID = "local-user"
	}
	if err := ensureActorWithBootstrap(ctx, conn, actorID); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, cfg, nil
}

func ensureActorWithBootstrap(ctx context.Context, conn *sql.DB, actorID string) error {
	var existing int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM actors`).Scan(&existing); err != nil {
		return fmt.Errorf("count actors: %w", err)
	}
	svc := auth.Service{DB: conn}
	if err := svc.EnsureActor(ctx, actorID, actorID); err != nil {
		return fmt.Errorf("ensure actor: %w", err)
	}
	if existing == 0 {
		if err := svc.AssignRole(ctx, actorID, "admin"); err != nil {
			return fmt.Errorf("bootstrap admin role: %w", err)
		}
	}
	return nil
}
