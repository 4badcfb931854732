package migrate_test

import (
	"testing"

	"hourcast/internal/db"
	"hourcast/internal/migrate"
)

func TestApplyIsIdempotent(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	n, err := migrate.Apply(conn)
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if n == 0 {
		t.Fatal("expected at least one migration applied")
	}
	n, err = migrate.Apply(conn)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if n != 0 {
		t.Fatalf("second apply ran %d migrations", n)
	}
}

func TestSeedsRoleMatrix(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	if _, err := migrate.Apply(conn); err != nil {
		t.Fatal(err)
	}

	var roles, perms int
	if err := conn.QueryRow("SELECT COUNT(*) FROM roles").Scan(&roles); err != nil {
		t.Fatal(err)
	}
	if err := conn.QueryRow("SELECT COUNT(*) FROM permissions").Scan(&perms); err != nil {
		t.Fatal(err)
	}
	if roles != 4 || perms != 8 {
		t.Fatalf("seeded %d roles, %d permissions", roles, perms)
	}

	var n int
	err = conn.QueryRow(`SELECT COUNT(*) FROM role_permissions rp
		JOIN roles r ON r.id = rp.role_id
		JOIN permissions p ON p.id = rp.permission_id
		WHERE r.name = 'approver' AND p.name = 'forecast.approve'`).Scan(&n)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatal("approver role missing forecast.approve")
	}
}
