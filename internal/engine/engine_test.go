package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"hourcast/internal/config"
	"hourcast/internal/db"
	"hourcast/internal/domain"
	"hourcast/internal/engine"
	"hourcast/internal/migrate"
	"hourcast/internal/repo"
)

const tenant = "tenant-1"

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if _, err := migrate.Apply(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn, config.Default(tenant), zerolog.Nop())
	eng.Now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return testEnv{Engine: eng, Ctx: context.Background()}
}

func mustVersion(t *testing.T, env testEnv, name string) domain.ForecastVersion {
	t.Helper()
	v, err := env.Engine.CreateVersion(env.Ctx, engine.VersionCreateOptions{
		TenantID: tenant,
		Name:     name,
		ActorID:  "tester",
	})
	if err != nil {
		t.Fatalf("create version %s: %v", name, err)
	}
	return v
}

func mustForecast(t *testing.T, env testEnv, versionID, assignmentID string, hours float64) domain.Forecast {
	t.Helper()
	f, err := env.Engine.CreateForecast(env.Ctx, engine.ForecastCreateOptions{
		TenantID:     tenant,
		VersionID:    versionID,
		AssignmentID: assignmentID,
		Year:         2025,
		Month:        7,
		Hours:        decimal.NewFromFloat(hours),
		ActorID:      "tester",
	})
	if err != nil {
		t.Fatalf("create forecast: %v", err)
	}
	return f
}

func TestVersionNumbering(t *testing.T) {
	env := newTestEnv(t)
	v1 := mustVersion(t, env, "Q3 plan")
	v2 := mustVersion(t, env, "Q3 what-if")
	if v1.VersionNumber != 1 || v2.VersionNumber != 2 {
		t.Fatalf("expected numbers 1,2 got %d,%d", v1.VersionNumber, v2.VersionNumber)
	}
	// a project scope numbers independently
	proj := "proj-a"
	v3, err := env.Engine.CreateVersion(env.Ctx, engine.VersionCreateOptions{
		TenantID: tenant, ProjectID: &proj, Name: "scoped", ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("create scoped version: %v", err)
	}
	if v3.VersionNumber != 1 {
		t.Fatalf("expected scoped number 1 got %d", v3.VersionNumber)
	}
	// so does a user scope
	user := "user-9"
	v4, err := env.Engine.CreateVersion(env.Ctx, engine.VersionCreateOptions{
		TenantID: tenant, UserID: &user, Name: "personal", ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("create user version: %v", err)
	}
	if v4.VersionNumber != 1 || v4.UserID == nil || *v4.UserID != user {
		t.Fatalf("expected user-scoped number 1, got %+v", v4)
	}
}

func TestCreateVersionBasedOn(t *testing.T) {
	env := newTestEnv(t)
	src := mustVersion(t, env, "plan")
	v, err := env.Engine.CreateVersion(env.Ctx, engine.VersionCreateOptions{
		TenantID: tenant, Name: "derived", BasedOnVersionID: &src.ID, ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if v.BasedOnVersionID == nil || *v.BasedOnVersionID != src.ID {
		t.Fatalf("expected based_on carried, got %+v", v.BasedOnVersionID)
	}
	missing := "nope"
	var invalid engine.ValidationError
	_, err = env.Engine.CreateVersion(env.Ctx, engine.VersionCreateOptions{
		TenantID: tenant, Name: "broken", BasedOnVersionID: &missing, ActorID: "tester",
	})
	if !errors.As(err, &invalid) {
		t.Fatalf("expected validation error for unknown based_on, got %v", err)
	}
}

func TestCurrentVersionAutoCreate(t *testing.T) {
	env := newTestEnv(t)
	v, err := env.Engine.CurrentVersion(env.Ctx, tenant, nil, "tester")
	if err != nil {
		t.Fatalf("current version: %v", err)
	}
	if !v.IsCurrent || v.Type != domain.VersionCurrent {
		t.Fatalf("expected auto-created current version, got %+v", v)
	}
	if v.Name != "Current Forecast" {
		t.Fatalf("expected default name from config, got %q", v.Name)
	}
	again, err := env.Engine.CurrentVersion(env.Ctx, tenant, nil, "tester")
	if err != nil || again.ID != v.ID {
		t.Fatalf("expected same version on second call: %v", err)
	}
}

func TestPromoteVersion(t *testing.T) {
	env := newTestEnv(t)
	first, err := env.Engine.CurrentVersion(env.Ctx, tenant, nil, "tester")
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	whatIf := mustVersion(t, env, "what-if")
	promoted, err := env.Engine.PromoteVersion(env.Ctx, tenant, whatIf.ID, "tester")
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if !promoted.IsCurrent || promoted.Type != domain.VersionCurrent || promoted.PromotedAt == nil {
		t.Fatalf("expected promoted current version, got %+v", promoted)
	}
	old, err := env.Engine.GetVersion(env.Ctx, tenant, first.ID)
	if err != nil {
		t.Fatalf("get old: %v", err)
	}
	if old.IsCurrent {
		t.Fatalf("previous current should be demoted")
	}
	// promoting the current version again is invalid
	if _, err := env.Engine.PromoteVersion(env.Ctx, tenant, promoted.ID, "tester"); err == nil {
		t.Fatalf("expected error promoting current version")
	}
}

func TestArchiveAndDeleteGuards(t *testing.T) {
	env := newTestEnv(t)
	current, err := env.Engine.CurrentVersion(env.Ctx, tenant, nil, "tester")
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if _, err := env.Engine.ArchiveVersion(env.Ctx, tenant, current.ID, "old", "tester"); err == nil {
		t.Fatalf("expected archive of current version to fail")
	}
	if err := env.Engine.DeleteVersion(env.Ctx, tenant, current.ID, "tester"); err == nil {
		t.Fatalf("expected delete of current version to fail")
	}

	v := mustVersion(t, env, "disposable")
	f := mustForecast(t, env, v.ID, "asmt-1", 40)
	if _, err := env.Engine.SubmitForecast(env.Ctx, tenant, f.ID, "tester"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	// non-draft forecasts block deletion
	if err := env.Engine.DeleteVersion(env.Ctx, tenant, v.ID, "tester"); err == nil {
		t.Fatalf("expected delete with submitted forecast to fail")
	}

	archived, err := env.Engine.ArchiveVersion(env.Ctx, tenant, v.ID, "superseded", "tester")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if archived.ArchivedAt == nil || archived.Type != domain.VersionHistorical {
		t.Fatalf("expected historical archived version, got %+v", archived)
	}
	if _, err := env.Engine.PromoteVersion(env.Ctx, tenant, v.ID, "tester"); err == nil {
		t.Fatalf("expected promote of archived version to fail")
	}
	// archived versions refuse new forecasts
	if _, err := env.Engine.CreateForecast(env.Ctx, engine.ForecastCreateOptions{
		TenantID: tenant, VersionID: v.ID, AssignmentID: "asmt-2",
		Year: 2025, Month: 8, Hours: decimal.NewFromInt(10), ActorID: "tester",
	}); err == nil {
		t.Fatalf("expected create on archived version to fail")
	}
	// and cannot seed new what-ifs
	var invalid engine.InvalidStateError
	_, err = env.Engine.CloneVersion(env.Ctx, engine.VersionCloneOptions{
		TenantID: tenant, SourceID: v.ID, Name: "from archive", ActorID: "tester",
	})
	if !errors.As(err, &invalid) {
		t.Fatalf("expected invalid state cloning archived version, got %v", err)
	}
}

func TestDeleteVersionCascadesDrafts(t *testing.T) {
	env := newTestEnv(t)
	v := mustVersion(t, env, "drafts only")
	f := mustForecast(t, env, v.ID, "asmt-1", 20)
	if err := env.Engine.DeleteVersion(env.Ctx, tenant, v.ID, "tester"); err != nil {
		t.Fatalf("delete version: %v", err)
	}
	if _, err := env.Engine.GetVersion(env.Ctx, tenant, v.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected version gone, got %v", err)
	}
	if _, err := env.Engine.GetForecast(env.Ctx, tenant, f.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected forecast gone, got %v", err)
	}
}

func TestCloneVersion(t *testing.T) {
	env := newTestEnv(t)
	src := mustVersion(t, env, "source")
	f := mustForecast(t, env, src.ID, "asmt-1", 40)
	if _, err := env.Engine.SubmitForecast(env.Ctx, tenant, f.ID, "tester"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := env.Engine.ApproveForecast(env.Ctx, tenant, f.ID, "", "boss"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := env.Engine.OverrideForecast(env.Ctx, tenant, f.ID, decimal.NewFromInt(35), "trim", "boss"); err != nil {
		t.Fatalf("override: %v", err)
	}

	clone, err := env.Engine.CloneVersion(env.Ctx, engine.VersionCloneOptions{
		TenantID: tenant, SourceID: src.ID, Name: "copy", ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if clone.Type != domain.VersionWhatIf || clone.BasedOnVersionID == nil || *clone.BasedOnVersionID != src.ID {
		t.Fatalf("expected what-if clone based on source, got %+v", clone)
	}
	copies, err := env.Engine.ListForecasts(env.Ctx, repo.ForecastFilters{TenantID: tenant, VersionID: clone.ID})
	if err != nil {
		t.Fatalf("list clones: %v", err)
	}
	if len(copies) != 1 {
		t.Fatalf("expected 1 cloned forecast, got %d", len(copies))
	}
	c := copies[0]
	if c.Status != domain.StatusDraft || c.ApprovedAt != nil || c.OriginalForecastedHours != nil {
		t.Fatalf("clone should reset workflow state, got %+v", c)
	}
	if !c.ForecastedHours.Equal(decimal.NewFromInt(35)) {
		t.Fatalf("clone should carry overridden hours, got %s", c.ForecastedHours)
	}

	// current is reserved for promotion
	if _, err := env.Engine.CloneVersion(env.Ctx, engine.VersionCloneOptions{
		TenantID: tenant, SourceID: src.ID, Name: "bad", Type: domain.VersionCurrent, ActorID: "tester",
	}); err == nil {
		t.Fatalf("expected clone to current type to fail")
	}
}

func TestCloneWithoutForecasts(t *testing.T) {
	env := newTestEnv(t)
	src := mustVersion(t, env, "source")
	mustForecast(t, env, src.ID, "asmt-1", 40)
	clone, err := env.Engine.CloneVersion(env.Ctx, engine.VersionCloneOptions{
		TenantID: tenant, SourceID: src.ID, Name: "metadata only", SkipForecasts: true, ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	copies, err := env.Engine.ListForecasts(env.Ctx, repo.ForecastFilters{TenantID: tenant, VersionID: clone.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(copies) != 0 {
		t.Fatalf("expected empty clone, got %d forecasts", len(copies))
	}
}

func TestForecastLifecycle(t *testing.T) {
	env := newTestEnv(t)
	v := mustVersion(t, env, "plan")
	f := mustForecast(t, env, v.ID, "asmt-1", 40)
	if f.Status != domain.StatusDraft || f.RowVersion != 1 {
		t.Fatalf("unexpected new forecast %+v", f)
	}

	// approve before submit is invalid
	if _, err := env.Engine.ApproveForecast(env.Ctx, tenant, f.ID, "", "boss"); err == nil {
		t.Fatalf("expected approve of draft to fail")
	}
	f, err := env.Engine.SubmitForecast(env.Ctx, tenant, f.ID, "tester")
	if err != nil || f.Status != domain.StatusSubmitted || f.SubmittedBy == nil {
		t.Fatalf("submit: %v %+v", err, f)
	}
	// double submit is invalid
	if _, err := env.Engine.SubmitForecast(env.Ctx, tenant, f.ID, "tester"); err == nil {
		t.Fatalf("expected second submit to fail")
	}
	f, err = env.Engine.ApproveForecast(env.Ctx, tenant, f.ID, "ok", "boss")
	if err != nil || f.Status != domain.StatusApproved || f.ApprovedBy == nil {
		t.Fatalf("approve: %v %+v", err, f)
	}
	// approved records are read-only for normal edits
	h := decimal.NewFromInt(10)
	if _, err := env.Engine.UpdateForecast(env.Ctx, engine.ForecastUpdateOptions{
		TenantID: tenant, ID: f.ID, Hours: &h, ActorID: "tester",
	}); err == nil {
		t.Fatalf("expected update of approved forecast to fail")
	}
	f, err = env.Engine.LockForecast(env.Ctx, tenant, f.ID, "boss")
	if err != nil || f.Status != domain.StatusLocked || f.LockedAt == nil {
		t.Fatalf("lock: %v %+v", err, f)
	}
}

func TestRejectedReturnsToDraftOnEdit(t *testing.T) {
	env := newTestEnv(t)
	v := mustVersion(t, env, "plan")
	f := mustForecast(t, env, v.ID, "asmt-1", 40)
	if _, err := env.Engine.SubmitForecast(env.Ctx, tenant, f.ID, "tester"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	// rejection needs a comment
	if _, err := env.Engine.RejectForecast(env.Ctx, tenant, f.ID, "", "boss"); err == nil {
		t.Fatalf("expected reject without comment to fail")
	}
	f, err := env.Engine.RejectForecast(env.Ctx, tenant, f.ID, "too high", "boss")
	if err != nil || f.Status != domain.StatusRejected {
		t.Fatalf("reject: %v %+v", err, f)
	}
	h := decimal.NewFromInt(32)
	f, err = env.Engine.UpdateForecast(env.Ctx, engine.ForecastUpdateOptions{
		TenantID: tenant, ID: f.ID, Hours: &h, ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("edit rejected: %v", err)
	}
	if f.Status != domain.StatusDraft || !f.ForecastedHours.Equal(h) {
		t.Fatalf("expected draft with new hours, got %+v", f)
	}
}

func TestDuplicateTuple(t *testing.T) {
	env := newTestEnv(t)
	v := mustVersion(t, env, "plan")
	mustForecast(t, env, v.ID, "asmt-1", 40)
	_, err := env.Engine.CreateForecast(env.Ctx, engine.ForecastCreateOptions{
		TenantID: tenant, VersionID: v.ID, AssignmentID: "asmt-1",
		Year: 2025, Month: 7, Hours: decimal.NewFromInt(20), ActorID: "tester",
	})
	if !errors.Is(err, repo.ErrDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestRowVersionConflict(t *testing.T) {
	env := newTestEnv(t)
	v := mustVersion(t, env, "plan")
	f := mustForecast(t, env, v.ID, "asmt-1", 40)
	h := decimal.NewFromInt(30)
	if _, err := env.Engine.UpdateForecast(env.Ctx, engine.ForecastUpdateOptions{
		TenantID: tenant, ID: f.ID, Hours: &h, RowVersion: f.RowVersion, ActorID: "tester",
	}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	// the original row version is now stale
	h2 := decimal.NewFromInt(20)
	var conflict engine.ConflictError
	_, err := env.Engine.UpdateForecast(env.Ctx, engine.ForecastUpdateOptions{
		TenantID: tenant, ID: f.ID, Hours: &h2, RowVersion: f.RowVersion, ActorID: "tester",
	})
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestOverridePreservesOriginal(t *testing.T) {
	env := newTestEnv(t)
	v := mustVersion(t, env, "plan")
	f := mustForecast(t, env, v.ID, "asmt-1", 40)
	// override before approval is invalid
	if _, err := env.Engine.OverrideForecast(env.Ctx, tenant, f.ID, decimal.NewFromInt(30), "early", "boss"); err == nil {
		t.Fatalf("expected override of draft to fail")
	}
	if _, err := env.Engine.SubmitForecast(env.Ctx, tenant, f.ID, "tester"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := env.Engine.ApproveForecast(env.Ctx, tenant, f.ID, "", "boss"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	// a reason is mandatory
	var invalid engine.ValidationError
	_, err := env.Engine.OverrideForecast(env.Ctx, tenant, f.ID, decimal.NewFromInt(30), "", "boss")
	if !errors.As(err, &invalid) {
		t.Fatalf("expected validation error without comment, got %v", err)
	}
	f, err = env.Engine.OverrideForecast(env.Ctx, tenant, f.ID, decimal.NewFromInt(30), "budget cut", "boss")
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if f.Status != domain.StatusApproved {
		t.Fatalf("override must not change status, got %s", f.Status)
	}
	if f.OriginalForecastedHours == nil || !f.OriginalForecastedHours.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected original 40 preserved, got %+v", f.OriginalForecastedHours)
	}
	if f.OverriddenAt == nil || f.OverrideReason == nil || *f.OverrideReason != "budget cut" {
		t.Fatalf("expected override metadata recorded, got %+v", f)
	}
	// a second override keeps the first original
	f, err = env.Engine.OverrideForecast(env.Ctx, tenant, f.ID, decimal.NewFromInt(25), "deeper cut", "boss")
	if err != nil {
		t.Fatalf("second override: %v", err)
	}
	if !f.OriginalForecastedHours.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("original should stay 40, got %s", f.OriginalForecastedHours)
	}
	if f.OverrideReason == nil || *f.OverrideReason != "deeper cut" {
		t.Fatalf("expected latest reason, got %+v", f.OverrideReason)
	}
}

func TestBulkCreate(t *testing.T) {
	env := newTestEnv(t)
	v := mustVersion(t, env, "plan")
	existing := mustForecast(t, env, v.ID, "asmt-1", 40)
	if _, err := env.Engine.SubmitForecast(env.Ctx, tenant, existing.ID, "tester"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	mustForecast(t, env, v.ID, "asmt-2", 10)

	res, err := env.Engine.CreateBulk(env.Ctx, tenant, v.ID, []engine.BulkItem{
		{AssignmentID: "asmt-1", Year: 2025, Month: 7, Hours: decimal.NewFromInt(50)}, // submitted, skipped
		{AssignmentID: "asmt-2", Year: 2025, Month: 7, Hours: decimal.NewFromInt(12)}, // draft, updated
		{AssignmentID: "asmt-3", Year: 2025, Month: 7, Hours: decimal.NewFromInt(8)},  // new
		{AssignmentID: "asmt-4", Year: 2025, Month: 13, Hours: decimal.NewFromInt(8)}, // invalid month
	}, true, "tester")
	if err != nil {
		t.Fatalf("bulk: %v", err)
	}
	if res.CreatedCount != 1 || res.UpdatedCount != 1 || res.SkippedCount != 1 || res.FailedCount != 1 {
		t.Fatalf("unexpected counters %+v", res)
	}
	if got := res.CreatedCount + res.UpdatedCount + res.SkippedCount + res.FailedCount; got != res.TotalRequested {
		t.Fatalf("counters must add up to %d, got %d", res.TotalRequested, got)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected 1 error entry, got %v", res.Errors)
	}
}

func TestBulkCreateSkipsExistingByDefault(t *testing.T) {
	env := newTestEnv(t)
	v := mustVersion(t, env, "plan")
	existing := mustForecast(t, env, v.ID, "asmt-1", 40)

	items := []engine.BulkItem{
		{AssignmentID: "asmt-1", Year: 2025, Month: 7, Hours: decimal.NewFromInt(99)},
	}
	res, err := env.Engine.CreateBulk(env.Ctx, tenant, v.ID, items, false, "tester")
	if err != nil {
		t.Fatalf("bulk: %v", err)
	}
	if res.SkippedCount != 1 || res.UpdatedCount != 0 || res.CreatedCount != 0 {
		t.Fatalf("expected existing tuple skipped, got %+v", res)
	}
	got, err := env.Engine.GetForecast(env.Ctx, tenant, existing.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.ForecastedHours.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("hours must be untouched, got %s", got.ForecastedHours)
	}

	// opting in updates the draft row
	res, err = env.Engine.CreateBulk(env.Ctx, tenant, v.ID, items, true, "tester")
	if err != nil || res.UpdatedCount != 1 {
		t.Fatalf("expected update with opt-in: %v %+v", err, res)
	}
	// replaying the same payload changes nothing
	res, err = env.Engine.CreateBulk(env.Ctx, tenant, v.ID, items, true, "tester")
	if err != nil || res.SkippedCount != 1 {
		t.Fatalf("expected identical replay skipped: %v %+v", err, res)
	}
}

func TestBulkApprove(t *testing.T) {
	env := newTestEnv(t)
	v := mustVersion(t, env, "plan")
	a := mustForecast(t, env, v.ID, "asmt-1", 40)
	b := mustForecast(t, env, v.ID, "asmt-2", 20)
	if _, err := env.Engine.SubmitForecast(env.Ctx, tenant, a.ID, "tester"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	res, err := env.Engine.BulkApprove(env.Ctx, tenant, []string{a.ID, b.ID, "missing"}, "ok", "boss")
	if err != nil {
		t.Fatalf("bulk approve: %v", err)
	}
	if res.ApprovedCount != 1 || res.SkippedCount != 1 || res.FailedCount != 1 {
		t.Fatalf("unexpected counters %+v", res)
	}
}

func TestLockMonth(t *testing.T) {
	env := newTestEnv(t)
	v := mustVersion(t, env, "plan")
	a := mustForecast(t, env, v.ID, "asmt-1", 40)
	mustForecast(t, env, v.ID, "asmt-2", 20)
	if _, err := env.Engine.SubmitForecast(env.Ctx, tenant, a.ID, "tester"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	res, err := env.Engine.LockMonth(env.Ctx, engine.LockMonthOptions{
		TenantID: tenant, VersionID: v.ID, Year: 2025, Month: 7, Reason: "month closed", ActorID: "boss",
	})
	if err != nil {
		t.Fatalf("lock month: %v", err)
	}
	if res.TotalForecasts != 2 || res.LockedCount != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	items, err := env.Engine.History(env.Ctx, repo.HistoryFilters{TenantID: tenant, ForecastID: a.ID, ChangeType: domain.ChangeLocked})
	if err != nil || len(items) != 1 {
		t.Fatalf("expected one locked history row: %v %d", err, len(items))
	}
	if items[0].Comment != "month closed" {
		t.Fatalf("expected reason in history, got %q", items[0].Comment)
	}
	// idempotent: already locked rows are left alone
	res, err = env.Engine.LockMonth(env.Ctx, engine.LockMonthOptions{
		TenantID: tenant, VersionID: v.ID, Year: 2025, Month: 7, ActorID: "boss",
	})
	if err != nil || res.LockedCount != 0 {
		t.Fatalf("expected nothing left to lock: %v %+v", err, res)
	}
	got, err := env.Engine.GetForecast(env.Ctx, tenant, a.ID)
	if err != nil || got.Status != domain.StatusLocked {
		t.Fatalf("expected locked forecast: %v %+v", err, got)
	}
}

func TestLockMonthEmptyScope(t *testing.T) {
	env := newTestEnv(t)
	v := mustVersion(t, env, "plan")
	mustForecast(t, env, v.ID, "asmt-1", 40)
	// a month with no rows locks nothing and is not an error
	res, err := env.Engine.LockMonth(env.Ctx, engine.LockMonthOptions{
		TenantID: tenant, VersionID: v.ID, Year: 2025, Month: 12, ActorID: "boss",
	})
	if err != nil {
		t.Fatalf("lock month: %v", err)
	}
	if res.TotalForecasts != 0 || res.LockedCount != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestSummary(t *testing.T) {
	env := newTestEnv(t)
	v := mustVersion(t, env, "plan")
	a := mustForecast(t, env, v.ID, "asmt-1", 40)
	mustForecast(t, env, v.ID, "asmt-2", 20)
	if _, err := env.Engine.SubmitForecast(env.Ctx, tenant, a.ID, "tester"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := env.Engine.ApproveForecast(env.Ctx, tenant, a.ID, "", "boss"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	s, err := env.Engine.Summary(env.Ctx, repo.ForecastFilters{TenantID: tenant, VersionID: v.ID})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.TotalCount != 2 || s.DraftCount != 1 || s.ApprovedCount != 1 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if !s.TotalHours.Equal(decimal.NewFromInt(60)) || !s.ApprovedHours.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("unexpected hours %+v", s)
	}
}

func TestCompareVersions(t *testing.T) {
	env := newTestEnv(t)
	base := mustVersion(t, env, "base")
	mustForecast(t, env, base.ID, "asmt-1", 40)
	mustForecast(t, env, base.ID, "asmt-2", 20)

	other, err := env.Engine.CloneVersion(env.Ctx, engine.VersionCloneOptions{
		TenantID: tenant, SourceID: base.ID, Name: "other", ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	forecasts, err := env.Engine.ListForecasts(env.Ctx, repo.ForecastFilters{TenantID: tenant, VersionID: other.ID, AssignmentID: "asmt-1"})
	if err != nil || len(forecasts) != 1 {
		t.Fatalf("find clone: %v", err)
	}
	h := decimal.NewFromInt(50)
	if _, err := env.Engine.UpdateForecast(env.Ctx, engine.ForecastUpdateOptions{
		TenantID: tenant, ID: forecasts[0].ID, Hours: &h, ActorID: "tester",
	}); err != nil {
		t.Fatalf("update clone: %v", err)
	}
	if _, err := env.Engine.SubmitForecast(env.Ctx, tenant, forecasts[0].ID, "tester"); err != nil {
		t.Fatalf("submit clone: %v", err)
	}
	if _, err := env.Engine.ApproveForecast(env.Ctx, tenant, forecasts[0].ID, "", "boss"); err != nil {
		t.Fatalf("approve clone: %v", err)
	}
	if _, err := env.Engine.CreateForecast(env.Ctx, engine.ForecastCreateOptions{
		TenantID: tenant, VersionID: other.ID, AssignmentID: "asmt-3",
		Year: 2025, Month: 7, Hours: decimal.NewFromInt(15), ActorID: "tester",
	}); err != nil {
		t.Fatalf("create new in other: %v", err)
	}

	cmp, err := env.Engine.CompareVersions(env.Ctx, tenant, base.ID, other.ID)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if cmp.Summary.TotalItems != 3 || cmp.Summary.NewCount != 1 || cmp.Summary.ChangedCount != 1 || cmp.Summary.UnchangedCount != 1 {
		t.Fatalf("unexpected summary %+v", cmp.Summary)
	}
	// 50-40 changed plus 15 new
	if !cmp.Summary.TotalDifference.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected total difference 25, got %s", cmp.Summary.TotalDifference)
	}
	// 25 over a base of 60
	if !cmp.Summary.PercentChange.Round(2).Equal(decimal.NewFromFloat(41.67)) {
		t.Fatalf("expected 41.67%% change, got %s", cmp.Summary.PercentChange)
	}
	for _, it := range cmp.Items {
		if it.AssignmentID != "asmt-1" {
			continue
		}
		if it.BaseStatus == nil || *it.BaseStatus != domain.StatusDraft {
			t.Fatalf("expected base status draft, got %+v", it.BaseStatus)
		}
		if it.OtherStatus == nil || *it.OtherStatus != domain.StatusApproved {
			t.Fatalf("expected other status approved, got %+v", it.OtherStatus)
		}
	}
	if _, err := env.Engine.CompareVersions(env.Ctx, tenant, base.ID, base.ID); err == nil {
		t.Fatalf("expected self-compare to fail")
	}
}

func TestHistoryTrail(t *testing.T) {
	env := newTestEnv(t)
	v := mustVersion(t, env, "plan")
	f := mustForecast(t, env, v.ID, "asmt-1", 40)
	h := decimal.NewFromInt(32)
	if _, err := env.Engine.UpdateForecast(env.Ctx, engine.ForecastUpdateOptions{
		TenantID: tenant, ID: f.ID, Hours: &h, ActorID: "tester",
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := env.Engine.SubmitForecast(env.Ctx, tenant, f.ID, "tester"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := env.Engine.ApproveForecast(env.Ctx, tenant, f.ID, "fine", "boss"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	items, err := env.Engine.History(env.Ctx, repo.HistoryFilters{TenantID: tenant, ForecastID: f.ID})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("expected 4 history rows, got %d", len(items))
	}
	types := map[string]bool{}
	for _, it := range items {
		types[it.ChangeType] = true
	}
	for _, want := range []string{domain.ChangeCreated, domain.ChangeHoursUpdated, domain.ChangeSubmitted, domain.ChangeApproved} {
		if !types[want] {
			t.Fatalf("missing change type %s in %v", want, types)
		}
	}
	// approved records refuse even notes edits
	notes := "context"
	if _, err := env.Engine.UpdateForecast(env.Ctx, engine.ForecastUpdateOptions{
		TenantID: tenant, ID: f.ID, Notes: &notes, ActorID: "tester",
	}); err == nil {
		t.Fatalf("expected notes edit on approved forecast to fail")
	}
}

func TestRecommendedHours(t *testing.T) {
	env := newTestEnv(t)
	// June 2025 has 21 weekdays
	h, err := env.Engine.RecommendedHours(2025, 6)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if !h.Equal(decimal.NewFromInt(168)) {
		t.Fatalf("expected 168 hours, got %s", h)
	}
	env.Engine.Config.Forecasting.Holidays = []string{"2025-06-02"}
	h, err = env.Engine.RecommendedHours(2025, 6)
	if err != nil || !h.Equal(decimal.NewFromInt(160)) {
		t.Fatalf("expected 160 hours with holiday, got %s (%v)", h, err)
	}
	if _, err := env.Engine.RecommendedHours(2025, 0); err == nil {
		t.Fatalf("expected invalid month to fail")
	}
}

func TestVersionHistoryRows(t *testing.T) {
	env := newTestEnv(t)
	v := mustVersion(t, env, "plan")
	items, err := env.Engine.History(env.Ctx, repo.HistoryFilters{TenantID: tenant, VersionID: v.ID})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(items) != 1 || items[0].ChangeType != domain.ChangeVersionCreated {
		t.Fatalf("expected one version_created row, got %+v", items)
	}
	if _, err := env.Engine.PromoteVersion(env.Ctx, tenant, v.ID, "tester"); err != nil {
		t.Fatalf("promote: %v", err)
	}
	items, err = env.Engine.History(env.Ctx, repo.HistoryFilters{TenantID: tenant, VersionID: v.ID})
	if err != nil || len(items) != 2 {
		t.Fatalf("expected promote history row: %v %d", err, len(items))
	}
}
