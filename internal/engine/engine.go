package engine

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"hourcast/internal/config"
	"hourcast/internal/domain"
	"hourcast/internal/history"
	"hourcast/internal/repo"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Config *config.Config
	Log    zerolog.Logger
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config, log zerolog.Logger) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Config: cfg,
		Log:    log,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) nowRFC3339() string {
	return e.now().UTC().Format(time.RFC3339)
}

func (e Engine) history() history.Writer {
	return history.Writer{Repo: e.Repo, Now: e.Now}
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func validatePeriod(start, end *string) error {
	var s, t time.Time
	var err error
	if start != nil {
		if s, err = time.Parse("2006-01-02", *start); err != nil {
			return validationf("invalid period_start %q", *start)
		}
	}
	if end != nil {
		if t, err = time.Parse("2006-01-02", *end); err != nil {
			return validationf("invalid period_end %q", *end)
		}
	}
	if start != nil && end != nil && t.Before(s) {
		return validationf("period_end before period_start")
	}
	return nil
}

func validVersionType(t string) bool {
	switch t {
	case domain.VersionCurrent, domain.VersionWhatIf, domain.VersionHistorical, domain.VersionImport:
		return true
	}
	return false
}

// VersionCreateOptions are parameters for creating a forecast version.
type VersionCreateOptions struct {
	TenantID         string
	ProjectID        *string
	UserID           *string
	Name             string
	Description      string
	Type             string
	BasedOnVersionID *string
	PeriodStart      *string
	PeriodEnd        *string
	ActorID          string
}

func (e Engine) CreateVersion(ctx context.Context, opts VersionCreateOptions) (domain.ForecastVersion, error) {
	if opts.Name == "" {
		return domain.ForecastVersion{}, validationf("name is required")
	}
	if opts.Type == "" {
		opts.Type = domain.VersionWhatIf
	}
	if !validVersionType(opts.Type) {
		return domain.ForecastVersion{}, validationf("invalid version type %q", opts.Type)
	}
	if err := validatePeriod(opts.PeriodStart, opts.PeriodEnd); err != nil {
		return domain.ForecastVersion{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ForecastVersion{}, err
	}
	defer tx.Rollback()

	// based_on is a weak reference but must at least point at a real version
	if opts.BasedOnVersionID != nil {
		if _, err := e.Repo.GetVersionTx(ctx, tx, opts.TenantID, *opts.BasedOnVersionID); err != nil {
			if err == repo.ErrNotFound {
				return domain.ForecastVersion{}, validationf("based_on_version %s not found", *opts.BasedOnVersionID)
			}
			return domain.ForecastVersion{}, err
		}
	}
	maxNum, err := e.Repo.MaxVersionNumberTx(ctx, tx, opts.TenantID, opts.ProjectID, opts.UserID)
	if err != nil {
		return domain.ForecastVersion{}, err
	}
	now := e.nowRFC3339()
	v := domain.ForecastVersion{
		ID:               uuid.NewString(),
		TenantID:         opts.TenantID,
		ProjectID:        opts.ProjectID,
		UserID:           opts.UserID,
		Name:             opts.Name,
		Description:      opts.Description,
		Type:             opts.Type,
		VersionNumber:    maxNum + 1,
		BasedOnVersionID: opts.BasedOnVersionID,
		PeriodStart:      opts.PeriodStart,
		PeriodEnd:        opts.PeriodEnd,
		CreatedBy:        opts.ActorID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := e.Repo.InsertVersionTx(ctx, tx, v); err != nil {
		return domain.ForecastVersion{}, err
	}
	if err := e.history().Append(ctx, tx, v.TenantID, domain.ChangeVersionCreated, opts.ActorID, history.Change{
		VersionID: &v.ID,
		Comment:   v.Name,
	}); err != nil {
		return domain.ForecastVersion{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ForecastVersion{}, err
	}
	e.Log.Info().Str("tenant", v.TenantID).Str("version", v.ID).Int("number", v.VersionNumber).Msg("version created")
	return v, nil
}

func (e Engine) GetVersion(ctx context.Context, tenantID, id string) (domain.ForecastVersion, error) {
	return e.Repo.GetVersion(ctx, tenantID, id)
}

func (e Engine) ListVersions(ctx context.Context, f repo.VersionFilters) ([]domain.ForecastVersion, error) {
	return e.Repo.ListVersions(ctx, f)
}

// CurrentVersion returns the scope's current version, creating a default one
// when the scope has none yet.
func (e Engine) CurrentVersion(ctx context.Context, tenantID string, projectID *string, actorID string) (domain.ForecastVersion, error) {
	v, err := e.Repo.CurrentVersion(ctx, tenantID, projectID)
	if err == nil {
		return v, nil
	}
	if err != repo.ErrNotFound {
		return domain.ForecastVersion{}, err
	}

	name := "Current Forecast"
	if e.Config != nil && e.Config.Forecasting.DefaultVersionName != "" {
		name = e.Config.Forecasting.DefaultVersionName
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ForecastVersion{}, err
	}
	defer tx.Rollback()

	maxNum, err := e.Repo.MaxVersionNumberTx(ctx, tx, tenantID, projectID, nil)
	if err != nil {
		return domain.ForecastVersion{}, err
	}
	now := e.nowRFC3339()
	v = domain.ForecastVersion{
		ID:            uuid.NewString(),
		TenantID:      tenantID,
		ProjectID:     projectID,
		Name:          name,
		Type:          domain.VersionCurrent,
		VersionNumber: maxNum + 1,
		IsCurrent:     true,
		CreatedBy:     actorID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := e.Repo.InsertVersionTx(ctx, tx, v); err != nil {
		if err == repo.ErrDuplicate {
			// concurrent auto-create lost the race; read the winner
			return e.Repo.CurrentVersion(ctx, tenantID, projectID)
		}
		return domain.ForecastVersion{}, err
	}
	if err := e.history().Append(ctx, tx, tenantID, domain.ChangeVersionCreated, actorID, history.Change{
		VersionID: &v.ID,
		Comment:   v.Name,
	}); err != nil {
		return domain.ForecastVersion{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ForecastVersion{}, err
	}
	e.Log.Info().Str("tenant", tenantID).Str("version", v.ID).Msg("default current version created")
	return v, nil
}

// VersionUpdateOptions carries the mutable version fields; nil means keep.
type VersionUpdateOptions struct {
	TenantID    string
	ID          string
	Name        *string
	Description *string
	PeriodStart *string
	PeriodEnd   *string
	ActorID     string
}

func (e Engine) UpdateVersion(ctx context.Context, opts VersionUpdateOptions) (domain.ForecastVersion, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ForecastVersion{}, err
	}
	defer tx.Rollback()

	v, err := e.Repo.GetVersionTx(ctx, tx, opts.TenantID, opts.ID)
	if err != nil {
		return domain.ForecastVersion{}, err
	}
	if v.ArchivedAt != nil {
		return domain.ForecastVersion{}, invalidStatef("version %s is archived", v.ID)
	}
	if opts.Name != nil {
		if *opts.Name == "" {
			return domain.ForecastVersion{}, validationf("name cannot be empty")
		}
		v.Name = *opts.Name
	}
	if opts.Description != nil {
		v.Description = *opts.Description
	}
	if opts.PeriodStart != nil {
		v.PeriodStart = optionalString(*opts.PeriodStart)
	}
	if opts.PeriodEnd != nil {
		v.PeriodEnd = optionalString(*opts.PeriodEnd)
	}
	if err := validatePeriod(v.PeriodStart, v.PeriodEnd); err != nil {
		return domain.ForecastVersion{}, err
	}
	v.UpdatedAt = e.nowRFC3339()
	if err := e.Repo.UpdateVersionTx(ctx, tx, v); err != nil {
		return domain.ForecastVersion{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ForecastVersion{}, err
	}
	return v, nil
}

// VersionCloneOptions are parameters for cloning a version. An empty Type
// defaults to what_if; SkipForecasts clones the metadata only.
type VersionCloneOptions struct {
	TenantID      string
	SourceID      string
	Name          string
	Description   string
	Type          string
	SkipForecasts bool
	ActorID       string
}

// CloneVersion copies a version, and by default its forecasts, into a fresh
// draft. The current type is reserved for promotion.
func (e Engine) CloneVersion(ctx context.Context, opts VersionCloneOptions) (domain.ForecastVersion, error) {
	if opts.Name == "" {
		return domain.ForecastVersion{}, validationf("name is required")
	}
	if opts.Type == "" {
		opts.Type = domain.VersionWhatIf
	}
	if !validVersionType(opts.Type) || opts.Type == domain.VersionCurrent {
		return domain.ForecastVersion{}, validationf("invalid clone type %q", opts.Type)
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ForecastVersion{}, err
	}
	defer tx.Rollback()

	src, err := e.Repo.GetVersionTx(ctx, tx, opts.TenantID, opts.SourceID)
	if err != nil {
		return domain.ForecastVersion{}, err
	}
	if src.ArchivedAt != nil {
		return domain.ForecastVersion{}, invalidStatef("version %s is archived", src.ID)
	}
	maxNum, err := e.Repo.MaxVersionNumberTx(ctx, tx, opts.TenantID, src.ProjectID, src.UserID)
	if err != nil {
		return domain.ForecastVersion{}, err
	}
	now := e.nowRFC3339()
	clone := domain.ForecastVersion{
		ID:               uuid.NewString(),
		TenantID:         opts.TenantID,
		ProjectID:        src.ProjectID,
		UserID:           src.UserID,
		Name:             opts.Name,
		Description:      opts.Description,
		Type:             opts.Type,
		VersionNumber:    maxNum + 1,
		BasedOnVersionID: &src.ID,
		PeriodStart:      src.PeriodStart,
		PeriodEnd:        src.PeriodEnd,
		CreatedBy:        opts.ActorID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := e.Repo.InsertVersionTx(ctx, tx, clone); err != nil {
		return domain.ForecastVersion{}, err
	}

	copied := 0
	if !opts.SkipForecasts {
		forecasts, err := e.Repo.ListForecastsTx(ctx, tx, repo.ForecastFilters{TenantID: opts.TenantID, VersionID: src.ID})
		if err != nil {
			return domain.ForecastVersion{}, err
		}
		for _, f := range forecasts {
			fc := domain.Forecast{
				ID:              uuid.NewString(),
				TenantID:        opts.TenantID,
				VersionID:       clone.ID,
				AssignmentID:    f.AssignmentID,
				ProjectID:       f.ProjectID,
				PersonID:        f.PersonID,
				Year:            f.Year,
				Month:           f.Month,
				Week:            f.Week,
				ForecastedHours: f.ForecastedHours,
				Status:          domain.StatusDraft,
				Notes:           f.Notes,
				RowVersion:      1,
				CreatedBy:       opts.ActorID,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := e.Repo.InsertForecastTx(ctx, tx, fc); err != nil {
				return domain.ForecastVersion{}, err
			}
		}
		copied = len(forecasts)
	}
	if err := e.history().Append(ctx, tx, opts.TenantID, domain.ChangeVersionCreated, opts.ActorID, history.Change{
		VersionID: &clone.ID,
		Comment:   "cloned from " + src.Name,
	}); err != nil {
		return domain.ForecastVersion{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ForecastVersion{}, err
	}
	e.Log.Info().Str("tenant", opts.TenantID).Str("version", clone.ID).Str("source", src.ID).
		Int("forecasts", copied).Msg("version cloned")
	return clone, nil
}

// PromoteVersion demotes the scope's current version and promotes the target
// in a single transaction.
func (e Engine) PromoteVersion(ctx context.Context, tenantID, id, actorID string) (domain.ForecastVersion, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ForecastVersion{}, err
	}
	defer tx.Rollback()

	v, err := e.Repo.GetVersionTx(ctx, tx, tenantID, id)
	if err != nil {
		return domain.ForecastVersion{}, err
	}
	if v.IsCurrent {
		return domain.ForecastVersion{}, invalidStatef("version %s is already current", v.ID)
	}
	if v.ArchivedAt != nil {
		return domain.ForecastVersion{}, invalidStatef("version %s is archived", v.ID)
	}
	now := e.nowRFC3339()
	if err := e.Repo.ClearCurrentTx(ctx, tx, tenantID, v.ProjectID, now); err != nil {
		return domain.ForecastVersion{}, err
	}
	if err := e.Repo.MarkPromotedTx(ctx, tx, tenantID, v.ID, now); err != nil {
		return domain.ForecastVersion{}, err
	}
	if err := e.history().Append(ctx, tx, tenantID, domain.ChangeVersionPromoted, actorID, history.Change{
		VersionID: &v.ID,
		Comment:   v.Name,
	}); err != nil {
		return domain.ForecastVersion{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ForecastVersion{}, err
	}
	e.Log.Info().Str("tenant", tenantID).Str("version", v.ID).Msg("version promoted")
	return e.Repo.GetVersion(ctx, tenantID, v.ID)
}

func (e Engine) ArchiveVersion(ctx context.Context, tenantID, id, reason, actorID string) (domain.ForecastVersion, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ForecastVersion{}, err
	}
	defer tx.Rollback()

	v, err := e.Repo.GetVersionTx(ctx, tx, tenantID, id)
	if err != nil {
		return domain.ForecastVersion{}, err
	}
	if v.IsCurrent {
		return domain.ForecastVersion{}, invalidStatef("cannot archive the current version")
	}
	if v.ArchivedAt != nil {
		return domain.ForecastVersion{}, invalidStatef("version %s is already archived", v.ID)
	}
	now := e.nowRFC3339()
	if err := e.Repo.ArchiveVersionTx(ctx, tx, tenantID, v.ID, now, reason); err != nil {
		return domain.ForecastVersion{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ForecastVersion{}, err
	}
	e.Log.Info().Str("tenant", tenantID).Str("version", v.ID).Msg("version archived")
	return e.Repo.GetVersion(ctx, tenantID, v.ID)
}

// DeleteVersion removes a version that is not current and holds only drafts.
func (e Engine) DeleteVersion(ctx context.Context, tenantID, id, actorID string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	v, err := e.Repo.GetVersionTx(ctx, tx, tenantID, id)
	if err != nil {
		return err
	}
	if v.IsCurrent {
		return invalidStatef("cannot delete the current version")
	}
	counts, err := e.Repo.CountForecastsByStatusTx(ctx, tx, v.ID)
	if err != nil {
		return err
	}
	for status, n := range counts {
		if status != domain.StatusDraft && n > 0 {
			return invalidStatef("version %s has %d %s forecasts", v.ID, n, status)
		}
	}
	if _, err := e.Repo.DeleteForecastsForVersionTx(ctx, tx, v.ID); err != nil {
		return err
	}
	if err := e.Repo.DeleteVersionTx(ctx, tx, tenantID, v.ID); err != nil {
		return err
	}
	if err := e.history().Append(ctx, tx, tenantID, domain.ChangeVersionDeleted, actorID, history.Change{
		VersionID: &v.ID,
		Comment:   v.Name,
	}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	e.Log.Info().Str("tenant", tenantID).Str("version", v.ID).Msg("version deleted")
	return nil
}
