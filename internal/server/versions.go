package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"hourcast/internal/domain"
	"hourcast/internal/engine"
	"hourcast/internal/engine/auth"
	"hourcast/internal/repo"
)

func registerVersions(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-version",
		Method:        http.MethodPost,
		Path:          "/forecast-versions",
		Summary:       "Create forecast version",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateVersionRequest `json:"body"`
	}) (*struct {
		Body domain.ForecastVersion `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, auth.PermVersionManage); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		tenant, err := tenantID(ctx, e)
		if err != nil {
			return nil, handleError(err)
		}
		v, err := e.CreateVersion(ctx, engine.VersionCreateOptions{
			TenantID:         tenant,
			ProjectID:        input.Body.ProjectID,
			UserID:           input.Body.UserID,
			Name:             input.Body.Name,
			Description:      input.Body.Description,
			Type:             input.Body.Type,
			BasedOnVersionID: input.Body.BasedOnVersionID,
			PeriodStart:      input.Body.PeriodStart,
			PeriodEnd:        input.Body.PeriodEnd,
			ActorID:          actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ForecastVersion `json:"body"`
		}{Body: v}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-versions",
		Method:      http.MethodGet,
		Path:        "/forecast-versions",
		Summary:     "List forecast versions",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		ProjectID       string `query:"project_id"`
		Type            string `query:"type" enum:",current,what_if,historical,import"`
		IncludeArchived bool   `query:"include_archived"`
		Limit           int    `query:"limit" default:"50"`
		Cursor          string `query:"cursor"`
	}) (*struct {
		Body paginatedVersions `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, auth.PermForecastRead); err != nil {
			return nil, handleError(err)
		}
		tenant, err := tenantID(ctx, e)
		if err != nil {
			return nil, handleError(err)
		}
		limit := normalizeLimit(input.Limit)
		cursorCreated, cursorID, err := parseCompositeCursor(input.Cursor)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "validation_error", "invalid cursor", map[string]any{"cursor": input.Cursor})
		}
		f := repo.VersionFilters{
			TenantID:        tenant,
			Type:            input.Type,
			IncludeArchived: input.IncludeArchived,
			Limit:           limit + 1,
			CursorCreatedAt: cursorCreated,
			CursorID:        cursorID,
		}
		if input.ProjectID != "" {
			f.ProjectID = &input.ProjectID
		}
		items, err := e.ListVersions(ctx, f)
		if err != nil {
			return nil, handleError(err)
		}
		resp := paginatedVersions{Items: []domain.ForecastVersion{}}
		if len(items) > limit {
			items = items[:limit]
			resp.NextCursor = composeCursor(items[limit-1].CreatedAt, items[limit-1].ID)
		}
		resp.Items = items
		return &struct {
			Body paginatedVersions `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-current-version",
		Method:      http.MethodGet,
		Path:        "/forecast-versions/current",
		Summary:     "Get or create the current version",
	}, func(ctx context.Context, input *struct {
		ProjectID string `query:"project_id"`
	}) (*struct {
		Body domain.ForecastVersion `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, auth.PermForecastRead); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		tenant, err := tenantID(ctx, e)
		if err != nil {
			return nil, handleError(err)
		}
		var projectID *string
		if input.ProjectID != "" {
			projectID = &input.ProjectID
		}
		v, err := e.CurrentVersion(ctx, tenant, projectID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ForecastVersion `json:"body"`
		}{Body: v}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/forecast-versions/{id}",
		Summary:     "Get forecast version",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body domain.ForecastVersion `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, auth.PermForecastRead); err != nil {
			return nil, handleError(err)
		}
		tenant, err := tenantID(ctx, e)
		if err != nil {
			return nil, handleError(err)
		}
		v, err := e.GetVersion(ctx, tenant, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ForecastVersion `json:"body"`
		}{Body: v}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-version",
		Method:      http.MethodPatch,
		Path:        "/forecast-versions/{id}",
		Summary:     "Update forecast version",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		ID   string               `path:"id"`
		Body UpdateVersionRequest `json:"body"`
	}) (*struct {
		Body domain.ForecastVersion `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, auth.PermVersionManage); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		tenant, err := tenantID(ctx, e)
		if err != nil {
			return nil, handleError(err)
		}
		v, err := e.UpdateVersion(ctx, engine.VersionUpdateOptions{
			TenantID:    tenant,
			ID:          input.ID,
			Name:        input.Body.Name,
			Description: input.Body.Description,
			PeriodStart: input.Body.PeriodStart,
			PeriodEnd:   input.Body.PeriodEnd,
			ActorID:     actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ForecastVersion `json:"body"`
		}{Body: v}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "clone-version",
		Method:        http.MethodPost,
		Path:          "/forecast-versions/{id}/clone",
		Summary:       "Clone forecast version",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   string              `path:"id"`
		Body CloneVersionRequest `json:"body"`
	}) (*struct {
		Body domain.ForecastVersion `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, auth.PermVersionManage); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		tenant, err := tenantID(ctx, e)
		if err != nil {
			return nil, handleError(err)
		}
		skip := input.Body.CopyForecasts != nil && !*input.Body.CopyForecasts
		v, err := e.CloneVersion(ctx, engine.VersionCloneOptions{
			TenantID:      tenant,
			SourceID:      input.ID,
			Name:          input.Body.Name,
			Description:   input.Body.Description,
			Type:          input.Body.Type,
			SkipForecasts: skip,
			ActorID:       actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ForecastVersion `json:"body"`
		}{Body: v}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "promote-version",
		Method:      http.MethodPost,
		Path:        "/forecast-versions/{id}/promote",
		Summary:     "Promote version to current",
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body domain.ForecastVersion `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, auth.PermVersionPromote); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		tenant, err := tenantID(ctx, e)
		if err != nil {
			return nil, handleError(err)
		}
		v, err := e.PromoteVersion(ctx, tenant, input.ID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ForecastVersion `json:"body"`
		}{Body: v}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "archive-version",
		Method:      http.MethodPost,
		Path:        "/forecast-versions/{id}/archive",
		Summary:     "Archive forecast version",
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		ID   string                `path:"id"`
		Body ArchiveVersionRequest `json:"body"`
	}) (*struct {
		Body domain.ForecastVersion `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, auth.PermVersionManage); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		tenant, err := tenantID(ctx, e)
		if err != nil {
			return nil, handleError(err)
		}
		v, err := e.ArchiveVersion(ctx, tenant, input.ID, input.Body.Reason, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ForecastVersion `json:"body"`
		}{Body: v}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-version",
		Method:      http.MethodDelete,
		Path:        "/forecast-versions/{id}",
		Summary:     "Delete forecast version",
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		if err := requirePermission(ctx, e, auth.PermVersionManage); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		tenant, err := tenantID(ctx, e)
		if err != nil {
			return nil, handleError(err)
		}
		if err := e.DeleteVersion(ctx, tenant, input.ID, actorID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "compare-versions",
		Method:      http.MethodGet,
		Path:        "/forecast-versions/{id}/compare/{other_id}",
		Summary:     "Compare two forecast versions",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID      string `path:"id"`
		OtherID string `path:"other_id"`
	}) (*struct {
		Body domain.VersionComparison `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, auth.PermForecastRead); err != nil {
			return nil, handleError(err)
		}
		tenant, err := tenantID(ctx, e)
		if err != nil {
			return nil, handleError(err)
		}
		cmp, err := e.CompareVersions(ctx, tenant, input.ID, input.OtherID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.VersionComparison `json:"body"`
		}{Body: cmp}, nil
	})
}
