package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"

	"hourcast/internal/domain"
	"hourcast/internal/engine"
	"hourcast/internal/engine/auth"
	"hourcast/internal/repo"
)

type forecastListQuery struct {
	VersionID    string `query:"version_id"`
	AssignmentID string `query:"assignment_id"`
	ProjectID    string `query:"project_id"`
	PersonID     string `query:"person_id"`
	Status       string `query:"status" enum:",draft,submitted,approved,rejected,locked"`
	Year         int    `query:"year"`
	Month        int    `query:"month"`
	Limit        int    `query:"limit" default:"50"`
	Cursor       string `query:"cursor"`
}

func (q forecastListQuery) filters(tenant string) repo.ForecastFilters {
	return repo.ForecastFilters{
		TenantID:     tenant,
		VersionID:    q.VersionID,
		AssignmentID: q.AssignmentID,
		ProjectID:    q.ProjectID,
		PersonID:     q.PersonID,
		Status:       q.Status,
		Year:         q.Year,
		Month:        q.Month,
	}
}

func registerForecasts(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-forecast",
		Method:        http.MethodPost,
		Path:          "/forecasts",
		Summary:       "Create forecast",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateForecastRequest `json:"body"`
	}) (*struct {
		Body domain.Forecast `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, auth.PermForecastWrite); err != nil {
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
		f, err := e.CreateForecast(ctx, engine.ForecastCreateOptions{
			TenantID:     tenant,
			VersionID:    input.Body.VersionID,
			AssignmentID: input.Body.AssignmentID,
			ProjectID:    input.Body.ProjectID,
			PersonID:     input.Body.PersonID,
			Year:         input.Body.Year,
			Month:        input.Body.Month,
			Week:         input.Body.Week,
			Hours:        decimal.NewFromFloat(input.Body.ForecastedHours),
			Notes:        input.Body.Notes,
			ActorID:      actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Forecast `json:"body"`
		}{Body: f}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-forecasts",
		Method:      http.MethodGet,
		Path:        "/forecasts",
		Summary:     "List forecasts",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *forecastListQuery) (*struct {
		Body paginatedForecasts `json:"body"`
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
		f := input.filters(tenant)
		f.Limit = limit + 1
		f.CursorCreatedAt = cursorCreated
		f.CursorID = cursorID
		items, err := e.ListForecasts(ctx, f)
		if err != nil {
			return nil, handleError(err)
		}
		resp := paginatedForecasts{Items: []domain.Forecast{}}
		if len(items) > limit {
			items = items[:limit]
			resp.NextCursor = composeCursor(items[limit-1].CreatedAt, items[limit-1].ID)
		}
		resp.Items = items
		return &struct {
			Body paginatedForecasts `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "my-forecasts",
		Method:      http.MethodGet,
		Path:        "/forecasts/my-forecasts",
		Summary:     "List the caller's forecasts",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		PersonID  string `query:"person_id"`
		VersionID string `query:"version_id"`
		Year      int    `query:"year"`
		Month     int    `query:"month"`
	}) (*struct {
		Body []domain.Forecast `json:"body"`
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
		personID := input.PersonID
		if personID == "" {
			personID = actorID
		}
		items, err := e.MyForecasts(ctx, repo.ForecastFilters{
			TenantID:  tenant,
			VersionID: input.VersionID,
			Year:      input.Year,
			Month:     input.Month,
		}, personID)
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.Forecast{}
		}
		return &struct {
			Body []domain.Forecast `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "forecast-summary",
		Method:      http.MethodGet,
		Path:        "/forecasts/summary",
		Summary:     "Summarize forecasts by status",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *forecastListQuery) (*struct {
		Body domain.ForecastSummary `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, auth.PermForecastRead); err != nil {
			return nil, handleError(err)
		}
		tenant, err := tenantID(ctx, e)
		if err != nil {
			return nil, handleError(err)
		}
		s, err := e.Summary(ctx, input.filters(tenant))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ForecastSummary `json:"body"`
		}{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "recommended-hours",
		Method:      http.MethodGet,
		Path:        "/forecasts/recommended-hours",
		Summary:     "Recommended hours for a month",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Year  int `query:"year" required:"true"`
		Month int `query:"month" required:"true"`
	}) (*struct {
		Body map[string]any `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, auth.PermForecastRead); err != nil {
			return nil, handleError(err)
		}
		hours, err := e.RecommendedHours(input.Year, input.Month)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]any `json:"body"`
		}{Body: map[string]any{
			"year":              input.Year,
			"month":             input.Month,
			"recommended_hours": hours,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-forecast",
		Method:      http.MethodGet,
		Path:        "/forecasts/{id}",
		Summary:     "Get forecast",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body domain.Forecast `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, auth.PermForecastRead); err != nil {
			return nil, handleError(err)
		}
		tenant, err := tenantID(ctx, e)
		if err != nil {
			return nil, handleError(err)
		}
		f, err := e.GetForecast(ctx, tenant, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Forecast `json:"body"`
		}{Body: f}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-forecast",
		Method:      http.MethodPatch,
		Path:        "/forecasts/{id}",
		Summary:     "Update forecast",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		ID   string                `path:"id"`
		Body UpdateForecastRequest `json:"body"`
	}) (*struct {
		Body domain.Forecast `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, auth.PermForecastWrite); err != nil {
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
		opts := engine.ForecastUpdateOptions{
			TenantID:   tenant,
			ID:         input.ID,
			Notes:      input.Body.Notes,
			RowVersion: input.Body.RowVersion,
			ActorID:    actorID,
		}
		if input.Body.ForecastedHours != nil {
			h := decimal.NewFromFloat(*input.Body.ForecastedHours)
			opts.Hours = &h
		}
		f, err := e.UpdateForecast(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Forecast `json:"body"`
		}{Body: f}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-forecast",
		Method:      http.MethodDelete,
		Path:        "/forecasts/{id}",
		Summary:     "Delete draft forecast",
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		if err := requirePermission(ctx, e, auth.PermForecastWrite); err != nil {
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
		if err := e.DeleteForecast(ctx, tenant, input.ID, actorID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	registerForecastWorkflow(api, e)
	registerForecastBulk(api, e)
}

func registerForecastWorkflow(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "submit-forecast",
		Method:      http.MethodPost,
		Path:        "/forecasts/{id}/submit",
		Summary:     "Submit forecast for approval",
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body domain.Forecast `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, auth.PermForecastSubmit); err != nil {
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
		f, err := e.SubmitForecast(ctx, tenant, input.ID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Forecast `json:"body"`
		}{Body: f}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-forecast",
		Method:      http.MethodPost,
		Path:        "/forecasts/{id}/approve",
		Summary:     "Approve submitted forecast",
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		ID   string                 `path:"id"`
		Body ApproveForecastRequest `json:"body"`
	}) (*struct {
		Body domain.Forecast `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, auth.PermForecastApprove); err != nil {
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
		f, err := e.ApproveForecast(ctx, tenant, input.ID, input.Body.Comment, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Forecast `json:"body"`
		}{Body: f}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reject-forecast",
		Method:      http.MethodPost,
		Path:        "/forecasts/{id}/reject",
		Summary:     "Reject submitted forecast",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		ID   string                `path:"id"`
		Body RejectForecastRequest `json:"body"`
	}) (*struct {
		Body domain.Forecast `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, auth.PermForecastApprove); err != nil {
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
		f, err := e.RejectForecast(ctx, tenant, input.ID, input.Body.Comment, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Forecast `json:"body"`
		}{Body: f}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "override-forecast",
		Method:      http.MethodPost,
		Path:        "/forecasts/{id}/override",
		Summary:     "Override hours on an approved or locked forecast",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		ID   string                  `path:"id"`
		Body OverrideForecastRequest `json:"body"`
	}) (*struct {
		Body domain.Forecast `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, auth.PermForecastOverride); err != nil {
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
		f, err := e.OverrideForecast(ctx, tenant, input.ID, decimal.NewFromFloat(input.Body.ForecastedHours), input.Body.Comment, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Forecast `json:"body"`
		}{Body: f}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "forecast-history",
		Method:      http.MethodGet,
		Path:        "/forecasts/{id}/history",
		Summary:     "Forecast change history",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID    string `path:"id"`
		Limit int    `query:"limit" default:"100"`
	}) (*struct {
		Body []domain.ForecastHistoryItem `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, auth.PermForecastRead); err != nil {
			return nil, handleError(err)
		}
		tenant, err := tenantID(ctx, e)
		if err != nil {
			return nil, handleError(err)
		}
		if _, err := e.GetForecast(ctx, tenant, input.ID); err != nil {
			return nil, handleError(err)
		}
		items, err := e.History(ctx, repo.HistoryFilters{
			TenantID:   tenant,
			ForecastID: input.ID,
			Limit:      normalizeLimit(input.Limit),
		})
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.ForecastHistoryItem{}
		}
		return &struct {
			Body []domain.ForecastHistoryItem `json:"body"`
		}{Body: items}, nil
	})
}

func registerForecastBulk(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "bulk-create-forecasts",
		Method:      http.MethodPost,
		Path:        "/forecasts/bulk",
		Summary:     "Bulk create forecasts",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		Body BulkCreateRequest `json:"body"`
	}) (*struct {
		Body domain.BulkResult `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, auth.PermForecastWrite); err != nil {
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
		items := make([]engine.BulkItem, 0, len(input.Body.Items))
		for _, it := range input.Body.Items {
			items = append(items, engine.BulkItem{
				AssignmentID: it.AssignmentID,
				ProjectID:    it.ProjectID,
				PersonID:     it.PersonID,
				Year:         it.Year,
				Month:        it.Month,
				Week:         it.Week,
				Hours:        decimal.NewFromFloat(it.ForecastedHours),
				Notes:        it.Notes,
			})
		}
		res, err := e.CreateBulk(ctx, tenant, input.Body.VersionID, items, input.Body.UpdateExisting, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.BulkResult `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "bulk-approve-forecasts",
		Method:      http.MethodPost,
		Path:        "/forecasts/bulk-approve",
		Summary:     "Bulk approve forecasts",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
		},
	}, func(ctx context.Context, input *struct {
		Body BulkApproveRequest `json:"body"`
	}) (*struct {
		Body domain.BulkApprovalResult `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, auth.PermForecastApprove); err != nil {
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
		res, err := e.BulkApprove(ctx, tenant, input.Body.ForecastIDs, input.Body.Comment, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.BulkApprovalResult `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "lock-month",
		Method:      http.MethodPost,
		Path:        "/forecasts/lock-month",
		Summary:     "Lock all forecasts for a month",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		Body LockMonthRequest `json:"body"`
	}) (*struct {
		Body domain.LockMonthResult `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, auth.PermForecastLock); err != nil {
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
		res, err := e.LockMonth(ctx, engine.LockMonthOptions{
			TenantID:  tenant,
			VersionID: input.Body.VersionID,
			ProjectID: input.Body.ProjectID,
			Year:      input.Body.Year,
			Month:     input.Body.Month,
			Reason:    input.Body.Reason,
			ActorID:   actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.LockMonthResult `json:"body"`
		}{Body: res}, nil
	})
}
