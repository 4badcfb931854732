package engine

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"hourcast/internal/domain"
	"hourcast/internal/repo"
)

type compareKey struct {
	assignmentID string
	year         int
	month        int
}

type compareCell struct {
	hours  decimal.Decimal
	status string
}

var statusRank = map[string]int{
	domain.StatusDraft:     0,
	domain.StatusRejected:  1,
	domain.StatusSubmitted: 2,
	domain.StatusApproved:  3,
	domain.StatusLocked:    4,
}

// CompareVersions diffs two versions over the union of their
// (assignment, year, month) keys. Weekly rows are rolled up per month.
func (e Engine) CompareVersions(ctx context.Context, tenantID, baseID, otherID string) (domain.VersionComparison, error) {
	if baseID == otherID {
		return domain.VersionComparison{}, validationf("cannot compare a version with itself")
	}
	if _, err := e.Repo.GetVersion(ctx, tenantID, baseID); err != nil {
		return domain.VersionComparison{}, err
	}
	if _, err := e.Repo.GetVersion(ctx, tenantID, otherID); err != nil {
		return domain.VersionComparison{}, err
	}

	base, err := e.monthlyHours(ctx, tenantID, baseID)
	if err != nil {
		return domain.VersionComparison{}, err
	}
	other, err := e.monthlyHours(ctx, tenantID, otherID)
	if err != nil {
		return domain.VersionComparison{}, err
	}

	keys := map[compareKey]bool{}
	for k := range base {
		keys[k] = true
	}
	for k := range other {
		keys[k] = true
	}

	cmp := domain.VersionComparison{BaseVersionID: baseID, OtherVersionID: otherID}
	for k := range keys {
		item := domain.ComparisonItem{AssignmentID: k.assignmentID, Year: k.year, Month: k.month}
		baseCell, inBase := base[k]
		otherCell, inOther := other[k]
		switch {
		case inBase && inOther:
			item.BaseHours = &baseCell.hours
			item.BaseStatus = &baseCell.status
			item.OtherHours = &otherCell.hours
			item.OtherStatus = &otherCell.status
			item.HoursDifference = otherCell.hours.Sub(baseCell.hours)
			item.IsChanged = !item.HoursDifference.IsZero()
		case inOther:
			item.OtherHours = &otherCell.hours
			item.OtherStatus = &otherCell.status
			item.HoursDifference = otherCell.hours
			item.IsNew = true
		default:
			item.BaseHours = &baseCell.hours
			item.BaseStatus = &baseCell.status
			item.HoursDifference = baseCell.hours.Neg()
			item.IsRemoved = true
		}
		cmp.Items = append(cmp.Items, item)
	}
	sort.Slice(cmp.Items, func(i, j int) bool {
		a, b := cmp.Items[i], cmp.Items[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.AssignmentID < b.AssignmentID
	})

	s := &cmp.Summary
	s.TotalItems = len(cmp.Items)
	for _, item := range cmp.Items {
		switch {
		case item.IsNew:
			s.NewCount++
		case item.IsRemoved:
			s.RemovedCount++
		case item.IsChanged:
			s.ChangedCount++
		default:
			s.UnchangedCount++
		}
		if item.BaseHours != nil {
			s.BaseTotalHours = s.BaseTotalHours.Add(*item.BaseHours)
		}
		if item.OtherHours != nil {
			s.OtherTotalHours = s.OtherTotalHours.Add(*item.OtherHours)
		}
	}
	s.TotalDifference = s.OtherTotalHours.Sub(s.BaseTotalHours)
	switch {
	case !s.BaseTotalHours.IsZero():
		s.PercentChange = s.TotalDifference.Div(s.BaseTotalHours).Mul(decimal.NewFromInt(100))
	case !s.OtherTotalHours.IsZero():
		s.PercentChange = decimal.NewFromInt(100)
	}
	return cmp, nil
}

// monthlyHours rolls a version's rows up per (assignment, year, month).
// Weekly rows sum into their month; the cell status is the least advanced
// one among the rolled rows.
func (e Engine) monthlyHours(ctx context.Context, tenantID, versionID string) (map[compareKey]compareCell, error) {
	forecasts, err := e.Repo.ListForecasts(ctx, repo.ForecastFilters{TenantID: tenantID, VersionID: versionID})
	if err != nil {
		return nil, err
	}
	res := map[compareKey]compareCell{}
	for _, f := range forecasts {
		k := compareKey{assignmentID: f.AssignmentID, year: f.Year, month: f.Month}
		cell, seen := res[k]
		cell.hours = cell.hours.Add(f.ForecastedHours)
		if !seen || statusRank[f.Status] < statusRank[cell.status] {
			cell.status = f.Status
		}
		res[k] = cell
	}
	return res, nil
}
