package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hourcast/internal/engine"
	"hourcast/internal/repo"
)

func forecastCmd() *cobra.Command {
	f := &cobra.Command{
		Use:   "forecast",
		Short: "Manage forecasts",
		Long:  "Forecasts are predicted hours per assignment and month. They flow draft -> submitted -> approved -> locked; rejected forecasts return to draft when edited.",
	}
	f.AddCommand(forecastCreateCmd())
	f.AddCommand(forecastListCmd())
	f.AddCommand(forecastShowCmd())
	f.AddCommand(forecastSetCmd())
	f.AddCommand(forecastDeleteCmd())
	f.AddCommand(forecastSubmitCmd())
	f.AddCommand(forecastApproveCmd())
	f.AddCommand(forecastRejectCmd())
	f.AddCommand(forecastLockCmd())
	f.AddCommand(forecastOverrideCmd())
	f.AddCommand(forecastLockMonthCmd())
	f.AddCommand(forecastSummaryCmd())
	f.AddCommand(forecastHistoryCmd())
	f.AddCommand(forecastRecommendCmd())
	return f
}

func parseHours(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid hours %q", s)
	}
	return d, nil
}

func forecastCreateCmd() *cobra.Command {
	var versionID, assignmentID, projectID, personID, hours, notes string
	var year, month, week int
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a forecast",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := parseHours(hours)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.ForecastCreateOptions{
					TenantID:     e.Config.Tenant.ID,
					VersionID:    versionID,
					AssignmentID: assignmentID,
					ProjectID:    optionalString(projectID),
					PersonID:     optionalString(personID),
					Year:         year,
					Month:        month,
					Hours:        h,
					Notes:        notes,
					ActorID:      viper.GetString("actor-id"),
				}
				if cmd.Flags().Changed("week") {
					opts.Week = &week
				}
				f, err := e.CreateForecast(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(f)
			})
		},
	}
	cmd.Flags().StringVar(&versionID, "version", "", "version id")
	cmd.Flags().StringVar(&assignmentID, "assignment", "", "assignment id")
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	cmd.Flags().StringVar(&personID, "person", "", "person id")
	cmd.Flags().IntVar(&year, "year", 0, "year")
	cmd.Flags().IntVar(&month, "month", 0, "month (1-12)")
	cmd.Flags().IntVar(&week, "week", 0, "ISO week (optional)")
	cmd.Flags().StringVar(&hours, "hours", "", "forecasted hours")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	_ = cmd.MarkFlagRequired("version")
	_ = cmd.MarkFlagRequired("assignment")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("month")
	_ = cmd.MarkFlagRequired("hours")
	return cmd
}

func forecastListCmd() *cobra.Command {
	var f repo.ForecastFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List forecasts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				f.TenantID = e.Config.Tenant.ID
				items, err := e.ListForecasts(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Assignment", "Period", "Hours", "Status"})
				for _, it := range items {
					period := fmt.Sprintf("%d-%02d", it.Year, it.Month)
					if it.Week != nil {
						period = fmt.Sprintf("%s W%02d", period, *it.Week)
					}
					tw.AppendRow(table.Row{it.ID, it.AssignmentID, period, it.ForecastedHours.String(), it.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.VersionID, "version", "", "version filter")
	cmd.Flags().StringVar(&f.AssignmentID, "assignment", "", "assignment filter")
	cmd.Flags().StringVar(&f.ProjectID, "project", "", "project filter")
	cmd.Flags().StringVar(&f.PersonID, "person", "", "person filter")
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter")
	cmd.Flags().IntVar(&f.Year, "year", 0, "year filter")
	cmd.Flags().IntVar(&f.Month, "month", 0, "month filter")
	return cmd
}

func forecastShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a forecast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				f, err := e.GetForecast(ctx, e.Config.Tenant.ID, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(f)
			})
		},
	}
}

func forecastSetCmd() *cobra.Command {
	var hours, notes string
	var rowVersion int64
	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Update hours or notes on a forecast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.ForecastUpdateOptions{
					TenantID:   e.Config.Tenant.ID,
					ID:         args[0],
					RowVersion: rowVersion,
					ActorID:    viper.GetString("actor-id"),
				}
				if cmd.Flags().Changed("hours") {
					h, err := parseHours(hours)
					if err != nil {
						return err
					}
					opts.Hours = &h
				}
				if cmd.Flags().Changed("notes") {
					opts.Notes = &notes
				}
				f, err := e.UpdateForecast(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(f)
			})
		},
	}
	cmd.Flags().StringVar(&hours, "hours", "", "forecasted hours")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	cmd.Flags().Int64Var(&rowVersion, "row-version", 0, "expected row version (0 skips the check)")
	return cmd
}

func forecastDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a draft forecast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteForecast(ctx, e.Config.Tenant.ID, args[0], viper.GetString("actor-id"))
			})
		},
	}
}

func forecastSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <id>",
		Short: "Submit a draft forecast for approval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				f, err := e.SubmitForecast(ctx, e.Config.Tenant.ID, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(f)
			})
		},
	}
}

func forecastLockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lock <id>",
		Short: "Lock an approved forecast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				f, err := e.LockForecast(ctx, e.Config.Tenant.ID, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(f)
			})
		},
	}
}

func forecastApproveCmd() *cobra.Command {
	var comment string
	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a submitted forecast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				f, err := e.ApproveForecast(ctx, e.Config.Tenant.ID, args[0], comment, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(f)
			})
		},
	}
	cmd.Flags().StringVar(&comment, "comment", "", "approval comment")
	return cmd
}

func forecastRejectCmd() *cobra.Command {
	var comment string
	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a submitted forecast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				f, err := e.RejectForecast(ctx, e.Config.Tenant.ID, args[0], comment, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(f)
			})
		},
	}
	cmd.Flags().StringVar(&comment, "comment", "", "rejection reason")
	_ = cmd.MarkFlagRequired("comment")
	return cmd
}

func forecastOverrideCmd() *cobra.Command {
	var hours, comment string
	cmd := &cobra.Command{
		Use:   "override <id>",
		Short: "Override hours on an approved or locked forecast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := parseHours(hours)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				f, err := e.OverrideForecast(ctx, e.Config.Tenant.ID, args[0], h, comment, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(f)
			})
		},
	}
	cmd.Flags().StringVar(&hours, "hours", "", "new hours")
	cmd.Flags().StringVar(&comment, "comment", "", "override reason")
	_ = cmd.MarkFlagRequired("hours")
	return cmd
}

func forecastLockMonthCmd() *cobra.Command {
	var versionID, projectID, reason string
	var year, month int
	cmd := &cobra.Command{
		Use:   "lock-month",
		Short: "Lock all forecasts in a version for a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.LockMonth(ctx, engine.LockMonthOptions{
					TenantID:  e.Config.Tenant.ID,
					VersionID: versionID,
					ProjectID: projectID,
					Year:      year,
					Month:     month,
					Reason:    reason,
					ActorID:   viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				fmt.Printf("Locked %d of %d forecasts for %d-%02d\n", res.LockedCount, res.TotalForecasts, res.Year, res.Month)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&versionID, "version", "", "version id")
	cmd.Flags().StringVar(&projectID, "project", "", "project scope")
	cmd.Flags().IntVar(&year, "year", 0, "year")
	cmd.Flags().IntVar(&month, "month", 0, "month")
	cmd.Flags().StringVar(&reason, "reason", "", "lock reason recorded in history")
	_ = cmd.MarkFlagRequired("version")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}

func forecastSummaryCmd() *cobra.Command {
	var f repo.ForecastFilters
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize forecasts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				f.TenantID = e.Config.Tenant.ID
				s, err := e.Summary(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(s)
				}
				fmt.Printf("Forecasts: %d (%s hours total)\n", s.TotalCount, s.TotalHours)
				fmt.Printf("  draft:     %d (%s h)\n", s.DraftCount, s.DraftHours)
				fmt.Printf("  submitted: %d (%s h)\n", s.SubmittedCount, s.SubmittedHours)
				fmt.Printf("  approved:  %d (%s h, locked included)\n", s.ApprovedCount+s.LockedCount, s.ApprovedHours)
				fmt.Printf("  rejected:  %d\n", s.RejectedCount)
				fmt.Printf("  overridden: %d\n", s.OverrideCount)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.VersionID, "version", "", "version filter")
	cmd.Flags().StringVar(&f.ProjectID, "project", "", "project filter")
	cmd.Flags().StringVar(&f.PersonID, "person", "", "person filter")
	cmd.Flags().IntVar(&f.Year, "year", 0, "year filter")
	cmd.Flags().IntVar(&f.Month, "month", 0, "month filter")
	return cmd
}

func forecastHistoryCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "Show change history for a forecast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.History(ctx, repo.HistoryFilters{
					TenantID:   e.Config.Tenant.ID,
					ForecastID: args[0],
					Limit:      n,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"When", "Change", "Actor", "Hours", "Status", "Comment"})
				for _, it := range items {
					hours := ""
					if it.NewHours != nil {
						hours = it.NewHours.String()
						if it.PreviousHours != nil {
							hours = it.PreviousHours.String() + " -> " + hours
						}
					}
					status := ""
					if it.NewStatus != nil {
						status = *it.NewStatus
						if it.PreviousStatus != nil {
							status = *it.PreviousStatus + " -> " + status
						}
					}
					tw.AppendRow(table.Row{it.ChangedAt, it.ChangeType, it.ChangedBy, hours, status, it.Comment})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 50, "number of entries")
	return cmd
}

func forecastRecommendCmd() *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Show recommended hours for a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				hours, err := e.RecommendedHours(year, month)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"year": year, "month": month, "recommended_hours": hours})
				}
				fmt.Printf("Recommended hours for %d-%02d: %s\n", year, month, hours)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year")
	cmd.Flags().IntVar(&month, "month", 0, "month")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}
