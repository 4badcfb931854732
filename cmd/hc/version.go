package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hourcast/internal/engine"
	"hourcast/internal/repo"
)

func versionCmd() *cobra.Command {
	v := &cobra.Command{
		Use:   "version",
		Short: "Manage forecast versions",
		Long:  "Versions are named snapshots of forecasts. One per scope is current; what-ifs can be cloned, compared, promoted, archived or deleted.",
	}
	v.AddCommand(versionCreateCmd())
	v.AddCommand(versionListCmd())
	v.AddCommand(versionShowCmd())
	v.AddCommand(versionCurrentCmd())
	v.AddCommand(versionUpdateCmd())
	v.AddCommand(versionCloneCmd())
	v.AddCommand(versionPromoteCmd())
	v.AddCommand(versionArchiveCmd())
	v.AddCommand(versionDeleteCmd())
	v.AddCommand(versionCompareCmd())
	return v
}

func versionCreateCmd() *cobra.Command {
	var name, description, vtype, project, user, basedOn, periodStart, periodEnd string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a forecast version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				v, err := e.CreateVersion(ctx, engine.VersionCreateOptions{
					TenantID:         e.Config.Tenant.ID,
					ProjectID:        optionalString(project),
					UserID:           optionalString(user),
					Name:             name,
					Description:      description,
					Type:             vtype,
					BasedOnVersionID: optionalString(basedOn),
					PeriodStart:      optionalString(periodStart),
					PeriodEnd:        optionalString(periodEnd),
					ActorID:          viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(v)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "version name")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&vtype, "type", "what_if", "version type (current, what_if, historical, import)")
	cmd.Flags().StringVar(&project, "project", "", "project scope")
	cmd.Flags().StringVar(&user, "user", "", "user scope")
	cmd.Flags().StringVar(&basedOn, "based-on", "", "version this one derives from")
	cmd.Flags().StringVar(&periodStart, "period-start", "", "period start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&periodEnd, "period-end", "", "period end (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func versionListCmd() *cobra.Command {
	var project, vtype string
	var includeArchived bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List forecast versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				f := repo.VersionFilters{
					TenantID:        e.Config.Tenant.ID,
					Type:            vtype,
					IncludeArchived: includeArchived,
				}
				if cmd.Flags().Changed("project") {
					f.ProjectID = &project
				}
				items, err := e.ListVersions(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "#", "Name", "Type", "Current", "Created"})
				for _, v := range items {
					tw.AppendRow(table.Row{v.ID, v.VersionNumber, v.Name, v.Type, v.IsCurrent, v.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "project scope")
	cmd.Flags().StringVar(&vtype, "type", "", "type filter")
	cmd.Flags().BoolVar(&includeArchived, "include-archived", false, "include archived versions")
	return cmd
}

func versionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a forecast version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				v, err := e.GetVersion(ctx, e.Config.Tenant.ID, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(v)
			})
		},
	}
}

func versionCurrentCmd() *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "current",
		Short: "Show the current version, creating a default one if none exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				var projectID *string
				if cmd.Flags().Changed("project") {
					projectID = &project
				}
				v, err := e.CurrentVersion(ctx, e.Config.Tenant.ID, projectID, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(v)
			})
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "project scope")
	return cmd
}

func versionUpdateCmd() *cobra.Command {
	var name, description, periodStart, periodEnd string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update version metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.VersionUpdateOptions{
					TenantID: e.Config.Tenant.ID,
					ID:       args[0],
					ActorID:  viper.GetString("actor-id"),
				}
				if cmd.Flags().Changed("name") {
					opts.Name = &name
				}
				if cmd.Flags().Changed("description") {
					opts.Description = &description
				}
				if cmd.Flags().Changed("period-start") {
					opts.PeriodStart = &periodStart
				}
				if cmd.Flags().Changed("period-end") {
					opts.PeriodEnd = &periodEnd
				}
				v, err := e.UpdateVersion(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(v)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "version name")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&periodStart, "period-start", "", "period start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&periodEnd, "period-end", "", "period end (YYYY-MM-DD)")
	return cmd
}

func versionCloneCmd() *cobra.Command {
	var name, description, vtype string
	var skipForecasts bool
	cmd := &cobra.Command{
		Use:   "clone <id>",
		Short: "Clone a version into a new what-if",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				v, err := e.CloneVersion(ctx, engine.VersionCloneOptions{
					TenantID:      e.Config.Tenant.ID,
					SourceID:      args[0],
					Name:          name,
					Description:   description,
					Type:          vtype,
					SkipForecasts: skipForecasts,
					ActorID:       viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(v)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "name for the clone")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&vtype, "type", "what_if", "clone type (what_if, historical, import)")
	cmd.Flags().BoolVar(&skipForecasts, "skip-forecasts", false, "clone the version metadata without its forecasts")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func versionPromoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <id>",
		Short: "Promote a version to current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				v, err := e.PromoteVersion(ctx, e.Config.Tenant.ID, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(v)
			})
		},
	}
}

func versionArchiveCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive a version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				v, err := e.ArchiveVersion(ctx, e.Config.Tenant.ID, args[0], reason, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(v)
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "archive reason")
	return cmd
}

func versionDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a version and its draft forecasts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.DeleteVersion(ctx, e.Config.Tenant.ID, args[0], viper.GetString("actor-id")); err != nil {
					return err
				}
				fmt.Printf("Deleted version %s\n", args[0])
				return nil
			})
		},
	}
}

func versionCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <base-id> <other-id>",
		Short: "Compare two versions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cmp, err := e.CompareVersions(ctx, e.Config.Tenant.ID, args[0], args[1])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(cmp)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Assignment", "Period", "Base", "Other", "Diff", ""})
				for _, it := range cmp.Items {
					flag := ""
					switch {
					case it.IsNew:
						flag = "new"
					case it.IsRemoved:
						flag = "removed"
					case it.IsChanged:
						flag = "changed"
					}
					tw.AppendRow(table.Row{
						it.AssignmentID,
						fmt.Sprintf("%d-%02d", it.Year, it.Month),
						fmtHours(it.BaseHours),
						fmtHours(it.OtherHours),
						it.HoursDifference.String(),
						flag,
					})
				}
				tw.Render()
				fmt.Printf("Total difference: %s hours (%d new, %d removed, %d changed)\n",
					cmp.Summary.TotalDifference, cmp.Summary.NewCount, cmp.Summary.RemovedCount, cmp.Summary.ChangedCount)
				return nil
			})
		},
	}
}

func fmtHours(h *decimal.Decimal) string {
	if h == nil {
		return "-"
	}
	return h.String()
}
