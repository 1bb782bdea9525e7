package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/emsdispatch/pkg/client"
)

func newArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Browse archived alerts",
	}

	cmd.AddCommand(newArchiveListCmd())
	cmd.AddCommand(newArchiveGetCmd())
	cmd.AddCommand(newArchiveDeleteCmd())

	return cmd
}

func newArchiveListCmd() *cobra.Command {
	var sort string
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := apiClient.Archive().List(context.Background(), &client.ArchiveListOptions{
				ListOptions: client.ListOptions{Page: page, PageSize: pageSize},
				Sort:        sort,
			})
			if err != nil {
				return fmt.Errorf("failed to list archive: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(result)
			}

			t := NewTable("ID", "STATUS", "INCIDENT", "ADDRESS", "CREATED", "ARCHIVED")
			for _, a := range result.Data {
				t.AddRow(
					a.ID,
					formatStatus(a.Status),
					a.IncidentLabel,
					truncate(a.Location.Address, 40),
					formatTime(a.CreatedAt),
					formatTime(a.ArchivedAt),
				)
			}
			t.Render()
			fmt.Printf("\nPage %d of %d (%d archived)\n", result.Page, result.TotalPages, result.TotalItems)
			return nil
		},
	}

	cmd.Flags().StringVar(&sort, "sort", "archived_desc", "archived_desc, archived_asc, created_desc or created_asc")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 50, "results per page")
	return cmd
}

func newArchiveGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get archived alert details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := apiClient.Archive().Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get archived alert: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(a)
			}
			printAlert(&a.Alert)
			fmt.Printf("\nArchived:    %s\n", formatTime(a.ArchivedAt))
			return nil
		},
	}
}

func newArchiveDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Permanently delete an archived alert (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				answer := promptInput(fmt.Sprintf("Permanently delete archived alert %s? [y/N]: ", args[0]))
				if answer != "y" && answer != "Y" {
					fmt.Println("Aborted")
					return nil
				}
			}

			if err := apiClient.Archive().Delete(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to delete archived alert: %w", err)
			}
			fmt.Printf("Archived alert %s deleted\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
