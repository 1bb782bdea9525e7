package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/emsdispatch/pkg/client"
)

var activeStatuses = []string{"new", "responding", "en_route", "on_scene"}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server health and an alert summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			summary := map[string]interface{}{}

			health, err := apiClient.Ready(ctx)
			if err != nil {
				summary["server"] = fmt.Sprintf("error: %v", err)
			} else {
				summary["server"] = health.Status
				summary["database"] = health.Database
				if health.Cache != "" {
					summary["cache"] = health.Cache
				}
			}

			counts := map[string]int64{}
			var countErr error
			if apiClient.GetToken() != "" {
				for _, s := range activeStatuses {
					page, err := apiClient.Alerts().List(ctx, &client.AlertListOptions{
						ListOptions: client.ListOptions{PageSize: 1},
						Status:      s,
					})
					if err != nil {
						countErr = err
						break
					}
					counts[s] = page.TotalItems
				}
			}

			if getOutputFormat() != "table" {
				if countErr == nil && len(counts) > 0 {
					summary["alerts"] = counts
				}
				return printOutput(summary)
			}

			fmt.Println("EMS Dispatch")
			fmt.Println(strings.Repeat("=", 40))
			fmt.Printf("  Server:      %v\n", summary["server"])
			if db, ok := summary["database"]; ok {
				fmt.Printf("  Database:    %v\n", db)
			}
			if cache, ok := summary["cache"]; ok {
				fmt.Printf("  Cache:       %v\n", cache)
			}

			switch {
			case apiClient.GetToken() == "":
				fmt.Println("  Alerts:      (not authenticated)")
			case countErr != nil:
				fmt.Printf("  Alerts:      (error: %v)\n", countErr)
			default:
				var total int64
				for _, s := range activeStatuses {
					total += counts[s]
				}
				fmt.Printf("  Alerts:      %d active\n", total)
				for _, s := range activeStatuses {
					fmt.Printf("    %-11s %d\n", s+":", counts[s])
				}
			}
			return nil
		},
	}
}
