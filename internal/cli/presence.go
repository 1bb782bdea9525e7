package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newPresenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presence",
		Short: "Show on-duty responder locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			locations, err := apiClient.Presence(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get responder locations: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(locations)
			}

			if len(locations) == 0 {
				fmt.Println("No responders are sharing their location")
				return nil
			}

			t := NewTable("RESPONDER", "NAME", "LAT", "LNG", "UPDATED", "CONNECTION")
			for _, l := range locations {
				t.AddRow(
					l.ResponderID,
					orDash(l.ResponderName),
					fmt.Sprintf("%.6f", l.Latitude),
					fmt.Sprintf("%.6f", l.Longitude),
					formatTime(l.UpdatedAt),
					truncate(l.ConnectionID, 12),
				)
			}
			t.Render()
			return nil
		},
	}
}
