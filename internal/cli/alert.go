package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/emsdispatch/pkg/client"
)

func newAlertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "alerts",
		Aliases: []string{"alert"},
		Short:   "Manage live alerts",
	}

	cmd.AddCommand(newAlertListCmd())
	cmd.AddCommand(newAlertMineCmd())
	cmd.AddCommand(newAlertGetCmd())
	cmd.AddCommand(newAlertTransitionCmd())

	return cmd
}

type alertListFlags struct {
	status   string
	from     string
	to       string
	page     int
	pageSize int
}

func (f *alertListFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.status, "status", "", "filter by status (new, responding, en_route, on_scene)")
	cmd.Flags().StringVar(&f.from, "from", "", "created on or after (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&f.to, "to", "", "created on or before (YYYY-MM-DD or RFC3339)")
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().IntVar(&f.pageSize, "page-size", 50, "results per page")
}

func (f *alertListFlags) options() (*client.AlertListOptions, error) {
	opts := &client.AlertListOptions{
		ListOptions: client.ListOptions{Page: f.page, PageSize: f.pageSize},
		Status:      f.status,
	}

	var err error
	if opts.From, err = parseDateFlag("from", f.from, false); err != nil {
		return nil, err
	}
	if opts.To, err = parseDateFlag("to", f.to, true); err != nil {
		return nil, err
	}
	return opts, nil
}

// parseDateFlag accepts RFC3339 or a bare date. A bare upper bound covers the whole day.
func parseDateFlag(name, value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %q", name, value)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func newAlertListCmd() *cobra.Command {
	var flags alertListFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List live alerts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}

			page, err := apiClient.Alerts().List(context.Background(), opts)
			if err != nil {
				return fmt.Errorf("failed to list alerts: %w", err)
			}
			return renderAlertPage(page)
		},
	}

	flags.register(cmd)
	return cmd
}

func newAlertMineCmd() *cobra.Command {
	var flags alertListFlags

	cmd := &cobra.Command{
		Use:   "mine",
		Short: "List live alerts you reported",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}

			page, err := apiClient.Alerts().Mine(context.Background(), opts)
			if err != nil {
				return fmt.Errorf("failed to list alerts: %w", err)
			}
			return renderAlertPage(page)
		},
	}

	flags.register(cmd)
	return cmd
}

func renderAlertPage(page *client.Page[client.Alert]) error {
	if getOutputFormat() != "table" {
		return printOutput(page)
	}

	t := NewTable("ID", "STATUS", "INCIDENT", "PATIENTS", "ADDRESS", "RESPONDER", "CREATED")
	for _, a := range page.Data {
		responder := a.AssignedResponderID
		if a.AssignedResponder != nil && a.AssignedResponder.Name != "" {
			responder = a.AssignedResponder.Name
		}
		t.AddRow(
			a.ID,
			formatStatus(a.Status),
			a.IncidentLabel,
			fmt.Sprintf("%d", a.PatientCount),
			truncate(a.Location.Address, 40),
			orDash(responder),
			formatTime(a.CreatedAt),
		)
	}
	t.Render()
	fmt.Printf("\nPage %d of %d (%d alerts)\n", page.Page, page.TotalPages, page.TotalItems)
	return nil
}

func newAlertGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get alert details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := apiClient.Alerts().Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get alert: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(a)
			}
			printAlert(a)
			return nil
		},
	}
}

func printAlert(a *client.Alert) {
	fmt.Printf("ID:          %s\n", a.ID)
	fmt.Printf("Status:      %s\n", formatStatus(a.Status))
	fmt.Printf("Incident:    %s\n", a.IncidentLabel)
	fmt.Printf("Patients:    %d\n", a.PatientCount)
	fmt.Printf("Address:     %s\n", a.Location.Address)
	if a.Location.Latitude != nil && a.Location.Longitude != nil {
		fmt.Printf("Coordinates: %.6f, %.6f\n", *a.Location.Latitude, *a.Location.Longitude)
	}
	if a.Description != "" {
		fmt.Printf("Description: %s\n", a.Description)
	}

	switch {
	case a.Reporter.Anonymous:
		fmt.Printf("Reporter:    %s (%s, anonymous)\n", a.Reporter.Name, a.Reporter.Phone)
	case a.ReporterContact != nil:
		fmt.Printf("Reporter:    %s (%s)\n", a.ReporterContact.Name, orDash(a.ReporterContact.Phone))
	default:
		fmt.Printf("Reporter:    %s\n", a.Reporter.UserID)
	}
	if a.AssignedResponder != nil {
		fmt.Printf("Responder:   %s (%s)\n", a.AssignedResponder.Name, orDash(a.AssignedResponder.Phone))
	}
	fmt.Printf("Created:     %s\n", formatTime(a.CreatedAt))
	fmt.Printf("Updated:     %s\n", formatTime(a.UpdatedAt))

	if len(a.StatusHistory) > 0 {
		fmt.Println()
		t := NewTable("STATUS", "AT", "BY", "NOTE")
		for _, e := range a.StatusHistory {
			t.AddRow(e.Status, formatTime(e.Timestamp), orDash(e.ActorID), orDash(e.Note))
		}
		t.Render()
	}
}

func newAlertTransitionCmd() *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "transition <id> <status>",
		Short: "Move an alert to a new status",
		Long: `Move an alert through the response lifecycle:

  new -> responding -> en_route -> on_scene -> completed

Any active alert may be cancelled. Completing an alert archives it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := apiClient.Alerts().Transition(context.Background(), args[0], args[1], note)
			if err != nil {
				return fmt.Errorf("failed to update alert: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(res)
			}
			if res.Archived {
				fmt.Printf("Alert %s %s and archived\n", res.ID, res.Status)
				return nil
			}
			fmt.Printf("Alert %s is now %s\n", res.ID, formatStatus(res.Status))
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "note recorded in the status history")
	return cmd
}
