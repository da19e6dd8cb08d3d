package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/donna/internal/calendar"
	"github.com/teemow/donna/internal/credentials"
)

// testEventStart is one day from now, on the hour.
func testEventStart(now time.Time, loc *time.Location) time.Time {
	return now.In(loc).Add(24 * time.Hour).Truncate(time.Hour)
}

func newCalendarTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar-test",
		Short: "Create a one-hour test event tomorrow to verify calendar access",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			if !cfg.Google.Configured() {
				return errors.New("google.client_id and google.client_secret are required")
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			store, err := newCredentialStore(cfg, logger, nil)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			client, err := newCalendarClient(ctx, cfg, store.HTTPClient(ctx, credentials.ProviderGoogle), logger)
			if err != nil {
				return err
			}

			start := testEventStart(time.Now(), loc)
			input := calendar.EventInput{
				Summary:     "donna test event",
				Description: "Created by donna calendar-test to verify calendar access. Safe to delete.",
				Start:       start,
				End:         start.Add(time.Hour),
				TimeZone:    cfg.TimeZone,
			}
			if cfg.Organizer != "" {
				input.Attendees = []string{cfg.Organizer}
			}

			event, err := client.CreateEvent(ctx, input)
			if err != nil {
				return fmt.Errorf("failed to create test event: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Test event created: %s\n%s\n", event.ID, event.HTMLLink)
			return nil
		},
	}

	cmd.Flags().String("timezone", "", "Time zone of the test event (default Europe/London)")
	cmd.Flags().String("token-dir", "", "Directory OAuth tokens are stored in")
	return cmd
}
