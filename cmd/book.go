package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teemow/donna/internal/booking"
	"github.com/teemow/donna/internal/instrumentation"
	"github.com/teemow/donna/internal/meeting"
)

func newBookCmd() *cobra.Command {
	var idempotencyKey string

	cmd := &cobra.Command{
		Use:   "book <request>",
		Short: "Book a meeting from a plain-language request",
		Example: `  donna book "Project sync with alice@example.com tomorrow at 2pm for 30 minutes"`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			instrConfig := instrumentation.DefaultConfig()
			instrConfig.Enabled = false
			instr, err := instrumentation.NewProvider(ctx, instrConfig)
			if err != nil {
				return err
			}

			a, err := newApp(ctx, cfg, logger, instr)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			result, err := a.service.Schedule(ctx, booking.Request{
				Text:           strings.Join(args, " "),
				IdempotencyKey: idempotencyKey,
				RequestID:      uuid.NewString(),
				Source:         "cli",
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
			if result.Status == meeting.StatusFailed {
				return fmt.Errorf("meeting could not be booked")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Return the stored result instead of booking again when repeated")
	cmd.Flags().String("organizer", "", "Organizer email, invited to every meeting")
	cmd.Flags().String("timezone", "", "Default time zone (default Europe/London)")
	cmd.Flags().String("meetings-provider", "", "Meetings provider: webex or meet")
	cmd.Flags().String("llm-provider", "", "Interpreter backend: openai or gemini")
	cmd.Flags().String("token-dir", "", "Directory OAuth tokens are stored in")
	return cmd
}
