package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teemow/donna/internal/credentials"
	"github.com/teemow/donna/internal/logging"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth <webex|google>",
		Short: "Authorize donna to act on a provider account",
		Long: `Authorize donna against Webex or Google from the terminal.

The command prints the provider's consent URL. Open it, sign in and grant
access. The browser is then redirected to donna's callback URL; paste either
that full URL or just the code parameter back into the terminal.

When donna serve is running and reachable at the redirect URL, visiting
/auth/<provider> in the browser completes the same flow without the terminal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			provider, err := credentials.ParseProvider(args[0])
			if err != nil {
				return err
			}

			store, err := newCredentialStore(cfg, logger, nil)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			state := uuid.NewString()
			authURL, err := store.AuthCodeURL(provider, state)
			if err != nil {
				return fmt.Errorf("%w (set %s.client_id and %s.client_secret)", err, provider, provider)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Visit this URL to authorize donna for %s:\n\n  %s\n\n", provider, authURL)
			fmt.Fprint(out, "Paste the redirect URL or the authorization code: ")

			code, err := readAuthCode(cmd.InOrStdin(), state)
			if err != nil {
				return err
			}
			if _, err := store.Exchange(cmd.Context(), provider, code); err != nil {
				return err
			}

			logger.Info("provider authorized", logging.Provider(string(provider)))
			fmt.Fprintf(out, "\n%s authorized.\n", provider)
			return nil
		},
	}

	cmd.Flags().String("token-dir", "", "Directory OAuth tokens are stored in")
	return cmd
}

// readAuthCode reads one line from r. A pasted redirect URL must carry the
// expected state; a bare code is taken as is.
func readAuthCode(r io.Reader, state string) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read authorization code: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("no authorization code entered")
	}

	if !strings.Contains(line, "://") {
		return line, nil
	}

	u, err := url.Parse(line)
	if err != nil {
		return "", fmt.Errorf("failed to parse redirect URL: %w", err)
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		return "", fmt.Errorf("authorization denied: %s", e)
	}
	if q.Get("state") != state {
		return "", errors.New("state mismatch in redirect URL")
	}
	code := q.Get("code")
	if code == "" {
		return "", errors.New("redirect URL has no code parameter")
	}
	return code, nil
}
