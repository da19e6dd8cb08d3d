package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/donna/internal/config"
	"github.com/teemow/donna/internal/logging"
)

// rootCmd represents the base command for the donna application
var rootCmd = &cobra.Command{
	Use:   "donna",
	Short: "Books online meetings from plain-language requests",
	Long: `donna turns a free-text meeting request such as
"Lunch with alice@example.com tomorrow at 2pm for 30 minutes" into a booked
online meeting (Webex or Google Meet) and a Google Calendar entry.

It can run as:
  - An HTTP service exposing POST /book_meeting
  - An MCP (Model Context Protocol) server for AI assistants
  - A one-shot CLI (donna book "...")`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

var (
	configFile string
	debugMode  bool
	logFormat  string
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "donna version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: donna.yaml in ., $HOME/.config/donna or /etc/donna)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatText, "Log format: text or json")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newBookCmd())
	rootCmd.AddCommand(newCalendarTestCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// setup loads the configuration and installs the process logger. Logs go to
// stderr so that stdout stays free for command output and the stdio transport.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	logger, err := logging.New(os.Stderr, logFormat, debugMode)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)

	cfg, err := config.Load(config.New(), configFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "donna version %s\n", version)
		},
	}
}
