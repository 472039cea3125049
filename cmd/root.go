package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"protocol-cli/cmd/utils"
)

var (
	debug           bool
	noEmoji         bool
	overrideCwd     string
	serverURL       string
	apiBase         string
	language        string
	useMock         bool
	diagnoseTimeout time.Duration
)

// cliCtx is resolved once flags are parsed, before any command runs.
var cliCtx *CLIContext

var rootCmd = &cobra.Command{
	Use:   "protocol",
	Short: "Protocol - symptom-to-diagnosis assistant for clinicians",
	Long: `Protocol is a terminal client for the diagnosis assistant. Describe the
patient's symptoms and get ranked candidate diagnoses with ICD-10 codes, plus
recommended specialists, procedures and medications for the most likely one.

Getting started:
  # Open the interactive chat
  protocol

  # Ask once and print the answer
  protocol chat "dry cough and fever for 3 days"

  # Try it without a backend
  protocol --mock

  # Run a local backend with seeded history
  protocol serve --seed`,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		utils.OverrideCwd = overrideCwd
		utils.SetEmojiEnabled(!noEmoji)
		if debug {
			if err := utils.InitDebugLogger("", true); err != nil {
				return fmt.Errorf("failed to initialize debug logger: %w", err)
			}
		}

		c, err := loadCLIContext(cmd)
		if err != nil {
			return err
		}
		cliCtx = c
		utils.LogDebugf("settings: server=%s api=%s lang=%s mock=%v config=%q",
			c.Settings.ServerURL, c.Settings.APIBase, c.Settings.Language, c.Settings.Mock, c.Settings.ConfigPath)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChatTUI(cmd.Context(), cliCtx)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	utils.CloseDebugLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&debug, "debug", "d", false, "Enable debug output")
	flags.BoolVar(&noEmoji, "no-emoji", false, "Disable emoji prefixes in output")
	flags.StringVar(&overrideCwd, "cwd", "", "Override the current working directory for CLI operations")
	flags.StringVar(&serverURL, "server-url", "", "Diagnosis backend URL (default: http://localhost:8080)")
	flags.StringVar(&apiBase, "api-base", "", "API path prefix or absolute API URL (default: /api)")
	flags.StringVar(&language, "lang", "", "Interface language: en or ru (default: en)")
	flags.BoolVar(&useMock, "mock", false, "Use the built-in offline backend instead of the server")
	flags.DurationVar(&diagnoseTimeout, "diagnose-timeout", 0, "Timeout for diagnose requests (default: 2m)")
}
