package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"protocol-cli/cmd/utils"
	"protocol-cli/internal/api"
	"protocol-cli/internal/chat"
)

var (
	runInputFile string
	runChatID    string
	runJSON      bool
	dryRun       bool
)

// chatCmd represents the `protocol chat` command
var chatCmd = &cobra.Command{
	Use:   "chat [symptoms...]",
	Short: "Describe symptoms once and print the diagnoses",
	Long: `Run a single turn against the diagnosis backend and print the answer.

Examples:
  # Inline symptoms
  protocol chat "dry cough and fever for 3 days"

  # Symptoms from a file or a pipe
  protocol chat -f ./case.txt
  echo "chest pain when breathing" | protocol chat

  # Continue an existing chat and print JSON
  protocol chat --chat 3 --json "pain got worse overnight"

  # Show the request without sending it
  protocol chat --dry-run "dry cough"

Without symptoms and with a terminal attached, the interactive chat opens.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if runInputFile != "" && len(args) > 0 {
			return fmt.Errorf("specify either --file or inline symptoms, not both")
		}
		input, err := readChatInput(args, os.Stdin)
		if err != nil {
			return err
		}
		if input == "" {
			return runChatTUI(cmd.Context(), cliCtx)
		}

		if dryRun {
			client := cliCtx.Client
			if client == nil {
				client = api.NewClient(utils.JoinURL(cliCtx.Settings.ServerURL, cliCtx.Settings.APIBase))
			}
			curl, err := client.DiagnoseCurl(input)
			if err != nil {
				return fmt.Errorf("error generating curl command: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), curl)
			return nil
		}

		controller := NewController(cmd.Context(), chat.NewStore(chat.State{}), cliCtx.Backend, cliCtx.Strings(), cliCtx.Settings.RequestTimeout)
		return runOneShot(controller, cliCtx, input, cmd.OutOrStdout())
	},
}

// readChatInput picks the symptoms from --file, the arguments, or stdin when
// it is not a terminal, in that order.
func readChatInput(args []string, stdin *os.File) (string, error) {
	if runInputFile != "" {
		data, err := os.ReadFile(runInputFile)
		if err != nil {
			return "", fmt.Errorf("error reading file '%s': %w", runInputFile, err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	if len(args) > 0 {
		return strings.TrimSpace(strings.Join(args, " ")), nil
	}
	if stdin == nil || term.IsTerminal(int(stdin.Fd())) {
		return "", nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("error reading stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// oneShotOutput is the --json shape.
type oneShotOutput struct {
	ChatID  string         `json:"chat_id,omitempty"`
	Message api.MessageDTO `json:"message"`
	Error   string         `json:"error,omitempty"`
}

func runOneShot(controller *Controller, c *CLIContext, input string, w io.Writer) error {
	if runChatID != "" {
		if err := controller.LoadHistory(); err != nil {
			return err
		}
		if err := controller.OpenChat(runChatID); err != nil {
			return err
		}
	}

	start := time.Now()
	res, err := controller.Send(input)
	utils.OutputDebug("turn finished in %s", utils.FormatDuration(time.Since(start)))
	// Let the background title update reach the backend before exiting.
	defer controller.Wait()
	if err != nil {
		return err
	}
	if res.ChatID != "" {
		if err := writeSessionContext(c.BackendKey(), res.ChatID); err != nil {
			utils.LogDebugf("session context not saved: %v", err)
		}
	}

	if runJSON {
		out := oneShotOutput{ChatID: res.ChatID, Message: api.FromMessage(res.Assistant)}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to encode response: %w", err)
		}
	} else {
		fmt.Fprintln(w, formatAssistantText(res.Assistant, c.Strings()))
	}

	if res.Err != nil {
		if c.Mode != utils.StatusMock && utils.IsLocalhost(c.Settings.ServerURL) {
			utils.OutputWarning("Is the backend running? Start one with `protocol serve` or retry with --mock")
		}
		return fmt.Errorf("diagnosis request failed: %w", res.Err)
	}
	return nil
}

func init() {
	chatCmd.Flags().StringVarP(&runInputFile, "file", "f", "", "path to file containing the symptoms")
	chatCmd.Flags().StringVar(&runChatID, "chat", "", "continue the chat with this id")
	chatCmd.Flags().BoolVar(&runJSON, "json", false, "print the assistant message as JSON")
	chatCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the equivalent curl command instead of executing the request")

	rootCmd.AddCommand(chatCmd)
}
