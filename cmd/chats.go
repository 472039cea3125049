package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"protocol-cli/cmd/utils"
	"protocol-cli/internal/chat"
)

// chatsCmd represents the chats command
var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "Manage chat history on the backend",
	Long: `Inspect and organize saved chats.

Available commands:
  list    - List chats, pinned first
  show    - Print every message of a chat
  delete  - Delete a chat
  pin     - Pin a chat to the top of the history
  unpin   - Unpin a chat
  rename  - Change a chat's title`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var chatsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List chats, pinned first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newHistoryController(cmd)
		if err := c.LoadHistory(); err != nil {
			return err
		}
		chats := c.Store().State().Chats
		if len(chats) == 0 {
			utils.OutputInfoPlain("No chats yet.")
			return nil
		}
		printChatTable(cmd.OutOrStdout(), chats, time.Now(), cliCtx.Strings().Today)
		return nil
	},
}

var chatsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print every message of a chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newHistoryController(cmd)
		if err := c.LoadHistory(); err != nil {
			return err
		}
		ch, ok := c.Store().State().Chat(args[0])
		if !ok {
			return fmt.Errorf("chat %q not found", args[0])
		}
		printTranscript(cmd.OutOrStdout(), ch, cliCtx)
		return nil
	},
}

var chatsDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a chat",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newHistoryController(cmd).Delete(args[0]); err != nil {
			return err
		}
		utils.OutputSuccess("Deleted chat %s", args[0])
		return nil
	},
}

var chatsPinCmd = &cobra.Command{
	Use:   "pin <id>",
	Short: "Pin a chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setPinned(cmd, args[0], true)
	},
}

var chatsUnpinCmd = &cobra.Command{
	Use:   "unpin <id>",
	Short: "Unpin a chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setPinned(cmd, args[0], false)
	},
}

var chatsRenameCmd = &cobra.Command{
	Use:   "rename <id> <title>",
	Short: "Change a chat's title",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := strings.TrimSpace(strings.Join(args[1:], " "))
		if title == "" {
			return fmt.Errorf("title must not be empty")
		}
		if err := newHistoryController(cmd).Rename(args[0], title); err != nil {
			return err
		}
		utils.OutputSuccess("Renamed chat %s to %q", args[0], title)
		return nil
	},
}

func newHistoryController(cmd *cobra.Command) *Controller {
	return NewController(cmd.Context(), chat.NewStore(chat.State{}), cliCtx.Backend, cliCtx.Strings(), cliCtx.Settings.RequestTimeout)
}

func setPinned(cmd *cobra.Command, id string, pinned bool) error {
	if err := newHistoryController(cmd).SetPinned(id, pinned); err != nil {
		return err
	}
	if pinned {
		utils.OutputSuccess("Pinned chat %s", id)
	} else {
		utils.OutputSuccess("Unpinned chat %s", id)
	}
	return nil
}

func printChatTable(out io.Writer, chats []chat.Chat, now time.Time, today string) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "PIN\tID\tTITLE\tUPDATED\tMESSAGES")
	fmt.Fprintln(w, "---\t--\t-----\t-------\t--------")
	for _, c := range chats {
		pin := ""
		if c.Pinned {
			pin = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", pin, c.ID, c.Title, utils.FormatChatTime(c.Timestamp, now, today), len(c.Messages))
	}
	w.Flush()
}

func printTranscript(out io.Writer, c chat.Chat, cli *CLIContext) {
	str := cli.Strings()
	fmt.Fprintf(out, "%s (%s)\n\n", c.Title, c.ID)
	for _, msg := range c.Messages {
		stamp := utils.FormatChatTime(msg.Timestamp, time.Now(), str.Today)
		if msg.Role == chat.RoleUser {
			fmt.Fprintf(out, "%s [%s]\n%s\n\n", userPrompt, stamp, msg.Content)
			continue
		}
		fmt.Fprintf(out, "%s [%s]\n%s\n\n", assistantPrompt, stamp, formatAssistantText(msg, str))
	}
}

func init() {
	chatsCmd.AddCommand(chatsListCmd, chatsShowCmd, chatsDeleteCmd, chatsPinCmd, chatsUnpinCmd, chatsRenameCmd)
	rootCmd.AddCommand(chatsCmd)
}
