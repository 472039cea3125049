package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"protocol-cli/internal/api"
	"protocol-cli/internal/chat"
	"protocol-cli/internal/i18n"
	"protocol-cli/internal/turn"
)

// historyLoadedMsg reports the result of fetching the chat list.
type historyLoadedMsg struct{ err error }

// turnDoneMsg is emitted when a send finishes or is rejected.
type turnDoneMsg struct {
	result turn.Result
	err    error
}

// actionDoneMsg reports a history action (pin, delete, rename).
type actionDoneMsg struct {
	notice string
	err    error
}

// Controller owns data/state updates and produces Tea messages for the UI.
// The same methods back the non-interactive commands.
type Controller struct {
	ctx     context.Context
	store   *chat.Store
	backend api.Backend
	turns   *turn.Orchestrator
	timeout time.Duration
}

func NewController(ctx context.Context, store *chat.Store, backend api.Backend, str i18n.Strings, timeout time.Duration, opts ...turn.Option) *Controller {
	return &Controller{
		ctx:     ctx,
		store:   store,
		backend: backend,
		turns:   turn.New(store, backend, str, opts...),
		timeout: timeout,
	}
}

func (c *Controller) Store() *chat.Store { return c.store }

func (c *Controller) SetStrings(str i18n.Strings) { c.turns.SetStrings(str) }

// Wait blocks until background title updates have been delivered.
func (c *Controller) Wait() { c.turns.Wait() }

// LoadHistory replaces the local chat list with the backend's.
func (c *Controller) LoadHistory() error {
	ctx, cancel := c.requestContext()
	defer cancel()
	chats, err := c.backend.ListChats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load chat history: %w", err)
	}
	c.store.Dispatch(chat.ReplaceAllChats{Chats: chats})
	return nil
}

// OpenChat selects a chat from the loaded history and shows its messages.
func (c *Controller) OpenChat(id string) error {
	ch, ok := c.store.State().Chat(id)
	if !ok {
		return fmt.Errorf("chat %q not found", id)
	}
	c.store.Dispatch(chat.LoadChat{ID: id, Messages: ch.Messages})
	return nil
}

// NewChat clears the selection; the next send creates the chat.
func (c *Controller) NewChat() {
	c.store.Dispatch(chat.StartNewChat{})
}

// Send runs one turn.
func (c *Controller) Send(text string) (turn.Result, error) {
	return c.turns.Send(c.ctx, text)
}

func (c *Controller) SetPinned(id string, pinned bool) error {
	ctx, cancel := c.requestContext()
	defer cancel()
	if err := c.backend.SetPinned(ctx, id, pinned); err != nil {
		return fmt.Errorf("failed to update chat %s: %w", id, err)
	}
	c.store.Dispatch(chat.SetPinned{ID: id, Pinned: pinned})
	return nil
}

func (c *Controller) Delete(id string) error {
	ctx, cancel := c.requestContext()
	defer cancel()
	if err := c.backend.DeleteChat(ctx, id); err != nil {
		return fmt.Errorf("failed to delete chat %s: %w", id, err)
	}
	c.store.Dispatch(chat.DeleteChat{ID: id})
	return nil
}

func (c *Controller) Rename(id, title string) error {
	ctx, cancel := c.requestContext()
	defer cancel()
	if err := c.backend.UpdateTitle(ctx, id, title); err != nil {
		return fmt.Errorf("failed to rename chat %s: %w", id, err)
	}
	c.store.Dispatch(chat.UpdateChatTitle{ID: id, Title: title})
	return nil
}

func (c *Controller) LoadHistoryCmd() tea.Cmd {
	return func() tea.Msg { return historyLoadedMsg{err: c.LoadHistory()} }
}

func (c *Controller) SendCmd(text string) tea.Cmd {
	return func() tea.Msg {
		res, err := c.Send(text)
		return turnDoneMsg{result: res, err: err}
	}
}

func (c *Controller) PinCmd(id string, pinned bool, notice string) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{notice: notice, err: c.SetPinned(id, pinned)}
	}
}

func (c *Controller) DeleteCmd(id string, notice string) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{notice: notice, err: c.Delete(id)}
	}
}

func (c *Controller) requestContext() (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(c.ctx)
	}
	return context.WithTimeout(c.ctx, c.timeout)
}
