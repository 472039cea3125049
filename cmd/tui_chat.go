package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"

	"protocol-cli/cmd/config"
	"protocol-cli/cmd/utils"
	"protocol-cli/internal/chat"
	"protocol-cli/internal/i18n"
	uitk "protocol-cli/internal/tui"
	"protocol-cli/internal/turn"
)

const gap = "\n\n"

// exitWait bounds how long quitting waits for background title updates.
const exitWait = 3 * time.Second

// stateChangedMsg signals that the store has a newer state.
type stateChangedMsg struct{}

type pingMsg struct{ err error }

type chatModel struct {
	cli        *CLIContext
	controller *Controller
	str        i18n.Strings

	state       chat.State
	stateCh     chan tea.Msg
	unsubscribe func()
	configCh    <-chan tea.Msg
	restoreID   string

	spin     spinner.Model
	viewport viewport.Model
	textarea textarea.Model
	history  uitk.HistoryModel
	toast    uitk.ToastModel

	width      int
	termHeight int

	backendStatus string
	notice        string
	inputHistory  []string
	histIndex     int
}

// runChatTUI starts the Bubble Tea chat screen.
func runChatTUI(ctx context.Context, c *CLIContext) error {
	store := chat.NewStore(chat.State{})
	controller := NewController(ctx, store, c.Backend, c.Strings(), c.Settings.RequestTimeout)

	var configCh <-chan tea.Msg
	if w, err := StartConfigWatcher(configWatchDirs(c.Settings.ConfigPath)...); err == nil {
		defer w.Close()
		configCh = w.Messages()
	} else {
		utils.LogDebugf("config watcher not started: %v", err)
	}

	m := newChatModel(c, controller, configCh)
	defer m.unsubscribe()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	// Enable TUI mode for output routing
	utils.SetTUIMode(p)
	defer utils.ClearTUIMode()

	_, err := p.Run()
	waitWithTimeout(controller.Wait, exitWait)
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// notifyOn returns a store listener that signals ch without blocking.
func notifyOn(ch chan tea.Msg) chat.Listener {
	return func(chat.State) {
		select {
		case ch <- stateChangedMsg{}:
		default:
		}
	}
}

func waitWithTimeout(wait func(), d time.Duration) {
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		utils.LogDebug("exiting with background updates still pending")
	}
}

func newChatModel(c *CLIContext, controller *Controller, configCh <-chan tea.Msg) chatModel {
	str := c.Strings()

	ta := textarea.New()
	ta.Placeholder = str.TypeMessage
	ta.Focus()
	ta.Prompt = "> "
	ta.SetWidth(30)
	ta.SetHeight(1)
	// Remove cursor line styling
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	width, _, _ := term.GetSize(os.Stdout.Fd())

	status := utils.StatusOnline
	if c.Mode == utils.StatusMock {
		status = utils.StatusMock
	}

	stateCh := make(chan tea.Msg, 1)
	return chatModel{
		cli:           c,
		controller:    controller,
		str:           str,
		state:         controller.Store().State(),
		stateCh:       stateCh,
		unsubscribe:   controller.Store().Subscribe(notifyOn(stateCh)),
		configCh:      configCh,
		restoreID:     lastChatFor(c.BackendKey()),
		spin:          s,
		viewport:      viewport.New(30, 5),
		textarea:      ta,
		history:       uitk.NewHistoryModel(str),
		toast:         uitk.NewToastModel(),
		width:         width,
		backendStatus: status,
	}
}

func (m chatModel) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textarea.Blink,
		m.spin.Tick,
		listen(m.stateCh),
		m.controller.LoadHistoryCmd(),
		pingCmd(m.cli),
	}
	if m.configCh != nil {
		cmds = append(cmds, listen(m.configCh))
	}
	return tea.Batch(cmds...)
}

func pingCmd(c *CLIContext) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pingMsg{err: c.Pinger.Ping(ctx)}
	}
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	m.toast, cmd = m.toast.Update(msg)
	cmds = append(cmds, cmd)
	// Forward all messages to the spinner so it processes its own TickMsgs
	m.spin, cmd = m.spin.Update(msg)
	cmds = append(cmds, cmd)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.termHeight = msg.Height
		m.history, _ = m.history.Update(msg)
		m.resize()

	case stateChangedMsg:
		m.syncState()
		cmds = append(cmds, listen(m.stateCh))

	case historyLoadedMsg:
		if msg.err != nil {
			m.backendStatus = utils.StatusOffline
			m.notice = msg.err.Error()
			break
		}
		if m.restoreID != "" {
			if err := m.controller.OpenChat(m.restoreID); err != nil {
				utils.LogDebugf("previous chat not restored: %v", err)
			}
			m.restoreID = ""
		}

	case pingMsg:
		switch {
		case m.cli.Mode == utils.StatusMock:
			m.backendStatus = utils.StatusMock
		case msg.err != nil:
			utils.LogDebugf("backend ping failed: %v", msg.err)
			m.backendStatus = utils.StatusOffline
			if utils.IsLocalhost(m.cli.Settings.ServerURL) && m.notice == "" {
				m.notice = "Backend unreachable. Start one with `protocol serve` or restart with --mock."
			}
		default:
			m.backendStatus = utils.StatusOnline
		}

	case turnDoneMsg:
		switch {
		case errors.Is(msg.err, turn.ErrEmptyInput):
		case msg.err != nil:
			m.notice = msg.err.Error()
		default:
			m.notice = ""
		}
		if msg.result.ChatID != "" {
			m.rememberChat(msg.result.ChatID)
		}
		if msg.result.Err != nil {
			cmds = append(cmds, pingCmd(m.cli))
		}

	case actionDoneMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
		} else if msg.notice != "" {
			cmds = append(cmds, uitk.ShowToast(msg.notice))
		}

	case uitk.LoadChatMsg:
		if err := m.controller.OpenChat(msg.ID); err != nil {
			m.notice = err.Error()
		} else {
			m.rememberChat(msg.ID)
		}
	case uitk.PinChatMsg:
		label := m.str.Pin
		if !msg.Pinned {
			label = m.str.Unpin
		}
		cmds = append(cmds, m.controller.PinCmd(msg.ID, msg.Pinned, label+" ✓"))
	case uitk.DeleteChatMsg:
		cmds = append(cmds, m.controller.DeleteCmd(msg.ID, m.str.Delete+" ✓"))
	case uitk.NewChatMsg:
		m.controller.NewChat()

	case configChangedMsg:
		if lang := i18n.For(msg.cfg.Language); msg.cfg.Language != "" && lang.Language != m.str.Language {
			m.applyLanguage(lang)
		}
		cmds = append(cmds, listen(m.configCh))

	case utils.TUIMessageMsg:
		m.notice = strings.TrimSpace(utils.FormatMessage(msg.Message))

	case tea.KeyMsg:
		if m.history.IsActive() {
			m.history, cmd = m.history.Update(msg)
			cmds = append(cmds, cmd)
			if !m.history.IsActive() {
				m.textarea.Focus()
			}
			return m, tea.Batch(cmds...)
		}

		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "ctrl+h":
			m.history.SetChats(m.state.Chats, m.state.CurrentChatID)
			m.history.Open()
			m.textarea.Blur()
			return m, tea.Batch(cmds...)

		case "ctrl+n":
			m.controller.NewChat()
			m.notice = ""
			return m, tea.Batch(cmds...)

		case "ctrl+y":
			last, ok := lastAssistantMessage(m.state.Messages)
			if !ok {
				return m, tea.Batch(cmds...)
			}
			if err := clipboard.WriteAll(formatAssistantText(last, m.str)); err != nil {
				m.notice = fmt.Sprintf("clipboard unavailable: %v", err)
			} else {
				cmds = append(cmds, uitk.ShowToast(m.str.Copied))
			}
			return m, tea.Batch(cmds...)

		case "ctrl+l":
			m.applyLanguage(i18n.For(string(i18n.Toggle(m.str.Language))))
			cmds = append(cmds, saveLanguageCmd(m.cli.Settings.ConfigPath, string(m.str.Language)))
			return m, tea.Batch(cmds...)

		case "up":
			if m.histIndex > 0 {
				m.histIndex--
				m.textarea.SetValue(m.inputHistory[m.histIndex])
				m.textarea.CursorEnd()
			}

		case "down":
			if m.histIndex < len(m.inputHistory)-1 {
				m.histIndex++
				m.textarea.SetValue(m.inputHistory[m.histIndex])
				m.textarea.CursorEnd()
			} else {
				m.histIndex = len(m.inputHistory)
				m.textarea.SetValue("")
			}

		case "enter":
			text := strings.TrimSpace(m.textarea.Value())
			if text == "" || m.state.Thinking {
				break
			}
			m.inputHistory = append(m.inputHistory, text)
			m.histIndex = len(m.inputHistory)
			m.textarea.Reset()
			m.notice = ""
			cmds = append(cmds, m.controller.SendCmd(text))
		}
	}

	if !m.history.IsActive() {
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	m.refreshViewportBottom()
	return m, tea.Batch(cmds...)
}

func listen(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *chatModel) syncState() {
	m.state = m.controller.Store().State()
	m.history.SetChats(m.state.Chats, m.state.CurrentChatID)
	if m.state.Thinking {
		m.textarea.Blur()
	} else if !m.history.IsActive() {
		m.textarea.Focus()
	}
}

func (m *chatModel) rememberChat(id string) {
	if err := writeSessionContext(m.cli.BackendKey(), id); err != nil {
		utils.LogDebugf("session context not saved: %v", err)
	}
}

func (m *chatModel) applyLanguage(str i18n.Strings) {
	m.str = str
	m.cli.Settings.Language = string(str.Language)
	m.controller.SetStrings(str)
	m.history.SetStrings(str)
	m.textarea.Placeholder = str.TypeMessage
}

// saveLanguageCmd writes the language into the loaded config file, or into a
// new protocol.yaml in the data dir when none was loaded.
func saveLanguageCmd(configPath, lang string) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: persistLanguage(configPath, lang)}
	}
}

func persistLanguage(configPath, lang string) error {
	cfg := &config.Config{}
	if configPath == "" {
		dir, err := utils.EnsureDataDir()
		if err != nil {
			return err
		}
		configPath = filepath.Join(dir, config.SupportedConfigFiles[0])
	} else {
		loaded, err := config.LoadConfigFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.Language = lang
	if err := config.SaveConfig(cfg, configPath); err != nil {
		return err
	}
	utils.LogDebugf("language %s saved to %s", lang, configPath)
	return nil
}

func (m *chatModel) resize() {
	headerHeight := lipgloss.Height(renderInfoBar(*m))
	footerHeight := lipgloss.Height(renderChatInput(*m))
	// CRITICAL: Prevent negative viewport height that causes slice bounds panic
	newHeight := max(m.termHeight-footerHeight-headerHeight, 1)
	m.viewport.Width = m.width
	m.viewport.Height = newHeight
	m.textarea.SetWidth(max(m.width-2, 10))
}

func renderChatContent(m chatModel) string {
	var b strings.Builder
	if len(m.state.Messages) == 0 && !m.state.Thinking {
		b.WriteString(dimStyle.Render(m.str.TypeMessage) + gap)
	}
	for _, msg := range m.state.Messages {
		b.WriteString(renderMessage(msg, m.str, m.width) + gap)
	}
	if m.state.Thinking {
		thinking := assistantPrompt + " " + m.spin.View() + m.str.Thinking
		b.WriteString(assistantStyle.Width(max(m.width-2, 10)).Render(thinking) + gap)
	}
	if m.notice != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(m.notice) + "\n")
	}
	return b.String()
}

// setViewportContent updates the viewport with the current chat rendering.
func (m *chatModel) setViewportContent() {
	m.viewport.SetContent(lipgloss.NewStyle().Width(m.viewport.Width).Render(renderChatContent(*m)))
}

// refreshViewportBottom updates the viewport and scrolls to the bottom.
func (m *chatModel) refreshViewportBottom() {
	m.setViewportContent()
	m.viewport.GotoBottom()
}

func renderChatInput(m chatModel) string {
	var b strings.Builder
	b.WriteString(gap)

	cbStyle := lipgloss.NewStyle().
		MarginBottom(1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("63"))
	b.WriteString(cbStyle.Render(m.textarea.View()))

	helpText := "Enter: " + strings.ToLower(m.str.Send) +
		" | Ctrl+H: history | Ctrl+N: " + strings.ToLower(m.str.NewChat) +
		" | Ctrl+Y: copy | Ctrl+L: EN/RU | Ctrl+C: quit"
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Faint(true).Width(max(m.width-2, 10)).Render(helpText))
	b.WriteString("\n")
	return b.String()
}

func renderInfoBar(m chatModel) string {
	title := m.str.NewChat
	if c, ok := m.state.CurrentChat(); ok {
		title = c.Title
	}

	host := m.cli.Settings.ServerURL
	host = strings.TrimPrefix(strings.TrimPrefix(host, "http://"), "https://")
	if m.cli.Mode == utils.StatusMock {
		host = "offline mock"
	}

	statusLine := fmt.Sprintf("🩺 %s | %s %s | %s | %s",
		title, utils.IconForStatus(m.backendStatus), m.backendStatus, host, strings.ToUpper(string(m.str.Language)))

	style := lipgloss.NewStyle().
		Width(m.width).
		Background(lipgloss.Color("#027ffd")).
		Foreground(lipgloss.Color("#ffffff")).
		PaddingLeft(1).
		PaddingRight(1)

	// Truncate if too long for terminal width
	if maxLen := m.width - 5; maxLen > 0 && lipgloss.Width(statusLine) > m.width-2 {
		r := []rune(statusLine)
		if len(r) > maxLen {
			statusLine = string(r[:maxLen]) + "..."
		}
	}
	return style.Render(statusLine)
}

func (m chatModel) View() string {
	var b strings.Builder
	if m.history.IsActive() {
		dim := lipgloss.NewStyle().Faint(true)
		b.WriteString(dim.Render(m.viewport.View()))
		b.WriteString("\n")
		b.WriteString(m.history.View())
		shadow := m
		shadow.textarea.Blur()
		b.WriteString(dim.Render(renderChatInput(shadow)))
	} else {
		b.WriteString(m.viewport.View())
		b.WriteString(renderChatInput(m))
	}
	// Always draw the status bar at the very bottom (no dimming)
	b.WriteString(renderInfoBar(m))

	if v := m.toast.View(); v != "" {
		b.WriteString("\n")
		b.WriteString(v)
	}
	return b.String()
}
