// Package tui holds the overlay widgets of the chat screen.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"protocol-cli/cmd/utils"
	"protocol-cli/internal/chat"
	"protocol-cli/internal/i18n"
)

const historyWidth = 64

// HistoryModel is the chat history overlay: pinned chats first, then the
// rest, each with its last-activity time.
type HistoryModel struct {
	active    bool
	cursorPos int
	width     int
	height    int

	chats     []chat.Chat
	currentID string
	strings   i18n.Strings
	now       func() time.Time

	focusedStyle lipgloss.Style
	headerStyle  lipgloss.Style
	sectionStyle lipgloss.Style
	hintStyle    lipgloss.Style
	borderStyle  lipgloss.Style
	activeStyle  lipgloss.Style
	accentColor  lipgloss.Color
}

func NewHistoryModel(str i18n.Strings) HistoryModel {
	m := HistoryModel{strings: str, now: time.Now}
	m.accentColor = lipgloss.Color("86")
	m.focusedStyle = lipgloss.NewStyle().Foreground(m.accentColor).Bold(true)
	m.headerStyle = lipgloss.NewStyle().Bold(true).Foreground(m.accentColor)
	m.sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	m.hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	m.borderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(m.accentColor).Padding(1, 2)
	m.activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	return m
}

// SetChats replaces the listed chats. They are shown in the given order,
// which the store already keeps pinned-first.
func (m *HistoryModel) SetChats(chats []chat.Chat, currentID string) {
	m.chats = chats
	m.currentID = currentID
	if m.cursorPos >= len(chats) {
		m.cursorPos = max(len(chats)-1, 0)
	}
}

func (m *HistoryModel) SetStrings(str i18n.Strings) { m.strings = str }

// SetClock overrides the time used for "Today" labels.
func (m *HistoryModel) SetClock(now func() time.Time) { m.now = now }

func (m *HistoryModel) Open() {
	m.active = true
	m.cursorPos = 0
	for i, c := range m.chats {
		if c.ID == m.currentID {
			m.cursorPos = i
		}
	}
}

func (m *HistoryModel) Close() { m.active = false }
func (m *HistoryModel) Toggle() {
	if m.active {
		m.Close()
	} else {
		m.Open()
	}
}

func (m HistoryModel) IsActive() bool { return m.active }

// Selected returns the chat under the cursor.
func (m HistoryModel) Selected() (chat.Chat, bool) {
	if m.cursorPos < 0 || m.cursorPos >= len(m.chats) {
		return chat.Chat{}, false
	}
	return m.chats[m.cursorPos], true
}

func (m HistoryModel) Update(msg tea.Msg) (HistoryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if !m.active {
			return m, nil
		}
		switch msg.String() {
		case "esc", "ctrl+h":
			m.active = false
			return m, nil
		case "up", "k":
			if m.cursorPos > 0 {
				m.cursorPos--
			} else if len(m.chats) > 0 {
				m.cursorPos = len(m.chats) - 1
			}
			return m, nil
		case "down", "j":
			if m.cursorPos < len(m.chats)-1 {
				m.cursorPos++
			} else {
				m.cursorPos = 0
			}
			return m, nil
		case "n":
			m.active = false
			return m, emit(NewChatMsg{})
		}
		selected, ok := m.Selected()
		if !ok {
			return m, nil
		}
		switch msg.String() {
		case "enter":
			m.active = false
			return m, emit(LoadChatMsg{ID: selected.ID})
		case "p":
			return m, emit(PinChatMsg{ID: selected.ID, Pinned: !selected.Pinned})
		case "d", "delete":
			return m, emit(DeleteChatMsg{ID: selected.ID})
		}
	}
	return m, nil
}

func (m HistoryModel) View() string {
	if !m.active {
		return ""
	}
	var content strings.Builder
	header := m.headerStyle.Render("🩺 " + m.strings.History)
	closeHint := m.hintStyle.Render("[ESC]")
	gap := max(historyWidth-lipgloss.Width(header)-lipgloss.Width(closeHint)-4, 1)
	content.WriteString(header + strings.Repeat(" ", gap) + closeHint + "\n")
	content.WriteString(strings.Repeat("─", historyWidth-4) + "\n")

	var pinned, others []int
	for i, c := range m.chats {
		if c.Pinned {
			pinned = append(pinned, i)
		} else {
			others = append(others, i)
		}
	}
	if len(pinned) > 0 {
		content.WriteString("\n" + m.sectionStyle.Render(m.strings.PinnedSection) + "\n")
		for _, i := range pinned {
			content.WriteString(m.renderRow(i) + "\n")
		}
	}
	content.WriteString("\n" + m.sectionStyle.Render(m.strings.MyChatsSection) + "\n")
	if len(others) == 0 {
		content.WriteString(m.hintStyle.Render("  —") + "\n")
	}
	for _, i := range others {
		content.WriteString(m.renderRow(i) + "\n")
	}

	content.WriteString("\n" + strings.Repeat("─", historyWidth-4) + "\n")
	content.WriteString(m.renderFooter())
	box := m.borderStyle.Width(historyWidth).Render(content.String())
	return m.position(box)
}

func (m HistoryModel) renderRow(i int) string {
	c := m.chats[i]
	cursor := "  "
	if i == m.cursorPos {
		cursor = "→ "
	}
	mark := " "
	if c.ID == m.currentID {
		mark = "✓"
	}
	when := utils.FormatChatTime(c.Timestamp, m.now(), m.strings.Today)
	title := truncate(c.Title, historyWidth-len([]rune(when))-12)
	line := fmt.Sprintf("%s%s %s", cursor, mark, title)
	gap := max(historyWidth-8-lipgloss.Width(line)-lipgloss.Width(when), 1)
	line += strings.Repeat(" ", gap) + m.hintStyle.Render(when)
	switch {
	case i == m.cursorPos:
		return m.focusedStyle.Render(line)
	case c.ID == m.currentID:
		return m.activeStyle.Render(line)
	}
	return line
}

func (m HistoryModel) renderFooter() string {
	pin := m.strings.Pin
	if c, ok := m.Selected(); ok && c.Pinned {
		pin = m.strings.Unpin
	}
	shortcuts := []string{"↑↓", "Enter", "p: " + pin, "d: " + m.strings.Delete, "n: " + m.strings.NewChat}
	return m.hintStyle.Render(strings.Join(shortcuts, "  "))
}

func (m HistoryModel) position(content string) string {
	if m.width <= 0 {
		return content
	}
	return lipgloss.Place(m.width, max(m.height, lipgloss.Height(content)), lipgloss.Center, lipgloss.Center, content)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// LoadChatMsg asks the chat screen to open a chat.
type LoadChatMsg struct{ ID string }

// PinChatMsg asks the chat screen to pin or unpin a chat.
type PinChatMsg struct {
	ID     string
	Pinned bool
}

// DeleteChatMsg asks the chat screen to delete a chat.
type DeleteChatMsg struct{ ID string }

// NewChatMsg asks the chat screen to start a new chat.
type NewChatMsg struct{}

func emit(msg tea.Msg) tea.Cmd { return func() tea.Msg { return msg } }
