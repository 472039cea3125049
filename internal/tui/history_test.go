package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protocol-cli/internal/chat"
	"protocol-cli/internal/i18n"
)

var now = time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)

func runeKey(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func newHistory(t *testing.T) HistoryModel {
	t.Helper()
	m := NewHistoryModel(i18n.For("en"))
	m.SetClock(func() time.Time { return now })
	m.SetChats([]chat.Chat{
		{ID: "1", Title: "Cough and fever", Timestamp: now.Add(-26 * time.Hour), Pinned: true},
		{ID: "3", Title: "Chest pain", Timestamp: now.Add(-time.Hour)},
		{ID: "2", Title: "Headache", Timestamp: now.Add(-48 * time.Hour)},
	}, "3")
	return m
}

func exec(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	return cmd()
}

func TestHistoryOpenStartsAtCurrentChat(t *testing.T) {
	m := newHistory(t)
	m.Open()
	c, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "3", c.ID)
}

func TestHistoryNavigationWraps(t *testing.T) {
	m := newHistory(t)
	m.Open()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	c, _ := m.Selected()
	assert.Equal(t, "1", c.ID)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	c, _ = m.Selected()
	assert.Equal(t, "2", c.ID)
}

func TestHistoryActions(t *testing.T) {
	m := newHistory(t)
	m.Open()

	_, cmd := m.Update(runeKey("p"))
	assert.Equal(t, PinChatMsg{ID: "3", Pinned: true}, exec(t, cmd))

	_, cmd = m.Update(runeKey("d"))
	assert.Equal(t, DeleteChatMsg{ID: "3"}, exec(t, cmd))

	closed, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, LoadChatMsg{ID: "3"}, exec(t, cmd))
	assert.False(t, closed.IsActive())

	closed, cmd = m.Update(runeKey("n"))
	assert.Equal(t, NewChatMsg{}, exec(t, cmd))
	assert.False(t, closed.IsActive())
}

func TestHistoryIgnoresKeysWhenClosed(t *testing.T) {
	m := newHistory(t)
	_, cmd := m.Update(runeKey("d"))
	assert.Nil(t, cmd)
}

func TestHistoryEmpty(t *testing.T) {
	m := NewHistoryModel(i18n.For("en"))
	m.Open()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "My chats")
}

func TestHistoryView(t *testing.T) {
	m := newHistory(t)
	assert.Empty(t, m.View())

	m.Open()
	view := m.View()
	assert.Contains(t, view, "Pinned")
	assert.Contains(t, view, "My chats")
	assert.Contains(t, view, "Today, 14:30")
	assert.Contains(t, view, "2025-03-09, 13:30")
	assert.Less(t, strings.Index(view, "Cough and fever"), strings.Index(view, "Chest pain"))
	assert.Contains(t, view, "p: Pin")

	m.SetStrings(i18n.For("ru"))
	view = m.View()
	assert.Contains(t, view, "Закреплённые")
	assert.Contains(t, view, "Сегодня, 14:30")
}

func TestHistorySetChatsClampsCursor(t *testing.T) {
	m := newHistory(t)
	m.Open()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m.SetChats([]chat.Chat{{ID: "1", Title: "only"}}, "")
	c, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "1", c.ID)
}

func TestToastHidesOnlyOwnTimer(t *testing.T) {
	m := NewToastModel()
	m, cmd := m.Update(ShowToastMsg{Message: "Copied"})
	require.NotNil(t, cmd)
	assert.True(t, m.Visible())
	assert.Contains(t, m.View(), "Copied")

	first := m.timestamp
	time.Sleep(time.Millisecond)
	m, _ = m.Update(ShowToastMsg{Message: "Again"})
	m, _ = m.Update(HideToastMsg{shownAt: first})
	assert.True(t, m.Visible())

	m, _ = m.Update(HideToastMsg{shownAt: m.timestamp})
	assert.False(t, m.Visible())
	assert.Empty(t, m.View())
}
