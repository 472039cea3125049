package chat

import (
	"slices"
	"sort"
)

// State is the client's view of the chat history. Messages mirrors the
// messages of the current chat so the transcript can render without a lookup.
// Values returned by the store share backing arrays and must be treated as
// read-only.
type State struct {
	Chats         []Chat
	CurrentChatID string
	Messages      []Message
	Thinking      bool
}

// CurrentChat returns the selected chat, if any.
func (s State) CurrentChat() (Chat, bool) {
	if s.CurrentChatID == "" {
		return Chat{}, false
	}
	return s.Chat(s.CurrentChatID)
}

// Chat looks a chat up by id.
func (s State) Chat(id string) (Chat, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.Chats[i], true
	}
	return Chat{}, false
}

func (s State) indexOf(id string) int {
	for i := range s.Chats {
		if s.Chats[i].ID == id {
			return i
		}
	}
	return -1
}

// Command is a state transition. The set is closed: only the types in this
// package implement it.
type Command interface {
	apply(State) State
}

// Reduce applies cmd to s and returns the next state. It never mutates s and
// never fails; commands naming unknown chats leave the state unchanged.
func Reduce(s State, cmd Command) State {
	if cmd == nil {
		return s
	}
	return cmd.apply(s)
}

// ReplaceAllChats replaces the whole collection, typically after loading
// history from the backend. The selected chat survives a list fetched before
// it existed, and keeps its local messages, so a turn in progress is never
// lost to a stale snapshot.
type ReplaceAllChats struct{ Chats []Chat }

func (c ReplaceAllChats) apply(s State) State {
	cur, hasCurrent := s.CurrentChat()
	chats := slices.Clone(c.Chats)
	if hasCurrent {
		cur.Messages = slices.Clone(cur.Messages)
		if i := slices.IndexFunc(chats, func(ch Chat) bool { return ch.ID == cur.ID }); i >= 0 {
			chats[i].Messages = cur.Messages
		} else {
			chats = append(chats, cur)
		}
	}
	s.Chats = chats
	sortChats(s.Chats)
	if hasCurrent {
		s.Messages = slices.Clone(cur.Messages)
	}
	return s
}

// SetCurrentChat selects a stored chat. An empty ID clears the selection.
type SetCurrentChat struct{ ID string }

func (c SetCurrentChat) apply(s State) State {
	if c.ID == "" {
		s.CurrentChatID = ""
		s.Messages = nil
		return s
	}
	chat, ok := s.Chat(c.ID)
	if !ok {
		return s
	}
	s.CurrentChatID = chat.ID
	s.Messages = slices.Clone(chat.Messages)
	return s
}

// AppendMessage appends a message to a chat. With an empty ChatID the message
// goes to the current chat (or only to the live transcript when nothing is
// selected). With a ChatID it lands in that chat and reaches the live
// transcript only if that chat is current. LiveOnly messages belong to no
// chat: they reach the live transcript while nothing is selected and are
// dropped otherwise.
type AppendMessage struct {
	ChatID   string
	Message  Message
	LiveOnly bool
}

func (c AppendMessage) apply(s State) State {
	if c.LiveOnly {
		if s.CurrentChatID == "" {
			s.Messages = append(slices.Clone(s.Messages), c.Message)
		}
		return s
	}
	target := c.ChatID
	if target == "" {
		target = s.CurrentChatID
	}
	if target == "" {
		s.Messages = append(slices.Clone(s.Messages), c.Message)
		return s
	}
	i := s.indexOf(target)
	if i < 0 {
		return s
	}
	s.Chats = slices.Clone(s.Chats)
	chat := s.Chats[i]
	chat.Messages = append(slices.Clone(chat.Messages), c.Message)
	s.Chats[i] = chat
	if target == s.CurrentChatID {
		s.Messages = slices.Clone(chat.Messages)
	}
	return s
}

// SetThinking toggles the "assistant is working" indicator.
type SetThinking struct{ Thinking bool }

func (c SetThinking) apply(s State) State {
	s.Thinking = c.Thinking
	return s
}

// StartNewChat clears the selection so the next send creates a chat. No chat
// record is created.
type StartNewChat struct{}

func (StartNewChat) apply(s State) State {
	s.CurrentChatID = ""
	s.Messages = nil
	return s
}

// DeleteChat removes a chat, clearing the selection when it was current.
type DeleteChat struct{ ID string }

func (c DeleteChat) apply(s State) State {
	i := s.indexOf(c.ID)
	if i < 0 {
		return s
	}
	s.Chats = slices.Delete(slices.Clone(s.Chats), i, i+1)
	if s.CurrentChatID == c.ID {
		s.CurrentChatID = ""
		s.Messages = nil
	}
	return s
}

// SetPinned sets a chat's pinned flag and re-sorts the collection.
type SetPinned struct {
	ID     string
	Pinned bool
}

func (c SetPinned) apply(s State) State {
	i := s.indexOf(c.ID)
	if i < 0 {
		return s
	}
	s.Chats = slices.Clone(s.Chats)
	s.Chats[i].Pinned = c.Pinned
	sortChats(s.Chats)
	return s
}

// LoadChat selects a chat and replaces its messages with ones fetched from
// the backend. A nil Messages keeps what is stored.
type LoadChat struct {
	ID       string
	Messages []Message
}

func (c LoadChat) apply(s State) State {
	i := s.indexOf(c.ID)
	if i < 0 {
		return s
	}
	if c.Messages != nil {
		s.Chats = slices.Clone(s.Chats)
		s.Chats[i].Messages = slices.Clone(c.Messages)
	}
	s.CurrentChatID = c.ID
	s.Messages = slices.Clone(s.Chats[i].Messages)
	return s
}

// AddChat inserts a chat at the front of the collection. A chat with the same
// ID is replaced.
type AddChat struct{ Chat Chat }

func (c AddChat) apply(s State) State {
	chats := make([]Chat, 0, len(s.Chats)+1)
	chats = append(chats, c.Chat)
	for _, ch := range s.Chats {
		if ch.ID != c.Chat.ID {
			chats = append(chats, ch)
		}
	}
	s.Chats = chats
	if s.CurrentChatID == c.Chat.ID {
		s.Messages = slices.Clone(c.Chat.Messages)
	}
	return s
}

// UpdateChatTitle renames a chat.
type UpdateChatTitle struct {
	ID    string
	Title string
}

func (c UpdateChatTitle) apply(s State) State {
	i := s.indexOf(c.ID)
	if i < 0 {
		return s
	}
	s.Chats = slices.Clone(s.Chats)
	s.Chats[i].Title = c.Title
	return s
}

// SortChats sorts chats in place in display order.
func SortChats(chats []Chat) {
	sortChats(chats)
}

// sortChats orders pinned chats first, then by most recent timestamp. The
// sort is stable so equal keys keep their relative order.
func sortChats(chats []Chat) {
	sort.SliceStable(chats, func(i, j int) bool {
		if chats[i].Pinned != chats[j].Pinned {
			return chats[i].Pinned
		}
		return chats[i].Timestamp.After(chats[j].Timestamp)
	})
}
