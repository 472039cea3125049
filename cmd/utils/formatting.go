package utils

import "strings"

// Backend connection states shown in the status bar and `protocol chats`.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusMock    = "mock"
)

func IconForStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case StatusOnline:
		return "✅"
	case StatusMock:
		return "🧪"
	case StatusOffline:
		return "❌"
	default:
		return "❓"
	}
}
