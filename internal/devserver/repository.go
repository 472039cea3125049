// Package devserver is a local stand-in for the diagnosis backend: the chat
// history API plus the diagnose endpoints, served with chi.
package devserver

import (
	"protocol-cli/internal/api"
	"protocol-cli/internal/mock"
)

// ErrChatNotFound is returned by repositories for unknown chat ids. It is the
// same value the mock service returns.
var ErrChatNotFound = mock.ErrChatNotFound

// Repository stores chat history for the dev server.
type Repository interface {
	api.ChatService
}
