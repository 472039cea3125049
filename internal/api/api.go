// Package api defines the backend capabilities the client depends on and the
// HTTP implementation of them.
package api

import (
	"context"

	"protocol-cli/internal/chat"
)

// DiagnosisService turns free-text symptoms into ranked diagnoses and
// per-diagnosis recommendations.
type DiagnosisService interface {
	Diagnose(ctx context.Context, symptoms string) ([]chat.DiagnosisItem, error)
	Details(ctx context.Context, symptoms, icd10Code string) ([]chat.DetailSection, error)
}

// ChatService persists chat history.
type ChatService interface {
	ListChats(ctx context.Context) ([]chat.Chat, error)
	// CreateChat returns the chat as stored, including its assigned ID.
	CreateChat(ctx context.Context, title string) (chat.Chat, error)
	// AddMessage stores role, content and diagnosis data; the backend assigns
	// the message ID and timestamp.
	AddMessage(ctx context.Context, chatID string, msg chat.Message) error
	DeleteChat(ctx context.Context, id string) error
	SetPinned(ctx context.Context, id string, pinned bool) error
	UpdateTitle(ctx context.Context, id, title string) error
}

// Backend is everything a chat turn needs.
type Backend interface {
	DiagnosisService
	ChatService
}

// Pinger is implemented by backends that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RequestError is returned for non-2xx responses. Message is the response
// body text, or "HTTP <status>" when the body was empty.
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return e.Message
}
