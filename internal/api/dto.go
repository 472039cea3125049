package api

import (
	"time"

	"protocol-cli/internal/chat"
)

// Wire types. Timestamps travel as Unix milliseconds; some backends send
// them as floats, so they decode into float64.

type DiagnoseRequest struct {
	Symptoms string `json:"symptoms"`
}

type DiagnoseResponse struct {
	Diagnoses []chat.DiagnosisItem `json:"diagnoses"`
}

type DetailsRequest struct {
	Symptoms  string `json:"symptoms"`
	ICD10Code string `json:"icd10_code"`
}

type DetailsResponse struct {
	Sections []chat.DetailSection `json:"sections"`
}

type ChatsResponse struct {
	Chats []ChatDTO `json:"chats"`
}

type CreateChatRequest struct {
	Title string `json:"title"`
}

type AddMessageRequest struct {
	Role          chat.Role           `json:"role"`
	Content       string              `json:"content"`
	DiagnosisData *chat.DiagnosisData `json:"diagnosis_data,omitempty"`
}

// PatchChatRequest updates either the pinned flag or the title.
type PatchChatRequest struct {
	Pinned *bool   `json:"pinned,omitempty"`
	Title  *string `json:"title,omitempty"`
}

type MessageDTO struct {
	ID            string              `json:"id"`
	Role          chat.Role           `json:"role"`
	Content       string              `json:"content"`
	Timestamp     float64             `json:"timestamp"`
	DiagnosisData *chat.DiagnosisData `json:"diagnosisData,omitempty"`
}

type ChatDTO struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Timestamp float64      `json:"timestamp"`
	Pinned    bool         `json:"pinned"`
	Messages  []MessageDTO `json:"messages"`
}

// ToMessage converts a wire message to the domain type.
func ToMessage(m MessageDTO) chat.Message {
	return chat.Message{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		Timestamp: fromMillis(m.Timestamp),
		Diagnosis: m.DiagnosisData,
	}
}

// ToChat converts a wire chat to the domain type. Missing messages become an
// empty slice.
func ToChat(c ChatDTO) chat.Chat {
	msgs := make([]chat.Message, 0, len(c.Messages))
	for _, m := range c.Messages {
		msgs = append(msgs, ToMessage(m))
	}
	return chat.Chat{
		ID:        c.ID,
		Title:     c.Title,
		Timestamp: fromMillis(c.Timestamp),
		Pinned:    c.Pinned,
		Messages:  msgs,
	}
}

func FromMessage(m chat.Message) MessageDTO {
	return MessageDTO{
		ID:            m.ID,
		Role:          m.Role,
		Content:       m.Content,
		Timestamp:     float64(m.Timestamp.UnixMilli()),
		DiagnosisData: m.Diagnosis,
	}
}

func FromChat(c chat.Chat) ChatDTO {
	msgs := make([]MessageDTO, 0, len(c.Messages))
	for _, m := range c.Messages {
		msgs = append(msgs, FromMessage(m))
	}
	return ChatDTO{
		ID:        c.ID,
		Title:     c.Title,
		Timestamp: float64(c.Timestamp.UnixMilli()),
		Pinned:    c.Pinned,
		Messages:  msgs,
	}
}

func fromMillis(ms float64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms))
}
