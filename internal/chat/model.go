// Package chat holds the conversation model and the state store that owns the
// client's chat history.
package chat

import (
	"strings"
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultTitle is the placeholder title given to chats created on first send.
const DefaultTitle = "New chat"

// DiagnosisItem is one ranked candidate diagnosis. Rank 1 is the primary.
type DiagnosisItem struct {
	Rank        int    `json:"rank"`
	Diagnosis   string `json:"diagnosis"`
	ICD10Code   string `json:"icd10_code"`
	Explanation string `json:"explanation"`
}

// DetailSection is a titled list of recommendations for the primary diagnosis,
// e.g. specialists, procedures or medications.
type DetailSection struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// DiagnosisData is attached to assistant messages produced by a successful
// diagnose call. DetailsSections is only set when the details call returned
// non-empty data.
type DiagnosisData struct {
	Diagnoses       []DiagnosisItem `json:"diagnoses"`
	DetailsSections []DetailSection `json:"detailsSections,omitempty"`
}

// Primary returns the rank-1 diagnosis, if any.
func (d *DiagnosisData) Primary() (DiagnosisItem, bool) {
	if d == nil {
		return DiagnosisItem{}, false
	}
	return PrimaryDiagnosis(d.Diagnoses)
}

// HasDetails reports whether detail sections are available for rendering.
func (d *DiagnosisData) HasDetails() bool {
	return d != nil && len(d.DetailsSections) > 0
}

// PrimaryDiagnosis returns the first item with rank 1. Rank uniqueness is
// assumed, not enforced.
func PrimaryDiagnosis(items []DiagnosisItem) (DiagnosisItem, bool) {
	for _, it := range items {
		if it.Rank == 1 {
			return it, true
		}
	}
	return DiagnosisItem{}, false
}

// Message is a single chat bubble. Messages are immutable once appended.
type Message struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Diagnosis *DiagnosisData `json:"diagnosisData,omitempty"`
}

// Chat is a titled, ordered conversation.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
	Pinned    bool      `json:"pinned"`
	Messages  []Message `json:"messages"`
}

// IsDefaultTitle reports whether title is still the placeholder given at
// creation. Both capitalizations are accepted since backends differ.
func IsDefaultTitle(title string) bool {
	t := strings.TrimSpace(title)
	return t == DefaultTitle || t == "New Chat"
}
