package cmd

import (
	"strings"
	"testing"

	"protocol-cli/internal/chat"
	"protocol-cli/internal/i18n"
)

func diagnosisMessage(sections []chat.DetailSection) chat.Message {
	return chat.Message{
		Role:    chat.RoleAssistant,
		Content: "Based on the description, possible diagnoses include:",
		Diagnosis: &chat.DiagnosisData{
			Diagnoses: []chat.DiagnosisItem{
				{Rank: 2, Diagnosis: "ОРВИ", ICD10Code: "J06.9", Explanation: "Upper respiratory infection."},
				{Rank: 1, Diagnosis: "Острый бронхит", ICD10Code: "J20.9", Explanation: "Cough and fever."},
			},
			DetailsSections: sections,
		},
	}
}

func TestFormatAssistantText(t *testing.T) {
	en := i18n.For("en")
	tests := []struct {
		name       string
		msg        chat.Message
		contains   []string
		notContain []string
	}{
		{
			name:       "plain text",
			msg:        chat.Message{Role: chat.RoleAssistant, Content: en.NeedMoreDetail},
			contains:   []string{en.NeedMoreDetail},
			notContain: []string{en.ClosingMessage, en.DetailedAnalysisOfDiagnosis},
		},
		{
			name: "with details",
			msg: diagnosisMessage([]chat.DetailSection{
				{Title: "Recommended specialists", Items: []string{"Терапевт", "Пульмонолог"}},
			}),
			contains: []string{
				"1. Острый бронхит (J20.9)",
				"2. ОРВИ (J06.9)",
				"   Cough and fever.",
				en.DetailedAnalysisOfDiagnosis + ": Острый бронхит",
				"Recommended specialists:",
				"  • Пульмонолог",
				"View Острый бронхит Protocol",
				en.ClosingMessage,
			},
			notContain: []string{en.DetailedAnalysisUnavailable},
		},
		{
			name:     "without details",
			msg:      diagnosisMessage(nil),
			contains: []string{en.DetailedAnalysisUnavailable, en.ClosingMessage},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatAssistantText(tt.msg, en)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("formatAssistantText() missing %q in:\n%s", want, got)
				}
			}
			for _, unwanted := range tt.notContain {
				if strings.Contains(got, unwanted) {
					t.Errorf("formatAssistantText() should not contain %q in:\n%s", unwanted, got)
				}
			}
		})
	}
}

func TestFormatAssistantTextOrdersByRank(t *testing.T) {
	got := formatAssistantText(diagnosisMessage(nil), i18n.For("en"))
	first := strings.Index(got, "Острый бронхит (J20.9)")
	second := strings.Index(got, "ОРВИ (J06.9)")
	if first < 0 || second < 0 || first > second {
		t.Errorf("expected rank 1 before rank 2, got:\n%s", got)
	}
}

func TestRankedDiagnosesKeepsInput(t *testing.T) {
	items := diagnosisMessage(nil).Diagnosis.Diagnoses
	ranked := rankedDiagnoses(items)
	if ranked[0].Rank != 1 || items[0].Rank != 2 {
		t.Errorf("rankedDiagnoses() = %v, input now %v", ranked, items)
	}
}

func TestRenderMessage(t *testing.T) {
	ru := i18n.For("ru")

	user := renderMessage(chat.Message{Role: chat.RoleUser, Content: "кашель"}, ru, 80)
	if !strings.Contains(user, "кашель") || !strings.Contains(user, "You:") {
		t.Errorf("user message rendered as %q", user)
	}

	out := renderMessage(diagnosisMessage(nil), ru, 80)
	for _, want := range []string{"Острый бронхит", "J20.9", "ОРВИ", ru.DetailedAnalysis, ru.DetailedAnalysisUnavailable, "Посмотреть протокол Острый бронхит"} {
		if !strings.Contains(out, want) {
			t.Errorf("renderMessage() missing %q", want)
		}
	}

	plain := renderMessage(chat.Message{Role: chat.RoleAssistant, Content: "Опишите подробнее"}, ru, 80)
	if strings.Contains(plain, ru.DetailedAnalysis) {
		t.Errorf("plain assistant message should not render analysis: %q", plain)
	}
}

func TestLastAssistantMessage(t *testing.T) {
	msgs := []chat.Message{
		{ID: "a1", Role: chat.RoleAssistant},
		{ID: "u1", Role: chat.RoleUser},
		{ID: "a2", Role: chat.RoleAssistant},
		{ID: "u2", Role: chat.RoleUser},
	}
	got, ok := lastAssistantMessage(msgs)
	if !ok || got.ID != "a2" {
		t.Errorf("lastAssistantMessage() = %q, %v", got.ID, ok)
	}
	if _, ok := lastAssistantMessage(msgs[1:2]); ok {
		t.Error("expected no assistant message")
	}
}
