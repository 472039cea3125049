package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"protocol-cli/internal/chat"
	"protocol-cli/internal/i18n"
)

var (
	userPrompt      = "🧑‍⚕️ You:"
	assistantPrompt = "🩺 Protocol:"
)

var (
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#cccccc"))
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	primaryStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("86")).Padding(0, 1)
	codeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	sectionStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
)

// rankedDiagnoses returns items ordered by rank without touching the input.
func rankedDiagnoses(items []chat.DiagnosisItem) []chat.DiagnosisItem {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b chat.DiagnosisItem) int { return a.Rank - b.Rank })
	return out
}

// formatAssistantText renders an assistant message as plain text, for the
// one-shot command and the clipboard.
func formatAssistantText(msg chat.Message, str i18n.Strings) string {
	var b strings.Builder
	b.WriteString(msg.Content)
	if msg.Diagnosis == nil || len(msg.Diagnosis.Diagnoses) == 0 {
		return b.String()
	}

	b.WriteString("\n")
	for _, d := range rankedDiagnoses(msg.Diagnosis.Diagnoses) {
		fmt.Fprintf(&b, "\n%d. %s (%s)", d.Rank, d.Diagnosis, d.ICD10Code)
		if e := strings.TrimSpace(d.Explanation); e != "" {
			fmt.Fprintf(&b, "\n   %s", e)
		}
	}

	primary, hasPrimary := msg.Diagnosis.Primary()
	if hasPrimary {
		b.WriteString("\n\n" + str.DetailedAnalysisOfDiagnosis + ": " + primary.Diagnosis)
		if msg.Diagnosis.HasDetails() {
			for _, s := range msg.Diagnosis.DetailsSections {
				b.WriteString("\n\n" + s.Title + ":")
				for _, item := range s.Items {
					b.WriteString("\n  • " + item)
				}
			}
		} else {
			b.WriteString("\n" + str.DetailedAnalysisUnavailable)
		}
		b.WriteString("\n\n" + str.ViewProtocol(primary.Diagnosis))
	}
	b.WriteString("\n\n" + str.ClosingMessage)
	return b.String()
}

// renderMessage renders one transcript entry for the TUI.
func renderMessage(msg chat.Message, str i18n.Strings, width int) string {
	if msg.Role == chat.RoleUser {
		return userStyle.Bold(true).Render(userPrompt) + " " + userStyle.Render(msg.Content)
	}

	var b strings.Builder
	b.WriteString(assistantStyle.Render(assistantPrompt) + " " + msg.Content)
	if msg.Diagnosis == nil || len(msg.Diagnosis.Diagnoses) == 0 {
		return b.String()
	}

	inner := max(width-4, 20)
	primary, hasPrimary := msg.Diagnosis.Primary()
	for _, d := range rankedDiagnoses(msg.Diagnosis.Diagnoses) {
		line := fmt.Sprintf("%d. %s %s", d.Rank, d.Diagnosis, codeStyle.Render(d.ICD10Code))
		if e := strings.TrimSpace(d.Explanation); e != "" {
			line += "\n" + dimStyle.Render(e)
		}
		if hasPrimary && d == primary {
			b.WriteString("\n" + primaryStyle.Width(inner).Render(line))
			continue
		}
		b.WriteString("\n  " + lipgloss.NewStyle().Width(inner).Render(line))
	}

	if hasPrimary {
		b.WriteString("\n\n" + sectionStyle.Render(str.DetailedAnalysis))
		if msg.Diagnosis.HasDetails() {
			for _, s := range msg.Diagnosis.DetailsSections {
				b.WriteString("\n" + lipgloss.NewStyle().Bold(true).Render(s.Title))
				for _, item := range s.Items {
					b.WriteString("\n  • " + item)
				}
			}
		} else {
			b.WriteString("\n" + dimStyle.Render(str.DetailedAnalysisUnavailable))
		}
		b.WriteString("\n" + codeStyle.Render("→ "+str.ViewProtocol(primary.Diagnosis)))
	}
	b.WriteString("\n" + dimStyle.Width(inner).Render(str.ClosingMessage))
	return b.String()
}

// lastAssistantMessage returns the newest assistant message in msgs.
func lastAssistantMessage(msgs []chat.Message) (chat.Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == chat.RoleAssistant {
			return msgs[i], true
		}
	}
	return chat.Message{}, false
}
