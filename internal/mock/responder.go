package mock

import (
	"regexp"
	"strings"

	"protocol-cli/internal/chat"
	"protocol-cli/internal/i18n"
)

// ClarifyingQuestion is what the mock asks when no keyword matches.
const ClarifyingQuestion = "Can you describe the symptoms in more detail? For example: duration, severity, and any other signs (e.g. fever, cough)."

// respiratoryKeywords matches English and Russian cough, fever, bronchitis
// and chest-pain vocabulary.
var respiratoryKeywords = regexp.MustCompile(`(?i)\bcough\b|\bкашель\b|\bкашл|bronchitis|бронхит|fever|лихорадк|температур|chest\s*pain|боль\s*в\s*груд`)

var respiratoryDiagnoses = []chat.DiagnosisItem{
	{Rank: 1, Diagnosis: "Острый бронхит", ICD10Code: "J20.9", Explanation: "Клиническая картина соответствует острому бронхиту."},
	{Rank: 2, Diagnosis: "ОРВИ", ICD10Code: "J06.9", Explanation: "Острая респираторная инфекция."},
	{Rank: 3, Diagnosis: "Пневмония неуточнённая", ICD10Code: "J18.9", Explanation: "Исключить при сохранении симптомов."},
}

// Response is the keyword responder's answer: either diagnoses or a
// clarifying question, never both.
type Response struct {
	Diagnoses []chat.DiagnosisItem
	Question  string
}

// Respond classifies free-text symptoms.
func Respond(symptoms string) Response {
	lower := strings.ToLower(symptoms)
	// \b is ASCII-only in RE2, so Cyrillic stems get a plain substring check too
	if respiratoryKeywords.MatchString(lower) || strings.Contains(lower, "cough") || strings.Contains(lower, "кашель") {
		out := make([]chat.DiagnosisItem, len(respiratoryDiagnoses))
		copy(out, respiratoryDiagnoses)
		return Response{Diagnoses: out}
	}
	return Response{Question: ClarifyingQuestion}
}

type analytics struct {
	specialists []string
	procedures  []string
	medications []string
}

var analyticsByCode = map[string]analytics{
	"J20.9": {
		specialists: []string{"Терапевт", "Пульмонолог"},
		procedures:  []string{"ОАК", "Рентген грудной клетки при подозрении на пневмонию"},
		medications: []string{"Симптоматическая терапия", "При необходимости — муколитики"},
	},
	"J06.9": {
		specialists: []string{"Терапевт"},
		procedures:  []string{"ОАК при длительной лихорадке"},
		medications: []string{"Жаропонижающие", "Обильное питьё"},
	},
	"J18.9": {
		specialists: []string{"Терапевт", "Пульмонолог"},
		procedures:  []string{"ОАК", "Рентген ОГК", "СРБ"},
		medications: []string{"По результатам обследования — антибактериальная терапия по показаниям"},
	},
	"R09.1": {
		specialists: []string{"Терапевт", "Пульмонолог"},
		procedures:  []string{"Рентген ОГК", "УЗИ плевральной полости"},
		medications: []string{"НПВП при боли", "Лечение основного заболевания"},
	},
}

var defaultAnalytics = analytics{
	specialists: []string{"Терапевт"},
	procedures:  []string{"Общий осмотр", "ОАК"},
	medications: []string{"По показаниям"},
}

// DetailSections returns the recommendation sections for an ICD-10 code,
// titled in the given language. Unknown codes get a generic set.
func DetailSections(icd10Code string, s i18n.Strings) []chat.DetailSection {
	a, ok := analyticsByCode[strings.ToUpper(strings.TrimSpace(icd10Code))]
	if !ok {
		a = defaultAnalytics
	}
	return []chat.DetailSection{
		{Title: s.RecommendedSpecialists, Items: append([]string(nil), a.specialists...)},
		{Title: s.NecessaryProcedures, Items: append([]string(nil), a.procedures...)},
		{Title: s.Medications, Items: append([]string(nil), a.medications...)},
	}
}
