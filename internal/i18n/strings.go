// Package i18n holds the fixed user-facing texts of the client in English
// and Russian.
package i18n

import "strings"

// Language is a supported UI language code.
type Language string

const (
	English Language = "en"
	Russian Language = "ru"
)

// Strings is one language's table of labels and fixed assistant texts.
type Strings struct {
	Language Language

	NewChat                     string
	Send                        string
	TypeMessage                 string
	Today                       string
	DetailedAnalysis            string
	DetailedAnalysisOfDiagnosis string
	RecommendedSpecialists      string
	NecessaryProcedures         string
	Medications                 string
	Pin                         string
	Unpin                       string
	Delete                      string
	PinnedSection               string
	MyChatsSection              string
	History                     string
	ClosingMessage              string
	// ViewDiagnosisProtocol uses {diagnosis} as the placeholder.
	ViewDiagnosisProtocol       string
	DetailedAnalysisUnavailable string
	Thinking                    string
	Copied                      string

	// Assistant message texts produced by a turn.
	DiagnosesFound   string
	NeedMoreDetail   string
	ConnectionFailed string
}

var en = Strings{
	Language:                    English,
	NewChat:                     "New Chat",
	Send:                        "Send",
	TypeMessage:                 "Type your message...",
	Today:                       "Today",
	DetailedAnalysis:            "Detailed Analysis",
	DetailedAnalysisOfDiagnosis: "Detailed analysis of the most likely diagnosis",
	RecommendedSpecialists:      "Recommended specialists",
	NecessaryProcedures:         "Necessary procedures / tests",
	Medications:                 "Medications",
	Pin:                         "Pin",
	Unpin:                       "Unpin",
	Delete:                      "Delete",
	PinnedSection:               "Pinned",
	MyChatsSection:              "My chats",
	History:                     "Chat history",
	ClosingMessage:              "We have prepared a preliminary hypothesis based on the RC protocols as a basis for discussion with your doctor. A specialist can clarify details and order necessary examinations. Have a good day!",
	ViewDiagnosisProtocol:       "View {diagnosis} Protocol",
	DetailedAnalysisUnavailable: "Detailed analysis is unavailable for this diagnosis.",
	Thinking:                    "Thinking…",
	Copied:                      "Copied to clipboard",
	DiagnosesFound:              "Based on the description, possible diagnoses include:",
	NeedMoreDetail:              "Could not match any diagnoses. Please describe the symptoms in more detail.",
	ConnectionFailed:            "Failed to reach the server. Check that the backend is running.",
}

var ru = Strings{
	Language:                    Russian,
	NewChat:                     "Новый чат",
	Send:                        "Отправить",
	TypeMessage:                 "Введите сообщение...",
	Today:                       "Сегодня",
	DetailedAnalysis:            "Подробный анализ",
	DetailedAnalysisOfDiagnosis: "Подробный анализ наиболее вероятного диагноза",
	RecommendedSpecialists:      "Рекомендуемые специалисты",
	NecessaryProcedures:         "Необходимые процедуры / анализы",
	Medications:                 "Лекарства",
	Pin:                         "Закрепить",
	Unpin:                       "Открепить",
	Delete:                      "Удалить",
	PinnedSection:               "Закреплённые",
	MyChatsSection:              "Мои чаты",
	History:                     "История чатов",
	ClosingMessage:              "Мы подготовили предварительную гипотезу по протоколам РК — как основу для разговора с врачом. Специалист сможет уточнить детали и назначить необходимое обследование. Хорошего вам дня!",
	ViewDiagnosisProtocol:       "Посмотреть протокол {diagnosis}",
	DetailedAnalysisUnavailable: "Подробный анализ для этого диагноза недоступен.",
	Thinking:                    "Думаю…",
	Copied:                      "Скопировано в буфер обмена",
	DiagnosesFound:              "По описанию возможны следующие варианты диагнозов:",
	NeedMoreDetail:              "Не удалось подобрать диагнозы. Опишите симптомы подробнее.",
	ConnectionFailed:            "Ошибка при обращении к серверу. Проверьте, что бэкенд запущен.",
}

// For returns the table for lang; unknown codes get English.
func For(lang string) Strings {
	switch Language(strings.ToLower(strings.TrimSpace(lang))) {
	case Russian:
		return ru
	default:
		return en
	}
}

// Toggle returns the other supported language.
func Toggle(lang Language) Language {
	if lang == Russian {
		return English
	}
	return Russian
}

// ViewProtocol fills the diagnosis name into ViewDiagnosisProtocol.
func (s Strings) ViewProtocol(diagnosis string) string {
	return strings.ReplaceAll(s.ViewDiagnosisProtocol, "{diagnosis}", diagnosis)
}
