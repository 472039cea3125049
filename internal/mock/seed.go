package mock

import (
	"time"

	"protocol-cli/internal/chat"
)

// Seed returns the example history the mock starts with, timestamped
// relative to now.
func Seed(now time.Time) []chat.Chat {
	day := now.Add(-24 * time.Hour)
	halfDay := now.Add(-12 * time.Hour)
	hour := now.Add(-time.Hour)

	return []chat.Chat{
		{
			ID:        "1",
			Title:     "Patient has dry cough and fever…",
			Timestamp: day,
			Pinned:    true,
			Messages: []chat.Message{
				{ID: "m1", Role: chat.RoleUser, Content: "Patient has dry cough and fever for 3 days", Timestamp: day},
				{
					ID:        "m2",
					Role:      chat.RoleAssistant,
					Content:   "Based on the description, possible diagnoses include:",
					Timestamp: day.Add(5 * time.Second),
					Diagnosis: &chat.DiagnosisData{Diagnoses: []chat.DiagnosisItem{
						{Rank: 1, Diagnosis: "Острый бронхит", ICD10Code: "J20.9", Explanation: "Acute bronchitis fits cough and fever."},
						{Rank: 2, Diagnosis: "ОРВИ", ICD10Code: "J06.9", Explanation: "Upper respiratory infection."},
						{Rank: 3, Diagnosis: "Пневмония неуточнённая", ICD10Code: "J18.9", Explanation: "To be ruled out if symptoms persist."},
					}},
				},
			},
		},
		{
			ID:        "2",
			Title:     "Headache and dizziness",
			Timestamp: halfDay,
			Messages: []chat.Message{
				{ID: "m3", Role: chat.RoleUser, Content: "Headache and dizziness for 2 days", Timestamp: halfDay},
				{ID: "m4", Role: chat.RoleAssistant, Content: "Can you describe the headache? Is it unilateral or bilateral? Any nausea?", Timestamp: halfDay.Add(3 * time.Second)},
			},
		},
		{
			ID:        "3",
			Title:     "Chest pain when breathing",
			Timestamp: hour,
			Messages: []chat.Message{
				{ID: "m5", Role: chat.RoleUser, Content: "Chest pain when breathing deeply", Timestamp: hour},
				{
					ID:        "m6",
					Role:      chat.RoleAssistant,
					Content:   "Based on the description, possible diagnoses include:",
					Timestamp: hour.Add(4 * time.Second),
					Diagnosis: &chat.DiagnosisData{Diagnoses: []chat.DiagnosisItem{
						{Rank: 1, Diagnosis: "Плеврит", ICD10Code: "R09.1", Explanation: "Pleuritic pain on deep breath."},
						{Rank: 2, Diagnosis: "Мышечно-скелетная боль", ICD10Code: "M79.1", Explanation: "Chest wall pain."},
					}},
				},
			},
		},
	}
}
