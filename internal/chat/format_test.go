package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreviewFromMessages(t *testing.T) {
	tests := []struct {
		name     string
		contents []string
		want     string
	}{
		{"no messages", nil, DefaultTitle},
		{"only blanks", []string{"  ", "\n"}, DefaultTitle},
		{"short text kept", []string{"  Headache  "}, "Headache"},
		{"exactly forty", []string{"Patient has fever and cough for two days"}, "Patient has fever and cough for two days"},
		{"long text cut", []string{"Patient has fever and cough for two days please help"}, "Patient has fever and cough for two days…"},
		{"skips blank first", []string{"", "Chest pain"}, "Chest pain"},
		{"cyrillic counted by character", []string{"Кашель и температура уже третий день подряд, помогите"}, "Кашель и температура уже третий день под…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := make([]Message, 0, len(tt.contents))
			for _, c := range tt.contents {
				msgs = append(msgs, Message{Role: RoleUser, Content: c})
			}
			assert.Equal(t, tt.want, PreviewFromMessages(msgs, PreviewMaxLen))
		})
	}
}

func TestIsDefaultTitle(t *testing.T) {
	assert.True(t, IsDefaultTitle("New chat"))
	assert.True(t, IsDefaultTitle("New Chat"))
	assert.False(t, IsDefaultTitle("Headache and dizziness"))
}

func TestPrimaryDiagnosis(t *testing.T) {
	d := &DiagnosisData{Diagnoses: []DiagnosisItem{
		{Rank: 2, Diagnosis: "ОРВИ", ICD10Code: "J06.9"},
		{Rank: 1, Diagnosis: "Острый бронхит", ICD10Code: "J20.9"},
	}}
	p, ok := d.Primary()
	assert.True(t, ok)
	assert.Equal(t, "J20.9", p.ICD10Code)

	_, ok = (&DiagnosisData{Diagnoses: []DiagnosisItem{{Rank: 2}}}).Primary()
	assert.False(t, ok)

	var nilData *DiagnosisData
	_, ok = nilData.Primary()
	assert.False(t, ok)
	assert.False(t, nilData.HasDetails())
}
