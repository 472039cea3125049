package mock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protocol-cli/internal/chat"
	"protocol-cli/internal/i18n"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(opts ...Option) *Service {
	base := []Option{WithLatency(0), WithClock(func() time.Time { return fixedNow })}
	return New(append(base, opts...)...)
}

func TestRespond(t *testing.T) {
	tests := []struct {
		input   string
		matches bool
	}{
		{"Patient has dry cough and fever for 3 days", true},
		{"chest pain when breathing", true},
		{"ChestPain after running", true},
		{"Сильный кашель ночью", true},
		{"подозрение на бронхит", true},
		{"высокая температура", true},
		{"боль в груди", true},
		{"persistent coughing", true},
		{"sore throat", false},
		{"Headache and dizziness", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r := Respond(tt.input)
			if tt.matches {
				require.Len(t, r.Diagnoses, 3)
				assert.Empty(t, r.Question)
				assert.Equal(t, "Острый бронхит", r.Diagnoses[0].Diagnosis)
				assert.Equal(t, 1, r.Diagnoses[0].Rank)
				assert.Equal(t, "J18.9", r.Diagnoses[2].ICD10Code)
			} else {
				assert.Empty(t, r.Diagnoses)
				assert.Equal(t, ClarifyingQuestion, r.Question)
			}
		})
	}
}

func TestRespondReturnsCopies(t *testing.T) {
	r := Respond("cough")
	r.Diagnoses[0].Diagnosis = "changed"
	assert.Equal(t, "Острый бронхит", Respond("cough").Diagnoses[0].Diagnosis)
}

func TestDiagnose(t *testing.T) {
	s := newTestService()
	items, err := s.Diagnose(context.Background(), "chest pain when breathing")
	require.NoError(t, err)
	require.Len(t, items, 3)

	items, err = s.Diagnose(context.Background(), "itchy elbow")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDiagnoseHonorsContext(t *testing.T) {
	s := New(WithLatency(time.Minute))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := s.Diagnose(ctx, "cough")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDetails(t *testing.T) {
	s := newTestService(WithStrings(i18n.For("ru")))
	sections, err := s.Details(context.Background(), "cough", "J18.9")
	require.NoError(t, err)
	require.Len(t, sections, 3)
	assert.Equal(t, "Рекомендуемые специалисты", sections[0].Title)
	assert.Equal(t, []string{"Терапевт", "Пульмонолог"}, sections[0].Items)
	assert.Equal(t, []string{"ОАК", "Рентген ОГК", "СРБ"}, sections[1].Items)

	sections, err = s.Details(context.Background(), "cough", "Z00.0")
	require.NoError(t, err)
	assert.Equal(t, []string{"Общий осмотр", "ОАК"}, sections[1].Items)
	assert.Equal(t, []string{"По показаниям"}, sections[2].Items)
}

func TestSeededHistory(t *testing.T) {
	s := newTestService()
	chats, err := s.ListChats(context.Background())
	require.NoError(t, err)
	require.Len(t, chats, 3)

	// pinned first, then most recent
	assert.Equal(t, []string{"1", "3", "2"}, []string{chats[0].ID, chats[1].ID, chats[2].ID})
	assert.True(t, chats[0].Pinned)
	assert.Equal(t, fixedNow.Add(-24*time.Hour), chats[0].Timestamp)
	assert.Equal(t, fixedNow.Add(-time.Hour+4*time.Second), chats[1].Messages[1].Timestamp)

	primary, ok := chats[1].Messages[1].Diagnosis.Primary()
	require.True(t, ok)
	assert.Equal(t, "Плеврит", primary.Diagnosis)
}

func TestListChatsReturnsCopies(t *testing.T) {
	s := newTestService()
	chats, err := s.ListChats(context.Background())
	require.NoError(t, err)
	chats[0].Title = "mutated"
	chats[0].Messages[0].Content = "mutated"

	again, err := s.ListChats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Patient has dry cough and fever…", again[0].Title)
	assert.Equal(t, "Patient has dry cough and fever for 3 days", again[0].Messages[0].Content)
}

func TestCreateChatAssignsSequentialIDs(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	first, err := s.CreateChat(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "101", first.ID)
	assert.Equal(t, chat.DefaultTitle, first.Title)
	assert.Equal(t, fixedNow, first.Timestamp)
	assert.NotNil(t, first.Messages)

	second, err := s.CreateChat(ctx, "Follow-up")
	require.NoError(t, err)
	assert.Equal(t, "102", second.ID)
	assert.Equal(t, "Follow-up", second.Title)
}

func TestAddMessageRetitlesPlaceholder(t *testing.T) {
	s := newTestService(WithoutSeed())
	ctx := context.Background()
	c, err := s.CreateChat(ctx, "")
	require.NoError(t, err)

	require.NoError(t, s.AddMessage(ctx, c.ID, chat.Message{Role: chat.RoleUser, Content: "Patient has fever and cough for two days and more"}))
	require.NoError(t, s.AddMessage(ctx, c.ID, chat.Message{Role: chat.RoleAssistant, Content: "ok"}))

	chats, err := s.ListChats(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "Patient has fever and cough for two days…", chats[0].Title)
	require.Len(t, chats[0].Messages, 2)
	assert.NotEmpty(t, chats[0].Messages[0].ID)
	assert.Equal(t, fixedNow, chats[0].Messages[0].Timestamp)
}

func TestAddMessageKeepsCustomTitle(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	require.NoError(t, s.AddMessage(ctx, "2", chat.Message{ID: "m9", Role: chat.RoleUser, Content: "also nausea"}))

	chats, err := s.ListChats(ctx)
	require.NoError(t, err)
	for _, c := range chats {
		if c.ID == "2" {
			assert.Equal(t, "Headache and dizziness", c.Title)
			assert.Equal(t, "m9", c.Messages[len(c.Messages)-1].ID)
		}
	}
}

func TestMutationsOnUnknownChat(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	assert.ErrorIs(t, s.AddMessage(ctx, "nope", chat.Message{}), ErrChatNotFound)
	assert.ErrorIs(t, s.DeleteChat(ctx, "nope"), ErrChatNotFound)
	assert.ErrorIs(t, s.SetPinned(ctx, "nope", true), ErrChatNotFound)
	assert.ErrorIs(t, s.UpdateTitle(ctx, "nope", "x"), ErrChatNotFound)
}

func TestPinDeleteRename(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	require.NoError(t, s.SetPinned(ctx, "2", true))
	require.NoError(t, s.SetPinned(ctx, "1", false))
	require.NoError(t, s.UpdateTitle(ctx, "3", "Плеврит"))
	require.NoError(t, s.DeleteChat(ctx, "1"))

	chats, err := s.ListChats(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "2", chats[0].ID)
	assert.True(t, chats[0].Pinned)
	assert.Equal(t, "Плеврит", chats[1].Title)
}
