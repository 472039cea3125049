package devserver

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protocol-cli/internal/chat"
	"protocol-cli/internal/mock"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newGormRepo(t *testing.T) *GormRepository {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "chats.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	repo := NewGormRepository(db)
	repo.now = func() time.Time { return fixedNow }
	return repo
}

func TestGormSeedAndList(t *testing.T) {
	repo := newGormRepo(t)
	ctx := context.Background()

	seeded, err := repo.Seed(ctx, mock.Seed(fixedNow))
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = repo.Seed(ctx, mock.Seed(fixedNow))
	require.NoError(t, err)
	assert.False(t, seeded, "second seed must be a no-op")

	chats, err := repo.ListChats(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 3)
	assert.Equal(t, []string{"1", "3", "2"}, []string{chats[0].ID, chats[1].ID, chats[2].ID})
	assert.True(t, chats[0].Pinned)
	assert.WithinDuration(t, fixedNow.Add(-24*time.Hour), chats[0].Timestamp, time.Millisecond)

	require.Len(t, chats[1].Messages, 2)
	assert.Equal(t, chat.RoleUser, chats[1].Messages[0].Role)
	primary, ok := chats[1].Messages[1].Diagnosis.Primary()
	require.True(t, ok)
	assert.Equal(t, "Плеврит", primary.Diagnosis)
	assert.False(t, chats[1].Messages[1].Diagnosis.HasDetails())
	assert.Nil(t, chats[2].Messages[1].Diagnosis)
}

func TestGormCreateAndAddMessage(t *testing.T) {
	repo := newGormRepo(t)
	ctx := context.Background()

	c, err := repo.CreateChat(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, chat.DefaultTitle, c.Title)
	assert.NotNil(t, c.Messages)

	require.NoError(t, repo.AddMessage(ctx, c.ID, chat.Message{Role: chat.RoleUser, Content: "Patient has fever and cough for two days and more"}))
	require.NoError(t, repo.AddMessage(ctx, c.ID, chat.Message{
		ID:      "a1",
		Role:    chat.RoleAssistant,
		Content: "found",
		Diagnosis: &chat.DiagnosisData{Diagnoses: []chat.DiagnosisItem{
			{Rank: 1, Diagnosis: "ОРВИ", ICD10Code: "J06.9"},
		}},
	}))

	chats, err := repo.ListChats(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	got := chats[0]
	assert.Equal(t, "Patient has fever and cough for two days…", got.Title)
	require.Len(t, got.Messages, 2)
	assert.NotEmpty(t, got.Messages[0].ID)
	assert.WithinDuration(t, fixedNow, got.Messages[0].Timestamp, time.Millisecond)
	assert.Nil(t, got.Messages[0].Diagnosis)
	assert.Equal(t, "a1", got.Messages[1].ID)
	require.NotNil(t, got.Messages[1].Diagnosis)
	assert.Equal(t, "J06.9", got.Messages[1].Diagnosis.Diagnoses[0].ICD10Code)
}

func TestGormCustomTitleKept(t *testing.T) {
	repo := newGormRepo(t)
	ctx := context.Background()
	c, err := repo.CreateChat(ctx, "Follow-up")
	require.NoError(t, err)
	require.NoError(t, repo.AddMessage(ctx, c.ID, chat.Message{Role: chat.RoleUser, Content: "still coughing"}))

	chats, err := repo.ListChats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Follow-up", chats[0].Title)
}

func TestGormPinRenameDelete(t *testing.T) {
	repo := newGormRepo(t)
	ctx := context.Background()
	_, err := repo.Seed(ctx, mock.Seed(fixedNow))
	require.NoError(t, err)

	require.NoError(t, repo.SetPinned(ctx, "2", true))
	require.NoError(t, repo.SetPinned(ctx, "1", false))
	require.NoError(t, repo.UpdateTitle(ctx, "3", "Плеврит"))
	require.NoError(t, repo.DeleteChat(ctx, "1"))

	chats, err := repo.ListChats(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "2", chats[0].ID)
	assert.True(t, chats[0].Pinned)
	assert.Equal(t, "Плеврит", chats[1].Title)

	var orphans int64
	require.NoError(t, repo.db.Model(&messageRecord{}).Where("chat_id = ?", "1").Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestGormUnknownChat(t *testing.T) {
	repo := newGormRepo(t)
	ctx := context.Background()
	assert.ErrorIs(t, repo.AddMessage(ctx, "nope", chat.Message{Role: chat.RoleUser}), ErrChatNotFound)
	assert.ErrorIs(t, repo.DeleteChat(ctx, "nope"), ErrChatNotFound)
	assert.ErrorIs(t, repo.SetPinned(ctx, "nope", true), ErrChatNotFound)
	assert.ErrorIs(t, repo.UpdateTitle(ctx, "nope", "x"), ErrChatNotFound)
}
