package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"protocol-cli/internal/chat"
)

type chatRecord struct {
	ID        string `gorm:"primaryKey"`
	Title     string `gorm:"not null"`
	Timestamp time.Time
	Pinned    bool
	Messages  []messageRecord `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE"`
}

func (chatRecord) TableName() string { return "chats" }

type messageRecord struct {
	Seq       uint   `gorm:"primaryKey;autoIncrement"`
	ID        string `gorm:"not null"`
	ChatID    string `gorm:"index;not null"`
	Role      string `gorm:"not null"`
	Content   string `gorm:"not null"`
	Timestamp time.Time
	// Diagnosis holds chat.DiagnosisData as JSON, empty when absent.
	Diagnosis string
}

func (messageRecord) TableName() string { return "messages" }

// OpenSQLite opens (creating if needed) a SQLite database and migrates the
// chat tables.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if err := db.AutoMigrate(&chatRecord{}, &messageRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// GormRepository persists chats with gorm.
type GormRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormRepository wraps an opened database.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db, now: time.Now}
}

var _ Repository = (*GormRepository)(nil)

func (r *GormRepository) ListChats(ctx context.Context) ([]chat.Chat, error) {
	var records []chatRecord
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	chats := make([]chat.Chat, 0, len(records))
	for _, rec := range records {
		c, err := rec.toChat()
		if err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	chat.SortChats(chats)
	return chats, nil
}

func (r *GormRepository) CreateChat(ctx context.Context, title string) (chat.Chat, error) {
	if title == "" {
		title = chat.DefaultTitle
	}
	rec := chatRecord{ID: uuid.NewString(), Title: title, Timestamp: r.now()}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return chat.Chat{}, fmt.Errorf("create chat: %w", err)
	}
	return rec.toChat()
}

// AddMessage stores msg and, like the mock, retitles a placeholder chat on
// its first user message.
func (r *GormRepository) AddMessage(ctx context.Context, chatID string, msg chat.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec chatRecord
		if err := tx.First(&rec, "id = ?", chatID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrChatNotFound
			}
			return fmt.Errorf("find chat: %w", err)
		}

		m, err := fromMessage(chatID, msg, r.now)
		if err != nil {
			return err
		}
		if err := tx.Create(&m).Error; err != nil {
			return fmt.Errorf("add message: %w", err)
		}

		if msg.Role != chat.RoleUser || !chat.IsDefaultTitle(rec.Title) {
			return nil
		}
		var contents []string
		if err := tx.Model(&messageRecord{}).Where("chat_id = ?", chatID).Order("seq ASC").Pluck("content", &contents).Error; err != nil {
			return fmt.Errorf("load messages: %w", err)
		}
		msgs := make([]chat.Message, len(contents))
		for i, c := range contents {
			msgs[i] = chat.Message{Content: c}
		}
		title := chat.PreviewFromMessages(msgs, chat.PreviewMaxLen)
		return tx.Model(&chatRecord{}).Where("id = ?", chatID).Update("title", title).Error
	})
}

func (r *GormRepository) DeleteChat(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", id).Delete(&messageRecord{}).Error; err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&chatRecord{})
		if res.Error != nil {
			return fmt.Errorf("delete chat: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrChatNotFound
		}
		return nil
	})
}

func (r *GormRepository) SetPinned(ctx context.Context, id string, pinned bool) error {
	return r.updateColumn(ctx, id, "pinned", pinned)
}

func (r *GormRepository) UpdateTitle(ctx context.Context, id, title string) error {
	return r.updateColumn(ctx, id, "title", title)
}

// Seed inserts chats as-is when the database holds none. It reports whether
// anything was written.
func (r *GormRepository) Seed(ctx context.Context, chats []chat.Chat) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&chatRecord{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count chats: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range chats {
			rec := chatRecord{ID: c.ID, Title: c.Title, Timestamp: c.Timestamp, Pinned: c.Pinned}
			for _, m := range c.Messages {
				mr, err := fromMessage(c.ID, m, r.now)
				if err != nil {
					return err
				}
				rec.Messages = append(rec.Messages, mr)
			}
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("seed chat %s: %w", c.ID, err)
			}
		}
		return nil
	})
	return err == nil, err
}

func (r *GormRepository) updateColumn(ctx context.Context, id, column string, value any) error {
	res := r.db.WithContext(ctx).Model(&chatRecord{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return fmt.Errorf("update chat %s: %w", column, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrChatNotFound
	}
	return nil
}

func fromMessage(chatID string, msg chat.Message, now func() time.Time) (messageRecord, error) {
	m := messageRecord{
		ID:        msg.ID,
		ChatID:    chatID,
		Role:      string(msg.Role),
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = now()
	}
	if msg.Diagnosis != nil {
		data, err := json.Marshal(msg.Diagnosis)
		if err != nil {
			return messageRecord{}, fmt.Errorf("encode diagnosis data: %w", err)
		}
		m.Diagnosis = string(data)
	}
	return m, nil
}

func (rec chatRecord) toChat() (chat.Chat, error) {
	c := chat.Chat{
		ID:        rec.ID,
		Title:     rec.Title,
		Timestamp: rec.Timestamp,
		Pinned:    rec.Pinned,
		Messages:  make([]chat.Message, 0, len(rec.Messages)),
	}
	for _, m := range rec.Messages {
		msg := chat.Message{
			ID:        m.ID,
			Role:      chat.Role(m.Role),
			Content:   m.Content,
			Timestamp: m.Timestamp,
		}
		if m.Diagnosis != "" {
			var data chat.DiagnosisData
			if err := json.Unmarshal([]byte(m.Diagnosis), &data); err != nil {
				return chat.Chat{}, fmt.Errorf("decode diagnosis data for message %s: %w", m.ID, err)
			}
			msg.Diagnosis = &data
		}
		c.Messages = append(c.Messages, msg)
	}
	return c, nil
}
