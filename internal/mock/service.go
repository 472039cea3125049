// Package mock is an in-memory stand-in for the diagnosis backend, used for
// offline development and tests.
package mock

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"protocol-cli/internal/api"
	"protocol-cli/internal/chat"
	"protocol-cli/internal/i18n"
)

// ErrChatNotFound is returned for operations on an unknown chat id.
var ErrChatNotFound = errors.New("chat not found")

const (
	diagnoseBaseLatency  = 800 * time.Millisecond
	diagnoseJitter       = 700 * time.Millisecond
	listLatency          = 200 * time.Millisecond
	detailsLatency       = 300 * time.Millisecond
	firstGeneratedChatID = 100
)

// Service implements api.Backend in memory. It is safe for concurrent use.
type Service struct {
	mu        sync.Mutex
	chats     []chat.Chat
	idCounter int

	latency *time.Duration
	now     func() time.Time
	strings i18n.Strings
	seed    bool
}

// Option configures a Service.
type Option func(*Service)

// WithLatency replaces every simulated delay with d. Zero disables delays.
func WithLatency(d time.Duration) Option {
	return func(s *Service) { s.latency = &d }
}

// WithClock sets the time source for seeds and new records.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithStrings sets the language of detail section titles.
func WithStrings(str i18n.Strings) Option {
	return func(s *Service) { s.strings = str }
}

// WithoutSeed starts the service with no chats.
func WithoutSeed() Option {
	return func(s *Service) { s.seed = false }
}

// New returns a service seeded with the example history.
func New(opts ...Option) *Service {
	s := &Service{
		idCounter: firstGeneratedChatID,
		now:       time.Now,
		strings:   i18n.For("en"),
		seed:      true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.seed {
		s.chats = Seed(s.now())
	}
	return s
}

var _ api.Backend = (*Service)(nil)
var _ api.Pinger = (*Service)(nil)

// Diagnose returns the canned respiratory set for matching symptoms and an
// empty list otherwise.
func (s *Service) Diagnose(ctx context.Context, symptoms string) ([]chat.DiagnosisItem, error) {
	if err := s.sleep(ctx, diagnoseBaseLatency+rand.N(diagnoseJitter)); err != nil {
		return nil, err
	}
	return Respond(symptoms).Diagnoses, nil
}

func (s *Service) Details(ctx context.Context, symptoms, icd10Code string) ([]chat.DetailSection, error) {
	if err := s.sleep(ctx, detailsLatency); err != nil {
		return nil, err
	}
	return DetailSections(icd10Code, s.strings), nil
}

func (s *Service) ListChats(ctx context.Context) ([]chat.Chat, error) {
	if err := s.sleep(ctx, listLatency); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]chat.Chat, len(s.chats))
	for i, c := range s.chats {
		out[i] = cloneChat(c)
	}
	chat.SortChats(out)
	return out, nil
}

func (s *Service) CreateChat(ctx context.Context, title string) (chat.Chat, error) {
	if err := ctx.Err(); err != nil {
		return chat.Chat{}, err
	}
	if title == "" {
		title = chat.DefaultTitle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idCounter++
	c := chat.Chat{
		ID:        strconv.Itoa(s.idCounter),
		Title:     title,
		Timestamp: s.now(),
		Messages:  []chat.Message{},
	}
	s.chats = append([]chat.Chat{c}, s.chats...)
	return cloneChat(c), nil
}

// AddMessage appends msg, assigning an id and timestamp when missing. A user
// message retitles a chat that still has the placeholder title.
func (s *Service) AddMessage(ctx context.Context, chatID string, msg chat.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(chatID)
	if i < 0 {
		return ErrChatNotFound
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	c := &s.chats[i]
	c.Messages = append(slices.Clone(c.Messages), msg)
	if msg.Role == chat.RoleUser && chat.IsDefaultTitle(c.Title) {
		c.Title = chat.PreviewFromMessages(c.Messages, chat.PreviewMaxLen)
	}
	return nil
}

func (s *Service) DeleteChat(ctx context.Context, id string) error {
	return s.update(ctx, id, func(i int) {
		s.chats = slices.Delete(s.chats, i, i+1)
	})
}

func (s *Service) SetPinned(ctx context.Context, id string, pinned bool) error {
	return s.update(ctx, id, func(i int) { s.chats[i].Pinned = pinned })
}

func (s *Service) UpdateTitle(ctx context.Context, id, title string) error {
	return s.update(ctx, id, func(i int) { s.chats[i].Title = title })
}

// Ping always succeeds.
func (s *Service) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Service) update(ctx context.Context, id string, fn func(i int)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return ErrChatNotFound
	}
	fn(i)
	return nil
}

func (s *Service) indexOf(id string) int {
	for i := range s.chats {
		if s.chats[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if s.latency != nil {
		d = *s.latency
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func cloneChat(c chat.Chat) chat.Chat {
	c.Messages = slices.Clone(c.Messages)
	if c.Messages == nil {
		c.Messages = []chat.Message{}
	}
	return c
}
