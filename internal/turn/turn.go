// Package turn runs one user turn end to end: resolve or create the chat,
// persist the user's message, diagnose, fetch details for the primary
// diagnosis and record the assistant's answer.
package turn

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"protocol-cli/cmd/utils"
	"protocol-cli/internal/api"
	"protocol-cli/internal/chat"
	"protocol-cli/internal/i18n"
)

var (
	// ErrEmptyInput rejects blank submissions before any call is made.
	ErrEmptyInput = errors.New("empty input")
	// ErrTurnInFlight rejects a send while another turn for the same chat
	// has not finished.
	ErrTurnInFlight = errors.New("a turn is already in flight for this chat")
)

// backgroundTimeout bounds fire-and-forget backend writes.
const backgroundTimeout = 30 * time.Second

// newChatKey guards chat creation while no chat is selected.
const newChatKey = ""

// Result describes a completed turn. Err is the diagnose (or chat creation)
// failure that was surfaced as the assistant message, if any.
type Result struct {
	ChatID    string
	User      chat.Message
	Assistant chat.Message
	Err       error
}

// Orchestrator executes turns against a store and a backend. It is safe for
// concurrent use; turns for different chats may overlap.
type Orchestrator struct {
	store   *chat.Store
	backend api.Backend
	strings atomic.Pointer[i18n.Strings]
	now     func() time.Time
	newID   func() string

	mu       sync.Mutex
	inFlight map[string]struct{}
	pending  sync.WaitGroup
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock sets the timestamp source for new messages.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithIDGenerator sets the generator for client-side message ids.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) { o.newID = fn }
}

// New wires an orchestrator to its collaborators.
func New(store *chat.Store, backend api.Backend, str i18n.Strings, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		backend:  backend,
		now:      time.Now,
		newID:    func() string { return "msg-" + uuid.NewString() },
		inFlight: make(map[string]struct{}),
	}
	o.strings.Store(&str)
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Strings returns the language table used for assistant texts.
func (o *Orchestrator) Strings() i18n.Strings {
	return *o.strings.Load()
}

// SetStrings swaps the language table; turns already running keep theirs.
func (o *Orchestrator) SetStrings(str i18n.Strings) {
	o.strings.Store(&str)
}

// InFlight reports whether a turn for chatID (or chat creation, for "") is
// running.
func (o *Orchestrator) InFlight(chatID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, busy := o.inFlight[chatID]
	return busy
}

// Wait blocks until fire-and-forget backend writes have finished.
func (o *Orchestrator) Wait() {
	o.pending.Wait()
}

// Send runs one turn for the current chat, creating a chat when none is
// selected. It returns an error only when the turn is rejected up front;
// backend failures become the assistant message and are reported in
// Result.Err.
func (o *Orchestrator) Send(ctx context.Context, text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, ErrEmptyInput
	}
	str := o.Strings()

	chatID := o.store.State().CurrentChatID
	if !o.acquire(chatID) {
		return Result{}, ErrTurnInFlight
	}
	key := chatID
	defer func() { o.release(key) }()

	o.setThinking(true)
	defer o.setThinking(false)

	if chatID == "" {
		created, err := o.backend.CreateChat(ctx, chat.DefaultTitle)
		if err != nil {
			utils.LogDebugf("turn: create chat failed: %v", err)
			return o.failWithoutChat(text, err, str), nil
		}
		o.store.Dispatch(chat.AddChat{Chat: created}, chat.SetCurrentChat{ID: created.ID})
		chatID = created.ID
		if !o.swap(key, chatID) {
			return Result{}, ErrTurnInFlight
		}
		key = chatID
	}

	res := Result{ChatID: chatID}
	res.User = chat.Message{ID: o.newID(), Role: chat.RoleUser, Content: text, Timestamp: o.now()}
	st := o.store.Dispatch(chat.AppendMessage{ChatID: chatID, Message: res.User})
	o.persist(ctx, chatID, res.User)

	if c, ok := st.Chat(chatID); ok && chat.IsDefaultTitle(c.Title) {
		title := chat.PreviewFromMessages(c.Messages, chat.PreviewMaxLen)
		o.store.Dispatch(chat.UpdateChatTitle{ID: chatID, Title: title})
		if err := o.backend.UpdateTitle(ctx, chatID, title); err != nil {
			utils.LogDebugf("turn: preview title for chat %s not saved: %v", chatID, err)
		}
	}

	items, err := o.backend.Diagnose(ctx, text)
	if err != nil {
		utils.LogDebugf("turn: diagnose failed for chat %s: %v", chatID, err)
		res.Err = err
		res.Assistant = o.assistant(errorText(err, str), nil)
		o.store.Dispatch(chat.AppendMessage{ChatID: chatID, Message: res.Assistant})
		o.persist(ctx, chatID, res.Assistant)
		return res, nil
	}

	primary, hasPrimary := chat.PrimaryDiagnosis(items)
	var sections []chat.DetailSection
	if hasPrimary {
		sections, err = o.backend.Details(ctx, text, primary.ICD10Code)
		if err != nil {
			utils.LogDebugf("turn: details for %s unavailable: %v", primary.ICD10Code, err)
			sections = nil
		}
	}

	content := str.NeedMoreDetail
	var data *chat.DiagnosisData
	if len(items) > 0 {
		content = str.DiagnosesFound
		data = &chat.DiagnosisData{Diagnoses: items}
		if len(sections) > 0 {
			data.DetailsSections = sections
		}
	}
	res.Assistant = o.assistant(content, data)
	o.store.Dispatch(chat.AppendMessage{ChatID: chatID, Message: res.Assistant})
	o.persist(ctx, chatID, res.Assistant)

	if hasPrimary {
		o.store.Dispatch(chat.UpdateChatTitle{ID: chatID, Title: primary.Diagnosis})
		o.updateTitleAsync(ctx, chatID, primary.Diagnosis)
	}
	return res, nil
}

// failWithoutChat records the exchange in the live transcript only, since no
// chat exists to hold it. Nothing is shown if the user opened a chat meanwhile.
func (o *Orchestrator) failWithoutChat(text string, err error, str i18n.Strings) Result {
	res := Result{Err: err}
	res.User = chat.Message{ID: o.newID(), Role: chat.RoleUser, Content: text, Timestamp: o.now()}
	res.Assistant = o.assistant(errorText(err, str), nil)
	o.store.Dispatch(
		chat.AppendMessage{Message: res.User, LiveOnly: true},
		chat.AppendMessage{Message: res.Assistant, LiveOnly: true},
	)
	return res
}

func (o *Orchestrator) assistant(content string, data *chat.DiagnosisData) chat.Message {
	return chat.Message{
		ID:        o.newID(),
		Role:      chat.RoleAssistant,
		Content:   content,
		Timestamp: o.now(),
		Diagnosis: data,
	}
}

// persist saves a message and waits for the result. Failures are logged and
// never block the turn.
func (o *Orchestrator) persist(ctx context.Context, chatID string, msg chat.Message) {
	if err := o.backend.AddMessage(ctx, chatID, msg); err != nil {
		utils.LogDebugf("turn: persisting %s message to chat %s failed: %v", msg.Role, chatID, err)
	}
}

func (o *Orchestrator) updateTitleAsync(ctx context.Context, chatID, title string) {
	bg := context.WithoutCancel(ctx)
	o.pending.Add(1)
	go func() {
		defer o.pending.Done()
		ctx, cancel := context.WithTimeout(bg, backgroundTimeout)
		defer cancel()
		if err := o.backend.UpdateTitle(ctx, chatID, title); err != nil {
			utils.LogDebugf("turn: title update for chat %s ignored: %v", chatID, err)
		}
	}()
}

func (o *Orchestrator) acquire(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inFlight[key]; busy {
		return false
	}
	o.inFlight[key] = struct{}{}
	return true
}

// swap moves a held guard from one key to another.
func (o *Orchestrator) swap(from, to string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inFlight[to]; busy {
		return false
	}
	delete(o.inFlight, from)
	o.inFlight[to] = struct{}{}
	return true
}

func (o *Orchestrator) release(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, key)
}

// setThinking raises the flag on entry and clears it once the last running
// turn finishes. The guard for the finishing turn is still held on clear, so
// "last" means at most one entry left.
func (o *Orchestrator) setThinking(on bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !on && len(o.inFlight) > 1 {
		return
	}
	o.store.Dispatch(chat.SetThinking{Thinking: on})
}

// errorText picks the assistant text for a failed call: the server's message
// when there is one, the localized connectivity message for transport
// failures, the error text otherwise.
func errorText(err error, str i18n.Strings) string {
	var reqErr *api.RequestError
	if errors.As(err, &reqErr) {
		if msg := strings.TrimSpace(reqErr.Message); msg != "" {
			return msg
		}
		return fmt.Sprintf("HTTP %d", reqErr.StatusCode)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return str.ConnectionFailed
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return str.ConnectionFailed
}
