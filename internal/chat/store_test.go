package chat

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreDispatchBatchNotifiesOnce(t *testing.T) {
	st := NewStore(seedState())
	var seen []State
	unsubscribe := st.Subscribe(func(s State) { seen = append(seen, s) })

	final := st.Dispatch(
		AddChat{Chat: Chat{ID: "n", Title: DefaultTitle, Timestamp: base}},
		SetCurrentChat{ID: "n"},
		AppendMessage{Message: msg("u1", RoleUser, "cough")},
	)

	require.Len(t, seen, 1)
	assert.Equal(t, final, seen[0])
	assert.Equal(t, "n", final.CurrentChatID)
	assert.Len(t, final.Messages, 1)

	unsubscribe()
	st.Dispatch(SetThinking{Thinking: true})
	assert.Len(t, seen, 1)
	assert.True(t, st.State().Thinking)
}

func TestStoreConcurrentAppends(t *testing.T) {
	st := NewStore(seedState())
	st.Dispatch(SetCurrentChat{ID: "a"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Dispatch(AppendMessage{ChatID: "a", Message: msg("m", RoleUser, "x")})
		}()
	}
	wg.Wait()

	s := st.State()
	a, _ := s.Chat("a")
	assert.Len(t, a.Messages, 50)
	assert.Equal(t, a.Messages, s.Messages)
}
