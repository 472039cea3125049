package chat

import "strings"

// PreviewMaxLen is the default number of characters kept in a chat preview.
const PreviewMaxLen = 40

// PreviewFromMessages derives a chat title from the first message with
// non-blank content. The text is trimmed and cut to maxLen characters with a
// trailing ellipsis. Chats without any content yield DefaultTitle.
func PreviewFromMessages(messages []Message, maxLen int) string {
	if maxLen <= 0 {
		maxLen = PreviewMaxLen
	}
	for _, m := range messages {
		text := strings.TrimSpace(m.Content)
		if text == "" {
			continue
		}
		runes := []rune(text)
		if len(runes) <= maxLen {
			return text
		}
		return string(runes[:maxLen]) + "…"
	}
	return DefaultTitle
}
