package chatmsg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/chatmsg"
)

func TestParseHistoryMixedShapes(t *testing.T) {
	raw := []any{
		map[string]any{"role": "user", "content": "what is climate change?"},
		"it's the long-term shift in weather patterns",
		map[string]any{"text": "and sea levels?"},
		[]any{"they", "are", "rising"},
		42,
		nil,
	}

	got := chatmsg.ParseHistory(raw)

	assert.Equal(t, []chatmsg.Message{
		{Role: chatmsg.RoleUser, Content: "what is climate change?"},
		{Role: chatmsg.RoleAssistant, Content: "it's the long-term shift in weather patterns"},
		{Role: chatmsg.RoleUser, Content: "and sea levels?"},
		{Role: chatmsg.RoleAssistant, Content: "they are rising"},
		{Role: chatmsg.RoleUser, Content: "42"},
	}, got)
}

func TestParseHistoryEmpty(t *testing.T) {
	assert.Nil(t, chatmsg.ParseHistory(nil))
	assert.Nil(t, chatmsg.ParseHistory([]any{}))
}

func TestParseHistoryPassesThroughTypedMessage(t *testing.T) {
	raw := []any{chatmsg.Message{Role: chatmsg.RoleAssistant, Content: "hi"}}
	got := chatmsg.ParseHistory(raw)
	assert.Equal(t, []chatmsg.Message{{Role: chatmsg.RoleAssistant, Content: "hi"}}, got)
}

func TestParseHistorySkipsBlankEntries(t *testing.T) {
	raw := []any{"", "   ", map[string]any{}, "real message"}
	got := chatmsg.ParseHistory(raw)
	assert.Len(t, got, 1)
	assert.Equal(t, "real message", got[0].Content)
}
