// Package chatmsg holds the single typed conversation-message shape every
// caller of the pipeline is normalized into at the boundary. Nothing past
// ParseHistory sees the original request payload's shape.
package chatmsg

import (
	"strings"

	"github.com/spf13/cast"
)

// Role identifies who produced a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of conversation history.
type Message struct {
	Role    Role
	Content string
}

// ParseHistory normalizes a slice of loosely-typed history items into
// Messages. Each item may already be a Message, a map with "role"/"content"
// keys, a map with only a content-shaped key, a bare string, a slice (which
// is flattened and space-joined), or some other value (stringified). Role is
// inferred by index parity (even index => user, odd => assistant) whenever a
// shape carries no explicit role, mirroring how the original multi-shape
// front-end history was reconciled into one format.
func ParseHistory(raw []any) []Message {
	if len(raw) == 0 {
		return nil
	}

	out := make([]Message, 0, len(raw))
	for i, item := range raw {
		msg, ok := parseOne(item, i)
		if ok {
			out = append(out, msg)
		}
	}
	return out
}

func parseOne(item any, index int) (Message, bool) {
	inferredRole := RoleUser
	if index%2 != 0 {
		inferredRole = RoleAssistant
	}

	switch v := item.(type) {
	case Message:
		return v, true

	case map[string]any:
		if roleRaw, hasRole := v["role"]; hasRole {
			if contentRaw, hasContent := v["content"]; hasContent {
				return Message{
					Role:    Role(strings.ToLower(cast.ToString(roleRaw))),
					Content: cast.ToString(contentRaw),
				}, true
			}
		}
		content := extractContent(v)
		if content == "" {
			return Message{}, false
		}
		return Message{Role: inferredRole, Content: content}, true

	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return Message{}, false
		}
		return Message{Role: inferredRole, Content: trimmed}, true

	case []any:
		parts := make([]string, 0, len(v))
		for _, elem := range v {
			if elem == nil {
				continue
			}
			parts = append(parts, cast.ToString(elem))
		}
		content := strings.TrimSpace(strings.Join(parts, " "))
		if content == "" {
			return Message{}, false
		}
		return Message{Role: inferredRole, Content: content}, true

	case nil:
		return Message{}, false

	default:
		content := strings.TrimSpace(cast.ToString(v))
		if content == "" || content == "<nil>" {
			return Message{}, false
		}
		return Message{Role: inferredRole, Content: content}, true
	}
}

// extractContent looks through a set of common text-bearing keys, then
// falls back to concatenating every string value in the map.
func extractContent(m map[string]any) string {
	for _, key := range []string{"text", "message", "msg", "content", "body", "data"} {
		if v, ok := m[key]; ok {
			if s := strings.TrimSpace(cast.ToString(v)); s != "" {
				return s
			}
		}
	}

	var parts []string
	for _, v := range m {
		if s, ok := v.(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
	}
	return strings.Join(parts, " ")
}

