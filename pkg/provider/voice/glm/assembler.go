package glm

import (
	"strings"

	"github.com/clayvoice/clayvoice/internal/transcript"
)

// knowledgeBaseHeader labels the knowledge-base section appended to the
// system prompt so the model reads it as context rather than persona.
const knowledgeBaseHeader = "### 知识库/上下文信息 ###"

// ChatMessage is one entry of the outgoing message list. Content is either a
// plain string or, for the current audio turn, a single-element slice of
// [AudioPart].
type ChatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// AudioPart is the input_audio content part carrying the current utterance.
type AudioPart struct {
	Type       string     `json:"type"`
	InputAudio InputAudio `json:"input_audio"`
}

// InputAudio is the encoded payload of an [AudioPart].
type InputAudio struct {
	Data   string `json:"data"`
	Format string `json:"format"`
}

// BuildMessages assembles the ordered message list for one voice turn:
//
//  1. One leading system message when the prompt or knowledge base is
//     non-empty; the knowledge base follows the prompt after two newlines
//     under [knowledgeBaseHeader].
//  2. Every prior user/assistant entry whose content is present and not the
//     optimistic placeholder, in original order, content-only — past audio
//     payloads are not resent.
//  3. Exactly one final user message carrying the current turn's base64 WAV
//     payload as an input_audio part.
//
// The list is never truncated; context-window limits are the remote model's
// concern.
func BuildMessages(systemPrompt, knowledgeBase string, history []transcript.Message, audioB64 string) []ChatMessage {
	msgs := make([]ChatMessage, 0, len(history)+2)

	if system := combineSystemPrompt(systemPrompt, knowledgeBase); system != "" {
		msgs = append(msgs, ChatMessage{Role: "system", Content: system})
	}

	for _, m := range history {
		if m.Role != transcript.RoleUser && m.Role != transcript.RoleAssistant {
			continue
		}
		if m.Content == "" || m.Content == transcript.Placeholder {
			continue
		}
		msgs = append(msgs, ChatMessage{Role: string(m.Role), Content: m.Content})
	}

	msgs = append(msgs, ChatMessage{
		Role: "user",
		Content: []AudioPart{{
			Type:       "input_audio",
			InputAudio: InputAudio{Data: audioB64, Format: "wav"},
		}},
	})
	return msgs
}

// combineSystemPrompt joins the persona prompt and the knowledge base into
// the single system message content. Returns "" when both are empty.
func combineSystemPrompt(systemPrompt, knowledgeBase string) string {
	combined := systemPrompt
	if strings.TrimSpace(knowledgeBase) != "" {
		combined += "\n\n" + knowledgeBaseHeader + "\n" + knowledgeBase
	}
	return combined
}
