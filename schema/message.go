package schema

// Role identifies the author of a conversational turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// PromptMessage is a single role-tagged conversational turn.
//
// The runtime treats messages as immutable: nothing downstream of the caller
// mutates a message once it has been constructed.
type PromptMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Name is an optional sender name supported by some providers.
	Name string `json:"name,omitempty"`

	// ToolCallID links a tool-result message back to the call it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`

	// ToolCalls carries structured tool-call requests on assistant turns.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

func System(text string) PromptMessage {
	return PromptMessage{Role: RoleSystem, Content: text}
}

func User(text string) PromptMessage {
	return PromptMessage{Role: RoleUser, Content: text}
}

func Assistant(text string) PromptMessage {
	return PromptMessage{Role: RoleAssistant, Content: text}
}

func ToolResult(toolCallID, text string) PromptMessage {
	return PromptMessage{Role: RoleTool, ToolCallID: toolCallID, Content: text}
}

func (m PromptMessage) Clone() PromptMessage {
	out := m
	if m.ToolCalls != nil {
		out.ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
	}
	return out
}
