package schema

import "encoding/json"

type ToolCallType string

const (
	ToolCallTypeFunction ToolCallType = "function"
)

// ToolCall is a structured tool-call request issued by the assistant.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     ToolCallType `json:"type"`
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type ToolType string

const (
	ToolTypeFunction ToolType = "function"
)

// Tool declares a function the model may call.
type Tool struct {
	Type     ToolType           `json:"type"`
	Function FunctionDefinition `json:"function"`
}

type FunctionDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Parameters is typically a JSON Schema object.
	Parameters json.RawMessage `json:"parameters,omitempty"`
}
