package contract

import "time"

// Field is one named, typed member of a composite type. Order matters.
type Field struct {
	Name string `json:"name" jsonschema:"description=Field name"`
	Type string `json:"type" jsonschema:"description=Field data type"`
}

type TypeDefinition struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Fields  []Field `json:"fields"`
	Comment string  `json:"comment"`
}

type AddTypeInput struct {
	Name    string  `json:"name" jsonschema:"minLength=1,description=Type name (e.g. \"address_type\"\\, \"contact_info\")"`
	Fields  []Field `json:"fields,omitempty" jsonschema:"description=Array of fields for the composite type"`
	Comment string  `json:"comment,omitempty" jsonschema:"description=Optional comment/description for the type"`
}

type AddTypeResult struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	TypeID  string  `json:"typeId"`
	Name    string  `json:"name"`
	Fields  []Field `json:"fields"`
}

// CommandPayload is the body of every command sent to the frontend.
type CommandPayload struct {
	Data         any  `json:"data"`
	AddToHistory bool `json:"addToHistory"`
}

type ConnectionStatus struct {
	Connected       bool      `json:"connected"`
	SessionID       string    `json:"sessionId,omitempty"`
	RemoteAddr      string    `json:"remoteAddr,omitempty"`
	ConnectedAt     time.Time `json:"connectedAt,omitzero"`
	PendingCommands int       `json:"pendingCommands"`
}

type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}
