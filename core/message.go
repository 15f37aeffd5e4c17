package core

import "time"

// Role identifies the author of a conversation message.
type Role int

const (
	// RoleSystem is the instruction message that anchors a conversation.
	RoleSystem Role = iota + 1
	// RoleUser is a human turn.
	RoleUser
	// RoleAssistant is a model turn.
	RoleAssistant
)

// String returns the lowercase role name.
func (r Role) String() string {
	switch r {
	case RoleSystem:
		return "system"
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// Message is one turn of a conversation.
type Message struct {
	Role      Role
	Content   string
	CreatedAt time.Time
}
