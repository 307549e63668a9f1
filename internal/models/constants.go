// Package models contains data types and constants for the LLM Council API.
package models

// Mode selects how the backend answers a message.
type Mode string

// Available modes
const (
	ModeChat    Mode = "chat"
	ModeCouncil Mode = "council"
	ModeImage   Mode = "image"
	ModeFile    Mode = "file"
)

// DefaultMode is used when no mode is configured or passed
const DefaultMode = ModeChat

// DefaultRoom is the server's fallback council room
const DefaultRoom = "decision"

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// AllModes returns all modes the backend understands
func AllModes() []Mode {
	return []Mode{ModeChat, ModeCouncil, ModeImage, ModeFile}
}

// ModeFromName returns the Mode matching name, or DefaultMode
func ModeFromName(name string) Mode {
	switch name {
	case "chat":
		return ModeChat
	case "council":
		return ModeCouncil
	case "image":
		return ModeImage
	case "file":
		return ModeFile
	default:
		return DefaultMode
	}
}

// IsValidMode reports whether name is a known mode
func IsValidMode(name string) bool {
	switch name {
	case "chat", "council", "image", "file":
		return true
	}
	return false
}
