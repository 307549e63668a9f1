package models

// Room is a council room: a themed panel of models with a chairman.
// The panel composition lives server-side; clients only see metadata.
type Room struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// RoomList is the /api/rooms response
type RoomList struct {
	Rooms   []Room `json:"rooms"`
	Default string `json:"default"`
}

// RoomDetection is the /api/rooms/detect response
type RoomDetection struct {
	DetectedRoom    string `json:"detected_room"`
	RoomName        string `json:"room_name"`
	RoomIcon        string `json:"room_icon"`
	RoomDescription string `json:"room_description"`
}

// ChatModel is one selectable model for plain chat mode
type ChatModel struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Name     string `json:"name"`
}

// ModelList is the /api/models response
type ModelList struct {
	Models []ChatModel `json:"models"`
}

// FindRoom returns the room with the given id, or nil
func (l *RoomList) FindRoom(id string) *Room {
	for i := range l.Rooms {
		if l.Rooms[i].ID == id {
			return &l.Rooms[i]
		}
	}
	return nil
}

// FindModel returns the chat model with the given id or display name,
// or nil when unknown.
func (l *ModelList) FindModel(idOrName string) *ChatModel {
	for i := range l.Models {
		if l.Models[i].ID == idOrName || l.Models[i].Name == idOrName {
			return &l.Models[i]
		}
	}
	return nil
}
