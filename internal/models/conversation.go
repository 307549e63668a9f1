package models

// ConversationMeta is the list-view projection of a conversation.
// CreatedAt stays a string because the backend emits bare ISO-8601
// timestamps without a timezone offset.
type ConversationMeta struct {
	ID           string `json:"id"`
	CreatedAt    string `json:"created_at"`
	Title        string `json:"title"`
	MessageCount int    `json:"message_count"`
}

// Conversation is a full conversation with all of its messages.
// While a request is streaming, the last message is always the
// assistant placeholder being assembled; nothing else is mutated.
type Conversation struct {
	ID        string    `json:"id"`
	CreatedAt string    `json:"created_at"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
}

// LastMessage returns the trailing message, or nil when empty
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// AppendExchange optimistically inserts the user message and the empty
// assistant placeholder for an in-flight request, returning the
// placeholder for the stream assembler to fill.
func (c *Conversation) AppendExchange(userContent string) *Message {
	c.Messages = append(c.Messages, NewUserMessage(userContent))
	c.Messages = append(c.Messages, NewPendingAssistantMessage())
	return c.LastMessage()
}

// RollbackExchange removes the optimistic user+assistant pair inserted
// by AppendExchange. Used when the transport call fails before any
// stream event arrives.
func (c *Conversation) RollbackExchange() {
	if len(c.Messages) < 2 {
		return
	}
	c.Messages = c.Messages[:len(c.Messages)-2]
}
