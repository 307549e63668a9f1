package models

// StageResponse is one council member's answer from the first
// deliberation stage.
type StageResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
}

// StageRanking is one council member's anonymized peer ranking from the
// second deliberation stage.
type StageRanking struct {
	Model   string `json:"model"`
	Ranking string `json:"ranking"`
}

// AggregateRanking is the averaged position of one model across all
// peer rankings.
type AggregateRanking struct {
	Model       string  `json:"model"`
	AverageRank float64 `json:"average_rank"`
}

// FinalAnswer is the synthesized verdict (council mode), the single
// model reply (chat mode), or the generated image markdown (image mode).
type FinalAnswer struct {
	Model    string `json:"model,omitempty"`
	Response string `json:"response"`
}

// MessageMetadata describes how an assistant message was produced.
// LabelToModel and AggregateRankings are only present for council runs.
type MessageMetadata struct {
	Mode              Mode               `json:"mode,omitempty"`
	Model             string             `json:"model,omitempty"`
	LabelToModel      map[string]string  `json:"label_to_model,omitempty"`
	AggregateRankings []AggregateRanking `json:"aggregate_rankings,omitempty"`
}

// LoadingState tracks which council stages are still pending for an
// in-flight assistant message. Cleared to nil once the message is
// terminal. Client-side only, never serialized.
type LoadingState struct {
	Stage1 bool
	Stage2 bool
	Stage3 bool
}

// Message is a single entry in a conversation. User messages only
// carry Content; assistant messages accumulate stage payloads as the
// stream delivers them.
type Message struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	Stage1    []StageResponse  `json:"stage1,omitempty"`
	Stage2    []StageRanking   `json:"stage2,omitempty"`
	Stage3    *FinalAnswer     `json:"stage3,omitempty"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
	CreatedAt string           `json:"created_at,omitempty"`

	Loading *LoadingState `json:"-"`
}

// NewUserMessage creates a user message with the given content
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewPendingAssistantMessage creates the empty assistant placeholder
// that the stream assembler fills in as events arrive.
func NewPendingAssistantMessage() Message {
	return Message{
		Role:    RoleAssistant,
		Loading: &LoadingState{},
	}
}

// IsPending reports whether any stage of the message is still loading
func (m *Message) IsPending() bool {
	if m.Loading == nil {
		return false
	}
	return m.Loading.Stage1 || m.Loading.Stage2 || m.Loading.Stage3
}

// FinalText returns the text that should represent the message in a
// transcript: the stage-3 response for assistant messages when present,
// otherwise the raw content.
func (m *Message) FinalText() string {
	if m.Role == RoleAssistant && m.Stage3 != nil && m.Stage3.Response != "" {
		return m.Stage3.Response
	}
	return m.Content
}

// ModeLabel returns the display mode of the message, defaulting to
// council for legacy assistant messages without metadata.
func (m *Message) ModeLabel() Mode {
	if m.Metadata != nil && m.Metadata.Mode != "" {
		return m.Metadata.Mode
	}
	if m.Role == RoleAssistant && len(m.Stage1) > 0 {
		return ModeCouncil
	}
	return DefaultMode
}
