// Package stream consumes the server-sent event stream emitted by the
// council backend and assembles it into conversation view state.
package stream

import (
	"encoding/json"

	apierrors "github.com/diogo/llmcouncil/internal/errors"
	"github.com/diogo/llmcouncil/internal/models"
)

// Event type discriminators emitted by the backend. Council runs go
// through the three stage pairs; chat and image runs use their own
// start/complete pairs. Every request ends with exactly one terminal
// event: the mode's final complete, or error.
const (
	EventStage1Start    = "stage1_start"
	EventStage1Complete = "stage1_complete"
	EventStage2Start    = "stage2_start"
	EventStage2Complete = "stage2_complete"
	EventStage3Start    = "stage3_start"
	EventStage3Complete = "stage3_complete"
	EventChatStart      = "chat_start"
	EventChatChunk      = "chat_chunk"
	EventChatComplete   = "chat_complete"
	EventImageStart     = "image_start"
	EventImageComplete  = "image_complete"
	EventTitleComplete  = "title_complete"
	EventComplete       = "complete"
	EventError          = "error"
)

// Event is one decoded wire event. Data is kept raw because its shape
// depends on Type; typed accessors decode it on demand.
type Event struct {
	Type     string                  `json:"type"`
	Data     json.RawMessage         `json:"data,omitempty"`
	Metadata *models.MessageMetadata `json:"metadata,omitempty"`
	Model    string                  `json:"model,omitempty"`
	Message  string                  `json:"message,omitempty"`
}

// chunkPayload is the data shape of chat_chunk events
type chunkPayload struct {
	Chunk string `json:"chunk"`
}

// titlePayload is the data shape of title_complete events
type titlePayload struct {
	Title string `json:"title"`
}

// Stage1Payload decodes the stage1_complete data: one answer per
// council member.
func (e *Event) Stage1Payload() ([]models.StageResponse, error) {
	var out []models.StageResponse
	if err := json.Unmarshal(e.Data, &out); err != nil {
		return nil, apierrors.NewParseError("stage1 payload: "+err.Error(), string(e.Data))
	}
	return out, nil
}

// Stage2Payload decodes the stage2_complete data: one peer ranking per
// council member.
func (e *Event) Stage2Payload() ([]models.StageRanking, error) {
	var out []models.StageRanking
	if err := json.Unmarshal(e.Data, &out); err != nil {
		return nil, apierrors.NewParseError("stage2 payload: "+err.Error(), string(e.Data))
	}
	return out, nil
}

// FinalPayload decodes the data of stage3_complete, chat_complete and
// image_complete events.
func (e *Event) FinalPayload() (*models.FinalAnswer, error) {
	var out models.FinalAnswer
	if err := json.Unmarshal(e.Data, &out); err != nil {
		return nil, apierrors.NewParseError("final payload: "+err.Error(), string(e.Data))
	}
	return &out, nil
}

// Chunk returns the incremental text of a chat_chunk event
func (e *Event) Chunk() (string, error) {
	var out chunkPayload
	if err := json.Unmarshal(e.Data, &out); err != nil {
		return "", apierrors.NewParseError("chunk payload: "+err.Error(), string(e.Data))
	}
	return out.Chunk, nil
}

// Title returns the generated title of a title_complete event
func (e *Event) Title() (string, error) {
	var out titlePayload
	if err := json.Unmarshal(e.Data, &out); err != nil {
		return "", apierrors.NewParseError("title payload: "+err.Error(), string(e.Data))
	}
	return out.Title, nil
}

// IsTerminal reports whether the event ends its request's stream
func (e *Event) IsTerminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}
