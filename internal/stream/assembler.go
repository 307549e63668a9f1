package stream

import (
	"github.com/google/uuid"

	apierrors "github.com/diogo/llmcouncil/internal/errors"
	"github.com/diogo/llmcouncil/internal/models"
)

// Effect is a side effect the caller must perform after applying an
// event. The assembler never performs effects itself; it reports them
// upward so the reducer stays testable in isolation.
type Effect int

const (
	// EffectNone requires nothing from the caller
	EffectNone Effect = iota
	// EffectRefreshList means the conversation list may have changed
	// (a title was generated) and should be re-fetched.
	EffectRefreshList
	// EffectComplete means the request finished: re-fetch the
	// conversation list and clear the conversation's loading flag.
	EffectComplete
)

// Phase is the explicit request state tracked across events. Council
// runs walk the stage path; chat and image runs use the shorter one.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingStage1
	PhaseStage1Done
	PhaseAwaitingStage2
	PhaseStage2Done
	PhaseAwaitingStage3
	PhaseStage3Done
	PhaseStreaming // chat mode, chunks arriving
	PhaseAwaitingImage
	PhaseTerminal
)

// String returns a short label for status displays
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingStage1:
		return "stage 1"
	case PhaseStage1Done, PhaseAwaitingStage2:
		return "stage 2"
	case PhaseStage2Done, PhaseAwaitingStage3:
		return "stage 3"
	case PhaseStage3Done:
		return "finishing"
	case PhaseStreaming:
		return "streaming"
	case PhaseAwaitingImage:
		return "generating image"
	case PhaseTerminal:
		return "done"
	}
	return "unknown"
}

// Assembler folds the event stream of one in-flight request into the
// trailing assistant message of its target conversation. One Assembler
// is created per request; its token fences events from an abandoned
// request out of a newer one targeting the same conversation.
//
// Events are applied strictly in arrival order. Chunk accumulation is
// order-dependent; stage completion is last-write-wins.
type Assembler struct {
	conversationID string
	token          string
	phase          Phase
}

// NewAssembler creates an assembler for one request against the given
// conversation.
func NewAssembler(conversationID string) *Assembler {
	return &Assembler{
		conversationID: conversationID,
		token:          uuid.NewString(),
		phase:          PhaseIdle,
	}
}

// Token identifies this request. Callers routing events from multiple
// in-flight requests compare tokens before applying.
func (a *Assembler) Token() string { return a.token }

// ConversationID returns the id of the target conversation
func (a *Assembler) ConversationID() string { return a.conversationID }

// Phase returns the current request phase
func (a *Assembler) Phase() Phase { return a.phase }

// Done reports whether a terminal event has been applied
func (a *Assembler) Done() bool { return a.phase == PhaseTerminal }

// Apply folds one event into conv. Only the trailing assistant message
// is ever mutated. Events for a conversation other than the
// assembler's target are dropped, leaving conv untouched.
//
// The returned error is either the backend-reported stream error (for
// error events, which also terminate the request) or a ParseError for
// a payload that did not match its event type (the stream continues).
func (a *Assembler) Apply(conv *models.Conversation, ev *Event) (Effect, error) {
	if conv == nil || conv.ID != a.conversationID {
		return EffectNone, nil
	}

	msg := conv.LastMessage()
	if msg == nil || msg.Role != models.RoleAssistant {
		// No placeholder to fill; can happen if the caller rolled the
		// exchange back while events were still buffered.
		return EffectNone, nil
	}
	if msg.Loading == nil {
		msg.Loading = &models.LoadingState{}
	}

	switch ev.Type {
	case EventStage1Start:
		msg.Loading.Stage1 = true
		a.phase = PhaseAwaitingStage1

	case EventStage1Complete:
		data, err := ev.Stage1Payload()
		if err != nil {
			return EffectNone, err
		}
		msg.Stage1 = data
		msg.Loading.Stage1 = false
		a.phase = PhaseStage1Done

	case EventStage2Start:
		msg.Loading.Stage2 = true
		a.phase = PhaseAwaitingStage2

	case EventStage2Complete:
		data, err := ev.Stage2Payload()
		if err != nil {
			return EffectNone, err
		}
		msg.Stage2 = data
		msg.Metadata = ev.Metadata
		msg.Loading.Stage2 = false
		a.phase = PhaseStage2Done

	case EventStage3Start:
		msg.Loading.Stage3 = true
		a.phase = PhaseAwaitingStage3

	case EventStage3Complete:
		data, err := ev.FinalPayload()
		if err != nil {
			return EffectNone, err
		}
		msg.Stage3 = data
		msg.Loading.Stage3 = false
		a.phase = PhaseStage3Done

	case EventChatStart:
		if msg.Metadata == nil {
			msg.Metadata = &models.MessageMetadata{}
		}
		msg.Metadata.Mode = models.ModeChat
		msg.Metadata.Model = ev.Model
		a.phase = PhaseStreaming

	case EventChatChunk:
		chunk, err := ev.Chunk()
		if err != nil {
			return EffectNone, err
		}
		msg.Content += chunk
		// Mirror into stage3 so the transcript path renders partial
		// text the same way it renders completed answers.
		if msg.Stage3 == nil {
			msg.Stage3 = &models.FinalAnswer{}
		}
		msg.Stage3.Response = msg.Content
		if msg.Metadata == nil {
			msg.Metadata = &models.MessageMetadata{}
		}
		msg.Metadata.Mode = models.ModeChat
		a.phase = PhaseStreaming

	case EventChatComplete:
		data, err := ev.FinalPayload()
		if err != nil {
			return EffectNone, err
		}
		msg.Stage3 = data
		msg.Metadata = &models.MessageMetadata{
			Mode:  models.ModeChat,
			Model: data.Model,
		}
		a.phase = PhaseStage3Done

	case EventImageStart:
		a.phase = PhaseAwaitingImage

	case EventImageComplete:
		data, err := ev.FinalPayload()
		if err != nil {
			return EffectNone, err
		}
		msg.Stage3 = data
		msg.Metadata = &models.MessageMetadata{Mode: models.ModeImage}
		a.phase = PhaseStage3Done

	case EventTitleComplete:
		return EffectRefreshList, nil

	case EventComplete:
		msg.Loading = nil
		a.phase = PhaseTerminal
		return EffectComplete, nil

	case EventError:
		// Completed stages stay visible; pending loading flags are
		// left as they were when the backend gave up.
		a.phase = PhaseTerminal
		return EffectNone, apierrors.NewStreamError(ev.Message)
	}

	return EffectNone, nil
}
