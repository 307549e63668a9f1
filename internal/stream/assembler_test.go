package stream

import (
	"encoding/json"
	"errors"
	"testing"

	apierrors "github.com/diogo/llmcouncil/internal/errors"
	"github.com/diogo/llmcouncil/internal/models"
)

// newStreamingConv returns a conversation with one user message and the
// assistant placeholder, as they exist right after submission.
func newStreamingConv(id string) *models.Conversation {
	conv := &models.Conversation{ID: id, Title: "New Chat"}
	conv.AppendExchange("hello")
	return conv
}

func chunkEvent(text string) *Event {
	data, _ := json.Marshal(map[string]string{"chunk": text})
	return &Event{Type: EventChatChunk, Data: data}
}

func TestAssembler_ChunkOrderSensitivity(t *testing.T) {
	chunks := []string{"Hello", " ", "world"}

	conv := newStreamingConv("c1")
	asm := NewAssembler("c1")
	for _, c := range chunks {
		if _, err := asm.Apply(conv, chunkEvent(c)); err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
	}
	if got := conv.LastMessage().Content; got != "Hello world" {
		t.Errorf("Content = %q, want %q", got, "Hello world")
	}

	// Reverse order must give a different result: accumulation is
	// concatenation in arrival order, not set merging.
	conv = newStreamingConv("c1")
	asm = NewAssembler("c1")
	for i := len(chunks) - 1; i >= 0; i-- {
		if _, err := asm.Apply(conv, chunkEvent(chunks[i])); err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
	}
	if got := conv.LastMessage().Content; got != "world Hello" {
		t.Errorf("reversed Content = %q, want %q", got, "world Hello")
	}
}

func TestAssembler_ChunkMirrorsIntoStage3(t *testing.T) {
	conv := newStreamingConv("c1")
	asm := NewAssembler("c1")

	if _, err := asm.Apply(conv, chunkEvent("partial")); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	msg := conv.LastMessage()
	if msg.Stage3 == nil || msg.Stage3.Response != "partial" {
		t.Errorf("Stage3.Response not mirrored, got %+v", msg.Stage3)
	}
	if msg.Metadata == nil || msg.Metadata.Mode != models.ModeChat {
		t.Errorf("Metadata.Mode = %+v, want chat", msg.Metadata)
	}
}

func TestAssembler_StageCompletionIdempotent(t *testing.T) {
	payload, _ := json.Marshal([]models.StageResponse{
		{Model: "Llama 3.3 70B", Response: "answer A"},
		{Model: "Qwen 2.5 72B", Response: "answer B"},
	})
	ev := &Event{Type: EventStage1Complete, Data: payload}

	conv := newStreamingConv("c1")
	asm := NewAssembler("c1")

	for i := 0; i < 2; i++ {
		if _, err := asm.Apply(conv, ev); err != nil {
			t.Fatalf("Apply #%d failed: %v", i+1, err)
		}
		msg := conv.LastMessage()
		if len(msg.Stage1) != 2 {
			t.Fatalf("after apply #%d: len(Stage1) = %d, want 2", i+1, len(msg.Stage1))
		}
		if msg.Stage1[0].Response != "answer A" {
			t.Errorf("after apply #%d: Stage1[0].Response = %q", i+1, msg.Stage1[0].Response)
		}
	}
}

func TestAssembler_ConversationIDFencing(t *testing.T) {
	conv := newStreamingConv("A")
	before, _ := json.Marshal(conv)

	asm := NewAssembler("B")
	effect, err := asm.Apply(conv, chunkEvent("stray"))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if effect != EffectNone {
		t.Errorf("effect = %v, want EffectNone", effect)
	}

	after, _ := json.Marshal(conv)
	if string(before) != string(after) {
		t.Errorf("conversation mutated by foreign event:\nbefore: %s\nafter:  %s", before, after)
	}
}

func TestAssembler_LoadingFlagLifecycle(t *testing.T) {
	conv := newStreamingConv("c1")
	asm := NewAssembler("c1")
	msg := conv.LastMessage()

	if msg.Loading.Stage1 {
		t.Error("Stage1 loading before stage1_start")
	}

	if _, err := asm.Apply(conv, &Event{Type: EventStage1Start}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !msg.Loading.Stage1 {
		t.Error("Stage1 not loading after stage1_start")
	}
	if msg.Loading.Stage2 || msg.Loading.Stage3 {
		t.Error("later stages marked loading during stage 1")
	}

	payload, _ := json.Marshal([]models.StageResponse{{Model: "m", Response: "r"}})
	if _, err := asm.Apply(conv, &Event{Type: EventStage1Complete, Data: payload}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if msg.Loading.Stage1 {
		t.Error("Stage1 still loading after stage1_complete")
	}
}

func TestAssembler_RollbackOnTransportFailure(t *testing.T) {
	conv := &models.Conversation{ID: "c1"}
	conv.Messages = append(conv.Messages, models.NewUserMessage("earlier question"))
	conv.Messages = append(conv.Messages, models.Message{Role: models.RoleAssistant, Content: "earlier answer"})
	n := len(conv.Messages)

	conv.AppendExchange("doomed question")
	if len(conv.Messages) != n+2 {
		t.Fatalf("after AppendExchange: %d messages, want %d", len(conv.Messages), n+2)
	}

	// Transport failed before any event: undo the optimistic pair.
	conv.RollbackExchange()
	if len(conv.Messages) != n {
		t.Errorf("after rollback: %d messages, want %d", len(conv.Messages), n)
	}
	if conv.Messages[n-1].Content != "earlier answer" {
		t.Errorf("rollback removed the wrong messages")
	}
}

func TestAssembler_ChatCompleteOverridesChunks(t *testing.T) {
	conv := newStreamingConv("c1")
	asm := NewAssembler("c1")

	events := []*Event{
		{Type: EventChatStart, Model: "m"},
		chunkEvent("A"),
		chunkEvent("B"),
	}
	final, _ := json.Marshal(models.FinalAnswer{Model: "m", Response: "AB final"})
	events = append(events, &Event{Type: EventChatComplete, Data: final})

	for _, ev := range events {
		if _, err := asm.Apply(conv, ev); err != nil {
			t.Fatalf("Apply(%s) failed: %v", ev.Type, err)
		}
	}

	msg := conv.LastMessage()
	if msg.Stage3 == nil || msg.Stage3.Response != "AB final" {
		t.Errorf("Stage3.Response = %+v, want %q", msg.Stage3, "AB final")
	}
	if msg.Metadata == nil || msg.Metadata.Model != "m" {
		t.Errorf("Metadata.Model = %+v, want %q", msg.Metadata, "m")
	}
	if msg.Metadata.Mode != models.ModeChat {
		t.Errorf("Metadata.Mode = %q, want chat", msg.Metadata.Mode)
	}
}

func TestAssembler_CouncilRun(t *testing.T) {
	conv := newStreamingConv("c1")
	asm := NewAssembler("c1")

	stage1, _ := json.Marshal([]models.StageResponse{{Model: "m1", Response: "r1"}})
	stage2, _ := json.Marshal([]models.StageRanking{{Model: "m1", Ranking: "1. Response A"}})
	stage3, _ := json.Marshal(models.FinalAnswer{Model: "chairman", Response: "verdict"})

	steps := []struct {
		ev        *Event
		wantPhase Phase
	}{
		{&Event{Type: EventStage1Start}, PhaseAwaitingStage1},
		{&Event{Type: EventStage1Complete, Data: stage1}, PhaseStage1Done},
		{&Event{Type: EventStage2Start}, PhaseAwaitingStage2},
		{&Event{Type: EventStage2Complete, Data: stage2, Metadata: &models.MessageMetadata{
			LabelToModel: map[string]string{"Response A": "m1"},
		}}, PhaseStage2Done},
		{&Event{Type: EventStage3Start}, PhaseAwaitingStage3},
		{&Event{Type: EventStage3Complete, Data: stage3}, PhaseStage3Done},
	}

	for _, step := range steps {
		if _, err := asm.Apply(conv, step.ev); err != nil {
			t.Fatalf("Apply(%s) failed: %v", step.ev.Type, err)
		}
		if asm.Phase() != step.wantPhase {
			t.Errorf("after %s: phase = %v, want %v", step.ev.Type, asm.Phase(), step.wantPhase)
		}
	}

	msg := conv.LastMessage()
	if len(msg.Stage1) != 1 || len(msg.Stage2) != 1 {
		t.Errorf("stages not populated: stage1=%d stage2=%d", len(msg.Stage1), len(msg.Stage2))
	}
	if msg.Stage3 == nil || msg.Stage3.Response != "verdict" {
		t.Errorf("Stage3 = %+v, want verdict", msg.Stage3)
	}
	if msg.Metadata == nil || msg.Metadata.LabelToModel["Response A"] != "m1" {
		t.Errorf("stage2 metadata not attached: %+v", msg.Metadata)
	}

	effect, err := asm.Apply(conv, &Event{Type: EventComplete})
	if err != nil {
		t.Fatalf("Apply(complete) failed: %v", err)
	}
	if effect != EffectComplete {
		t.Errorf("effect = %v, want EffectComplete", effect)
	}
	if msg.Loading != nil {
		t.Error("Loading not cleared on complete")
	}
	if !asm.Done() {
		t.Error("assembler not done after complete")
	}
}

func TestAssembler_TitleCompleteRefreshesList(t *testing.T) {
	conv := newStreamingConv("c1")
	asm := NewAssembler("c1")

	data, _ := json.Marshal(map[string]string{"title": "Picking a laptop"})
	effect, err := asm.Apply(conv, &Event{Type: EventTitleComplete, Data: data})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if effect != EffectRefreshList {
		t.Errorf("effect = %v, want EffectRefreshList", effect)
	}
	// title_complete never touches the message
	if conv.LastMessage().Content != "" {
		t.Error("title_complete mutated the assistant message")
	}
}

func TestAssembler_ErrorEvent(t *testing.T) {
	conv := newStreamingConv("c1")
	asm := NewAssembler("c1")

	if _, err := asm.Apply(conv, &Event{Type: EventStage1Start}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	_, err := asm.Apply(conv, &Event{Type: EventError, Message: "upstream exploded"})
	if err == nil {
		t.Fatal("expected error for error event")
	}
	if !apierrors.IsStreamError(err) {
		t.Errorf("err = %T, want *StreamError", err)
	}

	// Known behavior: the partial state is preserved, pending flags
	// stay set.
	msg := conv.LastMessage()
	if msg.Loading == nil || !msg.Loading.Stage1 {
		t.Error("pending loading flag cleared by error event")
	}
	if !asm.Done() {
		t.Error("assembler not terminal after error event")
	}
}

func TestAssembler_MalformedPayloadKeepsStreamAlive(t *testing.T) {
	conv := newStreamingConv("c1")
	asm := NewAssembler("c1")

	bad := &Event{Type: EventStage1Complete, Data: json.RawMessage(`"not a list"`)}
	_, err := asm.Apply(conv, bad)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !errors.Is(err, apierrors.ErrInvalidResponse) {
		t.Errorf("err = %v, want ErrInvalidResponse match", err)
	}
	if asm.Done() {
		t.Error("parse error must not terminate the request")
	}

	// A later good event still applies.
	payload, _ := json.Marshal([]models.StageResponse{{Model: "m", Response: "r"}})
	if _, err := asm.Apply(conv, &Event{Type: EventStage1Complete, Data: payload}); err != nil {
		t.Fatalf("Apply after parse error failed: %v", err)
	}
	if len(conv.LastMessage().Stage1) != 1 {
		t.Error("stage1 not populated after recovery")
	}
}

func TestAssembler_NoPlaceholderDropsEvent(t *testing.T) {
	conv := &models.Conversation{ID: "c1"}
	conv.Messages = append(conv.Messages, models.NewUserMessage("only a user message"))
	asm := NewAssembler("c1")

	effect, err := asm.Apply(conv, chunkEvent("late"))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if effect != EffectNone {
		t.Errorf("effect = %v, want EffectNone", effect)
	}
	if len(conv.Messages) != 1 || conv.Messages[0].Content != "only a user message" {
		t.Error("event without placeholder mutated the conversation")
	}
}

func TestAssembler_TokensDifferPerRequest(t *testing.T) {
	a := NewAssembler("c1")
	b := NewAssembler("c1")
	if a.Token() == "" || a.Token() == b.Token() {
		t.Errorf("tokens must be unique per request: %q vs %q", a.Token(), b.Token())
	}
}

func TestAssembler_ImageRun(t *testing.T) {
	conv := newStreamingConv("c1")
	asm := NewAssembler("c1")

	if _, err := asm.Apply(conv, &Event{Type: EventImageStart}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if asm.Phase() != PhaseAwaitingImage {
		t.Errorf("phase = %v, want PhaseAwaitingImage", asm.Phase())
	}

	data, _ := json.Marshal(models.FinalAnswer{Response: "![img](https://example.com/x.png)"})
	if _, err := asm.Apply(conv, &Event{Type: EventImageComplete, Data: data}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	msg := conv.LastMessage()
	if msg.Metadata == nil || msg.Metadata.Mode != models.ModeImage {
		t.Errorf("Metadata = %+v, want image mode", msg.Metadata)
	}
	if msg.Stage3 == nil || msg.Stage3.Response == "" {
		t.Error("image payload not stored in stage3")
	}
}
