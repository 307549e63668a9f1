package models

import "testing"

func TestAppendAndRollbackExchange(t *testing.T) {
	conv := &Conversation{ID: "conv-1"}

	placeholder := conv.AppendExchange("what now?")
	if len(conv.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(conv.Messages))
	}
	if conv.Messages[0].Role != RoleUser || conv.Messages[0].Content != "what now?" {
		t.Errorf("user message = %+v", conv.Messages[0])
	}
	if placeholder.Role != RoleAssistant {
		t.Errorf("placeholder role = %q, want assistant", placeholder.Role)
	}
	if placeholder.Loading == nil {
		t.Error("placeholder should start in loading state")
	}
	if placeholder != conv.LastMessage() {
		t.Error("AppendExchange should return the trailing message")
	}

	conv.RollbackExchange()
	if len(conv.Messages) != 0 {
		t.Errorf("messages after rollback = %d, want 0", len(conv.Messages))
	}
}

func TestRollbackExchangeOnShortConversation(t *testing.T) {
	conv := &Conversation{Messages: []Message{NewUserMessage("hi")}}
	conv.RollbackExchange()
	if len(conv.Messages) != 1 {
		t.Errorf("rollback removed messages it did not insert: %d left", len(conv.Messages))
	}
}

func TestLastMessageEmpty(t *testing.T) {
	conv := &Conversation{}
	if conv.LastMessage() != nil {
		t.Error("LastMessage on empty conversation should be nil")
	}
}

func TestIsPending(t *testing.T) {
	msg := NewPendingAssistantMessage()
	if msg.IsPending() {
		t.Error("fresh placeholder has no pending stages yet")
	}
	msg.Loading.Stage2 = true
	if !msg.IsPending() {
		t.Error("message with a pending stage should report pending")
	}
	msg.Loading = nil
	if msg.IsPending() {
		t.Error("terminal message should not report pending")
	}
}

func TestFinalText(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{"user message", NewUserMessage("hello"), "hello"},
		{"assistant with verdict", Message{
			Role:    RoleAssistant,
			Content: "partial",
			Stage3:  &FinalAnswer{Model: "gpt", Response: "verdict"},
		}, "verdict"},
		{"assistant without verdict", Message{
			Role:    RoleAssistant,
			Content: "streamed text",
		}, "streamed text"},
		{"empty verdict falls back to content", Message{
			Role:    RoleAssistant,
			Content: "fallback",
			Stage3:  &FinalAnswer{},
		}, "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.FinalText(); got != tt.want {
				t.Errorf("FinalText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestModeLabel(t *testing.T) {
	withMeta := Message{
		Role:     RoleAssistant,
		Metadata: &MessageMetadata{Mode: ModeImage},
	}
	if got := withMeta.ModeLabel(); got != ModeImage {
		t.Errorf("ModeLabel() = %q, want image", got)
	}

	legacyCouncil := Message{
		Role:   RoleAssistant,
		Stage1: []StageResponse{{Model: "a", Response: "x"}},
	}
	if got := legacyCouncil.ModeLabel(); got != ModeCouncil {
		t.Errorf("ModeLabel() = %q, want council", got)
	}

	plain := NewUserMessage("hi")
	if got := plain.ModeLabel(); got != DefaultMode {
		t.Errorf("ModeLabel() = %q, want default", got)
	}
}

func TestModeFromName(t *testing.T) {
	for _, mode := range AllModes() {
		if got := ModeFromName(string(mode)); got != mode {
			t.Errorf("ModeFromName(%q) = %q", mode, got)
		}
	}
	if got := ModeFromName("bogus"); got != DefaultMode {
		t.Errorf("ModeFromName(bogus) = %q, want default", got)
	}
}

func TestIsValidMode(t *testing.T) {
	if !IsValidMode("council") {
		t.Error("council should be valid")
	}
	if IsValidMode("") || IsValidMode("turbo") {
		t.Error("unknown modes should be invalid")
	}
}
