package stream

import (
	"fmt"
	"io"
	"strings"
	"testing"
)

func collectEvents(t *testing.T, input string) ([]*Event, []string) {
	t.Helper()

	var diags []string
	d := NewDecoder(strings.NewReader(input), WithDiagnostics(func(format string, args ...any) {
		diags = append(diags, fmt.Sprintf(format, args...))
	}))

	var events []*Event
	for {
		ev, err := d.Next()
		if err == io.EOF {
			return events, diags
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		events = append(events, ev)
	}
}

func TestDecoder_BasicStream(t *testing.T) {
	input := "data: {\"type\": \"stage1_start\"}\n\n" +
		"data: {\"type\": \"stage1_complete\", \"data\": [{\"model\": \"m\", \"response\": \"r\"}]}\n\n" +
		"data: {\"type\": \"complete\"}\n\n"

	events, diags := collectEvents(t, input)
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	want := []string{EventStage1Start, EventStage1Complete, EventComplete}
	for i, ev := range events {
		if ev.Type != want[i] {
			t.Errorf("event[%d].Type = %q, want %q", i, ev.Type, want[i])
		}
	}
}

func TestDecoder_SkipsMalformedLine(t *testing.T) {
	input := "data: {\"type\": \"chat_start\", \"model\": \"m\"}\n\n" +
		"data: {not json at all\n\n" +
		"data: {\"type\": \"chat_chunk\", \"data\": {\"chunk\": \"hi\"}}\n\n"

	events, diags := collectEvents(t, input)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (malformed line skipped)", len(events))
	}
	if len(diags) != 1 {
		t.Errorf("got %d diagnostics, want 1", len(diags))
	}
	if events[1].Type != EventChatChunk {
		t.Errorf("stream did not continue past malformed line")
	}
}

func TestDecoder_IgnoresCommentsAndBlankLines(t *testing.T) {
	input := ": keepalive\n\n" +
		"\n" +
		"data: {\"type\": \"complete\"}\n\n"

	events, diags := collectEvents(t, input)
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
	if len(events) != 1 || events[0].Type != EventComplete {
		t.Errorf("events = %+v, want single complete", events)
	}
}

func TestDecoder_SkipsEventWithoutType(t *testing.T) {
	input := "data: {\"data\": {\"chunk\": \"orphan\"}}\n\n" +
		"data: {\"type\": \"complete\"}\n\n"

	events, diags := collectEvents(t, input)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if len(diags) != 1 {
		t.Errorf("got %d diagnostics, want 1", len(diags))
	}
}

func TestDecoder_CRLFLines(t *testing.T) {
	input := "data: {\"type\": \"complete\"}\r\n\r\n"
	events, _ := collectEvents(t, input)
	if len(events) != 1 || events[0].Type != EventComplete {
		t.Errorf("CRLF line not decoded: %+v", events)
	}
}

func TestDecoder_ErrorEventCarriesMessage(t *testing.T) {
	input := "data: {\"type\": \"error\", \"message\": \"model timed out\"}\n\n"
	events, _ := collectEvents(t, input)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Message != "model timed out" {
		t.Errorf("Message = %q, want %q", events[0].Message, "model timed out")
	}
	if !events[0].IsTerminal() {
		t.Error("error event should be terminal")
	}
}
