package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apierrors "github.com/diogo/llmcouncil/internal/errors"
)

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient()
	if client.BaseURL() != DefaultBaseURL {
		t.Errorf("BaseURL = %s, want %s", client.BaseURL(), DefaultBaseURL)
	}
}

func TestNewClient_WithBaseURL(t *testing.T) {
	client := NewClient(WithBaseURL("http://example.com:9000/"))
	if client.BaseURL() != "http://example.com:9000" {
		t.Errorf("BaseURL = %s, want trailing slash trimmed", client.BaseURL())
	}
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			t.Errorf("path = %s, want /", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "ok", "service": "LLM Council API"}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	if err := client.Health(context.Background()); err != nil {
		t.Errorf("Health failed: %v", err)
	}
}

func TestHealth_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // Close immediately so connections fail

	client := NewClient(WithBaseURL(server.URL))
	err := client.Health(context.Background())
	if !errors.Is(err, apierrors.ErrServerUnavailable) {
		t.Errorf("err = %v, want ErrServerUnavailable", err)
	}
}

func TestListRooms(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rooms" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"rooms": [
				{"id": "code", "name": "Code Room", "description": "coding", "icon": "Code"},
				{"id": "decision", "name": "Decision Room", "description": "choices", "icon": "Scale"}
			],
			"default": "decision"
		}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	rooms, err := client.ListRooms(context.Background())
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}

	if len(rooms.Rooms) != 2 {
		t.Fatalf("got %d rooms, want 2", len(rooms.Rooms))
	}
	if rooms.Default != "decision" {
		t.Errorf("Default = %s, want decision", rooms.Default)
	}
	if room := rooms.FindRoom("code"); room == nil || room.Name != "Code Room" {
		t.Errorf("FindRoom(code) = %+v", room)
	}
	if room := rooms.FindRoom("missing"); room != nil {
		t.Errorf("FindRoom(missing) = %+v, want nil", room)
	}
}

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models": [
			{"id": "llama-3.3-70b-versatile", "provider": "groq", "name": "Llama 3.3 70B"}
		]}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	list, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}

	if len(list.Models) != 1 {
		t.Fatalf("got %d models, want 1", len(list.Models))
	}
	if m := list.FindModel("Llama 3.3 70B"); m == nil || m.Provider != "groq" {
		t.Errorf("FindModel by name = %+v", m)
	}
	if m := list.FindModel("llama-3.3-70b-versatile"); m == nil {
		t.Error("FindModel by id returned nil")
	}
}

func TestDetectRoom(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/rooms/detect" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"detected_room": "code",
			"room_name": "Code Room",
			"room_icon": "Code",
			"room_description": "coding"
		}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	detection, err := client.DetectRoom(context.Background(), "fix this python bug")
	if err != nil {
		t.Fatalf("DetectRoom failed: %v", err)
	}
	if detection.DetectedRoom != "code" {
		t.Errorf("DetectedRoom = %s, want code", detection.DetectedRoom)
	}
}

func TestDetectRoom_EmptyPrompt(t *testing.T) {
	client := NewClient()
	if _, err := client.DetectRoom(context.Background(), "   "); err == nil {
		t.Error("expected error for empty prompt")
	}
}

func TestAPIError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantNotFnd bool
	}{
		{"not found with detail", 404, `{"detail": "Conversation not found"}`, true},
		{"server error", 500, `{"detail": "boom"}`, false},
		{"error without body", 502, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(WithBaseURL(server.URL))
			_, err := client.GetConversation(context.Background(), "some-id")
			if err == nil {
				t.Fatal("expected error")
			}

			var apiErr *apierrors.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %T, want *APIError", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if got := apierrors.IsNotFound(err); got != tt.wantNotFnd {
				t.Errorf("IsNotFound = %v, want %v", got, tt.wantNotFnd)
			}
		})
	}
}
