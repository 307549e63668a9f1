package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/diogo/llmcouncil/internal/models"
)

func TestSendMessage_Chat(t *testing.T) {
	var got SendMessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/conversations/c1/message" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"stage1": [],
			"stage2": [],
			"stage3": {"model": "Llama 3.3 70B", "response": "hi there"},
			"metadata": {"mode": "chat", "model": "Llama 3.3 70B"}
		}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	resp, err := client.SendMessage(context.Background(), "c1", SendMessageRequest{
		Content: "hello",
		Mode:    models.ModeChat,
		Model:   "llama-3.3-70b-versatile",
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if got.Content != "hello" || got.Mode != models.ModeChat {
		t.Errorf("request body = %+v", got)
	}
	if resp.Stage3 == nil || resp.Stage3.Response != "hi there" {
		t.Errorf("Stage3 = %+v", resp.Stage3)
	}
	if resp.Metadata == nil || resp.Metadata.Mode != models.ModeChat {
		t.Errorf("Metadata = %+v", resp.Metadata)
	}
}

func TestSendMessage_Validation(t *testing.T) {
	client := NewClient()

	if _, err := client.SendMessage(context.Background(), "", SendMessageRequest{Content: "x"}); err == nil {
		t.Error("expected error for empty conversation id")
	}
	if _, err := client.SendMessage(context.Background(), "c1", SendMessageRequest{Content: "  "}); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestAttachFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.pdf")
	content := []byte("%PDF-1.4 fake content")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	att, err := AttachFile(path)
	if err != nil {
		t.Fatalf("AttachFile failed: %v", err)
	}
	if att.Filename != "notes.pdf" {
		t.Errorf("Filename = %s", att.Filename)
	}
	decoded, err := base64.StdEncoding.DecodeString(att.Content)
	if err != nil {
		t.Fatalf("content not valid base64: %v", err)
	}
	if string(decoded) != string(content) {
		t.Error("decoded content mismatch")
	}
}

func TestAttachFile_UnsupportedType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := AttachFile(path); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestAttachFile_Missing(t *testing.T) {
	if _, err := AttachFile(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("expected error for missing file")
	}
}
