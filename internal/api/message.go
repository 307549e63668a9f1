package api

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/diogo/llmcouncil/internal/models"
)

// File types the backend's extractor understands
var supportedExtensions = map[string]bool{
	".pdf": true, ".docx": true, ".pptx": true,
	".png": true, ".jpg": true, ".jpeg": true,
	".gif": true, ".bmp": true, ".webp": true,
}

// maxAttachmentSize bounds attachments before base64 expansion
const maxAttachmentSize = 20 * 1024 * 1024

// Attachment is a local file sent alongside a file-mode message.
// Content is base64-encoded; extraction happens backend-side.
type Attachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// SendMessageRequest is the body of both message endpoints
type SendMessageRequest struct {
	Content    string      `json:"content"`
	Mode       models.Mode `json:"mode,omitempty"`
	Room       string      `json:"room,omitempty"`
	Model      string      `json:"model,omitempty"`
	Attachment *Attachment `json:"file,omitempty"`
}

// MessageResponse is the blocking endpoint's complete reply
type MessageResponse struct {
	Stage1   []models.StageResponse  `json:"stage1"`
	Stage2   []models.StageRanking   `json:"stage2"`
	Stage3   *models.FinalAnswer     `json:"stage3"`
	Metadata *models.MessageMetadata `json:"metadata,omitempty"`
}

// AttachFile reads a local file into an Attachment, rejecting types the
// backend cannot extract.
func AttachFile(path string) (*Attachment, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return nil, fmt.Errorf("unsupported file type %q (supported: pdf, docx, pptx, png, jpg, jpeg, gif, bmp, webp)", ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() > maxAttachmentSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), maxAttachmentSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return &Attachment{
		Filename: filepath.Base(path),
		Content:  base64.StdEncoding.EncodeToString(data),
	}, nil
}

// SendMessage sends a message and blocks until the full reply is
// available. Streaming callers use StreamMessage instead.
func (c *CouncilClient) SendMessage(ctx context.Context, conversationID string, req SendMessageRequest) (*MessageResponse, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("conversation id cannot be empty")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("message content cannot be empty")
	}

	var resp MessageResponse
	err := c.doJSON(ctx, http.MethodPost, messagePath(conversationID), req, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
