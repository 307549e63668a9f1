package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/diogo/llmcouncil/internal/models"
)

// ListConversations returns metadata for all conversations, newest first
func (c *CouncilClient) ListConversations(ctx context.Context) ([]models.ConversationMeta, error) {
	var list []models.ConversationMeta
	if err := c.getJSON(ctx, "/api/conversations", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CreateConversation creates a new empty conversation
func (c *CouncilClient) CreateConversation(ctx context.Context) (*models.Conversation, error) {
	var conv models.Conversation
	if err := c.doJSON(ctx, http.MethodPost, "/api/conversations", struct{}{}, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetConversation fetches a conversation with all of its messages
func (c *CouncilClient) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	if id == "" {
		return nil, fmt.Errorf("conversation id cannot be empty")
	}

	var conv models.Conversation
	if err := c.getJSON(ctx, conversationPath(id), &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// DeleteConversation deletes one conversation
func (c *CouncilClient) DeleteConversation(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("conversation id cannot be empty")
	}
	return c.doJSON(ctx, http.MethodDelete, conversationPath(id), nil, nil)
}

// DeleteAllConversations deletes every conversation
func (c *CouncilClient) DeleteAllConversations(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/conversations", nil, nil)
}

// conversationPath builds the path for one conversation
func conversationPath(id string) string {
	return "/api/conversations/" + url.PathEscape(id)
}

// messagePath builds the blocking message path for one conversation
func messagePath(id string) string {
	return conversationPath(id) + "/message"
}

// streamPath builds the streaming message path for one conversation
func streamPath(id string) string {
	return conversationPath(id) + "/message/stream"
}
