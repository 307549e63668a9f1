package api

import (
	"context"

	"github.com/diogo/llmcouncil/internal/models"
	"github.com/diogo/llmcouncil/internal/stream"
)

// CouncilAPI is the client surface the TUI and commands depend on.
// CouncilClient is the production implementation; MockCouncilClient
// backs the tests.
type CouncilAPI interface {
	BaseURL() string
	Health(ctx context.Context) error

	ListRooms(ctx context.Context) (*models.RoomList, error)
	ListModels(ctx context.Context) (*models.ModelList, error)
	DetectRoom(ctx context.Context, prompt string) (*models.RoomDetection, error)

	ListConversations(ctx context.Context) ([]models.ConversationMeta, error)
	CreateConversation(ctx context.Context) (*models.Conversation, error)
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	DeleteAllConversations(ctx context.Context) error

	SendMessage(ctx context.Context, conversationID string, req SendMessageRequest) (*MessageResponse, error)
	StreamMessage(ctx context.Context, conversationID string, req SendMessageRequest, opts ...stream.DecoderOption) (*StreamSession, error)
}

// Ensure CouncilClient implements CouncilAPI
var _ CouncilAPI = (*CouncilClient)(nil)
