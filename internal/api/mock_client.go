package api

import (
	"context"

	"github.com/diogo/llmcouncil/internal/models"
	"github.com/diogo/llmcouncil/internal/stream"
)

// MockCouncilClient is a mock implementation of CouncilAPI for testing
type MockCouncilClient struct {
	// Mock return values
	BaseURLVal          string
	HealthErr           error
	RoomsVal            *models.RoomList
	RoomsErr            error
	ModelsVal           *models.ModelList
	ModelsErr           error
	DetectionVal        *models.RoomDetection
	DetectionErr        error
	ConversationListVal []models.ConversationMeta
	ConversationListErr error
	ConversationVal     *models.Conversation
	ConversationErr     error
	DeleteErr           error
	SendResponseVal     *MessageResponse
	SendErr             error
	StreamSessionVal    *StreamSession
	StreamErr           error

	// Call counters/recorders
	HealthCalled      bool
	ListCalls         int
	CreateCalled      bool
	DeleteCalled      bool
	DeleteAllCalled   bool
	LastDeletedID     string
	LastSentID        string
	LastSentRequest   SendMessageRequest
	LastDetectPrompt  string
	StreamCalled      bool
	LastStreamID      string
	LastStreamRequest SendMessageRequest
}

// Ensure MockCouncilClient implements CouncilAPI
var _ CouncilAPI = (*MockCouncilClient)(nil)

func (m *MockCouncilClient) BaseURL() string {
	if m.BaseURLVal == "" {
		return DefaultBaseURL
	}
	return m.BaseURLVal
}

func (m *MockCouncilClient) Health(ctx context.Context) error {
	m.HealthCalled = true
	return m.HealthErr
}

func (m *MockCouncilClient) ListRooms(ctx context.Context) (*models.RoomList, error) {
	return m.RoomsVal, m.RoomsErr
}

func (m *MockCouncilClient) ListModels(ctx context.Context) (*models.ModelList, error) {
	return m.ModelsVal, m.ModelsErr
}

func (m *MockCouncilClient) DetectRoom(ctx context.Context, prompt string) (*models.RoomDetection, error) {
	m.LastDetectPrompt = prompt
	return m.DetectionVal, m.DetectionErr
}

func (m *MockCouncilClient) ListConversations(ctx context.Context) ([]models.ConversationMeta, error) {
	m.ListCalls++
	return m.ConversationListVal, m.ConversationListErr
}

func (m *MockCouncilClient) CreateConversation(ctx context.Context) (*models.Conversation, error) {
	m.CreateCalled = true
	return m.ConversationVal, m.ConversationErr
}

func (m *MockCouncilClient) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	return m.ConversationVal, m.ConversationErr
}

func (m *MockCouncilClient) DeleteConversation(ctx context.Context, id string) error {
	m.DeleteCalled = true
	m.LastDeletedID = id
	return m.DeleteErr
}

func (m *MockCouncilClient) DeleteAllConversations(ctx context.Context) error {
	m.DeleteAllCalled = true
	return m.DeleteErr
}

func (m *MockCouncilClient) SendMessage(ctx context.Context, conversationID string, req SendMessageRequest) (*MessageResponse, error) {
	m.LastSentID = conversationID
	m.LastSentRequest = req
	return m.SendResponseVal, m.SendErr
}

func (m *MockCouncilClient) StreamMessage(ctx context.Context, conversationID string, req SendMessageRequest, opts ...stream.DecoderOption) (*StreamSession, error) {
	m.StreamCalled = true
	m.LastStreamID = conversationID
	m.LastStreamRequest = req
	return m.StreamSessionVal, m.StreamErr
}
