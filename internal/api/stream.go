package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/diogo/llmcouncil/internal/stream"
)

// StreamSession is one in-flight streaming request. Events are
// delivered in arrival order on Events(); the channel closes when the
// stream ends. Err() reports a transport or scanner failure after the
// channel closes (backend-reported errors arrive as error events, not
// through Err).
type StreamSession struct {
	conversationID string
	events         chan *stream.Event
	cancel         context.CancelFunc
	done           chan struct{}
	err            error
}

// ConversationID returns the conversation this stream targets
func (s *StreamSession) ConversationID() string {
	return s.conversationID
}

// Events returns the ordered event channel
func (s *StreamSession) Events() <-chan *stream.Event {
	return s.events
}

// Err returns the transport error that ended the stream, if any.
// Only meaningful after Events() has been closed.
func (s *StreamSession) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Close abandons the stream. The read loop stops, the channel closes.
// Safe to call more than once.
func (s *StreamSession) Close() {
	s.cancel()
}

// StreamMessage sends a message and opens the SSE response stream.
// The returned session must be closed by the caller unless the stream
// runs to completion. The request placeholder messages are the
// caller's responsibility (AppendExchange / RollbackExchange).
func (c *CouncilClient) StreamMessage(ctx context.Context, conversationID string, req SendMessageRequest, opts ...stream.DecoderOption) (*StreamSession, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("conversation id cannot be empty")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("message content cannot be empty")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+streamPath(conversationID), bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	// The client's timeout would cut long council runs short; streams
	// rely on context cancellation instead.
	streamClient := &http.Client{Transport: c.httpClient.Transport}

	resp, err := streamClient.Do(httpReq)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		defer cancel()
		return nil, c.apiError(resp, streamPath(conversationID))
	}

	session := &StreamSession{
		conversationID: conversationID,
		events:         make(chan *stream.Event),
		cancel:         cancel,
		done:           make(chan struct{}),
	}

	go session.readLoop(ctx, resp.Body, opts...)

	return session, nil
}

// readLoop decodes events off the response body until EOF, failure, or
// cancellation, then closes the event channel.
func (s *StreamSession) readLoop(ctx context.Context, body io.ReadCloser, opts ...stream.DecoderOption) {
	defer close(s.events)
	defer close(s.done)
	defer body.Close()

	decoder := stream.NewDecoder(body, opts...)
	for {
		ev, err := decoder.Next()
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				s.err = err
			}
			return
		}

		select {
		case s.events <- ev:
		case <-ctx.Done():
			return
		}

		if ev.IsTerminal() {
			return
		}
	}
}
