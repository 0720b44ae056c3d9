package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client talks to an OpenAI-compatible chat completions endpoint. Only
// streaming completion is implemented; that is all the assistant pipeline
// consumes.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func NewClient(apiKey, baseURL, model string) *Client {
	return &Client{
		// No overall timeout: a streamed completion legitimately stays open
		// for as long as the model generates.
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}
}

// ChatMessage is one turn of the conversation context. Content is always a
// part array so a turn can mix text and an image reference.
type ChatMessage struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

// TextPart builds a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

// ImagePart builds an image-reference content part.
func ImagePart(url string) ContentPart {
	return ContentPart{Type: "image_url", ImageURL: &ImageURL{URL: url}}
}

// StreamChatCompletion opens a streaming completion for the given messages.
// The caller must Close the returned stream.
func (c *Client) StreamChatCompletion(ctx context.Context, messages []ChatMessage) (*Stream, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("openai: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai: sending request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("openai: upstream returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	return &Stream{
		body:    resp.Body,
		scanner: newSSEScanner(resp.Body),
	}, nil
}

// Stream yields content fragments in arrival order.
type Stream struct {
	body    io.ReadCloser
	scanner *sseScanner
	done    bool
}

// Recv returns the next non-empty content fragment. It returns io.EOF when
// the upstream stream completes cleanly, any other error on a broken or
// errored stream.
func (s *Stream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}

	for s.scanner.next() {
		event := s.scanner.event()

		// The chat completions stream terminates with "data: [DONE]".
		if event.Data == "[DONE]" {
			s.done = true
			return "", io.EOF
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(event.Data), &chunk); err != nil {
			return "", fmt.Errorf("openai: parsing stream chunk: %w", err)
		}

		// Errors arrive as regular data lines carrying an "error" object
		// instead of choices.
		if chunk.Error != nil {
			return "", fmt.Errorf("openai: stream error: %s: %s", chunk.Error.Type, chunk.Error.Message)
		}

		if len(chunk.Choices) == 0 {
			continue
		}
		fragment := chunk.Choices[0].Delta.Content
		if fragment == "" {
			continue
		}
		return fragment, nil
	}

	if err := s.scanner.scanErr(); err != nil {
		return "", fmt.Errorf("openai: reading stream: %w", err)
	}
	s.done = true
	return "", io.EOF
}

func (s *Stream) Close() error {
	return s.body.Close()
}

// --- wire types ---

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type streamChunk struct {
	ID      string         `json:"id"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []streamChoice `json:"choices"`
	Error   *streamError   `json:"error,omitempty"`
}

type streamChoice struct {
	Index        int         `json:"index"`
	Delta        streamDelta `json:"delta"`
	FinishReason *string     `json:"finish_reason"`
}

type streamDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

type streamError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
