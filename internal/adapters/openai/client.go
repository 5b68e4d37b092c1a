package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hotel_booking/internal/adapters/outbound"
)

// Dimensions matches the vector index the hotels are stored under.
const Dimensions = 1536

// Only the text-embedding-3 family accepts a dimensions parameter; older
// models reject it.
func dimensionsFor(model string) int {
	if strings.HasPrefix(model, "text-embedding-3") {
		return Dimensions
	}
	return 0
}

type Client struct {
	base       string
	embedModel string
	chatModel  string
	call       *outbound.Caller
}

func New(base, key, embedModel, chatModel string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	return &Client{
		base:       strings.TrimRight(base, "/"),
		embedModel: embedModel,
		chatModel:  chatModel,
		// chat completions over the whole catalogue can take a while
		call: outbound.New("openai", rps,
			outbound.WithTimeout(60*time.Second),
			outbound.WithHeaders(func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+key)
			})),
	}, nil
}

type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed returns the embedding of a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("no text provided")
	}
	req, err := outbound.JSON(http.MethodPost, c.base+"/embeddings", "embeddings", embeddingRequest{
		Input:      []string{text},
		Model:      c.embedModel,
		Dimensions: dimensionsFor(c.embedModel),
	})
	if err != nil {
		return nil, err
	}
	var out embeddingResponse
	if err := c.call.Do(ctx, req, &out); err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, errors.New("embeddings: no embeddings returned")
	}
	return out.Data[0].Embedding, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends one system and one user message and returns the first
// choice's text. An empty string means the model produced no choice.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	req, err := outbound.JSON(http.MethodPost, c.base+"/chat/completions", "chat.completions", chatRequest{
		Model: c.chatModel,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	var out chatResponse
	if err := c.call.Do(ctx, req, &out); err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", nil
	}
	return out.Choices[0].Message.Content, nil
}
