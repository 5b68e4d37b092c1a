package app

import (
	"context"
	"encoding/json"
	"strings"

	"hotel_booking/internal/domain"
)

const noResponse = "No response"

type AssistantService struct {
	hotels *HotelService
	chat   domain.ChatModel
}

func NewAssistantService(h *HotelService, c domain.ChatModel) *AssistantService {
	return &AssistantService{hotels: h, chat: c}
}

// Ask recommends hotels for a free-text description of the stay the user wants.
func (s *AssistantService) Ask(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", domain.InvalidFields("Invalid query", map[string]string{"query": "query is required"})
	}
	if s.chat == nil {
		return noResponse, nil
	}
	hs, err := s.hotels.List(ctx)
	if err != nil {
		return "", err
	}
	out, err := s.chat.Complete(ctx, systemPrompt(hs), query)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return noResponse, nil
	}
	return out, nil
}

func systemPrompt(hs []domain.Hotel) string {
	b, _ := json.Marshal(hs)
	return "You are a helpful assistant that helps users choose a hotel based on the vibe they describe. " +
		"Available hotels: " + string(b) + ". Recommend a hotel with its information."
}
