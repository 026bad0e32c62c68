package services

import (
	"context"
	"strings"

	"github.com/yungbote/memberhub-backend/internal/platform/apierr"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
	"github.com/yungbote/memberhub-backend/internal/platform/openai"
)

const maxSpeechRunes = 4096

var speechVoices = map[string]struct{}{
	"alloy":   {},
	"ash":     {},
	"coral":   {},
	"echo":    {},
	"fable":   {},
	"nova":    {},
	"onyx":    {},
	"sage":    {},
	"shimmer": {},
}

type SpeechService interface {
	Synthesize(ctx context.Context, text, voice string) (*openai.SpeechResult, error)
}

type speechService struct {
	log *logger.Logger
	ai  openai.Client
}

func NewSpeechService(baseLog *logger.Logger, ai openai.Client) SpeechService {
	return &speechService{log: baseLog.With("service", "SpeechService"), ai: ai}
}

func (s *speechService) Synthesize(ctx context.Context, text, voice string) (*openai.SpeechResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apierr.BadRequest("missing_text", "text is required")
	}
	if len([]rune(text)) > maxSpeechRunes {
		return nil, apierr.BadRequest("text_too_long", "text must be at most 4096 characters")
	}
	voice = strings.ToLower(strings.TrimSpace(voice))
	if voice != "" {
		if _, ok := speechVoices[voice]; !ok {
			return nil, apierr.BadRequest("invalid_voice", "unknown voice")
		}
	}
	return s.ai.Speech(ctx, openai.SpeechRequest{Text: text, Voice: voice, Format: "mp3"})
}
