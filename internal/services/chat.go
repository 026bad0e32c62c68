package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/memberhub-backend/internal/platform/apierr"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
	"github.com/yungbote/memberhub-backend/internal/platform/openai"
)

const (
	chatRoleUser      = "user"
	chatRoleAssistant = "assistant"

	maxChatMessageRunes = 8000
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

type ChatConfig struct {
	HistoryLimit   int
	KnowledgeTopK  int
	KnowledgeLimit int
}

type ChatService interface {
	// StreamReply validates the conversation, builds the system prompt and streams the
	// model's answer through onDelta. Validation errors are returned before onDelta is
	// ever called.
	StreamReply(ctx context.Context, req ChatRequest, onDelta func(string)) (string, error)
}

type chatService struct {
	log       *logger.Logger
	cfg       ChatConfig
	ai        openai.Client
	assistant AssistantService
	search    KnowledgeSearchService
}

func NewChatService(baseLog *logger.Logger, cfg ChatConfig, ai openai.Client, assistant AssistantService, search KnowledgeSearchService) ChatService {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 20
	}
	if cfg.KnowledgeTopK <= 0 {
		cfg.KnowledgeTopK = 5
	}
	if cfg.KnowledgeLimit <= 0 {
		cfg.KnowledgeLimit = 6000
	}
	return &chatService{
		log:       baseLog.With("service", "ChatService"),
		cfg:       cfg,
		ai:        ai,
		assistant: assistant,
		search:    search,
	}
}

func (s *chatService) StreamReply(ctx context.Context, req ChatRequest, onDelta func(string)) (string, error) {
	history, err := s.normalizeHistory(req.Messages)
	if err != nil {
		return "", err
	}

	cfg, err := s.assistant.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("load assistant config: %w", err)
	}

	var knowledge []ChunkMatch
	if cfg.KnowledgeEnabled && s.search != nil {
		knowledge, err = s.search.Search(ctx, history[len(history)-1].Content, s.cfg.KnowledgeTopK)
		if err != nil {
			s.log.Warn("knowledge search failed; answering without context", "error", err)
			knowledge = nil
		}
	}
	system := BuildSystemPrompt(cfg.Name, cfg.SystemPrompt, knowledge, s.cfg.KnowledgeLimit)

	client := s.ai
	if m := strings.TrimSpace(cfg.Model); m != "" {
		client = openai.WithModel(s.ai, m)
	}
	return client.StreamChat(ctx, system, history, onDelta)
}

// normalizeHistory drops client-sent system messages and empty turns, caps the history
// and requires the last turn to come from the user.
func (s *chatService) normalizeHistory(msgs []ChatMessage) ([]openai.Message, error) {
	out := make([]openai.Message, 0, len(msgs))
	for _, m := range msgs {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		content := strings.TrimSpace(m.Content)
		if role != chatRoleUser && role != chatRoleAssistant {
			continue
		}
		if content == "" {
			continue
		}
		if len([]rune(content)) > maxChatMessageRunes {
			return nil, apierr.BadRequest("message_too_long", "message is too long")
		}
		out = append(out, openai.Message{Role: role, Content: content})
	}
	if len(out) == 0 {
		return nil, apierr.BadRequest("missing_messages", "messages are required")
	}
	if out[len(out)-1].Role != chatRoleUser {
		return nil, apierr.BadRequest("last_message_not_user", "the last message must come from the user")
	}
	if len(out) > s.cfg.HistoryLimit {
		out = out[len(out)-s.cfg.HistoryLimit:]
	}
	return out, nil
}

// BuildSystemPrompt joins the persona prompt with numbered knowledge excerpts. Excerpts
// are added best first until limit runes are used.
func BuildSystemPrompt(name, persona string, knowledge []ChunkMatch, limit int) string {
	var b strings.Builder
	if name = strings.TrimSpace(name); name != "" {
		b.WriteString("Your name is ")
		b.WriteString(name)
		b.WriteString(".\n")
	}
	if persona = strings.TrimSpace(persona); persona == "" {
		persona = defaultAssistantPrompt
	}
	b.WriteString(persona)

	if len(knowledge) == 0 {
		return b.String()
	}
	b.WriteString("\n\nUse the knowledge base excerpts below when they are relevant. If they do not cover the question, say so instead of guessing.\n\n### Knowledge base\n")
	used := 0
	for i, k := range knowledge {
		n := len([]rune(k.Content))
		if limit > 0 && used > 0 && used+n > limit {
			break
		}
		fmt.Fprintf(&b, "[%d] %s\n", i+1, k.Content)
		used += n
	}
	return strings.TrimRight(b.String(), "\n")
}
