package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/memberhub-backend/internal/data/repos"
	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/platform/apierr"
	"github.com/yungbote/memberhub-backend/internal/platform/ctxutil"
	"github.com/yungbote/memberhub-backend/internal/platform/dbctx"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
	"github.com/yungbote/memberhub-backend/internal/platform/openai"
)

const (
	storyTTL          = 24 * time.Hour
	maxPostBodyRunes  = 5000
	botPostUserPrompt = "Write one short, friendly post for the members community of an online course platform. Share a tip, a question or some encouragement. No hashtags, no more than 280 characters."
)

type PostInput struct {
	Body string `json:"body"`
	Kind string `json:"kind"`
}

type BotInput struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Persona   string `json:"persona"`
	Active    *bool  `json:"active"`
}

type CommunityService interface {
	Feed(dbc dbctx.Context, before *time.Time, limit int) ([]*types.Post, error)
	CreatePost(ctx context.Context, in PostInput) (*types.Post, error)

	ListBots(dbc dbctx.Context) ([]*types.BotProfile, error)
	CreateBot(ctx context.Context, in BotInput) (*types.BotProfile, error)
	UpdateBot(ctx context.Context, id uuid.UUID, in BotInput) (*types.BotProfile, error)
	DeleteBot(ctx context.Context, id uuid.UUID) error
	// GenerateBotPost writes a post in the bot's voice and publishes it.
	GenerateBotPost(ctx context.Context, botID uuid.UUID) (*types.Post, error)
}

type communityService struct {
	db       *gorm.DB
	log      *logger.Logger
	ai       openai.Client
	userRepo repos.UserRepo
	postRepo repos.PostRepo
	botRepo  repos.BotRepo
	now      func() time.Time
}

func NewCommunityService(
	db *gorm.DB,
	baseLog *logger.Logger,
	ai openai.Client,
	userRepo repos.UserRepo,
	postRepo repos.PostRepo,
	botRepo repos.BotRepo,
) CommunityService {
	return &communityService{
		db:       db,
		log:      baseLog.With("service", "CommunityService"),
		ai:       ai,
		userRepo: userRepo,
		postRepo: postRepo,
		botRepo:  botRepo,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *communityService) Feed(dbc dbctx.Context, before *time.Time, limit int) ([]*types.Post, error) {
	return s.postRepo.Feed(dbc.Ctx, dbc.Tx, s.now(), before, limit)
}

func (s *communityService) CreatePost(ctx context.Context, in PostInput) (*types.Post, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthenticated", "not authenticated")
	}
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, apierr.BadRequest("missing_body", "body is required")
	}
	if len([]rune(body)) > maxPostBodyRunes {
		return nil, apierr.BadRequest("body_too_long", "body is too long")
	}
	kind := strings.ToLower(strings.TrimSpace(in.Kind))
	if kind == "" {
		kind = types.PostKindPost
	}
	if kind != types.PostKindPost && kind != types.PostKindStory {
		return nil, apierr.BadRequest("invalid_kind", "kind must be post or story")
	}

	authorName := rd.Email
	if users, err := s.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID}); err == nil && len(users) == 1 && users[0].Name != "" {
		authorName = users[0].Name
	}

	authorID := rd.UserID
	post := &types.Post{
		AuthorUserID: &authorID,
		AuthorName:   authorName,
		Body:         body,
		Kind:         kind,
	}
	if kind == types.PostKindStory {
		exp := s.now().Add(storyTTL)
		post.ExpiresAt = &exp
	}
	if err := s.postRepo.Create(ctx, nil, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *communityService) ListBots(dbc dbctx.Context) ([]*types.BotProfile, error) {
	return s.botRepo.List(dbc.Ctx, dbc.Tx, false)
}

func (s *communityService) CreateBot(ctx context.Context, in BotInput) (*types.BotProfile, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Persona = strings.TrimSpace(in.Persona)
	if in.Name == "" {
		return nil, apierr.BadRequest("missing_name", "name is required")
	}
	if in.Persona == "" {
		return nil, apierr.BadRequest("missing_persona", "persona is required")
	}
	existing, err := s.botRepo.GetByName(ctx, nil, in.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apierr.BadRequest("bot_name_taken", "a bot with this name already exists")
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	bot := &types.BotProfile{
		Name:      in.Name,
		AvatarURL: strings.TrimSpace(in.AvatarURL),
		Persona:   in.Persona,
		Active:    active,
	}
	if err := s.botRepo.Create(ctx, nil, bot); err != nil {
		return nil, err
	}
	return bot, nil
}

func (s *communityService) UpdateBot(ctx context.Context, id uuid.UUID, in BotInput) (*types.BotProfile, error) {
	bot, err := s.botRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if bot == nil {
		return nil, apierr.NotFound("bot_not_found", "bot not found")
	}
	updates := map[string]interface{}{}
	if name := strings.TrimSpace(in.Name); name != "" {
		updates["name"] = name
	}
	if persona := strings.TrimSpace(in.Persona); persona != "" {
		updates["persona"] = persona
	}
	if in.AvatarURL != "" {
		updates["avatar_url"] = strings.TrimSpace(in.AvatarURL)
	}
	if in.Active != nil {
		updates["active"] = *in.Active
	}
	if err := s.botRepo.Update(ctx, nil, id, updates); err != nil {
		return nil, err
	}
	return s.botRepo.GetByID(ctx, nil, id)
}

func (s *communityService) DeleteBot(ctx context.Context, id uuid.UUID) error {
	ok, err := s.botRepo.Delete(ctx, nil, id)
	if err != nil {
		return err
	}
	if !ok {
		return apierr.NotFound("bot_not_found", "bot not found")
	}
	return nil
}

func (s *communityService) GenerateBotPost(ctx context.Context, botID uuid.UUID) (*types.Post, error) {
	bot, err := s.botRepo.GetByID(ctx, nil, botID)
	if err != nil {
		return nil, err
	}
	if bot == nil {
		return nil, apierr.NotFound("bot_not_found", "bot not found")
	}
	if !bot.Active {
		return nil, apierr.BadRequest("bot_inactive", "bot is not active")
	}

	system := fmt.Sprintf("You are %s, a member of an online learning community.\n%s", bot.Name, bot.Persona)
	text, err := s.ai.GenerateText(ctx, system, botPostUserPrompt)
	if err != nil {
		return nil, fmt.Errorf("generate bot post: %w", err)
	}
	text = strings.Trim(strings.TrimSpace(text), "\"")
	if text == "" {
		return nil, fmt.Errorf("generate bot post: empty text")
	}

	meta, _ := json.Marshal(map[string]any{"generated": true})
	id := bot.ID
	post := &types.Post{
		BotID:      &id,
		AuthorName: bot.Name,
		AvatarURL:  bot.AvatarURL,
		Body:       text,
		Kind:       types.PostKindPost,
		Metadata:   datatypes.JSON(meta),
	}
	if err := s.postRepo.Create(ctx, nil, post); err != nil {
		return nil, err
	}
	s.log.Info("bot post published", "bot", bot.Name, "post_id", post.ID)
	return post, nil
}
