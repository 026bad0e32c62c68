package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/memberhub-backend/internal/data/repos"
	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

// SeedFile is the YAML document applied at boot. Entries that already exist are left
// untouched, so edits made in the back office survive restarts.
type SeedFile struct {
	Assistant *SeedAssistant `yaml:"assistant"`
	Bots      []SeedBot      `yaml:"bots"`
	Products  []SeedProduct  `yaml:"products"`
}

type SeedAssistant struct {
	Name             string `yaml:"name"`
	SystemPrompt     string `yaml:"system_prompt"`
	Model            string `yaml:"model"`
	KnowledgeEnabled *bool  `yaml:"knowledge_enabled"`
}

type SeedBot struct {
	Name      string `yaml:"name"`
	AvatarURL string `yaml:"avatar_url"`
	Persona   string `yaml:"persona"`
	Active    *bool  `yaml:"active"`
}

type SeedProduct struct {
	ExternalID  string `yaml:"external_id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	CoverURL    string `yaml:"cover_url"`
	Published   bool   `yaml:"published"`
}

func ParseSeedFile(b []byte) (*SeedFile, error) {
	var f SeedFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

// LoadSeedFile returns nil, nil when path is empty or missing.
func LoadSeedFile(path string) (*SeedFile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeedFile(b)
}

type SeedService interface {
	Apply(ctx context.Context, f *SeedFile) error
}

type seedService struct {
	log         *logger.Logger
	assistant   AssistantService
	community   CommunityService
	botRepo     repos.BotRepo
	productRepo repos.ProductRepo
}

func NewSeedService(baseLog *logger.Logger, assistant AssistantService, community CommunityService, botRepo repos.BotRepo, productRepo repos.ProductRepo) SeedService {
	return &seedService{
		log:         baseLog.With("service", "SeedService"),
		assistant:   assistant,
		community:   community,
		botRepo:     botRepo,
		productRepo: productRepo,
	}
}

func (s *seedService) Apply(ctx context.Context, f *SeedFile) error {
	if f == nil {
		f = &SeedFile{}
	}

	in := AssistantInput{KnowledgeEnabled: true}
	if a := f.Assistant; a != nil {
		in.Name = a.Name
		in.SystemPrompt = a.SystemPrompt
		in.Model = a.Model
		if a.KnowledgeEnabled != nil {
			in.KnowledgeEnabled = *a.KnowledgeEnabled
		}
	}
	if err := s.assistant.EnsureDefault(ctx, in); err != nil {
		return fmt.Errorf("seed assistant: %w", err)
	}

	for _, b := range f.Bots {
		existing, err := s.botRepo.GetByName(ctx, nil, strings.TrimSpace(b.Name))
		if err != nil {
			return fmt.Errorf("seed bot %q: %w", b.Name, err)
		}
		if existing != nil {
			continue
		}
		if _, err := s.community.CreateBot(ctx, BotInput{
			Name:      b.Name,
			AvatarURL: b.AvatarURL,
			Persona:   b.Persona,
			Active:    b.Active,
		}); err != nil {
			return fmt.Errorf("seed bot %q: %w", b.Name, err)
		}
		s.log.Info("seeded bot", "name", b.Name)
	}

	for _, p := range f.Products {
		ext := strings.TrimSpace(p.ExternalID)
		existing, err := s.productRepo.GetByExternalID(ctx, nil, ext)
		if err != nil {
			return fmt.Errorf("seed product %q: %w", ext, err)
		}
		if existing != nil {
			continue
		}
		if _, err := s.productRepo.Create(ctx, nil, []*types.Product{{
			ExternalID:  ext,
			Title:       strings.TrimSpace(p.Title),
			Description: strings.TrimSpace(p.Description),
			CoverURL:    strings.TrimSpace(p.CoverURL),
			Published:   p.Published,
		}}); err != nil {
			return fmt.Errorf("seed product %q: %w", ext, err)
		}
		s.log.Info("seeded product", "external_id", ext)
	}
	return nil
}
