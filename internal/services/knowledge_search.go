package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/memberhub-backend/internal/data/repos"
	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
	"github.com/yungbote/memberhub-backend/internal/platform/openai"
	"github.com/yungbote/memberhub-backend/internal/platform/vectorstore"
)

type ChunkMatch struct {
	ChunkID    uuid.UUID `json:"chunk_id"`
	DocumentID uuid.UUID `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	Score      float64   `json:"score"`
}

type KnowledgeSearchService interface {
	// Search returns up to topK chunks scoring at least the configured threshold, best
	// first. topK <= 0 uses the configured match count.
	Search(ctx context.Context, query string, topK int) ([]ChunkMatch, error)
}

type knowledgeSearchService struct {
	db        *gorm.DB
	log       *logger.Logger
	cfg       KnowledgeConfig
	ai        openai.Client
	vectors   vectorstore.Store
	chunkRepo repos.KnowledgeChunkRepo
}

func NewKnowledgeSearchService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg KnowledgeConfig,
	ai openai.Client,
	vectors vectorstore.Store,
	chunkRepo repos.KnowledgeChunkRepo,
) KnowledgeSearchService {
	return &knowledgeSearchService{
		db:        db,
		log:       baseLog.With("service", "KnowledgeSearchService"),
		cfg:       cfg.withDefaults(),
		ai:        ai,
		vectors:   vectors,
		chunkRepo: chunkRepo,
	}
}

func (s *knowledgeSearchService) Search(ctx context.Context, query string, topK int) ([]ChunkMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if topK <= 0 {
		topK = s.cfg.MatchCount
	}
	vecs, err := s.ai.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("embed query: empty embedding")
	}
	q := vecs[0]

	if s.vectors != nil {
		matches, err := s.searchVectorStore(ctx, q, topK)
		if err == nil {
			return matches, nil
		}
		s.log.Warn("vector store query failed; scanning database", "error", err)
	}
	return s.searchDatabase(ctx, q, topK)
}

func (s *knowledgeSearchService) searchVectorStore(ctx context.Context, q []float32, topK int) ([]ChunkMatch, error) {
	hits, err := s.vectors.Query(ctx, knowledgeNamespace, q, topK)
	if err != nil {
		return nil, err
	}
	scores := make(map[uuid.UUID]float64, len(hits))
	ids := make([]uuid.UUID, 0, len(hits))
	for _, h := range hits {
		if h.Score < s.cfg.MatchThreshold {
			continue
		}
		id, err := uuid.Parse(h.ID)
		if err != nil {
			continue
		}
		scores[id] = h.Score
		ids = append(ids, id)
	}
	rows, err := s.chunkRepo.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, err
	}
	out := make([]ChunkMatch, 0, len(rows))
	for _, r := range rows {
		out = append(out, toChunkMatch(r, scores[r.ID]))
	}
	sortMatches(out)
	return out, nil
}

// searchDatabase pages through stored embeddings and keeps the best topK by cosine
// similarity.
func (s *knowledgeSearchService) searchDatabase(ctx context.Context, q []float32, topK int) ([]ChunkMatch, error) {
	const pageSize = 500
	var best []ChunkMatch
	for offset := 0; offset < s.cfg.ScanLimit; offset += pageSize {
		rows, err := s.chunkRepo.ListWithEmbeddings(ctx, nil, offset, pageSize)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			var emb []float32
			if err := json.Unmarshal(r.Embedding, &emb); err != nil || len(emb) == 0 {
				continue
			}
			score := CosineSimilarity(q, emb)
			if score < s.cfg.MatchThreshold {
				continue
			}
			best = append(best, toChunkMatch(r, score))
		}
		sortMatches(best)
		if len(best) > topK {
			best = best[:topK]
		}
		if len(rows) < pageSize {
			break
		}
	}
	return best, nil
}

func toChunkMatch(r *types.KnowledgeChunk, score float64) ChunkMatch {
	return ChunkMatch{
		ChunkID:    r.ID,
		DocumentID: r.DocumentID,
		ChunkIndex: r.ChunkIndex,
		Content:    r.Content,
		Score:      score,
	}
}

func sortMatches(m []ChunkMatch) {
	sort.SliceStable(m, func(i, j int) bool { return m[i].Score > m[j].Score })
}

// CosineSimilarity returns 0 for mismatched or zero-length vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
