package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/memberhub-backend/internal/data/repos"
	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/modules/knowledge/chunking"
	"github.com/yungbote/memberhub-backend/internal/modules/knowledge/extractor"
	"github.com/yungbote/memberhub-backend/internal/platform/apierr"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
	"github.com/yungbote/memberhub-backend/internal/platform/openai"
	"github.com/yungbote/memberhub-backend/internal/platform/vectorstore"
)

const knowledgeNamespace = "knowledge"

type KnowledgeConfig struct {
	ChunkMaxLength   int
	EmbedConcurrency int
	MatchThreshold   float64
	MatchCount       int
	// ScanLimit bounds the in-database similarity scan used without a vector store.
	ScanLimit int
}

func (c KnowledgeConfig) withDefaults() KnowledgeConfig {
	if c.ChunkMaxLength <= 0 {
		c.ChunkMaxLength = chunking.DefaultMaxLength
	}
	if c.EmbedConcurrency <= 0 {
		c.EmbedConcurrency = 4
	}
	if c.MatchCount <= 0 {
		c.MatchCount = 5
	}
	if c.ScanLimit <= 0 {
		c.ScanLimit = 5000
	}
	return c
}

type Extractor interface {
	Extract(ctx context.Context, name, mimeType string, data []byte) (string, error)
}

type IngestInput struct {
	Title      string
	FileName   string
	MimeType   string
	Data       []byte
	UploadedBy *uuid.UUID
}

type IngestResult struct {
	DocumentID   uuid.UUID `json:"document_id"`
	Status       string    `json:"status"`
	ChunksTotal  int       `json:"chunks_total"`
	ChunksStored int       `json:"chunks_stored"`
	ChunksFailed int       `json:"chunks_failed"`
}

type KnowledgeIngestService interface {
	Ingest(ctx context.Context, in IngestInput) (*IngestResult, error)
	ListDocuments(ctx context.Context) ([]*types.KnowledgeDocument, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error
}

type knowledgeIngestService struct {
	db        *gorm.DB
	log       *logger.Logger
	cfg       KnowledgeConfig
	ai        openai.Client
	extractor Extractor
	vectors   vectorstore.Store
	docRepo   repos.KnowledgeDocumentRepo
	chunkRepo repos.KnowledgeChunkRepo
}

// NewKnowledgeIngestService builds the ingestion pipeline. vectors may be nil, in which
// case embeddings live only in the database.
func NewKnowledgeIngestService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg KnowledgeConfig,
	ai openai.Client,
	ext Extractor,
	vectors vectorstore.Store,
	docRepo repos.KnowledgeDocumentRepo,
	chunkRepo repos.KnowledgeChunkRepo,
) KnowledgeIngestService {
	return &knowledgeIngestService{
		db:        db,
		log:       baseLog.With("service", "KnowledgeIngestService"),
		cfg:       cfg.withDefaults(),
		ai:        ai,
		extractor: ext,
		vectors:   vectors,
		docRepo:   docRepo,
		chunkRepo: chunkRepo,
	}
}

func (s *knowledgeIngestService) Ingest(ctx context.Context, in IngestInput) (*IngestResult, error) {
	if len(in.Data) == 0 {
		return nil, apierr.BadRequest("missing_file", "file is required")
	}
	in.FileName = strings.TrimSpace(in.FileName)
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		in.Title = in.FileName
	}
	if in.Title == "" {
		return nil, apierr.BadRequest("missing_title", "title is required")
	}

	raw, err := s.extractor.Extract(ctx, in.FileName, in.MimeType, in.Data)
	if err != nil {
		if errors.Is(err, extractor.ErrUnsupported) {
			return nil, apierr.New(http.StatusBadRequest, "unsupported_file", err)
		}
		return nil, apierr.New(http.StatusBadRequest, "extract_failed", err)
	}
	pieces := chunking.Chunk(chunking.Clean(raw), s.cfg.ChunkMaxLength)
	if len(pieces) == 0 {
		return nil, apierr.BadRequest("empty_document", "no text could be extracted from the file")
	}

	embeddings := s.embedAll(ctx, pieces)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := &types.KnowledgeDocument{
		Title:      in.Title,
		FileName:   in.FileName,
		MimeType:   in.MimeType,
		SizeBytes:  int64(len(in.Data)),
		UploadedBy: in.UploadedBy,
	}
	rows := make([]*types.KnowledgeChunk, 0, len(pieces))
	for i, content := range pieces {
		if embeddings[i] == nil {
			continue
		}
		vec, err := json.Marshal(embeddings[i])
		if err != nil {
			return nil, fmt.Errorf("encode embedding: %w", err)
		}
		meta, _ := json.Marshal(map[string]any{
			"title":       in.Title,
			"file_name":   in.FileName,
			"chunk_index": i,
		})
		rows = append(rows, &types.KnowledgeChunk{
			ChunkIndex: i,
			Content:    content,
			Metadata:   datatypes.JSON(meta),
			Embedding:  datatypes.JSON(vec),
		})
	}

	result := &IngestResult{
		ChunksTotal:  len(pieces),
		ChunksStored: len(rows),
		ChunksFailed: len(pieces) - len(rows),
	}
	switch {
	case result.ChunksFailed == 0:
		doc.Status = types.DocumentStatusReady
	case result.ChunksStored == 0:
		doc.Status = types.DocumentStatusFailed
	default:
		doc.Status = types.DocumentStatusPartial
	}
	doc.ChunkCount = len(rows)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.docRepo.Create(ctx, tx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		for _, r := range rows {
			r.DocumentID = doc.ID
		}
		if _, err := s.chunkRepo.Create(ctx, tx, rows); err != nil {
			return fmt.Errorf("insert chunks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.DocumentID = doc.ID
	result.Status = doc.Status

	if result.ChunksStored == 0 {
		return result, apierr.New(http.StatusBadGateway, "embedding_failed", fmt.Errorf("all %d embedding requests failed", result.ChunksTotal))
	}

	s.upsertVectors(ctx, rows, embeddings)

	s.log.Info("knowledge document ingested",
		"document_id", doc.ID,
		"status", doc.Status,
		"chunks_total", result.ChunksTotal,
		"chunks_failed", result.ChunksFailed,
	)
	return result, nil
}

// embedAll issues one embedding request per chunk. Failed requests leave a nil entry.
func (s *knowledgeIngestService) embedAll(ctx context.Context, pieces []string) [][]float32 {
	out := make([][]float32, len(pieces))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.EmbedConcurrency)
	for i := range pieces {
		i := i
		g.Go(func() error {
			vecs, err := s.ai.Embed(gctx, []string{pieces[i]})
			if err != nil {
				s.log.Warn("embedding request failed", "chunk_index", i, "error", err)
				return nil
			}
			if len(vecs) != 1 || len(vecs[0]) == 0 {
				s.log.Warn("embedding response empty", "chunk_index", i)
				return nil
			}
			out[i] = vecs[0]
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *knowledgeIngestService) upsertVectors(ctx context.Context, rows []*types.KnowledgeChunk, embeddings [][]float32) {
	if s.vectors == nil || len(rows) == 0 {
		return
	}
	vecs := make([]vectorstore.Vector, 0, len(rows))
	for _, r := range rows {
		vecs = append(vecs, vectorstore.Vector{
			ID:     r.ID.String(),
			Values: embeddings[r.ChunkIndex],
			Metadata: map[string]any{
				"document_id": r.DocumentID.String(),
				"chunk_index": r.ChunkIndex,
			},
		})
	}
	if err := s.vectors.Upsert(ctx, knowledgeNamespace, vecs); err != nil {
		s.log.Warn("vector upsert failed; database copy kept", "error", err, "count", len(vecs))
	}
}

func (s *knowledgeIngestService) ListDocuments(ctx context.Context) ([]*types.KnowledgeDocument, error) {
	return s.docRepo.List(ctx, nil)
}

func (s *knowledgeIngestService) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return apierr.BadRequest("invalid_id", "document id is required")
	}
	var chunkIDs []uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, err := s.chunkRepo.IDsByDocument(ctx, tx, id)
		if err != nil {
			return err
		}
		chunkIDs = ids
		if _, err := s.chunkRepo.DeleteByDocument(ctx, tx, id); err != nil {
			return err
		}
		ok, err := s.docRepo.Delete(ctx, tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return apierr.NotFound("document_not_found", "document not found")
		}
		return nil
	})
	if err != nil {
		return err
	}
	if s.vectors != nil && len(chunkIDs) > 0 {
		ids := make([]string, 0, len(chunkIDs))
		for _, cid := range chunkIDs {
			ids = append(ids, cid.String())
		}
		if err := s.vectors.Delete(ctx, knowledgeNamespace, ids); err != nil {
			s.log.Warn("vector delete failed", "document_id", id, "error", err)
		}
	}
	return nil
}
