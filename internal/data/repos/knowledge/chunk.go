package knowledge

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

type ChunkRepo interface {
	Create(ctx context.Context, tx *gorm.DB, chunks []*types.KnowledgeChunk) ([]*types.KnowledgeChunk, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.KnowledgeChunk, error)
	// ListWithEmbeddings pages through chunks that carry an embedding, oldest first.
	ListWithEmbeddings(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.KnowledgeChunk, error)
	IDsByDocument(ctx context.Context, tx *gorm.DB, docID uuid.UUID) ([]uuid.UUID, error)
	DeleteByDocument(ctx context.Context, tx *gorm.DB, docID uuid.UUID) (int64, error)
}

type chunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChunkRepo(db *gorm.DB, baseLog *logger.Logger) ChunkRepo {
	return &chunkRepo{db: db, log: baseLog.With("repo", "KnowledgeChunkRepo")}
}

func (r *chunkRepo) Create(ctx context.Context, tx *gorm.DB, chunks []*types.KnowledgeChunk) ([]*types.KnowledgeChunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(chunks) == 0 {
		return []*types.KnowledgeChunk{}, nil
	}
	if err := transaction.WithContext(ctx).CreateInBatches(&chunks, 100).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

func (r *chunkRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.KnowledgeChunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.KnowledgeChunk
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chunkRepo) ListWithEmbeddings(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.KnowledgeChunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	var results []*types.KnowledgeChunk
	if err := transaction.WithContext(ctx).
		Where("embedding IS NOT NULL").
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chunkRepo) IDsByDocument(ctx context.Context, tx *gorm.DB, docID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.KnowledgeChunk{}).
		Where("document_id = ?", docID).
		Order("chunk_index ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *chunkRepo) DeleteByDocument(ctx context.Context, tx *gorm.DB, docID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Where("document_id = ?", docID).Delete(&types.KnowledgeChunk{})
	return res.RowsAffected, res.Error
}
