package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/memberhub-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		Email:    email,
		Password: "pw",
		Name:     "Member",
		Role:     types.RoleMember,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedProduct(tb testing.TB, ctx context.Context, tx *gorm.DB, externalID string) *types.Product {
	tb.Helper()
	p := &types.Product{
		ExternalID: externalID,
		Title:      "Product " + externalID,
		Published:  true,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed product: %v", err)
	}
	return p
}

func SeedModule(tb testing.TB, ctx context.Context, tx *gorm.DB, productID uuid.UUID, position int) *types.Module {
	tb.Helper()
	m := &types.Module{ProductID: productID, Title: "module", Position: position}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed module: %v", err)
	}
	return m
}

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, moduleID uuid.UUID, position int) *types.Lesson {
	tb.Helper()
	l := &types.Lesson{ModuleID: moduleID, Title: "lesson", Content: "content", Position: position}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}

func SeedPurchase(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, productID uuid.UUID, status string) *types.Purchase {
	tb.Helper()
	p := &types.Purchase{
		UserID:        userID,
		ProductID:     productID,
		Status:        status,
		TransactionID: "txn-" + uuid.NewString(),
		Payload:       datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed purchase: %v", err)
	}
	return p
}

func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, title string) *types.KnowledgeDocument {
	tb.Helper()
	d := &types.KnowledgeDocument{Title: title, FileName: title + ".txt", MimeType: "text/plain", Status: types.DocumentStatusReady}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return d
}

func SeedChunk(tb testing.TB, ctx context.Context, tx *gorm.DB, docID uuid.UUID, index int, content string, embedding string) *types.KnowledgeChunk {
	tb.Helper()
	c := &types.KnowledgeChunk{
		DocumentID: docID,
		ChunkIndex: index,
		Content:    content,
		Metadata:   datatypes.JSON([]byte("{}")),
		Embedding:  datatypes.JSON([]byte(embedding)),
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed chunk: %v", err)
	}
	return c
}

func SeedBot(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, active bool) *types.BotProfile {
	tb.Helper()
	b := &types.BotProfile{Name: name, Persona: "A friendly member who shares study tips.", Active: active}
	if err := tx.WithContext(ctx).Create(b).Error; err != nil {
		tb.Fatalf("seed bot: %v", err)
	}
	return b
}

func SeedPost(tb testing.TB, ctx context.Context, tx *gorm.DB, kind string, createdAt time.Time, expiresAt *time.Time) *types.Post {
	tb.Helper()
	p := &types.Post{AuthorName: "Member", Body: "hello", Kind: kind, ExpiresAt: expiresAt, CreatedAt: createdAt}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed post: %v", err)
	}
	return p
}
