package assistant

import (
	"context"
	"testing"

	"github.com/yungbote/memberhub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/memberhub-backend/internal/domain"
)

func TestAssistantConfigSaveKeepsSingleRow(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewAssistantConfigRepo(db, testutil.Logger(t))

	got, err := repo.Get(ctx, tx)
	if err != nil || got != nil {
		t.Fatalf("Get before save: %+v err=%v", got, err)
	}

	first, err := repo.Save(ctx, tx, &types.AssistantConfig{Name: "Ana", SystemPrompt: "Be kind.", KnowledgeEnabled: true})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := repo.Save(ctx, tx, &types.AssistantConfig{Name: "Ana 2", SystemPrompt: "Be brief.", KnowledgeEnabled: false})
	if err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("overwrite created a new row")
	}
	if second.Name != "Ana 2" || second.KnowledgeEnabled {
		t.Fatalf("fields not updated: %+v", second)
	}

	var count int64
	if err := tx.Model(&types.AssistantConfig{}).Count(&count).Error; err != nil || count != 1 {
		t.Fatalf("row count=%d err=%v", count, err)
	}
}
