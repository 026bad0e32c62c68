package knowledge

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/memberhub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/memberhub-backend/internal/domain"
)

func TestChunkRepoLifecycle(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	log := testutil.Logger(t)

	docs := NewDocumentRepo(db, log)
	chunks := NewChunkRepo(db, log)

	doc := &types.KnowledgeDocument{Title: "Handbook", FileName: "handbook.pdf", Status: types.DocumentStatusReady}
	if err := docs.Create(ctx, tx, doc); err != nil {
		t.Fatalf("Create document: %v", err)
	}

	rows := make([]*types.KnowledgeChunk, 0, 3)
	for i, content := range []string{"one.", "two.", "three."} {
		rows = append(rows, &types.KnowledgeChunk{
			DocumentID: doc.ID,
			ChunkIndex: i,
			Content:    content,
			Metadata:   datatypes.JSON([]byte(`{}`)),
			Embedding:  datatypes.JSON([]byte(`[1,0]`)),
		})
	}
	created, err := chunks.Create(ctx, tx, rows)
	if err != nil || len(created) != 3 {
		t.Fatalf("Create chunks: %v (%d)", err, len(created))
	}

	ids, err := chunks.IDsByDocument(ctx, tx, doc.ID)
	if err != nil || len(ids) != 3 || ids[0] != created[0].ID {
		t.Fatalf("IDsByDocument: %v %v", err, ids)
	}

	byIDs, err := chunks.GetByIDs(ctx, tx, []uuid.UUID{created[2].ID})
	if err != nil || len(byIDs) != 1 || byIDs[0].Content != "three." {
		t.Fatalf("GetByIDs: %v %+v", err, byIDs)
	}

	page, err := chunks.ListWithEmbeddings(ctx, tx, 1, 1)
	if err != nil || len(page) != 1 {
		t.Fatalf("ListWithEmbeddings: %v (%d)", err, len(page))
	}

	if err := docs.UpdateFields(ctx, tx, doc.ID, map[string]interface{}{"chunk_count": 3}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, err := docs.GetByID(ctx, tx, doc.ID)
	if err != nil || got == nil || got.ChunkCount != 3 {
		t.Fatalf("GetByID: %v %+v", err, got)
	}

	n, err := chunks.DeleteByDocument(ctx, tx, doc.ID)
	if err != nil || n != 3 {
		t.Fatalf("DeleteByDocument: n=%d err=%v", n, err)
	}
	ok, err := docs.Delete(ctx, tx, doc.ID)
	if err != nil || !ok {
		t.Fatalf("Delete document: ok=%v err=%v", ok, err)
	}
	list, err := docs.List(ctx, tx)
	if err != nil || len(list) != 0 {
		t.Fatalf("List after delete: %v (%d)", err, len(list))
	}
}
