package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/memberhub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/memberhub-backend/internal/domain"
)

func TestProductRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	repo := NewProductRepo(db, testutil.Logger(t))

	created, err := repo.Create(ctx, tx, []*types.Product{
		{ExternalID: " 1001 ", Title: "Beta", Published: true},
		{ExternalID: "1002", Title: "Alpha", Published: false},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created[0].ExternalID != "1001" {
		t.Fatalf("external id not trimmed: %q", created[0].ExternalID)
	}

	got, err := repo.GetByExternalID(ctx, tx, "1001")
	if err != nil || got == nil || got.ID != created[0].ID {
		t.Fatalf("GetByExternalID: %+v err=%v", got, err)
	}
	missing, err := repo.GetByExternalID(ctx, tx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("GetByExternalID missing: %+v err=%v", missing, err)
	}

	all, err := repo.List(ctx, tx, false)
	if err != nil || len(all) != 2 || all[0].Title != "Alpha" {
		t.Fatalf("List: %v %+v", err, all)
	}
	published, err := repo.List(ctx, tx, true)
	if err != nil || len(published) != 1 || published[0].ID != created[0].ID {
		t.Fatalf("List published: %v %+v", err, published)
	}

	if err := repo.Update(ctx, tx, created[1].ID, map[string]interface{}{"published": true}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	byIDs, err := repo.GetByIDs(ctx, tx, []uuid.UUID{created[1].ID})
	if err != nil || len(byIDs) != 1 || !byIDs[0].Published {
		t.Fatalf("GetByIDs after update: %v %+v", err, byIDs)
	}

	ok, err := repo.Delete(ctx, tx, created[1].ID)
	if err != nil || !ok {
		t.Fatalf("Delete: ok=%v err=%v", ok, err)
	}
	gone, err := repo.GetByID(ctx, tx, created[1].ID)
	if err != nil || gone != nil {
		t.Fatalf("GetByID after delete: %+v err=%v", gone, err)
	}
}

func TestProductWithContentOrdersByPosition(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	log := testutil.Logger(t)

	p := testutil.SeedProduct(t, ctx, tx, "2001")
	second := testutil.SeedModule(t, ctx, tx, p.ID, 2)
	first := testutil.SeedModule(t, ctx, tx, p.ID, 1)
	testutil.SeedLesson(t, ctx, tx, first.ID, 2)
	l1 := testutil.SeedLesson(t, ctx, tx, first.ID, 1)

	got, err := NewProductRepo(db, log).GetWithContent(ctx, tx, p.ID)
	if err != nil || got == nil {
		t.Fatalf("GetWithContent: %+v err=%v", got, err)
	}
	if len(got.Modules) != 2 || got.Modules[0].ID != first.ID || got.Modules[1].ID != second.ID {
		t.Fatalf("modules out of order: %+v", got.Modules)
	}
	if len(got.Modules[0].Lessons) != 2 || got.Modules[0].Lessons[0].ID != l1.ID {
		t.Fatalf("lessons out of order: %+v", got.Modules[0].Lessons)
	}

	modules, err := NewModuleRepo(db, log).ListByProduct(ctx, tx, p.ID)
	if err != nil || len(modules) != 2 || modules[0].ID != first.ID {
		t.Fatalf("ListByProduct: %v %+v", err, modules)
	}
	lessons, err := NewLessonRepo(db, log).ListByModule(ctx, tx, first.ID)
	if err != nil || len(lessons) != 2 || lessons[0].ID != l1.ID {
		t.Fatalf("ListByModule: %v %+v", err, lessons)
	}
}
