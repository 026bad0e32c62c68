package billing

import (
	"context"
	"testing"

	"gorm.io/datatypes"

	"github.com/yungbote/memberhub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/memberhub-backend/internal/domain"
)

func TestPurchaseUpsertIsIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	u := testutil.SeedUser(t, ctx, tx, "buyer@example.com")
	p := testutil.SeedProduct(t, ctx, tx, "3001")
	repo := NewPurchaseRepo(db, testutil.Logger(t))

	first, err := repo.Upsert(ctx, tx, &types.Purchase{
		UserID:        u.ID,
		ProductID:     p.ID,
		TransactionID: "HP-1",
		Payload:       datatypes.JSON([]byte(`{"n":1}`)),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if first.Status != types.PurchaseStatusActive {
		t.Fatalf("default status: %q", first.Status)
	}

	second, err := repo.Upsert(ctx, tx, &types.Purchase{
		UserID:        u.ID,
		ProductID:     p.ID,
		TransactionID: "HP-2",
		Payload:       datatypes.JSON([]byte(`{"n":2}`)),
	})
	if err != nil {
		t.Fatalf("Upsert replay: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("replay created a new row: %s != %s", second.ID, first.ID)
	}
	if second.TransactionID != "HP-2" {
		t.Fatalf("transaction id not updated: %q", second.TransactionID)
	}

	rows, err := repo.ListByProduct(ctx, tx, p.ID)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListByProduct: %v (%d rows)", err, len(rows))
	}

	ok, err := repo.HasActive(ctx, tx, u.ID, p.ID)
	if err != nil || !ok {
		t.Fatalf("HasActive: ok=%v err=%v", ok, err)
	}
	ids, err := repo.ActiveProductIDs(ctx, tx, u.ID)
	if err != nil || len(ids) != 1 || ids[0] != p.ID {
		t.Fatalf("ActiveProductIDs: %v %v", err, ids)
	}

	if _, err := repo.SetStatus(ctx, tx, u.ID, p.ID, types.PurchaseStatusRefunded); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	ok, err = repo.HasActive(ctx, tx, u.ID, p.ID)
	if err != nil || ok {
		t.Fatalf("HasActive after refund: ok=%v err=%v", ok, err)
	}
}

func TestPurchaseUpsertRequiresKeys(t *testing.T) {
	db := testutil.DB(t)
	repo := NewPurchaseRepo(db, testutil.Logger(t))
	if _, err := repo.Upsert(context.Background(), nil, &types.Purchase{}); err == nil {
		t.Fatal("expected error for missing keys")
	}
}

func TestWebhookEventRepoList(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewWebhookEventRepo(db, testutil.Logger(t))

	for _, outcome := range []string{types.WebhookOutcomeIgnored, types.WebhookOutcomeProvisioned, types.WebhookOutcomeIgnored} {
		if err := repo.Create(ctx, tx, &types.WebhookEvent{Version: "v1", Outcome: outcome}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	all, err := repo.List(ctx, tx, "", 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("List: %v (%d)", err, len(all))
	}
	ignored, err := repo.List(ctx, tx, types.WebhookOutcomeIgnored, 10)
	if err != nil || len(ignored) != 2 {
		t.Fatalf("List ignored: %v (%d)", err, len(ignored))
	}
}
