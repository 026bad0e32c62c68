package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/memberhub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/memberhub-backend/internal/domain"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewUserRepo(db, testutil.Logger(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, tx, []*types.User{
		{Email: "  UserRepo@Example.com ", Password: "pw", Name: "Ana"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 || created[0].ID == uuid.Nil {
		t.Fatalf("Create: unexpected result %+v", created)
	}
	if created[0].Email != "userrepo@example.com" || created[0].Role != types.RoleMember {
		t.Fatalf("Create: email/role not normalized: %+v", created[0])
	}

	gotByIDs, err := repo.GetByIDs(ctx, tx, []uuid.UUID{created[0].ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(gotByIDs) != 1 || gotByIDs[0].ID != created[0].ID {
		t.Fatalf("GetByIDs: unexpected result: %+v", gotByIDs)
	}

	byEmail, err := repo.GetByEmail(ctx, tx, "USERREPO@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if byEmail == nil || byEmail.ID != created[0].ID {
		t.Fatalf("GetByEmail: unexpected result: %+v", byEmail)
	}

	missing, err := repo.GetByEmail(ctx, tx, "nobody@example.com")
	if err != nil || missing != nil {
		t.Fatalf("GetByEmail missing: got %+v err=%v", missing, err)
	}

	exists, err := repo.EmailExists(ctx, tx, created[0].Email)
	if err != nil || !exists {
		t.Fatalf("EmailExists: exists=%v err=%v", exists, err)
	}

	if err := repo.UpdateName(ctx, tx, created[0].ID, " Ana Maria "); err != nil {
		t.Fatalf("UpdateName: %v", err)
	}
	byEmail, _ = repo.GetByEmail(ctx, tx, created[0].Email)
	if byEmail.Name != "Ana Maria" {
		t.Fatalf("UpdateName: got %q", byEmail.Name)
	}
}

func TestNotificationRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	u := testutil.SeedUser(t, ctx, tx, "notify@example.com")
	other := testutil.SeedUser(t, ctx, tx, "other@example.com")
	repo := NewNotificationRepo(db, testutil.Logger(t))

	created, err := repo.Create(ctx, tx, []*types.Notification{
		{UserID: u.ID, Kind: types.NotificationKindWelcome, Title: "Welcome"},
		{UserID: u.ID, Kind: types.NotificationKindAccess, Title: "Access granted"},
	})
	if err != nil || len(created) != 2 {
		t.Fatalf("Create: %v (%d)", err, len(created))
	}

	ok, err := repo.MarkRead(ctx, tx, other.ID, created[0].ID, time.Now())
	if err != nil || ok {
		t.Fatalf("MarkRead by other user: ok=%v err=%v", ok, err)
	}
	ok, err = repo.MarkRead(ctx, tx, u.ID, created[0].ID, time.Now())
	if err != nil || !ok {
		t.Fatalf("MarkRead: ok=%v err=%v", ok, err)
	}

	all, err := repo.ListByUser(ctx, tx, u.ID, false, 10)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListByUser: %v (%d)", err, len(all))
	}
	unread, err := repo.ListByUser(ctx, tx, u.ID, true, 10)
	if err != nil || len(unread) != 1 || unread[0].ID != created[1].ID {
		t.Fatalf("ListByUser unread: %v %+v", err, unread)
	}
}
