package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/memberhub-backend/internal/data/repos"
	"github.com/yungbote/memberhub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/platform/apierr"
	"github.com/yungbote/memberhub-backend/internal/platform/dbctx"
)

func TestCommunityPostsAndStories(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewCommunityService(db, log, &fakeAI{}, repos.NewUserRepo(db, log), repos.NewPostRepo(db, log), repos.NewBotRepo(db, log)).(*communityService)

	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	member := testutil.SeedUser(t, context.Background(), db, "poster@example.com")
	ctx := asUser(member.ID, types.RoleMember)

	post, err := svc.CreatePost(ctx, PostInput{Body: " Hello everyone "})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if post.Kind != types.PostKindPost || post.Body != "Hello everyone" || post.AuthorName != "Member" {
		t.Fatalf("post: %+v", post)
	}
	story, err := svc.CreatePost(ctx, PostInput{Body: "day one", Kind: "STORY"})
	if err != nil {
		t.Fatalf("CreatePost story: %v", err)
	}
	if story.ExpiresAt == nil || !story.ExpiresAt.Equal(now.Add(storyTTL)) {
		t.Fatalf("story expiry: %+v", story.ExpiresAt)
	}

	feed, err := svc.Feed(dbctx.Context{Ctx: ctx}, nil, 10)
	if err != nil || len(feed) != 2 {
		t.Fatalf("Feed: %v (%d)", err, len(feed))
	}

	svc.now = func() time.Time { return now.Add(25 * time.Hour) }
	feed, err = svc.Feed(dbctx.Context{Ctx: ctx}, nil, 10)
	if err != nil || len(feed) != 1 || feed[0].ID != post.ID {
		t.Fatalf("Feed after story expiry: %v %+v", err, feed)
	}

	cases := []struct {
		name string
		ctx  context.Context
		in   PostInput
		want int
	}{
		{name: "anonymous", ctx: context.Background(), in: PostInput{Body: "x"}, want: http.StatusUnauthorized},
		{name: "empty", ctx: ctx, in: PostInput{Body: "  "}, want: http.StatusBadRequest},
		{name: "bad kind", ctx: ctx, in: PostInput{Body: "x", Kind: "reel"}, want: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreatePost(tc.ctx, tc.in); apierr.StatusOf(err) != tc.want {
				t.Fatalf("got %d (%v)", apierr.StatusOf(err), err)
			}
		})
	}
}

func TestGenerateBotPost(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ai := &fakeAI{generated: `"Tip: review yesterday's lesson before starting a new one."`}
	svc := NewCommunityService(db, log, ai, repos.NewUserRepo(db, log), repos.NewPostRepo(db, log), repos.NewBotRepo(db, log))
	ctx := context.Background()

	bot, err := svc.CreateBot(ctx, BotInput{Name: "Bia", Persona: "A cheerful tutor."})
	if err != nil {
		t.Fatalf("CreateBot: %v", err)
	}
	if !bot.Active {
		t.Fatal("bots are active by default")
	}
	if _, err := svc.CreateBot(ctx, BotInput{Name: "Bia", Persona: "x"}); apierr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("duplicate name: %v", err)
	}

	post, err := svc.GenerateBotPost(ctx, bot.ID)
	if err != nil {
		t.Fatalf("GenerateBotPost: %v", err)
	}
	if post.BotID == nil || *post.BotID != bot.ID || post.AuthorName != "Bia" {
		t.Fatalf("post author: %+v", post)
	}
	if post.Body != "Tip: review yesterday's lesson before starting a new one." {
		t.Fatalf("body: %q", post.Body)
	}
	if ai.genSystem == "" {
		t.Fatal("persona prompt not sent")
	}

	inactive := false
	if _, err := svc.UpdateBot(ctx, bot.ID, BotInput{Active: &inactive}); err != nil {
		t.Fatalf("UpdateBot: %v", err)
	}
	if _, err := svc.GenerateBotPost(ctx, bot.ID); apierr.CodeOf(err, "") != "bot_inactive" {
		t.Fatalf("inactive bot: %v", err)
	}
	if _, err := svc.GenerateBotPost(ctx, uuid.New()); apierr.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("missing bot: %v", err)
	}
	if err := svc.DeleteBot(ctx, bot.ID); err != nil {
		t.Fatalf("DeleteBot: %v", err)
	}
}

func TestNotificationServiceScopesToCaller(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewNotificationService(db, log, repos.NewNotificationRepo(db, log))
	owner := testutil.SeedUser(t, context.Background(), db, "owner@example.com")
	other := testutil.SeedUser(t, context.Background(), db, "other@example.com")

	if err := svc.Notify(dbctx.Context{Ctx: context.Background()}, owner.ID, types.NotificationKindWelcome, "Welcome", ""); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	list, err := svc.ListMine(dbctx.Context{Ctx: asUser(owner.ID, types.RoleMember)}, true, 10)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListMine: %v (%d)", err, len(list))
	}
	if err := svc.MarkRead(dbctx.Context{Ctx: asUser(other.ID, types.RoleMember)}, list[0].ID); apierr.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("other user MarkRead: %v", err)
	}
	if err := svc.MarkRead(dbctx.Context{Ctx: asUser(owner.ID, types.RoleMember)}, list[0].ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	unread, _ := svc.ListMine(dbctx.Context{Ctx: asUser(owner.ID, types.RoleMember)}, true, 10)
	if len(unread) != 0 {
		t.Fatalf("still unread: %+v", unread)
	}
}
