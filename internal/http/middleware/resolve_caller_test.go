package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/platform/apierr"
	"github.com/yungbote/memberhub-backend/internal/platform/ctxutil"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

type mapResolver struct {
	byEmail map[string]uuid.UUID
	calls   int
}

func (m *mapResolver) ResolveCaller(ctx context.Context, rd *ctxutil.RequestData) (*types.User, error) {
	m.calls++
	id, ok := m.byEmail[rd.Email]
	if !ok {
		return nil, apierr.New(http.StatusConflict, "identity_conflict", errors.New("email linked to another account"))
	}
	return &types.User{ID: id, Email: rd.Email}, nil
}

func TestResolveCallerSwapsSubjectForLocalUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	am := NewAuthMiddleware(logger.Nop(), AuthConfig{Secret: testSecret})
	localID := uuid.New()
	resolver := &mapResolver{byEmail: map[string]uuid.UUID{"member@example.com": localID}}

	r := gin.New()
	r.GET("/me", am.RequireAuth(), ResolveCaller(logger.Nop(), resolver), func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": rd.UserID.String(), "platform_user_id": rd.PlatformUserID.String()})
	})

	sub := uuid.New()
	cases := []struct {
		name  string
		email string
		want  int
		body  string
	}{
		{name: "linked", email: "Member@Example.com", want: http.StatusOK, body: localID.String()},
		{name: "conflict", email: "other@example.com", want: http.StatusConflict, body: "identity_conflict"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims := claimsFor(sub.String(), time.Hour, "")
			claims.Email = tc.email
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, claims))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("status %d want %d: %s", w.Code, tc.want, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tc.body) {
				t.Fatalf("body %s missing %q", w.Body.String(), tc.body)
			}
			if tc.want == http.StatusOK && !strings.Contains(w.Body.String(), sub.String()) {
				t.Fatalf("platform subject lost: %s", w.Body.String())
			}
		})
	}
}

func TestResolveCallerSkipsAdminWithoutEmail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	resolver := &mapResolver{}
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		rd := &ctxutil.RequestData{UserID: uuid.New(), Role: "admin"}
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}, ResolveCaller(logger.Nop(), resolver), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusNoContent || resolver.calls != 0 {
		t.Fatalf("status %d calls %d", w.Code, resolver.calls)
	}
}
