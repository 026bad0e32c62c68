package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	types "github.com/yungbote/memberhub-backend/internal/domain"
	httpH "github.com/yungbote/memberhub-backend/internal/http/handlers"
	httpMW "github.com/yungbote/memberhub-backend/internal/http/middleware"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
	"github.com/yungbote/memberhub-backend/internal/services"
)

type echoChat struct{}

func (echoChat) StreamReply(ctx context.Context, req services.ChatRequest, onDelta func(string)) (string, error) {
	onDelta("ok")
	return "ok", nil
}

type okProvisioning struct{}

func (okProvisioning) HandlePurchase(ctx context.Context, raw []byte) (*services.ProvisionResult, error) {
	return &services.ProvisionResult{Success: true, Message: "ignored: status refunded"}, nil
}


type stubAssistant struct{}

func (stubAssistant) Get(ctx context.Context) (*types.AssistantConfig, error) {
	return &types.AssistantConfig{Name: "Assistant"}, nil
}

func (stubAssistant) Update(ctx context.Context, in services.AssistantInput) (*types.AssistantConfig, error) {
	return &types.AssistantConfig{Name: in.Name}, nil
}

func (stubAssistant) EnsureDefault(ctx context.Context, in services.AssistantInput) error { return nil }

func token(t *testing.T, role string) string {
	t.Helper()
	claims := httpMW.PlatformClaims{
		Email: "m@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	if role != "" {
		claims.AppMetadata = map[string]any{"role": role}
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("router-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestRouterAccessControl(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.Nop()
	r := NewRouter(RouterConfig{
		Log:              log,
		WebhookSecret:    "hook-secret",
		AuthMiddleware:   httpMW.NewAuthMiddleware(log, httpMW.AuthConfig{Secret: "router-secret"}),
		HealthHandler:    httpH.NewHealthHandler(nil),
		ChatHandler:      httpH.NewChatHandler(log, echoChat{}),
		WebhookHandler:   httpH.NewWebhookHandler(log, okProvisioning{}),
		AssistantHandler: httpH.NewAssistantHandler(stubAssistant{}),
	})

	member := token(t, "")
	admin := token(t, "admin")

	cases := []struct {
		name    string
		method  string
		path    string
		body    string
		headers map[string]string
		want    int
	}{
		{name: "health", method: http.MethodGet, path: "/healthcheck", want: http.StatusOK},
		{name: "chat anonymous", method: http.MethodPost, path: "/api/chat", body: `{}`, want: http.StatusUnauthorized},
		{name: "chat member", method: http.MethodPost, path: "/api/chat", body: `{"messages":[{"role":"user","content":"hi"}]}`, headers: map[string]string{"Authorization": "Bearer " + member}, want: http.StatusOK},
		{name: "webhook without secret", method: http.MethodPost, path: "/api/webhooks/purchase", body: `{}`, want: http.StatusUnauthorized},
		{name: "webhook with secret", method: http.MethodPost, path: "/api/webhooks/purchase", body: `{}`, headers: map[string]string{"X-Webhook-Secret": "hook-secret"}, want: http.StatusOK},
		{name: "admin route as member", method: http.MethodGet, path: "/api/admin/assistant", headers: map[string]string{"Authorization": "Bearer " + member}, want: http.StatusForbidden},
		{name: "admin route as admin", method: http.MethodGet, path: "/api/admin/assistant", headers: map[string]string{"Authorization": "Bearer " + admin}, want: http.StatusOK},
		{name: "admin route anonymous", method: http.MethodGet, path: "/api/admin/assistant", want: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status=%d want=%d body=%s", rec.Code, tc.want, rec.Body.String())
			}
			if rec.Header().Get("X-Request-Id") == "" {
				t.Fatal("missing request id header")
			}
		})
	}
}
