package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/memberhub-backend/internal/platform/ctxutil"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims PlatformClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func claimsFor(sub string, ttl time.Duration, appRole string) PlatformClaims {
	c := PlatformClaims{
		Email: "Member@Example.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	if appRole != "" {
		c.AppMetadata = map[string]any{"role": appRole}
	}
	return c
}

func newAuthRouter(am *AuthMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	whoami := func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": rd.UserID.String(), "role": rd.Role, "email": rd.Email})
	}
	r.GET("/me", am.RequireAuth(), whoami)
	r.GET("/admin", am.RequireAuth(), am.RequireAdmin(), whoami)
	return r
}

func TestRequireAuth(t *testing.T) {
	am := NewAuthMiddleware(logger.Nop(), AuthConfig{Secret: testSecret})
	r := newAuthRouter(am)
	userID := uuid.New().String()

	cases := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{name: "missing", path: "/me", header: "", want: http.StatusUnauthorized},
		{name: "garbage", path: "/me", header: "Bearer abc.def.ghi", want: http.StatusUnauthorized},
		{name: "wrong secret", path: "/me", header: "Bearer " + signToken(t, "other", claimsFor(userID, time.Hour, "")), want: http.StatusUnauthorized},
		{name: "expired", path: "/me", header: "Bearer " + signToken(t, testSecret, claimsFor(userID, -time.Hour, "")), want: http.StatusUnauthorized},
		{name: "bad subject", path: "/me", header: "Bearer " + signToken(t, testSecret, claimsFor("not-a-uuid", time.Hour, "")), want: http.StatusUnauthorized},
		{name: "member ok", path: "/me", header: "Bearer " + signToken(t, testSecret, claimsFor(userID, time.Hour, "")), want: http.StatusOK},
		{name: "member on admin", path: "/admin", header: "Bearer " + signToken(t, testSecret, claimsFor(userID, time.Hour, "")), want: http.StatusForbidden},
		{name: "admin ok", path: "/admin", header: "bearer " + signToken(t, testSecret, claimsFor(userID, time.Hour, "admin")), want: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status: got=%d want=%d body=%s", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestVerifyExtractsIdentity(t *testing.T) {
	am := NewAuthMiddleware(logger.Nop(), AuthConfig{Secret: testSecret})
	userID := uuid.New()
	rd, err := am.Verify(signToken(t, testSecret, claimsFor(userID.String(), time.Hour, "Admin")))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if rd.UserID != userID || rd.Email != "member@example.com" || !rd.IsAdmin() {
		t.Fatalf("unexpected identity: %+v", rd)
	}

	unconfigured := NewAuthMiddleware(logger.Nop(), AuthConfig{})
	if _, err := unconfigured.Verify("x"); err == nil {
		t.Fatal("expected error without secret")
	}
}

func TestWebhookSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name    string
		secret  string
		headers map[string]string
		want    int
	}{
		{name: "disabled", secret: "", want: http.StatusOK},
		{name: "missing", secret: "s3", want: http.StatusUnauthorized},
		{name: "wrong", secret: "s3", headers: map[string]string{headerWebhookSecret: "nope"}, want: http.StatusUnauthorized},
		{name: "header", secret: "s3", headers: map[string]string{headerWebhookSecret: "s3"}, want: http.StatusOK},
		{name: "hottok", secret: "s3", headers: map[string]string{headerHottok: "s3"}, want: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/hook", WebhookSecret(tc.secret), func(c *gin.Context) { c.Status(http.StatusOK) })
			req := httptest.NewRequest(http.MethodPost, "/hook", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("got=%d want=%d", rec.Code, tc.want)
			}
		})
	}
}

func TestRateLimitWithoutRedisPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RateLimit(logger.Nop(), nil, "chat", 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: got %d", i, rec.Code)
		}
	}
}
