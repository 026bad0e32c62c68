package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/memberhub-backend/internal/data/repos/testutil"
)

func TestWiringWithoutOptionalClients(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	cfg.JWTSecret = "wiring-secret"

	reposet := wireRepos(db, log)
	serviceset := wireServices(db, log, cfg, reposet, Clients{})
	server := wireRouter(log, cfg, nil, serviceset, wireHandlers(db, log, cfg, serviceset), wireMiddleware(log, cfg))

	if err := serviceset.Seed.Apply(context.Background(), nil); err != nil {
		t.Fatalf("Seed.Apply: %v", err)
	}
	stored, err := reposet.AssistantConfig.Get(context.Background(), nil)
	if err != nil || stored == nil {
		t.Fatalf("default assistant not stored: %v", err)
	}

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/healthcheck", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/api/me/products", http.StatusUnauthorized},
		{http.MethodGet, "/api/admin/assistant", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.Engine.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
			if w.Code != tc.want {
				t.Fatalf("got %d want %d: %s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestPurchaseThenSignInListsProduct(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	cfg.JWTSecret = "wiring-secret"

	reposet := wireRepos(db, log)
	serviceset := wireServices(db, log, cfg, reposet, Clients{})
	server := wireRouter(log, cfg, nil, serviceset, wireHandlers(db, log, cfg, serviceset), wireMiddleware(log, cfg))

	product := testutil.SeedProduct(t, ctx, db, "1001")
	payload := `{"product_id":"1001","email":"buyer@example.com","name":"Buyer","status":"approved","transaction":"HP-9"}`
	if _, err := serviceset.Provisioning.HandlePurchase(ctx, []byte(payload)); err != nil {
		t.Fatalf("HandlePurchase: %v", err)
	}

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   uuid.NewString(),
		"email": "Buyer@Example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		server.Engine.ServeHTTP(w, req)
		return w
	}

	w := get("/api/me/products")
	if w.Code != http.StatusOK {
		t.Fatalf("me/products: %d %s", w.Code, w.Body.String())
	}
	var body struct {
		Products []struct {
			ID uuid.UUID `json:"id"`
		} `json:"products"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Products) != 1 || body.Products[0].ID != product.ID {
		t.Fatalf("products: %s", w.Body.String())
	}
	if w := get("/api/products/" + product.ID.String() + "/content"); w.Code != http.StatusOK {
		t.Fatalf("content: %d %s", w.Code, w.Body.String())
	}
}
