package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/memberhub-backend/internal/http/response"
	"github.com/yungbote/memberhub-backend/internal/platform/ctxutil"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

const (
	roleAdmin  = "admin"
	roleMember = "member"
)

// PlatformClaims are the claims of an access token issued by the hosted auth platform.
// The platform puts application roles under app_metadata; a top-level role of "admin" is
// honoured for tokens minted by internal tooling.
type PlatformClaims struct {
	Email       string         `json:"email"`
	Role        string         `json:"role"`
	AppMetadata map[string]any `json:"app_metadata,omitempty"`
	jwt.RegisteredClaims
}

func (c *PlatformClaims) appRole() string {
	if c.AppMetadata != nil {
		if r, ok := c.AppMetadata["role"].(string); ok && strings.TrimSpace(r) != "" {
			return strings.ToLower(strings.TrimSpace(r))
		}
	}
	if strings.EqualFold(strings.TrimSpace(c.Role), roleAdmin) {
		return roleAdmin
	}
	return roleMember
}

type AuthConfig struct {
	// Secret is the HS256 key shared with the auth platform.
	Secret   string
	Audience string
	Issuer   string
	Leeway   time.Duration
}

type AuthMiddleware struct {
	log    *logger.Logger
	cfg    AuthConfig
	parser *jwt.Parser
}

func NewAuthMiddleware(log *logger.Logger, cfg AuthConfig) *AuthMiddleware {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &AuthMiddleware{
		log:    log.With("Middleware", "AuthMiddleware"),
		cfg:    cfg,
		parser: jwt.NewParser(opts...),
	}
}

// Verify parses tokenString and returns the caller identity it carries.
func (am *AuthMiddleware) Verify(tokenString string) (*ctxutil.RequestData, error) {
	if am.cfg.Secret == "" {
		return nil, errors.New("token verification is not configured")
	}
	claims := &PlatformClaims{}
	tok, err := am.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(am.cfg.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !tok.Valid {
		return nil, errors.New("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject in token: %w", err)
	}
	return &ctxutil.RequestData{
		UserID:         userID,
		PlatformUserID: userID,
		Email:          strings.ToLower(strings.TrimSpace(claims.Email)),
		Role:           claims.appRole(),
	}, nil
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearer(c)
		if tokenString == "" {
			response.AbortError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid token"))
			return
		}
		rd, err := am.Verify(tokenString)
		if err != nil {
			am.log.Debug("token rejected", "error", err)
			response.AbortError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid token"))
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func (am *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil || rd.UserID == uuid.Nil {
			response.AbortError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid token"))
			return
		}
		if !rd.IsAdmin() {
			response.AbortError(c, http.StatusForbidden, "forbidden", errors.New("admin role required"))
			return
		}
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
