package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/tutorhub/tutor-server/internal/config"
	"github.com/tutorhub/tutor-server/internal/oidc"
	"github.com/tutorhub/tutor-server/internal/tokens"
	"github.com/tutorhub/tutor-server/internal/tutorial/service"
	"github.com/tutorhub/tutor-server/pkg/middleware"
)

func init() { gin.SetMode(gin.TestMode) }

func testConfig() *config.Config {
	return &config.Config{
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
		JWT:  config.JWTConfig{Secret: "app-test", AccessTokenTTL: time.Hour},
	}
}

func get(r http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNewRouter_Routes(t *testing.T) {
	cfg := testConfig()
	r := NewRouter(cfg, Deps{Tutorials: service.NewMemoryService(), Verifier: tokens.NewHMACVerifier(cfg.JWT.Secret)})

	w := get(r, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	require.Equal(t, http.StatusOK, get(r, "/tutorials", nil).Code)
	require.Equal(t, http.StatusOK, get(r, "/swagger/doc.json", nil).Code)

	w = get(r, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "go_goroutines")

	tok, _, err := tokens.Issue(cfg.JWT.Secret, middleware.Principal{Email: "a@x.io"}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, get(r, "/my-tutorials/a@x.io", map[string]string{"Authorization": "Bearer " + tok}).Code)
	require.Equal(t, http.StatusUnauthorized, get(r, "/my-tutorials/a@x.io", nil).Code)
}

func TestNewRouter_CORS(t *testing.T) {
	r := NewRouter(testConfig(), Deps{Tutorials: service.NewMemoryService()})

	w := get(r, "/tutorials", map[string]string{"Origin": "http://localhost:5173"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	w = get(r, "/tutorials", map[string]string{"Origin": "https://evil.example.com"})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestNewRouter_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.01, Burst: 2}
	r := NewRouter(cfg, Deps{Tutorials: service.NewMemoryService()})

	require.Equal(t, http.StatusOK, get(r, "/health", nil).Code)
	require.Equal(t, http.StatusOK, get(r, "/health", nil).Code)
	w := get(r, "/health", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestNewRouter_RedisRateLimitAndRevocation(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})

	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1, UseRedis: true, WindowSeconds: 60}
	r := NewRouter(cfg, Deps{Tutorials: service.NewMemoryService(), Verifier: tokens.NewHMACVerifier(cfg.JWT.Secret), Redis: rc})

	tok, _, err := tokens.Issue(cfg.JWT.Secret, middleware.Principal{Email: "a@x.io"}, time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var revoked, limited bool
	for _, k := range m.Keys() {
		revoked = revoked || strings.HasPrefix(k, "revoked:access:")
		limited = limited || strings.HasPrefix(k, "rl:")
	}
	require.True(t, revoked)
	require.True(t, limited)
}

func TestSelectVerifier(t *testing.T) {
	ctx := context.Background()

	v := SelectVerifier(ctx, &config.Config{JWT: config.JWTConfig{Secret: "s"}})
	require.IsType(t, &tokens.HMACVerifier{}, v)

	v = SelectVerifier(ctx, &config.Config{JWT: config.JWTConfig{AllowInsecureToken: true}})
	require.IsType(t, &oidc.InsecureVerifier{}, v)

	require.Nil(t, SelectVerifier(ctx, &config.Config{}))

	// unreachable issuer falls through to the next provider
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()
	v = SelectVerifier(ctx, &config.Config{
		Keycloak: config.KeycloakConfig{IssuerURL: dead.URL},
		JWT:      config.JWTConfig{Secret: "s"},
	})
	require.IsType(t, &tokens.HMACVerifier{}, v)
}

func TestDescribe(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Environment = "test"
	require.Equal(t, "env=test oidc=false hs256=true redis=false minio=false rate_limit=false", Describe(cfg))
}
