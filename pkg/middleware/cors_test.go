package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func corsRouter(origins []string) *gin.Engine {
	r := gin.New()
	r.Use(CORS(origins))
	r.GET("/tutorials", func(c *gin.Context) { c.JSON(http.StatusOK, []string{}) })
	return r
}

func TestCORS_AllowedOrigin(t *testing.T) {
	r := corsRouter([]string{"http://localhost:5173", "https://tutors.example"})

	req := httptest.NewRequest(http.MethodOptions, "/tutorials", nil)
	req.Header.Set("Origin", "https://tutors.example")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "https://tutors.example", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	require.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")

	get := httptest.NewRequest(http.MethodGet, "/tutorials", nil)
	get.Header.Set("Origin", "http://localhost:5173")
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, get)
	require.Equal(t, http.StatusOK, w2.Code)
	require.Equal(t, "http://localhost:5173", w2.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_OtherOrigin(t *testing.T) {
	r := corsRouter([]string{"http://localhost:5173"})

	req := httptest.NewRequest(http.MethodGet, "/tutorials", nil)
	req.Header.Set("Origin", "http://evil.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_NoOriginHeader(t *testing.T) {
	r := corsRouter(nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tutorials", nil))
	require.Equal(t, http.StatusOK, w.Code)
}
