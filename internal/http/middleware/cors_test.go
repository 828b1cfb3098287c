package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCORSAllowsConfiguredOrigins(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	cases := map[string]bool{
		"http://localhost:5173":       true,
		"https://studio.example.com":  true,
		"https://attacker.example.io": false,
	}
	for origin, allowed := range cases {
		origin, allowed := origin, allowed
		t.Run(origin, func(t *testing.T) {
			t.Parallel()
			r := gin.New()
			r.Use(CORS("https://studio.example.com"))
			r.OPTIONS("/api/projects", func(c *gin.Context) {
				c.Status(http.StatusNoContent)
			})
			req := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
			req.Header.Set("Origin", origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			got := rec.Header().Get("Access-Control-Allow-Origin")
			if allowed && got != origin {
				t.Fatalf("allow-origin: got=%q want=%q", got, origin)
			}
			if !allowed && got != "" {
				t.Fatalf("allow-origin for %s: got=%q want empty", origin, got)
			}
		})
	}
}
