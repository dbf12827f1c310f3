package core

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// subjectContextKey is where RequireAuth stores the verified token subject.
const subjectContextKey = "auth.subject"

// SecurityHeaders attaches hardening headers to every response. It never
// blocks a request.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		c.Next()
	}
}

// CORSMiddleware enforces the cross-origin policy from config before any
// handler runs. Requests without an Origin header (same-origin, curl) pass.
func CORSMiddleware(cfg Config) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	return cors.New(corsCfg)
}

// BodyLimit bounds the request body so oversized payloads fail at bind time
// with a 4xx instead of reaching a handler.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// RequireAuth extracts the bearer token, verifies it, and stores the subject id
// in the context for downstream handlers. Missing, expired, tampered, and
// malformed tokens all produce the same 401 payload; the specific reason is
// only logged.
func RequireAuth(tokens *TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthenticated(c, "missing bearer token")
			return
		}
		subject, err := tokens.Verify(token)
		if err != nil {
			unauthenticated(c, err.Error())
			return
		}
		c.Set(subjectContextKey, subject)
		c.Next()
	}
}

// CurrentSubject returns the verified token subject set by RequireAuth.
func CurrentSubject(c *gin.Context) (string, bool) {
	v, ok := c.Get(subjectContextKey)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// unauthenticated aborts with the one generic 401 body used for every auth
// failure on protected routes.
func unauthenticated(c *gin.Context, reason string) {
	log.Printf("auth rejected %s %s: %s", c.Request.Method, c.Request.URL.Path, reason)
	respondError(c, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
	c.Abort()
}
