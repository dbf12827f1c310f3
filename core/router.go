package core

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter constructs the Gin engine with the security pipeline and auth
// routes wired. Stage order is fixed: headers -> origin policy -> body limit,
// then per-group bearer auth for protected routes.
func NewRouter(cfg Config, authService *AuthService, tokens *TokenService, limiter *AttemptLimiter) *gin.Engine {
	startedAt := time.Now()
	r := gin.Default()

	r.Use(SecurityHeaders())
	r.Use(CORSMiddleware(cfg))
	r.Use(BodyLimit(cfg.MaxBodyBytes))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, CollectHealth(startedAt))
	})

	api := r.Group("/api")
	{
		api.GET("", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "Acquisitions API is running!"})
		})

		api.POST("/auth/signup", func(c *gin.Context) {
			var req struct {
				Name            string `json:"name"`
				Email           string `json:"email"`
				Password        string `json:"password"`
				ConfirmPassword string `json:"confirmPassword"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}
			// Clients that pre-check confirmation may omit the field.
			if req.ConfirmPassword == "" {
				req.ConfirmPassword = req.Password
			}
			if details := ValidateSignupInput(req.Name, req.Email, req.Password, req.ConfirmPassword, cfg.PasswordMinLength); len(details) > 0 {
				respondValidationError(c, details)
				return
			}

			token, user, err := authService.SignUp(c.Request.Context(), req.Name, req.Email, req.Password)
			if err != nil {
				if errors.Is(err, ErrEmailTaken) {
					respondError(c, http.StatusConflict, "CONFLICT", "email already exists")
					return
				}
				log.Printf("signup failed: %v", err)
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to create account")
				return
			}
			c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
		})

		api.POST("/auth/signin", func(c *gin.Context) {
			var req struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}
			if req.Email == "" || req.Password == "" {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "email and password are required")
				return
			}

			if limiter != nil {
				ok, err := limiter.Allow(c.Request.Context(), c.ClientIP())
				if err != nil {
					log.Printf("signin limiter unavailable: %v", err)
				} else if !ok {
					respondError(c, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", "too many signin attempts, try again later")
					return
				}
			}

			token, user, err := authService.SignIn(c.Request.Context(), req.Email, req.Password)
			if err != nil {
				if errors.Is(err, ErrInvalidCredentials) {
					respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")
					return
				}
				log.Printf("signin failed: %v", err)
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to sign in")
				return
			}
			if limiter != nil {
				resetLimiter(limiter, c.ClientIP())
			}
			c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
		})

		protected := api.Group("")
		protected.Use(RequireAuth(tokens))
		{
			protected.GET("/users/me", func(c *gin.Context) {
				subject, ok := CurrentSubject(c)
				if !ok {
					respondError(c, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
					return
				}
				user, err := authService.CurrentUser(c.Request.Context(), subject)
				if err != nil {
					if errors.Is(err, ErrUserNotFound) {
						// Valid token for a deleted account still means unauthenticated.
						respondError(c, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
						return
					}
					log.Printf("failed to load current user: %v", err)
					respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to load user")
					return
				}
				c.JSON(http.StatusOK, gin.H{"user": user})
			})
		}
	}

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})

	return r
}

// resetLimiter clears the attempt counter in the background; a failure here is
// log-only, never a response.
func resetLimiter(limiter *AttemptLimiter, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := limiter.Reset(ctx, key); err != nil {
		log.Printf("failed to reset signin attempts for %s: %v", key, err)
	}
}
