package service

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	"github.com/lumenlabs/brandflow/internal/config"
	"github.com/lumenlabs/brandflow/internal/models"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService issues bearer session tokens after a TOTP login. With no TOTP
// secret configured it runs in demo mode and accepts any login as the
// configured demo user.
type AuthService struct {
	logger     *zap.Logger
	config     *config.AuthConfig
	sessionTTL time.Duration

	mu       sync.Mutex
	sessions map[string]session
}

type session struct {
	user      models.User
	expiresAt time.Time
}

func NewAuthService(cfg *config.AuthConfig, logger *zap.Logger) *AuthService {
	ttl, err := time.ParseDuration(cfg.SessionTTL)
	if err != nil || ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		logger:     logger,
		config:     cfg,
		sessionTTL: ttl,
		sessions:   make(map[string]session),
	}
}

// Login validates the TOTP code and returns the user with a fresh session
// token.
func (a *AuthService) Login(code string) (models.User, string, error) {
	if a.config.TOTPSecret != "" && !totp.Validate(code, a.config.TOTPSecret) {
		a.logger.Warn("TOTP token validation failed")
		return models.User{}, "", ErrInvalidCredentials
	}

	user := models.User{
		ID:    a.config.UserID,
		Name:  a.config.UserName,
		Email: a.config.UserEmail,
	}
	token := uuid.NewString()

	a.mu.Lock()
	a.sessions[token] = session{user: user, expiresAt: time.Now().Add(a.sessionTTL)}
	a.mu.Unlock()

	a.logger.Info("User logged in", zap.String("user_id", user.ID))
	return user, token, nil
}

// CurrentUser resolves a session token to its user. Expired sessions are
// evicted on access.
func (a *AuthService) CurrentUser(token string) (models.User, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	sess, ok := a.sessions[token]
	if !ok {
		return models.User{}, false
	}
	if time.Now().After(sess.expiresAt) {
		delete(a.sessions, token)
		return models.User{}, false
	}
	return sess.user, true
}

// Logout invalidates the session token. Unknown tokens are a no-op.
func (a *AuthService) Logout(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, token)
}

// Middleware authenticates requests via the Authorization bearer header and
// stores the user in the gin context.
func (a *AuthService) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "Authentication required"})
			return
		}

		user, ok := a.CurrentUser(token)
		if !ok {
			c.AbortWithStatusJSON(401, gin.H{"error": "Session expired or invalid"})
			return
		}

		c.Set("user", user)
		c.Set("token", token)
		c.Next()
	}
}
