// internal/interfaces/http/handlers/session.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// sessions issues the guest session cookie that keys anonymous carts
type sessions struct {
	name   string
	maxAge int
	secure bool
}

func newSessions(cfg *config.Config) sessions {
	return sessions{
		name:   cfg.Storefront.SessionCookie,
		maxAge: int(cfg.Storefront.GuestCartTTL.Seconds()),
		secure: cfg.IsProduction(),
	}
}

// current returns the session id from the cookie, or "" when there is none
func (s sessions) current(c *gin.Context) string {
	id, err := c.Cookie(s.name)
	if err != nil {
		return ""
	}
	return id
}

// getOrCreate gets session ID from cookie or creates a new one
func (s sessions) getOrCreate(c *gin.Context) string {
	if id := s.current(c); id != "" {
		return id
	}
	return s.rotate(c)
}

// rotate issues a fresh session id. The old guest cart becomes unreachable.
func (s sessions) rotate(c *gin.Context) string {
	id := uuid.NewString()
	c.SetCookie(s.name, id, s.maxAge, "/", "", s.secure, true)
	return id
}

// owner resolves whose cart a request addresses: the member when authenticated,
// otherwise the guest session (created on demand)
func (s sessions) owner(c *gin.Context) cart.Owner {
	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		return cart.Owner{UserID: &userID}
	}
	return cart.Owner{SessionID: s.getOrCreate(c)}
}
