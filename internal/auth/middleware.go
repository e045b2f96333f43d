package auth

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type contextKey string

const ownerContextKey contextKey = "fileboxOwner"

// Claims describes the validated identity extracted from an access token.
type Claims struct {
	OwnerID   uuid.UUID
	Name      string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// TokenValidator verifies an access token and returns its claims.
type TokenValidator interface {
	ValidateAccessToken(token string) (Claims, error)
}

// ContextOwner represents the authenticated principal stored in the request context.
type ContextOwner struct {
	ID   string
	Name string
}

// Middleware validates bearer tokens and injects the authenticated owner.
func Middleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "missing authorization header"})
			return
		}

		token := extractBearerToken(authHeader)
		if token == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "invalid authorization header"})
			return
		}

		claims, err := validator.ValidateAccessToken(token)
		if err != nil {
			c.AbortWithStatusJSON(401, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(string(ownerContextKey), ContextOwner{
			ID:   claims.OwnerID.String(),
			Name: claims.Name,
		})

		c.Next()
	}
}

// CurrentOwner extracts the authenticated owner from the context.
func CurrentOwner(c *gin.Context) (ContextOwner, bool) {
	value, exists := c.Get(string(ownerContextKey))
	if !exists {
		return ContextOwner{}, false
	}
	o, ok := value.(ContextOwner)
	return o, ok
}

// RequireOwner fetches the authenticated owner and parses the identifier.
func RequireOwner(c *gin.Context) (uuid.UUID, ContextOwner, bool) {
	o, ok := CurrentOwner(c)
	if !ok {
		return uuid.Nil, ContextOwner{}, false
	}
	id, err := uuid.Parse(o.ID)
	if err != nil {
		return uuid.Nil, ContextOwner{}, false
	}
	return id, o, true
}

func extractBearerToken(header string) string {
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
