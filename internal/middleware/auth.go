package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/internship-tracker/internal/auth"
	"github.com/justsurfingit/internship-tracker/internal/models"
)

const (
	ContextUserIDKey = "user_id"
	ContextRoleKey   = "role"
)

// Authenticate requires a valid bearer token and stores the caller's id and
// role in the gin context.
func Authenticate(tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing token"})
			return
		}
		identity, err := tokens.Parse(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			return
		}
		setIdentity(c, identity)
		c.Next()
	}
}

// OptionalAuthenticate records the caller when a valid token is present and
// lets anonymous requests through otherwise.
func OptionalAuthenticate(tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if identity, err := tokens.Parse(tokenStr); err == nil {
				setIdentity(c, identity)
			}
		}
		c.Next()
	}
}

// AuthorizeRoles must run after Authenticate.
func AuthorizeRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := CurrentRole(c)
		if !ok || !slices.Contains(roles, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func setIdentity(c *gin.Context, identity *auth.Identity) {
	c.Set(ContextUserIDKey, identity.UserID)
	c.Set(ContextRoleKey, identity.Role)
}

func CurrentUserID(c *gin.Context) (string, bool) {
	id := c.GetString(ContextUserIDKey)
	return id, id != ""
}

func CurrentRole(c *gin.Context) (models.Role, bool) {
	v, ok := c.Get(ContextRoleKey)
	if !ok {
		return "", false
	}
	role, ok := v.(models.Role)
	return role, ok
}

// CurrentIdentity returns the caller or nil for anonymous requests.
func CurrentIdentity(c *gin.Context) *auth.Identity {
	id, ok := CurrentUserID(c)
	if !ok {
		return nil
	}
	role, _ := CurrentRole(c)
	return &auth.Identity{UserID: id, Role: role}
}
