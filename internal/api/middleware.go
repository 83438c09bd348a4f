package api

import (
	"strings"

	"ecommerce-service/internal/apperr"
	"ecommerce-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	tokenCookie = "token"
	userKey     = "user"
)

// Authenticate resolves the session token to a user. The token comes from
// the token cookie, or from a Bearer header when no cookie is sent.
func (h *Handler) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(tokenCookie)
		if token == "" {
			if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
				token = strings.TrimPrefix(header, "Bearer ")
			}
		}

		user, err := h.users.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// AuthorizeRoles lets the request through only when the user's role is in roles
func AuthorizeRoles(roles models.RoleSet) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || !roles.Contains(user.Role) {
			role := models.Role("")
			if user != nil {
				role = user.Role
			}
			c.Error(apperr.Forbidden("Role: %s is not allowed to access this resource", role))
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// parseUUID reads an id from the path or query; malformed ids abort with 400
func parseUUID(c *gin.Context, raw, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		c.Error(apperr.Validation("Resource not found. Invalid: %s", name))
		return uuid.Nil, false
	}
	return id, true
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	return parseUUID(c, c.Param("id"), "id")
}

// bindJSON decodes the request body; malformed bodies abort with 400
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.Error(apperr.Validation("Invalid request body"))
		return false
	}
	return true
}
