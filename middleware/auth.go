package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/gforms-server/config"
	"github.com/vnkhanh/gforms-server/models"
	"github.com/vnkhanh/gforms-server/policy"
	"github.com/vnkhanh/gforms-server/utils"
)

const (
	CtxUser  = "user"
	CtxActor = "actor"
)

// ResolveActor reads an optional Bearer token, loads the account and
// stores the policy actor for the rest of the request. Missing, invalid
// or stale tokens leave the request anonymous.
func ResolveActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := policy.Anonymous()
		if raw := bearerToken(c.GetHeader("Authorization")); raw != "" {
			if u, ok := loadTokenUser(raw); ok {
				actor = policy.NewActor(u)
				c.Set(CtxUser, u)
			}
		}
		c.Set(CtxActor, actor)
		c.Next()
	}
}

func bearerToken(header string) string {
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func loadTokenUser(raw string) (models.User, bool) {
	claims, err := utils.VerifyToken(raw)
	if err != nil {
		return models.User{}, false
	}
	uid, err := claims.UID()
	if err != nil {
		return models.User{}, false
	}
	// Reloaded per request so role and block changes apply immediately.
	var u models.User
	if err := config.DB.First(&u, uid).Error; err != nil {
		return models.User{}, false
	}
	return u, true
}

// Actor returns the actor resolved for this request.
func Actor(c *gin.Context) policy.Actor {
	if v, ok := c.Get(CtxActor); ok {
		if a, ok := v.(policy.Actor); ok {
			return a
		}
	}
	return policy.Anonymous()
}

// CurrentUser returns the signed-in account, if any.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return models.User{}, false
	}
	u, ok := v.(models.User)
	return u, ok
}

// RequireAuth rejects anonymous and blocked callers.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		a := Actor(c)
		if !a.Authenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		if a.Blocked {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Account blocked"})
			return
		}
		c.Next()
	}
}

// RequireAdmin guards the admin dashboards.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		d := policy.Evaluate(Actor(c), policy.UserDirectory(), policy.ActionRead)
		if !d.Allowed {
			c.AbortWithStatusJSON(d.Status(), gin.H{"message": d.Reason})
			return
		}
		c.Next()
	}
}
