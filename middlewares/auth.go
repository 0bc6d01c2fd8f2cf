package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/table-service/models"
	"github.com/yeremiapane/table-service/services"
	"github.com/yeremiapane/table-service/utils"
)

const principalKey = "principal"

// PrincipalStore confirms that a token's subject still exists and may act.
type PrincipalStore interface {
	Customer(ctx context.Context, id uint) (*models.Customer, error)
	ActiveEmployee(ctx context.Context, id uint, role models.Role) (*models.Employee, error)
}

// Authenticator turns bearer tokens into a services.Principal on the gin
// context.
type Authenticator struct {
	secret string
	store  PrincipalStore
}

func NewAuthenticator(secret string, store PrincipalStore) *Authenticator {
	return &Authenticator{secret: secret, store: store}
}

// Required rejects requests without a valid Authorization header.
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			utils.RespondAppError(c, utils.Unauthenticated("authorization header missing"))
			c.Abort()
			return
		}
		p, err := a.resolve(c, token)
		if err != nil {
			utils.RespondAppError(c, err)
			c.Abort()
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// Optional attaches a principal when a valid token is present and lets
// anonymous requests through.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if p, err := a.resolve(c, token); err == nil {
				c.Set(principalKey, p)
			}
		}
		c.Next()
	}
}

// WebSocket reads the token from the query string, since browsers cannot set
// headers on the upgrade request.
func (a *Authenticator) WebSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		p, err := a.resolve(c, token)
		if err != nil {
			c.AbortWithStatus(utils.StatusFor(utils.KindOf(err)))
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

func (a *Authenticator) resolve(c *gin.Context, token string) (services.Principal, error) {
	claims, err := utils.ParseToken(a.secret, token)
	if err != nil {
		return services.Principal{}, utils.Unauthenticated("invalid or expired token")
	}
	role, err := models.ParseRole(claims.Role)
	if err != nil {
		return services.Principal{}, utils.Unauthenticated("invalid or expired token")
	}

	ctx := c.Request.Context()
	switch role {
	case models.RoleCustomer:
		if _, err := a.store.Customer(ctx, claims.PrincipalID); err != nil {
			if utils.KindOf(err) == utils.KindNotFound {
				return services.Principal{}, utils.Unauthenticated("unauthorized")
			}
			return services.Principal{}, err
		}
	case models.RoleWaiter, models.RoleChef, models.RoleAdmin:
		if _, err := a.store.ActiveEmployee(ctx, claims.PrincipalID, role); err != nil {
			return services.Principal{}, err
		}
	}
	return services.Principal{ID: claims.PrincipalID, Role: role}, nil
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

// PrincipalFrom returns the principal set by the Authenticator. The zero
// Principal means anonymous.
func PrincipalFrom(c *gin.Context) services.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return services.Principal{}
	}
	p, _ := v.(services.Principal)
	return p
}

// RequireRole allows only the listed roles through. It must run after
// Authenticator.Required.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := PrincipalFrom(c)
		if p.ID == 0 {
			utils.RespondAppError(c, utils.Unauthenticated("unauthorized"))
			c.Abort()
			return
		}
		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}
		utils.RespondAppError(c, utils.Forbidden("not authorized"))
		c.Abort()
	}
}
