package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"sampletrack/internal/access"
	"sampletrack/internal/domain"
	"sampletrack/internal/metrics"
	"sampletrack/internal/service"
	"sampletrack/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Context keys set by Authenticate.
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
	ContextUserName = "userName"
)

const accessTokenCookie = "access_token"

// CookieConfig controls how the access token cookie is written.
type CookieConfig struct {
	Secure bool
	TTL    time.Duration
}

// SetTokenCookie sets access_token as an HttpOnly cookie.
func SetTokenCookie(c *gin.Context, cfg CookieConfig, accessToken string) {
	// Production (cross-origin): SameSiteNoneMode + Secure=true
	// Development (same-site):   SameSiteLaxMode  + Secure=false
	sameSite := http.SameSiteLaxMode
	if cfg.Secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(accessTokenCookie, accessToken, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)
}

// ClearTokenCookie removes the access_token cookie.
func ClearTokenCookie(c *gin.Context, cfg CookieConfig) {
	sameSite := http.SameSiteLaxMode
	if cfg.Secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(accessTokenCookie, "", -1, "/", "", cfg.Secure, true)
}

// TokenFromRequest reads the token from the cookie, then the Authorization header.
func TokenFromRequest(c *gin.Context) (string, error) {
	if tokenString, err := c.Cookie(accessTokenCookie); err == nil && tokenString != "" {
		return tokenString, nil
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization is missing")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("invalid authorization format, expected 'Bearer <token>'")
	}
	return parts[1], nil
}

// ParseToken validates an HS256 token and returns the caller it names.
func ParseToken(tokenString string, secret []byte) (service.Actor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return service.Actor{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return service.Actor{}, errors.New("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return service.Actor{}, errors.New("invalid token subject")
	}
	roleCode, _ := claims["role"].(string)
	name, _ := claims["name"].(string)
	return service.Actor{UserID: userID, Role: domain.ParseRole(roleCode), Name: name}, nil
}

// Authenticate validates the JWT and stores the caller in the gin context.
// Tokens naming an unknown role are refused.
func Authenticate(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := TokenFromRequest(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}
		actor, err := ParseToken(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}
		if !actor.Role.Valid() {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: unknown role"))
			return
		}

		c.Set(ContextUserID, actor.UserID.String())
		c.Set(ContextUserRole, string(actor.Role))
		c.Set(ContextUserName, actor.Name)
		c.Next()
	}
}

// ActorFromContext rebuilds the caller set by Authenticate.
func ActorFromContext(c *gin.Context) (service.Actor, bool) {
	id, err := uuid.Parse(c.GetString(ContextUserID))
	if err != nil {
		return service.Actor{}, false
	}
	return service.Actor{
		UserID: id,
		Role:   domain.ParseRole(c.GetString(ContextUserRole)),
		Name:   c.GetString(ContextUserName),
	}, true
}

func deny(c *gin.Context, fe *domain.ForbiddenError) {
	metrics.PermissionDenials.WithLabelValues(fe.Feature, string(fe.Action)).Inc()
	c.AbortWithStatusJSON(http.StatusForbidden, response.ErrorWithDetails(http.StatusForbidden, fe.Error(), gin.H{
		"feature":       fe.Feature,
		"action":        fe.Action,
		"allowed_roles": fe.AllowedRoles,
	}))
}

// RequireArea applies the role-class gate. It must run after Authenticate.
func RequireArea(area access.Area, action domain.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := domain.ParseRole(c.GetString(ContextUserRole))
		if err := access.CheckArea(role, area, action); err != nil {
			var fe *domain.ForbiddenError
			if errors.As(err, &fe) {
				deny(c, fe)
				return
			}
		}
		c.Next()
	}
}

// RequireFeature evaluates the permission table for (feature, action).
func RequireFeature(cache *access.Cache, feature string, action domain.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := domain.ParseRole(c.GetString(ContextUserRole))
		d, err := cache.Evaluate(c.Request.Context(), role, feature, action)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
			return
		}
		if !d.Allowed {
			var fe *domain.ForbiddenError
			if errors.As(d.Err(), &fe) {
				deny(c, fe)
				return
			}
		}
		c.Next()
	}
}
