package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bths-action/club-api/pkg/config"
	appErrors "github.com/bths-action/club-api/pkg/errors"
	"github.com/bths-action/club-api/pkg/response"
)

// ContextEmailKey is the gin context key storing the caller's verified email.
const ContextEmailKey = "sessionEmail"

// SessionClaims is the token payload issued by the identity provider. Only
// the verified email matters here; privilege is resolved against the user
// record, not the token.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Session requires a valid bearer token and stores the verified email on the
// request context.
func Session(cfg config.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		email, err := verifySession(parts[1], cfg)
		if err != nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(ContextEmailKey, email)
		c.Next()
	}
}

func verifySession(token string, cfg config.SessionConfig) (string, error) {
	claims := &SessionClaims{}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	for _, aud := range cfg.Audience {
		opts = append(opts, jwt.WithAudience(aud))
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.Email == "" {
		return "", fmt.Errorf("session token missing verified email")
	}
	return claims.Email, nil
}
