package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"bundlehub/internal/config"
)

// BuyerIDKey is where the verified identity lands in the echo context.
const BuyerIDKey = "buyer_id"

// Auth validates the bearer token issued by the identity provider and
// extracts the verified buyer ID. The core never derives identity any other
// way; handlers downstream can trust the context value.
func Auth(cfg config.Auth) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			tokenString, found := strings.CutPrefix(header, "Bearer ")
			if !found || tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(cfg.JWTSecret), nil
			}, jwt.WithIssuer(cfg.Issuer), jwt.WithExpirationRequired())
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sub, err := token.Claims.GetSubject()
			if err != nil || sub == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
			}

			c.Set(BuyerIDKey, sub)
			return next(c)
		}
	}
}

// BuyerID reads the verified identity set by Auth. Empty when the route is
// not behind the middleware.
func BuyerID(c echo.Context) string {
	id, _ := c.Get(BuyerIDKey).(string)
	return id
}
