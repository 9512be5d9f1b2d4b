package api

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"commerce-service/internal/audit"
)

type JwtCustomClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWT guards a route with an HS256 bearer token and records its holder as the audit actor.
func JWT(secret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(secret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(JwtCustomClaims)
		},
		SuccessHandler: func(c echo.Context) {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return
			}
			claims, ok := token.Claims.(*JwtCustomClaims)
			if !ok {
				return
			}
			req := c.Request()
			c.SetRequest(req.WithContext(audit.WithActor(req.Context(), claims.Actor())))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		},
	})
}

// Actor is the identity written into audit records.
func (c *JwtCustomClaims) Actor() string {
	switch {
	case c.Email != "":
		return c.Email
	case c.Name != "":
		return c.Name
	default:
		return c.Subject
	}
}

// SignToken issues a token accepted by JWT.
func SignToken(secret, name, email string, ttl time.Duration) (string, error) {
	claims := &JwtCustomClaims{
		Name:  name,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
