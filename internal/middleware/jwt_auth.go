package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/prehome/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// ClaimsKey is the echo context key holding *models.JwtCustomClaims
const ClaimsKey = "user"

// JWTAuthMiddleware checks for a valid JWT and extracts user claims.
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	key := []byte(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return err
			}

			claims, err := parseBearer(raw, key)
			if err != nil {
				return err
			}

			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

// bearerToken extracts <token> from "Bearer <token>"
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" || strings.Contains(token, " ") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
	}
	return token, nil
}

func parseBearer(raw string, key []byte) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})

	switch {
	case errors.Is(err, jwt.ErrSignatureInvalid):
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token signature")
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Token expired")
	case err != nil, !token.Valid, claims.UserID == "":
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}
	return claims, nil
}

// RequireAdmin rejects callers whose token does not carry the admin role.
// It must run after JWTAuthMiddleware.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(ClaimsKey).(*models.JwtCustomClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
			}
			if claims.Role != models.RoleAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "Admin access required")
			}
			return next(c)
		}
	}
}
