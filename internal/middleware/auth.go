package middleware

import (
	"errors"
	"fmt"
	"shop-api/internal/apperr"
	"shop-api/internal/config"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"

	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Claims carries the user id in sub and the role in a private claim.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Auth accepts HS256 bearer tokens and stores the caller's id and role on the echo context.
func Auth(cfg *config.JWT) echo.MiddlewareFunc {
	if cfg.Secret == "" {
		panic("auth middleware requires a signing secret")
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				return apperr.ErrUnauthorized
			}

			claims := &Claims{}
			_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
				return []byte(cfg.Secret), nil
			})
			if err != nil {
				return apperr.ErrUnauthorized.Wrap(err)
			}

			userID, err := strconv.ParseUint(claims.Subject, 10, 64)
			if err != nil || userID == 0 {
				return apperr.ErrUnauthorized.Withf("token subject is not a user id")
			}

			role := claims.Role
			if role == "" {
				role = RoleCustomer
			}

			c.Set(ContextUserID, uint(userID))
			c.Set(ContextRole, role)
			return next(c)
		}
	}
}

func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if Role(c) != role {
				return apperr.ErrForbidden.Withf("%s role required", role)
			}
			return next(c)
		}
	}
}

// UserID returns the authenticated user, or 0 on unauthenticated routes.
func UserID(c echo.Context) uint {
	id, _ := c.Get(ContextUserID).(uint)
	return id
}

func Role(c echo.Context) string {
	role, _ := c.Get(ContextRole).(string)
	return role
}

// IssueToken signs a token for userID. The login flow lives outside this service; this is used
// by tooling and tests.
func IssueToken(cfg *config.JWT, userID uint, role string, ttl time.Duration) (string, error) {
	if cfg.Secret == "" {
		return "", errors.New("jwt secret is empty")
	}

	now := time.Now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
