// Package middleware provides authentication, logging, rate limiting and
// instrumentation middleware for the HTTP server.
package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the role claim value that unlocks privileged paths.
const RoleAdmin = "admin"

// Identity is what the auth collaborator vouches for on each request.
type Identity struct {
	UserID uint
	Role   string
}

// IsAdmin reports whether the identity may use privileged paths.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Verifier turns a bearer token into an Identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// JWTVerifier validates HMAC-signed tokens issued by the auth provider.
type JWTVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

// NewJWTVerifier builds a verifier; empty issuer or audience disables that check.
func NewJWTVerifier(secret, issuer, audience string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer, audience: audience}
}

// Verify parses and validates token.
func (v *JWTVerifier) Verify(_ context.Context, token string) (Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return Identity{}, models.NewUnauthorizedError("Invalid or expired token")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Identity{}, models.NewUnauthorizedError("Invalid token structure - missing subject")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return Identity{}, models.NewUnauthorizedError("Invalid user ID in token")
	}

	role, _ := claims["role"].(string)
	return Identity{UserID: uint(userID), Role: role}, nil
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", models.NewUnauthorizedError("Authorization header required")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", models.NewUnauthorizedError("Invalid authorization header format")
	}
	return parts[1], nil
}

func authenticate(c *fiber.Ctx, v Verifier) error {
	token, err := bearerToken(c)
	if err != nil {
		return err
	}
	identity, err := v.Verify(c.UserContext(), token)
	if err != nil {
		var appErr *models.AppError
		if !errors.As(err, &appErr) {
			return models.NewDependencyError("identity provider", err)
		}
		return err
	}

	c.Locals("userID", identity.UserID)
	c.Locals("identity", identity)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, identity.UserID))
	return nil
}

// AuthRequired is a middleware that enforces authentication for protected routes.
func AuthRequired(v Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := authenticate(c, v); err != nil {
			return models.RespondWithError(c, models.StatusForError(err), err)
		}
		return c.Next()
	}
}

// OptionalAuth resolves the viewer when a token is present. Anonymous
// requests pass through; a bad token is still rejected.
func OptionalAuth(v Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			return c.Next()
		}
		if err := authenticate(c, v); err != nil {
			return models.RespondWithError(c, models.StatusForError(err), err)
		}
		return c.Next()
	}
}

// AdminRequired must run after AuthRequired.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFrom(c)
		if !ok {
			err := models.NewUnauthorizedError("authentication required")
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		if !identity.IsAdmin() {
			err := models.NewForbiddenError("admin access required")
			return models.RespondWithError(c, fiber.StatusForbidden, err)
		}
		return c.Next()
	}
}

// IdentityFrom returns the identity resolved by the auth middleware.
func IdentityFrom(c *fiber.Ctx) (Identity, bool) {
	identity, ok := c.Locals("identity").(Identity)
	return identity, ok
}

// ViewerID returns the authenticated user id, or 0 for anonymous viewers.
func ViewerID(c *fiber.Ctx) uint {
	if identity, ok := IdentityFrom(c); ok {
		return identity.UserID
	}
	return 0
}
