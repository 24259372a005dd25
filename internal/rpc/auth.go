package rpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inkwell/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Role   models.Role
}

// IsAdmin reports whether the caller holds the ADMIN role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == models.RoleAdmin
}

type identityKey struct{}

// WithIdentity attaches id to ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the caller attached by the pipeline, or nil.
func IdentityFrom(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

// Headers looks up request headers by canonical or lowercase name.
type Headers func(name string) string

// Authenticator resolves the caller from request headers. A nil identity with
// a nil error means an anonymous caller; an error means presented
// credentials were invalid.
type Authenticator interface {
	Authenticate(ctx context.Context, headers Headers) (*Identity, error)
}

// HeaderAuthenticator trusts x-user-id and x-user-role, as set by a gateway
// in front of the service.
type HeaderAuthenticator struct{}

func (HeaderAuthenticator) Authenticate(_ context.Context, headers Headers) (*Identity, error) {
	userID := strings.TrimSpace(headers("x-user-id"))
	if userID == "" {
		return nil, nil
	}
	role := models.Role(strings.ToUpper(strings.TrimSpace(headers("x-user-role"))))
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, models.NewUnauthorizedError("Invalid user role")
	}
	return &Identity{UserID: userID, Role: role}, nil
}

// JWTAuthenticator verifies HS256 bearer tokens carrying sub and role claims.
type JWTAuthenticator struct {
	secret []byte
}

// NewJWTAuthenticator creates a JWTAuthenticator for secret.
func NewJWTAuthenticator(secret string) *JWTAuthenticator {
	return &JWTAuthenticator{secret: []byte(secret)}
}

func (a *JWTAuthenticator) Authenticate(_ context.Context, headers Headers) (*Identity, error) {
	header := headers("Authorization")
	if header == "" {
		return nil, nil
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, models.NewUnauthorizedError("Invalid authorization header format")
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, models.NewUnauthorizedError("Invalid token structure - missing subject")
	}

	role := models.RoleUser
	if raw, ok := claims["role"].(string); ok && raw != "" {
		role = models.Role(strings.ToUpper(raw))
	}
	if !role.Valid() {
		return nil, models.NewUnauthorizedError("Invalid token role")
	}
	return &Identity{UserID: sub, Role: role}, nil
}

// Mint signs a token for userID with role, valid for ttl.
func (a *JWTAuthenticator) Mint(userID string, role models.Role, ttl time.Duration) (string, error) {
	if len(a.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"iss":  "inkwell",
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
		"jti":  models.NewID(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Authorizer decides whether the caller may run the procedure.
type Authorizer interface {
	Authorize(ctx context.Context, proc Procedure, caller *Identity) error
}

// AccessAuthorizer enforces each procedure's Access level.
type AccessAuthorizer struct{}

func (AccessAuthorizer) Authorize(_ context.Context, proc Procedure, caller *Identity) error {
	switch proc.Access {
	case AccessPublic:
		return nil
	case AccessProtected:
		if caller == nil {
			return models.NewUnauthorizedError("Authentication required")
		}
		return nil
	case AccessAdmin:
		if caller == nil {
			return models.NewUnauthorizedError("Authentication required")
		}
		if !caller.IsAdmin() {
			return models.NewForbiddenError("Admin access required")
		}
		return nil
	default:
		return models.NewForbiddenError("Access denied")
	}
}
