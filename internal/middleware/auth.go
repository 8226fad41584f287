package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tasterr/tasterr/internal/services"
)

// Claims is the JWT payload for a signed-in user. SignedUp carries the
// account creation time so audience filtering works without a user lookup.
type Claims struct {
	UID      string `json:"uid"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	SignedUp int64  `json:"signed_up,omitempty"`
	jwt.RegisteredClaims
}

type contextKey string

const claimsKey contextKey = "authClaims"

// SignToken mints an HS256 token for a user.
func SignToken(secret []byte, userID, role, email string, signedUp time.Time, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UID:      userID,
		Role:     role,
		Email:    email,
		SignedUp: signedUp.Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// WithAuth parses a Bearer token when one is present and stores the claims
// on the request context. Requests without a token pass through anonymous;
// requests with a bad token are rejected here.
func WithAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			raw := strings.TrimPrefix(header, "Bearer ")
			if raw == header {
				deny(w, http.StatusUnauthorized, "malformed authorization header")
				return
			}
			claims := &Claims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				deny(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			deny(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests whose token does not carry the admin role.
// Services enforce this again; the middleware just fails fast.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := FromContext(r.Context())
		if !ok {
			deny(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if claims.Role != services.RoleAdmin {
			deny(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// IdentityFromContext converts stored claims into the caller identity the
// services take.
func IdentityFromContext(ctx context.Context) (services.Identity, bool) {
	claims, ok := FromContext(ctx)
	if !ok {
		return services.Identity{}, false
	}
	ident := services.Identity{UserID: claims.UID, Role: claims.Role}
	if claims.SignedUp > 0 {
		ident.SignedUpAt = time.Unix(claims.SignedUp, 0)
	}
	return ident, true
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
