package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ballot-app-go/internal/apperr"
	"ballot-app-go/internal/config"
	usersdomain "ballot-app-go/internal/domain/users"
	"ballot-app-go/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

type JWTAuth struct {
	secret     []byte
	issuer     string
	users      UserLoader
	log        logger.Logger
	skipAuth   bool
	mockUserID string
}

type contextKey int

const (
	userIDKey contextKey = iota
	userKey
)

// Claims carries the user id in the standard subject claim.
type Claims struct {
	jwt.RegisteredClaims
}

type User struct {
	ID        string
	CompanyID string
	Role      usersdomain.Role
	FirstName string
	LastName  string
	Username  string
}

type UserLoader interface {
	GetUser(ctx context.Context, userID string) (*usersdomain.User, error)
}

func NewJWTAuth(cfg config.AuthConfig, users UserLoader, log logger.Logger) *JWTAuth {
	return &JWTAuth{
		secret:     []byte(cfg.JWTSecret),
		issuer:     strings.TrimSpace(cfg.JWTIssuer),
		users:      users,
		log:        log,
		skipAuth:   cfg.SkipAuth,
		mockUserID: strings.TrimSpace(cfg.MockUserID),
	}
}

// IssueToken signs an HS256 token for userID. Used by the CLI and tests.
func IssueToken(cfg config.AuthConfig, userID string, ttl time.Duration) (string, error) {
	if cfg.JWTSecret == "" {
		return "", errors.New("jwt secret is not configured")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    cfg.JWTIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}

func (a *JWTAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := a.mockUserID
		if a.skipAuth {
			if userID == "" {
				writeError(w, http.StatusInternalServerError, "auth_not_configured", "auth mock user id not configured")
				return
			}
		} else {
			if len(a.secret) == 0 {
				writeError(w, http.StatusInternalServerError, "auth_not_configured", "auth not configured")
				return
			}
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w)
				return
			}
			subject, err := a.parse(token)
			if err != nil {
				a.log.Debug("auth: token rejected", "err", err)
				unauthorized(w)
				return
			}
			userID = subject
		}

		// Role and company come from the store so revoked or demoted users
		// lose access without waiting for token expiry.
		loaded, err := a.users.GetUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, usersdomain.ErrUserNotFound) {
				unauthorized(w)
				return
			}
			if apperr.Retryable(err) {
				a.log.InternalError("auth: load user failed", err, "user_id", userID)
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusServiceUnavailable, "store_unavailable", "service temporarily unavailable")
				return
			}
			a.log.InternalError("auth: load user failed", err, "user_id", userID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			return
		}

		ctx := WithUser(r.Context(), User{
			ID:        loaded.ID,
			CompanyID: loaded.CompanyID,
			Role:      loaded.Role,
			FirstName: loaded.FirstName,
			LastName:  loaded.LastName,
			Username:  loaded.Username,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *JWTAuth) parse(tokenString string) (string, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		options = append(options, jwt.WithIssuer(a.issuer))
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, options...)
	if err != nil {
		return "", err
	}
	if !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return claims.Subject, nil
}

// RequireRole rejects users whose role is not listed with 403.
func RequireRole(roles ...usersdomain.Role) func(http.Handler) http.Handler {
	allowed := make(map[usersdomain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				unauthorized(w)
				return
			}
			if _, ok := allowed[user.Role]; !ok {
				writeError(w, http.StatusForbidden, "forbidden", "not allowed for your role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(value string) (string, bool) {
	parts := strings.Fields(value)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
}

func WithUser(ctx context.Context, user User) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, userIDKey, user.ID)
}

func UserFromContext(ctx context.Context) (User, bool) {
	value := ctx.Value(userKey)
	user, ok := value.(User)
	if !ok || user.ID == "" {
		return User{}, false
	}
	return user, true
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(userIDKey)
	userID, ok := value.(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
