package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ivaylo9512/Platform-app-auth-server/internal/auth"
	"github.com/ivaylo9512/Platform-app-auth-server/internal/domain"
	apperrors "github.com/ivaylo9512/Platform-app-auth-server/pkg/errors"
)

type contextKey string

const (
	identityKey contextKey = "identity"
	userKey     contextKey = "user"
)

// IdentityFromContext returns the verified token identity of the request.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(auth.Identity)
	return identity, ok
}

// UserFromContext returns the full account loaded by RequireUser.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userKey).(*domain.User)
	return user, ok
}

// UserVerifier resolves token claims to a live account.
type UserVerifier interface {
	VerifyUser(ctx context.Context, userID int64) (*domain.User, error)
}

// Authenticate verifies the bearer access token and stores the caller's
// identity on the request context. A missing header and a bad token produce
// the exact plain-text bodies clients branch on.
func Authenticate(codec *auth.TokenCodec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeText(w, http.StatusUnauthorized, apperrors.MissingToken().Message)
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			claims, err := codec.VerifyAccess(token)
			if err != nil {
				var appErr *apperrors.AppError
				if errors.As(err, &appErr) {
					writeText(w, http.StatusUnauthorized, appErr.Message)
				} else {
					writeText(w, http.StatusUnauthorized, apperrors.TokenInvalid().Message)
				}
				return
			}

			identity := auth.Identity{UserID: claims.UserID, Role: claims.Role}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
		})
	}
}

// RequireUser loads the account behind the authenticated identity. A token
// that verifies but points at a deleted account is rejected here.
func RequireUser(verifier UserVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				writeText(w, http.StatusUnauthorized, apperrors.Unauthorized().Message)
				return
			}

			user, err := verifier.VerifyUser(r.Context(), identity.UserID)
			if err != nil {
				var appErr *apperrors.AppError
				if errors.As(err, &appErr) {
					writeText(w, http.StatusUnauthorized, appErr.Message)
				} else {
					writeText(w, http.StatusUnauthorized, apperrors.Unauthorized().Message)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
		})
	}
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, "application/json") {
				writeText(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	AllowedOrigins []string
}

// CORS sets cross-origin headers for a credentialed client. The Authorization
// response header is exposed so browsers hand the access token to scripts,
// and credentials are allowed so the refreshToken cookie travels. A wildcard
// origin cannot be combined with credentials, so the request origin is echoed
// back when it is on the allow list.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	originSet := make(map[string]struct{}, len(cfg.AllowedOrigins))
	allowAny := false
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAny = true
		}
		originSet[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				_, allowed := originSet[origin]
				if allowed || allowAny {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Credentials", "true")
					w.Header().Add("Vary", "Origin")
				}
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Correlation-ID")
			w.Header().Set("Access-Control-Expose-Headers", "Authorization")
			w.Header().Set("Access-Control-Max-Age", "3600")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
