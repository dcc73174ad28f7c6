package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/katalog/internal/auth"
	"github.com/erazemk/katalog/internal/catalog"
	"github.com/erazemk/katalog/internal/model"
)

type contextKey string

const claimsKey contextKey = "claims"

// TokenCookie carries the session token for browser clients.
const TokenCookie = "token"

// RequestIDHeader is set on every response.
const RequestIDHeader = "X-Request-ID"

// tokenFrom returns the bearer token or, failing that, the token cookie.
func tokenFrom(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// AuthMiddleware authenticates the request token and adds the claims to the context.
func AuthMiddleware(svc *catalog.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFrom(r)
			if token == "" {
				jsonError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}

			claims, err := svc.Authenticate(r.Context(), token)
			if err != nil {
				writeError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests from non-admin users.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r.Context())
		if claims == nil {
			jsonError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		if !claims.IsAdmin {
			jsonError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetClaims retrieves the JWT claims from the context.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// principal is the acting user, or the zero Principal when anonymous.
func principal(r *http.Request) model.Principal {
	if claims := GetClaims(r.Context()); claims != nil {
		return claims.Principal()
	}
	return model.Principal{}
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestID keeps a client-supplied id only if it is a UUID.
func requestID(supplied string) string {
	if id, err := uuid.Parse(supplied); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// LoggingMiddleware tags each request with an id and logs method, path,
// status and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := requestID(r.Header.Get(RequestIDHeader))
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
			"requestId", id,
		)
	})
}
