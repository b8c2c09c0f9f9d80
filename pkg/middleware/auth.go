package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"transport-booking/internal/data/repository"
	"transport-booking/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IdentityClaims is what the identity provider puts into its signed tokens.
type IdentityClaims struct {
	Email string `json:"email"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

var errInvalidToken = errors.New("invalid identity token")

// ParseIdentityToken verifies an HS256 token and returns the principal it names.
func ParseIdentityToken(raw string, secret []byte) (utils.Principal, error) {
	var claims IdentityClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return utils.Principal{}, fmt.Errorf("%w: %v", errInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return utils.Principal{}, fmt.Errorf("%w: subject %q is not a user id", errInvalidToken, claims.Subject)
	}

	return utils.Principal{UserID: userID, Email: claims.Email, IsAdmin: claims.Admin}, nil
}

// Authenticate accepts either a signed identity token (when a secret is configured)
// or an opaque session token looked up in the sessions table.
func Authenticate(sessionRepo repository.SessionRepository, jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}
			token := parts[1]

			var principal utils.Principal
			if jwtSecret != "" && strings.Count(token, ".") == 2 {
				p, err := ParseIdentityToken(token, []byte(jwtSecret))
				if err != nil {
					logger.Warn("Rejected identity token", zap.Error(err))
					utils.ResponseUnauthorized(w, "Invalid or expired token")
					return
				}
				principal = p
			} else {
				session, err := sessionRepo.FindValidSession(r.Context(), token)
				if err != nil {
					logger.Error("Failed to validate session", zap.Error(err))
					utils.ResponseInternalError(w, "Internal server error")
					return
				}
				if session == nil {
					logger.Warn("Invalid or expired session")
					utils.ResponseUnauthorized(w, "Invalid or expired session")
					return
				}
				principal = utils.Principal{
					UserID:  session.UserID,
					Email:   session.UserEmail,
					IsAdmin: session.IsAdmin,
				}
			}

			notePrincipal(r.Context(), principal)
			ctx := utils.SetPrincipal(r.Context(), principal)
			ctx = utils.SetTokenContext(ctx, token)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Admin rejects principals without the admin flag. Must run after Authenticate.
func Admin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := utils.GetPrincipal(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			if !principal.IsAdmin {
				logger.Warn("Admin check: non-admin access attempt",
					zap.String("user_id", principal.UserID.String()),
					zap.String("path", r.URL.Path))
				utils.ResponseForbidden(w, "Admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
