package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/exterminus/internal/application"
)

// TokenCookieName is the cookie checked when no Authorization header is sent.
const TokenCookieName = "exterminus_token"

// AuthClaims are the JWT claims identifying a calendar user. Subject holds the
// numeric user id.
type AuthClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenAuthenticator verifies HS256 bearer tokens minted by the identity
// provider that shares the secret.
type TokenAuthenticator struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenAuthenticator returns an authenticator for secret. A non-empty
// issuer is required to match the token's iss claim.
func NewTokenAuthenticator(secret, issuer string) (*TokenAuthenticator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &TokenAuthenticator{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Authenticate parses token into a principal.
func (a *TokenAuthenticator) Authenticate(token string) (application.Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &AuthClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...); err != nil {
		return application.Principal{}, fmt.Errorf("parse token: %w", err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return application.Principal{}, fmt.Errorf("token subject %q is not a user id", claims.Subject)
	}
	role := application.NormalizeRole(claims.Role)
	if !application.ValidRole(role) {
		return application.Principal{}, fmt.Errorf("token role %q is unknown", claims.Role)
	}
	return application.Principal{UserID: userID, Role: role}, nil
}

// Sign mints a token for principal valid for ttl.
func (a *TokenAuthenticator) Sign(principal application.Principal, ttl time.Duration) (string, error) {
	now := a.now()
	claims := AuthClaims{
		Role: principal.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(principal.UserID, 10),
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// RequireToken authenticates the bearer token and stores the principal in the
// request context.
func RequireToken(auth *TokenAuthenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingToken)
				return
			}

			principal, err := auth.Authenticate(token)
			if err != nil {
				responder.loggerFor(r.Context()).InfoContext(r.Context(), "token rejected", "error", err)
				responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Message: errInvalidToken.Error()})
				return
			}

			ctx := ContextWithPrincipal(r.Context(), principal)
			if logger := LoggerFromContext(ctx); logger != nil {
				ctx = ContextWithLogger(ctx, logger.With("user_id", principal.UserID, "role", principal.Role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := r.Cookie(TokenCookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
