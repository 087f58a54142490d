package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const customerIDKey contextKey = "customerID"

// OptionalJWTMiddleware resolves the customer identity from a Bearer token
// when one is present. The chat funnel serves guests too, so a missing or
// invalid token never rejects the request — it just degrades to the guest
// customer id.
func OptionalJWTMiddleware(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			customerID := domain.GuestCustomerID

			authHeader := r.Header.Get("Authorization")
			if secret != "" && authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
					if sub, err := validateToken(parts[1], secret); err == nil && sub != "" {
						customerID = sub
					} else if err != nil {
						logger.Debug("invalid bearer token, continuing as guest",
							zap.String("path", r.URL.Path),
							zap.Error(err),
						)
					}
				}
			}

			ctx := context.WithValue(r.Context(), customerIDKey, customerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validateToken parses an HS256 token and returns its subject claim.
func validateToken(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, &domain.ErrUnauthorized{Message: "unexpected signing method"}
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	return token.Claims.GetSubject()
}

// CustomerIDFromContext extracts the resolved customer ID from context,
// defaulting to the guest sentinel.
func CustomerIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(customerIDKey).(string); ok && v != "" {
		return v
	}
	return domain.GuestCustomerID
}
