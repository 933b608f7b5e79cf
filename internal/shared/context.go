package shared

import (
	"context"
	"strings"
)

type bearerTokenKey struct{}

// ContextWithBearerToken stores the caller's bearer token so outbound backend
// calls made on its behalf can forward it.
func ContextWithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerTokenKey{}, token)
}

// BearerTokenFromContext returns the forwarded token or an empty string.
func BearerTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(bearerTokenKey{}).(string)
	return token
}

// WithoutBearerToken hides any forwarded token so calls made with the
// returned ctx fall back to the service token.
func WithoutBearerToken(ctx context.Context) context.Context {
	return context.WithValue(ctx, bearerTokenKey{}, "")
}

// ParseBearer extracts the token from an Authorization header value.
func ParseBearer(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
