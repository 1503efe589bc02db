package ports

import "context"

type bearerTokenKey struct{}

// WithBearerToken pins the bearer token for gateway calls made with the
// returned context, bypassing the persisted token.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerTokenKey{}, token)
}

// BearerToken returns the token pinned by WithBearerToken.
func BearerToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(bearerTokenKey{}).(string)
	return token, ok
}
