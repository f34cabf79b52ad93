package ports

import "context"

// tokenKey is unexported so no other package can collide with it.
type tokenKey struct{}

// ContextWithToken attaches the backend bearer token to the context. The
// backend adapter reads it back for authenticated calls, so request handlers
// never thread tokens through call signatures.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the bearer token attached by ContextWithToken,
// or "" when the context carries none.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}
