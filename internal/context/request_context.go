package context

import (
	"context"
)

type contextKey string

var (
	requestIDKey contextKey = "request_id"
	clientIDKey  contextKey = "client_id"
	themeKey     contextKey = "theme"
)

// DefaultTheme is used when no valid preference cookie is present.
const DefaultTheme = "light"

func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// SetClientID stores the browser's client id. Edit sessions are keyed by it.
func SetClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDKey, id)
}

func GetClientID(ctx context.Context) string {
	id, _ := ctx.Value(clientIDKey).(string)
	return id
}

func SetTheme(ctx context.Context, theme string) context.Context {
	return context.WithValue(ctx, themeKey, theme)
}

func GetTheme(ctx context.Context) string {
	if theme, ok := ctx.Value(themeKey).(string); ok && theme != "" {
		return theme
	}
	return DefaultTheme
}
