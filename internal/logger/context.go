package logger

import "context"

type contextKey string

const SessionIDKey contextKey = "session_id"
const StreamURLKey contextKey = "stream_url"

func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, SessionIDKey, id)
}

func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(SessionIDKey).(string); ok {
		return id
	}
	return ""
}

func WithStreamURL(ctx context.Context, url string) context.Context {
	return context.WithValue(ctx, StreamURLKey, url)
}

func GetStreamURL(ctx context.Context) string {
	if url, ok := ctx.Value(StreamURLKey).(string); ok {
		return url
	}
	return ""
}
