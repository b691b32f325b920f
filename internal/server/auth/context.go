package auth

import "context"

type ctxKey string

const (
	attachedUserKey  ctxKey = "attachedUserID"
	confirmedUserKey ctxKey = "confirmedUserID"
)

// WithAttachedUser stores the optimistically decoded principal id. It is
// meant for rendering only and must never authorize a mutation.
func WithAttachedUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, attachedUserKey, userID)
}

// AttachedUser returns the principal id attached to ctx, if any.
func AttachedUser(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(attachedUserKey).(string)
	return id, ok && id != ""
}

// WithConfirmedUser stores the principal id the guard allowed.
func WithConfirmedUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, confirmedUserKey, userID)
}

// ConfirmedUser returns the guard-confirmed principal id. Repositories are
// called with this value only.
func ConfirmedUser(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(confirmedUserKey).(string)
	return id, ok && id != ""
}
